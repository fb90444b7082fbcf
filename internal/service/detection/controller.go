package detection

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"camdetect/internal/dto"
	"camdetect/internal/logger"
	"camdetect/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNoModel        = errors.New("no model loaded")
	ErrAlreadyRunning = errors.New("detection already running")
	ErrNotRunning     = errors.New("detection not running")
)

// Phase is the state of the update loop.
type Phase int

const (
	Idle Phase = iota
	Running
	stopping
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case stopping:
		return "stopping"
	default:
		return "idle"
	}
}

const (
	levelInfo    = "info"
	levelWarning = "warning"
	levelError   = "error"
)

// Options wires the controller to its collaborators. Store, Snapshots and
// Observer may be nil.
type Options struct {
	Source          FrameSource
	Detector        Detector
	Publisher       Publisher
	Records         RecordExporter
	Chart           ChartExporter
	Store           SessionStore
	Snapshots       SnapshotSink
	Observer        Observer
	Logger          *logger.Logger
	Interval        time.Duration
	ConfidenceFloor float64
	StatusHistory   int
	Now             func() time.Time
}

// StopResult describes a finished session and the outcome of its exports.
type StopResult struct {
	Session model.Session `json:"session"`
	Errors  []string      `json:"errors,omitempty"`
}

// Controller runs the capture/detect/display loop and owns the session state.
// Start, Stop, LoadModel and every tick are serialized by mu, so ticks never overlap.
type Controller struct {
	source    FrameSource
	detector  Detector
	publisher Publisher
	records   RecordExporter
	chart     ChartExporter
	store     SessionStore
	snapshots SnapshotSink
	observer  Observer
	logger    *logger.Logger
	interval  time.Duration
	floor     float64
	now       func() time.Time

	mu        sync.Mutex
	phase     Phase
	state     *SessionState
	sessionID string
	startedAt time.Time
	modelPath string
	stop      chan struct{}
	wg        sync.WaitGroup

	historyMu  sync.Mutex
	history    []dto.StatusEntry
	historyCap int
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	c := &Controller{
		source:     opts.Source,
		detector:   opts.Detector,
		publisher:  opts.Publisher,
		records:    opts.Records,
		chart:      opts.Chart,
		store:      opts.Store,
		snapshots:  opts.Snapshots,
		observer:   opts.Observer,
		logger:     opts.Logger,
		interval:   opts.Interval,
		floor:      opts.ConfidenceFloor,
		now:        opts.Now,
		state:      NewSessionState(),
		historyCap: opts.StatusHistory,
	}
	if c.observer == nil {
		c.observer = noopObserver{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.interval <= 0 {
		c.interval = 30 * time.Millisecond
	}
	if c.historyCap <= 0 {
		c.historyCap = 500
	}
	return c
}

// LoadModel loads the model artifact at path into the detector.
func (c *Controller) LoadModel(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.detector.Load(path); err != nil {
		c.report(levelError, "Error loading model: %v", err)
		return err
	}
	c.report(levelInfo, "Model loaded successfully from %s.", path)
	return nil
}

// Start opens the frame source and begins ticking. It fails without side
// effects when no model is loaded or the camera cannot be opened.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != Idle {
		c.report(levelWarning, "Detection is already running.")
		return ErrAlreadyRunning
	}
	if !c.detector.Loaded() {
		c.report(levelError, "Error: No model loaded. Please select a model first.")
		return ErrNoModel
	}

	c.report(levelInfo, "Starting detection...")
	if err := c.source.Open(); err != nil {
		c.logger.Error("Camera open failed: %v", err)
		c.report(levelError, "Error: Could not open camera.")
		return err
	}

	c.state.Clear()
	c.sessionID = uuid.NewString()
	c.startedAt = c.now()
	c.modelPath = c.detector.ModelPath()
	c.phase = Running
	c.stop = make(chan struct{})
	c.observer.SessionStarted()

	c.wg.Add(1)
	go c.run(c.stop)

	c.publisher.PublishState(c.stateInfoLocked())
	return nil
}

// run schedules ticks until stop is closed.
func (c *Controller) run(stop <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick reads one frame, runs inference, publishes the annotated frame and
// records first sightings. Failures are reported and leave the loop running.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != Running {
		return
	}

	frame, err := c.source.Read()
	if err != nil {
		c.observer.ReadFailed()
		c.logger.Error("Frame read failed: %v", err)
		c.report(levelError, "Error: Could not read frame from camera.")
		return
	}
	defer frame.Close()
	c.observer.FrameRead()

	inferStart := time.Now()
	candidates, err := c.detector.Infer(frame)
	if err != nil {
		c.observer.InferenceFailed()
		c.report(levelError, "Error running detection: %v", err)
		return
	}
	c.observer.InferenceDone(time.Since(inferStart))

	annotated, err := c.detector.Annotate(frame, candidates)
	if err != nil {
		c.logger.Warning("Failed to annotate frame: %v", err)
		annotated = nil
	}
	if annotated != nil {
		c.publisher.PublishFrame(annotated)
	}

	added := Step(c.state, candidates, c.floor, c.now())
	for _, d := range added {
		c.observer.DetectionRecorded(d.ClassName)
		c.publisher.PublishDetection(dto.NewRecordEntry(d))
		if c.snapshots != nil && annotated != nil {
			c.snapshots.AddSnapshot(model.Snapshot{TakenAt: d.ObservedAt, Class: d.ClassName, Data: annotated})
		}
	}
}

// Stop ends the running session: it waits for an in-flight tick, closes the
// frame source, exports the session, persists it and clears the state.
func (c *Controller) Stop(picker DestinationPicker) (*StopResult, error) {
	c.mu.Lock()
	if c.phase != Running {
		c.mu.Unlock()
		c.report(levelWarning, "Detection is not running.")
		return nil, ErrNotRunning
	}
	c.phase = stopping
	stop := c.stop
	c.mu.Unlock()

	close(stop)
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.report(levelInfo, "Closing detection...")
	if err := c.source.Close(); err != nil {
		c.logger.Warning("Camera close failed: %v", err)
	}

	record, tally := c.state.Snapshot()
	result := &StopResult{
		Session: model.Session{
			ID:         c.sessionID,
			StartedAt:  c.startedAt,
			EndedAt:    c.now(),
			ModelPath:  c.modelPath,
			Detections: len(record),
		},
	}

	if path, ok := picker.PickRecords(); ok {
		if err := c.records.ExportRecords(path, record); err != nil {
			c.report(levelError, "Error saving detected objects: %v", err)
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.Session.RecordsPath = path
			c.report(levelInfo, "Detected objects saved to %s", path)
		}
	} else {
		c.logger.Info("Detected objects export cancelled")
	}

	if path, ok := picker.PickChart(); ok {
		if err := c.chart.ExportChart(path, record, tally); err != nil {
			c.report(levelError, "Error saving analysis: %v", err)
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.Session.ChartPath = path
			c.report(levelInfo, "Analysis saved as PDF: %s", path)
		}
	} else {
		c.logger.Info("Analysis export cancelled")
	}

	if c.store != nil {
		if err := c.store.SaveSession(&result.Session, record); err != nil {
			c.report(levelError, "Error saving session history: %v", err)
			result.Errors = append(result.Errors, err.Error())
		}
	}

	c.state.Clear()
	c.sessionID = ""
	c.phase = Idle
	c.observer.SessionStopped()

	c.publisher.PublishState(c.stateInfoLocked())
	return result, nil
}

// Shutdown stops a running session before the process exits. It is a no-op when idle.
func (c *Controller) Shutdown(picker DestinationPicker) {
	c.mu.Lock()
	running := c.phase == Running
	c.mu.Unlock()

	if !running {
		return
	}
	if _, err := c.Stop(picker); err != nil && !errors.Is(err, ErrNotRunning) {
		c.logger.Error("Failed to stop detection on shutdown: %v", err)
	}
}

// Phase returns the current loop phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns the dashboard view of the loop.
func (c *Controller) State() dto.StateInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateInfoLocked()
}

// Snapshot returns the current session record and tally.
func (c *Controller) Snapshot() (model.SessionRecord, model.ClassTally) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// StatusHistory returns the processing details log, oldest first.
func (c *Controller) StatusHistory() []dto.StatusEntry {
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	out := make([]dto.StatusEntry, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Controller) stateInfoLocked() dto.StateInfo {
	record, _ := c.state.Snapshot()
	info := dto.StateInfo{
		State:     c.phase.String(),
		SessionID: c.sessionID,
		ModelPath: c.detector.ModelPath(),
		Elapsed:   "00:00:00",
		Records:   dto.NewRecordEntries(record),
	}
	if c.phase == Running {
		info.Elapsed = formatElapsed(c.now().Sub(c.startedAt))
	}
	return info
}

// report records a user-visible status message, logs it and pushes it to viewers.
func (c *Controller) report(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	entry := dto.StatusEntry{Time: c.now(), Level: level, Message: msg}

	switch level {
	case levelError:
		c.logger.Error("%s", msg)
	case levelWarning:
		c.logger.Warning("%s", msg)
	default:
		c.logger.Info("%s", msg)
	}

	c.historyMu.Lock()
	c.history = append(c.history, entry)
	if len(c.history) > c.historyCap {
		c.history = c.history[len(c.history)-c.historyCap:]
	}
	c.historyMu.Unlock()

	c.publisher.PublishStatus(entry)
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
