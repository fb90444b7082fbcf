package detection

import (
	"time"

	"camdetect/internal/dto"
	"camdetect/internal/model"
)

// Frame is one captured raster frame. The loop closes every frame it reads.
type Frame interface {
	Close() error
}

// FrameSource wraps an exclusively owned capture device.
type FrameSource interface {
	Open() error
	Read() (Frame, error)
	// Close releases the device. Calling it on a closed source is a no-op.
	Close() error
}

// Detector wraps a loaded detection model.
type Detector interface {
	Load(path string) error
	Loaded() bool
	ModelPath() string
	Infer(frame Frame) ([]model.Candidate, error)
	// Annotate draws the candidates over the frame and returns the encoded image.
	Annotate(frame Frame, candidates []model.Candidate) ([]byte, error)
}

// Publisher pushes live updates to dashboard viewers.
type Publisher interface {
	PublishFrame(jpeg []byte)
	PublishDetection(entry dto.RecordEntry)
	PublishStatus(entry dto.StatusEntry)
	PublishState(state dto.StateInfo)
}

// RecordExporter writes a session record to path.
type RecordExporter interface {
	ExportRecords(path string, record model.SessionRecord) error
}

// ChartExporter renders a class tally to path, bars in record order.
type ChartExporter interface {
	ExportChart(path string, record model.SessionRecord, tally model.ClassTally) error
}

// SessionStore persists finished sessions.
type SessionStore interface {
	SaveSession(session *model.Session, record model.SessionRecord) error
}

// SnapshotSink receives the annotated frame of each first sighting.
type SnapshotSink interface {
	AddSnapshot(snapshot model.Snapshot)
}

// Observer receives loop counters.
type Observer interface {
	FrameRead()
	ReadFailed()
	InferenceFailed()
	InferenceDone(elapsed time.Duration)
	DetectionRecorded(className string)
	SessionStarted()
	SessionStopped()
}

type noopObserver struct{}

func (noopObserver) FrameRead()                  {}
func (noopObserver) ReadFailed()                 {}
func (noopObserver) InferenceFailed()            {}
func (noopObserver) InferenceDone(time.Duration) {}
func (noopObserver) DetectionRecorded(string)    {}
func (noopObserver) SessionStarted()             {}
func (noopObserver) SessionStopped()             {}
