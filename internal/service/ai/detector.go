package ai

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"camdetect/internal/config"
	"camdetect/internal/logger"
	"camdetect/internal/model"
	"camdetect/internal/service/detection"

	"gocv.io/x/gocv"
)

var (
	ErrLoad      = errors.New("model load failed")
	ErrNotLoaded = errors.New("detection network not initialized")
)

// Format identifies the output layout of a model.
type Format int

const (
	FormatYOLO Format = iota // ONNX, [1, 4+classes, anchors]
	FormatSSD                // TensorFlow frozen graph + .pbtxt, [1, 1, N, 7]
)

// matFrame is implemented by frames that carry an OpenCV image.
type matFrame interface {
	Mat() gocv.Mat
}

// DetectorService runs a DNN over camera frames and draws the results.
type DetectorService struct {
	net        gocv.Net
	loaded     bool
	format     Format
	modelPath  string
	labels     Labels
	labelsPath string
	threshold  float32
	nms        float32
	inputSize  image.Point
	quality    int
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewDetectorService creates a detector with no model loaded.
func NewDetectorService(cfg *config.Config, logger *logger.Logger) *DetectorService {
	return &DetectorService{
		labelsPath: cfg.LabelsPath,
		threshold:  float32(cfg.DetectionThreshold),
		nms:        float32(cfg.NMSThreshold),
		inputSize:  image.Pt(cfg.InputSize, cfg.InputSize),
		quality:    cfg.JPEGQuality,
		logger:     logger,
	}
}

// FormatFor returns the model format implied by the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return FormatYOLO, nil
	case ".pb":
		return FormatSSD, nil
	default:
		return 0, fmt.Errorf("%w: unsupported model format %q", ErrLoad, filepath.Ext(path))
	}
}

// Load reads the model at path and replaces the current one on success.
// Frozen graphs need a sibling .pbtxt; an optional sibling .labels.yaml
// overrides the COCO class names.
func (s *DetectorService) Load(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: model file not found: %s", ErrLoad, path)
	}

	labels, err := s.loadLabels(path, format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	var net gocv.Net
	switch format {
	case FormatSSD:
		configPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".pbtxt"
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("%w: config file not found: %s", ErrLoad, configPath)
		}
		net = gocv.ReadNet(path, configPath)
	default:
		net = gocv.ReadNetFromONNX(path)
	}

	if net.Empty() {
		net.Close()
		return fmt.Errorf("%w: failed to load network from %s", ErrLoad, path)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("%w: failed to set preferable backend or target", ErrLoad)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		s.net.Close()
	}
	s.net = net
	s.loaded = true
	s.format = format
	s.modelPath = path
	s.labels = labels
	s.logger.Info("Detection network initialized from %s (%d classes)", path, len(labels))
	return nil
}

func (s *DetectorService) loadLabels(modelPath string, format Format) (Labels, error) {
	if s.labelsPath != "" {
		return LoadLabels(s.labelsPath)
	}
	sibling := strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".labels.yaml"
	if _, err := os.Stat(sibling); err == nil {
		return LoadLabels(sibling)
	}
	return DefaultLabels(format), nil
}

// Loaded reports whether a model is ready for inference.
func (s *DetectorService) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// ModelPath returns the path of the loaded model, or "".
func (s *DetectorService) ModelPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelPath
}

// Infer runs the network on a single frame. Frames are independent.
func (s *DetectorService) Infer(frame detection.Frame) ([]model.Candidate, error) {
	mf, ok := frame.(matFrame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", frame)
	}
	img := mf.Mat()
	if img.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}

	var blob gocv.Mat
	switch s.format {
	case FormatSSD:
		blob = gocv.BlobFromImage(img, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	default:
		blob = gocv.BlobFromImage(img, 1.0/255.0, s.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	}
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	switch s.format {
	case FormatSSD:
		return s.candidates(decodeSSD(data, img.Cols(), img.Rows(), s.threshold)), nil
	default:
		dims := output.Size()
		if len(dims) != 3 {
			return nil, fmt.Errorf("unexpected YOLO output shape %v", dims)
		}
		sx := float32(img.Cols()) / float32(s.inputSize.X)
		sy := float32(img.Rows()) / float32(s.inputSize.Y)
		raw := decodeYOLOv8(data, dims[1], dims[2], sx, sy, s.threshold)
		return s.candidates(s.suppress(raw)), nil
	}
}

// suppress applies non-maximum suppression, keeping the strongest boxes.
func (s *DetectorService) suppress(raw []rawBox) []rawBox {
	if len(raw) == 0 {
		return nil
	}
	boxes := make([]image.Rectangle, len(raw))
	scores := make([]float32, len(raw))
	for i, r := range raw {
		boxes[i] = r.box
		scores[i] = r.score
	}

	indices := gocv.NMSBoxes(boxes, scores, s.threshold, s.nms)
	kept := make([]rawBox, 0, len(indices))
	for _, idx := range indices {
		kept = append(kept, raw[idx])
	}
	return kept
}

func (s *DetectorService) candidates(raw []rawBox) []model.Candidate {
	out := make([]model.Candidate, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Candidate{
			ClassID:    r.classID,
			ClassName:  s.labels.Name(r.classID),
			Confidence: float64(r.score),
			Box:        r.box,
		})
	}
	return out
}

// Annotate draws boxes and labels on a copy of the frame and returns it as JPEG.
func (s *DetectorService) Annotate(frame detection.Frame, candidates []model.Candidate) ([]byte, error) {
	mf, ok := frame.(matFrame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", frame)
	}

	mat := mf.Mat().Clone()
	defer mat.Close()

	for _, c := range candidates {
		clr := classColor(c.ClassID)
		if err := gocv.Rectangle(&mat, c.Box, clr, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s %.2f", c.ClassName, c.Confidence)
		y := c.Box.Min.Y - 5
		if y < 15 {
			y = c.Box.Min.Y + 15
		}
		if err := gocv.PutText(&mat, label, image.Pt(c.Box.Min.X, y), gocv.FontHersheySimplex, 0.5, clr, 1); err != nil {
			return nil, fmt.Errorf("failed to draw text: %w", err)
		}
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), s.quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil
	}
	s.loaded = false
	return s.net.Close()
}

var palette = []color.RGBA{
	{R: 255, G: 56, B: 56, A: 255},
	{R: 255, G: 157, B: 151, A: 255},
	{R: 255, G: 112, B: 31, A: 255},
	{R: 255, G: 178, B: 29, A: 255},
	{R: 207, G: 210, B: 49, A: 255},
	{R: 72, G: 249, B: 10, A: 255},
	{R: 146, G: 204, B: 23, A: 255},
	{R: 61, G: 219, B: 134, A: 255},
	{R: 26, G: 147, B: 52, A: 255},
	{R: 0, G: 212, B: 187, A: 255},
}

// classColor gives every class a stable box color.
func classColor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}
