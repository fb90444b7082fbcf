package dto

import "time"

// Message types pushed to dashboard viewers.
const (
	MessageFrame     = "frame"
	MessageDetection = "detection"
	MessageStatus    = "status"
	MessageState     = "state"
)

// Envelope wraps every websocket message sent to viewers.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FrameMessage carries one annotated frame as base64 JPEG.
type FrameMessage struct {
	Image string `json:"image"`
}

// StatusEntry is one line of the processing details log.
type StatusEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// StateInfo describes the loop state shown on the dashboard.
type StateInfo struct {
	State     string        `json:"state"`
	SessionID string        `json:"session_id,omitempty"`
	ModelPath string        `json:"model_path,omitempty"`
	Elapsed   string        `json:"elapsed"`
	Records   []RecordEntry `json:"records"`
}

// ModelFile is one entry of the model picker.
type ModelFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// StopRequest carries the export destinations picked by the user.
// An empty path means the user cancelled that export.
type StopRequest struct {
	RecordsPath string `json:"records_path"`
	ChartPath   string `json:"chart_path"`
}

// LoadModelRequest selects the model artifact to load.
type LoadModelRequest struct {
	Path string `json:"path"`
}
