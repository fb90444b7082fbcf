package model

import "time"

// Session represents a finished detection session.
type Session struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	ModelPath   string    `json:"model_path"`
	RecordsPath string    `json:"records_path"`
	ChartPath   string    `json:"chart_path"`
	Detections  int       `json:"detections"`
}

// Snapshot is an annotated frame captured on a first sighting.
type Snapshot struct {
	TakenAt time.Time
	Class   string
	Data    []byte
}
