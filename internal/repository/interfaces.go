package repository

import (
	"errors"

	"camdetect/internal/model"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// SessionRepository defines the interface for session history operations.
type SessionRepository interface {
	// Create operations
	SaveSession(session *model.Session, record model.SessionRecord) error

	// Read operations
	GetByID(id string) (*model.Session, error)
	GetAll(limit int) ([]model.Session, error)

	// Delete operations
	Delete(id string) error
}

// DetectionRepository defines the interface for recorded detections.
type DetectionRepository interface {
	// Read operations
	GetBySessionID(sessionID string) (model.SessionRecord, error)
	GetAllClassNames() ([]string, error)
	GetClassTotals() (model.ClassTally, error)
}
