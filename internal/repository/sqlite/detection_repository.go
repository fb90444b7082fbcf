package sqlite

import (
	"fmt"

	"camdetect/internal/model"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// GetBySessionID returns a session's record in first-sighting order.
func (r *DetectionRepository) GetBySessionID(sessionID string) (model.SessionRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT class_name, confidence, observed_at
		FROM detections WHERE session_id = ? ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	record := make(model.SessionRecord, 0)
	for rows.Next() {
		var det model.Detection
		if err := rows.Scan(&det.ClassName, &det.Confidence, &det.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		record = append(record, det)
	}
	return record, rows.Err()
}

// GetAllClassNames returns every class ever recorded, sorted.
func (r *DetectionRepository) GetAllClassNames() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT class_name FROM detections ORDER BY class_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetClassTotals counts, per class, the sessions in which it was recorded.
func (r *DetectionRepository) GetClassTotals() (model.ClassTally, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT class_name, COUNT(*) FROM detections GROUP BY class_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query class totals: %w", err)
	}
	defer rows.Close()

	totals := make(model.ClassTally)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan class total: %w", err)
		}
		totals[name] = count
	}
	return totals, rows.Err()
}
