package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"camdetect/internal/model"
	"camdetect/internal/repository"
)

// SessionRepository implements repository.SessionRepository for SQLite.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSession stores a finished session and its record in one transaction.
func (r *SessionRepository) SaveSession(session *model.Session, record model.SessionRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO sessions (id, started_at, ended_at, model_path, records_path, chart_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID, session.StartedAt, session.EndedAt, session.ModelPath, session.RecordsPath, session.ChartPath); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO detections (session_id, position, class_name, confidence, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, det := range record {
		if _, err := stmt.Exec(session.ID, i, det.ClassName, det.Confidence, det.ObservedAt); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	session.Detections = len(record)
	return nil
}

const sessionColumns = `
	s.id, s.started_at, s.ended_at, s.model_path, s.records_path, s.chart_path,
	(SELECT COUNT(*) FROM detections d WHERE d.session_id = s.id)`

func scanSession(scan func(dest ...interface{}) error) (*model.Session, error) {
	var s model.Session
	if err := scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.ModelPath, &s.RecordsPath, &s.ChartPath, &s.Detections); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a single session.
func (r *SessionRepository) GetByID(id string) (*model.Session, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	session, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// GetAll returns the most recent sessions first. A non-positive limit returns all.
func (r *SessionRepository) GetAll(limit int) ([]model.Session, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Conn().Query(`SELECT `+sessionColumns+` FROM sessions s ORDER BY s.started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// Delete removes a session and its detections.
func (r *SessionRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
