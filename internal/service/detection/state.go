package detection

import (
	"time"

	"camdetect/internal/model"
)

// SessionState tracks the classes recorded in the current session.
// The record and the tally always hold the same set of class names.
type SessionState struct {
	record model.SessionRecord
	tally  model.ClassTally
}

// NewSessionState returns an empty session state.
func NewSessionState() *SessionState {
	return &SessionState{tally: make(model.ClassTally)}
}

// Record stores the first sighting of className and reports whether it was new.
// Later sightings of the same class are ignored.
func (s *SessionState) Record(className string, confidence float64, at time.Time) bool {
	if _, seen := s.tally[className]; seen {
		return false
	}
	s.record = append(s.record, model.Detection{
		ClassName:  className,
		Confidence: confidence,
		ObservedAt: at,
	})
	s.tally[className]++
	return true
}

// Clear empties the record and the tally.
func (s *SessionState) Clear() {
	s.record = nil
	s.tally = make(model.ClassTally)
}

// Len returns the number of distinct classes recorded.
func (s *SessionState) Len() int {
	return len(s.record)
}

// Snapshot returns copies of the record and the tally.
func (s *SessionState) Snapshot() (model.SessionRecord, model.ClassTally) {
	record := make(model.SessionRecord, len(s.record))
	copy(record, s.record)

	tally := make(model.ClassTally, len(s.tally))
	for name, count := range s.tally {
		tally[name] = count
	}
	return record, tally
}

// Step applies one frame's candidates to the state and returns the detections
// that were first sightings, in candidate order. Candidates below floor are skipped.
func Step(state *SessionState, candidates []model.Candidate, floor float64, now time.Time) []model.Detection {
	var added []model.Detection
	for _, c := range candidates {
		if c.Confidence < floor {
			continue
		}
		if state.Record(c.ClassName, c.Confidence, now) {
			added = append(added, state.record[len(state.record)-1])
		}
	}
	return added
}
