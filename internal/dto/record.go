package dto

import (
	"fmt"
	"strconv"
	"time"

	"camdetect/internal/model"
)

// TimeLayout is the timestamp format shown in the table and written to exports.
const TimeLayout = "2006-01-02 15:04:05"

// RecordEntry is one row of the detections table and of the exported JSON log.
type RecordEntry struct {
	Class      string `json:"class"`
	Confidence string `json:"confidence"`
	Time       string `json:"time"`
}

// NewRecordEntry formats a detection for display and export.
func NewRecordEntry(d model.Detection) RecordEntry {
	return RecordEntry{
		Class:      d.ClassName,
		Confidence: fmt.Sprintf("%.2f", d.Confidence),
		Time:       d.ObservedAt.Format(TimeLayout),
	}
}

// NewRecordEntries formats a whole session record. The result is never nil.
func NewRecordEntries(record model.SessionRecord) []RecordEntry {
	entries := make([]RecordEntry, 0, len(record))
	for _, d := range record {
		entries = append(entries, NewRecordEntry(d))
	}
	return entries
}

// ParseRecordEntry converts an exported row back into a detection. Times are
// read in loc since the export carries no zone.
func ParseRecordEntry(e RecordEntry, loc *time.Location) (model.Detection, error) {
	confidence, err := strconv.ParseFloat(e.Confidence, 64)
	if err != nil {
		return model.Detection{}, fmt.Errorf("invalid confidence %q: %w", e.Confidence, err)
	}
	observed, err := time.ParseInLocation(TimeLayout, e.Time, loc)
	if err != nil {
		return model.Detection{}, fmt.Errorf("invalid time %q: %w", e.Time, err)
	}
	return model.Detection{ClassName: e.Class, Confidence: confidence, ObservedAt: observed}, nil
}
