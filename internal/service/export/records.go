package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"camdetect/internal/dto"
	"camdetect/internal/model"
)

var ErrIO = errors.New("export failed")

// RecordExporter writes session records as an indented JSON array.
type RecordExporter struct{}

func NewRecordExporter() *RecordExporter {
	return &RecordExporter{}
}

// ExportRecords writes record to path. An empty path is a cancelled export and does nothing.
func (e *RecordExporter) ExportRecords(path string, record model.SessionRecord) error {
	if path == "" {
		return nil
	}

	data, err := json.MarshalIndent(dto.NewRecordEntries(record), "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode records: %w", ErrIO, err)
	}
	return writeFile(path, data)
}

// ReadRecords loads a JSON detection log written by ExportRecords.
func ReadRecords(path string) ([]dto.RecordEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	var entries []dto.RecordEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode records: %w", ErrIO, err)
	}
	return entries, nil
}

// ReadSessionRecord loads a detection log and converts it back into a record.
func ReadSessionRecord(path string, loc *time.Location) (model.SessionRecord, error) {
	entries, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}

	record := make(model.SessionRecord, 0, len(entries))
	for i, entry := range entries {
		det, err := dto.ParseRecordEntry(entry, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrIO, i, err)
		}
		record = append(record, det)
	}
	return record, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
