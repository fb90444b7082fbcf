package dto

import (
	"testing"
	"time"

	"camdetect/internal/model"
)

func TestNewRecordEntry_Formatting(t *testing.T) {
	d := model.Detection{
		ClassName:  "person",
		Confidence: 0.9,
		ObservedAt: time.Date(2026, 10, 19, 14, 3, 7, 123, time.Local),
	}

	entry := NewRecordEntry(d)

	if entry.Class != "person" {
		t.Errorf("Expected class person, got %s", entry.Class)
	}
	if entry.Confidence != "0.90" {
		t.Errorf("Expected confidence 0.90, got %s", entry.Confidence)
	}
	if entry.Time != "2026-10-19 14:03:07" {
		t.Errorf("Expected time 2026-10-19 14:03:07, got %s", entry.Time)
	}
}

func TestNewRecordEntry_Rounding(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{0.956, "0.96"},
		{0.801, "0.80"},
	}

	for _, tt := range tests {
		entry := NewRecordEntry(model.Detection{ClassName: "car", Confidence: tt.confidence})
		if entry.Confidence != tt.expected {
			t.Errorf("confidence %v formatted as %s, expected %s", tt.confidence, entry.Confidence, tt.expected)
		}
	}
}

func TestNewRecordEntries_EmptyIsNotNil(t *testing.T) {
	entries := NewRecordEntries(nil)
	if entries == nil {
		t.Fatal("Expected non-nil slice")
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestParseRecordEntry(t *testing.T) {
	det, err := ParseRecordEntry(RecordEntry{Class: "dog", Confidence: "0.75", Time: "2026-10-19 08:30:00"}, time.UTC)
	if err != nil {
		t.Fatalf("ParseRecordEntry failed: %v", err)
	}
	if det.ClassName != "dog" || det.Confidence != 0.75 {
		t.Errorf("unexpected detection %+v", det)
	}
	if !det.ObservedAt.Equal(time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", det.ObservedAt)
	}

	if _, err := ParseRecordEntry(RecordEntry{Class: "dog", Confidence: "high", Time: "2026-10-19 08:30:00"}, time.UTC); err == nil {
		t.Error("Expected error for invalid confidence")
	}
	if _, err := ParseRecordEntry(RecordEntry{Class: "dog", Confidence: "0.5", Time: "yesterday"}, time.UTC); err == nil {
		t.Error("Expected error for invalid time")
	}
}
