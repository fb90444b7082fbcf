package export

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"camdetect/internal/model"
)

func TestExportRecords_RoundTrip(t *testing.T) {
	t1 := time.Date(2026, 10, 19, 14, 0, 1, 0, time.Local)
	record := model.SessionRecord{
		{ClassName: "person", Confidence: 0.9, ObservedAt: t1},
		{ClassName: "car", Confidence: 0.8, ObservedAt: t1.Add(2 * time.Second)},
		{ClassName: "traffic light", Confidence: 0.456, ObservedAt: t1.Add(time.Minute)},
	}
	path := filepath.Join(t.TempDir(), "nested", "detections.json")

	if err := NewRecordExporter().ExportRecords(path, record); err != nil {
		t.Fatalf("ExportRecords failed: %v", err)
	}

	entries, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(entries) != len(record) {
		t.Fatalf("Expected %d entries, got %d", len(record), len(entries))
	}

	expected := []struct{ class, confidence, time string }{
		{"person", "0.90", "2026-10-19 14:00:01"},
		{"car", "0.80", "2026-10-19 14:00:03"},
		{"traffic light", "0.46", "2026-10-19 14:01:01"},
	}
	for i, want := range expected {
		got := entries[i]
		if got.Class != want.class || got.Confidence != want.confidence || got.Time != want.time {
			t.Errorf("entry %d = %+v, expected %+v", i, got, want)
		}
	}
}

func TestExportRecords_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	record := model.SessionRecord{
		{ClassName: "dog", Confidence: 0.5, ObservedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)},
	}

	if err := NewRecordExporter().ExportRecords(path, record); err != nil {
		t.Fatalf("ExportRecords failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	want := "[\n    {\n        \"class\": \"dog\",\n        \"confidence\": \"0.50\",\n        \"time\": \"2026-01-02 03:04:05\"\n    }\n]"
	if string(data) != want {
		t.Errorf("Unexpected file contents:\n%s\nexpected:\n%s", data, want)
	}
}

func TestExportRecords_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := NewRecordExporter().ExportRecords(path, nil); err != nil {
		t.Fatalf("ExportRecords failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Expected empty array, got %q", data)
	}
}

func TestExportRecords_CancelledIsNoop(t *testing.T) {
	if err := NewRecordExporter().ExportRecords("", model.SessionRecord{{ClassName: "cat"}}); err != nil {
		t.Errorf("Expected nil for cancelled export, got %v", err)
	}
}

func TestExportRecords_Unwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	err := NewRecordExporter().ExportRecords(filepath.Join(blocker, "out.json"), nil)
	if !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO, got %v", err)
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Errorf("Expected the cause to be a *fs.PathError, got %v", err)
	}
}

func TestExportChart_WritesPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.pdf")
	tally := model.ClassTally{"person": 1, "car": 1, "dog": 1}
	record := model.SessionRecord{{ClassName: "person"}, {ClassName: "car"}, {ClassName: "dog"}}

	if err := NewChartExporter().ExportChart(path, record, tally); err != nil {
		t.Fatalf("ExportChart failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("Expected PDF header, got %q", data[:min(len(data), 8)])
	}
}

func TestExportChart_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	if err := NewChartExporter().ExportChart(path, nil, model.ClassTally{}); err != nil {
		t.Fatalf("ExportChart failed on empty tally: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected a non-empty PDF, got %v %v", info, err)
	}
}

func TestExportChart_CancelledIsNoop(t *testing.T) {
	if err := NewChartExporter().ExportChart("", nil, model.ClassTally{"cat": 1}); err != nil {
		t.Errorf("Expected nil for cancelled export, got %v", err)
	}
}

func TestBuildChart_DoesNotMutateTally(t *testing.T) {
	tally := model.ClassTally{"person": 1, "car": 1}

	if _, err := buildChart(tally.Classes(), tally); err != nil {
		t.Fatalf("buildChart failed: %v", err)
	}
	if len(tally) != 2 || tally["person"] != 1 || tally["car"] != 1 {
		t.Errorf("Tally changed: %v", tally)
	}
}

func TestChartClasses_FirstSightingOrder(t *testing.T) {
	tests := []struct {
		name     string
		record   model.SessionRecord
		tally    model.ClassTally
		expected []string
	}{
		{
			"record order",
			model.SessionRecord{{ClassName: "person"}, {ClassName: "car"}, {ClassName: "bicycle"}},
			model.ClassTally{"person": 1, "car": 1, "bicycle": 1},
			[]string{"person", "car", "bicycle"},
		},
		{
			"tally only classes last",
			model.SessionRecord{{ClassName: "zebra"}},
			model.ClassTally{"zebra": 1, "cat": 1, "apple": 1},
			[]string{"zebra", "apple", "cat"},
		},
		{
			"record classes without a count skipped",
			model.SessionRecord{{ClassName: "dog"}, {ClassName: "cup"}},
			model.ClassTally{"cup": 1},
			[]string{"cup"},
		},
		{"empty", nil, model.ClassTally{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chartClasses(tt.record, tt.tally)
			if len(got) != len(tt.expected) {
				t.Fatalf("chartClasses() = %v, expected %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("chartClasses() = %v, expected %v", got, tt.expected)
					break
				}
			}
		})
	}
}

func TestReadRecords_KeepsCause(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected the cause to be fs.ErrNotExist, got %v", err)
	}
}

func TestReadSessionRecord(t *testing.T) {
	t1 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	record := model.SessionRecord{
		{ClassName: "person", Confidence: 0.91, ObservedAt: t1},
		{ClassName: "bicycle", Confidence: 0.5, ObservedAt: t1.Add(time.Second)},
	}
	path := filepath.Join(t.TempDir(), "detections.json")
	if err := NewRecordExporter().ExportRecords(path, record); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSessionRecord(path, time.UTC)
	if err != nil {
		t.Fatalf("ReadSessionRecord failed: %v", err)
	}
	if len(got) != 2 || got[1].ClassName != "bicycle" || !got[1].ObservedAt.Equal(t1.Add(time.Second)) {
		t.Errorf("unexpected record %+v", got)
	}
}

func TestReadSessionRecord_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`[{"class":"x","confidence":"?","time":"2026-10-19 09:00:00"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSessionRecord(path, time.UTC); !errors.Is(err, ErrIO) {
		t.Errorf("Expected ErrIO, got %v", err)
	}
}
