package detection

import (
	"fmt"
	"path/filepath"
	"time"
)

// DestinationPicker chooses where exports are written. A false result means
// the user cancelled and the export is skipped.
type DestinationPicker interface {
	PickRecords() (string, bool)
	PickChart() (string, bool)
}

// Destinations holds paths chosen by the user. Empty paths are cancellations.
type Destinations struct {
	RecordsPath string
	ChartPath   string
}

func (d Destinations) PickRecords() (string, bool) {
	return d.RecordsPath, d.RecordsPath != ""
}

func (d Destinations) PickChart() (string, bool) {
	return d.ChartPath, d.ChartPath != ""
}

// AutoDestinations names exports after the time they were taken, inside Dir.
// It is used when no user is around to pick, e.g. on shutdown.
type AutoDestinations struct {
	Dir string
	At  time.Time
}

func (a AutoDestinations) PickRecords() (string, bool) {
	if a.Dir == "" {
		return "", false
	}
	return filepath.Join(a.Dir, fmt.Sprintf("detections_%s.json", a.At.Format("20060102_150405"))), true
}

func (a AutoDestinations) PickChart() (string, bool) {
	if a.Dir == "" {
		return "", false
	}
	return filepath.Join(a.Dir, fmt.Sprintf("analysis_%s.pdf", a.At.Format("20060102_150405"))), true
}
