package model

import (
	"image"
	"sort"
	"time"
)

// Candidate is one raw detector output for a single frame, before deduplication.
type Candidate struct {
	ClassID    int
	ClassName  string
	Confidence float64
	Box        image.Rectangle
}

// Detection is the first sighting of a class within a session.
type Detection struct {
	ClassName  string    `json:"class_name"`
	Confidence float64   `json:"confidence"`
	ObservedAt time.Time `json:"observed_at"`
}

// SessionRecord holds one Detection per class, in first-sighting order.
type SessionRecord []Detection

// ClassTally maps a class name to the number of times it was first seen in a session.
type ClassTally map[string]int

// Classes returns the tallied class names in sorted order.
func (t ClassTally) Classes() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
