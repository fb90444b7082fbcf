package model

import (
	"reflect"
	"testing"
)

func TestClassTally_Classes(t *testing.T) {
	tally := ClassTally{"person": 1, "car": 1, "dog": 1}

	got := tally.Classes()
	want := []string{"car", "dog", "person"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classes() = %v, expected %v", got, want)
	}

	if len(ClassTally{}.Classes()) != 0 {
		t.Error("Expected no classes for an empty tally")
	}
}
