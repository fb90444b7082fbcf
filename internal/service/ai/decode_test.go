package ai

import (
	"image"
	"testing"
)

// yoloTensor builds an attribute-major [4+classes, count] tensor.
func yoloTensor(classes int, anchors [][]float32) []float32 {
	attrs := 4 + classes
	count := len(anchors)
	data := make([]float32, attrs*count)
	for i, a := range anchors {
		for c := 0; c < attrs; c++ {
			data[c*count+i] = a[c]
		}
	}
	return data
}

func TestDecodeYOLOv8(t *testing.T) {
	data := yoloTensor(3, [][]float32{
		{100, 100, 40, 20, 0.1, 0.8, 0.05}, // class 1
		{300, 200, 10, 10, 0.2, 0.1, 0.15}, // below threshold
		{50, 60, 20, 40, 0.9, 0.0, 0.0},    // class 0
	})

	raw := decodeYOLOv8(data, 7, 3, 2, 0.5, 0.25)
	if len(raw) != 2 {
		t.Fatalf("Expected 2 boxes, got %d: %+v", len(raw), raw)
	}

	if raw[0].classID != 1 || raw[0].score != 0.8 {
		t.Errorf("Unexpected first box: %+v", raw[0])
	}
	if want := image.Rect(160, 45, 240, 55); raw[0].box != want {
		t.Errorf("first box = %v, expected %v", raw[0].box, want)
	}
	if raw[1].classID != 0 || raw[1].score != 0.9 {
		t.Errorf("Unexpected second box: %+v", raw[1])
	}
}

func TestDecodeYOLOv8_MalformedTensor(t *testing.T) {
	if raw := decodeYOLOv8([]float32{1, 2, 3}, 7, 10, 1, 1, 0.1); raw != nil {
		t.Errorf("Expected nil for short tensor, got %+v", raw)
	}
	if raw := decodeYOLOv8(make([]float32, 40), 4, 10, 1, 1, 0.1); raw != nil {
		t.Errorf("Expected nil without class scores, got %+v", raw)
	}
}

func TestDecodeSSD(t *testing.T) {
	data := []float32{
		0, 1, 0.9, 0.1, 0.2, 0.5, 0.6,
		0, 3, 0.3, 0.0, 0.0, 1.0, 1.0,
		0, 18, 0.7, 0.5, 0.5, 0.75, 1.0,
	}

	raw := decodeSSD(data, 200, 100, 0.5)
	if len(raw) != 2 {
		t.Fatalf("Expected 2 boxes, got %d", len(raw))
	}
	if raw[0].classID != 1 || raw[0].box != image.Rect(20, 20, 100, 60) {
		t.Errorf("Unexpected first box: %+v", raw[0])
	}
	if raw[1].classID != 18 || raw[1].box != image.Rect(100, 50, 150, 100) {
		t.Errorf("Unexpected second box: %+v", raw[1])
	}
}
