package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Labels maps model class ids to class names.
type Labels map[int]string

// Name returns the class name for id, or a placeholder for unknown ids.
func (l Labels) Name(id int) string {
	if name, ok := l[id]; ok {
		return name
	}
	return fmt.Sprintf("class_%d", id)
}

// labelFile accepts both `names: [a, b]` and `names: {0: a, 1: b}`.
type labelFile struct {
	Names yaml.Node `yaml:"names"`
}

// LoadLabels reads a YAML label file.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return ParseLabels(data)
}

// ParseLabels decodes YAML label data.
func ParseLabels(data []byte) (Labels, error) {
	var file labelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}

	labels := make(Labels)
	switch file.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := file.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("decode label list: %w", err)
		}
		for i, name := range names {
			labels[i] = name
		}
	case yaml.MappingNode:
		if err := file.Names.Decode(&labels); err != nil {
			return nil, fmt.Errorf("decode label map: %w", err)
		}
	default:
		return nil, fmt.Errorf("labels: missing names list")
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("labels: empty names list")
	}
	return labels, nil
}

// COCOClasses contains the 80 COCO class names in YOLO order.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ssdCOCOIDs are the TensorFlow object detection ids of COCOClasses, index for index.
var ssdCOCOIDs = []int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25,
	27, 28, 31, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 46, 47, 48, 49, 50, 51,
	52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63, 64, 65, 67, 70, 72, 73, 74, 75, 76, 77,
	78, 79, 80, 81, 82, 84, 85, 86, 87, 88, 89, 90,
}

// DefaultLabels returns the COCO labels for the given model format.
func DefaultLabels(format Format) Labels {
	labels := make(Labels, len(COCOClasses))
	for i, name := range COCOClasses {
		if format == FormatSSD {
			labels[ssdCOCOIDs[i]] = name
		} else {
			labels[i] = name
		}
	}
	return labels
}
