package ai

import "image"

// rawBox is a decoded detection before non-maximum suppression.
type rawBox struct {
	classID int
	score   float32
	box     image.Rectangle
}

// decodeYOLOv8 parses a [1, 4+classes, count] output tensor laid out attribute-major.
// Box coordinates are center/size in model input pixels and are scaled by sx, sy.
func decodeYOLOv8(data []float32, attrs, count int, sx, sy, threshold float32) []rawBox {
	if attrs <= 4 || len(data) < attrs*count {
		return nil
	}

	var out []rawBox
	for i := 0; i < count; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < attrs; c++ {
			if score := data[c*count+i]; score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}
		if maxScore < threshold {
			continue
		}

		cx := data[0*count+i]
		cy := data[1*count+i]
		w := data[2*count+i]
		h := data[3*count+i]

		out = append(out, rawBox{
			classID: maxClassID,
			score:   maxScore,
			box: image.Rect(
				int((cx-w/2)*sx),
				int((cy-h/2)*sy),
				int((cx+w/2)*sx),
				int((cy+h/2)*sy),
			),
		})
	}
	return out
}

// decodeSSD parses rows of [batch, class, confidence, x1, y1, x2, y2] with
// coordinates normalized to the image size.
func decodeSSD(data []float32, width, height int, threshold float32) []rawBox {
	var out []rawBox
	for i := 0; i+7 <= len(data); i += 7 {
		confidence := data[i+2]
		if confidence < threshold {
			continue
		}
		out = append(out, rawBox{
			classID: int(data[i+1]),
			score:   confidence,
			box: image.Rect(
				int(data[i+3]*float32(width)),
				int(data[i+4]*float32(height)),
				int(data[i+5]*float32(width)),
				int(data[i+6]*float32(height)),
			),
		})
	}
	return out
}
