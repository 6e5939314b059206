package result

import (
	"fmt"
)

// EndToEndStride is the row width of end-to-end detector outputs such as
// YOLOv10: x1, y1, x2, y2, score, class.
const EndToEndStride = 6

// Box is one decoded detection in COCO-17 form.
type Box struct {
	Class      int
	X          float32
	Y          float32
	Width      float32
	Height     float32
	Confidence float32
}

// DecodeEndToEnd converts candidate rows of EndToEndStride values into boxes,
// dropping rows whose score is below minConfidence. Box decoding depends on
// the model family, so runBatch never calls this itself.
func DecodeEndToEnd(candidates []float32, minConfidence float32) ([]Box, error) {
	if len(candidates)%EndToEndStride != 0 {
		return nil, fmt.Errorf("candidate buffer of %d values is not a multiple of %d", len(candidates), EndToEndStride)
	}
	var boxes []Box
	for i := 0; i < len(candidates); i += EndToEndStride {
		row := candidates[i : i+EndToEndStride]
		if row[4] < minConfidence {
			continue
		}
		boxes = append(boxes, Box{
			Class:      int(row[5]),
			X:          row[0],
			Y:          row[1],
			Width:      row[2] - row[0],
			Height:     row[3] - row[1],
			Confidence: row[4],
		})
	}
	return boxes, nil
}
