package detector

import "sort"

// nms suppresses overlapping detections, keeping the highest scoring
// box of each overlap cluster. The input slice is reordered in place.
func nms(dets []Detection, iouLimit float32) []Detection {
	if len(dets) == 0 {
		return dets
	}

	sort.Slice(dets, func(i, j int) bool {
		return dets[i].Score > dets[j].Score
	})

	keep := make([]bool, len(dets))
	for i := range keep {
		keep[i] = true
	}
	for i := 0; i < len(dets); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(dets); j++ {
			if !keep[j] {
				continue
			}
			if iou(dets[i].Box, dets[j].Box) > iouLimit {
				keep[j] = false
			}
		}
	}

	result := make([]Detection, 0, len(dets))
	for i, det := range dets {
		if keep[i] {
			result = append(result, det)
		}
	}
	return result
}

// iou is the intersection-over-union overlap of two boxes.
func iou(a, b BoundingBox) float32 {
	x1 := max(a.X1, b.X1)
	y1 := max(a.Y1, b.Y1)
	x2 := min(a.X2, b.X2)
	y2 := min(a.Y2, b.Y2)

	if x1 >= x2 || y1 >= y2 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
