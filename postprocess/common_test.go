package postprocess

import (
	"math"
	"testing"
)

func TestCalculateOverlap(t *testing.T) {

	tests := []struct {
		a, b     BoxRect
		expected float32
	}{
		// identical
		{NewBoxRect(0, 0, 10, 10), NewBoxRect(0, 0, 10, 10), 1.0},
		// disjoint
		{NewBoxRect(0, 0, 10, 10), NewBoxRect(20, 20, 10, 10), 0.0},
		// touching edges do not overlap
		{NewBoxRect(0, 0, 10, 10), NewBoxRect(10, 0, 10, 10), 0.0},
		// half overlap, 50 / 150
		{NewBoxRect(0, 0, 10, 10), NewBoxRect(5, 0, 10, 10), 1.0 / 3.0},
		// contained, 25 / 100
		{NewBoxRect(0, 0, 10, 10), NewBoxRect(0, 0, 5, 5), 0.25},
	}

	for _, tc := range tests {
		iou := calculateOverlap(tc.a, tc.b)

		if math.Abs(float64(iou-tc.expected)) > 1e-6 {
			t.Errorf("IoU of %v and %v: expected %f, got %f", tc.a, tc.b, tc.expected, iou)
		}
	}
}

func TestQuickSortIndiceInverse(t *testing.T) {

	probs := []float32{0.2, 0.9, 0.5, 0.7}
	indices := []int{0, 1, 2, 3}

	quickSortIndiceInverse(probs, 0, len(probs)-1, indices)

	expectedProbs := []float32{0.9, 0.7, 0.5, 0.2}
	expectedIdx := []int{1, 3, 2, 0}

	for i := range probs {
		if probs[i] != expectedProbs[i] || indices[i] != expectedIdx[i] {
			t.Fatalf("expected %v %v, got %v %v", expectedProbs, expectedIdx, probs, indices)
		}
	}
}

func TestNMS(t *testing.T) {

	boxes := []BoxRect{
		NewBoxRect(0, 0, 100, 100),
		NewBoxRect(5, 5, 100, 100),
		NewBoxRect(200, 200, 50, 50),
		NewBoxRect(210, 200, 50, 50),
	}

	// already in confidence order
	order := []int{0, 1, 2, 3}

	nms(boxes, order, 0.4)

	expected := []int{0, -1, 2, -1}

	for i := range order {
		if order[i] != expected[i] {
			t.Fatalf("expected order %v, got %v", expected, order)
		}
	}
}
