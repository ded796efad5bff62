package postprocess

// quickSortIndiceInverse is a quick sort algorithm that sorts the objProbs
// vector in descending order and synchronously updates the indices vector to
// track the reordering of elements
func quickSortIndiceInverse(input []float32, left int, right int, indices []int) int {

	var key float32
	var keyIndex int

	low := left
	high := right

	if left < right {
		keyIndex = indices[left]
		key = input[left]

		for low < high {
			for low < high && input[high] <= key {
				high--
			}

			input[low] = input[high]
			indices[low] = indices[high]

			for low < high && input[low] >= key {
				low++
			}

			input[high] = input[low]
			indices[high] = indices[low]
		}

		input[low] = key
		indices[low] = keyIndex

		quickSortIndiceInverse(input, left, low-1, indices)
		quickSortIndiceInverse(input, low+1, right, indices)
	}

	return low
}

// nms implements a greedy Non-Maximum Suppression (NMS) algorithm.  The order
// slice holds indexes into boxes sorted by descending confidence.  Any box
// whose IoU with a higher confidence box that has been kept is greater than
// threshold is suppressed by setting its order entry to -1.
func nms(boxes []BoxRect, order []int, threshold float32) {

	for i := 0; i < len(order); i++ {

		if order[i] == -1 {
			continue
		}

		n := order[i]

		for j := i + 1; j < len(order); j++ {
			m := order[j]

			if m == -1 {
				continue
			}

			if calculateOverlap(boxes[n], boxes[m]) > threshold {
				order[j] = -1
			}
		}
	}
}

// calculateOverlap works out the Intersection of Union (IoU) value of two
// boxes using exclusive pixel areas, the same as OpenCV's Rect overlap
func calculateOverlap(a, b BoxRect) float32 {

	w := min(a.Right, b.Right) - max(a.Left, b.Left)
	h := min(a.Bottom, b.Bottom) - max(a.Top, b.Top)

	if w <= 0 || h <= 0 {
		return 0.0
	}

	intersection := float32(w * h)
	union := float32(a.Width()*a.Height()+b.Width()*b.Height()) - intersection

	if union <= 0 {
		return 0.0
	}

	return intersection / union
}

// IoU returns the Intersection over Union of two detection boxes
func IoU(a, b BoxRect) float32 {
	return calculateOverlap(a, b)
}
