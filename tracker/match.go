package tracker

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/mat"
)

// iouCost builds the IoU distance matrix between the previous boxes (rows)
// and the new boxes (columns)
func iouCost(prev, next []image.Rectangle) *mat.Dense {

	cost := mat.NewDense(len(prev), len(next), nil)

	for i, a := range prev {
		for j, b := range next {
			cost.Set(i, j, 1-IoU(a, b))
		}
	}

	return cost
}

// matchBoxes assigns new boxes to previous boxes minimising the total IoU
// distance.  It returns a map of new box index to previous box index for
// every pair whose IoU is at least minIoU.
func matchBoxes(prev, next []image.Rectangle, minIoU float64) (map[int]int, error) {

	matched := make(map[int]int)

	if len(prev) == 0 || len(next) == 0 {
		return matched, nil
	}

	cost := iouCost(prev, next)
	rowsol, err := assign(cost, 1-minIoU)

	if err != nil {
		return nil, err
	}

	for i, j := range rowsol {
		if j < 0 {
			continue
		}

		if IoU(prev[i], next[j]) < minIoU {
			continue
		}

		matched[j] = i
	}

	return matched, nil
}

// assign solves the rectangular assignment problem for the cost matrix.
// The matrix is extended to a square one where leaving a row or column
// unassigned costs costLimit/2, so pairs costing more than costLimit are
// never assigned.  It returns the assigned column of each row, or -1.
func assign(cost *mat.Dense, costLimit float64) ([]int, error) {

	rows, cols := cost.Dims()
	n := rows + cols

	ext := mat.NewDense(n, n, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i < rows && j < cols:
				ext.Set(i, j, cost.At(i, j))
			case i >= rows && j >= cols:
				ext.Set(i, j, 0)
			default:
				ext.Set(i, j, costLimit/2)
			}
		}
	}

	x := make([]int, n)
	y := make([]int, n)

	if err := lapjv(ext, x, y); err != nil {
		return nil, fmt.Errorf("linear assignment failed: %w", err)
	}

	rowsol := make([]int, rows)

	for i := 0; i < rows; i++ {
		rowsol[i] = x[i]

		if x[i] >= cols {
			rowsol[i] = -1
		}
	}

	return rowsol, nil
}
