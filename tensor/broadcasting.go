package tensor

import (
	"fmt"
)

// BroadcastShapes computes the result shape of broadcasting two shapes
// together following the usual right-aligned rules: dimensions are matched
// from the trailing end, and a dimension of size 1 stretches to match.
func BroadcastShapes(shape1, shape2 []int) ([]int, error) {
	maxLen := len(shape1)
	if len(shape2) > maxLen {
		maxLen = len(shape2)
	}

	result := make([]int, maxLen)
	for i := 0; i < maxLen; i++ {
		d1, d2 := 1, 1
		if i < len(shape1) {
			d1 = shape1[len(shape1)-1-i]
		}
		if i < len(shape2) {
			d2 = shape2[len(shape2)-1-i]
		}

		switch {
		case d1 == d2:
			result[maxLen-1-i] = d1
		case d1 == 1:
			result[maxLen-1-i] = d2
		case d2 == 1:
			result[maxLen-1-i] = d1
		default:
			return nil, fmt.Errorf("shapes %v and %v are not broadcastable", shape1, shape2)
		}
	}

	return result, nil
}

// broadcastSourceIndex maps a linear index in the broadcast result back to
// the linear index in a source tensor with the given shape.
func broadcastSourceIndex(outIndex int, outShape, srcShape []int) int {
	srcStrides := calculateStrides(srcShape)
	offset := len(outShape) - len(srcShape)

	srcIndex := 0
	remainder := outIndex
	for dim := 0; dim < len(outShape); dim++ {
		dimSize := 1
		for d := dim + 1; d < len(outShape); d++ {
			dimSize *= outShape[d]
		}
		coord := remainder / dimSize
		remainder = remainder % dimSize

		srcDim := dim - offset
		if srcDim < 0 {
			continue
		}
		if srcShape[srcDim] == 1 {
			continue
		}
		srcIndex += coord * srcStrides[srcDim]
	}

	return srcIndex
}

// sameShape reports whether two shapes are identical.
func sameShape(shape1, shape2 []int) bool {
	if len(shape1) != len(shape2) {
		return false
	}
	for i := range shape1 {
		if shape1[i] != shape2[i] {
			return false
		}
	}
	return true
}
