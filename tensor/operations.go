package tensor

import (
	"fmt"
	"math"
)

// applyBinary applies an elementwise binary operation with broadcasting.
func applyBinary(t1, t2 *Tensor, op func(a, b float32) float32) (*Tensor, error) {
	if t1.DType != Float32 || t2.DType != Float32 {
		return nil, fmt.Errorf("elementwise operations only support Float32 tensors, got %s and %s", t1.DType, t2.DType)
	}

	outShape, err := BroadcastShapes(t1.Shape, t2.Shape)
	if err != nil {
		return nil, err
	}

	d1 := t1.Data.([]float32)
	d2 := t2.Data.([]float32)
	out := make([]float32, calculateNumElements(outShape))

	if sameShape(t1.Shape, t2.Shape) {
		for i := range out {
			out[i] = op(d1[i], d2[i])
		}
	} else {
		for i := range out {
			out[i] = op(d1[broadcastSourceIndex(i, outShape, t1.Shape)],
				d2[broadcastSourceIndex(i, outShape, t2.Shape)])
		}
	}

	return NewTensor(outShape, Float32, out)
}

// applyUnary applies an elementwise unary operation.
func applyUnary(t *Tensor, op func(v float32) float32) (*Tensor, error) {
	if t.DType != Float32 {
		return nil, fmt.Errorf("elementwise operations only support Float32 tensors, got %s", t.DType)
	}

	data := t.Data.([]float32)
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = op(v)
	}

	return NewTensor(t.Shape, Float32, out)
}

// Add performs elementwise addition with broadcasting.
func Add(t1, t2 *Tensor) (*Tensor, error) {
	return applyBinary(t1, t2, func(a, b float32) float32 { return a + b })
}

// Sub performs elementwise subtraction with broadcasting.
func Sub(t1, t2 *Tensor) (*Tensor, error) {
	return applyBinary(t1, t2, func(a, b float32) float32 { return a - b })
}

// Mul performs elementwise multiplication with broadcasting.
func Mul(t1, t2 *Tensor) (*Tensor, error) {
	return applyBinary(t1, t2, func(a, b float32) float32 { return a * b })
}

// Div performs elementwise division with broadcasting.
func Div(t1, t2 *Tensor) (*Tensor, error) {
	return applyBinary(t1, t2, func(a, b float32) float32 { return a / b })
}

// ReLU computes max(0, x) elementwise.
func ReLU(t *Tensor) (*Tensor, error) {
	return applyUnary(t, func(v float32) float32 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// Sigmoid computes 1 / (1 + exp(-x)) elementwise.
func Sigmoid(t *Tensor) (*Tensor, error) {
	return applyUnary(t, func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(-float64(v))))
	})
}

// Exp computes e^x elementwise.
func Exp(t *Tensor) (*Tensor, error) {
	return applyUnary(t, func(v float32) float32 {
		return float32(math.Exp(float64(v)))
	})
}

// Log computes the natural logarithm elementwise.
func Log(t *Tensor) (*Tensor, error) {
	return applyUnary(t, func(v float32) float32 {
		return float32(math.Log(float64(v)))
	})
}

// Sqrt computes the square root elementwise.
func Sqrt(t *Tensor) (*Tensor, error) {
	return applyUnary(t, func(v float32) float32 {
		return float32(math.Sqrt(float64(v)))
	})
}

// Scale multiplies every element by a scalar.
func Scale(t *Tensor, factor float64) (*Tensor, error) {
	f := float32(factor)
	return applyUnary(t, func(v float32) float32 { return v * f })
}
