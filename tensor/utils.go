package tensor

import (
	"fmt"
	"math"
)

// Clone returns a deep copy of the tensor. Autograd state is not copied.
func (t *Tensor) Clone() (*Tensor, error) {
	switch t.DType {
	case Float32:
		data := make([]float32, t.NumElems)
		copy(data, t.Data.([]float32))
		return NewTensor(t.Shape, t.DType, data)
	case Int32:
		data := make([]int32, t.NumElems)
		copy(data, t.Data.([]int32))
		return NewTensor(t.Shape, t.DType, data)
	default:
		return nil, fmt.Errorf("unsupported dtype for clone: %s", t.DType)
	}
}

// Item returns the value of a single-element Float32 tensor.
func (t *Tensor) Item() (float32, error) {
	if t.DType != Float32 {
		return 0, fmt.Errorf("Item only supports Float32 tensors, got %s", t.DType)
	}
	if t.NumElems != 1 {
		return 0, fmt.Errorf("Item requires a single-element tensor, got %d elements", t.NumElems)
	}
	return t.Data.([]float32)[0], nil
}

// GetFloat32Data returns the underlying data slice of a Float32 tensor.
func (t *Tensor) GetFloat32Data() ([]float32, error) {
	if t.DType != Float32 {
		return nil, fmt.Errorf("tensor is %s, not Float32", t.DType)
	}
	return t.Data.([]float32), nil
}

// GetInt32Data returns the underlying data slice of an Int32 tensor.
func (t *Tensor) GetInt32Data() ([]int32, error) {
	if t.DType != Int32 {
		return nil, fmt.Errorf("tensor is %s, not Int32", t.DType)
	}
	return t.Data.([]int32), nil
}

// SetData overwrites the tensor's data in place. The replacement must have
// the same dtype and element count.
func (t *Tensor) SetData(data interface{}) error {
	switch t.DType {
	case Float32:
		d, ok := data.([]float32)
		if !ok {
			return fmt.Errorf("expected []float32, got %T", data)
		}
		if len(d) != t.NumElems {
			return fmt.Errorf("data length %d does not match %d elements", len(d), t.NumElems)
		}
		copy(t.Data.([]float32), d)
	case Int32:
		d, ok := data.([]int32)
		if !ok {
			return fmt.Errorf("expected []int32, got %T", data)
		}
		if len(d) != t.NumElems {
			return fmt.Errorf("data length %d does not match %d elements", len(d), t.NumElems)
		}
		copy(t.Data.([]int32), d)
	default:
		return fmt.Errorf("unsupported dtype: %s", t.DType)
	}
	return nil
}

// Equal reports whether two tensors have identical shape, dtype, and data.
func (t *Tensor) Equal(other *Tensor) bool {
	if t.DType != other.DType || !sameShape(t.Shape, other.Shape) {
		return false
	}

	switch t.DType {
	case Float32:
		a := t.Data.([]float32)
		b := other.Data.([]float32)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	case Int32:
		a := t.Data.([]int32)
		b := other.Data.([]int32)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// AllClose reports whether two Float32 tensors match within a tolerance.
func (t *Tensor) AllClose(other *Tensor, tolerance float64) bool {
	if t.DType != Float32 || other.DType != Float32 || !sameShape(t.Shape, other.Shape) {
		return false
	}

	a := t.Data.([]float32)
	b := other.Data.([]float32)
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > tolerance {
			return false
		}
	}
	return true
}

// ZeroGrad clears the gradients of the given tensors.
func ZeroGrad(tensors []*Tensor) {
	for _, t := range tensors {
		t.grad = nil
	}
}
