package tensor

import (
	"math/rand"
	"testing"
)

func mustNew(t *testing.T, shape []int, data []float32) *Tensor {
	t.Helper()
	out, err := NewTensor(shape, Float32, data)
	if err != nil {
		t.Fatalf("failed to create tensor: %v", err)
	}
	return out
}

func TestNewTensor(t *testing.T) {
	t.Run("valid creation", func(t *testing.T) {
		tensor := mustNew(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		if tensor.NumElems != 6 {
			t.Errorf("NumElems = %d, want 6", tensor.NumElems)
		}
		if tensor.Strides[0] != 3 || tensor.Strides[1] != 1 {
			t.Errorf("strides = %v, want [3 1]", tensor.Strides)
		}
	})

	t.Run("rejects length mismatch", func(t *testing.T) {
		if _, err := NewTensor([]int{2, 2}, Float32, []float32{1, 2}); err == nil {
			t.Error("expected error for short data")
		}
	})

	t.Run("rejects wrong data type", func(t *testing.T) {
		if _, err := NewTensor([]int{2}, Float32, []int32{1, 2}); err == nil {
			t.Error("expected error for int32 data in Float32 tensor")
		}
	})

	t.Run("rejects non-positive dimensions", func(t *testing.T) {
		if _, err := NewTensor([]int{2, 0}, Float32, []float32{}); err == nil {
			t.Error("expected error for zero dimension")
		}
	})
}

func TestCreationHelpers(t *testing.T) {
	zeros, err := Zeros([]int{2, 2}, Float32)
	if err != nil {
		t.Fatalf("zeros failed: %v", err)
	}
	for _, v := range zeros.Data.([]float32) {
		if v != 0 {
			t.Fatalf("zeros contains %v", v)
		}
	}

	ones, err := Ones([]int{3}, Float32)
	if err != nil {
		t.Fatalf("ones failed: %v", err)
	}
	for _, v := range ones.Data.([]float32) {
		if v != 1 {
			t.Fatalf("ones contains %v", v)
		}
	}

	full, err := Full([]int{2}, 7.5)
	if err != nil {
		t.Fatalf("full failed: %v", err)
	}
	if full.Data.([]float32)[1] != 7.5 {
		t.Errorf("full value = %v, want 7.5", full.Data.([]float32)[1])
	}

	scalar := FromScalar(3.25)
	v, err := scalar.Item()
	if err != nil {
		t.Fatalf("item failed: %v", err)
	}
	if v != 3.25 {
		t.Errorf("scalar = %v, want 3.25", v)
	}
}

func TestRandomCreation(t *testing.T) {
	t.Run("uniform stays in range", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		tensor, err := RandomUniform([]int{100}, -0.5, 0.5, rng)
		if err != nil {
			t.Fatalf("random uniform failed: %v", err)
		}
		for i, v := range tensor.Data.([]float32) {
			if v < -0.5 || v >= 0.5 {
				t.Fatalf("value %d = %v outside [-0.5, 0.5)", i, v)
			}
		}
	})

	t.Run("same seed gives same values", func(t *testing.T) {
		a, err := RandomNormal([]int{50}, 0, 1, rand.New(rand.NewSource(9)))
		if err != nil {
			t.Fatalf("random normal failed: %v", err)
		}
		b, err := RandomNormal([]int{50}, 0, 1, rand.New(rand.NewSource(9)))
		if err != nil {
			t.Fatalf("random normal failed: %v", err)
		}
		if !a.Equal(b) {
			t.Error("equal seeds produced different tensors")
		}
	})
}

func TestElementwiseOps(t *testing.T) {
	a := mustNew(t, []int{2, 2}, []float32{1, 2, 3, 4})
	b := mustNew(t, []int{2, 2}, []float32{10, 20, 30, 40})

	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := sum.Data.([]float32); got[0] != 11 || got[3] != 44 {
		t.Errorf("add = %v", got)
	}

	diff, err := Sub(b, a)
	if err != nil {
		t.Fatalf("sub failed: %v", err)
	}
	if got := diff.Data.([]float32); got[0] != 9 || got[3] != 36 {
		t.Errorf("sub = %v", got)
	}

	prod, err := Mul(a, b)
	if err != nil {
		t.Fatalf("mul failed: %v", err)
	}
	if got := prod.Data.([]float32); got[1] != 40 {
		t.Errorf("mul = %v", got)
	}

	quot, err := Div(b, a)
	if err != nil {
		t.Fatalf("div failed: %v", err)
	}
	if got := quot.Data.([]float32); got[2] != 10 {
		t.Errorf("div = %v", got)
	}

	scaled, err := Scale(a, 2.5)
	if err != nil {
		t.Fatalf("scale failed: %v", err)
	}
	if got := scaled.Data.([]float32); got[3] != 10 {
		t.Errorf("scale = %v", got)
	}
}

func TestBroadcasting(t *testing.T) {
	t.Run("row vector across matrix", func(t *testing.T) {
		matrix := mustNew(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		row := mustNew(t, []int{3}, []float32{10, 20, 30})

		sum, err := Add(matrix, row)
		if err != nil {
			t.Fatalf("broadcast add failed: %v", err)
		}
		want := []float32{11, 22, 33, 14, 25, 36}
		got := sum.Data.([]float32)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("broadcast add = %v, want %v", got, want)
			}
		}
	})

	t.Run("scalar across tensor", func(t *testing.T) {
		tensor := mustNew(t, []int{2, 2}, []float32{1, 2, 3, 4})
		scalar := mustNew(t, []int{1}, []float32{100})

		sum, err := Add(tensor, scalar)
		if err != nil {
			t.Fatalf("broadcast add failed: %v", err)
		}
		if got := sum.Data.([]float32); got[0] != 101 || got[3] != 104 {
			t.Errorf("broadcast add = %v", got)
		}
	})

	t.Run("rejects incompatible shapes", func(t *testing.T) {
		a := mustNew(t, []int{2, 3}, make([]float32, 6))
		b := mustNew(t, []int{2, 2}, make([]float32, 4))
		if _, err := Add(a, b); err == nil {
			t.Error("expected error for incompatible shapes")
		}
	})
}

func TestMatMul(t *testing.T) {
	a := mustNew(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := mustNew(t, []int{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	out, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("matmul failed: %v", err)
	}

	want := []float32{58, 64, 139, 154}
	got := out.Data.([]float32)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matmul = %v, want %v", got, want)
		}
	}

	if _, err := MatMul(a, a); err == nil {
		t.Error("expected error for incompatible inner dimensions")
	}
}

func TestTranspose2D(t *testing.T) {
	a := mustNew(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out, err := Transpose2D(a)
	if err != nil {
		t.Fatalf("transpose failed: %v", err)
	}
	if out.Shape[0] != 3 || out.Shape[1] != 2 {
		t.Fatalf("shape = %v, want [3 2]", out.Shape)
	}

	want := []float32{1, 4, 2, 5, 3, 6}
	got := out.Data.([]float32)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transpose = %v, want %v", got, want)
		}
	}
}

func TestSumAndMean(t *testing.T) {
	a := mustNew(t, []int{4}, []float32{1, 2, 3, 4})

	sum, err := Sum(a)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if v, _ := sum.Item(); v != 10 {
		t.Errorf("sum = %v, want 10", v)
	}

	mean, err := Mean(a)
	if err != nil {
		t.Fatalf("mean failed: %v", err)
	}
	if v, _ := mean.Item(); v != 2.5 {
		t.Errorf("mean = %v, want 2.5", v)
	}
}

func TestCloneAndSetData(t *testing.T) {
	a := mustNew(t, []int{2}, []float32{1, 2})

	b, err := a.Clone()
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}
	if err := b.SetData([]float32{5, 6}); err != nil {
		t.Fatalf("set data failed: %v", err)
	}

	if a.Data.([]float32)[0] != 1 {
		t.Error("clone shares storage with original")
	}
	if b.Data.([]float32)[0] != 5 {
		t.Error("set data did not take effect")
	}

	if err := b.SetData([]float32{1}); err == nil {
		t.Error("expected error for wrong data length")
	}
}
