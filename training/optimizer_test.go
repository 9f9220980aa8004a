package training

import (
	"math"
	"testing"

	"github.com/tsawler/tampernet/tensor"
)

// quadraticStep runs one gradient step of (w - 3)^2.
func quadraticStep(t *testing.T, w *tensor.Tensor, opt Optimizer) {
	t.Helper()

	target, err := tensor.Full([]int{1}, 3.0)
	if err != nil {
		t.Fatalf("failed to create target: %v", err)
	}

	opt.ZeroGrad()

	diff, err := tensor.SubAutograd(w, target)
	if err != nil {
		t.Fatalf("sub failed: %v", err)
	}
	sq, err := tensor.MulAutograd(diff, diff)
	if err != nil {
		t.Fatalf("mul failed: %v", err)
	}
	if err := sq.Backward(nil); err != nil {
		t.Fatalf("backward failed: %v", err)
	}
	if err := opt.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	w := mustTensor(t, []int{1}, []float32{0.0})
	w.SetRequiresGrad(true)

	opt := NewAdam([]*tensor.Tensor{w}, 0.1)
	for i := 0; i < 300; i++ {
		quadraticStep(t, w, opt)
	}

	got, err := w.Item()
	if err != nil {
		t.Fatalf("item failed: %v", err)
	}
	if math.Abs(float64(got)-3.0) > 0.05 {
		t.Errorf("w = %v after 300 steps, want near 3.0", got)
	}
}

func TestSGDConvergesOnQuadratic(t *testing.T) {
	w := mustTensor(t, []int{1}, []float32{0.0})
	w.SetRequiresGrad(true)

	opt := NewSGD([]*tensor.Tensor{w}, 0.1, 0.9)
	for i := 0; i < 200; i++ {
		quadraticStep(t, w, opt)
	}

	got, err := w.Item()
	if err != nil {
		t.Fatalf("item failed: %v", err)
	}
	if math.Abs(float64(got)-3.0) > 0.05 {
		t.Errorf("w = %v after 200 steps, want near 3.0", got)
	}
}

func TestOptimizerSkipsParamsWithoutGrad(t *testing.T) {
	w := mustTensor(t, []int{1}, []float32{5.0})
	w.SetRequiresGrad(true)

	opt := NewAdam([]*tensor.Tensor{w}, 0.1)
	if err := opt.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	got, err := w.Item()
	if err != nil {
		t.Fatalf("item failed: %v", err)
	}
	if got != 5.0 {
		t.Errorf("parameter changed without a gradient: %v", got)
	}
}

func TestLearningRateAccessors(t *testing.T) {
	opt := NewAdam(nil, 0.001)
	if opt.GetLR() != 0.001 {
		t.Errorf("GetLR() = %v, want 0.001", opt.GetLR())
	}
	opt.SetLR(0.01)
	if opt.GetLR() != 0.01 {
		t.Errorf("GetLR() = %v after SetLR, want 0.01", opt.GetLR())
	}
}
