package training

import (
	"testing"
)

func TestConfusion(t *testing.T) {
	// Logits map to probabilities: 2.0 -> 0.88, -2.0 -> 0.12.
	logits := mustTensor(t, []int{4, 1}, []float32{2.0, -2.0, 2.0, -2.0})
	targets := mustTensor(t, []int{4, 1}, []float32{1.0, 0.0, 0.0, 1.0})

	var c Confusion
	if err := c.Update(logits, targets, 0.5); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if c.TP != 1 || c.TN != 1 || c.FP != 1 || c.FN != 1 {
		t.Errorf("confusion = %+v, want one of each", c)
	}
	if c.Accuracy() != 0.5 {
		t.Errorf("accuracy = %v, want 0.5", c.Accuracy())
	}
	if c.Precision() != 0.5 {
		t.Errorf("precision = %v, want 0.5", c.Precision())
	}
	if c.Recall() != 0.5 {
		t.Errorf("recall = %v, want 0.5", c.Recall())
	}
}

func TestBinaryAccuracyThreshold(t *testing.T) {
	// Probability of logit 0.5 is about 0.62: positive at threshold 0.5,
	// negative at threshold 0.7.
	logits := mustTensor(t, []int{1, 1}, []float32{0.5})
	targets := mustTensor(t, []int{1, 1}, []float32{1.0})

	low, err := BinaryAccuracy(logits, targets, 0.5)
	if err != nil {
		t.Fatalf("accuracy failed: %v", err)
	}
	if low != 1.0 {
		t.Errorf("accuracy at 0.5 = %v, want 1.0", low)
	}

	high, err := BinaryAccuracy(logits, targets, 0.7)
	if err != nil {
		t.Fatalf("accuracy failed: %v", err)
	}
	if high != 0.0 {
		t.Errorf("accuracy at 0.7 = %v, want 0.0", high)
	}
}

func TestConfusionRejectsMismatch(t *testing.T) {
	logits := mustTensor(t, []int{2, 1}, []float32{1, 2})
	targets := mustTensor(t, []int{1}, []float32{1})

	var c Confusion
	if err := c.Update(logits, targets, 0.5); err == nil {
		t.Error("expected error for mismatched sizes")
	}
}
