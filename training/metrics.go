package training

import (
	"fmt"
	"math"

	"github.com/tsawler/tampernet/tensor"
)

// Confusion accumulates binary classification outcomes, with 1 as the
// positive class.
type Confusion struct {
	TP int
	TN int
	FP int
	FN int
}

// Update classifies each logit against the threshold and tallies it
// against the matching target.
func (c *Confusion) Update(logits, targets *tensor.Tensor, threshold float64) error {
	if logits.DType != tensor.Float32 || targets.DType != tensor.Float32 {
		return fmt.Errorf("metrics require Float32 tensors")
	}
	if logits.NumElems != targets.NumElems {
		return fmt.Errorf("logits have %d elements, targets have %d", logits.NumElems, targets.NumElems)
	}

	x := logits.Data.([]float32)
	y := targets.Data.([]float32)
	for i := range x {
		prob := 1.0 / (1.0 + math.Exp(-float64(x[i])))
		predicted := prob > threshold
		actual := y[i] > 0.5

		switch {
		case predicted && actual:
			c.TP++
		case !predicted && !actual:
			c.TN++
		case predicted && !actual:
			c.FP++
		default:
			c.FN++
		}
	}
	return nil
}

// Total returns the number of classified samples.
func (c *Confusion) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// Accuracy returns the fraction of correct classifications.
func (c *Confusion) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.TP+c.TN) / float64(total)
}

// Precision returns TP / (TP + FP).
func (c *Confusion) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall returns TP / (TP + FN).
func (c *Confusion) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// BinaryAccuracy classifies logits against a threshold and returns the
// fraction matching the targets.
func BinaryAccuracy(logits, targets *tensor.Tensor, threshold float64) (float64, error) {
	var c Confusion
	if err := c.Update(logits, targets, threshold); err != nil {
		return 0, err
	}
	return c.Accuracy(), nil
}
