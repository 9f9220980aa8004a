package training

import (
	"fmt"
	"math"

	"github.com/tsawler/tampernet/tensor"
)

// Loss computes a scalar loss and its gradient with respect to the model
// output.
type Loss interface {
	// Forward computes the loss value.
	Forward(predicted, target *tensor.Tensor) (*tensor.Tensor, error)
	// Backward computes dLoss/dPredicted.
	Backward(predicted, target *tensor.Tensor) (*tensor.Tensor, error)
}

// BCEWithLogitsLoss is binary cross-entropy applied directly to logits.
// Folding the sigmoid into the loss avoids computing log(sigmoid(x)) for
// large negative x, which underflows to log(0).
type BCEWithLogitsLoss struct{}

// NewBCEWithLogitsLoss creates the loss.
func NewBCEWithLogitsLoss() *BCEWithLogitsLoss {
	return &BCEWithLogitsLoss{}
}

func (l *BCEWithLogitsLoss) check(predicted, target *tensor.Tensor) error {
	if predicted.DType != tensor.Float32 || target.DType != tensor.Float32 {
		return fmt.Errorf("loss requires Float32 tensors")
	}
	if predicted.NumElems != target.NumElems {
		return fmt.Errorf("predicted has %d elements, target has %d", predicted.NumElems, target.NumElems)
	}
	return nil
}

// Forward computes mean(max(x, 0) - x*y + log(1 + exp(-|x|))) over all
// elements, which equals mean binary cross-entropy on sigmoid(x) without
// ever exponentiating a large positive value.
func (l *BCEWithLogitsLoss) Forward(predicted, target *tensor.Tensor) (*tensor.Tensor, error) {
	if err := l.check(predicted, target); err != nil {
		return nil, err
	}

	x := predicted.Data.([]float32)
	y := target.Data.([]float32)

	var sum float64
	for i := range x {
		xi := float64(x[i])
		yi := float64(y[i])
		sum += math.Max(xi, 0) - xi*yi + math.Log1p(math.Exp(-math.Abs(xi)))
	}

	return tensor.NewTensor([]int{1}, tensor.Float32, []float32{float32(sum / float64(len(x)))})
}

// Backward computes (sigmoid(x) - y) / n, the gradient of the mean loss
// with respect to each logit.
func (l *BCEWithLogitsLoss) Backward(predicted, target *tensor.Tensor) (*tensor.Tensor, error) {
	if err := l.check(predicted, target); err != nil {
		return nil, err
	}

	x := predicted.Data.([]float32)
	y := target.Data.([]float32)
	n := float64(len(x))

	grad := make([]float32, len(x))
	for i := range x {
		s := 1.0 / (1.0 + math.Exp(-float64(x[i])))
		grad[i] = float32((s - float64(y[i])) / n)
	}

	return tensor.NewTensor(predicted.Shape, tensor.Float32, grad)
}
