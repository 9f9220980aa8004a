// Package training provides neural network layers, losses, optimizers,
// batched data loading, and the epoch loop that ties them together.
package training

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tsawler/tampernet/tensor"
)

// Module is the interface implemented by all network layers and models.
type Module interface {
	// Forward computes the module's output for the given input.
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	// Parameters returns all trainable parameters.
	Parameters() []*tensor.Tensor
	// Train puts the module in training mode.
	Train()
	// Eval puts the module in evaluation mode.
	Eval()
	// IsTraining returns whether the module is in training mode.
	IsTraining() bool
}

// phase tracks training versus evaluation mode for layers that need it.
type phase struct {
	training bool
}

func (p *phase) Train() { p.training = true }

func (p *phase) Eval() { p.training = false }

func (p *phase) IsTraining() bool { return p.training }

// Linear is a fully connected layer: output = input x weight + bias.
type Linear struct {
	phase
	Weight *tensor.Tensor // [inFeatures, outFeatures]
	Bias   *tensor.Tensor // [outFeatures]
}

// NewLinear creates a fully connected layer with Xavier-initialized
// weights and zero bias.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) (*Linear, error) {
	limit := float32(math.Sqrt(6.0 / float64(inFeatures+outFeatures)))
	weight, err := tensor.RandomUniform([]int{inFeatures, outFeatures}, -limit, limit, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize linear weight: %v", err)
	}
	weight.SetRequiresGrad(true)

	bias, err := tensor.Zeros([]int{outFeatures}, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize linear bias: %v", err)
	}
	bias.SetRequiresGrad(true)

	return &Linear{Weight: weight, Bias: bias}, nil
}

// Forward computes input x weight + bias for a [batch, inFeatures] input.
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := tensor.MatMulAutograd(input, l.Weight)
	if err != nil {
		return nil, fmt.Errorf("linear forward failed: %v", err)
	}
	out, err = tensor.AddAutograd(out, l.Bias)
	if err != nil {
		return nil, fmt.Errorf("linear bias add failed: %v", err)
	}
	return out, nil
}

// Parameters returns the weight and bias.
func (l *Linear) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{l.Weight, l.Bias}
}

// Conv2D is a 2D convolution layer over [batch, channels, height, width]
// input.
type Conv2D struct {
	phase
	Weight  *tensor.Tensor // [outChannels, inChannels, kernel, kernel]
	Bias    *tensor.Tensor // [outChannels]
	Stride  int
	Padding int
}

// NewConv2D creates a convolution layer with Xavier-initialized weights
// and zero bias.
func NewConv2D(inChannels, outChannels, kernel, stride, padding int, rng *rand.Rand) (*Conv2D, error) {
	fanIn := inChannels * kernel * kernel
	fanOut := outChannels * kernel * kernel
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))

	weight, err := tensor.RandomUniform([]int{outChannels, inChannels, kernel, kernel}, -limit, limit, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize conv weight: %v", err)
	}
	weight.SetRequiresGrad(true)

	bias, err := tensor.Zeros([]int{outChannels}, tensor.Float32)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize conv bias: %v", err)
	}
	bias.SetRequiresGrad(true)

	return &Conv2D{Weight: weight, Bias: bias, Stride: stride, Padding: padding}, nil
}

// Forward applies the convolution.
func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out, err := tensor.Conv2DAutograd(input, c.Weight, c.Bias, c.Stride, c.Padding)
	if err != nil {
		return nil, fmt.Errorf("conv forward failed: %v", err)
	}
	return out, nil
}

// Parameters returns the weight and bias.
func (c *Conv2D) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{c.Weight, c.Bias}
}

// ReLU applies the rectified linear activation.
type ReLU struct {
	phase
}

// NewReLU creates a ReLU activation layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies max(0, x) elementwise.
func (r *ReLU) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.ReLUAutograd(input)
}

// Parameters returns nil; ReLU has no trainable parameters.
func (r *ReLU) Parameters() []*tensor.Tensor {
	return nil
}

// MaxPool2D downsamples by taking the maximum over square windows.
type MaxPool2D struct {
	phase
	Kernel int
	Stride int
}

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(kernel, stride int) *MaxPool2D {
	return &MaxPool2D{Kernel: kernel, Stride: stride}
}

// Forward applies max pooling.
func (m *MaxPool2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.MaxPool2DAutograd(input, m.Kernel, m.Stride)
}

// Parameters returns nil; pooling has no trainable parameters.
func (m *MaxPool2D) Parameters() []*tensor.Tensor {
	return nil
}

// GlobalAvgPool2D averages each channel plane to a single value, reducing
// [batch, channels, height, width] to [batch, channels].
type GlobalAvgPool2D struct {
	phase
}

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D() *GlobalAvgPool2D {
	return &GlobalAvgPool2D{}
}

// Forward applies global average pooling.
func (g *GlobalAvgPool2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.GlobalAvgPool2DAutograd(input)
}

// Parameters returns nil.
func (g *GlobalAvgPool2D) Parameters() []*tensor.Tensor {
	return nil
}

// Flatten reshapes [batch, ...] input to [batch, features].
type Flatten struct {
	phase
}

// NewFlatten creates a flattening layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Forward flattens all dimensions after the batch dimension.
func (f *Flatten) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) < 2 {
		return nil, fmt.Errorf("flatten requires at least 2 dimensions, got shape %v", input.Shape)
	}
	features := 1
	for _, dim := range input.Shape[1:] {
		features *= dim
	}
	return tensor.ReshapeAutograd(input, []int{input.Shape[0], features})
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*tensor.Tensor {
	return nil
}

// Sequential chains modules, feeding each one's output to the next.
type Sequential struct {
	phase
	Modules []Module
}

// NewSequential creates a sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{Modules: modules}
}

// Forward runs the input through every module in order.
func (s *Sequential) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := input
	for i, m := range s.Modules {
		var err error
		out, err = m.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("module %d forward failed: %v", i, err)
		}
	}
	return out, nil
}

// Parameters concatenates the parameters of all contained modules.
func (s *Sequential) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, m := range s.Modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Train puts the container and all contained modules in training mode.
func (s *Sequential) Train() {
	s.phase.Train()
	for _, m := range s.Modules {
		m.Train()
	}
}

// Eval puts the container and all contained modules in evaluation mode.
func (s *Sequential) Eval() {
	s.phase.Eval()
	for _, m := range s.Modules {
		m.Eval()
	}
}
