// Package model defines the tamper classifier: a small residual
// convolutional backbone with a single-logit head.
package model

import (
	"fmt"
	"math/rand"

	"github.com/tsawler/tampernet/tensor"
	"github.com/tsawler/tampernet/training"
)

// FeatureDim is the width of the backbone's pooled feature vector.
const FeatureDim = 128

// ResidualBlock is two 3x3 convolutions with a skip connection. When the
// block changes resolution or width, a 1x1 convolution projects the skip
// path to match.
type ResidualBlock struct {
	Conv1    *training.Conv2D
	Conv2    *training.Conv2D
	Shortcut *training.Conv2D // nil for an identity skip
	training bool
}

// NewResidualBlock creates a block mapping inChannels to outChannels,
// downsampling by the given stride.
func NewResidualBlock(inChannels, outChannels, stride int, rng *rand.Rand) (*ResidualBlock, error) {
	conv1, err := training.NewConv2D(inChannels, outChannels, 3, stride, 1, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build block conv1: %v", err)
	}
	conv2, err := training.NewConv2D(outChannels, outChannels, 3, 1, 1, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build block conv2: %v", err)
	}

	block := &ResidualBlock{Conv1: conv1, Conv2: conv2}
	if stride != 1 || inChannels != outChannels {
		shortcut, err := training.NewConv2D(inChannels, outChannels, 1, stride, 0, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to build block shortcut: %v", err)
		}
		block.Shortcut = shortcut
	}
	return block, nil
}

// Forward computes relu(conv2(relu(conv1(x))) + skip(x)).
func (b *ResidualBlock) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	h, err := b.Conv1.Forward(input)
	if err != nil {
		return nil, err
	}
	h, err = tensor.ReLUAutograd(h)
	if err != nil {
		return nil, err
	}
	h, err = b.Conv2.Forward(h)
	if err != nil {
		return nil, err
	}

	skip := input
	if b.Shortcut != nil {
		skip, err = b.Shortcut.Forward(input)
		if err != nil {
			return nil, err
		}
	}

	sum, err := tensor.AddAutograd(h, skip)
	if err != nil {
		return nil, fmt.Errorf("residual add failed: %v", err)
	}
	return tensor.ReLUAutograd(sum)
}

// Parameters returns the block's trainable parameters.
func (b *ResidualBlock) Parameters() []*tensor.Tensor {
	params := append(b.Conv1.Parameters(), b.Conv2.Parameters()...)
	if b.Shortcut != nil {
		params = append(params, b.Shortcut.Parameters()...)
	}
	return params
}

// Train puts the block in training mode.
func (b *ResidualBlock) Train() { b.training = true }

// Eval puts the block in evaluation mode.
func (b *ResidualBlock) Eval() { b.training = false }

// IsTraining returns whether the block is in training mode.
func (b *ResidualBlock) IsTraining() bool { return b.training }

// Backbone extracts a FeatureDim-wide feature vector from an RGB image
// batch. A wide-stride stem reduces resolution early, three residual
// stages deepen the representation, and global average pooling collapses
// the spatial dimensions.
type Backbone struct {
	Stem     *training.Conv2D
	StemPool *training.MaxPool2D
	Stage1   *ResidualBlock
	Stage2   *ResidualBlock
	Stage3   *ResidualBlock
	pool     *training.GlobalAvgPool2D
	training bool
}

// NewBackbone creates a backbone with freshly initialized weights.
func NewBackbone(rng *rand.Rand) (*Backbone, error) {
	stem, err := training.NewConv2D(3, 16, 7, 2, 3, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build stem: %v", err)
	}

	stage1, err := NewResidualBlock(16, 32, 2, rng)
	if err != nil {
		return nil, err
	}
	stage2, err := NewResidualBlock(32, 64, 2, rng)
	if err != nil {
		return nil, err
	}
	stage3, err := NewResidualBlock(64, FeatureDim, 2, rng)
	if err != nil {
		return nil, err
	}

	return &Backbone{
		Stem:     stem,
		StemPool: training.NewMaxPool2D(2, 2),
		Stage1:   stage1,
		Stage2:   stage2,
		Stage3:   stage3,
		pool:     training.NewGlobalAvgPool2D(),
	}, nil
}

// Forward maps [batch, 3, H, W] to [batch, FeatureDim].
func (b *Backbone) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	h, err := b.Stem.Forward(input)
	if err != nil {
		return nil, err
	}
	h, err = tensor.ReLUAutograd(h)
	if err != nil {
		return nil, err
	}
	h, err = b.StemPool.Forward(h)
	if err != nil {
		return nil, err
	}

	for _, stage := range []*ResidualBlock{b.Stage1, b.Stage2, b.Stage3} {
		h, err = stage.Forward(h)
		if err != nil {
			return nil, err
		}
	}

	return b.pool.Forward(h)
}

// Parameters returns all backbone parameters.
func (b *Backbone) Parameters() []*tensor.Tensor {
	params := b.Stem.Parameters()
	params = append(params, b.Stage1.Parameters()...)
	params = append(params, b.Stage2.Parameters()...)
	params = append(params, b.Stage3.Parameters()...)
	return params
}

// Train puts the backbone in training mode.
func (b *Backbone) Train() {
	b.training = true
	b.Stage1.Train()
	b.Stage2.Train()
	b.Stage3.Train()
}

// Eval puts the backbone in evaluation mode.
func (b *Backbone) Eval() {
	b.training = false
	b.Stage1.Eval()
	b.Stage2.Eval()
	b.Stage3.Eval()
}

// IsTraining returns whether the backbone is in training mode.
func (b *Backbone) IsTraining() bool { return b.training }
