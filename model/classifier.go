package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tsawler/tampernet/tensor"
	"github.com/tsawler/tampernet/training"
)

const (
	// Architecture names the network layout stored in checkpoints. Loading
	// rejects checkpoints written for any other architecture.
	Architecture = "resnet-mini-128"

	// InputSize is the square input edge the classifier expects.
	InputSize = 256

	// DefaultThreshold is the sigmoid decision boundary.
	DefaultThreshold = 0.5
)

// Class labels.
const (
	LabelReal     = 0
	LabelTampered = 1
)

// Classifier scores invoice images for tampering. The backbone produces a
// feature vector and the head maps it to a single logit; sigmoid of the
// logit is the tampering probability.
type Classifier struct {
	Backbone  *Backbone
	Head      *training.Linear
	Threshold float64
	training  bool
}

// NewClassifier creates a classifier with freshly initialized weights.
func NewClassifier(rng *rand.Rand) (*Classifier, error) {
	backbone, err := NewBackbone(rng)
	if err != nil {
		return nil, err
	}
	head, err := training.NewLinear(FeatureDim, 1, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build head: %v", err)
	}
	return &Classifier{Backbone: backbone, Head: head, Threshold: DefaultThreshold}, nil
}

// ReplaceHead swaps in a freshly initialized head, keeping the backbone.
// Used when adapting an already-trained backbone to a new run.
func (c *Classifier) ReplaceHead(rng *rand.Rand) error {
	head, err := training.NewLinear(FeatureDim, 1, rng)
	if err != nil {
		return fmt.Errorf("failed to build head: %v", err)
	}
	c.Head = head
	return nil
}

// Forward maps [batch, 3, H, W] to [batch, 1] logits.
func (c *Classifier) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	features, err := c.Backbone.Forward(input)
	if err != nil {
		return nil, err
	}
	return c.Head.Forward(features)
}

// Parameters returns all trainable parameters, backbone first.
func (c *Classifier) Parameters() []*tensor.Tensor {
	return append(c.Backbone.Parameters(), c.Head.Parameters()...)
}

// Train puts the classifier in training mode.
func (c *Classifier) Train() {
	c.training = true
	c.Backbone.Train()
	c.Head.Train()
}

// Eval puts the classifier in evaluation mode.
func (c *Classifier) Eval() {
	c.training = false
	c.Backbone.Eval()
	c.Head.Eval()
}

// IsTraining returns whether the classifier is in training mode.
func (c *Classifier) IsTraining() bool { return c.training }

// PredictProb scores a single [3, H, W] sample and returns the tampering
// probability.
func (c *Classifier) PredictProb(sample *tensor.Tensor) (float64, error) {
	if len(sample.Shape) != 3 {
		return 0, fmt.Errorf("expected a [channels, height, width] sample, got shape %v", sample.Shape)
	}

	c.Eval()
	batched, err := tensor.Reshape(sample, append([]int{1}, sample.Shape...))
	if err != nil {
		return 0, err
	}

	logits, err := c.Forward(batched)
	if err != nil {
		return 0, fmt.Errorf("inference failed: %v", err)
	}
	logit, err := logits.Item()
	if err != nil {
		return 0, err
	}

	return 1.0 / (1.0 + math.Exp(-float64(logit))), nil
}

// Predict scores a single sample and applies the decision threshold.
func (c *Classifier) Predict(sample *tensor.Tensor) (int, float64, error) {
	prob, err := c.PredictProb(sample)
	if err != nil {
		return 0, 0, err
	}
	if prob > c.Threshold {
		return LabelTampered, prob, nil
	}
	return LabelReal, prob, nil
}

// NamedParam pairs a parameter tensor with its stable checkpoint name.
type NamedParam struct {
	Name   string
	Layer  string
	Type   string
	Tensor *tensor.Tensor
}

func convParams(layer string, conv *training.Conv2D) []NamedParam {
	return []NamedParam{
		{Name: layer + ".weight", Layer: layer, Type: "weight", Tensor: conv.Weight},
		{Name: layer + ".bias", Layer: layer, Type: "bias", Tensor: conv.Bias},
	}
}

func blockParams(layer string, block *ResidualBlock) []NamedParam {
	params := convParams(layer+".conv1", block.Conv1)
	params = append(params, convParams(layer+".conv2", block.Conv2)...)
	if block.Shortcut != nil {
		params = append(params, convParams(layer+".shortcut", block.Shortcut)...)
	}
	return params
}

// NamedParameters returns every parameter with its checkpoint name. Names
// are stable across runs; they are the contract between a saved model and
// the code that loads it.
func (c *Classifier) NamedParameters() []NamedParam {
	params := convParams("backbone.stem", c.Backbone.Stem)
	params = append(params, blockParams("backbone.stage1", c.Backbone.Stage1)...)
	params = append(params, blockParams("backbone.stage2", c.Backbone.Stage2)...)
	params = append(params, blockParams("backbone.stage3", c.Backbone.Stage3)...)
	params = append(params,
		NamedParam{Name: "head.weight", Layer: "head", Type: "weight", Tensor: c.Head.Weight},
		NamedParam{Name: "head.bias", Layer: "head", Type: "bias", Tensor: c.Head.Bias},
	)
	return params
}
