package model

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/tsawler/tampernet/checkpoints"
)

// Save writes the classifier's final weights and training state to path.
// Only the end-of-run state is persisted; intermediate epochs are not.
func (c *Classifier) Save(path string, state checkpoints.TrainingState, description string) error {
	named := c.NamedParameters()
	weights := make([]checkpoints.WeightTensor, 0, len(named))

	for _, p := range named {
		data, err := p.Tensor.GetFloat32Data()
		if err != nil {
			return fmt.Errorf("failed to read parameter %q: %v", p.Name, err)
		}
		weights = append(weights, checkpoints.WeightTensor{
			Name:  p.Name,
			Shape: append([]int{}, p.Tensor.Shape...),
			Data:  append([]float32{}, data...),
			Layer: p.Layer,
			Type:  p.Type,
		})
	}

	return checkpoints.Save(path, &checkpoints.Checkpoint{
		Weights:       weights,
		TrainingState: state,
		Metadata: checkpoints.Metadata{
			Architecture: Architecture,
			InputSize:    InputSize,
			Threshold:    c.Threshold,
			CreatedAt:    time.Now().UTC(),
			Description:  description,
		},
	})
}

// restore copies checkpoint weights into the classifier's parameters. The
// stored and expected parameter sets must match exactly; any missing,
// extra, or misshapen weight is an architecture mismatch.
func (c *Classifier) restore(checkpoint *checkpoints.Checkpoint, prefix string) error {
	if checkpoint.Metadata.Architecture != Architecture {
		return fmt.Errorf("architecture mismatch: checkpoint was written for %q, this model is %q",
			checkpoint.Metadata.Architecture, Architecture)
	}

	stored := checkpoint.ByName()
	restored := make(map[string]bool)

	for _, p := range c.NamedParameters() {
		if prefix != "" && !strings.HasPrefix(p.Name, prefix) {
			continue
		}
		w, ok := stored[p.Name]
		if !ok {
			return fmt.Errorf("architecture mismatch: checkpoint is missing weight %q", p.Name)
		}
		if err := checkpoints.Restore(w, p.Tensor); err != nil {
			return fmt.Errorf("architecture mismatch: %v", err)
		}
		restored[p.Name] = true
	}

	if prefix == "" {
		for name := range stored {
			if !restored[name] {
				return fmt.Errorf("architecture mismatch: checkpoint has unknown weight %q", name)
			}
		}
	}
	return nil
}

// LoadClassifier reconstructs a trained classifier from a checkpoint. The
// checkpoint must contain exactly the weights this architecture defines.
func LoadClassifier(path string) (*Classifier, error) {
	checkpoint, err := checkpoints.Load(path)
	if err != nil {
		return nil, err
	}

	// Every weight is overwritten below, so the init seed is irrelevant.
	classifier, err := NewClassifier(rand.New(rand.NewSource(0)))
	if err != nil {
		return nil, err
	}
	if err := classifier.restore(checkpoint, ""); err != nil {
		return nil, err
	}

	if t := checkpoint.Metadata.Threshold; t > 0 && t < 1 {
		classifier.Threshold = t
	}
	return classifier, nil
}

// LoadBackbone builds a classifier whose backbone comes from an existing
// checkpoint and whose head is freshly initialized from rng. This is the
// starting point for adapting a trained feature extractor to new data.
func LoadBackbone(path string, rng *rand.Rand) (*Classifier, error) {
	checkpoint, err := checkpoints.Load(path)
	if err != nil {
		return nil, err
	}

	classifier, err := NewClassifier(rng)
	if err != nil {
		return nil, err
	}
	if err := classifier.restore(checkpoint, "backbone."); err != nil {
		return nil, err
	}
	return classifier, nil
}
