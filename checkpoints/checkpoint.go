// Package checkpoints persists model weights and training state as JSON.
// A checkpoint is written once at the end of a run; loading verifies that
// every stored weight matches the receiving model by name and shape.
package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tsawler/tampernet/tensor"
)

// FormatVersion identifies the checkpoint file layout.
const FormatVersion = "1.0"

// WeightTensor is one serialized parameter.
type WeightTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
	Layer string    `json:"layer,omitempty"`
	Type  string    `json:"type,omitempty"`
}

// TrainingState records where training ended.
type TrainingState struct {
	Epoch         int     `json:"epoch"`
	LearningRate  float64 `json:"learning_rate"`
	TrainLoss     float64 `json:"train_loss"`
	TrainAccuracy float64 `json:"train_accuracy"`
	ValLoss       float64 `json:"val_loss"`
	ValAccuracy   float64 `json:"val_accuracy"`
}

// Metadata describes the checkpointed model.
type Metadata struct {
	Architecture string    `json:"architecture"`
	InputSize    int       `json:"input_size"`
	Threshold    float64   `json:"threshold"`
	CreatedAt    time.Time `json:"created_at"`
	Description  string    `json:"description,omitempty"`
}

// Checkpoint is the full serialized state of a trained model.
type Checkpoint struct {
	Version       string         `json:"version"`
	Weights       []WeightTensor `json:"weights"`
	TrainingState TrainingState  `json:"training_state"`
	Metadata      Metadata       `json:"metadata"`
}

// Save writes a checkpoint, creating parent directories as needed.
func Save(path string, checkpoint *Checkpoint) error {
	if checkpoint.Version == "" {
		checkpoint.Version = FormatVersion
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %v", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %v", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %v", err)
	}
	return nil
}

// Load reads a checkpoint from disk.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %v", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %v", err)
	}
	if len(checkpoint.Weights) == 0 {
		return nil, fmt.Errorf("checkpoint contains no weights")
	}
	return &checkpoint, nil
}

// ByName indexes the checkpoint's weights by parameter name.
func (c *Checkpoint) ByName() map[string]*WeightTensor {
	index := make(map[string]*WeightTensor, len(c.Weights))
	for i := range c.Weights {
		index[c.Weights[i].Name] = &c.Weights[i]
	}
	return index
}

// Restore copies a stored weight into a parameter tensor, verifying shape
// and element count first.
func Restore(w *WeightTensor, param *tensor.Tensor) error {
	if len(w.Shape) != len(param.Shape) {
		return fmt.Errorf("weight %q has %d dimensions, model expects %d", w.Name, len(w.Shape), len(param.Shape))
	}
	for i := range w.Shape {
		if w.Shape[i] != param.Shape[i] {
			return fmt.Errorf("weight %q has shape %v, model expects %v", w.Name, w.Shape, param.Shape)
		}
	}
	if len(w.Data) != param.NumElems {
		return fmt.Errorf("weight %q has %d values for shape %v", w.Name, len(w.Data), w.Shape)
	}
	return param.SetData(w.Data)
}
