package training

import (
	"fmt"
	"time"
)

// Config controls a training run.
type Config struct {
	// Epochs is the fixed number of passes over the training set. Training
	// always runs to completion; there is no early stopping.
	Epochs int
	// Threshold is the decision boundary applied to sigmoid outputs when
	// computing accuracy.
	Threshold float64
	// Verbose enables per-epoch progress output.
	Verbose bool
}

// EpochMetrics records the outcome of one epoch.
type EpochMetrics struct {
	Epoch     int
	TrainLoss float64
	TrainAcc  float64
	ValLoss   float64
	ValAcc    float64
	Duration  time.Duration
}

// History holds the metrics of every completed epoch.
type History struct {
	Epochs []EpochMetrics
}

// Final returns the metrics of the last completed epoch.
func (h *History) Final() (EpochMetrics, bool) {
	if len(h.Epochs) == 0 {
		return EpochMetrics{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

// Trainer runs the epoch loop: forward, loss, backward, update, then a
// validation pass.
type Trainer struct {
	model     Module
	criterion Loss
	optimizer Optimizer
	config    Config
}

// NewTrainer assembles a trainer.
func NewTrainer(model Module, criterion Loss, optimizer Optimizer, config Config) (*Trainer, error) {
	if model == nil || criterion == nil || optimizer == nil {
		return nil, fmt.Errorf("model, criterion, and optimizer are all required")
	}
	if config.Epochs < 1 {
		return nil, fmt.Errorf("epochs must be at least 1, got %d", config.Epochs)
	}
	if config.Threshold <= 0 || config.Threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0, 1), got %v", config.Threshold)
	}
	return &Trainer{model: model, criterion: criterion, optimizer: optimizer, config: config}, nil
}

// Fit trains for the configured number of epochs, validating after each
// one. A failed batch aborts the run with an error; partial epochs are not
// recorded.
func (t *Trainer) Fit(train, val *DataLoader) (*History, error) {
	history := &History{}

	for epoch := 1; epoch <= t.config.Epochs; epoch++ {
		start := time.Now()

		trainLoss, trainAcc, err := t.trainEpoch(train)
		if err != nil {
			return history, fmt.Errorf("epoch %d failed: %v", epoch, err)
		}

		valLoss, valAcc, err := t.Evaluate(val)
		if err != nil {
			return history, fmt.Errorf("epoch %d validation failed: %v", epoch, err)
		}

		metrics := EpochMetrics{
			Epoch:     epoch,
			TrainLoss: trainLoss,
			TrainAcc:  trainAcc,
			ValLoss:   valLoss,
			ValAcc:    valAcc,
			Duration:  time.Since(start),
		}
		history.Epochs = append(history.Epochs, metrics)

		if t.config.Verbose {
			fmt.Printf("Epoch %d/%d - loss: %.4f - acc: %.4f - val_loss: %.4f - val_acc: %.4f (%.1fs)\n",
				epoch, t.config.Epochs, trainLoss, trainAcc, valLoss, valAcc, metrics.Duration.Seconds())
		}
	}

	return history, nil
}

func (t *Trainer) trainEpoch(loader *DataLoader) (float64, float64, error) {
	t.model.Train()

	var lossSum float64
	var samples int
	var confusion Confusion

	batches := loader.Batches()
	for result := range batches {
		if result.Err != nil {
			drain(batches)
			return 0, 0, result.Err
		}
		batch := result.Batch

		t.optimizer.ZeroGrad()

		output, err := t.model.Forward(batch.Data)
		if err != nil {
			drain(batches)
			return 0, 0, fmt.Errorf("forward pass failed: %v", err)
		}

		loss, err := t.criterion.Forward(output, batch.Labels)
		if err != nil {
			drain(batches)
			return 0, 0, fmt.Errorf("loss computation failed: %v", err)
		}

		grad, err := t.criterion.Backward(output, batch.Labels)
		if err != nil {
			drain(batches)
			return 0, 0, fmt.Errorf("loss gradient failed: %v", err)
		}
		if err := output.Backward(grad); err != nil {
			drain(batches)
			return 0, 0, fmt.Errorf("backward pass failed: %v", err)
		}

		if err := t.optimizer.Step(); err != nil {
			drain(batches)
			return 0, 0, fmt.Errorf("optimizer step failed: %v", err)
		}

		lossValue, err := loss.Item()
		if err != nil {
			drain(batches)
			return 0, 0, err
		}

		n := batch.Data.Shape[0]
		lossSum += float64(lossValue) * float64(n)
		samples += n
		if err := confusion.Update(output, batch.Labels, t.config.Threshold); err != nil {
			drain(batches)
			return 0, 0, err
		}
	}

	if samples == 0 {
		return 0, 0, fmt.Errorf("training pass saw no samples")
	}
	return lossSum / float64(samples), confusion.Accuracy(), nil
}

// Evaluate runs a forward-only pass and returns mean loss and accuracy.
func (t *Trainer) Evaluate(loader *DataLoader) (float64, float64, error) {
	t.model.Eval()

	var lossSum float64
	var samples int
	var confusion Confusion

	batches := loader.Batches()
	for result := range batches {
		if result.Err != nil {
			drain(batches)
			return 0, 0, result.Err
		}
		batch := result.Batch

		output, err := t.model.Forward(batch.Data)
		if err != nil {
			drain(batches)
			return 0, 0, fmt.Errorf("forward pass failed: %v", err)
		}

		loss, err := t.criterion.Forward(output, batch.Labels)
		if err != nil {
			drain(batches)
			return 0, 0, fmt.Errorf("loss computation failed: %v", err)
		}
		lossValue, err := loss.Item()
		if err != nil {
			drain(batches)
			return 0, 0, err
		}

		n := batch.Data.Shape[0]
		lossSum += float64(lossValue) * float64(n)
		samples += n
		if err := confusion.Update(output, batch.Labels, t.config.Threshold); err != nil {
			drain(batches)
			return 0, 0, err
		}
	}

	if samples == 0 {
		return 0, 0, fmt.Errorf("evaluation pass saw no samples")
	}
	return lossSum / float64(samples), confusion.Accuracy(), nil
}

// drain consumes remaining batches so loader goroutines can exit.
func drain(batches <-chan BatchResult) {
	for range batches {
	}
}
