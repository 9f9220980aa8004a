// Command train fits the tamper classifier on a packed dataset and writes
// the final model checkpoint.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/tsawler/tampernet/checkpoints"
	"github.com/tsawler/tampernet/dataset"
	"github.com/tsawler/tampernet/model"
	"github.com/tsawler/tampernet/training"
	"github.com/tsawler/tampernet/transform"
)

const (
	trainFrac = 0.7
	valFrac   = 0.15
)

func main() {
	dataDir := flag.String("data", "data/packed", "packed dataset directory")
	outPath := flag.String("out", "outputs/invoice_classifier.json", "checkpoint output path")
	pretrained := flag.String("pretrained", "", "checkpoint to take the backbone from; the head is reinitialized")
	epochs := flag.Int("epochs", 10, "number of training epochs")
	batchSize := flag.Int("batch", 32, "batch size")
	lr := flag.Float64("lr", 0.001, "Adam learning rate")
	workers := flag.Int("workers", 4, "data loading workers")
	threshold := flag.Float64("threshold", model.DefaultThreshold, "decision threshold")
	seed := flag.Int64("seed", 42, "base random seed")
	flag.Parse()

	// Each random consumer gets its own derived seed, so changing one
	// stage (say, more augmentation draws) cannot shift the others.
	splitSeed := *seed
	samplerSeed := *seed + 1
	augmentSeed := *seed + 2
	initSeed := *seed + 3

	store, err := dataset.OpenMmapStore(*dataDir)
	if err != nil {
		log.Fatalf("failed to open dataset: %v", err)
	}
	defer store.Close()

	labels, err := dataset.Labels(store)
	if err != nil {
		log.Fatalf("failed to read labels: %v", err)
	}

	split, err := dataset.StratifiedSplit(labels, trainFrac, valFrac, splitSeed)
	if err != nil {
		log.Fatalf("failed to split dataset: %v", err)
	}
	fmt.Printf("dataset: %d records (train %d, val %d, test %d)\n",
		store.Len(), len(split.Train), len(split.Val), len(split.Test))

	trainLabels, err := dataset.LabelsFor(store, split.Train)
	if err != nil {
		log.Fatalf("failed to read train labels: %v", err)
	}
	weights, err := dataset.SampleWeights(trainLabels)
	if err != nil {
		log.Fatalf("failed to weight train samples: %v", err)
	}
	trainSampler, err := dataset.NewWeightedSampler(weights, samplerSeed)
	if err != nil {
		log.Fatalf("failed to create sampler: %v", err)
	}

	trainData, err := training.NewStoreDataset(store, split.Train, transform.NewTrain(model.InputSize, augmentSeed))
	if err != nil {
		log.Fatalf("failed to build train dataset: %v", err)
	}
	evalTransform := transform.NewEval(model.InputSize)
	valData, err := training.NewStoreDataset(store, split.Val, evalTransform)
	if err != nil {
		log.Fatalf("failed to build validation dataset: %v", err)
	}
	testData, err := training.NewStoreDataset(store, split.Test, evalTransform)
	if err != nil {
		log.Fatalf("failed to build test dataset: %v", err)
	}

	trainLoader, err := training.NewDataLoader(trainData, trainSampler, *batchSize, *workers)
	if err != nil {
		log.Fatalf("failed to build train loader: %v", err)
	}
	valLoader, err := training.NewDataLoader(valData, dataset.NewSequentialSampler(valData.Len()), *batchSize, *workers)
	if err != nil {
		log.Fatalf("failed to build validation loader: %v", err)
	}
	testLoader, err := training.NewDataLoader(testData, dataset.NewSequentialSampler(testData.Len()), *batchSize, *workers)
	if err != nil {
		log.Fatalf("failed to build test loader: %v", err)
	}

	initRng := rand.New(rand.NewSource(initSeed))
	var classifier *model.Classifier
	if *pretrained != "" {
		classifier, err = model.LoadBackbone(*pretrained, initRng)
		if err != nil {
			log.Fatalf("failed to load pretrained backbone: %v", err)
		}
		fmt.Printf("loaded backbone from %s, head reinitialized\n", *pretrained)
	} else {
		classifier, err = model.NewClassifier(initRng)
		if err != nil {
			log.Fatalf("failed to build model: %v", err)
		}
	}
	classifier.Threshold = *threshold

	optimizer := training.NewAdam(classifier.Parameters(), *lr)
	trainer, err := training.NewTrainer(classifier, training.NewBCEWithLogitsLoss(), optimizer, training.Config{
		Epochs:    *epochs,
		Threshold: *threshold,
		Verbose:   true,
	})
	if err != nil {
		log.Fatalf("failed to build trainer: %v", err)
	}

	history, err := trainer.Fit(trainLoader, valLoader)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	testLoss, testAcc, err := trainer.Evaluate(testLoader)
	if err != nil {
		log.Fatalf("test evaluation failed: %v", err)
	}
	fmt.Printf("test - loss: %.4f - acc: %.4f\n", testLoss, testAcc)

	final, ok := history.Final()
	if !ok {
		log.Fatalf("no epochs completed")
	}
	state := checkpoints.TrainingState{
		Epoch:         final.Epoch,
		LearningRate:  optimizer.GetLR(),
		TrainLoss:     final.TrainLoss,
		TrainAccuracy: final.TrainAcc,
		ValLoss:       final.ValLoss,
		ValAccuracy:   final.ValAcc,
	}

	description := fmt.Sprintf("trained %d epochs, test accuracy %.4f", final.Epoch, testAcc)
	if err := classifier.Save(*outPath, state, description); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}
	fmt.Printf("saved model to %s\n", *outPath)
}
