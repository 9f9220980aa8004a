// Command infer scores a single invoice image with a trained model.
//
// Usage: infer [-weights path] [-threshold t] image.png
//
// The predicted label and confidence are printed to stdout. The exit code
// is 0 on success and non-zero if the image or model cannot be loaded.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/tsawler/tampernet/model"
	"github.com/tsawler/tampernet/transform"
)

func main() {
	weights := flag.String("weights", "outputs/invoice_classifier.json", "trained model checkpoint")
	threshold := flag.Float64("threshold", 0, "decision threshold override; 0 keeps the trained value")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: infer [flags] image.png")
		flag.PrintDefaults()
		os.Exit(2)
	}
	imagePath := flag.Arg(0)

	classifier, err := model.LoadClassifier(*weights)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	if *threshold != 0 {
		if *threshold <= 0 || *threshold >= 1 {
			log.Fatalf("threshold must be in (0, 1), got %v", *threshold)
		}
		classifier.Threshold = *threshold
	}

	f, err := os.Open(imagePath)
	if err != nil {
		log.Fatalf("failed to open image: %v", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("failed to decode image: %v", err)
	}

	sample, err := transform.NewEval(model.InputSize).Apply(img)
	if err != nil {
		log.Fatalf("failed to prepare image: %v", err)
	}

	label, prob, err := classifier.Predict(sample)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}

	name := "real"
	if label == model.LabelTampered {
		name = "tampered"
	}
	fmt.Printf("%s (confidence %.4f)\n", name, prob)
}
