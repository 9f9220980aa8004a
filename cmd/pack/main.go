// Command pack converts folders of real and tampered invoice images into
// the packed array files the training pipeline reads.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tampernet/dataset"
	"github.com/tsawler/tampernet/model"
)

func main() {
	realDir := flag.String("real", "", "directory of genuine invoice images")
	tamperedDir := flag.String("tampered", "", "directory of tampered invoice images")
	outDir := flag.String("out", "data/packed", "output directory for the packed dataset")
	size := flag.Int("size", model.InputSize, "square edge length records are stored at")
	flag.Parse()

	if *realDir == "" || *tamperedDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	writer, err := dataset.NewWriter(*outDir, *size)
	if err != nil {
		log.Fatalf("failed to create dataset: %v", err)
	}

	realCount, err := packDir(writer, *realDir, model.LabelReal)
	if err != nil {
		log.Fatalf("failed to pack real invoices: %v", err)
	}
	tamperedCount, err := packDir(writer, *tamperedDir, model.LabelTampered)
	if err != nil {
		log.Fatalf("failed to pack tampered invoices: %v", err)
	}

	if err := writer.Close(); err != nil {
		log.Fatalf("failed to finalize dataset: %v", err)
	}

	fmt.Printf("packed %d real and %d tampered invoices into %s\n", realCount, tamperedCount, *outDir)
}

func packDir(writer *dataset.Writer, dir string, label int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		img, err := loadImage(path)
		if err != nil {
			return count, fmt.Errorf("%s: %v", path, err)
		}
		if _, err := writer.AppendImage(img, label); err != nil {
			return count, fmt.Errorf("%s: %v", path, err)
		}
		count++
	}
	return count, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
