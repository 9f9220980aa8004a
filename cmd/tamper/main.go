// Command tamper fabricates tampered copies of genuine invoice images, one
// randomly chosen forgery per copy.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tampernet/tamper"
)

func main() {
	inDir := flag.String("in", "", "directory of genuine invoice images")
	outDir := flag.String("out", "data/tampered", "output directory for tampered copies")
	perImage := flag.Int("n", 1, "tampered copies to generate per input image")
	seed := flag.Int64("seed", 42, "random seed for forgery selection and placement")
	flag.Parse()

	if *inDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *perImage < 1 {
		log.Fatalf("copies per image must be at least 1, got %d", *perImage)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	entries, err := os.ReadDir(*inDir)
	if err != nil {
		log.Fatalf("failed to read input directory: %v", err)
	}

	generator := tamper.NewGenerator(*seed)
	generated := 0

	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(*inDir, entry.Name())

		img, err := loadImage(path)
		if err != nil {
			log.Fatalf("failed to load %s: %v", path, err)
		}

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		for i := 0; i < *perImage; i++ {
			out, method, err := generator.ApplyRandom(img)
			if err != nil {
				log.Fatalf("failed to tamper %s: %v", path, err)
			}

			name := fmt.Sprintf("%s_%s_%d.png", base, method, i)
			if err := savePNG(filepath.Join(*outDir, name), out); err != nil {
				log.Fatalf("failed to save %s: %v", name, err)
			}
			generated++
		}
	}

	fmt.Printf("generated %d tampered images in %s\n", generated, *outDir)
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

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
