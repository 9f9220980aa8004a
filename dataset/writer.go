package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
)

// Writer packs records into the array files read by MmapStore. Records are
// appended in id order; Close writes the manifest. A Writer is for dataset
// preparation only and is never used on the training path.
type Writer struct {
	dir    string
	size   int
	count  int
	images *os.File
	labels *os.File
	imgBuf *bufio.Writer
	lblBuf *bufio.Writer
}

// NewWriter creates a packed dataset directory for images of the given
// square size.
func NewWriter(dir string, size int) (*Writer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", size)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %v", err)
	}

	images, err := os.Create(filepath.Join(dir, imagesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create image array: %v", err)
	}

	labels, err := os.Create(filepath.Join(dir, labelsFile))
	if err != nil {
		images.Close()
		return nil, fmt.Errorf("failed to create label array: %v", err)
	}

	return &Writer{
		dir:    dir,
		size:   size,
		images: images,
		labels: labels,
		imgBuf: bufio.NewWriter(images),
		lblBuf: bufio.NewWriter(labels),
	}, nil
}

// Append writes one record and returns its id.
func (w *Writer) Append(pixels []byte, label int) (int, error) {
	if len(pixels) != w.size*w.size*channels {
		return 0, fmt.Errorf("pixel data is %d bytes, expected %d", len(pixels), w.size*w.size*channels)
	}
	if label != 0 && label != 1 {
		return 0, fmt.Errorf("label must be 0 or 1, got %d", label)
	}

	if _, err := w.imgBuf.Write(pixels); err != nil {
		return 0, fmt.Errorf("failed to write record %d: %v", w.count, err)
	}
	if err := w.lblBuf.WriteByte(byte(label)); err != nil {
		return 0, fmt.Errorf("failed to write label %d: %v", w.count, err)
	}

	id := w.count
	w.count++
	return id, nil
}

// AppendImage rasterizes an image to the writer's record size and appends
// it.
func (w *Writer) AppendImage(img image.Image, label int) (int, error) {
	return w.Append(Rasterize(img, w.size), label)
}

// Close flushes the array files and writes the manifest.
func (w *Writer) Close() error {
	if err := w.imgBuf.Flush(); err != nil {
		return fmt.Errorf("failed to flush image array: %v", err)
	}
	if err := w.lblBuf.Flush(); err != nil {
		return fmt.Errorf("failed to flush label array: %v", err)
	}
	if err := w.images.Close(); err != nil {
		return fmt.Errorf("failed to close image array: %v", err)
	}
	if err := w.labels.Close(); err != nil {
		return fmt.Errorf("failed to close label array: %v", err)
	}

	raw, err := json.MarshalIndent(Manifest{Count: w.count, Size: w.size}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, manifestFile), raw, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %v", err)
	}
	return nil
}

// Rasterize scales an image to a square of the given size and returns its
// raw RGB bytes in row-major order.
func Rasterize(img image.Image, size int) []byte {
	scaled := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	out := make([]byte, size*size*channels)
	bounds := scaled.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			out[i] = byte(r >> 8)
			out[i+1] = byte(g >> 8)
			out[i+2] = byte(b >> 8)
			i += channels
		}
	}
	return out
}

// ToImage converts raw RGB record bytes back into an image.
func ToImage(pixels []byte, size int) (*image.NRGBA, error) {
	if len(pixels) != size*size*channels {
		return nil, fmt.Errorf("pixel data is %d bytes, expected %d", len(pixels), size*size*channels)
	}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			o := img.PixOffset(x, y)
			img.Pix[o] = pixels[i]
			img.Pix[o+1] = pixels[i+1]
			img.Pix[o+2] = pixels[i+2]
			img.Pix[o+3] = 255
			i += channels
		}
	}
	return img, nil
}
