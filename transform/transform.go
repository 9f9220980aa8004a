// Package transform converts images into model-ready tensors, with an
// augmenting pipeline for training and a deterministic one for scoring.
package transform

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"github.com/tsawler/tampernet/tensor"
)

// Transform converts an image into a [3, H, W] Float32 tensor.
type Transform interface {
	Apply(img image.Image) (*tensor.Tensor, error)
}

// ToTensor converts an image into a [3, H, W] tensor with channel values
// scaled to [0, 1]. Channels are separated so each plane is contiguous.
func ToTensor(img image.Image) (*tensor.Tensor, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("cannot convert an empty image")
	}

	plane := width * height
	data := make([]float32, 3*plane)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			data[i] = float32(r>>8) / 255.0
			data[plane+i] = float32(g>>8) / 255.0
			data[2*plane+i] = float32(b>>8) / 255.0
			i++
		}
	}

	return tensor.NewTensor([]int{3, height, width}, tensor.Float32, data)
}

// Eval resizes to a fixed square and converts to a tensor. It applies no
// randomness, so the same image always produces the same tensor.
type Eval struct {
	Size int
}

// NewEval creates the scoring-time transform.
func NewEval(size int) *Eval {
	return &Eval{Size: size}
}

// Apply implements Transform.
func (e *Eval) Apply(img image.Image) (*tensor.Tensor, error) {
	if e.Size <= 0 {
		return nil, fmt.Errorf("invalid transform size %d", e.Size)
	}
	scaled := resize.Resize(uint(e.Size), uint(e.Size), img, resize.Lanczos3)
	return ToTensor(scaled)
}
