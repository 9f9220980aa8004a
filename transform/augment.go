package transform

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/tsawler/tampernet/tensor"
)

// Train resizes to a fixed square and applies random augmentation before
// tensor conversion: horizontal flip with probability 0.5, rotation within
// a small angle range, and brightness and contrast jitter. Each call draws
// fresh randomness, so repeated application to the same image varies.
type Train struct {
	Size      int
	FlipProb  float64
	MaxRotate float64 // degrees either direction
	MaxJitter float64 // fractional brightness/contrast range
	mu        sync.Mutex
	rng       *rand.Rand
}

// NewTrain creates the training-time transform with the standard
// augmentation ranges: flip probability 0.5, rotation within 5 degrees,
// jitter within 20 percent.
func NewTrain(size int, seed int64) *Train {
	return &Train{
		Size:      size,
		FlipProb:  0.5,
		MaxRotate: 5.0,
		MaxJitter: 0.2,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

type draw struct {
	flip       bool
	angle      float64
	brightness float64
	contrast   float64
}

func (t *Train) draw() draw {
	t.mu.Lock()
	defer t.mu.Unlock()
	return draw{
		flip:       t.rng.Float64() < t.FlipProb,
		angle:      (t.rng.Float64()*2 - 1) * t.MaxRotate,
		brightness: (t.rng.Float64()*2 - 1) * t.MaxJitter,
		contrast:   (t.rng.Float64()*2 - 1) * t.MaxJitter,
	}
}

// Apply implements Transform.
func (t *Train) Apply(img image.Image) (*tensor.Tensor, error) {
	if t.Size <= 0 {
		return nil, fmt.Errorf("invalid transform size %d", t.Size)
	}

	out := resize.Resize(uint(t.Size), uint(t.Size), img, resize.Lanczos3)
	d := t.draw()

	var augmented *image.NRGBA
	if d.flip {
		augmented = imaging.FlipH(out)
	} else {
		augmented = imaging.Clone(out)
	}

	if d.angle != 0 {
		augmented = imaging.Rotate(augmented, d.angle, color.White)
		// Rotation grows the canvas; crop back to the model's input size.
		augmented = imaging.CropCenter(augmented, t.Size, t.Size)
	}

	// AdjustBrightness and AdjustContrast take percentages.
	augmented = imaging.AdjustBrightness(augmented, d.brightness*100)
	augmented = imaging.AdjustContrast(augmented, d.contrast*100)

	return ToTensor(augmented)
}
