// Package tamper fabricates tampered invoice images from genuine ones.
// Each generated image carries one randomly chosen forgery: an occlusion,
// an overlay, an inserted text, a blurred region, or a fake signature.
package tamper

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Method identifies one forgery technique.
type Method int

const (
	BlackBox Method = iota
	Whiteout
	FakeText
	BlurPatch
	ShapeOverlay
	FakeSignature
	numMethods
)

func (m Method) String() string {
	switch m {
	case BlackBox:
		return "black_box"
	case Whiteout:
		return "whiteout"
	case FakeText:
		return "fake_text"
	case BlurPatch:
		return "blur_patch"
	case ShapeOverlay:
		return "shape_overlay"
	case FakeSignature:
		return "fake_signature"
	default:
		return "unknown"
	}
}

// Methods lists every forgery technique.
func Methods() []Method {
	methods := make([]Method, numMethods)
	for i := range methods {
		methods[i] = Method(i)
	}
	return methods
}

var overlayColors = []color.NRGBA{
	{R: 220, G: 30, B: 30, A: 255},
	{R: 30, G: 60, B: 200, A: 255},
	{R: 20, G: 140, B: 60, A: 255},
}

var fakeTexts = []string{
	"PAID IN FULL",
	"APPROVED",
	"FAKE $999.00",
	"VOID VOID VOID",
	"TOTAL: $0.00",
}

// Generator applies forgeries with its own seeded randomness, so a fixed
// seed reproduces the same tampered set.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// region picks a random rectangle covering between minFrac and maxFrac of
// each image dimension.
func (g *Generator) region(bounds image.Rectangle, minFrac, maxFrac float64) image.Rectangle {
	width := bounds.Dx()
	height := bounds.Dy()

	w := int((minFrac + g.rng.Float64()*(maxFrac-minFrac)) * float64(width))
	h := int((minFrac + g.rng.Float64()*(maxFrac-minFrac)) * float64(height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := bounds.Min.X + g.rng.Intn(width-w+1)
	y := bounds.Min.Y + g.rng.Intn(height-h+1)
	return image.Rect(x, y, x+w, y+h)
}

// Apply produces a tampered copy of img using the given method. The input
// is never modified.
func (g *Generator) Apply(img image.Image, method Method) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if bounds.Dx() < 20 || bounds.Dy() < 20 {
		return nil, fmt.Errorf("image %dx%d too small to tamper", bounds.Dx(), bounds.Dy())
	}

	out := imaging.Clone(img)
	switch method {
	case BlackBox:
		fillRegion(out, g.region(out.Bounds(), 0.08, 0.25), color.NRGBA{A: 255})
	case Whiteout:
		fillRegion(out, g.region(out.Bounds(), 0.08, 0.25), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	case FakeText:
		text := fakeTexts[g.rng.Intn(len(fakeTexts))]
		c := overlayColors[g.rng.Intn(len(overlayColors))]
		g.drawText(out, text, c)
	case BlurPatch:
		g.blurRegion(out, g.region(out.Bounds(), 0.15, 0.4))
	case ShapeOverlay:
		c := overlayColors[g.rng.Intn(len(overlayColors))]
		drawRectOutline(out, g.region(out.Bounds(), 0.1, 0.3), c, 2+g.rng.Intn(3))
	case FakeSignature:
		c := color.NRGBA{R: 20, G: 20, B: uint8(100 + g.rng.Intn(100)), A: 255}
		g.drawScribble(out, g.region(out.Bounds(), 0.15, 0.35), c)
	default:
		return nil, fmt.Errorf("unknown tamper method %d", method)
	}
	return out, nil
}

// ApplyRandom tampers with a randomly chosen method and reports which one
// was used.
func (g *Generator) ApplyRandom(img image.Image) (*image.NRGBA, Method, error) {
	method := Method(g.rng.Intn(int(numMethods)))
	out, err := g.Apply(img, method)
	return out, method, err
}

func fillRegion(img *image.NRGBA, region image.Rectangle, c color.NRGBA) {
	draw.Draw(img, region, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func (g *Generator) blurRegion(img *image.NRGBA, region image.Rectangle) {
	patch := imaging.Crop(img, region)
	blurred := imaging.Blur(patch, 3.0+g.rng.Float64()*3.0)
	draw.Draw(img, region, blurred, image.Point{}, draw.Src)
}
