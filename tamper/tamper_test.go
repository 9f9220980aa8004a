package tamper

import (
	"image"
	"image/color"
	"testing"
)

func whiteInvoice(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
		}
	}
	return img
}

func countChangedPixels(a, b *image.NRGBA) int {
	changed := 0
	for i := 0; i < len(a.Pix); i += 4 {
		if a.Pix[i] != b.Pix[i] || a.Pix[i+1] != b.Pix[i+1] || a.Pix[i+2] != b.Pix[i+2] {
			changed++
		}
	}
	return changed
}

func TestApplyChangesImage(t *testing.T) {
	for _, method := range Methods() {
		t.Run(method.String(), func(t *testing.T) {
			src := whiteInvoice(100, 140)
			g := NewGenerator(42)

			out, err := g.Apply(src, method)
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}

			if out.Bounds() != src.Bounds() {
				t.Fatalf("bounds changed: %v -> %v", src.Bounds(), out.Bounds())
			}
			if changed := countChangedPixels(src, out); changed == 0 {
				t.Error("tampering left the image untouched")
			}
		})
	}
}

func TestApplyDoesNotModifySource(t *testing.T) {
	src := whiteInvoice(100, 140)
	reference := whiteInvoice(100, 140)

	g := NewGenerator(7)
	if _, err := g.Apply(src, BlackBox); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if countChangedPixels(src, reference) != 0 {
		t.Error("source image was modified")
	}
}

func TestApplyRandomIsSeeded(t *testing.T) {
	src := whiteInvoice(100, 140)

	a := NewGenerator(3)
	b := NewGenerator(3)

	for i := 0; i < 5; i++ {
		outA, methodA, err := a.ApplyRandom(src)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		outB, methodB, err := b.ApplyRandom(src)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}

		if methodA != methodB {
			t.Fatalf("round %d picked %s vs %s", i, methodA, methodB)
		}
		if countChangedPixels(outA, outB) != 0 {
			t.Fatalf("round %d produced different images for equal seeds", i)
		}
	}
}

func TestApplyRandomCoversAllMethods(t *testing.T) {
	src := whiteInvoice(100, 140)
	g := NewGenerator(1)

	seen := make(map[Method]bool)
	for i := 0; i < 200; i++ {
		_, method, err := g.ApplyRandom(src)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		seen[method] = true
	}

	for _, method := range Methods() {
		if !seen[method] {
			t.Errorf("method %s never chosen in 200 draws", method)
		}
	}
}

func TestApplyRejectsTinyImage(t *testing.T) {
	g := NewGenerator(1)
	if _, err := g.Apply(whiteInvoice(10, 10), BlackBox); err == nil {
		t.Error("expected error for tiny image")
	}
}

func TestWhiteoutOnWhiteStillCounts(t *testing.T) {
	// Whiteout on an off-white invoice still changes pixels because the
	// patch is pure white.
	src := whiteInvoice(100, 140)
	g := NewGenerator(5)

	out, err := g.Apply(src, Whiteout)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if countChangedPixels(src, out) == 0 {
		t.Error("whiteout produced no change")
	}
}
