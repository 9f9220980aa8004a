package transform

import (
	"image"
	"image/color"
	"testing"
)

func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func TestToTensor(t *testing.T) {
	t.Run("shape and range", func(t *testing.T) {
		out, err := ToTensor(gradientImage(8, 6))
		if err != nil {
			t.Fatalf("conversion failed: %v", err)
		}

		want := []int{3, 6, 8}
		for i, dim := range want {
			if out.Shape[i] != dim {
				t.Fatalf("shape = %v, want %v", out.Shape, want)
			}
		}

		data, err := out.GetFloat32Data()
		if err != nil {
			t.Fatalf("data access failed: %v", err)
		}
		for i, v := range data {
			if v < 0 || v > 1 {
				t.Fatalf("value %d = %v outside [0, 1]", i, v)
			}
		}
	})

	t.Run("channel layout", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				img.Set(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
			}
		}

		out, err := ToTensor(img)
		if err != nil {
			t.Fatalf("conversion failed: %v", err)
		}
		data, _ := out.GetFloat32Data()

		// Red plane first, then green and blue.
		for i := 0; i < 4; i++ {
			if data[i] != 1.0 {
				t.Errorf("red plane value %d = %v, want 1.0", i, data[i])
			}
		}
		for i := 4; i < 12; i++ {
			if data[i] != 0.0 {
				t.Errorf("non-red plane value %d = %v, want 0.0", i, data[i])
			}
		}
	})

	t.Run("rejects empty image", func(t *testing.T) {
		if _, err := ToTensor(image.NewNRGBA(image.Rect(0, 0, 0, 0))); err == nil {
			t.Error("expected error for empty image")
		}
	})
}

func TestEval(t *testing.T) {
	img := gradientImage(100, 80)
	eval := NewEval(32)

	a, err := eval.Apply(img)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if a.Shape[0] != 3 || a.Shape[1] != 32 || a.Shape[2] != 32 {
		t.Fatalf("shape = %v, want [3 32 32]", a.Shape)
	}

	// Scoring must be reproducible: same input, same tensor.
	b, err := eval.Apply(img)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !a.Equal(b) {
		t.Error("repeated application produced different tensors")
	}
}

func TestTrain(t *testing.T) {
	img := gradientImage(100, 80)

	t.Run("output shape", func(t *testing.T) {
		train := NewTrain(32, 42)
		out, err := train.Apply(img)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		if out.Shape[0] != 3 || out.Shape[1] != 32 || out.Shape[2] != 32 {
			t.Fatalf("shape = %v, want [3 32 32]", out.Shape)
		}
	})

	t.Run("repeated application varies", func(t *testing.T) {
		train := NewTrain(32, 42)

		first, err := train.Apply(img)
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}

		varied := false
		for i := 0; i < 10; i++ {
			next, err := train.Apply(img)
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			if !first.Equal(next) {
				varied = true
				break
			}
		}
		if !varied {
			t.Error("augmentation never varied across 10 applications")
		}
	})

	t.Run("same seed gives same sequence", func(t *testing.T) {
		a := NewTrain(32, 7)
		b := NewTrain(32, 7)

		for i := 0; i < 3; i++ {
			ta, err := a.Apply(img)
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			tb, err := b.Apply(img)
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			if !ta.Equal(tb) {
				t.Fatalf("application %d differs between equal seeds", i)
			}
		}
	})
}
