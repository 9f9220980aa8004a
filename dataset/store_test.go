package dataset

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func fillPixels(size int, value byte) []byte {
	pixels := make([]byte, size*size*channels)
	for i := range pixels {
		pixels[i] = value
	}
	return pixels
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir, 4)
	if err != nil {
		t.Fatalf("writer failed: %v", err)
	}

	records := []struct {
		value byte
		label int
	}{
		{10, 0},
		{20, 1},
		{30, 0},
	}
	for i, rec := range records {
		id, err := w.Append(fillPixels(4, rec.value), rec.label)
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
		if id != i {
			t.Errorf("record %d got id %d", i, id)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	store, err := OpenMmapStore(dir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
	if store.ImageSize() != 4 {
		t.Errorf("ImageSize() = %d, want 4", store.ImageSize())
	}

	for i, rec := range records {
		pixels, err := store.Image(i)
		if err != nil {
			t.Fatalf("image %d failed: %v", i, err)
		}
		if len(pixels) != 4*4*channels {
			t.Fatalf("image %d is %d bytes", i, len(pixels))
		}
		if pixels[0] != rec.value || pixels[len(pixels)-1] != rec.value {
			t.Errorf("image %d pixels = %d..%d, want %d", i, pixels[0], pixels[len(pixels)-1], rec.value)
		}

		label, err := store.Label(i)
		if err != nil {
			t.Fatalf("label %d failed: %v", i, err)
		}
		if label != rec.label {
			t.Errorf("label %d = %d, want %d", i, label, rec.label)
		}
	}
}

func TestMmapStoreErrors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		if _, err := OpenMmapStore(t.TempDir()); err == nil {
			t.Error("expected error for empty directory")
		}
	})

	t.Run("truncated image array", func(t *testing.T) {
		dir := t.TempDir()

		w, err := NewWriter(dir, 4)
		if err != nil {
			t.Fatalf("writer failed: %v", err)
		}
		if _, err := w.Append(fillPixels(4, 1), 0); err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := os.Truncate(filepath.Join(dir, imagesFile), 10); err != nil {
			t.Fatalf("truncate failed: %v", err)
		}

		if _, err := OpenMmapStore(dir); err == nil {
			t.Error("expected error for truncated image array")
		}
	})

	t.Run("out of range ids", func(t *testing.T) {
		dir := t.TempDir()

		w, _ := NewWriter(dir, 4)
		w.Append(fillPixels(4, 1), 0)
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		store, err := OpenMmapStore(dir)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer store.Close()

		if _, err := store.Image(-1); err == nil {
			t.Error("expected error for negative id")
		}
		if _, err := store.Image(1); err == nil {
			t.Error("expected error for id past end")
		}
		if _, err := store.Label(1); err == nil {
			t.Error("expected error for label id past end")
		}
	})
}

func TestMemStore(t *testing.T) {
	store := NewMemStore(2)

	if _, err := store.Add(fillPixels(2, 5), 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := store.Add(make([]byte, 3), 0); err == nil {
		t.Error("expected error for wrong pixel length")
	}
	if _, err := store.Add(fillPixels(2, 5), 7); err == nil {
		t.Error("expected error for invalid label")
	}

	label, err := store.Label(0)
	if err != nil {
		t.Fatalf("label failed: %v", err)
	}
	if label != 1 {
		t.Errorf("label = %d, want 1", label)
	}

	if _, err := store.Image(5); err == nil {
		t.Error("expected error for id out of range")
	}
}

func TestRasterize(t *testing.T) {
	// A solid gray source should rasterize to solid gray at the target size.
	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.NRGBA{R: 100, G: 150, B: 200, A: 255})
		}
	}

	pixels := Rasterize(src, 4)
	if len(pixels) != 4*4*channels {
		t.Fatalf("rasterized to %d bytes, want %d", len(pixels), 4*4*channels)
	}
	for i := 0; i < len(pixels); i += channels {
		if int(pixels[i])-100 > 2 || 100-int(pixels[i]) > 2 {
			t.Fatalf("pixel %d red = %d, want near 100", i/channels, pixels[i])
		}
	}

	img, err := ToImage(pixels, 4)
	if err != nil {
		t.Fatalf("to image failed: %v", err)
	}
	if got := img.Bounds().Dx(); got != 4 {
		t.Errorf("image width = %d, want 4", got)
	}

	if _, err := ToImage(pixels, 5); err == nil {
		t.Error("expected error for size mismatch")
	}
}
