// Package dataset provides random access to packed invoice image datasets,
// stratified index splitting, and imbalance-correcting sampling.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"
)

const (
	imagesFile   = "images.bin"
	labelsFile   = "labels.bin"
	manifestFile = "manifest.json"

	// Channels per pixel in the packed image array.
	channels = 3
)

// Store is a random-access view over a packed image dataset. Records are
// addressed by a stable integer id shared between the pixel and label
// arrays. Implementations are read-only.
type Store interface {
	// Len returns the number of records.
	Len() int
	// ImageSize returns the square edge length of stored images in pixels.
	ImageSize() int
	// Image returns the raw H*W*3 RGB bytes of a record.
	Image(id int) ([]byte, error)
	// Label returns the record's class: 0 for real, 1 for tampered.
	Label(id int) (int, error)
}

// Manifest describes the record layout of a packed dataset directory.
type Manifest struct {
	Count int `json:"count"`
	Size  int `json:"size"`
}

// MmapStore reads records lazily from memory-mapped array files. The pixel
// array is count*size*size*3 bytes, the label array count bytes, both
// row-aligned by record id. The mapping is read-only and safe to share
// across loader workers.
type MmapStore struct {
	images *mmap.ReaderAt
	labels *mmap.ReaderAt
	count  int
	size   int
}

// OpenMmapStore opens a packed dataset directory. It fails if the manifest
// is missing or the array files do not match the declared record layout.
func OpenMmapStore(dir string) (*MmapStore, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset manifest: %v", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse dataset manifest: %v", err)
	}
	if m.Count <= 0 || m.Size <= 0 {
		return nil, fmt.Errorf("invalid manifest: count=%d size=%d", m.Count, m.Size)
	}

	images, err := mmap.Open(filepath.Join(dir, imagesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to map image array: %v", err)
	}

	labels, err := mmap.Open(filepath.Join(dir, labelsFile))
	if err != nil {
		images.Close()
		return nil, fmt.Errorf("failed to map label array: %v", err)
	}

	store := &MmapStore{images: images, labels: labels, count: m.Count, size: m.Size}

	if images.Len() != m.Count*store.recordSize() {
		store.Close()
		return nil, fmt.Errorf("corrupt image array: expected %d bytes for %d records, found %d",
			m.Count*store.recordSize(), m.Count, images.Len())
	}
	if labels.Len() != m.Count {
		store.Close()
		return nil, fmt.Errorf("corrupt label array: expected %d bytes, found %d", m.Count, labels.Len())
	}

	return store, nil
}

func (s *MmapStore) recordSize() int {
	return s.size * s.size * channels
}

// Len returns the number of records.
func (s *MmapStore) Len() int {
	return s.count
}

// ImageSize returns the square edge length of stored images in pixels.
func (s *MmapStore) ImageSize() int {
	return s.size
}

// Image returns the raw RGB bytes of a record. The bytes are copied out of
// the mapping; the mapping itself is never mutated.
func (s *MmapStore) Image(id int) ([]byte, error) {
	if id < 0 || id >= s.count {
		return nil, fmt.Errorf("record id %d out of range [0, %d)", id, s.count)
	}

	rec := s.recordSize()
	buf := make([]byte, rec)
	if _, err := s.images.ReadAt(buf, int64(id)*int64(rec)); err != nil {
		return nil, fmt.Errorf("failed to read record %d: %v", id, err)
	}
	return buf, nil
}

// Label returns the record's class.
func (s *MmapStore) Label(id int) (int, error) {
	if id < 0 || id >= s.count {
		return 0, fmt.Errorf("record id %d out of range [0, %d)", id, s.count)
	}

	label := int(s.labels.At(id))
	if label != 0 && label != 1 {
		return 0, fmt.Errorf("corrupt label %d for record %d", label, id)
	}
	return label, nil
}

// Close unmaps the underlying files.
func (s *MmapStore) Close() error {
	err1 := s.images.Close()
	err2 := s.labels.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Labels reads the full label vector of a store.
func Labels(s Store) ([]int, error) {
	labels := make([]int, s.Len())
	for id := range labels {
		label, err := s.Label(id)
		if err != nil {
			return nil, err
		}
		labels[id] = label
	}
	return labels, nil
}

// MemStore is an in-memory Store used by tests and small experiments.
type MemStore struct {
	size   int
	images [][]byte
	labels []int
}

// NewMemStore creates an empty in-memory store for images of the given
// square size.
func NewMemStore(size int) *MemStore {
	return &MemStore{size: size}
}

// Add appends a record and returns its id.
func (s *MemStore) Add(pixels []byte, label int) (int, error) {
	if len(pixels) != s.size*s.size*channels {
		return 0, fmt.Errorf("pixel data is %d bytes, expected %d", len(pixels), s.size*s.size*channels)
	}
	if label != 0 && label != 1 {
		return 0, fmt.Errorf("label must be 0 or 1, got %d", label)
	}

	s.images = append(s.images, pixels)
	s.labels = append(s.labels, label)
	return len(s.images) - 1, nil
}

// Len returns the number of records.
func (s *MemStore) Len() int {
	return len(s.images)
}

// ImageSize returns the square edge length of stored images in pixels.
func (s *MemStore) ImageSize() int {
	return s.size
}

// Image returns the raw RGB bytes of a record.
func (s *MemStore) Image(id int) ([]byte, error) {
	if id < 0 || id >= len(s.images) {
		return nil, fmt.Errorf("record id %d out of range [0, %d)", id, len(s.images))
	}
	return s.images[id], nil
}

// Label returns the record's class.
func (s *MemStore) Label(id int) (int, error) {
	if id < 0 || id >= len(s.labels) {
		return 0, fmt.Errorf("record id %d out of range [0, %d)", id, len(s.labels))
	}
	return s.labels[id], nil
}
