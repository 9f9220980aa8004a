package training

import (
	"fmt"

	"github.com/tsawler/tampernet/dataset"
	"github.com/tsawler/tampernet/tensor"
	"github.com/tsawler/tampernet/transform"
)

// StoreDataset adapts a subset of a dataset.Store into a Dataset. Each Get
// reads the record's pixels, applies the transform, and returns the label
// as a [1] tensor. Records outside the subset are never touched, so the
// same store can back the train, validation, and test loaders.
type StoreDataset struct {
	store dataset.Store
	ids   []int
	tf    transform.Transform
}

// NewStoreDataset creates a dataset view over the given record ids.
func NewStoreDataset(store dataset.Store, ids []int, tf transform.Transform) (*StoreDataset, error) {
	if store == nil {
		return nil, fmt.Errorf("store must not be nil")
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("id subset must not be empty")
	}
	if tf == nil {
		return nil, fmt.Errorf("transform must not be nil")
	}
	for _, id := range ids {
		if id < 0 || id >= store.Len() {
			return nil, fmt.Errorf("subset id %d out of range [0, %d)", id, store.Len())
		}
	}
	return &StoreDataset{store: store, ids: ids, tf: tf}, nil
}

// Len returns the subset size.
func (d *StoreDataset) Len() int {
	return len(d.ids)
}

// Get loads and transforms the sample at a subset position.
func (d *StoreDataset) Get(idx int) (*tensor.Tensor, *tensor.Tensor, error) {
	if idx < 0 || idx >= len(d.ids) {
		return nil, nil, fmt.Errorf("position %d out of range [0, %d)", idx, len(d.ids))
	}
	id := d.ids[idx]

	pixels, err := d.store.Image(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read record %d: %v", id, err)
	}
	img, err := dataset.ToImage(pixels, d.store.ImageSize())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode record %d: %v", id, err)
	}

	data, err := d.tf.Apply(img)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to transform record %d: %v", id, err)
	}

	label, err := d.store.Label(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read label %d: %v", id, err)
	}
	labelTensor, err := tensor.NewTensor([]int{1}, tensor.Float32, []float32{float32(label)})
	if err != nil {
		return nil, nil, err
	}

	return data, labelTensor, nil
}
