package training

import (
	"fmt"
	"sync"

	"github.com/tsawler/tampernet/tensor"
)

// Dataset provides indexed access to transformed samples. Get returns the
// sample tensor and its label tensor.
type Dataset interface {
	Len() int
	Get(idx int) (*tensor.Tensor, *tensor.Tensor, error)
}

// Sampler chooses which dataset positions an epoch visits, and in what
// order.
type Sampler interface {
	Sample(n int) []int
}

// Batch holds a stacked group of samples. Data is [batch, ...] and Labels
// is [batch, labelDims...].
type Batch struct {
	Data   *tensor.Tensor
	Labels *tensor.Tensor
}

// BatchResult carries a loaded batch or the error that prevented loading
// it.
type BatchResult struct {
	Batch *Batch
	Err   error
}

// DataLoader assembles dataset samples into batches. With multiple workers
// batches are loaded concurrently but always delivered in sampling order,
// so a fixed sampler seed gives a fully reproducible epoch.
type DataLoader struct {
	dataset   Dataset
	sampler   Sampler
	batchSize int
	workers   int
}

// NewDataLoader creates a loader. workers below 1 is treated as 1.
func NewDataLoader(dataset Dataset, sampler Sampler, batchSize, workers int) (*DataLoader, error) {
	if dataset == nil || dataset.Len() == 0 {
		return nil, fmt.Errorf("dataset must not be empty")
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler must not be nil")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", batchSize)
	}
	if workers < 1 {
		workers = 1
	}
	return &DataLoader{dataset: dataset, sampler: sampler, batchSize: batchSize, workers: workers}, nil
}

// NumBatches returns the number of batches per epoch, including a final
// partial batch.
func (dl *DataLoader) NumBatches() int {
	return (dl.dataset.Len() + dl.batchSize - 1) / dl.batchSize
}

// Batches starts one epoch and returns a channel of batches in sampling
// order. The channel is closed when the epoch ends. Callers must drain the
// channel, even after an error, to release the loader goroutines.
func (dl *DataLoader) Batches() <-chan BatchResult {
	positions := dl.sampler.Sample(dl.dataset.Len())

	var groups [][]int
	for start := 0; start < len(positions); start += dl.batchSize {
		end := start + dl.batchSize
		if end > len(positions) {
			end = len(positions)
		}
		groups = append(groups, positions[start:end])
	}

	// Each batch gets its own buffered slot so workers never block, and a
	// forwarder drains the slots in submission order.
	slots := make([]chan BatchResult, len(groups))
	for i := range slots {
		slots[i] = make(chan BatchResult, 1)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < dl.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				batch, err := dl.collate(groups[i])
				slots[i] <- BatchResult{Batch: batch, Err: err}
			}
		}()
	}

	go func() {
		for i := range groups {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}()

	out := make(chan BatchResult)
	go func() {
		defer close(out)
		for _, slot := range slots {
			out <- <-slot
		}
	}()

	return out
}

// collate loads and stacks the samples at the given positions.
func (dl *DataLoader) collate(positions []int) (*Batch, error) {
	var data []float32
	var labels []float32
	var sampleShape, labelShape []int

	for _, pos := range positions {
		sample, label, err := dl.dataset.Get(pos)
		if err != nil {
			return nil, fmt.Errorf("failed to load sample %d: %v", pos, err)
		}

		if sampleShape == nil {
			sampleShape = sample.Shape
			labelShape = label.Shape
		} else if !shapesMatch(sampleShape, sample.Shape) {
			return nil, fmt.Errorf("sample %d has shape %v, expected %v", pos, sample.Shape, sampleShape)
		}

		sd, err := sample.GetFloat32Data()
		if err != nil {
			return nil, fmt.Errorf("sample %d: %v", pos, err)
		}
		ld, err := label.GetFloat32Data()
		if err != nil {
			return nil, fmt.Errorf("label %d: %v", pos, err)
		}

		data = append(data, sd...)
		labels = append(labels, ld...)
	}

	dataTensor, err := tensor.NewTensor(append([]int{len(positions)}, sampleShape...), tensor.Float32, data)
	if err != nil {
		return nil, fmt.Errorf("failed to stack batch: %v", err)
	}
	labelTensor, err := tensor.NewTensor(append([]int{len(positions)}, labelShape...), tensor.Float32, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to stack labels: %v", err)
	}

	return &Batch{Data: dataTensor, Labels: labelTensor}, nil
}

func shapesMatch(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
