package dataset

import (
	"fmt"
	"math/rand"
	"sort"
)

// SampleWeights assigns each position the inverse frequency of its label,
// so drawing positions proportionally to these weights yields classes in
// roughly equal numbers regardless of imbalance.
func SampleWeights(labels []int) ([]float64, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("cannot weight an empty label vector")
	}

	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}

	weights := make([]float64, len(labels))
	for i, label := range labels {
		weights[i] = 1.0 / float64(counts[label])
	}
	return weights, nil
}

// WeightedSampler draws positions with replacement, each position's
// probability proportional to its weight. A fresh pass over a dataset may
// therefore repeat minority-class positions and skip majority ones.
type WeightedSampler struct {
	cumulative []float64
	total      float64
	rng        *rand.Rand
}

// NewWeightedSampler builds a sampler over positions [0, len(weights)).
func NewWeightedSampler(weights []float64, seed int64) (*WeightedSampler, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("cannot sample from empty weights")
	}

	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("weight at position %d must be positive, got %v", i, w)
		}
		total += w
		cumulative[i] = total
	}

	return &WeightedSampler{
		cumulative: cumulative,
		total:      total,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Sample draws n positions with replacement.
func (s *WeightedSampler) Sample(n int) []int {
	positions := make([]int, n)
	for i := range positions {
		r := s.rng.Float64() * s.total
		positions[i] = sort.SearchFloat64s(s.cumulative, r)
		if positions[i] >= len(s.cumulative) {
			positions[i] = len(s.cumulative) - 1
		}
	}
	return positions
}

// SequentialSampler yields positions in order, for deterministic validation
// and test passes.
type SequentialSampler struct {
	length int
}

// NewSequentialSampler builds a sampler over positions [0, length).
func NewSequentialSampler(length int) *SequentialSampler {
	return &SequentialSampler{length: length}
}

// Sample returns the first n positions in order. n is capped at the
// sampler's length.
func (s *SequentialSampler) Sample(n int) []int {
	if n > s.length {
		n = s.length
	}
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	return positions
}
