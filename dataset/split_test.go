package dataset

import (
	"testing"
)

func makeImbalancedLabels(real, tampered int) []int {
	labels := make([]int, 0, real+tampered)
	for i := 0; i < real; i++ {
		labels = append(labels, 0)
	}
	for i := 0; i < tampered; i++ {
		labels = append(labels, 1)
	}
	return labels
}

func countByClass(labels []int, ids []int) map[int]int {
	counts := make(map[int]int)
	for _, id := range ids {
		counts[labels[id]]++
	}
	return counts
}

func TestStratifiedSplit(t *testing.T) {
	labels := makeImbalancedLabels(1000, 60)

	t.Run("partitions are disjoint and exhaustive", func(t *testing.T) {
		split, err := StratifiedSplit(labels, 0.7, 0.15, 42)
		if err != nil {
			t.Fatalf("split failed: %v", err)
		}

		seen := make(map[int]int)
		for _, id := range split.Train {
			seen[id]++
		}
		for _, id := range split.Val {
			seen[id]++
		}
		for _, id := range split.Test {
			seen[id]++
		}

		if len(seen) != len(labels) {
			t.Errorf("expected %d distinct ids, got %d", len(labels), len(seen))
		}
		for id, n := range seen {
			if n != 1 {
				t.Errorf("id %d appears %d times", id, n)
			}
		}
	})

	t.Run("class proportions preserved per subset", func(t *testing.T) {
		split, err := StratifiedSplit(labels, 0.7, 0.15, 42)
		if err != nil {
			t.Fatalf("split failed: %v", err)
		}

		train := countByClass(labels, split.Train)
		if train[0] != 700 || train[1] != 42 {
			t.Errorf("train counts = %v, want 700 real and 42 tampered", train)
		}

		val := countByClass(labels, split.Val)
		if val[0] != 150 || val[1] != 9 {
			t.Errorf("val counts = %v, want 150 real and 9 tampered", val)
		}

		test := countByClass(labels, split.Test)
		if test[0] != 150 || test[1] != 9 {
			t.Errorf("test counts = %v, want 150 real and 9 tampered", test)
		}
	})

	t.Run("same seed gives same partition", func(t *testing.T) {
		a, err := StratifiedSplit(labels, 0.7, 0.15, 7)
		if err != nil {
			t.Fatalf("split failed: %v", err)
		}
		b, err := StratifiedSplit(labels, 0.7, 0.15, 7)
		if err != nil {
			t.Fatalf("split failed: %v", err)
		}

		for i := range a.Train {
			if a.Train[i] != b.Train[i] {
				t.Fatalf("train id %d differs: %d vs %d", i, a.Train[i], b.Train[i])
			}
		}
		for i := range a.Val {
			if a.Val[i] != b.Val[i] {
				t.Fatalf("val id %d differs: %d vs %d", i, a.Val[i], b.Val[i])
			}
		}
	})

	t.Run("different seeds give different partitions", func(t *testing.T) {
		a, _ := StratifiedSplit(labels, 0.7, 0.15, 1)
		b, _ := StratifiedSplit(labels, 0.7, 0.15, 2)

		same := true
		for i := range a.Train {
			if a.Train[i] != b.Train[i] {
				same = false
				break
			}
		}
		if same {
			t.Error("expected different train memberships for different seeds")
		}
	})

	t.Run("rejects bad fractions", func(t *testing.T) {
		if _, err := StratifiedSplit(labels, 0.9, 0.2, 1); err == nil {
			t.Error("expected error for fractions summing past 1")
		}
		if _, err := StratifiedSplit(labels, 0, 0.15, 1); err == nil {
			t.Error("expected error for zero train fraction")
		}
	})

	t.Run("rejects empty labels", func(t *testing.T) {
		if _, err := StratifiedSplit(nil, 0.7, 0.15, 1); err == nil {
			t.Error("expected error for empty labels")
		}
	})
}
