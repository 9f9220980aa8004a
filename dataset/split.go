package dataset

import (
	"fmt"
	"math/rand"
	"sort"
)

// Split partitions record ids into disjoint train, validation, and test
// subsets.
type Split struct {
	Train []int
	Val   []int
	Test  []int
}

// StratifiedSplit partitions record ids so each subset preserves the class
// proportions of the full label vector. Ids of each class are shuffled with
// the given seed before allocation, so the same seed always produces the
// same partition. The remainder after the train and validation fractions
// goes to test.
func StratifiedSplit(labels []int, trainFrac, valFrac float64, seed int64) (Split, error) {
	if len(labels) == 0 {
		return Split{}, fmt.Errorf("cannot split an empty label vector")
	}
	if trainFrac <= 0 || valFrac <= 0 || trainFrac+valFrac >= 1 {
		return Split{}, fmt.Errorf("invalid split fractions: train=%v val=%v", trainFrac, valFrac)
	}

	byClass := make(map[int][]int)
	for id, label := range labels {
		byClass[label] = append(byClass[label], id)
	}

	// Map iteration order is random; fix the class order before shuffling.
	classes := make([]int, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))

	var split Split
	for _, class := range classes {
		ids := byClass[class]
		rng.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})

		nTrain := int(trainFrac * float64(len(ids)))
		nVal := int(valFrac * float64(len(ids)))

		split.Train = append(split.Train, ids[:nTrain]...)
		split.Val = append(split.Val, ids[nTrain:nTrain+nVal]...)
		split.Test = append(split.Test, ids[nTrain+nVal:]...)
	}

	sort.Ints(split.Train)
	sort.Ints(split.Val)
	sort.Ints(split.Test)

	return split, nil
}

// LabelsFor gathers the labels of a subset of record ids.
func LabelsFor(s Store, ids []int) ([]int, error) {
	labels := make([]int, len(ids))
	for i, id := range ids {
		label, err := s.Label(id)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}
