package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// StratifiedSplit partitions the dataset into disjoint training and
// validation subsets, preserving class proportions. Rows are grouped by
// label, each group is shuffled with the seeded generator, and a fixed
// fraction of each group lands in the training partition. The same seed and
// input always produce the same partition.
func StratifiedSplit(d *Dataset, trainFraction float64, seed int64) (train, valid *Dataset, err error) {
	if d == nil || d.Len() == 0 {
		return nil, nil, fmt.Errorf("cannot split an empty dataset")
	}
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, nil, fmt.Errorf("train fraction must be in (0,1), got %v", trainFraction)
	}

	var groups [NumLabels][]int
	for i, s := range d.Samples {
		if !s.Label.Valid() {
			return nil, nil, fmt.Errorf("sample %d has invalid label %d", i, s.Label)
		}
		groups[s.Label] = append(groups[s.Label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	train = &Dataset{FeatureNames: d.FeatureNames}
	valid = &Dataset{FeatureNames: d.FeatureNames}

	// Labels are visited in alphabet order so the partition is reproducible.
	for _, label := range AllLabels() {
		group := groups[label]
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})

		cut := int(math.Round(trainFraction * float64(len(group))))
		for k, idx := range group {
			if k < cut {
				train.Samples = append(train.Samples, d.Samples[idx])
			} else {
				valid.Samples = append(valid.Samples, d.Samples[idx])
			}
		}
	}

	if train.Len() == 0 || valid.Len() == 0 {
		return nil, nil, fmt.Errorf("split produced an empty partition (rows=%d fraction=%v)", d.Len(), trainFraction)
	}
	return train, valid, nil
}
