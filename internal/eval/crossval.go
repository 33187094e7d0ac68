package eval

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// Trainable is a model that can be fit from scratch for each fold.
type Trainable interface {
	Fit(ds *dataset.Dataset) error
	Predict(features []float64) dataset.Label
}

// CVResult holds per-fold accuracies from cross-validation.
type CVResult struct {
	Folds []float64
}

// Mean is the average fold accuracy.
func (r CVResult) Mean() float64 {
	return stat.Mean(r.Folds, nil)
}

// StdDev is the sample standard deviation of fold accuracies.
func (r CVResult) StdDev() float64 {
	if len(r.Folds) < 2 {
		return 0
	}
	return stat.StdDev(r.Folds, nil)
}

// CrossValidate runs seeded k-fold cross-validation. Rows are shuffled once
// with the seed and dealt round-robin into k folds; for each fold a fresh
// model from the factory is trained on the remainder and scored on the fold.
func CrossValidate(factory func() Trainable, ds *dataset.Dataset, k int, seed int64) (CVResult, error) {
	if k < 2 {
		return CVResult{}, fmt.Errorf("cross-validation needs k >= 2, got %d", k)
	}
	if ds == nil || ds.Len() < k {
		return CVResult{}, fmt.Errorf("dataset too small for %d folds", k)
	}

	order := rand.New(rand.NewSource(seed)).Perm(ds.Len())
	folds := make([][]int, k)
	for i, idx := range order {
		folds[i%k] = append(folds[i%k], idx)
	}

	result := CVResult{Folds: make([]float64, 0, k)}
	for f := 0; f < k; f++ {
		train := &dataset.Dataset{FeatureNames: ds.FeatureNames}
		held := &dataset.Dataset{FeatureNames: ds.FeatureNames}
		for g, fold := range folds {
			for _, idx := range fold {
				if g == f {
					held.Samples = append(held.Samples, ds.Samples[idx])
				} else {
					train.Samples = append(train.Samples, ds.Samples[idx])
				}
			}
		}

		m := factory()
		if err := m.Fit(train); err != nil {
			return CVResult{}, fmt.Errorf("fold %d: %w", f, err)
		}
		cm, err := Evaluate(m, held)
		if err != nil {
			return CVResult{}, fmt.Errorf("fold %d: %w", f, err)
		}
		result.Folds = append(result.Folds, cm.Accuracy())
	}
	return result, nil
}
