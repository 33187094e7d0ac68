package model

import (
	"math/rand"
	"testing"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// blobs builds five well-separated Gaussian clusters, one per class.
func blobs(perClass int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := &dataset.Dataset{FeatureNames: []string{"f1", "f2", "f3"}}
	for _, label := range dataset.AllLabels() {
		center := float64(label) * 10
		for i := 0; i < perClass; i++ {
			ds.Samples = append(ds.Samples, dataset.Sample{
				Features: []float64{
					center + rng.NormFloat64(),
					-center + rng.NormFloat64(),
					rng.NormFloat64(),
				},
				Label: label,
			})
		}
	}
	return ds
}

func accuracyOn(t *testing.T, c Classifier, ds *dataset.Dataset) float64 {
	t.Helper()
	correct := 0
	for _, s := range ds.Samples {
		if c.Predict(s.Features) == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(ds.Len())
}

func classifiers() []Classifier {
	return []Classifier{
		NewForest(DefaultForestConfig()),
		NewPolySVM(DefaultSVMConfig()),
		NewBoosting(DefaultBoostConfig()),
		NewQDA(DefaultQDAConfig()),
	}
}

func TestClassifiersSeparateBlobs(t *testing.T) {
	train := blobs(40, 1)
	held := blobs(10, 2)

	for _, c := range classifiers() {
		c := c
		t.Run(c.Name(), func(t *testing.T) {
			if err := c.Fit(train); err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			if acc := accuracyOn(t, c, held); acc < 0.9 {
				t.Errorf("accuracy %.3f below 0.9 on separable clusters", acc)
			}
		})
	}
}

func TestClassifiersRejectEmptyData(t *testing.T) {
	for _, c := range classifiers() {
		c := c
		t.Run(c.Name(), func(t *testing.T) {
			if err := c.Fit(&dataset.Dataset{}); err == nil {
				t.Error("expected error for empty training data")
			}
		})
	}
}

func TestForestDeterministicForSeed(t *testing.T) {
	train := blobs(40, 3)
	probe := blobs(5, 4)

	a := NewForest(DefaultForestConfig())
	b := NewForest(DefaultForestConfig())
	if err := a.Fit(train); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := b.Fit(train); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for _, s := range probe.Samples {
		if a.Predict(s.Features) != b.Predict(s.Features) {
			t.Fatal("same seed and data produced different forests")
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	train := blobs(40, 5)
	probe := blobs(5, 6)

	for _, c := range classifiers() {
		c := c
		t.Run(c.Name(), func(t *testing.T) {
			if err := c.Fit(train); err != nil {
				t.Fatalf("Fit failed: %v", err)
			}

			data, err := Marshal(c)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			restored, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if restored.Name() != c.Name() {
				t.Fatalf("restored model is %s, expected %s", restored.Name(), c.Name())
			}

			for _, s := range probe.Samples {
				if got, want := restored.Predict(s.Features), c.Predict(s.Features); got != want {
					t.Fatalf("restored model disagrees: %s vs %s", got, want)
				}
			}
		})
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte("not a gob stream")); err == nil {
		t.Error("expected error for corrupt artifact")
	}
}

func TestQDARequiresEnoughRowsPerClass(t *testing.T) {
	// Two rows per class cannot estimate a 3x3 covariance.
	tiny := blobs(2, 7)
	q := NewQDA(DefaultQDAConfig())
	if err := q.Fit(tiny); err == nil {
		t.Error("expected error when class rows do not exceed feature count")
	}
}
