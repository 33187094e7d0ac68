package eval

import (
	"math"
	"testing"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

type firstFeatureModel struct{}

// Predict maps feature 0 straight to a label, so accuracy is exactly the
// fraction of rows whose first feature matches their label.
func (firstFeatureModel) Predict(features []float64) dataset.Label {
	return dataset.Label(int(features[0]))
}

func (firstFeatureModel) Fit(ds *dataset.Dataset) error { return nil }

func TestConfusionMatrixCounts(t *testing.T) {
	cm := &ConfusionMatrix{}
	cm.Add(dataset.LabelA, dataset.LabelA)
	cm.Add(dataset.LabelA, dataset.LabelA)
	cm.Add(dataset.LabelA, dataset.LabelB)
	cm.Add(dataset.LabelB, dataset.LabelB)

	if cm.Total != 4 {
		t.Errorf("expected total 4, got %d", cm.Total)
	}
	if cm.Correct() != 3 {
		t.Errorf("expected 3 correct, got %d", cm.Correct())
	}
	if got := cm.Accuracy(); got != 0.75 {
		t.Errorf("expected accuracy 0.75, got %v", got)
	}
	if got := cm.OutOfSampleError(); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("expected error 0.25, got %v", got)
	}

	// A: 2 of 3 actual rows correct; 2 of 2 predicted-A correct.
	if got := cm.Recall(dataset.LabelA); math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("recall(A) = %v", got)
	}
	if got := cm.Precision(dataset.LabelA); got != 1 {
		t.Errorf("precision(A) = %v", got)
	}
	// B: 1 of 1 actual correct; 1 of 2 predicted-B correct.
	if got := cm.Precision(dataset.LabelB); got != 0.5 {
		t.Errorf("precision(B) = %v", got)
	}
	if got := cm.Precision(dataset.LabelC); got != 0 {
		t.Errorf("precision of an unseen class should be 0, got %v", got)
	}
}

func TestEvaluate(t *testing.T) {
	ds := &dataset.Dataset{
		FeatureNames: []string{"f"},
		Samples: []dataset.Sample{
			{Features: []float64{0}, Label: dataset.LabelA},
			{Features: []float64{1}, Label: dataset.LabelB},
			{Features: []float64{1}, Label: dataset.LabelC}, // misclassified as B
			{Features: []float64{3}, Label: dataset.LabelD},
		},
	}

	cm, err := Evaluate(firstFeatureModel{}, ds)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if cm.Total != 4 || cm.Correct() != 3 {
		t.Errorf("expected 3/4 correct, got %d/%d", cm.Correct(), cm.Total)
	}
	if cm.Counts[dataset.LabelC][dataset.LabelB] != 1 {
		t.Error("misclassification not recorded in the right cell")
	}
}

func TestEvaluateEmptyDataset(t *testing.T) {
	if _, err := Evaluate(firstFeatureModel{}, &dataset.Dataset{}); err == nil {
		t.Error("expected error for empty dataset")
	}
}

func TestCrossValidateFoldsAndDeterminism(t *testing.T) {
	ds := &dataset.Dataset{FeatureNames: []string{"f"}}
	for i := 0; i < 50; i++ {
		label := dataset.Label(i % dataset.NumLabels)
		ds.Samples = append(ds.Samples, dataset.Sample{
			Features: []float64{float64(label)},
			Label:    label,
		})
	}

	factory := func() Trainable { return firstFeatureModel{} }

	r1, err := CrossValidate(factory, ds, 5, 99)
	if err != nil {
		t.Fatalf("CrossValidate failed: %v", err)
	}
	if len(r1.Folds) != 5 {
		t.Fatalf("expected 5 folds, got %d", len(r1.Folds))
	}
	// The model is perfect on this data, every fold must score 1.
	if r1.Mean() != 1 || r1.StdDev() != 0 {
		t.Errorf("expected mean 1 stddev 0, got %v and %v", r1.Mean(), r1.StdDev())
	}

	r2, err := CrossValidate(factory, ds, 5, 99)
	if err != nil {
		t.Fatalf("CrossValidate failed: %v", err)
	}
	for i := range r1.Folds {
		if r1.Folds[i] != r2.Folds[i] {
			t.Fatal("same seed produced different folds")
		}
	}
}

func TestCrossValidateRejectsBadInput(t *testing.T) {
	ds := &dataset.Dataset{
		FeatureNames: []string{"f"},
		Samples:      []dataset.Sample{{Features: []float64{0}, Label: dataset.LabelA}},
	}
	factory := func() Trainable { return firstFeatureModel{} }

	if _, err := CrossValidate(factory, ds, 1, 0); err == nil {
		t.Error("expected error for k < 2")
	}
	if _, err := CrossValidate(factory, ds, 5, 0); err == nil {
		t.Error("expected error for dataset smaller than k")
	}
}
