package importance

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

type thresholdModel struct{}

// Predict depends only on feature 0; feature 1 is ignored entirely.
func (thresholdModel) Predict(features []float64) dataset.Label {
	if features[0] > 0 {
		return dataset.LabelB
	}
	return dataset.LabelA
}

func informativeDataset(n int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := &dataset.Dataset{FeatureNames: []string{"signal", "noise"}}
	for i := 0; i < n; i++ {
		label := dataset.LabelA
		v := -1.0
		if i%2 == 0 {
			label = dataset.LabelB
			v = 1.0
		}
		ds.Samples = append(ds.Samples, dataset.Sample{
			Features: []float64{v, rng.NormFloat64()},
			Label:    label,
		})
	}
	return ds
}

func TestPermutationRanksInformativeFeature(t *testing.T) {
	ds := informativeDataset(200, 11)

	report, err := Permutation("threshold", thresholdModel{}, ds, 42)
	if err != nil {
		t.Fatalf("Permutation failed: %v", err)
	}
	if report.Baseline != 1 {
		t.Fatalf("expected baseline 1, got %v", report.Baseline)
	}

	top := report.Top(2)
	if top[0].Name != "signal" {
		t.Errorf("expected signal ranked first, got %s", top[0].Name)
	}
	if top[0].Score <= 0 {
		t.Errorf("informative feature should have positive importance, got %v", top[0].Score)
	}
	if top[1].Score != 0 {
		t.Errorf("ignored feature should have zero importance, got %v", top[1].Score)
	}
}

func TestPermutationDeterministic(t *testing.T) {
	ds := informativeDataset(100, 12)

	r1, err := Permutation("threshold", thresholdModel{}, ds, 7)
	if err != nil {
		t.Fatalf("Permutation failed: %v", err)
	}
	r2, err := Permutation("threshold", thresholdModel{}, ds, 7)
	if err != nil {
		t.Fatalf("Permutation failed: %v", err)
	}
	for i := range r1.Scores {
		if r1.Scores[i] != r2.Scores[i] {
			t.Fatal("same seed produced different scores")
		}
	}
}

func TestReportSaveLoad(t *testing.T) {
	report := &Report{
		Model:    "random_forest",
		Baseline: 0.95,
		Scores: []FeatureScore{
			{Name: "roll_belt", Score: 0.12},
			{Name: "yaw_belt", Score: 0.03},
		},
	}

	path := filepath.Join(t.TempDir(), "reports", "importance.json")
	if err := report.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Model != report.Model || loaded.Baseline != report.Baseline {
		t.Error("loaded report header does not match")
	}
	if len(loaded.Scores) != 2 || loaded.Scores[0] != report.Scores[0] {
		t.Errorf("loaded scores do not match: %+v", loaded.Scores)
	}
}

func TestTopTruncatesAndBreaksTiesByName(t *testing.T) {
	report := &Report{
		Scores: []FeatureScore{
			{Name: "c", Score: 0.1},
			{Name: "a", Score: 0.1},
			{Name: "b", Score: 0.5},
		},
	}

	top := report.Top(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Name != "b" || top[1].Name != "a" {
		t.Errorf("unexpected ranking: %+v", top)
	}
	if got := report.Top(10); len(got) != 3 {
		t.Errorf("Top should clamp to available features, got %d", len(got))
	}
}
