package dataset

import "testing"

func syntheticDataset(perClass int) *Dataset {
	ds := &Dataset{FeatureNames: []string{"f1", "f2"}}
	for _, label := range AllLabels() {
		for i := 0; i < perClass; i++ {
			ds.Samples = append(ds.Samples, Sample{
				Features: []float64{float64(label), float64(i)},
				Label:    label,
			})
		}
	}
	return ds
}

func TestStratifiedSplitPreservesProportions(t *testing.T) {
	ds := syntheticDataset(100)

	train, valid, err := StratifiedSplit(ds, 0.7, 1313)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	if train.Len()+valid.Len() != ds.Len() {
		t.Fatalf("partitions do not cover dataset: %d + %d != %d", train.Len(), valid.Len(), ds.Len())
	}

	trainCounts := train.ClassCounts()
	validCounts := valid.ClassCounts()
	for _, label := range AllLabels() {
		if trainCounts[label] != 70 {
			t.Errorf("class %s: expected 70 training rows, got %d", label, trainCounts[label])
		}
		if validCounts[label] != 30 {
			t.Errorf("class %s: expected 30 validation rows, got %d", label, validCounts[label])
		}
	}
}

func TestStratifiedSplitDisjoint(t *testing.T) {
	ds := syntheticDataset(20)

	train, valid, err := StratifiedSplit(ds, 0.6, 7)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}

	seen := make(map[[2]float64]bool)
	for _, s := range train.Samples {
		seen[[2]float64{s.Features[0], s.Features[1]}] = true
	}
	for _, s := range valid.Samples {
		if seen[[2]float64{s.Features[0], s.Features[1]}] {
			t.Fatalf("row %v appears in both partitions", s.Features)
		}
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	ds := syntheticDataset(30)

	a1, b1, err := StratifiedSplit(ds, 0.7, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	a2, b2, err := StratifiedSplit(ds, 0.7, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}

	if a1.Len() != a2.Len() || b1.Len() != b2.Len() {
		t.Fatal("same seed produced different partition sizes")
	}
	for i := range a1.Samples {
		if a1.Samples[i].Features[1] != a2.Samples[i].Features[1] {
			t.Fatal("same seed produced different row order")
		}
	}

	// A different seed should give a different shuffle.
	a3, _, err := StratifiedSplit(ds, 0.7, 43)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	same := true
	for i := range a1.Samples {
		if a1.Samples[i].Features[1] != a3.Samples[i].Features[1] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical row order")
	}
}

func TestStratifiedSplitRejectsBadInput(t *testing.T) {
	ds := syntheticDataset(10)

	if _, _, err := StratifiedSplit(nil, 0.7, 1); err == nil {
		t.Error("expected error for nil dataset")
	}
	if _, _, err := StratifiedSplit(&Dataset{}, 0.7, 1); err == nil {
		t.Error("expected error for empty dataset")
	}
	if _, _, err := StratifiedSplit(ds, 0, 1); err == nil {
		t.Error("expected error for fraction 0")
	}
	if _, _, err := StratifiedSplit(ds, 1, 1); err == nil {
		t.Error("expected error for fraction 1")
	}
}
