package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp CSV: %v", err)
	}
	return path
}

const trainingCSV = `X,user_name,roll_belt,pitch_belt,kurtosis_roll_belt,classe
1,carlos,1.5,8.0,NA,A
2,carlos,1.6,8.1,NA,A
3,eurico,2.5,7.9,#DIV/0!,B
4,eurico,2.6,,0.1,B
5,pedro,3.5,8.2,NA,C
6,pedro,bogus,8.3,NA,C
`

func TestLoadTrainingCleansColumnsAndRows(t *testing.T) {
	path := writeCSV(t, "train.csv", trainingCSV)

	ds, report, err := LoadTraining(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadTraining failed: %v", err)
	}

	// X and user_name are identifiers; kurtosis_roll_belt is >50% missing.
	want := []string{"roll_belt", "pitch_belt"}
	if len(ds.FeatureNames) != len(want) {
		t.Fatalf("expected features %v, got %v", want, ds.FeatureNames)
	}
	for i, name := range want {
		if ds.FeatureNames[i] != name {
			t.Errorf("feature %d: expected %s, got %s", i, name, ds.FeatureNames[i])
		}
	}

	// Row 4 has a missing pitch_belt, row 6 a non-numeric roll_belt.
	if ds.Len() != 4 {
		t.Errorf("expected 4 rows, got %d", ds.Len())
	}
	if report.RowsSkipped != 2 {
		t.Errorf("expected 2 skipped rows, got %d", report.RowsSkipped)
	}
	if len(report.DroppedIdentifier) != 2 {
		t.Errorf("expected 2 identifier columns dropped, got %v", report.DroppedIdentifier)
	}
	if len(report.DroppedMostlyMissing) != 1 || report.DroppedMostlyMissing[0] != "kurtosis_roll_belt" {
		t.Errorf("expected kurtosis_roll_belt dropped, got %v", report.DroppedMostlyMissing)
	}

	counts := ds.ClassCounts()
	if counts[LabelA] != 2 || counts[LabelB] != 1 || counts[LabelC] != 1 {
		t.Errorf("unexpected class counts: %v", counts)
	}
}

func TestLoadTrainingMissingLabelColumn(t *testing.T) {
	path := writeCSV(t, "nolabel.csv", "a,b\n1,2\n")
	if _, _, err := LoadTraining(path, DefaultLoadOptions()); err == nil {
		t.Error("expected error for missing label column")
	}
}

func TestLoadTrainingUnknownLabelSkipsRow(t *testing.T) {
	path := writeCSV(t, "badlabel.csv", "roll_belt,classe\n1.0,A\n2.0,Z\n")
	ds, report, err := LoadTraining(path, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadTraining failed: %v", err)
	}
	if ds.Len() != 1 || report.RowsSkipped != 1 {
		t.Errorf("expected 1 kept and 1 skipped, got %d kept %d skipped", ds.Len(), report.RowsSkipped)
	}
}

func TestLoadScoringAlignsToTrainingSchema(t *testing.T) {
	// Scoring column order differs from training; selection must follow
	// the given schema order, not file order.
	path := writeCSV(t, "score.csv", "pitch_belt,problem_id,roll_belt\n8.0,2,1.5\n8.1,1,1.6\n")

	set, err := LoadScoring(path, []string{"roll_belt", "pitch_belt"}, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("LoadScoring failed: %v", err)
	}
	if len(set.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(set.Rows))
	}
	if set.Rows[0][0] != 1.5 || set.Rows[0][1] != 8.0 {
		t.Errorf("row 0 misaligned: %v", set.Rows[0])
	}
	if set.IDs[0] != 2 || set.IDs[1] != 1 {
		t.Errorf("problem IDs not taken from file: %v", set.IDs)
	}
}

func TestLoadScoringMissingColumn(t *testing.T) {
	path := writeCSV(t, "score.csv", "roll_belt,problem_id\n1.5,1\n")
	if _, err := LoadScoring(path, []string{"roll_belt", "yaw_belt"}, DefaultLoadOptions()); err == nil {
		t.Error("expected error for absent feature column")
	}
}

func TestFingerprintChangesWithExtra(t *testing.T) {
	ds := &Dataset{
		FeatureNames: []string{"a", "b"},
		Samples: []Sample{
			{Features: []float64{1, 2}, Label: LabelA},
			{Features: []float64{3, 4}, Label: LabelB},
		},
	}

	base := ds.Fingerprint()
	if base != ds.Fingerprint() {
		t.Error("fingerprint is not stable")
	}
	if base == ds.Fingerprint("seed=2") {
		t.Error("extra strings should change the fingerprint")
	}
}

func TestParseLabelRoundTrip(t *testing.T) {
	for _, l := range AllLabels() {
		got, err := ParseLabel(l.String())
		if err != nil || got != l {
			t.Errorf("round trip failed for %s: got %v err %v", l, got, err)
		}
	}
	if _, err := ParseLabel("F"); err == nil {
		t.Error("expected error for unknown label")
	}
}
