package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// LoadOptions controls CSV cleaning.
type LoadOptions struct {
	// Sentinels are cell values treated as missing.
	Sentinels []string
	// MissingCutoff drops any column whose missing fraction exceeds it.
	MissingCutoff float64
	// LabelColumn names the ground-truth class column in the training file.
	LabelColumn string
	// IDColumn names the row-identifier column in the scoring file.
	IDColumn string
	// IdentifierColumns are non-sensor bookkeeping columns dropped outright.
	IdentifierColumns []string
}

// DefaultLoadOptions matches the weight-lifting-exercise CSV layout.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sentinels:     []string{"", "NA", "#DIV/0!"},
		MissingCutoff: 0.5,
		LabelColumn:   "classe",
		IDColumn:      "problem_id",
		IdentifierColumns: []string{
			"X", "user_name",
			"raw_timestamp_part_1", "raw_timestamp_part_2", "cvtd_timestamp",
			"new_window", "num_window",
		},
	}
}

// LoadReport records what the cleaner did to a file.
type LoadReport struct {
	RowsRead             int
	RowsSkipped          int
	DroppedIdentifier    []string
	DroppedMostlyMissing []string
}

// ScoringSet holds unlabeled rows from the scoring file, aligned to a
// training feature schema, with the file's row identifiers.
type ScoringSet struct {
	FeatureNames []string
	IDs          []int
	Rows         [][]float64
}

// LoadTraining reads the labeled training file, maps sentinel strings to
// missing, drops identifier columns and mostly-missing columns, and returns
// the cleaned dataset. Rows with a missing value in a kept column are
// skipped and counted in the report.
func LoadTraining(path string, opts LoadOptions) (*Dataset, *LoadReport, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}

	labelIdx := -1
	for i, col := range header {
		if col == opts.LabelColumn {
			labelIdx = i
		}
	}
	if labelIdx < 0 {
		return nil, nil, fmt.Errorf("label column %q not found in %s", opts.LabelColumn, path)
	}

	missing := newSentinelSet(opts.Sentinels)
	identifiers := make(map[string]bool, len(opts.IdentifierColumns))
	for _, name := range opts.IdentifierColumns {
		identifiers[name] = true
	}

	report := &LoadReport{RowsRead: len(records)}

	// First pass: per-column missing counts.
	missCount := make([]int, len(header))
	for _, rec := range records {
		for j, cell := range rec {
			if missing[cell] {
				missCount[j]++
			}
		}
	}

	kept := make([]int, 0, len(header))
	names := make([]string, 0, len(header))
	for j, name := range header {
		switch {
		case j == labelIdx:
		case identifiers[name] || name == "":
			report.DroppedIdentifier = append(report.DroppedIdentifier, name)
		case len(records) > 0 && float64(missCount[j])/float64(len(records)) > opts.MissingCutoff:
			report.DroppedMostlyMissing = append(report.DroppedMostlyMissing, name)
		default:
			kept = append(kept, j)
			names = append(names, name)
		}
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("no feature columns survive cleaning in %s", path)
	}

	ds := &Dataset{FeatureNames: names, Samples: make([]Sample, 0, len(records))}
	for _, rec := range records {
		label, err := ParseLabel(rec[labelIdx])
		if err != nil {
			report.RowsSkipped++
			continue
		}
		features, ok := parseRow(rec, kept, missing)
		if !ok {
			report.RowsSkipped++
			continue
		}
		ds.Samples = append(ds.Samples, Sample{Features: features, Label: label})
	}

	log.Info().
		Str("file", path).
		Int("rows", ds.Len()).
		Int("skipped", report.RowsSkipped).
		Int("features", ds.NumFeatures()).
		Int("dropped_identifier", len(report.DroppedIdentifier)).
		Int("dropped_mostly_missing", len(report.DroppedMostlyMissing)).
		Msg("Training data loaded")

	return ds, report, nil
}

// LoadScoring reads the unlabeled scoring file and selects exactly the given
// feature columns, in order. Returns an error if a required column is absent.
func LoadScoring(path string, featureNames []string, opts LoadOptions) (*ScoringSet, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	indices := make(map[string]int, len(header))
	for i, col := range header {
		indices[col] = i
	}

	cols := make([]int, len(featureNames))
	for k, name := range featureNames {
		j, ok := indices[name]
		if !ok {
			return nil, fmt.Errorf("scoring file %s missing feature column %q", path, name)
		}
		cols[k] = j
	}
	idIdx, hasID := indices[opts.IDColumn]

	missing := newSentinelSet(opts.Sentinels)
	set := &ScoringSet{FeatureNames: featureNames}
	for i, rec := range records {
		features, ok := parseRow(rec, cols, missing)
		if !ok {
			return nil, fmt.Errorf("scoring file %s row %d has missing or non-numeric feature values", path, i+1)
		}

		id := i + 1
		if hasID {
			if v, err := strconv.Atoi(rec[idIdx]); err == nil {
				id = v
			}
		}
		set.IDs = append(set.IDs, id)
		set.Rows = append(set.Rows, features)
	}

	log.Info().
		Str("file", path).
		Int("rows", len(set.Rows)).
		Int("features", len(featureNames)).
		Msg("Scoring data loaded")

	return set, nil
}

func readCSV(path string) (header []string, records [][]string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("CSV %s has no data rows", path)
	}
	return rows[0], rows[1:], nil
}

func parseRow(rec []string, cols []int, missing map[string]bool) ([]float64, bool) {
	features := make([]float64, len(cols))
	for k, j := range cols {
		if j >= len(rec) || missing[rec[j]] {
			return nil, false
		}
		v, err := strconv.ParseFloat(rec[j], 64)
		if err != nil {
			return nil, false
		}
		features[k] = v
	}
	return features, true
}

func newSentinelSet(sentinels []string) map[string]bool {
	set := make(map[string]bool, len(sentinels))
	for _, s := range sentinels {
		set[s] = true
	}
	return set
}
