// Package importance scores variables by permutation importance and prunes
// highly correlated feature columns before training.
package importance

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
	"github.com/ptressel/PracticalMLCourseProject/internal/eval"
)

// FeatureScore is one feature's permutation importance: the accuracy drop
// when that column's values are shuffled across rows.
type FeatureScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Report holds a model's permutation importances over a validation set.
type Report struct {
	Model    string         `json:"model"`
	Baseline float64        `json:"baseline_accuracy"`
	Scores   []FeatureScore `json:"scores"`
}

// Permutation computes importance for every feature: baseline accuracy
// minus accuracy with that single column permuted (seeded, one permutation
// per column). Negative drops are clamped to zero.
func Permutation(model string, p eval.Predictor, ds *dataset.Dataset, seed int64) (*Report, error) {
	baseline, err := eval.Evaluate(p, ds)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Model:    model,
		Baseline: baseline.Accuracy(),
		Scores:   make([]FeatureScore, ds.NumFeatures()),
	}

	rng := rand.New(rand.NewSource(seed))
	n := ds.Len()
	scratch := make([]float64, 0, ds.NumFeatures())

	for j, name := range ds.FeatureNames {
		perm := rng.Perm(n)
		column := ds.Column(j)

		correct := 0
		for i, s := range ds.Samples {
			scratch = scratch[:0]
			scratch = append(scratch, s.Features...)
			scratch[j] = column[perm[i]]
			if p.Predict(scratch) == s.Label {
				correct++
			}
		}

		drop := report.Baseline - float64(correct)/float64(n)
		if drop < 0 {
			drop = 0
		}
		report.Scores[j] = FeatureScore{Name: name, Score: drop}
	}

	log.Debug().Str("model", model).Float64("baseline", report.Baseline).Msg("Permutation importance computed")
	return report, nil
}

// Top returns the n highest-scoring features, descending; name order breaks
// score ties so rankings are stable.
func (r *Report) Top(n int) []FeatureScore {
	ranked := append([]FeatureScore(nil), r.Scores...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load reads a report saved by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse importance report %s: %w", path, err)
	}
	return &r, nil
}
