// Package ensemble combines the predictions of several trained classifiers
// into a single per-row prediction via an accuracy-weighted vote.
package ensemble

import (
	"errors"
	"fmt"
	"math"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// ErrInvalidInput is returned when the voter is handed malformed input:
// mismatched lengths, an unrecognized label, a negative or NaN weight, or
// all-zero weights across more than one model.
var ErrInvalidInput = errors.New("invalid vote input")

// Vote tallies one weighted vote per model and returns the label with the
// greatest accumulated weight. Weights are each model's standalone held-out
// accuracy; a zero weight silences that model's vote. Ties break toward the
// lowest label in alphabet order. A single model (N=1) always wins with its
// own prediction, even at weight zero.
func Vote(predictions []dataset.Label, weights []float64) (dataset.Label, error) {
	if len(predictions) == 0 {
		return 0, fmt.Errorf("%w: no predictions", ErrInvalidInput)
	}
	if len(predictions) != len(weights) {
		return 0, fmt.Errorf("%w: %d predictions but %d weights", ErrInvalidInput, len(predictions), len(weights))
	}

	allZero := true
	for i, w := range weights {
		if math.IsNaN(w) || w < 0 {
			return 0, fmt.Errorf("%w: weight %d is %v", ErrInvalidInput, i, w)
		}
		if w > 0 {
			allZero = false
		}
	}
	for i, p := range predictions {
		if !p.Valid() {
			return 0, fmt.Errorf("%w: prediction %d has unknown label %d", ErrInvalidInput, i, uint8(p))
		}
	}

	if len(predictions) == 1 {
		return predictions[0], nil
	}
	if allZero {
		return 0, fmt.Errorf("%w: all weights are zero", ErrInvalidInput)
	}

	var tally [dataset.NumLabels]float64
	for i, p := range predictions {
		tally[p] += weights[i]
	}

	best := dataset.LabelA
	for _, label := range dataset.AllLabels() {
		if tally[label] > tally[best] {
			best = label
		}
	}
	return best, nil
}
