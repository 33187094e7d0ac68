package ensemble

import (
	"fmt"
	"math"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// Predictor is the slice of a trained model the ensemble needs.
type Predictor interface {
	Predict(features []float64) dataset.Label
}

type member struct {
	name   string
	model  Predictor
	weight float64
}

// Ensemble bundles trained classifiers with their accuracy weights and
// votes them row by row. Weights are fixed at Add time and never mutated.
type Ensemble struct {
	members []member
}

func New() *Ensemble {
	return &Ensemble{}
}

// Add registers a model with its held-out accuracy as voting weight.
func (e *Ensemble) Add(name string, model Predictor, weight float64) error {
	if model == nil {
		return fmt.Errorf("%w: model %q is nil", ErrInvalidInput, name)
	}
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return fmt.Errorf("%w: model %q has accuracy weight %v outside [0,1]", ErrInvalidInput, name, weight)
	}
	e.members = append(e.members, member{name: name, model: model, weight: weight})
	return nil
}

// Size returns the number of voting models.
func (e *Ensemble) Size() int {
	return len(e.members)
}

// Names lists member names in registration order.
func (e *Ensemble) Names() []string {
	names := make([]string, len(e.members))
	for i, m := range e.members {
		names[i] = m.name
	}
	return names
}

// Weights lists member voting weights in registration order.
func (e *Ensemble) Weights() []float64 {
	weights := make([]float64, len(e.members))
	for i, m := range e.members {
		weights[i] = m.weight
	}
	return weights
}

// Predictions returns one prediction per member for the row, in
// registration order, without voting.
func (e *Ensemble) Predictions(features []float64) []dataset.Label {
	predictions := make([]dataset.Label, len(e.members))
	for i, m := range e.members {
		predictions[i] = m.model.Predict(features)
	}
	return predictions
}

// Predict collects one prediction per member for the row and votes.
func (e *Ensemble) Predict(features []float64) (dataset.Label, error) {
	if len(e.members) == 0 {
		return 0, fmt.Errorf("%w: ensemble has no members", ErrInvalidInput)
	}
	predictions := make([]dataset.Label, len(e.members))
	weights := make([]float64, len(e.members))
	for i, m := range e.members {
		predictions[i] = m.model.Predict(features)
		weights[i] = m.weight
	}
	return Vote(predictions, weights)
}
