// Package model implements the four classifiers the analysis trains:
// a random forest, a polynomial-kernel support vector machine, a gradient
// boosting machine, and quadratic discriminant analysis. Every model is
// deterministic given a fixed seed and training data, and gob-serializable
// so trained artifacts can be cached and reloaded instead of retrained.
package model

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// Classifier maps a row of features to a predicted label.
type Classifier interface {
	// Name identifies the model in reports and the artifact cache.
	Name() string
	// Fit trains the model on the given dataset.
	Fit(ds *dataset.Dataset) error
	// Predict returns the predicted label for one row. Must only be
	// called after a successful Fit (or after decoding a trained artifact).
	Predict(features []float64) dataset.Label
}

func init() {
	gob.Register(&Forest{})
	gob.Register(&PolySVM{})
	gob.Register(&Boosting{})
	gob.Register(&QDA{})
}

// Marshal serializes a trained classifier for the artifact cache.
func Marshal(c Classifier) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&c); err != nil {
		return nil, fmt.Errorf("encode model %s: %w", c.Name(), err)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores a classifier serialized by Marshal.
func Unmarshal(data []byte) (Classifier, error) {
	var c Classifier
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return c, nil
}

func validateTrainingData(ds *dataset.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return fmt.Errorf("empty training dataset")
	}
	if ds.NumFeatures() == 0 {
		return fmt.Errorf("training dataset has no features")
	}
	return nil
}
