// Package eval applies trained classifiers to held-out rows and summarizes
// the outcome: confusion matrices, accuracy, per-class precision and recall,
// and seeded k-fold cross-validation.
package eval

import (
	"fmt"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// Predictor is the slice of a trained model the evaluator needs.
type Predictor interface {
	Predict(features []float64) dataset.Label
}

// ConfusionMatrix counts actual-versus-predicted labels over the fixed
// five-class alphabet.
type ConfusionMatrix struct {
	Counts [dataset.NumLabels][dataset.NumLabels]int // [actual][predicted]
	Total  int
}

// Add records one prediction.
func (cm *ConfusionMatrix) Add(actual, predicted dataset.Label) {
	cm.Counts[actual][predicted]++
	cm.Total++
}

// Correct returns the number of on-diagonal predictions.
func (cm *ConfusionMatrix) Correct() int {
	correct := 0
	for _, label := range dataset.AllLabels() {
		correct += cm.Counts[label][label]
	}
	return correct
}

// Accuracy is the fraction of correct predictions, in [0,1].
func (cm *ConfusionMatrix) Accuracy() float64 {
	if cm.Total == 0 {
		return 0
	}
	return float64(cm.Correct()) / float64(cm.Total)
}

// OutOfSampleError is 1 - accuracy.
func (cm *ConfusionMatrix) OutOfSampleError() float64 {
	return 1 - cm.Accuracy()
}

// Precision for a label: correct predictions of l over all predictions of l.
func (cm *ConfusionMatrix) Precision(l dataset.Label) float64 {
	predicted := 0
	for _, actual := range dataset.AllLabels() {
		predicted += cm.Counts[actual][l]
	}
	if predicted == 0 {
		return 0
	}
	return float64(cm.Counts[l][l]) / float64(predicted)
}

// Recall for a label: correct predictions of l over all actual l rows.
func (cm *ConfusionMatrix) Recall(l dataset.Label) float64 {
	actual := 0
	for _, predicted := range dataset.AllLabels() {
		actual += cm.Counts[l][predicted]
	}
	if actual == 0 {
		return 0
	}
	return float64(cm.Counts[l][l]) / float64(actual)
}

// Evaluate applies the predictor to every row of the dataset.
func Evaluate(p Predictor, ds *dataset.Dataset) (*ConfusionMatrix, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("cannot evaluate on an empty dataset")
	}
	cm := &ConfusionMatrix{}
	for _, s := range ds.Samples {
		cm.Add(s.Label, p.Predict(s.Features))
	}
	return cm, nil
}
