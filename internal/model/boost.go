package model

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// BoostConfig holds gradient boosting hyperparameters.
type BoostConfig struct {
	Rounds       int     `yaml:"rounds"`
	LearningRate float64 `yaml:"learningRate"`
	Thresholds   int     `yaml:"thresholds"`
}

// DefaultBoostConfig returns sensible defaults for the sensor dataset.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{Rounds: 100, LearningRate: 0.1, Thresholds: 10}
}

// Stump is a depth-one regression tree: rows with Feature <= Threshold
// score LeftValue, the rest RightValue.
type Stump struct {
	Feature    int
	Threshold  float64
	LeftValue  float64
	RightValue float64
}

// Boosting is a one-vs-rest gradient boosting machine on logistic loss.
// Each class gets its own additive model of regression stumps fit to the
// residual y - sigmoid(F); prediction is the argmax of the class scores.
type Boosting struct {
	Config BoostConfig
	Stumps [dataset.NumLabels][]Stump
}

// NewBoosting creates an untrained boosting model.
func NewBoosting(config BoostConfig) *Boosting {
	return &Boosting{Config: config}
}

func (b *Boosting) Name() string { return "gradient_boosting" }

// Fit trains Config.Rounds stumps per class.
func (b *Boosting) Fit(ds *dataset.Dataset) error {
	if err := validateTrainingData(ds); err != nil {
		return err
	}

	n := ds.Len()
	for _, label := range dataset.AllLabels() {
		target := make([]float64, n)
		for i, s := range ds.Samples {
			if s.Label == label {
				target[i] = 1
			}
		}

		scores := make([]float64, n)
		residual := make([]float64, n)
		stumps := make([]Stump, 0, b.Config.Rounds)
		for round := 0; round < b.Config.Rounds; round++ {
			for i := range residual {
				residual[i] = target[i] - sigmoid(scores[i])
			}

			stump, ok := fitStump(ds, residual, b.Config.Thresholds)
			if !ok {
				break
			}
			stump.LeftValue *= b.Config.LearningRate
			stump.RightValue *= b.Config.LearningRate
			stumps = append(stumps, stump)

			for i, s := range ds.Samples {
				scores[i] += stump.apply(s.Features)
			}
		}
		b.Stumps[label] = stumps
	}

	log.Debug().Int("rounds", b.Config.Rounds).Msg("Gradient boosting trained")
	return nil
}

// Predict returns the class whose additive model scores highest.
// Ties break toward the lowest label.
func (b *Boosting) Predict(features []float64) dataset.Label {
	best := dataset.LabelA
	bestScore := math.Inf(-1)
	for _, label := range dataset.AllLabels() {
		score := 0.0
		for _, stump := range b.Stumps[label] {
			score += stump.apply(features)
		}
		if score > bestScore {
			best, bestScore = label, score
		}
	}
	return best
}

func (s Stump) apply(features []float64) float64 {
	if features[s.Feature] <= s.Threshold {
		return s.LeftValue
	}
	return s.RightValue
}

// fitStump finds the feature/threshold split minimizing squared error
// against the residuals, with side values set to the side means.
func fitStump(ds *dataset.Dataset, residual []float64, thresholds int) (Stump, bool) {
	best := Stump{}
	bestSSE := math.Inf(1)
	found := false

	for j := 0; j < ds.NumFeatures(); j++ {
		values := ds.Column(j)
		for _, t := range candidateThresholds(values, thresholds) {
			var sumL, sumR float64
			var nL, nR int
			for i, v := range values {
				if v <= t {
					sumL += residual[i]
					nL++
				} else {
					sumR += residual[i]
					nR++
				}
			}
			if nL == 0 || nR == 0 {
				continue
			}
			meanL := sumL / float64(nL)
			meanR := sumR / float64(nR)

			sse := 0.0
			for i, v := range values {
				d := residual[i] - meanR
				if v <= t {
					d = residual[i] - meanL
				}
				sse += d * d
			}
			if sse < bestSSE {
				bestSSE = sse
				best = Stump{Feature: j, Threshold: t, LeftValue: meanL, RightValue: meanR}
				found = true
			}
		}
	}
	return best, found
}

func sigmoid(x float64) float64 {
	// Clamp to keep exp well-behaved on extreme scores.
	if x > 35 {
		return 1
	}
	if x < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}
