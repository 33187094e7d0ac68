package model

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// QDAConfig holds quadratic discriminant analysis hyperparameters.
type QDAConfig struct {
	// Regularization is added to the covariance diagonal so every
	// per-class covariance factorizes.
	Regularization float64 `yaml:"regularization"`
}

// DefaultQDAConfig returns sensible defaults for the sensor dataset.
func DefaultQDAConfig() QDAConfig {
	return QDAConfig{Regularization: 1e-3}
}

// QDA is quadratic discriminant analysis: each class is modeled as a
// gaussian with its own mean and covariance, and prediction is the argmax
// of the quadratic discriminant score.
type QDA struct {
	Config QDAConfig
	Class  [dataset.NumLabels]ClassGaussian
}

// ClassGaussian holds the fitted per-class gaussian in a form that
// serializes cleanly: the precision (inverse covariance) matrix is stored
// flattened row-major.
type ClassGaussian struct {
	Mean      []float64
	Precision []float64
	LogDet    float64
	LogPrior  float64
}

// NewQDA creates an untrained QDA model.
func NewQDA(config QDAConfig) *QDA {
	return &QDA{Config: config}
}

func (q *QDA) Name() string { return "qda" }

// Fit estimates a mean and regularized covariance per class.
func (q *QDA) Fit(ds *dataset.Dataset) error {
	if err := validateTrainingData(ds); err != nil {
		return err
	}

	d := ds.NumFeatures()
	counts := ds.ClassCounts()
	for _, label := range dataset.AllLabels() {
		n := counts[label]
		if n <= d {
			return fmt.Errorf("qda: class %s has %d rows for %d features, covariance would be singular", label, n, d)
		}

		rows := mat.NewDense(n, d, nil)
		mean := make([]float64, d)
		r := 0
		for _, s := range ds.Samples {
			if s.Label != label {
				continue
			}
			rows.SetRow(r, s.Features)
			for j, v := range s.Features {
				mean[j] += v
			}
			r++
		}
		for j := range mean {
			mean[j] /= float64(n)
		}

		cov := mat.NewSymDense(d, nil)
		stat.CovarianceMatrix(cov, rows, nil)
		for j := 0; j < d; j++ {
			cov.SetSym(j, j, cov.At(j, j)+q.Config.Regularization)
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(cov); !ok {
			return fmt.Errorf("qda: covariance for class %s is not positive definite", label)
		}

		var prec mat.SymDense
		if err := chol.InverseTo(&prec); err != nil {
			return fmt.Errorf("qda: invert covariance for class %s: %w", label, err)
		}

		flat := make([]float64, d*d)
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				flat[i*d+j] = prec.At(i, j)
			}
		}

		q.Class[label] = ClassGaussian{
			Mean:      mean,
			Precision: flat,
			LogDet:    chol.LogDet(),
			LogPrior:  math.Log(float64(n) / float64(ds.Len())),
		}
	}

	log.Debug().Float64("regularization", q.Config.Regularization).Msg("QDA trained")
	return nil
}

// Predict returns the class with the largest discriminant score.
// Ties break toward the lowest label.
func (q *QDA) Predict(features []float64) dataset.Label {
	best := dataset.LabelA
	bestScore := math.Inf(-1)
	for _, label := range dataset.AllLabels() {
		score := q.Class[label].discriminant(features)
		if score > bestScore {
			best, bestScore = label, score
		}
	}
	return best
}

// discriminant is log p(x|class) + log prior up to a shared constant:
// -0.5*logdet - 0.5*(x-mu)' P (x-mu) + logprior.
func (g ClassGaussian) discriminant(features []float64) float64 {
	d := len(g.Mean)
	quad := 0.0
	for i := 0; i < d; i++ {
		di := features[i] - g.Mean[i]
		row := g.Precision[i*d : (i+1)*d]
		for j := 0; j < d; j++ {
			quad += di * row[j] * (features[j] - g.Mean[j])
		}
	}
	return -0.5*g.LogDet - 0.5*quad + g.LogPrior
}
