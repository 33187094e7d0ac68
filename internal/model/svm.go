package model

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// SVMConfig holds polynomial-kernel SVM hyperparameters.
type SVMConfig struct {
	Degree     int     `yaml:"degree"`
	Gamma      float64 `yaml:"gamma"`
	Coef0      float64 `yaml:"coef0"`
	Lambda     float64 `yaml:"lambda"`
	Iterations int     `yaml:"iterations"`
	Seed       int64   `yaml:"seed"`
}

// DefaultSVMConfig returns sensible defaults for the sensor dataset.
func DefaultSVMConfig() SVMConfig {
	return SVMConfig{Degree: 2, Gamma: 0.01, Coef0: 1, Lambda: 1e-4, Iterations: 20000, Seed: 1}
}

// PolySVM is a one-vs-rest support vector machine with a polynomial kernel
// K(x,z) = (gamma*<x,z> + coef0)^degree, trained with kernelized Pegasos.
// Only rows that ever violated the margin are kept as support vectors.
type PolySVM struct {
	Config SVMConfig
	Class  [dataset.NumLabels]SVMachine
}

// SVMachine is the binary machine for a single class.
type SVMachine struct {
	SV     [][]float64 // support vectors
	Coef   []float64   // alpha_i * y_i per support vector
	Scale  float64     // 1/(lambda * T)
	Means  []float64   // per-feature standardization
	Scales []float64
}

// NewPolySVM creates an untrained SVM.
func NewPolySVM(config SVMConfig) *PolySVM {
	return &PolySVM{Config: config}
}

func (m *PolySVM) Name() string { return "svm_poly" }

// Fit trains one binary machine per class on standardized features.
func (m *PolySVM) Fit(ds *dataset.Dataset) error {
	if err := validateTrainingData(ds); err != nil {
		return err
	}

	means, scales := columnStandardizer(ds)
	rows := make([][]float64, ds.Len())
	for i, s := range ds.Samples {
		rows[i] = standardize(s.Features, means, scales)
	}

	for _, label := range dataset.AllLabels() {
		y := make([]float64, ds.Len())
		for i, s := range ds.Samples {
			if s.Label == label {
				y[i] = 1
			} else {
				y[i] = -1
			}
		}
		// Per-class generator keeps training order independent across classes.
		rng := rand.New(rand.NewSource(m.Config.Seed + int64(label)))
		machine := m.trainBinary(rows, y, rng)
		machine.Means, machine.Scales = means, scales
		m.Class[label] = machine
	}

	log.Debug().
		Int("degree", m.Config.Degree).
		Int("iterations", m.Config.Iterations).
		Msg("Polynomial SVM trained")
	return nil
}

// Predict returns the class with the largest decision value.
// Ties break toward the lowest label.
func (m *PolySVM) Predict(features []float64) dataset.Label {
	best := dataset.LabelA
	bestScore := math.Inf(-1)
	for _, label := range dataset.AllLabels() {
		score := m.decision(m.Class[label], features)
		if score > bestScore {
			best, bestScore = label, score
		}
	}
	return best
}

func (m *PolySVM) decision(machine SVMachine, features []float64) float64 {
	x := standardize(features, machine.Means, machine.Scales)
	score := 0.0
	for i, sv := range machine.SV {
		score += machine.Coef[i] * m.kernel(sv, x)
	}
	return machine.Scale * score
}

// trainBinary runs kernelized Pegasos: at step t a random row is checked
// against the current margin, and its alpha is bumped on a violation.
func (m *PolySVM) trainBinary(rows [][]float64, y []float64, rng *rand.Rand) SVMachine {
	n := len(rows)
	alpha := make([]float64, n)

	for t := 1; t <= m.Config.Iterations; t++ {
		i := rng.Intn(n)
		margin := 0.0
		for j := 0; j < n; j++ {
			if alpha[j] != 0 {
				margin += alpha[j] * y[j] * m.kernel(rows[j], rows[i])
			}
		}
		margin *= y[i] / (m.Config.Lambda * float64(t))
		if margin < 1 {
			alpha[i]++
		}
	}

	machine := SVMachine{Scale: 1 / (m.Config.Lambda * float64(m.Config.Iterations))}
	for i, a := range alpha {
		if a != 0 {
			machine.SV = append(machine.SV, rows[i])
			machine.Coef = append(machine.Coef, a*y[i])
		}
	}
	return machine
}

func (m *PolySVM) kernel(a, b []float64) float64 {
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	return math.Pow(m.Config.Gamma*dot+m.Config.Coef0, float64(m.Config.Degree))
}

func columnStandardizer(ds *dataset.Dataset) (means, scales []float64) {
	d := ds.NumFeatures()
	n := float64(ds.Len())
	means = make([]float64, d)
	scales = make([]float64, d)

	for _, s := range ds.Samples {
		for j, v := range s.Features {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}
	for _, s := range ds.Samples {
		for j, v := range s.Features {
			dv := v - means[j]
			scales[j] += dv * dv
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j] / n)
		if scales[j] == 0 {
			scales[j] = 1
		}
	}
	return means, scales
}

func standardize(features, means, scales []float64) []float64 {
	out := make([]float64, len(features))
	for j, v := range features {
		out[j] = (v - means[j]) / scales[j]
	}
	return out
}
