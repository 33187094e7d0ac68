// Package analysis orchestrates the full pipeline: download, load and
// clean, prune, split, train (or load cached) four classifiers, evaluate
// each on the held-out partition, combine them with the accuracy-weighted
// vote, score the unlabeled rows, and compute variable importance.
package analysis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ptressel/PracticalMLCourseProject/internal/cfg"
	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
	"github.com/ptressel/PracticalMLCourseProject/internal/ensemble"
	"github.com/ptressel/PracticalMLCourseProject/internal/eval"
	"github.com/ptressel/PracticalMLCourseProject/internal/fetch"
	"github.com/ptressel/PracticalMLCourseProject/internal/importance"
	"github.com/ptressel/PracticalMLCourseProject/internal/model"
	"github.com/ptressel/PracticalMLCourseProject/internal/store"
)

// Collector is the slice of the metrics surface the engine reports into.
type Collector interface {
	RowsLoadedAdd(int)
	RowsSkippedAdd(int)
	ModelTrained(seconds float64)
	CacheHitInc()
	AccuracyObserve(float64)
	VoteInc()
	VoteFailureInc()
	DownloadBytesAdd(int64)
}

// ModelResult is one classifier's held-out evaluation.
type ModelResult struct {
	Name      string
	Accuracy  float64
	Confusion *eval.ConfusionMatrix
	CV        eval.CVResult
	Cached    bool
}

// ScoredRow is one unlabeled row with each model's prediction and the
// ensemble's final call.
type ScoredRow struct {
	ID       int
	PerModel []dataset.Label
	Final    dataset.Label
}

// Results collects everything the reporter renders.
type Results struct {
	StartTime time.Time
	EndTime   time.Time

	TrainRows      int
	ValidationRows int
	Features       []string
	PrunedFeatures []string
	LoadReport     *dataset.LoadReport

	Models            []ModelResult
	EnsembleConfusion *eval.ConfusionMatrix
	EnsembleAccuracy  float64
	Importance        *importance.Report
	Scored            []ScoredRow
}

// Engine runs the analysis pipeline end to end.
type Engine struct {
	config  *cfg.Settings
	metrics Collector
	fetcher *fetch.Fetcher
	cv      bool
}

// NewEngine creates an engine. metrics may be nil.
func NewEngine(config *cfg.Settings, metrics Collector) *Engine {
	return &Engine{
		config:  config,
		metrics: metrics,
		fetcher: fetch.New(config.HTTPTimeout),
	}
}

// EnableCrossValidation adds seeded k-fold cross-validation per model to the
// run. Off by default: each model retrains k extra times.
func (e *Engine) EnableCrossValidation() {
	e.cv = true
}

// Run executes the pipeline and returns its results. All four models finish
// training and evaluation before any vote is cast.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	results := &Results{StartTime: time.Now()}

	if err := e.download(ctx, e.config.TrainingURL, e.config.TrainingFile); err != nil {
		return nil, fmt.Errorf("fetch training data: %w", err)
	}
	if err := e.download(ctx, e.config.ScoringURL, e.config.ScoringFile); err != nil {
		return nil, fmt.Errorf("fetch scoring data: %w", err)
	}

	opts := dataset.DefaultLoadOptions()
	opts.Sentinels = e.config.Sentinels
	opts.MissingCutoff = e.config.MissingCutoff

	full, loadReport, err := dataset.LoadTraining(e.config.TrainingFile, opts)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	results.LoadReport = loadReport
	if e.metrics != nil {
		e.metrics.RowsLoadedAdd(full.Len())
		e.metrics.RowsSkippedAdd(loadReport.RowsSkipped)
	}

	full, pruned := importance.PruneCorrelated(full, e.config.CorrCutoff)
	results.PrunedFeatures = pruned
	results.Features = full.FeatureNames

	train, valid, err := dataset.StratifiedSplit(full, e.config.TrainFraction, e.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}
	results.TrainRows = train.Len()
	results.ValidationRows = valid.Len()
	log.Info().
		Int("train", train.Len()).
		Int("validation", valid.Len()).
		Float64("fraction", e.config.TrainFraction).
		Msg("Dataset split")

	cache, err := store.Open(e.config.ModelCache)
	if err != nil {
		return nil, fmt.Errorf("open model cache: %w", err)
	}
	defer cache.Close()

	voters := ensemble.New()
	var forestModel model.Classifier
	for _, spec := range e.modelSpecs() {
		trained, cached, err := e.trainOrLoad(cache, train, spec)
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", spec.name, err)
		}

		cm, err := eval.Evaluate(trained, valid)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", spec.name, err)
		}
		accuracy := cm.Accuracy()
		if e.metrics != nil {
			e.metrics.AccuracyObserve(accuracy)
		}
		log.Info().
			Str("model", spec.name).
			Float64("accuracy", accuracy).
			Bool("cached", cached).
			Msg("Model evaluated")

		if err := voters.Add(spec.name, trained, accuracy); err != nil {
			return nil, err
		}

		result := ModelResult{
			Name:      spec.name,
			Accuracy:  accuracy,
			Confusion: cm,
			Cached:    cached,
		}
		if e.cv {
			spec := spec
			cv, err := eval.CrossValidate(func() eval.Trainable { return spec.build() }, train, e.config.CVFolds, e.config.Seed)
			if err != nil {
				return nil, fmt.Errorf("cross-validate %s: %w", spec.name, err)
			}
			result.CV = cv
			log.Info().
				Str("model", spec.name).
				Float64("cv_mean", cv.Mean()).
				Float64("cv_stddev", cv.StdDev()).
				Msg("Cross-validation complete")
		}
		results.Models = append(results.Models, result)
		if spec.name == "random_forest" {
			forestModel = trained
		}
	}

	if err := e.voteValidation(voters, valid, results); err != nil {
		return nil, err
	}

	// Variable importance for the strongest standalone model.
	if forestModel != nil {
		report, err := importance.Permutation("random_forest", forestModel, valid, e.config.Seed)
		if err != nil {
			return nil, fmt.Errorf("permutation importance: %w", err)
		}
		results.Importance = report
	}

	scoring, err := dataset.LoadScoring(e.config.ScoringFile, full.FeatureNames, opts)
	if err != nil {
		return nil, fmt.Errorf("load scoring data: %w", err)
	}
	if err := e.scoreRows(voters, results, scoring); err != nil {
		return nil, err
	}

	results.EndTime = time.Now()
	log.Info().
		Dur("elapsed", results.EndTime.Sub(results.StartTime)).
		Float64("ensemble_accuracy", results.EnsembleAccuracy).
		Msg("Analysis complete")
	return results, nil
}

// download fetches one dataset file and counts fresh bytes.
func (e *Engine) download(ctx context.Context, url, dest string) error {
	cached, err := e.fetcher.Download(ctx, url, dest)
	if err != nil {
		return err
	}
	if !cached && e.metrics != nil {
		if info, err := os.Stat(dest); err == nil {
			e.metrics.DownloadBytesAdd(info.Size())
		}
	}
	return nil
}

type modelSpec struct {
	name  string
	build func() model.Classifier
	fp    string
}

func (e *Engine) modelSpecs() []modelSpec {
	c := e.config
	return []modelSpec{
		{
			name:  "random_forest",
			build: func() model.Classifier { return model.NewForest(c.Forest) },
			fp:    fmt.Sprintf("forest:%+v:seed=%d", c.Forest, c.Seed),
		},
		{
			name:  "svm_poly",
			build: func() model.Classifier { return model.NewPolySVM(c.SVM) },
			fp:    fmt.Sprintf("svm:%+v:seed=%d", c.SVM, c.Seed),
		},
		{
			name:  "gradient_boosting",
			build: func() model.Classifier { return model.NewBoosting(c.Boost) },
			fp:    fmt.Sprintf("boost:%+v:seed=%d", c.Boost, c.Seed),
		},
		{
			name:  "qda",
			build: func() model.Classifier { return model.NewQDA(c.QDA) },
			fp:    fmt.Sprintf("qda:%+v:seed=%d", c.QDA, c.Seed),
		},
	}
}

func (e *Engine) trainOrLoad(cache *store.Store, train *dataset.Dataset, spec modelSpec) (model.Classifier, bool, error) {
	fingerprint := train.Fingerprint(spec.fp)
	trained, cached, err := cache.LookupOrTrain(spec.name, fingerprint, func() (model.Classifier, error) {
		m := spec.build()
		start := time.Now()
		if err := m.Fit(train); err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		if e.metrics != nil {
			e.metrics.ModelTrained(elapsed.Seconds())
		}
		log.Info().Str("model", spec.name).Dur("elapsed", elapsed).Msg("Model trained")
		return m, nil
	})
	if err != nil {
		return nil, false, err
	}
	if cached && e.metrics != nil {
		e.metrics.CacheHitInc()
	}
	return trained, cached, nil
}

func (e *Engine) voteValidation(voters *ensemble.Ensemble, valid *dataset.Dataset, results *Results) error {
	cm := &eval.ConfusionMatrix{}
	for _, s := range valid.Samples {
		final, err := voters.Predict(s.Features)
		if err != nil {
			if e.metrics != nil {
				e.metrics.VoteFailureInc()
			}
			return fmt.Errorf("ensemble vote: %w", err)
		}
		if e.metrics != nil {
			e.metrics.VoteInc()
		}
		cm.Add(s.Label, final)
	}
	results.EnsembleConfusion = cm
	results.EnsembleAccuracy = cm.Accuracy()
	return nil
}

func (e *Engine) scoreRows(voters *ensemble.Ensemble, results *Results, scoring *dataset.ScoringSet) error {
	weights := voters.Weights()
	for i, row := range scoring.Rows {
		predictions := voters.Predictions(row)
		final, err := ensemble.Vote(predictions, weights)
		if err != nil {
			if e.metrics != nil {
				e.metrics.VoteFailureInc()
			}
			return fmt.Errorf("score row %d: %w", scoring.IDs[i], err)
		}
		if e.metrics != nil {
			e.metrics.VoteInc()
		}
		results.Scored = append(results.Scored, ScoredRow{
			ID:       scoring.IDs[i],
			PerModel: predictions,
			Final:    final,
		})
	}
	return nil
}
