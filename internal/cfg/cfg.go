// Package cfg loads pipeline configuration from a YAML file with
// environment-variable overrides, falling back to pure environment/defaults
// when no file is given.
package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ptressel/PracticalMLCourseProject/internal/model"
)

// Settings is the fully resolved pipeline configuration.
type Settings struct {
	TrainingURL  string
	ScoringURL   string
	DataDir      string
	TrainingFile string
	ScoringFile  string
	ReportDir    string
	ModelCache   string

	Sentinels     []string
	MissingCutoff float64
	CorrCutoff    float64
	TrainFraction float64
	Seed          int64
	CVFolds       int

	HTTPTimeout time.Duration
	MetricsPort int

	Forest model.ForestConfig
	SVM    model.SVMConfig
	Boost  model.BoostConfig
	QDA    model.QDAConfig
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Data struct {
		TrainingURL   string   `yaml:"trainingURL"`
		ScoringURL    string   `yaml:"scoringURL"`
		Dir           string   `yaml:"dir"`
		Sentinels     []string `yaml:"sentinels"`
		MissingCutoff float64  `yaml:"missingCutoff"`
	} `yaml:"data"`

	Analysis struct {
		TrainFraction     float64 `yaml:"trainFraction"`
		Seed              int64   `yaml:"seed"`
		CVFolds           int     `yaml:"cvFolds"`
		CorrelationCutoff float64 `yaml:"correlationCutoff"`
	} `yaml:"analysis"`

	Models struct {
		Forest model.ForestConfig `yaml:"forest"`
		SVM    model.SVMConfig    `yaml:"svm"`
		Boost  model.BoostConfig  `yaml:"boosting"`
		QDA    model.QDAConfig    `yaml:"qda"`
	} `yaml:"models"`

	System struct {
		ReportDir   string `yaml:"reportDir"`
		ModelCache  string `yaml:"modelCache"`
		HTTPTimeout string `yaml:"httpTimeout"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves settings from CONFIG_FILE when set, else from environment
// variables and defaults.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func defaults() Settings {
	return Settings{
		TrainingURL:   "https://d396qusza40orc.cloudfront.net/predmachlearn/pml-training.csv",
		ScoringURL:    "https://d396qusza40orc.cloudfront.net/predmachlearn/pml-testing.csv",
		DataDir:       "data",
		ReportDir:     "reports",
		ModelCache:    filepath.Join("data", "models.db"),
		Sentinels:     []string{"", "NA", "#DIV/0!"},
		MissingCutoff: 0.5,
		CorrCutoff:    0.95,
		TrainFraction: 0.7,
		Seed:          1313,
		CVFolds:       5,
		HTTPTimeout:   60 * time.Second,
		MetricsPort:   0, // disabled
		Forest:        model.DefaultForestConfig(),
		SVM:           model.DefaultSVMConfig(),
		Boost:         model.DefaultBoostConfig(),
		QDA:           model.DefaultQDAConfig(),
	}
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := defaults()
	if config.Data.TrainingURL != "" {
		settings.TrainingURL = config.Data.TrainingURL
	}
	if config.Data.ScoringURL != "" {
		settings.ScoringURL = config.Data.ScoringURL
	}
	if config.Data.Dir != "" {
		settings.DataDir = config.Data.Dir
		settings.ModelCache = filepath.Join(config.Data.Dir, "models.db")
	}
	if len(config.Data.Sentinels) > 0 {
		settings.Sentinels = config.Data.Sentinels
	}
	if config.Data.MissingCutoff != 0 {
		settings.MissingCutoff = config.Data.MissingCutoff
	}
	if config.Analysis.TrainFraction != 0 {
		settings.TrainFraction = config.Analysis.TrainFraction
	}
	if config.Analysis.Seed != 0 {
		settings.Seed = config.Analysis.Seed
	}
	if config.Analysis.CVFolds != 0 {
		settings.CVFolds = config.Analysis.CVFolds
	}
	if config.Analysis.CorrelationCutoff != 0 {
		settings.CorrCutoff = config.Analysis.CorrelationCutoff
	}
	if config.Models.Forest.NumTrees != 0 {
		settings.Forest = config.Models.Forest
	}
	if config.Models.SVM.Iterations != 0 {
		settings.SVM = config.Models.SVM
	}
	if config.Models.Boost.Rounds != 0 {
		settings.Boost = config.Models.Boost
	}
	if config.Models.QDA.Regularization != 0 {
		settings.QDA = config.Models.QDA
	}
	if config.System.ReportDir != "" {
		settings.ReportDir = config.System.ReportDir
	}
	if config.System.ModelCache != "" {
		settings.ModelCache = config.System.ModelCache
	}
	if config.System.HTTPTimeout != "" {
		if d, err := time.ParseDuration(config.System.HTTPTimeout); err == nil {
			settings.HTTPTimeout = d
		}
	}
	if config.System.MetricsPort != 0 {
		settings.MetricsPort = config.System.MetricsPort
	}

	applyEnvOverrides(&settings)
	ResolvePaths(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := defaults()
	applyEnvOverrides(&settings)
	ResolvePaths(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyEnvOverrides(settings *Settings) {
	settings.TrainingURL = getEnvOrDefault("TRAINING_URL", settings.TrainingURL)
	settings.ScoringURL = getEnvOrDefault("SCORING_URL", settings.ScoringURL)
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		settings.DataDir = dir
		settings.ModelCache = filepath.Join(dir, "models.db")
	}
	settings.ReportDir = getEnvOrDefault("REPORT_DIR", settings.ReportDir)
	settings.ModelCache = getEnvOrDefault("MODEL_CACHE", settings.ModelCache)
	if v := os.Getenv("SENTINELS"); v != "" {
		settings.Sentinels = strings.Split(v, ",")
	}
	settings.MissingCutoff = getFloatOrDefault("MISSING_CUTOFF", settings.MissingCutoff)
	settings.CorrCutoff = getFloatOrDefault("CORRELATION_CUTOFF", settings.CorrCutoff)
	settings.TrainFraction = getFloatOrDefault("TRAIN_FRACTION", settings.TrainFraction)
	settings.Seed = getInt64OrDefault("SEED", settings.Seed)
	settings.CVFolds = getIntOrDefault("CV_FOLDS", settings.CVFolds)
	settings.HTTPTimeout = getDurationOrDefault("HTTP_TIMEOUT", settings.HTTPTimeout)
	settings.MetricsPort = getIntOrDefault("METRICS_PORT", settings.MetricsPort)
}

// ResolvePaths derives the dataset file paths from DataDir unless they are
// already set. Callers that override DataDir after Load clear the file paths
// and call this again.
func ResolvePaths(settings *Settings) {
	if settings.TrainingFile == "" {
		settings.TrainingFile = filepath.Join(settings.DataDir, "pml-training.csv")
	}
	if settings.ScoringFile == "" {
		settings.ScoringFile = filepath.Join(settings.DataDir, "pml-testing.csv")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// validateSettings performs range checks on configuration values.
func validateSettings(settings *Settings) error {
	if settings.TrainingURL == "" {
		return fmt.Errorf("training URL cannot be empty")
	}
	if settings.ScoringURL == "" {
		return fmt.Errorf("scoring URL cannot be empty")
	}
	if settings.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if settings.ReportDir == "" {
		return fmt.Errorf("report directory cannot be empty")
	}

	if settings.MissingCutoff <= 0 || settings.MissingCutoff > 1 {
		return fmt.Errorf("missing cutoff must be in (0,1], got %v", settings.MissingCutoff)
	}
	if settings.CorrCutoff <= 0 || settings.CorrCutoff > 1 {
		return fmt.Errorf("correlation cutoff must be in (0,1], got %v", settings.CorrCutoff)
	}
	if settings.TrainFraction <= 0 || settings.TrainFraction >= 1 {
		return fmt.Errorf("train fraction must be in (0,1), got %v", settings.TrainFraction)
	}
	if settings.CVFolds < 2 || settings.CVFolds > 20 {
		return fmt.Errorf("CV folds must be between 2 and 20, got %d", settings.CVFolds)
	}
	if settings.HTTPTimeout < time.Second || settings.HTTPTimeout > 10*time.Minute {
		return fmt.Errorf("HTTP timeout must be between 1s and 10m, got %v", settings.HTTPTimeout)
	}
	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be 0 (disabled) or between 1024 and 65535, got %d", settings.MetricsPort)
	}

	if settings.Forest.NumTrees <= 0 || settings.Forest.NumTrees > 2000 {
		return fmt.Errorf("forest trees must be between 1 and 2000, got %d", settings.Forest.NumTrees)
	}
	if settings.Forest.MaxDepth <= 0 || settings.Forest.MaxDepth > 64 {
		return fmt.Errorf("forest max depth must be between 1 and 64, got %d", settings.Forest.MaxDepth)
	}
	if settings.SVM.Degree <= 0 || settings.SVM.Degree > 10 {
		return fmt.Errorf("SVM polynomial degree must be between 1 and 10, got %d", settings.SVM.Degree)
	}
	if settings.SVM.Lambda <= 0 {
		return fmt.Errorf("SVM lambda must be positive, got %v", settings.SVM.Lambda)
	}
	if settings.Boost.Rounds <= 0 || settings.Boost.Rounds > 5000 {
		return fmt.Errorf("boosting rounds must be between 1 and 5000, got %d", settings.Boost.Rounds)
	}
	if settings.Boost.LearningRate <= 0 || settings.Boost.LearningRate > 1 {
		return fmt.Errorf("boosting learning rate must be in (0,1], got %v", settings.Boost.LearningRate)
	}
	if settings.QDA.Regularization <= 0 {
		return fmt.Errorf("QDA regularization must be positive, got %v", settings.QDA.Regularization)
	}

	return nil
}
