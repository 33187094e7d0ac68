package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ptressel/PracticalMLCourseProject/internal/analysis"
	"github.com/ptressel/PracticalMLCourseProject/internal/cfg"
	"github.com/ptressel/PracticalMLCourseProject/internal/metrics"
)

func main() {
	var (
		dataDir    = flag.String("data-dir", "", "Directory for downloaded dataset files (overrides config)")
		outputPath = flag.String("report", "", "Output directory for reports (overrides config)")
		modelCache = flag.String("model-cache", "", "Path to the model artifact cache (overrides config)")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		seed       = flag.Int64("seed", 0, "Random seed for split and training (overrides config)")
		crossVal   = flag.Bool("cv", false, "Run k-fold cross-validation per model")
		noCharts   = flag.Bool("no-reports", false, "Skip report generation, print the summary only")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Optional .env bootstrap for local runs.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *dataDir != "" {
		config.DataDir = *dataDir
		config.TrainingFile = ""
		config.ScoringFile = ""
		config.ModelCache = filepath.Join(*dataDir, "models.db")
	}
	if *outputPath != "" {
		config.ReportDir = *outputPath
	}
	if *modelCache != "" {
		config.ModelCache = *modelCache
	}
	if *seed != 0 {
		config.Seed = *seed
	}
	cfg.ResolvePaths(&config)

	fmt.Println("=== Analysis Configuration ===")
	fmt.Printf("Training Data: %s\n", config.TrainingFile)
	fmt.Printf("Scoring Data: %s\n", config.ScoringFile)
	fmt.Printf("Report Directory: %s\n", config.ReportDir)
	fmt.Printf("Model Cache: %s\n", config.ModelCache)
	fmt.Printf("Seed: %d  Train Fraction: %.2f\n", config.Seed, config.TrainFraction)
	fmt.Println("==============================")

	collectors := metrics.New()
	if config.MetricsPort != 0 {
		go serveMetrics(config.MetricsPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := analysis.NewEngine(&config, collectors)
	if *crossVal {
		engine.EnableCrossValidation()
	}

	log.Info().Msg("Starting analysis...")
	results, err := engine.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	reporter := analysis.NewReporter(results, config.ReportDir)
	if !*noCharts {
		if err := reporter.GenerateReport(); err != nil {
			log.Error().Err(err).Msg("Failed to generate reports")
		}
	}
	reporter.PrintSummary()

	log.Info().
		Str("output", config.ReportDir).
		Msg("Analysis completed successfully")
}

// serveMetrics exposes the Prometheus endpoint for long runs.
func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("addr", addr).Msg("Metrics listener started")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics listener stopped")
	}
}
