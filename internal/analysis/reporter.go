package analysis

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rs/zerolog/log"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
	"github.com/ptressel/PracticalMLCourseProject/internal/eval"
)

// Reporter renders analysis results to disk.
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a reporter writing into outputPath.
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes every report format.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	if err := r.generateAccuracyTable(); err != nil {
		return err
	}
	if err := r.generateConfusionTables(); err != nil {
		return err
	}
	if err := r.generatePredictions(); err != nil {
		return err
	}
	if err := r.generateJSONReport(); err != nil {
		return err
	}
	return r.generateCharts()
}

// generateSummary writes the human-readable run summary.
func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "analysis_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "ACTIVITY CLASSIFICATION ANALYSIS\n")
	fmt.Fprintf(file, "================================\n\n")
	fmt.Fprintf(file, "Run: %s to %s (%s)\n\n",
		r.results.StartTime.Format("2006-01-02 15:04:05"),
		r.results.EndTime.Format("2006-01-02 15:04:05"),
		r.results.EndTime.Sub(r.results.StartTime).Round(time.Millisecond))

	fmt.Fprintf(file, "DATA\n")
	fmt.Fprintf(file, "----\n")
	fmt.Fprintf(file, "Training rows: %d\n", r.results.TrainRows)
	fmt.Fprintf(file, "Validation rows: %d\n", r.results.ValidationRows)
	fmt.Fprintf(file, "Features kept: %d\n", len(r.results.Features))
	if lr := r.results.LoadReport; lr != nil {
		fmt.Fprintf(file, "Rows skipped in cleaning: %d\n", lr.RowsSkipped)
		fmt.Fprintf(file, "Identifier columns dropped: %d\n", len(lr.DroppedIdentifier))
		fmt.Fprintf(file, "Mostly-missing columns dropped: %d\n", len(lr.DroppedMostlyMissing))
	}
	fmt.Fprintf(file, "Correlated columns pruned: %d\n\n", len(r.results.PrunedFeatures))

	fmt.Fprintf(file, "MODEL ACCURACY (validation)\n")
	fmt.Fprintf(file, "---------------------------\n")
	for _, m := range r.results.Models {
		fmt.Fprintf(file, "%-20s accuracy=%.4f  error=%.4f", m.Name, m.Accuracy, 1-m.Accuracy)
		if len(m.CV.Folds) > 0 {
			fmt.Fprintf(file, "  cv=%.4f±%.4f", m.CV.Mean(), m.CV.StdDev())
		}
		if m.Cached {
			fmt.Fprintf(file, "  (cached)")
		}
		fmt.Fprintf(file, "\n")
	}
	fmt.Fprintf(file, "%-20s accuracy=%.4f  error=%.4f\n\n",
		"weighted_ensemble", r.results.EnsembleAccuracy, 1-r.results.EnsembleAccuracy)

	if r.results.Importance != nil {
		fmt.Fprintf(file, "TOP 10 FEATURES (permutation importance, %s)\n", r.results.Importance.Model)
		fmt.Fprintf(file, "--------------------------------------------\n")
		for _, fs := range r.results.Importance.Top(10) {
			fmt.Fprintf(file, "%-30s %.4f\n", fs.Name, fs.Score)
		}
		fmt.Fprintf(file, "\n")
	}

	fmt.Fprintf(file, "SCORED ROWS\n")
	fmt.Fprintf(file, "-----------\n")
	for _, row := range r.results.Scored {
		fmt.Fprintf(file, "problem %2d -> %s\n", row.ID, row.Final)
	}

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

// generateAccuracyTable writes per-model accuracy as CSV.
func (r *Reporter) generateAccuracyTable() error {
	csvPath := filepath.Join(r.outputPath, "model_accuracy.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create accuracy table: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Model", "Accuracy", "Error", "CV Mean", "CV StdDev", "Cached"}); err != nil {
		return err
	}
	for _, m := range r.results.Models {
		cvMean, cvStd := "", ""
		if len(m.CV.Folds) > 0 {
			cvMean = fmt.Sprintf("%.4f", m.CV.Mean())
			cvStd = fmt.Sprintf("%.4f", m.CV.StdDev())
		}
		record := []string{
			m.Name,
			fmt.Sprintf("%.4f", m.Accuracy),
			fmt.Sprintf("%.4f", 1-m.Accuracy),
			cvMean,
			cvStd,
			fmt.Sprintf("%t", m.Cached),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	ensembleRow := []string{
		"weighted_ensemble",
		fmt.Sprintf("%.4f", r.results.EnsembleAccuracy),
		fmt.Sprintf("%.4f", 1-r.results.EnsembleAccuracy),
		"", "", "false",
	}
	if err := writer.Write(ensembleRow); err != nil {
		return err
	}

	log.Info().Str("file", csvPath).Msg("Accuracy table generated")
	return nil
}

// generateConfusionTables writes one CSV confusion matrix per model plus the
// ensemble.
func (r *Reporter) generateConfusionTables() error {
	for _, m := range r.results.Models {
		if err := writeConfusionCSV(filepath.Join(r.outputPath, "confusion_"+m.Name+".csv"), m.Confusion); err != nil {
			return err
		}
	}
	if r.results.EnsembleConfusion != nil {
		return writeConfusionCSV(filepath.Join(r.outputPath, "confusion_ensemble.csv"), r.results.EnsembleConfusion)
	}
	return nil
}

// generatePredictions writes the scoring-set predictions.
func (r *Reporter) generatePredictions() error {
	csvPath := filepath.Join(r.outputPath, "predictions.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create predictions file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Problem ID"}
	for _, m := range r.results.Models {
		header = append(header, m.Name)
	}
	header = append(header, "Ensemble")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range r.results.Scored {
		record := []string{fmt.Sprintf("%d", row.ID)}
		for _, p := range row.PerModel {
			record = append(record, p.String())
		}
		record = append(record, row.Final.String())
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Predictions generated")
	return nil
}

// generateJSONReport writes the full results as JSON.
func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "analysis_results.json")

	models := make([]map[string]interface{}, 0, len(r.results.Models))
	for _, m := range r.results.Models {
		entry := map[string]interface{}{
			"name":     m.Name,
			"accuracy": m.Accuracy,
			"error":    1 - m.Accuracy,
			"cached":   m.Cached,
		}
		if len(m.CV.Folds) > 0 {
			entry["cv_folds"] = m.CV.Folds
			entry["cv_mean"] = m.CV.Mean()
			entry["cv_stddev"] = m.CV.StdDev()
		}
		models = append(models, entry)
	}

	scored := make([]map[string]interface{}, 0, len(r.results.Scored))
	for _, row := range r.results.Scored {
		perModel := make(map[string]string, len(row.PerModel))
		for i, m := range r.results.Models {
			if i < len(row.PerModel) {
				perModel[m.Name] = row.PerModel[i].String()
			}
		}
		scored = append(scored, map[string]interface{}{
			"problem_id": row.ID,
			"per_model":  perModel,
			"final":      row.Final.String(),
		})
	}

	report := map[string]interface{}{
		"summary": map[string]interface{}{
			"start_time":        r.results.StartTime,
			"end_time":          r.results.EndTime,
			"train_rows":        r.results.TrainRows,
			"validation_rows":   r.results.ValidationRows,
			"features_kept":     len(r.results.Features),
			"pruned_features":   r.results.PrunedFeatures,
			"ensemble_accuracy": r.results.EnsembleAccuracy,
		},
		"models":       models,
		"predictions":  scored,
		"importance":   r.results.Importance,
		"generated_at": time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// generateCharts renders an HTML page with the accuracy comparison and the
// variable-importance histogram.
func (r *Reporter) generateCharts() error {
	htmlPath := filepath.Join(r.outputPath, "analysis_charts.html")

	accNames := make([]string, 0, len(r.results.Models)+1)
	accData := make([]opts.BarData, 0, len(r.results.Models)+1)
	for _, m := range r.results.Models {
		accNames = append(accNames, m.Name)
		accData = append(accData, opts.BarData{Value: m.Accuracy})
	}
	accNames = append(accNames, "weighted_ensemble")
	accData = append(accData, opts.BarData{Value: r.results.EnsembleAccuracy})

	accBar := charts.NewBar()
	accBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Model Accuracy", Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Validation Accuracy", Subtitle: fmt.Sprintf("rows=%d", r.results.ValidationRows)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "accuracy"}),
	)
	accBar.SetXAxis(accNames).
		AddSeries("accuracy", accData, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.AddCharts(accBar)

	if r.results.Importance != nil {
		top := r.results.Importance.Top(20)
		impNames := make([]string, 0, len(top))
		impData := make([]opts.BarData, 0, len(top))
		for _, fs := range top {
			impNames = append(impNames, fs.Name)
			impData = append(impData, opts.BarData{Value: fs.Score})
		}

		impBar := charts.NewBar()
		impBar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{PageTitle: "Variable Importance", Width: "1200px", Height: "600px"}),
			charts.WithTitleOpts(opts.Title{
				Title:    "Permutation Importance (top 20)",
				Subtitle: fmt.Sprintf("model=%s baseline=%.4f", r.results.Importance.Model, r.results.Importance.Baseline),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Rotate: 45}}),
		)
		impBar.SetXAxis(impNames).AddSeries("importance", impData)
		page.AddCharts(impBar)
	}

	file, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("failed to create charts file: %w", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}

	log.Info().Str("file", htmlPath).Msg("Charts generated")
	return nil
}

// writeConfusionCSV writes one confusion matrix with precision and recall
// columns. Rows are actual labels, columns predicted.
func writeConfusionCSV(path string, cm *eval.ConfusionMatrix) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create confusion matrix file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Actual \\ Predicted"}
	for _, l := range dataset.AllLabels() {
		header = append(header, l.String())
	}
	header = append(header, "Recall")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, actual := range dataset.AllLabels() {
		record := []string{actual.String()}
		for _, predicted := range dataset.AllLabels() {
			record = append(record, fmt.Sprintf("%d", cm.Counts[actual][predicted]))
		}
		record = append(record, fmt.Sprintf("%.4f", cm.Recall(actual)))
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	precision := []string{"Precision"}
	for _, l := range dataset.AllLabels() {
		precision = append(precision, fmt.Sprintf("%.4f", cm.Precision(l)))
	}
	precision = append(precision, fmt.Sprintf("%.4f", cm.Accuracy()))
	if err := writer.Write(precision); err != nil {
		return err
	}

	log.Info().Str("file", path).Msg("Confusion matrix generated")
	return nil
}

// PrintSummary prints a condensed summary to stdout.
func (r *Reporter) PrintSummary() {
	fmt.Println("\n=== ANALYSIS RESULTS ===")
	fmt.Printf("Training rows: %d  Validation rows: %d  Features: %d\n",
		r.results.TrainRows, r.results.ValidationRows, len(r.results.Features))
	for _, m := range r.results.Models {
		fmt.Printf("%-20s accuracy=%.4f\n", m.Name, m.Accuracy)
	}
	fmt.Printf("%-20s accuracy=%.4f\n", "weighted_ensemble", r.results.EnsembleAccuracy)
	if len(r.results.Scored) > 0 {
		fmt.Printf("Scored %d rows: ", len(r.results.Scored))
		for _, row := range r.results.Scored {
			fmt.Printf("%s ", row.Final)
		}
		fmt.Println()
	}
	fmt.Println("========================")
}
