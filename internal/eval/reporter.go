package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reporter persists a completed evaluation report and returns the
// location it was written to. Reporters only read the report.
type Reporter interface {
	Generate(report *EvaluationReport) (string, error)
}

// JSONReporter writes reports as indented JSON files into an output
// directory, one file per run, named after the report timestamp.
type JSONReporter struct {
	outputDir string
}

// NewJSONReporter creates a reporter writing into outputDir. The
// directory is created on first use.
func NewJSONReporter(outputDir string) *JSONReporter {
	return &JSONReporter{outputDir: outputDir}
}

// ReportFileName derives the deterministic report file name from the
// report timestamp.
func ReportFileName(ts time.Time) string {
	return ts.Format("20060102_150405") + "_evaluation_results.json"
}

// Generate persists the report and returns the file path. A report with
// empty summary stats (every case failed) is still written; partial
// statistics are not an error.
func (r *JSONReporter) Generate(report *EvaluationReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(r.outputDir, ReportFileName(report.Timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// LoadReport reads a previously written report back from disk.
func LoadReport(path string) (*EvaluationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report EvaluationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report JSON: %w", err)
	}

	return &report, nil
}

// PrintSummary renders a human-readable summary of the report to stdout.
func PrintSummary(report *EvaluationReport) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Evaluation Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total test cases:  %d\n", report.TotalTestCases)
	fmt.Printf("Successful:        %d\n", report.Successful)
	fmt.Printf("Failed:            %d\n", report.Failed)
	if report.TotalTestCases > 0 {
		fmt.Printf("Success rate:      %.1f%%\n",
			float64(report.Successful)/float64(report.TotalTestCases)*100)
	}
	fmt.Println()

	printedHeader := false
	for _, answerType := range AnswerTypes {
		avg, ok := report.SummaryStats[answerType+"_avg_coverage"]
		if !ok {
			continue
		}
		if !printedHeader {
			fmt.Println("Idea Coverage:")
			fmt.Println(strings.Repeat("-", 60))
			printedHeader = true
		}
		fmt.Printf("  %-10s avg %.2f%%  min %.2f%%  max %.2f%%\n",
			answerType,
			avg*100,
			report.SummaryStats[answerType+"_min_coverage"]*100,
			report.SummaryStats[answerType+"_max_coverage"]*100)
	}
	if printedHeader {
		fmt.Println()
	}

	if avgTime, ok := report.SummaryStats["avg_execution_time"]; ok {
		fmt.Printf("Average execution time: %.2fs\n\n", avgTime)
	}

	var failed []*TestCaseResult
	for i := range report.Results {
		if report.Results[i].Failed() {
			failed = append(failed, &report.Results[i])
		}
	}
	if len(failed) > 0 {
		fmt.Println("Failed Test Cases:")
		fmt.Println(strings.Repeat("-", 60))
		for _, res := range failed {
			fmt.Printf("  - [%s] %s\n", res.TestCaseID, res.Error)
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 60))
}
