package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/compasshq/compass/internal/answer"
	"github.com/compasshq/compass/internal/codex"
	"github.com/compasshq/compass/internal/eval"
	"github.com/compasshq/compass/internal/mongox"
	"github.com/compasshq/compass/internal/oai"
	reportstore "github.com/compasshq/compass/internal/report"
)

func main() {
	var (
		suitePath     = flag.String("suite", "", "Path to test suite JSON file (defaults to EVAL_TEST_CASES_PATH)")
		outputDir     = flag.String("output", "", "Directory to save the evaluation report (defaults to EVAL_RESULTS_DIR)")
		repoPath      = flag.String("repo", ".", "Path to the repository the answerer analyzes")
		limitTests    = flag.Int("limit", 0, "Limit number of test cases to run (0 = run all, useful for quick iteration)")
		maxConcurrent = flag.Int("max-concurrent", 0, "Max concurrent test case pipelines (defaults to EVAL_MAX_CONCURRENT)")
		judgeCount    = flag.Int("judges", 1, "Number of coverage judges to run per answer (majority vote when more than one)")
		saveSuite     = flag.String("save-dataset", "", "Save the default test suite to file and exit")
		extractFrom   = flag.String("extract-from", "", "Build a test suite from the raw answers in a previous report (use with -save-dataset)")
		storeReport   = flag.Bool("store", false, "Also persist the report to MongoDB (MONGO_URI)")
		verbose       = flag.Bool("v", false, "Verbose logging")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run idea coverage evaluations for the question answering pipeline.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run with the configured suite:\n")
		fmt.Fprintf(os.Stderr, "  %s\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Run a custom suite against another repository:\n")
		fmt.Fprintf(os.Stderr, "  %s -suite my_cases.json -repo ../shop-frontend\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Test the first 2 cases (quick iteration):\n")
		fmt.Fprintf(os.Stderr, "  %s -limit 2\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Save the default suite to file:\n")
		fmt.Fprintf(os.Stderr, "  %s -save-dataset test_cases.json\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Build a suite from a previous run's answers:\n")
		fmt.Fprintf(os.Stderr, "  %s -extract-from results.json -save-dataset test_cases.json\n\n", os.Args[0])
	}

	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg, err := eval.ConfigFromEnv()
	if err != nil {
		slog.Error("Invalid evaluation configuration", "error", err)
		os.Exit(1)
	}

	// Handle dataset commands
	if *extractFrom != "" {
		if *saveSuite == "" {
			slog.Error("-extract-from requires -save-dataset for the output path")
			os.Exit(1)
		}
		if err := extractSuite(ctx, *extractFrom, *saveSuite, cfg.JudgeModel); err != nil {
			slog.Error("Failed to extract test suite", "error", err)
			os.Exit(1)
		}
		slog.Info("Test suite saved successfully", "path", *saveSuite)
		return
	}

	if *saveSuite != "" {
		if err := eval.SaveSuite(*saveSuite, eval.DefaultSuite()); err != nil {
			slog.Error("Failed to save test suite", "error", err)
			os.Exit(1)
		}
		slog.Info("Test suite saved successfully", "path", *saveSuite)
		return
	}
	if *suitePath != "" {
		cfg.SuitePath = *suitePath
	}
	if *outputDir != "" {
		cfg.ResultsDir = *outputDir
	}
	if *maxConcurrent > 0 {
		cfg.MaxConcurrent = *maxConcurrent
	}
	if *judgeCount < 1 {
		slog.Error("At least one judge is required")
		os.Exit(1)
	}

	// Load test cases
	slog.Info("Loading test suite", "path", cfg.SuitePath)
	suite, err := eval.LoadSuite(cfg.SuitePath)
	if err != nil {
		slog.Error("Failed to load test suite", "error", err)
		os.Exit(1)
	}

	testCases := suite.TestCases
	slog.Info("Loaded test cases", "count", len(testCases))

	if *limitTests > 0 && *limitTests < len(testCases) {
		testCases = testCases[:*limitTests]
		slog.Info("Limited test cases for quick iteration", "running", len(testCases))
	}

	// Build the answering pipeline
	executor, err := codex.NewExecutor(*repoPath)
	if err != nil {
		slog.Error("Failed to create codex executor", "error", err)
		os.Exit(1)
	}

	svc, err := answer.NewService(
		answer.NewCodexAnalyzer(executor),
		answer.NewTranslator(oai.NewGenerator(cfg.JudgeModel)),
	)
	if err != nil {
		slog.Error("Failed to create answer service", "error", err)
		os.Exit(1)
	}

	// Build the judges
	judges := make([]eval.Judge, 0, *judgeCount)
	for i := 0; i < *judgeCount; i++ {
		judges = append(judges, eval.NewIdeaCoverageJudge(oai.NewGenerator(cfg.JudgeModel)))
	}

	opts := cfg.RunnerOptions()
	opts.OnProgress = func(completed, total int, result *eval.TestCaseResult) {
		if result.Failed() {
			slog.Info("Test case failed", "completed", completed, "total", total, "id", result.TestCaseID, "error", result.Error)
			return
		}
		slog.Info("Test case completed", "completed", completed, "total", total, "id", result.TestCaseID)
	}

	runner, err := eval.NewRunner(svc, judges, opts)
	if err != nil {
		slog.Error("Failed to create runner", "error", err)
		os.Exit(1)
	}

	// Run evaluation
	slog.Info("Starting evaluation run", "cases", len(testCases), "max_concurrent", opts.MaxConcurrent, "judges", len(judges))
	report, err := runner.Run(ctx, testCases)
	if err != nil {
		slog.Error("Evaluation run failed", "error", err)
		os.Exit(1)
	}

	// Save report
	reporter := eval.NewJSONReporter(cfg.ResultsDir)
	outputFile, err := reporter.Generate(report)
	if err != nil {
		slog.Error("Failed to save report", "error", err)
		os.Exit(1)
	}

	// Persist the report for the reports API
	if *storeReport {
		store := reportstore.NewStore(mongox.MustConnect())
		if err := store.Insert(ctx, *report); err != nil {
			slog.Error("Failed to store report", "error", err)
			os.Exit(1)
		}
		slog.Info("Report stored", "run_id", report.RunID)
	}

	// Print summary to console
	fmt.Println()
	eval.PrintSummary(report)
	fmt.Println()
	fmt.Printf("Full report saved to: %s\n", outputFile)

	// Exit with error code if cases failed
	if report.Failed > 0 {
		os.Exit(1)
	}
}

// extractSuite rebuilds ground truth from the raw answers of a previous
// run: each successful case becomes a test case whose key ideas are
// distilled by the LLM.
func extractSuite(ctx context.Context, reportPath, outPath, model string) error {
	prev, err := eval.LoadReport(reportPath)
	if err != nil {
		return err
	}

	extractor := eval.NewKeyIdeaExtractor(oai.NewGenerator(model))
	suite := &eval.TestSuite{}

	for _, res := range prev.Results {
		if res.Failed() {
			slog.Warn("Skipping failed case", "id", res.TestCaseID, "error", res.Error)
			continue
		}

		ideas, err := extractor.Extract(ctx, res.Question, res.Answers.Raw)
		if err != nil {
			return fmt.Errorf("extract key ideas for %s: %w", res.TestCaseID, err)
		}

		slog.Info("Extracted key ideas", "id", res.TestCaseID, "count", len(ideas))
		suite.TestCases = append(suite.TestCases, eval.TestCase{
			ID:          res.TestCaseID,
			Question:    res.Question,
			GroundTruth: eval.GroundTruth{KeyIdeas: ideas},
		})
	}

	if len(suite.TestCases) == 0 {
		return fmt.Errorf("no successful cases in %s to extract from", reportPath)
	}

	return eval.SaveSuite(outPath, suite)
}
