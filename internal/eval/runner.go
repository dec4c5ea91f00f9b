package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/compasshq/compass/internal/eval"

// RunnerOptions controls execution behavior of a Runner.
type RunnerOptions struct {
	// MaxConcurrent bounds the number of test cases in flight at once.
	MaxConcurrent int

	// Timeout is the per-case deadline covering the answerer call and all
	// judge calls for that case. Zero disables the deadline.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts for a failed case before
	// its error is recorded. Zero means a single attempt.
	MaxRetries int

	// OnProgress, when set, is invoked once per case as it reaches a
	// terminal state, in completion order.
	OnProgress func(completed, total int, result *TestCaseResult)
}

// DefaultRunnerOptions returns production defaults.
func DefaultRunnerOptions() RunnerOptions {
	return RunnerOptions{MaxConcurrent: 3}
}

// Runner orchestrates the evaluation pipeline: it drives every test case
// through the answerer and the configured judges under a concurrency
// limit, isolating per-case failures so no single case aborts the run.
type Runner struct {
	answerer Answerer
	judges   []Judge
	opts     RunnerOptions
}

// NewRunner creates an evaluation runner. At least one judge and an
// answerer are required; both being wired wrong is a configuration
// mistake, not a per-case failure, so it surfaces here.
func NewRunner(answerer Answerer, judges []Judge, opts ...RunnerOptions) (*Runner, error) {
	o := DefaultRunnerOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultRunnerOptions().MaxConcurrent
	}
	if answerer == nil {
		return nil, &ConfigError{Setting: "answerer", Reason: "an answerer is required"}
	}
	if len(judges) == 0 {
		return nil, &ConfigError{Setting: "judges", Reason: "at least one judge is required"}
	}
	if o.MaxRetries < 0 {
		return nil, &ConfigError{Setting: "max_retries", Reason: "must not be negative"}
	}
	return &Runner{answerer: answerer, judges: judges, opts: o}, nil
}

// Run evaluates all test cases and returns the complete report. Results
// are collected in completion order and then laid out in input order, so
// the report is deterministic regardless of scheduling. The returned
// error covers only orchestration-level failures; individual case
// failures are captured in their results.
func (r *Runner) Run(ctx context.Context, testCases []TestCase) (*EvaluationReport, error) {
	start := time.Now().UTC().Truncate(time.Second)

	slog.InfoContext(ctx, "Starting evaluation run",
		"total_tests", len(testCases),
		"max_concurrent", r.opts.MaxConcurrent,
		"judges", len(r.judges))

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Runner.Run",
		trace.WithAttributes(attribute.Int("eval.test_cases", len(testCases))))
	defer span.End()

	type indexed struct {
		idx    int
		result TestCaseResult
	}

	sem := make(chan struct{}, r.opts.MaxConcurrent)
	out := make(chan indexed)

	var wg sync.WaitGroup
	for i, tc := range testCases {
		wg.Add(1)
		go func(idx int, tc TestCase) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out <- indexed{idx: idx, result: r.runTestCase(ctx, tc)}
		}(i, tc)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]TestCaseResult, len(testCases))
	completed := 0
	for ir := range out {
		results[ir.idx] = ir.result
		completed++

		slog.InfoContext(ctx, "Test case finished",
			"id", ir.result.TestCaseID,
			"progress", fmt.Sprintf("%d/%d", completed, len(testCases)),
			"failed", ir.result.Failed())

		if r.opts.OnProgress != nil {
			r.opts.OnProgress(completed, len(testCases), &results[ir.idx])
		}
	}

	successful := 0
	for i := range results {
		if !results[i].Failed() {
			successful++
		}
	}

	report := &EvaluationReport{
		RunID:          uuid.NewString(),
		Timestamp:      start,
		TotalTestCases: len(testCases),
		Successful:     successful,
		Failed:         len(testCases) - successful,
		Results:        results,
		SummaryStats:   summaryStats(results),
	}

	span.SetAttributes(
		attribute.Int("eval.successful", report.Successful),
		attribute.Int("eval.failed", report.Failed),
	)
	span.SetStatus(codes.Ok, "evaluation completed")

	slog.InfoContext(ctx, "Evaluation run completed",
		"run_id", report.RunID,
		"total", report.TotalTestCases,
		"successful", report.Successful,
		"failed", report.Failed)

	return report, nil
}

// runTestCase drives one case to a terminal state. Every error from the
// answerer or a judge, including panics, is captured into the result so
// sibling cases keep running.
func (r *Runner) runTestCase(ctx context.Context, tc TestCase) TestCaseResult {
	start := time.Now()

	var (
		answers     AnswerFormats
		evaluations []AnswerEvaluation
		err         error
	)

	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.WarnContext(ctx, "Retrying test case", "id", tc.ID, "attempt", attempt+1, "error", err)
		}
		answers, evaluations, err = r.attempt(ctx, tc)
		if err == nil {
			break
		}
	}

	elapsed := time.Since(start).Seconds()

	if err != nil {
		return TestCaseResult{
			TestCaseID:    tc.ID,
			Question:      tc.Question,
			GroundTruth:   tc.GroundTruth,
			Answers:       AnswerFormats{},
			Evaluations:   []AnswerEvaluation{},
			ExecutionTime: elapsed,
			Error:         err.Error(),
		}
	}

	return TestCaseResult{
		TestCaseID:    tc.ID,
		Question:      tc.Question,
		GroundTruth:   tc.GroundTruth,
		Answers:       answers,
		Evaluations:   evaluations,
		ExecutionTime: elapsed,
	}
}

// attempt runs the per-case pipeline once: answer, then judge each
// variant with every configured judge concurrently.
func (r *Runner) attempt(ctx context.Context, tc TestCase) (answers AnswerFormats, evaluations []AnswerEvaluation, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			answers = AnswerFormats{}
			evaluations = nil
			err = fmt.Errorf("panic during evaluation: %v", rec)
		}
	}()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	answers, err = r.answerer.Answer(ctx, tc.Question)
	if err != nil {
		return AnswerFormats{}, nil, err
	}

	evaluations = make([]AnswerEvaluation, 0, len(AnswerTypes))
	for _, v := range answers.Variants() {
		verdicts := make([]IdeaCoverageResult, len(r.judges))

		g, gctx := errgroup.WithContext(ctx)
		for i, judge := range r.judges {
			g.Go(func() error {
				res, jerr := judge.Evaluate(gctx, v.Text, tc.GroundTruth, tc.Question)
				if jerr != nil {
					return jerr
				}
				verdicts[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return AnswerFormats{}, nil, err
		}

		evaluations = append(evaluations, AnswerEvaluation{
			AnswerType:   v.Type,
			AnswerText:   v.Text,
			IdeaCoverage: r.mergeVerdicts(tc.GroundTruth, verdicts),
		})
	}

	return answers, evaluations, nil
}

// mergeVerdicts combines the judges' results for one variant into a
// single coverage result. With one judge its verdict is used as-is.
// With several, a key idea counts as found only when a strict majority
// of judges found it; ties count as missing. The merged score is always
// recomputed from the merged partition.
func (r *Runner) mergeVerdicts(gt GroundTruth, verdicts []IdeaCoverageResult) IdeaCoverageResult {
	if len(verdicts) == 1 {
		return verdicts[0]
	}

	votes := make(map[string]int, len(gt.KeyIdeas))
	for _, v := range verdicts {
		for _, idea := range v.IdeasFound {
			votes[idea]++
		}
	}

	found := make([]string, 0, len(gt.KeyIdeas))
	missing := make([]string, 0, len(gt.KeyIdeas))
	for _, idea := range gt.KeyIdeas {
		if votes[idea]*2 > len(verdicts) {
			found = append(found, idea)
		} else {
			missing = append(missing, idea)
		}
	}

	reasons := make([]string, 0, len(verdicts))
	for i, v := range verdicts {
		reasons = append(reasons, fmt.Sprintf("%s: %s", r.judges[i].Name(), v.Reasoning))
	}

	score := 0.0
	if len(gt.KeyIdeas) > 0 {
		score = float64(len(found)) / float64(len(gt.KeyIdeas))
	}

	return IdeaCoverageResult{
		IdeasFound:    found,
		IdeasMissing:  missing,
		CoverageScore: score,
		Reasoning:     strings.Join(reasons, " | "),
	}
}

// summaryStats computes aggregate metrics over successful cases only.
// Variants with no successful evaluations contribute no keys at all.
func summaryStats(results []TestCaseResult) map[string]float64 {
	stats := make(map[string]float64)

	for _, answerType := range AnswerTypes {
		var scores []float64
		for i := range results {
			if results[i].Failed() {
				continue
			}
			for _, ev := range results[i].Evaluations {
				if ev.AnswerType == answerType {
					scores = append(scores, ev.IdeaCoverage.CoverageScore)
				}
			}
		}
		if len(scores) == 0 {
			continue
		}

		sum, min, max := 0.0, scores[0], scores[0]
		for _, s := range scores {
			sum += s
			if s < min {
				min = s
			}
			if s > max {
				max = s
			}
		}
		stats[answerType+"_avg_coverage"] = sum / float64(len(scores))
		stats[answerType+"_min_coverage"] = min
		stats[answerType+"_max_coverage"] = max
	}

	var execTimes []float64
	for i := range results {
		if !results[i].Failed() {
			execTimes = append(execTimes, results[i].ExecutionTime)
		}
	}
	if len(execTimes) > 0 {
		sum := 0.0
		for _, t := range execTimes {
			sum += t
		}
		stats["avg_execution_time"] = sum / float64(len(execTimes))
	}

	return stats
}
