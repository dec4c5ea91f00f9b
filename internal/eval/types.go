package eval

import (
	"context"
	"time"
)

// Answer variant names produced by the answerer for every question.
const (
	AnswerTypeBrief    = "brief"
	AnswerTypeDetailed = "detailed"
	AnswerTypeRaw      = "raw"
)

// AnswerTypes lists the variants in report order.
var AnswerTypes = []string{AnswerTypeBrief, AnswerTypeDetailed, AnswerTypeRaw}

// GroundTruth holds the key ideas an ideal answer should contain.
type GroundTruth struct {
	KeyIdeas []string `json:"key_ideas"`
}

// TestCase is a single evaluation case. Created at load time and never
// mutated afterwards.
type TestCase struct {
	ID          string      `json:"id"`
	Question    string      `json:"question"`
	GroundTruth GroundTruth `json:"ground_truth"`
}

// TestSuite is an ordered collection of test cases.
type TestSuite struct {
	TestCases []TestCase `json:"test_cases"`
}

// AnswerFormats carries the three answer variants produced for one question.
type AnswerFormats struct {
	Brief    string `json:"brief"`
	Detailed string `json:"detailed"`
	Raw      string `json:"raw"`
}

// Variant pairs an answer type with its text.
type Variant struct {
	Type string
	Text string
}

// Variants returns the answers in report order (brief, detailed, raw).
func (a AnswerFormats) Variants() []Variant {
	return []Variant{
		{Type: AnswerTypeBrief, Text: a.Brief},
		{Type: AnswerTypeDetailed, Text: a.Detailed},
		{Type: AnswerTypeRaw, Text: a.Raw},
	}
}

// IdeaCoverageResult reports which key ideas an answer covers.
// IdeasFound and IdeasMissing always partition the ground truth exactly.
type IdeaCoverageResult struct {
	IdeasFound    []string `json:"ideas_found"`
	IdeasMissing  []string `json:"ideas_missing"`
	CoverageScore float64  `json:"coverage_score"`
	Reasoning     string   `json:"reasoning"`
}

// AnswerEvaluation pairs one answer variant with its coverage result.
type AnswerEvaluation struct {
	AnswerType   string             `json:"answer_type"`
	AnswerText   string             `json:"answer_text"`
	IdeaCoverage IdeaCoverageResult `json:"idea_coverage"`
}

// TestCaseResult is the terminal outcome of one test case pipeline.
// Error is set exactly when the case failed, in which case Evaluations
// is empty and Answers holds blank placeholders.
type TestCaseResult struct {
	TestCaseID    string             `json:"test_case_id"`
	Question      string             `json:"question"`
	GroundTruth   GroundTruth        `json:"ground_truth"`
	Answers       AnswerFormats      `json:"answers"`
	Evaluations   []AnswerEvaluation `json:"evaluations"`
	ExecutionTime float64            `json:"execution_time"` // seconds
	Error         string             `json:"error,omitempty"`
}

// Failed reports whether the case terminated with an error.
func (r *TestCaseResult) Failed() bool {
	return r.Error != ""
}

// EvaluationReport is the complete outcome of an evaluation run.
// Successful + Failed == TotalTestCases == len(Results).
type EvaluationReport struct {
	RunID          string             `json:"run_id"`
	Timestamp      time.Time          `json:"timestamp"`
	TotalTestCases int                `json:"total_test_cases"`
	Successful     int                `json:"successful"`
	Failed         int                `json:"failed"`
	Results        []TestCaseResult   `json:"results"`
	SummaryStats   map[string]float64 `json:"summary_stats"`
}

// Answerer produces the three answer variants for a question. The runner
// treats it as an opaque collaborator; any failure is captured per case.
type Answerer interface {
	Answer(ctx context.Context, question string) (AnswerFormats, error)
}

// Judge scores one answer variant against ground truth. Implementations
// must classify every key idea into exactly one of found/missing, must
// not mutate their inputs, and must propagate errors unmodified without
// internal retries.
type Judge interface {
	Name() string

	Evaluate(ctx context.Context, answer string, gt GroundTruth, question string) (IdeaCoverageResult, error)
}

// Generator is the LLM capability consumed by judges and dataset tooling.
// It must be implemented by library consumers; an OpenAI implementation
// is provided in the internal/oai package. The returned string is the raw
// model output, expected to contain a single JSON object.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
