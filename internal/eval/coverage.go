package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const coverageSystemPrompt = `You are an evaluation judge for a component query system.

Your task: Check whether specific key ideas appear in the given answer.

For each key idea, determine if it is PRESENT or ABSENT in the answer.
- PRESENT: The idea is clearly expressed, even if using different words
- ABSENT: The idea is not mentioned or cannot be inferred

Be lenient with paraphrasing but strict about actual presence of the concept.

Return your evaluation in JSON format:
{
  "ideas_found": ["idea 1", "idea 2", ...],
  "ideas_missing": ["idea 3", ...],
  "reasoning": "Brief explanation of your judgment"
}`

// IdeaCoverageJudge is an LLM-backed judge that checks which ground
// truth key ideas appear in an answer. The LLM classifies each idea;
// the judge then normalizes its output so that found and missing ideas
// always partition the ground truth exactly, and the coverage score is
// always recomputed rather than trusted from the model.
type IdeaCoverageJudge struct {
	generator Generator
}

// NewIdeaCoverageJudge creates a judge backed by the given generator.
func NewIdeaCoverageJudge(gen Generator) *IdeaCoverageJudge {
	return &IdeaCoverageJudge{generator: gen}
}

// Name returns the judge's name.
func (j *IdeaCoverageJudge) Name() string {
	return "idea_coverage"
}

// Evaluate classifies every key idea as found or missing in the answer.
// Errors from the generator propagate unmodified apart from wrapping;
// the judge never retries.
func (j *IdeaCoverageJudge) Evaluate(ctx context.Context, answer string, gt GroundTruth, question string) (IdeaCoverageResult, error) {
	if j.generator == nil {
		return IdeaCoverageResult{}, fmt.Errorf("idea coverage judge: generator is required")
	}

	if len(gt.KeyIdeas) == 0 {
		return IdeaCoverageResult{
			IdeasFound:    []string{},
			IdeasMissing:  []string{},
			CoverageScore: 0.0,
			Reasoning:     "no key ideas to check",
		}, nil
	}

	response, err := j.generator.Generate(ctx, coverageSystemPrompt, buildCoveragePrompt(question, answer, gt.KeyIdeas))
	if err != nil {
		return IdeaCoverageResult{}, fmt.Errorf("idea coverage judge: %w", err)
	}

	verdict, err := parseCoverageResponse(response)
	if err != nil {
		return IdeaCoverageResult{}, err
	}

	return normalizeCoverage(gt, verdict), nil
}

func buildCoveragePrompt(question, answer string, keyIdeas []string) string {
	var ideas strings.Builder
	for i, idea := range keyIdeas {
		fmt.Fprintf(&ideas, "%d. %s\n", i+1, idea)
	}

	return fmt.Sprintf(`Original Question:
%s

Answer to Evaluate:
%s

Key Ideas to Check:
%s
For each key idea above, determine if it is present in the answer.
Return your evaluation in the specified JSON format.`, question, answer, ideas.String())
}

type coverageVerdict struct {
	IdeasFound   []string `json:"ideas_found"`
	IdeasMissing []string `json:"ideas_missing"`
	Reasoning    string   `json:"reasoning"`
}

// parseCoverageResponse extracts the verdict JSON object from the raw
// model output, tolerating extra text around it.
func parseCoverageResponse(response string) (coverageVerdict, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return coverageVerdict{}, fmt.Errorf("idea coverage judge: no JSON object in response: %s", response)
	}

	var verdict coverageVerdict
	if err := json.Unmarshal([]byte(response[start:end+1]), &verdict); err != nil {
		return coverageVerdict{}, fmt.Errorf("idea coverage judge: failed to parse response: %w", err)
	}
	return verdict, nil
}

// normalizeCoverage maps the model's free-form classification back onto
// the actual key ideas. Found ideas are those the model listed as found
// (matched case-insensitively after trimming); everything else is
// missing. The result preserves ground truth order and partitions it
// exactly, regardless of what the model returned.
func normalizeCoverage(gt GroundTruth, verdict coverageVerdict) IdeaCoverageResult {
	foundSet := make(map[string]bool, len(verdict.IdeasFound))
	for _, idea := range verdict.IdeasFound {
		foundSet[canonicalIdea(idea)] = true
	}

	found := make([]string, 0, len(gt.KeyIdeas))
	missing := make([]string, 0, len(gt.KeyIdeas))
	for _, idea := range gt.KeyIdeas {
		if foundSet[canonicalIdea(idea)] {
			found = append(found, idea)
		} else {
			missing = append(missing, idea)
		}
	}

	score := 0.0
	if len(gt.KeyIdeas) > 0 {
		score = float64(len(found)) / float64(len(gt.KeyIdeas))
	}

	return IdeaCoverageResult{
		IdeasFound:    found,
		IdeasMissing:  missing,
		CoverageScore: score,
		Reasoning:     verdict.Reasoning,
	}
}

func canonicalIdea(idea string) string {
	return strings.ToLower(strings.TrimSpace(idea))
}
