package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveSuite writes a test suite to a JSON file, creating the parent
// directory if needed.
func SaveSuite(path string, suite *TestSuite) error {
	data, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal test suite: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write test suite: %w", err)
	}

	return nil
}

// DefaultSuite returns a starter suite covering the supported query
// categories, usable when no suite file is provided.
func DefaultSuite() *TestSuite {
	return &TestSuite{TestCases: []TestCase{
		{
			ID:       "usage_001",
			Question: "How do I use the PaymentButton?",
			GroundTruth: GroundTruth{KeyIdeas: []string{
				"Handles payment submission when clicked",
				"Requires a payment amount to be provided",
				"Notifies the system on success or failure",
			}},
		},
		{
			ID:       "restrictions_001",
			Question: "What are the restrictions for UserProfile?",
			GroundTruth: GroundTruth{KeyIdeas: []string{
				"Requires the user to be logged in",
				"Profile fields are validated before saving",
				"Certain fields cannot be changed after creation",
			}},
		},
		{
			ID:       "dependencies_001",
			Question: "What does LoginForm depend on?",
			GroundTruth: GroundTruth{KeyIdeas: []string{
				"Relies on the authentication service",
				"Uses shared form validation",
				"Connects to the session management feature",
			}},
		},
		{
			ID:       "business_rules_001",
			Question: "What are the business rules for CheckoutFlow?",
			GroundTruth: GroundTruth{KeyIdeas: []string{
				"A valid payment method must be selected before checkout",
				"The total amount is shown before processing",
				"Confirmation is sent after a successful order",
			}},
		},
	}}
}

const extractSystemPrompt = `You are a test case generator for an evaluation system.

Your task: Extract the key ideas from a given answer to a question.

Guidelines:
- Extract 3-7 key ideas that represent the main concepts in the answer
- Each idea should be a concise statement (5-15 words)
- Focus on the essential information, not minor details
- Ideas should be independently verifiable (can check if present/absent)
- Use business-friendly language, avoid overly technical jargon
- Each idea should represent a distinct concept

Return your extraction in JSON format:
{
  "key_ideas": [
    "First key idea here",
    "Second key idea here",
    "Third key idea here"
  ]
}`

// KeyIdeaExtractor builds ground truth for new test cases by asking an
// LLM to distill the key ideas out of a reference answer.
type KeyIdeaExtractor struct {
	generator Generator
}

// NewKeyIdeaExtractor creates an extractor backed by the given generator.
func NewKeyIdeaExtractor(gen Generator) *KeyIdeaExtractor {
	return &KeyIdeaExtractor{generator: gen}
}

// Extract returns the key ideas present in a reference answer.
func (e *KeyIdeaExtractor) Extract(ctx context.Context, question, answer string) ([]string, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("key idea extractor: generator is required")
	}

	user := fmt.Sprintf(`Question:
%s

Answer:
%s

Extract the key ideas from this answer in the specified JSON format.`, question, answer)

	response, err := e.generator.Generate(ctx, extractSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("key idea extraction failed: %w", err)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("key idea extraction: no JSON object in response: %s", response)
	}

	var parsed struct {
		KeyIdeas []string `json:"key_ideas"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("key idea extraction: failed to parse response: %w", err)
	}
	if len(parsed.KeyIdeas) == 0 {
		return nil, fmt.Errorf("key idea extraction: model returned no key ideas")
	}

	return parsed.KeyIdeas, nil
}
