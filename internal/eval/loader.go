package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// Raw document shapes with pointer fields so that absent and mistyped
// fields can be told apart from empty ones during validation.
type suiteDoc struct {
	TestCases *[]caseDoc `json:"test_cases"`
}

type caseDoc struct {
	ID          *string         `json:"id"`
	Question    *string         `json:"question"`
	GroundTruth *groundTruthDoc `json:"ground_truth"`
}

type groundTruthDoc struct {
	KeyIdeas *[]string `json:"key_ideas"`
}

// LoadSuite reads and validates a test suite from a JSON file.
// A missing file yields an error wrapping ErrNotFound; a malformed or
// mistyped document yields a *SchemaError. The loader has no side
// effects beyond reading the file.
func LoadSuite(path string) (*TestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read test suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite validates a raw test suite document.
func ParseSuite(data []byte) (*TestSuite, error) {
	var doc suiteDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Field: "test_cases", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if doc.TestCases == nil {
		return nil, &SchemaError{Field: "test_cases", Reason: "required field is missing"}
	}

	suite := &TestSuite{TestCases: make([]TestCase, 0, len(*doc.TestCases))}
	seen := make(map[string]int, len(*doc.TestCases))

	for i, tc := range *doc.TestCases {
		field := func(name string) string { return fmt.Sprintf("test_cases[%d].%s", i, name) }

		if tc.ID == nil || *tc.ID == "" {
			return nil, &SchemaError{Field: field("id"), Reason: "required field is missing or empty"}
		}
		if tc.Question == nil || *tc.Question == "" {
			return nil, &SchemaError{Field: field("question"), Reason: "required field is missing or empty"}
		}
		if tc.GroundTruth == nil {
			return nil, &SchemaError{Field: field("ground_truth"), Reason: "required field is missing"}
		}
		if tc.GroundTruth.KeyIdeas == nil {
			return nil, &SchemaError{Field: field("ground_truth.key_ideas"), Reason: "required field is missing"}
		}
		if prev, dup := seen[*tc.ID]; dup {
			return nil, &SchemaError{
				Field:  field("id"),
				Reason: fmt.Sprintf("duplicate id %q, first used by test_cases[%d]", *tc.ID, prev),
			}
		}
		seen[*tc.ID] = i

		ideas := make([]string, len(*tc.GroundTruth.KeyIdeas))
		copy(ideas, *tc.GroundTruth.KeyIdeas)

		suite.TestCases = append(suite.TestCases, TestCase{
			ID:          *tc.ID,
			Question:    *tc.Question,
			GroundTruth: GroundTruth{KeyIdeas: ideas},
		})
	}

	return suite, nil
}
