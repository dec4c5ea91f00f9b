package eval

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadSuite_MissingFile(t *testing.T) {
	_, err := LoadSuite(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSuite() error = %v, want ErrNotFound", err)
	}
}

func TestParseSuite(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantCases int
		wantField string // non-empty means a SchemaError on this field is expected
	}{
		{
			name: "valid suite",
			doc: `{"test_cases": [
				{"id": "001", "question": "How does PaymentButton work?",
				 "ground_truth": {"key_ideas": ["Handles payment submission", "Validates card info"]}}
			]}`,
			wantCases: 1,
		},
		{
			name:      "empty suite is valid",
			doc:       `{"test_cases": []}`,
			wantCases: 0,
		},
		{
			name: "empty key ideas are valid",
			doc: `{"test_cases": [
				{"id": "001", "question": "q", "ground_truth": {"key_ideas": []}}
			]}`,
			wantCases: 1,
		},
		{
			name:      "missing test_cases",
			doc:       `{}`,
			wantField: "test_cases",
		},
		{
			name:      "not JSON at all",
			doc:       `test_cases: nope`,
			wantField: "test_cases",
		},
		{
			name:      "missing id",
			doc:       `{"test_cases": [{"question": "q", "ground_truth": {"key_ideas": []}}]}`,
			wantField: "test_cases[0].id",
		},
		{
			name:      "empty id",
			doc:       `{"test_cases": [{"id": "", "question": "q", "ground_truth": {"key_ideas": []}}]}`,
			wantField: "test_cases[0].id",
		},
		{
			name:      "missing question",
			doc:       `{"test_cases": [{"id": "001", "ground_truth": {"key_ideas": []}}]}`,
			wantField: "test_cases[0].question",
		},
		{
			name:      "missing ground_truth",
			doc:       `{"test_cases": [{"id": "001", "question": "q"}]}`,
			wantField: "test_cases[0].ground_truth",
		},
		{
			name:      "missing key_ideas",
			doc:       `{"test_cases": [{"id": "001", "question": "q", "ground_truth": {}}]}`,
			wantField: "test_cases[0].ground_truth.key_ideas",
		},
		{
			name:      "mistyped id",
			doc:       `{"test_cases": [{"id": 42, "question": "q", "ground_truth": {"key_ideas": []}}]}`,
			wantField: "test_cases",
		},
		{
			name: "duplicate ids",
			doc: `{"test_cases": [
				{"id": "001", "question": "q1", "ground_truth": {"key_ideas": []}},
				{"id": "001", "question": "q2", "ground_truth": {"key_ideas": []}}
			]}`,
			wantField: "test_cases[1].id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suite, err := ParseSuite([]byte(tt.doc))

			if tt.wantField != "" {
				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("ParseSuite() error = %v, want *SchemaError", err)
				}
				if schemaErr.Field != tt.wantField {
					t.Errorf("SchemaError.Field = %q, want %q", schemaErr.Field, tt.wantField)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseSuite() error = %v", err)
			}
			if len(suite.TestCases) != tt.wantCases {
				t.Errorf("len(TestCases) = %d, want %d", len(suite.TestCases), tt.wantCases)
			}
		})
	}
}

func TestSaveAndLoadSuite(t *testing.T) {
	suite := DefaultSuite()

	path := filepath.Join(t.TempDir(), "suites", "cases.json")
	if err := SaveSuite(path, suite); err != nil {
		t.Fatalf("SaveSuite() error = %v", err)
	}

	loaded, err := LoadSuite(path)
	if err != nil {
		t.Fatalf("LoadSuite() error = %v", err)
	}

	if diff := cmp.Diff(suite, loaded); diff != "" {
		t.Errorf("suite round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultSuite(t *testing.T) {
	suite := DefaultSuite()
	if len(suite.TestCases) == 0 {
		t.Fatal("default suite should not be empty")
	}

	seen := make(map[string]bool)
	for _, tc := range suite.TestCases {
		if tc.ID == "" || tc.Question == "" {
			t.Errorf("test case %+v is missing required fields", tc)
		}
		if seen[tc.ID] {
			t.Errorf("duplicate id %q in default suite", tc.ID)
		}
		seen[tc.ID] = true
		if len(tc.GroundTruth.KeyIdeas) == 0 {
			t.Errorf("test case %s has no key ideas", tc.ID)
		}
	}
}
