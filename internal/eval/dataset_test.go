package eval

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeyIdeaExtractor_Extract(t *testing.T) {
	ctx := context.Background()

	gen := &stubGenerator{response: `{"key_ideas": ["Handles payment submission", "Validates card info", "Shows loading state"]}`}
	extractor := NewKeyIdeaExtractor(gen)

	ideas, err := extractor.Extract(ctx, "How does PaymentButton work?", "It submits payments, validates cards and shows a spinner.")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"Handles payment submission", "Validates card info", "Shows loading state"}
	if diff := cmp.Diff(want, ideas); diff != "" {
		t.Errorf("key ideas mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(gen.lastUser, "How does PaymentButton work?") {
		t.Errorf("extraction prompt missing question:\n%s", gen.lastUser)
	}
}

func TestKeyIdeaExtractor_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{name: "no JSON", gen: &stubGenerator{response: "sorry"}},
		{name: "empty ideas", gen: &stubGenerator{response: `{"key_ideas": []}`}},
		{name: "wrong shape", gen: &stubGenerator{response: `{"key_ideas": "one idea"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewKeyIdeaExtractor(tt.gen)
			if _, err := extractor.Extract(ctx, "q", "a"); err == nil {
				t.Error("Extract() should fail")
			}
		})
	}

	t.Run("nil generator", func(t *testing.T) {
		extractor := NewKeyIdeaExtractor(nil)
		if _, err := extractor.Extract(ctx, "q", "a"); err == nil {
			t.Error("Extract() should fail without a generator")
		}
	})
}
