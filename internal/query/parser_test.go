package query

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectType(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Type
	}{
		{"usage phrase", "How do I use the PaymentButton?", TypeUsage},
		{"usage keyword", "Show me an example of DatePicker", TypeUsage},
		{"restrictions", "What are the limitations of UserProfile?", TypeRestrictions},
		{"restrictions negation", "Why can't the form submit twice?", TypeRestrictions},
		{"dependencies", "What does LoginForm depend on?", TypeDependencies},
		{"dependencies import", "Which packages do I need to import for Charts?", TypeDependencies},
		{"business rules", "What business rules does CheckoutFlow enforce?", TypeBusinessRules},
		{"business rules validation", "Explain the validation in OrderForm", TypeBusinessRules},
		{"unmatched falls back to usage", "Tell me more, please", TypeUsage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectType(tc.query); got != tc.want {
				t.Errorf("DetectType(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestDetectType_FirstCategoryWins(t *testing.T) {
	// "usage" matches before "validation" even though both appear.
	if got := DetectType("usage and validation of CheckoutFlow"); got != TypeUsage {
		t.Errorf("got %q, want %q", got, TypeUsage)
	}
}

func TestExtractComponent(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"quoted name", `How do I use "PaymentButton" here?`, "PaymentButton"},
		{"after determiner", "What are the limitations of the UserProfile?", "UserProfile"},
		{"pascal case longest", "Does LoginForm share code with CheckoutFlowStepper?", "CheckoutFlowStepper"},
		{"capitalized mid sentence", "What does the widget FOO_BAR require?", "FOO_BAR"},
		{"component phrase", "tell me something related to checkout component", "Checkout"},
		{"nothing found", "how does routing work here", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractComponent(tc.query); got != tc.want {
				t.Errorf("ExtractComponent(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	component, typ := Parse("What does the LoginForm depend on?")
	if component != "LoginForm" {
		t.Errorf("component = %q, want LoginForm", component)
	}
	if typ != TypeDependencies {
		t.Errorf("type = %q, want %q", typ, TypeDependencies)
	}
}

func TestSuggest(t *testing.T) {
	available := []string{"payment_button", "user_profile", "login_form", "checkout_flow"}

	got := Suggest("something about the payment flow", available)
	want := []string{"payment_button", "checkout_flow"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}

	if got := Suggest("nothing relevant here", available); got != nil {
		t.Errorf("expected no suggestions, got %v", got)
	}
}

func TestTemplate(t *testing.T) {
	for _, typ := range []Type{TypeUsage, TypeRestrictions, TypeDependencies, TypeBusinessRules} {
		t.Run(string(typ), func(t *testing.T) {
			prompt := Template(typ, "PaymentButton", "/repo")
			if !strings.Contains(prompt, "PaymentButton") {
				t.Errorf("prompt does not mention the component:\n%s", prompt)
			}
			if !strings.Contains(prompt, "/repo") {
				t.Errorf("prompt does not mention the repo path:\n%s", prompt)
			}
		})
	}

	// Unknown types fall back to the usage template.
	if got, want := Template(TypeUnknown, "X", "/r"), Template(TypeUsage, "X", "/r"); got != want {
		t.Error("unknown type should use the usage template")
	}
}

func TestDescribe(t *testing.T) {
	if Describe(TypeUsage) == Describe(TypeUnknown) {
		t.Error("usage description should differ from the fallback")
	}
}
