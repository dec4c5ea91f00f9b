// Package query classifies natural-language component questions and
// extracts the component name they refer to.
package query

import (
	"regexp"
	"strings"
)

// Type is the category of a component question.
type Type string

const (
	TypeUsage         Type = "usage"
	TypeRestrictions  Type = "restrictions"
	TypeDependencies  Type = "dependencies"
	TypeBusinessRules Type = "business_rules"
	TypeUnknown       Type = "unknown"
)

var usageKeywords = []string{
	"how to use", "how do i use", "how can i use",
	"example", "usage", "implement", "integrate",
	"add", "include", "setup", "configure",
}

var restrictionKeywords = []string{
	"limitation", "constraint", "restriction",
	"can't", "cannot", "can not", "doesn't",
	"requirement", "limit", "allowed",
	"prohibited", "prevent", "avoid",
}

var dependencyKeywords = []string{
	"depend", "require", "need", "import",
	"prerequisite", "must have", "relies on",
}

var businessRuleKeywords = []string{
	"business rule", "business logic",
	"validation", "validate", "rule",
	"allowed", "permitted", "workflow",
	"process", "policy",
}

var (
	quotedRe     = regexp.MustCompile(`["']([A-Z][a-zA-Z0-9_]*)["']`)
	afterWordRe  = regexp.MustCompile(`(?:the|for|about|of|use|using)\s+([A-Z][a-zA-Z0-9_]+)`)
	pascalCaseRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)+)\b`)
	midwordRe    = regexp.MustCompile(`[a-z]\s+([A-Z][a-zA-Z0-9_]{2,})\b`)
)

var phraseRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:use|using)\s+(?:the\s+)?([a-zA-Z][a-zA-Z0-9_]+)`),
	regexp.MustCompile(`(?i)(?:about|regarding)\s+(?:the\s+)?([a-zA-Z][a-zA-Z0-9_]+)`),
	regexp.MustCompile(`(?i)([a-zA-Z][a-zA-Z0-9_]+)\s+component`),
	regexp.MustCompile(`(?i)([a-zA-Z][a-zA-Z0-9_]+)\s+feature`),
}

// Parse returns the component name (empty when none is detected) and
// the query type for a natural-language question.
func Parse(q string) (component string, typ Type) {
	return ExtractComponent(q), DetectType(q)
}

// DetectType classifies the question by keyword match, first category
// wins. Questions that match nothing are treated as usage questions.
func DetectType(q string) Type {
	lower := strings.ToLower(q)

	contains := func(keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case contains(usageKeywords):
		return TypeUsage
	case contains(restrictionKeywords):
		return TypeRestrictions
	case contains(dependencyKeywords):
		return TypeDependencies
	case contains(businessRuleKeywords):
		return TypeBusinessRules
	default:
		return TypeUsage
	}
}

// ExtractComponent pulls the most likely component name out of the
// question, preferring quoted names, then names following determiners,
// then PascalCase identifiers, then capitalized words mid-sentence.
func ExtractComponent(q string) string {
	if m := quotedRe.FindStringSubmatch(q); m != nil {
		return m[1]
	}
	if m := afterWordRe.FindStringSubmatch(q); m != nil {
		return m[1]
	}
	if ms := pascalCaseRe.FindAllStringSubmatch(q, -1); len(ms) > 0 {
		longest := ms[0][1]
		for _, m := range ms[1:] {
			if len(m[1]) > len(longest) {
				longest = m[1]
			}
		}
		return longest
	}
	if m := midwordRe.FindStringSubmatch(q); m != nil {
		return m[1]
	}
	for _, re := range phraseRes {
		if m := re.FindStringSubmatch(q); m != nil {
			name := m[1]
			return strings.ToUpper(name[:1]) + name[1:]
		}
	}
	return ""
}

// Suggest returns up to five known components that fuzzily match the
// question, for "did you mean" style hints.
func Suggest(q string, available []string) []string {
	lower := strings.ToLower(q)

	var suggestions []string
	for _, component := range available {
		cl := strings.ToLower(component)
		if strings.Contains(lower, cl) {
			suggestions = append(suggestions, component)
			continue
		}
		for _, part := range strings.Split(cl, "_") {
			if part != "" && strings.Contains(lower, part) {
				suggestions = append(suggestions, component)
				break
			}
		}
	}

	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}
	return suggestions
}
