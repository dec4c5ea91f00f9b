package answer

import (
	"context"
	"fmt"

	"github.com/compasshq/compass/internal/codex"
	"github.com/compasshq/compass/internal/query"
)

const analyzerPromptFormat = `Analyze this codebase to answer the following question:

%s

Provide a comprehensive technical analysis including:
- Relevant file paths and code locations
- Code examples and usage patterns
- Dependencies and imports
- Technical constraints and limitations
- Implementation details

Focus on being thorough and accurate. Include actual code snippets from the repository.`

// Analyzer produces a raw technical analysis for a question about a
// codebase.
type Analyzer interface {
	Analyze(ctx context.Context, question string) (string, error)
}

// CodexAnalyzer answers questions by handing them to the codex CLI.
// Questions that clearly name a component get the prompt tailored to
// their query type, everything else is passed through verbatim so
// codex can identify the relevant code itself.
type CodexAnalyzer struct {
	exec *codex.Executor
}

func NewCodexAnalyzer(exec *codex.Executor) *CodexAnalyzer {
	return &CodexAnalyzer{exec: exec}
}

func (a *CodexAnalyzer) Analyze(ctx context.Context, question string) (string, error) {
	component, queryType := query.Parse(question)

	prompt := fmt.Sprintf(analyzerPromptFormat, question)
	if component != "" {
		prompt = query.Template(queryType, component, a.exec.RepoPath())
	}

	out, err := a.exec.Run(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("codex analysis: %w", err)
	}
	return out, nil
}
