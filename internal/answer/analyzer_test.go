package answer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/compasshq/compass/internal/codex"
)

// fakeCodex writes a stub codex binary that reports which kind of
// prompt it received.
func fakeCodex(t *testing.T) string {
	t.Helper()

	script := `#!/bin/sh
case "$3" in
  *"Analyze this codebase"*) msg="generic" ;;
  *"component in the repository at"*) msg="usage-template" ;;
  *) msg="other-template" ;;
esac
echo "{\"msg\":{\"type\":\"agent_message\",\"message\":\"$msg\"}}"
`

	path := filepath.Join(t.TempDir(), "codex")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCodexAnalyzer_PromptSelection(t *testing.T) {
	exec, err := codex.NewExecutor(t.TempDir(), codex.WithBinary(fakeCodex(t)))
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	analyzer := NewCodexAnalyzer(exec)
	ctx := context.Background()

	t.Run("component question uses the typed template", func(t *testing.T) {
		out, err := analyzer.Analyze(ctx, "How do I use the PaymentButton?")
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if out != "usage-template" {
			t.Errorf("got %q, want the usage template prompt", out)
		}
	})

	t.Run("free-form question passes through verbatim", func(t *testing.T) {
		out, err := analyzer.Analyze(ctx, "how does routing work here")
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if out != "generic" {
			t.Errorf("got %q, want the generic prompt", out)
		}
	})
}
