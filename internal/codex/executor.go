// Package codex runs the codex CLI against a repository and extracts
// the final analysis message from its JSONL event stream.
package codex

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrTimeout indicates the codex CLI did not finish within the deadline.
	ErrTimeout = errors.New("codex query timed out")
	// ErrAuth indicates the codex CLI session is not authenticated.
	ErrAuth = errors.New("codex authentication failed")
)

const defaultTimeout = 10 * time.Minute

// Executor runs codex CLI queries in a fixed repository.
type Executor struct {
	repoPath string
	timeout  time.Duration
	bin      string
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides the default per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithBinary overrides the codex binary path.
func WithBinary(bin string) Option {
	return func(e *Executor) { e.bin = bin }
}

// NewExecutor creates an executor for the repository at repoPath.
// Authentication is handled by the CLI itself via `codex login`.
func NewExecutor(repoPath string, opts ...Option) (*Executor, error) {
	if _, err := os.Stat(repoPath); err != nil {
		return nil, fmt.Errorf("repository path does not exist: %s", repoPath)
	}

	e := &Executor{
		repoPath: repoPath,
		timeout:  defaultTimeout,
		bin:      "codex",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RepoPath returns the repository the executor analyzes.
func (e *Executor) RepoPath() string {
	return e.repoPath
}

// Run executes one analysis query and returns the agent's final message.
func (e *Executor) Run(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	slog.InfoContext(ctx, "Running codex query", "repo", e.repoPath, "timeout", e.timeout)

	cmd := exec.CommandContext(ctx, e.bin, "exec", "--json", prompt)
	cmd.Dir = e.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%w after %s; try a more specific query or increase the timeout", ErrTimeout, e.timeout)
	}
	if err != nil {
		errText := strings.TrimSpace(stderr.String())
		if looksLikeAuthFailure(errText) {
			return "", fmt.Errorf("%w: %s; run 'codex login'", ErrAuth, errText)
		}
		return "", fmt.Errorf("codex execution failed: %v: %s", err, errText)
	}

	message, err := extractMessage(stdout.Bytes())
	if err != nil {
		return "", err
	}
	return message, nil
}

func looksLikeAuthFailure(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "not logged in") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "authentication")
}

// event is a single JSONL line from the codex CLI output stream.
type event struct {
	Msg struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"msg"`
}

// extractMessage returns the last agent message from a JSONL stream.
// Lines that are not valid JSON events are skipped.
func extractMessage(output []byte) (string, error) {
	var last string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if ev.Msg.Type == "agent_message" && ev.Msg.Message != "" {
			last = ev.Msg.Message
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read codex output: %w", err)
	}

	if last == "" {
		return "", errors.New("no agent message in codex output")
	}
	return last, nil
}
