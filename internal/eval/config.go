package eval

import (
	"os"
	"strconv"
	"time"
)

// Defaults for evaluation configuration.
const (
	DefaultJudgeModel    = "gpt-5-nano"
	DefaultSuitePath     = "evaluation_data/test_cases.json"
	DefaultResultsDir    = "evaluation_results"
	DefaultMaxConcurrent = 3
	DefaultTimeout       = 15 * time.Minute
)

// Config holds evaluation settings loaded from EVAL_-prefixed
// environment variables.
type Config struct {
	// JudgeModel is the model the idea coverage judge uses.
	JudgeModel string

	// SuitePath is the test suite document to load.
	SuitePath string

	// ResultsDir is where report files are written.
	ResultsDir string

	// MaxConcurrent bounds concurrent test case pipelines.
	MaxConcurrent int

	// Timeout is the per-case deadline.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts per failed case.
	MaxRetries int
}

// ConfigFromEnv loads the evaluation configuration, applying defaults
// for unset variables. Invalid values are fatal before any case runs.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		JudgeModel:    DefaultJudgeModel,
		SuitePath:     DefaultSuitePath,
		ResultsDir:    DefaultResultsDir,
		MaxConcurrent: DefaultMaxConcurrent,
		Timeout:       DefaultTimeout,
	}

	if v := os.Getenv("EVAL_JUDGE_MODEL"); v != "" {
		cfg.JudgeModel = v
	}
	if v := os.Getenv("EVAL_TEST_CASES_PATH"); v != "" {
		cfg.SuitePath = v
	}
	if v := os.Getenv("EVAL_RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}

	if v := os.Getenv("EVAL_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, &ConfigError{Setting: "EVAL_MAX_CONCURRENT", Reason: "must be a positive integer"}
		}
		cfg.MaxConcurrent = n
	}

	if v := os.Getenv("EVAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, &ConfigError{Setting: "EVAL_TIMEOUT", Reason: "must be a positive duration, e.g. 15m"}
		}
		cfg.Timeout = d
	}

	if v := os.Getenv("EVAL_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &ConfigError{Setting: "EVAL_MAX_RETRIES", Reason: "must be a non-negative integer"}
		}
		cfg.MaxRetries = n
	}

	return cfg, nil
}

// RunnerOptions translates the config into runner options.
func (c *Config) RunnerOptions() RunnerOptions {
	return RunnerOptions{
		MaxConcurrent: c.MaxConcurrent,
		Timeout:       c.Timeout,
		MaxRetries:    c.MaxRetries,
	}
}
