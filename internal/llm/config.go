package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of generation task being performed.
type TaskType string

const (
	TaskPlan  TaskType = "plan"
	TaskTutor TaskType = "tutor"
)

// TaskConfig holds per-task generation parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// Config holds all configuration for the generation subsystem.
type Config struct {
	APIKey        string
	Endpoint      string
	Model         string
	TimeoutMs     int
	MaxAttempts   int // total attempts, retries included
	BackoffBaseMs int // first retry delay, doubled per attempt
	LogCalls      bool
	Tasks         map[TaskType]TaskConfig
}

// DefaultConfig returns a Config with sensible defaults. The API key has
// no default; without one every call fails with ErrMissingAPIKey.
func DefaultConfig() Config {
	return Config{
		Endpoint:      "https://generativelanguage.googleapis.com",
		Model:         "gemini-2.5-flash",
		TimeoutMs:     30000,
		MaxAttempts:   3,
		BackoffBaseMs: 1000,
		LogCalls:      false,
		Tasks: map[TaskType]TaskConfig{
			TaskPlan:  {Temperature: 0.3, MaxTokens: 4096, TimeoutMs: 30000},
			TaskTutor: {Temperature: 0.4, MaxTokens: 512, TimeoutMs: 15000},
		},
	}
}

// LoadConfig reads generation configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("ESTUDA_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("ESTUDA_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("ESTUDA_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("ESTUDA_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("ESTUDA_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("ESTUDA_LLM_BACKOFF_BASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BackoffBaseMs = n
		}
	}
	if v := os.Getenv("ESTUDA_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}

	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
func (c Config) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}
