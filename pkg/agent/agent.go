// Package agent runs the LLM-backed stages of the edital pipeline: structure
// analysis, per-lot detail extraction, registry (matrícula) extraction and
// cross-validation.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"leilaoai/pkg/ai"
)

var (
	// ErrNotConfigured is returned by every stage when no LLM is available.
	ErrNotConfigured = errors.New("llm not configured")
	// ErrExtractionFailed wraps empty, non-JSON or invalid model output.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Agent holds the LLM boundary shared by all pipeline stages.
type Agent struct {
	gen         ai.JSONGenerator
	logger      *slog.Logger
	concurrency int
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger used for contained failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithConcurrency bounds parallel lot extractions. Zero or less means one
// goroutine per lot.
func WithConcurrency(n int) Option {
	return func(a *Agent) { a.concurrency = n }
}

// New builds an Agent. A nil generator yields an agent whose stages all
// return ErrNotConfigured.
func New(gen ai.JSONGenerator, opts ...Option) *Agent {
	a := &Agent{gen: gen, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether an LLM backend is wired.
func (a *Agent) Configured() bool {
	return a != nil && a.gen != nil
}

// generate sends the prompts and decodes the JSON answer into out.
func (a *Agent) generate(ctx context.Context, stage, system, user string, out any) error {
	if !a.Configured() {
		return ErrNotConfigured
	}
	raw, err := a.gen.GenerateJSON(ctx, system, user)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", stage, ErrExtractionFailed, err)
	}
	payload := extractJSON(raw)
	if payload == "" {
		return fmt.Errorf("%s: %w: empty response", stage, ErrExtractionFailed)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%s: %w: decode json: %v", stage, ErrExtractionFailed, err)
	}
	return nil
}

// extractJSON strips markdown code fences and any prose around the outermost
// JSON object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
