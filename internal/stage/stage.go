// Package stage implements the LLM-backed pipeline stages: component
// enrichment, ICE/EV classification, and six-dimension transition scoring.
// Each stage owns its prompt, its parse strategy, and its text-heuristic
// fallbacks; retry and sentinel policy live in internal/runner.
package stage

import (
	"context"
	"time"

	"github.com/sells-group/transition-cli/internal/model"
	"github.com/sells-group/transition-cli/pkg/llm"
)

// Client is the boundary the orchestrator depends on. Implementations must
// return an error (never a fabricated value) when the model output cannot be
// interpreted, so the runner can retry and apply sentinel policy itself.
type Client interface {
	// Enrich returns the most critical physical components for an HS code,
	// ranked by cost share (highest first).
	Enrich(ctx context.Context, hsCode, description string) ([]model.Component, error)

	// Classify labels one component as ICE_ONLY, SHARED, or EV_ONLY with a
	// 0-1 similarity score.
	Classify(ctx context.Context, component model.Component, hsCode string) (model.Classification, error)

	// Score rates one component on the six transition dimensions, 0-100 each.
	Score(ctx context.Context, component model.Component, hsCode string) (model.Score, error)
}

// Config carries the per-stage generation settings.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (c Config) generate() llm.GenerateConfig {
	temp := c.Temperature
	return llm.GenerateConfig{
		Model:       c.Model,
		MaxTokens:   int64(c.MaxTokens),
		Temperature: &temp,
		Timeout:     c.Timeout,
	}
}

// LLMClient implements Client against a raw text-generation backend.
type LLMClient struct {
	llm      llm.Client
	enricher Config
	classify Config
	scorer   Config
}

// NewLLMClient wires the three stage configs to one backend.
func NewLLMClient(backend llm.Client, enricher, classifier, scorer Config) *LLMClient {
	return &LLMClient{llm: backend, enricher: enricher, classify: classifier, scorer: scorer}
}
