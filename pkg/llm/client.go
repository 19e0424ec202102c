// Package llm is the boundary to the language-model collaborator. It exposes
// a single Generate operation returning raw text that may or may not be valid
// JSON; callers own the parsing and retries. The boundary enforces its own
// per-call timeout and reports it as a timeout-class error.
package llm

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client generates raw text completions for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string, cfg GenerateConfig) (string, error)
}

// GenerateConfig carries per-call model parameters.
type GenerateConfig struct {
	Model       string
	MaxTokens   int64
	Temperature *float64
	System      string
	Timeout     time.Duration
}

// sdkClient implements Client using the official anthropic-sdk-go, with a
// shared rate limiter across all calls.
type sdkClient struct {
	client  sdk.Client
	limiter *rate.Limiter
}

// NewClient creates an SDK-backed client. requestsPerSecond <= 0 disables
// rate limiting.
func NewClient(apiKey string, requestsPerSecond float64) Client {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &sdkClient{
		client:  sdk.NewClient(option.WithAPIKey(apiKey)),
		limiter: limiter,
	}
}

func (c *sdkClient) Generate(ctx context.Context, prompt string, cfg GenerateConfig) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "llm: rate limit wait")
		}
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(cfg.Model),
		MaxTokens: cfg.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	}
	if cfg.System != "" {
		params.System = []sdk.TextBlockParam{{Text: cfg.System}}
	}
	if cfg.Temperature != nil {
		params.Temperature = sdk.Float(*cfg.Temperature)
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		if IsTimeout(err) {
			return "", &TimeoutError{Err: err}
		}
		return "", eris.Wrap(err, "llm: create message")
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "\n")

	zap.L().Debug("llm: generate complete",
		zap.String("model", cfg.Model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return text, nil
}
