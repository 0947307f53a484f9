package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Gateway walks an ordered model chain per tier, falling through to the
// next model when one fails or answers empty. The chain order is the
// config order; there is no health scoring beyond "last call failed".
type Gateway struct {
	client     Client
	freeModels []string
	premModels []string

	temperature float64
	maxTokens   int
	maxRetries  int
}

// NewGateway builds a gateway from config using the OpenRouter client.
func NewGateway(cfg config.LLMConfig, maxRetries int) *Gateway {
	return NewGatewayWithClient(
		NewOpenRouterClient(cfg.BaseURL, cfg.APIKey, cfg.TimeoutDuration()),
		cfg, maxRetries,
	)
}

// NewGatewayWithClient builds a gateway around an explicit client, which
// tests use to inject fakes.
func NewGatewayWithClient(client Client, cfg config.LLMConfig, maxRetries int) *Gateway {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Gateway{
		client:      client,
		freeModels:  cfg.TranslationModelsFree,
		premModels:  cfg.TranslationModelsPremium,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  maxRetries,
	}
}

// Complete tries each model in the tier until one returns non-empty
// output. Transient failures (5xx, timeouts) retry the same model with
// backoff; quota and auth failures move straight to the next model.
func (g *Gateway) Complete(ctx context.Context, tier Tier, system, prompt string) (string, error) {
	models := g.freeModels
	if tier == TierPremium {
		models = g.premModels
	}
	if len(models) == 0 {
		return "", fmt.Errorf("llm: no models configured for tier %s", tier)
	}

	var lastErr error
	for _, model := range models {
		text, err := g.completeWithRetry(ctx, model, system, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logging.APIDebug("Model %s failed, falling through: %v", model, err)
	}

	logging.Get(logging.CategoryAPI).Warn("All %d models in tier %s failed: %v", len(models), tier, lastErr)
	return "", fmt.Errorf("%w: %v", ErrAllModelsFailed, lastErr)
}

func (g *Gateway) completeWithRetry(ctx context.Context, model, system, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		text, err := g.client.Complete(ctx, CompletionRequest{
			Model:       model,
			System:      system,
			Prompt:      prompt,
			Temperature: g.temperature,
			MaxTokens:   g.maxTokens,
		})
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == g.maxRetries {
			break
		}

		backoff := time.Duration(1<<attempt) * 200 * time.Millisecond
		if backoff > 5*time.Second {
			backoff = 5 * time.Second
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", lastErr
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	// Empty completions are a model problem, not a transport problem:
	// fall through to the next model instead of hammering this one.
	if errors.Is(err, ErrEmptyCompletion) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Transport-level errors (connection reset, DNS) are retryable.
	return true
}
