package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
)

type call struct {
	text string
	err  error
}

// scriptedClient replays a fixed sequence of outcomes per model.
type scriptedClient struct {
	mu      sync.Mutex
	scripts map[string][]call
	calls   []string
}

func (c *scriptedClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req.Model)

	script := c.scripts[req.Model]
	if len(script) == 0 {
		return "", errors.New("unscripted model: " + req.Model)
	}
	next := script[0]
	c.scripts[req.Model] = script[1:]
	return next.text, next.err
}

func (c *scriptedClient) callCount(model string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.calls {
		if m == model {
			n++
		}
	}
	return n
}

func testLLMConfig(free ...string) config.LLMConfig {
	return config.LLMConfig{
		TranslationModelsFree:    free,
		TranslationModelsPremium: []string{"premium-a"},
		Temperature:              0.1,
		MaxTokens:                512,
	}
}

func TestGatewayRetriesTransientFailure(t *testing.T) {
	client := &scriptedClient{scripts: map[string][]call{
		"m1": {
			{err: &StatusError{Code: 500, Body: "upstream hiccup"}},
			{text: "resposta"},
		},
	}}
	g := NewGatewayWithClient(client, testLLMConfig("m1"), 2)

	text, err := g.Complete(context.Background(), TierFree, "", "traduza")
	require.NoError(t, err)
	assert.Equal(t, "resposta", text)
	assert.Equal(t, 2, client.callCount("m1"))
}

func TestGatewayEmptyCompletionFallsThroughWithoutRetry(t *testing.T) {
	client := &scriptedClient{scripts: map[string][]call{
		"m1": {{err: ErrEmptyCompletion}},
		"m2": {{text: "resposta do segundo"}},
	}}
	g := NewGatewayWithClient(client, testLLMConfig("m1", "m2"), 3)

	text, err := g.Complete(context.Background(), TierFree, "", "traduza")
	require.NoError(t, err)
	assert.Equal(t, "resposta do segundo", text)
	assert.Equal(t, 1, client.callCount("m1"), "empty answer must not be retried on the same model")
	assert.Equal(t, 1, client.callCount("m2"))
}

func TestGatewayQuotaSkipsRetries(t *testing.T) {
	client := &scriptedClient{scripts: map[string][]call{
		"m1": {{err: &StatusError{Code: 402, Body: "quota"}}},
		"m2": {{text: "ok"}},
	}}
	g := NewGatewayWithClient(client, testLLMConfig("m1", "m2"), 3)

	text, err := g.Complete(context.Background(), TierFree, "", "traduza")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, client.callCount("m1"))
}

func TestGatewayAllModelsFailed(t *testing.T) {
	client := &scriptedClient{scripts: map[string][]call{
		"m1": {{err: &StatusError{Code: 401, Body: "bad key"}}},
		"m2": {{err: ErrEmptyCompletion}},
	}}
	g := NewGatewayWithClient(client, testLLMConfig("m1", "m2"), 0)

	_, err := g.Complete(context.Background(), TierFree, "", "traduza")
	assert.ErrorIs(t, err, ErrAllModelsFailed)
}

func TestGatewayPremiumTier(t *testing.T) {
	client := &scriptedClient{scripts: map[string][]call{
		"premium-a": {{text: "análise"}},
	}}
	g := NewGatewayWithClient(client, testLLMConfig("m1"), 0)

	text, err := g.Complete(context.Background(), TierPremium, "", "analise")
	require.NoError(t, err)
	assert.Equal(t, "análise", text)
	assert.Zero(t, client.callCount("m1"))
}

func TestGatewayNoModelsConfigured(t *testing.T) {
	g := NewGatewayWithClient(&scriptedClient{scripts: map[string][]call{}}, config.LLMConfig{}, 0)
	_, err := g.Complete(context.Background(), TierFree, "", "x")
	assert.Error(t, err)
}

func TestGatewayHonorsCancellation(t *testing.T) {
	client := &scriptedClient{scripts: map[string][]call{
		"m1": {{err: errors.New("connection reset")}},
		"m2": {{text: "never reached"}},
	}}
	g := NewGatewayWithClient(client, testLLMConfig("m1", "m2"), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Complete(ctx, TierFree, "", "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.callCount("m2"))
}

func TestStatusErrorRetryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: 500}).Retryable())
	assert.True(t, (&StatusError{Code: 503}).Retryable())
	assert.False(t, (&StatusError{Code: 402}).Retryable())
	assert.False(t, (&StatusError{Code: 429}).Retryable())
	assert.False(t, (&StatusError{Code: 401}).Retryable())
}
