// Package llm provides the chat-completion gateway used for translation,
// language detection, and deep analysis. Model identifiers are opaque
// strings grouped into tiers; the gateway walks a tier's model list in
// order until one returns non-empty output.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Tier selects which model list the gateway walks.
type Tier int

const (
	// TierFree is the default tier for routine translation work.
	TierFree Tier = iota
	// TierPremium is used only when the caller requests deep analysis.
	TierPremium
)

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPremium:
		return "premium"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client is a chat-completion backend.
type Client interface {
	// Complete sends one prompt to one model and returns the text reply.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Sentinel errors for caller-visible failure classes.
var (
	// ErrEmptyCompletion is returned when a model answered with no content.
	ErrEmptyCompletion = errors.New("llm: empty completion")
	// ErrAllModelsFailed is returned when every model in the tier failed.
	ErrAllModelsFailed = errors.New("llm: all models in tier failed")
)

// StatusError carries the HTTP status of a failed gateway call so the
// caller can distinguish quota (402) and rate-limit (429) from transport
// failures.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: gateway returned HTTP %d: %s", e.Code, e.Body)
}

// Retryable reports whether the failure is worth retrying on the same
// model (timeouts and 5xx are; quota and auth failures are not).
func (e *StatusError) Retryable() bool {
	return e.Code >= 500
}
