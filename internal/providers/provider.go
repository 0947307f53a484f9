// Package providers implements search provider adapters. Each adapter
// turns one external search API into the common Search operation, filters
// out search-engine self-links, and latches into degraded mode on quota
// or rate-limit pushback so the worker can skip it without errors.
package providers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Status classifies one provider call.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusRateLimited
	StatusAuthFailed
	StatusQuotaExhausted
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusRateLimited:
		return "rate_limited"
	case StatusAuthFailed:
		return "auth_failed"
	case StatusQuotaExhausted:
		return "quota_exhausted"
	case StatusTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// SearchHit is one raw result from a provider, before scoring and dedup.
type SearchHit struct {
	Title       string
	URL         string
	Description string
	PublishedAt *time.Time
	Provider    string
}

// Provider is one search backend.
type Provider interface {
	Name() string

	// Search runs query in the given language and returns up to maxResults
	// hits. A degraded provider returns (nil, StatusOK, nil) immediately.
	Search(ctx context.Context, query, lang string, maxResults int) ([]SearchHit, Status, error)
}

// degradedLatch is the per-process degraded-mode flag. Tripped on 402/429;
// clears after cooldown, or never when cooldown is zero.
type degradedLatch struct {
	mu        sync.Mutex
	trippedAt time.Time
	cooldown  time.Duration
}

func (l *degradedLatch) trip(provider string, status Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.trippedAt.IsZero() {
		logging.Providers("Provider %s degraded (%s), cooldown=%s", provider, status, l.cooldown)
	}
	l.trippedAt = time.Now()
}

func (l *degradedLatch) active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.trippedAt.IsZero() {
		return false
	}
	if l.cooldown <= 0 {
		return true
	}
	if time.Since(l.trippedAt) >= l.cooldown {
		l.trippedAt = time.Time{}
		return false
	}
	return true
}

// classifyHTTPStatus maps an HTTP response code onto the call status.
func classifyHTTPStatus(code int) Status {
	switch {
	case code == http.StatusOK:
		return StatusOK
	case code == http.StatusPaymentRequired:
		return StatusQuotaExhausted
	case code == http.StatusTooManyRequests:
		return StatusRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return StatusAuthFailed
	default:
		return StatusTransportError
	}
}

// finishHits applies the shared post-processing every adapter owes its
// callers: denylist filtering, description truncation, and the result cap.
func finishHits(hits []SearchHit, provider string, maxResults, descriptionCap int) ([]SearchHit, Status) {
	out := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		h.Title = strings.TrimSpace(h.Title)
		h.URL = strings.TrimSpace(h.URL)
		if h.Title == "" || h.URL == "" {
			continue
		}
		if Denied(h.URL) {
			logging.ProvidersDebug("Dropped denylisted URL: %s", h.URL)
			continue
		}
		h.Description = truncateRunes(strings.TrimSpace(h.Description), descriptionCap)
		h.Provider = provider
		out = append(out, h)
		if maxResults > 0 && len(out) >= maxResults {
			break
		}
	}
	if len(out) == 0 {
		return nil, StatusEmpty
	}
	return out, StatusOK
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// newHTTPClient is the shared client factory so every adapter honors the
// same timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
