package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

const serperEndpoint = "https://google.serper.dev/search"

// serperLocales maps language codes to Serper's gl (country) parameter.
var serperLocales = map[string]string{
	"pt": "br",
	"en": "us",
	"es": "es",
	"fr": "fr",
	"de": "de",
}

// SerperProvider queries Google results through the Serper API.
type SerperProvider struct {
	apiKey         string
	endpoint       string
	client         *http.Client
	descriptionCap int
	latch          degradedLatch
}

// NewSerper builds the Serper adapter. cooldown zero keeps degraded mode
// sticky for the process lifetime.
func NewSerper(apiKey string, descriptionCap int, timeout, cooldown time.Duration) *SerperProvider {
	return &SerperProvider{
		apiKey:         apiKey,
		endpoint:       serperEndpoint,
		client:         newHTTPClient(timeout),
		descriptionCap: descriptionCap,
		latch:          degradedLatch{cooldown: cooldown},
	}
}

func (p *SerperProvider) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic"`
}

func (p *SerperProvider) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchHit, Status, error) {
	if p.latch.active() {
		return nil, StatusOK, nil
	}

	payload, err := json.Marshal(serperRequest{
		Q:   query,
		GL:  serperLocales[lang],
		HL:  lang,
		Num: maxResults,
	})
	if err != nil {
		return nil, StatusTransportError, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, StatusTransportError, err
	}
	req.Header.Set("X-API-KEY", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, StatusTransportError, fmt.Errorf("serper: %w", err)
	}
	defer resp.Body.Close()

	if status := classifyHTTPStatus(resp.StatusCode); status != StatusOK {
		if status == StatusQuotaExhausted || status == StatusRateLimited {
			p.latch.trip(p.Name(), status)
		}
		return nil, status, fmt.Errorf("serper: HTTP %d", resp.StatusCode)
	}

	var parsed serperResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, StatusTransportError, fmt.Errorf("serper: decode: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Organic))
	for _, o := range parsed.Organic {
		hit := SearchHit{Title: o.Title, URL: o.Link, Description: o.Snippet}
		if t, err := time.Parse("2006-01-02", o.Date); err == nil {
			hit.PublishedAt = &t
		}
		hits = append(hits, hit)
	}

	out, status := finishHits(hits, p.Name(), maxResults, p.descriptionCap)
	logging.SearchDebug("serper: %d hits for %q (%s)", len(out), query, lang)
	return out, status, nil
}

var _ Provider = (*SerperProvider)(nil)
