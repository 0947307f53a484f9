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

const tavilyEndpoint = "https://api.tavily.com/search"

// TavilyProvider queries the Tavily research search API. Tavily has no
// locale parameter; the query itself carries the language.
type TavilyProvider struct {
	apiKey         string
	client         *http.Client
	descriptionCap int
	latch          degradedLatch
}

func NewTavily(apiKey string, descriptionCap int, timeout, cooldown time.Duration) *TavilyProvider {
	return &TavilyProvider{
		apiKey:         apiKey,
		client:         newHTTPClient(timeout),
		descriptionCap: descriptionCap,
		latch:          degradedLatch{cooldown: cooldown},
	}
}

func (p *TavilyProvider) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (p *TavilyProvider) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchHit, Status, error) {
	if p.latch.active() {
		return nil, StatusOK, nil
	}
	_ = lang

	payload, err := json.Marshal(tavilyRequest{
		APIKey:     p.apiKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, StatusTransportError, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, StatusTransportError, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, StatusTransportError, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	if status := classifyHTTPStatus(resp.StatusCode); status != StatusOK {
		if status == StatusQuotaExhausted || status == StatusRateLimited {
			p.latch.trip(p.Name(), status)
		}
		return nil, status, fmt.Errorf("tavily: HTTP %d", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, StatusTransportError, fmt.Errorf("tavily: decode: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		hits = append(hits, SearchHit{Title: r.Title, URL: r.URL, Description: r.Content})
	}

	out, status := finishHits(hits, p.Name(), maxResults, p.descriptionCap)
	logging.SearchDebug("tavily: %d hits for %q", len(out), query)
	return out, status, nil
}

var _ Provider = (*TavilyProvider)(nil)
