package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// braveCountries maps language codes to Brave's country parameter.
var braveCountries = map[string]string{
	"pt": "BR",
	"en": "US",
	"es": "ES",
	"fr": "FR",
	"de": "DE",
}

// BraveProvider queries the Brave Search API.
type BraveProvider struct {
	apiKey         string
	client         *http.Client
	descriptionCap int
	latch          degradedLatch
}

func NewBrave(apiKey string, descriptionCap int, timeout, cooldown time.Duration) *BraveProvider {
	return &BraveProvider{
		apiKey:         apiKey,
		client:         newHTTPClient(timeout),
		descriptionCap: descriptionCap,
		latch:          degradedLatch{cooldown: cooldown},
	}
}

func (p *BraveProvider) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PageAge     string `json:"page_age"`
		} `json:"results"`
	} `json:"web"`
}

func (p *BraveProvider) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchHit, Status, error) {
	if p.latch.active() {
		return nil, StatusOK, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))
	params.Set("search_lang", lang)
	if country, ok := braveCountries[lang]; ok {
		params.Set("country", country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, StatusTransportError, err
	}
	req.Header.Set("X-Subscription-Token", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, StatusTransportError, fmt.Errorf("brave: %w", err)
	}
	defer resp.Body.Close()

	if status := classifyHTTPStatus(resp.StatusCode); status != StatusOK {
		if status == StatusQuotaExhausted || status == StatusRateLimited {
			p.latch.trip(p.Name(), status)
		}
		return nil, status, fmt.Errorf("brave: HTTP %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, StatusTransportError, fmt.Errorf("brave: decode: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		hit := SearchHit{Title: r.Title, URL: r.URL, Description: r.Description}
		if t, err := time.Parse(time.RFC3339, r.PageAge); err == nil {
			hit.PublishedAt = &t
		}
		hits = append(hits, hit)
	}

	out, status := finishHits(hits, p.Name(), maxResults, p.descriptionCap)
	logging.SearchDebug("brave: %d hits for %q (%s)", len(out), query, lang)
	return out, status, nil
}

var _ Provider = (*BraveProvider)(nil)
