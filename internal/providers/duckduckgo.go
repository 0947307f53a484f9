package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

const duckduckgoEndpoint = "https://html.duckduckgo.com/html/"

// duckduckgoLocales maps language codes to DuckDuckGo's kl region parameter.
var duckduckgoLocales = map[string]string{
	"pt": "br-pt",
	"en": "us-en",
	"es": "es-es",
	"fr": "fr-fr",
	"de": "de-de",
}

// DuckDuckGoProvider scrapes the keyless DuckDuckGo HTML interface. It is
// the no-API-key fallback in the chain, hence its low trust weight.
type DuckDuckGoProvider struct {
	client         *http.Client
	descriptionCap int
	latch          degradedLatch
}

func NewDuckDuckGo(descriptionCap int, timeout, cooldown time.Duration) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		client:         newHTTPClient(timeout),
		descriptionCap: descriptionCap,
		latch:          degradedLatch{cooldown: cooldown},
	}
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

func (p *DuckDuckGoProvider) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchHit, Status, error) {
	if p.latch.active() {
		return nil, StatusOK, nil
	}

	params := url.Values{}
	params.Set("q", query)
	if kl, ok := duckduckgoLocales[lang]; ok {
		params.Set("kl", kl)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, duckduckgoEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, StatusTransportError, err
	}
	// The HTML endpoint serves a captcha page to obvious bots.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, StatusTransportError, fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if status := classifyHTTPStatus(resp.StatusCode); status != StatusOK {
		if status == StatusQuotaExhausted || status == StatusRateLimited {
			p.latch.trip(p.Name(), status)
		}
		return nil, status, fmt.Errorf("duckduckgo: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, StatusTransportError, fmt.Errorf("duckduckgo: read: %w", err)
	}

	hits, err := parseDuckDuckGoHTML(string(body), maxResults)
	if err != nil {
		return nil, StatusTransportError, err
	}

	out, status := finishHits(hits, p.Name(), maxResults, p.descriptionCap)
	logging.SearchDebug("duckduckgo: %d hits for %q (%s)", len(out), query, lang)
	return out, status, nil
}

// parseDuckDuckGoHTML extracts hits from the result page. Result blocks
// are divs whose class contains both "result" and "results_links".
func parseDuckDuckGoHTML(page string, maxResults int) ([]SearchHit, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse: %w", err)
	}

	var hits []SearchHit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if maxResults > 0 && len(hits) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := attrValue(n, "class")
			if strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if hit := extractHit(n); hit.URL != "" && hit.Title != "" {
					hits = append(hits, hit)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return hits, nil
}

func extractHit(n *html.Node) SearchHit {
	var hit SearchHit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attrValue(n, "class")
			if strings.Contains(class, "result__a") {
				hit.URL = resolveRedirect(attrValue(n, "href"))
				hit.Title = textContent(n)
			} else if strings.Contains(class, "result__snippet") {
				hit.Description = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return hit
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect to the real URL.
func resolveRedirect(href string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, prefix))
	if err != nil {
		return href
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

var _ Provider = (*DuckDuckGoProvider)(nil)
