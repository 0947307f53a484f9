package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenied(t *testing.T) {
	cases := []struct {
		url    string
		denied bool
	}{
		{"https://www.gov.br/sebrae/credito", false},
		{"http://portal.sebrae.com.br/artigo", false},
		{"https://www.google.com/search?q=credito", true},
		{"https://google.com.br/anything", true},
		{"https://duckduckgo.com/?q=x", true},
		{"https://html.duckduckgo.com/html/?q=x", true},
		{"https://news.example.org/search?q=credito", true},
		{"https://news.example.org/url?q=https://x", true},
		{"https://example.com/page", true},
		{"http://localhost:8080/page", true},
		{"ftp://files.gov.br/doc", true},
		{"not a url", true},
		{"", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.denied, Denied(tc.url), "url=%q", tc.url)
	}
}

func TestValidURL(t *testing.T) {
	assert.True(t, ValidURL("https://www.gov.br/x"))
	assert.True(t, ValidURL("http://a.b/c?d=e"))
	assert.False(t, ValidURL("gov.br/x"))
	assert.False(t, ValidURL("mailto:a@b.c"))
	assert.False(t, ValidURL(""))
}

func TestFinishHits(t *testing.T) {
	long := strings.Repeat("crédito ", 50)
	hits := []SearchHit{
		{Title: "  Primeiro  ", URL: " https://a.gov.br/1 ", Description: long},
		{Title: "", URL: "https://a.gov.br/blank-title"},
		{Title: "Motor de busca", URL: "https://www.google.com/search?q=x"},
		{Title: "Segundo", URL: "https://a.gov.br/2", Description: "curto"},
		{Title: "Terceiro", URL: "https://a.gov.br/3"},
	}

	out, status := finishHits(hits, "serper", 2, 100)
	require.Equal(t, StatusOK, status)
	require.Len(t, out, 2, "blank and denylisted hits dropped, then capped")

	assert.Equal(t, "Primeiro", out[0].Title)
	assert.Equal(t, "https://a.gov.br/1", out[0].URL)
	assert.Len(t, []rune(out[0].Description), 100)
	assert.Equal(t, "serper", out[0].Provider)
	assert.Equal(t, "Segundo", out[1].Title)
}

func TestFinishHitsAllFilteredIsEmpty(t *testing.T) {
	hits := []SearchHit{{Title: "x", URL: "https://bing.com/search?q=x"}}
	out, status := finishHits(hits, "brave", 10, 0)
	assert.Nil(t, out)
	assert.Equal(t, StatusEmpty, status)
}

func TestClassifyHTTPStatus(t *testing.T) {
	assert.Equal(t, StatusOK, classifyHTTPStatus(200))
	assert.Equal(t, StatusQuotaExhausted, classifyHTTPStatus(402))
	assert.Equal(t, StatusRateLimited, classifyHTTPStatus(429))
	assert.Equal(t, StatusAuthFailed, classifyHTTPStatus(401))
	assert.Equal(t, StatusAuthFailed, classifyHTTPStatus(403))
	assert.Equal(t, StatusTransportError, classifyHTTPStatus(500))
	assert.Equal(t, StatusTransportError, classifyHTTPStatus(404))
}

func TestSerperDegradedLatchSticky(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	p := NewSerper("key", 200, time.Second, 0)
	p.endpoint = srv.URL
	ctx := context.Background()

	hits, status, err := p.Search(ctx, "acesso a crédito", "pt", 5)
	assert.Nil(t, hits)
	assert.Equal(t, StatusQuotaExhausted, status)
	assert.Error(t, err)

	// Subsequent calls short-circuit without touching the network.
	hits, status, err = p.Search(ctx, "outra consulta", "pt", 5)
	assert.Nil(t, hits)
	assert.Equal(t, StatusOK, status)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&requests))
}

func TestSerperDegradedLatchCooldownExpiry(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&requests, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[{"title":"Crédito para PMEs","link":"https://www.gov.br/credito","snippet":"Programa de crédito"}]}`))
	}))
	defer srv.Close()

	p := NewSerper("key", 200, time.Second, 50*time.Millisecond)
	p.endpoint = srv.URL
	ctx := context.Background()

	_, status, err := p.Search(ctx, "crédito", "pt", 5)
	assert.Equal(t, StatusRateLimited, status)
	assert.Error(t, err)

	time.Sleep(80 * time.Millisecond)

	hits, status, err := p.Search(ctx, "crédito", "pt", 5)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	require.Len(t, hits, 1)
	assert.Equal(t, "Crédito para PMEs", hits[0].Title)
	assert.Equal(t, int64(2), atomic.LoadInt64(&requests))
}

func TestSerperParsesAndFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-API-KEY"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"Busca","link":"https://www.google.com/search?q=x","snippet":"noise"},
			{"title":"Crédito rural","link":"https://www.gov.br/credito","snippet":"Linha de crédito","date":"2024-03-15"}
		]}`))
	}))
	defer srv.Close()

	p := NewSerper("key", 200, time.Second, 0)
	p.endpoint = srv.URL

	hits, status, err := p.Search(context.Background(), "crédito rural", "pt", 5)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	require.Len(t, hits, 1)
	assert.Equal(t, "Crédito rural", hits[0].Title)
	assert.Equal(t, "serper", hits[0].Provider)
	require.NotNil(t, hits[0].PublishedAt)
	assert.Equal(t, 2024, hits[0].PublishedAt.Year())
}

const duckPage = `<html><body>
<div class="serp__results">
  <div class="result results_links results_links_deep web-result">
    <h2 class="result__title">
      <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.gov.br%2Fsebrae%2Fcredito&amp;rut=abc">Acesso a crédito</a>
    </h2>
    <a class="result__snippet" href="https://www.gov.br/sebrae/credito">Programas de <b>crédito</b> para pequenas empresas</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="https://portal.example.org/artigo">Financiamento inicial</a>
    <a class="result__snippet" href="https://portal.example.org/artigo">Como obter financiamento</a>
  </div>
  <div class="result results_links">
    <a class="result__a" href="https://terceiro.org/x">Terceiro</a>
  </div>
</div>
</body></html>`

func TestParseDuckDuckGoHTML(t *testing.T) {
	hits, err := parseDuckDuckGoHTML(duckPage, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2, "maxResults caps the walk")

	assert.Equal(t, "Acesso a crédito", hits[0].Title)
	assert.Equal(t, "https://www.gov.br/sebrae/credito", hits[0].URL, "redirect href must be unwrapped")
	assert.Contains(t, hits[0].Description, "crédito para pequenas empresas")
	assert.Equal(t, "Financiamento inicial", hits[1].Title)
	assert.Equal(t, "https://portal.example.org/artigo", hits[1].URL)
}

func TestResolveRedirect(t *testing.T) {
	assert.Equal(t,
		"https://www.gov.br/x",
		resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.gov.br%2Fx&rut=abc"))
	assert.Equal(t,
		"https://direct.org/y",
		resolveRedirect("https://direct.org/y"))
}

type staticProvider struct{ name string }

func (s *staticProvider) Name() string { return s.name }

func (s *staticProvider) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchHit, Status, error) {
	return nil, StatusEmpty, nil
}

func TestRegistryOrderAndLookup(t *testing.T) {
	a := &staticProvider{name: "serper"}
	b := &staticProvider{name: "brave"}
	r := NewRegistryFromProviders(a, b)

	assert.Equal(t, []string{"serper", "brave"}, r.Names())
	assert.Same(t, a, r.Get("serper"))
	assert.Nil(t, r.Get("missing"))

	replacement := &staticProvider{name: "serper"}
	r.Register(replacement)
	assert.Equal(t, []string{"serper", "brave"}, r.Names(), "replacing keeps order")
	assert.Same(t, replacement, r.Get("serper"))
}
