package providers

import (
	"net/url"
	"strings"
)

// Search-engine and placeholder hosts. A hit pointing back into a search
// engine is navigation noise, never a content resource.
var deniedHosts = map[string]struct{}{
	"google.com":          {},
	"www.google.com":      {},
	"google.com.br":       {},
	"www.google.com.br":   {},
	"bing.com":            {},
	"www.bing.com":        {},
	"duckduckgo.com":      {},
	"html.duckduckgo.com": {},
	"search.brave.com":    {},
	"search.yahoo.com":    {},
	"br.search.yahoo.com": {},
	"yandex.com":          {},
	"baidu.com":           {},
	"www.baidu.com":       {},
	"example.com":         {},
	"www.example.com":     {},
	"localhost":           {},
}

// Path fragments that mark search/redirect endpoints on otherwise fine hosts.
var deniedPathFragments = []string{
	"/search?",
	"/search/?",
	"/url?q=",
	"/aclk?",
	"/y.js?",
}

// Denied reports whether rawURL points at a search engine or placeholder
// rather than content. Unparseable and non-http(s) URLs are denied.
func Denied(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return true
	}
	if _, ok := deniedHosts[host]; ok {
		return true
	}

	full := strings.ToLower(u.Path + "?" + u.RawQuery)
	for _, fragment := range deniedPathFragments {
		if strings.Contains(full, fragment) {
			return true
		}
	}
	return false
}

// ValidURL reports whether rawURL is a well-formed absolute http(s) URL.
func ValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}
