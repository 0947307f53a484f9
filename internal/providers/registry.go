package providers

import (
	"fmt"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/config"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Registry holds the configured provider chain in config order.
type Registry struct {
	ordered []Provider
	byName  map[string]Provider
}

// NewRegistry builds adapters for every enabled provider. A keyed provider
// without an API key is skipped with a warning rather than failing boot:
// the rest of the chain still works.
func NewRegistry(search config.SearchConfig, limits config.LimitsConfig) (*Registry, error) {
	timeout := limits.HTTPTimeoutDuration()
	cooldown := limits.DegradedCooldownDuration()
	descCap := search.DescriptionCap

	r := &Registry{byName: make(map[string]Provider)}
	for _, pc := range search.Providers {
		if !pc.Enabled {
			continue
		}

		var p Provider
		switch pc.Name {
		case "serper":
			if pc.APIKey == "" {
				logging.Providers("Skipping serper: no API key configured")
				continue
			}
			p = NewSerper(pc.APIKey, descCap, timeout, cooldown)
		case "brave":
			if pc.APIKey == "" {
				logging.Providers("Skipping brave: no API key configured")
				continue
			}
			p = NewBrave(pc.APIKey, descCap, timeout, cooldown)
		case "tavily":
			if pc.APIKey == "" {
				logging.Providers("Skipping tavily: no API key configured")
				continue
			}
			p = NewTavily(pc.APIKey, descCap, timeout, cooldown)
		case "duckduckgo":
			p = NewDuckDuckGo(descCap, timeout, cooldown)
		default:
			return nil, fmt.Errorf("providers: unknown provider %q", pc.Name)
		}

		r.ordered = append(r.ordered, p)
		r.byName[p.Name()] = p
	}

	if len(r.ordered) == 0 {
		return nil, fmt.Errorf("providers: no usable providers configured")
	}
	logging.Providers("Provider chain ready: %v", r.Names())
	return r, nil
}

// NewRegistryFromProviders builds a registry around already-constructed
// providers, preserving order. Tests use this to inject fakes.
func NewRegistryFromProviders(ps ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.Register(p)
	}
	return r
}

// Get returns the named provider, or nil.
func (r *Registry) Get(name string) Provider {
	return r.byName[name]
}

// Ordered returns the chain in config order.
func (r *Registry) Ordered() []Provider {
	return r.ordered
}

// Names returns the chain's provider names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, p := range r.ordered {
		names[i] = p.Name()
	}
	return names
}

// Register adds or replaces a provider. Tests use this to inject fakes.
func (r *Registry) Register(p Provider) {
	if _, exists := r.byName[p.Name()]; !exists {
		r.ordered = append(r.ordered, p)
	} else {
		for i, existing := range r.ordered {
			if existing.Name() == p.Name() {
				r.ordered[i] = p
				break
			}
		}
	}
	r.byName[p.Name()] = p
}
