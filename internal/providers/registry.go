package providers

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Registry maps hosts to adapters.
type Registry struct {
	byDomain map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byDomain: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}

	return r
}

func (r *Registry) Register(a Adapter) {
	for _, d := range a.Domains() {
		r.byDomain[strings.ToLower(d)] = a
	}
}

// Lookup returns the adapter for rawURL's host. A host matches a registered
// domain exactly or as a sub-domain of it.
func (r *Registry) Lookup(rawURL string) (Adapter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%q: %w", rawURL, ErrUnsupportedSite)
	}

	for h := host; h != ""; {
		if a, ok := r.byDomain[h]; ok {
			return a, nil
		}
		i := strings.IndexByte(h, '.')
		if i < 0 {
			break
		}
		h = h[i+1:]
	}

	return nil, fmt.Errorf("%s: %w", host, ErrUnsupportedSite)
}

// Domains lists every registered domain, sorted.
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.byDomain))
	for d := range r.byDomain {
		out = append(out, d)
	}
	sort.Strings(out)

	return out
}
