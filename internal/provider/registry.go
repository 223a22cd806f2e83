package provider

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/pstuifzand/zcode/internal/config"
	"github.com/pstuifzand/zcode/internal/parser"
)

// Registry maps provider keys to their capability records
type Registry struct {
	providers map[string]*Provider
	order     []string
}

// NewRegistry returns a registry with the built-in providers
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]*Provider)}
	for _, p := range []*Provider{claude(), aider(), copilot(), kiro()} {
		r.add(p)
	}
	return r
}

func (r *Registry) add(p *Provider) {
	if _, ok := r.providers[p.Key]; !ok {
		r.order = append(r.order, p.Key)
	}
	r.providers[p.Key] = p
}

// Lookup finds a provider by key or display name, case-insensitively
func (r *Registry) Lookup(name string) (*Provider, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "claude code":
		name = "claude"
	case "amazon q", "kiro":
		name = "q"
	case "github copilot":
		name = "copilot"
	}
	if p, ok := r.providers[name]; ok {
		return p, true
	}
	for _, key := range r.order {
		if strings.EqualFold(r.providers[key].Name, name) {
			return r.providers[key], true
		}
	}
	return nil, false
}

// Keys returns the provider keys in registration order
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Detectable returns copies of the enabled providers with config overrides
// applied. Config tables for unknown keys with a path become custom
// providers; invalid ones are logged and skipped.
func (r *Registry) Detectable(cfg *config.Config) []*Provider {
	var out []*Provider
	for _, key := range r.order {
		pc := cfg.Provider(key)
		if !pc.IsEnabled() {
			continue
		}
		p := *r.providers[key]
		if pc.Path != "" {
			p.Binary = pc.Path
		}
		if pc.Name != "" {
			p.Name = pc.Name
		}
		if pc.Parser != "" {
			if kind, err := parser.ParseKind(pc.Parser); err == nil {
				p.Parser = kind
			} else {
				log.Printf("Ignoring parser for provider %s: %v", key, err)
			}
		}
		if pc.Pattern != "" {
			p.Pattern = pc.Pattern
		}
		out = append(out, &p)
	}

	var custom []string
	for key := range cfg.Providers {
		if _, builtin := r.providers[key]; !builtin {
			custom = append(custom, key)
		}
	}
	sort.Strings(custom)
	for _, key := range custom {
		pc := cfg.Providers[key]
		if !pc.IsEnabled() {
			continue
		}
		p, err := Custom(key, pc)
		if err != nil {
			log.Printf("Skipping provider: %v", err)
			continue
		}
		out = append(out, p)
	}
	return out
}

// Register adds or replaces a provider
func (r *Registry) Register(p *Provider) error {
	if p.Key == "" || p.buildArgs == nil {
		return fmt.Errorf("provider needs a key and an argument builder")
	}
	r.add(p)
	return nil
}
