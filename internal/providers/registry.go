// Package providers contains the static backend catalog, the active
// provider/model selection and one client per vendor behind a common
// LLMClient interface.
package providers

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Provider identifies a text-generation backend.
type Provider string

const (
	OpenAI Provider = "openai"
	Claude Provider = "claude"
	Gemini Provider = "gemini"
	Grok   Provider = "grok"
)

var (
	ErrEmptyCatalog    = errors.New("provider has no models")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownModel    = errors.New("unknown model")
)

// Entry describes one provider in the catalog. The first model is the
// default unless Default is set.
type Entry struct {
	Provider Provider
	Models   []string
	Default  string
}

// DefaultCatalog is the built-in list of providers and models.
func DefaultCatalog() []Entry {
	return []Entry{
		{Provider: OpenAI, Models: []string{"gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"}},
		{Provider: Claude, Models: []string{"claude-3-5-sonnet-20240620", "claude-3-opus-20240229", "claude-3-haiku-20240307"}},
		{Provider: Gemini, Models: []string{"gemini-1.5-pro", "gemini-1.5-flash", "gemini-1.0-pro"}},
		{Provider: Grok, Models: []string{"grok-1"}},
	}
}

// Registry is an immutable, ordered catalog of providers.
type Registry struct {
	order   []Provider
	entries map[Provider]Entry
}

// NewRegistry builds a registry. Every provider needs at least one model and
// a default that belongs to its list.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[Provider]Entry, len(entries))}
	for _, e := range entries {
		if e.Provider == "" {
			return nil, fmt.Errorf("%w: empty provider name", ErrUnknownProvider)
		}
		if _, dup := r.entries[e.Provider]; dup {
			return nil, fmt.Errorf("duplicate provider %q", e.Provider)
		}
		if len(e.Models) == 0 {
			return nil, fmt.Errorf("%s: %w", e.Provider, ErrEmptyCatalog)
		}
		models := slices.Clone(e.Models)
		def := e.Default
		if def == "" {
			def = models[0]
		}
		if !slices.Contains(models, def) {
			return nil, fmt.Errorf("%s: default %q: %w", e.Provider, def, ErrUnknownModel)
		}
		r.entries[e.Provider] = Entry{Provider: e.Provider, Models: models, Default: def}
		r.order = append(r.order, e.Provider)
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on an invalid catalog.
func MustNewRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(fmt.Sprintf("providers: invalid catalog: %v", err))
	}
	return r
}

// DefaultRegistry returns a registry over DefaultCatalog.
func DefaultRegistry() *Registry {
	return MustNewRegistry(DefaultCatalog()...)
}

// Providers returns the provider identifiers in catalog order.
func (r *Registry) Providers() []Provider {
	return slices.Clone(r.order)
}

// Has reports whether p is in the catalog.
func (r *Registry) Has(p Provider) bool {
	_, ok := r.entries[p]
	return ok
}

// HasModel reports whether model belongs to p's catalog.
func (r *Registry) HasModel(p Provider, model string) bool {
	e, ok := r.entries[p]
	return ok && slices.Contains(e.Models, model)
}

// ModelsFor returns the ordered models for p, or nil when p is unknown.
func (r *Registry) ModelsFor(p Provider) []string {
	e, ok := r.entries[p]
	if !ok {
		return nil
	}
	return slices.Clone(e.Models)
}

// DefaultModel returns p's default model, or "" when p is unknown.
func (r *Registry) DefaultModel(p Provider) string {
	return r.entries[p].Default
}

// Parse resolves a user-supplied provider name against the catalog.
func (r *Registry) Parse(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !r.Has(p) {
		names := make([]string, 0, len(r.order))
		for _, o := range r.order {
			names = append(names, string(o))
		}
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProvider, name, strings.Join(names, ", "))
	}
	return p, nil
}
