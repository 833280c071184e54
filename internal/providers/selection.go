package providers

import "fmt"

// Selection tracks the active provider and the last-chosen model of every
// provider, active or not. The active model always belongs to the active
// provider's catalog.
type Selection struct {
	registry *Registry
	active   Provider
	models   map[Provider]string
}

// NewSelection starts with every provider on its default model.
func NewSelection(registry *Registry, active Provider) (*Selection, error) {
	if !registry.Has(active) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, active)
	}
	s := &Selection{
		registry: registry,
		active:   active,
		models:   make(map[Provider]string),
	}
	for _, p := range registry.Providers() {
		s.models[p] = registry.DefaultModel(p)
	}
	return s, nil
}

// Active returns the active provider.
func (s *Selection) Active() Provider { return s.active }

// Model returns the active provider's model.
func (s *Selection) Model() string { return s.models[s.active] }

// ModelOf returns the last-chosen model of p.
func (s *Selection) ModelOf(p Provider) string { return s.models[p] }

// Models returns a copy of the per-provider model choices.
func (s *Selection) Models() map[Provider]string {
	out := make(map[Provider]string, len(s.models))
	for p, m := range s.models {
		out[p] = m
	}
	return out
}

// SetActive switches provider; the model becomes p's last-chosen one.
func (s *Selection) SetActive(p Provider) error {
	if !s.registry.Has(p) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, p)
	}
	s.active = p
	return nil
}

// SetModel records model as p's choice.
func (s *Selection) SetModel(p Provider, model string) error {
	if !s.registry.Has(p) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, p)
	}
	if !s.registry.HasModel(p, model) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownModel, model, p)
	}
	s.models[p] = model
	return nil
}

// Restore applies a previously saved selection, ignoring any entry the
// catalog no longer knows about.
func (s *Selection) Restore(active Provider, models map[Provider]string) {
	for p, m := range models {
		_ = s.SetModel(p, m)
	}
	_ = s.SetActive(active)
}
