package image

import (
	"context"
	"fmt"
	"strings"

	"mirage/internal/domain"
)

// Generator is the contract implemented by all direct-call image providers.
// The returned string is the base64-encoded image payload.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Registry maps provider tags to their adapters. Adding a provider means
// registering a new variant, not editing a branch chain.
type Registry struct {
	generators  map[string]Generator
	unavailable map[string]error
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		generators:  make(map[string]Generator),
		unavailable: make(map[string]error),
	}
}

// Register binds a provider tag to its adapter. Registering a nil generator
// or a blank tag is a programming error and is ignored.
func (r *Registry) Register(tag string, g Generator) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || g == nil {
		return
	}
	r.generators[tag] = g
}

// RegisterUnavailable records a provider that is known but cannot serve,
// typically because its credential is absent. Lookups for the tag return
// the recorded configuration error so the server can start without the
// credential and report it per-request.
func (r *Registry) RegisterUnavailable(tag string, err error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || err == nil {
		return
	}
	r.unavailable[tag] = err
}

// Lookup resolves a provider tag, failing fast before any job is created or
// any outbound call is made.
func (r *Registry) Lookup(tag string) (Generator, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if g, ok := r.generators[key]; ok {
		return g, nil
	}
	if err, ok := r.unavailable[key]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, tag)
}

// Tags returns the registered provider tags.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.generators))
	for tag := range r.generators {
		tags = append(tags, tag)
	}
	return tags
}
