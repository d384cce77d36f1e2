package ocr

import (
	"fmt"
	"sync"
)

// Registry holds the engine instances for the closed variant set. Engines are
// registered once at startup; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	engines map[Variant]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[Variant]Engine)}
}

// Register binds an engine instance to a variant, replacing any previous
// binding.
func (r *Registry) Register(v Variant, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[v] = e
}

// Engine returns the engine registered for the variant.
func (r *Registry) Engine(v Variant) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return e, nil
}

// Available returns the variants whose engines report themselves usable on
// this host, in canonical order.
func (r *Registry) Available() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Variant
	for _, v := range Variants() {
		e, ok := r.engines[v]
		if !ok {
			continue
		}
		if err := e.Available(); err == nil {
			out = append(out, v)
		}
	}
	return out
}
