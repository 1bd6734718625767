package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/noah-isme/toko-cart/internal/cart"
)

// ErrNotFound is returned when a catalog record does not exist.
var ErrNotFound = cart.ErrModelNotFound

// Finder loads buyable records of one model type.
type Finder interface {
	FindBuyable(ctx context.Context, id int64) (cart.Buyable, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(ctx context.Context, id int64) (cart.Buyable, error)

// FindBuyable implements Finder.
func (f FinderFunc) FindBuyable(ctx context.Context, id int64) (cart.Buyable, error) {
	return f(ctx, id)
}

// Registry maps model type tags to finders. It implements cart.ModelResolver.
type Registry struct {
	mu      sync.RWMutex
	finders map[string]Finder
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{finders: make(map[string]Finder)}
}

// Register binds typ to f, replacing any previous finder.
func (r *Registry) Register(typ string, f Finder) error {
	typ = strings.TrimSpace(typ)
	if typ == "" || f == nil {
		return errors.New("catalog: model type and finder are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finders[typ] = f
	return nil
}

// Known implements cart.ModelResolver.
func (r *Registry) Known(typ string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.finders[typ]
	return ok
}

// Find resolves a model reference to a buyable record.
func (r *Registry) Find(ctx context.Context, ref cart.ModelRef) (cart.Buyable, error) {
	if r == nil {
		return nil, fmt.Errorf("model %q: %w", ref.Type, cart.ErrUnknownModel)
	}
	r.mu.RLock()
	f, ok := r.finders[ref.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("model %q: %w", ref.Type, cart.ErrUnknownModel)
	}
	return f.FindBuyable(ctx, ref.ID)
}
