package registry

import (
	"context"

	"github.com/vadim/socialops/internal/domain/platform/entity"
)

// Adapter is a single social platform integration, live or stub
type Adapter interface {
	Platform() entity.Platform
	Limit() int
	Mode() entity.Mode
	Post(ctx context.Context, text string, mediaURLs []string) (*entity.PostOutput, error)
	GetMetrics(ctx context.Context, postID string) entity.Metrics
	VerifyCredentials(ctx context.Context) bool
}

// Registry resolves platform names to adapters. It is built once at startup and read-only after.
type Registry struct {
	adapters map[entity.Platform]Adapter
	order    []entity.Platform
}

// New creates a registry. Later adapters for the same platform replace earlier ones.
func New(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[entity.Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}

	// canonical order first, anything unexpected after
	for _, p := range entity.All {
		if _, ok := r.adapters[p]; ok {
			r.order = append(r.order, p)
		}
	}
	for _, a := range adapters {
		if !contains(r.order, a.Platform()) {
			r.order = append(r.order, a.Platform())
		}
	}

	return r
}

// Get resolves a name case-insensitively, ignoring surrounding whitespace
func (r *Registry) Get(name string) (Adapter, error) {
	p, _ := entity.Parse(name)
	if a, ok := r.adapters[p]; ok {
		return a, nil
	}
	return nil, &entity.UnknownPlatformError{Name: name, Valid: r.Names()}
}

// All returns every adapter in canonical order
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.adapters[p])
	}
	return out
}

// Live returns the adapters backed by a real vendor API
func (r *Registry) Live() []Adapter {
	return r.byMode(entity.ModeLive)
}

// Stub returns the adapters without a live integration
func (r *Registry) Stub() []Adapter {
	return r.byMode(entity.ModeStub)
}

// Names returns the registered platform names in canonical order
func (r *Registry) Names() []string {
	return entity.Names(r.order)
}

func (r *Registry) byMode(mode entity.Mode) []Adapter {
	var out []Adapter
	for _, p := range r.order {
		if a := r.adapters[p]; a.Mode() == mode {
			out = append(out, a)
		}
	}
	return out
}

func contains(list []entity.Platform, p entity.Platform) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
