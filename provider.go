package converter

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
)

// Provider enumerates the candidate factories offered by the host's plugin loading mechanism.
// A Registry calls Factories exactly once per discovery attempt and iterates the result once.
type Provider interface {
	Factories(ctx context.Context) (iter.Seq[Factory], error)
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(ctx context.Context) (iter.Seq[Factory], error)

func (f ProviderFunc) Factories(ctx context.Context) (iter.Seq[Factory], error) {
	return f(ctx)
}

// StaticProvider holds factories registered in process, usually from init functions of plugin packages.
// Registering does not validate names, duplicates are reported by discovery.
type StaticProvider struct {
	mu        sync.RWMutex
	factories []Factory
}

// NewStaticProvider creates a provider serving the given factories in order.
// It panics if any factory is nil.
func NewStaticProvider(factories ...Factory) *StaticProvider {
	if slices.Contains(factories, nil) {
		panic("converter: NewStaticProvider factory is nil")
	}
	return &StaticProvider{factories: slices.Clone(factories)}
}

// Register appends a factory. It panics if factory is nil.
func (p *StaticProvider) Register(factory Factory) {
	if factory == nil {
		panic("converter: Register factory is nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories = append(p.factories, factory)
}

// Factories returns a snapshot of the registered factories.
func (p *StaticProvider) Factories(_ context.Context) (iter.Seq[Factory], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Values(slices.Clone(p.factories)), nil
}

// Providers concatenates the candidates of several providers, in argument order.
// All providers are enumerated before iteration starts, the first enumeration error is returned.
func Providers(providers ...Provider) Provider {
	return ProviderFunc(func(ctx context.Context) (iter.Seq[Factory], error) {
		seqs := make([]iter.Seq[Factory], 0, len(providers))
		for i, p := range providers {
			seq, err := p.Factories(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to enumerate provider %d: %w", i, err)
			}
			if seq != nil {
				seqs = append(seqs, seq)
			}
		}
		return func(yield func(Factory) bool) {
			for _, seq := range seqs {
				for f := range seq {
					if !yield(f) {
						return
					}
				}
			}
		}, nil
	})
}
