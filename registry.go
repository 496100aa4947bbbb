package converter

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
)

// Registry caches the name to factory mapping of a Provider and hands out converters by name.
//
// The mapping is discovered lazily on first use. Discovery runs inside a single critical section,
// so concurrent first callers trigger exactly one enumeration of the provider and never observe a
// partially populated mapping. A failed discovery leaves the registry uninitialized and is retried by the
// next caller. Once populated, a mapping is never modified, so callers read it after releasing the lock.
//
// The registry caches factories, not converters: every lookup returns a new converter.
type Registry struct {
	provider Provider

	mu sync.Mutex
	// factories is empty while the registry is uninitialized.
	// A published map is replaced, never mutated.
	factories map[string]Factory
}

// NewRegistry creates an uninitialized registry discovering its factories from provider.
func NewRegistry(provider Provider) *Registry {
	return &Registry{
		provider: provider,
	}
}

// GetConvertibleToTextConverter returns a new converter serializing documents to text,
// produced by the factory registered under name.
func (r *Registry) GetConvertibleToTextConverter(ctx context.Context, name string) (ConvertibleToTextConverter, error) {
	factory, err := r.lookup(ctx, KindToText, name)
	if err != nil {
		return nil, err
	}
	c, err := factory.NewConvertibleToTextConverter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s converter %q: %w", KindToText, name, err)
	}
	return c, nil
}

// GetTextToConvertibleConverter returns a new converter parsing text into documents,
// produced by the factory registered under name.
func (r *Registry) GetTextToConvertibleConverter(ctx context.Context, name string) (TextToConvertibleConverter, error) {
	factory, err := r.lookup(ctx, KindFromText, name)
	if err != nil {
		return nil, err
	}
	c, err := factory.NewTextToConvertibleConverter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s converter %q: %w", KindFromText, name, err)
	}
	return c, nil
}

// Get returns a new converter of the given kind. The result is either a ConvertibleToTextConverter
// or a TextToConvertibleConverter.
func (r *Registry) Get(ctx context.Context, kind Kind, name string) (any, error) {
	switch kind {
	case KindToText:
		return r.GetConvertibleToTextConverter(ctx, name)
	case KindFromText:
		return r.GetTextToConvertibleConverter(ctx, name)
	default:
		return nil, fmt.Errorf("unsupported converter kind %d", kind)
	}
}

// Names returns the sorted names of all registered factories, discovering them if necessary.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	factories, err := r.ensureDiscovered(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(factories)), nil
}

// Factories returns the registered factories sorted by name, discovering them if necessary.
func (r *Registry) Factories(ctx context.Context) ([]Factory, error) {
	factories, err := r.ensureDiscovered(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Factory, 0, len(factories))
	for _, name := range slices.Sorted(maps.Keys(factories)) {
		result = append(result, factories[name])
	}
	return result, nil
}

// Initialized reports whether the registry holds a mapping.
func (r *Registry) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.factories) > 0
}

// SetFactory registers factory under name without running discovery.
// A registry holding any factory counts as initialized, so discovery is skipped afterwards.
// This is meant for tests of code that consumes converters, production code should register
// factories through a Provider.
func (r *Registry) SetFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	factories := maps.Clone(r.factories)
	if factories == nil {
		factories = make(map[string]Factory, 1)
	}
	factories[name] = factory
	r.factories = factories
}

// Reset drops the mapping, the next lookup discovers again. Meant for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = nil
}

func (r *Registry) lookup(ctx context.Context, kind Kind, name string) (Factory, error) {
	factories, err := r.ensureDiscovered(ctx)
	if err != nil {
		return nil, err
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: no implementation found for %q converter", ErrNotFound, name)
	}
	slogcontext.FromCtx(ctx).DebugContext(ctx, "resolved converter factory",
		slog.String("realm", Realm), slog.String("name", name), slog.String("kind", kind.String()))
	return factory, nil
}

// ensureDiscovered returns the published mapping, running discovery first if the registry is uninitialized.
func (r *Registry) ensureDiscovered(ctx context.Context) (map[string]Factory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.factories) > 0 {
		return r.factories, nil
	}

	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", Realm))
	logger.InfoContext(ctx, "converter registry starting...")

	factories, err := r.discover(ctx)
	if err != nil {
		return nil, err
	}
	r.factories = factories

	logger.InfoContext(ctx, "converter registry started", slog.Int("factories", len(factories)))
	return factories, nil
}

func (r *Registry) discover(ctx context.Context) (map[string]Factory, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrDiscovery)
	}
	candidates, err := r.provider.Factories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enumerate factories: %w", ErrDiscovery, err)
	}
	return Discover(ctx, candidates)
}
