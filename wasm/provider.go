// Package wasm provides converter factories implemented as wasm plugin modules.
//
// A plugin module exports three functions:
//
//   - name returns the factory name as text.
//   - convert_to_text receives a JSON encoded ToTextRequest and returns text.
//   - convert_from_text receives text and returns a JSON encoded document.
package wasm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"ocm.software/open-component-model/bindings/go/converter"
)

// Extension is the file extension of plugin modules.
const Extension = ".wasm"

// Provider offers the plugin modules of a directory as converter factory candidates.
type Provider struct {
	dir       string
	factories []*Factory
}

var _ converter.Provider = (*Provider)(nil)

// NewProvider compiles every plugin module found below dir.
// A missing directory results in a provider without candidates.
func NewProvider(ctx context.Context, dir string) (*Provider, error) {
	paths, err := lookupModules(dir)
	if err != nil {
		return nil, err
	}

	factories := make([]*Factory, len(paths))
	eg, egctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			factory, err := NewFactory(egctx, path)
			if err != nil {
				return err
			}
			factories[i] = factory
			slog.DebugContext(ctx, "loaded wasm converter plugin", "realm", Realm, "name", factory.Name(), "path", path, "digest", factory.Digest())
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		var closeErrs []error
		for _, factory := range factories {
			if factory != nil {
				closeErrs = append(closeErrs, factory.Close(ctx))
			}
		}
		return nil, errors.Join(append([]error{fmt.Errorf("failed to load wasm converter plugins from %q: %w", dir, err)}, closeErrs...)...)
	}

	return &Provider{dir: dir, factories: factories}, nil
}

func lookupModules(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, os.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up wasm converter plugins in %q: %w", dir, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// Factories yields the compiled plugin modules ordered by path.
func (p *Provider) Factories(_ context.Context) (iter.Seq[converter.Factory], error) {
	return func(yield func(converter.Factory) bool) {
		for _, factory := range p.factories {
			if !yield(factory) {
				return
			}
		}
	}, nil
}

// Directory returns the directory the plugin modules were loaded from.
func (p *Provider) Directory() string {
	return p.dir
}

// Close releases all compiled plugin modules.
func (p *Provider) Close(ctx context.Context) error {
	errs := make([]error, 0, len(p.factories))
	for _, factory := range p.factories {
		errs = append(errs, factory.Close(ctx))
	}
	p.factories = nil
	return errors.Join(errs...)
}
