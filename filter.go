package converter

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/gobwas/glob"
	slogcontext "github.com/veqryn/slog-context"
)

// FilterProvider wraps p so that only candidates whose name matches at least one of the glob patterns
// (github.com/gobwas/glob syntax) are passed on. Without patterns every candidate is passed on.
// Filtering happens before discovery, duplicates among the remaining candidates still fail discovery.
func FilterProvider(p Provider, patterns ...string) (Provider, error) {
	if len(patterns) == 0 {
		return p, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for index, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile factory name pattern %q at index %d: %w", pattern, index, err)
		}
		globs = append(globs, g)
	}

	return ProviderFunc(func(ctx context.Context) (iter.Seq[Factory], error) {
		candidates, err := p.Factories(ctx)
		if err != nil {
			return nil, err
		}
		if candidates == nil {
			return nil, nil
		}
		logger := slogcontext.FromCtx(ctx).With(slog.String("realm", Realm))
		return func(yield func(Factory) bool) {
			for candidate := range candidates {
				if candidate == nil {
					continue
				}
				name := candidate.Name()
				if !matchAny(globs, name) {
					logger.DebugContext(ctx, "skipping converter factory not matching any pattern", slog.String("name", name))
					continue
				}
				if !yield(candidate) {
					return
				}
			}
		}, nil
	}), nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
