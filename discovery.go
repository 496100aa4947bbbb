package converter

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"
)

// Realm is the logging realm of the converter registry.
const Realm = "converter"

// Discover classifies candidates into a name to factory mapping.
// The candidates are iterated exactly once and in order. Discovery stops at the first candidate whose
// name was already seen. An empty result is an error as well. Both failures wrap ErrDiscovery.
// A nil sequence counts as empty, nil candidates are skipped.
func Discover(ctx context.Context, candidates iter.Seq[Factory]) (map[string]Factory, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", Realm))

	found := make(map[string]Factory)
	if candidates == nil {
		candidates = func(func(Factory) bool) {}
	}
	for candidate := range candidates {
		if candidate == nil {
			logger.WarnContext(ctx, "skipping nil converter factory candidate")
			continue
		}
		name := candidate.Name()
		logger.InfoContext(ctx, "found implementation for converter factory",
			slog.String("name", name),
			slog.String("implementation", fmt.Sprintf("%T", candidate)),
		)
		if _, ok := found[name]; ok {
			err := fmt.Errorf("%w: more than one implementation found for factory with name %q", ErrDiscovery, name)
			logger.ErrorContext(ctx, "converter factory discovery failed", slog.String("error", err.Error()))
			return nil, err
		}
		found[name] = candidate
	}

	if len(found) == 0 {
		err := fmt.Errorf("%w: no implementations found for factory", ErrDiscovery)
		logger.ErrorContext(ctx, "converter factory discovery failed", slog.String("error", err.Error()))
		return nil, err
	}

	return found, nil
}
