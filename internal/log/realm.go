package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// KeyRealm is the attribute naming the subsystem a record was logged from.
const KeyRealm = "realm"

// realmHandler drops records whose realm has a minimum level above the record level.
// Records without a realm pass unchanged.
type realmHandler struct {
	next      slog.Handler
	minLevels map[string]slog.Level
	// realm set through WithAttrs
	realm string
}

// NewRealmHandler wraps next so that records of a realm in minLevels are only passed on
// at or above the realm's level.
func NewRealmHandler(next slog.Handler, minLevels map[string]slog.Level) slog.Handler {
	return &realmHandler{next: next, minLevels: minLevels}
}

func (h *realmHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *realmHandler) Handle(ctx context.Context, record slog.Record) error {
	realm := h.realm
	if realm == "" {
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == KeyRealm {
				realm = attr.Value.String()
				return false
			}
			return true
		})
	}
	if minLevel, ok := h.minLevels[realm]; ok && record.Level < minLevel {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *realmHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	realm := h.realm
	for _, attr := range attrs {
		if realm == "" && attr.Key == KeyRealm {
			realm = attr.Value.String()
		}
	}
	return &realmHandler{next: h.next.WithAttrs(attrs), minLevels: h.minLevels, realm: realm}
}

func (h *realmHandler) WithGroup(name string) slog.Handler {
	return &realmHandler{next: h.next.WithGroup(name), minLevels: h.minLevels, realm: h.realm}
}

// RealmLevelsFromStrings parses "realm=level" pairs.
func RealmLevelsFromStrings(raw ...string) (map[string]slog.Level, error) {
	levels := make(map[string]slog.Level, len(raw))
	for _, entry := range raw {
		realm, rawLevel, found := strings.Cut(entry, "=")
		if !found || realm == "" {
			return nil, fmt.Errorf("invalid realm log level %q, expected realm=level", entry)
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(rawLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level in %q: %w", entry, err)
		}
		levels[realm] = level
	}
	return levels, nil
}
