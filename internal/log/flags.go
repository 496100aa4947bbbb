// Package log configures the process logger of the converter command line tool from flags.
package log

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	FlagLevel  = "loglevel"
	FlagFormat = "logformat"
	FlagRealm  = "logrealm"

	FormatText = "text"
	FormatJSON = "json"
)

var levels = []string{"debug", "info", "warn", "error"}

func RegisterLoggingFlags(flags *pflag.FlagSet) {
	flags.String(FlagLevel, "warn", fmt.Sprintf("set the log level (%s)", strings.Join(levels, ", ")))
	flags.String(FlagFormat, FormatText, "set the log format (text, json)")
	flags.StringSlice(FlagRealm, nil, `raise the log level of a realm, e.g. "converter=error"`)
}

// GetBaseLogger builds the logger selected by the logging flags. It writes to the error stream
// of the command so that log output does not mix with command output.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := GetLoggerLevel(cmd.Flags())
	if err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString(FlagFormat)
	if err != nil {
		return nil, err
	}

	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), options)
	case FormatText:
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), options)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	rawRealms, err := cmd.Flags().GetStringSlice(FlagRealm)
	if err != nil {
		return nil, err
	}
	if len(rawRealms) > 0 {
		realms, err := RealmLevelsFromStrings(rawRealms...)
		if err != nil {
			return nil, err
		}
		handler = NewRealmHandler(handler, realms)
	}

	return slog.New(handler), nil
}

func GetLoggerLevel(flags *pflag.FlagSet) (slog.Level, error) {
	raw, err := flags.GetString(FlagLevel)
	if err != nil {
		return slog.LevelWarn, err
	}
	if !slices.Contains(levels, raw) {
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", raw)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", raw)
	}
	return level, nil
}
