// Package setup prepares logging, configuration and the converter registry for all commands.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/converter"
	"ocm.software/open-component-model/bindings/go/converter/config/v1alpha1/spec"
	"ocm.software/open-component-model/bindings/go/converter/internal/log"
	"ocm.software/open-component-model/bindings/go/converter/wasm"
)

const (
	FlagConfig          = "config"
	FlagPluginDirectory = "plugin-directory"
	FlagFactory         = "factory"
)

type configKey struct{}

func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagConfig, "", "path to a converter configuration file")
	flags.String(FlagPluginDirectory, "", "directory of wasm converter plugins, overriding the configuration")
	flags.StringSlice(FlagFactory, nil, "glob patterns of the converter factories to use, overriding the configuration")
}

// PreRunE configures the default logger and stores the effective configuration in the command context.
func PreRunE(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)
	ctx := slogcontext.NewCtx(cmd.Context(), logger)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve converter configuration: %w", err)
	}
	slog.DebugContext(ctx, "using converter configuration", "pluginDirectory", cfg.PluginDirectory, "factories", cfg.Factories)

	cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))
	return nil
}

// loadConfig reads the configuration file and applies the flags that were set on top of it.
func loadConfig(cmd *cobra.Command) (*spec.Config, error) {
	cfg := spec.Default()

	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if cfg, err = spec.Load(path); err != nil {
			return nil, err
		}
	}

	overrides := &spec.Config{}
	if flag := cmd.Flags().Lookup(FlagPluginDirectory); flag != nil && flag.Changed {
		overrides.PluginDirectory = flag.Value.String()
	}
	if flag := cmd.Flags().Lookup(FlagFactory); flag != nil && flag.Changed {
		if overrides.Factories, err = cmd.Flags().GetStringSlice(FlagFactory); err != nil {
			return nil, err
		}
	}

	return spec.Merge(cfg, overrides), nil
}

// Config returns the configuration stored by PreRunE or the default configuration.
func Config(ctx context.Context) *spec.Config {
	if cfg, ok := ctx.Value(configKey{}).(*spec.Config); ok {
		return cfg
	}
	return spec.Default()
}

// Registry creates a registry over the statically registered factories and the wasm plugins of the
// configured plugin directory, restricted to the configured factory patterns.
// The returned function releases the loaded plugins.
func Registry(ctx context.Context) (*converter.Registry, func(context.Context) error, error) {
	cfg := Config(ctx)

	providers := []converter.Provider{converter.DefaultProvider()}
	closer := func(context.Context) error { return nil }
	if cfg.PluginDirectory != "" {
		plugins, err := wasm.NewProvider(ctx, cfg.PluginDirectory)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, plugins)
		closer = plugins.Close
	}

	provider, err := converter.FilterProvider(converter.Providers(providers...), cfg.Factories...)
	if err != nil {
		return nil, nil, errors.Join(err, closer(ctx))
	}

	return converter.NewRegistry(provider), closer, nil
}
