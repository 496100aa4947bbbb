package wasm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	extism "github.com/extism/go-sdk"
	"github.com/opencontainers/go-digest"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/converter"
)

// Realm is the logging realm of wasm converter plugins.
const Realm = "converter/wasm"

// Exported functions of a converter plugin module.
const (
	FunctionName            = "name"
	FunctionConvertToText   = "convert_to_text"
	FunctionConvertFromText = "convert_from_text"
)

// Factory implements converter.Factory for a compiled wasm plugin module.
// Every converter created by the factory runs in its own plugin instance.
type Factory struct {
	compiled *extism.CompiledPlugin
	name     string
	path     string
	digest   digest.Digest
}

var _ converter.Factory = (*Factory)(nil)

// NewFactory compiles the wasm module at wasmPath and asks it for its factory name.
func NewFactory(ctx context.Context, wasmPath string) (*Factory, error) {
	wasmBytes, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm file: %w", err)
	}
	moduleDigest := digest.SHA256.FromBytes(wasmBytes)

	manifest := extism.Manifest{
		Wasm: []extism.Wasm{
			extism.WasmData{
				Data: wasmBytes,
				Hash: moduleDigest.Encoded(),
			},
		},
		Config: map[string]string{},
	}

	config := extism.PluginConfig{
		EnableWasi: true,
	}

	compiled, err := extism.NewCompiledPlugin(ctx, manifest, config, []extism.HostFunction{})
	if err != nil {
		return nil, fmt.Errorf("failed to compile extism plugin %q: %w", wasmPath, err)
	}

	f := &Factory{compiled: compiled, path: wasmPath, digest: moduleDigest}
	name, err := f.queryName(ctx)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}
	f.name = name

	return f, nil
}

func (f *Factory) queryName(ctx context.Context) (string, error) {
	plugin, err := f.instance(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = plugin.Close(ctx) }()

	_, output, err := plugin.CallWithContext(ctx, FunctionName, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call wasm function %q of %q: %w", FunctionName, f.path, err)
	}
	name := strings.TrimSpace(string(output))
	if name == "" {
		return "", fmt.Errorf("wasm plugin %q returned an empty factory name", f.path)
	}
	return name, nil
}

// Name returns the name reported by the plugin module.
func (f *Factory) Name() string {
	return f.name
}

// Path returns the location of the plugin module.
func (f *Factory) Path() string {
	return f.path
}

// Digest returns the sha256 digest of the plugin module.
func (f *Factory) Digest() digest.Digest {
	return f.digest
}

func (f *Factory) NewConvertibleToTextConverter(ctx context.Context) (converter.ConvertibleToTextConverter, error) {
	plugin, err := f.instance(ctx)
	if err != nil {
		return nil, err
	}
	return &ToTextConverter{pluginConverter{plugin: plugin, factory: f.name}}, nil
}

func (f *Factory) NewTextToConvertibleConverter(ctx context.Context) (converter.TextToConvertibleConverter, error) {
	plugin, err := f.instance(ctx)
	if err != nil {
		return nil, err
	}
	return &FromTextConverter{pluginConverter{plugin: plugin, factory: f.name}}, nil
}

// Close releases the compiled module. Converters created by the factory must not be used afterwards.
func (f *Factory) Close(ctx context.Context) error {
	if err := f.compiled.Close(ctx); err != nil {
		return fmt.Errorf("failed to close wasm plugin %q: %w", f.path, err)
	}
	return nil
}

func (f *Factory) instance(ctx context.Context) (*extism.Plugin, error) {
	plugin, err := f.compiled.Instance(ctx, extism.PluginInstanceConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate wasm plugin %q: %w", f.path, err)
	}
	plugin.SetLogger(pluginLogger(slogcontext.FromCtx(ctx).With(slog.String("realm", Realm), slog.String("plugin", f.path))))
	return plugin, nil
}

// pluginLogger forwards plugin log output to logger. Plugin instances outlive the context
// they were created with, so records are not bound to it.
func pluginLogger(logger *slog.Logger) func(extism.LogLevel, string) {
	return func(level extism.LogLevel, message string) {
		logger.Log(context.Background(), slogLevel(level), message)
	}
}

func slogLevel(level extism.LogLevel) slog.Level {
	switch level {
	case extism.LogLevelInfo:
		return slog.LevelInfo
	case extism.LogLevelWarn:
		return slog.LevelWarn
	case extism.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
