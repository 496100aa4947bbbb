package wasm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/converter"
	"ocm.software/open-component-model/bindings/go/converter/wasm"
)

// testPlugin is built from internal/testplugin-wasm-converter with
// GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o wasm/testdata/converter-plugin.wasm ./internal/testplugin-wasm-converter
const testPlugin = "testdata/converter-plugin.wasm"

func requireTestPlugin(t *testing.T) string {
	t.Helper()
	if _, err := os.Stat(testPlugin); err != nil {
		t.Skipf("test plugin %s not built: %v", testPlugin, err)
	}
	return testPlugin
}

func TestNewProviderWithoutModules(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
		},
		{
			name: "empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
		{
			name: "other files are ignored",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# converters"), 0o600))
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.wasm"), 0o700))
				return dir
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			p, err := wasm.NewProvider(ctx, tt.setup(t))
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, p.Close(ctx)) })

			seq, err := p.Factories(ctx)
			require.NoError(t, err)
			for f := range seq {
				t.Errorf("unexpected factory %q", f.Name())
			}

			_, err = converter.NewRegistry(p).Names(ctx)
			assert.ErrorIs(t, err, converter.ErrDiscovery)
		})
	}
}

func TestNewProviderInvalidModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.wasm"), []byte("not a wasm module"), 0o600))

	_, err := wasm.NewProvider(t.Context(), dir)
	assert.ErrorContains(t, err, "failed to load wasm converter plugins")
	assert.ErrorContains(t, err, "broken.wasm")
}

func TestNewFactoryMissingFile(t *testing.T) {
	_, err := wasm.NewFactory(t.Context(), filepath.Join(t.TempDir(), "missing.wasm"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWasmConverterPlugin(t *testing.T) {
	path := requireTestPlugin(t)
	ctx := t.Context()

	dir := t.TempDir()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upper.wasm"), data, 0o600))

	p, err := wasm.NewProvider(ctx, dir)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, p.Close(ctx)) })

	seq, err := p.Factories(ctx)
	require.NoError(t, err)
	for f := range seq {
		plugin := f.(*wasm.Factory)
		assert.Equal(t, digest.FromBytes(data), plugin.Digest())
		assert.Equal(t, filepath.Join(dir, "upper.wasm"), plugin.Path())
	}

	registry := converter.NewRegistry(p)
	names, err := registry.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"upper"}, names)

	t.Run("convert to text", func(t *testing.T) {
		toText, err := registry.GetConvertibleToTextConverter(ctx, "upper")
		require.NoError(t, err)

		text, err := toText.Convert(ctx, map[string]any{"title": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "HELLO", text)

		text, err = toText.ConvertWithLinks(ctx, map[string]any{"title": "hello"}, converter.ExternalURLs{BaseURL: "https://example.org"})
		require.NoError(t, err)
		assert.Equal(t, "HELLO https://example.org", text)
	})

	t.Run("convert from text", func(t *testing.T) {
		fromText, err := registry.GetTextToConvertibleConverter(ctx, "upper")
		require.NoError(t, err)

		doc, err := fromText.Convert(ctx, "Hello")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "hello"}, doc)
	})

	t.Run("converters use separate instances", func(t *testing.T) {
		first, err := registry.GetConvertibleToTextConverter(ctx, "upper")
		require.NoError(t, err)
		second, err := registry.GetConvertibleToTextConverter(ctx, "upper")
		require.NoError(t, err)
		require.NotSame(t, first, second)

		require.NoError(t, first.(*wasm.ToTextConverter).Close(ctx))
		text, err := second.Convert(ctx, map[string]any{"title": "still works"})
		require.NoError(t, err)
		assert.Equal(t, "STILL WORKS", text)
	})
}
