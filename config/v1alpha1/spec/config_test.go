package spec_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/converter/config/v1alpha1/spec"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   *spec.Config
	}{
		{
			name: "versioned type",
			config: `
type: converter.config.ocm.software/v1alpha1
pluginDirectory: /opt/ocm/converters
factories:
  - xml*
  - json
`,
			want: &spec.Config{
				Type:            spec.VersionedType,
				PluginDirectory: "/opt/ocm/converters",
				Factories:       []string{"xml*", "json"},
			},
		},
		{
			name:   "unversioned type",
			config: `{"type": "converter.config.ocm.software"}`,
			want:   spec.Default(),
		},
		{
			name: "generic config",
			config: `
type: generic.config.ocm.software/v1
configurations:
  - type: credentials.config.ocm.software
    repositories: []
  - type: converter.config.ocm.software/v1alpha1
    pluginDirectory: /first
    factories: ["xml"]
  - type: converter.config.ocm.software/v1alpha1
    pluginDirectory: /second
`,
			want: &spec.Config{
				Type:            spec.VersionedType,
				PluginDirectory: "/second",
				Factories:       []string{"xml"},
			},
		},
		{
			name: "generic config without converter entries",
			config: `
type: generic.config.ocm.software
configurations: []
`,
			want: spec.Default(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := spec.Parse([]byte(tt.config))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		message string
	}{
		{
			name:    "no type",
			config:  `pluginDirectory: /opt`,
			message: "config has no type",
		},
		{
			name:    "unknown type",
			config:  `type: something.else/v1`,
			message: `unsupported config type "something.else/v1"`,
		},
		{
			name: "unknown field",
			config: `
type: converter.config.ocm.software/v1alpha1
pluginDir: /opt
`,
			message: "invalid converter config",
		},
		{
			name: "wrong field type",
			config: `
type: converter.config.ocm.software/v1alpha1
factories: xml
`,
			message: "invalid converter config",
		},
		{
			name: "invalid entry in generic config",
			config: `
type: generic.config.ocm.software/v1
configurations:
  - type: converter.config.ocm.software/v1alpha1
    pluginDirectory: 42
`,
			message: "configuration at index 0: invalid converter config",
		},
		{
			name:    "not yaml",
			config:  "type: [",
			message: "failed to convert config to json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := spec.Parse([]byte(tt.config))
			assert.ErrorContains(t, err, tt.message)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: converter.config.ocm.software/v1alpha1\nfactories: [\"json\"]\n"), 0o600))

	cfg, err := spec.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"json"}, cfg.Factories)

	_, err = spec.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMerge(t *testing.T) {
	assert.Nil(t, spec.Merge())

	merged := spec.Merge(
		&spec.Config{PluginDirectory: "/a", Factories: []string{"xml"}},
		nil,
		&spec.Config{PluginDirectory: "/b"},
		&spec.Config{Factories: []string{}},
	)
	assert.Equal(t, spec.VersionedType, merged.Type)
	assert.Equal(t, "/b", merged.PluginDirectory)
	assert.Empty(t, merged.Factories)
	assert.NotNil(t, merged.Factories)
}

func TestJSONSchema(t *testing.T) {
	data, err := spec.JSONSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"type"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, properties, "pluginDirectory")
	assert.Contains(t, properties, "factories")
}

func TestValidate(t *testing.T) {
	require.NoError(t, spec.Validate([]byte(`{"type":"converter.config.ocm.software/v1alpha1"}`)))
	assert.ErrorContains(t, spec.Validate([]byte(`{"type":"converter.config.ocm.software/v2"}`)), "invalid converter config")
	assert.Error(t, spec.Validate([]byte(`{`)))
}
