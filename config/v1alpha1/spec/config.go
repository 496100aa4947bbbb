// Package spec contains the configuration of the converter registry.
//
// The configuration can be passed on its own
//
//	type: converter.config.ocm.software/v1alpha1
//	pluginDirectory: /opt/ocm/converters
//	factories:
//	  - xml*
//
// or as one or more entries of a generic OCM configuration file:
//
//	type: generic.config.ocm.software/v1
//	configurations:
//	  - type: converter.config.ocm.software/v1alpha1
//	    factories: ["json"]
package spec

import (
	"encoding/json"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

const (
	// ConfigType defines the type identifier for converter registry configurations.
	ConfigType = "converter.config.ocm.software"
	Version    = "v1alpha1"

	// GenericConfigType is the type of the generic OCM configuration wrapping typed configurations.
	GenericConfigType = "generic.config.ocm.software"
	GenericVersion    = "v1"
)

var (
	// VersionedType is the canonical type of Config.
	VersionedType = ConfigType + "/" + Version

	acceptedTypes        = []string{VersionedType, ConfigType}
	acceptedGenericTypes = []string{GenericConfigType + "/" + GenericVersion, GenericConfigType}
)

// Config represents the converter registry configuration.
type Config struct {
	Type string `json:"type" jsonschema:"enum=converter.config.ocm.software/v1alpha1,enum=converter.config.ocm.software"`

	// PluginDirectory is the directory searched for wasm converter plugins.
	// If not set, only converters compiled into the binary are available.
	PluginDirectory string `json:"pluginDirectory,omitempty"`

	// Factories restricts the discovered converter factories to those whose name matches
	// at least one of the glob patterns. If not set, all factories are accepted.
	Factories []string `json:"factories,omitempty"`
}

// Default returns a configuration accepting all factories without a plugin directory.
func Default() *Config {
	return &Config{Type: VersionedType}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read converter config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse converter config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON document that is either a converter configuration or a generic
// configuration holding converter configurations. Every converter configuration is validated
// against JSONSchema. Several converter configurations are merged in order onto Default.
func Parse(data []byte) (*Config, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config to json: %w", err)
	}

	typ, err := peekType(raw)
	if err != nil {
		return nil, err
	}

	switch {
	case contains(acceptedTypes, typ):
		cfg, err := decode(raw)
		if err != nil {
			return nil, err
		}
		return Merge(Default(), cfg), nil
	case contains(acceptedGenericTypes, typ):
		var generic struct {
			Configurations []json.RawMessage `json:"configurations"`
		}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("failed to decode generic config: %w", err)
		}
		cfgs := []*Config{Default()}
		for index, entry := range generic.Configurations {
			entryType, err := peekType(entry)
			if err != nil {
				return nil, fmt.Errorf("configuration at index %d: %w", index, err)
			}
			if !contains(acceptedTypes, entryType) {
				continue
			}
			cfg, err := decode(entry)
			if err != nil {
				return nil, fmt.Errorf("configuration at index %d: %w", index, err)
			}
			cfgs = append(cfgs, cfg)
		}
		return Merge(cfgs...), nil
	default:
		return nil, fmt.Errorf("unsupported config type %q", typ)
	}
}

// Merge merges the provided configs into a single config.
// The last explicitly set value wins.
func Merge(configs ...*Config) *Config {
	if len(configs) == 0 {
		return nil
	}

	merged := Default()
	for _, config := range configs {
		if config == nil {
			continue
		}
		if config.PluginDirectory != "" {
			merged.PluginDirectory = config.PluginDirectory
		}
		if config.Factories != nil {
			merged.Factories = config.Factories
		}
	}

	return merged
}

func decode(raw []byte) (*Config, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode converter config: %w", err)
	}
	return &cfg, nil
}

func peekType(raw []byte) (string, error) {
	var typed struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return "", fmt.Errorf("failed to decode config type: %w", err)
	}
	if typed.Type == "" {
		return "", fmt.Errorf("config has no type")
	}
	return typed.Type, nil
}

func contains(types []string, typ string) bool {
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}
