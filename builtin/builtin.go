// Package builtin registers converter factories for JSON and YAML text with the default
// converter registry. Import it for its side effect:
//
//	import _ "ocm.software/open-component-model/bindings/go/converter/builtin"
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/bindings/go/converter"
)

const (
	NameJSON = "json"
	NameYAML = "yaml"

	// LinksKey is the key under which ConvertWithLinks adds the external URLs to object documents.
	LinksKey = "links"
)

func init() {
	converter.Register(JSON)
	converter.Register(YAML)
}

var (
	// JSON converts documents to and from indented JSON.
	JSON converter.Factory = &factory{
		name: NameJSON,
		marshal: func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		},
		unmarshal: json.Unmarshal,
	}
	// YAML converts documents to and from YAML.
	YAML converter.Factory = &factory{
		name:    NameYAML,
		marshal: yaml.Marshal,
		unmarshal: func(data []byte, v any) error {
			return yaml.Unmarshal(data, v)
		},
	}
)

type factory struct {
	name      string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func (f *factory) Name() string {
	return f.name
}

func (f *factory) NewConvertibleToTextConverter(_ context.Context) (converter.ConvertibleToTextConverter, error) {
	return &toText{f}, nil
}

func (f *factory) NewTextToConvertibleConverter(_ context.Context) (converter.TextToConvertibleConverter, error) {
	return &fromText{f}, nil
}

type toText struct {
	*factory
}

func (c *toText) Convert(_ context.Context, doc converter.Convertible) (string, error) {
	data, err := c.marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to convert document to %s: %w", c.name, err)
	}
	return string(data), nil
}

func (c *toText) ConvertWithLinks(ctx context.Context, doc converter.Convertible, urls converter.ExternalURLs) (string, error) {
	if object, ok := doc.(map[string]any); ok && urls != (converter.ExternalURLs{}) {
		linked := maps.Clone(object)
		linked[LinksKey] = urls
		doc = linked
	}
	return c.Convert(ctx, doc)
}

type fromText struct {
	*factory
}

func (c *fromText) Convert(_ context.Context, text string) (converter.Convertible, error) {
	var doc any
	if err := c.unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("failed to convert %s to document: %w", c.name, err)
	}
	return doc, nil
}
