package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	extism "github.com/extism/go-sdk"

	"ocm.software/open-component-model/bindings/go/converter"
)

// ToTextRequest is the payload passed to the convert_to_text function of a plugin.
type ToTextRequest struct {
	Document converter.Convertible   `json:"document"`
	URLs     *converter.ExternalURLs `json:"urls,omitempty"`
}

// pluginConverter serializes calls into a single plugin instance.
type pluginConverter struct {
	mu      sync.Mutex
	plugin  *extism.Plugin
	factory string
}

func (c *pluginConverter) call(ctx context.Context, function string, input []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, output, err := c.plugin.CallWithContext(ctx, function, input)
	if err != nil {
		return nil, fmt.Errorf("failed to call wasm function %q of converter %q: %w", function, c.factory, err)
	}
	return output, nil
}

// Close releases the plugin instance backing the converter.
func (c *pluginConverter) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plugin.Close(ctx)
}

// ToTextConverter converts documents to text with a wasm plugin.
type ToTextConverter struct {
	pluginConverter
}

var _ converter.ConvertibleToTextConverter = (*ToTextConverter)(nil)

func (c *ToTextConverter) Convert(ctx context.Context, doc converter.Convertible) (string, error) {
	return c.convert(ctx, ToTextRequest{Document: doc})
}

func (c *ToTextConverter) ConvertWithLinks(ctx context.Context, doc converter.Convertible, urls converter.ExternalURLs) (string, error) {
	return c.convert(ctx, ToTextRequest{Document: doc, URLs: &urls})
}

func (c *ToTextConverter) convert(ctx context.Context, request ToTextRequest) (string, error) {
	requestJSON, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	output, err := c.call(ctx, FunctionConvertToText, requestJSON)
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// FromTextConverter parses text into documents with a wasm plugin.
// Documents are returned as decoded JSON values.
type FromTextConverter struct {
	pluginConverter
}

var _ converter.TextToConvertibleConverter = (*FromTextConverter)(nil)

func (c *FromTextConverter) Convert(ctx context.Context, text string) (converter.Convertible, error) {
	output, err := c.call(ctx, FunctionConvertFromText, []byte(text))
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(output, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response of converter %q: %w", c.factory, err)
	}
	return doc, nil
}
