package converter_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/converter"
)

type factorySpy struct {
	name     string
	err      error
	toText   atomic.Int32
	fromText atomic.Int32
}

func newFactorySpy(name string) *factorySpy {
	return &factorySpy{name: name}
}

func (f *factorySpy) Name() string {
	return f.name
}

func (f *factorySpy) NewConvertibleToTextConverter(_ context.Context) (converter.ConvertibleToTextConverter, error) {
	f.toText.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &toTextSpy{factoryName: f.name}, nil
}

func (f *factorySpy) NewTextToConvertibleConverter(_ context.Context) (converter.TextToConvertibleConverter, error) {
	f.fromText.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &fromTextSpy{factoryName: f.name}, nil
}

type toTextSpy struct {
	factoryName string
}

func (c *toTextSpy) Convert(_ context.Context, doc converter.Convertible) (string, error) {
	return fmt.Sprintf("%s:%v", c.factoryName, doc), nil
}

func (c *toTextSpy) ConvertWithLinks(_ context.Context, doc converter.Convertible, urls converter.ExternalURLs) (string, error) {
	return fmt.Sprintf("%s:%v@%s", c.factoryName, doc, urls.BaseURL), nil
}

type fromTextSpy struct {
	factoryName string
}

func (c *fromTextSpy) Convert(_ context.Context, text string) (converter.Convertible, error) {
	return map[string]string{"factory": c.factoryName, "text": text}, nil
}

// providerSpy serves fixed candidates and counts enumerations and yielded candidates.
type providerSpy struct {
	factories []converter.Factory
	err       error
	delay     time.Duration

	calls   atomic.Int32
	yielded atomic.Int32
}

func newProviderSpy(names ...string) *providerSpy {
	p := &providerSpy{}
	for _, name := range names {
		p.factories = append(p.factories, newFactorySpy(name))
	}
	return p
}

func (p *providerSpy) Factories(_ context.Context) (iter.Seq[converter.Factory], error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return nil, p.err
	}
	return func(yield func(converter.Factory) bool) {
		for _, f := range slices.Clone(p.factories) {
			p.yielded.Add(1)
			if !yield(f) {
				return
			}
		}
	}, nil
}

type logRecord struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// captureLogs returns a context carrying a logger that records into the returned function's result.
func captureLogs(t *testing.T) (context.Context, func() []logRecord) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := slogcontext.NewCtx(t.Context(), logger)
	return ctx, func() []logRecord {
		var records []logRecord
		scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
		for scanner.Scan() {
			var record logRecord
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
			records = append(records, record)
		}
		return records
	}
}

func messages(records []logRecord, level string) []string {
	var msgs []string
	for _, r := range records {
		if r.Level == level {
			msgs = append(msgs, r.Msg)
		}
	}
	return msgs
}

var errSpy = errors.New("spy failure")
