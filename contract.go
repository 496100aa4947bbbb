package converter

import "context"

// Convertible is a structured document that converters translate to and from text.
// Its shape is owned by the plugin modules implementing the converters.
type Convertible any

// ExternalURLs holds the externally reachable URLs used when converters render links.
type ExternalURLs struct {
	// BaseURL is the base URL of the system, used to construct links for actions.
	BaseURL string `json:"baseUrl,omitempty"`
	// IIIFURL is the base URL of the IIIF image service.
	IIIFURL string `json:"iiifUrl,omitempty"`
}

// ConvertibleToTextConverter serializes a structured document into its text representation.
type ConvertibleToTextConverter interface {
	// Convert returns the text representation of doc.
	Convert(ctx context.Context, doc Convertible) (string, error)
	// ConvertWithLinks returns the text representation of doc with actions rendered as links
	// based on urls. Permissions attached to doc are converted as well.
	ConvertWithLinks(ctx context.Context, doc Convertible, urls ExternalURLs) (string, error)
}

// TextToConvertibleConverter parses a text representation into a structured document.
type TextToConvertibleConverter interface {
	Convert(ctx context.Context, text string) (Convertible, error)
}

// Factory is implemented by every plugin module that offers converters.
//
// Name must be cheap and stable, it is the key under which the factory is registered.
// The New* methods may do non-trivial setup. Every call returns a new converter that is owned
// by the caller and is not required to be safe for concurrent use.
type Factory interface {
	Name() string
	NewConvertibleToTextConverter(ctx context.Context) (ConvertibleToTextConverter, error)
	NewTextToConvertibleConverter(ctx context.Context) (TextToConvertibleConverter, error)
}

// Kind selects which converter a lookup produces.
type Kind int

const (
	// KindToText selects a ConvertibleToTextConverter.
	KindToText Kind = iota
	// KindFromText selects a TextToConvertibleConverter.
	KindFromText
)

func (k Kind) String() string {
	switch k {
	case KindToText:
		return "convertible-to-text"
	case KindFromText:
		return "text-to-convertible"
	default:
		return "unknown"
	}
}
