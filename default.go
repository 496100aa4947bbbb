package converter

import "context"

var (
	defaultProvider = NewStaticProvider()

	// DefaultRegistry serves the factories added with Register.
	DefaultRegistry = NewRegistry(defaultProvider)
)

// Register makes a factory available to DefaultRegistry. It is meant to be called from the init
// function of a plugin package. Factories registered after DefaultRegistry finished discovery are
// only picked up after a Reset.
func Register(factory Factory) {
	defaultProvider.Register(factory)
}

// DefaultProvider returns the provider holding the factories added with Register.
func DefaultProvider() Provider {
	return defaultProvider
}

// GetConvertibleToTextConverter returns a converter serializing documents to text from DefaultRegistry.
func GetConvertibleToTextConverter(ctx context.Context, name string) (ConvertibleToTextConverter, error) {
	return DefaultRegistry.GetConvertibleToTextConverter(ctx, name)
}

// GetTextToConvertibleConverter returns a converter parsing text into documents from DefaultRegistry.
func GetTextToConvertibleConverter(ctx context.Context, name string) (TextToConvertibleConverter, error) {
	return DefaultRegistry.GetTextToConvertibleConverter(ctx, name)
}
