// Package converter provides a lazily initialized, name keyed registry for converters that are
// supplied by external plugin modules.
//
// A plugin module implements [Factory]. The factory declares a name and produces two kinds of converters:
// a [ConvertibleToTextConverter] serializing a structured document into text, and a
// [TextToConvertibleConverter] parsing text into a structured document. The registry never looks into the
// converters themselves.
//
// Factories are enumerated by a [Provider]. The first lookup on a [Registry] enumerates the provider once,
// validates the candidates with [Discover] and caches the resulting name to factory mapping. Every later
// lookup is served from that mapping:
//
//	plugins, err := wasm.NewProvider(ctx, "/path/to/plugins")
//	if err != nil {
//		return err
//	}
//	defer plugins.Close(ctx)
//	registry := converter.NewRegistry(plugins)
//
//	toText, err := registry.GetConvertibleToTextConverter(ctx, "xml")
//	if err != nil {
//		return err
//	}
//	text, err := toText.ConvertWithLinks(ctx, document, converter.ExternalURLs{BaseURL: "https://example.com/"})
//
// Plugin packages that are compiled into the binary register themselves with [Register] from an init
// function, in the same way database/sql drivers do. They are then served by [DefaultRegistry]:
//
//	func init() {
//		converter.Register(&xmlFactory{})
//	}
//
// Discovery fails with [ErrDiscovery] if no candidate is found or if two candidates share a name.
// A failed discovery is not cached, the next lookup tries again. A lookup for a name that is not part of a
// successful discovery fails with [ErrNotFound].
package converter
