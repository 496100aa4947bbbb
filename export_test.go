package converter

// ResetDefaultRegistry drops all factories added with Register and the mapping of DefaultRegistry.
func ResetDefaultRegistry() {
	defaultProvider.mu.Lock()
	defaultProvider.factories = nil
	defaultProvider.mu.Unlock()
	DefaultRegistry.Reset()
}
