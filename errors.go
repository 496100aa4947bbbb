package converter

import "errors"

var (
	// ErrDiscovery is returned when the candidate factories could not be turned into a valid
	// name to factory mapping: none were found, two of them share a name, or the provider failed.
	// It usually points to a packaging problem.
	ErrDiscovery = errors.New("converter factory discovery failed")

	// ErrNotFound is returned when discovery succeeded but no factory is registered for the requested name.
	ErrNotFound = errors.New("converter not found")
)
