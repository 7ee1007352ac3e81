package placement

import "errors"

var (
	// ErrUnknownTarget is returned when a container does not resolve to a
	// placement target of the working template.
	ErrUnknownTarget = errors.New("placement: unknown target")
	// ErrIndexOutOfRange is returned when a source index does not address a
	// field of the container.
	ErrIndexOutOfRange = errors.New("placement: index out of range")
	// ErrSectionExists rejects restoring a section whose name is taken.
	ErrSectionExists = errors.New("placement: section already exists")
	// ErrUnknownSection is returned when a named section cannot be found.
	ErrUnknownSection = errors.New("placement: unknown section")
	// ErrFieldExists rejects inserting a field whose id is already used.
	ErrFieldExists = errors.New("placement: field id already exists")
	// ErrUnknownField is returned when a field id cannot be found.
	ErrUnknownField = errors.New("placement: unknown field")
)
