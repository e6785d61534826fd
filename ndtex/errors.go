package ndtex

import "errors"

// Error taxonomy shared by all packages.  Failures wrap one of these so callers
// can test with errors.Is.
var (
	// ErrFormat is returned for bad magic, malformed type strings and truncated buffers.
	ErrFormat = errors.New("format error")

	// ErrShape is returned when a declared shape exceeds the buffer length.
	ErrShape = errors.New("shape error")

	// ErrArgument is returned for invalid chunk sizes or heterogeneous chunks.
	ErrArgument = errors.New("argument error")

	// ErrPacking is returned when no texture grid fits within the search budget.
	ErrPacking = errors.New("packing error")
)
