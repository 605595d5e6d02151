package exr

import "errors"

// Container errors. Functions in this package wrap these with context, so
// callers should test with errors.Is.
var (
	// ErrNotAContainer is returned when the stream does not start with the
	// container magic number.
	ErrNotAContainer = errors.New("exr: not a scanline container")

	// ErrUnsupportedContainer is returned for well-formed streams outside the
	// supported profile: newer versions, reserved flags, unsupported codecs,
	// out-of-range enums, subsampled channels or missing required attributes.
	ErrUnsupportedContainer = errors.New("exr: unsupported container")

	// ErrCompression is returned when a block cannot be inflated or its
	// payload does not match the expected size.
	ErrCompression = errors.New("exr: compression error")

	// ErrInvalidPixelArray is returned when a pixel array has a shape or
	// element type that cannot be stored.
	ErrInvalidPixelArray = errors.New("exr: invalid pixel array")
)

// isSentinel reports whether err already wraps one of the package errors.
func isSentinel(err error) bool {
	return errors.Is(err, ErrNotAContainer) ||
		errors.Is(err, ErrUnsupportedContainer) ||
		errors.Is(err, ErrCompression) ||
		errors.Is(err, ErrInvalidPixelArray)
}
