package ddsio

import "errors"

var (
	// ErrUnsupportedFormat indicates a DDS pixel format other than 16 or 32
	// bit float RGB(A), or a pixel array that cannot be written.
	ErrUnsupportedFormat = errors.New("ddsio: unsupported pixel format")
	// ErrTruncated indicates the header or pixel payload is shorter than
	// the header describes.
	ErrTruncated = errors.New("ddsio: truncated data")
	// ErrLZ4 indicates a malformed EDDS LZ4 chunk stream.
	ErrLZ4 = errors.New("ddsio: LZ4 chunk stream")
	// ErrBlockTable indicates an EDDS block table that does not match the
	// file body.
	ErrBlockTable = errors.New("ddsio: invalid block table")
)
