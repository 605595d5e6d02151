// Package xdr reads and writes the little-endian primitives that make up a
// scanline container stream: fixed-width integers, IEEE floats and
// nul-terminated strings.
package xdr

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when a read runs past the end of the data.
	ErrShortBuffer = errors.New("xdr: buffer too short")

	// ErrNegativeSize is returned when a length argument is negative.
	ErrNegativeSize = errors.New("xdr: negative size")

	// ErrUnterminatedString is returned when no nul byte ends a string.
	ErrUnterminatedString = errors.New("xdr: unterminated string")
)

// ByteOrder is the byte order of every multi-byte value in the container.
var ByteOrder = binary.LittleEndian

// Reader decodes values sequentially from a byte slice with bounds checks.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the offset of the next byte to be read.
func (r *Reader) Pos() int {
	return r.pos
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return ErrNegativeSize
	}
	if n > r.Len() {
		return ErrShortBuffer
	}
	r.pos += n
	return nil
}

// ReadByte reads one byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrShortBuffer
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if n > r.Len() {
		return nil, ErrShortBuffer
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.Len() < 4 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.Len() < 8 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadFloat32 reads an IEEE 754 single-precision value.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadString reads a nul-terminated string. The terminator is consumed and
// dropped. On failure the position is left unchanged.
func (r *Reader) ReadString() (string, error) {
	for i := r.pos; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.pos:i])
			r.pos = i + 1
			return s, nil
		}
	}
	return "", ErrUnterminatedString
}

// BufferWriter appends encoded values to a growing buffer.
type BufferWriter struct {
	buf []byte
}

// NewBufferWriter returns a BufferWriter with the given initial capacity.
func NewBufferWriter(capacity int) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (w *BufferWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the written data. The slice aliases the internal buffer
// until the next write.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// WriteByte appends one byte. It never fails; the error satisfies
// io.ByteWriter.
func (w *BufferWriter) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteBytes appends b verbatim.
func (w *BufferWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteZeros appends n zero bytes.
func (w *BufferWriter) WriteZeros(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// WriteUint32 appends an unsigned 32-bit integer.
func (w *BufferWriter) WriteUint32(v uint32) {
	w.buf = ByteOrder.AppendUint32(w.buf, v)
}

// WriteInt32 appends a signed 32-bit integer.
func (w *BufferWriter) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 appends an unsigned 64-bit integer.
func (w *BufferWriter) WriteUint64(v uint64) {
	w.buf = ByteOrder.AppendUint64(w.buf, v)
}

// WriteFloat32 appends an IEEE 754 single-precision value.
func (w *BufferWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteString appends s followed by a nul terminator.
func (w *BufferWriter) WriteString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}
