// Package exr reads and writes a fixed scanline profile of the OpenEXR
// container: RGB and RGBA images of half or single precision floats, stored
// uncompressed or with ZIP compression in blocks of up to 16 rows.
package exr

import (
	"fmt"

	"github.com/mrjoshuak/go-texexr/internal/xdr"
)

// boxSize is the payload size of a Box2i or Box2f record.
const boxSize = 16

// V2i represents a 2D integer vector.
type V2i struct {
	X, Y int32
}

// V2f represents a 2D float vector.
type V2f struct {
	X, Y float32
}

// Box2i represents an axis-aligned 2D integer bounding box.
// Both corners are inclusive.
type Box2i struct {
	Min, Max V2i
}

// Box2f represents an axis-aligned 2D float bounding box.
type Box2f struct {
	Min, Max V2f
}

// Width returns the width of the box.
func (b Box2i) Width() int32 {
	return b.Max.X - b.Min.X + 1
}

// Height returns the height of the box.
func (b Box2i) Height() int32 {
	return b.Max.Y - b.Min.Y + 1
}

// IsEmpty returns true if the box has no area.
func (b Box2i) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y
}

// Width returns the width of the box.
func (b Box2f) Width() float32 {
	return b.Max.X - b.Min.X
}

// Height returns the height of the box.
func (b Box2f) Height() float32 {
	return b.Max.Y - b.Min.Y
}

// IsEmpty returns true if the box has no area.
func (b Box2f) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y
}

// ReadV2f reads a V2f.
func ReadV2f(r *xdr.Reader) (V2f, error) {
	x, err := r.ReadFloat32()
	if err != nil {
		return V2f{}, err
	}
	y, err := r.ReadFloat32()
	if err != nil {
		return V2f{}, err
	}
	return V2f{x, y}, nil
}

// WriteV2f writes a V2f.
func WriteV2f(w *xdr.BufferWriter, v V2f) {
	w.WriteFloat32(v.X)
	w.WriteFloat32(v.Y)
}

// readBoxSize consumes the leading size field of a box record.
func readBoxSize(r *xdr.Reader) error {
	size, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if size != boxSize {
		return fmt.Errorf("%w: box record size %d, want %d", ErrUnsupportedContainer, size, boxSize)
	}
	return nil
}

// ReadBox2i reads a Box2i record: the size field followed by xMin, yMin,
// xMax, yMax. The size field is checked and discarded.
func ReadBox2i(r *xdr.Reader) (Box2i, error) {
	if err := readBoxSize(r); err != nil {
		return Box2i{}, err
	}
	var v [4]int32
	for i := range v {
		n, err := r.ReadInt32()
		if err != nil {
			return Box2i{}, err
		}
		v[i] = n
	}
	return Box2i{Min: V2i{v[0], v[1]}, Max: V2i{v[2], v[3]}}, nil
}

// WriteBox2i writes a Box2i record including its size field.
func WriteBox2i(w *xdr.BufferWriter, b Box2i) {
	w.WriteUint32(boxSize)
	w.WriteInt32(b.Min.X)
	w.WriteInt32(b.Min.Y)
	w.WriteInt32(b.Max.X)
	w.WriteInt32(b.Max.Y)
}

// ReadBox2f reads a Box2f record. The size field is checked and discarded.
func ReadBox2f(r *xdr.Reader) (Box2f, error) {
	if err := readBoxSize(r); err != nil {
		return Box2f{}, err
	}
	var v [4]float32
	for i := range v {
		f, err := r.ReadFloat32()
		if err != nil {
			return Box2f{}, err
		}
		v[i] = f
	}
	return Box2f{Min: V2f{v[0], v[1]}, Max: V2f{v[2], v[3]}}, nil
}

// WriteBox2f writes a Box2f record including its size field.
func WriteBox2f(w *xdr.BufferWriter, b Box2f) {
	w.WriteUint32(boxSize)
	w.WriteFloat32(b.Min.X)
	w.WriteFloat32(b.Min.Y)
	w.WriteFloat32(b.Max.X)
	w.WriteFloat32(b.Max.Y)
}
