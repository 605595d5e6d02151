package exr

import (
	"fmt"
	"io"
	"os"

	"github.com/mrjoshuak/go-texexr/internal/xdr"
)

const (
	// MagicNumber identifies a container stream.
	MagicNumber uint32 = 20000630

	// Version is the newest format version this package reads and the one
	// it writes.
	Version byte = 2
)

// preambleSize is the size of the magic number, version and flag bytes.
const preambleSize = 8

// File is a parsed or constructed scanline container.
//
// Offsets is recomputed by Serialize. When reading, it is retained as found
// but never used for navigation: blocks are read sequentially.
type File struct {
	Magic    uint32
	Version  byte
	Header   *Header
	Offsets  []uint64
	Blocks   []*ScanlineBlock
	Warnings []string
}

// NewFile creates a file with the given header and one empty block per
// block position, in increasing y order.
func NewFile(h *Header) (*File, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	n, err := h.ScanlineBlockCount()
	if err != nil {
		return nil, err
	}
	f := &File{Magic: MagicNumber, Version: Version, Header: h, Blocks: make([]*ScanlineBlock, n)}
	dw := h.DataWindow()
	per := h.Compression().ScanlinesPerBlock()
	for i := range f.Blocks {
		y := dw.Min.Y + int32(i*per)
		layout, err := NewBlockLayout(h, y)
		if err != nil {
			return nil, err
		}
		f.Blocks[i] = NewScanlineBlock(layout, y)
	}
	return f, nil
}

// Serialize encodes the file: preamble, header, offset table and blocks.
// Blocks whose samples changed are re-encoded. Every block must match the
// layout the header gives its y coordinate.
func (f *File) Serialize() ([]byte, error) {
	if f.Header == nil {
		return nil, fmt.Errorf("%w: no header", ErrUnsupportedContainer)
	}
	if err := f.Header.Validate(); err != nil {
		return nil, err
	}
	n, err := f.Header.ScanlineBlockCount()
	if err != nil {
		return nil, err
	}
	if len(f.Blocks) != n {
		return nil, fmt.Errorf("%w: %d blocks, header requires %d", ErrUnsupportedContainer, len(f.Blocks), n)
	}

	raws := make([][]byte, n)
	total := 0
	for i, b := range f.Blocks {
		want, err := NewBlockLayout(f.Header, b.YCoord)
		if err != nil {
			return nil, err
		}
		if !b.layout.sameShape(want) {
			return nil, fmt.Errorf("%w: block y=%d does not match the header layout",
				ErrUnsupportedContainer, b.YCoord)
		}
		raw, err := b.Raw()
		if err != nil {
			return nil, err
		}
		raws[i] = raw
		total += 8 + len(raw)
	}

	w := xdr.NewBufferWriter(1024 + 8*n + total)
	w.WriteUint32(MagicNumber)
	_ = w.WriteByte(Version)
	w.WriteZeros(3)
	if err := WriteHeader(w, f.Header); err != nil {
		return nil, err
	}

	offsets := make([]uint64, n)
	pos := uint64(w.Len()) + 8*uint64(n)
	for i, raw := range raws {
		offsets[i] = pos
		pos += 8 + uint64(len(raw))
	}
	for _, off := range offsets {
		w.WriteUint64(off)
	}
	for i, b := range f.Blocks {
		w.WriteInt32(b.YCoord)
		w.WriteUint32(uint32(len(raws[i])))
		w.WriteBytes(raws[i])
	}

	f.Magic, f.Version, f.Offsets = MagicNumber, Version, offsets
	return w.Bytes(), nil
}

// Deserialize parses a container stream. Block data is kept compressed
// until samples are requested.
func Deserialize(data []byte) (*File, error) {
	r := xdr.NewReader(data)

	magic, err := r.ReadUint32()
	if err != nil || magic != MagicNumber {
		return nil, fmt.Errorf("%w: bad magic number", ErrNotAContainer)
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, truncated("version", err)
	}
	if version > Version {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedContainer, version)
	}
	for i := 0; i < 3; i++ {
		flag, err := r.ReadByte()
		if err != nil {
			return nil, truncated("flags", err)
		}
		if flag != 0 {
			return nil, fmt.Errorf("%w: flag byte %d is 0x%02x", ErrUnsupportedContainer, i, flag)
		}
	}

	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	n, err := h.ScanlineBlockCount()
	if err != nil {
		return nil, err
	}

	if uint64(n)*8 > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: offset table of %d entries exceeds remaining %d bytes",
			ErrUnsupportedContainer, n, r.Len())
	}

	f := &File{
		Magic:    magic,
		Version:  version,
		Header:   h,
		Offsets:  make([]uint64, n),
		Blocks:   make([]*ScanlineBlock, n),
		Warnings: append([]string(nil), h.Warnings...),
	}
	for i := range f.Offsets {
		if f.Offsets[i], err = r.ReadUint64(); err != nil {
			return nil, truncated("offset table", err)
		}
	}

	seen := make(map[int32]bool, n)
	for i := range f.Blocks {
		y, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: missing record", ErrCompression, i)
		}
		size, err := r.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: missing size", ErrCompression, i)
		}
		if uint64(size) > uint64(r.Len()) {
			return nil, fmt.Errorf("%w: block %d: size %d exceeds remaining %d bytes",
				ErrCompression, i, size, r.Len())
		}
		layout, err := NewBlockLayout(h, y)
		if err != nil {
			return nil, err
		}
		if seen[y] {
			return nil, fmt.Errorf("%w: duplicate block at y %d", ErrUnsupportedContainer, y)
		}
		seen[y] = true

		raw, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %w", ErrCompression, i, err)
		}
		f.Blocks[i] = newRawBlock(layout, y, raw)
	}

	if r.Len() > 0 {
		f.Warnings = append(f.Warnings, fmt.Sprintf("%d trailing bytes after last block", r.Len()))
	}
	return f, nil
}

// Decode reads a whole container from r.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}

// Encode writes the serialized file to w.
func (f *File) Encode(w io.Writer) error {
	data, err := f.Serialize()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadFile reads the named container file.
func ReadFile(path string) (*File, error) {
	m, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return Deserialize(m.Bytes())
}

// WriteFile writes f to the named file, creating or truncating it.
func WriteFile(path string, f *File) error {
	data, err := f.Serialize()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
