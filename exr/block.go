package exr

import (
	"encoding/binary"
	"fmt"

	"github.com/mrjoshuak/go-texexr/compression"
)

// maxDeflateRatio bounds how far a deflate stream can expand.
const maxDeflateRatio = 1032

// BlockState tracks which representations of a block are current.
type BlockState int

const (
	// BlockRawOnly means only the stored bytes are current; samples are
	// decoded on demand.
	BlockRawOnly BlockState = iota
	// BlockDecodedValid means only the samples are current; stored bytes are
	// encoded on demand.
	BlockDecodedValid
	// BlockBothValid means the stored bytes and samples agree.
	BlockBothValid
)

// String returns a string representation of the state.
func (s BlockState) String() string {
	switch s {
	case BlockRawOnly:
		return "raw"
	case BlockDecodedValid:
		return "decoded"
	case BlockBothValid:
		return "both"
	default:
		return "unknown"
	}
}

// BlockLayout describes the shape of one scanline block.
type BlockLayout struct {
	Channels    *ChannelList
	Width       int
	Rows        int
	Compression Compression
	Level       compression.CompressionLevel
}

// NewBlockLayout returns the layout of the block starting at row y of a file
// with header h. y must lie inside the data window on a block boundary.
func NewBlockLayout(h *Header, y int32) (BlockLayout, error) {
	c := h.Compression()
	per := c.ScanlinesPerBlock()
	if per == 0 {
		return BlockLayout{}, fmt.Errorf("%w: compression %s", ErrUnsupportedContainer, c)
	}
	dw := h.DataWindow()
	if y < dw.Min.Y || y > dw.Max.Y {
		return BlockLayout{}, fmt.Errorf("%w: block y %d outside data window [%d, %d]",
			ErrUnsupportedContainer, y, dw.Min.Y, dw.Max.Y)
	}
	if (int64(y)-int64(dw.Min.Y))%int64(per) != 0 {
		return BlockLayout{}, fmt.Errorf("%w: block y %d not aligned to %d rows",
			ErrUnsupportedContainer, y, per)
	}
	rows := per
	if left := int(int64(dw.Max.Y) - int64(y) + 1); left < rows {
		rows = left
	}
	return BlockLayout{
		Channels:    h.Channels(),
		Width:       int(dw.Width()),
		Rows:        rows,
		Compression: c,
		Level:       compression.CompressionLevelDefault,
	}, nil
}

// sameShape reports whether l and o describe identically stored blocks.
// The zlib level is not part of the shape.
func (l BlockLayout) sameShape(o BlockLayout) bool {
	return l.Width == o.Width && l.Rows == o.Rows &&
		l.Compression == o.Compression && l.Channels.Equal(o.Channels)
}

// RowSize returns the number of stored bytes in one row.
func (l BlockLayout) RowSize() int {
	return l.Width * l.Channels.BytesPerPixel()
}

// Size returns the number of uncompressed bytes in the block.
func (l BlockLayout) Size() int {
	return l.RowSize() * l.Rows
}

// Samples returns the number of samples in the block.
func (l BlockLayout) Samples() int {
	return l.Rows * l.Width * l.Channels.Len()
}

// ScanlineBlock holds up to 16 consecutive rows of a file.
//
// Samples are raw bit patterns laid out row-major as [row][x][channel] with
// channels in logical order; HALF samples use the low 16 bits. Stored bytes
// hold the rows with channel planes in stored (reversed) order, compressed
// according to the layout.
type ScanlineBlock struct {
	YCoord int32

	layout  BlockLayout
	raw     []byte
	samples []uint32
	state   BlockState
}

// NewScanlineBlock creates an empty block starting at row y.
func NewScanlineBlock(layout BlockLayout, y int32) *ScanlineBlock {
	return &ScanlineBlock{YCoord: y, layout: layout, state: BlockDecodedValid,
		samples: make([]uint32, layout.Samples())}
}

// newRawBlock creates a block holding stored bytes only. Samples are not
// allocated until Pixels is called.
func newRawBlock(layout BlockLayout, y int32, raw []byte) *ScanlineBlock {
	return &ScanlineBlock{YCoord: y, layout: layout, raw: raw, state: BlockRawOnly}
}

// Layout returns the block layout.
func (b *ScanlineBlock) Layout() BlockLayout {
	return b.layout
}

// State returns which representations are current.
func (b *ScanlineBlock) State() BlockState {
	return b.state
}

// SetRaw replaces the stored bytes. Decoded samples are discarded.
func (b *ScanlineBlock) SetRaw(raw []byte) {
	b.raw = raw
	b.samples = nil
	b.state = BlockRawOnly
}

// SetPixels replaces the samples. Stored bytes are discarded.
func (b *ScanlineBlock) SetPixels(samples []uint32) error {
	if want := b.layout.Samples(); len(samples) != want {
		return fmt.Errorf("%w: block has %d samples, want %d", ErrInvalidPixelArray, len(samples), want)
	}
	b.samples = samples
	b.raw = nil
	b.state = BlockDecodedValid
	return nil
}

// SetCompression changes the block codec. Stored bytes are re-encoded on
// the next call to Raw.
func (b *ScanlineBlock) SetCompression(c Compression) error {
	if c == b.layout.Compression {
		return nil
	}
	if !c.Supported() {
		return fmt.Errorf("%w: compression %s", ErrUnsupportedContainer, c)
	}
	if b.state == BlockRawOnly {
		if _, err := b.Pixels(); err != nil {
			return err
		}
	}
	b.layout.Compression = c
	b.raw = nil
	b.state = BlockDecodedValid
	return nil
}

// Pixels returns the decoded samples, decoding the stored bytes if needed.
// The returned slice is owned by the block.
func (b *ScanlineBlock) Pixels() ([]uint32, error) {
	if b.state != BlockRawOnly {
		return b.samples, nil
	}
	planes, err := b.decompress()
	if err != nil {
		return nil, err
	}
	b.samples = unpackPlanes(planes, b.layout)
	b.state = BlockBothValid
	return b.samples, nil
}

// Raw returns the stored bytes, encoding the samples if needed. The returned
// slice is owned by the block.
func (b *ScanlineBlock) Raw() ([]byte, error) {
	if b.state != BlockDecodedValid {
		return b.raw, nil
	}
	raw, err := encodePlanes(packPlanes(b.samples, b.layout), b.layout)
	if err != nil {
		return nil, err
	}
	b.raw = raw
	b.state = BlockBothValid
	return b.raw, nil
}

// DataSize returns the length of the stored bytes.
func (b *ScanlineBlock) DataSize() (int, error) {
	raw, err := b.Raw()
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// EncodedSize returns the stored size the block would have with codec c.
// The block is not modified.
func (b *ScanlineBlock) EncodedSize(c Compression) (int, error) {
	if !c.Supported() {
		return 0, fmt.Errorf("%w: compression %s", ErrUnsupportedContainer, c)
	}
	samples := b.samples
	if b.state == BlockRawOnly {
		planes, err := b.decompress()
		if err != nil {
			return 0, err
		}
		samples = unpackPlanes(planes, b.layout)
	}
	layout := b.layout
	layout.Compression = c
	raw, err := encodePlanes(packPlanes(samples, layout), layout)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// DefaultCandidates returns the codecs considered by BestCompression when
// no candidates are given. Each call returns a new slice.
func DefaultCandidates() []Compression {
	return []Compression{CompressionNone, CompressionZIP}
}

// BestCompression returns the candidate producing the smallest stored size.
// Ties go to the earlier candidate. An empty candidate list uses
// DefaultCandidates. The block is not modified.
func (b *ScanlineBlock) BestCompression(candidates []Compression) (Compression, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	best, bestSize := candidates[0], -1
	for _, c := range candidates {
		n, err := b.EncodedSize(c)
		if err != nil {
			return 0, err
		}
		if bestSize < 0 || n < bestSize {
			best, bestSize = c, n
		}
	}
	return best, nil
}

// decompress returns the uncompressed plane bytes of a raw block.
func (b *ScanlineBlock) decompress() ([]byte, error) {
	size := b.layout.Size()
	switch b.layout.Compression {
	case CompressionNone:
		if len(b.raw) != size {
			return nil, fmt.Errorf("%w: block y=%d has %d bytes, want %d",
				ErrCompression, b.YCoord, len(b.raw), size)
		}
		return b.raw, nil
	case CompressionZIP:
		// Blocks that deflate could not shrink are stored verbatim, and only
		// those have exactly the uncompressed size.
		if len(b.raw) == size {
			return b.raw, nil
		}
		if size/maxDeflateRatio > len(b.raw) {
			return nil, fmt.Errorf("%w: block y=%d: %d bytes cannot inflate to %d",
				ErrCompression, b.YCoord, len(b.raw), size)
		}
		planes, err := compression.DecodeBlock(b.raw, size)
		if err != nil {
			return nil, fmt.Errorf("%w: block y=%d: %w", ErrCompression, b.YCoord, err)
		}
		return planes, nil
	default:
		return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedContainer, b.layout.Compression)
	}
}

// encodePlanes compresses plane bytes for storage.
func encodePlanes(planes []byte, l BlockLayout) ([]byte, error) {
	switch l.Compression {
	case CompressionNone:
		return planes, nil
	case CompressionZIP:
		packed, err := compression.EncodeBlock(planes, l.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCompression, err)
		}
		if len(packed) < len(planes) {
			return packed, nil
		}
		return planes, nil
	default:
		return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedContainer, l.Compression)
	}
}

// packPlanes serializes samples row by row with channel planes in stored
// order.
func packPlanes(samples []uint32, l BlockLayout) []byte {
	out := make([]byte, l.Size())
	nc := l.Channels.Len()
	off := 0
	for row := 0; row < l.Rows; row++ {
		base := row * l.Width * nc
		for s := nc - 1; s >= 0; s-- {
			pt := l.Channels.At(s).Type
			for x := 0; x < l.Width; x++ {
				v := samples[base+x*nc+s]
				if pt == PixelTypeHalf {
					binary.LittleEndian.PutUint16(out[off:], uint16(v))
					off += 2
				} else {
					binary.LittleEndian.PutUint32(out[off:], v)
					off += 4
				}
			}
		}
	}
	return out
}

// unpackPlanes is the inverse of packPlanes. planes must hold l.Size()
// bytes.
func unpackPlanes(planes []byte, l BlockLayout) []uint32 {
	out := make([]uint32, l.Samples())
	nc := l.Channels.Len()
	off := 0
	for row := 0; row < l.Rows; row++ {
		base := row * l.Width * nc
		for s := nc - 1; s >= 0; s-- {
			pt := l.Channels.At(s).Type
			for x := 0; x < l.Width; x++ {
				if pt == PixelTypeHalf {
					out[base+x*nc+s] = uint32(binary.LittleEndian.Uint16(planes[off:]))
					off += 2
				} else {
					out[base+x*nc+s] = binary.LittleEndian.Uint32(planes[off:])
					off += 4
				}
			}
		}
	}
	return out
}
