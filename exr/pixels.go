package exr

import (
	"fmt"
	"math"
	"slices"

	"github.com/mrjoshuak/go-texexr/compression"
	"github.com/mrjoshuak/go-texexr/half"
)

// PixelArray is an in-memory image of height x width pixels with Channels
// samples each.
//
// Pix holds raw sample bits row-major as [y][x][c]. HALF samples occupy the
// low 16 bits, FLOAT samples are IEEE 754 single bit patterns and UINT
// samples are plain integers. Depth slice c corresponds to logical channel
// c: R, G, B and optionally A.
type PixelArray struct {
	Height   int
	Width    int
	Channels int
	Type     PixelType
	Pix      []uint32
}

// NewPixelArray allocates a zeroed pixel array.
func NewPixelArray(height, width, channels int, pt PixelType) *PixelArray {
	return &PixelArray{
		Height:   height,
		Width:    width,
		Channels: channels,
		Type:     pt,
		Pix:      make([]uint32, height*width*channels),
	}
}

func (p *PixelArray) index(y, x, c int) int {
	return (y*p.Width+x)*p.Channels + c
}

// Float32At returns sample (y, x, c) converted to float32.
func (p *PixelArray) Float32At(y, x, c int) float32 {
	return sampleFloat32(p.Pix[p.index(y, x, c)], p.Type)
}

// SetFloat32 stores v at (y, x, c), rounding to the array's pixel type.
func (p *PixelArray) SetFloat32(y, x, c int, v float32) {
	var bits uint32
	switch p.Type {
	case PixelTypeHalf:
		bits = uint32(half.FromFloat32(v).Bits())
	case PixelTypeFloat:
		bits = math.Float32bits(v)
	default:
		bits = uint32(v)
	}
	p.Pix[p.index(y, x, c)] = bits
}

// HalfAt returns sample (y, x, c) of a HALF array.
func (p *PixelArray) HalfAt(y, x, c int) half.Half {
	return half.FromBits(uint16(p.Pix[p.index(y, x, c)]))
}

// SetHalf stores the bits of v at (y, x, c) of a HALF array.
func (p *PixelArray) SetHalf(y, x, c int, v half.Half) {
	p.Pix[p.index(y, x, c)] = uint32(v.Bits())
}

// Equal reports whether both arrays have the same shape, type and sample
// bits.
func (p *PixelArray) Equal(q *PixelArray) bool {
	if p.Height != q.Height || p.Width != q.Width || p.Channels != q.Channels ||
		p.Type != q.Type || len(p.Pix) != len(q.Pix) {
		return false
	}
	for i, v := range p.Pix {
		if q.Pix[i] != v {
			return false
		}
	}
	return true
}

// Validate checks that p can be stored by FromPixelArray.
func (p *PixelArray) Validate() error {
	if p.Channels != 3 && p.Channels != 4 {
		return fmt.Errorf("%w: %d channels, want 3 or 4", ErrInvalidPixelArray, p.Channels)
	}
	if p.Type != PixelTypeHalf && p.Type != PixelTypeFloat {
		return fmt.Errorf("%w: element type %s, want half or float", ErrInvalidPixelArray, p.Type)
	}
	if p.Height <= 0 || p.Width <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidPixelArray, p.Width, p.Height)
	}
	if len(p.Pix) != p.Height*p.Width*p.Channels {
		return fmt.Errorf("%w: %d samples, want %d", ErrInvalidPixelArray,
			len(p.Pix), p.Height*p.Width*p.Channels)
	}
	return nil
}

func sampleFloat32(bits uint32, pt PixelType) float32 {
	switch pt {
	case PixelTypeHalf:
		return half.FromBits(uint16(bits)).Float32()
	case PixelTypeFloat:
		return math.Float32frombits(bits)
	default:
		return float32(bits)
	}
}

// logicalChannelNames names depth slices 0..3.
var logicalChannelNames = [4]string{"R", "G", "B", "A"}

// BuildOptions controls FromPixelArrayWithOptions. The zero value selects
// the codec automatically at the default zlib level.
type BuildOptions struct {
	// Compression is used when ForceCompression is set.
	Compression Compression
	// ForceCompression disables automatic codec selection.
	ForceCompression bool
	// Level is the zlib level for ZIP blocks. Zero means
	// compression.CompressionLevelDefault; a ZIP block deflated without
	// compression is never smaller than its raw bytes, so level 0 has no
	// use here.
	Level compression.CompressionLevel
}

// DefaultBuildOptions returns the options used by FromPixelArray.
func DefaultBuildOptions() *BuildOptions {
	return &BuildOptions{Level: compression.CompressionLevelDefault}
}

// FromPixelArray builds a file from p with automatic codec selection:
// ZIP for images taller than one row, otherwise whichever of NONE and ZIP
// stores the single row smaller.
func FromPixelArray(p *PixelArray) (*File, error) {
	return FromPixelArrayWithOptions(p, nil)
}

// FromPixelArrayWithOptions builds a file from p. Channels are named R, G,
// B and A after the array's depth slices, which are stored on disk as
// B,G,R or A,B,G,R. A nil opts means DefaultBuildOptions.
func FromPixelArrayWithOptions(p *PixelArray, opts *BuildOptions) (*File, error) {
	if opts == nil {
		opts = DefaultBuildOptions()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := CompressionZIP
	if opts.ForceCompression {
		c = opts.Compression
		if !c.Supported() {
			return nil, fmt.Errorf("%w: compression %s", ErrUnsupportedContainer, c)
		}
	}

	cl := NewChannelList()
	for i := 0; i < p.Channels; i++ {
		cl.Add(NewChannel(logicalChannelNames[i], p.Type))
	}

	f, err := NewFile(NewScanlineHeader(p.Width, p.Height, cl, c))
	if err != nil {
		return nil, err
	}

	level := opts.Level
	if level == compression.CompressionLevelNone {
		level = compression.CompressionLevelDefault
	}

	rowSamples := p.Width * p.Channels
	for _, b := range f.Blocks {
		b.layout.Level = level
		start := int(b.YCoord) * rowSamples
		samples := append([]uint32(nil), p.Pix[start:start+b.layout.Rows*rowSamples]...)
		if err := b.SetPixels(samples); err != nil {
			return nil, err
		}
	}

	if !opts.ForceCompression && p.Height == 1 {
		best, err := f.Blocks[0].BestCompression(DefaultCandidates())
		if err != nil {
			return nil, err
		}
		if err := f.Blocks[0].SetCompression(best); err != nil {
			return nil, err
		}
		f.Header.SetCompression(best)
	}
	return f, nil
}

// ToPixelArray decodes every block into a single array with channels in
// logical order. Blocks are placed by their y coordinate, so any line order
// is accepted. Files whose channels share one HALF or FLOAT type keep it;
// UINT or mixed channels are converted to FLOAT, with a warning added to
// f.Warnings for mixed types. Repeated calls do not repeat the warning.
func (f *File) ToPixelArray() (*PixelArray, error) {
	h := f.Header
	cl := h.Channels()
	dw := h.DataWindow()

	pt, uniform := cl.UniformType()
	convert := !uniform || pt == PixelTypeUint
	outType := pt
	if convert {
		outType = PixelTypeFloat
	}
	if !uniform {
		msg := fmt.Sprintf("mixed channel pixel types %v, converting to float", channelTypes(cl))
		if !slices.Contains(f.Warnings, msg) {
			f.Warnings = append(f.Warnings, msg)
		}
	}

	p := NewPixelArray(int(dw.Height()), int(dw.Width()), cl.Len(), outType)
	rowSamples := p.Width * p.Channels
	for _, b := range f.Blocks {
		samples, err := b.Pixels()
		if err != nil {
			return nil, err
		}
		start := int(b.YCoord-dw.Min.Y) * rowSamples
		dst := p.Pix[start : start+len(samples)]
		if !convert {
			copy(dst, samples)
			continue
		}
		for i, v := range samples {
			dst[i] = math.Float32bits(sampleFloat32(v, cl.At(i%p.Channels).Type))
		}
	}
	return p, nil
}

func channelTypes(cl *ChannelList) []string {
	types := make([]string, cl.Len())
	for i := range types {
		c := cl.At(i)
		types[i] = c.Name + ":" + c.Type.String()
	}
	return types
}
