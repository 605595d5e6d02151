// Package ddsio reads and writes floating-point DDS textures, including the
// EDDS variant that stores each mipmap as a COPY or LZ4 block, and converts
// them to and from exr.PixelArray.
package ddsio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/woozymasta/bcn"

	"github.com/mrjoshuak/go-texexr/exr"
	"github.com/mrjoshuak/go-texexr/half"
)

// Legacy D3DFMT codes stored in the FourCC field.
const (
	FourCCRGBA16F = 113 // D3DFMT_A16B16G16R16F
	FourCCRGBA32F = 116 // D3DFMT_A32B32G32R32F
)

// DXGI formats accepted in a DX10 header.
const (
	DXGIRGBA32F = 2
	DXGIRGB32F  = 6
	DXGIRGBA16F = 10
)

// floatFormat is the in-memory layout of one pixel.
type floatFormat struct {
	channels int
	typ      exr.PixelType
}

func (f floatFormat) pixelSize() int {
	return f.channels * f.typ.Size()
}

func (f floatFormat) String() string {
	return fmt.Sprintf("%dx%s", f.channels, f.typ)
}

// detectFormat maps the DDS pixel format onto a float layout.
func detectFormat(header *bcn.DDSHeader, dx10 *bcn.DDSHeaderDX10) (floatFormat, error) {
	if dx10 != nil {
		switch dx10.DXGIFormat {
		case DXGIRGBA16F:
			return floatFormat{4, exr.PixelTypeHalf}, nil
		case DXGIRGBA32F:
			return floatFormat{4, exr.PixelTypeFloat}, nil
		case DXGIRGB32F:
			return floatFormat{3, exr.PixelTypeFloat}, nil
		}
		return floatFormat{}, fmt.Errorf("%w: DXGI %d", ErrUnsupportedFormat, dx10.DXGIFormat)
	}

	pf := header.PixelFormat
	if pf.Flags&bcn.DDSPFFourCC == 0 {
		return floatFormat{}, fmt.Errorf("%w: not a FourCC format (flags 0x%x)", ErrUnsupportedFormat, pf.Flags)
	}
	switch pf.FourCC {
	case FourCCRGBA16F:
		return floatFormat{4, exr.PixelTypeHalf}, nil
	case FourCCRGBA32F:
		return floatFormat{4, exr.PixelTypeFloat}, nil
	}
	return floatFormat{}, fmt.Errorf("%w: FourCC %d", ErrUnsupportedFormat, pf.FourCC)
}

// Read decodes the largest mipmap of a float DDS or EDDS texture.
func Read(r io.Reader) (*exr.PixelArray, error) {
	header, err := bcn.ReadDDSHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: DDS header: %v", ErrTruncated, err)
	}
	dx10, err := bcn.ReadDDSHeaderDX10(r, header)
	if err != nil {
		return nil, fmt.Errorf("%w: DX10 header: %v", ErrTruncated, err)
	}
	format, err := detectFormat(header, dx10)
	if err != nil {
		return nil, err
	}
	if header.Width == 0 || header.Height == 0 || header.Width > 1<<16 || header.Height > 1<<16 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrUnsupportedFormat, header.Width, header.Height)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	mipMapCount := 1
	if header.Caps&bcn.DDSCapsMipmap != 0 && header.MipMapCount > 0 {
		mipMapCount = int(header.MipMapCount)
	}

	width, height := int(header.Width), int(header.Height)
	expected := width * height * format.pixelSize()

	var payload []byte
	if table, ok := parseBlockTable(body, mipMapCount); ok {
		payload, err = readLargestBlock(body, table, expected)
		if err != nil {
			return nil, err
		}
	} else {
		// Plain DDS stores mipmaps largest first.
		if len(body) < expected {
			return nil, fmt.Errorf("%w: need %d payload bytes, have %d", ErrTruncated, expected, len(body))
		}
		payload = body[:expected]
	}

	return unpackPixels(payload, width, height, format), nil
}

// unpackPixels converts little-endian samples into a pixel array.
func unpackPixels(payload []byte, width, height int, format floatFormat) *exr.PixelArray {
	p := exr.NewPixelArray(height, width, format.channels, format.typ)
	if format.typ == exr.PixelTypeHalf {
		for i := range p.Pix {
			p.Pix[i] = uint32(binary.LittleEndian.Uint16(payload[2*i:]))
		}
	} else {
		for i := range p.Pix {
			p.Pix[i] = binary.LittleEndian.Uint32(payload[4*i:])
		}
	}
	return p
}

// WriteOptions configures Write.
type WriteOptions struct {
	// EDDS wraps the pixel payload in a single-entry block table.
	EDDS bool
	// Compress stores the EDDS block as an LZ4 chunk stream when that is
	// worthwhile. It has no effect without EDDS.
	Compress bool
}

// Write encodes p as a single-mip DDS using the legacy FourCC float formats.
// RGB arrays are written as RGBA with alpha 1.
func Write(w io.Writer, p *exr.PixelArray, opts *WriteOptions) error {
	if opts == nil {
		opts = &WriteOptions{}
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	payload := packPixels(p)
	header := makeHeader(uint32(p.Width), uint32(p.Height), p.Type, opts.EDDS)

	var buf bytes.Buffer
	if err := bcn.WriteDDSMagic(&buf); err != nil {
		return err
	}
	if err := bcn.WriteDDSHeader(&buf, header); err != nil {
		return err
	}
	if opts.EDDS {
		b, err := newBlock(payload, opts.Compress)
		if err != nil {
			return err
		}
		writeBlockTable(&buf, []*mipBlock{b})
		b.writeBody(&buf)
	} else {
		buf.Write(payload)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// packPixels serializes p as RGBA little-endian samples.
func packPixels(p *exr.PixelArray) []byte {
	size := p.Type.Size()
	out := make([]byte, p.Height*p.Width*4*size)

	var one uint32 = 0x3f800000
	if p.Type == exr.PixelTypeHalf {
		one = uint32(half.One.Bits())
	}

	off := 0
	for px := 0; px < p.Height*p.Width; px++ {
		for c := 0; c < 4; c++ {
			v := one
			if c < p.Channels {
				v = p.Pix[px*p.Channels+c]
			}
			if size == 2 {
				binary.LittleEndian.PutUint16(out[off:], uint16(v))
			} else {
				binary.LittleEndian.PutUint32(out[off:], v)
			}
			off += size
		}
	}
	return out
}

// enfusionReserved1 marks EDDS files in the reserved header words.
func enfusionReserved1() [11]uint32 {
	return [11]uint32{
		0,
		0x31464e45, // "ENF1"
		0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
}

func makeHeader(width, height uint32, pt exr.PixelType, edds bool) *bcn.DDSHeader {
	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat | bcn.DDSFlagPitch),
		Height:      height,
		Width:       width,
		Depth:       1,
		MipMapCount: 1,
		Caps:        uint32(bcn.DDSCapsTexture),
	}
	if edds {
		hdr.Reserved1 = enfusionReserved1()
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize
	hdr.PixelFormat.Flags = bcn.DDSPFFourCC
	if pt == exr.PixelTypeHalf {
		hdr.PixelFormat.FourCC = FourCCRGBA16F
		hdr.PitchOrLinearSize = width * 8
	} else {
		hdr.PixelFormat.FourCC = FourCCRGBA32F
		hdr.PitchOrLinearSize = width * 16
	}
	return hdr
}
