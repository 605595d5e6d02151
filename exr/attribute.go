package exr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrjoshuak/go-texexr/internal/xdr"
)

// Compression defines the compression method for pixel data.
//
// All ten codes of the format family are named so that files can be
// described, but only CompressionNone and CompressionZIP can be read or
// written.
type Compression uint8

const (
	// CompressionNone stores uncompressed data, one scanline per block.
	CompressionNone Compression = 0
	// CompressionRLE uses run-length encoding.
	CompressionRLE Compression = 1
	// CompressionZIPS uses zlib compression on single scanlines.
	CompressionZIPS Compression = 2
	// CompressionZIP uses zlib compression on 16 scanlines.
	CompressionZIP Compression = 3
	// CompressionPIZ uses wavelet compression.
	CompressionPIZ Compression = 4
	// CompressionPXR24 uses 24-bit float conversion with zlib.
	CompressionPXR24 Compression = 5
	// CompressionB44 uses 4x4 block lossy compression.
	CompressionB44 Compression = 6
	// CompressionB44A uses B44 with flat area detection.
	CompressionB44A Compression = 7
	// CompressionDWAA uses DCT-based lossy compression (32 scanlines).
	CompressionDWAA Compression = 8
	// CompressionDWAB uses DCT-based lossy compression (256 scanlines).
	CompressionDWAB Compression = 9
)

// zipScanlines is the number of rows in a ZIP block.
const zipScanlines = 16

// String returns a string representation of the compression type.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionRLE:
		return "rle"
	case CompressionZIPS:
		return "zips"
	case CompressionZIP:
		return "zip"
	case CompressionPIZ:
		return "piz"
	case CompressionPXR24:
		return "pxr24"
	case CompressionB44:
		return "b44"
	case CompressionB44A:
		return "b44a"
	case CompressionDWAA:
		return "dwaa"
	case CompressionDWAB:
		return "dwab"
	default:
		return "unknown"
	}
}

// Supported reports whether blocks using c can be encoded and decoded.
func (c Compression) Supported() bool {
	return c == CompressionNone || c == CompressionZIP
}

// ScanlinesPerBlock returns the number of rows grouped into one block, or 0
// for codecs this package does not handle.
func (c Compression) ScanlinesPerBlock() int {
	switch c {
	case CompressionNone:
		return 1
	case CompressionZIP:
		return zipScanlines
	default:
		return 0
	}
}

// CompressionFromByte converts an on-disk compression code. Codes above
// CompressionDWAB fail with ErrUnsupportedContainer.
func CompressionFromByte(b byte) (Compression, error) {
	if b > byte(CompressionDWAB) {
		return 0, fmt.Errorf("%w: compression code %d", ErrUnsupportedContainer, b)
	}
	return Compression(b), nil
}

// ParseCompression converts a name as returned by String.
func ParseCompression(name string) (Compression, error) {
	for c := CompressionNone; c <= CompressionDWAB; c++ {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: compression %q", ErrUnsupportedContainer, name)
}

// LineOrder defines the order of scanlines in the file.
type LineOrder uint8

const (
	// LineOrderIncreasing stores scanlines from top to bottom (y=0 first).
	LineOrderIncreasing LineOrder = 0
	// LineOrderDecreasing stores scanlines from bottom to top (y=max first).
	LineOrderDecreasing LineOrder = 1
	// LineOrderRandom allows blocks in any order.
	LineOrderRandom LineOrder = 2
)

// String returns a string representation of the line order.
func (lo LineOrder) String() string {
	switch lo {
	case LineOrderIncreasing:
		return "increasing_y"
	case LineOrderDecreasing:
		return "decreasing_y"
	case LineOrderRandom:
		return "random_y"
	default:
		return "unknown"
	}
}

// LineOrderFromByte converts an on-disk line order code. Codes above
// LineOrderRandom fail with ErrUnsupportedContainer.
func LineOrderFromByte(b byte) (LineOrder, error) {
	if b > byte(LineOrderRandom) {
		return 0, fmt.Errorf("%w: line order code %d", ErrUnsupportedContainer, b)
	}
	return LineOrder(b), nil
}

// Attribute errors
var (
	ErrUnknownAttributeType = errors.New("exr: unknown attribute type")
	ErrInvalidAttribute     = errors.New("exr: invalid attribute value")
)

// AttributeType identifies the type of an attribute.
type AttributeType string

// Attribute types used by the required header attributes.
const (
	AttrTypeBox2i       AttributeType = "box2i"
	AttrTypeBox2f       AttributeType = "box2f"
	AttrTypeChlist      AttributeType = "chlist"
	AttrTypeCompression AttributeType = "compression"
	AttrTypeFloat       AttributeType = "float"
	AttrTypeLineOrder   AttributeType = "lineOrder"
	AttrTypeV2f         AttributeType = "v2f"
)

// Attribute represents a single header attribute.
//
// Value holds a Box2i, Box2f, *ChannelList, Compression, float32, LineOrder
// or V2f according to Type. Attributes of any other type carry their raw
// payload as []byte.
type Attribute struct {
	Name  string
	Type  AttributeType
	Value interface{}
}

// WriteAttribute writes an attribute record: name, type, payload length and
// payload.
func WriteAttribute(w *xdr.BufferWriter, attr *Attribute) error {
	w.WriteString(attr.Name)
	w.WriteString(string(attr.Type))
	return writeAttributeValue(w, attr)
}

// writeAttributeValue writes the length-prefixed payload. Box records carry
// their own size field, which doubles as the attribute length.
func writeAttributeValue(w *xdr.BufferWriter, attr *Attribute) error {
	bad := func() error {
		return fmt.Errorf("%w: %s has %T value for type %s", ErrInvalidAttribute, attr.Name, attr.Value, attr.Type)
	}

	switch attr.Type {
	case AttrTypeBox2i:
		v, ok := attr.Value.(Box2i)
		if !ok {
			return bad()
		}
		WriteBox2i(w, v)
	case AttrTypeBox2f:
		v, ok := attr.Value.(Box2f)
		if !ok {
			return bad()
		}
		WriteBox2f(w, v)
	case AttrTypeChlist:
		v, ok := attr.Value.(*ChannelList)
		if !ok || v == nil {
			return bad()
		}
		payload := xdr.NewBufferWriter(v.Len()*24 + 1)
		WriteChannelList(payload, v)
		w.WriteUint32(uint32(payload.Len()))
		w.WriteBytes(payload.Bytes())
	case AttrTypeCompression:
		v, ok := attr.Value.(Compression)
		if !ok {
			return bad()
		}
		w.WriteUint32(1)
		_ = w.WriteByte(byte(v))
	case AttrTypeLineOrder:
		v, ok := attr.Value.(LineOrder)
		if !ok {
			return bad()
		}
		w.WriteUint32(1)
		_ = w.WriteByte(byte(v))
	case AttrTypeFloat:
		v, ok := attr.Value.(float32)
		if !ok {
			return bad()
		}
		w.WriteUint32(4)
		w.WriteFloat32(v)
	case AttrTypeV2f:
		v, ok := attr.Value.(V2f)
		if !ok {
			return bad()
		}
		w.WriteUint32(8)
		WriteV2f(w, v)
	default:
		raw, ok := attr.Value.([]byte)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAttributeType, attr.Type)
		}
		w.WriteUint32(uint32(len(raw)))
		w.WriteBytes(raw)
	}
	return nil
}

// readPayload reads a length-prefixed payload and checks its length when
// want is non-negative.
func readPayload(r *xdr.Reader, name string, want int) (*xdr.Reader, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if want >= 0 && int(n) != want {
		return nil, fmt.Errorf("%w: attribute %s has size %d, want %d", ErrUnsupportedContainer, name, n, want)
	}
	if uint64(n) > uint64(r.Len()) {
		return nil, xdr.ErrShortBuffer
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	return xdr.NewReader(b), nil
}

// readAttributeValue decodes the payload of a known attribute type. The
// reader is positioned at the length field.
func readAttributeValue(r *xdr.Reader, name string, typ AttributeType) (interface{}, error) {
	switch typ {
	case AttrTypeBox2i:
		return ReadBox2i(r)
	case AttrTypeBox2f:
		return ReadBox2f(r)
	case AttrTypeChlist:
		p, err := readPayload(r, name, -1)
		if err != nil {
			return nil, err
		}
		cl, err := ReadChannelList(p)
		if err != nil {
			return nil, err
		}
		if p.Len() != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes after channel list", ErrUnsupportedContainer, p.Len())
		}
		return cl, nil
	case AttrTypeCompression:
		p, err := readPayload(r, name, 1)
		if err != nil {
			return nil, err
		}
		b, _ := p.ReadByte()
		return CompressionFromByte(b)
	case AttrTypeLineOrder:
		p, err := readPayload(r, name, 1)
		if err != nil {
			return nil, err
		}
		b, _ := p.ReadByte()
		return LineOrderFromByte(b)
	case AttrTypeFloat:
		p, err := readPayload(r, name, 4)
		if err != nil {
			return nil, err
		}
		return p.ReadFloat32()
	case AttrTypeV2f:
		p, err := readPayload(r, name, 8)
		if err != nil {
			return nil, err
		}
		return ReadV2f(p)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAttributeType, typ)
	}
}
