package exr

import (
	"fmt"
	"math"
	"strings"

	"github.com/mrjoshuak/go-texexr/internal/xdr"
)

// Standard attribute names.
const (
	AttrChannels           = "channels"
	AttrCompression        = "compression"
	AttrDataWindow         = "dataWindow"
	AttrDisplayWindow      = "displayWindow"
	AttrLineOrder          = "lineOrder"
	AttrPixelAspectRatio   = "pixelAspectRatio"
	AttrScreenWindowCenter = "screenWindowCenter"
	AttrScreenWindowWidth  = "screenWindowWidth"
)

// requiredAttributes lists every attribute a header must carry, in the
// order they are written by NewScanlineHeader.
var requiredAttributes = []struct {
	name string
	typ  AttributeType
}{
	{AttrChannels, AttrTypeChlist},
	{AttrCompression, AttrTypeCompression},
	{AttrDataWindow, AttrTypeBox2i},
	{AttrDisplayWindow, AttrTypeBox2i},
	{AttrLineOrder, AttrTypeLineOrder},
	{AttrPixelAspectRatio, AttrTypeFloat},
	{AttrScreenWindowCenter, AttrTypeV2f},
	{AttrScreenWindowWidth, AttrTypeFloat},
}

// requiredType returns the attribute type expected for a required name.
func requiredType(name string) (AttributeType, bool) {
	for _, ra := range requiredAttributes {
		if ra.name == name {
			return ra.typ, true
		}
	}
	return "", false
}

// Header is an insertion-ordered table of attributes.
//
// Warnings collects non-fatal findings made while reading, such as unknown
// attributes that were skipped.
type Header struct {
	attrs    []*Attribute
	Warnings []string
}

// NewHeader creates an empty header.
func NewHeader() *Header {
	return &Header{}
}

// NewScanlineHeader creates a header for a width x height image with the
// given channels and compression. Both windows span (0,0)-(width-1,height-1)
// and the remaining attributes take their neutral defaults.
func NewScanlineHeader(width, height int, channels *ChannelList, compression Compression) *Header {
	win := Box2i{Max: V2i{int32(width - 1), int32(height - 1)}}
	h := NewHeader()
	h.SetChannels(channels)
	h.SetCompression(compression)
	h.SetDataWindow(win)
	h.SetDisplayWindow(win)
	h.SetLineOrder(LineOrderIncreasing)
	h.SetPixelAspectRatio(1)
	h.SetScreenWindowCenter(V2f{})
	h.SetScreenWindowWidth(1)
	return h
}

// Set adds an attribute, replacing any attribute with the same name in place.
func (h *Header) Set(attr *Attribute) {
	for i, a := range h.attrs {
		if a.Name == attr.Name {
			h.attrs[i] = attr
			return
		}
	}
	h.attrs = append(h.attrs, attr)
}

// Get returns the named attribute, or nil.
func (h *Header) Get(name string) *Attribute {
	for _, a := range h.attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Has reports whether the named attribute is present.
func (h *Header) Has(name string) bool {
	return h.Get(name) != nil
}

// Remove deletes the named attribute.
func (h *Header) Remove(name string) {
	for i, a := range h.attrs {
		if a.Name == name {
			h.attrs = append(h.attrs[:i], h.attrs[i+1:]...)
			return
		}
	}
}

// Attributes returns the attributes in insertion order.
func (h *Header) Attributes() []*Attribute {
	return h.attrs
}

// Channels returns the channel list, or nil if unset.
func (h *Header) Channels() *ChannelList {
	if a := h.Get(AttrChannels); a != nil {
		if cl, ok := a.Value.(*ChannelList); ok {
			return cl
		}
	}
	return nil
}

// SetChannels sets the channel list.
func (h *Header) SetChannels(cl *ChannelList) {
	h.Set(&Attribute{Name: AttrChannels, Type: AttrTypeChlist, Value: cl})
}

// Compression returns the compression type.
func (h *Header) Compression() Compression {
	if a := h.Get(AttrCompression); a != nil {
		if c, ok := a.Value.(Compression); ok {
			return c
		}
	}
	return CompressionNone
}

// SetCompression sets the compression type.
func (h *Header) SetCompression(c Compression) {
	h.Set(&Attribute{Name: AttrCompression, Type: AttrTypeCompression, Value: c})
}

func (h *Header) box2i(name string) Box2i {
	if a := h.Get(name); a != nil {
		if b, ok := a.Value.(Box2i); ok {
			return b
		}
	}
	return Box2i{}
}

func (h *Header) float(name string, def float32) float32 {
	if a := h.Get(name); a != nil {
		if f, ok := a.Value.(float32); ok {
			return f
		}
	}
	return def
}

// DataWindow returns the region of stored pixels.
func (h *Header) DataWindow() Box2i {
	return h.box2i(AttrDataWindow)
}

// SetDataWindow sets the data window.
func (h *Header) SetDataWindow(b Box2i) {
	h.Set(&Attribute{Name: AttrDataWindow, Type: AttrTypeBox2i, Value: b})
}

// DisplayWindow returns the region intended for display.
func (h *Header) DisplayWindow() Box2i {
	return h.box2i(AttrDisplayWindow)
}

// SetDisplayWindow sets the display window.
func (h *Header) SetDisplayWindow(b Box2i) {
	h.Set(&Attribute{Name: AttrDisplayWindow, Type: AttrTypeBox2i, Value: b})
}

// LineOrder returns the scanline order.
func (h *Header) LineOrder() LineOrder {
	if a := h.Get(AttrLineOrder); a != nil {
		if lo, ok := a.Value.(LineOrder); ok {
			return lo
		}
	}
	return LineOrderIncreasing
}

// SetLineOrder sets the scanline order.
func (h *Header) SetLineOrder(lo LineOrder) {
	h.Set(&Attribute{Name: AttrLineOrder, Type: AttrTypeLineOrder, Value: lo})
}

// PixelAspectRatio returns the pixel aspect ratio, 1 if unset.
func (h *Header) PixelAspectRatio() float32 {
	return h.float(AttrPixelAspectRatio, 1)
}

// SetPixelAspectRatio sets the pixel aspect ratio.
func (h *Header) SetPixelAspectRatio(v float32) {
	h.Set(&Attribute{Name: AttrPixelAspectRatio, Type: AttrTypeFloat, Value: v})
}

// ScreenWindowCenter returns the screen window center.
func (h *Header) ScreenWindowCenter() V2f {
	if a := h.Get(AttrScreenWindowCenter); a != nil {
		if v, ok := a.Value.(V2f); ok {
			return v
		}
	}
	return V2f{}
}

// SetScreenWindowCenter sets the screen window center.
func (h *Header) SetScreenWindowCenter(v V2f) {
	h.Set(&Attribute{Name: AttrScreenWindowCenter, Type: AttrTypeV2f, Value: v})
}

// ScreenWindowWidth returns the screen window width, 1 if unset.
func (h *Header) ScreenWindowWidth() float32 {
	return h.float(AttrScreenWindowWidth, 1)
}

// SetScreenWindowWidth sets the screen window width.
func (h *Header) SetScreenWindowWidth(v float32) {
	h.Set(&Attribute{Name: AttrScreenWindowWidth, Type: AttrTypeFloat, Value: v})
}

// missingAttributes returns the required attributes absent from h.
func (h *Header) missingAttributes() []string {
	var missing []string
	for _, ra := range requiredAttributes {
		a := h.Get(ra.name)
		if a == nil || a.Type != ra.typ {
			missing = append(missing, ra.name)
		}
	}
	return missing
}

// Validate checks that the header describes a file this package can encode
// and decode.
func (h *Header) Validate() error {
	if missing := h.missingAttributes(); len(missing) > 0 {
		return fmt.Errorf("%w: missing required attributes: %s",
			ErrUnsupportedContainer, strings.Join(missing, ", "))
	}
	cl := h.Channels()
	if cl.Len() == 0 {
		return fmt.Errorf("%w: no channels", ErrUnsupportedContainer)
	}
	if err := cl.checkSampling(); err != nil {
		return err
	}
	dw := h.DataWindow()
	if dw.IsEmpty() {
		return fmt.Errorf("%w: empty data window", ErrUnsupportedContainer)
	}
	width := int64(dw.Max.X) - int64(dw.Min.X) + 1
	height := int64(dw.Max.Y) - int64(dw.Min.Y) + 1
	if width > math.MaxInt32 || height > math.MaxInt32 {
		return fmt.Errorf("%w: data window %dx%d too large", ErrUnsupportedContainer, width, height)
	}
	// A full ZIP block must be addressable.
	if bpp := int64(cl.BytesPerPixel()); bpp > math.MaxInt/zipScanlines/width {
		return fmt.Errorf("%w: data window width %d with %d bytes per pixel too large",
			ErrUnsupportedContainer, width, bpp)
	}
	if _, err := h.ScanlineBlockCount(); err != nil {
		return err
	}
	return nil
}

// ScanlineBlockCount returns the number of blocks needed to store height
// rows with compression c.
func ScanlineBlockCount(height int, c Compression) (int, error) {
	if height < 0 {
		return 0, fmt.Errorf("%w: negative height %d", ErrUnsupportedContainer, height)
	}
	switch c {
	case CompressionNone:
		return height, nil
	case CompressionZIP:
		return (height + zipScanlines - 1) / zipScanlines, nil
	default:
		return 0, fmt.Errorf("%w: compression %s", ErrUnsupportedContainer, c)
	}
}

// ScanlineBlockCount returns the number of blocks for the header's data
// window and compression.
func (h *Header) ScanlineBlockCount() (int, error) {
	return ScanlineBlockCount(int(h.DataWindow().Height()), h.Compression())
}

// WriteHeader writes every attribute in insertion order followed by the
// empty-name terminator.
func WriteHeader(w *xdr.BufferWriter, h *Header) error {
	for _, a := range h.attrs {
		if err := WriteAttribute(w, a); err != nil {
			return err
		}
	}
	return w.WriteByte(0)
}

// ReadHeader reads attributes up to the terminator. Required attributes are
// decoded; any other attribute is skipped and noted in Warnings. A header
// lacking a required attribute fails with ErrUnsupportedContainer.
func ReadHeader(r *xdr.Reader) (*Header, error) {
	h := NewHeader()
	for {
		name, err := r.ReadString()
		if err != nil {
			return nil, truncated("attribute name", err)
		}
		if name == "" {
			break
		}
		typeName, err := r.ReadString()
		if err != nil {
			return nil, truncated("attribute "+name, err)
		}
		typ := AttributeType(typeName)

		if want, ok := requiredType(name); ok && want == typ {
			v, err := readAttributeValue(r, name, typ)
			if err != nil {
				return nil, truncated("attribute "+name, err)
			}
			h.Set(&Attribute{Name: name, Type: typ, Value: v})
			continue
		}

		size, err := r.ReadUint32()
		if err == nil && uint64(size) > uint64(r.Len()) {
			err = xdr.ErrShortBuffer
		}
		if err == nil {
			err = r.Skip(int(size))
		}
		if err != nil {
			return nil, truncated("attribute "+name, err)
		}
		h.Warnings = append(h.Warnings,
			fmt.Sprintf("skipped unknown attribute %q of type %q (%d bytes)", name, typeName, size))
	}

	if missing := h.missingAttributes(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required attributes: %s",
			ErrUnsupportedContainer, strings.Join(missing, ", "))
	}
	return h, nil
}

// truncated wraps low-level read failures. Errors that already carry a
// package sentinel pass through unchanged.
func truncated(what string, err error) error {
	if isSentinel(err) {
		return err
	}
	return fmt.Errorf("%w: reading %s: %w", ErrUnsupportedContainer, what, err)
}
