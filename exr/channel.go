package exr

import (
	"fmt"

	"github.com/mrjoshuak/go-texexr/internal/xdr"
)

// PixelType identifies the storage type of a channel's samples.
type PixelType uint32

const (
	// PixelTypeUint stores 32-bit unsigned integers.
	PixelTypeUint PixelType = 0
	// PixelTypeHalf stores 16-bit IEEE 754 floats.
	PixelTypeHalf PixelType = 1
	// PixelTypeFloat stores 32-bit IEEE 754 floats.
	PixelTypeFloat PixelType = 2
)

// String returns a string representation of the pixel type.
func (pt PixelType) String() string {
	switch pt {
	case PixelTypeUint:
		return "uint"
	case PixelTypeHalf:
		return "half"
	case PixelTypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Size returns the size in bytes of one sample, or 0 for unknown types.
func (pt PixelType) Size() int {
	switch pt {
	case PixelTypeUint, PixelTypeFloat:
		return 4
	case PixelTypeHalf:
		return 2
	default:
		return 0
	}
}

// Valid reports whether pt is one of the three defined pixel types.
func (pt PixelType) Valid() bool {
	return pt <= PixelTypeFloat
}

// Channel describes a single image channel.
type Channel struct {
	Name      string
	Type      PixelType
	PLinear   byte
	XSampling int32
	YSampling int32
}

// NewChannel creates a channel with 1x1 sampling.
func NewChannel(name string, pixelType PixelType) Channel {
	return Channel{
		Name:      name,
		Type:      pixelType,
		XSampling: 1,
		YSampling: 1,
	}
}

// ChannelList is an ordered list of channels with unique names.
//
// The order is the logical order of the channels, which is also the order of
// the depth slices of a PixelArray. On disk both the channel list record and
// the per-row pixel planes are stored in reverse of this order.
type ChannelList struct {
	channels []Channel
}

// NewChannelList creates an empty channel list.
func NewChannelList() *ChannelList {
	return &ChannelList{}
}

// Add appends a channel. It returns false and leaves the list unchanged if a
// channel with the same name already exists.
func (cl *ChannelList) Add(c Channel) bool {
	for _, existing := range cl.channels {
		if existing.Name == c.Name {
			return false
		}
	}
	cl.channels = append(cl.channels, c)
	return true
}

// Len returns the number of channels.
func (cl *ChannelList) Len() int {
	if cl == nil {
		return 0
	}
	return len(cl.channels)
}

// At returns the channel at logical index i.
func (cl *ChannelList) At(i int) Channel {
	return cl.channels[i]
}

// Get returns the channel with the given name.
func (cl *ChannelList) Get(name string) (Channel, bool) {
	for _, c := range cl.channels {
		if c.Name == name {
			return c, true
		}
	}
	return Channel{}, false
}

// Names returns the channel names in logical order.
func (cl *ChannelList) Names() []string {
	names := make([]string, len(cl.channels))
	for i, c := range cl.channels {
		names[i] = c.Name
	}
	return names
}

// StoredOrder returns the channels in the order they appear on disk.
func (cl *ChannelList) StoredOrder() []Channel {
	out := make([]Channel, len(cl.channels))
	for i, c := range cl.channels {
		out[len(out)-1-i] = c
	}
	return out
}

// BytesPerPixel returns the total size of one pixel across all channels.
func (cl *ChannelList) BytesPerPixel() int {
	n := 0
	for _, c := range cl.channels {
		n += c.Type.Size()
	}
	return n
}

// UniformType returns the pixel type shared by all channels. The second
// result is false if the list is empty or the types differ.
func (cl *ChannelList) UniformType() (PixelType, bool) {
	if cl.Len() == 0 {
		return 0, false
	}
	pt := cl.channels[0].Type
	for _, c := range cl.channels[1:] {
		if c.Type != pt {
			return pt, false
		}
	}
	return pt, true
}

// Equal reports whether both lists hold the same channels in the same
// order.
func (cl *ChannelList) Equal(o *ChannelList) bool {
	if cl.Len() != o.Len() {
		return false
	}
	for i := 0; i < cl.Len(); i++ {
		if cl.channels[i] != o.channels[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the list.
func (cl *ChannelList) Clone() *ChannelList {
	return &ChannelList{channels: append([]Channel(nil), cl.channels...)}
}

// checkSampling fails for channels outside the supported 1x1 sampling.
func (cl *ChannelList) checkSampling() error {
	for _, c := range cl.channels {
		if c.XSampling != 1 || c.YSampling != 1 {
			return fmt.Errorf("%w: channel %q has sampling %dx%d",
				ErrUnsupportedContainer, c.Name, c.XSampling, c.YSampling)
		}
	}
	return nil
}

// WriteChannelList writes the channel records in stored order followed by
// the empty-name terminator.
func WriteChannelList(w *xdr.BufferWriter, cl *ChannelList) {
	for _, c := range cl.StoredOrder() {
		w.WriteString(c.Name)
		w.WriteUint32(uint32(c.Type))
		_ = w.WriteByte(c.PLinear)
		w.WriteZeros(3)
		w.WriteInt32(c.XSampling)
		w.WriteInt32(c.YSampling)
	}
	_ = w.WriteByte(0)
}

// ReadChannelList reads channel records up to the terminator and returns
// them in logical order. Unknown pixel types and duplicate names fail with
// ErrUnsupportedContainer.
func ReadChannelList(r *xdr.Reader) (*ChannelList, error) {
	var stored []Channel
	for {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}

		pt, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if !PixelType(pt).Valid() {
			return nil, fmt.Errorf("%w: channel %q has pixel type %d", ErrUnsupportedContainer, name, pt)
		}
		pLinear, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if err := r.Skip(3); err != nil {
			return nil, err
		}
		xs, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		ys, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}

		stored = append(stored, Channel{
			Name:      name,
			Type:      PixelType(pt),
			PLinear:   pLinear,
			XSampling: xs,
			YSampling: ys,
		})
	}

	cl := NewChannelList()
	for i := len(stored) - 1; i >= 0; i-- {
		if !cl.Add(stored[i]) {
			return nil, fmt.Errorf("%w: duplicate channel %q", ErrUnsupportedContainer, stored[i].Name)
		}
	}
	return cl, nil
}
