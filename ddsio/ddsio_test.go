package ddsio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/woozymasta/bcn"

	"github.com/mrjoshuak/go-texexr/exr"
)

func smoothArray(height, width, channels int, pt exr.PixelType) *exr.PixelArray {
	p := exr.NewPixelArray(height, width, channels, pt)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				p.SetFloat32(y, x, c, float32(x+y)/float32(width+height)+float32(c))
			}
		}
	}
	return p
}

func writeDDS(t *testing.T, p *exr.PixelArray, opts *WriteOptions) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, p, opts); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    *exr.PixelArray
		opts *WriteOptions
	}{
		{"half dds", smoothArray(8, 23, 4, exr.PixelTypeHalf), nil},
		{"float dds", smoothArray(5, 7, 4, exr.PixelTypeFloat), nil},
		{"half edds copy", smoothArray(4, 4, 4, exr.PixelTypeHalf), &WriteOptions{EDDS: true, Compress: true}},
		{"half edds uncompressed", smoothArray(64, 64, 4, exr.PixelTypeHalf), &WriteOptions{EDDS: true}},
		{"half edds lz4", smoothArray(128, 128, 4, exr.PixelTypeHalf), &WriteOptions{EDDS: true, Compress: true}},
		{"float edds lz4", smoothArray(100, 90, 4, exr.PixelTypeFloat), &WriteOptions{EDDS: true, Compress: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := writeDDS(t, tt.p, tt.opts)
			got, err := Read(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !got.Equal(tt.p) {
				t.Error("pixels differ after round trip")
			}
		})
	}
}

func TestEDDSBlockMagic(t *testing.T) {
	const bodyStart = 4 + bcn.DDSHeaderSize

	large := writeDDS(t, smoothArray(128, 128, 4, exr.PixelTypeHalf), &WriteOptions{EDDS: true, Compress: true})
	if magic := string(large[bodyStart : bodyStart+4]); magic != BlockMagicLZ4 {
		t.Errorf("large texture block magic = %q, want LZ4", magic)
	}
	if raw := 128 * 128 * 8; len(large) >= raw {
		t.Errorf("LZ4 file is %d bytes, payload %d", len(large), raw)
	}

	small := writeDDS(t, smoothArray(4, 4, 4, exr.PixelTypeHalf), &WriteOptions{EDDS: true, Compress: true})
	if magic := string(small[bodyStart : bodyStart+4]); magic != BlockMagicCOPY {
		t.Errorf("small texture block magic = %q, want COPY", magic)
	}
}

func TestWriteRGBAddsAlpha(t *testing.T) {
	p := smoothArray(3, 5, 3, exr.PixelTypeFloat)
	got, err := Read(bytes.NewReader(writeDDS(t, p, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if got.Channels != 4 {
		t.Fatalf("Channels = %d, want 4", got.Channels)
	}
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			for c := 0; c < 3; c++ {
				if got.Float32At(y, x, c) != p.Float32At(y, x, c) {
					t.Errorf("(%d,%d,%d) = %v, want %v", y, x, c, got.Float32At(y, x, c), p.Float32At(y, x, c))
				}
			}
			if a := got.Float32At(y, x, 3); a != 1 {
				t.Errorf("alpha at (%d,%d) = %v, want 1", y, x, a)
			}
		}
	}

	h := smoothArray(2, 2, 3, exr.PixelTypeHalf)
	got, err = Read(bytes.NewReader(writeDDS(t, h, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if a := got.Float32At(1, 1, 3); a != 1 {
		t.Errorf("half alpha = %v, want 1", a)
	}
}

// dx10File builds a DDS with a DX10 header and the given payload.
func dx10File(t *testing.T, width, height, dxgi uint32, payload []byte) []byte {
	t.Helper()
	hdr := &bcn.DDSHeader{
		Size:   bcn.DDSHeaderSize,
		Flags:  uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat),
		Height: height,
		Width:  width,
		Depth:  1,
		Caps:   uint32(bcn.DDSCapsTexture),
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize
	hdr.PixelFormat.Flags = bcn.DDSPFFourCC
	hdr.PixelFormat.FourCC = 0x30315844 // "DX10"

	var buf bytes.Buffer
	if err := bcn.WriteDDSMagic(&buf); err != nil {
		t.Fatal(err)
	}
	if err := bcn.WriteDDSHeader(&buf, hdr); err != nil {
		t.Fatal(err)
	}
	// DXGI format, 2D texture, no misc flags, array size 1, alpha mode.
	for _, v := range []uint32{dxgi, 3, 0, 1, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(payload)
	return buf.Bytes()
}

func TestReadDX10(t *testing.T) {
	payload := make([]byte, 2*3*3*4)
	for i := 0; i < len(payload)/4; i++ {
		binary.LittleEndian.PutUint32(payload[4*i:], math.Float32bits(float32(i)/4))
	}

	p, err := Read(bytes.NewReader(dx10File(t, 3, 2, DXGIRGB32F, payload)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if p.Channels != 3 || p.Type != exr.PixelTypeFloat || p.Width != 3 || p.Height != 2 {
		t.Fatalf("shape = %dx%dx%d %v", p.Height, p.Width, p.Channels, p.Type)
	}
	if v := p.Float32At(1, 2, 2); v != float32(17)/4 {
		t.Errorf("last sample = %v, want 4.25", v)
	}

	_, err = Read(bytes.NewReader(dx10File(t, 3, 2, 87, payload)))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("BGRA8 error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadErrors(t *testing.T) {
	valid := writeDDS(t, smoothArray(4, 4, 4, exr.PixelTypeHalf), nil)

	if _, err := Read(bytes.NewReader(valid[:len(valid)-1])); !errors.Is(err, ErrTruncated) {
		t.Errorf("short payload error = %v, want ErrTruncated", err)
	}
	if _, err := Read(bytes.NewReader(valid[:40])); !errors.Is(err, ErrTruncated) {
		t.Errorf("short header error = %v, want ErrTruncated", err)
	}

	dxt := append([]byte(nil), valid...)
	// PixelFormat.FourCC sits at offset 4 (magic) + 80.
	copy(dxt[84:], "DXT1")
	if _, err := Read(bytes.NewReader(dxt)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("DXT1 error = %v, want ErrUnsupportedFormat", err)
	}

	if err := Write(&bytes.Buffer{}, exr.NewPixelArray(2, 2, 2, exr.PixelTypeHalf), nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("two-channel write error = %v", err)
	}
}

func TestCorruptLZ4(t *testing.T) {
	data := writeDDS(t, smoothArray(128, 128, 4, exr.PixelTypeHalf), &WriteOptions{EDDS: true, Compress: true})
	tableEnd := 4 + bcn.DDSHeaderSize + 8

	// Flag byte of the first chunk header, after the uncompressed size.
	data[tableEnd+4+3] = 0x40
	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrLZ4) {
		t.Errorf("bad flags error = %v, want ErrLZ4", err)
	}
}

func TestLZ4ChunkStream(t *testing.T) {
	data := make([]byte, 3*ChunkSize+100)
	for i := range data {
		data[i] = byte(i / 300)
	}
	stream, ok, err := compressLZ4(data)
	if err != nil || !ok {
		t.Fatalf("compressLZ4: %v %v", ok, err)
	}
	got, err := decompressLZ4(stream, len(data))
	if err != nil {
		t.Fatalf("decompressLZ4: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("chunk stream round trip mismatch")
	}

	if _, err := decompressLZ4(stream, len(data)+1); !errors.Is(err, ErrLZ4) {
		t.Errorf("wrong target size error = %v", err)
	}
	if _, err := decompressLZ4(stream[:len(stream)-5], len(data)); !errors.Is(err, ErrLZ4) {
		t.Errorf("truncated stream error = %v", err)
	}
}

func FuzzRead(f *testing.F) {
	f.Add(encodeSeed(smoothArray(4, 4, 4, exr.PixelTypeHalf), nil))
	f.Add(encodeSeed(smoothArray(40, 40, 4, exr.PixelTypeHalf), &WriteOptions{EDDS: true, Compress: true}))
	f.Add(encodeSeed(smoothArray(3, 5, 3, exr.PixelTypeFloat), &WriteOptions{EDDS: true}))

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := Read(bytes.NewReader(data))
		if err != nil {
			return
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("Read returned an invalid array: %v", err)
		}
	})
}

func encodeSeed(p *exr.PixelArray, opts *WriteOptions) []byte {
	var buf bytes.Buffer
	if err := Write(&buf, p, opts); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
