package compression

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestZIPRoundTrip(t *testing.T) {
	tests := [][]byte{
		{},
		{1},
		{1, 2},
		{1, 2, 3, 4, 5},
		{100, 100, 100, 100, 100, 100, 100, 100},
		bytes.Repeat([]byte{0, 60}, 512),
	}

	for i, original := range tests {
		compressed, err := ZIPCompress(original)
		if err != nil {
			t.Fatalf("test %d: compress: %v", i, err)
		}
		got, err := ZIPDecompress(compressed, len(original))
		if err != nil {
			t.Fatalf("test %d: decompress: %v", i, err)
		}
		if !bytes.Equal(got, original) {
			t.Errorf("test %d: got %v, want %v", i, got, original)
		}
	}
}

func TestZIPLevels(t *testing.T) {
	data := bytes.Repeat([]byte("scanline"), 256)
	for _, level := range []CompressionLevel{
		CompressionLevelHuffmanOnly,
		CompressionLevelNone,
		CompressionLevelBestSpeed,
		CompressionLevelDefault,
		CompressionLevelBestSize,
	} {
		compressed, err := ZIPCompressLevel(data, level)
		if err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
		got, err := ZIPDecompress(compressed, len(data))
		if err != nil {
			t.Fatalf("level %d: decompress: %v", level, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("level %d: round trip mismatch", level)
		}
	}
}

func TestZIPDecompressErrors(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	compressed, err := ZIPCompress(data)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ZIPDecompress(compressed, 10); !errors.Is(err, ErrZIPSize) {
		t.Errorf("short stream error = %v, want ErrZIPSize", err)
	}
	if _, err := ZIPDecompress(compressed, 3); !errors.Is(err, ErrZIPSize) {
		t.Errorf("long stream error = %v, want ErrZIPSize", err)
	}
	if _, err := ZIPDecompress([]byte{0x78, 0x9c, 0xff, 0xff}, 5); err == nil {
		t.Error("corrupted stream should fail")
	}
	if _, err := ZIPDecompress(nil, 5); !errors.Is(err, ErrZIPCorrupted) {
		t.Errorf("empty stream error = %v, want ErrZIPCorrupted", err)
	}
	if _, err := ZIPDecompress([]byte("not zlib at all"), 5); !errors.Is(err, ErrZIPCorrupted) {
		t.Errorf("garbage error = %v, want ErrZIPCorrupted", err)
	}

	// The pooled reader must still work after failures.
	got, err := ZIPDecompress(compressed, len(data))
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("decompress after errors = %v, %v", got, err)
	}
}

func TestBlockRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, n := range []int{1, 2, 3, 16, 17, 255, 4096} {
		pixels := make([]byte, n)
		for i := range pixels {
			pixels[i] = byte(i/7) + byte(rng.Intn(3))
		}

		encoded, err := EncodeBlock(pixels, CompressionLevelDefault)
		if err != nil {
			t.Fatalf("n=%d: EncodeBlock: %v", n, err)
		}
		decoded, err := DecodeBlock(encoded, n)
		if err != nil {
			t.Fatalf("n=%d: DecodeBlock: %v", n, err)
		}
		if !bytes.Equal(decoded, pixels) {
			t.Fatalf("n=%d: block round trip mismatch", n)
		}
	}
}

func TestBlockCompressesSmoothData(t *testing.T) {
	pixels := make([]byte, 8192)
	for i := 0; i < len(pixels); i += 2 {
		// Slowly increasing half values.
		pixels[i] = byte(i / 64)
		pixels[i+1] = 0x3C
	}
	encoded, err := EncodeBlock(pixels, CompressionLevelDefault)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) >= len(pixels)/4 {
		t.Errorf("encoded %d bytes from %d, expected strong compression", len(encoded), len(pixels))
	}
}

func FuzzDecodeBlock(f *testing.F) {
	seed, _ := EncodeBlock([]byte{1, 2, 3, 4, 5, 6, 7, 8}, CompressionLevelDefault)
	f.Add(seed, 8)
	f.Add([]byte{0x78, 0x9c}, 4)
	f.Fuzz(func(t *testing.T, data []byte, size int) {
		if size < 0 || size > 1<<16 {
			return
		}
		out, err := DecodeBlock(data, size)
		if err == nil && len(out) != size {
			t.Fatalf("decoded %d bytes, want %d", len(out), size)
		}
	})
}
