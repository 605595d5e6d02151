package exrutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrjoshuak/go-texexr/exr"
	"github.com/mrjoshuak/go-texexr/internal/xdr"
)

func createTestFile(t *testing.T, dir string, name string, width, height int, compression exr.Compression) string {
	t.Helper()

	p := exr.NewPixelArray(height, width, 4, exr.PixelTypeHalf)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p.SetFloat32(y, x, 0, float32(x)/float32(width))
			p.SetFloat32(y, x, 1, float32(y)/float32(height))
			p.SetFloat32(y, x, 2, 0.5)
			p.SetFloat32(y, x, 3, 1.0)
		}
	}

	opts := exr.DefaultBuildOptions()
	opts.Compression = compression
	opts.ForceCompression = true
	f, err := exr.FromPixelArrayWithOptions(p, opts)
	if err != nil {
		t.Fatalf("Failed to build test file: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := exr.WriteFile(path, f); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestGetFileInfo(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "test.exr", 100, 50, exr.CompressionZIP)

	info, err := GetFileInfo(path)
	if err != nil {
		t.Fatalf("GetFileInfo() error = %v", err)
	}

	if info.Width != 100 {
		t.Errorf("Width = %d, want 100", info.Width)
	}
	if info.Height != 50 {
		t.Errorf("Height = %d, want 50", info.Height)
	}
	if info.Compression != exr.CompressionZIP {
		t.Errorf("Compression = %v, want ZIP", info.Compression)
	}
	if info.Blocks != 4 || len(info.BlockSizes) != 4 {
		t.Errorf("Blocks = %d (%d sizes), want 4", info.Blocks, len(info.BlockSizes))
	}
	if strings.Join(info.Channels, "") != "RGBA" {
		t.Errorf("Channels = %v, want [R G B A]", info.Channels)
	}
	for _, pt := range info.PixelTypes {
		if pt != exr.PixelTypeHalf {
			t.Errorf("PixelType = %v, want half", pt)
		}
	}
	if info.FileSize == 0 {
		t.Error("FileSize = 0")
	}

	if _, err := GetFileInfo(filepath.Join(dir, "missing.exr")); err == nil {
		t.Error("GetFileInfo on missing file should fail")
	}
}

func TestExtractChannel(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "test.exr", 10, 10, exr.CompressionNone)

	f, err := exr.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	green, err := ExtractChannel(f, "G")
	if err != nil {
		t.Fatalf("ExtractChannel(G) error = %v", err)
	}
	if len(green) != 100 {
		t.Fatalf("len = %d, want 100", len(green))
	}
	// 0.9 rounds to 1843/2048 in half precision.
	if green[0] != 0 || green[90] != 1843.0/2048 {
		t.Errorf("green[0], green[90] = %v, %v", green[0], green[90])
	}

	if _, err := ExtractChannel(f, "Z"); err == nil {
		t.Error("ExtractChannel(Z) should fail")
	}

	m, err := ExtractChannels(f, "R", "A")
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["A"][55] != 1 {
		t.Errorf("ExtractChannels = %d channels, A[55] = %v", len(m), m["A"][55])
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "valid.exr", 16, 20, exr.CompressionZIP)

	result, err := ValidateFile(path)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("Valid = false, errors: %v", result.Errors)
	}

	small := filepath.Join(dir, "small.exr")
	os.WriteFile(small, []byte{1, 2, 3}, 0o644)
	result, err = ValidateFile(small)
	if err != nil || result.Valid {
		t.Errorf("small file: result %+v, err %v", result, err)
	}

	data, _ := os.ReadFile(path)
	data[len(data)-20] ^= 0xff
	corrupt := filepath.Join(dir, "corrupt.exr")
	os.WriteFile(corrupt, data, 0o644)
	result, err = ValidateFile(corrupt)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid || len(result.Errors) == 0 {
		t.Errorf("corrupt file reported valid: %+v", result)
	}

	if _, err := ValidateFile(filepath.Join(dir, "missing.exr")); err == nil {
		t.Error("ValidateFile on missing file should fail")
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	a := createTestFile(t, dir, "a.exr", 12, 12, exr.CompressionZIP)
	b := createTestFile(t, dir, "b.exr", 12, 12, exr.CompressionNone)
	c := createTestFile(t, dir, "c.exr", 12, 13, exr.CompressionZIP)

	same, diffs, err := CompareFiles(a, b, CompareOptions{IgnoreMetadata: true})
	if err != nil {
		t.Fatal(err)
	}
	if !same {
		t.Errorf("pixel-identical files differ: %v", diffs)
	}

	same, diffs, err = CompareFiles(a, b, CompareOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if same || len(diffs) != 1 || !strings.Contains(diffs[0], "compression") {
		t.Errorf("metadata diffs = %v", diffs)
	}

	same, diffs, _ = CompareFiles(a, c, CompareOptions{})
	if same || !strings.Contains(diffs[0], "dimensions") {
		t.Errorf("dimension diffs = %v", diffs)
	}
}

func TestConvertCompression(t *testing.T) {
	dir := t.TempDir()
	src := createTestFile(t, dir, "zip.exr", 20, 33, exr.CompressionZIP)
	dst := filepath.Join(dir, "none.exr")

	if err := ConvertCompression(src, dst, exr.CompressionNone); err != nil {
		t.Fatalf("ConvertCompression() error = %v", err)
	}

	info, err := GetFileInfo(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Compression != exr.CompressionNone || info.Blocks != 33 {
		t.Errorf("converted: %v with %d blocks", info.Compression, info.Blocks)
	}

	same, diffs, err := CompareFiles(src, dst, CompareOptions{IgnoreMetadata: true})
	if err != nil || !same {
		t.Errorf("converted pixels differ: %v %v", diffs, err)
	}

	if err := ConvertCompression(src, dst, exr.CompressionPIZ); err == nil {
		t.Error("PIZ conversion should fail")
	}
}

func TestValidateFileOverflowingWindow(t *testing.T) {
	cl := exr.NewChannelList()
	for _, name := range []string{"R", "G", "B", "A"} {
		cl.Add(exr.NewChannel(name, exr.PixelTypeHalf))
	}
	h := exr.NewScanlineHeader(1, 1, cl, exr.CompressionZIP)
	h.SetDataWindow(exr.Box2i{Min: exr.V2i{X: -1 << 31}, Max: exr.V2i{X: 1}})

	w := xdr.NewBufferWriter(512)
	w.WriteUint32(exr.MagicNumber)
	_ = w.WriteByte(exr.Version)
	w.WriteZeros(3)
	if err := exr.WriteHeader(w, h); err != nil {
		t.Fatal(err)
	}
	w.WriteUint64(0)
	w.WriteInt32(0)
	w.WriteUint32(0)

	path := filepath.Join(t.TempDir(), "window.exr")
	if err := os.WriteFile(path, w.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := ValidateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid || len(result.Errors) != 1 {
		t.Errorf("result = %+v, want one error", result)
	}
}
