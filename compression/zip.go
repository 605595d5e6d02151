// Package compression implements the deflate stage of ZIP scanline blocks.
//
// A ZIP block is produced from the raw little-endian pixel bytes by
//  1. reordering even and odd bytes into two halves,
//  2. applying the +128 byte predictor,
//  3. compressing with zlib.
//
// Decoding runs the same steps backwards.
package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"

	"github.com/mrjoshuak/go-texexr/internal/interleave"
	"github.com/mrjoshuak/go-texexr/internal/predictor"
)

// ZIP errors.
var (
	ErrZIPCorrupted = errors.New("compression: corrupted ZIP data")
	ErrZIPSize      = errors.New("compression: ZIP data does not match expected size")
)

// CompressionLevel is a zlib compression level.
type CompressionLevel int

// Standard levels.
const (
	CompressionLevelHuffmanOnly CompressionLevel = -2
	CompressionLevelDefault     CompressionLevel = -1
	CompressionLevelNone        CompressionLevel = 0
	CompressionLevelBestSpeed   CompressionLevel = 1
	CompressionLevelBestSize    CompressionLevel = 9
)

type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// ZIPCompress deflates src at the default level.
func ZIPCompress(src []byte) ([]byte, error) {
	return ZIPCompressLevel(src, CompressionLevelDefault)
}

// ZIPCompressLevel deflates src into a zlib stream at the given level.
// Only the default level goes through the writer pool.
func ZIPCompressLevel(src []byte, level CompressionLevel) ([]byte, error) {
	if level == CompressionLevelDefault {
		item := zlibWriterPool.Get().(*zlibWriterPoolItem)
		defer zlibWriterPool.Put(item)
		item.buf.Reset()
		item.writer.Reset(item.buf)
		if err := deflateInto(item.writer, src); err != nil {
			return nil, err
		}
		return bytes.Clone(item.buf.Bytes()), nil
	}

	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, int(level))
	if err != nil {
		return nil, err
	}
	if err := deflateInto(w, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deflateInto(w *zlib.Writer, src []byte) error {
	if _, err := w.Write(src); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

type zlibReaderPoolItem struct {
	reader io.ReadCloser
	src    *bytes.Reader
}

var zlibReaderPool = sync.Pool{
	New: func() any {
		return &zlibReaderPoolItem{src: bytes.NewReader(nil)}
	},
}

// ZIPDecompress inflates src, which must expand to exactly expectedSize
// bytes.
func ZIPDecompress(src []byte, expectedSize int) ([]byte, error) {
	dst := make([]byte, expectedSize)
	if err := ZIPDecompressTo(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// ZIPDecompressTo inflates src into dst. The stream must fill dst exactly.
func ZIPDecompressTo(dst, src []byte) error {
	item := zlibReaderPool.Get().(*zlibReaderPoolItem)
	defer zlibReaderPool.Put(item)
	item.src.Reset(src)

	if item.reader == nil {
		r, err := zlib.NewReader(item.src)
		if err != nil {
			return ErrZIPCorrupted
		}
		item.reader = r
	} else if err := item.reader.(zlib.Resetter).Reset(item.src, nil); err != nil {
		item.reader = nil
		return ErrZIPCorrupted
	}

	if _, err := io.ReadFull(item.reader, dst); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return ErrZIPSize
		}
		return ErrZIPCorrupted
	}

	// Anything left over means the block is larger than declared.
	var probe [1]byte
	n, err := item.reader.Read(probe[:])
	if n != 0 {
		return ErrZIPSize
	}
	if err != nil && err != io.EOF {
		return ErrZIPCorrupted
	}
	return nil
}

// EncodeBlock runs the full ZIP pipeline on raw pixel bytes and returns the
// zlib stream. The caller decides whether the result is worth storing.
func EncodeBlock(pixels []byte, level CompressionLevel) ([]byte, error) {
	shuffled := interleave.Reorder(nil, pixels)
	predictor.Encode(shuffled)
	return ZIPCompressLevel(shuffled, level)
}

// DecodeBlock reverses EncodeBlock, producing exactly expectedSize raw
// pixel bytes.
func DecodeBlock(data []byte, expectedSize int) ([]byte, error) {
	inflated, err := ZIPDecompress(data, expectedSize)
	if err != nil {
		return nil, err
	}
	predictor.Decode(inflated)
	return interleave.Interleave(nil, inflated), nil
}
