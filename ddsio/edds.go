package ddsio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const (
	// BlockMagicCOPY marks an uncompressed block.
	BlockMagicCOPY = "COPY"
	// BlockMagicLZ4 marks an LZ4 chunk-stream block.
	BlockMagicLZ4 = "LZ4 "

	// ChunkSize is the largest uncompressed size of one LZ4 chunk, and the
	// size of the rolling dictionary.
	ChunkSize = 64 * 1024

	// lastChunk flags the final chunk of a stream.
	lastChunk = 0x80
)

// mipBlock is one block table entry and its body.
type mipBlock struct {
	magic string
	// body is the stored payload: raw pixels for COPY, or the uncompressed
	// size followed by the chunk stream for LZ4.
	body []byte
}

// newBlock stores data as LZ4 when compress is set and the stream saves at
// least 15%, otherwise as COPY.
func newBlock(data []byte, compress bool) (*mipBlock, error) {
	if !compress || len(data) < 1024 {
		return &mipBlock{magic: BlockMagicCOPY, body: data}, nil
	}
	stream, ok, err := compressLZ4(data)
	if err != nil {
		return nil, err
	}
	if !ok || float64(4+len(stream)) > float64(len(data))*0.85 {
		return &mipBlock{magic: BlockMagicCOPY, body: data}, nil
	}
	body := make([]byte, 4, 4+len(stream))
	binary.LittleEndian.PutUint32(body, uint32(len(data)))
	return &mipBlock{magic: BlockMagicLZ4, body: append(body, stream...)}, nil
}

func (b *mipBlock) writeBody(buf *bytes.Buffer) {
	buf.Write(b.body)
}

// writeBlockTable writes one (magic, size) entry per block. Blocks must be
// ordered smallest mipmap first.
func writeBlockTable(buf *bytes.Buffer, blocks []*mipBlock) {
	var size [4]byte
	for _, b := range blocks {
		buf.WriteString(b.magic)
		binary.LittleEndian.PutUint32(size[:], uint32(len(b.body)))
		buf.Write(size[:])
	}
}

type blockEntry struct {
	magic string
	size  int
}

// parseBlockTable reports whether body starts with a block table of n
// entries whose sizes account for exactly the rest of body.
func parseBlockTable(body []byte, n int) ([]blockEntry, bool) {
	if n <= 0 || len(body) < 8*n {
		return nil, false
	}
	table := make([]blockEntry, n)
	total := 8 * n
	for i := range table {
		entry := body[8*i:]
		magic := string(entry[:4])
		if magic != BlockMagicCOPY && magic != BlockMagicLZ4 {
			return nil, false
		}
		size := int32(binary.LittleEndian.Uint32(entry[4:]))
		if size < 0 {
			return nil, false
		}
		table[i] = blockEntry{magic: magic, size: int(size)}
		total += int(size)
	}
	if total != len(body) {
		return nil, false
	}
	return table, true
}

// readLargestBlock decodes the last block in the table, which holds mip 0.
func readLargestBlock(body []byte, table []blockEntry, expected int) ([]byte, error) {
	off := 8 * len(table)
	for _, e := range table[:len(table)-1] {
		off += e.size
	}
	last := table[len(table)-1]
	data := body[off : off+last.size]

	if last.magic == BlockMagicCOPY {
		if len(data) != expected {
			return nil, fmt.Errorf("%w: COPY block has %d bytes, want %d", ErrBlockTable, len(data), expected)
		}
		return data, nil
	}

	if len(data) < 4 {
		return nil, fmt.Errorf("%w: LZ4 block of %d bytes", ErrLZ4, len(data))
	}
	if size := int(binary.LittleEndian.Uint32(data)); size != expected {
		return nil, fmt.Errorf("%w: LZ4 block holds %d bytes, want %d", ErrBlockTable, size, expected)
	}
	// LZ4 cannot expand a chunk more than 255 times.
	if expected > 255*len(data) {
		return nil, fmt.Errorf("%w: %d bytes cannot expand to %d", ErrLZ4, len(data), expected)
	}
	return decompressLZ4(data[4:], expected)
}

// compressLZ4 compresses data as independent chunks of up to ChunkSize
// bytes, each prefixed by a 3-byte size and a flag byte. The second result
// is false when a chunk does not compress.
func compressLZ4(data []byte) ([]byte, bool, error) {
	var stream bytes.Buffer
	compressBuf := make([]byte, lz4.CompressBlockBound(ChunkSize))

	for i := 0; i < len(data); i += ChunkSize {
		end := min(i+ChunkSize, len(data))
		cn, err := lz4.CompressBlockHC(data[i:end], compressBuf, 0, nil, nil)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrLZ4, err)
		}
		if cn == 0 {
			return nil, false, nil
		}

		flags := byte(0)
		if end == len(data) {
			flags = lastChunk
		}
		stream.Write([]byte{byte(cn), byte(cn >> 8), byte(cn >> 16), flags})
		stream.Write(compressBuf[:cn])
	}
	return stream.Bytes(), true, nil
}

// decompressLZ4 decodes a chunk stream into exactly targetSize bytes. Each
// chunk may reference the previous ChunkSize bytes of output.
func decompressLZ4(data []byte, targetSize int) ([]byte, error) {
	target := make([]byte, targetSize)
	outIdx := 0

	for {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: truncated chunk header", ErrLZ4)
		}
		cSize := int(data[0]) | int(data[1])<<8 | int(data[2])<<16
		flags := data[3]
		data = data[4:]
		if flags&^lastChunk != 0 {
			return nil, fmt.Errorf("%w: unknown flags 0x%02x", ErrLZ4, flags)
		}
		if cSize <= 0 || cSize > len(data) {
			return nil, fmt.Errorf("%w: chunk size %d (remaining %d)", ErrLZ4, cSize, len(data))
		}

		remaining := targetSize - outIdx
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: output overrun", ErrLZ4)
		}
		want := min(ChunkSize, remaining)
		dictStart := max(0, outIdx-ChunkSize)

		n, err := lz4.UncompressBlockWithDict(data[:cSize], target[outIdx:outIdx+want], target[dictStart:outIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4, err)
		}
		outIdx += n
		data = data[cSize:]

		if flags&lastChunk != 0 {
			break
		}
	}

	if outIdx != targetSize {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d", ErrLZ4, outIdx, targetSize)
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%w: %d bytes after last chunk", ErrLZ4, len(data))
	}
	return target, nil
}
