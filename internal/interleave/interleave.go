// Package interleave implements the byte shuffle applied to scanline blocks
// before prediction.
//
// Multi-byte samples tend to have similar bytes at the same position, so the
// encoder moves every even-indexed byte to the first half of the buffer and
// every odd-indexed byte to the second half:
//
//	Reorder:    [a0 a1 b0 b1 c0] -> [a0 b0 c0 | a1 b1]
//	Interleave: [a0 b0 c0 | a1 b1] -> [a0 a1 b0 b1 c0]
//
// The first half holds ceil(n/2) bytes and the second floor(n/2).
package interleave

// split returns the length of the first half for a buffer of n bytes.
func split(n int) int {
	return (n + 1) / 2
}

// Reorder scatters src into dst so that dst[i] = src[2i] and
// dst[ceil(n/2)+i] = src[2i+1]. If dst is nil or too short a new buffer is
// allocated. The result is returned.
func Reorder(dst, src []byte) []byte {
	n := len(src)
	if len(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	lo := dst[:split(n)]
	hi := dst[split(n):]
	for i := range hi {
		lo[i] = src[2*i]
		hi[i] = src[2*i+1]
	}
	if n%2 == 1 {
		lo[len(lo)-1] = src[n-1]
	}
	return dst
}

// Interleave gathers the two halves of src back into dst so that
// dst[2i] = src[i] and dst[2i+1] = src[ceil(n/2)+i]. It is the inverse of
// Reorder. If dst is nil or too short a new buffer is allocated.
func Interleave(dst, src []byte) []byte {
	n := len(src)
	if len(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	lo := src[:split(n)]
	hi := src[split(n):]
	for i := range hi {
		dst[2*i] = lo[i]
		dst[2*i+1] = hi[i]
	}
	if n%2 == 1 {
		dst[n-1] = lo[len(lo)-1]
	}
	return dst
}
