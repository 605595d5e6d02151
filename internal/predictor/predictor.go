// Package predictor implements the byte predictor applied to scanline
// blocks before deflate.
//
// Each byte after the first is replaced by its difference from the previous
// byte, offset by 128 so that small positive and negative steps both land
// near the middle of the byte range. All arithmetic wraps modulo 256.
package predictor

// Encode applies the predictor in place:
//
//	out[0] = in[0]
//	out[i] = in[i] - in[i-1] + 128 (mod 256)
//
// Deltas are taken against the original previous byte, so the loop runs
// from the end towards the start.
func Encode(data []byte) {
	for i := len(data) - 1; i >= 1; i-- {
		data[i] = data[i] - data[i-1] + 128
	}
}

// Decode reverses Encode in place:
//
//	out[0] = in[0]
//	out[i] = out[i-1] + in[i] - 128 (mod 256)
func Decode(data []byte) {
	n := len(data)
	if n < 2 {
		return
	}

	prev := data[0]
	i := 1
	// Unrolled by four; the running sum is the only dependency.
	for ; i+3 < n; i += 4 {
		prev += data[i] - 128
		data[i] = prev
		prev += data[i+1] - 128
		data[i+1] = prev
		prev += data[i+2] - 128
		data[i+2] = prev
		prev += data[i+3] - 128
		data[i+3] = prev
	}
	for ; i < n; i++ {
		prev += data[i] - 128
		data[i] = prev
	}
}
