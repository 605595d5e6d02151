package predictor

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestShortInputs(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {42}} {
		enc := append([]byte(nil), data...)
		Encode(enc)
		if !bytes.Equal(enc, data) {
			t.Errorf("Encode(%v) = %v, want unchanged", data, enc)
		}
		Decode(enc)
		if !bytes.Equal(enc, data) {
			t.Errorf("Decode(%v) = %v, want unchanged", data, enc)
		}
	}
}

func TestEncodeKnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"constant", []byte{5, 5, 5, 5}, []byte{5, 128, 128, 128}},
		{"increasing", []byte{10, 11, 12, 13}, []byte{10, 129, 129, 129}},
		{"decreasing", []byte{10, 9, 8}, []byte{10, 127, 127}},
		{"wrap", []byte{255, 0, 255}, []byte{255, 129, 127}},
		{"zero", []byte{0, 0, 0}, []byte{0, 128, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]byte(nil), tt.in...)
			Encode(got)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// The reference form of the decoder, written exactly as the format defines it.
func referenceDecode(in []byte) []byte {
	out := make([]byte, len(in))
	if len(in) == 0 {
		return out
	}
	out[0] = in[0]
	for i := 1; i < len(in); i++ {
		out[i] = byte((int(out[i-1]) + int(in[i]) - 128) & 0xff)
	}
	return out
}

// The reference form of the encoder.
func referenceEncode(in []byte) []byte {
	out := make([]byte, len(in))
	if len(in) == 0 {
		return out
	}
	out[0] = in[0]
	for i := 1; i < len(in); i++ {
		out[i] = byte((int(in[i]) - int(in[i-1]) + 384) % 256)
	}
	return out
}

func TestMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{2, 3, 4, 5, 7, 8, 9, 63, 64, 65, 1000} {
		data := make([]byte, n)
		rng.Read(data)

		enc := append([]byte(nil), data...)
		Encode(enc)
		if want := referenceEncode(data); !bytes.Equal(enc, want) {
			t.Fatalf("n=%d: Encode differs from reference", n)
		}

		dec := append([]byte(nil), data...)
		Decode(dec)
		if want := referenceDecode(data); !bytes.Equal(dec, want) {
			t.Fatalf("n=%d: Decode differs from reference", n)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 0; n < 70; n++ {
		original := make([]byte, n)
		rng.Read(original)

		data := append([]byte(nil), original...)
		Encode(data)
		Decode(data)
		if !bytes.Equal(data, original) {
			t.Fatalf("n=%d: Decode(Encode(x)) != x", n)
		}

		Decode(data)
		Encode(data)
		if !bytes.Equal(data, original) {
			t.Fatalf("n=%d: Encode(Decode(x)) != x", n)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	data := make([]byte, 64*1024)
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		Decode(data)
	}
}
