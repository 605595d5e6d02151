// Package half provides the IEEE 754 binary16 type used for HALF channel
// samples.
//
// Layout: 1 sign bit, 5 exponent bits (bias 15), 10 mantissa bits. Every
// finite half value is exactly representable as a float32, so widening is
// lossless and narrowing rounds to nearest even.
package half

import (
	"math"
	"strconv"
)

// Half is a binary16 value stored as its raw bits.
type Half uint16

const (
	signMask     = 0x8000
	exponentMask = 0x7C00
	mantissaMask = 0x03FF
)

// Special values.
const (
	Zero    Half = 0x0000
	NegZero Half = 0x8000
	One     Half = 0x3C00
	Inf     Half = 0x7C00
	NegInf  Half = 0xFC00
	NaN     Half = 0x7E00
	Max     Half = 0x7BFF // 65504
)

// FromBits returns the Half with the given bit pattern.
func FromBits(bits uint16) Half {
	return Half(bits)
}

// Bits returns the raw bit pattern.
func (h Half) Bits() uint16 {
	return uint16(h)
}

// IsNaN reports whether h is a NaN.
func (h Half) IsNaN() bool {
	return h&exponentMask == exponentMask && h&mantissaMask != 0
}

// IsInf reports whether h is positive or negative infinity.
func (h Half) IsInf() bool {
	return h&^signMask == Inf
}

// Float32 widens h to float32 without loss.
func (h Half) Float32() float32 {
	sign := uint32(h&signMask) << 16
	exp := uint32(h&exponentMask) >> 10
	mant := uint32(h & mantissaMask)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: shift until the implicit bit appears.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= mantissaMask
		return math.Float32frombits(sign | e<<23 | mant<<13)
	case 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
	}
}

// FromFloat32 narrows f to a Half, rounding to nearest even. Values beyond
// the half range become infinities; NaN payloads keep their top bits.
func FromFloat32(f float32) Half {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & signMask
	exp := int32(bits>>23) & 0xFF
	mant := bits & 0x007FFFFF

	if exp == 0xFF {
		if mant == 0 {
			return Half(sign | exponentMask)
		}
		m := uint16(mant >> 13)
		if m == 0 {
			m = 0x200
		}
		return Half(sign | exponentMask | m)
	}

	e := exp - 127 + 15
	switch {
	case e >= 0x1F:
		return Half(sign | exponentMask)
	case e <= 0:
		if e < -10 {
			return Half(sign)
		}
		// Subnormal result; include the implicit bit before shifting.
		mant |= 0x00800000
		shift := uint32(14 - e)
		h := mant >> shift
		rem := mant & (1<<shift - 1)
		halfway := uint32(1) << (shift - 1)
		if rem > halfway || (rem == halfway && h&1 == 1) {
			h++
		}
		return Half(sign | uint16(h))
	}

	h := uint32(e)<<10 | mant>>13
	rem := mant & 0x1FFF
	if rem > 0x1000 || (rem == 0x1000 && h&1 == 1) {
		// A mantissa carry rolls into the exponent, and into Inf at the top.
		h++
	}
	return Half(sign | uint16(h))
}

// String formats h as its float32 value.
func (h Half) String() string {
	return strconv.FormatFloat(float64(h.Float32()), 'g', -1, 32)
}
