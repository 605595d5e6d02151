package exr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mrjoshuak/go-texexr/internal/xdr"
)

func TestBox2i(t *testing.T) {
	b := Box2i{
		Min: V2i{0, 0},
		Max: V2i{99, 49},
	}

	if w := b.Width(); w != 100 {
		t.Errorf("Width() = %d, want 100", w)
	}
	if h := b.Height(); h != 50 {
		t.Errorf("Height() = %d, want 50", h)
	}
	if b.IsEmpty() {
		t.Error("IsEmpty() should be false")
	}

	empty := Box2i{Min: V2i{10, 10}, Max: V2i{5, 5}}
	if !empty.IsEmpty() {
		t.Error("IsEmpty() should be true for inverted box")
	}
}

func TestBox2f(t *testing.T) {
	b := Box2f{
		Min: V2f{0.0, 0.0},
		Max: V2f{1.0, 2.0},
	}

	if w := b.Width(); w != 1.0 {
		t.Errorf("Width() = %f, want 1.0", w)
	}
	if h := b.Height(); h != 2.0 {
		t.Errorf("Height() = %f, want 2.0", h)
	}
	if b.IsEmpty() {
		t.Error("IsEmpty() should be false")
	}
}

func TestBox2iLayout(t *testing.T) {
	w := xdr.NewBufferWriter(20)
	WriteBox2i(w, Box2i{Min: V2i{1, 2}, Max: V2i{3, -1}})

	want := []byte{
		16, 0, 0, 0,
		1, 0, 0, 0,
		2, 0, 0, 0,
		3, 0, 0, 0,
		0xff, 0xff, 0xff, 0xff,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("WriteBox2i = %v, want %v", w.Bytes(), want)
	}
}

func TestBoxRoundTrip(t *testing.T) {
	bi := Box2i{Min: V2i{-5, 7}, Max: V2i{1023, 511}}
	bf := Box2f{Min: V2f{-0.5, 0.25}, Max: V2f{1.5, 2}}

	w := xdr.NewBufferWriter(40)
	WriteBox2i(w, bi)
	WriteBox2f(w, bf)

	r := xdr.NewReader(w.Bytes())
	gotI, err := ReadBox2i(r)
	if err != nil {
		t.Fatalf("ReadBox2i: %v", err)
	}
	gotF, err := ReadBox2f(r)
	if err != nil {
		t.Fatalf("ReadBox2f: %v", err)
	}
	if gotI != bi {
		t.Errorf("Box2i = %+v, want %+v", gotI, bi)
	}
	if gotF != bf {
		t.Errorf("Box2f = %+v, want %+v", gotF, bf)
	}
	if r.Len() != 0 {
		t.Errorf("%d bytes left over", r.Len())
	}
}

func TestBoxBadSize(t *testing.T) {
	w := xdr.NewBufferWriter(20)
	w.WriteUint32(12)
	w.WriteZeros(16)

	if _, err := ReadBox2i(xdr.NewReader(w.Bytes())); !errors.Is(err, ErrUnsupportedContainer) {
		t.Errorf("ReadBox2i error = %v, want ErrUnsupportedContainer", err)
	}
	if _, err := ReadBox2f(xdr.NewReader(w.Bytes()[:8])); err == nil {
		t.Error("ReadBox2f on short data should fail")
	}
}
