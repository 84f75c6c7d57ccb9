package bitpack

import (
	"bytes"
	"testing"
)

func TestRoundTripUnsigned(t *testing.T) {
	cases := []struct {
		value uint32
		width uint
	}{
		{0, 0},
		{1, 1},
		{0x7F, 7},
		{0xFFFFFFFF, 32},
		{12345, 17},
	}
	w := NewWriter(8)
	for _, c := range cases {
		w.WriteUnsigned(c.value, c.width)
	}
	r := NewReader(w.Bytes())
	for _, c := range cases {
		got, err := r.ReadUnsigned(c.width)
		if err != nil {
			t.Fatalf("ReadUnsigned(%d): %v", c.width, err)
		}
		want := c.value
		if c.width < 32 {
			want &= (1 << c.width) - 1
		}
		if got != want {
			t.Errorf("ReadUnsigned(%d) = %d, want %d", c.width, got, want)
		}
	}
}

func TestSpecExampleVector(t *testing.T) {
	w := NewWriter(4)
	neg1 := int32(-1)
	w.WriteUnsigned(uint32(int32(12)), 4)
	w.WriteUnsigned(uint32(neg1), 3)
	w.WriteUnsigned(uint32(int32(17)), 7)
	w.WriteUnsigned(uint32(int32(6969)), 13)
	got := w.Bytes()
	want := []byte{0xFC, 0x48, 0xCE, 0x06}
	if !bytes.Equal(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestReadPastEndFails(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadUnsigned(8); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := r.ReadUnsigned(1); err != ErrEOF {
		t.Fatalf("expected ErrEOF, got %v", err)
	}
	if !r.AtEOF() {
		t.Errorf("AtEOF() = false after overflow")
	}
}

func TestSignedRoundTrip(t *testing.T) {
	w := NewWriter(4)
	w.WriteSigned(-5, 4)
	w.WriteSigned(5, 4)
	r := NewReader(w.Bytes())
	got, err := r.ReadSigned(4)
	if err != nil || got != -5 {
		t.Errorf("ReadSigned(4) = %d, %v, want -5, nil", got, err)
	}
	got, err = r.ReadSigned(4)
	if err != nil || got != 5 {
		t.Errorf("ReadSigned(4) = %d, %v, want 5, nil", got, err)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	packed := EncodeFloat32(true, 1<<20, 0)
	w := NewWriter(4)
	w.WriteFloat32(packed)
	r := NewReader(w.Bytes())
	got, err := r.ReadFloat32()
	if err != nil {
		t.Fatalf("ReadFloat32: %v", err)
	}
	neg, _, exp := DecodeFloat32(got)
	if !neg || exp != 0 {
		t.Errorf("DecodeFloat32 = neg=%v exp=%d, want neg=true exp=0", neg, exp)
	}
}

func TestBitLenMatchesWrittenWidths(t *testing.T) {
	w := NewWriter(4)
	widths := []uint{4, 3, 7, 13}
	total := uint(0)
	for _, width := range widths {
		w.WriteUnsigned(0, width)
		total += width
	}
	if w.BitLen() != int(total) {
		t.Errorf("BitLen() = %d, want %d", w.BitLen(), total)
	}
	wantBytes := (int(total) + 7) / 8
	if len(w.Bytes()) != wantBytes {
		t.Errorf("len(Bytes()) = %d, want %d", len(w.Bytes()), wantBytes)
	}
}
