package ogg

import (
	"bytes"
	"io"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	const serialA, serialB = 111, 222
	if err := w.WritePacket(serialA, []byte("identification-a"), 0, EndPage); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if err := w.WritePacket(serialB, []byte("identification-b"), 0, EndPage); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if err := w.WritePacket(serialA, []byte("audio-a-1"), 64, ContinuePage); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if err := w.WritePacket(serialA, []byte("audio-a-2"), 128, EndStream); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if err := w.WritePacket(serialB, []byte("audio-b-1"), 96, EndStream); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r := NewReader(&buf)
	var got []Packet
	for {
		pkt, err := r.NextPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPacket: %v", err)
		}
		got = append(got, pkt)
	}

	if len(got) != 5 {
		t.Fatalf("got %d packets, want 5: %+v", len(got), got)
	}
	if string(got[0].Data) != "identification-a" || !got[0].BOS {
		t.Errorf("packet 0 = %+v", got[0])
	}
	if string(got[1].Data) != "identification-b" || !got[1].BOS {
		t.Errorf("packet 1 = %+v", got[1])
	}
	last := got[len(got)-1]
	if !bytes.Contains([]byte(string(last.Data)), []byte("audio-b-1")) {
		t.Errorf("last packet = %+v", last)
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WritePacket(1, []byte("x"), 0, EndPage); err != ErrUnexpectedEOS {
		t.Errorf("WritePacket after Close() = %v, want ErrUnexpectedEOS", err)
	}
}
