package ogg

import "testing"

func TestBuildAndParseSegmentTable(t *testing.T) {
	cases := []int{0, 1, 254, 255, 256, 510, 600}
	for _, packetLen := range cases {
		table := BuildSegmentTable(packetLen)
		lengths := ParseSegmentTable(table)
		if packetLen == 0 {
			if len(lengths) != 1 || lengths[0] != 0 {
				t.Errorf("packetLen=0: lengths=%v", lengths)
			}
			continue
		}
		if len(lengths) != 1 || lengths[0] != packetLen {
			t.Errorf("packetLen=%d: lengths=%v", packetLen, lengths)
		}
	}
}

func Test600ByteSegmentLayout(t *testing.T) {
	table := BuildSegmentTable(600)
	want := []byte{255, 255, 90}
	if len(table) != len(want) {
		t.Fatalf("len(table) = %d, want %d", len(table), len(want))
	}
	for i := range want {
		if table[i] != want[i] {
			t.Errorf("table[%d] = %d, want %d", i, table[i], want[i])
		}
	}
}

func TestPageEncodeParseRoundTrip(t *testing.T) {
	p := &Page{
		Version:      0,
		HeaderType:   PageFlagBOS,
		GranulePos:   0,
		SerialNumber: 0xDEADBEEF,
		PageSequence: 0,
		Segments:     BuildSegmentTable(30),
		Payload:      make([]byte, 30),
	}
	for i := range p.Payload {
		p.Payload[i] = byte(i)
	}
	encoded := p.Encode()
	got, consumed, err := ParsePage(encoded)
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if consumed != len(encoded) {
		t.Errorf("consumed = %d, want %d", consumed, len(encoded))
	}
	if got.SerialNumber != p.SerialNumber || !got.IsBOS() {
		t.Errorf("got = %+v", got)
	}
}

func TestParsePageDetectsBadCRC(t *testing.T) {
	p := &Page{
		SerialNumber: 1,
		Segments:     []byte{1},
		Payload:      []byte{0x42},
	}
	encoded := p.Encode()
	encoded[len(encoded)-1] ^= 0xFF // corrupt the lone payload byte
	encoded[22] ^= 0xFF             // corrupt the stored CRC directly
	if _, _, err := ParsePage(encoded); err != ErrBadCRC {
		t.Errorf("ParsePage() error = %v, want ErrBadCRC", err)
	}
}

func TestMinimalEmptyPageCRC(t *testing.T) {
	p := &Page{Segments: []byte{0}}
	encoded := p.Encode()
	got, _, err := ParsePage(encoded)
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	if got.GranulePos != 0 || got.SerialNumber != 0 {
		t.Errorf("got = %+v", got)
	}
}

func TestParsePageRejectsBadMagic(t *testing.T) {
	data := make([]byte, pageHeaderSize+1)
	copy(data, "XoggS")
	if _, _, err := ParsePage(data); err != ErrInvalidPage {
		t.Errorf("ParsePage() error = %v, want ErrInvalidPage", err)
	}
}

func TestParsePageRejectsTruncation(t *testing.T) {
	p := &Page{SerialNumber: 1, Segments: BuildSegmentTable(10), Payload: make([]byte, 10)}
	encoded := p.Encode()
	if _, _, err := ParsePage(encoded[:len(encoded)-3]); err != ErrTruncatedPage {
		t.Errorf("ParsePage() error = %v, want ErrTruncatedPage", err)
	}
}
