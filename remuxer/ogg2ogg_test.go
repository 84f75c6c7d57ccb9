package remuxer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/optivorbis/optivorbis-go/bitpack"
	"github.com/optivorbis/optivorbis-go/container/ogg"
	"github.com/optivorbis/optivorbis-go/vorbis"
)

// buildFixtureIdentification, buildFixtureSetup, and buildFixtureAudio
// assemble the smallest possible valid Vorbis logical bitstream: one
// mode, one channel, a floor with no partition classes, and a residue
// backed by two single-entry codebooks. Every codebook here has exactly
// one used entry, which Optimize always assigns a 1-bit code identical
// to the original, so a round trip through Remux reproduces the input
// audio packet bit-for-bit.
func buildFixtureIdentification() *vorbis.Identification {
	return &vorbis.Identification{Channels: 1, SampleRate: 44100, Blocksize0: 6, Blocksize1: 6}
}

func buildFixtureSetupPacket(t *testing.T) []byte {
	t.Helper()
	w := bitpack.NewWriter(64)

	// two codebooks: a 1-dimensional classbook (no lookup table; it is
	// only ever read for its classification index, never as a residue
	// value vector) and an 8-dimensional pass book (lookup type 1, the
	// residue decode process always reads pass books as VQ vectors, so a
	// scalar codebook is rejected there)
	w.WriteUnsigned(2-1, 8)
	w.WriteUnsigned(0x564342, 24)
	w.WriteUnsigned(1, 16)
	w.WriteUnsigned(1, 24) // 1 entry
	w.WriteFlag(false)     // not ordered
	w.WriteFlag(false)     // not sparse
	w.WriteUnsigned(0, 5)  // length-1 == 0, i.e. length 1
	w.WriteUnsigned(0, 4)  // lookup type: none

	w.WriteUnsigned(0x564342, 24)
	w.WriteUnsigned(8, 16)
	w.WriteUnsigned(1, 24) // 1 entry
	w.WriteFlag(false)     // not ordered
	w.WriteFlag(false)     // not sparse
	w.WriteUnsigned(0, 5)  // length-1 == 0, i.e. length 1
	w.WriteUnsigned(1, 4)  // lookup type: implicitly populated
	w.WriteUnsigned(0, 32) // minimum
	w.WriteUnsigned(0, 32) // delta
	w.WriteUnsigned(0, 4)  // value bits - 1 == 0, i.e. 1 bit
	w.WriteFlag(false)     // sequence flag
	w.WriteUnsigned(0, 1)  // the single quantval (lookup1Values(1, 8) == 1)

	w.WriteUnsigned(0, 6)  // time count - 1 == 0
	w.WriteUnsigned(0, 16) // placeholder

	w.WriteUnsigned(0, 6)                       // floor count - 1 == 0
	w.WriteUnsigned(uint32(vorbis.FloorType1), 16)
	w.WriteUnsigned(0, 5) // 0 partitions
	w.WriteUnsigned(0, 2) // multiplier - 1 == 0
	w.WriteUnsigned(4, 4) // range bits

	w.WriteUnsigned(0, 6)                          // residue count - 1 == 0
	w.WriteUnsigned(uint32(vorbis.ResidueOrdered), 16)
	w.WriteUnsigned(0, 24) // begin
	w.WriteUnsigned(8, 24) // end
	w.WriteUnsigned(7, 24) // partition size - 1 == 7, i.e. 8
	w.WriteUnsigned(0, 6)  // classifications - 1 == 0, i.e. 1
	w.WriteUnsigned(0, 8)  // classbook index
	w.WriteUnsigned(1, 3)  // cascade low bits
	w.WriteFlag(false)     // no high cascade bits, so cascade == 1
	w.WriteUnsigned(1, 8)  // pass 0 book: the pass book, index 1

	w.WriteUnsigned(0, 6)  // mapping count - 1 == 0
	w.WriteUnsigned(0, 16) // mapping type
	w.WriteFlag(false)     // single submap
	w.WriteFlag(false)     // no square polar coupling
	w.WriteUnsigned(0, 2)  // reserved
	w.WriteUnsigned(0, 8)  // time placeholder
	w.WriteUnsigned(0, 8)  // submap floor
	w.WriteUnsigned(0, 8)  // submap residue

	w.WriteUnsigned(0, 6) // mode count - 1 == 0
	w.WriteFlag(false)    // short block
	w.WriteUnsigned(0, 16) // window type
	w.WriteUnsigned(0, 16) // transform type
	w.WriteUnsigned(0, 8)  // mapping index

	w.WriteFlag(true) // framing bit

	body := w.Bytes()
	out := make([]byte, 7+len(body))
	out[0] = byte(vorbis.PacketTypeSetupHdr)
	copy(out[1:7], []byte("vorbis"))
	copy(out[7:], body)
	return out
}

// The setup packet above declares Multiplier 1 (multiplier-1 == 0), so
// the floor endpoints below are ilog(256-1) = 8 bits wide.
func buildFixtureAudioPacket(y0, y1 uint32) []byte {
	w := bitpack.NewWriter(4)
	w.WriteFlag(false)     // packet type: audio
	w.WriteFlag(true)      // floor nonzero
	w.WriteUnsigned(y0, 8) // floor endpoint 0
	w.WriteUnsigned(y1, 8) // floor endpoint 1
	w.WriteUnsigned(0, 1)  // classbook entry 0
	w.WriteUnsigned(0, 1)  // pass-book entry 0
	return w.Bytes()
}

// buildFixtureContainer assembles one complete Ogg-encapsulated Vorbis
// logical bitstream at the given serial.
func buildFixtureContainer(t *testing.T, serial uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ogg.NewWriter(&buf)

	id := buildFixtureIdentification()
	if err := w.WritePacket(serial, vorbis.WriteIdentification(id), 0, ogg.EndPage); err != nil {
		t.Fatalf("write identification: %v", err)
	}

	comment := &vorbis.Comment{VendorString: []byte("fixture")}
	commentPacket := vorbis.WriteComment(comment, vorbis.VendorStringCopy, vorbis.CommentFieldsCopy)
	if err := w.WritePacket(serial, commentPacket, 0, ogg.EndPage); err != nil {
		t.Fatalf("write comment: %v", err)
	}

	if err := w.WritePacket(serial, buildFixtureSetupPacket(t), 0, ogg.EndPage); err != nil {
		t.Fatalf("write setup: %v", err)
	}

	if err := w.WritePacket(serial, buildFixtureAudioPacket(5, 10), 0, ogg.EndStream); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	return buf.Bytes()
}

func TestRemuxRoundTripSingleStream(t *testing.T) {
	const serial = 12345
	input := buildFixtureContainer(t, serial)

	settings := DefaultSettings()
	settings.RandomizeStreamSerials = false
	settings.VendorStringAction = vorbis.VendorStringCopy

	var out bytes.Buffer
	if err := Remux(context.Background(), bytes.NewReader(input), &out, settings); err != nil {
		t.Fatalf("Remux: %v", err)
	}

	r := ogg.NewReader(bytes.NewReader(out.Bytes()))

	idPkt, err := r.NextPacket()
	if err != nil {
		t.Fatalf("reading identification packet: %v", err)
	}
	if !idPkt.BOS {
		t.Error("identification packet should be marked BOS")
	}
	if idPkt.Serial != serial {
		t.Errorf("serial = %d, want %d (RandomizeStreamSerials is off with a zero offset)", idPkt.Serial, serial)
	}
	id, err := vorbis.ParseIdentification(idPkt.Data)
	if err != nil {
		t.Fatalf("ParseIdentification: %v", err)
	}
	if id.Channels != 1 || id.SampleRate != 44100 {
		t.Errorf("identification = %+v", id)
	}

	commentPkt, err := r.NextPacket()
	if err != nil {
		t.Fatalf("reading comment packet: %v", err)
	}
	comment, err := vorbis.ParseComment(commentPkt.Data, zap.NewNop())
	if err != nil {
		t.Fatalf("ParseComment: %v", err)
	}
	if string(comment.VendorString) != "fixture" {
		t.Errorf("vendor string = %q, want %q", comment.VendorString, "fixture")
	}

	setupPkt, err := r.NextPacket()
	if err != nil {
		t.Fatalf("reading setup packet: %v", err)
	}
	setup, err := vorbis.ParseSetup(setupPkt.Data, 1)
	if err != nil {
		t.Fatalf("ParseSetup: %v", err)
	}
	if len(setup.Codebooks) != 2 {
		t.Fatalf("got %d codebooks, want 2", len(setup.Codebooks))
	}
	for i, cb := range setup.Codebooks {
		if len(cb.Lengths) != 1 || cb.Lengths[0] != 1 {
			t.Errorf("codebook %d lengths = %v, want [1]", i, cb.Lengths)
		}
	}

	audioPkt, err := r.NextPacket()
	if err != nil {
		t.Fatalf("reading audio packet: %v", err)
	}
	if !audioPkt.EOS {
		t.Error("audio packet should be the stream's final, EOS-tagged packet")
	}
	if !bytes.Equal(audioPkt.Data, buildFixtureAudioPacket(5, 10)) {
		t.Errorf("audio packet changed despite codewords not changing: got %x", audioPkt.Data)
	}
}

func TestRemuxEmptyInputReturnsErrNoVorbisStreams(t *testing.T) {
	settings := DefaultSettings()
	var out bytes.Buffer
	err := Remux(context.Background(), bytes.NewReader(nil), &out, settings)
	if !errors.Is(err, ErrNoVorbisStreams) {
		t.Fatalf("Remux = %v, want ErrNoVorbisStreams", err)
	}
}

func TestRemuxEmptyInputSucceedsWhenNotRequired(t *testing.T) {
	settings := DefaultSettings()
	settings.ErrorOnNoVorbisStreams = false
	var out bytes.Buffer
	if err := Remux(context.Background(), bytes.NewReader(nil), &out, settings); err != nil {
		t.Fatalf("Remux: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("got %d bytes of output, want none", out.Len())
	}
}

func TestRemuxRejectsConcurrentMultiplexing(t *testing.T) {
	var buf bytes.Buffer
	w := ogg.NewWriter(&buf)

	id := buildFixtureIdentification()
	if err := w.WritePacket(1, vorbis.WriteIdentification(id), 0, ogg.EndPage); err != nil {
		t.Fatalf("write stream 1 identification: %v", err)
	}
	// A second BOS page arrives before stream 1 closes: concurrently
	// multiplexed logical bitstreams are unsupported.
	if err := w.WritePacket(2, []byte("not vorbis"), 0, ogg.EndPage); err != nil {
		t.Fatalf("write stream 2 identification: %v", err)
	}

	settings := DefaultSettings()
	var out bytes.Buffer
	err := Remux(context.Background(), bytes.NewReader(buf.Bytes()), &out, settings)
	if !errors.Is(err, ErrUnsupportedStreamMultiplexing) {
		t.Fatalf("Remux = %v, want ErrUnsupportedStreamMultiplexing", err)
	}
}

func TestNewSerialSourceDeterministicFromSourceDateEpoch(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "1700000000")

	a, err := newSerialSource()
	if err != nil {
		t.Fatalf("newSerialSource: %v", err)
	}
	b, err := newSerialSource()
	if err != nil {
		t.Fatalf("newSerialSource: %v", err)
	}
	if a.Uint64() != b.Uint64() {
		t.Error("two ChaCha8 streams seeded from the same SOURCE_DATE_EPOCH should draw identical values")
	}
}

func TestNewSerialSourceRejectsMalformedSourceDateEpoch(t *testing.T) {
	t.Setenv("SOURCE_DATE_EPOCH", "not-a-number")

	_, err := newSerialSource()
	var epochErr *InvalidSourceDateEpochError
	if !errors.As(err, &epochErr) {
		t.Fatalf("newSerialSource error = %v, want *InvalidSourceDateEpochError", err)
	}
}

func TestNewSerialSourceFallsBackToCryptoRand(t *testing.T) {
	os.Unsetenv("SOURCE_DATE_EPOCH")
	if _, err := newSerialSource(); err != nil {
		t.Fatalf("newSerialSource: %v", err)
	}
}
