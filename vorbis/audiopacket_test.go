package vorbis

import (
	"bytes"
	"testing"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// buildAudioTestFixture assembles the smallest setup/identification pair
// that exercises every stage of the audio packet grammar once: a single
// mode (so the mode selector costs zero bits), one active floor with no
// partition classes, and one residue partition backed by two
// single-entry codebooks (one classbook read, one pass-book read).
func buildAudioTestFixture(t *testing.T) (*Setup, *Identification) {
	t.Helper()

	classbook, err := NewCodebook(0, 1, []int{1}, LookupNone, LookupTable{})
	if err != nil {
		t.Fatalf("NewCodebook(classbook): %v", err)
	}
	passBook, err := NewCodebook(1, 8, []int{1}, LookupImplicitlyPopulated, LookupTable{
		Present:       true,
		ValueBits:     1,
		Multiplicands: []uint32{0},
	})
	if err != nil {
		t.Fatalf("NewCodebook(passBook): %v", err)
	}

	floor := &Floor1{Multiplier: 1, RangeBits: 4, XList: []int{0, 16}}
	residue := &Residue{
		Type:            ResidueOrdered,
		Begin:           0,
		End:             8,
		PartitionSize:   8,
		Classifications: 1,
		Classbook:       0,
		Cascade:         []int{1},
		Books:           [][]int{{1, -1, -1, -1, -1, -1, -1, -1}},
	}
	mapping := &Mapping{Submaps: 1, Mux: []int{0}, SubmapFloor: []int{0}, SubmapResidue: []int{0}}
	mode := &Mode{BlockFlag: false, Mapping: 0}

	setup := &Setup{
		Codebooks: []*Codebook{classbook, passBook},
		Floors:    []*Floor1{floor},
		Residues:  []*Residue{residue},
		Mappings:  []*Mapping{mapping},
		Modes:     []*Mode{mode},
	}
	id := &Identification{Channels: 1, SampleRate: 44100, Blocksize0: 6, Blocksize1: 6}
	return setup, id
}

// buildAudioTestPacket writes a packet matching the fixture's grammar by
// hand: packet type bit 0 (audio), floor nonzero, two 8-bit endpoints
// (the fixture's floor has Multiplier 1, so the endpoint range is 256
// and ilog(255) = 8), one classbook read, one pass-book read. Both
// codebooks have a single entry of length 1 coded as bit 0, so every
// codebook read below is just a single zero bit.
func buildAudioTestPacket(y0, y1 uint32) []byte {
	w := bitpack.NewWriter(4)
	w.WriteFlag(false)     // packet type: audio
	w.WriteFlag(true)      // floor nonzero
	w.WriteUnsigned(y0, 8) // floor endpoint 0
	w.WriteUnsigned(y1, 8) // floor endpoint 1
	w.WriteUnsigned(0, 1)  // classbook entry 0
	w.WriteUnsigned(0, 1)  // pass-book entry 0
	return w.Bytes()
}

func TestRecordAudioPacketAccumulatesUsage(t *testing.T) {
	setup, id := buildAudioTestFixture(t)
	packet := buildAudioTestPacket(5, 10)

	if err := RecordAudioPacket(packet, setup, id, 1); err != nil {
		t.Fatalf("RecordAudioPacket: %v", err)
	}

	for _, cb := range setup.Codebooks {
		if err := cb.Optimize(); err != nil {
			t.Fatalf("Optimize: %v", err)
		}
		if cb.NewLengths()[0] != 1 {
			t.Errorf("codebook %d: NewLengths()[0] = %d, want 1", cb.Index, cb.NewLengths()[0])
		}
	}
}

func TestRewriteAudioPacketPreservesFields(t *testing.T) {
	setup, id := buildAudioTestFixture(t)
	packet := buildAudioTestPacket(5, 10)

	if err := RecordAudioPacket(packet, setup, id, 1); err != nil {
		t.Fatalf("RecordAudioPacket: %v", err)
	}
	for _, cb := range setup.Codebooks {
		if err := cb.Optimize(); err != nil {
			t.Fatalf("Optimize: %v", err)
		}
	}

	out, err := RewriteAudioPacket(packet, setup, id, 1)
	if err != nil {
		t.Fatalf("RewriteAudioPacket: %v", err)
	}

	// Every codebook here has exactly one used entry, which Optimize
	// always assigns a 1-bit code, identical to the original — so the
	// rewritten packet must be bit-for-bit identical to the input.
	if !bytes.Equal(out, packet) {
		t.Errorf("RewriteAudioPacket changed a packet whose codes did not change: got %x, want %x", out, packet)
	}
}

func TestRewriteAudioPacketPassesThroughUnparseableFirstPart(t *testing.T) {
	setup, id := buildAudioTestFixture(t)
	// Add a second mode so the mode selector needs a bit no empty
	// packet can supply.
	setup.Modes = append(setup.Modes, &Mode{BlockFlag: false, Mapping: 0})

	empty := []byte{}
	out, err := RewriteAudioPacket(empty, setup, id, 1)
	if err != nil {
		t.Fatalf("RewriteAudioPacket: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d bytes, want the empty packet echoed back unchanged", len(out))
	}
}

func TestPacketBlockSize(t *testing.T) {
	setup, id := buildAudioTestFixture(t)
	packet := buildAudioTestPacket(5, 10)

	size, err := PacketBlockSize(packet, setup, id)
	if err != nil {
		t.Fatalf("PacketBlockSize: %v", err)
	}
	if size != 64 {
		t.Errorf("size = %d, want 64", size)
	}
}
