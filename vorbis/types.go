// Package vorbis models the Vorbis I bitstream: its three header
// packets, the codebook/floor/residue/mapping/mode structures they
// describe, and the audio packets those structures decode.
package vorbis

import "fmt"

// PacketType identifies the role of a Vorbis packet within its logical
// bitstream. Header packets carry a leading type byte with the low bit
// set; audio packets do not carry a type byte at all — their first bit,
// the packet type bit, is cleared, and the mode selector follows it.
type PacketType byte

const (
	PacketTypeAudio             PacketType = 0
	PacketTypeIdentificationHdr PacketType = 1
	PacketTypeCommentHdr        PacketType = 3
	PacketTypeSetupHdr          PacketType = 5
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeAudio:
		return "audio"
	case PacketTypeIdentificationHdr:
		return "identification header"
	case PacketTypeCommentHdr:
		return "comment header"
	case PacketTypeSetupHdr:
		return "setup header"
	default:
		return fmt.Sprintf("unknown packet type %d", byte(t))
	}
}

// ParsePacketType validates a header packet's leading type byte,
// returning an UnexpectedPacketTypeError if it does not name one of
// the three known header types.
func ParsePacketType(b byte, expected PacketType) (PacketType, error) {
	t := PacketType(b)
	switch t {
	case PacketTypeIdentificationHdr, PacketTypeCommentHdr, PacketTypeSetupHdr:
		if t != expected {
			return 0, &UnexpectedPacketTypeError{Expected: expected, Actual: t}
		}
		return t, nil
	default:
		return 0, &UnexpectedPacketTypeError{Expected: expected, Actual: t}
	}
}

// VectorLookupType selects how a codebook's VQ lookup table values are
// derived from its header-declared minimum, delta, and multiplicand
// entries.
type VectorLookupType byte

const (
	LookupNone                 VectorLookupType = 0
	LookupImplicitlyPopulated  VectorLookupType = 1
	LookupExplicitlyPopulated  VectorLookupType = 2
)

// ParseVectorLookupType validates a 4-bit lookup type field.
func ParseVectorLookupType(v uint32) (VectorLookupType, error) {
	switch VectorLookupType(v) {
	case LookupNone, LookupImplicitlyPopulated, LookupExplicitlyPopulated:
		return VectorLookupType(v), nil
	default:
		return 0, &UnsupportedFeatureError{Feature: fmt.Sprintf("codebook lookup type %d", v)}
	}
}

// ResidueType selects the residue decode algorithm; type 2 is reduced
// to a type-1 decode over a single wide interleaved vector (see
// transcodeResidue).
type ResidueType byte

const (
	ResidueOrdered            ResidueType = 0
	ResidueInterleaved        ResidueType = 1
	ResidueInterleavedVectors ResidueType = 2
)

// ParseResidueType validates a 16-bit residue type field.
func ParseResidueType(v uint32) (ResidueType, error) {
	switch ResidueType(v) {
	case ResidueOrdered, ResidueInterleaved, ResidueInterleavedVectors:
		return ResidueType(v), nil
	default:
		return 0, &UnsupportedFeatureError{Feature: fmt.Sprintf("residue type %d", v)}
	}
}

// FloorType selects the floor curve algorithm. Floor type 0 is
// deliberately unsupported (see UnsupportedFeatureError).
type FloorType byte

const (
	FloorType0 FloorType = 0
	FloorType1 FloorType = 1
)

// ParseFloorType validates a 16-bit floor type field, rejecting type 0.
func ParseFloorType(v uint32) (FloorType, error) {
	switch FloorType(v) {
	case FloorType1:
		return FloorType1, nil
	case FloorType0:
		return 0, &UnsupportedFeatureError{Feature: "floor type 0"}
	default:
		return 0, &UnsupportedFeatureError{Feature: fmt.Sprintf("floor type %d", v)}
	}
}
