package vorbis

import (
	"encoding/binary"
)

// vorbisMagic is the 6-byte "vorbis" signature following every header
// packet's leading type byte.
var vorbisMagic = [6]byte{'v', 'o', 'r', 'b', 'i', 's'}

// identificationHeaderSize is the fixed byte length of a well-formed
// identification header packet: 1 type byte + 6 magic + 4 version +
// 1 channels + 4 sample rate + 4*3 bitrates + 1 blocksize byte +
// 1 framing byte = 30.
const identificationHeaderSize = 30

// Identification is the parsed contents of a Vorbis identification
// header (packet type 1), the first packet of every logical bitstream.
type Identification struct {
	VorbisVersion   uint32
	Channels        uint8
	SampleRate      uint32
	BitrateMaximum  int32
	BitrateNominal  int32
	BitrateMinimum  int32
	Blocksize0      uint8 // log2(blocksize)
	Blocksize1      uint8
	FramingWasClear bool // the original packet's framing bit was clear; fixed on rewrite
}

// ParseIdentification parses a raw identification header packet.
// Trailing bytes beyond the fixed 30-byte body are ignored (and
// dropped on rewrite, see WriteIdentification).
func ParseIdentification(packet []byte) (*Identification, error) {
	if len(packet) < identificationHeaderSize-1 {
		return nil, &HeaderMalformedError{Header: "identification", Reason: "packet too short"}
	}
	if PacketType(packet[0]) != PacketTypeIdentificationHdr {
		return nil, &UnexpectedPacketTypeError{Expected: PacketTypeIdentificationHdr, Actual: PacketType(packet[0])}
	}
	if string(packet[1:7]) != string(vorbisMagic[:]) {
		return nil, &HeaderMalformedError{Header: "identification", Reason: "missing vorbis magic"}
	}

	id := &Identification{
		VorbisVersion:  binary.LittleEndian.Uint32(packet[7:11]),
		Channels:       packet[11],
		SampleRate:     binary.LittleEndian.Uint32(packet[12:16]),
		BitrateMaximum: int32(binary.LittleEndian.Uint32(packet[16:20])),
		BitrateNominal: int32(binary.LittleEndian.Uint32(packet[20:24])),
		BitrateMinimum: int32(binary.LittleEndian.Uint32(packet[24:28])),
		Blocksize0:     packet[28] & 0x0F,
		Blocksize1:     packet[28] >> 4,
	}
	if id.VorbisVersion != 0 {
		return nil, &HeaderMalformedError{Header: "identification", Reason: "vorbis_version must be 0"}
	}
	if id.Channels == 0 {
		return nil, &HeaderMalformedError{Header: "identification", Reason: "audio_channels must be nonzero"}
	}
	if id.SampleRate == 0 {
		return nil, &HeaderMalformedError{Header: "identification", Reason: "audio_sample_rate must be nonzero"}
	}
	if !validBlocksize(id.Blocksize0) || !validBlocksize(id.Blocksize1) || id.Blocksize0 > id.Blocksize1 {
		return nil, &HeaderMalformedError{Header: "identification", Reason: "invalid blocksize pair"}
	}
	if len(packet) >= identificationHeaderSize {
		id.FramingWasClear = packet[29]&1 == 0
	} else {
		id.FramingWasClear = true
	}
	return id, nil
}

// validBlocksize reports whether log2size names a power of two in [64,8192].
func validBlocksize(log2size uint8) bool {
	return log2size >= 6 && log2size <= 13
}

// WriteIdentification re-serializes id as the 30-byte identification
// header body, forcing the framing bit set and truncating away any
// padding the original packet may have carried beyond byte 29 — the
// reference implementation's identification_header_copy behavior.
func WriteIdentification(id *Identification) []byte {
	out := make([]byte, identificationHeaderSize)
	out[0] = byte(PacketTypeIdentificationHdr)
	copy(out[1:7], vorbisMagic[:])
	binary.LittleEndian.PutUint32(out[7:11], id.VorbisVersion)
	out[11] = id.Channels
	binary.LittleEndian.PutUint32(out[12:16], id.SampleRate)
	binary.LittleEndian.PutUint32(out[16:20], uint32(id.BitrateMaximum))
	binary.LittleEndian.PutUint32(out[20:24], uint32(id.BitrateNominal))
	binary.LittleEndian.PutUint32(out[24:28], uint32(id.BitrateMinimum))
	out[28] = id.Blocksize0 | (id.Blocksize1 << 4)
	out[29] = 1 // framing bit: always forced set on rewrite
	return out
}
