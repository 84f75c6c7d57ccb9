package remuxer

import (
	"errors"
	"fmt"
)

// ErrNoVorbisStreams indicates the source container held no Vorbis
// logical bitstream. Remux returns it only when
// Settings.ErrorOnNoVorbisStreams is true (the default).
var ErrNoVorbisStreams = errors.New("remuxer: no vorbis logical bitstream found")

// ErrUnsupportedStreamMultiplexing indicates the container grouped
// (concurrently interleaved) logical bitstreams: one began while a
// Vorbis logical bitstream was still open. Only chained (strictly
// sequential) Vorbis bitstreams are supported; a logical bitstream
// that is not Vorbis is skipped rather than reported with this error.
var ErrUnsupportedStreamMultiplexing = errors.New("remuxer: concurrently multiplexed logical bitstreams")

// OggError wraps a failure from the underlying Ogg container layer
// with the logical bitstream serial it occurred on, when known.
type OggError struct {
	Serial uint32
	Err    error
}

func (e *OggError) Error() string {
	if e.Serial == 0 {
		return fmt.Sprintf("remuxer: ogg container error: %v", e.Err)
	}
	return fmt.Sprintf("remuxer: ogg container error on serial %d: %v", e.Serial, e.Err)
}

func (e *OggError) Unwrap() error { return e.Err }

// VorbisError wraps a failure from the Vorbis bitstream layer with the
// logical bitstream serial and, where applicable, the audio packet
// index it occurred on.
type VorbisError struct {
	Serial      uint32
	PacketIndex int
	Err         error
}

func (e *VorbisError) Error() string {
	return fmt.Sprintf("remuxer: vorbis error on serial %d packet %d: %v", e.Serial, e.PacketIndex, e.Err)
}

func (e *VorbisError) Unwrap() error { return e.Err }

// InvalidSourceDateEpochError indicates the SOURCE_DATE_EPOCH
// environment variable, used to seed deterministic stream serial
// randomization for reproducible builds, could not be parsed as a
// base-10 Unix timestamp.
type InvalidSourceDateEpochError struct {
	Value string
}

func (e *InvalidSourceDateEpochError) Error() string {
	return fmt.Sprintf("remuxer: invalid SOURCE_DATE_EPOCH value %q", e.Value)
}
