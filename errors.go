package optivorbis

import "github.com/optivorbis/optivorbis-go/remuxer"

// Sentinel errors re-exported at the package root so that callers of
// Remux do not need to import the remuxer subpackage just to compare
// against errors.Is.
var (
	// ErrNoVorbisStreams indicates the Ogg container held no Vorbis
	// logical bitstream. Returned only when Settings.ErrorOnNoVorbisStreams
	// is true (the default).
	ErrNoVorbisStreams = remuxer.ErrNoVorbisStreams

	// ErrUnsupportedStreamMultiplexing indicates the container grouped
	// (concurrently interleaved) logical bitstreams, one beginning while a
	// Vorbis logical bitstream was still open. Only chained (sequential)
	// multiplexing is supported.
	ErrUnsupportedStreamMultiplexing = remuxer.ErrUnsupportedStreamMultiplexing
)
