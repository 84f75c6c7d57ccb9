package remuxer

import (
	"go.uber.org/zap"

	"github.com/optivorbis/optivorbis-go/vorbis"
)

// Settings controls how Remux behaves across both passes.
type Settings struct {
	// RandomizeStreamSerials replaces each output logical bitstream's
	// serial number with a freshly drawn random one, avoiding accidental
	// collisions with unrelated streams a player may be juggling
	// concurrently. Defaults to true.
	RandomizeStreamSerials bool
	// FirstStreamSerialOffset is added to each stream's original serial
	// number when RandomizeStreamSerials is false, letting a caller
	// derive deterministic, collision-avoiding serials of its own.
	FirstStreamSerialOffset uint32
	// IgnoreStartSampleOffset controls whether the start sample offset
	// recovered from the source's first audio page is folded into every
	// granule position Remux writes from that page onward. Left false
	// (the default), a source that began mid-recording or had leading
	// samples trimmed keeps that same offset in the rewritten stream.
	// Set true to always count samples from the rewritten stream's own
	// first audio packet instead, discarding the source's offset.
	IgnoreStartSampleOffset bool
	// ErrorOnNoVorbisStreams controls whether Remux fails when the
	// source container holds no Vorbis logical bitstream at all.
	// Defaults to true.
	ErrorOnNoVorbisStreams bool

	// VendorStringAction and CommentFieldsAction are forwarded to
	// vorbis.WriteComment for every logical bitstream's comment header.
	VendorStringAction  vorbis.VendorStringAction
	CommentFieldsAction vorbis.CommentFieldsAction

	// Mangler is consulted once per logical bitstream during pass 2.
	// Defaults to NoopMangler{}.
	Mangler Mangler
	// Logger receives warnings about non-fatal conditions encountered
	// along the way (truncated comment headers, audio packets pass 1
	// could not parse). Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultSettings returns the Settings Remux uses when none are given.
func DefaultSettings() Settings {
	return Settings{
		RandomizeStreamSerials: true,
		ErrorOnNoVorbisStreams: true,
		VendorStringAction:     vorbis.VendorStringReplace,
		CommentFieldsAction:    vorbis.CommentFieldsCopy,
		Mangler:                NoopMangler{},
		Logger:                 zap.NewNop(),
	}
}
