package optivorbis

import (
	"go.uber.org/zap"

	"github.com/optivorbis/optivorbis-go/remuxer"
	"github.com/optivorbis/optivorbis-go/vorbis"
)

// Settings controls how Remux behaves. Build one with NewSettings and
// the With* options below; the zero value is not ready to use.
type Settings struct {
	remuxer remuxer.Settings
}

// Option configures a Settings value returned by NewSettings.
type Option func(*Settings)

// NewSettings returns the default Settings, then applies opts in
// order.
func NewSettings(opts ...Option) Settings {
	s := Settings{remuxer: remuxer.DefaultSettings()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithRandomizeStreamSerials controls whether each output logical
// bitstream gets a freshly drawn random serial number. Defaults to true.
func WithRandomizeStreamSerials(randomize bool) Option {
	return func(s *Settings) { s.remuxer.RandomizeStreamSerials = randomize }
}

// WithFirstStreamSerialOffset sets the offset added to each stream's
// original serial when WithRandomizeStreamSerials(false) is also given.
func WithFirstStreamSerialOffset(offset uint32) Option {
	return func(s *Settings) { s.remuxer.FirstStreamSerialOffset = offset }
}

// WithIgnoreStartSampleOffset, when true, leaves a stream's start
// sample offset out of the granule positions written to the output.
// The plausibility check on a stream's final granule position applies
// either way.
func WithIgnoreStartSampleOffset(ignore bool) Option {
	return func(s *Settings) { s.remuxer.IgnoreStartSampleOffset = ignore }
}

// WithErrorOnNoVorbisStreams controls whether Remux fails when the
// source container holds no Vorbis logical bitstream. Defaults to true.
func WithErrorOnNoVorbisStreams(fail bool) Option {
	return func(s *Settings) { s.remuxer.ErrorOnNoVorbisStreams = fail }
}

// WithVendorStringAction selects how the output comment header's
// vendor string is derived from the input's.
func WithVendorStringAction(action vorbis.VendorStringAction) Option {
	return func(s *Settings) { s.remuxer.VendorStringAction = action }
}

// WithCommentFieldsAction selects how the output comment header's user
// comment list is derived from the input's.
func WithCommentFieldsAction(action vorbis.CommentFieldsAction) Option {
	return func(s *Settings) { s.remuxer.CommentFieldsAction = action }
}

// WithMangler installs a hook invoked once per logical bitstream during
// pass 2, before its identification and comment headers are
// re-serialized.
func WithMangler(m remuxer.Mangler) Option {
	return func(s *Settings) { s.remuxer.Mangler = m }
}

// WithLogger installs the logger Remux reports non-fatal conditions to.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Settings) { s.remuxer.Logger = logger }
}
