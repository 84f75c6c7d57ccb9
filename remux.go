package optivorbis

import (
	"context"
	"io"

	"github.com/optivorbis/optivorbis-go/remuxer"
)

// Remux reads an Ogg-encapsulated Vorbis I bitstream from source and
// writes a losslessly re-encoded, smaller equivalent to sink. source
// must support seeking: the rewrite makes two passes over it, the
// first to gather codebook usage statistics and the second to emit the
// optimized bitstream.
func Remux(ctx context.Context, source io.ReadSeeker, sink io.Writer, settings Settings) error {
	return remuxer.Remux(ctx, source, sink, settings.remuxer)
}
