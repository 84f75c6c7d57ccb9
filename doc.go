// Package optivorbis losslessly shrinks Ogg-encapsulated Vorbis I audio.
//
// It re-encodes the structural layers of a Vorbis bitstream — the Ogg
// pages, the Vorbis packets, and the Huffman codebooks inside the setup
// header — into the most compact representation the Vorbis I
// specification permits, without touching the decoded PCM samples. A
// conforming decoder recovers bit-identical audio from the output as
// from the input.
//
// # Two passes
//
// The rewriter works in two passes over a seekable source. The first
// pass parses every Vorbis logical bitstream it finds, decodes every
// audio packet far enough to count how often each codebook entry is
// used, and discards the decoded values. Between passes, each
// codebook's usage counts are turned into a new, size-optimal,
// length-limited prefix code. The second pass re-reads the source,
// replays the same packet structure, and emits codewords drawn from
// the new code instead of the original one.
//
// # Entry point
//
// Remux is the package's only required entry point:
//
//	err := optivorbis.Remux(ctx, src, dst, optivorbis.NewSettings())
//
// See Settings for the knobs that control stream serial randomization,
// vendor string handling, and comment field handling.
package optivorbis
