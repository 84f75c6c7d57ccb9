package remuxer

// Granulator recomputes a Vorbis logical bitstream's granule positions
// packet by packet from each audio packet's block size alone — the
// same bookkeeping a decoder uses to report PCM sample position,
// without ever reconstructing the samples themselves. A block's
// decoded output overlaps half with the block before it and half with
// the block after, so every packet after the first contributes
// (previous+current)/4 samples to the running total; the first packet
// in a stream contributes nothing (its first half has no predecessor
// to overlap with).
//
// That running total alone assumes the stream's first audio packet
// starts at sample zero. A source that trimmed leading samples (or
// was itself a remux of a stream that did) declares a nonzero granule
// position on its first audio page instead; NotePageGranule recovers
// that start sample offset from the page boundary the source itself
// drew, and FinalGranule folds the source's own declared end-of-stream
// granule back in where it looks genuine, so a decoder fed the
// rewritten stream reports exactly as many samples as the source did.
type Granulator struct {
	total             uint64
	previousBlockSize int
	havePrevious      bool

	haveLastPageGranule       bool
	lastPageGranule           uint64
	lastPageGranuleCalculated uint64

	haveStartOffset bool
	startOffset     uint64
}

// Advance records one more audio packet's block size and returns the
// calculated running granule position after it, before any start
// sample offset from NotePageGranule is folded in.
func (g *Granulator) Advance(blockSize int) uint64 {
	if g.havePrevious {
		g.total += uint64(g.previousBlockSize+blockSize) / 4
	}
	g.previousBlockSize = blockSize
	g.havePrevious = true
	return g.total
}

// NotePageGranule feeds the declared granule position of the source
// page the most recently Advance'd packet completed on. Must be called
// exactly once per packet, immediately after that packet's Advance
// call.
//
// The first time the declared value changes from one packet to the
// next, the page that just ended is taken to be the source's first
// audio page, and the difference between its declared granule and the
// granule Advance had calculated as of that page becomes the stream's
// start sample offset (see StartOffset) — wrapping on overflow rather
// than panicking, the same as Advance's own arithmetic.
func (g *Granulator) NotePageGranule(declared uint64) {
	if g.haveLastPageGranule && declared != g.lastPageGranule {
		if !g.haveStartOffset {
			g.startOffset = g.lastPageGranule - g.lastPageGranuleCalculated
			g.haveStartOffset = true
		}
		g.lastPageGranule = declared
	} else if !g.haveLastPageGranule {
		g.lastPageGranule = declared
	}
	g.lastPageGranuleCalculated = g.total
	g.haveLastPageGranule = true
}

// StartOffset returns the start sample offset NotePageGranule has
// recovered so far, and whether one has been recovered yet.
func (g *Granulator) StartOffset() (uint64, bool) {
	return g.startOffset, g.haveStartOffset
}

// Calculated returns the current running granule position without
// recording a new packet, for a caller that needs it as FinalGranule's
// previousCalculated before advancing past the stream's last packet.
func (g *Granulator) Calculated() uint64 {
	return g.total
}

// FinalGranule decides the granule position written for a stream's
// last audio packet. calculated is Advance's return value for that
// packet (the fully-decoded running total, ignoring any start
// offset); previousCalculated is the running total just before it
// (Advance's return value, or 0, for the packet before); declared is
// the granule position of the page this, the stream's last packet,
// completed on in the source.
//
// When declared falls in the range this packet could plausibly
// produce — at least one sample past the previous packet's total, at
// most what this packet's block could add — it is taken at face value
// and used instead of the calculated total, so a decoder that trusts
// the final page's granule position (as every compliant decoder does,
// per Vorbis I's "last page" rule) reports exactly as many samples as
// the source declared, including any trailing samples the source
// itself discarded. Anything else is treated as unreliable, and the
// calculated total is used.
func (g *Granulator) FinalGranule(calculated, previousCalculated, declared uint64, ignoreStartSampleOffset bool) uint64 {
	offset := g.startOffset
	if !g.haveStartOffset {
		offset = 0
	}

	minExpected := previousCalculated + offset + 1
	maxExpected := calculated + offset

	if declared >= minExpected && declared <= maxExpected {
		if ignoreStartSampleOffset {
			return declared - offset
		}
		return declared
	}
	if ignoreStartSampleOffset {
		return calculated
	}
	return calculated + offset
}

// WrittenGranule folds a non-final audio packet's start sample offset
// into its calculated granule position, unless ignoreStartSampleOffset
// suppresses it.
func (g *Granulator) WrittenGranule(calculated uint64, ignoreStartSampleOffset bool) uint64 {
	if ignoreStartSampleOffset || !g.haveStartOffset {
		return calculated
	}
	return calculated + g.startOffset
}
