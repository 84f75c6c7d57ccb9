package vorbis

import (
	"errors"

	"github.com/optivorbis/optivorbis-go/bitpack"
)

// An audio packet carries no leading type byte or vorbis magic — its
// first bit is the packet type bit (0 for audio), and the mode selector
// follows it. Transcoding it never reconstructs an
// actual audio signal: the only thing that changes between the packet
// read in pass 1 and the packet written in pass 2 is which codeword a
// codebook uses for a given entry, so walking the decode grammar far
// enough to find every codebook read is all that is required. Floor
// curves and residue vectors are never evaluated to real numbers.
//
// The grammar divides into two parts, matching the Vorbis I
// specification's own description of error handling for audio
// packets: the "first part" selects the mode, block size, and window
// flags; the "second part" decodes the floor and residue codebook
// sequences. An end-of-packet condition in the first part means the
// packet carries nothing usable and is passed through unchanged. An
// end-of-packet condition in the second part is not fatal either: the
// partially decoded envelope is legal and pass 2 re-emits whatever it
// managed to transcode. Any other decode error in the second part is
// returned.

// RecordAudioPacket walks an audio packet's decode grammar during pass
// 1, driving each referenced codebook's DecodeEntry so its usage
// counters accumulate. It never writes anything. A packet whose first
// part cannot be parsed returns errFirstPartTruncated; a packet that
// ends partway through its floor or residue data is not an error and
// simply stops contributing usage counts early.
func RecordAudioPacket(packet []byte, setup *Setup, id *Identification, audioChannels int) error {
	r := bitpack.NewReader(packet)
	return transcodeAudioPacket(r, nil, setup, id, audioChannels)
}

// RewriteAudioPacket re-emits an audio packet, substituting each
// codebook's optimized codeword for every entry the original packet
// read. If the packet's first part (mode and window selection) cannot
// be parsed at all, the original bytes are returned unchanged rather
// than guessed at.
func RewriteAudioPacket(packet []byte, setup *Setup, id *Identification, audioChannels int) ([]byte, error) {
	r := bitpack.NewReader(packet)
	w := bitpack.NewWriter(len(packet))
	if err := transcodeAudioPacket(r, w, setup, id, audioChannels); err != nil {
		if errors.Is(err, errFirstPartTruncated) {
			out := make([]byte, len(packet))
			copy(out, packet)
			return out, nil
		}
		return nil, err
	}
	return w.Bytes(), nil
}

// errFirstPartTruncated signals that the packet's first part could not
// be parsed: it ran out of bits before its mode/window selector could
// be read, its packet type bit is set, or its mode selector names no
// declared mode or mapping. This is distinct from running out partway
// through the floor/residue payload.
var errFirstPartTruncated = errors.New("vorbis: audio packet truncated before mode selection")

// transcodeAudioPacket drives the shared decode grammar for both
// passes. When w is nil this only records codebook usage (pass 1);
// when w is non-nil every field read from r is mirrored to w, using
// each codebook's optimized codeword in place of its original one.
func transcodeAudioPacket(r *bitpack.Reader, w *bitpack.Writer, setup *Setup, id *Identification, audioChannels int) error {
	if len(setup.Modes) == 0 {
		return &HeaderMalformedError{Header: "setup", Reason: "no modes declared"}
	}
	notAudio, err := r.ReadFlag()
	if err != nil || notAudio {
		return errFirstPartTruncated
	}
	modeWidth := ilog(len(setup.Modes) - 1)
	modeVal, err := r.ReadUnsigned(modeWidth)
	if err != nil {
		return errFirstPartTruncated
	}
	if int(modeVal) >= len(setup.Modes) {
		return errFirstPartTruncated
	}
	mode := setup.Modes[modeVal]
	if mode.Mapping >= len(setup.Mappings) {
		return errFirstPartTruncated
	}
	mapping := setup.Mappings[mode.Mapping]
	if w != nil {
		w.WriteFlag(false)
		w.WriteUnsigned(modeVal, modeWidth)
	}

	if mode.BlockFlag {
		prevWindow, err := r.ReadFlag()
		if err != nil {
			return errFirstPartTruncated
		}
		nextWindow, err := r.ReadFlag()
		if err != nil {
			return errFirstPartTruncated
		}
		if w != nil {
			w.WriteFlag(prevWindow)
			w.WriteFlag(nextWindow)
		}
	}

	return walkAudioPacketBody(r, w, mode, mapping, setup, id, audioChannels)
}

// walkAudioPacketBody performs the actual field-by-field walk. The
// mode selector and window flags were already consumed by the caller
// to establish that the packet has a parseable first part; this
// resumes immediately after them and handles floor and residue decode.
func walkAudioPacketBody(r *bitpack.Reader, w *bitpack.Writer, mode *Mode, mapping *Mapping, setup *Setup, id *Identification, audioChannels int) error {
	blocksizeLog := id.Blocksize0
	if mode.BlockFlag {
		blocksizeLog = id.Blocksize1
	}
	n := (1 << uint(blocksizeLog)) / 2

	floorNonZero := make([]bool, audioChannels)
	for ch := 0; ch < audioChannels; ch++ {
		submap := submapForChannel(mapping, ch)
		floorIdx := mapping.SubmapFloor[submap]
		if floorIdx >= len(setup.Floors) {
			return nil
		}
		floor := setup.Floors[floorIdx]
		nonzero, err := r.ReadFlag()
		if err != nil {
			return nil // end of packet partway through floor decode: legal, stop here
		}
		if w != nil {
			w.WriteFlag(nonzero)
		}
		floorNonZero[ch] = nonzero
		if nonzero {
			if err := transcodeFloor1(r, w, setup, floor); err != nil {
				if errors.Is(err, bitpack.ErrEOF) {
					return nil // end of packet partway through floor decode: legal, stop here
				}
				return err
			}
		}
	}

	doNotDecode := make([]bool, audioChannels)
	for ch := range doNotDecode {
		doNotDecode[ch] = !floorNonZero[ch]
	}
	for i := range mapping.MagnitudeChannel {
		m := mapping.MagnitudeChannel[i]
		a := mapping.AngleChannel[i]
		if floorNonZero[m] || floorNonZero[a] {
			doNotDecode[m] = false
			doNotDecode[a] = false
		}
	}

	for sub := 0; sub < mapping.Submaps; sub++ {
		var chans []int
		for ch := 0; ch < audioChannels; ch++ {
			if submapForChannel(mapping, ch) == sub {
				chans = append(chans, ch)
			}
		}
		residueIdx := mapping.SubmapResidue[sub]
		if residueIdx >= len(setup.Residues) {
			return nil
		}
		residue := setup.Residues[residueIdx]
		if err := transcodeResidue(r, w, setup, residue, chans, doNotDecode, n); err != nil {
			if errors.Is(err, bitpack.ErrEOF) {
				return nil // end of packet partway through residue decode: legal, stop here
			}
			return err
		}
	}

	return nil
}

func submapForChannel(mapping *Mapping, ch int) int {
	if mapping.Submaps <= 1 {
		return 0
	}
	return mapping.Mux[ch]
}

// floor1EndpointWidth returns the bit width of a floor1 packet's two
// raw endpoint values. The encoder quantizes them into one of four
// ranges selected by Multiplier — {256,128,86,64} for Multiplier
// 1 through 4 — and the width is ilog(range-1) of that range. This has
// nothing to do with RangeBits, the setup header's unrelated X-list
// coordinate width.
func floor1EndpointWidth(multiplier int) uint {
	ranges := [4]int{256, 128, 86, 64}
	idx := multiplier - 1
	if idx < 0 {
		idx = 0
	} else if idx > 3 {
		idx = 3
	}
	return ilog(ranges[idx] - 1)
}

// transcodeFloor1 walks one channel's floor curve codebook reads: the
// two raw endpoint values, then a class-book/subclass-book cascade per
// partition.
func transcodeFloor1(r *bitpack.Reader, w *bitpack.Writer, setup *Setup, f *Floor1) error {
	width := floor1EndpointWidth(f.Multiplier)
	y0, err := r.ReadUnsigned(width)
	if err != nil {
		return err
	}
	y1, err := r.ReadUnsigned(width)
	if err != nil {
		return err
	}
	if w != nil {
		w.WriteUnsigned(y0, width)
		w.WriteUnsigned(y1, width)
	}

	for _, class := range f.PartitionClassList {
		if class >= len(f.ClassDimensions) {
			return &HeaderMalformedError{Header: "setup", Reason: "floor partition class out of range"}
		}
		subBits := f.ClassSubclasses[class]
		sub := 1 << uint(subBits)
		cval := 0
		if subBits != 0 {
			masterbook := f.ClassMasterbooks[class]
			if masterbook < 0 || masterbook >= len(setup.Codebooks) {
				return &HeaderMalformedError{Header: "setup", Reason: "floor class masterbook out of range"}
			}
			entry, err := codebookTranscode(r, w, setup.Codebooks[masterbook])
			if err != nil {
				return err
			}
			cval = entry
		}
		for k := 0; k < f.ClassDimensions[class]; k++ {
			book := f.ClassSubclassBooks[class][cval&(sub-1)]
			cval >>= uint(subBits)
			if book < 0 {
				continue
			}
			if book >= len(setup.Codebooks) {
				return &HeaderMalformedError{Header: "setup", Reason: "floor subclass book out of range"}
			}
			if _, err := codebookTranscode(r, w, setup.Codebooks[book]); err != nil {
				return err
			}
		}
	}
	return nil
}

// transcodeResidue decodes the residue vectors belonging to one
// submap's channel group. Residue type 2 decode is all-or-nothing: if
// any mapped channel is still decoding, every channel mapped to the
// submap is interleaved into one wide vector covering all of them, not
// just the ones still active. Types 0 and 1 keep one vector per
// channel, but still walk every active channel's vector together
// partition group by partition group, the way a real decoder reads a
// submap's vectors interleaved rather than one after another.
func transcodeResidue(r *bitpack.Reader, w *bitpack.Writer, setup *Setup, residue *Residue, chans []int, doNotDecode []bool, n int) error {
	if residue.Type == ResidueInterleavedVectors {
		anyActive := false
		for _, ch := range chans {
			if !doNotDecode[ch] {
				anyActive = true
				break
			}
		}
		if !anyActive {
			return nil
		}
		return transcodeResidueVectors(r, w, setup, residue, 1, func(int) bool { return true }, n*len(chans))
	}

	active := make([]bool, len(chans))
	anyActive := false
	for i, ch := range chans {
		active[i] = !doNotDecode[ch]
		anyActive = anyActive || active[i]
	}
	if !anyActive {
		return nil
	}
	return transcodeResidueVectors(r, w, setup, residue, len(chans), func(j int) bool { return active[j] }, n)
}

// transcodeResidueVectors decodes numVectors residue vectors of the
// given length together, following the Vorbis residue decode process:
// for each of the 8 passes, walk the partitions one classword group
// (classbook.Dimensions partitions) at a time; on pass 0 only, read one
// classword per active vector at the start of each group before
// decoding that group's partitions, and on every pass, decode each
// active vector's current-pass value for every partition in the group
// before moving to the next group. Reading classwords interleaved with
// pass-0 values this way, and every vector's reads interleaved with
// each other, rather than reading all classwords up front or finishing
// one vector before starting the next, is what keeps the bit order
// matching the original encoder's.
func transcodeResidueVectors(r *bitpack.Reader, w *bitpack.Writer, setup *Setup, residue *Residue, numVectors int, active func(int) bool, vectorLength int) error {
	if vectorLength <= 0 || residue.PartitionSize <= 0 {
		return nil
	}
	begin := residue.Begin
	end := residue.End
	if end > vectorLength {
		end = vectorLength
	}
	if begin >= end {
		return nil
	}
	if residue.Classbook < 0 || residue.Classbook >= len(setup.Codebooks) {
		return &HeaderMalformedError{Header: "setup", Reason: "residue classbook out of range"}
	}
	classbook := setup.Codebooks[residue.Classbook]
	classDim := classbook.Dimensions
	if classDim <= 0 {
		classDim = 1
	}

	partitionsTotal := (end - begin) / residue.PartitionSize

	// classifications[j] holds vector j's per-partition classification,
	// filled a classword group at a time on pass 0 and read back on
	// every pass thereafter.
	classifications := make([][]int, numVectors)
	for j := 0; j < numVectors; j++ {
		if active(j) {
			classifications[j] = make([]int, partitionsTotal)
		}
	}

	for pass := 0; pass < 8; pass++ {
		partitionCount := 0
		for partitionCount < partitionsTotal {
			groupSize := classDim
			if partitionCount+groupSize > partitionsTotal {
				groupSize = partitionsTotal - partitionCount
			}

			if pass == 0 {
				for j := 0; j < numVectors; j++ {
					if !active(j) {
						continue
					}
					entry, err := codebookTranscode(r, w, classbook)
					if err != nil {
						return err
					}
					digits := make([]int, classDim)
					val := entry
					for i := classDim - 1; i >= 0; i-- {
						digits[i] = val % residue.Classifications
						val /= residue.Classifications
					}
					copy(classifications[j][partitionCount:partitionCount+groupSize], digits[:groupSize])
				}
			}

			for i := 0; i < groupSize; i++ {
				p := partitionCount + i
				for j := 0; j < numVectors; j++ {
					if !active(j) {
						continue
					}
					cls := classifications[j][p]
					if cls < 0 || cls >= len(residue.Books) {
						return &HeaderMalformedError{Header: "setup", Reason: "residue classification out of range"}
					}
					book := residue.Books[cls][pass]
					if book < 0 {
						continue
					}
					if book >= len(setup.Codebooks) {
						return &HeaderMalformedError{Header: "setup", Reason: "residue pass book out of range"}
					}
					cb := setup.Codebooks[book]
					if cb.LookupType == LookupNone {
						return &ScalarCodebookUsedInVectorContextError{Codebook: book}
					}
					if cb.Dimensions <= 0 {
						return &InvalidCodebookDimensionError{Codebook: book, Dimensions: cb.Dimensions, ExpectedDimensionsMultipleOf: residue.PartitionSize}
					}
					if residue.PartitionSize%cb.Dimensions != 0 {
						return &InvalidCodebookDimensionError{Codebook: book, Dimensions: cb.Dimensions, ExpectedDimensionsMultipleOf: residue.PartitionSize}
					}
					valsPerRead := residue.PartitionSize / cb.Dimensions
					for v := 0; v < valsPerRead; v++ {
						if _, err := codebookTranscode(r, w, cb); err != nil {
							return err
						}
					}
				}
			}

			partitionCount += groupSize
		}
	}
	return nil
}

// PacketBlockSize returns the sample count of the block an audio
// packet decodes to, derived from its mode selector alone. The granule
// position recomputation pass uses this instead of running the full
// transcode, since it needs nothing else the packet's payload encodes.
func PacketBlockSize(packet []byte, setup *Setup, id *Identification) (int, error) {
	r := bitpack.NewReader(packet)
	if len(setup.Modes) == 0 {
		return 0, &HeaderMalformedError{Header: "setup", Reason: "no modes declared"}
	}
	notAudio, err := r.ReadFlag()
	if err != nil {
		return 0, err
	}
	if notAudio {
		return 0, errFirstPartTruncated
	}
	modeWidth := ilog(len(setup.Modes) - 1)
	modeVal, err := r.ReadUnsigned(modeWidth)
	if err != nil {
		return 0, err
	}
	if int(modeVal) >= len(setup.Modes) {
		return 0, &HeaderMalformedError{Header: "setup", Reason: "mode selector out of range"}
	}
	mode := setup.Modes[modeVal]
	blocksizeLog := id.Blocksize0
	if mode.BlockFlag {
		blocksizeLog = id.Blocksize1
	}
	return 1 << uint(blocksizeLog), nil
}

// codebookTranscode decodes one entry through cb, and — during pass 2,
// once w is non-nil — re-encodes that entry with cb's optimized
// codeword.
func codebookTranscode(r *bitpack.Reader, w *bitpack.Writer, cb *Codebook) (int, error) {
	entry, err := cb.DecodeEntry(r)
	if err != nil {
		return 0, err
	}
	if w != nil {
		cb.EncodeEntry(w, entry)
	}
	return entry, nil
}
