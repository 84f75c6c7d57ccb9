package vorbis

import "github.com/optivorbis/optivorbis-go/bitpack"

// WriteSetup re-serializes a Setup header, substituting each
// codebook's optimized (Optimize-computed) codeword lengths for its
// original ones. Every other field — floors, residues, mappings,
// modes, and each codebook's VQ lookup table — is re-emitted
// byte-for-byte equivalent to what was parsed, since only the Huffman
// code assignment ever changes.
func WriteSetup(s *Setup) []byte {
	w := bitpack.NewWriter(512)

	writeCount(w, len(s.Codebooks), 8)
	for _, cb := range s.Codebooks {
		writeCodebook(w, cb)
	}

	writeCount(w, s.TimeCount, 6)
	for i := 0; i < s.TimeCount; i++ {
		w.WriteUnsigned(0, 16)
	}

	writeCount(w, len(s.Floors), 6)
	for _, f := range s.Floors {
		w.WriteUnsigned(uint32(FloorType1), 16)
		writeFloor1(w, f)
	}

	writeCount(w, len(s.Residues), 6)
	for _, res := range s.Residues {
		w.WriteUnsigned(uint32(res.Type), 16)
		writeResidue(w, res)
	}

	writeCount(w, len(s.Mappings), 6)
	for _, m := range s.Mappings {
		w.WriteUnsigned(0, 16)
		writeMapping(w, m)
	}

	writeCount(w, len(s.Modes), 6)
	for _, md := range s.Modes {
		writeMode(w, md)
	}

	w.WriteFlag(true)
	body := w.Bytes()

	out := make([]byte, 7+len(body))
	out[0] = byte(PacketTypeSetupHdr)
	copy(out[1:7], vorbisMagic[:])
	copy(out[7:], body)
	return out
}

func writeCount(w *bitpack.Writer, n int, width uint) {
	w.WriteUnsigned(uint32(n-1), width)
}

func writeCodebook(w *bitpack.Writer, cb *Codebook) {
	w.WriteUnsigned(0x564342, 24)
	w.WriteUnsigned(uint32(cb.Dimensions), 16)
	lengths := cb.NewLengths()
	entries := len(lengths)
	w.WriteUnsigned(uint32(entries), 24)

	hasUnused := false
	for _, l := range lengths {
		if l == 0 {
			hasUnused = true
			break
		}
	}
	ordered := canEncodeOrdered(lengths)
	useOrdered := ordered && orderedBitCost(lengths) < unorderedBitCost(lengths, hasUnused)

	w.WriteFlag(useOrdered)
	if useOrdered {
		writeOrderedLengths(w, lengths)
	} else {
		w.WriteFlag(hasUnused)
		for _, l := range lengths {
			if hasUnused {
				present := l > 0
				w.WriteFlag(present)
				if present {
					w.WriteUnsigned(uint32(l-1), 5)
				}
			} else {
				w.WriteUnsigned(uint32(l-1), 5)
			}
		}
	}

	w.WriteUnsigned(uint32(cb.LookupType), 4)
	if cb.LookupType != LookupNone {
		w.WriteUnsigned(cb.Lookup.Minimum, 32)
		w.WriteUnsigned(cb.Lookup.Delta, 32)
		w.WriteUnsigned(uint32(cb.Lookup.ValueBits-1), 4)
		w.WriteFlag(cb.Lookup.SequenceP)
		for _, m := range cb.Lookup.Multiplicands {
			w.WriteUnsigned(m, cb.Lookup.ValueBits)
		}
	}
}

// canEncodeOrdered reports whether lengths could legally be written in
// the ordered (monotonic run-length) representation: every entry must
// be used, and lengths must be non-decreasing by entry index.
func canEncodeOrdered(lengths []int) bool {
	if len(lengths) == 0 {
		return false
	}
	prev := 0
	for i, l := range lengths {
		if l == 0 {
			return false
		}
		if i > 0 && l < prev {
			return false
		}
		prev = l
	}
	return true
}

func writeOrderedLengths(w *bitpack.Writer, lengths []int) {
	entries := len(lengths)
	currentLength := lengths[0]
	w.WriteUnsigned(uint32(currentLength-1), 5)
	currentEntry := 0
	for currentEntry < entries {
		count := 0
		for currentEntry+count < entries && lengths[currentEntry+count] == currentLength {
			count++
		}
		width := ilog(entries - currentEntry)
		w.WriteUnsigned(uint32(count), width)
		currentEntry += count
		currentLength++
	}
}

func orderedBitCost(lengths []int) int {
	entries := len(lengths)
	cost := 5
	currentLength := lengths[0]
	currentEntry := 0
	for currentEntry < entries {
		count := 0
		for currentEntry+count < entries && lengths[currentEntry+count] == currentLength {
			count++
		}
		cost += int(ilog(entries - currentEntry))
		currentEntry += count
		currentLength++
	}
	return cost
}

func unorderedBitCost(lengths []int, sparse bool) int {
	cost := 1
	for _, l := range lengths {
		if sparse {
			cost++
			if l > 0 {
				cost += 5
			}
		} else {
			cost += 5
		}
	}
	return cost
}

func writeFloor1(w *bitpack.Writer, f *Floor1) {
	w.WriteUnsigned(uint32(len(f.PartitionClassList)), 5)
	for _, c := range f.PartitionClassList {
		w.WriteUnsigned(uint32(c), 4)
	}
	for i := range f.ClassDimensions {
		w.WriteUnsigned(uint32(f.ClassDimensions[i]-1), 3)
		w.WriteUnsigned(uint32(f.ClassSubclasses[i]), 2)
		if f.ClassSubclasses[i] != 0 {
			w.WriteUnsigned(uint32(f.ClassMasterbooks[i]), 8)
		}
		for _, b := range f.ClassSubclassBooks[i] {
			w.WriteUnsigned(uint32(b+1), 8)
		}
	}
	w.WriteUnsigned(uint32(f.Multiplier-1), 2)
	w.WriteUnsigned(uint32(f.RangeBits), 4)
	for _, v := range f.XList[2:] {
		w.WriteUnsigned(uint32(v), uint(f.RangeBits))
	}
}

func writeResidue(w *bitpack.Writer, r *Residue) {
	w.WriteUnsigned(uint32(r.Begin), 24)
	w.WriteUnsigned(uint32(r.End), 24)
	w.WriteUnsigned(uint32(r.PartitionSize-1), 24)
	w.WriteUnsigned(uint32(r.Classifications-1), 6)
	w.WriteUnsigned(uint32(r.Classbook), 8)
	for _, c := range r.Cascade {
		low := c & 0x7
		high := c >> 3
		w.WriteUnsigned(uint32(low), 3)
		flag := high != 0
		w.WriteFlag(flag)
		if flag {
			w.WriteUnsigned(uint32(high), 5)
		}
	}
	for i, passes := range r.Books {
		for j := 0; j < 8; j++ {
			if r.Cascade[i]&(1<<uint(j)) != 0 {
				w.WriteUnsigned(uint32(passes[j]), 8)
			}
		}
	}
}

func writeMapping(w *bitpack.Writer, m *Mapping) {
	flag := m.Submaps > 1
	w.WriteFlag(flag)
	if flag {
		w.WriteUnsigned(uint32(m.Submaps-1), 4)
	}
	squarePolar := len(m.MagnitudeChannel) > 0
	w.WriteFlag(squarePolar)
	if squarePolar {
		w.WriteUnsigned(uint32(len(m.MagnitudeChannel)-1), 8)
		width := ilog(len(m.Mux) - 1)
		for i := range m.MagnitudeChannel {
			w.WriteUnsigned(uint32(m.MagnitudeChannel[i]), width)
			w.WriteUnsigned(uint32(m.AngleChannel[i]), width)
		}
	}
	w.WriteUnsigned(0, 2)
	if m.Submaps > 1 {
		for _, mux := range m.Mux {
			w.WriteUnsigned(uint32(mux), 4)
		}
	}
	for i := 0; i < m.Submaps; i++ {
		w.WriteUnsigned(0, 8)
		w.WriteUnsigned(uint32(m.SubmapFloor[i]), 8)
		w.WriteUnsigned(uint32(m.SubmapResidue[i]), 8)
	}
}

func writeMode(w *bitpack.Writer, md *Mode) {
	w.WriteFlag(md.BlockFlag)
	w.WriteUnsigned(0, 16)
	w.WriteUnsigned(0, 16)
	w.WriteUnsigned(uint32(md.Mapping), 8)
}
