package vorbis

import (
	"github.com/optivorbis/optivorbis-go/bitpack"
)

// trieNode is one node of the Huffman decode trie. children[0] is the
// edge taken on bit 0, children[1] on bit 1; -1 means "no child yet".
// entry is the codebook entry index this node terminates at, or -1 for
// an internal node.
type trieNode struct {
	children [2]int32
	entry    int32
}

// Codebook is the in-memory model of one Vorbis setup-header codebook:
// its Huffman decode tree, its usage counters, and (once Optimize has
// run) the size-optimal replacement code.
//
// A Codebook starts in "recording" mode: DecodeEntry walks the original
// tree and increments the matching usage counter. Optimize computes new
// codeword lengths from those counters exactly once (idempotent on
// subsequent calls) and switches the codebook into a mode where
// EncodeEntry becomes available; DecodeEntry keeps working afterward
// (pass 2 must still read the original codewords) but stops counting.
type Codebook struct {
	Index      int
	Dimensions int
	Lengths    []int // 0 means "unused"; index-parallel to entries
	LookupType VectorLookupType
	Lookup     LookupTable // opaque VQ table data, re-emitted verbatim

	root      int32
	nodes     []trieNode
	usage     []uint64
	optimized bool
	newLength []int
	newCode   []uint32 // MSB-first tree codewords, valid where newLength[i] > 0
}

// LookupTable carries a codebook's VQ lookup table fields exactly as
// read, so they can be re-emitted byte-for-byte without this
// implementation needing to interpret the vector values themselves.
type LookupTable struct {
	Present         bool
	Minimum         uint32 // packed float32
	Delta           uint32 // packed float32
	ValueBits       uint // 1-4, width of each raw multiplicand
	SequenceP       bool
	Multiplicands   []uint32
}

// NewCodebook builds the decode trie for a codebook whose per-entry
// lengths have already been parsed from the setup header. A length of
// 0 marks an entry unused. Returns CodebookInvalidError if two entries
// would collide on the same codeword (an overpopulated or
// under-specified tree, depending on the sparse flag semantics already
// resolved by the caller into explicit zero lengths).
func NewCodebook(index, dimensions int, lengths []int, lookupType VectorLookupType, lookup LookupTable) (*Codebook, error) {
	codewords, err := buildCodewords(lengths)
	if err != nil {
		return nil, &CodebookInvalidError{Codebook: index, Reason: err.Error()}
	}
	cb := &Codebook{
		Index:      index,
		Dimensions: dimensions,
		Lengths:    lengths,
		LookupType: lookupType,
		Lookup:     lookup,
		usage:      make([]uint64, len(lengths)),
		nodes:      []trieNode{{children: [2]int32{-1, -1}, entry: -1}},
		root:       0,
	}
	for i, length := range lengths {
		if length <= 0 {
			continue
		}
		if err := cb.insert(codewords[i], length, int32(i)); err != nil {
			return nil, &CodebookInvalidError{Codebook: index, Reason: err.Error()}
		}
	}
	return cb, nil
}

// insert places entry at the trie path described by the low `length`
// bits of codeword (MSB-first: bit length-1 is taken first).
func (cb *Codebook) insert(codeword uint32, length int, entry int32) error {
	node := cb.root
	for depth := length - 1; depth >= 1; depth-- {
		bit := (codeword >> uint(depth)) & 1
		next := cb.nodes[node].children[bit]
		if next == -1 {
			cb.nodes = append(cb.nodes, trieNode{children: [2]int32{-1, -1}, entry: -1})
			next = int32(len(cb.nodes) - 1)
			cb.nodes[node].children[bit] = next
		}
		node = next
	}
	bit := codeword & 1
	if cb.nodes[node].children[bit] != -1 {
		return errOverpopulatedTree
	}
	cb.nodes = append(cb.nodes, trieNode{children: [2]int32{-1, -1}, entry: entry})
	cb.nodes[node].children[bit] = int32(len(cb.nodes) - 1)
	return nil
}

// DecodeEntry walks the original Huffman tree one bit at a time,
// returning the entry index at the leaf reached. While the codebook is
// still in recording mode this also increments that entry's usage
// counter with saturating arithmetic.
func (cb *Codebook) DecodeEntry(r *bitpack.Reader) (int, error) {
	node := cb.root
	for {
		n := cb.nodes[node]
		if n.entry >= 0 {
			if !cb.optimized {
				if cb.usage[n.entry] != ^uint64(0) {
					cb.usage[n.entry]++
				}
			}
			return int(n.entry), nil
		}
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		next := n.children[bit]
		if next == -1 {
			return 0, &CodebookInvalidError{Codebook: cb.Index, Reason: "decode reached a dead trie branch"}
		}
		node = next
	}
}

// Optimize computes size-optimal, length-limited codeword lengths from
// the usage counts recorded during pass 1, and builds the corresponding
// replacement trie for EncodeEntry. Calling it more than once is a
// no-op: the first computed code is kept.
func (cb *Codebook) Optimize() error {
	if cb.optimized {
		return nil
	}
	cb.optimized = true

	// Entries that were never actually decoded during pass 1 — whether
	// or not the original setup header marked them "used" — receive no
	// codeword in the rewritten codebook; they cannot appear in any
	// packet pass 2 will emit.
	usedIdx := make([]int, 0, len(cb.Lengths))
	for i := range cb.Lengths {
		if cb.usage[i] > 0 {
			usedIdx = append(usedIdx, i)
		}
	}
	cb.newLength = make([]int, len(cb.Lengths))
	if len(usedIdx) == 0 {
		return nil
	}
	if len(usedIdx) == 1 {
		cb.newLength[usedIdx[0]] = 1
	} else {
		freqs := make([]uint64, len(usedIdx))
		for i, idx := range usedIdx {
			freqs[i] = cb.usage[idx]
		}
		lengths, err := optimalLengths(freqs, 32)
		if err != nil {
			return &OptimizationInfeasibleError{Codebook: cb.Index, UsedEntries: len(usedIdx)}
		}
		for i, idx := range usedIdx {
			cb.newLength[idx] = lengths[i]
		}
	}
	codewords, err := buildCodewords(cb.newLength)
	if err != nil {
		return &CodebookInvalidError{Codebook: cb.Index, Reason: err.Error()}
	}
	cb.newCode = codewords
	return nil
}

// NewLengths returns the optimized per-entry codeword lengths. Optimize
// must have been called first.
func (cb *Codebook) NewLengths() []int {
	return cb.newLength
}

// EncodeEntry writes entry's optimized codeword LSB-first, matching the
// bit order WriteUnsigned expects. Optimize must have been called first.
func (cb *Codebook) EncodeEntry(w *bitpack.Writer, entry int) {
	length := cb.newLength[entry]
	code := cb.newCode[entry]
	w.WriteUnsigned(reverseBits(code, length), uint(length))
}

var errOverpopulatedTree = codebookTreeError("overpopulated Huffman tree: a codeword collides with an existing one")

type codebookTreeError string

func (e codebookTreeError) Error() string { return string(e) }

// buildCodewords assigns MSB-first Huffman codewords to entries given
// their lengths (0 meaning unused), following Vorbis I's canonical
// codeword assignment: entries are processed in ascending index order,
// and each is placed at the next available node at its declared depth,
// pruning the subtree the reference algorithm's "marker" array tracks
// per depth. Returns an error if the code is overpopulated (two
// entries would collide) — underpopulation is legal in Vorbis I and
// simply leaves the tree sparse.
func buildCodewords(lengths []int) ([]uint32, error) {
	var marker [33]uint32
	codewords := make([]uint32, len(lengths))
	for i, length := range lengths {
		if length <= 0 {
			continue
		}
		entry := marker[length]
		if length < 32 && (entry>>uint(length)) != 0 {
			return nil, errOverpopulatedTree
		}
		codewords[i] = entry

		for j := length; j > 0; j-- {
			if marker[j]&1 != 0 {
				if j == 1 {
					marker[1]++
				} else {
					marker[j] = marker[j-1] << 1
				}
				break
			}
			marker[j]++
		}

		for j := length + 1; j < 33; j++ {
			if marker[j]>>1 == entry {
				entry = marker[j]
				marker[j] = marker[j-1] << 1
			} else {
				break
			}
		}
	}
	return codewords, nil
}

// reverseBits reverses the low `length` bits of v.
func reverseBits(v uint32, length int) uint32 {
	var out uint32
	for i := 0; i < length; i++ {
		out <<= 1
		out |= v & 1
		v >>= 1
	}
	return out
}
