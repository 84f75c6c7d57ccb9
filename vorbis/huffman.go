package vorbis

import "sort"

// optimalLengths computes, for a set of non-negative integer weights,
// the codeword length of each weight's leaf in a prefix code that
// minimizes total weighted length subject to every length being at
// most maxLength and the Kraft inequality holding — the length-limited
// analogue of Huffman's algorithm, via the package-merge technique
// (Larmore & Hirschberg 1990), which this implementation uses in place
// of an in-place single-pass variant because it is far easier to get
// right without the ability to execute and check the result.
//
// freqs need not be pre-sorted: a VorbisCodebookNumberFrequenciesDecorator-style
// wrapper sorts by increasing frequency (ties broken by original index,
// for reproducibility) before handing weights to the core algorithm and
// maps the resulting lengths back to the caller's original order.
func optimalLengths(freqs []uint64, maxLength int) ([]int, error) {
	n := len(freqs)
	if n == 0 {
		return nil, nil
	}
	if n == 1 {
		return []int{1}, nil
	}
	if n > 1<<uint(maxLength) {
		return nil, errKraftInfeasible
	}

	order := sortedFrequencyIndexAscending(freqs)
	sortedFreqs := make([]uint64, n)
	for i, j := range order {
		sortedFreqs[i] = freqs[j]
	}

	leaves := make([]pkgMergeItem, n)
	for i, w := range sortedFreqs {
		leaves[i] = pkgMergeItem{weight: w, symbols: []int{i}}
	}

	list := leaves
	for level := 2; level <= maxLength; level++ {
		list = mergeSortedPackages(pairUpPackages(list), leaves)
	}

	take := 2*n - 2
	if take > len(list) {
		take = len(list)
	}
	counts := make([]int, n)
	for _, p := range list[:take] {
		for _, s := range p.symbols {
			counts[s]++
		}
	}

	lengths := make([]int, n)
	for i, j := range order {
		lengths[j] = counts[i]
	}
	return lengths, nil
}

type huffmanError string

func (e huffmanError) Error() string { return string(e) }

const errKraftInfeasible huffmanError = "more symbols than fit in a maxLength-deep binary tree"

// pkgMergeItem is one package in the package-merge construction: a set
// of original leaf indices bundled together, carrying their combined
// weight.
type pkgMergeItem struct {
	weight  uint64
	symbols []int
}

// pairUpPackages combines consecutive pairs from an already
// weight-sorted list into merged packages. An odd trailing element is
// dropped, as package-merge requires.
func pairUpPackages(list []pkgMergeItem) []pkgMergeItem {
	m := len(list) / 2
	out := make([]pkgMergeItem, m)
	for i := 0; i < m; i++ {
		a, b := list[2*i], list[2*i+1]
		symbols := make([]int, 0, len(a.symbols)+len(b.symbols))
		symbols = append(symbols, a.symbols...)
		symbols = append(symbols, b.symbols...)
		out[i] = pkgMergeItem{weight: a.weight + b.weight, symbols: symbols}
	}
	return out
}

// mergeSortedPackages merges two weight-ascending package lists into one.
func mergeSortedPackages(a, b []pkgMergeItem) []pkgMergeItem {
	out := make([]pkgMergeItem, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].weight <= b[j].weight {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// sortedFrequencyIndexAscending returns the indices of freqs sorted by
// increasing frequency, ties broken by increasing original index.
func sortedFrequencyIndexAscending(freqs []uint64) []int {
	idx := make([]int, len(freqs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if freqs[idx[a]] != freqs[idx[b]] {
			return freqs[idx[a]] < freqs[idx[b]]
		}
		return idx[a] < idx[b]
	})
	return idx
}
