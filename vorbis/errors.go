package vorbis

import "fmt"

// UnexpectedPacketTypeError indicates a header packet's type byte did
// not match what the caller expected to read next (identification,
// then comment, then setup).
type UnexpectedPacketTypeError struct {
	Expected PacketType
	Actual   PacketType
}

func (e *UnexpectedPacketTypeError) Error() string {
	return fmt.Sprintf("vorbis: expected %s packet, got %s", e.Expected, e.Actual)
}

// HeaderMalformedError indicates a header packet violated a structural
// invariant: bad magic, a framing bit that was required to be set but
// was clear, or a field whose value cannot be represented.
type HeaderMalformedError struct {
	Header string // "identification", "comment", or "setup"
	Reason string
}

func (e *HeaderMalformedError) Error() string {
	return fmt.Sprintf("vorbis: malformed %s header: %s", e.Header, e.Reason)
}

// UnsupportedFeatureError indicates the bitstream used a Vorbis I
// feature this implementation does not support, most notably floor
// type 0.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("vorbis: unsupported feature: %s", e.Feature)
}

// CodebookInvalidError indicates a codebook failed a structural check:
// a non-uniquely-decodable code, a Kraft inequality violation, or an
// out-of-range entry reference during decode.
type CodebookInvalidError struct {
	Codebook int
	Reason   string
}

func (e *CodebookInvalidError) Error() string {
	return fmt.Sprintf("vorbis: codebook %d invalid: %s", e.Codebook, e.Reason)
}

// InvalidCodebookDimensionError indicates a residue referenced a
// codebook whose dimension does not evenly divide the residue's
// partition size, as Vorbis I requires.
type InvalidCodebookDimensionError struct {
	Codebook                     int
	Dimensions                   int
	ExpectedDimensionsMultipleOf int
}

func (e *InvalidCodebookDimensionError) Error() string {
	return fmt.Sprintf(
		"vorbis: codebook %d has dimension %d, expected a divisor of %d",
		e.Codebook, e.Dimensions, e.ExpectedDimensionsMultipleOf,
	)
}

// ScalarCodebookUsedInVectorContextError indicates a residue pass
// referenced a codebook with no vector lookup table (LookupNone) in a
// context that decodes it as a vector of residue.PartitionSize/
// cb.Dimensions values, which only a VQ codebook can do.
type ScalarCodebookUsedInVectorContextError struct {
	Codebook int
}

func (e *ScalarCodebookUsedInVectorContextError) Error() string {
	return fmt.Sprintf("vorbis: codebook %d has no vector lookup table but is used in a residue vector context", e.Codebook)
}

// InvalidChannelMappingError indicates a mapping's channel-coupling
// declaration referenced a magnitude/angle channel pair outside the
// stream's declared channel count.
type InvalidChannelMappingError struct {
	MagnitudeChannel int
	AngleChannel     int
	AudioChannels    int
}

func (e *InvalidChannelMappingError) Error() string {
	return fmt.Sprintf(
		"vorbis: channel mapping (magnitude=%d, angle=%d) invalid for %d audio channels",
		e.MagnitudeChannel, e.AngleChannel, e.AudioChannels,
	)
}

// OptimizationInfeasibleError indicates no length-limited prefix code
// exists for a codebook's usage counts under the 32-bit codeword
// length ceiling Vorbis I imposes. This is a theoretical safeguard:
// it requires more used entries than fit in a depth-32 binary tree.
type OptimizationInfeasibleError struct {
	Codebook   int
	UsedEntries int
}

func (e *OptimizationInfeasibleError) Error() string {
	return fmt.Sprintf(
		"vorbis: codebook %d has %d used entries, too many for a 32-bit-limited code",
		e.Codebook, e.UsedEntries,
	)
}
