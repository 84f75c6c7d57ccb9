package remuxer

import "github.com/optivorbis/optivorbis-go/vorbis"

// Mangler is a pluggable hook invoked once per logical bitstream during
// pass 2, giving a caller a chance to rewrite stream metadata beyond
// what Settings' fixed vendor-string and comment-field policies cover —
// injecting an organization-specific comment tag, for instance.
type Mangler interface {
	// MangleIdentification is called with the parsed identification
	// header before it is re-serialized. Mutate id in place.
	MangleIdentification(id *vorbis.Identification)
	// MangleComment is called with the parsed comment header before
	// VendorStringAction/CommentFieldsAction are applied and it is
	// re-serialized. Mutate c in place.
	MangleComment(c *vorbis.Comment)
}

// NoopMangler implements Mangler by changing nothing.
type NoopMangler struct{}

func (NoopMangler) MangleIdentification(*vorbis.Identification) {}
func (NoopMangler) MangleComment(*vorbis.Comment)                {}
