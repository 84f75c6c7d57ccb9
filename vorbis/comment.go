package vorbis

import (
	"encoding/binary"

	"go.uber.org/zap"
)

// VendorStringAction selects how the output comment header's vendor
// string is derived from the input's.
type VendorStringAction int

const (
	// VendorStringCopy carries the original vendor string through
	// unchanged (or empty, if the original comment header hit
	// end-of-packet before the vendor string could be read).
	VendorStringCopy VendorStringAction = iota
	// VendorStringReplace substitutes a short, fixed identifying
	// string, improving interoperability with decoders that choke on
	// an original vendor string containing invalid UTF-8.
	VendorStringReplace
	// VendorStringAppendTag appends a full identifying tag to the
	// original vendor string.
	VendorStringAppendTag
	// VendorStringAppendShortTag appends an abbreviated identifying tag
	// to the original vendor string.
	VendorStringAppendShortTag
	// VendorStringEmpty discards the vendor string entirely.
	VendorStringEmpty
)

// CommentFieldsAction selects how the output comment header's user
// comment list is derived from the input's.
type CommentFieldsAction int

const (
	// CommentFieldsCopy carries every user comment through unchanged.
	CommentFieldsCopy CommentFieldsAction = iota
	// CommentFieldsDelete removes all user comments, which also
	// incidentally discards any comment containing invalid UTF-8.
	CommentFieldsDelete
)

// versionTag and shortVersionTag are appended to the vendor string by
// VendorStringAppendTag/VendorStringAppendShortTag, and used wholesale
// by VendorStringReplace.
const (
	versionTag      = "optivorbis-go"
	shortVersionTag = "ov-go"
)

// Comment is the parsed contents of a Vorbis comment header (packet
// type 3): a vendor string plus an arbitrary list of "FIELD=value"
// user comments.
type Comment struct {
	VendorString []byte
	UserComments [][]byte
	// HitEndOfPacket records whether parsing stopped early because the
	// packet ran out of bits — a non-fatal condition per the Vorbis I
	// specification, but one worth logging.
	HitEndOfPacket bool
}

// ParseComment parses a raw comment header packet. An end-of-packet
// condition anywhere in the body is treated as non-fatal: parsing
// stops and whatever was read so far (possibly nothing) is returned,
// matching the specification's "non-fatal error condition" wording for
// a truncated comment header.
func ParseComment(packet []byte, logger *zap.Logger) (*Comment, error) {
	if len(packet) < 7 {
		return nil, &HeaderMalformedError{Header: "comment", Reason: "packet too short"}
	}
	if PacketType(packet[0]) != PacketTypeCommentHdr {
		return nil, &UnexpectedPacketTypeError{Expected: PacketTypeCommentHdr, Actual: PacketType(packet[0])}
	}
	if string(packet[1:7]) != string(vorbisMagic[:]) {
		return nil, &HeaderMalformedError{Header: "comment", Reason: "missing vorbis magic"}
	}

	c := &Comment{}
	pos := 7

	readLen := func() (int, bool) {
		if pos+4 > len(packet) {
			return 0, false
		}
		n := int(binary.LittleEndian.Uint32(packet[pos : pos+4]))
		pos += 4
		return n, true
	}

	vendorLen, ok := readLen()
	if !ok {
		c.HitEndOfPacket = true
		logger.Warn("comment header ended before vendor string length")
		return c, nil
	}
	if pos+vendorLen > len(packet) {
		c.HitEndOfPacket = true
		logger.Warn("comment header ended inside vendor string")
		return c, nil
	}
	c.VendorString = packet[pos : pos+vendorLen]
	pos += vendorLen

	count, ok := readLen()
	if !ok {
		c.HitEndOfPacket = true
		logger.Warn("comment header ended before user comment count")
		return c, nil
	}

	for i := 0; i < count; i++ {
		n, ok := readLen()
		if !ok || pos+n > len(packet) {
			c.HitEndOfPacket = true
			logger.Warn("comment header ended mid user comment", zap.Int("index", i))
			return c, nil
		}
		c.UserComments = append(c.UserComments, packet[pos:pos+n])
		pos += n
	}

	// The trailing framing bit is tolerated but not strictly required
	// here; a missing or malformed byte at this point is still a
	// complete, usable comment header.
	return c, nil
}

// WriteComment fully regenerates a comment header packet from scratch —
// cheaper and simpler than patching one in place — applying the
// configured vendor string and comment field actions.
func WriteComment(c *Comment, vendorAction VendorStringAction, commentAction CommentFieldsAction) []byte {
	vendor := resolveVendorString(c.VendorString, vendorAction)

	var comments [][]byte
	if commentAction == CommentFieldsCopy {
		comments = c.UserComments
	}

	size := 7 + 4 + len(vendor) + 4
	for _, cm := range comments {
		size += 4 + len(cm)
	}
	size++ // framing byte

	out := make([]byte, size)
	out[0] = byte(PacketTypeCommentHdr)
	copy(out[1:7], vorbisMagic[:])
	pos := 7

	binary.LittleEndian.PutUint32(out[pos:pos+4], uint32(len(vendor)))
	pos += 4
	copy(out[pos:], vendor)
	pos += len(vendor)

	binary.LittleEndian.PutUint32(out[pos:pos+4], uint32(len(comments)))
	pos += 4
	for _, cm := range comments {
		binary.LittleEndian.PutUint32(out[pos:pos+4], uint32(len(cm)))
		pos += 4
		copy(out[pos:], cm)
		pos += len(cm)
	}
	out[pos] = 1 // framing bit
	return out
}

func resolveVendorString(original []byte, action VendorStringAction) []byte {
	switch action {
	case VendorStringCopy:
		return original
	case VendorStringReplace:
		return []byte(versionTag)
	case VendorStringAppendTag:
		return appendTag(original, versionTag)
	case VendorStringAppendShortTag:
		return appendTag(original, shortVersionTag)
	case VendorStringEmpty:
		return nil
	default:
		return original
	}
}

func appendTag(original []byte, tag string) []byte {
	if len(original) == 0 {
		return []byte(tag)
	}
	out := make([]byte, 0, len(original)+1+len(tag))
	out = append(out, original...)
	out = append(out, ' ')
	out = append(out, tag...)
	return out
}
