package vorbis

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
)

func buildComment(vendor string, userComments ...string) []byte {
	c := &Comment{VendorString: []byte(vendor)}
	for _, uc := range userComments {
		c.UserComments = append(c.UserComments, []byte(uc))
	}
	return WriteComment(c, VendorStringCopy, CommentFieldsCopy)
}

func TestCommentRoundTrip(t *testing.T) {
	packet := buildComment("libvorbis 1.3.7", "ARTIST=Test", "TITLE=Song")
	c, err := ParseComment(packet, zap.NewNop())
	if err != nil {
		t.Fatalf("ParseComment: %v", err)
	}
	if c.HitEndOfPacket {
		t.Error("HitEndOfPacket should be false for a well-formed packet")
	}
	if !bytes.Equal(c.VendorString, []byte("libvorbis 1.3.7")) {
		t.Errorf("vendor string = %q", c.VendorString)
	}
	if len(c.UserComments) != 2 {
		t.Fatalf("got %d user comments, want 2", len(c.UserComments))
	}
	if !bytes.Equal(c.UserComments[0], []byte("ARTIST=Test")) || !bytes.Equal(c.UserComments[1], []byte("TITLE=Song")) {
		t.Errorf("user comments = %q", c.UserComments)
	}
}

func TestParseCommentTruncatedIsNonFatal(t *testing.T) {
	packet := buildComment("vendor", "ARTIST=Test", "TITLE=Song")
	truncated := packet[:len(packet)-3]
	c, err := ParseComment(truncated, zap.NewNop())
	if err != nil {
		t.Fatalf("ParseComment returned an error for a truncated but otherwise valid packet: %v", err)
	}
	if !c.HitEndOfPacket {
		t.Error("HitEndOfPacket should be true for a truncated packet")
	}
}

func TestParseCommentRejectsBadMagic(t *testing.T) {
	packet := buildComment("vendor")
	packet[2] = 'X'
	if _, err := ParseComment(packet, zap.NewNop()); err == nil {
		t.Error("expected an error for corrupted magic")
	}
}

func TestWriteCommentVendorStringActions(t *testing.T) {
	c := &Comment{VendorString: []byte("original vendor")}

	if out := resolveVendorString(c.VendorString, VendorStringCopy); !bytes.Equal(out, c.VendorString) {
		t.Errorf("VendorStringCopy = %q", out)
	}
	if out := resolveVendorString(c.VendorString, VendorStringReplace); string(out) != versionTag {
		t.Errorf("VendorStringReplace = %q, want %q", out, versionTag)
	}
	if out := resolveVendorString(c.VendorString, VendorStringEmpty); len(out) != 0 {
		t.Errorf("VendorStringEmpty = %q, want empty", out)
	}
	if out := resolveVendorString(c.VendorString, VendorStringAppendTag); string(out) != "original vendor "+versionTag {
		t.Errorf("VendorStringAppendTag = %q", out)
	}
	if out := resolveVendorString(c.VendorString, VendorStringAppendShortTag); string(out) != "original vendor "+shortVersionTag {
		t.Errorf("VendorStringAppendShortTag = %q", out)
	}
}

func TestWriteCommentFieldsDeleteDropsUserComments(t *testing.T) {
	c := &Comment{VendorString: []byte("vendor"), UserComments: [][]byte{[]byte("ARTIST=Test")}}
	out := WriteComment(c, VendorStringCopy, CommentFieldsDelete)
	reparsed, err := ParseComment(out, zap.NewNop())
	if err != nil {
		t.Fatalf("ParseComment: %v", err)
	}
	if len(reparsed.UserComments) != 0 {
		t.Errorf("got %d user comments, want 0", len(reparsed.UserComments))
	}
}
