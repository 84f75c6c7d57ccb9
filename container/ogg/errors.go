package ogg

import "errors"

// Package-level errors for Ogg page parsing and encoding.
var (
	// ErrInvalidPage indicates the page structure is malformed.
	// This covers missing "OggS" magic and data too short to hold the
	// 27-byte page header.
	ErrInvalidPage = errors.New("ogg: invalid page structure")

	// ErrTruncatedPage indicates a page's header announced more segment
	// table or payload bytes than were actually available.
	ErrTruncatedPage = errors.New("ogg: truncated page")

	// ErrBadCRC indicates the page CRC checksum does not match the computed value.
	// This typically indicates data corruption.
	ErrBadCRC = errors.New("ogg: CRC mismatch")

	// ErrUnsupportedVersion indicates a page declared a stream structure
	// version other than 0, the only version this package understands.
	ErrUnsupportedVersion = errors.New("ogg: unsupported stream structure version")

	// ErrPageTooLarge indicates a page would exceed the format's hard
	// ceiling of 65307 bytes (27-byte header + 255-byte segment table +
	// 255*255 bytes of payload).
	ErrPageTooLarge = errors.New("ogg: page exceeds maximum size")

	// ErrUnexpectedEOS indicates the stream ended unexpectedly.
	// Reader returns it when the input ends inside a page; Writer
	// returns it when WritePacket is called after Close.
	ErrUnexpectedEOS = errors.New("ogg: unexpected end of stream")

	// ErrSerialAlreadyClosed indicates a page arrived for a stream serial
	// whose end-of-stream page was already seen.
	ErrSerialAlreadyClosed = errors.New("ogg: page for already-closed stream serial")
)
