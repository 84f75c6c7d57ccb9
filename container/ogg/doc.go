// Package ogg implements the Ogg container format (RFC 3533) used to
// encapsulate Vorbis I logical bitstreams.
//
// The Ogg format uses pages as atomic units of data, where each page
// contains:
//   - A 27-byte header with magic signature "OggS"
//   - A segment table describing packet boundaries
//   - Payload data containing one or more packets
//   - CRC-32 checksum for data integrity verification
//
// Unlike a single-stream demultiplexer, Reader tracks one reassembly
// buffer per stream serial number so a container holding several
// chained or (at the container level) interleaved logical bitstreams
// can be read without losing track of any of them.
//
// # Page Structure
//
//	Bytes 0-3:   "OggS" capture pattern (magic signature)
//	Byte 4:      Stream structure version (always 0)
//	Byte 5:      Header type flags (continuation, BOS, EOS)
//	Bytes 6-13:  Granule position (samples decoded so far, LE)
//	Bytes 14-17: Bitstream serial number
//	Bytes 18-21: Page sequence number
//	Bytes 22-25: CRC checksum
//	Byte 26:     Number of segments
//	Bytes 27+:   Segment table (one byte per segment)
//	Remaining:   Page payload data
//
// # Segment Table
//
// Packets are split into segments of up to 255 bytes each. A segment
// value of 255 indicates the packet continues in the next segment. A
// value less than 255 marks the end of a packet.
//
// Example: A 600-byte packet uses segments [255, 255, 90] (255+255+90=600).
//
// # CRC Calculation
//
// Ogg uses CRC-32 with polynomial 0x04C11DB7 (NOT the IEEE polynomial
// used by hash/crc32). The CRC is computed over the entire page with
// the CRC field set to zero.
//
// # References
//
//   - RFC 3533: The Ogg Encapsulation Format Version 0
//   - Vorbis I specification, section 4: Codec Setup and Packet Decode
package ogg
