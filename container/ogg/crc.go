package ogg

// Ogg CRC-32 uses polynomial 0x04C11DB7, not the IEEE polynomial
// hash/crc32 is built around, so the table and update loop are
// hand-rolled rather than parameterizing the standard library.

var oggCRCTable [256]uint32

func init() {
	const poly = uint32(0x04C11DB7)
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		oggCRCTable[i] = crc
	}
}

// oggCRCUpdate folds data into a running CRC, letting a caller checksum
// a page's header, zeroed CRC field, and payload as three separate
// spans without concatenating them into one buffer first.
func oggCRCUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

// oggCRCZero is the four-byte span substituted for a page's CRC field
// while checksumming it, per the format's "compute with the CRC field
// cleared" rule.
var oggCRCZero = [4]byte{}

// oggCRC checksums a complete, already-CRC-zeroed buffer in one pass.
// Kept for callers (Encode) that build the buffer with the CRC field
// already zero and don't need the split form.
func oggCRC(data []byte) uint32 {
	return oggCRCUpdate(0, data)
}
