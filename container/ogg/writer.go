package ogg

import "io"

// perStreamWriter tracks the page-building state for one output logical
// bitstream: its serial, running page sequence number, and the segments
// accumulated for the page currently being assembled.
type perStreamWriter struct {
	serial      uint32
	pageSeq     uint32
	segments    []byte
	payload     []byte
	granulePos  uint64
	bosWritten  bool
	eosWritten  bool
	pendingFlag byte // header-type flags to apply to the page once flushed
}

// maxPageBytes bounds how large a single page's payload may grow before
// it is flushed, keeping pages well under the 65307-byte ceiling a
// 255-entry segment table implies.
const maxPageBytes = 255 * 250

// Writer packs packets from one or more logical bitstreams into Ogg
// pages, favoring tightly packed pages (many packets per page) over
// the one-packet-per-page layout a low-latency streaming encoder would
// choose, since an offline rewriter has no latency constraint to honor.
type Writer struct {
	w       io.Writer
	streams map[uint32]*perStreamWriter
	closed  bool
}

// NewWriter creates a Writer that emits pages to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, streams: make(map[uint32]*perStreamWriter)}
}

func (ow *Writer) stream(serial uint32) *perStreamWriter {
	st := ow.streams[serial]
	if st == nil {
		st = &perStreamWriter{serial: serial}
		ow.streams[serial] = st
	}
	return st
}

// PageBoundary selects how WritePacket should terminate the current
// page after the packet it is given has been appended.
type PageBoundary int

const (
	// ContinuePage keeps packing subsequent packets onto the same page
	// so long as it has not grown past the size limit.
	ContinuePage PageBoundary = iota
	// EndPage flushes the current page immediately after this packet,
	// without marking the logical bitstream finished.
	EndPage
	// EndStream flushes the current page and marks the logical
	// bitstream's final page with the EOS flag.
	EndStream
)

// WritePacket appends packet to the named stream's in-progress page,
// marking the page with the BOS flag if this is that stream's first
// packet, and flushes the page according to boundary.
func (ow *Writer) WritePacket(serial uint32, packet []byte, granulePos uint64, boundary PageBoundary) error {
	if ow.closed {
		return ErrUnexpectedEOS
	}
	st := ow.stream(serial)
	if !st.bosWritten {
		st.pendingFlag |= PageFlagBOS
	}

	segs := BuildSegmentTable(len(packet))
	if len(st.segments) > 0 && (len(st.segments)+len(segs) > 255 || len(st.payload)+len(packet) > maxPageBytes) {
		// The packet does not fit beside what is already pending.
		if err := ow.flush(st); err != nil {
			return err
		}
	}
	st.segments = append(st.segments, segs...)
	st.payload = append(st.payload, packet...)
	st.granulePos = granulePos

	switch boundary {
	case EndStream:
		st.pendingFlag |= PageFlagEOS
		if err := ow.flush(st); err != nil {
			return err
		}
		st.eosWritten = true
	case EndPage:
		if err := ow.flush(st); err != nil {
			return err
		}
	case ContinuePage:
		if len(st.payload) >= maxPageBytes || len(st.segments) > 250 {
			if err := ow.flush(st); err != nil {
				return err
			}
		}
	}
	return nil
}

// flush emits whatever has accumulated on st as one Ogg page, even if
// empty (used to emit a trailing empty EOS page).
func (ow *Writer) flush(st *perStreamWriter) error {
	page := &Page{
		Version:      0,
		HeaderType:   st.pendingFlag,
		GranulePos:   st.granulePos,
		SerialNumber: st.serial,
		PageSequence: st.pageSeq,
		Segments:     st.segments,
		Payload:      st.payload,
	}
	if len(page.Segments) == 0 {
		page.Segments = []byte{0}
	}
	if len(page.Segments) > 255 {
		// A single packet too large for one page; packets are never
		// split across pages.
		return ErrPageTooLarge
	}
	encoded := page.Encode()
	if _, err := ow.w.Write(encoded); err != nil {
		return err
	}
	st.pageSeq++
	st.bosWritten = true
	st.pendingFlag = 0
	st.segments = nil
	st.payload = nil
	return nil
}

// Close flushes any partially filled pages for every stream that has
// not yet been terminated with EndStream, forcing the EOS flag on each.
func (ow *Writer) Close() error {
	if ow.closed {
		return nil
	}
	for _, st := range ow.streams {
		if st.eosWritten {
			continue
		}
		st.pendingFlag |= PageFlagEOS
		if err := ow.flush(st); err != nil {
			return err
		}
	}
	ow.closed = true
	return nil
}
