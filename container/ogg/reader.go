package ogg

import "io"

// readerBufferSize is the initial size of the internal read buffer.
const readerBufferSize = 64 * 1024 // 64KB

// streamState is the per-serial reassembly state a Reader keeps so
// that several logical bitstreams can be demultiplexed concurrently
// without losing track of any of them. Unlike a package-level variable,
// this lives on the Reader and is therefore safe for independent Reader
// instances to use from independent goroutines.
type streamState struct {
	partial []byte // bytes of a packet still awaiting its terminating segment
	started bool   // BOS page for this serial has been seen
	bosSeen bool   // the BOS-tagged packet has already been emitted
	closed  bool   // EOS page for this serial has been seen
}

// Packet is one Vorbis (or other Ogg-carried) packet recovered from the
// container, tagged with the stream it belongs to and the page-level
// metadata needed to track granule positions and stream boundaries.
type Packet struct {
	Serial     uint32
	Data       []byte
	GranulePos uint64 // granule position of the page this packet completed on
	BOS        bool   // this packet is the first of its logical bitstream
	EOS        bool   // the page this packet completed on carried the EOS flag
}

// Reader demultiplexes an arbitrary number of interleaved Ogg logical
// bitstreams from a single byte stream, yielding packets in the order
// their terminating segment is read off the wire.
type Reader struct {
	r            io.Reader
	pageBuffer   []byte
	bufferOffset int
	bufferLen    int
	streams      map[uint32]*streamState
	// pending holds packets already split out of the most recently
	// parsed page but not yet returned to the caller.
	pending []Packet
}

// NewReader creates a Reader over r. No data is consumed until the
// first call to NextPacket.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:          r,
		pageBuffer: make([]byte, readerBufferSize),
		streams:    make(map[uint32]*streamState),
	}
}

// NextPacket returns the next complete packet across all demultiplexed
// streams. Returns io.EOF when the underlying reader is exhausted and
// no more complete packets remain.
func (or *Reader) NextPacket() (Packet, error) {
	for len(or.pending) == 0 {
		page, err := or.readPage()
		if err != nil {
			return Packet{}, err
		}
		or.consumePage(page)
	}
	pkt := or.pending[0]
	or.pending = or.pending[1:]
	return pkt, nil
}

// consumePage splits a page into complete packets, stitching together
// any in-flight continuation for that page's serial, and appends the
// results to the pending queue.
func (or *Reader) consumePage(page *Page) {
	st := or.streams[page.SerialNumber]
	if st == nil {
		st = &streamState{}
		or.streams[page.SerialNumber] = st
	}
	if st.closed {
		// Pages for a serial whose EOS was already seen are discarded.
		return
	}
	if page.IsBOS() {
		st.started = true
	}

	lengths := page.PacketLengths()
	offset := 0
	// lengths lists only the runs that end on this page; when the last
	// segment is 255, the payload bytes after them form one trailing run
	// that continues onto a future page.
	lastContinues := len(page.Segments) > 0 && page.Segments[len(page.Segments)-1] == 255

	if page.IsContinuation() && len(st.partial) == 0 {
		// A continuation page with nothing to continue: the producer
		// lost the start of this packet (e.g. we began reading mid
		// stream). Drop the first run, since it cannot be completed.
		if len(lengths) == 0 {
			return
		}
		offset = lengths[0]
		lengths = lengths[1:]
	} else if len(st.partial) > 0 {
		if len(lengths) == 0 {
			// The whole page continues the pending packet.
			st.partial = append(st.partial, page.Payload...)
			if !lastContinues {
				or.emit(page, st, st.partial, false)
				st.partial = nil
			}
			return
		}
		first := lengths[0]
		st.partial = append(st.partial, page.Payload[:first]...)
		offset = first
		lengths = lengths[1:]
		or.emit(page, st, st.partial, len(lengths) == 0 && !lastContinues)
		st.partial = nil
	}

	for i, length := range lengths {
		data := page.Payload[offset : offset+length]
		offset += length
		or.emit(page, st, data, i == len(lengths)-1 && !lastContinues)
	}
	if lastContinues {
		st.partial = append(st.partial[:0:0], page.Payload[offset:]...)
	}

	if len(lengths) == 0 && offset == 0 && len(page.Payload) == 0 && page.IsEOS() {
		// Empty EOS page (common as a trailer): mark the stream closed
		// even though it carries no packet data.
		st.closed = true
	}
}

// emit appends one reconstructed packet to the pending queue, tagging
// it with BOS/EOS/granule metadata. Only the segment-table-final run
// on an EOS page is tagged EOS, matching the page's own semantics.
func (or *Reader) emit(page *Page, st *streamState, data []byte, isFinalOnPage bool) {
	bos := st.started && !st.announcedBOS()
	eos := isFinalOnPage && page.IsEOS()
	if eos {
		st.closed = true
	}
	pkt := Packet{
		Serial:     page.SerialNumber,
		Data:       append([]byte(nil), data...),
		GranulePos: page.GranulePos,
		BOS:        bos,
		EOS:        eos,
	}
	or.pending = append(or.pending, pkt)
	if bos {
		st.bosSeen = true
	}
}

// announcedBOS reports whether the BOS-tagged packet for this stream
// has already been handed to the caller.
func (st *streamState) announcedBOS() bool {
	return st.bosSeen
}

// readPage reads the next Ogg page from the underlying reader,
// buffering and growing its scratch buffer as needed.
func (or *Reader) readPage() (*Page, error) {
	for {
		if or.bufferLen > or.bufferOffset {
			page, consumed, err := ParsePage(or.pageBuffer[or.bufferOffset:or.bufferLen])
			if err == nil {
				or.bufferOffset += consumed
				return page, nil
			}
			if err != ErrTruncatedPage && err != ErrInvalidPage {
				return nil, err
			}
		}

		if or.bufferOffset > 0 {
			remaining := or.bufferLen - or.bufferOffset
			copy(or.pageBuffer, or.pageBuffer[or.bufferOffset:or.bufferLen])
			or.bufferLen = remaining
			or.bufferOffset = 0
		}

		if or.bufferLen >= len(or.pageBuffer) {
			newBuffer := make([]byte, len(or.pageBuffer)*2)
			copy(newBuffer, or.pageBuffer[:or.bufferLen])
			or.pageBuffer = newBuffer
		}

		n, err := or.r.Read(or.pageBuffer[or.bufferLen:])
		if n > 0 {
			or.bufferLen += n
		}
		if err != nil {
			if err == io.EOF && or.bufferLen > or.bufferOffset {
				page, consumed, parseErr := ParsePage(or.pageBuffer[or.bufferOffset:or.bufferLen])
				if parseErr == nil {
					or.bufferOffset += consumed
					return page, nil
				}
				return nil, ErrUnexpectedEOS
			}
			return nil, err
		}
	}
}
