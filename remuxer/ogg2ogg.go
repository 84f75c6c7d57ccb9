package remuxer

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	mathrand "math/rand/v2"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/optivorbis/optivorbis-go/container/ogg"
	"github.com/optivorbis/optivorbis-go/vorbis"
)

// streamPhase tracks which header packet a logical bitstream expects
// next; every Vorbis logical bitstream begins with exactly this
// sequence before any audio packet.
type streamPhase int

const (
	phaseIdentification streamPhase = iota
	phaseComment
	phaseSetup
	phaseAudio
)

// vorbisStream carries one logical bitstream's parsed headers from
// pass 1 into pass 2, plus the state pass 2 accumulates as it
// re-emits that stream's packets.
type vorbisStream struct {
	serial         uint32
	outputSerial   uint32
	identification *vorbis.Identification
	comment        *vorbis.Comment
	setup          *vorbis.Setup

	granulator Granulator
}

// Remux performs the two-pass rewrite: pass 1 scans source to collect
// every logical bitstream's header structure and each codebook's entry
// usage counts, then pass 2 re-reads source from the beginning and
// writes the optimized bitstream to sink. source must be seekable so
// pass 2 can restart from the beginning.
func Remux(ctx context.Context, source io.ReadSeeker, sink io.Writer, settings Settings) error {
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	streams, order, err := firstPass(ctx, source, logger)
	if err != nil {
		return err
	}
	if len(streams) == 0 {
		if settings.ErrorOnNoVorbisStreams {
			return ErrNoVorbisStreams
		}
		logger.Info("no vorbis logical bitstreams found; nothing to remux")
		return nil
	}

	for _, serial := range order {
		st := streams[serial]
		for _, cb := range st.setup.Codebooks {
			if err := cb.Optimize(); err != nil {
				return &VorbisError{Serial: st.serial, Err: err}
			}
		}
	}

	if err := assignOutputSerials(streams, order, settings); err != nil {
		return err
	}

	return secondPass(ctx, source, sink, streams, settings, logger)
}

// assignOutputSerials picks each output logical bitstream's serial
// number, either drawn from a ChaCha8 stream seeded per Settings or
// derived deterministically from the original serial.
func assignOutputSerials(streams map[uint32]*vorbisStream, order []uint32, settings Settings) error {
	if !settings.RandomizeStreamSerials {
		for _, serial := range order {
			streams[serial].outputSerial = serial + settings.FirstStreamSerialOffset
		}
		return nil
	}
	source, err := newSerialSource()
	if err != nil {
		return err
	}
	for _, serial := range order {
		streams[serial].outputSerial = uint32(source.Uint64())
	}
	return nil
}

// newSerialSource seeds a ChaCha8 stream either from SOURCE_DATE_EPOCH,
// for bit-for-bit reproducible output, or from the operating system's
// CSPRNG otherwise.
func newSerialSource() (*mathrand.ChaCha8, error) {
	if v, ok := os.LookupEnv("SOURCE_DATE_EPOCH"); ok {
		epoch, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &InvalidSourceDateEpochError{Value: v}
		}
		var seed [32]byte
		binary.LittleEndian.PutUint64(seed[:8], uint64(epoch))
		return mathrand.NewChaCha8(seed), nil
	}
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		return nil, err
	}
	return mathrand.NewChaCha8(seed), nil
}

// pendingStream is the per-serial parse state firstPass keeps while
// walking the source container exactly once.
type pendingStream struct {
	phase          streamPhase
	identification *vorbis.Identification
}

// firstPass demultiplexes source, recognizing each logical bitstream's
// header sequence and driving every audio packet through
// vorbis.RecordAudioPacket so each referenced codebook accumulates
// usage counts. It rejects any container in which a logical bitstream
// begins while a Vorbis one is still open. A logical bitstream whose
// first packet is not a valid Vorbis identification header is skipped
// and left out of the result.
func firstPass(ctx context.Context, source io.ReadSeeker, logger *zap.Logger) (map[uint32]*vorbisStream, []uint32, error) {
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}
	r := ogg.NewReader(source)

	pending := make(map[uint32]*pendingStream)
	result := make(map[uint32]*vorbisStream)
	var order []uint32
	open := make(map[uint32]bool)
	ignored := make(map[uint32]bool)

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		pkt, err := r.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &OggError{Err: err}
		}

		if pkt.BOS {
			if len(open) > 0 {
				return nil, nil, ErrUnsupportedStreamMultiplexing
			}
			open[pkt.Serial] = true
			pending[pkt.Serial] = &pendingStream{}
		}
		if ignored[pkt.Serial] {
			continue
		}

		ps := pending[pkt.Serial]
		if ps == nil {
			return nil, nil, &OggError{Serial: pkt.Serial, Err: errors.New("packet for a stream never opened with a BOS page")}
		}

		switch ps.phase {
		case phaseIdentification:
			id, err := vorbis.ParseIdentification(pkt.Data)
			if err != nil {
				// Not a Vorbis logical bitstream: skip all of its packets.
				ignored[pkt.Serial] = true
				delete(open, pkt.Serial)
				continue
			}
			ps.identification = id
			ps.phase = phaseComment

		case phaseComment:
			c, err := vorbis.ParseComment(pkt.Data, logger)
			if err != nil {
				return nil, nil, &VorbisError{Serial: pkt.Serial, Err: err}
			}
			ps.phase = phaseSetup
			result[pkt.Serial] = &vorbisStream{
				serial:         pkt.Serial,
				identification: ps.identification,
				comment:        c,
			}

		case phaseSetup:
			st := result[pkt.Serial]
			s, err := vorbis.ParseSetup(pkt.Data, int(st.identification.Channels))
			if err != nil {
				return nil, nil, &VorbisError{Serial: pkt.Serial, Err: err}
			}
			st.setup = s
			ps.phase = phaseAudio
			order = append(order, pkt.Serial)

		case phaseAudio:
			st := result[pkt.Serial]
			if err := vorbis.RecordAudioPacket(pkt.Data, st.setup, st.identification, int(st.identification.Channels)); err != nil {
				logger.Warn("audio packet could not be parsed for codebook usage", zap.Uint32("serial", pkt.Serial), zap.Error(err))
			}
		}

		if pkt.EOS {
			delete(open, pkt.Serial)
		}
	}

	return result, order, nil
}

// secondPass re-reads source from the beginning, re-serializing every
// header and audio packet of every logical bitstream firstPass
// recognized, and writes the result to sink.
func secondPass(ctx context.Context, source io.ReadSeeker, sink io.Writer, streams map[uint32]*vorbisStream, settings Settings, logger *zap.Logger) error {
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r := ogg.NewReader(source)
	w := ogg.NewWriter(sink)

	phase := make(map[uint32]streamPhase)
	packetIndex := make(map[uint32]int)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, err := r.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &OggError{Err: err}
		}

		st, ok := streams[pkt.Serial]
		if !ok {
			continue
		}

		boundary := ogg.ContinuePage
		if pkt.EOS {
			boundary = ogg.EndStream
		}

		switch phase[pkt.Serial] {
		case phaseIdentification:
			if boundary == ogg.ContinuePage {
				boundary = ogg.EndPage
			}
			settings.Mangler.MangleIdentification(st.identification)
			out := vorbis.WriteIdentification(st.identification)
			if err := w.WritePacket(st.outputSerial, out, 0, boundary); err != nil {
				return err
			}
			phase[pkt.Serial] = phaseComment

		case phaseComment:
			settings.Mangler.MangleComment(st.comment)
			out := vorbis.WriteComment(st.comment, settings.VendorStringAction, settings.CommentFieldsAction)
			if err := w.WritePacket(st.outputSerial, out, 0, boundary); err != nil {
				return err
			}
			phase[pkt.Serial] = phaseSetup

		case phaseSetup:
			if boundary == ogg.ContinuePage {
				boundary = ogg.EndPage
			}
			out := vorbis.WriteSetup(st.setup)
			if err := w.WritePacket(st.outputSerial, out, 0, boundary); err != nil {
				return err
			}
			phase[pkt.Serial] = phaseAudio

		case phaseAudio:
			out, err := vorbis.RewriteAudioPacket(pkt.Data, st.setup, st.identification, int(st.identification.Channels))
			if err != nil {
				return &VorbisError{Serial: pkt.Serial, PacketIndex: packetIndex[pkt.Serial], Err: err}
			}

			blockSize, bsErr := vorbis.PacketBlockSize(pkt.Data, st.setup, st.identification)
			if bsErr != nil {
				blockSize = 1 << uint(st.identification.Blocksize0)
			}

			var granule uint64
			if pkt.EOS {
				previousCalculated := st.granulator.Calculated()
				calculated := st.granulator.Advance(blockSize)
				granule = st.granulator.FinalGranule(calculated, previousCalculated, pkt.GranulePos, settings.IgnoreStartSampleOffset)
			} else {
				calculated := st.granulator.Advance(blockSize)
				st.granulator.NotePageGranule(pkt.GranulePos)
				granule = st.granulator.WrittenGranule(calculated, settings.IgnoreStartSampleOffset)
			}

			if err := w.WritePacket(st.outputSerial, out, granule, boundary); err != nil {
				return err
			}
			packetIndex[pkt.Serial]++
		}
	}

	return w.Close()
}
