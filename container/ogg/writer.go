package ogg

import (
	"io"
	"math/rand/v2"
)

// Writer writes SILK packets to an Ogg Opus stream.
type Writer struct {
	w       io.Writer
	cfg     StreamConfig
	toc     byte
	serial  uint32
	pageSeq uint32
	granule uint64

	// pending is the last packet, TOC included. It is held back so Close
	// can put it on the EOS page.
	pending    []byte
	hasPending bool

	segments []byte
	page     []byte
	closed   bool
}

// NewWriter writes the OpusHead and OpusTags pages for cfg to w and returns
// a Writer for the audio packets. Extra "KEY=value" comments go into
// OpusTags. The stream has no pre-skip.
func NewWriter(w io.Writer, cfg StreamConfig, comments ...string) (*Writer, error) {
	toc, err := cfg.TOC()
	if err != nil {
		return nil, err
	}
	ow := &Writer{
		w:      w,
		cfg:    cfg,
		toc:    toc,
		serial: rand.Uint32(),
	}

	head := OpusHead{
		Version:    opusVersion,
		Channels:   uint8(cfg.Channels),
		SampleRate: uint32(cfg.SampleRate),
	}
	if err := ow.writePage(head.Encode(), PageFlagBOS, 0); err != nil {
		return nil, err
	}
	tags := OpusTags{Vendor: Vendor, Comments: comments}
	if err := ow.writePage(tags.Encode(), 0, 0); err != nil {
		return nil, err
	}
	return ow, nil
}

// WritePacket appends one SILK payload as a single-frame Opus packet. A nil
// or empty payload marks a lost packet.
func (ow *Writer) WritePacket(payload []byte) error {
	if ow.closed {
		return ErrClosed
	}
	if len(payload)+1 > maxPacketSize {
		return ErrPacketTooLarge
	}
	if err := ow.flush(0); err != nil {
		return err
	}
	ow.pending = append(append(ow.pending[:0], ow.toc), payload...)
	ow.hasPending = true
	ow.granule += uint64(ow.cfg.Samples48k())
	return nil
}

// Close writes the final page with the EOS flag. It does not close the
// underlying writer.
func (ow *Writer) Close() error {
	if ow.closed {
		return nil
	}
	ow.closed = true
	if ow.hasPending {
		return ow.flush(PageFlagEOS)
	}
	// No audio: an empty EOS page on which no packet ends.
	return ow.writePage(nil, PageFlagEOS, noGranule)
}

func (ow *Writer) flush(flags byte) error {
	if !ow.hasPending {
		return nil
	}
	ow.hasPending = false
	return ow.writePage(ow.pending, flags, ow.granule)
}

// writePage writes packet as the only packet of a page. A nil packet with
// flags set writes a page without segments.
func (ow *Writer) writePage(packet []byte, flags byte, granule uint64) error {
	ow.segments = ow.segments[:0]
	if packet != nil || flags&PageFlagEOS == 0 {
		ow.segments = appendSegmentTable(ow.segments, len(packet))
	}
	p := Page{
		HeaderType:   flags,
		GranulePos:   granule,
		SerialNumber: ow.serial,
		PageSequence: ow.pageSeq,
		Segments:     ow.segments,
		Payload:      packet,
	}
	ow.page = p.AppendTo(ow.page[:0])
	if _, err := ow.w.Write(ow.page); err != nil {
		return err
	}
	ow.pageSeq++
	return nil
}

// Config returns the stream configuration.
func (ow *Writer) Config() StreamConfig { return ow.cfg }

// Serial returns the bitstream serial number.
func (ow *Writer) Serial() uint32 { return ow.serial }

// GranulePos returns the number of 48 kHz samples written so far.
func (ow *Writer) GranulePos() uint64 { return ow.granule }

// PageCount returns the number of pages written so far.
func (ow *Writer) PageCount() uint32 { return ow.pageSeq }
