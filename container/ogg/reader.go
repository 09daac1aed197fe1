package ogg

import (
	"bufio"
	"errors"
	"io"
)

// Reader reads SILK packets from an Ogg Opus stream. Pages of other logical
// streams are skipped.
type Reader struct {
	r *bufio.Reader

	// Header and Tags are parsed by NewReader.
	Header *OpusHead
	Tags   *OpusTags

	serial  uint32
	granule uint64
	eos     bool

	// partial holds a packet continued on the next page.
	partial []byte
	pending bool
	queue   [][]byte
}

// NewReader parses the OpusHead and OpusTags headers of r.
func NewReader(r io.Reader) (*Reader, error) {
	or := &Reader{r: bufio.NewReader(r)}

	page, err := or.readPage()
	if err != nil {
		return nil, eosError(err)
	}
	if !page.IsBOS() {
		return nil, ErrInvalidPage
	}
	or.serial = page.SerialNumber
	or.addPage(page)

	head, err := or.nextPacket()
	if err != nil {
		return nil, eosError(err)
	}
	if or.Header, err = ParseOpusHead(head); err != nil {
		return nil, err
	}
	tags, err := or.nextPacket()
	if err != nil {
		return nil, eosError(err)
	}
	if or.Tags, err = ParseOpusTags(tags); err != nil {
		return nil, err
	}
	return or, nil
}

// ReadPacket returns the next SILK payload and the configuration named by
// its TOC byte. A lost packet yields a nil payload. It returns io.EOF after
// the last packet.
func (or *Reader) ReadPacket() ([]byte, StreamConfig, error) {
	for {
		packet, err := or.nextPacket()
		if err != nil {
			return nil, StreamConfig{}, err
		}
		if len(packet) == 0 {
			continue
		}
		cfg, err := ParseTOC(packet[0])
		if err != nil {
			return nil, StreamConfig{}, err
		}
		if len(packet) == 1 {
			return nil, cfg, nil
		}
		return packet[1:], cfg, nil
	}
}

// GranulePos returns the granule position of the most recent page on which
// a packet ended.
func (or *Reader) GranulePos() uint64 { return or.granule }

// Serial returns the bitstream serial number.
func (or *Reader) Serial() uint32 { return or.serial }

// nextPacket returns the next complete packet, reading pages as needed.
func (or *Reader) nextPacket() ([]byte, error) {
	for len(or.queue) == 0 {
		if or.eos {
			return nil, io.EOF
		}
		page, err := or.readPage()
		if errors.Is(err, io.EOF) {
			if or.pending {
				return nil, ErrUnexpectedEOS
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if page.SerialNumber != or.serial {
			continue
		}
		or.addPage(page)
	}
	packet := or.queue[0]
	or.queue[0] = nil
	or.queue = or.queue[1:]
	return packet, nil
}

// addPage splits a page into packets. A continued packet whose start was
// never seen is dropped.
func (or *Reader) addPage(p *Page) {
	cont := p.IsContinuation()
	skip := cont && !or.pending
	if !cont {
		or.partial, or.pending = nil, false
	}
	if p.GranulePos != noGranule {
		or.granule = p.GranulePos
	}
	if p.IsEOS() {
		or.eos = true
	}

	off := 0
	for _, seg := range p.Segments {
		end := off + int(seg)
		if !skip {
			or.partial = append(or.partial, p.Payload[off:end]...)
			or.pending = true
		}
		off = end
		if seg < 255 {
			if !skip {
				or.queue = append(or.queue, or.partial)
			}
			or.partial, or.pending, skip = nil, false, false
		}
	}
}

// readPage reads and verifies one page. It returns io.EOF only at a page
// boundary.
func (or *Reader) readPage() (*Page, error) {
	var header [pageHeaderSize]byte
	if _, err := io.ReadFull(or.r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrUnexpectedEOS
		}
		return nil, err
	}
	if string(header[:4]) != oggMagic {
		return nil, ErrInvalidPage
	}

	data := make([]byte, pageHeaderSize+int(header[26]))
	copy(data, header[:])
	if _, err := io.ReadFull(or.r, data[pageHeaderSize:]); err != nil {
		return nil, ErrUnexpectedEOS
	}
	size := 0
	for _, s := range data[pageHeaderSize:] {
		size += int(s)
	}
	data = append(data, make([]byte, size)...)
	if _, err := io.ReadFull(or.r, data[len(data)-size:]); err != nil {
		return nil, ErrUnexpectedEOS
	}

	page, _, err := ParsePage(data)
	return page, err
}

func eosError(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrUnexpectedEOS
	}
	return err
}
