package ogg

import "encoding/binary"

// Page header flags.
const (
	PageFlagContinuation = 0x01
	PageFlagBOS          = 0x02
	PageFlagEOS          = 0x04
)

const (
	pageHeaderSize = 27
	oggMagic       = "OggS"

	maxSegments = 255

	// maxPacketSize is the largest packet a single page can hold: 254
	// full segments plus one terminating segment.
	maxPacketSize = 255*(maxSegments-1) + 254

	// noGranule marks a page on which no packet ends.
	noGranule = ^uint64(0)
)

// Page is a single Ogg page.
type Page struct {
	HeaderType   byte
	GranulePos   uint64
	SerialNumber uint32
	PageSequence uint32

	// Segments is the lacing table. A segment of 255 bytes continues the
	// current packet; a shorter one ends it.
	Segments []byte

	Payload []byte
}

// IsBOS reports whether p begins a logical bitstream.
func (p *Page) IsBOS() bool { return p.HeaderType&PageFlagBOS != 0 }

// IsEOS reports whether p ends a logical bitstream.
func (p *Page) IsEOS() bool { return p.HeaderType&PageFlagEOS != 0 }

// IsContinuation reports whether p continues a packet from the previous page.
func (p *Page) IsContinuation() bool { return p.HeaderType&PageFlagContinuation != 0 }

// BuildSegmentTable returns the lacing values for one packet of n bytes.
// A packet whose length is a multiple of 255 gets a trailing zero segment.
func BuildSegmentTable(n int) []byte {
	return appendSegmentTable(nil, n)
}

func appendSegmentTable(dst []byte, n int) []byte {
	for ; n >= 255; n -= 255 {
		dst = append(dst, 255)
	}
	return append(dst, byte(n))
}

// Encode serializes the page and fills in its CRC.
func (p *Page) Encode() []byte {
	return p.AppendTo(nil)
}

// AppendTo appends the serialized page to dst.
func (p *Page) AppendTo(dst []byte) []byte {
	start := len(dst)
	dst = append(dst, oggMagic...)
	dst = append(dst, 0, p.HeaderType)
	dst = binary.LittleEndian.AppendUint64(dst, p.GranulePos)
	dst = binary.LittleEndian.AppendUint32(dst, p.SerialNumber)
	dst = binary.LittleEndian.AppendUint32(dst, p.PageSequence)
	dst = append(dst, 0, 0, 0, 0, byte(len(p.Segments)))
	dst = append(dst, p.Segments...)
	dst = append(dst, p.Payload...)

	page := dst[start:]
	binary.LittleEndian.PutUint32(page[22:26], pageCRC(page))
	return dst
}

// ParsePage parses the Ogg page at the start of data and returns it with
// the number of bytes consumed. The page's Segments and Payload alias data.
func ParsePage(data []byte) (*Page, int, error) {
	if len(data) < pageHeaderSize || string(data[:4]) != oggMagic || data[4] != 0 {
		return nil, 0, ErrInvalidPage
	}
	headerSize := pageHeaderSize + int(data[26])
	if len(data) < headerSize {
		return nil, 0, ErrInvalidPage
	}
	segments := data[pageHeaderSize:headerSize]
	size := headerSize
	for _, s := range segments {
		size += int(s)
	}
	if len(data) < size {
		return nil, 0, ErrInvalidPage
	}
	if pageCRC(data[:size]) != binary.LittleEndian.Uint32(data[22:26]) {
		return nil, 0, ErrBadCRC
	}
	return &Page{
		HeaderType:   data[5],
		GranulePos:   binary.LittleEndian.Uint64(data[6:14]),
		SerialNumber: binary.LittleEndian.Uint32(data[14:18]),
		PageSequence: binary.LittleEndian.Uint32(data[18:22]),
		Segments:     segments,
		Payload:      data[headerSize:size],
	}, size, nil
}
