package ogg

import "errors"

var (
	// ErrInvalidPage indicates the page structure is malformed.
	ErrInvalidPage = errors.New("ogg: invalid page structure")

	// ErrInvalidHeader indicates a malformed or unsupported OpusHead or
	// OpusTags packet.
	ErrInvalidHeader = errors.New("ogg: invalid Opus header")

	// ErrBadCRC indicates the page CRC checksum does not match the computed value.
	ErrBadCRC = errors.New("ogg: CRC mismatch")

	// ErrUnexpectedEOS indicates the stream ended in the middle of a page
	// or a packet.
	ErrUnexpectedEOS = errors.New("ogg: unexpected end of stream")

	// ErrInvalidConfig indicates a StreamConfig that no SILK-only Opus
	// packet can describe.
	ErrInvalidConfig = errors.New("ogg: invalid stream configuration")

	// ErrNotSILK indicates an Opus packet in CELT or hybrid mode.
	ErrNotSILK = errors.New("ogg: packet is not SILK-only")

	// ErrUnsupportedPacket indicates an Opus packet holding more than one
	// frame (TOC code 1, 2 or 3).
	ErrUnsupportedPacket = errors.New("ogg: multi-frame Opus packets are not supported")

	// ErrPacketTooLarge indicates a packet that does not fit in one page.
	ErrPacketTooLarge = errors.New("ogg: packet too large")

	// ErrClosed is returned by Writer methods after Close.
	ErrClosed = errors.New("ogg: writer closed")
)
