package ogg

import (
	"encoding/binary"
	"strings"
)

const (
	opusHeadMagic = "OpusHead"
	opusTagsMagic = "OpusTags"
	opusHeadSize  = 19
	opusVersion   = 1

	// Vendor is the vendor string written into OpusTags.
	Vendor = "gosilk"
)

// OpusHead is the identification header of an Ogg Opus stream. Only
// channel mapping family 0 (mono or stereo) is supported.
type OpusHead struct {
	Version  uint8
	Channels uint8

	// PreSkip is the number of 48 kHz samples to drop at the start.
	PreSkip uint16

	// SampleRate is the input sample rate. It is informational; Opus
	// players decode at 48 kHz.
	SampleRate uint32

	// OutputGain is in Q7.8 dB.
	OutputGain int16
}

// Encode serializes the header.
func (h *OpusHead) Encode() []byte {
	b := make([]byte, 0, opusHeadSize)
	b = append(b, opusHeadMagic...)
	b = append(b, h.Version, h.Channels)
	b = binary.LittleEndian.AppendUint16(b, h.PreSkip)
	b = binary.LittleEndian.AppendUint32(b, h.SampleRate)
	b = binary.LittleEndian.AppendUint16(b, uint16(h.OutputGain))
	return append(b, 0)
}

// ParseOpusHead parses an identification header. Any version with major
// number 0 is accepted.
func ParseOpusHead(data []byte) (*OpusHead, error) {
	if len(data) < opusHeadSize || string(data[:8]) != opusHeadMagic {
		return nil, ErrInvalidHeader
	}
	h := &OpusHead{
		Version:    data[8],
		Channels:   data[9],
		PreSkip:    binary.LittleEndian.Uint16(data[10:12]),
		SampleRate: binary.LittleEndian.Uint32(data[12:16]),
		OutputGain: int16(binary.LittleEndian.Uint16(data[16:18])),
	}
	if h.Version>>4 != 0 || data[18] != 0 || h.Channels < 1 || h.Channels > 2 {
		return nil, ErrInvalidHeader
	}
	return h, nil
}

// OpusTags is the comment header of an Ogg Opus stream.
type OpusTags struct {
	Vendor string

	// Comments holds "KEY=value" entries.
	Comments []string
}

// Get returns the value of the first comment named key, compared
// case-insensitively.
func (t *OpusTags) Get(key string) (string, bool) {
	for _, c := range t.Comments {
		k, v, ok := strings.Cut(c, "=")
		if ok && strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Encode serializes the comment header.
func (t *OpusTags) Encode() []byte {
	b := append([]byte(nil), opusTagsMagic...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(t.Vendor)))
	b = append(b, t.Vendor...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(t.Comments)))
	for _, c := range t.Comments {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(c)))
		b = append(b, c...)
	}
	return b
}

// ParseOpusTags parses a comment header.
func ParseOpusTags(data []byte) (*OpusTags, error) {
	if len(data) < 8 || string(data[:8]) != opusTagsMagic {
		return nil, ErrInvalidHeader
	}
	rest := data[8:]
	next := func() (string, bool) {
		if len(rest) < 4 {
			return "", false
		}
		n := binary.LittleEndian.Uint32(rest)
		rest = rest[4:]
		if uint64(n) > uint64(len(rest)) {
			return "", false
		}
		s := string(rest[:n])
		rest = rest[n:]
		return s, true
	}

	vendor, ok := next()
	if !ok || len(rest) < 4 {
		return nil, ErrInvalidHeader
	}
	t := &OpusTags{Vendor: vendor}
	count := binary.LittleEndian.Uint32(rest)
	rest = rest[4:]
	// Each comment needs at least its 4-byte length.
	if uint64(count) > uint64(len(rest)/4) {
		return nil, ErrInvalidHeader
	}
	for range count {
		c, ok := next()
		if !ok {
			return nil, ErrInvalidHeader
		}
		t.Comments = append(t.Comments, c)
	}
	return t, nil
}
