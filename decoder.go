// decoder.go implements the public Decoder API for SILK decoding.

package gosilk

import (
	"errors"
	"fmt"

	"github.com/thesyncim/gosilk/silk"
)

// Decoder decodes SILK packets into PCM audio samples.
//
// A Decoder instance maintains internal state and is NOT safe for concurrent use.
// Each goroutine should create its own Decoder instance.
//
// Corrupt packets never fail: the decoder always yields a packet's worth of
// audio, and a nil packet is concealed from the previous output.
type Decoder struct {
	dec        *silk.Decoder
	sampleRate int
	channels   int
}

// NewDecoder creates a new SILK decoder for 20 ms packets.
//
// sampleRate must be one of: 8000, 12000, 16000.
// channels must be 1 (mono) or 2 (stereo).
//
// Returns an error if the parameters are invalid.
func NewDecoder(sampleRate, channels int) (*Decoder, error) {
	if !validSampleRate(sampleRate) {
		return nil, ErrInvalidSampleRate
	}
	if channels < 1 || channels > 2 {
		return nil, ErrInvalidChannels
	}
	dec, err := silk.NewDecoder(sampleRate/1000, channels)
	if err != nil {
		return nil, fmt.Errorf("gosilk: new decoder: %w", err)
	}
	return &Decoder{dec: dec, sampleRate: sampleRate, channels: channels}, nil
}

// Decode decodes a SILK packet into interleaved int16 PCM samples.
//
// data: packet data, or nil to conceal a lost packet.
// pcm: output buffer, at least FrameSize() * Channels() samples.
//
// Returns the number of samples per channel decoded, or an error.
func (d *Decoder) Decode(data []byte, pcm []int16) (int, error) {
	n, err := d.dec.Decode(data, pcm)
	if errors.Is(err, silk.ErrOutputTooSmall) {
		return 0, ErrBufferTooSmall
	}
	if err != nil {
		return 0, fmt.Errorf("gosilk: decode: %w", err)
	}
	return n, nil
}

// DecodeFEC recovers a lost packet from the in-band redundancy of the packet
// that follows it. Call it with that next packet in place of Decode(nil, pcm)
// for the lost one, then decode data itself with Decode. Frames data holds no
// copy of are concealed.
//
// Returns the number of samples per channel decoded, or an error.
func (d *Decoder) DecodeFEC(data []byte, pcm []int16) (int, error) {
	n, err := d.dec.DecodeFEC(data, pcm)
	if errors.Is(err, silk.ErrOutputTooSmall) {
		return 0, ErrBufferTooSmall
	}
	if err != nil {
		return 0, fmt.Errorf("gosilk: decode fec: %w", err)
	}
	return n, nil
}

// DecodeFrame decodes a SILK packet and returns a new int16 slice.
//
// This is a convenience method that allocates the output buffer.
// For performance-critical code, use Decode with a pre-allocated buffer.
//
// data: packet data, or nil to conceal a lost packet.
func (d *Decoder) DecodeFrame(data []byte) ([]int16, error) {
	pcm := make([]int16, d.FrameSize()*d.channels)
	n, err := d.Decode(data, pcm)
	if err != nil {
		return nil, err
	}
	return pcm[:n*d.channels], nil
}

// Reset clears the decoder state for a new stream.
// Call this when starting to decode a new audio stream.
func (d *Decoder) Reset() {
	d.dec.Reset()
}

// SetFrameDuration sets the packet duration in milliseconds: 10, 20, 40 or 60.
// It must match the encoder's.
func (d *Decoder) SetFrameDuration(ms int) error {
	if err := d.dec.SetFrameDuration(ms); err != nil {
		return ErrInvalidFrameDuration
	}
	return nil
}

// SetTrace installs a per-frame trace collector; nil disables tracing.
func (d *Decoder) SetTrace(t *silk.DecoderTrace) {
	d.dec.SetTrace(t)
}

// FinalRange returns the final range coder state of the last packet decoded.
// Matching values mean two decoders read the packet identically.
func (d *Decoder) FinalRange() uint32 {
	return d.dec.FinalRange()
}

// Channels returns the number of audio channels (1 or 2).
func (d *Decoder) Channels() int {
	return d.channels
}

// SampleRate returns the sample rate in Hz.
func (d *Decoder) SampleRate() int {
	return d.sampleRate
}

// FrameSize returns the number of samples per channel in one packet.
func (d *Decoder) FrameSize() int {
	return d.dec.FrameSamples()
}
