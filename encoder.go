// encoder.go implements the public Encoder API for SILK encoding.

package gosilk

import (
	"fmt"

	"github.com/thesyncim/gosilk/silk"
)

// Encoder limits.
const (
	// MaxPacketBytes is the largest packet EncodeFrame returns.
	MaxPacketBytes = silk.MaxPacketBytes

	minBitratePerChannel = 5000
	maxBitratePerChannel = 80000
	maxComplexity        = 10

	// maxFrameSamples is 60 ms at 16 kHz.
	maxFrameSamples = 960
)

// Encoder encodes PCM audio samples into SILK packets.
//
// An Encoder instance maintains internal state and is NOT safe for concurrent use.
// Each goroutine should create its own Encoder instance.
//
// By default the encoder codes 20 ms packets at 20 kbps per channel with
// complexity 5, and analyzes its input with an EnergyAnalyzer.
type Encoder struct {
	enc        *silk.Encoder
	sampleRate int
	channels   int
	analyzer   Analyzer
	energy     *EnergyAnalyzer
	mono       [maxFrameSamples]int16
}

// NewEncoder creates a new SILK encoder.
//
// sampleRate must be one of: 8000, 12000, 16000.
// channels must be 1 (mono) or 2 (stereo).
//
// Returns an error if the parameters are invalid.
func NewEncoder(sampleRate, channels int) (*Encoder, error) {
	if !validSampleRate(sampleRate) {
		return nil, ErrInvalidSampleRate
	}
	if channels < 1 || channels > 2 {
		return nil, ErrInvalidChannels
	}
	enc, err := silk.NewEncoder(sampleRate/1000, channels)
	if err != nil {
		return nil, fmt.Errorf("gosilk: new encoder: %w", err)
	}
	energy := NewEnergyAnalyzer(sampleRate)
	return &Encoder{
		enc:        enc,
		sampleRate: sampleRate,
		channels:   channels,
		analyzer:   energy,
		energy:     energy,
	}, nil
}

// EncodeFrame encodes one packet of interleaved int16 PCM and returns a
// newly allocated packet.
//
// pcm must hold exactly FrameSize() * Channels() samples.
func (e *Encoder) EncodeFrame(pcm []int16) ([]byte, error) {
	n := e.enc.FrameSamples()
	if len(pcm) != n*e.channels {
		return nil, ErrInvalidFrameSize
	}
	a := e.analyzer.Analyze(e.downmix(pcm, n))
	packet, err := e.enc.Encode(pcm, activity(a))
	if err != nil {
		return nil, fmt.Errorf("gosilk: encode: %w", err)
	}
	return packet, nil
}

// downmix returns the mono view of pcm the analyzer sees.
func (e *Encoder) downmix(pcm []int16, n int) []int16 {
	if e.channels == 1 {
		return pcm
	}
	mono := e.mono[:n]
	for i := range mono {
		mono[i] = int16((int32(pcm[2*i]) + int32(pcm[2*i+1])) >> 1)
	}
	return mono
}

// Reset clears the encoder state for a new stream.
// Settings are kept.
func (e *Encoder) Reset() {
	e.enc.Reset()
	e.energy.Reset()
}

// SetBitrate sets the target bitrate of the whole stream in bits per second.
//
// Valid range is 5000 to 80000 per channel.
func (e *Encoder) SetBitrate(bps int) error {
	if bps < minBitratePerChannel*e.channels || bps > maxBitratePerChannel*e.channels {
		return ErrInvalidBitrate
	}
	e.enc.SetBitrate(bps)
	return nil
}

// SetComplexity sets the analysis effort.
//
// Valid range is 0 to 10. Higher values search more NLSF survivors and run
// more rate control iterations.
func (e *Encoder) SetComplexity(c int) error {
	if c < 0 || c > maxComplexity {
		return ErrInvalidComplexity
	}
	e.enc.SetComplexity(c)
	return nil
}

// SetFrameDuration sets the packet duration in milliseconds: 10, 20, 40 or 60.
func (e *Encoder) SetFrameDuration(ms int) error {
	if err := e.enc.SetFrameDuration(ms); err != nil {
		return ErrInvalidFrameDuration
	}
	return nil
}

// SetPacketLoss sets the expected packet loss in percent, 0 to 100.
// Higher loss makes packets lean less on the long-term prediction of
// earlier packets.
func (e *Encoder) SetPacketLoss(pct int) error {
	if pct < 0 || pct > 100 {
		return ErrInvalidPacketLoss
	}
	e.enc.SetPacketLoss(pct)
	return nil
}

// SetInbandFEC turns in-band forward error correction on or off. With it on
// and a packet loss above zero set, packets also carry a coarse copy of the
// previous packet's speech, which Decoder.DecodeFEC recovers. Low bitrates
// carry no copy.
func (e *Encoder) SetInbandFEC(on bool) {
	e.enc.SetInbandFEC(on)
}

// SetAnalyzer replaces the signal analyzer. A nil analyzer restores the
// default EnergyAnalyzer.
func (e *Encoder) SetAnalyzer(a Analyzer) {
	if a == nil {
		a = e.energy
	}
	e.analyzer = a
}

// SetTrace installs a per-frame trace collector; nil disables tracing.
func (e *Encoder) SetTrace(t *silk.EncoderTrace) {
	e.enc.SetTrace(t)
}

// Channels returns the number of audio channels (1 or 2).
func (e *Encoder) Channels() int {
	return e.channels
}

// SampleRate returns the sample rate in Hz.
func (e *Encoder) SampleRate() int {
	return e.sampleRate
}

// FrameSize returns the number of samples per channel in one packet.
func (e *Encoder) FrameSize() int {
	return e.enc.FrameSamples()
}
