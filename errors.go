// errors.go defines public error types for the gosilk package.

package gosilk

import "errors"

// Public error types for encoding and decoding operations.
var (
	// ErrInvalidSampleRate indicates an unsupported sample rate.
	// Valid sample rates are: 8000, 12000, 16000.
	ErrInvalidSampleRate = errors.New("gosilk: invalid sample rate (must be 8000, 12000, or 16000)")

	// ErrInvalidChannels indicates an unsupported channel count.
	// Valid channel counts are 1 (mono) or 2 (stereo).
	ErrInvalidChannels = errors.New("gosilk: invalid channels (must be 1 or 2)")

	// ErrInvalidFrameSize indicates the input frame size doesn't match expected.
	// The PCM input length must be FrameSize() * channels.
	ErrInvalidFrameSize = errors.New("gosilk: invalid frame size")

	// ErrInvalidFrameDuration indicates an unsupported packet duration.
	// Valid durations are 10, 20, 40 and 60 ms.
	ErrInvalidFrameDuration = errors.New("gosilk: invalid frame duration (must be 10, 20, 40, or 60 ms)")

	// ErrInvalidBitrate indicates the bitrate is out of valid range.
	// Valid bitrates are 5000 to 80000 bits per second per channel.
	ErrInvalidBitrate = errors.New("gosilk: invalid bitrate (must be 5000-80000 per channel)")

	// ErrInvalidComplexity indicates the complexity is out of valid range.
	// Valid complexity values are 0 to 10.
	ErrInvalidComplexity = errors.New("gosilk: invalid complexity (must be 0-10)")

	// ErrInvalidPacketLoss indicates an invalid packet loss percentage.
	// Valid range is 0 to 100.
	ErrInvalidPacketLoss = errors.New("gosilk: invalid packet loss percentage (must be 0-100)")

	// ErrBufferTooSmall indicates the output buffer is too small for the decoded packet.
	// The buffer must be at least FrameSize() * channels samples.
	ErrBufferTooSmall = errors.New("gosilk: output buffer too small")
)

// validSampleRate returns true if the sample rate is a SILK internal rate.
func validSampleRate(rate int) bool {
	switch rate {
	case 8000, 12000, 16000:
		return true
	default:
		return false
	}
}
