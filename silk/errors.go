package silk

import "errors"

var (
	// ErrInvalidSampleRate is returned for internal rates other than 8, 12 or 16 kHz.
	ErrInvalidSampleRate = errors.New("silk: invalid sample rate")

	// ErrInvalidChannels is returned for channel counts other than 1 or 2.
	ErrInvalidChannels = errors.New("silk: invalid channel count")

	// ErrInvalidFrameDuration is returned for packet durations other than 10, 20, 40 or 60 ms.
	ErrInvalidFrameDuration = errors.New("silk: invalid frame duration")

	// ErrInvalidFrameSize is returned when the PCM length does not match the packet.
	ErrInvalidFrameSize = errors.New("silk: invalid frame size")

	// ErrPacketOverflow is returned when the coded packet does not fit the
	// largest packet the encoder emits.
	ErrPacketOverflow = errors.New("silk: packet overflow")

	// ErrOutputTooSmall is returned when the output buffer cannot hold the decoded packet.
	ErrOutputTooSmall = errors.New("silk: output buffer too small")
)
