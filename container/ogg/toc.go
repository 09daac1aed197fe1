package ogg

// StreamConfig describes the SILK stream carried in an Ogg Opus file.
type StreamConfig struct {
	SampleRate int // 8000, 12000 or 16000
	Channels   int // 1 or 2
	FrameMs    int // 10, 20, 40 or 60
}

// SILK-only Opus configurations start at 0 (NB), 4 (MB) and 8 (WB); the
// packet duration selects one of four consecutive entries.
const silkConfigs = 12

var (
	bandwidthRates = [3]int{8000, 12000, 16000}
	frameDurations = [4]int{10, 20, 40, 60}
)

// TOC returns the table-of-contents byte of a single-frame SILK-only Opus
// packet with this configuration.
func (c StreamConfig) TOC() (byte, error) {
	bw := index(bandwidthRates[:], c.SampleRate)
	dur := index(frameDurations[:], c.FrameMs)
	if bw < 0 || dur < 0 || c.Channels < 1 || c.Channels > 2 {
		return 0, ErrInvalidConfig
	}
	toc := byte(bw*4+dur) << 3
	if c.Channels == 2 {
		toc |= 0x04
	}
	return toc, nil
}

// Samples48k returns the packet duration in 48 kHz samples, the unit of
// Ogg Opus granule positions.
func (c StreamConfig) Samples48k() int {
	return c.FrameMs * 48
}

// ParseTOC decodes a TOC byte. It fails with ErrNotSILK for CELT and hybrid
// configurations and with ErrUnsupportedPacket for multi-frame packets.
func ParseTOC(toc byte) (StreamConfig, error) {
	config := int(toc >> 3)
	if config >= silkConfigs {
		return StreamConfig{}, ErrNotSILK
	}
	if toc&0x03 != 0 {
		return StreamConfig{}, ErrUnsupportedPacket
	}
	c := StreamConfig{
		SampleRate: bandwidthRates[config/4],
		Channels:   1,
		FrameMs:    frameDurations[config%4],
	}
	if toc&0x04 != 0 {
		c.Channels = 2
	}
	return c, nil
}

func index(values []int, v int) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
