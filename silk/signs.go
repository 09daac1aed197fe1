package silk

import "github.com/thesyncim/gosilk/rangecoding"

// signICDF returns the two-entry sign table for a block holding sumPulses
// pulses. Only the low five bits of sumPulses carry the count; the decoder
// stores the LSB shift count above them.
func signICDF(signalType, quantOffsetType int, sumPulses int32) [2]uint8 {
	base := 7 * (quantOffsetType + signalType<<1)
	return [2]uint8{silkSignICDF[base+min(int(sumPulses&0x1f), 6)], 0}
}

// EncodeSigns codes one sign per nonzero pulse. Zero pulses and empty
// blocks cost nothing.
func EncodeSigns(enc *rangecoding.Encoder, pulses []int8, length, signalType, quantOffsetType int, sumPulses []int32) {
	blocks := (length + shellCodecFrameLength/2) >> log2ShellCodecFrameLength
	for i := 0; i < blocks; i++ {
		if sumPulses[i] <= 0 {
			continue
		}
		icdf := signICDF(signalType, quantOffsetType, sumPulses[i])
		for _, q := range pulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength] {
			if q != 0 {
				enc.EncodeICDF(int(q>>7)+1, icdf[:], 8)
			}
		}
	}
}

// DecodeSigns applies the coded signs to the decoded magnitudes.
func DecodeSigns(rd *rangecoding.Decoder, pulses []int16, length, signalType, quantOffsetType int, sumPulses []int32) {
	blocks := (length + shellCodecFrameLength/2) >> log2ShellCodecFrameLength
	for i := 0; i < blocks; i++ {
		if sumPulses[i] <= 0 {
			continue
		}
		icdf := signICDF(signalType, quantOffsetType, sumPulses[i])
		block := pulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength]
		for j, q := range block {
			if q > 0 {
				block[j] = q * int16(2*rd.DecodeICDF(icdf[:], 8)-1)
			}
		}
	}
}
