package silk

// Log-domain gain quantizer of libopus silk/gain_quant.c. Gains are coded as
// 6-bit indices on a 2..88 dB scale; subframes after the first, and the first
// subframe of a conditionally coded frame, send deltas from the previous index.
const (
	gainOffsetQ7    = (minQGainDb*128)/6 + 16*128
	gainScaleQ16    = (65536 * (nLevelsQGain - 1)) / (((maxQGainDb - minQGainDb) * 128) / 6)
	gainInvScaleQ16 = (65536 * (((maxQGainDb - minQGainDb) * 128) / 6)) / (nLevelsQGain - 1)
	gainMaxLogQ7    = 3967 // log2lin input ceiling, about 31 bits
)

func gainIndexToQ16(prevInd int32) int32 {
	return silkLog2Lin(silkMin32(silkSMULWB(gainInvScaleQ16, prevInd)+gainOffsetQ7, gainMaxLogQ7))
}

// GainsQuant quantizes gainsQ16 in place to the values the decoder will
// reconstruct and writes the coded indices. prevInd carries the last index
// of the previous frame and is updated.
func GainsQuant(ind []int8, gainsQ16 []int32, prevInd *int8, conditional bool, nbSubfr int) {
	prev := int32(*prevInd)
	for k := 0; k < nbSubfr; k++ {
		idx := silkSMULWB(gainScaleQ16, silkLin2Log(gainsQ16[k])-gainOffsetQ7)
		if idx < prev {
			idx++
		}
		idx = silkLimit32(idx, 0, nLevelsQGain-1)

		if k == 0 && !conditional {
			idx = silkLimit32(idx, prev+minDeltaGainQuant, nLevelsQGain-1)
			prev = idx
			ind[k] = int8(idx)
		} else {
			delta := idx - prev
			threshold := int32(2*maxDeltaGainQuant - nLevelsQGain) + prev
			if delta > threshold {
				delta = threshold + (delta-threshold+1)>>1
			}
			delta = silkLimit32(delta, minDeltaGainQuant, maxDeltaGainQuant)
			if delta > threshold {
				prev = silkMin32(prev+delta<<1-threshold, nLevelsQGain-1)
			} else {
				prev += delta
			}
			ind[k] = int8(delta - minDeltaGainQuant)
		}
		gainsQ16[k] = gainIndexToQ16(prev)
	}
	*prevInd = int8(prev)
}

// GainsDequant reconstructs gainsQ16 from coded indices. Corrupt indices are
// clamped into the 64-level table.
func GainsDequant(gainsQ16 []int32, ind []int8, prevInd *int8, conditional bool, nbSubfr int) {
	prev := int32(*prevInd)
	for k := 0; k < nbSubfr; k++ {
		if k == 0 && !conditional {
			prev = silkMax32(int32(ind[k]), prev-16)
		} else {
			delta := int32(ind[k]) + minDeltaGainQuant
			threshold := int32(2*maxDeltaGainQuant - nLevelsQGain) + prev
			if delta > threshold {
				prev += delta<<1 - threshold
			} else {
				prev += delta
			}
		}
		prev = silkLimit32(prev, 0, nLevelsQGain-1)
		gainsQ16[k] = gainIndexToQ16(prev)
	}
	*prevInd = int8(prev)
}

// gainsID packs the gain indices into one word so the rate loop can tell
// whether a new gain set differs from one already tried.
func gainsID(ind []int8, nbSubfr int) int32 {
	var id int32
	for k := 0; k < nbSubfr; k++ {
		id = silkADD_LSHIFT32(int32(ind[k]), id, 8)
	}
	return id
}
