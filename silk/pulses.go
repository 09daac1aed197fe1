package silk

import "github.com/thesyncim/gosilk/rangecoding"

// pulseBlocks returns the number of shell blocks covering frameLength
// samples. A 10 ms frame at 12 kHz leaves a partial block that is padded
// with zeros.
func pulseBlocks(frameLength int) int {
	iter := frameLength >> log2ShellCodecFrameLength
	if iter*shellCodecFrameLength < frameLength {
		iter++
	}
	return iter
}

// combineAndCheck sums adjacent pairs of in into out and reports whether any
// pair exceeds maxPulses.
func combineAndCheck(out, in []int32, maxPulses, n int) bool {
	for k := 0; k < n; k++ {
		sum := in[2*k] + in[2*k+1]
		if sum > int32(maxPulses) {
			return true
		}
		out[k] = sum
	}
	return false
}

// EncodePulses writes the excitation pulses of one frame: the rate level,
// the per-block pulse counts, the shell-coded magnitudes, the LSB extension
// for blocks that had to be scaled down and finally the signs.
func EncodePulses(enc *rangecoding.Encoder, signalType, quantOffsetType int, pulses []int8, frameLength int) {
	iter := pulseBlocks(frameLength)

	var absPulses [maxFrameLength + shellCodecFrameLength]int32
	var padded [maxFrameLength + shellCodecFrameLength]int8
	copy(padded[:], pulses[:frameLength])
	for i := 0; i < iter*shellCodecFrameLength; i++ {
		v := int32(padded[i])
		if v < 0 {
			v = -v
		}
		absPulses[i] = v
	}

	var sumPulses, nRshifts [maxFrameLength/shellCodecFrameLength + 1]int32
	var comb [8]int32
	for i := 0; i < iter; i++ {
		block := absPulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength]
		for {
			scaleDown := combineAndCheck(comb[:], block, silkMaxPulsesTable[0], 8)
			scaleDown = combineAndCheck(comb[:], comb[:], silkMaxPulsesTable[1], 4) || scaleDown
			scaleDown = combineAndCheck(comb[:], comb[:], silkMaxPulsesTable[2], 2) || scaleDown
			scaleDown = combineAndCheck(sumPulses[i:], comb[:], silkMaxPulsesTable[3], 1) || scaleDown
			if !scaleDown {
				break
			}
			nRshifts[i]++
			for k := range block {
				block[k] >>= 1
			}
		}
	}

	rateLevel := 0
	minSumBitsQ5 := int32(silkInt32Max)
	for k := 0; k < nRateLevels-1; k++ {
		nBits := &silkPulsesPerBlockBitsQ5[k]
		sumBitsQ5 := int32(silkRateLevelsBitsQ5[signalType>>1][k])
		for i := 0; i < iter; i++ {
			if nRshifts[i] > 0 {
				sumBitsQ5 += int32(nBits[silkMaxPulses+1])
			} else {
				sumBitsQ5 += int32(nBits[sumPulses[i]])
			}
		}
		if sumBitsQ5 < minSumBitsQ5 {
			minSumBitsQ5 = sumBitsQ5
			rateLevel = k
		}
	}
	enc.EncodeICDF(rateLevel, silkRateLevelsICDF[signalType>>1][:], 8)

	for i := 0; i < iter; i++ {
		if nRshifts[i] == 0 {
			enc.EncodeICDF(int(sumPulses[i]), silkPulsesPerBlockICDF[rateLevel][:], 8)
			continue
		}
		enc.EncodeICDF(silkMaxPulses+1, silkPulsesPerBlockICDF[rateLevel][:], 8)
		for k := int32(0); k < nRshifts[i]-1; k++ {
			enc.EncodeICDF(silkMaxPulses+1, silkPulsesPerBlockICDF[nRateLevels-1][:], 8)
		}
		enc.EncodeICDF(int(sumPulses[i]), silkPulsesPerBlockICDF[nRateLevels-1][:], 8)
	}

	for i := 0; i < iter; i++ {
		if sumPulses[i] > 0 {
			ShellEncode(enc, absPulses[i*shellCodecFrameLength:])
		}
	}

	for i := 0; i < iter; i++ {
		if nRshifts[i] == 0 {
			continue
		}
		nLS := nRshifts[i] - 1
		for k := 0; k < shellCodecFrameLength; k++ {
			q := int32(padded[i*shellCodecFrameLength+k])
			if q < 0 {
				q = -q
			}
			for j := nLS; j > 0; j-- {
				enc.EncodeICDF(int((q>>j)&1), silkLSBICDF, 8)
			}
			enc.EncodeICDF(int(q&1), silkLSBICDF, 8)
		}
	}

	EncodeSigns(enc, padded[:iter*shellCodecFrameLength], frameLength, signalType, quantOffsetType, sumPulses[:iter])
}

// DecodePulses reads the excitation pulses of one frame into pulses, which
// must hold at least pulseBlocks(frameLength)*16 values.
func DecodePulses(rd *rangecoding.Decoder, pulses []int16, signalType, quantOffsetType, frameLength int) {
	rateLevel := rd.DecodeICDF(silkRateLevelsICDF[signalType>>1][:], 8)

	iter := pulseBlocks(frameLength)
	var sumPulses, nLshifts [maxFrameLength/shellCodecFrameLength + 1]int32
	for i := 0; i < iter; i++ {
		sumPulses[i] = int32(rd.DecodeICDF(silkPulsesPerBlockICDF[rateLevel][:], 8))
		for sumPulses[i] == silkMaxPulses+1 {
			nLshifts[i]++
			icdf := silkPulsesPerBlockICDF[nRateLevels-1][:]
			if nLshifts[i] == 10 {
				icdf = icdf[1:]
			}
			sumPulses[i] = int32(rd.DecodeICDF(icdf, 8))
		}
	}

	for i := 0; i < iter; i++ {
		block := pulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength]
		if sumPulses[i] > 0 {
			ShellDecode(rd, block, int(sumPulses[i]))
		} else {
			clear(block)
		}
	}

	for i := 0; i < iter; i++ {
		nLS := nLshifts[i]
		if nLS == 0 {
			continue
		}
		block := pulses[i*shellCodecFrameLength : (i+1)*shellCodecFrameLength]
		for k := range block {
			q := int32(block[k])
			for j := int32(0); j < nLS; j++ {
				q = q<<1 + int32(rd.DecodeICDF(silkLSBICDF, 8))
			}
			block[k] = int16(q)
		}
		sumPulses[i] |= nLS << 5
	}

	DecodeSigns(rd, pulses, frameLength, signalType, quantOffsetType, sumPulses[:iter])
}
