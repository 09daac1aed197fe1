package silk

// Packet loss concealment. While frames arrive, the concealment memory keeps
// the strongest pitch pulse, the last LPC filter and the last two gains. A
// lost frame is synthesized by running the LTP and LPC filters over a noise
// excitation drawn from the last good frame, with both the harmonic and the
// noise part decaying from one loss to the next.

var (
	plcHarmAttQ15       = [2]int32{32440, 31130} // 0.99, 0.95
	plcRandAttVoicedQ15 = [2]int32{31130, 26214} // 0.95, 0.8
	plcRandAttUVQ15     = [2]int32{32440, 29491} // 0.99, 0.9
)

func (p *plcState) reset(g *frameGeometry) {
	p.pitchLQ8 = int32(g.frameLength) << 7
	p.prevGainQ16 = [2]int32{1 << 16, 1 << 16}
	p.subfrLength = 20
	p.nbSubfr = 2
}

// plc updates the concealment memory after a good frame, or fills frame with
// concealment when lost is set.
func (s *DecoderState) plc(ctrl *decoderControl, frame []int16, lost bool) {
	if s.fsKHz != s.plcMem.fsKHz {
		s.plcMem.reset(&s.frameGeometry)
		s.plcMem.fsKHz = s.fsKHz
	}
	if lost {
		s.plcConceal(ctrl, frame)
		s.LossCount++
		return
	}
	s.plcUpdate(ctrl)
}

func (s *DecoderState) plcUpdate(ctrl *decoderControl) {
	p := &s.plcMem
	s.prevSignalType = int(s.indices.SignalType)

	if s.indices.SignalType == typeVoiced {
		// Keep the taps of the subframe with the strongest pitch gain within
		// the last pitch period, moved onto the center tap.
		var ltpGainQ14 int32
		for j := 0; j*s.subfrLength < ctrl.pitchL[s.nbSubfr-1] && j < s.nbSubfr; j++ {
			taps := ctrl.ltpCoefQ14[(s.nbSubfr-1-j)*ltpOrder : (s.nbSubfr-j)*ltpOrder]
			var g int32
			for _, b := range taps {
				g += int32(b)
			}
			if g > ltpGainQ14 {
				ltpGainQ14 = g
				copy(p.ltpCoefQ14[:], taps)
				p.pitchLQ8 = int32(ctrl.pitchL[s.nbSubfr-1-j]) << 8
			}
		}
		p.ltpCoefQ14 = [ltpOrder]int16{}
		p.ltpCoefQ14[ltpOrder/2] = int16(ltpGainQ14)

		switch {
		case ltpGainQ14 < vPitchGainStartMinQ14:
			scaleQ10 := (vPitchGainStartMinQ14 << 10) / max(ltpGainQ14, 1)
			for i := range p.ltpCoefQ14 {
				p.ltpCoefQ14[i] = int16(silkSMULBB(int32(p.ltpCoefQ14[i]), scaleQ10) >> 10)
			}
		case ltpGainQ14 > vPitchGainStartMaxQ14:
			scaleQ14 := (vPitchGainStartMaxQ14 << 14) / max(ltpGainQ14, 1)
			for i := range p.ltpCoefQ14 {
				p.ltpCoefQ14[i] = int16(silkSMULBB(int32(p.ltpCoefQ14[i]), scaleQ14) >> 14)
			}
		}
	} else {
		p.pitchLQ8 = int32(s.fsKHz*peMaxLagMs) << 8
		p.ltpCoefQ14 = [ltpOrder]int16{}
	}

	copy(p.prevLPCQ12[:s.lpcOrder], ctrl.predCoefQ12[1][:s.lpcOrder])
	p.prevLTPScaleQ14 = ctrl.ltpScaleQ14
	copy(p.prevGainQ16[:], ctrl.gainsQ16[s.nbSubfr-2:s.nbSubfr])
	p.subfrLength = s.subfrLength
	p.nbSubfr = s.nbSubfr
}

// plcEnergy measures the gain-scaled excitation of the last two subframes.
func (s *DecoderState) plcEnergy(prevGainQ10 [2]int32) (e1 int32, shift1 int, e2 int32, shift2 int) {
	var buf [2 * maxSubFrameLength]int16
	for k := 0; k < 2; k++ {
		exc := s.excQ14[(k+s.nbSubfr-2)*s.subfrLength:]
		for i := 0; i < s.subfrLength; i++ {
			buf[k*s.subfrLength+i] = int16(silkSAT16(silkSMULWW(exc[i], prevGainQ10[k]) >> 8))
		}
	}
	e1, shift1 = SumSqrShift(buf[:s.subfrLength])
	e2, shift2 = SumSqrShift(buf[s.subfrLength : 2*s.subfrLength])
	return e1, shift1, e2, shift2
}

func (s *DecoderState) plcConceal(ctrl *decoderControl, frame []int16) {
	p := &s.plcMem
	prevGainQ10 := [2]int32{p.prevGainQ16[0] >> 6, p.prevGainQ16[1] >> 6}

	if s.FirstFrameAfterReset {
		p.prevLPCQ12 = [maxLPCOrder]int16{}
	}

	// Draw the noise from the quieter of the last two subframes.
	e1, shift1, e2, shift2 := s.plcEnergy(prevGainQ10)
	var randPtr int
	if e1>>shift2 < e2>>shift1 {
		randPtr = max(0, (p.nbSubfr-1)*p.subfrLength-plcRandBufSize)
	} else {
		randPtr = max(0, p.nbSubfr*p.subfrLength-plcRandBufSize)
	}

	bQ14 := &p.ltpCoefQ14
	randScaleQ14 := p.randScaleQ14
	att := min(s.LossCount, 1)
	harmGainQ15 := plcHarmAttQ15[att]
	randGainQ15 := plcRandAttUVQ15[att]
	if s.prevSignalType == typeVoiced {
		randGainQ15 = plcRandAttVoicedQ15[att]
	}

	BWExpander(p.prevLPCQ12[:s.lpcOrder], plcBWECoefQ16)

	if s.LossCount == 0 {
		randScaleQ14 = 1 << 14
		if s.prevSignalType == typeVoiced {
			for _, b := range bQ14 {
				randScaleQ14 -= int32(b)
			}
			randScaleQ14 = max(3277, randScaleQ14) // 0.2
			randScaleQ14 = silkSMULBB(randScaleQ14, p.prevLTPScaleQ14) >> 14
		} else {
			// Less noise after a strongly resonant unvoiced filter.
			invGainQ30 := LPCInversePredGain(p.prevLPCQ12[:s.lpcOrder])
			downScaleQ30 := min(int32(1<<30)>>log2InvLPCGainHighThres, invGainQ30)
			downScaleQ30 = max(int32(1<<30)>>log2InvLPCGainLowThres, downScaleQ30)
			downScaleQ30 <<= log2InvLPCGainHighThres
			randGainQ15 = silkSMULWB(downScaleQ30, randGainQ15) >> 14
		}
	}

	seed := p.randSeed
	lag := int(silkRSHIFT_ROUND(p.pitchLQ8, 8))
	ltpBufIdx := s.ltpMemLength

	// Re-whiten the output history with the bandwidth-expanded filter.
	var sLTP [maxLTPMemLength]int16
	var sLTPQ14 [maxLTPMemLength + maxFrameLength]int32
	start := max(s.ltpMemLength-lag-s.lpcOrder-ltpOrder/2, 0)
	LPCAnalysisFilter(sLTP[start:], s.outBuf[start:], p.prevLPCQ12[:], s.ltpMemLength-start, s.lpcOrder)
	invGainQ30 := min(silkInverse32VarQ(p.prevGainQ16[1], 46), silkInt32Max>>1)
	for i := start + s.lpcOrder; i < s.ltpMemLength; i++ {
		sLTPQ14[i] = silkSMULWB(invGainQ30, int32(sLTP[i]))
	}

	for k := 0; k < s.nbSubfr; k++ {
		pred := ltpBufIdx - lag + ltpOrder/2
		for i := 0; i < s.subfrLength; i++ {
			ltpPredQ12 := int32(2)
			for j := 0; j < ltpOrder; j++ {
				ltpPredQ12 = silkSMLAWB(ltpPredQ12, sLTPQ14[pred+i-j], int32(bQ14[j]))
			}
			seed = silkRand(seed)
			idx := int(seed>>25) & (plcRandBufSize - 1)
			sLTPQ14[ltpBufIdx] = silkSMLAWB(ltpPredQ12, s.excQ14[randPtr+idx], randScaleQ14) << 2
			ltpBufIdx++
		}

		for j := range bQ14 {
			bQ14[j] = int16(silkSMULBB(harmGainQ15, int32(bQ14[j])) >> 15)
		}
		randScaleQ14 = silkSMULBB(randScaleQ14, randGainQ15) >> 15

		// Let the pitch drift slowly upwards.
		p.pitchLQ8 = silkSMLAWB(p.pitchLQ8, p.pitchLQ8, plcPitchDriftFacQ16)
		p.pitchLQ8 = min(p.pitchLQ8, int32(peMaxLagMs*s.fsKHz)<<8)
		lag = int(silkRSHIFT_ROUND(p.pitchLQ8, 8))
	}

	lpcBase := s.ltpMemLength - maxLPCOrder
	copy(sLTPQ14[lpcBase:lpcBase+maxLPCOrder], s.sLPCQ14Buf[:])
	for i := 0; i < s.frameLength; i++ {
		n := lpcBase + maxLPCOrder + i
		lpcPredQ10 := int32(s.lpcOrder >> 1)
		for j := 0; j < s.lpcOrder; j++ {
			lpcPredQ10 = silkSMLAWB(lpcPredQ10, sLTPQ14[n-j-1], int32(p.prevLPCQ12[j]))
		}
		sLTPQ14[n] += lpcPredQ10 << 4
		frame[i] = int16(silkSAT16(silkRSHIFT_ROUND(silkSMULWW(sLTPQ14[n], prevGainQ10[1]), 8)))
	}
	copy(s.sLPCQ14Buf[:], sLTPQ14[lpcBase+s.frameLength:lpcBase+s.frameLength+maxLPCOrder])

	p.randSeed = seed
	p.randScaleQ14 = randScaleQ14
	for i := range ctrl.pitchL {
		ctrl.pitchL[i] = lag
	}
}

// plcGlueFrames smooths the step from concealment back to decoded audio: a
// first good frame louder than the concealment before it is faded in.
func (s *DecoderState) plcGlueFrames(frame []int16) {
	p := &s.plcMem
	if s.LossCount > 0 {
		p.concEnergy, p.concEnergyShift = SumSqrShift(frame)
		p.lastFrameLost = true
		return
	}
	if p.lastFrameLost {
		energy, shift := SumSqrShift(frame)
		switch {
		case shift > p.concEnergyShift:
			p.concEnergy >>= shift - p.concEnergyShift
		case shift < p.concEnergyShift:
			energy >>= p.concEnergyShift - shift
		}

		if energy > p.concEnergy {
			lz := silkCLZ32(p.concEnergy) - 1
			p.concEnergy <<= lz
			energy >>= max(24-lz, 0)
			fracQ24 := p.concEnergy / max(energy, 1)

			gainQ16 := silkSqrtApprox(fracQ24) << 4
			slopeQ16 := ((1 << 16) - gainQ16) / int32(len(frame))
			// Steeper than linear so onsets after silence are not lost.
			slopeQ16 <<= 2

			for i := range frame {
				frame[i] = int16(silkSMULWB(gainQ16, int32(frame[i])))
				gainQ16 += slopeQ16
				if gainQ16 > 1<<16 {
					break
				}
			}
		}
	}
	p.lastFrameLost = false
}

// SumSqrShift returns the energy of x as energy << shift, with energy kept
// below 2^30.
func SumSqrShift(x []int16) (energy int32, shift int) {
	n := len(x) - 1
	var nrg int32
	i := 0
	for ; i < n; i += 2 {
		nrg += int32(x[i])*int32(x[i]) + int32(x[i+1])*int32(x[i+1])
		if nrg < 0 {
			nrg = int32(uint32(nrg) >> 2)
			shift = 2
			i += 2
			break
		}
	}
	for ; i < n; i += 2 {
		tmp := uint32(int32(x[i])*int32(x[i]) + int32(x[i+1])*int32(x[i+1]))
		nrg = int32(uint32(nrg) + tmp>>shift)
		if nrg < 0 {
			nrg = int32(uint32(nrg) >> 2)
			shift += 2
		}
	}
	if i == n {
		tmp := uint32(int32(x[i]) * int32(x[i]))
		nrg = int32(uint32(nrg) + tmp>>shift)
	}
	if uint32(nrg)&0xc0000000 != 0 {
		nrg = int32(uint32(nrg) >> 2)
		shift += 2
	}
	return nrg, shift
}
