package silk

// LPCAnalysisFilter writes the prediction residual of in under the Q12
// filter b: out[i] = in[i] - sum(b[j]*in[i-1-j]). The first order outputs
// have no history and are zeroed.
func LPCAnalysisFilter(out, in, b []int16, length, order int) {
	clear(out[:order])
	for ix := order; ix < length; ix++ {
		predQ12 := silkSMULBB(int32(in[ix-1]), int32(b[0]))
		for j := 1; j < order; j++ {
			predQ12 = silkSMLABB(predQ12, int32(in[ix-1-j]), int32(b[j]))
		}
		outQ12 := int32(in[ix])<<12 - predQ12
		out[ix] = int16(silkSAT16(silkRSHIFT_ROUND(outQ12, 12)))
	}
}

// excitation rebuilds the Q14 excitation from the decoded pulses: each pulse
// is pulled towards zero, offset by the quantizer offset and given a
// pseudo-random sign.
func (s *DecoderState) excitation(pulses []int16) {
	offsetQ10 := silkQuantizationOffsetsQ10[s.indices.SignalType>>1][s.indices.QuantOffsetType]
	seed := int32(s.indices.Seed)
	for i := 0; i < s.frameLength; i++ {
		seed = silkRand(seed)
		exc := int32(pulses[i]) << 14
		switch {
		case exc > 0:
			exc -= quantLevelAdjustQ10 << 4
		case exc < 0:
			exc += quantLevelAdjustQ10 << 4
		}
		exc += offsetQ10 << 4
		if seed < 0 {
			exc = -exc
		}
		s.excQ14[i] = exc
		seed += int32(pulses[i])
	}
}

// decodeCore runs the LTP and LPC synthesis filters over one frame.
func (s *DecoderState) decodeCore(ctrl *decoderControl, out []int16, pulses []int16) {
	s.excitation(pulses)

	var sLPC [maxSubFrameLength + maxLPCOrder]int32
	copy(sLPC[:maxLPCOrder], s.sLPCQ14Buf[:])

	var sLTP [maxLTPMemLength]int16
	var sLTPQ15 [maxLTPMemLength + maxFrameLength]int32
	var presQ14 [maxSubFrameLength]int32
	ltpBufIdx := s.ltpMemLength
	interpolated := s.indices.NLSFInterpCoefQ2 < 4

	for k := 0; k < s.nbSubfr; k++ {
		exc := s.excQ14[k*s.subfrLength:]
		xq := out[k*s.subfrLength : (k+1)*s.subfrLength]
		aQ12 := ctrl.predCoefQ12[k>>1][:]
		bQ14 := ctrl.ltpCoefQ14[k*ltpOrder : (k+1)*ltpOrder]
		signalType := int(s.indices.SignalType)

		gainQ10 := ctrl.gainsQ16[k] >> 6
		invGainQ31 := silkInverse32VarQ(ctrl.gainsQ16[k], 47)

		gainAdjQ16 := int32(1 << 16)
		if ctrl.gainsQ16[k] != s.prevGainQ16 {
			gainAdjQ16 = silkDiv32VarQ(s.prevGainQ16, ctrl.gainsQ16[k], 16)
			for i := 0; i < maxLPCOrder; i++ {
				sLPC[i] = silkSMULWW(gainAdjQ16, sLPC[i])
			}
		}
		s.prevGainQ16 = ctrl.gainsQ16[k]

		// An unvoiced frame right after a concealed voiced one keeps a weak
		// pitch pulse train going for the first half frame.
		if s.LossCount > 0 && s.prevSignalType == typeVoiced && signalType != typeVoiced && k < maxNbSubfr/2 {
			clear(bQ14)
			bQ14[ltpOrder/2] = 1 << 12
			signalType = typeVoiced
			ctrl.pitchL[k] = s.lagPrev
		}

		if signalType == typeVoiced {
			lag := ctrl.pitchL[k]
			if k == 0 || (k == 2 && interpolated) {
				// New LPC filter: re-whiten the output history into the LTP buffer.
				start := max(s.ltpMemLength-lag-s.lpcOrder-ltpOrder/2, 0)
				if k == 2 {
					copy(s.outBuf[s.ltpMemLength:], out[:2*s.subfrLength])
				}
				LPCAnalysisFilter(sLTP[start:], s.outBuf[start+k*s.subfrLength:], aQ12, s.ltpMemLength-start, s.lpcOrder)
				if k == 0 {
					invGainQ31 = silkSMULWB(invGainQ31, ctrl.ltpScaleQ14) << 2
				}
				for i := 0; i < lag+ltpOrder/2; i++ {
					sLTPQ15[ltpBufIdx-i-1] = silkSMULWB(invGainQ31, int32(sLTP[s.ltpMemLength-i-1]))
				}
			} else if gainAdjQ16 != 1<<16 {
				for i := 0; i < lag+ltpOrder/2; i++ {
					sLTPQ15[ltpBufIdx-i-1] = silkSMULWW(gainAdjQ16, sLTPQ15[ltpBufIdx-i-1])
				}
			}

			pred := ltpBufIdx - lag + ltpOrder/2
			for i := 0; i < s.subfrLength; i++ {
				ltpPredQ13 := int32(2)
				for j := 0; j < ltpOrder; j++ {
					ltpPredQ13 = silkSMLAWB(ltpPredQ13, sLTPQ15[pred+i-j], int32(bQ14[j]))
				}
				presQ14[i] = exc[i] + ltpPredQ13<<1
				sLTPQ15[ltpBufIdx] = presQ14[i] << 1
				ltpBufIdx++
			}
		} else {
			copy(presQ14[:s.subfrLength], exc[:s.subfrLength])
		}

		for i := 0; i < s.subfrLength; i++ {
			lpcPredQ10 := int32(s.lpcOrder >> 1)
			for j := 0; j < s.lpcOrder; j++ {
				lpcPredQ10 = silkSMLAWB(lpcPredQ10, sLPC[maxLPCOrder+i-j-1], int32(aQ12[j]))
			}
			sLPC[maxLPCOrder+i] = silkAddSat32(presQ14[i], silkLShiftSAT32(lpcPredQ10, 4))
			xq[i] = int16(silkSAT16(silkRSHIFT_ROUND(silkSMULWW(sLPC[maxLPCOrder+i], gainQ10), 8)))
		}
		copy(sLPC[:maxLPCOrder], sLPC[s.subfrLength:s.subfrLength+maxLPCOrder])
	}
	copy(s.sLPCQ14Buf[:], sLPC[:maxLPCOrder])
}

// updateOutBuf appends the frame to the output history used by the LTP
// re-whitening and by concealment.
func (s *DecoderState) updateOutBuf(frame []int16) {
	mvLen := s.ltpMemLength - s.frameLength
	copy(s.outBuf[:mvLen], s.outBuf[s.frameLength:s.frameLength+mvLen])
	copy(s.outBuf[mvLen:mvLen+s.frameLength], frame[:s.frameLength])
}
