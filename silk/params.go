package silk

// DecodePitch expands a lag index and contour index into one pitch lag per
// subframe, limited to the 2..18 ms lag range of the rate.
func DecodePitch(lagIndex int16, contourIndex int8, pitchL []int, fsKHz, nbSubfr int) {
	minLag := peMinLagMs * fsKHz
	maxLag := peMaxLagMs * fsKHz
	lag := minLag + int(lagIndex)
	for k := 0; k < nbSubfr; k++ {
		pitchL[k] = silkLimitInt(lag+int(pitchContour(fsKHz, nbSubfr, k, int(contourIndex))), minLag, maxLag)
	}
}

// pitchContourSize is the number of contour codebook entries for the rate
// and frame size.
func pitchContourSize(fsKHz, nbSubfr int) int {
	switch {
	case fsKHz == 8 && nbSubfr == maxNbSubfr:
		return peNbCbksStage2Ext
	case fsKHz == 8:
		return peNbCbksStage210ms
	case nbSubfr == maxNbSubfr:
		return peNbCbksStage3Max
	default:
		return peNbCbksStage310ms
	}
}

// pitchContour returns the lag offset of subframe k under contour cbk.
func pitchContour(fsKHz, nbSubfr, k, cbk int) int8 {
	cbk = silkLimitInt(cbk, 0, pitchContourSize(fsKHz, nbSubfr)-1)
	switch {
	case fsKHz == 8 && nbSubfr == maxNbSubfr:
		return silkCBLagsStage2[k][cbk]
	case fsKHz == 8:
		return silkCBLagsStage210ms[k][cbk]
	case nbSubfr == maxNbSubfr:
		return silkCBLagsStage3[k][cbk]
	default:
		return silkCBLagsStage310ms[k][cbk]
	}
}

// decodeParameters turns the frame's indices into gains, LPC filters, pitch
// lags and LTP taps.
func (s *DecoderState) decodeParameters(ctrl *decoderControl, condCoding int) {
	GainsDequant(ctrl.gainsQ16[:], s.indices.GainsIndices[:], &s.lastGainIndex, condCoding == codeConditionally, s.nbSubfr)

	order := s.lpcOrder
	var nlsfQ15 [maxLPCOrder]int16
	NLSFDecode(nlsfQ15[:order], s.indices.NLSFIndices[:], s.nlsfCB)
	NLSF2A(ctrl.predCoefQ12[1][:order], nlsfQ15[:order])

	// The previous NLSFs are meaningless after a reset.
	if s.FirstFrameAfterReset {
		s.indices.NLSFInterpCoefQ2 = 4
	}
	if s.indices.NLSFInterpCoefQ2 < 4 {
		var nlsf0Q15 [maxLPCOrder]int16
		InterpolateNLSF(nlsf0Q15[:order], s.prevNLSFQ15[:order], nlsfQ15[:order], int(s.indices.NLSFInterpCoefQ2))
		NLSF2A(ctrl.predCoefQ12[0][:order], nlsf0Q15[:order])
	} else {
		ctrl.predCoefQ12[0] = ctrl.predCoefQ12[1]
	}
	s.prevNLSFQ15 = nlsfQ15

	// Soften the filters after a loss so a mismatched filter state cannot ring.
	if s.LossCount > 0 {
		BWExpander(ctrl.predCoefQ12[0][:order], bweAfterLossQ16)
		BWExpander(ctrl.predCoefQ12[1][:order], bweAfterLossQ16)
	}

	if s.indices.SignalType != typeVoiced {
		ctrl.pitchL = [maxNbSubfr]int{}
		ctrl.ltpCoefQ14 = [ltpOrder * maxNbSubfr]int16{}
		s.indices.PERIndex = 0
		ctrl.ltpScaleQ14 = 0
		return
	}

	DecodePitch(s.indices.LagIndex, s.indices.ContourIndex, ctrl.pitchL[:], s.fsKHz, s.nbSubfr)
	cbk := silkLTPVQQ7[s.indices.PERIndex]
	for k := 0; k < s.nbSubfr; k++ {
		taps := &cbk[s.indices.LTPIndex[k]]
		for i := 0; i < ltpOrder; i++ {
			ctrl.ltpCoefQ14[k*ltpOrder+i] = int16(taps[i]) << 7
		}
	}
	ctrl.ltpScaleQ14 = silkLTPScalesQ14[s.indices.LTPScaleIndex]
}
