package silk

// nsqLPCBufLength is the short-term history kept between subframes.
const nsqLPCBufLength = maxLPCOrder

const harmShapeFIRTaps = 3

// NSQState holds the quantizer's copy of the decoder state: the
// reconstructed output, the short-term synthesis memory and the gain the
// memories are currently scaled by.
type NSQState struct {
	g frameGeometry

	xq          [maxLTPMemLength + maxFrameLength]int16
	sLPCQ14     [maxSubFrameLength + nsqLPCBufLength]int32
	lagPrev     int
	sLTPBufIdx  int
	randSeed    int32
	prevGainQ16 int32
	rewhiteFlag bool

	// Noise-shaping filter memories.
	sLTPShpQ14    [maxLTPMemLength + maxFrameLength]int32
	sLTPShpBufIdx int
	sAR2Q14       [maxShapeLPCOrder]int32
	sLFARShpQ14   int32
	sDiffShpQ14   int32

	// Scratch, reused across frames.
	sLTPQ15 [maxLTPMemLength + maxFrameLength]int32
	sLTP    [maxLTPMemLength + maxFrameLength]int16
	xScQ10  [maxSubFrameLength]int32
}

// NSQParams carries one frame's quantized parameters into the quantizer.
type NSQParams struct {
	SignalType       int
	QuantOffsetType  int
	NLSFInterpCoefQ2 int
	Seed             int

	PredCoefQ12 *[2][maxLPCOrder]int16
	LTPCoefQ14  []int16
	GainsQ16    []int32
	PitchL      []int
	LTPScaleQ14 int32
	LambdaQ10   int32

	// Shape holds the noise-shaping filters; nil leaves the quantization
	// noise white.
	Shape *NoiseShapeParams
}

// NoiseShapeParams are the per-subframe noise-shaping filters of a frame.
type NoiseShapeParams struct {
	Order            int // short-term shaping order, even
	ARQ13            [maxNbSubfr][maxShapeLPCOrder]int16
	HarmShapeGainQ14 [maxNbSubfr]int32
	TiltQ14          [maxNbSubfr]int32
	LFShpQ14         [maxNbSubfr]int32 // AR part in the high half, MA part in the low
}

// subframeShape is one subframe's view of NoiseShapeParams.
type subframeShape struct {
	arQ13      []int16
	harmPacked int32
	tiltQ14    int32
	lfQ14      int32
}

// NewNSQState returns a quantizer for the given rate and frame size.
func NewNSQState(fsKHz, nbSubfr int) *NSQState {
	s := &NSQState{}
	s.Reset(fsKHz, nbSubfr)
	return s
}

// Reset clears the quantizer memories and adopts a new geometry.
func (s *NSQState) Reset(fsKHz, nbSubfr int) {
	*s = NSQState{g: newFrameGeometry(fsKHz, nbSubfr), prevGainQ16: 1 << 16}
}

// Quantize turns the frame x into pulses and the matching reconstruction
// xq, shaping the quantization noise with p.Shape. The reconstruction is the
// decoder's output for the same indices and pulses, bit for bit.
//
// This follows libopus silk_NSQ.
func (s *NSQState) Quantize(p *NSQParams, x []int16, pulses []int8, xq []int16) {
	g := &s.g
	s.randSeed = int32(p.Seed)
	lag := s.lagPrev
	offsetQ10 := silkQuantizationOffsetsQ10[p.SignalType>>1][p.QuantOffsetType]
	interp := 1
	if p.NLSFInterpCoefQ2 == 4 {
		interp = 0
	}

	s.sLTPBufIdx = g.ltpMemLength
	s.sLTPShpBufIdx = g.ltpMemLength
	out := s.xq[g.ltpMemLength:]
	for k := 0; k < g.nbSubfr; k++ {
		aQ12 := p.PredCoefQ12[(k>>1)|(1-interp)][:g.lpcOrder]
		bQ14 := p.LTPCoefQ14[k*ltpOrder : (k+1)*ltpOrder]
		var sh subframeShape
		if sp := p.Shape; sp != nil {
			harm := sp.HarmShapeGainQ14[k]
			sh = subframeShape{
				arQ13:      sp.ARQ13[k][:sp.Order],
				harmPacked: harm>>2 | (harm>>1)<<16,
				tiltQ14:    sp.TiltQ14[k],
				lfQ14:      sp.LFShpQ14[k],
			}
		}

		s.rewhiteFlag = false
		if p.SignalType == typeVoiced {
			lag = p.PitchL[k]
			// Re-whiten the reconstruction whenever the LPC filter changes.
			if k&(3-interp<<1) == 0 {
				start := g.ltpMemLength - lag - g.lpcOrder - ltpOrder/2
				LPCAnalysisFilter(s.sLTP[start:], s.xq[start+k*g.subfrLength:], aQ12, g.ltpMemLength-start, g.lpcOrder)
				s.rewhiteFlag = true
				s.sLTPBufIdx = g.ltpMemLength
			}
		}

		sub := k * g.subfrLength
		s.scaleStates(x[sub:sub+g.subfrLength], k, p)
		s.quantizeSubframe(p.SignalType, pulses[sub:sub+g.subfrLength], out[sub:sub+g.subfrLength], aQ12, bQ14, &sh, lag, p.GainsQ16[k], p.LambdaQ10, offsetQ10)
	}

	s.lagPrev = p.PitchL[g.nbSubfr-1]
	copy(xq[:g.frameLength], s.xq[g.ltpMemLength:g.ltpMemLength+g.frameLength])
	copy(s.xq[:g.ltpMemLength], s.xq[g.frameLength:g.frameLength+g.ltpMemLength])
	copy(s.sLTPShpQ14[:g.ltpMemLength], s.sLTPShpQ14[g.frameLength:g.frameLength+g.ltpMemLength])
}

// scaleStates moves the input and the prediction memories into the scale of
// subframe k's gain.
func (s *NSQState) scaleStates(x []int16, k int, p *NSQParams) {
	g := &s.g
	lag := p.PitchL[k]
	gainQ16 := p.GainsQ16[k]
	invGainQ31 := silkInverse32VarQ(max(gainQ16, 1), 47)

	invGainQ26 := silkRSHIFT_ROUND(invGainQ31, 5)
	for i := 0; i < g.subfrLength; i++ {
		s.xScQ10[i] = silkSMULWW(int32(x[i]), invGainQ26)
	}

	// The re-whitened history is unscaled.
	if s.rewhiteFlag {
		if k == 0 {
			invGainQ31 = silkSMULWB(invGainQ31, p.LTPScaleQ14) << 2
		}
		for i := s.sLTPBufIdx - lag - ltpOrder/2; i < s.sLTPBufIdx; i++ {
			s.sLTPQ15[i] = silkSMULWB(invGainQ31, int32(s.sLTP[i]))
		}
	}

	if gainQ16 != s.prevGainQ16 {
		gainAdjQ16 := silkDiv32VarQ(s.prevGainQ16, gainQ16, 16)
		for i := s.sLTPShpBufIdx - g.ltpMemLength; i < s.sLTPShpBufIdx; i++ {
			s.sLTPShpQ14[i] = silkSMULWW(gainAdjQ16, s.sLTPShpQ14[i])
		}
		if p.SignalType == typeVoiced && !s.rewhiteFlag {
			for i := s.sLTPBufIdx - lag - ltpOrder/2; i < s.sLTPBufIdx; i++ {
				s.sLTPQ15[i] = silkSMULWW(gainAdjQ16, s.sLTPQ15[i])
			}
		}
		s.sLFARShpQ14 = silkSMULWW(gainAdjQ16, s.sLFARShpQ14)
		s.sDiffShpQ14 = silkSMULWW(gainAdjQ16, s.sDiffShpQ14)
		for i := 0; i < nsqLPCBufLength; i++ {
			s.sLPCQ14[i] = silkSMULWW(gainAdjQ16, s.sLPCQ14[i])
		}
		for i := range s.sAR2Q14 {
			s.sAR2Q14[i] = silkSMULWW(gainAdjQ16, s.sAR2Q14[i])
		}
		s.prevGainQ16 = gainQ16
	}
}

// quantizeSubframe runs the sample loop for one subframe.
func (s *NSQState) quantizeSubframe(signalType int, pulses []int8, xq []int16, aQ12, bQ14 []int16, sh *subframeShape, lag int, gainQ16, lambdaQ10, offsetQ10 int32) {
	predLag := s.sLTPBufIdx - lag + ltpOrder/2
	gainQ10 := gainQ16 >> 6
	order := len(aQ12)
	lpc := nsqLPCBufLength - 1

	for i := range pulses {
		s.randSeed = silkRand(s.randSeed)

		lpcPredQ10 := int32(order >> 1)
		for j := 0; j < order; j++ {
			lpcPredQ10 = silkSMLAWB(lpcPredQ10, s.sLPCQ14[lpc-j], int32(aQ12[j]))
		}

		var ltpPredQ13 int32
		if signalType == typeVoiced {
			ltpPredQ13 = 2
			for j := 0; j < ltpOrder; j++ {
				ltpPredQ13 = silkSMLAWB(ltpPredQ13, s.sLTPQ15[predLag-j], int32(bQ14[j]))
			}
			predLag++
		}

		// Noise shaping feedback.
		var nARQ12 int32
		if len(sh.arQ13) > 0 {
			nARQ12 = s.shapeFeedback(sh.arQ13)
		}
		nARQ12 = silkSMLAWB(nARQ12, s.sLFARShpQ14, sh.tiltQ14)
		nLFQ12 := silkSMULWB(s.sLTPShpQ14[s.sLTPShpBufIdx-1], sh.lfQ14)
		nLFQ12 = silkSMLAWT(nLFQ12, s.sLFARShpQ14, sh.lfQ14)

		predQ12 := lpcPredQ10<<2 - nARQ12 - nLFQ12
		var tmpQ10 int32
		if lag > 0 {
			shp := s.sLTPShpBufIdx - lag + harmShapeFIRTaps/2
			nLTPQ13 := silkSMULWB(s.sLTPShpQ14[shp]+s.sLTPShpQ14[shp-2], sh.harmPacked)
			nLTPQ13 = silkSMLAWT(nLTPQ13, s.sLTPShpQ14[shp-1], sh.harmPacked) << 1
			tmpQ10 = silkRSHIFT_ROUND(silkADD_LSHIFT32(ltpPredQ13-nLTPQ13, predQ12, 1), 3)
		} else {
			tmpQ10 = silkRSHIFT_ROUND(predQ12, 2)
		}

		rQ10 := s.xScQ10[i] - tmpQ10
		if s.randSeed < 0 {
			rQ10 = -rQ10
		}
		rQ10 = silkLimit32(rQ10, -(31 << 10), 30<<10)

		q1Q10 := rdQuantize(rQ10, offsetQ10, lambdaQ10)
		pulses[i] = int8(silkRSHIFT_ROUND(q1Q10, 10))

		excQ14 := q1Q10 << 4
		if s.randSeed < 0 {
			excQ14 = -excQ14
		}
		lpcExcQ14 := silkADD_LSHIFT32(excQ14, ltpPredQ13, 1)
		xqQ14 := silkADD_LSHIFT32(lpcExcQ14, lpcPredQ10, 4)
		xq[i] = int16(silkSAT16(silkRSHIFT_ROUND(silkSMULWW(xqQ14, gainQ10), 8)))

		lpc++
		s.sLPCQ14[lpc] = xqQ14
		s.sDiffShpQ14 = xqQ14 - s.xScQ10[i]<<4
		s.sLFARShpQ14 = s.sDiffShpQ14 - nARQ12<<2
		s.sLTPShpQ14[s.sLTPShpBufIdx] = s.sLFARShpQ14 - nLFQ12<<2
		s.sLTPQ15[s.sLTPBufIdx] = lpcExcQ14 << 1
		s.sLTPShpBufIdx++
		s.sLTPBufIdx++

		s.randSeed += int32(pulses[i])
	}

	copy(s.sLPCQ14[:nsqLPCBufLength], s.sLPCQ14[len(pulses):len(pulses)+nsqLPCBufLength])
}

// shapeFeedback shifts the latest shaping error into the AR shaping memory
// and returns the filter output in Q12.
func (s *NSQState) shapeFeedback(coefQ13 []int16) int32 {
	order := len(coefQ13)
	tmp2 := s.sDiffShpQ14
	tmp1 := s.sAR2Q14[0]
	s.sAR2Q14[0] = tmp2
	out := int32(order >> 1)
	out = silkSMLAWB(out, tmp2, int32(coefQ13[0]))
	for j := 2; j < order; j += 2 {
		tmp2 = s.sAR2Q14[j-1]
		s.sAR2Q14[j-1] = tmp1
		out = silkSMLAWB(out, tmp1, int32(coefQ13[j-1]))
		tmp1 = s.sAR2Q14[j]
		s.sAR2Q14[j] = tmp2
		out = silkSMLAWB(out, tmp2, int32(coefQ13[j]))
	}
	s.sAR2Q14[order-1] = tmp1
	out = silkSMLAWB(out, tmp1, int32(coefQ13[order-1]))
	return out << 1
}

// rdQuantize picks between the two quantization levels around rQ10, trading
// squared error against lambdaQ10 times the level's magnitude.
func rdQuantize(rQ10, offsetQ10, lambdaQ10 int32) int32 {
	q1Q10 := rQ10 - offsetQ10
	q1Q0 := q1Q10 >> 10
	if lambdaQ10 > 2048 {
		rdoOffset := lambdaQ10/2 - 512
		switch {
		case q1Q10 > rdoOffset:
			q1Q0 = (q1Q10 - rdoOffset) >> 10
		case q1Q10 < -rdoOffset:
			q1Q0 = (q1Q10 + rdoOffset) >> 10
		case q1Q10 < 0:
			q1Q0 = -1
		default:
			q1Q0 = 0
		}
	}

	var q2Q10, rd1Q20, rd2Q20 int32
	switch {
	case q1Q0 > 0:
		q1Q10 = q1Q0<<10 - quantLevelAdjustQ10 + offsetQ10
		q2Q10 = q1Q10 + 1024
		rd1Q20 = silkSMULBB(q1Q10, lambdaQ10)
		rd2Q20 = silkSMULBB(q2Q10, lambdaQ10)
	case q1Q0 == 0:
		q1Q10 = offsetQ10
		q2Q10 = q1Q10 + 1024 - quantLevelAdjustQ10
		rd1Q20 = silkSMULBB(q1Q10, lambdaQ10)
		rd2Q20 = silkSMULBB(q2Q10, lambdaQ10)
	case q1Q0 == -1:
		q2Q10 = offsetQ10
		q1Q10 = q2Q10 - (1024 - quantLevelAdjustQ10)
		rd1Q20 = silkSMULBB(-q1Q10, lambdaQ10)
		rd2Q20 = silkSMULBB(q2Q10, lambdaQ10)
	default:
		q1Q10 = q1Q0<<10 + quantLevelAdjustQ10 + offsetQ10
		q2Q10 = q1Q10 + 1024
		rd1Q20 = silkSMULBB(-q1Q10, lambdaQ10)
		rd2Q20 = silkSMULBB(-q2Q10, lambdaQ10)
	}
	rr := rQ10 - q1Q10
	rd1Q20 = silkSMLABB(rd1Q20, rr, rr)
	rr = rQ10 - q2Q10
	rd2Q20 = silkSMLABB(rd2Q20, rr, rr)
	if rd2Q20 < rd1Q20 {
		return q2Q10
	}
	return q1Q10
}
