package silk

import (
	"math"

	"github.com/thesyncim/gosilk/rangecoding"
)

// Analysis tuning (tuning_parameters.h).
const (
	speechActivityDTXThresQ8 = 13    // SILK_FIX_CONST(0.05, 8)
	findPitchWhiteNoiseQ16   = 66    // 1e-3
	findPitchBWEQ16          = 64881 // 0.99
	findLPCWhiteNoiseQ16     = 1     // 1e-5

	lambdaOffset           = 1.2
	lambdaDelayedDecisions = -0.05
	lambdaSpeechAct        = -0.2
	lambdaInputQuality     = -0.1
	lambdaCodingQuality    = -0.2
	lambdaQuantOffset      = 0.8

	reduceBitrate10msBps = 2200

	lbrrSpeechActivityThresQ8 = 77 // SILK_FIX_CONST(0.3, 8)
)

// Activity is the signal analysis that steers the encoder's decisions for a
// packet.
type Activity struct {
	// SpeechQ8 is the speech activity level, 0..255. Frames below 13 are
	// coded as inactive.
	SpeechQ8  int
	Tonality  float64 // 0..1, lowers the voicing threshold
	Noisiness float64 // 0..1, selects the high quantization offset
}

// channelFrame carries the per-frame settings the packet encoder hands to a
// channel.
type channelFrame struct {
	act        Activity
	vad        bool
	condCoding int
	targetBits int
	snrDBQ7    int32
	complexity int
	packetLoss int
	nFrames    int
	seed       int
	frame      int // index within the packet

	// lbrr asks for a redundant copy with the first gain index of each run
	// raised by lbrrGainIncreases.
	lbrr              bool
	lbrrGainIncreases int8
}

// EncoderState is the encoder of one coded channel: mono, mid or side. It
// mirrors the decoder state the bitstream implies so that conditional coding
// and the quantizer's reconstruction stay in step with the far end.
type EncoderState struct {
	frameGeometry

	nsq     NSQState
	indices SideInfoIndices
	history indexHistory

	x      [maxLTPMemLength + maxFrameLength]int16 // input, history first
	res    [maxLTPMemLength + maxFrameLength]int16 // whitened input
	ltpRes [maxNbSubfr * (maxSubFrameLength + maxLPCOrder)]int16

	prevNLSFQ15          [maxLPCOrder]int16
	lastGainIndex        int8
	sumLogGainQ7         int32
	prevSignalType       int
	prevLag              int
	firstFrameAfterReset bool

	pulses [maxFrameLength]int8
	xq     [maxFrameLength]int16
	lpcRes [maxSubFrameLength + maxLPCOrder]int16

	shape       shapeState
	shapeParams NoiseShapeParams
	shapeWin    [maxShapeWinLength]float64
	gainsQ16    [maxNbSubfr]int32

	// Rate loop snapshots.
	rcStart, rcLower   rangecoding.EncoderState
	nsqStart, nsqLower NSQState

	// Redundant copies of the packet's frames, sent with the next packet.
	lbrrFlags             [maxFramesPerPacket]bool
	lbrrIndices           [maxFramesPerPacket]SideInfoIndices
	lbrrPulses            [maxFramesPerPacket][maxFrameLength]int8
	lbrrXQ                [maxFrameLength]int16
	lbrrGainsQ16          [maxNbSubfr]int32
	lbrrPrevLastGainIndex int8
	lbrrSent              bool // copies went out in the current packet
	nsqLBRR               NSQState
}

func (c *EncoderState) reset(fsKHz, nbSubfr int) {
	rcStart, rcLower := c.rcStart, c.rcLower
	*c = EncoderState{frameGeometry: newFrameGeometry(fsKHz, nbSubfr)}
	c.rcStart, c.rcLower = rcStart, rcLower
	c.nsq.Reset(fsKHz, nbSubfr)
	c.nsq.lagPrev = 100
	c.lastGainIndex = 10
	c.firstFrameAfterReset = true
}

func (c *EncoderState) setFrameSize(nbSubfr int) {
	if c.nbSubfr == nbSubfr {
		return
	}
	c.frameGeometry = newFrameGeometry(c.fsKHz, nbSubfr)
	c.nsq.g = c.frameGeometry
	c.lbrrFlags = [maxFramesPerPacket]bool{}
}

// restart mirrors the decoder's side channel restart after mid-only frames.
// The input history is kept.
func (c *EncoderState) restart() {
	clear(c.nsq.xq[:])
	clear(c.nsq.sLPCQ14[:])
	clear(c.nsq.sLTPShpQ14[:])
	clear(c.nsq.sAR2Q14[:])
	c.nsq.sLFARShpQ14, c.nsq.sDiffShpQ14 = 0, 0
	c.nsq.lagPrev = 100
	c.shape = shapeState{}
	c.lastGainIndex = 10
	c.prevSignalType = typeNoVoiceActivity
	c.firstFrameAfterReset = true
}

// LastSignalType reports the signal type of the most recent coded frame.
func (c *EncoderState) LastSignalType() int {
	return c.prevSignalType
}

// LastGainIndex reports the gain index the next conditional frame is coded
// against.
func (c *EncoderState) LastGainIndex() int {
	return int(c.lastGainIndex)
}

// skip feeds a frame that is not coded into the analysis history.
func (c *EncoderState) skip(in []int16) {
	copy(c.x[c.ltpMemLength:c.ltpMemLength+c.frameLength], in)
	c.shiftHistory()
}

func (c *EncoderState) shiftHistory() {
	copy(c.x[:c.ltpMemLength], c.x[c.frameLength:c.frameLength+c.ltpMemLength])
}

// encode analyzes one frame of input, quantizes it and writes its indices
// and pulses to enc.
func (c *EncoderState) encode(enc *rangecoding.Encoder, in []int16, f *channelFrame, tr *EncoderTrace, ft *FrameTrace) {
	g := &c.frameGeometry
	order, nb, subfr := g.lpcOrder, g.nbSubfr, g.subfrLength
	bufLen := g.ltpMemLength + g.frameLength
	copy(c.x[g.ltpMemLength:bufLen], in[:g.frameLength])
	x := c.x[:bufLen]

	idx := &c.indices
	*idx = SideInfoIndices{Seed: int8(f.seed & 3), SignalType: typeNoVoiceActivity}
	if f.vad {
		idx.SignalType = typeUnvoiced
	}
	speech := float64(f.act.SpeechQ8) / 256

	// Whiten the whole buffer for the pitch and LTP searches.
	var ac [maxLPCOrder + 1]int32
	var aQ12 [maxLPCOrder]int16
	Autocorrelation(ac[:order+1], x, order+1)
	applyLagWindow(ac[:order+1], order, findPitchWhiteNoiseQ16)
	computeLPCInto(aQ12[:order], ac[:order+1], order)
	BWExpander(aQ12[:order], findPitchBWEQ16)
	LPCAnalysisFilter(c.res[:bufLen], x, aQ12[:order], bufLen, order)
	predGain := float64(energy16(x[order:])) / max(float64(energy16(c.res[order:bufLen])), 1)

	var pitchL [maxNbSubfr]int
	var ltpCorr float64
	if f.vad {
		prevLag := 0
		thr := 0.6 - 0.1*speech - 0.1*f.act.Tonality
		if c.prevSignalType == typeVoiced {
			prevLag = c.prevLag
			thr -= 0.15
		}
		est := EstimatePitch(pitchL[:], c.res[:bufLen], g.ltpMemLength, g.fsKHz, nb, prevLag, thr)
		if est.Voiced {
			ltpCorr = float64(est.CorrQ15) / 32768
			idx.SignalType = typeVoiced
			idx.LagIndex = est.LagIndex
			idx.ContourIndex = est.ContourIndex
		}
		if tr != nil && tr.Pitch != nil {
			*tr.Pitch = PitchTrace{
				PitchLags:  append(tr.Pitch.PitchLags[:0], pitchL[:nb]...),
				LagIndex:   int(est.LagIndex),
				Contour:    int(est.ContourIndex),
				CorrQ15:    est.CorrQ15,
				Voiced:     est.Voiced,
				SpeechQ8:   f.act.SpeechQ8,
				SignalType: int(idx.SignalType),
			}
		}
	}
	voiced := idx.SignalType == typeVoiced
	if !voiced {
		pitchL = [maxNbSubfr]int{}
	}

	// Preliminary gains, the rms of the whitened input per subframe.
	var gain0Q16, invGainsQ16 [maxNbSubfr]int32
	for k := 0; k < nb; k++ {
		s := g.ltpMemLength + k*subfr
		rms := math.Sqrt(float64(energy16(c.res[s:s+subfr])) / float64(subfr))
		gain0Q16[k] = floatToQ(max(rms, 1), 16)
		invGainsQ16[k] = silkInverse32VarQ(gain0Q16[k], 32)
	}

	// Long-term prediction.
	var bQ14 [maxNbSubfr * ltpOrder]int16
	var predGainQ7 int32
	segLen := subfr + order
	if voiced {
		var wQ18 [maxNbSubfr * ltpOrder * ltpOrder]int32
		predGainQ7 = FindLTP(bQ14[:], wQ18[:], c.res[:bufLen], g.ltpMemLength, pitchL[:], gain0Q16[:], subfr, nb)
		idx.PERIndex, c.sumLogGainQ7 = QuantLTPGains(bQ14[:nb*ltpOrder], idx.LTPIndex[:nb], c.sumLogGainQ7, wQ18[:], muLTPQ9(g.fsKHz), f.complexity < 2, nb)
		idx.LTPScaleIndex = LTPScaleControl(predGainQ7, f.packetLoss, f.nFrames, f.condCoding)
		LTPAnalysisFilter(c.ltpRes[:], x, g.ltpMemLength, bQ14[:], pitchL[:], invGainsQ16[:], subfr, nb, order)
		if tr != nil && tr.LTP != nil {
			*tr.LTP = LTPTrace{
				PitchLags:     append(tr.LTP.PitchLags[:0], pitchL[:nb]...),
				PERIndex:      int(idx.PERIndex),
				LTPIndex:      append(tr.LTP.LTPIndex[:0], idx.LTPIndex[:nb]...),
				BQ14:          append(tr.LTP.BQ14[:0], bQ14[:nb*ltpOrder]...),
				PredGainQ7:    predGainQ7,
				SumLogGainQ7:  c.sumLogGainQ7,
				LTPScaleIndex: int(idx.LTPScaleIndex),
			}
		}
	} else {
		c.sumLogGainQ7 = 0
		for k := 0; k < nb; k++ {
			src := x[g.ltpMemLength-order+k*subfr:]
			dst := c.ltpRes[k*segLen : (k+1)*segLen]
			for i := range dst {
				dst[i] = int16(silkSMULWB(invGainsQ16[k], int32(src[i])))
			}
		}
	}

	// Short-term prediction.
	useInterp := !c.firstFrameAfterReset && nb == maxNbSubfr
	var nlsfQ15 [maxLPCOrder]int16
	var predCoefQ12 [2][maxLPCOrder]int16
	interp, fallbacks := c.findLPC(nlsfQ15[:order], useInterp)
	idx.NLSFInterpCoefQ2 = interp
	rawNLSF := nlsfQ15
	processNLSFs(&predCoefQ12, nlsfQ15[:], c.prevNLSFQ15[:], idx, g.nlsfCB, int32(f.act.SpeechQ8), nb, nlsfSurvivors(f.complexity), useInterp)
	c.prevNLSFQ15 = nlsfQ15
	if tr != nil && tr.NLSF != nil {
		res := tr.NLSF.Residuals[:0]
		for i := 1; i <= order; i++ {
			res = append(res, int(idx.NLSFIndices[i]))
		}
		*tr.NLSF = NLSFTrace{
			RawNLSFQ15:       append(tr.NLSF.RawNLSFQ15[:0], rawNLSF[:order]...),
			QuantizedNLSFQ15: append(tr.NLSF.QuantizedNLSFQ15[:0], nlsfQ15[:order]...),
			Stage1Idx:        int(idx.NLSFIndices[0]),
			Residuals:        res,
			InterpIdx:        int(interp),
			Fallbacks:        fallbacks,
		}
	}

	// Gains from the residual of the quantized predictors.
	snrDB := float64(f.snrDBQ7) / 128
	predGainDB := float64(predGainQ7) / 128
	gainMult := math.Exp2(-0.16 * snrDB)
	invMaxSqrVal := math.Exp2(0.33*(21-snrDB)) / float64(subfr)
	var gainsQ16 [maxNbSubfr]int32
	e := c.lpcRes[:]
	for k := 0; k < nb; k++ {
		LPCAnalysisFilter(e[:segLen], c.ltpRes[k*segLen:], predCoefQ12[k>>1][:order], segLen, order)
		g0 := float64(gain0Q16[k]) / 65536
		nrg := float64(energy16(e[order:segLen])) * g0 * g0
		gain := math.Sqrt(nrg) * gainMult
		if voiced {
			gain *= 1 - 0.5*sigmoid(0.25*(predGainDB-12))
		}
		gain = math.Sqrt(gain*gain + nrg*invMaxSqrVal)
		gainsQ16[k] = max(floatToQ(min(gain, 32767), 16), 1)
	}

	// Quantization offset and rate-distortion tradeoff.
	if voiced {
		if predGainDB <= 1 {
			idx.QuantOffsetType = 1
		}
	} else if f.act.Noisiness >= 0.5 {
		idx.QuantOffsetType = 1
	}
	quantOffset := float64(silkQuantizationOffsetsQ10[idx.SignalType>>1][idx.QuantOffsetType]) / 1024
	codingQuality := sigmoid(0.25 * (snrDB - 20))
	inputQuality := 1 - f.act.Noisiness
	lambda := lambdaOffset + lambdaDelayedDecisions + lambdaSpeechAct*speech +
		lambdaInputQuality*inputQuality + lambdaCodingQuality*codingQuality + lambdaQuantOffset*quantOffset

	p := NSQParams{
		SignalType:       int(idx.SignalType),
		QuantOffsetType:  int(idx.QuantOffsetType),
		NLSFInterpCoefQ2: int(idx.NLSFInterpCoefQ2),
		Seed:             int(idx.Seed),
		PredCoefQ12:      &predCoefQ12,
		LTPCoefQ14:       bQ14[:nb*ltpOrder],
		PitchL:           pitchL[:nb],
		LTPScaleQ14:      silkLTPScalesQ14[idx.LTPScaleIndex],
		LambdaQ10:        floatToQ(lambda, 10),
		Shape:            &c.shapeParams,
	}
	c.analyzeNoiseShape(p.Shape, &shapeAnalysis{
		voiced:        voiced,
		pitchL:        pitchL[:nb],
		ltpCorr:       ltpCorr,
		predGain:      predGain,
		codingQuality: codingQuality,
		inputQuality:  inputQuality,
		speech:        speech,
		complexity:    f.complexity,
	})
	prevGainIndex := c.lastGainIndex
	c.rateLoop(enc, x[g.ltpMemLength:bufLen], gainsQ16[:nb], &p, f, tr)
	c.encodeLBRR(x[g.ltpMemLength:bufLen], &p, f, prevGainIndex)

	c.prevSignalType = int(idx.SignalType)
	c.prevLag = pitchL[nb-1]
	c.firstFrameAfterReset = false
	c.shiftHistory()

	if ft != nil {
		ft.CondCoding = f.condCoding
		ft.Indices = *idx
		ft.GainsQ16 = append([]int32(nil), p.GainsQ16...)
		ft.PitchL = append([]int(nil), pitchL[:nb]...)
	}
}

// rateLoop codes the frame, scaling the gains until the frame lands within
// the bit target or the iteration budget runs out. The last coding attempt
// that fit is kept when a later one overshoots.
func (c *EncoderState) rateLoop(enc *rangecoding.Encoder, x []int16, baseGainsQ16 []int32, p *NSQParams, f *channelFrame, tr *EncoderTrace) {
	g := &c.frameGeometry
	nb, fl := g.nbSubfr, g.frameLength
	idx := &c.indices
	conditional := f.condCoding == codeConditionally
	maxIter := 1 + f.complexity/2

	enc.SaveStateInto(&c.rcStart)
	c.nsqStart = c.nsq
	histStart := c.history
	startBits := enc.Tell()

	gainsQ16 := &c.gainsQ16
	var (
		lowerGainsQ16          [maxNbSubfr]int32
		lowerIdx               SideInfoIndices
		lowerHist              indexHistory
		prev, lowerPrev        int8
		multLower, multUpper   float64
		foundLower, foundUpper bool
		lastID                 int32
		usedBits               []int
	)
	mult := 1.0
	minBits := f.targetBits - f.targetBits/8

	for iter := 0; ; iter++ {
		for k := 0; k < nb; k++ {
			gainsQ16[k] = max(floatToQ(float64(baseGainsQ16[k])*mult/65536, 16), 1)
		}
		prev = c.lastGainIndex
		GainsQuant(idx.GainsIndices[:nb], gainsQ16[:nb], &prev, conditional, nb)
		id := gainsID(idx.GainsIndices[:nb], nb)

		if iter > 0 {
			enc.RestoreState(&c.rcStart)
			c.nsq = c.nsqStart
			c.history = histStart
		}
		p.GainsQ16 = gainsQ16[:nb]
		c.nsq.Quantize(p, x, c.pulses[:fl], c.xq[:fl])
		encodeIndices(enc, g, idx, &c.history, false, f.condCoding)
		EncodePulses(enc, int(idx.SignalType), int(idx.QuantOffsetType), c.pulses[:fl], fl)
		nBits := enc.Tell() - startBits
		if tr != nil && tr.Gains != nil {
			usedBits = append(usedBits, nBits)
		}

		over := nBits > f.targetBits
		if iter == maxIter-1 || (iter > 0 && id == lastID) || (!over && nBits >= minBits) {
			if over && foundLower {
				enc.RestoreState(&c.rcLower)
				c.nsq = c.nsqLower
				c.history = lowerHist
				*idx = lowerIdx
				prev = lowerPrev
				*gainsQ16 = lowerGainsQ16
			}
			break
		}
		lastID = id

		if over {
			foundUpper, multUpper = true, mult
			if foundLower {
				mult = math.Sqrt(multLower * multUpper)
			} else {
				mult *= 1.5
			}
			continue
		}

		foundLower, multLower = true, mult
		enc.SaveStateInto(&c.rcLower)
		c.nsqLower = c.nsq
		lowerHist = c.history
		lowerIdx = *idx
		lowerPrev = prev
		lowerGainsQ16 = *gainsQ16
		if foundUpper {
			mult = math.Sqrt(multLower * multUpper)
		} else {
			mult /= 1.3
		}
	}

	c.lastGainIndex = prev

	if tr != nil && tr.Gains != nil {
		*tr.Gains = GainLoopTrace{
			Iterations:  len(usedBits),
			TargetBits:  f.targetBits,
			UsedBits:    usedBits,
			GainsIndex:  append([]int8(nil), idx.GainsIndices[:nb]...),
			FoundLower:  foundLower,
			FoundHigher: foundUpper,
		}
	}
}

// encodeLBRR quantizes a redundant copy of the frame just coded, for the
// next packet to carry. The copy starts from the quantizer state the primary
// frame started from and reuses its analysis; only the gains differ. The
// first frame of a run of copies is gain coded on its own and raised by
// f.lbrrGainIncreases, so it costs fewer bits.
func (c *EncoderState) encodeLBRR(x []int16, p *NSQParams, f *channelFrame, prevGainIndex int8) {
	i := f.frame
	c.lbrrFlags[i] = false
	if !f.lbrr || f.act.SpeechQ8 <= lbrrSpeechActivityThresQ8 || c.indices.SignalType == typeNoVoiceActivity {
		return
	}
	nb, fl := c.nbSubfr, c.frameLength
	ix := &c.lbrrIndices[i]
	*ix = c.indices
	conditional := i > 0 && c.lbrrFlags[i-1]
	if !conditional {
		// A conditional primary frame has delta gain indices; recode them
		// against the index the decoder holds before this frame.
		if f.condCoding == codeConditionally {
			c.lbrrGainsQ16 = c.gainsQ16
			prev := prevGainIndex
			GainsQuant(ix.GainsIndices[:nb], c.lbrrGainsQ16[:nb], &prev, false, nb)
		}
		c.lbrrPrevLastGainIndex = prevGainIndex
		ix.GainsIndices[0] = min(ix.GainsIndices[0]+f.lbrrGainIncreases, nLevelsQGain-1)
	}
	GainsDequant(c.lbrrGainsQ16[:nb], ix.GainsIndices[:nb], &c.lbrrPrevLastGainIndex, conditional, nb)

	primary := p.GainsQ16
	p.GainsQ16 = c.lbrrGainsQ16[:nb]
	c.nsqLBRR = c.nsqStart
	c.nsqLBRR.Quantize(p, x, c.lbrrPulses[i][:fl], c.lbrrXQ[:fl])
	p.GainsQ16 = primary
	c.lbrrFlags[i] = true
}

// findLPC fits the frame's short-term predictor to the LTP residual and
// returns its NLSFs in nlsfQ15. With useInterp set it also tries predicting
// the first half of the frame from an interpolation between the previous
// frame's NLSFs and a fit to the second half, and reports the interpolation
// factor that wins (4 for none) along with the number of filters that needed
// stabilizing.
func (c *EncoderState) findLPC(nlsfQ15 []int16, useInterp bool) (interp int8, fallbacks int) {
	g := &c.frameGeometry
	order := g.lpcOrder
	segLen := g.subfrLength + order

	var aQ12 [maxLPCOrder]int16
	if c.lpcFromSegments(aQ12[:order], c.ltpRes[:], g.nbSubfr) {
		fallbacks++
	}
	lpcToNLSF(nlsfQ15, aQ12[:order])
	if !useInterp {
		return 4, fallbacks
	}

	half := g.nbSubfr / 2
	var aHalf [maxLPCOrder]int16
	var nlsfHalf [maxLPCOrder]int16
	if c.lpcFromSegments(aHalf[:order], c.ltpRes[half*segLen:], half) {
		fallbacks++
	}
	lpcToNLSF(nlsfHalf[:order], aHalf[:order])

	interp = 4
	best := c.firstHalfEnergy(aQ12[:order])
	var nlsf0 [maxLPCOrder]int16
	var a0 [maxLPCOrder]int16
	for k := 3; k >= 0; k-- {
		InterpolateNLSF(nlsf0[:order], c.prevNLSFQ15[:order], nlsfHalf[:order], k)
		NLSF2A(a0[:order], nlsf0[:order])
		if nrg := c.firstHalfEnergy(a0[:order]); nrg < best {
			best, interp = nrg, int8(k)
		}
	}
	if interp < 4 {
		copy(nlsfQ15, nlsfHalf[:order])
	}
	return interp, fallbacks
}

// lpcFromSegments fits a predictor to nSeg residual segments laid out back
// to back, each with order samples of lead-in. It reports whether the fit
// needed stabilizing.
func (c *EncoderState) lpcFromSegments(aQ12 []int16, x []int16, nSeg int) bool {
	order := len(aQ12)
	var ac [maxLPCOrder + 1]int32
	segmentAutocorr(ac[:order+1], x, c.subfrLength, nSeg, order)
	applyLagWindow(ac[:order+1], order, findLPCWhiteNoiseQ16)
	computeLPCInto(aQ12, ac[:order+1], order)
	return stabilizeLPC(aQ12)
}

// firstHalfEnergy is the residual energy of the first half of the frame's
// segments under aQ12.
func (c *EncoderState) firstHalfEnergy(aQ12 []int16) int64 {
	order := len(aQ12)
	segLen := c.subfrLength + order
	e := c.lpcRes[:]
	var nrg int64
	for k := 0; k < c.nbSubfr/2; k++ {
		LPCAnalysisFilter(e[:segLen], c.ltpRes[k*segLen:], aQ12, segLen, order)
		nrg += energy16(e[order:segLen])
	}
	return nrg
}

// segmentAutocorr sums the autocorrelations of nSeg segments of order lead-in
// samples plus segLen samples, correlating only the segLen part of each, and
// scales the result the way Autocorrelation does.
func segmentAutocorr(ac []int32, x []int16, segLen, nSeg, order int) {
	var acc [maxLPCOrder + 1]int64
	for k := 0; k < nSeg; k++ {
		seg := x[k*(segLen+order):]
		for j := 0; j <= order; j++ {
			acc[j] += innerProd16(seg[order:], seg[order-j:], segLen)
		}
	}
	acc[0]++
	shift := 35 - silkCLZ64(acc[0])
	for j := 0; j <= order; j++ {
		if shift <= 0 {
			ac[j] = int32(acc[j] << -shift)
		} else {
			ac[j] = int32(acc[j] >> shift)
		}
	}
}

func lpcToNLSF(nlsfQ15 []int16, aQ12 []int16) {
	var aQ16 [maxLPCOrder]int32
	for i, a := range aQ12 {
		aQ16[i] = int32(a) << 4
	}
	A2NLSF(nlsfQ15, aQ16[:len(aQ12)])
}

// muLTPQ9 is the rate weight of the LTP quantizer per rate.
func muLTPQ9(fsKHz int) int32 {
	switch fsKHz {
	case 8:
		return 15 // SILK_FIX_CONST(0.03, 9)
	case 12:
		return 13 // SILK_FIX_CONST(0.025, 9)
	}
	return 10 // SILK_FIX_CONST(0.02, 9)
}

// nlsfSurvivors is the NLSF search width per complexity.
func nlsfSurvivors(complexity int) int {
	switch {
	case complexity < 1:
		return 2
	case complexity < 2:
		return 4
	case complexity < 4:
		return 6
	case complexity < 6:
		return 8
	case complexity < 8:
		return 12
	}
	return 16
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
