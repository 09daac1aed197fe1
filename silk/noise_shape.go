package silk

import "math"

// Noise shaping tuning (tuning_parameters.h).
const (
	shapeWhiteNoiseFraction   = 3e-5
	bandwidthExpansion        = 0.94
	findPitchWhiteNoiseFrac   = 1e-3
	lowFreqShaping            = 4.0
	lowQualityLowFreqShpDecr  = 0.5
	hpNoiseCoef               = 0.25
	harmHPNoiseCoef           = 0.35
	harmonicShaping           = 0.3
	highRateOrLowQualityHarm  = 0.2
	subfrSmthCoef             = 0.4
	shapeCoefLimit            = 3.999
	shapeCoefLimitIterations  = 10
	shapeFlatPartMs           = 3
	shapeLookaroundLowComplex = 3 // ms, complexity 0 and 2
)

// shapeState carries the subframe smoothing of the harmonic shaping gain and
// the tilt across frames.
type shapeState struct {
	harmShapeGainSmth float64
	tiltSmth          float64
}

// shapeAnalysis is what the frame analysis knows when it sets up the noise
// shaping.
type shapeAnalysis struct {
	voiced        bool
	pitchL        []int
	ltpCorr       float64 // normalized pitch correlation, 0..1
	predGain      float64 // whitening prediction gain, linear
	codingQuality float64
	inputQuality  float64
	speech        float64 // speech activity, 0..1
	complexity    int
}

// shapingOrder is the short-term shaping filter order per complexity.
func shapingOrder(complexity int) int {
	switch {
	case complexity < 1, complexity == 2:
		return 12
	case complexity < 4:
		return 14
	case complexity < 6:
		return 16
	case complexity < 8:
		return 20
	}
	return maxShapeLPCOrder
}

// analyzeNoiseShape fills out with the shaping filters for the frame at
// c.x[ltpMemLength:]. Each subframe gets an AR shaping filter fitted to a
// windowed stretch of input around it; low-frequency shaping and tilt follow
// the speech activity, and voiced frames add harmonic shaping at the pitch
// lag.
//
// This follows libopus silk_noise_shape_analysis_FLP without frequency
// warping. The encoder has no lookahead, so each window ends at the end of
// its subframe.
func (c *EncoderState) analyzeNoiseShape(out *NoiseShapeParams, a *shapeAnalysis) {
	g := &c.frameGeometry
	order := shapingOrder(a.complexity)
	out.Order = order

	laMs := laShapeMaxMs
	if a.complexity < 1 || a.complexity == 2 {
		laMs = shapeLookaroundLowComplex
	}
	winLen := g.subfrLength + 2*laMs*g.fsKHz
	flat := shapeFlatPartMs * g.fsKHz
	slope := (winLen - flat) / 2

	strength := findPitchWhiteNoiseFrac * a.predGain
	bwExp := bandwidthExpansion / (1 + strength*strength)

	win := c.shapeWin[:winLen]
	var ac [maxShapeLPCOrder + 1]float64
	var rc, ar [maxShapeLPCOrder]float64
	for k := 0; k < g.nbSubfr; k++ {
		start := g.ltpMemLength + (k+1)*g.subfrLength - winLen
		for i, v := range c.x[start : start+winLen] {
			win[i] = float64(v)
		}
		sineWindow(win[:slope], 1)
		sineWindow(win[slope+flat:], 2)

		for j := 0; j <= order; j++ {
			sum := 0.0
			for n := 0; n < winLen-j; n++ {
				sum += win[n] * win[n+j]
			}
			ac[j] = sum
		}
		ac[0] += ac[0]*shapeWhiteNoiseFraction + 1

		schurFLP(rc[:order], ac[:order+1])
		k2aFLP(ar[:order], rc[:order])
		bwExpandFLP(ar[:order], bwExp)
		limitCoefs(ar[:order], shapeCoefLimit)
		for j := 0; j < order; j++ {
			out.ARQ13[k][j] = int16(floatToQ(ar[j], 13))
		}
	}

	// Low-frequency shaping and tilt.
	strength = lowFreqShaping * (1 + lowQualityLowFreqShpDecr*(a.inputQuality-1)) * a.speech
	fs := float64(g.fsKHz)
	var tilt float64
	if a.voiced {
		for k := 0; k < g.nbSubfr; k++ {
			b := 0.2/fs + 3/float64(a.pitchL[k])
			out.LFShpQ14[k] = packLFShape(1-b-b*strength, b-1)
		}
		tilt = -hpNoiseCoef - (1-hpNoiseCoef)*harmHPNoiseCoef*a.speech
	} else {
		b := 1.3 / fs
		lf := packLFShape(1-b-b*strength*0.6, b-1)
		for k := 0; k < g.nbSubfr; k++ {
			out.LFShpQ14[k] = lf
		}
		tilt = -hpNoiseCoef
	}

	var harm float64
	if a.voiced {
		harm = harmonicShaping + highRateOrLowQualityHarm*(1-(1-a.codingQuality)*a.inputQuality)
		harm *= math.Sqrt(min(max(a.ltpCorr, 0), 1))
	}

	st := &c.shape
	for k := 0; k < g.nbSubfr; k++ {
		st.harmShapeGainSmth += subfrSmthCoef * (harm - st.harmShapeGainSmth)
		out.HarmShapeGainQ14[k] = floatToQ(st.harmShapeGainSmth, 14)
		st.tiltSmth += subfrSmthCoef * (tilt - st.tiltSmth)
		out.TiltQ14[k] = floatToQ(st.tiltSmth, 14)
	}
}

// packLFShape packs the low-frequency shaping AR and MA coefficients the way
// the quantizer reads them.
func packLFShape(ar, ma float64) int32 {
	return floatToQ(ar, 14)<<16 | int32(uint16(int16(floatToQ(ma, 14))))
}

// sineWindow applies the rising (winType 1) or falling (winType 2) half of a
// sine window in place. len(x) must be a multiple of 4.
func sineWindow(x []float64, winType int) {
	freq := math.Pi / float64(len(x)+1)
	c := 2 - freq*freq
	s0, s1 := 0.0, freq
	if winType == 2 {
		s0, s1 = 1, 0.5*c
	}
	for k := 0; k+3 < len(x); k += 4 {
		x[k] *= 0.5 * (s0 + s1)
		x[k+1] *= s1
		s0 = c*s1 - s0
		x[k+2] *= 0.5 * (s1 + s0)
		x[k+3] *= s0
		s1 = c*s0 - s1
	}
}

// schurFLP computes reflection coefficients from the autocorrelation
// ac[0..len(rc)] and returns the residual energy.
func schurFLP(rc, ac []float64) float64 {
	order := len(rc)
	var cc [maxShapeLPCOrder + 1][2]float64
	for k := 0; k <= order; k++ {
		cc[k][0], cc[k][1] = ac[k], ac[k]
	}
	for k := 0; k < order; k++ {
		r := -cc[k+1][0] / max(cc[0][1], 1e-9)
		rc[k] = r
		for n := 0; n < order-k; n++ {
			t1, t2 := cc[n+k+1][0], cc[n][1]
			cc[n+k+1][0] = t1 + t2*r
			cc[n][1] = t2 + t1*r
		}
	}
	return cc[0][1]
}

// k2aFLP converts reflection coefficients to prediction coefficients.
func k2aFLP(a, rc []float64) {
	for k, r := range rc {
		for n := 0; n < (k+1)>>1; n++ {
			t1, t2 := a[n], a[k-n-1]
			a[n] = t1 + t2*r
			a[k-n-1] = t2 + t1*r
		}
		a[k] = -r
	}
}

func bwExpandFLP(ar []float64, chirp float64) {
	cfac := chirp
	for i := range ar {
		ar[i] *= cfac
		cfac *= chirp
	}
}

// limitCoefs bandwidth-expands coefs until no magnitude exceeds limit, or
// gives up after a fixed number of rounds.
func limitCoefs(coefs []float64, limit float64) {
	for iter := 0; iter < shapeCoefLimitIterations; iter++ {
		maxAbs, ind := -1.0, 0
		for i, v := range coefs {
			if a := math.Abs(v); a > maxAbs {
				maxAbs, ind = a, i
			}
		}
		if maxAbs <= limit {
			return
		}
		chirp := 0.99 - (0.8+0.1*float64(iter))*(maxAbs-limit)/(maxAbs*float64(ind+1))
		bwExpandFLP(coefs, chirp)
	}
}
