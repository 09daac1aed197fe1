package silk

import (
	"math"

	"github.com/thesyncim/gosilk/rangecoding"
)

// Pitch search biases, per octave of lag.
const (
	pitchShortLagBias = 0.025
	pitchPrevLagBias  = 0.2
)

// PitchEstimate is the outcome of EstimatePitch.
type PitchEstimate struct {
	LagIndex     int16
	ContourIndex int8
	// CorrQ15 is the normalized correlation of the chosen contour.
	CorrQ15 int32
	Voiced  bool
}

// EstimatePitch searches the LPC residual x for a pitch period. The frame
// starts at x[start] and at least 18 ms of history must precede it.
//
// A whole-frame search over 2..18 ms lags picks a coarse lag, biased towards
// short lags and towards prevLag when the previous frame was voiced. The lag
// and contour codebook entry are then refined jointly against per-subframe
// correlations. The frame is voiced when the refined correlation clears
// threshold; pitchL receives the per-subframe lags either way.
func EstimatePitch(pitchL []int, x []int16, start, fsKHz, nbSubfr, prevLag int, threshold float64) PitchEstimate {
	subfrLen := subFrameLengthMs * fsKHz
	frameLen := nbSubfr * subfrLen
	minLag := peMinLagMs * fsKHz
	maxLag := peMaxLagMs*fsKHz - 1 // highest lag the index can carry
	frame := x[start : start+frameLen]

	xx := float64(energy16(frame))
	if xx == 0 {
		for k := 0; k < nbSubfr; k++ {
			pitchL[k] = minLag
		}
		return PitchEstimate{}
	}

	// Coarse search. The lagged energy is updated by sliding one sample.
	yy := float64(energy16(x[start-minLag : start-minLag+frameLen]))
	prevLog := 0.0
	if prevLag > 0 {
		prevLog = math.Log2(float64(prevLag))
	}
	best, bestScore := minLag, math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		if lag > minLag {
			old := float64(x[start-lag+frameLen])
			add := float64(x[start-lag])
			yy += add*add - old*old
		}
		xy := float64(innerProd16(frame, x[start-lag:], frameLen))
		c := normCorr(xy, xx, yy)
		score := c - pitchShortLagBias*math.Log2(float64(lag))
		if prevLag > 0 {
			d := math.Log2(float64(lag)) - prevLog
			score -= pitchPrevLagBias * c * d * d / (d*d + 0.5)
		}
		if score > bestScore {
			best, bestScore = lag, score
		}
	}

	// Joint lag and contour refinement.
	nCbk := pitchContourSize(fsKHz, nbSubfr)
	var subNrg [maxNbSubfr]float64
	for k := 0; k < nbSubfr; k++ {
		subNrg[k] = float64(energy16(frame[k*subfrLen : (k+1)*subfrLen]))
	}
	bestLag, bestCbk, bestCorr := best, 0, math.Inf(-1)
	for lag := max(best-2, minLag); lag <= min(best+2, maxLag); lag++ {
		for cbk := 0; cbk < nCbk; cbk++ {
			sum := 0.0
			for k := 0; k < nbSubfr; k++ {
				l := silkLimitInt(lag+int(pitchContour(fsKHz, nbSubfr, k, cbk)), minLag, maxLag)
				s := start + k*subfrLen
				xy := float64(innerProd16(x[s:], x[s-l:], subfrLen))
				ll := float64(energy16(x[s-l : s-l+subfrLen]))
				sum += normCorr(xy, subNrg[k], ll)
			}
			if sum > bestCorr {
				bestLag, bestCbk, bestCorr = lag, cbk, sum
			}
		}
	}
	bestCorr /= float64(nbSubfr)

	est := PitchEstimate{
		LagIndex:     int16(bestLag - minLag),
		ContourIndex: int8(bestCbk),
		CorrQ15:      floatToQ(max(bestCorr, 0), 15),
		Voiced:       bestCorr > threshold,
	}
	DecodePitch(est.LagIndex, est.ContourIndex, pitchL, fsKHz, nbSubfr)
	return est
}

// normCorr returns xy/sqrt(xx*yy), or 0 when either energy vanishes.
func normCorr(xy, xx, yy float64) float64 {
	d := xx * yy
	if d <= 0 {
		return 0
	}
	return xy / math.Sqrt(d)
}

// EncodePitch writes the lag and contour indices of a voiced frame. With
// conditional set the lag is sent as a delta against prevLagIndex when it
// lies in -8..11, otherwise in absolute form.
func EncodePitch(enc *rangecoding.Encoder, lagIndex int16, contourIndex int8, prevLagIndex int, conditional bool, fsKHz, nbSubfr int) {
	absolute := true
	if conditional {
		delta := int(lagIndex) - prevLagIndex
		if delta < -8 || delta > 11 {
			delta = 0
		} else {
			delta += 9
			absolute = false
		}
		enc.EncodeICDF(delta, silkPitchDeltaICDF, 8)
	}
	if absolute {
		half := fsKHz >> 1
		high := int(lagIndex) / half
		enc.EncodeICDF(high, silkPitchLagICDF, 8)
		enc.EncodeICDF(int(lagIndex)-high*half, lagLowBitsICDF(fsKHz), 8)
	}
	enc.EncodeICDF(int(contourIndex), contourICDF(fsKHz, nbSubfr), 8)
}

// DecodePitchIndices reads what EncodePitch wrote.
func DecodePitchIndices(rd *rangecoding.Decoder, prevLagIndex int, conditional bool, fsKHz, nbSubfr int) (lagIndex int16, contourIndex int8) {
	absolute := true
	if conditional {
		if delta := rd.DecodeICDF(silkPitchDeltaICDF, 8); delta > 0 {
			lagIndex = int16(prevLagIndex + delta - 9)
			absolute = false
		}
	}
	if absolute {
		lagIndex = int16(rd.DecodeICDF(silkPitchLagICDF, 8) * (fsKHz >> 1))
		lagIndex += int16(rd.DecodeICDF(lagLowBitsICDF(fsKHz), 8))
	}
	contourIndex = int8(rd.DecodeICDF(contourICDF(fsKHz, nbSubfr), 8))
	return lagIndex, contourIndex
}

func lagLowBitsICDF(fsKHz int) []uint8 {
	switch fsKHz {
	case 8:
		return silkUniform4ICDF
	case 12:
		return silkUniform6ICDF
	}
	return silkUniform8ICDF
}

func contourICDF(fsKHz, nbSubfr int) []uint8 {
	switch {
	case fsKHz == 8 && nbSubfr == maxNbSubfr:
		return silkPitchContourNBICDF
	case fsKHz == 8:
		return silkPitchContour10msNBICDF
	case nbSubfr == maxNbSubfr:
		return silkPitchContourICDF
	}
	return silkPitchContour10msICDF
}
