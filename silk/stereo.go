package silk

import "github.com/thesyncim/gosilk/rangecoding"

// Stereo frames are coded as mid (L+R)/2 and a side residual. The side
// channel is predicted from a low-passed and a high-passed copy of mid, with
// the two weights interpolated over the first 8 ms of each frame.

// stereoStepQ16 is 0.5/stereoQuantSubSteps in Q16.
const stereoStepQ16 = 6554

// stereoLevelQ13 returns the predictor level of sub-step j inside interval i
// of the quantization table.
func stereoLevelQ13(i, j int) int32 {
	lowQ13 := silkStereoPredQuantQ13[i]
	stepQ13 := silkSMULWB(silkStereoPredQuantQ13[i+1]-lowQ13, stereoStepQ16)
	return silkSMLABB(lowQ13, stepQ13, int32(2*j+1))
}

// StereoQuantPred quantizes the two predictor weights in place and returns
// their indices. ix[n] holds the interval within a group of three, the
// sub-step and the group.
func StereoQuantPred(predQ13 *[2]int32) (ix [2][3]int8) {
	for n := 0; n < 2; n++ {
		errMinQ13 := silkInt32Max
		var quantQ13 int32
	search:
		for i := 0; i < stereoQuantTabSize-1; i++ {
			for j := 0; j < stereoQuantSubSteps; j++ {
				lvlQ13 := stereoLevelQ13(i, j)
				errQ13 := silkAbs32(predQ13[n] - lvlQ13)
				if errQ13 >= errMinQ13 {
					// Levels increase monotonically, so the error only grows from here.
					break search
				}
				errMinQ13 = errQ13
				quantQ13 = lvlQ13
				ix[n][0] = int8(i)
				ix[n][1] = int8(j)
			}
		}
		ix[n][2] = ix[n][0] / 3
		ix[n][0] -= ix[n][2] * 3
		predQ13[n] = quantQ13
	}
	predQ13[0] -= predQ13[1]
	return ix
}

// EncodeStereoPred writes predictor indices produced by StereoQuantPred.
func EncodeStereoPred(enc *rangecoding.Encoder, ix [2][3]int8) {
	enc.EncodeICDF(5*int(ix[0][2])+int(ix[1][2]), silkStereoPredJointICDF, 8)
	for n := 0; n < 2; n++ {
		enc.EncodeICDF(int(ix[n][0]), silkUniform3ICDF, 8)
		enc.EncodeICDF(int(ix[n][1]), silkUniform5ICDF, 8)
	}
}

// DecodeStereoPred reads the two predictor weights in Q13.
func DecodeStereoPred(rd *rangecoding.Decoder) (predQ13 [2]int32) {
	var ix [2][3]int
	n := rd.DecodeICDF(silkStereoPredJointICDF, 8)
	ix[0][2] = n / 5
	ix[1][2] = n - 5*ix[0][2]
	for n := 0; n < 2; n++ {
		ix[n][0] = rd.DecodeICDF(silkUniform3ICDF, 8)
		ix[n][1] = rd.DecodeICDF(silkUniform5ICDF, 8)
	}
	for n := 0; n < 2; n++ {
		ix[n][0] += 3 * ix[n][2]
		predQ13[n] = stereoLevelQ13(ix[n][0], ix[n][1])
	}
	predQ13[0] -= predQ13[1]
	return predQ13
}

// EncodeMidOnly writes the flag telling the decoder the side channel is not coded.
func EncodeMidOnly(enc *rangecoding.Encoder, midOnly bool) {
	v := 0
	if midOnly {
		v = 1
	}
	enc.EncodeICDF(v, silkStereoOnlyCodeMidICDF, 8)
}

// DecodeMidOnly reads the mid-only flag.
func DecodeMidOnly(rd *rangecoding.Decoder) bool {
	return rd.DecodeICDF(silkStereoOnlyCodeMidICDF, 8) == 1
}

// stereoDecState is the stereo memory of a decoder.
type stereoDecState struct {
	predPrevQ13 [2]int32
	sMid        [2]int16
	sSide       [2]int16
}

// MSToLR turns decoded mid and side into left and right in place. x1 and x2
// hold two samples of history followed by frameLength decoded samples; the
// history is refreshed here, and the output is x1[1:frameLength+1] and
// x2[1:frameLength+1].
func (st *stereoDecState) MSToLR(x1, x2 []int16, predQ13 [2]int32, fsKHz, frameLength int) {
	copy(x1[:2], st.sMid[:])
	copy(x2[:2], st.sSide[:])
	copy(st.sMid[:], x1[frameLength:frameLength+2])
	copy(st.sSide[:], x2[frameLength:frameLength+2])

	pred0Q13 := st.predPrevQ13[0]
	pred1Q13 := st.predPrevQ13[1]
	interpLen := stereoInterpLenMs * fsKHz
	denomQ16 := int32(1<<16) / int32(interpLen)
	delta0Q13 := silkRSHIFT_ROUND(silkSMULBB(predQ13[0]-st.predPrevQ13[0], denomQ16), 16)
	delta1Q13 := silkRSHIFT_ROUND(silkSMULBB(predQ13[1]-st.predPrevQ13[1], denomQ16), 16)
	for n := 0; n < frameLength; n++ {
		if n < interpLen {
			pred0Q13 += delta0Q13
			pred1Q13 += delta1Q13
		} else if n == interpLen {
			pred0Q13 = predQ13[0]
			pred1Q13 = predQ13[1]
		}
		// Low-passed mid in Q11, prediction accumulated in Q8.
		sum := (int32(x1[n]) + int32(x1[n+2]) + int32(x1[n+1])<<1) << 9
		sum = silkSMLAWB(int32(x2[n+1])<<8, sum, pred0Q13)
		sum = silkSMLAWB(sum, int32(x1[n+1])<<11, pred1Q13)
		x2[n+1] = int16(silkSAT16(silkRSHIFT_ROUND(sum, 8)))
	}
	st.predPrevQ13 = predQ13

	for n := 0; n < frameLength; n++ {
		sum := int32(x1[n+1]) + int32(x2[n+1])
		diff := int32(x1[n+1]) - int32(x2[n+1])
		x1[n+1] = int16(silkSAT16(sum))
		x2[n+1] = int16(silkSAT16(diff))
	}
}

// stereoEncState is the stereo memory of an encoder.
type stereoEncState struct {
	predPrevQ13 [2]int32
	sMid        [2]int16
	sSide       [2]int16
}

// stereoFindPredictor returns the least-squares weight in Q13 for predicting
// y from x, limited to [-2, 2].
func stereoFindPredictor(x, y []int16) int32 {
	nrgx, scale1 := SumSqrShift(x)
	_, scale2 := SumSqrShift(y)
	scale := max(scale1, scale2)
	scale += scale & 1
	nrgx = max(nrgx>>(scale-scale1), 1)
	corr := innerProdAlignedScale(x, y, scale, len(x))
	predQ13 := silkDiv32VarQ(corr, nrgx, 13)
	return silkLimit32(predQ13, -(1 << 14), 1<<14)
}

// midOnlyEnergyRatio is the mid-to-side-residual energy ratio above which
// the side channel is dropped.
const midOnlyEnergyRatio = 1 << 12

// LRToMS converts one frame of left/right input into the mid signal and the
// side prediction residual the decoder's MSToLR inverts. mid and side receive
// frameLength samples each. It returns the quantized predictor indices and
// whether the side residual is weak enough to skip.
func (st *stereoEncState) LRToMS(mid, side, left, right []int16, fsKHz, frameLength int) (ix [2][3]int8, midOnly bool) {
	var m, s [maxFrameLength + 2]int16
	copy(m[:2], st.sMid[:])
	copy(s[:2], st.sSide[:])
	for n := 0; n < frameLength; n++ {
		l, r := int32(left[n]), int32(right[n])
		m[n+2] = int16(silkRSHIFT_ROUND(l+r, 1))
		s[n+2] = int16(silkSAT16(silkRSHIFT_ROUND(l-r, 1)))
	}
	copy(st.sMid[:], m[frameLength:frameLength+2])
	copy(st.sSide[:], s[frameLength:frameLength+2])

	var lpMid, hpMid, lpSide, hpSide [maxFrameLength]int16
	for n := 0; n < frameLength; n++ {
		sum := silkRSHIFT_ROUND(int32(m[n])+int32(m[n+2])+int32(m[n+1])<<1, 2)
		lpMid[n] = int16(sum)
		hpMid[n] = int16(int32(m[n+1]) - sum)
		sum = silkRSHIFT_ROUND(int32(s[n])+int32(s[n+2])+int32(s[n+1])<<1, 2)
		lpSide[n] = int16(sum)
		hpSide[n] = int16(int32(s[n+1]) - sum)
	}

	predQ13 := [2]int32{
		stereoFindPredictor(lpMid[:frameLength], lpSide[:frameLength]),
		stereoFindPredictor(hpMid[:frameLength], hpSide[:frameLength]),
	}
	ix = StereoQuantPred(&predQ13)

	pred0Q13 := -st.predPrevQ13[0]
	pred1Q13 := -st.predPrevQ13[1]
	interpLen := stereoInterpLenMs * fsKHz
	denomQ16 := int32(1<<16) / int32(interpLen)
	delta0Q13 := -silkRSHIFT_ROUND(silkSMULBB(predQ13[0]-st.predPrevQ13[0], denomQ16), 16)
	delta1Q13 := -silkRSHIFT_ROUND(silkSMULBB(predQ13[1]-st.predPrevQ13[1], denomQ16), 16)
	var midNrg, resNrg int64
	for n := 0; n < frameLength; n++ {
		if n < interpLen {
			pred0Q13 += delta0Q13
			pred1Q13 += delta1Q13
		} else if n == interpLen {
			pred0Q13 = -predQ13[0]
			pred1Q13 = -predQ13[1]
		}
		sum := (int32(m[n]) + int32(m[n+2]) + int32(m[n+1])<<1) << 9
		sum = silkSMLAWB(int32(s[n+1])<<8, sum, pred0Q13)
		sum = silkSMLAWB(sum, int32(m[n+1])<<11, pred1Q13)
		side[n] = int16(silkSAT16(silkRSHIFT_ROUND(sum, 8)))
		mid[n] = m[n+1]
		midNrg += int64(mid[n]) * int64(mid[n])
		resNrg += int64(side[n]) * int64(side[n])
	}
	st.predPrevQ13 = predQ13

	midOnly = resNrg*midOnlyEnergyRatio < midNrg || resNrg == 0
	return ix, midOnly
}
