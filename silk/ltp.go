package silk

// LTPAnalysisFilter removes the long-term prediction from x and scales the
// residual by the inverse subframe gains.
//
// x[xStart] is the first sample of the frame; the filter reads back
// pitchL[k]+2 samples before each subframe, so at least that much history
// must precede xStart. Each subframe produces subfrLen+preLen outputs, the
// first preLen of which overlap the end of the previous subframe so an LPC
// filter of that order can be run over the result.
func LTPAnalysisFilter(out, x []int16, xStart int, bQ14 []int16, pitchL []int, invGainsQ16 []int32, subfrLen, nbSubfr, preLen int) {
	xPtr := xStart - preLen
	outPtr := 0
	for k := 0; k < nbSubfr; k++ {
		b := bQ14[k*ltpOrder : (k+1)*ltpOrder]
		lagPtr := xPtr - pitchL[k]
		for i := 0; i < subfrLen+preLen; i++ {
			c := lagPtr + i + ltpOrder/2
			estQ14 := silkSMULBB(int32(x[c]), int32(b[0]))
			for j := 1; j < ltpOrder; j++ {
				estQ14 = silkSMLABB(estQ14, int32(x[c-j]), int32(b[j]))
			}
			est := silkRSHIFT_ROUND(estQ14, 14)

			res := silkSAT16(int32(x[xPtr+i]) - est)
			out[outPtr+i] = int16(silkSMULWB(invGainsQ16[k], res))
		}
		outPtr += subfrLen + preLen
		xPtr += subfrLen
	}
}
