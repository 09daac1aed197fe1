package silk

// nlsfUnpack returns the entropy-table offsets and backward predictor
// coefficients selected by the stage-1 index.
func nlsfUnpack(ecIx []int16, predQ8 []uint8, cb *nlsfCodebook, cb1Index int) {
	sel := cb.ecSel[cb1Index*cb.order/2:]
	for i := 0; i < cb.order; i += 2 {
		entry := sel[0]
		sel = sel[1:]
		ecIx[i] = int16(((entry >> 1) & 7) * (2*nlsfQuantMaxAmplitude + 1))
		predQ8[i] = cb.predQ8[i+int(entry&1)*(cb.order-1)]
		ecIx[i+1] = int16(((entry >> 5) & 7) * (2*nlsfQuantMaxAmplitude + 1))
		predQ8[i+1] = cb.predQ8[i+int((entry>>4)&1)*(cb.order-1)+1]
	}
}

// nlsfResidualDequant reconstructs the stage-2 residual from its indices,
// running the backward predictor from the last coefficient down.
func nlsfResidualDequant(xQ10 []int16, indices []int8, predQ8 []uint8, quantStepSizeQ16 int32, order int) {
	var outQ10 int32
	for i := order - 1; i >= 0; i-- {
		predQ10 := silkSMULBB(outQ10, int32(predQ8[i])) >> 8
		outQ10 = int32(indices[i]) << 10
		if outQ10 > 0 {
			outQ10 -= nlsfQuantLevelAdjQ10
		} else if outQ10 < 0 {
			outQ10 += nlsfQuantLevelAdjQ10
		}
		outQ10 = silkSMLAWB(predQ10, outQ10, quantStepSizeQ16)
		xQ10[i] = int16(outQ10)
	}
}

// NLSFVQWeightsLaroia computes the Laroia low-complexity weights of an NLSF
// vector in Q2 (nlsfWQ). The order must be even.
func NLSFVQWeightsLaroia(wQW []int16, nlsfQ15 []int16) {
	d := len(nlsfQ15)
	const one = int32(1) << (15 + nlsfWQ)

	tmp1 := one / silkMax32(int32(nlsfQ15[0]), 1)
	tmp2 := one / silkMax32(int32(nlsfQ15[1])-int32(nlsfQ15[0]), 1)
	wQW[0] = int16(silkMin32(tmp1+tmp2, 32767))

	for k := 1; k < d-1; k += 2 {
		tmp1 = one / silkMax32(int32(nlsfQ15[k+1])-int32(nlsfQ15[k]), 1)
		wQW[k] = int16(silkMin32(tmp1+tmp2, 32767))
		tmp2 = one / silkMax32(int32(nlsfQ15[k+2])-int32(nlsfQ15[k+1]), 1)
		wQW[k+1] = int16(silkMin32(tmp1+tmp2, 32767))
	}

	tmp1 = one / silkMax32((1<<15)-int32(nlsfQ15[d-1]), 1)
	wQW[d-1] = int16(silkMin32(tmp1+tmp2, 32767))
}

// NLSFDecode reconstructs a quantized NLSF vector from its stage-1 index
// (indices[0]) and stage-2 residual indices (indices[1:order+1]). The
// stage-1 index is clamped into the codebook.
func NLSFDecode(nlsfQ15 []int16, indices []int8, cb *nlsfCodebook) {
	var ecIx [maxLPCOrder]int16
	var predQ8 [maxLPCOrder]uint8
	var resQ10 [maxLPCOrder]int16
	var wQW [maxLPCOrder]int16

	cb1 := silkLimitInt(int(indices[0]), 0, cb.nVectors-1)
	base := cb.cb1NLSFQ8[cb1*cb.order:]
	for i := 0; i < cb.order; i++ {
		nlsfQ15[i] = int16(base[i]) << 7
	}

	nlsfUnpack(ecIx[:], predQ8[:], cb, cb1)
	nlsfResidualDequant(resQ10[:], indices[1:], predQ8[:], cb.quantStepSizeQ16, cb.order)

	// The stage-2 residual is weighted by the inverse square root of the
	// Laroia weights of the stage-1 vector.
	NLSFVQWeightsLaroia(wQW[:cb.order], nlsfQ15[:cb.order])
	for i := 0; i < cb.order; i++ {
		wQ9 := silkSqrtApprox(int32(wQW[i]) << (18 - nlsfWQ))
		v := int32(nlsfQ15[i]) + (int32(resQ10[i])<<14)/wQ9
		nlsfQ15[i] = int16(silkLimit32(v, 0, 32767))
	}

	NLSFStabilize(nlsfQ15[:cb.order], cb.deltaMinQ15)
}

// NLSFStabilize enforces the minimum spacing deltaMinQ15 (order+1 entries)
// between neighbouring NLSFs and the band edges.
func NLSFStabilize(nlsfQ15 []int16, deltaMinQ15 []int32) {
	const maxLoops = 20
	order := len(nlsfQ15)

	for loops := 0; loops < maxLoops; loops++ {
		// Find the smallest distance to its minimum.
		minDiff := int32(nlsfQ15[0]) - deltaMinQ15[0]
		idx := 0
		for i := 1; i < order; i++ {
			diff := int32(nlsfQ15[i]) - (int32(nlsfQ15[i-1]) + deltaMinQ15[i])
			if diff < minDiff {
				minDiff = diff
				idx = i
			}
		}
		diff := int32(1<<15) - (int32(nlsfQ15[order-1]) + deltaMinQ15[order])
		if diff < minDiff {
			minDiff = diff
			idx = order
		}
		if minDiff >= 0 {
			return
		}

		switch idx {
		case 0:
			nlsfQ15[0] = int16(deltaMinQ15[0])
		case order:
			nlsfQ15[order-1] = int16((1 << 15) - deltaMinQ15[order])
		default:
			minCenter := int32(0)
			for k := 0; k < idx; k++ {
				minCenter += deltaMinQ15[k]
			}
			minCenter += deltaMinQ15[idx] >> 1

			maxCenter := int32(1 << 15)
			for k := order; k > idx; k-- {
				maxCenter -= deltaMinQ15[k]
			}
			maxCenter -= deltaMinQ15[idx] >> 1

			center := silkRSHIFT_ROUND(int32(nlsfQ15[idx-1])+int32(nlsfQ15[idx]), 1)
			center = silkLimit32(center, minCenter, maxCenter)
			nlsfQ15[idx-1] = int16(center - deltaMinQ15[idx]>>1)
			nlsfQ15[idx] = int16(int32(nlsfQ15[idx-1]) + deltaMinQ15[idx])
		}
	}

	// Fall back to sorting and clamping.
	insertionSortInt16(nlsfQ15)
	nlsfQ15[0] = int16(silkMax32(int32(nlsfQ15[0]), deltaMinQ15[0]))
	for i := 1; i < order; i++ {
		floor := silkSAT16(int32(nlsfQ15[i-1]) + deltaMinQ15[i])
		nlsfQ15[i] = int16(silkMax32(int32(nlsfQ15[i]), floor))
	}
	nlsfQ15[order-1] = int16(silkMin32(int32(nlsfQ15[order-1]), (1<<15)-deltaMinQ15[order]))
	for i := order - 2; i >= 0; i-- {
		nlsfQ15[i] = int16(silkMin32(int32(nlsfQ15[i]), int32(nlsfQ15[i+1])-deltaMinQ15[i+1]))
	}
}

func insertionSortInt16(a []int16) {
	for i := 1; i < len(a); i++ {
		key := a[i]
		j := i - 1
		for j >= 0 && a[j] > key {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = key
	}
}

// InterpolateNLSF blends the previous and current NLSF vectors for the first
// half of a frame: out = prev + (cur - prev) * coefQ2 / 4.
func InterpolateNLSF(out, prevQ15, curQ15 []int16, coefQ2 int) {
	silkInterpolate(out, prevQ15, curQ15, coefQ2, len(curQ15))
}
