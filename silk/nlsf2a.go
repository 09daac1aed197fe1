package silk

const nlsf2aQA = 16

// Root orderings that keep the polynomial products accurate.
var (
	nlsf2aOrdering16 = [16]uint8{0, 15, 8, 7, 4, 11, 12, 3, 2, 13, 10, 5, 6, 9, 14, 1}
	nlsf2aOrdering10 = [10]uint8{0, 9, 6, 3, 4, 5, 8, 1, 2, 7}
)

// nlsf2aFindPoly expands the product of second-order sections with cosine
// roots cLSF[0], cLSF[2], ... into out (dd+1 coefficients, QA).
func nlsf2aFindPoly(out []int32, cLSF []int32, dd int) {
	out[0] = 1 << nlsf2aQA
	out[1] = -cLSF[0]
	for k := 1; k < dd; k++ {
		ftmp := cLSF[2*k]
		out[k+1] = out[k-1]<<1 - int32(silkRSHIFT_ROUND64(silkSMULL(ftmp, out[k]), nlsf2aQA))
		for n := k; n > 1; n-- {
			out[n] += out[n-2] - int32(silkRSHIFT_ROUND64(silkSMULL(ftmp, out[n-1]), nlsf2aQA))
		}
		out[1] -= ftmp
	}
}

// NLSF2A converts NLSFs (Q15) into stable LPC coefficients (Q12). Orders
// other than 10 and 16 are rejected.
func NLSF2A(aQ12 []int16, nlsfQ15 []int16) bool {
	order := len(nlsfQ15)
	var ordering []uint8
	switch order {
	case 16:
		ordering = nlsf2aOrdering16[:]
	case 10:
		ordering = nlsf2aOrdering10[:]
	default:
		return false
	}
	if len(aQ12) < order {
		return false
	}

	// Piecewise-linear cosine of each NLSF, QA.
	var cosLSFQA [maxLPCOrder]int32
	for k := 0; k < order; k++ {
		nlsf := silkMax32(int32(nlsfQ15[k]), 0)
		fInt := silkMin32(nlsf>>(15-7), lsfCosTabSizeFix-1)
		fFrac := nlsf - fInt<<(15-7)
		cosVal := silkLSFCosTabQ12[fInt]
		delta := silkLSFCosTabQ12[fInt+1] - cosVal
		cosLSFQA[ordering[k]] = silkRSHIFT_ROUND(cosVal<<8+delta*fFrac, 20-nlsf2aQA)
	}

	dd := order >> 1
	var p, q [maxLPCOrder/2 + 1]int32
	nlsf2aFindPoly(p[:], cosLSFQA[:order], dd)
	nlsf2aFindPoly(q[:], cosLSFQA[1:order], dd)

	var a32QA1 [maxLPCOrder]int32
	for k := 0; k < dd; k++ {
		pTmp := p[k+1] + p[k]
		qTmp := q[k+1] - q[k]
		a32QA1[k] = -qTmp - pTmp
		a32QA1[order-k-1] = qTmp - pTmp
	}

	LPCFit(aQ12[:order], a32QA1[:order], 12, nlsf2aQA+1)

	for i := 0; LPCInversePredGain(aQ12[:order]) == 0 && i < maxLPCStabilizeIterations; i++ {
		BWExpander32(a32QA1[:order], 65536-int32(2)<<i)
		for k := 0; k < order; k++ {
			aQ12[k] = int16(silkRSHIFT_ROUND(a32QA1[k], nlsf2aQA+1-12))
		}
	}
	return true
}
