package silk

// LPCInversePredGain returns the inverse prediction gain of the Q12 filter
// aQ12 in Q30, or 0 when the filter is unstable or its gain exceeds 40 dB.
// The step-down recursion rejects the filter as soon as any reflection
// coefficient magnitude is above aLimitQ24.
func LPCInversePredGain(aQ12 []int16) int32 {
	order := len(aQ12)
	if order == 0 || order > maxOrderLPC {
		return 0
	}
	var aQA [maxOrderLPC]int32
	var dcResp int32
	for k, a := range aQ12 {
		dcResp += int32(a)
		aQA[k] = int32(a) << (lpcInvPredQA - 12)
	}
	// Positive DC response cannot come from a stable filter.
	if dcResp >= 4096 {
		return 0
	}
	return lpcInversePredGainQA(aQA[:order])
}

// lpcInversePredGainQA runs the step-down recursion in place on Q24
// coefficients.
func lpcInversePredGainQA(aQA []int32) int32 {
	invGainQ30 := int32(1 << 30)
	for k := len(aQA) - 1; k > 0; k-- {
		if aQA[k] > aLimitQ24 || aQA[k] < -aLimitQ24 {
			return 0
		}

		rcQ31 := -(aQA[k] << (31 - lpcInvPredQA))
		rcMult1Q30 := int32(1<<30) - silkSMMUL(rcQ31, rcQ31)

		invGainQ30 = silkSMMUL(invGainQ30, rcMult1Q30) << 2
		if invGainQ30 < maxPredictionPowerGainInvQ30 {
			return 0
		}

		mult2Q := 32 - silkCLZ32(silkAbs32(rcMult1Q30))
		rcMult2 := silkInverse32VarQ(rcMult1Q30, mult2Q+30)

		for n := 0; n < (k+1)>>1; n++ {
			tmp1 := aQA[n]
			tmp2 := aQA[k-n-1]
			tmp64 := silkRSHIFT_ROUND64(silkSMULL(silkSubSat32(tmp1, silkMUL32FracQ(tmp2, rcQ31, 31)), rcMult2), mult2Q)
			if tmp64 > int64(silkInt32Max) || tmp64 < int64(silkInt32Min) {
				return 0
			}
			aQA[n] = int32(tmp64)
			tmp64 = silkRSHIFT_ROUND64(silkSMULL(silkSubSat32(tmp2, silkMUL32FracQ(tmp1, rcQ31, 31)), rcMult2), mult2Q)
			if tmp64 > int64(silkInt32Max) || tmp64 < int64(silkInt32Min) {
				return 0
			}
			aQA[k-n-1] = int32(tmp64)
		}
	}

	if aQA[0] > aLimitQ24 || aQA[0] < -aLimitQ24 {
		return 0
	}
	rcQ31 := -(aQA[0] << (31 - lpcInvPredQA))
	rcMult1Q30 := int32(1<<30) - silkSMMUL(rcQ31, rcQ31)
	invGainQ30 = silkSMMUL(invGainQ30, rcMult1Q30) << 2
	if invGainQ30 < maxPredictionPowerGainInvQ30 {
		return 0
	}
	return invGainQ30
}

// BWExpander scales the Q12 coefficients by successive powers of chirpQ16,
// pulling the filter poles toward the origin.
func BWExpander(ar []int16, chirpQ16 int32) {
	d := len(ar)
	if d == 0 {
		return
	}
	chirpMinusOneQ16 := chirpQ16 - 65536
	for i := 0; i < d-1; i++ {
		ar[i] = int16(silkRSHIFT_ROUND(chirpQ16*int32(ar[i]), 16))
		chirpQ16 += silkRSHIFT_ROUND(chirpQ16*chirpMinusOneQ16, 16)
	}
	ar[d-1] = int16(silkRSHIFT_ROUND(chirpQ16*int32(ar[d-1]), 16))
}

// BWExpander32 is BWExpander for 32-bit coefficients in any Q format.
func BWExpander32(ar []int32, chirpQ16 int32) {
	d := len(ar)
	if d == 0 {
		return
	}
	chirpMinusOneQ16 := chirpQ16 - 65536
	for i := 0; i < d-1; i++ {
		ar[i] = silkSMULWW(chirpQ16, ar[i])
		chirpQ16 += silkRSHIFT_ROUND(chirpQ16*chirpMinusOneQ16, 16)
	}
	ar[d-1] = silkSMULWW(chirpQ16, ar[d-1])
}

// LPCFit converts aQin (Q qIn) into 16-bit coefficients in Q qOut, applying
// bandwidth expansion until every coefficient fits. After ten rounds the
// remainder is saturated and aQin is updated to match the output.
func LPCFit(aQout []int16, aQin []int32, qOut, qIn int) {
	order := len(aQin)
	i := 0
	for ; i < 10; i++ {
		var maxabs int32
		idx := 0
		for k := 0; k < order; k++ {
			if absval := silkAbs32(aQin[k]); absval > maxabs {
				maxabs = absval
				idx = k
			}
		}
		maxabs = silkRSHIFT_ROUND(maxabs, qIn-qOut)
		if maxabs <= 32767 {
			break
		}
		// Approximation of the chirp that brings the largest coefficient
		// back into range.
		maxabs = silkMin32(maxabs, 163838)
		chirpQ16 := silkFixConst(0.999, 16) - ((maxabs-32767)<<14)/((maxabs*int32(idx+1))>>2)
		BWExpander32(aQin, chirpQ16)
	}

	if i == 10 {
		for k := 0; k < order; k++ {
			aQout[k] = int16(silkSAT16(silkRSHIFT_ROUND(aQin[k], qIn-qOut)))
			aQin[k] = int32(aQout[k]) << (qIn - qOut)
		}
		return
	}
	for k := 0; k < order; k++ {
		aQout[k] = int16(silkRSHIFT_ROUND(aQin[k], qIn-qOut))
	}
}

// stabilizeLPC makes aQ12 pass LPCInversePredGain, expanding the bandwidth a
// little more on each attempt. It reports whether any change was needed.
func stabilizeLPC(aQ12 []int16) bool {
	changed := false
	for i := 0; LPCInversePredGain(aQ12) == 0 && i < maxLPCStabilizeIterations; i++ {
		BWExpander(aQ12, 65536-(int32(2)<<i))
		changed = true
	}
	return changed
}
