package silk

// insertionSortIncreasing partially sorts a so that its k smallest values
// come first in increasing order, recording their original positions in idx.
func insertionSortIncreasing(a []int32, idx []int, k int) {
	for i := 0; i < k; i++ {
		idx[i] = i
	}
	for i := 1; i < k; i++ {
		value := a[i]
		j := i - 1
		for ; j >= 0 && value < a[j]; j-- {
			a[j+1] = a[j]
			idx[j+1] = idx[j]
		}
		a[j+1] = value
		idx[j+1] = i
	}
	for i := k; i < len(a); i++ {
		value := a[i]
		if value >= a[k-1] {
			continue
		}
		j := k - 2
		for ; j >= 0 && value < a[j]; j-- {
			a[j+1] = a[j]
			idx[j+1] = idx[j]
		}
		a[j+1] = value
		idx[j+1] = i
	}
}

// nlsfVQ computes the squared error (Q26) between nlsfQ15 and every
// stage-1 codebook vector.
func nlsfVQ(errQ26 []int32, nlsfQ15 []int16, cb *nlsfCodebook) {
	order := cb.order
	for i := 0; i < cb.nVectors; i++ {
		vec := cb.cb1NLSFQ8[i*order : (i+1)*order]
		var sumQ26 int32
		for m := 0; m < order; m += 2 {
			diff := int32(nlsfQ15[m]) - int32(vec[m])<<7
			sumQ30 := diff * diff
			diff = int32(nlsfQ15[m+1]) - int32(vec[m+1])<<7
			sumQ30 += diff * diff
			sumQ26 += sumQ30 >> 4
		}
		errQ26[i] = sumQ26
	}
}

// nlsfDelDecQuant quantizes the stage-2 residual with a four-state trellis
// over the backward predictor, minimising weighted error plus mu times
// rate. It returns the rate-distortion value in Q25.
func nlsfDelDecQuant(indices []int8, xQ10 []int16, wQ5 []int16, predQ8 []uint8, ecIx []int16,
	ecRatesQ5 []uint8, quantStepSizeQ16, invQuantStepSizeQ6, muQ20 int32, order int) int32 {

	const (
		nStatesMax = nlsfQuantDelDecStates
		ampExt     = nlsfQuantMaxAmplitudeExt
		amp        = nlsfQuantMaxAmplitude
	)
	var (
		ind       [nStatesMax][maxLPCOrder]int8
		indSort   [nStatesMax]int
		prevOutQ10 [2 * nStatesMax]int16
		rdQ25     [2 * nStatesMax]int32
		rdMinQ25  [nStatesMax]int32
		rdMaxQ25  [nStatesMax]int32
		out0Table [2 * ampExt]int32
		out1Table [2 * ampExt]int32
	)

	for i := -ampExt; i <= ampExt-1; i++ {
		out0 := int32(i) << 10
		out1 := out0 + 1024
		switch {
		case i > 0:
			out0 -= nlsfQuantLevelAdjQ10
			out1 -= nlsfQuantLevelAdjQ10
		case i == 0:
			out1 -= nlsfQuantLevelAdjQ10
		case i == -1:
			out0 += nlsfQuantLevelAdjQ10
		default:
			out0 += nlsfQuantLevelAdjQ10
			out1 += nlsfQuantLevelAdjQ10
		}
		out0Table[i+ampExt] = silkSMULWB(out0, quantStepSizeQ16)
		out1Table[i+ampExt] = silkSMULWB(out1, quantStepSizeQ16)
	}

	nStates := 1
	for i := order - 1; ; i-- {
		predCoefQ16 := int32(predQ8[i]) << 8
		inQ10 := int32(xQ10[i])
		for j := 0; j < nStates; j++ {
			predQ10 := silkSMULWB(predCoefQ16, int32(prevOutQ10[j]))
			resQ10 := int32(int16(inQ10 - predQ10))
			indTmp := silkLimit32(silkSMULWB(invQuantStepSizeQ6, resQ10), -ampExt, ampExt-1)
			ind[j][i] = int8(indTmp)
			ratesQ5 := int(ecIx[i]) + int(indTmp)

			out0 := int32(int16(out0Table[indTmp+ampExt] + predQ10))
			out1 := int32(int16(out1Table[indTmp+ampExt] + predQ10))
			prevOutQ10[j] = int16(out0)
			prevOutQ10[j+nStates] = int16(out1)

			var rate0Q5, rate1Q5 int32
			switch {
			case indTmp+1 >= amp:
				if indTmp+1 == amp {
					rate0Q5 = int32(ecRatesQ5[ratesQ5+amp])
					rate1Q5 = 280
				} else {
					rate0Q5 = 280 - 43*amp + 43*indTmp
					rate1Q5 = rate0Q5 + 43
				}
			case indTmp <= -amp:
				if indTmp == -amp {
					rate0Q5 = 280
					rate1Q5 = int32(ecRatesQ5[ratesQ5+1+amp])
				} else {
					rate0Q5 = 280 - 43*amp - 43*indTmp
					rate1Q5 = rate0Q5 - 43
				}
			default:
				rate0Q5 = int32(ecRatesQ5[ratesQ5+amp])
				rate1Q5 = int32(ecRatesQ5[ratesQ5+1+amp])
			}

			rdTmp := rdQ25[j]
			diff := int32(int16(inQ10 - out0))
			rdQ25[j] = silkSMLABB(rdTmp+diff*diff*int32(wQ5[i]), muQ20, rate0Q5)
			diff = int32(int16(inQ10 - out1))
			rdQ25[j+nStates] = silkSMLABB(rdTmp+diff*diff*int32(wQ5[i]), muQ20, rate1Q5)
		}

		if nStates <= nStatesMax>>1 {
			// Double the number of states.
			for j := 0; j < nStates; j++ {
				ind[j+nStates][i] = ind[j][i] + 1
			}
			nStates <<= 1
			for j := nStates; j < nStatesMax; j++ {
				ind[j][i] = ind[j-nStates][i]
			}
		} else if i > 0 {
			// Pairwise sort of the lower and upper halves.
			for j := 0; j < nStatesMax; j++ {
				if rdQ25[j] > rdQ25[j+nStatesMax] {
					rdMaxQ25[j] = rdQ25[j]
					rdMinQ25[j] = rdQ25[j+nStatesMax]
					rdQ25[j] = rdMinQ25[j]
					rdQ25[j+nStatesMax] = rdMaxQ25[j]
					prevOutQ10[j], prevOutQ10[j+nStatesMax] = prevOutQ10[j+nStatesMax], prevOutQ10[j]
					indSort[j] = j + nStatesMax
				} else {
					rdMinQ25[j] = rdQ25[j]
					rdMaxQ25[j] = rdQ25[j+nStatesMax]
					indSort[j] = j
				}
			}
			// Replace losing-half winners with better losers until the
			// halves separate.
			for {
				minMaxQ25 := silkInt32Max
				maxMinQ25 := int32(0)
				indMinMax, indMaxMin := 0, 0
				for j := 0; j < nStatesMax; j++ {
					if minMaxQ25 > rdMaxQ25[j] {
						minMaxQ25 = rdMaxQ25[j]
						indMinMax = j
					}
					if maxMinQ25 < rdMinQ25[j] {
						maxMinQ25 = rdMinQ25[j]
						indMaxMin = j
					}
				}
				if minMaxQ25 >= maxMinQ25 {
					break
				}
				indSort[indMaxMin] = indSort[indMinMax] ^ nStatesMax
				rdQ25[indMaxMin] = rdQ25[indMinMax+nStatesMax]
				prevOutQ10[indMaxMin] = prevOutQ10[indMinMax+nStatesMax]
				rdMinQ25[indMaxMin] = 0
				rdMaxQ25[indMinMax] = silkInt32Max
				ind[indMaxMin] = ind[indMinMax]
			}
			for j := 0; j < nStatesMax; j++ {
				ind[j][i] += int8(indSort[j] >> nlsfQuantDelDecStatesLog2)
			}
		} else {
			break
		}
	}

	// Winner of the last sample.
	indTmp := 0
	minQ25 := silkInt32Max
	for j := 0; j < 2*nStatesMax; j++ {
		if minQ25 > rdQ25[j] {
			minQ25 = rdQ25[j]
			indTmp = j
		}
	}
	copy(indices[:order], ind[indTmp&(nStatesMax-1)][:order])
	indices[0] += int8(indTmp >> nlsfQuantDelDecStatesLog2)
	return minQ25
}

// NLSFEncode quantizes nlsfQ15 with the two-stage codebook: the nSurvivors
// closest stage-1 vectors each get a trellis-quantized residual and the
// lowest rate-distortion candidate wins. indices receives the stage-1 index
// followed by order residual indices, and nlsfQ15 is replaced by its
// quantized value. The return value is the winning RD cost in Q25.
func NLSFEncode(indices []int8, nlsfQ15 []int16, cb *nlsfCodebook, wQW []int16, muQ20 int32, nSurvivors, signalType int) int32 {
	order := cb.order
	nSurvivors = silkLimitInt(nSurvivors, 1, cb.nVectors)

	NLSFStabilize(nlsfQ15[:order], cb.deltaMinQ15)

	var errQ26 [nlsfVQMaxSurvivors]int32
	var survivors [nlsfVQMaxSurvivors]int
	nlsfVQ(errQ26[:cb.nVectors], nlsfQ15, cb)
	insertionSortIncreasing(errQ26[:cb.nVectors], survivors[:], nSurvivors)

	var (
		rdQ25      [nlsfVQMaxSurvivors]int32
		candidates [nlsfVQMaxSurvivors][maxLPCOrder]int8
		cbQ15      [maxLPCOrder]int16
		resQ10     [maxLPCOrder]int16
		wTmpQW     [maxLPCOrder]int16
		wAdjQ5     [maxLPCOrder]int16
		predQ8     [maxLPCOrder]uint8
		ecIx       [maxLPCOrder]int16
	)
	icdf := cb.cb1ICDFFor(signalType)

	for s := 0; s < nSurvivors; s++ {
		ind1 := survivors[s]
		vec := cb.cb1NLSFQ8[ind1*order:]
		for i := 0; i < order; i++ {
			cbQ15[i] = int16(vec[i]) << 7
		}

		NLSFVQWeightsLaroia(wTmpQW[:order], cbQ15[:order])
		for i := 0; i < order; i++ {
			wTmpQ9 := silkSqrtApprox(int32(wTmpQW[i]) << (18 - nlsfWQ))
			resQ15 := int32(nlsfQ15[i]) - int32(cbQ15[i])
			resQ10[i] = int16(silkSMULBB(resQ15, wTmpQ9) >> 14)
			wAdjQ5[i] = int16((int32(wQW[i]) << 5) / int32(wTmpQW[i]))
		}

		nlsfUnpack(ecIx[:], predQ8[:], cb, ind1)
		rdQ25[s] = nlsfDelDecQuant(candidates[s][:], resQ10[:], wAdjQ5[:], predQ8[:], ecIx[:],
			cb.ecRatesQ5, cb.quantStepSizeQ16, cb.invQuantStepSizeQ6, muQ20, order)

		// Add the stage-1 rate.
		var probQ8 int32
		if ind1 == 0 {
			probQ8 = 256 - int32(icdf[0])
		} else {
			probQ8 = int32(icdf[ind1-1]) - int32(icdf[ind1])
		}
		bitsQ7 := int32(8<<7) - silkLin2Log(probQ8)
		rdQ25[s] = silkSMLABB(rdQ25[s], bitsQ7, muQ20>>2)
	}

	var best [1]int
	insertionSortIncreasing(rdQ25[:nSurvivors], best[:], 1)

	indices[0] = int8(survivors[best[0]])
	copy(indices[1:order+1], candidates[best[0]][:order])

	NLSFDecode(nlsfQ15, indices, cb)
	return rdQ25[0]
}

// nlsfMuQ20 is the rate weight of the NLSF quantizer: 0.003 - 0.001 *
// speech activity, times 1.5 for 10 ms frames.
func nlsfMuQ20(speechActivityQ8 int32, nbSubfr int) int32 {
	mu := silkSMLAWB(silkFixConst(0.003, 20), silkFixConst(-0.001, 28), speechActivityQ8)
	if nbSubfr == 2 {
		mu += mu >> 1
	}
	return mu
}

// processNLSFs quantizes the frame's NLSFs and converts them into the two
// LPC filter sets of the frame. predCoefQ12[0] covers the first half of the
// frame and is interpolated from prevNLSFQ15 when idx.NLSFInterpCoefQ2 < 4.
func processNLSFs(predCoefQ12 *[2][maxLPCOrder]int16, nlsfQ15, prevNLSFQ15 []int16, idx *SideInfoIndices,
	cb *nlsfCodebook, speechActivityQ8 int32, nbSubfr, nSurvivors int, useInterp bool) {

	order := cb.order
	muQ20 := nlsfMuQ20(speechActivityQ8, nbSubfr)

	var wQW, w0QW [maxLPCOrder]int16
	var nlsf0Q15 [maxLPCOrder]int16
	NLSFVQWeightsLaroia(wQW[:order], nlsfQ15[:order])

	doInterpolate := useInterp && idx.NLSFInterpCoefQ2 < 4
	if doInterpolate {
		InterpolateNLSF(nlsf0Q15[:order], prevNLSFQ15[:order], nlsfQ15[:order], int(idx.NLSFInterpCoefQ2))
		NLSFVQWeightsLaroia(w0QW[:order], nlsf0Q15[:order])
		iSqrQ15 := silkSMULBB(int32(idx.NLSFInterpCoefQ2), int32(idx.NLSFInterpCoefQ2)) << 11
		for i := 0; i < order; i++ {
			wQW[i] = int16(silkSMLAWB(int32(wQW[i])>>1, int32(w0QW[i]), iSqrQ15))
		}
	}

	NLSFEncode(idx.NLSFIndices[:], nlsfQ15[:order], cb, wQW[:order], muQ20, nSurvivors, int(idx.SignalType))

	NLSF2A(predCoefQ12[1][:order], nlsfQ15[:order])
	if doInterpolate {
		InterpolateNLSF(nlsf0Q15[:order], prevNLSFQ15[:order], nlsfQ15[:order], int(idx.NLSFInterpCoefQ2))
		NLSF2A(predCoefQ12[0][:order], nlsf0Q15[:order])
	} else {
		predCoefQ12[0] = predCoefQ12[1]
	}
}
