package silk

// VQWMatEC searches one LTP codebook for the entry closest to inQ14 under
// the weighting matrix wQ18 (5x5, row major). The cost of an entry is its
// weighted squared error plus muQ9 times its code length plus a penalty for
// exceeding maxGainQ7. The first entry with the lowest cost wins.
func VQWMatEC(inQ14 []int16, wQ18 []int32, cbQ7 [][ltpOrder]int8, cbGainQ7, clQ5 []uint8, muQ9, maxGainQ7 int32) (ind int8, rateDistQ14 int32, gainQ7 int32) {
	var diff [ltpOrder]int32
	rateDistQ14 = silkInt32Max
	for k := range cbQ7 {
		row := &cbQ7[k]
		gainTmpQ7 := int32(cbGainQ7[k])
		for i := 0; i < ltpOrder; i++ {
			diff[i] = int32(inQ14[i] - int16(row[i])<<7)
		}

		// Rate and gain ceiling.
		sum1Q14 := silkSMULBB(muQ9, int32(clQ5[k]))
		sum1Q14 = silkADD_LSHIFT32(sum1Q14, max(gainTmpQ7-maxGainQ7, 0), 10)

		// Upper triangle of the symmetric weighting, one row at a time.
		sum2Q16 := silkSMULWB(wQ18[1], diff[1])
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[2], diff[2])
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[3], diff[3])
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[4], diff[4])
		sum2Q16 <<= 1
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[0], diff[0])
		sum1Q14 = silkSMLAWB(sum1Q14, sum2Q16, diff[0])

		sum2Q16 = silkSMULWB(wQ18[7], diff[2])
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[8], diff[3])
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[9], diff[4])
		sum2Q16 <<= 1
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[6], diff[1])
		sum1Q14 = silkSMLAWB(sum1Q14, sum2Q16, diff[1])

		sum2Q16 = silkSMULWB(wQ18[13], diff[3])
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[14], diff[4])
		sum2Q16 <<= 1
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[12], diff[2])
		sum1Q14 = silkSMLAWB(sum1Q14, sum2Q16, diff[2])

		sum2Q16 = silkSMULWB(wQ18[19], diff[4])
		sum2Q16 <<= 1
		sum2Q16 = silkSMLAWB(sum2Q16, wQ18[18], diff[3])
		sum1Q14 = silkSMLAWB(sum1Q14, sum2Q16, diff[3])

		sum2Q16 = silkSMULWB(wQ18[24], diff[4])
		sum1Q14 = silkSMLAWB(sum1Q14, sum2Q16, diff[4])

		if sum1Q14 < rateDistQ14 {
			rateDistQ14 = sum1Q14
			ind = int8(k)
			gainQ7 = gainTmpQ7
		}
	}
	return ind, rateDistQ14, gainQ7
}

// QuantLTPGains quantizes the per-subframe LTP filters in bQ14 with each of
// the three codebooks and keeps the one with the lowest total cost. bQ14 is
// replaced by the quantized taps and cbkIndex receives the entry per
// subframe. sumLogGainQ7 carries the cumulative log gain between frames; the
// updated value is returned along with the chosen periodicity index.
func QuantLTPGains(bQ14 []int16, cbkIndex []int8, sumLogGainQ7 int32, wQ18 []int32, muQ9 int32, lowComplexity bool, nbSubfr int) (perIndex int8, newSumLogGainQ7 int32) {
	var tmpIdx [maxNbSubfr]int8
	minRateDistQ14 := silkInt32Max
	for k := 0; k < 3; k++ {
		rateDistQ14 := int32(0)
		sumLogTmpQ7 := sumLogGainQ7
		for j := 0; j < nbSubfr; j++ {
			maxGainQ7 := silkLog2Lin(maxSumLogGainQ7-sumLogTmpQ7+7<<7) - ltpGainSafetyQ7
			ind, rd, gainQ7 := VQWMatEC(bQ14[j*ltpOrder:], wQ18[j*ltpOrder*ltpOrder:], silkLTPVQQ7[k], silkLTPVQGainQ7[k], silkLTPGainBitsQ5[k], muQ9, maxGainQ7)
			tmpIdx[j] = ind
			rateDistQ14 = silkAddPosSat32(rateDistQ14, rd)
			sumLogTmpQ7 = max(0, sumLogTmpQ7+silkLin2Log(ltpGainSafetyQ7+gainQ7)-7<<7)
		}
		rateDistQ14 = min(silkInt32Max-1, rateDistQ14)
		if rateDistQ14 < minRateDistQ14 {
			minRateDistQ14 = rateDistQ14
			perIndex = int8(k)
			copy(cbkIndex[:nbSubfr], tmpIdx[:nbSubfr])
			newSumLogGainQ7 = sumLogTmpQ7
		}
		if lowComplexity && rateDistQ14 < ltpGainMiddleAvgRDQ14 {
			break
		}
	}

	cb := silkLTPVQQ7[perIndex]
	for j := 0; j < nbSubfr; j++ {
		for k := 0; k < ltpOrder; k++ {
			bQ14[j*ltpOrder+k] = int16(cb[cbkIndex[j]][k]) << 7
		}
	}
	return perIndex, newSumLogGainQ7
}

// LTPScaleControl picks the LTP state scaling for the first frame of a
// packet: the more loss is expected and the more the frame leans on
// long-term prediction, the stronger the scaling. Conditionally coded frames
// always use index 0.
func LTPScaleControl(predGainQ7 int32, packetLossPct, nFramesPerPacket, condCoding int) int8 {
	if condCoding != codeIndependently {
		return 0
	}
	roundLoss := int32(packetLossPct + nFramesPerPacket)
	// roundLoss * gain_dB * 0.1, with the gain in Q7.
	return int8(silkLimit32(roundLoss*max(predGainQ7, 0)/1280, 0, 2))
}
