package silk

// nlsfCodebook describes one two-stage NLSF quantizer: a 32-entry first
// stage and a predictive scalar second stage.
type nlsfCodebook struct {
	nVectors           int
	order              int
	quantStepSizeQ16   int32
	invQuantStepSizeQ6 int32
	cb1NLSFQ8          []uint8
	cb1ICDF            []uint8 // unvoiced half then voiced half
	predQ8             []uint8
	ecSel              []uint8
	ecICDF             []uint8
	ecRatesQ5          []uint8
	deltaMinQ15        []int32
}

var nlsfCodebookNBMB = &nlsfCodebook{
	nVectors:           32,
	order:              10,
	quantStepSizeQ16:   silkFixConst(0.18, 16),
	invQuantStepSizeQ6: silkFixConst(1.0/0.18, 6),
	cb1NLSFQ8:          silkNLSFCB1NBMBQ8,
	cb1ICDF:            silkNLSFCB1ICDFNBMB,
	predQ8:             silkNLSFPredNBMBQ8,
	ecSel:              silkNLSFCB2SelectNBMB,
	ecICDF:             silkNLSFCB2ICDFNBMB,
	ecRatesQ5:          silkNLSFCB2BitsNBMBQ5,
	deltaMinQ15:        silkNLSFDeltaMinNBMBQ15,
}

var nlsfCodebookWB = &nlsfCodebook{
	nVectors:           32,
	order:              16,
	quantStepSizeQ16:   silkFixConst(0.15, 16),
	invQuantStepSizeQ6: silkFixConst(1.0/0.15, 6),
	cb1NLSFQ8:          silkNLSFCB1WBQ8,
	cb1ICDF:            silkNLSFCB1ICDFWB,
	predQ8:             silkNLSFPredWBQ8,
	ecSel:              silkNLSFCB2SelectWB,
	ecICDF:             silkNLSFCB2ICDFWB,
	ecRatesQ5:          silkNLSFCB2BitsWBQ5,
	deltaMinQ15:        silkNLSFDeltaMinWBQ15,
}

// codebookForRate returns the NLSF codebook used at the given internal rate.
func codebookForRate(fsKHz int) *nlsfCodebook {
	if fsKHz == 16 {
		return nlsfCodebookWB
	}
	return nlsfCodebookNBMB
}

// cb1ICDFFor returns the stage-1 table for the signal type.
func (cb *nlsfCodebook) cb1ICDFFor(signalType int) []uint8 {
	off := (signalType >> 1) * cb.nVectors
	return cb.cb1ICDF[off : off+cb.nVectors]
}
