package silk

import "github.com/thesyncim/gosilk/rangecoding"

// encodeIndices writes the side information of one frame: signal type and
// quantizer offset, gains, NLSF indices, interpolation factor, pitch, LTP
// gains, LTP scale and seed.
//
// This follows libopus silk_encode_indices.
func encodeIndices(enc *rangecoding.Encoder, g *frameGeometry, idx *SideInfoIndices, h *indexHistory, lbrr bool, condCoding int) {
	typeOffset := 2*int(idx.SignalType) + int(idx.QuantOffsetType)
	if lbrr || typeOffset >= 2 {
		enc.EncodeICDF(typeOffset-2, silkTypeOffsetVADICDF, 8)
	} else {
		enc.EncodeICDF(typeOffset, silkTypeOffsetNoVADICDF, 8)
	}

	if condCoding == codeConditionally {
		enc.EncodeICDF(int(idx.GainsIndices[0]), silkDeltaGainICDF, 8)
	} else {
		enc.EncodeICDF(int(idx.GainsIndices[0])>>3, silkGainICDF[idx.SignalType], 8)
		enc.EncodeICDF(int(idx.GainsIndices[0])&7, silkUniform8ICDF, 8)
	}
	for i := 1; i < g.nbSubfr; i++ {
		enc.EncodeICDF(int(idx.GainsIndices[i]), silkDeltaGainICDF, 8)
	}

	cb := g.nlsfCB
	enc.EncodeICDF(int(idx.NLSFIndices[0]), cb.cb1ICDFFor(int(idx.SignalType)), 8)
	var ecIx [maxLPCOrder]int16
	var predQ8 [maxLPCOrder]uint8
	nlsfUnpack(ecIx[:], predQ8[:], cb, int(idx.NLSFIndices[0]))
	for i := 0; i < cb.order; i++ {
		v := int(idx.NLSFIndices[i+1])
		table := cb.ecICDF[ecIx[i]:]
		switch {
		case v >= nlsfQuantMaxAmplitude:
			enc.EncodeICDF(2*nlsfQuantMaxAmplitude, table, 8)
			enc.EncodeICDF(v-nlsfQuantMaxAmplitude, silkNLSFExtICDF, 8)
		case v <= -nlsfQuantMaxAmplitude:
			enc.EncodeICDF(0, table, 8)
			enc.EncodeICDF(-v-nlsfQuantMaxAmplitude, silkNLSFExtICDF, 8)
		default:
			enc.EncodeICDF(v+nlsfQuantMaxAmplitude, table, 8)
		}
	}
	if g.nbSubfr == maxNbSubfr {
		enc.EncodeICDF(int(idx.NLSFInterpCoefQ2), silkNLSFInterpolationFactorICDF, 8)
	}

	if idx.SignalType == typeVoiced {
		conditional := condCoding == codeConditionally && h.prevSignalType == typeVoiced
		EncodePitch(enc, idx.LagIndex, idx.ContourIndex, h.prevLagIndex, conditional, g.fsKHz, g.nbSubfr)
		h.prevLagIndex = int(idx.LagIndex)

		enc.EncodeICDF(int(idx.PERIndex), silkLTPPerIndexICDF, 8)
		for k := 0; k < g.nbSubfr; k++ {
			enc.EncodeICDF(int(idx.LTPIndex[k]), silkLTPGainICDF[idx.PERIndex], 8)
		}
		if condCoding == codeIndependently {
			enc.EncodeICDF(int(idx.LTPScaleIndex), silkLTPScaleICDF, 8)
		}
	}
	h.prevSignalType = int(idx.SignalType)

	enc.EncodeICDF(int(idx.Seed), silkUniform4ICDF, 8)
}

// decodeIndices reads what encodeIndices wrote. Every symbol comes out of a
// table lookup, so the indices are in range whatever the input bytes were.
//
// This follows libopus silk_decode_indices.
func decodeIndices(rd *rangecoding.Decoder, g *frameGeometry, idx *SideInfoIndices, h *indexHistory, vad bool, condCoding int) {
	var ix int
	if vad {
		ix = rd.DecodeICDF(silkTypeOffsetVADICDF, 8) + 2
	} else {
		ix = rd.DecodeICDF(silkTypeOffsetNoVADICDF, 8)
	}
	idx.SignalType = int8(ix >> 1)
	idx.QuantOffsetType = int8(ix & 1)

	if condCoding == codeConditionally {
		idx.GainsIndices[0] = int8(rd.DecodeICDF(silkDeltaGainICDF, 8))
	} else {
		msb := rd.DecodeICDF(silkGainICDF[idx.SignalType], 8)
		idx.GainsIndices[0] = int8(msb<<3 + rd.DecodeICDF(silkUniform8ICDF, 8))
	}
	for i := 1; i < g.nbSubfr; i++ {
		idx.GainsIndices[i] = int8(rd.DecodeICDF(silkDeltaGainICDF, 8))
	}

	cb := g.nlsfCB
	idx.NLSFIndices[0] = int8(rd.DecodeICDF(cb.cb1ICDFFor(int(idx.SignalType)), 8))
	var ecIx [maxLPCOrder]int16
	var predQ8 [maxLPCOrder]uint8
	nlsfUnpack(ecIx[:], predQ8[:], cb, int(idx.NLSFIndices[0]))
	for i := 0; i < cb.order; i++ {
		v := rd.DecodeICDF(cb.ecICDF[ecIx[i]:], 8)
		if v == 0 {
			v -= rd.DecodeICDF(silkNLSFExtICDF, 8)
		} else if v == 2*nlsfQuantMaxAmplitude {
			v += rd.DecodeICDF(silkNLSFExtICDF, 8)
		}
		idx.NLSFIndices[i+1] = int8(v - nlsfQuantMaxAmplitude)
	}
	if g.nbSubfr == maxNbSubfr {
		idx.NLSFInterpCoefQ2 = int8(rd.DecodeICDF(silkNLSFInterpolationFactorICDF, 8))
	} else {
		idx.NLSFInterpCoefQ2 = 4
	}

	if idx.SignalType == typeVoiced {
		conditional := condCoding == codeConditionally && h.prevSignalType == typeVoiced
		idx.LagIndex, idx.ContourIndex = DecodePitchIndices(rd, h.prevLagIndex, conditional, g.fsKHz, g.nbSubfr)
		h.prevLagIndex = int(idx.LagIndex)

		idx.PERIndex = int8(rd.DecodeICDF(silkLTPPerIndexICDF, 8))
		for k := 0; k < g.nbSubfr; k++ {
			idx.LTPIndex[k] = int8(rd.DecodeICDF(silkLTPGainICDF[idx.PERIndex], 8))
		}
		if condCoding == codeIndependently {
			idx.LTPScaleIndex = int8(rd.DecodeICDF(silkLTPScaleICDF, 8))
		} else {
			idx.LTPScaleIndex = 0
		}
	}
	h.prevSignalType = int(idx.SignalType)

	idx.Seed = int8(rd.DecodeICDF(silkUniform4ICDF, 8))
}
