package silk

import (
	"math/rand"
	"testing"

	"github.com/thesyncim/gosilk/rangecoding"
)

// randomIndices draws a set of indices that the coder can represent for the
// given geometry. Fields the bitstream omits for the chosen signal type stay
// at the values the decoder leaves in a fresh struct.
func randomIndices(rng *rand.Rand, g *frameGeometry, condCoding int, prevLag int, prevVoiced bool) SideInfoIndices {
	var idx SideInfoIndices
	idx.SignalType = int8(rng.Intn(3))
	idx.QuantOffsetType = int8(rng.Intn(2))
	for k := 0; k < g.nbSubfr; k++ {
		idx.GainsIndices[k] = int8(rng.Intn(maxDeltaGainQuant - minDeltaGainQuant + 1))
	}
	if condCoding != codeConditionally {
		idx.GainsIndices[0] = int8(rng.Intn(nLevelsQGain))
	}
	idx.NLSFIndices[0] = int8(rng.Intn(g.nlsfCB.nVectors))
	for i := 1; i <= g.lpcOrder; i++ {
		idx.NLSFIndices[i] = int8(rng.Intn(2*nlsfQuantMaxAmplitudeExt+1) - nlsfQuantMaxAmplitudeExt)
	}
	idx.NLSFInterpCoefQ2 = 4
	if g.nbSubfr == maxNbSubfr {
		idx.NLSFInterpCoefQ2 = int8(rng.Intn(5))
	}
	if idx.SignalType == typeVoiced {
		maxIndex := (peMaxLagMs - peMinLagMs) * g.fsKHz
		if prevVoiced && condCoding == codeConditionally && rng.Intn(2) == 0 {
			idx.LagIndex = int16(min(max(prevLag+rng.Intn(20)-8, 0), maxIndex-1))
		} else {
			idx.LagIndex = int16(rng.Intn(maxIndex))
		}
		idx.ContourIndex = int8(rng.Intn(pitchContourSize(g.fsKHz, g.nbSubfr)))
		idx.PERIndex = int8(rng.Intn(3))
		for k := 0; k < g.nbSubfr; k++ {
			idx.LTPIndex[k] = int8(rng.Intn(silkLTPVQSizes[idx.PERIndex]))
		}
		if condCoding == codeIndependently {
			idx.LTPScaleIndex = int8(rng.Intn(3))
		}
	}
	idx.Seed = int8(rng.Intn(4))
	return idx
}

func TestIndicesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, fs := range []int{8, 12, 16} {
		for _, nb := range []int{2, 4} {
			g := newFrameGeometry(fs, nb)
			var encHist, decHist indexHistory
			var enc rangecoding.Encoder
			enc.Init(make([]byte, 16384))

			const frames = 60
			want := make([]SideInfoIndices, frames)
			conds := make([]int, frames)
			prevLag, prevVoiced := 0, false
			for f := range frames {
				cond := codeConditionally
				switch {
				case f == 0:
					cond = codeIndependently
				case f%7 == 0:
					cond = codeIndependentlyNoLtpScaling
				}
				conds[f] = cond
				want[f] = randomIndices(rng, &g, cond, prevLag, prevVoiced)
				encodeIndices(&enc, &g, &want[f], &encHist, false, cond)
				prevVoiced = want[f].SignalType == typeVoiced
				if prevVoiced {
					prevLag = int(want[f].LagIndex)
				}
			}
			if enc.Error() != 0 {
				t.Fatalf("fs %d nb %d: encoder error", fs, nb)
			}
			data := enc.Done()

			var rd rangecoding.Decoder
			rd.Init(data)
			for f := range frames {
				var got SideInfoIndices
				decodeIndices(&rd, &g, &got, &decHist, want[f].SignalType > 0, conds[f])
				if got != want[f] {
					t.Fatalf("fs %d nb %d frame %d:\n got %+v\nwant %+v", fs, nb, f, got, want[f])
				}
			}
		}
	}
}

func TestDecodeIndicesGarbage(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	buf := make([]byte, 40)
	for range 300 {
		rng.Read(buf)
		g := newFrameGeometry([]int{8, 12, 16}[rng.Intn(3)], []int{2, 4}[rng.Intn(2)])
		hist := indexHistory{prevSignalType: typeVoiced, prevLagIndex: rng.Intn(300)}
		var rd rangecoding.Decoder
		rd.Init(buf)
		var idx SideInfoIndices
		decodeIndices(&rd, &g, &idx, &hist, rng.Intn(2) == 0, rng.Intn(3))
		if idx.SignalType < 0 || idx.SignalType > typeVoiced {
			t.Fatalf("signal type %d", idx.SignalType)
		}
		if idx.NLSFInterpCoefQ2 < 0 || idx.NLSFInterpCoefQ2 > 4 {
			t.Fatalf("interpolation factor %d", idx.NLSFInterpCoefQ2)
		}
	}
}
