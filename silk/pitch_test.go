package silk

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/thesyncim/gosilk/rangecoding"
)

func TestPitchIndicesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	for _, fs := range []int{8, 12, 16} {
		for _, nb := range []int{2, 4} {
			t.Run(fmt.Sprintf("%dkHz_%dsubfr", fs, nb), func(t *testing.T) {
				maxIndex := (peMaxLagMs - peMinLagMs) * fs
				type entry struct {
					lag         int16
					contour     int8
					prev        int
					conditional bool
				}
				entries := make([]entry, 200)
				var enc rangecoding.Encoder
				enc.Init(make([]byte, 4096))
				for i := range entries {
					e := entry{
						lag:         int16(rng.Intn(maxIndex)),
						contour:     int8(rng.Intn(pitchContourSize(fs, nb))),
						prev:        rng.Intn(maxIndex),
						conditional: rng.Intn(2) == 0,
					}
					if e.conditional && rng.Intn(2) == 0 {
						e.lag = int16(min(max(e.prev+rng.Intn(20)-8, 0), maxIndex-1))
					}
					entries[i] = e
					EncodePitch(&enc, e.lag, e.contour, e.prev, e.conditional, fs, nb)
				}
				if enc.Error() != 0 {
					t.Fatal("encoder overflow")
				}
				var dec rangecoding.Decoder
				dec.Init(enc.Done())
				for i, e := range entries {
					lag, contour := DecodePitchIndices(&dec, e.prev, e.conditional, fs, nb)
					if lag != e.lag || contour != e.contour {
						t.Fatalf("entry %d: got (%d, %d), want (%d, %d)", i, lag, contour, e.lag, e.contour)
					}
				}
			})
		}
	}
}

func TestEstimatePitchFindsPeriod(t *testing.T) {
	for _, fs := range []int{8, 12, 16} {
		for _, nb := range []int{2, 4} {
			t.Run(fmt.Sprintf("%dkHz_%dsubfr", fs, nb), func(t *testing.T) {
				period := 4 * fs // 4 ms, so every subframe holds a pulse
				start := ltpMemLengthMs * fs
				x := make([]int16, start+nb*subFrameLengthMs*fs)
				rng := rand.New(rand.NewSource(int64(fs)))
				for i := range x {
					x[i] = int16(rng.NormFloat64() * 100)
					if i%period == 0 {
						x[i] += 8000
					}
				}
				pitchL := make([]int, nb)
				est := EstimatePitch(pitchL, x, start, fs, nb, 0, 0.3)
				if !est.Voiced {
					t.Fatalf("pulse train not voiced, correlation %d", est.CorrQ15)
				}
				for k, lag := range pitchL {
					if lag < period-2 || lag > period+2 {
						t.Errorf("subframe %d: lag %d, want about %d", k, lag, period)
					}
				}
			})
		}
	}
}

func TestEstimatePitchSilence(t *testing.T) {
	x := make([]int16, 640)
	pitchL := make([]int, maxNbSubfr)
	if est := EstimatePitch(pitchL, x, 320, 16, maxNbSubfr, 0, 0.3); est.Voiced {
		t.Fatal("silence reported voiced")
	}
}
