package silk

import (
	"math/rand"
	"testing"
)

func TestGainsQuantMatchesDequant(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for _, nb := range []int{2, 4} {
		encPrev, decPrev := int8(10), int8(10)
		for f := range 400 {
			gains := make([]int32, nb)
			for k := range gains {
				// 2^10 .. 2^26 in Q16 covers the whole 2..88 dB range.
				gains[k] = int32(1) << (10 + rng.Intn(16))
				gains[k] += rng.Int31n(gains[k])
			}
			conditional := f%5 != 0
			var ind [maxNbSubfr]int8
			GainsQuant(ind[:], gains, &encPrev, conditional, nb)

			got := make([]int32, nb)
			GainsDequant(got, ind[:], &decPrev, conditional, nb)
			for k := range got {
				if got[k] != gains[k] {
					t.Fatalf("nb %d frame %d subframe %d: dequant %d, quant %d", nb, f, k, got[k], gains[k])
				}
			}
			if encPrev != decPrev {
				t.Fatalf("frame %d: encoder index %d, decoder %d", f, encPrev, decPrev)
			}
			for k := range nb {
				if conditional || k > 0 {
					if ind[k] < 0 || int(ind[k]) > maxDeltaGainQuant-minDeltaGainQuant {
						t.Fatalf("delta index %d out of range", ind[k])
					}
				}
			}
		}
	}
}

func TestGainsDequantClamps(t *testing.T) {
	tests := []struct {
		name        string
		ind         []int8
		prev        int8
		conditional bool
		wantPrev    int8
	}{
		{"absolute_floor", []int8{0, 4}, 40, false, 24},
		{"delta_ceiling", []int8{40, 40}, 60, true, 63},
		{"delta_floor", []int8{0, 0}, 2, true, 0},
		{"double_step", []int8{63, 4}, 0, false, 63},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prev := tc.prev
			gains := make([]int32, 2)
			GainsDequant(gains, tc.ind, &prev, tc.conditional, 2)
			if prev != tc.wantPrev {
				t.Fatalf("last index %d, want %d", prev, tc.wantPrev)
			}
			for _, g := range gains {
				if g <= 0 {
					t.Fatalf("gain %d not positive", g)
				}
			}
		})
	}
}
