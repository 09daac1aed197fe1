package silk

import (
	"math"
	"math/rand"
	"testing"
)

// stableQ12 builds a predictor of the given order from decaying reflection
// coefficients, converted to Q12.
func stableQ12(rng *rand.Rand, order int) []int16 {
	a := make([]float64, order)
	tmp := make([]float64, order)
	for i := 0; i < order; i++ {
		k := 0.4 * math.Pow(0.7, float64(i))
		if rng.Intn(2) == 0 {
			k = -k
		}
		copy(tmp, a)
		for n := 0; n < i; n++ {
			a[n] = tmp[n] - k*tmp[i-1-n]
		}
		a[i] = k
	}
	out := make([]int16, order)
	for i, v := range a {
		out[i] = int16(math.Round(v * 4096))
	}
	return out
}

func TestLPCInversePredGainStable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for order := 2; order <= 24; order += 2 {
		for trial := 0; trial < 50; trial++ {
			a := stableQ12(rng, order)
			g := LPCInversePredGain(a)
			if g <= 0 || g > 1<<30 {
				t.Fatalf("order %d trial %d: invGain = %d for %v", order, trial, g, a)
			}
		}
	}
}

func TestLPCInversePredGainRejectsLastCoefficientBeyondLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for order := 2; order <= 24; order += 2 {
		for _, v := range []int16{4095, -4095, 8000, -32768} {
			a := stableQ12(rng, order)
			a[order-1] = v
			if g := LPCInversePredGain(a); g != 0 {
				t.Fatalf("order %d last=%d: invGain = %d, want 0", order, v, g)
			}
		}
	}
}

func TestLPCInversePredGainCases(t *testing.T) {
	tests := []struct {
		name string
		a    []int16
		want int32
	}{
		{"zero_filter", []int16{0, 0}, 1 << 30},
		{"ar2_predictor", []int16{6554, -3277}, 81088824},
		{"ar2_sign_flipped", []int16{-6554, 3277}, 0},
		{"largest_q12_below_limit", []int16{4094}, 1048320},
		{"q12_step_past_limit", []int16{4095}, 0},
		{"dc_response", []int16{4096, 0}, 0},
		{"large_but_stable", []int16{4096, -1024}, 362387844},
		{"empty", nil, 0},
		{"too_long", make([]int16, 26), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LPCInversePredGain(tt.a); got != tt.want {
				t.Fatalf("LPCInversePredGain(%v) = %d, want %d", tt.a, got, tt.want)
			}
		})
	}
}

// The comparison against aLimitQ24 is strict: a reflection coefficient equal
// to the limit passes, one step above it fails.
func TestLPCInversePredGainLimitComparison(t *testing.T) {
	if got := lpcInversePredGainQA([]int32{aLimitQ24}); got != 536764 {
		t.Fatalf("at limit: got %d, want 536764", got)
	}
	if got := lpcInversePredGainQA([]int32{aLimitQ24 + 1}); got != 0 {
		t.Fatalf("above limit: got %d, want 0", got)
	}
	if got := lpcInversePredGainQA([]int32{-aLimitQ24 - 1}); got != 0 {
		t.Fatalf("below negative limit: got %d, want 0", got)
	}
}

func TestBWExpander(t *testing.T) {
	a := []int16{4096, 4096, 4096, 4096}
	BWExpander(a, 32768)
	want := []int16{2048, 1024, 512, 256}
	for i := range a {
		if a[i] != want[i] {
			t.Fatalf("got %v, want %v", a, want)
		}
	}

	b := []int32{1 << 20, 1 << 20}
	BWExpander32(b, 32768)
	if b[0] != 1<<19 || b[1] != 1<<18 {
		t.Fatalf("BWExpander32 got %v", b)
	}
}

func TestStabilizeLPCRecovers(t *testing.T) {
	// Poles outside the unit circle after rounding.
	a := []int16{8000, -4000, 1500, -200}
	if LPCInversePredGain(a) != 0 {
		t.Skip("vector unexpectedly stable")
	}
	if !stabilizeLPC(a) {
		t.Fatal("stabilizeLPC reported no change")
	}
	if LPCInversePredGain(a) == 0 {
		t.Fatalf("still unstable after stabilization: %v", a)
	}
}

func TestLPCFitExpandsIntoRange(t *testing.T) {
	in := []int32{40000 << 4, -30000 << 4, 1 << 4}
	out := make([]int16, len(in))
	LPCFit(out, in, 12, 16)
	wantOut := []int16{32727, -20083, 1}
	wantIn := []int32{523632, -321321, 8}
	for i := range out {
		if out[i] != wantOut[i] || in[i] != wantIn[i] {
			t.Fatalf("LPCFit = %v (in %v), want %v (in %v)", out, in, wantOut, wantIn)
		}
	}
}
