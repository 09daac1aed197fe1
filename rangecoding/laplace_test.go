package rangecoding

import "testing"

var laplaceParams = []struct {
	name       string
	fs0, decay uint32
}{
	{"steep", 72 << 7, 127 << 6},
	{"medium", 119 << 7, 80 << 6},
	{"wide", 20 << 7, 120 << 6},
	{"intensity", LaplaceStartFreq(16384), 16384},
	{"slow_decay", 42 << 7, 121 << 6},
}

// TestLaplaceRoundTrip codes every value in [-2000, 2000] and checks the decoder
// returns the value the encoder reported coding.
func TestLaplaceRoundTrip(t *testing.T) {
	for _, p := range laplaceParams {
		t.Run(p.name, func(t *testing.T) {
			const lo, hi = -2000, 2000
			var enc Encoder
			enc.Init(make([]byte, 32768))
			coded := make([]int, 0, hi-lo+1)
			for v := lo; v <= hi; v++ {
				coded = append(coded, EncodeLaplace(&enc, v, p.fs0, p.decay))
			}
			if enc.Error() != 0 {
				t.Fatalf("encoder error %d", enc.Error())
			}
			data := enc.Done()

			var dec Decoder
			dec.Init(data)
			for i, want := range coded {
				if got := DecodeLaplace(&dec, p.fs0, p.decay); got != want {
					t.Fatalf("value %d: decoded %d, want %d", lo+i, got, want)
				}
			}
		})
	}
}

// TestLaplaceClamping checks the coded value keeps its sign, never grows, and is
// exact for small magnitudes.
func TestLaplaceClamping(t *testing.T) {
	for _, p := range laplaceParams {
		t.Run(p.name, func(t *testing.T) {
			var enc Encoder
			enc.Init(make([]byte, 32768))
			for v := -2000; v <= 2000; v++ {
				got := EncodeLaplace(&enc, v, p.fs0, p.decay)
				switch {
				case v == 0 && got != 0:
					t.Fatalf("0 coded as %d", got)
				case v > 0 && (got <= 0 || got > v):
					t.Fatalf("%d coded as %d", v, got)
				case v < 0 && (got >= 0 || got < v):
					t.Fatalf("%d coded as %d", v, got)
				case v >= -3 && v <= 3 && got != v:
					t.Fatalf("small value %d coded as %d", v, got)
				}
			}
		})
	}
}

// TestLaplaceTailBoundary walks the magnitudes on both sides of the point where
// the geometric mass reaches the floor probability and round-trips each one in
// its own stream.
func TestLaplaceTailBoundary(t *testing.T) {
	const fs0, decay = 72 << 7, 127 << 6

	// Find the first magnitude coded in the uniform tail.
	fs := laplaceFreq1(fs0, decay)
	tailStart := 1
	for fs > 0 {
		fs = (2 * fs * decay) >> 15
		tailStart++
	}

	for mag := tailStart - 2; mag <= tailStart+2; mag++ {
		for _, v := range []int{mag, -mag} {
			var enc Encoder
			enc.Init(make([]byte, 64))
			coded := EncodeLaplace(&enc, v, fs0, decay)
			data := enc.Done()

			var dec Decoder
			dec.Init(data)
			if got := DecodeLaplace(&dec, fs0, decay); got != coded {
				t.Errorf("v=%d (tail starts at %d): decoded %d, coded %d", v, tailStart, got, coded)
			}
		}
	}
}

func TestLaplaceStartFreq(t *testing.T) {
	if got := LaplaceStartFreq(16384); got != 16392 {
		t.Fatalf("LaplaceStartFreq(16384) = %d, want 16392", got)
	}
}
