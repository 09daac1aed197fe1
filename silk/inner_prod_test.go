package silk

import (
	"math/rand"
	"testing"
)

func refInnerProd16(a, b []int16) int64 {
	var sum int64
	for i := range a {
		sum += int64(a[i]) * int64(b[i])
	}
	return sum
}

// innerProdKernels lists the kernels this build can run; architecture test
// files append to it.
var innerProdKernels = []struct {
	name string
	fn   func(a, b []int16) int64
}{
	{"generic", innerProd16Generic},
	{"dispatch", innerProd16Kernel},
}

func randInt16s(rng *rand.Rand, n int) []int16 {
	x := make([]int16, n)
	for i := range x {
		x[i] = int16(rng.Intn(65536) - 32768)
	}
	return x
}

func TestInnerProdKernelsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, k := range innerProdKernels {
		t.Run(k.name, func(t *testing.T) {
			// Every length up to a few vector widths covers each tail.
			for n := 0; n <= 40; n++ {
				a, b := randInt16s(rng, n), randInt16s(rng, n+3)
				if got, want := k.fn(a, b), refInnerProd16(a, b[:n]); got != want {
					t.Fatalf("n=%d: got %d want %d", n, got, want)
				}
			}
			for trial := 0; trial < 500; trial++ {
				n := rng.Intn(330)
				a, b := randInt16s(rng, n), randInt16s(rng, n)
				if got, want := k.fn(a, b), refInnerProd16(a, b); got != want {
					t.Fatalf("trial %d n=%d: got %d want %d", trial, n, got, want)
				}
			}
		})
	}
}

func TestInnerProdKernelsExtremes(t *testing.T) {
	for _, k := range innerProdKernels {
		for _, n := range []int{7, 8, 64, 333} {
			lo := make([]int16, n)
			hi := make([]int16, n)
			for i := range lo {
				lo[i], hi[i] = -32768, 32767
			}
			if got, want := k.fn(lo, lo), int64(n)*32768*32768; got != want {
				t.Errorf("%s n=%d: min*min = %d want %d", k.name, n, got, want)
			}
			if got, want := k.fn(lo, hi), -int64(n)*32768*32767; got != want {
				t.Errorf("%s n=%d: min*max = %d want %d", k.name, n, got, want)
			}
		}
	}
}

func TestInnerProdExtremes(t *testing.T) {
	a := make([]int16, 64)
	for i := range a {
		a[i] = -32768
	}
	want := int64(64) * 32768 * 32768
	if got := innerProd16(a, a, len(a)); got != want {
		t.Fatalf("got %d want %d", got, want)
	}
	if got := innerProd16(nil, nil, 0); got != 0 {
		t.Fatalf("empty: got %d", got)
	}
}

func BenchmarkInnerProd16(b *testing.B) {
	x := make([]int16, 320)
	for i := range x {
		x[i] = int16(i*37 - 5000)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = innerProd16(x, x[1:], 300)
	}
}
