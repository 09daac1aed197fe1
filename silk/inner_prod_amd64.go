//go:build amd64 && !purego

package silk

import "golang.org/x/sys/cpu"

var useAVX2 = cpu.X86.HasAVX2

// innerProd16AVX2 sums a[i]*b[i] eight lanes at a time; len(b) must be at
// least len(a).
//
//go:noescape
func innerProd16AVX2(a, b []int16) int64

func innerProd16Kernel(a, b []int16) int64 {
	if useAVX2 {
		return innerProd16AVX2(a, b)
	}
	return innerProd16Generic(a, b)
}
