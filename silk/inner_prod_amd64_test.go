//go:build amd64 && !purego

package silk

func init() {
	if useAVX2 {
		innerProdKernels = append(innerProdKernels, struct {
			name string
			fn   func(a, b []int16) int64
		}{"avx2", innerProd16AVX2})
	}
}
