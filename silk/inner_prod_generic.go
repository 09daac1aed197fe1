//go:build !amd64 || purego

package silk

func innerProd16Kernel(a, b []int16) int64 {
	return innerProd16Generic(a, b)
}
