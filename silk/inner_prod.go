package silk

// innerProd16 returns the 64-bit sum of a[i]*b[i] for i < n, like
// silk_inner_prod16_aligned_64.
func innerProd16(a, b []int16, n int) int64 {
	if n <= 0 {
		return 0
	}
	return innerProd16Kernel(a[:n:n], b[:n:n])
}

// innerProdAligned returns the wrapping 32-bit sum of a[i]*b[i], like
// silk_inner_prod_aligned.
func innerProdAligned(a, b []int16, n int) int32 {
	return int32(innerProd16(a, b, n))
}

// innerProdAlignedScale sums (a[i]*b[i]) >> scale in 32 bits.
func innerProdAlignedScale(a, b []int16, scale, n int) int32 {
	if n <= 0 {
		return 0
	}
	a = a[:n:n]
	b = b[:n:n]
	var sum int32
	for i := range a {
		sum += (int32(a[i]) * int32(b[i])) >> scale
	}
	return sum
}

// innerProd16Generic is the portable kernel. Its sum is exact for any
// int16 input, so every architecture kernel must match it.
func innerProd16Generic(a, b []int16) int64 {
	b = b[:len(a)]
	var s0, s1, s2, s3 int64
	i := 0
	for ; i+3 < len(a); i += 4 {
		s0 += int64(int32(a[i]) * int32(b[i]))
		s1 += int64(int32(a[i+1]) * int32(b[i+1]))
		s2 += int64(int32(a[i+2]) * int32(b[i+2]))
		s3 += int64(int32(a[i+3]) * int32(b[i+3]))
	}
	for ; i < len(a); i++ {
		s0 += int64(int32(a[i]) * int32(b[i]))
	}
	return s0 + s1 + s2 + s3
}

// energy16 returns the 64-bit energy of x.
func energy16(x []int16) int64 {
	return innerProd16(x, x, len(x))
}
