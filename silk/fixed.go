package silk

import "math/bits"

// Fixed-point primitives of libopus silk/SigProc_FIX.h and silk/macros.h.
// Go's int32 arithmetic wraps like the *_ovflw macros; the saturating
// variants are spelled out.

func silkAbs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

func silkAbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func silkMin32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func silkMax32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// silkLimit32 clamps x into the range spanned by lim1 and lim2, in either order,
// like silk_LIMIT.
func silkLimit32(x, lim1, lim2 int32) int32 {
	if lim1 > lim2 {
		lim1, lim2 = lim2, lim1
	}
	if x < lim1 {
		return lim1
	}
	if x > lim2 {
		return lim2
	}
	return x
}

func silkLimitInt(x, lim1, lim2 int) int {
	if lim1 > lim2 {
		lim1, lim2 = lim2, lim1
	}
	if x < lim1 {
		return lim1
	}
	if x > lim2 {
		return lim2
	}
	return x
}

func silkRSHIFT_ROUND(x int32, shift int) int32 {
	if shift == 1 {
		return (x >> 1) + (x & 1)
	}
	return ((x >> (shift - 1)) + 1) >> 1
}

func silkRSHIFT_ROUND64(x int64, shift int) int64 {
	if shift == 1 {
		return (x >> 1) + (x & 1)
	}
	return ((x >> (shift - 1)) + 1) >> 1
}

func silkADD_RSHIFT32(a, b int32, shift int) int32 {
	return a + (b >> shift)
}

func silkADD_LSHIFT32(a, b int32, shift int) int32 {
	return a + (b << shift)
}

// silkSMULWB is (a * int16(b)) >> 16.
func silkSMULWB(a, b int32) int32 {
	return int32((int64(a) * int64(int16(b))) >> 16)
}

func silkSMLAWB(a, b, c int32) int32 {
	return a + silkSMULWB(b, c)
}

// silkSMULWT is (a * (b >> 16)) >> 16.
func silkSMULWT(a, b int32) int32 {
	return int32((int64(a) * int64(b>>16)) >> 16)
}

func silkSMLAWT(a, b, c int32) int32 {
	return a + silkSMULWT(b, c)
}

func silkSMULBB(a, b int32) int32 {
	return int32(int16(a)) * int32(int16(b))
}

func silkSMLABB(a, b, c int32) int32 {
	return a + int32(int16(b))*int32(int16(c))
}

func silkSMULWW(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 16)
}

func silkSMLAWW(a, b, c int32) int32 {
	return a + silkSMULWW(b, c)
}

func silkSMULL(a, b int32) int64 {
	return int64(a) * int64(b)
}

// silkSMMUL is the top 32 bits of the 64-bit product.
func silkSMMUL(a, b int32) int32 {
	return int32(silkSMULL(a, b) >> 32)
}

func silkMUL32FracQ(a, b int32, q int) int32 {
	return int32(silkRSHIFT_ROUND64(silkSMULL(a, b), q))
}

func silkSAT16(x int32) int32 {
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return x
}

func silkSAT32(x int64) int32 {
	if x > int64(silkInt32Max) {
		return silkInt32Max
	}
	if x < int64(silkInt32Min) {
		return silkInt32Min
	}
	return int32(x)
}

func silkLShiftSAT32(x int32, shift int) int32 {
	if shift >= 31 {
		shift = 31
	}
	return silkLimit32(x, silkInt32Min>>shift, silkInt32Max>>shift) << shift
}

func silkAddSat32(a, b int32) int32 {
	return silkSAT32(int64(a) + int64(b))
}

func silkSubSat32(a, b int32) int32 {
	return silkSAT32(int64(a) - int64(b))
}

// silkAddPosSat32 adds two non-negative values, saturating at int32 max.
func silkAddPosSat32(a, b int32) int32 {
	sum := uint32(a) + uint32(b)
	if sum&0x80000000 != 0 {
		return silkInt32Max
	}
	return int32(sum)
}

func silkCLZ32(x int32) int {
	return bits.LeadingZeros32(uint32(x))
}

func silkCLZ64(x int64) int {
	return bits.LeadingZeros64(uint64(x))
}

// silkCLZFrac returns the number of leading zeros of x and the 7 bits that
// follow the leading one.
func silkCLZFrac(x int32) (lz int, fracQ7 int32) {
	lz = silkCLZ32(x)
	fracQ7 = int32(bits.RotateLeft32(uint32(x), lz-24) & 0x7f)
	return lz, fracQ7
}

// silkSqrtApprox approximates sqrt(x) within 2.5% for outputs above 120.
func silkSqrtApprox(x int32) int32 {
	if x <= 0 {
		return 0
	}
	lz, fracQ7 := silkCLZFrac(x)
	var y int32 = 46214 // sqrt(2) * 32768
	if lz&1 != 0 {
		y = 32768
	}
	y >>= lz >> 1
	return silkSMLAWB(y, y, silkSMULBB(213, fracQ7))
}

// silkHeadroom is CLZ(|x|)-1, floored at zero for the most negative value.
func silkHeadroom(x int32) int {
	h := silkCLZ32(silkAbs32(x)) - 1
	if h < 0 {
		return 0
	}
	return h
}

// silkDiv32VarQ approximates (a32 << qRes) / b32 with the two-step reciprocal
// of silk_DIV32_varQ. b32 must be non-zero.
func silkDiv32VarQ(a32, b32 int32, qRes int) int32 {
	aHeadrm := silkHeadroom(a32)
	aNrm := a32 << aHeadrm
	bHeadrm := silkHeadroom(b32)
	bNrm := b32 << bHeadrm

	// Inverse of b32 with 14 bits of precision, Q(29 + 16 - bHeadrm).
	bInv := (silkInt32Max >> 2) / (bNrm >> 16)

	result := silkSMULWB(aNrm, bInv)
	aNrm -= silkSMMUL(bNrm, result) << 3
	result = silkSMLAWB(result, aNrm, bInv)

	lshift := 29 + aHeadrm - bHeadrm - qRes
	switch {
	case lshift < 0:
		return silkLShiftSAT32(result, -lshift)
	case lshift < 32:
		return result >> lshift
	default:
		return 0
	}
}

// silkInverse32VarQ approximates (1 << qRes) / b32 like silk_INVERSE32_varQ.
func silkInverse32VarQ(b32 int32, qRes int) int32 {
	bHeadrm := silkHeadroom(b32)
	bNrm := b32 << bHeadrm

	bInv := (silkInt32Max >> 2) / int32(int16(bNrm>>16))
	result := bInv << 16
	errQ32 := ((int32(1) << 29) - silkSMULWB(bNrm, bInv)) << 3
	result = silkSMLAWW(result, errQ32, bInv)

	lshift := 61 - bHeadrm - qRes
	switch {
	case lshift <= 0:
		return silkLShiftSAT32(result, -lshift)
	case lshift < 32:
		return result >> lshift
	default:
		return 0
	}
}

// silkLin2Log approximates 128*log2(x).
func silkLin2Log(inLin int32) int32 {
	lz, fracQ7 := silkCLZFrac(inLin)
	return silkADD_LSHIFT32(silkSMLAWB(fracQ7, fracQ7*(128-fracQ7), 179), int32(31-lz), 7)
}

// silkLog2Lin approximates 2^(inLogQ7/128), the inverse of silkLin2Log.
func silkLog2Lin(inLogQ7 int32) int32 {
	if inLogQ7 < 0 {
		return 0
	}
	if inLogQ7 >= 3967 {
		return silkInt32Max
	}
	out := int32(1) << (inLogQ7 >> 7)
	fracQ7 := inLogQ7 & 0x7f
	interp := silkSMLAWB(fracQ7, silkSMULBB(fracQ7, 128-fracQ7), -174)
	if inLogQ7 < 2048 {
		return silkADD_RSHIFT32(out, out*interp, 7)
	}
	return out + (out>>7)*interp
}

// silkRand is the linear congruential generator of silk_RAND.
func silkRand(seed int32) int32 {
	return 907633515 + seed*196314165
}

// silkFixConst converts a real constant to Q format with rounding, like SILK_FIX_CONST.
func silkFixConst(x float64, q int) int32 {
	return int32(x*float64(int64(1)<<q) + 0.5)
}

// silkInterpolate sets xi = x0 + (x1 - x0) * ifactQ2 / 4.
func silkInterpolate(xi, x0, x1 []int16, ifactQ2 int, d int) {
	for i := 0; i < d; i++ {
		xi[i] = int16(int32(x0[i]) + ((int32(x1[i]) - int32(x0[i])) * int32(ifactQ2) >> 2))
	}
}
