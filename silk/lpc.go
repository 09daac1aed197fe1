package silk

import "math/bits"

// Levinson-Durbin recursion in the CELT fixed-point style: coefficients are
// carried in Q28, reflection coefficients in Q31, and the division uses the
// 16-bit reciprocal refinement of frac_div32.

func celtILog2(x int32) int {
	return bits.Len32(uint32(x)) - 1
}

func celtVSHR32(a int32, shift int) int32 {
	if shift > 0 {
		return a >> shift
	}
	return a << -shift
}

func celtPSHR32(a int32, shift int) int32 {
	return (a + (int32(1) << shift >> 1)) >> shift
}

func celtMult16x16Q15(a, b int32) int32 {
	return (int32(int16(a)) * int32(int16(b))) >> 15
}

// celtMult16x32Q15 multiplies a Q15 16-bit value with a 32-bit value.
func celtMult16x32Q15(a, b int32) int32 {
	a16 := int32(int16(a))
	return ((a16 * (b >> 16)) << 1) + ((a16 * (b & 0xffff)) >> 15)
}

// celtMult32x32Q31 is the 16-bit decomposition of (a*b)>>31 used by the
// fixed-point build. It differs from the exact product in the last bit.
func celtMult32x32Q31(a, b int32) int32 {
	ah := int32(int16(a >> 16))
	bh := int32(int16(b >> 16))
	return ((ah * bh) << 1) + ((ah * (b & 0xffff)) >> 15) + ((bh * (a & 0xffff)) >> 15)
}

// celtRcp approximates 1/x for positive x, Q15 in, Q16 out.
func celtRcp(x int32) int32 {
	i := celtILog2(x)
	n := celtVSHR32(x, i-15) - 32768
	r := int32(int16(30840 + celtMult16x16Q15(-15420, n)))
	r = int32(int16(r - celtMult16x16Q15(r, int32(int16(celtMult16x16Q15(r, n)+r-32768)))))
	r = int32(int16(r - (1 + celtMult16x16Q15(r, int32(int16(celtMult16x16Q15(r, n)+r-32768))))))
	return celtVSHR32(r, i-16)
}

// celtFracDiv32 returns a/b in Q31 for b > 0, saturated to about +-1.
func celtFracDiv32(a, b int32) int32 {
	shift := celtILog2(b) - 29
	a = celtVSHR32(a, shift)
	b = celtVSHR32(b, shift)
	rcp := int32(int16(celtPSHR32(celtRcp(int32(int16(celtPSHR32(b, 16)))), 3)))
	result := celtMult16x32Q15(rcp, a)
	rem := celtPSHR32(a, 2) - celtMult32x32Q31(result, b)
	result += celtMult16x32Q15(rcp, rem) << 2
	switch {
	case result >= 536870912:
		return 2147483647
	case result <= -536870912:
		return -2147483647
	default:
		return result << 2
	}
}

// ComputeLPC derives order prediction coefficients in Q12 from the
// autocorrelation ac[0..order]. The recursion stops early once the residual
// energy is 30 dB below ac[0]; the remaining coefficients stay zero.
func ComputeLPC(ac []int32, order int) []int16 {
	lpcQ12 := make([]int16, order)
	computeLPCInto(lpcQ12, ac, order)
	return lpcQ12
}

func computeLPCInto(lpcQ12 []int16, ac []int32, order int) {
	var lpc [maxOrderLPC]int32
	if order > maxOrderLPC {
		order = maxOrderLPC
	}
	errQ := ac[0]
	if ac[0] > 0 {
		floor := ac[0] >> 10
		for i := 0; i < order; i++ {
			var rr int32
			for j := 0; j < i; j++ {
				rr += celtMult32x32Q31(lpc[j], ac[i-j])
			}
			rr += ac[i+1] >> 3
			r := -celtFracDiv32(rr<<3, errQ)
			lpc[i] = r >> 3

			for j := 0; j < (i+1)>>1; j++ {
				tmp1 := lpc[j]
				tmp2 := lpc[i-1-j]
				lpc[j] = tmp1 + celtMult32x32Q31(r, tmp2)
				lpc[i-1-j] = tmp2 + celtMult32x32Q31(r, tmp1)
			}

			errQ -= celtMult32x32Q31(celtMult32x32Q31(r, r), errQ)
			// 30 dB of prediction gain
			if errQ < floor || errQ <= 0 {
				break
			}
		}
	}
	for i := 0; i < order; i++ {
		lpcQ12[i] = int16(celtPSHR32(lpc[i], 16))
	}
}

// Autocorrelation computes corrCount lags of x scaled down so that ac[0]
// stays below 2^29, and returns the applied right shift (negative for a
// left shift), like silk_autocorr.
func Autocorrelation(ac []int32, x []int16, corrCount int) int {
	n := len(x)
	if corrCount > n {
		corrCount = n
	}
	corr64 := innerProd16(x, x, n) + 1
	shift := 35 - silkCLZ64(corr64)
	if shift <= 0 {
		ac[0] = int32(corr64) << -shift
		for i := 1; i < corrCount; i++ {
			ac[i] = int32(innerProd16(x, x[i:], n-i)) << -shift
		}
	} else {
		ac[0] = int32(corr64 >> shift)
		for i := 1; i < corrCount; i++ {
			ac[i] = int32(innerProd16(x, x[i:], n-i) >> shift)
		}
	}
	for i := corrCount; i < len(ac); i++ {
		ac[i] = 0
	}
	return shift
}

// applyLagWindow conditions an autocorrelation before the recursion: a white
// noise floor on ac[0] and a Gaussian lag window tapering the higher lags.
func applyLagWindow(ac []int32, order int, noiseFloorQ16 int32) {
	ac[0] += silkSMULWW(ac[0], noiseFloorQ16) + 1
	for i := 1; i <= order && i < len(ac); i++ {
		ac[i] = silkSMULWW(ac[i], lagWindowQ16[i-1])
	}
}

// lagWindowQ16[i] = exp(-0.5*(2*pi*60*(i+1)/16000)^2) for a 60 Hz bandwidth.
var lagWindowQ16 = [maxOrderLPC]int32{
	65518, 65463, 65372, 65246, 65083, 64884, 64651, 64382,
	64079, 63742, 63371, 62968, 62533, 62066, 61568, 61041,
	60484, 59899, 59287, 58649, 57985, 57297, 56586, 55852,
}
