package silk

import "math"

const (
	ltpDamping   = 0.05
	ltpSmoothing = 0.1
)

// FindLTP fits a 5-tap long-term predictor per subframe to the LPC residual
// res, whose current frame starts at resStart. The unquantized taps are
// written to bQ14 and the per-subframe weighting matrices, normalized by the
// expected residual energy and the subframe gain, to wQ18. The return value
// is the LTP coding gain in dB, Q7.
func FindLTP(bQ14 []int16, wQ18 []int32, res []int16, resStart int, pitchL []int, gainsQ16 []int32, subfrLen, nbSubfr int) int32 {
	var (
		b     [maxNbSubfr][ltpOrder]float64
		w     [maxNbSubfr]float64
		wMat  [ltpOrder * ltpOrder]float64
		xCorr [ltpOrder]float64
	)
	lpcResNrg, ltpResNrg := 0.0, 1e-6
	r := resStart
	for k := 0; k < nbSubfr; k++ {
		// Column j of the lag matrix is res[n-lag+2-j].
		base := r - pitchL[k] + ltpOrder/2
		for i := 0; i < ltpOrder; i++ {
			for j := i; j < ltpOrder; j++ {
				c := float64(innerProd16(res[base-i:], res[base-j:], subfrLen))
				wMat[i*ltpOrder+j] = c
				wMat[j*ltpOrder+i] = c
			}
			xCorr[i] = float64(innerProd16(res[base-i:], res[r:], subfrLen))
		}
		rr := float64(energy16(res[r : r+subfrLen]))

		regu := (1 + rr + wMat[0] + wMat[ltpOrder*ltpOrder-1]) * ltpDamping / 3
		for i := 0; i < ltpOrder; i++ {
			wMat[i*ltpOrder+i] += regu
		}
		rr += regu

		b[k] = solveLDL(&wMat, xCorr)
		nrg := residualEnergyCovar(&b[k], &wMat, &xCorr, rr)

		g := float64(max(gainsQ16[k], 1)) / 65536
		wght := 1 / (g * g)
		lpcResNrg += rr * wght
		ltpResNrg += nrg * wght

		scale := wght / (nrg*wght + 0.01*float64(subfrLen))
		for i := range wMat {
			wQ18[k*ltpOrder*ltpOrder+i] = floatToQ(wMat[i]*scale, 18)
		}
		w[k] = wMat[(ltpOrder/2)*ltpOrder+ltpOrder/2] * scale
		r += subfrLen
	}

	// Pull the summed taps of each subframe towards their weighted mean.
	var d [maxNbSubfr]float64
	wSum := 1e-3
	m := 0.0
	for k := 0; k < nbSubfr; k++ {
		for i := 0; i < ltpOrder; i++ {
			d[k] += b[k][i]
		}
		wSum += w[k]
		m += d[k] * w[k]
	}
	m /= wSum
	for k := 0; k < nbSubfr; k++ {
		g := ltpSmoothing / (ltpSmoothing + w[k]) * (m - d[k])
		var delta [ltpOrder]float64
		sum := 0.0
		for i := 0; i < ltpOrder; i++ {
			delta[i] = max(b[k][i], 0.1)
			sum += delta[i]
		}
		g /= sum
		for i := 0; i < ltpOrder; i++ {
			bQ14[k*ltpOrder+i] = int16(silkSAT16(floatToQ(b[k][i]+delta[i]*g, 14)))
		}
	}

	if lpcResNrg <= 0 {
		return 0
	}
	return floatToQ(3*math.Log2(lpcResNrg/ltpResNrg), 7)
}

// floatToQ rounds x*2^q to the nearest int32, saturating.
func floatToQ(x float64, q int) int32 {
	v := math.Round(math.Ldexp(x, q))
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// solveLDL solves a x = rhs for the symmetric positive definite 5x5 matrix a
// through an LDL' factorization. Pivots that fall below a small fraction of
// the diagonal are floored there so ill-conditioned inputs still give a
// bounded solution.
func solveLDL(a *[ltpOrder * ltpOrder]float64, rhs [ltpOrder]float64) (x [ltpOrder]float64) {
	var (
		l [ltpOrder][ltpOrder]float64
		d [ltpOrder]float64
		v [ltpOrder]float64
	)
	floor := 1e-6 * (a[0] + a[ltpOrder*ltpOrder-1] + 1)
	for j := 0; j < ltpOrder; j++ {
		dj := a[j*ltpOrder+j]
		for i := 0; i < j; i++ {
			v[i] = l[j][i] * d[i]
			dj -= l[j][i] * v[i]
		}
		d[j] = max(dj, floor)
		l[j][j] = 1
		for i := j + 1; i < ltpOrder; i++ {
			s := a[i*ltpOrder+j]
			for k := 0; k < j; k++ {
				s -= l[i][k] * v[k]
			}
			l[i][j] = s / d[j]
		}
	}

	// L y = rhs, then L' x = y / D.
	var y [ltpOrder]float64
	for i := 0; i < ltpOrder; i++ {
		s := rhs[i]
		for k := 0; k < i; k++ {
			s -= l[i][k] * y[k]
		}
		y[i] = s
	}
	for i := ltpOrder - 1; i >= 0; i-- {
		s := y[i] / d[i]
		for k := i + 1; k < ltpOrder; k++ {
			s -= l[k][i] * x[k]
		}
		x[i] = s
	}
	return x
}

// residualEnergyCovar evaluates rr - 2 b'c + b'W b, the energy left after
// predicting with taps b. A non-positive result means the system was too
// ill-conditioned to trust and is reported as unit energy.
func residualEnergyCovar(b *[ltpOrder]float64, wMat *[ltpOrder * ltpOrder]float64, c *[ltpOrder]float64, rr float64) float64 {
	nrg := rr
	for i := 0; i < ltpOrder; i++ {
		nrg -= 2 * b[i] * c[i]
	}
	for i := 0; i < ltpOrder; i++ {
		s := 0.0
		for j := i + 1; j < ltpOrder; j++ {
			s += wMat[i*ltpOrder+j] * b[j]
		}
		nrg += b[i] * (2*s + wMat[i*ltpOrder+i]*b[i])
	}
	if nrg <= 0 {
		return 1
	}
	return nrg
}
