package silk

const (
	a2nlsfBinDivSteps   = 3
	a2nlsfMaxIterations = 16
)

// a2nlsfInit splits the Q16 predictor into its symmetric and antisymmetric
// polynomials, divides out the trivial roots and maps them to powers of cos.
func a2nlsfInit(aQ16 []int32, p, q []int32, dd int) {
	p[dd] = 1 << 16
	q[dd] = 1 << 16
	for k := 0; k < dd; k++ {
		p[k] = -aQ16[dd-k-1] - aQ16[dd+k]
		q[k] = -aQ16[dd-k-1] + aQ16[dd+k]
	}
	for k := dd; k > 0; k-- {
		p[k-1] -= p[k]
		q[k-1] += q[k]
	}
	a2nlsfTransPoly(p, dd)
	a2nlsfTransPoly(q, dd)
}

// a2nlsfTransPoly rewrites a polynomial in cos(n*f) as one in cos(f)^n.
func a2nlsfTransPoly(p []int32, dd int) {
	for k := 2; k <= dd; k++ {
		for n := dd; n > k; n-- {
			p[n-2] -= p[n]
		}
		p[k-2] -= p[k] << 1
	}
}

// a2nlsfEvalPoly evaluates p at x (Q12) with Horner's rule.
func a2nlsfEvalPoly(p []int32, x int32, dd int) int32 {
	xQ16 := x << 4
	y32 := p[dd]
	for n := dd - 1; n >= 0; n-- {
		y32 = silkSMLAWW(p[n], y32, xQ16)
	}
	return y32
}

// A2NLSF finds the line spectral frequencies (Q15) of the Q16 predictor aQ16
// by tracking sign changes of the two polynomials along the cosine table.
// When no full set of roots is found the predictor is bandwidth expanded and
// the search restarts; after a2nlsfMaxIterations the output is a flat
// spectrum. aQ16 may be modified.
func A2NLSF(nlsfQ15 []int16, aQ16 []int32) {
	d := len(aQ16)
	dd := d >> 1
	var pBuf, qBuf [maxOrderLPC/2 + 1]int32
	p, q := pBuf[:dd+1], qBuf[:dd+1]
	pq := [2][]int32{p, q}

	a2nlsfInit(aQ16, p, q, dd)

	poly := p
	xlo := silkLSFCosTabQ12[0]
	ylo := a2nlsfEvalPoly(poly, xlo, dd)
	rootIx := 0
	if ylo < 0 {
		// Set the first NLSF to zero and move on to the next root.
		nlsfQ15[0] = 0
		poly = q
		ylo = a2nlsfEvalPoly(poly, xlo, dd)
		rootIx = 1
	}

	k := 1
	iter := 0
	thr := int32(0)
	for {
		xhi := silkLSFCosTabQ12[k]
		yhi := a2nlsfEvalPoly(poly, xhi, dd)

		if (ylo <= 0 && yhi >= thr) || (ylo >= 0 && yhi <= -thr) {
			if yhi == 0 {
				// Without the threshold a root exactly on the grid
				// would be found twice.
				thr = 1
			} else {
				thr = 0
			}

			// Binary division.
			ffrac := int32(-256)
			for m := 0; m < a2nlsfBinDivSteps; m++ {
				xmid := silkRSHIFT_ROUND(xlo+xhi, 1)
				ymid := a2nlsfEvalPoly(poly, xmid, dd)
				if (ylo <= 0 && ymid >= 0) || (ylo >= 0 && ymid <= 0) {
					xhi = xmid
					yhi = ymid
				} else {
					xlo = xmid
					ylo = ymid
					ffrac += 128 >> m
				}
			}

			// Linear interpolation.
			if silkAbs32(ylo) < 65536 {
				den := ylo - yhi
				nom := ylo<<(8-a2nlsfBinDivSteps) + den>>1
				if den != 0 {
					ffrac += nom / den
				}
			} else if den := (ylo - yhi) >> (8 - a2nlsfBinDivSteps); den != 0 {
				ffrac += ylo / den
			}
			nlsfQ15[rootIx] = int16(silkMin32(int32(k)<<8+ffrac, 32767))

			rootIx++
			if rootIx >= d {
				return
			}
			poly = pq[rootIx&1]

			// Search for the next root from the previous grid point.
			xlo = silkLSFCosTabQ12[k-1]
			ylo = int32(1-(rootIx&2)) << 12
			continue
		}

		k++
		xlo = xhi
		ylo = yhi
		thr = 0

		if k > lsfCosTabSizeFix {
			iter++
			if iter > a2nlsfMaxIterations {
				nlsfQ15[0] = int16((1 << 15) / (d + 1))
				for n := 1; n < d; n++ {
					nlsfQ15[n] = nlsfQ15[n-1] + nlsfQ15[0]
				}
				return
			}

			BWExpander32(aQ16, 65536-int32(1)<<iter)
			a2nlsfInit(aQ16, p, q, dd)
			poly = p
			xlo = silkLSFCosTabQ12[0]
			ylo = a2nlsfEvalPoly(poly, xlo, dd)
			if ylo < 0 {
				nlsfQ15[0] = 0
				poly = q
				ylo = a2nlsfEvalPoly(poly, xlo, dd)
				rootIx = 1
			} else {
				rootIx = 0
			}
			k = 1
		}
	}
}
