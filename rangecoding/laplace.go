package rangecoding

// Laplace coder constants from libopus celt/laplace.c.
const (
	laplaceLogMinP = 0
	laplaceMinP    = 1 << laplaceLogMinP
	laplaceNMin    = 16
	laplaceFTBits  = 15
	laplaceFS      = 1 << laplaceFTBits
)

// laplaceFreq1 is the probability of +1 (and of -1) given the probability of 0.
// fs0 and decay are Q15.
func laplaceFreq1(fs0, decay int) int {
	ft := laplaceFS - laplaceMinP*(2*laplaceNMin) - fs0
	return (ft * (16384 - decay)) >> 15
}

// EncodeLaplace encodes val with a two-sided geometric distribution where the
// probability of 0 is fs0/32768 and each further magnitude decays by decay/32768.
// Magnitudes past the point where the geometric mass runs out are coded
// uniformly with the floor probability; values beyond the representable tail are
// clamped. The value actually coded is returned.
//
// This is libopus ec_laplace_encode.
func EncodeLaplace(e *Encoder, val int, fs0, decay uint32) int {
	fs := int(fs0)
	dec := int(decay)
	fl := 0
	if val != 0 {
		s := 0
		if val < 0 {
			s = -1
		}
		mag := (val + s) ^ s
		fl = fs
		fs = laplaceFreq1(fs, dec)
		i := 1
		for ; fs > 0 && i < mag; i++ {
			fs *= 2
			fl += fs + 2*laplaceMinP
			fs = (fs * dec) >> 15
		}
		if fs == 0 {
			// Tail: each magnitude gets laplaceMinP for each sign. The positive
			// side may own one more slot than the negative side.
			ndiMax := (laplaceFS - fl + laplaceMinP - 1) >> laplaceLogMinP
			ndiMax = (ndiMax - s) >> 1
			di := mag - i
			if di > ndiMax-1 {
				di = ndiMax - 1
			}
			fl += (2*di + 1 + s) * laplaceMinP
			fs = laplaceMinP
			if laplaceFS-fl < fs {
				fs = laplaceFS - fl
			}
			val = (i + di + s) ^ s
		} else {
			fs += laplaceMinP
			fl += fs &^ s
		}
	}
	e.EncodeBin(uint32(fl), uint32(fl+fs), laplaceFTBits)
	return val
}

// DecodeLaplace decodes a value coded by EncodeLaplace with the same fs0 and decay.
//
// This is libopus ec_laplace_decode.
func DecodeLaplace(d *Decoder, fs0, decay uint32) int {
	fs := int(fs0)
	dec := int(decay)
	val := 0
	fm := int(d.DecodeBin(laplaceFTBits))
	fl := 0
	if fm >= fs {
		val++
		fl = fs
		fs = laplaceFreq1(fs, dec) + laplaceMinP
		for fs > laplaceMinP && fm >= fl+2*fs {
			fs *= 2
			fl += fs
			fs = ((fs - 2*laplaceMinP) * dec) >> 15
			fs += laplaceMinP
			val++
		}
		if fs <= laplaceMinP {
			di := (fm - fl) >> (laplaceLogMinP + 1)
			val += di
			fl += 2 * di * laplaceMinP
		}
		if fm < fl+fs {
			val = -val
		} else {
			fl += fs
		}
	}
	fh := fl + fs
	if fh > laplaceFS {
		fh = laplaceFS
	}
	d.Update(uint32(fl), uint32(fh), laplaceFS)
	return val
}

// LaplaceStartFreq returns the fs0 that gives magnitude 0 the share left after
// reserving laplaceNMin floor slots, for a given decay. It is the fs0 used for
// intensity-style parameters and a convenient default for callers.
func LaplaceStartFreq(decay uint32) uint32 {
	return laplaceNMin + ((laplaceFS-laplaceNMin)*decay)>>15
}
