package rangecoding

const (
	ecWindowSize = 32
	ecUintBits   = 8
)

func (e *Encoder) writeByteAtEnd(b byte) {
	if e.offs+e.endOffs >= e.storage {
		e.err = -1
		return
	}
	e.endOffs++
	e.buf[e.storage-e.endOffs] = b
}

// EncodeRawBits writes the low bits of fl verbatim at the end of the buffer.
// This is libopus ec_enc_bits.
func (e *Encoder) EncodeRawBits(fl uint32, bits uint) {
	window := e.endWindow
	used := e.nendBits
	if used+int(bits) > ecWindowSize {
		for used >= EC_SYM_BITS {
			e.writeByteAtEnd(byte(window))
			window >>= EC_SYM_BITS
			used -= EC_SYM_BITS
		}
	}
	window |= fl << uint(used)
	used += int(bits)
	e.endWindow = window
	e.nendBits = used
	e.nbitsTotal += int(bits)
}

// EncodeUniform encodes fl uniformly distributed in [0, ft). Values that need
// more than eight bits split into a range-coded head and raw low bits.
// This is libopus ec_enc_uint.
func (e *Encoder) EncodeUniform(fl, ft uint32) {
	if ft < 2 {
		return
	}
	if fl >= ft {
		fl = ft - 1
	}
	ftm := ft - 1
	ftb := ilog(ftm)
	if ftb > ecUintBits {
		ftb -= ecUintBits
		ft1 := (ftm >> uint(ftb)) + 1
		e.Encode(fl>>uint(ftb), (fl>>uint(ftb))+1, ft1)
		e.EncodeRawBits(fl&((1<<uint(ftb))-1), uint(ftb))
		return
	}
	e.Encode(fl, fl+1, ft)
}

func (d *Decoder) readByteFromEnd() byte {
	if d.endOffs < d.storage {
		d.endOffs++
		return d.buf[d.storage-d.endOffs]
	}
	return 0
}

// Decode returns the cumulative frequency of the next symbol out of ft.
// The caller must follow with Update.
// This is libopus ec_decode.
func (d *Decoder) Decode(ft uint32) uint32 {
	d.ext = d.rng / ft
	s := d.val / d.ext
	if s+1 > ft {
		s = ft - 1
	}
	return ft - (s + 1)
}

// DecodeRawBits reads bits written with EncodeRawBits.
// This is libopus ec_dec_bits.
func (d *Decoder) DecodeRawBits(bits uint) uint32 {
	window := d.endWindow
	available := d.nendBits
	if available < int(bits) {
		for {
			window |= uint32(d.readByteFromEnd()) << uint(available)
			available += EC_SYM_BITS
			if available > ecWindowSize-EC_SYM_BITS {
				break
			}
		}
	}
	ret := window & ((1 << bits) - 1)
	window >>= bits
	available -= int(bits)
	d.endWindow = window
	d.nendBits = available
	d.nbitsTotal += int(bits)
	return ret
}

// DecodeUniform decodes a value coded with EncodeUniform. A corrupt stream
// that yields a value of ft or more returns ft-1 and sets the error flag.
// This is libopus ec_dec_uint.
func (d *Decoder) DecodeUniform(ft uint32) uint32 {
	if ft < 2 {
		return 0
	}
	ftm := ft - 1
	ftb := ilog(ftm)
	if ftb > ecUintBits {
		ftb -= ecUintBits
		ft1 := (ftm >> uint(ftb)) + 1
		s := d.Decode(ft1)
		d.Update(s, s+1, ft1)
		t := s<<uint(ftb) | d.DecodeRawBits(uint(ftb))
		if t <= ftm {
			return t
		}
		d.err = 1
		return ftm
	}
	s := d.Decode(ft)
	d.Update(s, s+1, ft)
	return s
}

// Error reports whether the decoder saw an out-of-range uniform value.
func (d *Decoder) Error() int {
	return d.err
}
