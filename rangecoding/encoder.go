package rangecoding

import "math/bits"

// Encoder is the range encoder of RFC 6716 Section 4.1.
// It is a bit-exact port of libopus celt/entenc.c restricted to the
// range-coded (front of buffer) symbols SILK uses.
type Encoder struct {
	buf        []byte // Output buffer (pre-allocated)
	storage    uint32 // Buffer capacity
	offs       uint32 // Current write offset
	nbitsTotal int    // Total bits written (for tell functions)
	rng        uint32 // Range size
	val        uint32 // Low end of range
	rem        int    // Buffered byte for carry propagation (-1 = none)
	ext        uint32 // Count of pending 0xFF bytes
	err        int    // Error flag (non-zero on failure)

	endOffs   uint32 // Bytes written at the end of the buffer
	endWindow uint32 // Raw bits not yet flushed to the end
	nendBits  int    // Number of valid bits in endWindow
}

// Init initializes the encoder with the given output buffer.
// The buffer must be pre-allocated to the maximum expected output size.
func (e *Encoder) Init(buf []byte) {
	e.buf = buf
	e.storage = uint32(len(buf))
	e.offs = 0
	e.nbitsTotal = EC_CODE_BITS + 1
	e.rng = EC_CODE_TOP
	e.val = 0
	e.rem = -1
	e.ext = 0
	e.err = 0
	e.endOffs = 0
	e.endWindow = 0
	e.nendBits = 0
}

// carryOut is libopus ec_enc_carry_out. A run of 0xFF bytes stays pending in
// ext until the next non-0xFF symbol tells whether a carry ripples through.
func (e *Encoder) carryOut(c int) {
	if c == EC_SYM_MAX {
		e.ext++
		return
	}
	carry := c >> EC_SYM_BITS
	if e.rem >= 0 {
		e.writeByte(byte(e.rem + carry))
	}
	if e.ext > 0 {
		sym := byte((EC_SYM_MAX + carry) & EC_SYM_MAX)
		for ; e.ext > 0; e.ext-- {
			e.writeByte(sym)
		}
	}
	e.rem = c & EC_SYM_MAX
}

func (e *Encoder) normalize() {
	for e.rng <= EC_CODE_BOT {
		e.carryOut(int(e.val >> EC_CODE_SHIFT))
		e.val = (e.val << EC_SYM_BITS) & (EC_CODE_TOP - 1)
		e.rng <<= EC_SYM_BITS
		e.nbitsTotal += EC_SYM_BITS
	}
}

func (e *Encoder) writeByte(b byte) {
	if e.offs+e.endOffs >= e.storage {
		e.err = -1
		return
	}
	e.buf[e.offs] = b
	e.offs++
}

// Encode encodes a symbol with cumulative frequencies [fl, fh) out of ft.
// This mirrors libopus ec_encode.
func (e *Encoder) Encode(fl, fh, ft uint32) {
	r := e.rng / ft
	if fl > 0 {
		e.val += e.rng - r*(ft-fl)
		e.rng = r * (fh - fl)
	} else {
		e.rng -= r * (ft - fh)
	}
	e.normalize()
}

// EncodeBin encodes a symbol with power-of-two total frequency (1<<bits).
// This mirrors libopus ec_encode_bin.
func (e *Encoder) EncodeBin(fl, fh uint32, bits uint) {
	r := e.rng >> bits
	if fl > 0 {
		e.val += e.rng - r*((uint32(1)<<bits)-fl)
		e.rng = r * (fh - fl)
	} else {
		e.rng -= r * ((uint32(1) << bits) - fh)
	}
	e.normalize()
}

// EncodeICDF encodes symbol s using an inverse CDF table.
// icdf holds decreasing values ending in 0; ftb is the table precision
// (total = 1 << ftb). Out-of-range symbols are clamped to the table.
//
// This is libopus ec_enc_icdf.
func (e *Encoder) EncodeICDF(s int, icdf []uint8, ftb uint) {
	if s < 0 {
		s = 0
	} else if s > len(icdf)-1 {
		s = len(icdf) - 1
	}
	r := e.rng >> ftb
	if s > 0 {
		e.val += e.rng - r*uint32(icdf[s-1])
		e.rng = r * uint32(icdf[s-1]-icdf[s])
	} else {
		e.rng -= r * uint32(icdf[s])
	}
	e.normalize()
}

// EncodeBit encodes a single bit where P(1) = 1/2^logp.
// This is libopus ec_enc_bit_logp.
func (e *Encoder) EncodeBit(val int, logp uint) {
	r := e.rng
	s := r >> logp
	if val != 0 {
		e.val += r - s
		e.rng = s
	} else {
		e.rng = r - s
	}
	e.normalize()
}

// PatchInitialBits overwrites the first nbits of the stream. SILK codes the
// VAD and LBRR flags of a packet up front with placeholder values and patches
// them once every frame has been analyzed.
//
// This mirrors libopus ec_enc_patch_initial_bits.
func (e *Encoder) PatchInitialBits(val uint32, nbits uint) {
	if nbits == 0 || nbits > EC_SYM_BITS {
		e.err = -1
		return
	}
	shift := EC_SYM_BITS - nbits
	mask := (uint32(1)<<nbits - 1) << shift
	switch {
	case e.offs > 0:
		e.buf[0] = (e.buf[0] &^ byte(mask)) | byte(val<<shift)
	case e.rem >= 0:
		e.rem = int((uint32(e.rem) &^ mask) | (val << shift))
	case e.rng <= (EC_CODE_TOP >> nbits):
		e.val = (e.val &^ (mask << EC_CODE_SHIFT)) | (val << (EC_CODE_SHIFT + shift))
	default:
		e.err = -1
	}
}

// Done flushes the encoder and returns the encoded bytes.
// Without raw bits the result is the range-coded prefix only; once raw bits
// were written it spans the whole buffer, with the raw bits packed at its
// end. The encoder must be re-initialized before reuse.
//
// This follows libopus ec_enc_done.
func (e *Encoder) Done() []byte {
	l := EC_CODE_BITS - ilog(e.rng)
	msk := uint32(EC_CODE_TOP-1) >> uint(l)
	end := (e.val + msk) &^ msk
	if (end | msk) >= e.val+e.rng {
		l++
		msk >>= 1
		end = (e.val + msk) &^ msk
	}
	for l > 0 {
		e.carryOut(int(end >> EC_CODE_SHIFT))
		end = (end << EC_SYM_BITS) & (EC_CODE_TOP - 1)
		l -= EC_SYM_BITS
	}
	if e.rem >= 0 || e.ext > 0 {
		e.carryOut(0)
	}
	if e.endOffs == 0 && e.nendBits == 0 {
		return e.buf[:e.offs]
	}
	window := e.endWindow
	used := e.nendBits
	for used >= EC_SYM_BITS {
		e.writeByteAtEnd(byte(window))
		window >>= EC_SYM_BITS
		used -= EC_SYM_BITS
	}
	if e.err == 0 {
		clear(e.buf[e.offs : e.storage-e.endOffs])
		if used > 0 {
			if e.endOffs >= e.storage {
				e.err = -1
			} else {
				l = -l
				if e.offs+e.endOffs >= e.storage && l < used {
					window &= (1 << uint(l)) - 1
					e.err = -1
				}
				e.buf[e.storage-e.endOffs-1] |= byte(window)
			}
		}
	}
	return e.buf[:e.storage]
}

// Tell returns the number of bits written so far, rounded up.
func (e *Encoder) Tell() int {
	return e.nbitsTotal - ilog(e.rng)
}

// TellFrac returns the number of bits written in 1/8 bit units.
func (e *Encoder) TellFrac() int {
	return tellFrac(e.nbitsTotal, e.rng)
}

// Error returns the encoder error flag. Non-zero means the output buffer
// overflowed and the stream is truncated.
func (e *Encoder) Error() int {
	return e.err
}

// EncoderState is a snapshot of an Encoder taken with SaveStateInto.
type EncoderState struct {
	offs       uint32
	nbitsTotal int
	rng        uint32
	val        uint32
	rem        int
	ext        uint32
	err        int
	endOffs    uint32
	endWindow  uint32
	nendBits   int
	bufFront   []byte
	bufBack    []byte
}

// SaveStateInto captures the encoder state, including the bytes written so far.
// The SILK rate loop uses it to re-run a frame with different gains.
func (e *Encoder) SaveStateInto(state *EncoderState) {
	state.offs = e.offs
	state.nbitsTotal = e.nbitsTotal
	state.rng = e.rng
	state.val = e.val
	state.rem = e.rem
	state.ext = e.ext
	state.err = e.err
	state.endOffs = e.endOffs
	state.endWindow = e.endWindow
	state.nendBits = e.nendBits
	state.bufFront = append(state.bufFront[:0], e.buf[:e.offs]...)
	state.bufBack = append(state.bufBack[:0], e.buf[e.storage-e.endOffs:]...)
}

// RestoreState rewinds the encoder to a state captured by SaveStateInto.
func (e *Encoder) RestoreState(state *EncoderState) {
	e.offs = state.offs
	e.nbitsTotal = state.nbitsTotal
	e.rng = state.rng
	e.val = state.val
	e.rem = state.rem
	e.ext = state.ext
	e.err = state.err
	e.endOffs = state.endOffs
	e.endWindow = state.endWindow
	e.nendBits = state.nendBits
	copy(e.buf[:state.offs], state.bufFront)
	copy(e.buf[e.storage-state.endOffs:], state.bufBack)
}

func tellFrac(nbitsTotal int, rng uint32) int {
	nbits := nbitsTotal << 3
	l := ilog(rng)
	r := rng >> uint(l-16)
	b := int((r >> 12) - 8)
	if r > tellFracCorrection[b] {
		b++
	}
	return nbits - ((l << 3) + b)
}

// ilog is the position of the highest set bit plus one, 0 for 0.
func ilog(x uint32) int {
	return bits.Len32(x)
}
