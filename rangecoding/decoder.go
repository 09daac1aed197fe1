package rangecoding

// Decoder is the range decoder of RFC 6716 Section 4.1.
// It is a bit-exact port of libopus celt/entdec.c.
//
// A Decoder never fails: reads past the end of the buffer return zero bytes,
// so a truncated or corrupted packet decodes to some symbol sequence.
type Decoder struct {
	buf        []byte // Input buffer
	storage    uint32 // Buffer size
	offs       uint32 // Current read offset
	nbitsTotal int    // Total bits read (for tell functions)
	rng        uint32 // Range size (> EC_CODE_BOT after normalize)
	val        uint32 // Top of the current range minus the code point
	ext        uint32 // Scale saved by DecodeBin for Update
	rem        int    // Buffered partial byte

	endOffs   uint32 // Raw-bit bytes consumed from the end
	endWindow uint32 // Raw bits read but not yet returned
	nendBits  int    // Number of valid bits in endWindow
	err       int    // Set when a uniform value decoded out of range
}

// Init initializes the decoder with the given byte buffer.
// This follows libopus ec_dec_init.
func (d *Decoder) Init(buf []byte) {
	d.buf = buf
	d.storage = uint32(len(buf))
	d.offs = 0
	d.rng = 1 << EC_CODE_EXTRA
	d.rem = int(d.readByte())
	d.val = d.rng - 1 - uint32(d.rem>>(EC_SYM_BITS-EC_CODE_EXTRA))
	d.nbitsTotal = EC_CODE_BITS + 1 -
		((EC_CODE_BITS-EC_CODE_EXTRA)/EC_SYM_BITS)*EC_SYM_BITS
	d.ext = 0
	d.endOffs = 0
	d.endWindow = 0
	d.nendBits = 0
	d.err = 0
	d.normalize()
}

func (d *Decoder) readByte() byte {
	if d.offs < d.storage {
		b := d.buf[d.offs]
		d.offs++
		return b
	}
	return 0
}

func (d *Decoder) normalize() {
	for d.rng <= EC_CODE_BOT {
		d.nbitsTotal += EC_SYM_BITS
		d.rng <<= EC_SYM_BITS
		sym := d.rem
		d.rem = int(d.readByte())
		sym = (sym<<EC_SYM_BITS | d.rem) >> (EC_SYM_BITS - EC_CODE_EXTRA)
		d.val = ((d.val << EC_SYM_BITS) + uint32(EC_SYM_MAX&^sym)) & (EC_CODE_TOP - 1)
	}
}

// DecodeICDF decodes a symbol using an inverse CDF table of precision ftb.
// The table ends in 0, so the search always terminates inside the table.
//
// This is libopus ec_dec_icdf.
func (d *Decoder) DecodeICDF(icdf []uint8, ftb uint) int {
	s := d.rng
	dval := d.val
	r := s >> ftb
	ret := -1
	for {
		t := s
		ret++
		s = r * uint32(icdf[ret])
		if dval >= s {
			d.val = dval - s
			d.rng = t - s
			d.normalize()
			return ret
		}
	}
}

// DecodeBit decodes a single bit where P(1) = 1/2^logp.
// This is libopus ec_dec_bit_logp.
func (d *Decoder) DecodeBit(logp uint) int {
	r := d.rng
	dval := d.val
	s := r >> logp
	if dval < s {
		d.rng = s
		d.normalize()
		return 1
	}
	d.val = dval - s
	d.rng = r - s
	d.normalize()
	return 0
}

// DecodeBin returns the cumulative frequency of the next symbol when the
// total frequency is 1<<bits. The caller must follow with Update.
// This mirrors libopus ec_decode_bin.
func (d *Decoder) DecodeBin(bits uint) uint32 {
	ft := uint32(1) << bits
	d.ext = d.rng >> bits
	s := d.val / d.ext
	if s+1 > ft {
		s = ft - 1
	}
	return ft - (s + 1)
}

// Update consumes the symbol with cumulative frequencies [fl, fh) of ft.
// This mirrors libopus ec_dec_update.
func (d *Decoder) Update(fl, fh, ft uint32) {
	s := d.ext * (ft - fh)
	d.val -= s
	if fl > 0 {
		d.rng = d.ext * (fh - fl)
	} else {
		d.rng -= s
	}
	d.normalize()
}

// Tell returns the number of bits consumed so far, rounded up.
func (d *Decoder) Tell() int {
	return d.nbitsTotal - ilog(d.rng)
}

// TellFrac returns the number of bits consumed in 1/8 bit units.
func (d *Decoder) TellFrac() int {
	return tellFrac(d.nbitsTotal, d.rng)
}

// State returns the internal (rng, val) pair.
func (d *Decoder) State() (uint32, uint32) {
	return d.rng, d.val
}
