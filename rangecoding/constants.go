// Package rangecoding implements the range coder of RFC 6716 Section 4.1.
//
// Encoder and Decoder are bit-exact ports of libopus celt/entenc.c and
// celt/entdec.c. Every SILK symbol, and the Laplace-distributed values coded
// with EncodeLaplace, pass through them.
package rangecoding

// Constants from RFC 6716 Section 4.1 and libopus celt/mfrngcod.h.
const (
	EC_SYM_BITS   = 8                                // Bits output at a time
	EC_CODE_BITS  = 32                               // Total state register bits
	EC_SYM_MAX    = (1 << EC_SYM_BITS) - 1           // 255
	EC_CODE_TOP   = 1 << (EC_CODE_BITS - 1)          // 0x80000000
	EC_CODE_BOT   = EC_CODE_TOP >> EC_SYM_BITS       // 0x00800000
	EC_CODE_SHIFT = EC_CODE_BITS - EC_SYM_BITS - 1   // 23
	EC_CODE_EXTRA = (EC_CODE_BITS-2)%EC_SYM_BITS + 1 // 7
)

// tellFracCorrection is the table used by TellFrac to refine the bit count
// to 1/8 bit resolution.
var tellFracCorrection = [8]uint32{35733, 38967, 42495, 46340, 50535, 55109, 60097, 65535}
