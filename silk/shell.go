package silk

import "github.com/thesyncim/gosilk/rangecoding"

// The shell coder sends the pulse magnitudes of a 16-sample block as a
// binary tree of partial sums. The block total is coded separately (see
// EncodePulses); each internal node then codes how many of its pulses fall in
// its left half, with a table chosen by the node size. Nodes with no pulses
// send nothing.

// shellTables is indexed by log2 of the node size minus one.
var shellTables = [4][]uint8{
	silkShellCodeTable0,
	silkShellCodeTable1,
	silkShellCodeTable2,
	silkShellCodeTable3,
}

// ShellEncode codes the magnitudes of one block whose total is already known
// to the decoder. Nodes are visited depth first, left before right, which is
// the symbol order of libopus silk_shell_encoder.
func ShellEncode(enc *rangecoding.Encoder, block []int32) {
	var total int32
	for _, v := range block[:shellCodecFrameLength] {
		total += v
	}
	shellEncodeNode(enc, block[:shellCodecFrameLength], total, log2ShellCodecFrameLength-1)
}

func shellEncodeNode(enc *rangecoding.Encoder, x []int32, total int32, level int) {
	if total == 0 || len(x) == 1 {
		return
	}
	half := len(x) >> 1
	var left int32
	for _, v := range x[:half] {
		left += v
	}
	table := shellTables[level]
	enc.EncodeICDF(int(left), table[silkShellCodeTableOffsets[total]:], 8)
	shellEncodeNode(enc, x[:half], left, level-1)
	shellEncodeNode(enc, x[half:], total-left, level-1)
}

// ShellDecode reconstructs the magnitudes of a block holding total pulses.
func ShellDecode(rd *rangecoding.Decoder, block []int16, total int) {
	shellDecodeNode(rd, block[:shellCodecFrameLength], total, log2ShellCodecFrameLength-1)
}

func shellDecodeNode(rd *rangecoding.Decoder, x []int16, total, level int) {
	if len(x) == 1 {
		x[0] = int16(total)
		return
	}
	half := len(x) >> 1
	left := 0
	if total > 0 {
		left = rd.DecodeICDF(shellTables[level][silkShellCodeTableOffsets[total]:], 8)
	}
	shellDecodeNode(rd, x[:half], left, level-1)
	shellDecodeNode(rd, x[half:], total-left, level-1)
}
