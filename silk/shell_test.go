package silk

import (
	"math/rand"
	"testing"

	"github.com/thesyncim/gosilk/rangecoding"
)

func TestShellRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	blocks := [][]int32{
		{16, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{3, 0, 2, 0, 0, 1, 0, 0, 4, 0, 0, 0, 1, 0, 0, 5},
	}
	for range 200 {
		b := make([]int32, shellCodecFrameLength)
		left := rng.Intn(silkMaxPulses + 1)
		for left > 0 {
			b[rng.Intn(len(b))]++
			left--
		}
		blocks = append(blocks, b)
	}

	var enc rangecoding.Encoder
	enc.Init(make([]byte, 4096))
	sums := make([]int, len(blocks))
	for i, b := range blocks {
		for _, v := range b {
			sums[i] += int(v)
		}
		ShellEncode(&enc, b)
	}
	data := enc.Done()

	var rd rangecoding.Decoder
	rd.Init(data)
	got := make([]int16, shellCodecFrameLength)
	for i, b := range blocks {
		ShellDecode(&rd, got, sums[i])
		for k := range b {
			if int32(got[k]) != b[k] {
				t.Fatalf("block %d: got %v, want %v", i, got, b)
			}
		}
	}
}

func TestShellEmptyBlockIsFree(t *testing.T) {
	var enc rangecoding.Encoder
	enc.Init(make([]byte, 64))
	before := enc.Tell()
	ShellEncode(&enc, make([]int32, shellCodecFrameLength))
	if enc.Tell() != before {
		t.Fatalf("empty block used %d bits", enc.Tell()-before)
	}
}

