package gosilk

import (
	"fmt"
	"testing"
)

func BenchmarkEncodeFrame(b *testing.B) {
	for _, rate := range []int{8000, 16000} {
		for _, ch := range []int{1, 2} {
			b.Run(fmt.Sprintf("%dHz_%dch", rate, ch), func(b *testing.B) {
				enc, err := NewEncoder(rate, ch)
				if err != nil {
					b.Fatal(err)
				}
				pcm := speechLike(enc.FrameSize(), rate, 150, 6000, 1)
				if ch == 2 {
					pcm = toStereo(pcm)
				}
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := enc.EncodeFrame(pcm); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	for _, rate := range []int{8000, 16000} {
		for _, ch := range []int{1, 2} {
			b.Run(fmt.Sprintf("%dHz_%dch", rate, ch), func(b *testing.B) {
				enc, _ := NewEncoder(rate, ch)
				dec, err := NewDecoder(rate, ch)
				if err != nil {
					b.Fatal(err)
				}
				n := enc.FrameSize()
				src := speechLike(n*16, rate, 150, 6000, 1)
				if ch == 2 {
					src = toStereo(src)
				}
				packets := make([][]byte, 16)
				for p := range packets {
					packets[p], _ = enc.EncodeFrame(src[p*n*ch : (p+1)*n*ch])
				}
				out := make([]int16, n*ch)
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := dec.Decode(packets[i%len(packets)], out); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkDecodeLoss(b *testing.B) {
	dec, _ := NewDecoder(16000, 1)
	out := make([]int16, dec.FrameSize())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := dec.Decode(nil, out); err != nil {
			b.Fatal(err)
		}
	}
}
