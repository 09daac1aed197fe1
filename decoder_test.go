package gosilk

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestNewDecoder_InvalidParams(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
		wantErr    error
	}{
		{"44.1kHz", 44100, 1, ErrInvalidSampleRate},
		{"48kHz", 48000, 2, ErrInvalidSampleRate},
		{"zero_channels", 8000, 0, ErrInvalidChannels},
		{"three_channels", 8000, 3, ErrInvalidChannels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDecoder(tt.sampleRate, tt.channels); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewDecoder(%d, %d) error = %v, want %v", tt.sampleRate, tt.channels, err, tt.wantErr)
			}
		})
	}
}

func TestDecoder_SetFrameDuration(t *testing.T) {
	dec, _ := NewDecoder(8000, 1)
	if err := dec.SetFrameDuration(25); !errors.Is(err, ErrInvalidFrameDuration) {
		t.Errorf("SetFrameDuration(25) error = %v", err)
	}
	if err := dec.SetFrameDuration(60); err != nil {
		t.Fatal(err)
	}
	if got := dec.FrameSize(); got != 480 {
		t.Errorf("FrameSize() = %d, want 480", got)
	}
}

func TestDecoder_BufferTooSmall(t *testing.T) {
	dec, _ := NewDecoder(16000, 2)
	if _, err := dec.Decode(nil, make([]int16, 320)); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Decode into short buffer error = %v, want ErrBufferTooSmall", err)
	}
}

func snrDB(ref, got []int16) float64 {
	var sig, noise float64
	for i := range ref {
		d := float64(ref[i]) - float64(got[i])
		sig += float64(ref[i]) * float64(ref[i])
		noise += d * d
	}
	if noise == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(sig/noise)
}

func TestRoundTrip(t *testing.T) {
	for _, rate := range []int{8000, 12000, 16000} {
		for _, ms := range []int{10, 20, 40, 60} {
			for _, ch := range []int{1, 2} {
				t.Run(fmt.Sprintf("%dHz_%dms_%dch", rate, ms, ch), func(t *testing.T) {
					enc, err := NewEncoder(rate, ch)
					if err != nil {
						t.Fatal(err)
					}
					dec, err := NewDecoder(rate, ch)
					if err != nil {
						t.Fatal(err)
					}
					if err := enc.SetFrameDuration(ms); err != nil {
						t.Fatal(err)
					}
					if err := dec.SetFrameDuration(ms); err != nil {
						t.Fatal(err)
					}
					if err := enc.SetBitrate(32000 * ch); err != nil {
						t.Fatal(err)
					}

					n := enc.FrameSize()
					const packets = 10
					src := speechLike(n*packets, rate, 160, 8000, int64(rate+ms))
					if ch == 2 {
						src = toStereo(src)
					}
					var in, out []int16
					for p := 0; p < packets; p++ {
						frame := src[p*n*ch : (p+1)*n*ch]
						packet, err := enc.EncodeFrame(frame)
						if err != nil {
							t.Fatalf("packet %d: %v", p, err)
						}
						pcm, err := dec.DecodeFrame(packet)
						if err != nil {
							t.Fatalf("packet %d: %v", p, err)
						}
						if len(pcm) != n*ch {
							t.Fatalf("packet %d: decoded %d samples, want %d", p, len(pcm), n*ch)
						}
						if p >= packets/2 {
							in = append(in, frame...)
							out = append(out, pcm...)
						}
					}
					// Output lags the input by one sample, plus one more for
					// the stereo mid/side conversion.
					shift := ch * ch
					if snr := snrDB(in[:len(in)-shift], out[shift:]); snr < 0 {
						t.Errorf("SNR %.1f dB", snr)
					}
				})
			}
		}
	}
}

func TestDecodeFrame_Loss(t *testing.T) {
	enc, _ := NewEncoder(16000, 1)
	dec, _ := NewDecoder(16000, 1)
	n := enc.FrameSize()
	src := speechLike(n*6, 16000, 150, 8000, 8)
	for p := 0; p < 6; p++ {
		packet, err := enc.EncodeFrame(src[p*n : (p+1)*n])
		if err != nil {
			t.Fatal(err)
		}
		if p == 4 {
			packet = nil
		}
		pcm, err := dec.DecodeFrame(packet)
		if err != nil {
			t.Fatalf("packet %d: %v", p, err)
		}
		if len(pcm) != n {
			t.Fatalf("packet %d: %d samples", p, len(pcm))
		}
	}
}

func TestDecoderReset(t *testing.T) {
	enc, _ := NewEncoder(8000, 1)
	dec, _ := NewDecoder(8000, 1)
	n := enc.FrameSize()
	src := speechLike(n*3, 8000, 120, 6000, 6)
	packets := make([][]byte, 3)
	for p := range packets {
		packets[p], _ = enc.EncodeFrame(src[p*n : (p+1)*n])
	}

	var first [][]int16
	for _, pkt := range packets {
		pcm, _ := dec.DecodeFrame(pkt)
		first = append(first, pcm)
	}
	dec.Reset()
	for p, pkt := range packets {
		pcm, _ := dec.DecodeFrame(pkt)
		for i := range pcm {
			if pcm[i] != first[p][i] {
				t.Fatalf("packet %d sample %d: %d after Reset, %d before", p, i, pcm[i], first[p][i])
			}
		}
	}
}

func TestDecodeFEC(t *testing.T) {
	enc, _ := NewEncoder(16000, 1)
	enc.SetInbandFEC(true)
	if err := enc.SetPacketLoss(20); err != nil {
		t.Fatal(err)
	}
	if err := enc.SetBitrate(28000); err != nil {
		t.Fatal(err)
	}
	dec, _ := NewDecoder(16000, 1)
	n := enc.FrameSize()
	src := speechLike(n*8, 16000, 150, 8000, 12)
	packets := make([][]byte, 8)
	for p := range packets {
		var err error
		if packets[p], err = enc.EncodeFrame(src[p*n : (p+1)*n]); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := dec.DecodeFEC(packets[1], make([]int16, n-1)); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("DecodeFEC into a short buffer: error = %v", err)
	}
	pcm := make([]int16, n)
	for p := 0; p < len(packets); p++ {
		if p == 5 {
			got, err := dec.DecodeFEC(packets[6], pcm)
			if err != nil {
				t.Fatal(err)
			}
			if got != n {
				t.Fatalf("DecodeFEC: %d samples, want %d", got, n)
			}
			if snr := snrDB(src[p*n:(p+1)*n-1], pcm[1:]); snr < 0 {
				t.Errorf("recovered packet SNR %.1f dB", snr)
			}
			continue
		}
		if _, err := dec.Decode(packets[p], pcm); err != nil {
			t.Fatal(err)
		}
	}
}
