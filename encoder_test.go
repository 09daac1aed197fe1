package gosilk

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/thesyncim/gosilk/silk"
)

// speechLike returns n samples of a pulse train at f0 Hz through a damped
// resonator, a crude voiced sound.
func speechLike(n, sampleRate int, f0, amp float64, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	period := int(math.Round(float64(sampleRate) / f0))
	out := make([]int16, n)
	var y1, y2 float64
	for i := range out {
		e := rng.NormFloat64() * amp * 0.01
		if i%period == 0 {
			e += amp / 2
		}
		y := e + 1.3*y1 - 0.64*y2
		y2, y1 = y1, y
		out[i] = int16(max(min(y, 32767), -32768))
	}
	return out
}

func toStereo(mono []int16) []int16 {
	out := make([]int16, 2*len(mono))
	for i, v := range mono {
		out[2*i] = v
		out[2*i+1] = v / 2
	}
	return out
}

func TestNewEncoder_ValidParams(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
		frameSize  int
	}{
		{"8kHz_mono", 8000, 1, 160},
		{"12kHz_mono", 12000, 1, 240},
		{"16kHz_mono", 16000, 1, 320},
		{"8kHz_stereo", 8000, 2, 160},
		{"16kHz_stereo", 16000, 2, 320},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(tt.sampleRate, tt.channels)
			if err != nil {
				t.Fatalf("NewEncoder(%d, %d) unexpected error: %v", tt.sampleRate, tt.channels, err)
			}
			if enc.SampleRate() != tt.sampleRate {
				t.Errorf("SampleRate() = %d, want %d", enc.SampleRate(), tt.sampleRate)
			}
			if enc.Channels() != tt.channels {
				t.Errorf("Channels() = %d, want %d", enc.Channels(), tt.channels)
			}
			if enc.FrameSize() != tt.frameSize {
				t.Errorf("FrameSize() = %d, want %d", enc.FrameSize(), tt.frameSize)
			}
		})
	}
}

func TestNewEncoder_InvalidParams(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
		wantErr    error
	}{
		{"48kHz", 48000, 1, ErrInvalidSampleRate},
		{"24kHz", 24000, 1, ErrInvalidSampleRate},
		{"zero_rate", 0, 1, ErrInvalidSampleRate},
		{"zero_channels", 16000, 0, ErrInvalidChannels},
		{"three_channels", 16000, 3, ErrInvalidChannels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEncoder(tt.sampleRate, tt.channels); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewEncoder(%d, %d) error = %v, want %v", tt.sampleRate, tt.channels, err, tt.wantErr)
			}
		})
	}
}

func TestEncoderSettings(t *testing.T) {
	enc, err := NewEncoder(16000, 2)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		set     func() error
		wantErr error
	}{
		{"bitrate_min", func() error { return enc.SetBitrate(10000) }, nil},
		{"bitrate_max", func() error { return enc.SetBitrate(160000) }, nil},
		{"bitrate_low", func() error { return enc.SetBitrate(9999) }, ErrInvalidBitrate},
		{"bitrate_high", func() error { return enc.SetBitrate(160001) }, ErrInvalidBitrate},
		{"complexity_0", func() error { return enc.SetComplexity(0) }, nil},
		{"complexity_10", func() error { return enc.SetComplexity(10) }, nil},
		{"complexity_11", func() error { return enc.SetComplexity(11) }, ErrInvalidComplexity},
		{"complexity_neg", func() error { return enc.SetComplexity(-1) }, ErrInvalidComplexity},
		{"loss_0", func() error { return enc.SetPacketLoss(0) }, nil},
		{"loss_100", func() error { return enc.SetPacketLoss(100) }, nil},
		{"loss_101", func() error { return enc.SetPacketLoss(101) }, ErrInvalidPacketLoss},
		{"duration_10", func() error { return enc.SetFrameDuration(10) }, nil},
		{"duration_60", func() error { return enc.SetFrameDuration(60) }, nil},
		{"duration_5", func() error { return enc.SetFrameDuration(5) }, ErrInvalidFrameDuration},
		{"duration_30", func() error { return enc.SetFrameDuration(30) }, ErrInvalidFrameDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeFrame_InvalidFrameSize(t *testing.T) {
	enc, err := NewEncoder(16000, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 320, 639, 641} {
		if _, err := enc.EncodeFrame(make([]int16, n)); !errors.Is(err, ErrInvalidFrameSize) {
			t.Errorf("EncodeFrame(%d samples) error = %v, want ErrInvalidFrameSize", n, err)
		}
	}
}

func TestEncodeFrame_FrameDurations(t *testing.T) {
	for _, ms := range []int{10, 20, 40, 60} {
		t.Run(fmt.Sprintf("%dms", ms), func(t *testing.T) {
			enc, _ := NewEncoder(16000, 1)
			if err := enc.SetFrameDuration(ms); err != nil {
				t.Fatal(err)
			}
			if got, want := enc.FrameSize(), 16*ms; got != want {
				t.Fatalf("FrameSize() = %d, want %d", got, want)
			}
			pcm := speechLike(enc.FrameSize(), 16000, 150, 6000, 1)
			packet, err := enc.EncodeFrame(pcm)
			if err != nil {
				t.Fatal(err)
			}
			if len(packet) == 0 || len(packet) > MaxPacketBytes {
				t.Errorf("packet length %d", len(packet))
			}
		})
	}
}

// Higher bitrates spend more bytes on the same input.
func TestEncodeFrame_BitrateSteersSize(t *testing.T) {
	size := func(bps int) int {
		enc, _ := NewEncoder(16000, 1)
		if err := enc.SetBitrate(bps); err != nil {
			t.Fatal(err)
		}
		n := enc.FrameSize()
		src := speechLike(n*10, 16000, 170, 8000, 2)
		total := 0
		for p := 0; p < 10; p++ {
			packet, err := enc.EncodeFrame(src[p*n : (p+1)*n])
			if err != nil {
				t.Fatal(err)
			}
			total += len(packet)
		}
		return total
	}
	low, high := size(8000), size(40000)
	if low >= high {
		t.Errorf("8 kbps used %d bytes, 40 kbps used %d", low, high)
	}
}

type fixedAnalyzer struct {
	a     Analysis
	calls int
	n     int
}

func (f *fixedAnalyzer) Analyze(pcm []int16) Analysis {
	f.calls++
	f.n = len(pcm)
	return f.a
}

func TestSetAnalyzer(t *testing.T) {
	enc, _ := NewEncoder(16000, 2)
	fa := &fixedAnalyzer{}
	enc.SetAnalyzer(fa)
	trace := &silk.EncoderTrace{}
	enc.SetTrace(trace)

	pcm := toStereo(speechLike(enc.FrameSize(), 16000, 150, 8000, 3))
	if _, err := enc.EncodeFrame(pcm); err != nil {
		t.Fatal(err)
	}
	if fa.calls != 1 || fa.n != enc.FrameSize() {
		t.Fatalf("analyzer called %d times with %d samples", fa.calls, fa.n)
	}
	// A zero analysis marks the packet inactive.
	for _, fr := range trace.Frames {
		if fr.Indices.SignalType != 0 {
			t.Errorf("channel %d: signal type %d, want inactive", fr.Channel, fr.Indices.SignalType)
		}
	}

	enc.SetAnalyzer(nil)
	if _, err := enc.EncodeFrame(pcm); err != nil {
		t.Fatal(err)
	}
	if fa.calls != 1 {
		t.Errorf("replaced analyzer still called")
	}
}

func TestEncoderReset(t *testing.T) {
	enc, _ := NewEncoder(12000, 1)
	n := enc.FrameSize()
	src := speechLike(n*4, 12000, 140, 7000, 5)

	first := make([][]byte, 4)
	for p := range first {
		first[p], _ = enc.EncodeFrame(src[p*n : (p+1)*n])
	}
	enc.Reset()
	for p := range first {
		again, _ := enc.EncodeFrame(src[p*n : (p+1)*n])
		if string(again) != string(first[p]) {
			t.Fatalf("packet %d differs after Reset", p)
		}
	}
}
