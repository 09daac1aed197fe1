package silk

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

// testVoice returns n samples of a voice-like signal: a pulse train at f0 Hz
// through a damped two-pole resonator, with a little white noise.
func testVoice(n, fsKHz int, f0, amp float64, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	period := int(math.Round(float64(fsKHz*1000) / f0))
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

// interleave builds a stereo stream from left, with the right channel a
// scaled copy plus independent noise.
func interleave(left []int16, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int16, 2*len(left))
	for i, l := range left {
		out[2*i] = l
		out[2*i+1] = int16(max(min(0.6*float64(l)+rng.NormFloat64()*200, 32767), -32768))
	}
	return out
}

func energy(x []int16) float64 {
	e := 0.0
	for _, v := range x {
		e += float64(v) * float64(v)
	}
	return e
}

func TestSilentFrameHasNoPulses(t *testing.T) {
	enc, err := NewEncoder(16, 1)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewDecoder(16, 1)
	if err != nil {
		t.Fatal(err)
	}
	trace := &DecoderTrace{}
	dec.SetTrace(trace)

	pcm := make([]int16, enc.FrameSamples())
	if len(pcm) != 320 {
		t.Fatalf("FrameSamples() = %d, want 320", len(pcm))
	}
	out := make([]int16, len(pcm))
	for p := 0; p < 5; p++ {
		pkt, err := enc.Encode(pcm, Activity{})
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range enc.channels[0].pulses[:320] {
			if v != 0 {
				t.Fatalf("packet %d: pulse %d = %d, want 0", p, i, v)
			}
		}
		if _, err := dec.Decode(pkt, out); err != nil {
			t.Fatal(err)
		}
		for i, v := range out {
			if v < -2 || v > 2 {
				t.Fatalf("packet %d: sample %d = %d, want near silence", p, i, v)
			}
		}
		if dec.State(0).vadFlags[0] {
			t.Fatalf("packet %d: VAD flag set for silence", p)
		}
	}
	for _, fr := range trace.Frames {
		if fr.Indices.SignalType != typeNoVoiceActivity {
			t.Fatalf("frame signal type = %d, want inactive", fr.Indices.SignalType)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, fs := range []int{8, 12, 16} {
		for _, ms := range []int{10, 20, 40, 60} {
			for _, ch := range []int{1, 2} {
				t.Run(fmt.Sprintf("%dkHz_%dms_%dch", fs, ms, ch), func(t *testing.T) {
					enc, err := NewEncoder(fs, ch)
					if err != nil {
						t.Fatal(err)
					}
					dec, err := NewDecoder(fs, ch)
					if err != nil {
						t.Fatal(err)
					}
					if err := enc.SetFrameDuration(ms); err != nil {
						t.Fatal(err)
					}
					if err := dec.SetFrameDuration(ms); err != nil {
						t.Fatal(err)
					}
					enc.SetBitrate(24000 * ch)

					n := enc.FrameSamples()
					const packets = 12
					src := testVoice(n*packets, fs, 180, 8000, int64(fs+ms))
					if ch == 2 {
						src = interleave(src, int64(ms))
					}
					out := make([]int16, n*ch)
					var inNrg, outNrg float64
					for p := 0; p < packets; p++ {
						in := src[p*n*ch : (p+1)*n*ch]
						pkt, err := enc.Encode(in, Activity{SpeechQ8: 220, Tonality: 0.8})
						if err != nil {
							t.Fatalf("packet %d: %v", p, err)
						}
						if len(pkt) == 0 || len(pkt) > MaxPacketBytes {
							t.Fatalf("packet %d: %d bytes", p, len(pkt))
						}
						got, err := dec.Decode(pkt, out)
						if err != nil {
							t.Fatalf("packet %d: %v", p, err)
						}
						if got != n {
							t.Fatalf("packet %d: decoded %d samples, want %d", p, got, n)
						}
						if p >= packets/2 {
							inNrg += energy(in)
							outNrg += energy(out)
						}
					}
					ratio := outNrg / inNrg
					if ratio < 0.05 || ratio > 20 {
						t.Errorf("output/input energy ratio %.3f", ratio)
					}
				})
			}
		}
	}
}

// The quantizer's reconstruction is what the decoder outputs, one sample
// late, with or without redundant frames ahead of the primary ones.
func TestEncoderReconstructionMatchesDecoder(t *testing.T) {
	for _, fs := range []int{8, 12, 16} {
		for _, ms := range []int{10, 20} {
			for _, fec := range []bool{false, true} {
				t.Run(fmt.Sprintf("%dkHz_%dms_fec=%v", fs, ms, fec), func(t *testing.T) {
					enc, _ := NewEncoder(fs, 1)
					dec, _ := NewDecoder(fs, 1)
					if err := enc.SetFrameDuration(ms); err != nil {
						t.Fatal(err)
					}
					if err := dec.SetFrameDuration(ms); err != nil {
						t.Fatal(err)
					}
					if fec {
						enc.SetInbandFEC(true)
						enc.SetPacketLoss(15)
						enc.SetBitrate(30000)
					}
					n := enc.FrameSamples()
					const packets = 20
					src := testVoice(n*packets, fs, 130, 6000, 3)
					out := make([]int16, n)
					var last int16
					for p := 0; p < packets; p++ {
						act := Activity{SpeechQ8: 200, Tonality: 0.5}
						if p%6 == 5 {
							act = Activity{}
						}
						pkt, err := enc.Encode(src[p*n:(p+1)*n], act)
						if err != nil {
							t.Fatal(err)
						}
						if _, err := dec.Decode(pkt, out); err != nil {
							t.Fatal(err)
						}
						xq := enc.channels[0].xq[:n]
						if out[0] != last {
							t.Fatalf("packet %d: sample 0 = %d, want %d", p, out[0], last)
						}
						for i := 1; i < n; i++ {
							if out[i] != xq[i-1] {
								t.Fatalf("packet %d: sample %d = %d, encoder reconstructed %d", p, i, out[i], xq[i-1])
							}
						}
						last = xq[n-1]
					}
				})
			}
		}
	}
}

func TestVoicedInputUsesLTP(t *testing.T) {
	enc, _ := NewEncoder(16, 1)
	trace := &EncoderTrace{Pitch: &PitchTrace{}, LTP: &LTPTrace{}}
	enc.SetTrace(trace)
	n := enc.FrameSamples()
	src := testVoice(n*10, 16, 200, 8000, 9)
	voiced := 0
	for p := 0; p < 10; p++ {
		if _, err := enc.Encode(src[p*n:(p+1)*n], Activity{SpeechQ8: 230, Tonality: 0.9}); err != nil {
			t.Fatal(err)
		}
		if trace.Pitch.Voiced {
			voiced++
		}
	}
	if voiced < 5 {
		t.Fatalf("voiced in %d of 10 packets", voiced)
	}
	// 200 Hz at 16 kHz is an 80 sample period; the search may land on a
	// multiple.
	for _, lag := range trace.Pitch.PitchLags {
		if r := lag % 80; r > 3 && r < 77 {
			t.Errorf("pitch lag %d is not near a multiple of 80", lag)
		}
	}
	if trace.LTP.PredGainQ7 <= 0 {
		t.Errorf("LTP prediction gain %d, want positive", trace.LTP.PredGainQ7)
	}
}

func TestStereoHeaderFlags(t *testing.T) {
	enc, _ := NewEncoder(16, 2)
	dec, _ := NewDecoder(16, 2)
	for _, d := range []interface{ SetFrameDuration(int) error }{enc, dec} {
		if err := d.SetFrameDuration(40); err != nil {
			t.Fatal(err)
		}
	}
	n := enc.FrameSamples()
	pcm := interleave(testVoice(n, 16, 150, 5000, 4), 5)
	pkt, err := enc.Encode(pcm, Activity{SpeechQ8: 255})
	if err != nil {
		t.Fatal(err)
	}
	out := make([]int16, 2*n)
	if _, err := dec.Decode(pkt, out); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if !dec.State(0).vadFlags[i] {
			t.Errorf("mid frame %d: VAD flag not set", i)
		}
	}
	if dec.State(0).lbrrFlag || dec.State(1).lbrrFlag {
		t.Error("LBRR flag set")
	}
}

// 60 ms stereo packets carry eight header flags, the most a packet has.
func TestStereo60msHeaderFlags(t *testing.T) {
	enc, _ := NewEncoder(16, 2)
	dec, _ := NewDecoder(16, 2)
	for _, d := range []interface{ SetFrameDuration(int) error }{enc, dec} {
		if err := d.SetFrameDuration(60); err != nil {
			t.Fatal(err)
		}
	}
	enc.SetInbandFEC(true)
	enc.SetPacketLoss(10)
	enc.SetBitrate(64000)
	n := enc.FrameSamples()
	src := interleave(testVoice(2*n, 16, 150, 5000, 6), 7)
	out := make([]int16, 2*n)
	for p := 0; p < 2; p++ {
		act := Activity{SpeechQ8: 255}
		pkt, err := enc.Encode(src[p*2*n:(p+1)*2*n], act)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := dec.Decode(pkt, out); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			if !dec.State(0).vadFlags[i] {
				t.Errorf("packet %d mid frame %d: VAD flag not set", p, i)
			}
		}
		if got := dec.State(0).lbrrFlag; got != (p == 1) {
			t.Errorf("packet %d: mid LBRR flag %v", p, got)
		}
	}
}

func TestEncoderSettingsClamp(t *testing.T) {
	for _, ch := range []int{1, 2} {
		enc, _ := NewEncoder(16, ch)
		for _, tc := range []struct{ in, want int }{
			{1000, minTargetRateBps * ch},
			{1000000, maxTargetRateBps * ch},
			{24000 * ch, 24000 * ch},
		} {
			enc.SetBitrate(tc.in)
			if got := enc.Bitrate(); got != tc.want {
				t.Errorf("%d ch: SetBitrate(%d) gives %d, want %d", ch, tc.in, got, tc.want)
			}
		}
	}
	enc, _ := NewEncoder(16, 1)
	for _, tc := range []struct{ in, want int }{{-3, 0}, {4, 4}, {42, maxComplexity}} {
		enc.SetComplexity(tc.in)
		if enc.complexity != tc.want {
			t.Errorf("SetComplexity(%d) gives %d, want %d", tc.in, enc.complexity, tc.want)
		}
	}
	for _, tc := range []struct{ in, want int }{{-1, 0}, {30, 30}, {250, 100}} {
		enc.SetPacketLoss(tc.in)
		if enc.packetLoss != tc.want {
			t.Errorf("SetPacketLoss(%d) gives %d, want %d", tc.in, enc.packetLoss, tc.want)
		}
	}
}

func TestConcealmentKeepsLevel(t *testing.T) {
	enc, _ := NewEncoder(16, 1)
	dec, _ := NewDecoder(16, 1)
	n := enc.FrameSamples()
	src := testVoice(n*12, 16, 160, 6000, 7)
	out := make([]int16, n)
	var before, lost float64
	for p := 0; p < 12; p++ {
		pkt, err := enc.Encode(src[p*n:(p+1)*n], Activity{SpeechQ8: 220, Tonality: 0.8})
		if err != nil {
			t.Fatal(err)
		}
		if p == 8 || p == 9 {
			pkt = nil
		}
		if _, err := dec.Decode(pkt, out); err != nil {
			t.Fatal(err)
		}
		switch p {
		case 7:
			before = energy(out)
		case 8:
			lost = energy(out)
		}
	}
	if before == 0 {
		t.Fatal("no output before the loss")
	}
	if lost == 0 || lost > 4*before {
		t.Errorf("concealed energy %.0f against %.0f before the loss", lost, before)
	}
	if dec.State(0).LossCount != 0 {
		t.Errorf("LossCount = %d after a good packet", dec.State(0).LossCount)
	}
}

func TestDecodeGarbageDoesNotPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, ch := range []int{1, 2} {
		dec, _ := NewDecoder(16, ch)
		out := make([]int16, dec.FrameSamples()*ch)
		for i := 0; i < 200; i++ {
			pkt := make([]byte, 1+rng.Intn(200))
			rng.Read(pkt)
			if _, err := dec.Decode(pkt, out); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestEncoderRejectsBadInput(t *testing.T) {
	if _, err := NewEncoder(44, 1); err != ErrInvalidSampleRate {
		t.Errorf("NewEncoder(44, 1) error = %v", err)
	}
	if _, err := NewEncoder(16, 3); err != ErrInvalidChannels {
		t.Errorf("NewEncoder(16, 3) error = %v", err)
	}
	enc, _ := NewEncoder(16, 1)
	if err := enc.SetFrameDuration(30); err != ErrInvalidFrameDuration {
		t.Errorf("SetFrameDuration(30) error = %v", err)
	}
	if _, err := enc.Encode(make([]int16, 100), Activity{}); err != ErrInvalidFrameSize {
		t.Errorf("Encode(short) error = %v", err)
	}
}

func TestControlSNRIncreasesWithRate(t *testing.T) {
	for _, fs := range []int{8, 12, 16} {
		prev := int32(-1)
		for bps := 5000; bps <= 80000; bps += 2500 {
			snr := controlSNR(fs, maxNbSubfr, bps)
			if snr < prev {
				t.Fatalf("%d kHz: SNR drops from %d to %d at %d bps", fs, prev, snr, bps)
			}
			prev = snr
		}
		if got, want := controlSNR(fs, maxNbSubfr, 80000), silkSNRTableQ1[7]<<6; got != want {
			t.Errorf("%d kHz: top SNR = %d, want %d", fs, got, want)
		}
	}
}
