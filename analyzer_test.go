package gosilk

import (
	"math"
	"math/rand"
	"testing"
)

func whiteNoise(n int, amp float64, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(max(min(rng.NormFloat64()*amp, 32767), -32768))
	}
	return out
}

func sine(n, sampleRate int, freq, amp float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestEnergyAnalyzer_Silence(t *testing.T) {
	a := NewEnergyAnalyzer(16000)
	if got := a.Analyze(make([]int16, 320)); got != (Analysis{}) {
		t.Errorf("Analyze(silence) = %+v, want zero", got)
	}
	if got := a.Analyze(nil); got != (Analysis{}) {
		t.Errorf("Analyze(nil) = %+v, want zero", got)
	}
}

func TestEnergyAnalyzer(t *testing.T) {
	tests := []struct {
		name         string
		pcm          []int16
		minSpeech    int
		minTonality  float64
		maxTonality  float64
		minNoisiness float64
		maxNoisiness float64
	}{
		{"voiced", speechLike(320, 16000, 200, 8000, 1), 200, 0.6, 1, 0, 0.4},
		{"noise", whiteNoise(320, 3000, 2), 200, 0, 0.4, 0.6, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEnergyAnalyzer(16000).Analyze(tt.pcm)
			if got.SpeechActivityQ8 < tt.minSpeech {
				t.Errorf("SpeechActivityQ8 = %d, want >= %d", got.SpeechActivityQ8, tt.minSpeech)
			}
			if got.Tonality < tt.minTonality || got.Tonality > tt.maxTonality {
				t.Errorf("Tonality = %.2f, want in [%.2f, %.2f]", got.Tonality, tt.minTonality, tt.maxTonality)
			}
			if got.Noisiness < tt.minNoisiness || got.Noisiness > tt.maxNoisiness {
				t.Errorf("Noisiness = %.2f, want in [%.2f, %.2f]", got.Noisiness, tt.minNoisiness, tt.maxNoisiness)
			}
		})
	}
}

// A steady noise floor stops counting as speech once the tracker catches up.
func TestEnergyAnalyzer_NoiseFloorTracks(t *testing.T) {
	a := NewEnergyAnalyzer(8000)
	src := whiteNoise(160*200, 100, 3)
	var last Analysis
	for p := 0; p < 200; p++ {
		last = a.Analyze(src[p*160 : (p+1)*160])
	}
	if last.SpeechActivityQ8 >= 128 {
		t.Errorf("SpeechActivityQ8 = %d after 4 s of steady noise", last.SpeechActivityQ8)
	}
	if last.MusicProb < 0.5 {
		t.Errorf("MusicProb = %.2f for a steady level, want >= 0.5", last.MusicProb)
	}
}

func TestEnergyAnalyzer_Bandwidth(t *testing.T) {
	tests := []struct {
		name     string
		pcm      []int16
		min, max int
	}{
		{"500Hz_tone", sine(320, 16000, 500, 10000), 800, 1200},
		{"white_noise", whiteNoise(320, 5000, 4), 6000, 8000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEnergyAnalyzer(16000).Analyze(tt.pcm).BandwidthHz
			if got < tt.min || got > tt.max {
				t.Errorf("BandwidthHz = %d, want in [%d, %d]", got, tt.min, tt.max)
			}
		})
	}
}

func TestActivityClamps(t *testing.T) {
	act := activity(Analysis{SpeechActivityQ8: 400, Tonality: 2, Noisiness: -1, MusicProb: 1})
	if act.SpeechQ8 != 255 || act.Tonality != 1 || act.Noisiness != 0 {
		t.Errorf("activity() = %+v", act)
	}
	act = activity(Analysis{Noisiness: 0.8, MusicProb: 1})
	if act.Noisiness != 0.4 {
		t.Errorf("music noisiness = %.2f, want 0.4", act.Noisiness)
	}
}
