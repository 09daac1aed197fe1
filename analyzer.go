// analyzer.go implements the signal analysis that steers encoder decisions.

package gosilk

import (
	"math"

	"github.com/thesyncim/gosilk/silk"
)

// Analysis describes the content of one packet of audio.
type Analysis struct {
	// SpeechActivityQ8 is the probability of active speech, 0..255. Packets
	// below 13 are coded as inactive.
	SpeechActivityQ8 int

	// Tonality is the strength of the strongest periodicity in the pitch
	// range, 0..1.
	Tonality float64

	// Noisiness is how close the spectrum is to white noise, 0..1.
	Noisiness float64

	// MusicProb is the probability the signal is music rather than speech, 0..1.
	MusicProb float64

	// BandwidthHz is a coarse estimate of the occupied audio bandwidth.
	BandwidthHz int
}

// Analyzer inspects one packet of mono PCM before it is encoded. Stereo
// input is downmixed before analysis.
type Analyzer interface {
	Analyze(pcm []int16) Analysis
}

const (
	silenceEnergy      = 4.0   // mean square below which a packet is silence
	initialNoiseFloor  = 100.0 // mean square
	noiseFloorRise     = 1.1   // per packet
	activitySNROffset  = 6.0   // dB
	activityLevelFloor = 45.0  // dB above one LSB
	activitySlope      = 3.0   // dB
	levelHistory       = 16
	minPitchHz         = 60
	maxPitchHz         = 500
)

// EnergyAnalyzer is the default Analyzer. Speech activity follows the
// packet's level above a tracked noise floor; tonality is the normalized
// autocorrelation peak over the pitch range; music is told from speech by
// the steadiness of the level across packets.
//
// An EnergyAnalyzer is NOT safe for concurrent use.
type EnergyAnalyzer struct {
	sampleRate int
	noiseFloor float64
	levels     [levelHistory]float64
	nLevels    int
	pos        int
}

// NewEnergyAnalyzer returns an analyzer for audio at the given rate in Hz.
func NewEnergyAnalyzer(sampleRate int) *EnergyAnalyzer {
	a := &EnergyAnalyzer{sampleRate: sampleRate}
	a.Reset()
	return a
}

// Reset forgets the noise floor and level history.
func (a *EnergyAnalyzer) Reset() {
	*a = EnergyAnalyzer{sampleRate: a.sampleRate, noiseFloor: initialNoiseFloor}
}

// Analyze implements Analyzer.
func (a *EnergyAnalyzer) Analyze(pcm []int16) Analysis {
	n := len(pcm)
	if n < 2 {
		return Analysis{}
	}
	var e0, e1, diff float64
	for i := 1; i < n; i++ {
		x, p := float64(pcm[i]), float64(pcm[i-1])
		e0 += x * x
		e1 += x * p
		diff += (x - p) * (x - p)
	}
	e0 += float64(pcm[0]) * float64(pcm[0])
	nrg := e0 / float64(n)
	if nrg < silenceEnergy {
		return Analysis{}
	}

	if nrg < a.noiseFloor {
		a.noiseFloor = nrg
	} else {
		a.noiseFloor = min(a.noiseFloor*noiseFloorRise, nrg)
	}
	level := 10 * math.Log10(nrg)
	snr := level - 10*math.Log10(a.noiseFloor)
	score := max(snr-activitySNROffset, level-activityLevelFloor)
	speech := 1 / (1 + math.Exp(-score/activitySlope))

	tonality := a.periodicity(pcm, e0)
	rho1 := max(e1/e0, 0)

	a.levels[a.pos] = level
	a.pos = (a.pos + 1) % levelHistory
	a.nLevels = min(a.nLevels+1, levelHistory)

	return Analysis{
		SpeechActivityQ8: int(speech * 255),
		Tonality:         tonality,
		Noisiness:        clamp01(1 - max(rho1, tonality)),
		MusicProb:        a.musicProb(),
		BandwidthHz:      a.bandwidth(diff / e0),
	}
}

// periodicity returns the largest normalized autocorrelation over the lags
// of the pitch range.
func (a *EnergyAnalyzer) periodicity(x []int16, e0 float64) float64 {
	n := len(x)
	minLag := a.sampleRate / maxPitchHz
	maxLag := min(a.sampleRate/minPitchHz, n/2)

	// Energies of the lagged and leading windows at lag minLag.
	head, tail := e0, e0
	for i := 0; i < minLag; i++ {
		head -= float64(x[i]) * float64(x[i])
		tail -= float64(x[n-1-i]) * float64(x[n-1-i])
	}
	best := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var c float64
		for i := lag; i < n; i++ {
			c += float64(x[i]) * float64(x[i-lag])
		}
		if den := head * tail; den > 0 && c > 0 {
			best = max(best, c/math.Sqrt(den))
		}
		head -= float64(x[lag]) * float64(x[lag])
		tail -= float64(x[n-1-lag]) * float64(x[n-1-lag])
	}
	return clamp01(best)
}

// musicProb maps the spread of recent packet levels to a music probability:
// speech levels swing with syllables, music holds steady.
func (a *EnergyAnalyzer) musicProb() float64 {
	if a.nLevels < levelHistory/2 {
		return 0
	}
	var mean, sq float64
	for _, l := range a.levels[:a.nLevels] {
		mean += l
	}
	mean /= float64(a.nLevels)
	for _, l := range a.levels[:a.nLevels] {
		sq += (l - mean) * (l - mean)
	}
	std := math.Sqrt(sq / float64(a.nLevels))
	return clamp01(1 - (std-3)/9)
}

// bandwidth turns the ratio of first-difference energy to signal energy
// into twice the RMS frequency, capped at Nyquist.
func (a *EnergyAnalyzer) bandwidth(diffRatio float64) int {
	nyquist := float64(a.sampleRate) / 2
	f := float64(a.sampleRate) / math.Pi * math.Asin(min(math.Sqrt(diffRatio)/2, 1))
	return int(min(2*f, nyquist))
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// activity converts an analysis into the encoder's decision inputs. Music
// leans toward the low quantization offset.
func activity(a Analysis) silk.Activity {
	return silk.Activity{
		SpeechQ8:  min(max(a.SpeechActivityQ8, 0), 255),
		Tonality:  clamp01(a.Tonality),
		Noisiness: clamp01(a.Noisiness * (1 - a.MusicProb/2)),
	}
}
