//go:build ignore
// +build ignore

// gen_libopus_silk_fixture records SILK-only packets encoded by libopus'
// opus_demo together with libopus' own decode of them, for the decoder
// parity test in libopus_fixture_test.go.
//
// Usage:
//
//	go run tools/gen_libopus_silk_fixture.go -opus-demo /path/to/opus_demo
package main

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	silkFixtureVersion    = 1
	silkFixturePackets    = 40
	silkFixtureDefaultOut = "testdata/libopus_silk.json"
	silkFixtureOutEnv     = "GOSILK_SILK_FIXTURE_OUT"
	silkFixtureFECLoss    = 20
)

type silkFixtureFile struct {
	Version   int               `json:"version"`
	Generator string            `json:"generator"`
	Signal    string            `json:"signal"`
	Cases     []silkFixtureCase `json:"cases"`
}

type silkFixtureCase struct {
	Name       string              `json:"name"`
	Bandwidth  string              `json:"bandwidth"`
	SampleRate int                 `json:"sample_rate"`
	Channels   int                 `json:"channels"`
	FrameMs    int                 `json:"frame_ms"`
	Bitrate    int                 `json:"bitrate"`
	FEC        bool                `json:"fec"`
	Packets    []silkFixturePacket `json:"packets"`
	DecodedB64 string              `json:"decoded_s16_le_b64"`

	// Set for FEC cases: libopus' decode with the packets marked 1 dropped
	// and recovered from the next packet's redundancy.
	LossBits       string `json:"loss_bits,omitempty"`
	LossDecodedB64 string `json:"loss_decoded_s16_le_b64,omitempty"`
}

type silkFixturePacket struct {
	DataB64    string `json:"data_b64"`
	FinalRange uint32 `json:"final_range"`
}

type caseConfig struct {
	Bandwidth string
	Rate      int
	Channels  int
	FrameMs   int
	Bitrate   int
	FEC       bool
}

func (c caseConfig) name() string {
	name := fmt.Sprintf("silk-%s-%dms-%s-%dk", strings.ToLower(c.Bandwidth), c.FrameMs, channelName(c.Channels), c.Bitrate/1000)
	if c.FEC {
		name += "-fec"
	}
	return name
}

func channelName(ch int) string {
	if ch == 2 {
		return "stereo"
	}
	return "mono"
}

func caseConfigs() []caseConfig {
	var cfgs []caseConfig
	for _, bw := range []struct {
		name string
		rate int
		bps  int
	}{{"NB", 8000, 12000}, {"MB", 12000, 16000}, {"WB", 16000, 20000}} {
		for _, ch := range []int{1, 2} {
			for _, ms := range []int{10, 20, 40, 60} {
				cfgs = append(cfgs, caseConfig{bw.name, bw.rate, ch, ms, bw.bps * ch, false})
			}
		}
	}
	// Rates well above the LBRR threshold so that every speech packet
	// carries redundancy.
	cfgs = append(cfgs,
		caseConfig{"NB", 8000, 1, 20, 20000, true},
		caseConfig{"WB", 16000, 1, 20, 32000, true},
		caseConfig{"WB", 16000, 1, 40, 32000, true},
		caseConfig{"WB", 16000, 2, 60, 64000, true},
		caseConfig{"MB", 12000, 2, 20, 48000, true},
	)
	return cfgs
}

// speechSignal is a vowel-like pulse train through two resonators with a
// slow pitch glide and syllable-rate level changes, as interleaved int16.
func speechSignal(samples, rate, channels int) []int16 {
	pcm := make([]int16, samples*channels)
	fs := float64(rate)
	var y1, y2, z1, z2, phase float64
	for i := 0; i < samples; i++ {
		t := float64(i) / fs
		phase += (120 + 40*math.Sin(2*math.Pi*0.7*t)) / fs
		e := 0.0
		if phase >= 1 {
			phase--
			e = 6000
		}
		y := e + 1.6*y1 - 0.81*y2
		y2, y1 = y1, y
		z := y + 0.4*z1 - 0.5*z2
		z2, z1 = z1, z
		level := 0.35 + 0.65*math.Abs(math.Sin(2*math.Pi*2.5*t))
		v := math.Max(math.Min(z/4*level, 32767), -32768)
		for c := 0; c < channels; c++ {
			pcm[i*channels+c] = int16(v * (1 - 0.3*float64(c)))
		}
	}
	return pcm
}

func writeS16(path string, pcm []int16) error {
	buf := make([]byte, 2*len(pcm))
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	return os.WriteFile(path, buf, 0o644)
}

// parseOpusDemoBitstream splits opus_demo's output: per packet a 4-byte
// big-endian length, a 4-byte big-endian final range, then the packet.
func parseOpusDemoBitstream(path string) ([]silkFixturePacket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []silkFixturePacket
	off := 0
	for off+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[off:]))
		rng := binary.BigEndian.Uint32(data[off+4:])
		off += 8
		if off+n > len(data) {
			return nil, fmt.Errorf("invalid packet length %d at offset %d", n, off)
		}
		out = append(out, silkFixturePacket{
			DataB64:    base64.StdEncoding.EncodeToString(data[off : off+n]),
			FinalRange: rng,
		})
		off += n
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no packets parsed from %s", path)
	}
	return out, nil
}

// lossMask drops one packet early, a burst of two and a late single.
func lossMask(n int) []int {
	mask := make([]int, n)
	for _, i := range []int{8, 17, 18, n - 6} {
		if i > 0 && i < n-1 {
			mask[i] = 1
		}
	}
	return mask
}

func maskBits(mask []int) string {
	var b strings.Builder
	for _, v := range mask {
		b.WriteByte(byte('0' + v))
	}
	return b.String()
}

func run(bin string, args ...string) error {
	if out, err := exec.Command(bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %v (%s)", filepath.Base(bin), strings.Join(args, " "), err, out)
	}
	return nil
}

func runCase(opusDemo, tmpDir string, cfg caseConfig) (silkFixtureCase, error) {
	name := cfg.name()
	samples := silkFixturePackets * cfg.FrameMs * cfg.Rate / 1000
	inPath := filepath.Join(tmpDir, name+".pcm")
	bitPath := filepath.Join(tmpDir, name+".bit")
	decPath := filepath.Join(tmpDir, name+".dec")
	if err := writeS16(inPath, speechSignal(samples, cfg.Rate, cfg.Channels)); err != nil {
		return silkFixtureCase{}, err
	}

	rate, ch := strconv.Itoa(cfg.Rate), strconv.Itoa(cfg.Channels)
	encArgs := []string{
		"-e", "restricted-silk", rate, ch, strconv.Itoa(cfg.Bitrate),
		"-bandwidth", cfg.Bandwidth,
		"-framesize", strconv.Itoa(cfg.FrameMs),
		"-complexity", "10",
	}
	if cfg.FEC {
		encArgs = append(encArgs, "-inbandfec", "-loss", strconv.Itoa(silkFixtureFECLoss))
	}
	encArgs = append(encArgs, inPath, bitPath)
	if err := run(opusDemo, encArgs...); err != nil {
		return silkFixtureCase{}, err
	}
	packets, err := parseOpusDemoBitstream(bitPath)
	if err != nil {
		return silkFixtureCase{}, err
	}
	if err := run(opusDemo, "-d", rate, ch, bitPath, decPath); err != nil {
		return silkFixtureCase{}, err
	}
	decoded, err := os.ReadFile(decPath)
	if err != nil {
		return silkFixtureCase{}, err
	}

	c := silkFixtureCase{
		Name:       name,
		Bandwidth:  cfg.Bandwidth,
		SampleRate: cfg.Rate,
		Channels:   cfg.Channels,
		FrameMs:    cfg.FrameMs,
		Bitrate:    cfg.Bitrate,
		FEC:        cfg.FEC,
		Packets:    packets,
		DecodedB64: base64.StdEncoding.EncodeToString(decoded),
	}
	if !cfg.FEC {
		return c, nil
	}

	mask := lossMask(len(packets))
	lossPath := filepath.Join(tmpDir, name+".loss")
	lossDecPath := filepath.Join(tmpDir, name+".lossdec")
	var lines strings.Builder
	for _, v := range mask {
		lines.WriteString(strconv.Itoa(v))
		lines.WriteByte('\n')
	}
	if err := os.WriteFile(lossPath, []byte(lines.String()), 0o644); err != nil {
		return silkFixtureCase{}, err
	}
	if err := run(opusDemo, "-d", rate, ch, "-inbandfec", "-lossfile", lossPath, bitPath, lossDecPath); err != nil {
		return silkFixtureCase{}, err
	}
	lossDecoded, err := os.ReadFile(lossDecPath)
	if err != nil {
		return silkFixtureCase{}, err
	}
	c.LossBits = maskBits(mask)
	c.LossDecodedB64 = base64.StdEncoding.EncodeToString(lossDecoded)
	return c, nil
}

func main() {
	opusDemo := flag.String("opus-demo", "opus_demo", "Path to libopus' opus_demo")
	flag.Parse()

	bin, err := exec.LookPath(*opusDemo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opus_demo not found: %v\n", err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "gosilk-silk-fixture-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "create temp dir:", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	fixture := silkFixtureFile{
		Version:   silkFixtureVersion,
		Generator: bin,
		Signal:    "speechSignal:v1",
	}
	for _, cfg := range caseConfigs() {
		fmt.Fprintf(os.Stderr, "generating %s...\n", cfg.name())
		c, err := runCase(bin, tmpDir, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed %s: %v\n", cfg.name(), err)
			os.Exit(1)
		}
		fixture.Cases = append(fixture.Cases, c)
	}
	sort.Slice(fixture.Cases, func(i, j int) bool { return fixture.Cases[i].Name < fixture.Cases[j].Name })

	encoded, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal json:", err)
		os.Exit(1)
	}
	out := silkFixtureDefaultOut
	if v := os.Getenv(silkFixtureOutEnv); v != "" {
		out = v
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "create output dir:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, append(encoded, '\n'), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "write fixture:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d cases)\n", out, len(fixture.Cases))
}
