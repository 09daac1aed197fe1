// Command benchguard runs the codec benchmarks and fails when a benchmark
// exceeds its configured ns/op, B/op or allocs/op ceiling. Limits left out
// of the config are not checked.
//
// Usage:
//
//	go run ./tools/benchguard
//	go run ./tools/benchguard -config my_guardrails.json
package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

//go:embed guardrails.json
var defaultConfig []byte

type benchmarkGuard struct {
	MaxNsOp     *float64 `json:"max_ns_op"`
	MaxBOp      *float64 `json:"max_b_op"`
	MaxAllocsOp *float64 `json:"max_allocs_op"`
}

type guardConfig struct {
	Packages   []string                  `json:"packages"`
	BenchRegex string                    `json:"bench_regex"`
	Count      int                       `json:"count"`
	Benchtime  string                    `json:"benchtime"`
	CPU        int                       `json:"cpu"`
	Benchmarks map[string]benchmarkGuard `json:"benchmarks"`
}

type sample struct {
	NsOp     float64
	BOp      float64
	AllocsOp float64
}

func main() {
	cfgPath := flag.String("config", "", "Guardrails config (default: built-in)")
	flag.Parse()

	data := defaultConfig
	if *cfgPath != "" {
		var err error
		if data, err = os.ReadFile(*cfgPath); err != nil {
			fatalf("load config: %v", err)
		}
	}
	cfg, err := parseConfig(data)
	if err != nil {
		fatalf("invalid config: %v", err)
	}

	out, err := runBench(cfg)
	if err != nil {
		fatalf("run benchmark command: %v", err)
	}
	samples, err := parseBenchmarkOutput(out)
	if err != nil {
		fatalf("parse benchmark output: %v", err)
	}

	if violations := evaluate(cfg, samples); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v)
		}
		os.Exit(1)
	}
	fmt.Println("benchguard: all configured benchmarks are within guardrails")
}

func parseConfig(data []byte) (*guardConfig, error) {
	var cfg guardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	switch {
	case len(cfg.Packages) == 0:
		return nil, errors.New("packages must be non-empty")
	case cfg.BenchRegex == "":
		return nil, errors.New("bench_regex must be set")
	case cfg.Count <= 0:
		return nil, errors.New("count must be > 0")
	case cfg.CPU <= 0:
		return nil, errors.New("cpu must be > 0")
	case cfg.Benchtime == "":
		return nil, errors.New("benchtime must be set")
	case len(cfg.Benchmarks) == 0:
		return nil, errors.New("benchmarks must be non-empty")
	}
	return &cfg, nil
}

func runBench(cfg *guardConfig) ([]byte, error) {
	args := []string{
		"test",
		"-run", "^$",
		"-bench", cfg.BenchRegex,
		"-benchmem",
		"-count", strconv.Itoa(cfg.Count),
		"-benchtime", cfg.Benchtime,
		"-cpu", strconv.Itoa(cfg.CPU),
	}
	cmd := exec.Command("go", append(args, cfg.Packages...)...)
	cmd.Env = append(os.Environ(), "GOMAXPROCS=1")

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	fmt.Print(buf.String())
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var benchLineRe = regexp.MustCompile(`^(Benchmark\S+?)(?:-\d+)?\s+\d+\s+([0-9.eE+\-]+)\s+ns/op\s+([0-9.eE+\-]+)\s+B/op\s+([0-9.eE+\-]+)\s+allocs/op$`)

// parseBenchmarkOutput groups -benchmem result rows by benchmark name, with
// the -cpu suffix removed.
func parseBenchmarkOutput(out []byte) (map[string][]sample, error) {
	result := make(map[string][]sample)
	for line := range strings.Lines(string(out)) {
		m := benchLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		var vals [3]float64
		for i := range vals {
			v, err := strconv.ParseFloat(m[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", m[1], err)
			}
			vals[i] = v
		}
		result[m[1]] = append(result[m[1]], sample{NsOp: vals[0], BOp: vals[1], AllocsOp: vals[2]})
	}
	if len(result) == 0 {
		return nil, errors.New("no benchmark rows parsed")
	}
	return result, nil
}

// evaluate compares the median of each guarded benchmark against its limits.
func evaluate(cfg *guardConfig, samples map[string][]sample) []string {
	var violations []string
	names := make([]string, 0, len(cfg.Benchmarks))
	for k := range cfg.Benchmarks {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		guard := cfg.Benchmarks[name]
		rows := samples[name]
		if len(rows) == 0 {
			violations = append(violations, fmt.Sprintf("benchguard: missing benchmark in output: %s", name))
			continue
		}
		m := medianSample(rows)
		fmt.Printf("benchguard: %-34s ns/op=%.1f B/op=%.1f allocs/op=%.1f\n", name, m.NsOp, m.BOp, m.AllocsOp)
		check := func(metric string, measured float64, limit *float64) {
			if limit != nil && measured > *limit {
				violations = append(violations, fmt.Sprintf("benchguard: %s %s regression: measured %.1f > max %.1f", name, metric, measured, *limit))
			}
		}
		check("ns/op", m.NsOp, guard.MaxNsOp)
		check("B/op", m.BOp, guard.MaxBOp)
		check("allocs/op", m.AllocsOp, guard.MaxAllocsOp)
	}
	return violations
}

func medianSample(rows []sample) sample {
	pick := func(f func(sample) float64) float64 {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = f(r)
		}
		return median(vals)
	}
	return sample{
		NsOp:     pick(func(s sample) float64 { return s.NsOp }),
		BOp:      pick(func(s sample) float64 { return s.BOp }),
		AllocsOp: pick(func(s sample) float64 { return s.AllocsOp }),
	}
}

func median(values []float64) float64 {
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "benchguard: "+format+"\n", args...)
	os.Exit(2)
}
