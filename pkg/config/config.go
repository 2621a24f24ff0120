package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/KevinWang15/go-json5"
	"gopkg.in/yaml.v3"

	"github.com/kacperjurak/thinfilm"
)

// ArrayFlags collects repeated float flags, e.g. -target 550:0.9
type ArrayFlags []float64

func (a *ArrayFlags) String() string {
	return "ArrayFlags"
}

func (a *ArrayFlags) Set(value string) error {
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ':' || r == ';' }) {
		val, ok := thinfilm.ParseDecimal(part)
		if !ok {
			return fmt.Errorf("invalid number %q", part)
		}
		*a = append(*a, val)
	}
	return nil
}

// Material is a complex refractive index n - i·k
type Material struct {
	N float64 `json:"n" yaml:"n"`
	K float64 `json:"k" yaml:"k"`
}

func (m Material) Index() complex128 {
	return thinfilm.Index(m.N, m.K)
}

// Config is one snapshot of the stack parameters. It is a value: change a copy,
// never a shared instance.
type Config struct {
	H                Material      `json:"h" yaml:"h"`
	L                Material      `json:"l" yaml:"l"`
	Substrate        Material      `json:"substrate" yaml:"substrate"`
	Superstrate      float64       `json:"superstrate" yaml:"superstrate"`
	DesignWavelength float64       `json:"design_wavelength" yaml:"design_wavelength"`
	Stack            string        `json:"stack" yaml:"stack"`
	Wavelengths      thinfilm.Grid `json:"wavelengths" yaml:"wavelengths"`
	Angles           thinfilm.Grid `json:"angles" yaml:"angles"`
	Incidence        float64       `json:"incidence" yaml:"incidence"`
	FiniteSubstrate  bool          `json:"finite_substrate" yaml:"finite_substrate"`
	Workers          int           `json:"workers" yaml:"workers"`
	Quiet            bool          `json:"quiet" yaml:"quiet"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string `json:"port" yaml:"port"`
	WorkerCount     int    `json:"worker_count" yaml:"worker_count"`
	WebhookURL      string `json:"webhook_url" yaml:"webhook_url"`
	EnableProfiling bool   `json:"enable_profiling" yaml:"enable_profiling"`
	ProfilingPort   string `json:"profiling_port" yaml:"profiling_port"`
	TimingFile      string `json:"timing_file" yaml:"timing_file"`
}

// File is the on-disk layout accepted by Load.
type File struct {
	Stack  Config       `json:"stack" yaml:"stack"`
	Server ServerConfig `json:"server" yaml:"server"`
}

// DefaultConfig returns the reference eleven-layer bandpass design
func DefaultConfig() Config {
	return Config{
		H:                Material{N: 2.25, K: 0.0001},
		L:                Material{N: 1.48, K: 0.0001},
		Substrate:        Material{N: 1.52, K: 0},
		Superstrate:      1.0,
		DesignWavelength: 550,
		Stack:            "1,1,1,1,1,2,1,1,1,1,1",
		Wavelengths:      thinfilm.Grid{Start: 400, Stop: 700, Step: 1},
		Angles:           thinfilm.Grid{Start: 0, Stop: 89, Step: 1},
		Incidence:        0,
	}
}

// DefaultServerConfig returns server configuration with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		WorkerCount:   5,
		ProfilingPort: "6060",
		TimingFile:    "batch_timing_results.csv",
	}
}

// Params converts the snapshot into engine input.
func (c Config) Params() thinfilm.Params {
	return thinfilm.Params{
		NH:               c.H.Index(),
		NL:               c.L.Index(),
		NSub:             c.Substrate.Index(),
		DesignWavelength: c.DesignWavelength,
		Stack:            c.Stack,
		Wavelengths:      c.Wavelengths,
		Angles:           c.Angles,
		Incidence:        c.Incidence,
		Super:            c.Superstrate,
		FiniteSubstrate:  c.FiniteSubstrate,
		Workers:          c.Workers,
	}
}

// Layers counts the QWOT entries of the stack, 0 when it does not parse.
func (c Config) Layers() int {
	factors, err := thinfilm.ParseStackSpec(c.Stack)
	if err != nil {
		return 0
	}
	return len(factors)
}

// Load reads a YAML (.yaml, .yml) or JSON5 (.json, .json5) file on top of the
// defaults; fields missing from the file keep their default value.
func Load(path string) (Config, ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, ServerConfig{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes config bytes; ext selects the format.
func Parse(data []byte, ext string) (Config, ServerConfig, error) {
	f := File{Stack: DefaultConfig(), Server: DefaultServerConfig()}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Config{}, ServerConfig{}, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json", ".json5", "":
		if err := json.Unmarshal(data, &f); err != nil {
			return Config{}, ServerConfig{}, fmt.Errorf("parse json5 config: %w", err)
		}
	default:
		return Config{}, ServerConfig{}, fmt.Errorf("unsupported config format %q", ext)
	}
	return f.Stack, f.Server, nil
}

// Summary flattens the snapshot into ordered label/value pairs for exports.
func (c Config) Summary() [][2]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return [][2]string{
		{"Superstrate index", f(c.Superstrate)},
		{"H index (n)", f(c.H.N)},
		{"H index (k)", f(c.H.K)},
		{"L index (n)", f(c.L.N)},
		{"L index (k)", f(c.L.K)},
		{"Substrate index (n)", f(c.Substrate.N)},
		{"Substrate index (k)", f(c.Substrate.K)},
		{"Design wavelength (nm)", f(c.DesignWavelength)},
		{"Stack (QWOT)", c.Stack},
		{"Layers", strconv.Itoa(c.Layers())},
		{"Spectral start (nm)", f(c.Wavelengths.Start)},
		{"Spectral stop (nm)", f(c.Wavelengths.Stop)},
		{"Spectral step (nm)", f(c.Wavelengths.Step)},
		{"Nominal incidence (deg)", f(c.Incidence)},
		{"Angular start (deg)", f(c.Angles.Start)},
		{"Angular stop (deg)", f(c.Angles.Stop)},
		{"Angular step (deg)", f(c.Angles.Step)},
		{"Finite substrate", strconv.FormatBool(c.FiniteSubstrate)},
	}
}
