package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/pkg/config"
)

// gridFlag parses start:stop:step into a thinfilm.Grid
type gridFlag struct {
	grid *thinfilm.Grid
}

func (g gridFlag) String() string {
	if g.grid == nil {
		return ""
	}
	return fmt.Sprintf("%g:%g:%g", g.grid.Start, g.grid.Stop, g.grid.Step)
}

func (g gridFlag) Set(value string) error {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return errors.New("expected start:stop:step")
	}
	var v [3]float64
	for i, p := range parts {
		f, ok := thinfilm.ParseDecimal(p)
		if !ok {
			return fmt.Errorf("invalid number %q", p)
		}
		v[i] = f
	}
	*g.grid = thinfilm.Grid{Start: v[0], Stop: v[1], Step: v[2]}
	return nil
}

type options struct {
	cfg    config.Config
	server config.ServerConfig

	configPath string
	serve      bool

	csvPath  string
	sweep    string
	xlsxPath string
	pngPath  string
	plotKind string
	columns  string

	fit       bool
	targets   config.ArrayFlags
	method    string
	pol       string
	transmit  bool
	relative  bool
	fitIters  int
	fitMinMSE float64
}

// parseFlags loads the -config file first so its values become the flag
// defaults; explicit flags override the file.
func parseFlags(name string, args []string) (*options, error) {
	o := &options{
		cfg:    config.DefaultConfig(),
		server: config.DefaultServerConfig(),
	}
	if path := configPath(args); path != "" {
		cfg, srv, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		o.cfg, o.server = cfg, srv
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := &o.cfg
	fs.StringVar(&o.configPath, "config", "", "YAML or JSON5 configuration file")

	fs.Float64Var(&c.H.N, "nh", c.H.N, "High-index material n")
	fs.Float64Var(&c.H.K, "kh", c.H.K, "High-index material k")
	fs.Float64Var(&c.L.N, "nl", c.L.N, "Low-index material n")
	fs.Float64Var(&c.L.K, "kl", c.L.K, "Low-index material k")
	fs.Float64Var(&c.Substrate.N, "nsub", c.Substrate.N, "Substrate n")
	fs.Float64Var(&c.Substrate.K, "ksub", c.Substrate.K, "Substrate k")
	fs.Float64Var(&c.Superstrate, "super", c.Superstrate, "Superstrate index")
	fs.Float64Var(&c.DesignWavelength, "lambda0", c.DesignWavelength, "Design wavelength (nm)")
	fs.StringVar(&c.Stack, "stack", c.Stack, "QWOT factors, layer 1 on the substrate (e.g. 1,1,2,1)")
	fs.Var(gridFlag{&c.Wavelengths}, "wl", "Spectral range start:stop:step (nm)")
	fs.Var(gridFlag{&c.Angles}, "angles", "Angular range start:stop:step (deg)")
	fs.Float64Var(&c.Incidence, "incidence", c.Incidence, "Nominal incidence angle (deg)")
	fs.BoolVar(&c.FiniteSubstrate, "finite", c.FiniteSubstrate, "Include the incoherent substrate back face")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Sweep goroutines (0 = number of CPUs)")
	fs.BoolVar(&c.Quiet, "quiet", c.Quiet, "Suppress verbose output")

	fs.BoolVar(&o.serve, "server", false, "Start HTTP server")
	fs.StringVar(&o.server.Port, "port", o.server.Port, "HTTP port")
	fs.IntVar(&o.server.WorkerCount, "pool", o.server.WorkerCount, "Batch worker count")
	fs.StringVar(&o.server.WebhookURL, "webhook", o.server.WebhookURL, "Webhook URL for batch results")
	fs.BoolVar(&o.server.EnableProfiling, "profile", o.server.EnableProfiling, "Enable pprof profiling")
	fs.StringVar(&o.server.TimingFile, "timing", o.server.TimingFile, "Batch timing CSV (empty disables)")

	fs.StringVar(&o.csvPath, "csv", "", "Write the selected sweep as CSV")
	fs.StringVar(&o.sweep, "sweep", "spectral", "Sweep for -csv: spectral or angular")
	fs.StringVar(&o.xlsxPath, "xlsx", "", "Write an XLSX workbook")
	fs.StringVar(&o.pngPath, "png", "", "Write a PNG chart")
	fs.StringVar(&o.plotKind, "plot", "spectral", "Chart for -png: spectral, angular or profile")
	fs.StringVar(&o.columns, "columns", "", "Columns to export or plot, subset of Rs,Rp,Ts,Tp")

	fs.BoolVar(&o.fit, "fit", false, "Refine the QWOT factors towards -target values before evaluating")
	fs.Var(&o.targets, "target", "Fit target wavelength:value, repeatable")
	fs.StringVar(&o.method, "method", "nelder-mead", "Fit method: nelder-mead, lm, gd, lbfgs, newton or all")
	fs.StringVar(&o.pol, "pol", "", "Fit polarization s or p (default unpolarized)")
	fs.BoolVar(&o.transmit, "transmit", false, "Fit transmittance instead of reflectance")
	fs.BoolVar(&o.relative, "relative", false, "Weight fit residuals relative to the target")
	fs.IntVar(&o.fitIters, "restarts", 0, "Fit restarts (0 = default)")
	fs.Float64Var(&o.fitMinMSE, "min-mse", 0, "Stop fitting below this mean squared error (0 = default)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if len(o.targets)%2 != 0 {
		return nil, errors.New("-target expects wavelength:value pairs")
	}
	if o.fit && len(o.targets) == 0 {
		return nil, errors.New("-fit requires at least one -target")
	}
	return o, nil
}

func (o *options) fitTargets() []thinfilm.Target {
	targets := make([]thinfilm.Target, 0, len(o.targets)/2)
	for i := 0; i+1 < len(o.targets); i += 2 {
		targets = append(targets, thinfilm.Target{Wavelength: o.targets[i], Value: o.targets[i+1]})
	}
	return targets
}

func (o *options) columnList() []string {
	if o.columns == "" {
		return nil
	}
	return strings.Split(o.columns, ",")
}

func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if len(name) == len(a) {
			continue
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(name, "config=") {
			return strings.TrimPrefix(name, "config=")
		}
	}
	return ""
}
