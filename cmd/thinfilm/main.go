package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"gonum.org/v1/plot"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/pkg/export"
	"github.com/kacperjurak/thinfilm/pkg/profiling"
	"github.com/kacperjurak/thinfilm/pkg/render"
	"github.com/kacperjurak/thinfilm/pkg/server"
)

func main() {
	opts, err := parseFlags(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	if opts.serve {
		srv := server.New(server.Options{Config: &opts.cfg, ServerConfig: &opts.server})
		done := setupGracefulShutdown(srv)
		if err := srv.Start(); err != nil {
			log.Fatal("❌ Failed to start server:", err)
		}
		<-done
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run evaluates the design once, after an optional fit, and writes the requested outputs.
func run(ctx context.Context, o *options, out io.Writer) error {
	proc := processing.NewProcessor(o.cfg.Quiet)
	cfg := o.cfg

	if o.fit {
		fitted, res, err := proc.Fit(ctx, cfg, processing.FitSettings{
			Targets:       o.fitTargets(),
			Method:        o.method,
			Polarization:  o.pol,
			Transmit:      o.transmit,
			Relative:      o.relative,
			MinFunc:       o.fitMinMSE,
			MaxIterations: o.fitIters,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Fitted stack: %s (%s, MSE %.6e)\n", fitted.Stack, res.Method, res.Min)
		cfg = fitted
	}

	prof := profiling.NewSweepProfiler("evaluate")
	res, thicknesses, err := proc.Evaluate(ctx, cfg)
	if err != nil {
		return err
	}
	if !cfg.Quiet {
		prof.Finish(2 * (res.Spectral.Len() + res.Angular.Len()))
	}

	stack := thinfilm.NewStack(thicknesses, cfg.H.Index(), cfg.L.Index(), cfg.Superstrate, cfg.Substrate.Index())
	printLayers(out, stack)

	if o.csvPath != "" {
		sweep, err := export.ParseSweep(o.sweep)
		if err != nil {
			return err
		}
		if err := writeFile(o.csvPath, func(w io.Writer) error {
			return export.WriteCSV(w, sweep.Pick(res), sweep, o.columnList())
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", o.csvPath)
	}
	if o.xlsxPath != "" {
		if err := writeFile(o.xlsxPath, func(w io.Writer) error {
			return export.WriteXLSX(w, cfg.Summary(), res, o.columnList())
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", o.xlsxPath)
	}
	if o.pngPath != "" {
		p, err := chart(o.plotKind, res, stack, o.columnList())
		if err != nil {
			return err
		}
		if err := writeFile(o.pngPath, func(w io.Writer) error {
			return render.WritePNG(w, p, 0, 0)
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", o.pngPath)
	}
	return nil
}

func chart(kind string, res *thinfilm.Result, stack *thinfilm.Stack, columns []string) (*plot.Plot, error) {
	if kind == "profile" {
		return render.Profile(thinfilm.Profile(stack))
	}
	sweep, err := export.ParseSweep(kind)
	if err != nil {
		return nil, err
	}
	return render.Sweep(sweep.Pick(res), sweep, columns)
}

// printLayers lists the layers from the substrate up.
func printLayers(out io.Writer, s *thinfilm.Stack) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Layer\tMaterial\tn\tk\tThickness (nm)\t")
	total := 0.0
	for i, n := range s.Indices {
		material := "H"
		if i%2 == 1 {
			material = "L"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4g\t%.3f\t\n", i+1, material, real(n), -imag(n), s.Thicknesses[i])
		total += s.Thicknesses[i]
	}
	tw.Flush()
	fmt.Fprintf(out, "Total thickness: %.3f nm\n", total)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// setupGracefulShutdown shuts srv down on SIGINT or SIGTERM; the returned
// channel closes once the shutdown has finished.
func setupGracefulShutdown(srv *server.Server) <-chan struct{} {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-c
		log.Println("🛑 Received shutdown signal...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()
	return done
}
