// Package render draws sweeps and index profiles as PNG images with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/pkg/export"
)

var ErrEmpty = errors.New("nothing to plot")

const dpi = 96

// Default image size in pixels.
const (
	DefaultWidth  = 1000
	DefaultHeight = 500
)

var palette = map[string]color.Color{
	"Rs": color.RGBA{R: 0, G: 90, B: 200, A: 255},
	"Rp": color.RGBA{R: 0, G: 170, B: 230, A: 255},
	"Ts": color.RGBA{R: 200, G: 30, B: 30, A: 255},
	"Tp": color.RGBA{R: 240, G: 130, B: 40, A: 255},
}

// StepTicks places ticks at fixed multiples of Step.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	if t.Step <= 0 {
		return plot.DefaultTicks{}.Ticks(min, max)
	}
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max+t.Step*1e-9; v += t.Step {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(t.Format, v)})
	}
	return ticks
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = xLabel
	p.X.Label.TextStyle.Font.Size = vg.Points(11)
	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(11)
	p.X.Tick.Label.Font.Size = vg.Points(9)
	p.Y.Tick.Label.Font.Size = vg.Points(9)
	p.Add(plotter.NewGrid())
	return p
}

// Sweep plots the selected R/T columns of one series against its abscissa.
func Sweep(s thinfilm.Series, sweep export.Sweep, columns []string) (*plot.Plot, error) {
	if s.Len() == 0 {
		return nil, ErrEmpty
	}
	var title string
	if sweep == export.Angular {
		title = fmt.Sprintf("Angular response at %g nm", s.Fixed)
	} else {
		title = fmt.Sprintf("Spectral response at %g deg", s.Fixed)
	}
	p := newPlot(title, sweep.XLabel(), "Intensity")
	p.Y.Min = 0
	p.Y.Max = 1.05
	p.Y.Tick.Marker = StepTicks{Step: 0.1, Format: "%.1f"}
	p.Legend.Top = true

	for _, name := range export.Columns(columns) {
		pts := make(plotter.XYs, s.Len())
		values := pick(s, name)
		for i, x := range s.X {
			pts[i].X = x
			pts[i].Y = values[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", name, err)
		}
		line.Color = palette[name]
		line.Width = vg.Points(1.5)
		if name == "Rp" || name == "Tp" {
			line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p, nil
}

func pick(s thinfilm.Series, name string) []float64 {
	switch name {
	case "Rs":
		return s.Rs
	case "Rp":
		return s.Rp
	case "Ts":
		return s.Ts
	}
	return s.Tp
}

// Profile plots the real index against depth with dashed layer boundaries.
func Profile(prof thinfilm.IndexProfile) (*plot.Plot, error) {
	if len(prof.Depth) == 0 {
		return nil, ErrEmpty
	}
	p := newPlot(fmt.Sprintf("Index profile (%d layers, %.1f nm)", len(prof.Layers), prof.Total),
		"Depth (nm)", "n")
	pad := 0.1 * math.Max(prof.MaxN-prof.MinN, 0.1)
	p.Y.Min = prof.MinN - pad
	p.Y.Max = prof.MaxN + pad

	pts := make(plotter.XYs, len(prof.Depth))
	for i := range prof.Depth {
		pts[i].X = prof.Depth[i]
		pts[i].Y = prof.N[i]
	}
	step, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("plot profile: %w", err)
	}
	step.Width = vg.Points(1.5)
	step.Color = color.RGBA{R: 0, G: 90, B: 200, A: 255}
	p.Add(step)

	labels := plotter.XYLabels{}
	for _, l := range prof.Layers {
		boundary, err := plotter.NewLine(plotter.XYs{{X: l.Bottom, Y: p.Y.Min}, {X: l.Bottom, Y: p.Y.Max}})
		if err != nil {
			return nil, fmt.Errorf("plot boundary %s: %w", l.Label, err)
		}
		boundary.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		boundary.Color = color.Gray{Y: 160}
		p.Add(boundary)

		labels.XYs = append(labels.XYs, plotter.XY{X: (l.Top + l.Bottom) / 2, Y: l.Index + pad/2})
		labels.Labels = append(labels.Labels, l.Label)
	}
	if len(labels.Labels) > 0 {
		lbl, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("plot labels: %w", err)
		}
		p.Add(lbl)
	}
	return p, nil
}

// WritePNG renders p at wPx×hPx pixels.
func WritePNG(w io.Writer, p *plot.Plot, wPx, hPx int) error {
	if wPx <= 0 {
		wPx = DefaultWidth
	}
	if hPx <= 0 {
		hPx = DefaultHeight
	}
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
