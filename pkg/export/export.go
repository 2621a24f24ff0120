// Package export writes evaluated sweeps as CSV tables and XLSX workbooks.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kacperjurak/thinfilm"
)

// Sweep names one of the two series of a thinfilm.Result.
type Sweep string

const (
	Spectral Sweep = "spectral"
	Angular  Sweep = "angular"
)

// ParseSweep accepts "spectral" or "angular", case-insensitively; empty means spectral.
func ParseSweep(text string) (Sweep, error) {
	switch Sweep(strings.ToLower(strings.TrimSpace(text))) {
	case Spectral, "":
		return Spectral, nil
	case Angular:
		return Angular, nil
	}
	return "", fmt.Errorf("unknown sweep %q", text)
}

// XLabel is the header of the abscissa column.
func (s Sweep) XLabel() string {
	if s == Angular {
		return "Angle (deg)"
	}
	return "Wavelength (nm)"
}

// Pick returns the series of r matching s.
func (s Sweep) Pick(r *thinfilm.Result) thinfilm.Series {
	if s == Angular {
		return r.Angular
	}
	return r.Spectral
}

// AllColumns is the default column selection.
var AllColumns = []string{"Rs", "Rp", "Ts", "Tp"}

// Columns normalizes a column selection, dropping unknown and duplicate names.
// An empty selection means all columns.
func Columns(selected []string) []string {
	if len(selected) == 0 {
		return AllColumns
	}
	seen := make(map[string]bool, len(AllColumns))
	for _, c := range selected {
		for _, known := range AllColumns {
			if strings.EqualFold(c, known) {
				seen[known] = true
			}
		}
	}
	out := make([]string, 0, len(AllColumns))
	for _, known := range AllColumns {
		if seen[known] {
			out = append(out, known)
		}
	}
	if len(out) == 0 {
		return AllColumns
	}
	return out
}

func column(s thinfilm.Series, name string) []float64 {
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

// WriteCSV writes the sweep as a table with a header row.
func WriteCSV(w io.Writer, s thinfilm.Series, sweep Sweep, columns []string) error {
	columns = Columns(columns)
	cw := csv.NewWriter(w)

	header := append([]string{sweep.XLabel()}, columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(header))
	for i, x := range s.X {
		record[0] = formatFloat(x)
		for j, name := range columns {
			record[j+1] = formatFloat(column(s, name)[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the default export name: stack_<layers>_layers_<timestamp>.<ext>.
func FileName(layers int, at time.Time, ext string) string {
	return fmt.Sprintf("stack_%d_layers_%s.%s", layers, at.Format("2006-01-02-15-04-05"), ext)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
