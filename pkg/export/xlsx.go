package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kacperjurak/thinfilm"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	ParametersSheet = "Parameters"
	SpectralSheet   = "Spectral"
	AngularSheet    = "Angular"
)

// WriteXLSX writes a workbook with the parameter block and one sheet per
// non-empty sweep. Columns are sized to their widest cell.
func WriteXLSX(w io.Writer, params [][2]string, res *thinfilm.Result, columns []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ParametersSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	rows := make([][]interface{}, 0, len(params)+1)
	rows = append(rows, []interface{}{"Parameter", "Value"})
	for _, p := range params {
		rows = append(rows, []interface{}{p[0], p[1]})
	}
	if err := writeSheet(f, ParametersSheet, rows); err != nil {
		return err
	}

	columns = Columns(columns)
	for _, sheet := range []struct {
		name  string
		sweep Sweep
	}{{SpectralSheet, Spectral}, {AngularSheet, Angular}} {
		s := sheet.sweep.Pick(res)
		if s.Len() == 0 {
			continue
		}
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := writeSheet(f, sheet.name, seriesRows(s, sheet.sweep, columns)); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func seriesRows(s thinfilm.Series, sweep Sweep, columns []string) [][]interface{} {
	rows := make([][]interface{}, 0, s.Len()+1)
	header := []interface{}{sweep.XLabel()}
	for _, c := range columns {
		header = append(header, c)
	}
	rows = append(rows, header)
	for i, x := range s.X {
		row := make([]interface{}, 0, len(columns)+1)
		row = append(row, x)
		for _, c := range columns {
			row = append(row, column(s, c)[i])
		}
		rows = append(rows, row)
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	var widths []int
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("xlsx %s: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx %s row %d: %w", sheet, r+1, err)
		}
		for c, v := range row {
			if c >= len(widths) {
				widths = append(widths, 0)
			}
			widths[c] = max(widths[c], len(fmt.Sprint(v)))
		}
	}
	for c, width := range widths {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return fmt.Errorf("xlsx %s: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, name, name, float64(width+2)); err != nil {
			return fmt.Errorf("xlsx %s: %w", sheet, err)
		}
	}
	return nil
}
