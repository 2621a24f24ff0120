package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/pkg/export"
	"github.com/kacperjurak/thinfilm/pkg/models"
)

// Export formats served by ExportHandler.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler evaluates a design and returns it as a CSV table or an XLSX workbook
type ExportHandler struct {
	processor *processing.Processor
	format    string
}

// NewExportHandler creates an export handler for FormatCSV or FormatXLSX
func NewExportHandler(proc *processing.Processor, format string) *ExportHandler {
	return &ExportHandler{processor: proc, format: format}
}

// ServeHTTP implements the http.Handler interface. Query parameters: sweep
// (csv only) and columns, a comma-separated subset of Rs,Rp,Ts,Tp.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodPost) {
		return
	}

	sweep, err := export.ParseSweep(r.URL.Query().Get("sweep"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var columns []string
	if c := r.URL.Query().Get("columns"); c != "" {
		columns = strings.Split(c, ",")
	}

	req := models.NewEvaluateRequest()
	if !decodeJSON(w, r, &req) {
		return
	}

	res, _, err := h.processor.Evaluate(r.Context(), req.Config)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// render fully before the status line so failures still get a JSON error
	var buf bytes.Buffer
	var contentType string
	switch h.format {
	case FormatXLSX:
		contentType = xlsxContentType
		err = export.WriteXLSX(&buf, req.Summary(), res, columns)
	default:
		contentType = "text/csv"
		err = export.WriteCSV(&buf, sweep.Pick(res), sweep, columns)
	}
	if err != nil {
		log.Printf("❌ Export failed: %v", err)
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	name := export.FileName(req.Layers(), time.Now(), h.format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
