package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"gonum.org/v1/plot"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/pkg/export"
	"github.com/kacperjurak/thinfilm/pkg/models"
	"github.com/kacperjurak/thinfilm/pkg/render"
)

// Plot kinds, the last path segment of /plot/{kind}.
const (
	PlotSpectral = "spectral"
	PlotAngular  = "angular"
	PlotProfile  = "profile"
)

const maxPlotPixels = 4000

// PlotHandler evaluates a design and returns a PNG chart
type PlotHandler struct {
	processor *processing.Processor
}

// NewPlotHandler creates a new plot handler
func NewPlotHandler(proc *processing.Processor) *PlotHandler {
	return &PlotHandler{processor: proc}
}

// ServeHTTP implements the http.Handler interface. Query parameters: width,
// height (pixels) and columns.
func (h *PlotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodPost) {
		return
	}

	kind := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if kind != PlotSpectral && kind != PlotAngular && kind != PlotProfile {
		writeError(w, "unknown plot "+strconv.Quote(kind), http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("width"))
	height, _ := strconv.Atoi(q.Get("height"))
	width, height = min(width, maxPlotPixels), min(height, maxPlotPixels)
	var columns []string
	if c := q.Get("columns"); c != "" {
		columns = strings.Split(c, ",")
	}

	req := models.NewEvaluateRequest()
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		p   *plot.Plot
		err error
	)
	if kind == PlotProfile {
		var stack *thinfilm.Stack
		stack, err = thinfilm.Prepare(req.Params())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		p, err = render.Profile(thinfilm.Profile(stack))
	} else {
		res, _, evalErr := h.processor.Evaluate(r.Context(), req.Config)
		if evalErr != nil {
			writeEngineError(w, evalErr)
			return
		}
		sweep := export.Sweep(kind)
		p, err = render.Sweep(sweep.Pick(res), sweep, columns)
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, p, width, height); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
