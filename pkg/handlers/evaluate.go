package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/internal/utils"
	"github.com/kacperjurak/thinfilm/pkg/models"
)

// EvaluateHandler runs one evaluation synchronously
type EvaluateHandler struct {
	processor *processing.Processor
	quiet     bool
}

// NewEvaluateHandler creates a new evaluate handler
func NewEvaluateHandler(proc *processing.Processor, quiet bool) *EvaluateHandler {
	return &EvaluateHandler{processor: proc, quiet: quiet}
}

// ServeHTTP implements the http.Handler interface
func (h *EvaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodPost) {
		return
	}

	req := models.NewEvaluateRequest()
	if !decodeJSON(w, r, &req) {
		return
	}

	requestID := utils.NewID("eval")
	if !h.quiet {
		log.Printf("HTTP Request received - ID: %s, Stack: %q", requestID, req.Stack)
	}

	start := time.Now()
	res, thicknesses, err := h.processor.Evaluate(r.Context(), req.Config)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := models.EvaluateResponse{
		ID:          requestID,
		Thicknesses: thicknesses,
		Spectral:    res.Spectral,
		Angular:     res.Angular,
		DurationMs:  float64(time.Since(start).Microseconds()) / 1000,
	}
	if req.IncludeProfile {
		stack := thinfilm.NewStack(thicknesses, req.H.Index(), req.L.Index(), req.Superstrate, req.Substrate.Index())
		prof := thinfilm.Profile(stack)
		resp.Profile = &prof
	}
	writeJSON(w, http.StatusOK, resp)
}
