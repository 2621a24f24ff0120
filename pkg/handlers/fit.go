package handlers

import (
	"log"
	"net/http"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/internal/utils"
	"github.com/kacperjurak/thinfilm/pkg/config"
	"github.com/kacperjurak/thinfilm/pkg/models"
)

// FitHandler refines the QWOT factors of a design towards target values
type FitHandler struct {
	processor *processing.Processor
	quiet     bool
}

// NewFitHandler creates a new fit handler
func NewFitHandler(proc *processing.Processor, quiet bool) *FitHandler {
	return &FitHandler{processor: proc, quiet: quiet}
}

// ServeHTTP implements the http.Handler interface
func (h *FitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodPost) {
		return
	}

	req := models.FitRequest{Config: config.DefaultConfig()}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Targets) == 0 {
		writeError(w, "No targets provided", http.StatusBadRequest)
		return
	}

	requestID := utils.NewID("fit")
	if !h.quiet {
		log.Printf("Fit request received - ID: %s, Stack: %q, Targets: %d, Method: %s",
			requestID, req.Stack, len(req.Targets), req.Method)
	}

	fitted, res, err := h.processor.Fit(r.Context(), req.Config, processing.FitSettings{
		Targets:       req.Targets,
		Method:        req.Method,
		Polarization:  req.Polarization,
		Transmit:      req.Transmit,
		Relative:      req.Relative,
		MinFunc:       req.MinFunc,
		MaxIterations: req.MaxIterations,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	stack, err := thinfilm.Prepare(fitted.Params())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.FitResponse{
		ID:          requestID,
		Stack:       fitted.Stack,
		Thicknesses: stack.Thicknesses,
		Result:      res,
	})
}
