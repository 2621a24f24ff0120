package models

import (
	"encoding/json"
	"time"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/pkg/config"
)

// EvaluateRequest is the body of /evaluate, /export/* and /plot/*. Fields left
// out of the JSON keep the defaults of config.DefaultConfig.
type EvaluateRequest struct {
	config.Config
	IncludeProfile bool `json:"include_profile" yaml:"include_profile"`
}

// NewEvaluateRequest returns a request pre-filled with the default design, ready
// to be decoded over.
func NewEvaluateRequest() EvaluateRequest {
	return EvaluateRequest{Config: config.DefaultConfig()}
}

// EvaluateResponse carries both sweeps and the physical thicknesses (nm) in stack order.
type EvaluateResponse struct {
	ID          string                 `json:"id"`
	Thicknesses []float64              `json:"thicknesses"`
	Spectral    thinfilm.Series        `json:"spectral"`
	Angular     thinfilm.Series        `json:"angular"`
	Profile     *thinfilm.IndexProfile `json:"profile,omitempty"`
	DurationMs  float64                `json:"duration_ms"`
}

// BatchItem is one design of a batch with its iteration number
type BatchItem struct {
	Config    config.Config `json:"config"`
	Iteration int           `json:"iteration"`
}

// UnmarshalJSON decodes over the default design, like EvaluateRequest.
func (b *BatchItem) UnmarshalJSON(data []byte) error {
	type plain BatchItem
	item := plain{Config: config.DefaultConfig()}
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*b = BatchItem(item)
	return nil
}

// BatchRequest represents a batch of stack designs
type BatchRequest struct {
	BatchID   string      `json:"batch_id"`
	Timestamp time.Time   `json:"timestamp"`
	Designs   []BatchItem `json:"designs"`
}

// FitRequest is the body of /fit.
type FitRequest struct {
	config.Config
	Targets       []thinfilm.Target `json:"targets"`
	Method        string            `json:"method"`
	Polarization  string            `json:"polarization"` // "s", "p" or empty for unpolarized
	Transmit      bool              `json:"transmit"`
	Relative      bool              `json:"relative"` // MODULUS weighting
	MinFunc       float64           `json:"min_func"`
	MaxIterations int               `json:"max_iterations"`
}

// FitResponse carries the refined design.
type FitResponse struct {
	ID          string             `json:"id"`
	Stack       string             `json:"stack"`
	Thicknesses []float64          `json:"thicknesses"`
	Result      thinfilm.FitResult `json:"result"`
}

// WorkItem represents a single evaluation task
type WorkItem struct {
	ID        int
	RequestID string
	BatchID   string
	Iteration int
	Config    config.Config
	StartTime time.Time
}

// WorkResult contains the result of one evaluation
type WorkResult struct {
	ID             int
	RequestID      string
	BatchID        string
	Iteration      int
	Result         *thinfilm.Result
	Thicknesses    []float64
	ProcessingTime time.Duration
	Success        bool
	Error          string
	Stack          string
}

// WebhookItem represents a webhook task
type WebhookItem struct {
	RequestID   string
	BatchID     string
	Iteration   int
	Stack       string
	Thicknesses []float64
	Spectral    thinfilm.Series
	Error       string
}

// WebhookResponse represents the webhook payload structure
type WebhookResponse struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batch_id,omitempty"`
	Iteration   int       `json:"iteration"`
	Time        string    `json:"time"`
	Stack       string    `json:"stack"`
	Thicknesses []float64 `json:"thicknesses"`
	Wavelengths []float64 `json:"wavelengths"`
	Rs          []float64 `json:"rs"`
	Rp          []float64 `json:"rp"`
	Ts          []float64 `json:"ts"`
	Tp          []float64 `json:"tp"`
	Error       string    `json:"error,omitempty"`
}

// SweepTiming tracks performance metrics for one design of a batch
type SweepTiming struct {
	Iteration      int           `json:"iteration"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
	Samples        int           `json:"samples"`
	Success        bool          `json:"success"`
	Stack          string        `json:"stack"`
}

// BufferSet holds reusable scratch slices for sanitising webhook payloads
type BufferSet struct {
	Rs []float64
	Rp []float64
	Ts []float64
	Tp []float64
}

// SessionResponse reports the published state of the interactive session.
type SessionResponse struct {
	Generation  uint64          `json:"generation"`
	Config      config.Config   `json:"config"`
	Thicknesses []float64       `json:"thicknesses"`
	Spectral    thinfilm.Series `json:"spectral"`
	Angular     thinfilm.Series `json:"angular"`
	CanUndo     bool            `json:"can_undo"`
	CanRedo     bool            `json:"can_redo"`
	Superseded  bool            `json:"superseded,omitempty"`
}
