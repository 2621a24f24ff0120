package webhook

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/kacperjurak/thinfilm/pkg/models"
)

var seriesPool = sync.Pool{
	New: func() interface{} {
		return &models.BufferSet{
			Rs: make([]float64, 0, 512),
			Rp: make([]float64, 0, 512),
			Ts: make([]float64, 0, 512),
			Tp: make([]float64, 0, 512),
		}
	},
}

// BuildPayload converts a webhook task into its JSON payload. Non-finite
// samples become 0 so the payload always encodes; the returned release func
// hands the scratch buffers back and must be called once the payload is encoded.
func BuildPayload(item models.WebhookItem) (models.WebhookResponse, func()) {
	buffers := seriesPool.Get().(*models.BufferSet)
	s := item.Spectral

	buffers.Rs = sanitizeInto(buffers.Rs[:0], s.Rs, "Rs", item.RequestID)
	buffers.Rp = sanitizeInto(buffers.Rp[:0], s.Rp, "Rp", item.RequestID)
	buffers.Ts = sanitizeInto(buffers.Ts[:0], s.Ts, "Ts", item.RequestID)
	buffers.Tp = sanitizeInto(buffers.Tp[:0], s.Tp, "Tp", item.RequestID)

	payload := models.WebhookResponse{
		ID:          item.RequestID,
		BatchID:     item.BatchID,
		Iteration:   item.Iteration,
		Time:        time.Now().Format(time.RFC3339Nano),
		Stack:       item.Stack,
		Thicknesses: item.Thicknesses,
		Wavelengths: s.X,
		Rs:          buffers.Rs,
		Rp:          buffers.Rp,
		Ts:          buffers.Ts,
		Tp:          buffers.Tp,
		Error:       item.Error,
	}
	return payload, func() { seriesPool.Put(buffers) }
}

func sanitizeInto(dst, src []float64, name, id string) []float64 {
	replaced := 0
	for _, v := range src {
		v2 := sanitizeFloat(v)
		if v2 != v {
			replaced++
		}
		dst = append(dst, v2)
	}
	if replaced > 0 {
		log.Printf("Warning: %d non-finite %s samples set to 0.0 for %s", replaced, name, id)
	}
	return dst
}

// sanitizeFloat cleans float64 values for JSON compatibility
func sanitizeFloat(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0.0
	}
	return value
}
