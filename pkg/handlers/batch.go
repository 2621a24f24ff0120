package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kacperjurak/thinfilm/internal/utils"
	"github.com/kacperjurak/thinfilm/pkg/models"
	"github.com/kacperjurak/thinfilm/pkg/worker"
)

// BatchHandler evaluates many designs asynchronously through the worker pool
type BatchHandler struct {
	workerPool *worker.Pool
	timingFile string
	quiet      bool

	// one batch at a time reads the shared results channel
	collect sync.Mutex
	done    sync.WaitGroup
}

// NewBatchHandler creates a new batch handler. An empty timingFile disables
// the timing log.
func NewBatchHandler(pool *worker.Pool, timingFile string, quiet bool) *BatchHandler {
	return &BatchHandler{
		workerPool: pool,
		timingFile: timingFile,
		quiet:      quiet,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *BatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !preflight(w, r, http.MethodPost) {
		return
	}

	var batch models.BatchRequest
	if !decodeJSON(w, r, &batch) {
		return
	}

	if len(batch.Designs) == 0 {
		writeError(w, "No designs provided in batch", http.StatusBadRequest)
		return
	}
	if batch.BatchID == "" {
		batch.BatchID = utils.NewID("batch")
	}

	log.Printf("🔄 Batch processing started - ID: %s, Designs: %d", batch.BatchID, len(batch.Designs))

	h.done.Add(1)
	go func() {
		defer h.done.Done()
		h.processBatch(context.Background(), batch)
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":  true,
		"batch_id": batch.BatchID,
		"designs":  len(batch.Designs),
		"message":  "Batch processing started with worker pool",
	})
}

// Wait blocks until every accepted batch has been collected.
func (h *BatchHandler) Wait() {
	h.done.Wait()
}

func (h *BatchHandler) processBatch(ctx context.Context, batch models.BatchRequest) []models.SweepTiming {
	h.collect.Lock()
	defer h.collect.Unlock()

	batchStart := time.Now()
	timings := make([]models.SweepTiming, len(batch.Designs))

	// submit from a goroutine: the pool buffers fewer jobs than a batch may hold
	go func() {
		for i, item := range batch.Designs {
			h.workerPool.SubmitJob(models.WorkItem{
				ID:        i,
				RequestID: utils.NewID("eval"),
				BatchID:   batch.BatchID,
				Iteration: item.Iteration,
				Config:    item.Config,
				StartTime: time.Now(),
			})
		}
	}()

	for received := 0; received < len(batch.Designs); received++ {
		result, ok := h.workerPool.WaitResult(ctx)
		if !ok {
			log.Printf("⚠️  Batch %s interrupted after %d of %d designs", batch.BatchID, received, len(batch.Designs))
			return timings[:received]
		}
		h.processResult(result, timings)
	}

	total := time.Since(batchStart)
	h.saveTimingResults(batch.BatchID, total, timings)
	log.Printf("🎉 Batch processing completed - ID: %s, Total time: %v", batch.BatchID, total)
	return timings
}

func (h *BatchHandler) processResult(result models.WorkResult, timings []models.SweepTiming) {
	samples := 0
	item := models.WebhookItem{
		RequestID:   fmt.Sprintf("%s_iter_%03d", result.RequestID, result.Iteration),
		BatchID:     result.BatchID,
		Iteration:   result.Iteration,
		Stack:       result.Stack,
		Thicknesses: result.Thicknesses,
		Error:       result.Error,
	}
	if result.Result != nil {
		samples = result.Result.Spectral.Len() + result.Result.Angular.Len()
		item.Spectral = result.Result.Spectral
	}

	timings[result.ID] = models.SweepTiming{
		Iteration:      result.Iteration,
		ProcessingTime: result.ProcessingTime,
		Samples:        samples,
		Success:        result.Success,
		Stack:          result.Stack,
	}
	h.workerPool.QueueWebhook(item)

	if !h.quiet {
		if result.Success {
			log.Printf("✅ Processed design iteration %d", result.Iteration)
		} else {
			log.Printf("❌ Design iteration %d failed: %s", result.Iteration, result.Error)
		}
	}
}

// saveTimingResults appends one summary row per batch to the timing CSV
func (h *BatchHandler) saveTimingResults(batchID string, totalTime time.Duration, timings []models.SweepTiming) {
	if h.timingFile == "" || len(timings) == 0 {
		return
	}

	var writeHeader bool
	if _, err := os.Stat(h.timingFile); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(h.timingFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Error opening timing file: %v", err)
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if writeHeader {
		header := []string{
			"Timestamp",
			"BatchID",
			"TotalDesigns",
			"Workers",
			"TotalBatchTime_ms",
			"AvgDesignTime_ms",
			"MinDesignTime_ms",
			"MaxDesignTime_ms",
			"SuccessRate",
			"TotalSamples",
			"SamplesPerSecond",
			"EfficiencyScore",
		}
		if err := writer.Write(header); err != nil {
			log.Printf("Error writing timing header: %v", err)
			return
		}
	}

	var sum time.Duration
	minTime, maxTime := time.Duration(1<<62), time.Duration(0)
	successful, samples := 0, 0
	for _, t := range timings {
		sum += t.ProcessingTime
		minTime = min(minTime, t.ProcessingTime)
		maxTime = max(maxTime, t.ProcessingTime)
		if t.Success {
			successful++
		}
		samples += t.Samples
	}

	n := len(timings)
	avg := sum / time.Duration(n)
	concurrency := h.workerPool.Workers()
	// 1.0 means the workers were busy for the whole batch
	efficiency := sum.Seconds() / totalTime.Seconds() / float64(concurrency)

	ms := func(d time.Duration) string { return fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1000000.0) }
	record := []string{
		time.Now().Format(time.RFC3339),
		batchID,
		fmt.Sprintf("%d", n),
		fmt.Sprintf("%d", concurrency),
		ms(totalTime),
		ms(avg),
		ms(minTime),
		ms(maxTime),
		fmt.Sprintf("%.1f", float64(successful)/float64(n)*100),
		fmt.Sprintf("%d", samples),
		fmt.Sprintf("%.0f", float64(samples)/totalTime.Seconds()),
		fmt.Sprintf("%.3f", efficiency),
	}
	if err := writer.Write(record); err != nil {
		log.Printf("Error writing timing record: %v", err)
		return
	}

	log.Printf("📊 Timing saved: %d designs, %d workers, %s ms total, %.3f efficiency",
		n, concurrency, ms(totalTime), efficiency)
}
