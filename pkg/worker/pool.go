package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/pkg/config"
	"github.com/kacperjurak/thinfilm/pkg/models"
)

// Pool runs batch evaluations on a fixed set of workers
type Pool struct {
	jobs         chan models.WorkItem
	results      chan models.WorkResult
	webhookQueue chan models.WebhookItem
	workers      int
	processor    ProcessorFunc
	sender       Sender
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	sends        sync.WaitGroup
}

// ProcessorFunc evaluates one design
type ProcessorFunc func(ctx context.Context, cfg config.Config) (*thinfilm.Result, []float64, error)

// Sender delivers webhook payloads; *webhook.Client implements it.
type Sender interface {
	Send(ctx context.Context, item models.WebhookItem) error
}

// Options holds configuration for creating a new worker pool
type Options struct {
	Workers   int
	Processor ProcessorFunc
	Sender    Sender
}

// New creates a new worker pool with specified configuration
func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &Pool{
		jobs:         make(chan models.WorkItem, opts.Workers*2),
		results:      make(chan models.WorkResult, opts.Workers*2),
		webhookQueue: make(chan models.WebhookItem, opts.Workers*4),
		workers:      opts.Workers,
		processor:    opts.Processor,
		sender:       opts.Sender,
		ctx:          ctx,
		cancel:       cancel,
	}

	pool.start()
	return pool
}

// Workers returns the number of evaluation workers.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.wg.Add(1)
	go p.webhookProcessor()

	log.Printf("🔧 Worker pool started with %d workers", p.workers)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobs:
			result := p.processJob(job)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) processJob(job models.WorkItem) (result models.WorkResult) {
	start := time.Now()
	// a panicking design fails its own job, not the server
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Job %s panicked: %v", job.ID, r)
			result = models.WorkResult{
				ID:             job.ID,
				RequestID:      job.RequestID,
				BatchID:        job.BatchID,
				Iteration:      job.Iteration,
				ProcessingTime: time.Since(start),
				Error:          fmt.Sprintf("evaluation panicked: %v", r),
				Stack:          job.Config.Stack,
			}
		}
	}()
	res, thicknesses, err := p.processor(p.ctx, job.Config)

	result = models.WorkResult{
		ID:             job.ID,
		RequestID:      job.RequestID,
		BatchID:        job.BatchID,
		Iteration:      job.Iteration,
		Result:         res,
		Thicknesses:    thicknesses,
		ProcessingTime: time.Since(start),
		Success:        err == nil,
		Stack:          job.Config.Stack,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func (p *Pool) webhookProcessor() {
	defer p.wg.Done()

	for {
		select {
		case item := <-p.webhookQueue:
			// sending must not hold up the queue
			p.sends.Add(1)
			go p.sendWebhook(item)

		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) sendWebhook(item models.WebhookItem) {
	defer p.sends.Done()
	if p.sender == nil {
		return
	}
	if err := p.sender.Send(p.ctx, item); err != nil {
		log.Printf("❌ Webhook failed for %s: %v", item.RequestID, err)
	}
}

// SubmitJob submits a job to the worker pool
func (p *Pool) SubmitJob(job models.WorkItem) {
	select {
	case p.jobs <- job:
	default:
		log.Printf("⚠️  Worker pool jobs channel full, job may be delayed")
		select {
		case p.jobs <- job:
		case <-p.ctx.Done():
		}
	}
}

// GetResult retrieves a result from the worker pool (non-blocking)
func (p *Pool) GetResult() (models.WorkResult, bool) {
	select {
	case result := <-p.results:
		return result, true
	default:
		return models.WorkResult{}, false
	}
}

// WaitResult blocks until a result is available or ctx ends.
func (p *Pool) WaitResult(ctx context.Context) (models.WorkResult, bool) {
	select {
	case result := <-p.results:
		return result, true
	case <-ctx.Done():
		return models.WorkResult{}, false
	case <-p.ctx.Done():
		return models.WorkResult{}, false
	}
}

// QueueWebhook queues a webhook for async processing
func (p *Pool) QueueWebhook(item models.WebhookItem) {
	select {
	case p.webhookQueue <- item:
	default:
		log.Printf("⚠️  Webhook queue full, dropping webhook for %s", item.RequestID)
	}
}

// Shutdown stops the workers and cancels evaluations and webhooks in flight
func (p *Pool) Shutdown() {
	log.Printf("🛑 Shutting down worker pool...")
	p.cancel()
	p.wg.Wait()
	p.sends.Wait()
	log.Printf("✅ Worker pool shutdown complete")
}
