// Package worker runs document processing jobs on a small elastic pool.
// The pool grows one worker per burst of queued requests up to a cap and
// shrinks again as workers sit idle.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/internal/metrics"
	"github.com/adipk/ragdocs/pkg/logx"
)

// Processor is the slice of the processing service the pool needs.
type Processor interface {
	ProcessDocument(ctx context.Context, documentID string) error
}

type Job struct {
	DocumentID string
	TraceID    string
	EnqueuedAt time.Time
}

var ErrQueueFull = errors.New("processing queue is full")

type Pool struct {
	jobs        chan Job
	dispatch    chan struct{}
	stopWorkers chan struct{}
	wg          sync.WaitGroup

	workerCount  int64
	requestCount int64

	processor Processor
	logger    *logx.Logger
}

func NewPool(processor Processor) *Pool {
	return &Pool{
		jobs:        make(chan Job, config.JobBufferLimit),
		dispatch:    make(chan struct{}, 1),
		stopWorkers: make(chan struct{}),
		processor:   processor,
		logger:      logx.New("worker_pool"),
	}
}

// Start launches the dispatcher and the first worker.
func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool")
	p.wg.Add(1)
	go p.dispatcher()
}

// Enqueue queues a document for processing without blocking; a full
// buffer is surfaced to the caller instead of stalling an upload.
func (p *Pool) Enqueue(ctx context.Context, documentID string) error {
	traceID, _ := ctx.Value(config.TraceIDKey).(string)
	job := Job{DocumentID: documentID, TraceID: traceID, EnqueuedAt: time.Now()}

	select {
	case p.jobs <- job:
		metrics.IncrementJobsInQueue()
	default:
		return ErrQueueFull
	}

	// every burst of requests nudges the dispatcher to grow the pool
	if atomic.AddInt64(&p.requestCount, 1)%config.RequestsPerNewWorker == 0 {
		select {
		case p.dispatch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Shutdown retires all workers and waits for in-flight jobs, bounded by
// the context deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.stopWorkers)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Worker pool drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) dispatcher() {
	defer p.wg.Done()
	p.createWorker()
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.dispatch:
			if atomic.LoadInt64(&p.workerCount) < config.MaxWorkerCount {
				p.createWorker()
			}
		case <-p.stopWorkers:
			p.logger.Info("Dispatcher stopped")
			return
		}
	}
}

func (p *Pool) createWorker() {
	p.wg.Add(1)
	atomic.AddInt64(&p.workerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
	p.logger.Info("Created new worker", "workerCount", atomic.LoadInt64(&p.workerCount))
}

func (p *Pool) worker() {
	for {
		select {
		case job := <-p.jobs:
			metrics.DecrementJobsInQueue()
			p.executeJob(job)

		case <-p.stopWorkers:
			p.removeWorker("stop signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			if atomic.LoadInt64(&p.workerCount) > config.MinWorkerCount {
				p.removeWorker("idle timeout")
				return
			}
		}
	}
}

func (p *Pool) removeWorker(reason string) {
	atomic.AddInt64(&p.workerCount, -1)
	metrics.DecrementActiveWorkerCount()
	p.wg.Done()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&p.workerCount))
}

func (p *Pool) executeJob(job Job) {
	log := p.logger.With("traceId", job.TraceID, "documentId", job.DocumentID)
	log.Debug("Processing job", "queuedFor", time.Since(job.EnqueuedAt).String())

	ctxTrace := context.WithValue(context.Background(), config.TraceIDKey, job.TraceID)
	ctx, cancel := context.WithTimeout(ctxTrace, config.ProcessingTimeout)
	defer cancel()

	if err := p.processor.ProcessDocument(ctx, job.DocumentID); err != nil {
		if errors.Is(err, docmodel.ErrAlreadyProcessing) {
			log.Warn("Skipping job, document already being processed")
			return
		}
		log.Error("Job failed", "error", err)
	}
}
