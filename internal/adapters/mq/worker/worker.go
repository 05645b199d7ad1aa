// Package worker scores queued batch jobs against the loaded model.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/marathon/internal/adapters/mq/queue"
	"github.com/okian/marathon/internal/domain/inference"
	"github.com/okian/marathon/internal/domain/model"
	"github.com/okian/marathon/pkg/logger"
	"github.com/okian/marathon/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Result is the outcome of scoring one job.
type Result struct {
	Job      queue.Job
	Features model.FeatureVector
	Hours    float64
	Err      error
}

// Sink receives results. Record is called concurrently from every worker.
type Sink interface {
	Record(ctx context.Context, r Result)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until the queue is drained.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for scoring jobs.
type InMemoryWorker struct {
	queue     Queue
	predictor inference.Predictor
	sink      Sink
	name      string
	processed *atomic.Int64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, predictor inference.Predictor, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		predictor: predictor,
		sink:      sink,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process scores one job and hands the result to the sink. Failures are
// reported in the result; the worker keeps going.
func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	fv, hours, err := inference.Estimate(ctx, w.predictor, j.Input)
	if err != nil {
		stage := inference.StageOf(err)
		metrics.RecordWorkerError()
		metrics.RecordPredictionError(inference.SourceBatch, stage)
		metrics.RecordErrorByComponent("worker", stage+"_error")
		w.logger.Debug(ctx, "row rejected",
			logger.Int("row", j.Index),
			logger.Int("line", j.Line),
			logger.Error(err),
		)
	} else {
		metrics.RecordPrediction(inference.SourceBatch)
		metrics.RecordPredictedHours(hours)
	}

	w.processed.Add(1)
	w.sink.Record(ctx, Result{Job: j, Features: fv, Hours: hours, Err: err})
}

// Pool manages multiple workers sharing one predictor.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Shutdown control
	shutdown chan struct{}
	stopped  atomic.Bool

	// Metrics tracking
	processed         atomic.Int64
	lastProcessed     int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one uses one worker per CPU.
func NewPool(workerCount int, q Queue, predictor inference.Predictor, sink Sink, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
	}
	for _, opt := range opts {
		opt(pool)
	}
	if pool.logger == nil {
		pool.logger = logger.Get().Named("worker-pool")
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, predictor, sink,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(pool.logger),
		)
		w.processed = &pool.processed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handled so far.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	total := p.processed.Load()
	if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(total-p.lastProcessed) / elapsed)
	}
	p.lastProcessed = total
	p.lastProcessedTime = now
}

// Wait blocks until every worker has drained the queue and exited, or ctx is done.
// The queue must be closed for the workers to exit on their own.
func (p *Pool) Wait(ctx context.Context) error {
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			return fmt.Errorf("worker %d still running: %w", i, ctx.Err())
		}
	}
	p.stop()
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(len(p.workers))
	return nil
}

// Shutdown closes the queue, lets the workers finish what is queued and waits
// for them, bounded by ctx and poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	if err := p.Wait(shutdownCtx); err != nil {
		p.logger.Warn(ctx, "worker shutdown timed out", logger.Error(err))
		p.stop()
		return err
	}
	return nil
}

func (p *Pool) stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.shutdown)
	}
}
