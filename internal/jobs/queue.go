package jobs

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/healthbridge/claims-reporter/pkg/metrics"
)

const (
	DefaultQueue       = "reports"
	DefaultWorkerCount = 4
	DefaultQueueSize   = 100
)

// ErrQueueFull signals backpressure: the queue rejects submissions beyond
// capacity instead of letting report jobs pile up unbounded.
var ErrQueueFull = errors.New("report queue is full")

// Queue dispatches each submitted job to exactly one worker goroutine.
// Submission never blocks the caller.
type Queue struct {
	jobCh   chan ReportArgs
	worker  *ReportWorker
	workers int
	wg      sync.WaitGroup
}

func NewQueue(worker *ReportWorker, workerCount, queueSize int) *Queue {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Queue{
		jobCh:   make(chan ReportArgs, queueSize),
		worker:  worker,
		workers: workerCount,
	}
}

func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.runWorker(ctx, i)
	}
	zap.S().Named("job_queue").Infof("started %d report workers (queue capacity %d)", q.workers, cap(q.jobCh))
}

// Submit enqueues the job without blocking. A full queue returns
// ErrQueueFull immediately.
func (q *Queue) Submit(ctx context.Context, args ReportArgs) error {
	select {
	case q.jobCh <- args:
		metrics.SetReportQueueDepthMetric(len(q.jobCh))
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains the workers. Jobs already submitted are still executed;
// Submit must not be called after Stop.
func (q *Queue) Stop() {
	close(q.jobCh)
	q.wg.Wait()
	zap.S().Named("job_queue").Info("report workers stopped")
}

func (q *Queue) runWorker(ctx context.Context, id int) {
	defer q.wg.Done()

	logger := zap.S().Named("job_queue").With("worker", id)
	logger.Debug("report worker started")

	for args := range q.jobCh {
		metrics.SetReportQueueDepthMetric(len(q.jobCh))
		select {
		case <-ctx.Done():
			logger.Warnw("dropping job, shutdown in progress", "job_id", args.JobID)
			continue
		default:
		}
		q.worker.Work(ctx, args)
	}
}
