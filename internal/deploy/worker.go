package deploy

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one deployment job.
type Handler func(ctx context.Context, job Job) error

// Pool runs deployment jobs with bounded concurrency and a per-job timeout.
type Pool struct {
	logger     *zap.Logger
	handler    Handler
	workers    int
	jobTimeout time.Duration
}

func NewPool(logger *zap.Logger, handler Handler, workers int, jobTimeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		logger:     logger.Named("deploy.pool"),
		handler:    handler,
		workers:    workers,
		jobTimeout: jobTimeout,
	}
}

// Run consumes jobs until the channel closes or the context ends. It blocks
// until every in-flight job has finished.
func (p *Pool) Run(ctx context.Context, jobs <-chan Job) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					p.runOne(ctx, worker, job)
				}
			}
		}(i)
	}
	wg.Wait()
}

func (p *Pool) runOne(ctx context.Context, worker int, job Job) {
	jobCtx := ctx
	var cancel context.CancelFunc
	if p.jobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := p.handler(jobCtx, job)
	if err != nil {
		p.logger.Error("deployment job failed",
			zap.Int("worker", worker),
			zap.String("service_id", job.ServiceID),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return
	}
	p.logger.Info("deployment job finished",
		zap.Int("worker", worker),
		zap.String("service_id", job.ServiceID),
		zap.Duration("took", time.Since(start)))
}
