package executor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cqlio/dsbulk/internal/metrics"
	"github.com/cqlio/dsbulk/internal/statement"
)

func (e *Executor) startSpan(ctx context.Context, name string) (context.Context, func()) {
	if e.tracer == nil {
		return ctx, func() {}
	}
	spanCtx, span := e.tracer.Start(ctx, name)
	return spanCtx, func() { span.End() }
}

// WriteReactive dispatches each statement read from in against the
// driver and publishes one Result per statement on the returned channel.
// The returned channel is closed once in is drained and every in-flight
// dispatch has completed. In FailFast mode, the first failure cancels
// the internal context so no further statements are dispatched; already
// in-flight dispatches are allowed to finish and their results (including
// the triggering failure) are still published.
func (e *Executor) WriteReactive(ctx context.Context, in <-chan *statement.Statement) <-chan *statement.Result {
	out := make(chan *statement.Result)
	dispatchCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer cancel()

		var wg sync.WaitGroup
		var failOnce sync.Once

	loop:
		for {
			select {
			case <-dispatchCtx.Done():
				break loop
			case s, ok := <-in:
				if !ok {
					break loop
				}
				wg.Add(1)
				go func(s *statement.Statement) {
					defer wg.Done()
					e.dispatchWrite(dispatchCtx, s, out, &failOnce, cancel)
				}(s)
			}
		}
		wg.Wait()
	}()

	return out
}

// WriteBatchReactive is WriteReactive's batch counterpart: one Result is
// published per statement within a batch, but the batch's statements
// share a single in-flight-query slot and are sent to the driver as one
// round trip.
func (e *Executor) WriteBatchReactive(ctx context.Context, in <-chan *statement.Batch) <-chan *statement.Result {
	out := make(chan *statement.Result)
	dispatchCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer cancel()

		var wg sync.WaitGroup
		var failOnce sync.Once

	loop:
		for {
			select {
			case <-dispatchCtx.Done():
				break loop
			case b, ok := <-in:
				if !ok {
					break loop
				}
				wg.Add(1)
				go func(b *statement.Batch) {
					defer wg.Done()
					e.dispatchBatch(dispatchCtx, b, out, &failOnce, cancel)
				}(b)
			}
		}
		wg.Wait()
	}()

	return out
}

func (e *Executor) dispatchWrite(ctx context.Context, s *statement.Statement, out chan<- *statement.Result, failOnce *sync.Once, cancel context.CancelFunc) {
	ctx, end := e.startSpan(ctx, "executor.write")
	defer end()

	if err := e.acquireQuery(ctx); err != nil {
		e.publishFailure(ctx, statement.KindWrite, s, err, out, failOnce, cancel)
		return
	}
	defer e.releaseQuery()

	if err := e.acquireRequest(ctx); err != nil {
		e.publishFailure(ctx, statement.KindWrite, s, err, out, failOnce, cancel)
		return
	}
	defer e.releaseRequest()

	metrics.InFlightRequests.Inc()
	defer metrics.InFlightRequests.Dec()
	start := time.Now()

	if e.cfg.DryRun {
		metrics.RecordStatement("write", "ok", time.Since(start).Seconds())
		e.send(statement.NewWriteSuccess(s), out)
		return
	}

	if err := e.driver.Execute(ctx, s); err != nil {
		if e.logger != nil {
			e.logger.Warn("statement execution failed", zap.String("template", s.Template), zap.Error(err))
		}
		metrics.RecordStatement("write", "error", time.Since(start).Seconds())
		e.publishFailure(ctx, statement.KindWrite, s, err, out, failOnce, cancel)
		return
	}
	metrics.RecordStatement("write", "ok", time.Since(start).Seconds())
	e.send(statement.NewWriteSuccess(s), out)
}

func (e *Executor) dispatchBatch(ctx context.Context, b *statement.Batch, out chan<- *statement.Result, failOnce *sync.Once, cancel context.CancelFunc) {
	ctx, end := e.startSpan(ctx, "executor.write_batch")
	defer end()

	if err := e.acquireQuery(ctx); err != nil {
		e.publishBatchFailure(ctx, b, err, out, failOnce, cancel)
		return
	}
	defer e.releaseQuery()

	if err := e.acquireRequest(ctx); err != nil {
		e.publishBatchFailure(ctx, b, err, out, failOnce, cancel)
		return
	}
	defer e.releaseRequest()

	metrics.InFlightRequests.Inc()
	defer metrics.InFlightRequests.Dec()
	start := time.Now()
	metrics.RecordBatch("statementBatch", len(b.Statements))

	if e.cfg.DryRun {
		for _, s := range b.Statements {
			metrics.RecordStatement("write", "ok", time.Since(start).Seconds())
			e.send(statement.NewWriteSuccess(s), out)
		}
		return
	}

	if err := e.driver.ExecuteBatch(ctx, b); err != nil {
		if e.logger != nil {
			e.logger.Warn("batch execution failed", zap.Int("size", len(b.Statements)), zap.Error(err))
		}
		for range b.Statements {
			metrics.RecordStatement("write", "error", time.Since(start).Seconds())
		}
		e.publishBatchFailure(ctx, b, err, out, failOnce, cancel)
		return
	}
	for _, s := range b.Statements {
		metrics.RecordStatement("write", "ok", time.Since(start).Seconds())
		e.send(statement.NewWriteSuccess(s), out)
	}
}

func (e *Executor) publishBatchFailure(ctx context.Context, b *statement.Batch, err error, out chan<- *statement.Result, failOnce *sync.Once, cancel context.CancelFunc) {
	for _, s := range b.Statements {
		e.publishFailure(ctx, statement.KindWrite, s, err, out, failOnce, cancel)
	}
}

// publishFailure emits a failed Result and, in FailFast mode, cancels
// dispatch of further work. failOnce ensures the cancellation side effect
// (and any future "first error" bookkeeping) runs exactly once per
// reactive stream.
func (e *Executor) publishFailure(ctx context.Context, kind statement.Kind, s *statement.Statement, err error, out chan<- *statement.Result, failOnce *sync.Once, cancel context.CancelFunc) {
	if e.cfg.Mode == FailFast {
		failOnce.Do(cancel)
	}
	e.send(statement.NewFailure(kind, s, err), out)
}

func (e *Executor) send(r *statement.Result, out chan<- *statement.Result) {
	out <- r
}
