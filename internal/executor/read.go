package executor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cqlio/dsbulk/internal/metrics"
	"github.com/cqlio/dsbulk/internal/statement"
)

// ReadReactive dispatches each read statement from in against the driver
// and publishes one Result per returned row (or one failed Result per
// statement on error) on the returned channel, which closes once in is
// drained and every in-flight query has completed.
//
// A read statement counts as a single in-flight query for its whole
// lifetime, covering every page the driver fetches on its behalf — the
// Driver contract fetches a statement's rows in one call regardless of
// ContinuousPaging, so the query slot is held for that one call and the
// request slot is acquired once per statement, matching "a multi-page
// read counts as one query" from the in-flight knobs.
func (e *Executor) ReadReactive(ctx context.Context, in <-chan *statement.Statement) <-chan *statement.Result {
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
					e.dispatchRead(dispatchCtx, s, out, &failOnce, cancel)
				}(s)
			}
		}
		wg.Wait()
	}()

	return out
}

func (e *Executor) dispatchRead(ctx context.Context, s *statement.Statement, out chan<- *statement.Result, failOnce *sync.Once, cancel context.CancelFunc) {
	ctx, end := e.startSpan(ctx, "executor.read")
	defer end()

	if err := e.acquireQuery(ctx); err != nil {
		e.publishFailure(ctx, statement.KindRead, s, err, out, failOnce, cancel)
		return
	}
	defer e.releaseQuery()

	if err := e.acquireRequest(ctx); err != nil {
		e.publishFailure(ctx, statement.KindRead, s, err, out, failOnce, cancel)
		return
	}
	defer e.releaseRequest()

	metrics.InFlightRequests.Inc()
	defer metrics.InFlightRequests.Dec()
	start := time.Now()

	if e.cfg.DryRun {
		return
	}

	rows, err := e.driver.Query(ctx, s)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("query failed", zap.String("template", s.Template), zap.Error(err))
		}
		metrics.RecordStatement("read", "error", time.Since(start).Seconds())
		e.publishFailure(ctx, statement.KindRead, s, err, out, failOnce, cancel)
		return
	}
	metrics.RecordStatement("read", "ok", time.Since(start).Seconds())
	for _, row := range rows {
		e.send(statement.NewReadSuccess(s, row), out)
	}
}
