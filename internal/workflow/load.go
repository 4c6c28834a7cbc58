package workflow

import (
	"context"

	"github.com/cqlio/dsbulk/internal/batch"
	"github.com/cqlio/dsbulk/internal/bulkerrors"
	"github.com/cqlio/dsbulk/internal/connector"
	"github.com/cqlio/dsbulk/internal/executor"
	"github.com/cqlio/dsbulk/internal/logmanager"
	"github.com/cqlio/dsbulk/internal/mapper"
	"github.com/cqlio/dsbulk/internal/metrics"
	"github.com/cqlio/dsbulk/internal/record"
	"github.com/cqlio/dsbulk/internal/statement"
)

// LoadDeps bundles the collaborators LOAD composes, per §4.6:
// Connector.read -> Mapper -> Batcher -> Executor.writeReactive ->
// LogManager.
type LoadDeps struct {
	Connector connector.Connector
	Mapper    *mapper.Mapper
	Template  *mapper.PreparedTemplate
	Batcher   *batch.Engine
	Executor  *executor.Executor
	Logs      *logmanager.Manager
}

// Load runs the LOAD operation and returns the terminal state to feed
// into Driver.Run.
func Load(ctx context.Context, deps LoadDeps) (State, error) {
	if err := deps.Connector.Init(ctx); err != nil {
		return Fatal, &bulkerrors.FatalError{Err: err}
	}
	defer deps.Connector.Close()

	records, err := deps.Connector.Read(ctx)
	if err != nil {
		return Fatal, &bulkerrors.FatalError{Err: err}
	}

	batches := make(chan *statement.Batch)

	go mapAndBatch(ctx, records, deps.Mapper, deps.Template, deps.Batcher, deps.Logs, batches)

	results := deps.Executor.WriteBatchReactive(ctx, batches)

	return drainResults(ctx, deps.Logs, results)
}

// mapAndBatch pulls records, maps each to a statement (logging mapper-
// rejected records directly), feeds successes to the batching engine, and
// forwards every batch the engine emits — including the final Flush once
// records is drained — onto out.
func mapAndBatch(ctx context.Context, records <-chan *record.Record, m *mapper.Mapper, tmpl *mapper.PreparedTemplate, batcher *batch.Engine, logs *logmanager.Manager, out chan<- *statement.Batch) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				for _, b := range batcher.Flush() {
					select {
					case out <- b:
					case <-ctx.Done():
						return
					}
				}
				return
			}

			if rec.IsError() {
				logs.RecordErrorRecord(rec)
				metrics.RecordProcessed("load", "error")
				continue
			}

			s, errRec := m.Map(rec, tmpl)
			if errRec != nil {
				logs.RecordErrorRecord(errRec)
				metrics.RecordProcessed("load", "error")
				continue
			}
			metrics.RecordProcessed("load", "ok")

			for _, b := range batcher.Add(s) {
				select {
				case out <- b:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// drainResults consumes every Result from results, feeding the log
// manager and watching its abort signal, and derives the operation's
// terminal state once results closes or the abort signal fires.
func drainResults(ctx context.Context, logs *logmanager.Manager, results <-chan *statement.Result) (State, error) {
	sawFailure := false

	for {
		select {
		case tooMany := <-logs.AbortSignal():
			return Aborted, tooMany
		default:
		}

		select {
		case tooMany := <-logs.AbortSignal():
			return Aborted, tooMany
		case r, ok := <-results:
			if !ok {
				// The ceiling can be exceeded by ErrorRecords logged
				// upstream of execution (mapper/connector rejections)
				// that never produce a Result here — check once more
				// before declaring completion.
				if logs.Aborted() {
					select {
					case tooMany := <-logs.AbortSignal():
						return Aborted, tooMany
					default:
						return Aborted, &bulkerrors.TooManyErrorsError{}
					}
				}
				if sawFailure || logs.Failures() > 0 {
					return CompletedWithErrors, nil
				}
				return CompletedOk, nil
			}
			logs.RecordResult(r)
			if !r.IsSuccess() {
				sawFailure = true
			}
		case <-ctx.Done():
			return Interrupted, &bulkerrors.InterruptError{Operation: "load"}
		}
	}
}
