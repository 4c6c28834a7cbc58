package workflow

import (
	"context"
	"fmt"

	"github.com/cqlio/dsbulk/internal/bulkerrors"
	"github.com/cqlio/dsbulk/internal/executor"
	"github.com/cqlio/dsbulk/internal/logmanager"
	"github.com/cqlio/dsbulk/internal/metrics"
	"github.com/cqlio/dsbulk/internal/statement"
)

// CountDeps bundles COUNT's collaborators: read statements ->
// Executor.readReactive -> aggregator -> final printer.
type CountDeps struct {
	Executor   *executor.Executor
	Logs       *logmanager.Manager
	Statements []*statement.Statement
	Printer    func(total int64)
}

// Count runs the COUNT operation, aggregating the number of rows
// returned across every statement and reporting the total via Printer.
func Count(ctx context.Context, deps CountDeps) (State, error) {
	statements := make(chan *statement.Statement, len(deps.Statements))
	for _, s := range deps.Statements {
		statements <- s
	}
	close(statements)

	results := deps.Executor.ReadReactive(ctx, statements)

	var total int64
	sawFailure := false

	for {
		select {
		case tooMany := <-deps.Logs.AbortSignal():
			return Aborted, tooMany
		case r, ok := <-results:
			if !ok {
				if deps.Printer != nil {
					deps.Printer(total)
				}
				if sawFailure {
					return CompletedWithErrors, nil
				}
				return CompletedOk, nil
			}
			deps.Logs.RecordResult(r)
			if r.IsSuccess() {
				total++
				metrics.RecordProcessed("count", "ok")
			} else {
				sawFailure = true
				metrics.RecordProcessed("count", "error")
			}
		case <-ctx.Done():
			return Interrupted, &bulkerrors.InterruptError{Operation: "count"}
		}
	}
}

// FormatSummary renders the one-line human summary the CLI prints after
// an operation completes.
func FormatSummary(op string, terminal State, total int64) string {
	return fmt.Sprintf("%s %s: %d records", op, terminal.String(), total)
}
