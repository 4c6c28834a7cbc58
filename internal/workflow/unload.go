package workflow

import (
	"context"

	"github.com/cqlio/dsbulk/internal/bulkerrors"
	"github.com/cqlio/dsbulk/internal/connector"
	"github.com/cqlio/dsbulk/internal/executor"
	"github.com/cqlio/dsbulk/internal/logmanager"
	"github.com/cqlio/dsbulk/internal/mapper"
	"github.com/cqlio/dsbulk/internal/metrics"
	"github.com/cqlio/dsbulk/internal/statement"
)

// UnloadDeps bundles UNLOAD's collaborators: read statements come from
// the schema engine (out of scope; supplied pre-built here) and flow
// Executor.readReactive -> Mapper(inverse) -> Connector.write ->
// LogManager.
type UnloadDeps struct {
	Connector  connector.Connector
	Mapper     *mapper.Mapper
	Template   *mapper.PreparedTemplate
	Executor   *executor.Executor
	Logs       *logmanager.Manager
	Statements []*statement.Statement
	Resource   string
}

// Unload runs the UNLOAD operation.
func Unload(ctx context.Context, deps UnloadDeps) (State, error) {
	if err := deps.Connector.Init(ctx); err != nil {
		return Fatal, &bulkerrors.FatalError{Err: err}
	}
	defer deps.Connector.Close()

	in, writeErrCh, err := deps.Connector.Write(ctx)
	if err != nil {
		return Fatal, &bulkerrors.FatalError{Err: err}
	}

	statements := make(chan *statement.Statement, len(deps.Statements))
	for _, s := range deps.Statements {
		statements <- s
	}
	close(statements)

	results := deps.Executor.ReadReactive(ctx, statements)

	position := int64(1)
	sawFailure := false

terminalLoop:
	for {
		select {
		case tooMany := <-deps.Logs.AbortSignal():
			close(in)
			return Aborted, tooMany
		case r, ok := <-results:
			if !ok {
				close(in)
				break terminalLoop
			}
			deps.Logs.RecordResult(r)
			if !r.IsSuccess() {
				sawFailure = true
				continue
			}
			rec := deps.Mapper.Unmap(r.Row, deps.Template, r.Row, deps.Resource, position)
			position++
			if rec.IsError() {
				deps.Logs.RecordErrorRecord(rec)
				metrics.RecordProcessed("unload", "error")
				continue
			}
			metrics.RecordProcessed("unload", "ok")
			select {
			case in <- rec:
			case <-ctx.Done():
				close(in)
				return Interrupted, &bulkerrors.InterruptError{Operation: "unload"}
			}
		case <-ctx.Done():
			close(in)
			return Interrupted, &bulkerrors.InterruptError{Operation: "unload"}
		}
	}

	if writeErr := <-writeErrCh; writeErr != nil {
		return Fatal, &bulkerrors.FatalError{Err: writeErr}
	}

	if sawFailure {
		return CompletedWithErrors, nil
	}
	return CompletedOk, nil
}
