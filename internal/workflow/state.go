// Package workflow implements the Workflow Driver: the LOAD/UNLOAD/COUNT
// pipeline compositions and the operation's state machine.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is one node of the workflow state machine from §4.6.
type State int

const (
	Created State = iota
	Initialized
	Executing
	CompletedOk
	CompletedWithErrors
	Aborted
	// Fatal reports a FatalError surfaced before or during execution
	// (bad configuration, a connector/driver that never came up) —
	// distinct from Crashed, which is reserved for an unrecovered panic
	// or a body that outlived the cancellation grace period.
	Fatal
	Interrupted
	Crashed
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Initialized:
		return "Initialized"
	case Executing:
		return "Executing"
	case CompletedOk:
		return "CompletedOk"
	case CompletedWithErrors:
		return "CompletedWithErrors"
	case Aborted:
		return "Aborted"
	case Fatal:
		return "Fatal"
	case Interrupted:
		return "Interrupted"
	case Crashed:
		return "Crashed"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// ExitCode maps a terminal state to the CLI's process exit code per §6.
func (s State) ExitCode() int {
	switch s {
	case CompletedOk:
		return 0
	case CompletedWithErrors:
		return 1
	case Aborted:
		return 2
	case Fatal:
		return 3
	case Interrupted:
		return 4
	case Crashed:
		return 5
	default:
		return 3
	}
}

// gracePeriod is the cooperative-cancellation window from §5 before a
// stuck workflow task is marked crashed.
const gracePeriod = 10 * time.Second

// Driver holds the state machine shared by LOAD/UNLOAD/COUNT. One Driver
// serves one operation; close is idempotent and safe to call from any
// state, concurrently with Run.
type Driver struct {
	mu     sync.Mutex
	state  State
	logger *zap.Logger

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// New builds a Driver in the Created state.
func New(logger *zap.Logger) *Driver {
	return &Driver{state: Created, logger: logger, done: make(chan struct{})}
}

// State returns the driver's current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
	if d.logger != nil {
		d.logger.Info("workflow state transition", zap.String("state", s.String()))
	}
}

// Run executes body under the state machine: Created -> Initialized ->
// Executing -> terminal. body receives a cancellable context and returns
// the terminal state to report (one of CompletedOk, CompletedWithErrors,
// Aborted, Fatal, or Interrupted) plus an error for non-nil terminal states
// other than CompletedOk/CompletedWithErrors. A panic inside body is
// recovered and reported as Crashed. If ctx is cancelled and body has
// not returned within the grace period, Run itself reports Crashed
// without waiting further for body, per §5's "marked crashed" rule —
// body's goroutine is left running and must release its own resources
// on its cancellation path.
func (d *Driver) Run(ctx context.Context, body func(ctx context.Context) (State, error)) (terminal State, err error) {
	d.setState(Initialized)

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	d.setState(Executing)

	type result struct {
		state State
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		defer close(d.done)
		defer func() {
			if r := recover(); r != nil {
				resultCh <- result{state: Crashed, err: fmt.Errorf("workflow: panic: %v", r)}
			}
		}()
		s, e := body(runCtx)
		resultCh <- result{state: s, err: e}
	}()

	select {
	case r := <-resultCh:
		terminal, err = r.state, r.err
	case <-ctx.Done():
		select {
		case r := <-resultCh:
			terminal, err = r.state, r.err
		case <-time.After(gracePeriod):
			terminal, err = Crashed, ctx.Err()
		}
	}

	d.setState(terminal)
	return terminal, err
}

// Close cancels any in-flight Run and transitions to Closed. Idempotent
// and safe to call concurrently with Run or from any state.
func (d *Driver) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		cancel := d.cancel
		d.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		d.setState(Closed)
	})
}
