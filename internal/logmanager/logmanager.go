// Package logmanager implements the Log Manager: a sink of Results and
// ErrorRecords responsible for positional checkpointing, bad-record
// files, the error ceiling, and exception sanitization.
package logmanager

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/cqlio/dsbulk/internal/bulkerrors"
	"github.com/cqlio/dsbulk/internal/metrics"
	"github.com/cqlio/dsbulk/internal/record"
	"github.com/cqlio/dsbulk/internal/statement"
)

// Category names one of the four bad-record files.
type Category string

const (
	CategoryMapping   Category = "mapping-errors.log"
	CategoryConnector Category = "connector-errors.log"
	CategoryLoad      Category = "load-errors.log"
	CategoryUnload    Category = "unload-errors.log"
)

// Config holds the Log Manager's tunables, taken from §4.5.
type Config struct {
	// OutputDir is the execution directory bad-record files are written
	// under.
	OutputDir string
	// Operation labels the operation ("load", "unload", "count") for the
	// error-ceiling metric.
	Operation string
	// MaxErrors is the error ceiling; MaxErrorsIsRatio interprets it as a
	// percentage of total records processed rather than an absolute count.
	MaxErrors        int64
	MaxErrorsIsRatio bool
	// MaxHeldPositions bounds the non-contiguous-success window kept per
	// resource before the oldest holes are dropped.
	MaxHeldPositions int
	// SanitizeFramePrefixes and SanitizeDepth configure exception trace
	// sanitization for on-screen display; the on-disk log always keeps
	// the full trace.
	SanitizeFramePrefixes []string
	SanitizeDepth         int
}

// Manager is the Log Manager. One Manager serves one operation.
type Manager struct {
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	files      map[Category]*bufio.Writer
	rawFiles   map[Category]*os.File
	resources  map[string]*resourceState
	total      int64
	failures   int64
	aborted    bool
	abortCh    chan *bulkerrors.TooManyErrorsError
}

// New builds a Manager. The output directory is created on first write,
// not at construction, so a dry run that produces no failures never
// touches the filesystem.
func New(cfg Config, logger *zap.Logger) *Manager {
	if cfg.SanitizeDepth <= 0 {
		cfg.SanitizeDepth = 20
	}
	if cfg.MaxHeldPositions <= 0 {
		cfg.MaxHeldPositions = 10000
	}
	return &Manager{
		cfg:       cfg,
		logger:    logger,
		files:     make(map[Category]*bufio.Writer),
		rawFiles:  make(map[Category]*os.File),
		resources: make(map[string]*resourceState),
		abortCh:   make(chan *bulkerrors.TooManyErrorsError, 1),
	}
}

// Aborted reports whether the error ceiling has already been exceeded.
func (m *Manager) Aborted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aborted
}

// Failures returns the number of terminal failures recorded so far,
// across both RecordResult and RecordErrorRecord.
func (m *Manager) Failures() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// AbortSignal returns a channel that receives the single TooManyErrorsError
// emitted when the ceiling is first exceeded, and is otherwise never
// written to again.
func (m *Manager) AbortSignal() <-chan *bulkerrors.TooManyErrorsError {
	return m.abortCh
}

// RecordResult consumes one statement.Result, updating the checkpoint on
// success or routing the failure to the appropriate bad-record category
// on failure. category selection for a failed write/read result is
// derived from its Kind: KindWrite -> load-errors.log, KindRead ->
// unload-errors.log, matching §4.5's enumerated categories.
func (m *Manager) RecordResult(r *statement.Result) {
	source, resource, position := resultOrigin(r)

	m.mu.Lock()
	m.total++
	m.mu.Unlock()

	if r.IsSuccess() {
		m.checkpoint(resource, position, true)
		return
	}

	category := CategoryLoad
	if r.Kind == statement.KindRead {
		category = CategoryUnload
	}
	m.recordFailure(category, source, resource, position, r.Err)
	m.checkpoint(resource, position, false)
}

// RecordErrorRecord consumes an ErrorRecord produced upstream of
// execution (a connector parse failure, or a mapper rejection), routing
// it to mapping-errors.log or connector-errors.log by the cause's
// concrete type.
func (m *Manager) RecordErrorRecord(rec *record.Record) {
	if !rec.IsError() {
		return
	}

	m.mu.Lock()
	m.total++
	m.mu.Unlock()

	category := CategoryConnector
	if _, ok := rec.Cause().(*bulkerrors.MappingError); ok {
		category = CategoryMapping
	}
	m.recordFailure(category, rec.Source(), rec.Resource(), rec.Position(), rec.Cause())
	m.checkpoint(rec.Resource(), rec.Position(), false)
}

func resultOrigin(r *statement.Result) (source interface{}, resource string, position int64) {
	if r.Statement != nil && r.Statement.OriginalRecord != nil {
		rec := r.Statement.OriginalRecord
		return rec.Source(), rec.Resource(), rec.Position()
	}
	return nil, "", 0
}

// recordFailure appends one bad-record entry: header fields Resource,
// Position, and Source (escaped to a single line), followed by the
// sanitized exception trace, with a trailing blank line separating it
// from the next entry, per §6.
func (m *Manager) recordFailure(category Category, source interface{}, resource string, position int64, err error) {
	m.mu.Lock()
	m.failures++
	total, failures, aborted := m.total, m.failures, m.aborted
	exceeded := !aborted && m.ceilingExceeded(total, failures)
	if exceeded {
		m.aborted = true
	}
	m.mu.Unlock()

	entry := fmt.Sprintf("Resource: %s\nPosition: %d\nSource: %s\n%s\n\n",
		resource, position, escapeSingleLine(fmt.Sprint(source)), sanitizeFull(err))
	if writeErr := m.appendLine(category, entry); writeErr != nil && m.logger != nil {
		m.logger.Error("failed to write bad-record file", zap.String("category", string(category)), zap.Error(writeErr))
	}

	if exceeded {
		tooMany := &bulkerrors.TooManyErrorsError{Observed: failures, Ceiling: m.cfg.MaxErrors, IsRatio: m.cfg.MaxErrorsIsRatio}
		metrics.RecordErrorCeilingHit(m.cfg.Operation)
		if m.logger != nil {
			m.logger.Warn("error ceiling exceeded, aborting", zap.Int64("observed", failures), zap.Int64("total", total))
		}
		select {
		case m.abortCh <- tooMany:
		default:
		}
	}
}

// ceilingExceeded must be called with mu held.
func (m *Manager) ceilingExceeded(total, failures int64) bool {
	if m.cfg.MaxErrors <= 0 {
		return false
	}
	if m.cfg.MaxErrorsIsRatio {
		if total == 0 {
			return false
		}
		ratio := float64(m.cfg.MaxErrors) / 100.0
		return float64(failures) > ratio*float64(total)
	}
	return failures > m.cfg.MaxErrors
}

func (m *Manager) appendLine(category Category, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.files[category]
	if !ok {
		if err := os.MkdirAll(m.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("logmanager: creating output dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(m.cfg.OutputDir, string(category)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("logmanager: opening %s: %w", category, err)
		}
		w = bufio.NewWriter(f)
		m.files[category] = w
		m.rawFiles[category] = f
	}
	_, err := w.WriteString(line)
	return err
}

// Close flushes and closes every bad-record file opened during the
// operation. Safe to call once after the operation finishes.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for cat, w := range m.files {
		if err := w.Flush(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("logmanager: flushing %s: %w", cat, err)
		}
	}
	for cat, f := range m.rawFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("logmanager: closing %s: %w", cat, err)
		}
	}
	return firstErr
}
