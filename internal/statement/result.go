package statement

import "github.com/cqlio/dsbulk/internal/bulkerrors"

// Kind distinguishes a write result (LOAD) from a read result (UNLOAD,
// COUNT).
type Kind int

const (
	KindWrite Kind = iota
	KindRead
)

// Row is one returned row's bound-variable values, used by ReadResults.
type Row map[string]interface{}

// Result is the tagged union described in §3: a write result carries no
// payload, a read result carries a Row. IsSuccess holds iff Err is nil.
type Result struct {
	Kind      Kind
	Statement *Statement
	Row       Row
	Err       *bulkerrors.BulkExecutionError
}

// IsSuccess reports whether the result represents a successful
// completion.
func (r *Result) IsSuccess() bool { return r.Err == nil }

// NewWriteSuccess builds a successful write Result.
func NewWriteSuccess(s *Statement) *Result {
	return &Result{Kind: KindWrite, Statement: s}
}

// NewReadSuccess builds a successful read Result carrying one row.
func NewReadSuccess(s *Statement, row Row) *Result {
	return &Result{Kind: KindRead, Statement: s, Row: row}
}

// NewFailure builds a failed Result of either kind.
func NewFailure(kind Kind, s *Statement, err error) *Result {
	return &Result{Kind: kind, Statement: s, Err: &bulkerrors.BulkExecutionError{Template: s.Template, Err: err}}
}
