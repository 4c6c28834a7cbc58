// Package statement defines the prepared-statement and batch value types
// that flow between the record mapper, the batching engine, and the bulk
// executor.
package statement

import (
	"github.com/cqlio/dsbulk/internal/record"
)

// Consistency mirrors a wire-level consistency level; the driver contract
// (out of scope per the core spec) interprets it, the core only threads
// it through unexamined.
type Consistency int

const (
	ConsistencyUnset Consistency = iota
	ConsistencyOne
	ConsistencyQuorum
	ConsistencyAll
	ConsistencyLocalQuorum
)

// Statement is a prepared CQL template plus its bound variables. Template
// is an opaque driver handle (out of scope contract); Values holds the
// mapper's bound-variable map keyed by bind-variable name.
type Statement struct {
	Template string
	Values   map[string]interface{}
	// VariableOrder names Values' keys in the order the driver must bind
	// them as positional placeholders ($1, $2, ...); set by the mapper
	// from the mapping declaration's binding order. A variable
	// absent from Values (an allowed-missing field) is skipped rather
	// than bound as a placeholder.
	VariableOrder []string

	// RoutingKey is the opaque byte sequence derived from partition-key
	// bound values, or nil if the statement carries no routing key.
	RoutingKey []byte
	// RoutingToken is derived from RoutingKey for batching purposes; two
	// statements with equal tokens are eligible to share a batch.
	RoutingToken string

	Consistency Consistency

	// OriginalRecord is a weak back-reference used only for error
	// attribution (bad-record files, mapping-error logging) — never
	// consulted for liveness or mutated after mapping.
	OriginalRecord *record.Record
}

// HasRoutingKey reports whether this statement participates in
// partition-aware batching.
func (s *Statement) HasRoutingKey() bool {
	return s.RoutingKey != nil
}

// SizeBytes estimates the statement's serialized size for the batching
// engine's byte ceiling. It sums the template length and a rough
// per-value estimate; exactness is not required, only a stable
// approximation a real driver's wire encoder would roughly track.
func (s *Statement) SizeBytes() int {
	n := len(s.Template)
	for k, v := range s.Values {
		n += len(k) + estimateValueSize(v)
	}
	return n
}

func estimateValueSize(v interface{}) int {
	switch x := v.(type) {
	case nil:
		return 1
	case string:
		return len(x)
	case []byte:
		return len(x)
	case []interface{}:
		total := 0
		for _, item := range x {
			total += estimateValueSize(item)
		}
		return total
	default:
		return 8
	}
}

// Batch is an ordered sequence of Statements sharing a routing token (or
// none, when grouping is disabled for singletons). Invariants enforced by
// the batching engine, not by this type: size ≤ maxBatchStatements, bytes
// ≤ maxSizeInBytes, never split across tokens under PARTITION_KEY mode.
type Batch struct {
	RoutingToken string
	Statements   []*Statement
}

// Len returns the number of statements in the batch.
func (b *Batch) Len() int { return len(b.Statements) }

// SizeBytes sums the serialized size of every statement in the batch.
func (b *Batch) SizeBytes() int {
	total := 0
	for _, s := range b.Statements {
		total += s.SizeBytes()
	}
	return total
}

// Singleton wraps one statement as a one-element batch, used both for
// statements with no routing key and for oversized statements that
// bypass grouping per spec.
func Singleton(s *Statement) *Batch {
	return &Batch{RoutingToken: s.RoutingToken, Statements: []*Statement{s}}
}
