// Package batch implements the Batching Engine: routing-token-aware
// grouping of bound statements into size- and count-bounded batches.
package batch

import (
	"container/list"

	"github.com/cqlio/dsbulk/internal/statement"
)

// Mode selects the routing granularity statements are grouped by.
type Mode int

const (
	// PartitionKey is the default: group by the exact partition routing
	// token.
	PartitionKey Mode = iota
	// ReplicaSet is the weaker grouping key: statements destined for the
	// same replica set share a bucket even with different partition
	// tokens. The engine itself is agnostic to how RoutingToken was
	// derived — ReplicaSet mode only changes what the caller places in
	// Statement.RoutingToken before calling Add.
	ReplicaSet
)

// bucket is one open, not-yet-flushed group of statements sharing a
// routing token.
type bucket struct {
	token      string
	statements []*statement.Statement
	bytes      int
}

// Engine accumulates statements into buckets and emits Batches once a
// bucket reaches its count or byte ceiling, before a statement would push
// it past the byte ceiling, or on Flush at end-of-input.
// Not safe for concurrent use — per §5, the batcher's buckets are
// accessed only on its single operator "thread."
type Engine struct {
	mode               Mode
	maxBatchStatements int
	maxSizeInBytes     int

	// order tracks bucket insertion order so Flush emits the oldest
	// open bucket first, matching the flush-oldest-first tie-break.
	order *list.List
	index map[string]*list.Element
}

// New builds an Engine. A zero or negative maxBatchStatements/
// maxSizeInBytes means that ceiling is disabled.
func New(mode Mode, maxBatchStatements, maxSizeInBytes int) *Engine {
	return &Engine{
		mode:               mode,
		maxBatchStatements: maxBatchStatements,
		maxSizeInBytes:     maxSizeInBytes,
		order:              list.New(),
		index:              make(map[string]*list.Element),
	}
}

// Add appends s to its routing-token bucket and returns zero or more
// Batches that became eligible for flushing as a result: a singleton
// immediately for statements with no routing key or whose own size alone
// exceeds the byte ceiling, the bucket's current contents when s would
// push it past the byte ceiling, and the full bucket once it reaches
// either ceiling.
func (e *Engine) Add(s *statement.Statement) []*statement.Batch {
	if !s.HasRoutingKey() {
		return []*statement.Batch{statement.Singleton(s)}
	}

	size := s.SizeBytes()
	if e.maxSizeInBytes > 0 && size > e.maxSizeInBytes {
		return []*statement.Batch{statement.Singleton(s)}
	}

	token := s.RoutingToken
	el, ok := e.index[token]
	var b *bucket
	var out []*statement.Batch
	if ok {
		b = el.Value.(*bucket)
		if e.maxSizeInBytes > 0 && b.bytes+size > e.maxSizeInBytes {
			out = append(out, &statement.Batch{RoutingToken: token, Statements: b.statements})
			b = &bucket{token: token}
			el.Value = b
			e.order.MoveToBack(el)
		}
	} else {
		b = &bucket{token: token}
		el = e.order.PushBack(b)
		e.index[token] = el
	}

	b.statements = append(b.statements, s)
	b.bytes += size

	exceedsCount := e.maxBatchStatements > 0 && len(b.statements) >= e.maxBatchStatements
	exceedsBytes := e.maxSizeInBytes > 0 && b.bytes >= e.maxSizeInBytes
	if !exceedsCount && !exceedsBytes {
		return out
	}

	e.order.Remove(el)
	delete(e.index, token)
	return append(out, &statement.Batch{RoutingToken: token, Statements: b.statements})
}

// Flush emits every still-open bucket as a Batch, oldest first, and
// resets the engine. Call at end-of-input.
func (e *Engine) Flush() []*statement.Batch {
	var out []*statement.Batch
	for el := e.order.Front(); el != nil; el = el.Next() {
		b := el.Value.(*bucket)
		out = append(out, &statement.Batch{RoutingToken: b.token, Statements: b.statements})
	}
	e.order = list.New()
	e.index = make(map[string]*list.Element)
	return out
}

// OpenBuckets reports the number of routing tokens with an open,
// unflushed bucket — used by tests and diagnostics.
func (e *Engine) OpenBuckets() int {
	return len(e.index)
}
