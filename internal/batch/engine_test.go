package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqlio/dsbulk/internal/statement"
)

func stmt(token string, bytes int) *statement.Statement {
	s := &statement.Statement{
		Template: "INSERT",
		Values:   map[string]interface{}{"v": make([]byte, bytes)},
	}
	if token != "" {
		s.RoutingKey = []byte(token)
		s.RoutingToken = token
	}
	return s
}

func TestEngineGroupsByToken(t *testing.T) {
	e := New(PartitionKey, 2, 0)

	out := e.Add(stmt("a", 1))
	assert.Empty(t, out)
	out = e.Add(stmt("a", 1))
	require.Len(t, out, 1)
	assert.Len(t, out[0].Statements, 2)
	assert.Equal(t, 0, e.OpenBuckets())
}

func TestEngineSingletonWithNoRoutingKey(t *testing.T) {
	e := New(PartitionKey, 10, 0)

	out := e.Add(stmt("", 1))
	require.Len(t, out, 1)
	assert.Len(t, out[0].Statements, 1)
}

func TestEngineOversizedStatementBypassesGrouping(t *testing.T) {
	e := New(PartitionKey, 10, 100)

	out := e.Add(stmt("a", 200))
	require.Len(t, out, 1)
	assert.Len(t, out[0].Statements, 1)
	assert.Equal(t, 0, e.OpenBuckets())
}

func TestEngineFlushOrdersOldestFirst(t *testing.T) {
	e := New(PartitionKey, 10, 0)

	e.Add(stmt("a", 1))
	e.Add(stmt("b", 1))
	e.Add(stmt("a", 1))

	batches := e.Flush()
	require.Len(t, batches, 2)
	assert.Equal(t, "a", batches[0].RoutingToken)
	assert.Equal(t, "b", batches[1].RoutingToken)
	assert.Equal(t, 0, e.OpenBuckets())
}

func TestEveryStatementAppearsInExactlyOneBatch(t *testing.T) {
	e := New(PartitionKey, 3, 0)
	var produced []*statement.Statement

	inputs := []*statement.Statement{
		stmt("a", 1), stmt("a", 1), stmt("b", 1), stmt("a", 1), stmt("a", 1),
	}
	for _, s := range inputs {
		for _, b := range e.Add(s) {
			produced = append(produced, b.Statements...)
		}
	}
	for _, b := range e.Flush() {
		produced = append(produced, b.Statements...)
	}

	assert.Len(t, produced, len(inputs))
}
