package statement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRoutingKeyReflectsNilness(t *testing.T) {
	withKey := &Statement{RoutingKey: []byte{1, 2, 3}}
	withoutKey := &Statement{}

	assert.True(t, withKey.HasRoutingKey())
	assert.False(t, withoutKey.HasRoutingKey())
}

func TestSizeBytesSumsTemplateAndValues(t *testing.T) {
	s := &Statement{
		Template: "INSERT INTO t (a, b) VALUES (:a, :b)",
		Values:   map[string]interface{}{"a": "US", "b": []byte{1, 2, 3, 4}},
	}
	n := s.SizeBytes()
	assert.Greater(t, n, len(s.Template))
}

func TestSizeBytesHandlesNilAndNestedValues(t *testing.T) {
	s := &Statement{
		Template: "INSERT INTO t (a) VALUES (:a)",
		Values:   map[string]interface{}{"a": nil, "b": []interface{}{"x", "yy"}},
	}
	n := s.SizeBytes()
	assert.Greater(t, n, len(s.Template))
}

func TestBatchLenAndSizeBytesAggregateStatements(t *testing.T) {
	s1 := &Statement{Template: "a", Values: map[string]interface{}{"x": "1"}}
	s2 := &Statement{Template: "bb", Values: map[string]interface{}{"y": "22"}}
	b := &Batch{Statements: []*Statement{s1, s2}}

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, s1.SizeBytes()+s2.SizeBytes(), b.SizeBytes())
}

func TestSingletonWrapsOneStatementAndCarriesToken(t *testing.T) {
	s := &Statement{Template: "a", RoutingToken: "tok-1"}
	b := Singleton(s)

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, "tok-1", b.RoutingToken)
	assert.Same(t, s, b.Statements[0])
}

func TestNewWriteSuccessIsSuccessful(t *testing.T) {
	r := NewWriteSuccess(&Statement{Template: "INSERT"})
	assert.True(t, r.IsSuccess())
	assert.Equal(t, KindWrite, r.Kind)
}

func TestNewReadSuccessCarriesRow(t *testing.T) {
	row := Row{"country": "US"}
	r := NewReadSuccess(&Statement{Template: "SELECT"}, row)
	assert.True(t, r.IsSuccess())
	assert.Equal(t, row, r.Row)
}

func TestNewFailureWrapsBulkExecutionError(t *testing.T) {
	cause := errors.New("write timeout")
	s := &Statement{Template: "INSERT INTO t VALUES (:a)"}
	r := NewFailure(KindWrite, s, cause)

	require.False(t, r.IsSuccess())
	require.NotNil(t, r.Err)
	assert.ErrorIs(t, r.Err, cause)
	assert.Contains(t, r.Err.Error(), s.Template)
}
