package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetRoundTripByIndex(t *testing.T) {
	r := New("US,100", "file:///ips.csv", 1)
	require.NoError(t, r.Set(IndexField(0), "US"))
	require.NoError(t, r.Set(IndexField(1), "100"))

	v, ok := r.Get(IndexField(0))
	assert.True(t, ok)
	assert.Equal(t, "US", v)
	assert.Equal(t, 2, r.Len())
}

func TestSetOverwritesExistingField(t *testing.T) {
	r := New(nil, "file:///ips.csv", 1)
	require.NoError(t, r.Set(NameField("country"), "US"))
	require.NoError(t, r.Set(NameField("country"), "FR"))

	v, ok := r.Get(NameField("country"))
	assert.True(t, ok)
	assert.Equal(t, "FR", v)
	assert.Equal(t, 1, r.Len())
}

func TestGetMissingFieldReturnsFalse(t *testing.T) {
	r := New(nil, "file:///ips.csv", 1)
	_, ok := r.Get(NameField("missing"))
	assert.False(t, ok)
}

func TestFieldsPreservesInsertionOrder(t *testing.T) {
	r := New(nil, "file:///ips.csv", 1)
	require.NoError(t, r.Set(NameField("b"), 2))
	require.NoError(t, r.Set(NameField("a"), 1))

	fields := r.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "b", fields[0].Name())
	assert.Equal(t, "a", fields[1].Name())
}

func TestErrorRecordRejectsSet(t *testing.T) {
	cause := errors.New("malformed row")
	r := NewError("bad,row", "file:///ips.csv", 4, cause)

	assert.True(t, r.IsError())
	assert.ErrorIs(t, r.Cause(), cause)
	assert.Equal(t, 0, r.Len())

	err := r.Set(IndexField(0), "x")
	assert.Error(t, err)
}

func TestNewPanicsOnNonPositivePosition(t *testing.T) {
	assert.Panics(t, func() { New(nil, "file:///ips.csv", 0) })
}

func TestIndexFieldPanicsOnNegativeIndex(t *testing.T) {
	assert.Panics(t, func() { IndexField(-1) })
}

func TestNameFieldPanicsOnEmptyName(t *testing.T) {
	assert.Panics(t, func() { NameField("") })
}
