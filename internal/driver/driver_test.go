package driver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqlio/dsbulk/internal/codec"
)

func TestToDriverValueConvertsDecimal(t *testing.T) {
	d, _ := decimal.NewFromString("12.50")
	v, err := toDriverValue(d)
	require.NoError(t, err)
	n, ok := v.(pgtype.Numeric)
	require.True(t, ok)
	assert.Equal(t, pgtype.Present, n.Status)
}

func TestToDriverValueConvertsUUID(t *testing.T) {
	id := uuid.New()
	v, err := toDriverValue(id)
	require.NoError(t, err)
	pgID, ok := v.(pgtype.UUID)
	require.True(t, ok)
	assert.Equal(t, [16]byte(id), pgID.Bytes)
}

func TestToDriverValuePassesThroughScalars(t *testing.T) {
	v, err := toDriverValue("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestToDriverValueNullBecomesNil(t *testing.T) {
	v, err := toDriverValue(codec.Null{})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestIsConnectionErrorMatchesKeywords(t *testing.T) {
	assert.True(t, isConnectionError(errWithMessage("dial tcp: connection refused")))
	assert.False(t, isConnectionError(nil))
}

type stringError string

func (e stringError) Error() string { return string(e) }

func errWithMessage(msg string) error { return stringError(msg) }
