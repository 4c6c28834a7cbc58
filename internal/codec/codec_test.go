package codec

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqlio/dsbulk/internal/convert"
)

func TestBooleanTextCodecRoundTrip(t *testing.T) {
	ctx := convert.NewContext(convert.WithBooleanWords(convert.BooleanWords{True: "yes", False: "no"}))
	c := BooleanTextCodec{}

	internal, err := c.ToInternal(ctx, "YES")
	require.NoError(t, err)
	assert.Equal(t, true, internal)

	external, err := c.ToExternal(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "no", external)
}

func TestBooleanNumberCodecRoundTrip(t *testing.T) {
	ctx := convert.NewContext(convert.WithBooleanNumbers(1, 0))
	c := BooleanNumberCodec{}

	internal, err := c.ToInternal(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, true, internal)

	internal, err = c.ToInternal(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, false, internal)

	external, err := c.ToExternal(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "1", external)

	external, err = c.ToExternal(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "0", external)
}

func TestBooleanNumberCodecHonorsConfiguredEncoding(t *testing.T) {
	ctx := convert.NewContext(convert.WithBooleanNumbers(2, 9))
	c := BooleanNumberCodec{}

	internal, err := c.ToInternal(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, true, internal)

	_, err = c.ToInternal(ctx, "1")
	assert.Error(t, err)
}

func TestBuildRegistryWithBooleanNumbersSelectsNumericCodec(t *testing.T) {
	r := BuildRegistryWithBooleanNumbers()
	c, err := r.Lookup(ExternalText, InternalBoolean)
	require.NoError(t, err)
	_, ok := c.(BooleanNumberCodec)
	assert.True(t, ok)

	ctx := convert.NewContext(convert.WithBooleanNumbers(1, 0))
	internal, err := c.ToInternal(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, true, internal)
}

func TestNullSentinelRules(t *testing.T) {
	ctx := convert.NewContext(convert.WithNullStrings("NULL", "N/A"))
	c := NumberCodec{Internal: InternalInt}

	internal, err := c.ToInternal(ctx, "N/A")
	require.NoError(t, err)
	assert.True(t, IsNull(internal))

	// non-textual target + empty string is always null, regardless of
	// configured null sentinels.
	internal, err = c.ToInternal(ctx, "")
	require.NoError(t, err)
	assert.True(t, IsNull(internal))

	external, err := c.ToExternal(ctx, Null{})
	require.NoError(t, err)
	assert.Equal(t, "NULL", external)
}

func TestNumberOverflowReject(t *testing.T) {
	ctx := convert.NewContext(convert.WithOverflowStrategy(convert.OverflowReject))
	c := NumberCodec{Internal: InternalInt}

	_, err := c.ToInternal(ctx, "3.5")
	require.Error(t, err)
	var overflow *Overflow
	require.ErrorAs(t, err, &overflow)
}

func TestNumberOverflowTruncate(t *testing.T) {
	ctx := convert.NewContext(convert.WithOverflowStrategy(convert.OverflowTruncate))
	c := NumberCodec{Internal: InternalInt}

	internal, err := c.ToInternal(ctx, "3.9")
	require.NoError(t, err)
	assert.Equal(t, int32(3), internal)
}

func TestNumberOverflowTruncateVarint(t *testing.T) {
	ctx := convert.NewContext(convert.WithOverflowStrategy(convert.OverflowTruncate))
	c := NumberCodec{Internal: InternalVarint}

	internal, err := c.ToInternal(ctx, "3.9")
	require.NoError(t, err)
	bi, ok := internal.(*big.Int)
	require.True(t, ok)
	assert.Equal(t, "3", bi.String())
}

func TestNumberOverflowRoundVarint(t *testing.T) {
	ctx := convert.NewContext(
		convert.WithOverflowStrategy(convert.OverflowRound),
		convert.WithRoundingMode(convert.RoundHalfUp),
	)
	c := NumberCodec{Internal: InternalVarint}

	internal, err := c.ToInternal(ctx, "3.5")
	require.NoError(t, err)
	bi, ok := internal.(*big.Int)
	require.True(t, ok)
	assert.Equal(t, "4", bi.String())
}

func TestNumberOverflowRejectVarint(t *testing.T) {
	ctx := convert.NewContext(convert.WithOverflowStrategy(convert.OverflowReject))
	c := NumberCodec{Internal: InternalVarint}

	_, err := c.ToInternal(ctx, "3.5")
	require.Error(t, err)
	var overflow *Overflow
	require.ErrorAs(t, err, &overflow)
}

func TestTimestampCQLSentinel(t *testing.T) {
	ctx := convert.NewContext()
	c := TimestampCodec{}

	internal, err := c.ToInternal(ctx, "2024-03-05T10:15:30Z")
	require.NoError(t, err)
	tm, ok := internal.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2024, tm.Year())

	external, err := c.ToExternal(ctx, tm)
	require.NoError(t, err)
	assert.Contains(t, external.(string), "2024-03-05")
}

func TestTimestampEpochFallback(t *testing.T) {
	ctx := convert.NewContext(convert.WithEpoch(time.Unix(0, 0).UTC(), time.Second))
	c := TimestampCodec{}

	internal, err := c.ToInternal(ctx, "100")
	require.NoError(t, err)
	tm := internal.(time.Time)
	assert.Equal(t, int64(100), tm.Unix())
}

func TestListCodecPreservesOrder(t *testing.T) {
	ctx := convert.NewContext()
	c := ListCodec{Element: TextCodec{}}

	internal, err := c.ToInternal(ctx, []interface{}{"b", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"b", "a", "b"}, internal)
}

func TestSetCodecDeduplicates(t *testing.T) {
	ctx := convert.NewContext()
	c := SetCodec{Element: TextCodec{}}

	internal, err := c.ToInternal(ctx, []interface{}{"b", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"b", "a"}, internal)
}

func TestPointCodecWKT(t *testing.T) {
	ctx := convert.NewContext()
	c := PointCodec{}

	internal, err := c.ToInternal(ctx, "POINT (30 10)")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 30, Y: 10}, internal)

	external, err := c.ToExternal(ctx, Point{X: 30, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, "POINT (30 10)", external)
}

func TestPolygonCodecWKT(t *testing.T) {
	ctx := convert.NewContext()
	c := PolygonCodec{}

	internal, err := c.ToInternal(ctx, "POLYGON ((30 10, 40 40, 20 40, 10 20, 30 10))")
	require.NoError(t, err)
	poly, ok := internal.(Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 5)
}

func TestRegistryLookupMiss(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup(ExternalText, InternalBoolean)
	require.Error(t, err)
	var notFound *NoCodecFound
	require.ErrorAs(t, err, &notFound)
}

func TestBuildRegistryCoversScalars(t *testing.T) {
	r := BuildRegistry()
	c, err := r.Lookup(ExternalText, InternalUUID)
	require.NoError(t, err)
	assert.Equal(t, InternalUUID, c.InternalType())

	listCodec, err := r.LookupCollection(ExternalJSON, InternalList, InternalInt)
	require.NoError(t, err)
	assert.Equal(t, InternalList, listCodec.InternalType())
}
