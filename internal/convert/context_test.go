package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestNewContextAppliesDefaults(t *testing.T) {
	c := NewContext()

	assert.Equal(t, language.AmericanEnglish, c.Locale())
	assert.Equal(t, time.UTC, c.TimeZone())
	assert.Equal(t, []string{"NULL"}, c.NullStrings())
	assert.Equal(t, UUIDRandom, c.UUIDStrategy())
	assert.True(t, c.FieldPolicy().AllowExtraFields)
	assert.True(t, c.FieldPolicy().AllowMissingFields)
}

func TestWithOptionsOverrideDefaults(t *testing.T) {
	fixed := [16]byte{1, 2, 3}
	c := NewContext(
		WithLocale(language.French),
		WithTimeZone(time.FixedZone("CET", 3600)),
		WithNullStrings("", "NA"),
		WithBooleanWords(BooleanWords{True: "yes", False: "no"}),
		WithBooleanNumbers(2, 3),
		WithUUIDStrategy(UUIDFixed, fixed),
		WithFieldPolicy(FieldPolicy{AllowExtraFields: false, AllowMissingFields: false}),
	)

	assert.Equal(t, language.French, c.Locale())
	assert.Equal(t, "CET", c.TimeZone().String())
	assert.Equal(t, []string{"", "NA"}, c.NullStrings())
	assert.Equal(t, "yes", c.BooleanWords()[0].True)
	assert.Equal(t, [2]int64{2, 3}, c.BooleanNumbers())
	assert.Equal(t, UUIDFixed, c.UUIDStrategy())
	assert.Equal(t, fixed, c.FixedUUID())
	assert.False(t, c.FieldPolicy().AllowExtraFields)
}

func TestIsNullMatchesConfiguredSentinels(t *testing.T) {
	c := NewContext(WithNullStrings("NULL", ""))

	assert.True(t, c.IsNull("NULL"))
	assert.True(t, c.IsNull(""))
	assert.False(t, c.IsNull("null"))
}

func TestNullStringReturnsFirstConfiguredSentinel(t *testing.T) {
	c := NewContext(WithNullStrings("NULL", "NA"))
	assert.Equal(t, "NULL", c.NullString())

	empty := NewContext(WithNullStrings())
	assert.Equal(t, "", empty.NullString())
}

func TestWithEpochOverridesDefaultUnixEpoch(t *testing.T) {
	epoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewContext(WithEpoch(epoch, time.Second))

	assert.True(t, c.Epoch().Equal(epoch))
	assert.Equal(t, time.Second, c.TimeUnit())
}

func TestWithTemporalFormatsSetsAllThreePatterns(t *testing.T) {
	c := NewContext(WithTemporalFormats("2006", "01-02", "15:04"))

	assert.Equal(t, "2006", c.TimestampFormat())
	assert.Equal(t, "01-02", c.DateFormat())
	assert.Equal(t, "15:04", c.TimeFormat())
}
