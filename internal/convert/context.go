// Package convert holds the immutable Conversion Context consulted by the
// codec registry: locale, zone, null sentinels, boolean word pairs,
// temporal formats, and numeric overflow/rounding policy.
package convert

import (
	"time"

	"golang.org/x/text/language"
)

// OverflowStrategy controls what happens when a parsed number has a
// fractional part and the target internal numeric type is integral. A
// value outside the target type's range fails with Overflow under every
// strategy.
type OverflowStrategy int

const (
	// OverflowReject fails the conversion with an Overflow error.
	OverflowReject OverflowStrategy = iota
	// OverflowTruncate discards the fractional part.
	OverflowTruncate
	// OverflowRound rounds the fractional part away using the configured
	// RoundingMode.
	OverflowRound
)

// RoundingMode mirrors the handful of rounding strategies codecs apply
// when OverflowRound is selected.
type RoundingMode int

const (
	RoundHalfUp RoundingMode = iota
	RoundHalfEven
	RoundCeiling
	RoundFloor
	RoundDown
)

// UUIDStrategy selects how codec.GenerateUUID manufactures values for
// bindings with no source value (e.g. a generated surrogate key). The
// UUID codec itself does not consult it when parsing or formatting.
type UUIDStrategy int

const (
	UUIDRandom UUIDStrategy = iota
	UUIDFixed
	UUIDMin
	UUIDMax
)

// FieldPolicy controls how the registry/mapper react to fields present in
// a record but absent from the prepared statement, or vice versa.
type FieldPolicy struct {
	AllowExtraFields   bool
	AllowMissingFields bool
}

// BooleanWords is one (true-word, false-word) pair used to parse/format
// boolean external representations.
type BooleanWords struct {
	True  string
	False string
}

// Context is the immutable formatter/policy bundle every Codec consults.
// Build it once via NewContext and share it across the whole operation.
type Context struct {
	locale   language.Tag
	timeZone *time.Location

	// nullStrings: ordered; first is used for formatting on unload, all
	// are matched (case-sensitive) for null detection on load.
	nullStrings []string

	// booleanWords: ordered; only the first pair is used when unloading.
	booleanWords []BooleanWords
	// booleanNumbers: exactly 2 entries, [0]=true, [1]=false.
	booleanNumbers [2]int64

	timestampFormat string
	dateFormat      string
	timeFormat      string
	numberFormat    string

	overflowStrategy OverflowStrategy
	roundingMode     RoundingMode

	epoch    time.Time
	timeUnit time.Duration

	uuidStrategy UUIDStrategy
	fixedUUID    [16]byte

	fieldPolicy FieldPolicy
}

// CQLTimestampFormat is the sentinel temporal pattern accepted by the
// timestamp codec in addition to (or instead of) an explicit Go layout:
// it accepts any CQL temporal literal and resolves local values against
// TimeZone(); unload always renders with time.RFC3339Nano equivalent
// (ISO_OFFSET_DATE_TIME).
const CQLTimestampFormat = "CQL_TIMESTAMP"

// Option configures a Context at construction time.
type Option func(*Context)

// WithLocale sets the locale used for locale-aware number formatting.
func WithLocale(tag language.Tag) Option {
	return func(c *Context) { c.locale = tag }
}

// WithTimeZone sets the zone local date/times are resolved against.
func WithTimeZone(loc *time.Location) Option {
	return func(c *Context) { c.timeZone = loc }
}

// WithNullStrings sets the ordered null-sentinel list.
func WithNullStrings(values ...string) Option {
	return func(c *Context) { c.nullStrings = append([]string(nil), values...) }
}

// WithBooleanWords sets the ordered boolean word-pair list.
func WithBooleanWords(pairs ...BooleanWords) Option {
	return func(c *Context) { c.booleanWords = append([]BooleanWords(nil), pairs...) }
}

// WithBooleanNumbers sets the numeric true/false encoding.
func WithBooleanNumbers(trueValue, falseValue int64) Option {
	return func(c *Context) { c.booleanNumbers = [2]int64{trueValue, falseValue} }
}

// WithTemporalFormats sets the timestamp/date/time parse-format patterns.
// A timestampFormat of CQLTimestampFormat enables the CQL-literal fallback.
func WithTemporalFormats(timestampFormat, dateFormat, timeFormat string) Option {
	return func(c *Context) {
		c.timestampFormat = timestampFormat
		c.dateFormat = dateFormat
		c.timeFormat = timeFormat
	}
}

// WithNumberFormat sets the configured number pattern. When it is
// non-empty, number parsing first tries the locale's grouping convention
// before the locale-neutral fallback; the pattern's content is not
// interpreted.
func WithNumberFormat(pattern string) Option {
	return func(c *Context) { c.numberFormat = pattern }
}

// WithOverflowStrategy sets the numeric overflow policy.
func WithOverflowStrategy(s OverflowStrategy) Option {
	return func(c *Context) { c.overflowStrategy = s }
}

// WithRoundingMode sets the rounding mode consulted under OverflowRound.
func WithRoundingMode(m RoundingMode) Option {
	return func(c *Context) { c.roundingMode = m }
}

// WithEpoch sets the epoch and unit used to interpret all-digit temporal
// strings that the configured temporal format rejects.
func WithEpoch(epoch time.Time, unit time.Duration) Option {
	return func(c *Context) {
		c.epoch = epoch
		c.timeUnit = unit
	}
}

// WithUUIDStrategy sets the v1-UUID generation strategy.
func WithUUIDStrategy(s UUIDStrategy, fixed [16]byte) Option {
	return func(c *Context) {
		c.uuidStrategy = s
		c.fixedUUID = fixed
	}
}

// WithFieldPolicy sets the extra/missing field tolerance.
func WithFieldPolicy(p FieldPolicy) Option {
	return func(c *Context) { c.fieldPolicy = p }
}

// NewContext builds an immutable Context with sensible defaults,
// overridden by opts in order.
func NewContext(opts ...Option) *Context {
	c := &Context{
		locale:          language.AmericanEnglish,
		timeZone:        time.UTC,
		nullStrings:     []string{"NULL"},
		booleanWords:    []BooleanWords{{True: "true", False: "false"}},
		booleanNumbers:  [2]int64{1, 0},
		timestampFormat: CQLTimestampFormat,
		dateFormat:      "2006-01-02",
		timeFormat:      "15:04:05.999999999",
		numberFormat:    "",
		epoch:           time.Unix(0, 0).UTC(),
		timeUnit:        time.Millisecond,
		uuidStrategy:    UUIDRandom,
		fieldPolicy:     FieldPolicy{AllowExtraFields: true, AllowMissingFields: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Locale() language.Tag       { return c.locale }
func (c *Context) TimeZone() *time.Location   { return c.timeZone }
func (c *Context) NullStrings() []string      { return c.nullStrings }
func (c *Context) BooleanWords() []BooleanWords {
	return c.booleanWords
}
func (c *Context) BooleanNumbers() [2]int64      { return c.booleanNumbers }
func (c *Context) TimestampFormat() string       { return c.timestampFormat }
func (c *Context) DateFormat() string            { return c.dateFormat }
func (c *Context) TimeFormat() string            { return c.timeFormat }
func (c *Context) NumberFormat() string          { return c.numberFormat }
func (c *Context) OverflowStrategy() OverflowStrategy { return c.overflowStrategy }
func (c *Context) RoundingMode() RoundingMode    { return c.roundingMode }
func (c *Context) Epoch() time.Time              { return c.epoch }
func (c *Context) TimeUnit() time.Duration        { return c.timeUnit }
func (c *Context) UUIDStrategy() UUIDStrategy    { return c.uuidStrategy }
func (c *Context) FixedUUID() [16]byte           { return c.fixedUUID }
func (c *Context) FieldPolicy() FieldPolicy      { return c.fieldPolicy }

// IsNull reports whether the external string s is one of the configured
// null sentinels.
func (c *Context) IsNull(s string) bool {
	for _, n := range c.nullStrings {
		if s == n {
			return true
		}
	}
	return false
}

// NullString is the sentinel emitted when unloading a null into a textual
// external type: the first configured null string, or "" if none.
func (c *Context) NullString() string {
	if len(c.nullStrings) == 0 {
		return ""
	}
	return c.nullStrings[0]
}
