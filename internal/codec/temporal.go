package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cqlio/dsbulk/internal/convert"
)

// cqlTemporalLayouts are the CQL literal forms accepted under the
// CQL_TIMESTAMP sentinel pattern, tried in order.
var cqlTemporalLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// TimestampCodec converts between a textual timestamp and an internal
// time.Time in UTC.
type TimestampCodec struct{}

func (TimestampCodec) ExternalType() ExternalType { return ExternalText }
func (TimestampCodec) InternalType() InternalType { return InternalTimestamp }

func (c TimestampCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: timestamp expects a string, got %T", external)
	}

	if ctx.TimestampFormat() == convert.CQLTimestampFormat {
		for _, layout := range cqlTemporalLayouts {
			if t, err := time.ParseInLocation(layout, s, ctx.TimeZone()); err == nil {
				return t.In(time.UTC), nil
			}
		}
	} else if t, err := time.ParseInLocation(ctx.TimestampFormat(), s, ctx.TimeZone()); err == nil {
		return t.In(time.UTC), nil
	}

	if isAllDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("codec: %q is not a valid epoch offset: %w", s, err)
		}
		return ctx.Epoch().Add(time.Duration(n) * ctx.TimeUnit()), nil
	}

	return nil, fmt.Errorf("codec: %q does not match the configured timestamp format", s)
}

func (c TimestampCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	t, ok := internal.(time.Time)
	if !ok {
		return nil, fmt.Errorf("codec: timestamp expects a time.Time internal value, got %T", internal)
	}
	if ctx.TimestampFormat() == convert.CQLTimestampFormat {
		return t.In(ctx.TimeZone()).Format(time.RFC3339Nano), nil
	}
	return t.In(ctx.TimeZone()).Format(ctx.TimestampFormat()), nil
}

// DateCodec converts between a textual date and an internal time.Time
// truncated to midnight.
type DateCodec struct{}

func (DateCodec) ExternalType() ExternalType { return ExternalText }
func (DateCodec) InternalType() InternalType { return InternalDate }

func (c DateCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: date expects a string, got %T", external)
	}
	t, err := time.ParseInLocation(ctx.DateFormat(), s, ctx.TimeZone())
	if err != nil {
		return nil, fmt.Errorf("codec: %q does not match the configured date format: %w", s, err)
	}
	return t, nil
}

func (c DateCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	t, ok := internal.(time.Time)
	if !ok {
		return nil, fmt.Errorf("codec: date expects a time.Time internal value, got %T", internal)
	}
	return t.Format(ctx.DateFormat()), nil
}

// TimeCodec converts between a textual time-of-day and an internal
// time.Duration since midnight.
type TimeCodec struct{}

func (TimeCodec) ExternalType() ExternalType { return ExternalText }
func (TimeCodec) InternalType() InternalType { return InternalTime }

func (c TimeCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: time expects a string, got %T", external)
	}
	t, err := time.ParseInLocation(ctx.TimeFormat(), s, ctx.TimeZone())
	if err != nil {
		return nil, fmt.Errorf("codec: %q does not match the configured time format: %w", s, err)
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.Sub(midnight), nil
}

func (c TimeCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	d, ok := internal.(time.Duration)
	if !ok {
		return nil, fmt.Errorf("codec: time expects a time.Duration internal value, got %T", internal)
	}
	midnight := time.Date(1970, 1, 1, 0, 0, 0, 0, ctx.TimeZone())
	return midnight.Add(d).Format(ctx.TimeFormat()), nil
}

func isAllDigits(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
