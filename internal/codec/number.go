package codec

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/cqlio/dsbulk/internal/convert"
)

// Overflow is returned when a parsed number does not fit the target
// internal type (under any OverflowStrategy), or when it has a fractional
// part, an integral target, and the strategy is OverflowReject.
type Overflow struct {
	Value  string
	Target InternalType
}

func (e *Overflow) Error() string {
	return fmt.Sprintf("codec: value %q overflows internal type %s", e.Value, e.Target)
}

// NumberCodec converts textual numbers to/from one of the fixed-width or
// arbitrary-precision internal numeric types. The same implementation
// backs Int, Bigint, Double, Decimal, and Varint; only the overflow
// bounds-check differs, selected by Internal.
type NumberCodec struct {
	Internal InternalType
}

func (c NumberCodec) ExternalType() ExternalType { return ExternalText }
func (c NumberCodec) InternalType() InternalType { return c.Internal }

func (c NumberCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: number expects a string, got %T", external)
	}

	d, err := parseNumber(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("codec: %q is not a valid number: %w", s, err)
	}

	switch c.Internal {
	case InternalDouble:
		f, _ := d.Float64()
		return f, nil
	case InternalDecimal:
		return d, nil
	case InternalVarint:
		rounded := applyOverflowStrategy(ctx, d)
		if rounded == nil {
			return nil, &Overflow{Value: s, Target: c.Internal}
		}
		return rounded.BigInt(), nil
	case InternalInt:
		return boundedInt(ctx, d, s, c.Internal, math.MinInt32, math.MaxInt32)
	case InternalBigint:
		return boundedInt(ctx, d, s, c.Internal, math.MinInt64, math.MaxInt64)
	default:
		return nil, fmt.Errorf("codec: NumberCodec misconfigured for internal type %s", c.Internal)
	}
}

func (c NumberCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	var d decimal.Decimal
	switch v := internal.(type) {
	case decimal.Decimal:
		d = v
	case *big.Int:
		d = decimal.NewFromBigInt(v, 0)
	case int32:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case float64:
		d = decimal.NewFromFloat(v)
	default:
		return nil, fmt.Errorf("codec: number unload expects a numeric internal value, got %T", internal)
	}
	return formatNumber(ctx, d), nil
}

// parseNumber first tries the locale's grouping convention when a number
// pattern is configured, then falls back to plain locale-neutral parsing.
// Only whether a pattern is set is read; its content is not interpreted.
func parseNumber(ctx *convert.Context, s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if ctx.NumberFormat() != "" {
		grouped := stripGrouping(ctx.Locale(), trimmed)
		if d, err := decimal.NewFromString(grouped); err == nil {
			return d, nil
		}
	}
	return decimal.NewFromString(stripGrouping(language.AmericanEnglish, trimmed))
}

// stripGrouping removes the locale's thousands separator so the
// remaining digit string parses under decimal.NewFromString, which only
// understands a plain "-?[0-9]+(.[0-9]+)?" grammar.
func stripGrouping(tag language.Tag, s string) string {
	p := message.NewPrinter(tag)
	sample := p.Sprintf("%d", number.Decimal(1000))
	separator := ""
	for _, r := range sample {
		if r < '0' || r > '9' {
			separator = string(r)
			break
		}
	}
	if separator == "" || separator == "." {
		return s
	}
	return strings.ReplaceAll(s, separator, "")
}

// formatNumber renders d using the locale's grouping convention.
func formatNumber(ctx *convert.Context, d decimal.Decimal) string {
	p := message.NewPrinter(ctx.Locale())
	f, _ := d.Float64()
	if d.Exponent() >= 0 {
		return p.Sprintf("%d", number.Decimal(int64(f)))
	}
	return p.Sprintf("%v", number.Decimal(f))
}

// boundedInt reduces d to an integer with applyOverflowStrategy and checks
// the result against [min, max]. A result outside that range fails with
// Overflow under every strategy; TRUNCATE and ROUND act only on a
// fractional part.
func boundedInt(ctx *convert.Context, d decimal.Decimal, original string, target InternalType, min, max int64) (interface{}, error) {
	rounded := applyOverflowStrategy(ctx, d)
	if rounded == nil {
		return nil, &Overflow{Value: original, Target: target}
	}
	i := *rounded
	bi := i.BigInt()
	if !bi.IsInt64() {
		return nil, &Overflow{Value: original, Target: target}
	}
	v := bi.Int64()
	if v < min || v > max {
		return nil, &Overflow{Value: original, Target: target}
	}
	if target == InternalInt {
		return int32(v), nil
	}
	return v, nil
}

// applyOverflowStrategy reduces d to an integral decimal.Decimal per the
// configured strategy, or returns nil when the strategy is OverflowReject
// and d carries a fractional part.
func applyOverflowStrategy(ctx *convert.Context, d decimal.Decimal) *decimal.Decimal {
	if d.Equal(d.Truncate(0)) {
		return &d
	}
	switch ctx.OverflowStrategy() {
	case OverflowReject:
		return nil
	case OverflowTruncate:
		t := d.Truncate(0)
		return &t
	case OverflowRound:
		var r decimal.Decimal
		switch ctx.RoundingMode() {
		case RoundHalfEven:
			r = d.RoundBank(0)
		case RoundHalfUp:
			r = d.Round(0)
		case RoundCeiling:
			r = d.RoundCeil(0)
		case RoundFloor:
			r = d.RoundFloor(0)
		case RoundDown:
			r = d.Truncate(0)
		default:
			r = d.Round(0)
		}
		return &r
	default:
		return nil
	}
}

// overflowStrategy/roundingMode local aliases kept private; re-exported
// through convert package to avoid an import cycle between codec and
// convert.
type OverflowStrategy = convert.OverflowStrategy
type RoundingMode = convert.RoundingMode

const (
	OverflowReject   = convert.OverflowReject
	OverflowTruncate = convert.OverflowTruncate
	OverflowRound    = convert.OverflowRound
)

const (
	RoundHalfUp   = convert.RoundHalfUp
	RoundHalfEven = convert.RoundHalfEven
	RoundCeiling  = convert.RoundCeiling
	RoundFloor    = convert.RoundFloor
	RoundDown     = convert.RoundDown
)
