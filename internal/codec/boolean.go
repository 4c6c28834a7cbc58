package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cqlio/dsbulk/internal/convert"
)

// BooleanTextCodec converts between a textual true/false word and an
// internal bool, per the configured BooleanWords pairs.
type BooleanTextCodec struct{}

func (BooleanTextCodec) ExternalType() ExternalType { return ExternalText }
func (BooleanTextCodec) InternalType() InternalType { return InternalBoolean }

func (c BooleanTextCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: boolean expects a string, got %T", external)
	}
	for _, pair := range ctx.BooleanWords() {
		if strings.EqualFold(s, pair.True) {
			return true, nil
		}
		if strings.EqualFold(s, pair.False) {
			return false, nil
		}
	}
	return nil, fmt.Errorf("codec: %q does not match any configured boolean word pair", s)
}

func (c BooleanTextCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	b, ok := internal.(bool)
	if !ok {
		return nil, fmt.Errorf("codec: boolean expects a bool internal value, got %T", internal)
	}
	pairs := ctx.BooleanWords()
	if len(pairs) == 0 {
		return strconv.FormatBool(b), nil
	}
	if b {
		return pairs[0].True, nil
	}
	return pairs[0].False, nil
}

// BooleanNumberCodec converts between a numeric string and an internal
// bool, using the configured booleanNumbers[0]=true, [1]=false encoding.
type BooleanNumberCodec struct{}

func (BooleanNumberCodec) ExternalType() ExternalType { return ExternalText }
func (BooleanNumberCodec) InternalType() InternalType { return InternalBoolean }

func (c BooleanNumberCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: boolean number expects a string, got %T", external)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("codec: %q is not a valid boolean number: %w", s, err)
	}
	nums := ctx.BooleanNumbers()
	switch n {
	case nums[0]:
		return true, nil
	case nums[1]:
		return false, nil
	default:
		return nil, fmt.Errorf("codec: %d does not match either configured boolean number", n)
	}
}

func (c BooleanNumberCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	b, ok := internal.(bool)
	if !ok {
		return nil, fmt.Errorf("codec: boolean number expects a bool internal value, got %T", internal)
	}
	nums := ctx.BooleanNumbers()
	if b {
		return strconv.FormatInt(nums[0], 10), nil
	}
	return strconv.FormatInt(nums[1], 10), nil
}
