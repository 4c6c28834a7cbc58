package codec

import (
	"fmt"

	"github.com/cqlio/dsbulk/internal/convert"
)

// TextCodec is the identity codec for plain textual columns: the
// internal value is the same Go string as the external one, modulo the
// shared null-sentinel rule.
type TextCodec struct{}

func (TextCodec) ExternalType() ExternalType { return ExternalText }
func (TextCodec) InternalType() InternalType { return InternalText }

func (c TextCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: text expects a string, got %T", external)
	}
	return s, nil
}

func (c TextCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	s, ok := internal.(string)
	if !ok {
		return nil, fmt.Errorf("codec: text unload expects a string, got %T", internal)
	}
	return s, nil
}
