package codec

import (
	"fmt"

	"github.com/cqlio/dsbulk/internal/convert"
)

// ListCodec recursively delegates each element to an inner codec,
// preserving insertion order.
type ListCodec struct {
	Element Codec
}

func (ListCodec) ExternalType() ExternalType { return ExternalJSON }
func (ListCodec) InternalType() InternalType { return InternalList }

func (c ListCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	items, ok := external.([]interface{})
	if !ok {
		return nil, fmt.Errorf("codec: list expects a slice, got %T", external)
	}
	out := make([]interface{}, 0, len(items))
	for i, item := range items {
		v, err := c.Element.ToInternal(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("codec: list element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c ListCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	items, ok := internal.([]interface{})
	if !ok {
		return nil, fmt.Errorf("codec: list unload expects a []interface{}, got %T", internal)
	}
	out := make([]interface{}, 0, len(items))
	for i, item := range items {
		v, err := c.Element.ToExternal(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("codec: list element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SetCodec recursively delegates each element to an inner codec,
// deduplicating by the element's external string form.
type SetCodec struct {
	Element Codec
}

func (SetCodec) ExternalType() ExternalType { return ExternalJSON }
func (SetCodec) InternalType() InternalType { return InternalSet }

func (c SetCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	items, ok := external.([]interface{})
	if !ok {
		return nil, fmt.Errorf("codec: set expects a slice, got %T", external)
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]interface{}, 0, len(items))
	for i, item := range items {
		v, err := c.Element.ToInternal(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("codec: set element %d: %w", i, err)
		}
		dedupKey := fmt.Sprintf("%v", v)
		if _, exists := seen[dedupKey]; exists {
			continue
		}
		seen[dedupKey] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (c SetCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	items, ok := internal.([]interface{})
	if !ok {
		return nil, fmt.Errorf("codec: set unload expects a []interface{}, got %T", internal)
	}
	out := make([]interface{}, 0, len(items))
	for i, item := range items {
		v, err := c.Element.ToExternal(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("codec: set element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
