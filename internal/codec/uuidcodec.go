package codec

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cqlio/dsbulk/internal/convert"
)

// minUUID and maxUUID are the all-zero and all-one UUIDs used by the MIN
// and MAX generation strategies.
var (
	minUUID = uuid.UUID{}
	maxUUID = uuid.UUID{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
)

// UUIDCodec converts between a textual UUID and an internal uuid.UUID.
// Empty and null values follow the shared null rule; the configured
// UUIDStrategy is applied only by GenerateUUID, not by this codec.
type UUIDCodec struct{}

func (UUIDCodec) ExternalType() ExternalType { return ExternalText }
func (UUIDCodec) InternalType() InternalType { return InternalUUID }

func (c UUIDCodec) ToInternal(ctx *convert.Context, external interface{}) (interface{}, error) {
	if v, isNull := handleLoadNull(ctx, c, external); isNull {
		return v, nil
	}
	s, ok := external.(string)
	if !ok {
		return nil, fmt.Errorf("codec: uuid expects a string, got %T", external)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("codec: %q is not a valid uuid: %w", s, err)
	}
	return id, nil
}

func (c UUIDCodec) ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error) {
	if v, isNull := handleUnloadNull(ctx, c, internal); isNull {
		return v, nil
	}
	id, ok := internal.(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("codec: uuid expects a uuid.UUID internal value, got %T", internal)
	}
	return id.String(), nil
}

// GenerateUUID manufactures a UUID per the Conversion Context's
// configured strategy, for fields with no source value (e.g. a generated
// surrogate key on unload, or RANDOM defaults on load).
func GenerateUUID(ctx *convert.Context) uuid.UUID {
	switch ctx.UUIDStrategy() {
	case convert.UUIDFixed:
		return uuid.UUID(ctx.FixedUUID())
	case convert.UUIDMin:
		return minUUID
	case convert.UUIDMax:
		return maxUUID
	default:
		id, err := uuid.NewUUID()
		if err != nil {
			return uuid.New()
		}
		return id
	}
}
