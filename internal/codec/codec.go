// Package codec implements the Codec Registry: a lookup table from
// (external representation, internal CQL-like type) pairs to bidirectional
// converters, consulted by the record mapper on every field.
package codec

import (
	"fmt"

	"github.com/cqlio/dsbulk/internal/convert"
)

// ExternalType distinguishes textual external representations (a CSV
// cell, a URL query parameter) from structured ones (an already-decoded
// JSON value) — the null-handling rule in handleLoadNull/handleUnloadNull
// branches on this.
type ExternalType int

const (
	ExternalText ExternalType = iota
	ExternalJSON
)

func (t ExternalType) String() string {
	switch t {
	case ExternalText:
		return "text"
	case ExternalJSON:
		return "json"
	default:
		return "unknown"
	}
}

// InternalType enumerates the CQL-like internal types the registry can
// target. Collection types carry an element type alongside them; see
// ListOf/SetOf.
type InternalType int

const (
	InternalText InternalType = iota
	InternalBoolean
	InternalInt
	InternalBigint
	InternalDouble
	InternalDecimal
	InternalVarint
	InternalTimestamp
	InternalDate
	InternalTime
	InternalUUID
	InternalList
	InternalSet
	InternalPoint
	InternalLineString
	InternalPolygon
)

func (t InternalType) String() string {
	switch t {
	case InternalText:
		return "text"
	case InternalBoolean:
		return "boolean"
	case InternalInt:
		return "int"
	case InternalBigint:
		return "bigint"
	case InternalDouble:
		return "double"
	case InternalDecimal:
		return "decimal"
	case InternalVarint:
		return "varint"
	case InternalTimestamp:
		return "timestamp"
	case InternalDate:
		return "date"
	case InternalTime:
		return "time"
	case InternalUUID:
		return "uuid"
	case InternalList:
		return "list"
	case InternalSet:
		return "set"
	case InternalPoint:
		return "point"
	case InternalLineString:
		return "linestring"
	case InternalPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Null is the typed-null marker codecs produce and consume on the
// internal side. It carries no data; its presence alone means "null."
type Null struct{}

// IsNull reports whether v is the internal null marker.
func IsNull(v interface{}) bool {
	_, ok := v.(Null)
	return ok
}

// Codec bidirectionally converts between one external representation and
// one internal CQL-like type.
type Codec interface {
	ExternalType() ExternalType
	InternalType() InternalType

	// ToInternal converts an external value (string for ExternalText,
	// an arbitrary decoded value for ExternalJSON) into the internal
	// representation, or returns Null{} per the null-sentinel rules.
	ToInternal(ctx *convert.Context, external interface{}) (interface{}, error)

	// ToExternal converts an internal value (possibly Null{}) back into
	// the external representation.
	ToExternal(ctx *convert.Context, internal interface{}) (interface{}, error)
}

// key identifies one registration slot.
type key struct {
	ext ExternalType
	in  internalKey
}

// internalKey distinguishes InternalList/InternalSet by element type in
// addition to the bare InternalType tag, since "list of int" and "list of
// text" are registered separately.
type internalKey struct {
	typ     InternalType
	element InternalType
}

// NoCodecFound is returned by Registry.Lookup when no codec is registered
// for the requested pair.
type NoCodecFound struct {
	External ExternalType
	Internal InternalType
	Element  InternalType
	HasElem  bool
}

func (e *NoCodecFound) Error() string {
	if e.HasElem {
		return fmt.Sprintf("codec: no codec registered for external=%s internal=%s<%s>", e.External, e.Internal, e.Element)
	}
	return fmt.Sprintf("codec: no codec registered for external=%s internal=%s", e.External, e.Internal)
}

// Registry is an exact-match lookup table, built once at startup and
// immutable thereafter — safe to share across every concurrent mapper
// invocation. It holds no Conversion Context; codecs receive one on each
// conversion call.
type Registry struct {
	entries map[key]Codec
	byInt   map[InternalType][]Codec
}

// NewRegistry builds an empty registry. Use BuildRegistry (see build.go)
// for one populated with the standard codec set.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[key]Codec),
		byInt:   make(map[InternalType][]Codec),
	}
}

// Register adds a scalar (non-collection) codec to the registry.
func (r *Registry) Register(c Codec) {
	k := key{ext: c.ExternalType(), in: internalKey{typ: c.InternalType()}}
	r.entries[k] = c
	r.byInt[c.InternalType()] = append(r.byInt[c.InternalType()], c)
}

// RegisterCollection adds a list/set codec, keyed additionally by its
// element type so that list<int> and list<text> coexist.
func (r *Registry) RegisterCollection(c Codec, element InternalType) {
	k := key{ext: c.ExternalType(), in: internalKey{typ: c.InternalType(), element: element}}
	r.entries[k] = c
	r.byInt[c.InternalType()] = append(r.byInt[c.InternalType()], c)
}

// Lookup returns the scalar codec for (external, internal), or
// NoCodecFound.
func (r *Registry) Lookup(external ExternalType, internal InternalType) (Codec, error) {
	k := key{ext: external, in: internalKey{typ: internal}}
	if c, ok := r.entries[k]; ok {
		return c, nil
	}
	return nil, &NoCodecFound{External: external, Internal: internal}
}

// LookupCollection returns the list/set codec for (external, internal,
// element), or NoCodecFound.
func (r *Registry) LookupCollection(external ExternalType, internal, element InternalType) (Codec, error) {
	k := key{ext: external, in: internalKey{typ: internal, element: element}}
	if c, ok := r.entries[k]; ok {
		return c, nil
	}
	return nil, &NoCodecFound{External: external, Internal: internal, Element: element, HasElem: true}
}

// ListForInternal returns every registered codec that targets the given
// internal type, across all external representations.
func (r *Registry) ListForInternal(internal InternalType) []Codec {
	return r.byInt[internal]
}

// externalIsTextual reports whether a codec's external side is the
// textual representation, used by the shared null-handling rule.
func externalIsTextual(c Codec) bool {
	return c.ExternalType() == ExternalText
}

// handleLoadNull implements the registry-wide null rule on the load path
// (external -> internal): returns (Null{}, true) if external should
// convert to null, else (nil, false) meaning proceed with normal parsing.
func handleLoadNull(ctx *convert.Context, c Codec, external interface{}) (interface{}, bool) {
	if externalIsTextual(c) {
		s, ok := external.(string)
		if !ok {
			return nil, false
		}
		if ctx.IsNull(s) {
			return Null{}, true
		}
		// Regardless of config: non-textual internal target + empty
		// external string converts to null.
		if s == "" && c.InternalType() != InternalText {
			return Null{}, true
		}
		return nil, false
	}
	// Non-textual (e.g. JSON) external: nil represents null directly.
	if external == nil {
		return Null{}, true
	}
	return nil, false
}

// handleUnloadNull implements the registry-wide null rule on the unload
// path (internal -> external): returns (externalValue, true) if internal
// is null, else (nil, false) meaning proceed with normal formatting.
func handleUnloadNull(ctx *convert.Context, c Codec, internal interface{}) (interface{}, bool) {
	if !IsNull(internal) {
		return nil, false
	}
	if externalIsTextual(c) {
		return ctx.NullString(), true
	}
	return nil, true
}
