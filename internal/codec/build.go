package codec

// BuildRegistry constructs the standard codec set every operation needs:
// one scalar codec per internal type, plus list/set codecs over each of
// the elementary internal types. The Conversion Context governing parsing
// and formatting is passed at conversion time, not at build time — the
// registry itself holds no config, only codec instances, so it can be
// built once and shared across Contexts if ever needed.
func BuildRegistry() *Registry {
	r := NewRegistry()

	r.Register(TextCodec{})
	r.Register(BooleanTextCodec{})
	r.Register(NumberCodec{Internal: InternalInt})
	r.Register(NumberCodec{Internal: InternalBigint})
	r.Register(NumberCodec{Internal: InternalDouble})
	r.Register(NumberCodec{Internal: InternalDecimal})
	r.Register(NumberCodec{Internal: InternalVarint})
	r.Register(TimestampCodec{})
	r.Register(DateCodec{})
	r.Register(TimeCodec{})
	r.Register(UUIDCodec{})
	r.Register(PointCodec{})
	r.Register(LineStringCodec{})
	r.Register(PolygonCodec{})

	elementary := []InternalType{
		InternalText, InternalBoolean, InternalInt, InternalBigint,
		InternalDouble, InternalDecimal, InternalVarint, InternalTimestamp,
		InternalDate, InternalTime, InternalUUID,
	}
	for _, elem := range elementary {
		scalar, err := r.Lookup(ExternalText, elem)
		if err != nil {
			continue
		}
		r.RegisterCollection(ListCodec{Element: scalar}, elem)
		r.RegisterCollection(SetCodec{Element: scalar}, elem)
	}

	return r
}

// BuildRegistryWithBooleanNumbers is BuildRegistry with the text/boolean
// lookup slot replaced by BooleanNumberCodec; callers choose the
// numeric-boolean convention by calling it instead of BuildRegistry. Only
// Lookup sees the replacement: ListForInternal and the list/set codecs
// over boolean keep BooleanTextCodec.
func BuildRegistryWithBooleanNumbers() *Registry {
	r := BuildRegistry()
	r.entries[key{ext: ExternalText, in: internalKey{typ: InternalBoolean}}] = BooleanNumberCodec{}
	return r
}
