package mapper

import (
	"fmt"

	"github.com/cqlio/dsbulk/internal/bulkerrors"
	"github.com/cqlio/dsbulk/internal/codec"
	"github.com/cqlio/dsbulk/internal/convert"
	"github.com/cqlio/dsbulk/internal/record"
	"github.com/cqlio/dsbulk/internal/statement"
)

// PreparedTemplate is the schema-engine contract input (out of scope per
// the core spec): a driver-opaque template string plus the internal CQL
// type of each bound variable, and — for collection-typed variables — the
// element's internal type.
type PreparedTemplate struct {
	Template       string
	VariableTypes  map[string]codec.InternalType
	ElementTypes   map[string]codec.InternalType
	RoutingKeyVars []string
}

// Function is a mapper-registered, record-independent value producer
// (e.g. a generated UUID, a wall-clock timestamp) invoked for
// FunctionSource bindings.
type Function func() (interface{}, error)

// DefaultFunctions returns the mapper-level Function registry this
// module ships out of the box: currently just "uuid", generating a
// value per ctx's configured UUIDStrategy for variables with no source
// field (e.g. a surrogate key on load, or an unload-side default).
func DefaultFunctions(ctx *convert.Context) map[string]Function {
	return map[string]Function{
		"uuid": func() (interface{}, error) {
			return codec.GenerateUUID(ctx), nil
		},
	}
}

// Mapper binds record fields to prepared-statement variables per a
// Declaration, invoking the Codec Registry for each field.
type Mapper struct {
	registry    *codec.Registry
	ctx         *convert.Context
	declaration *Declaration
	functions   map[string]Function
}

// New builds a Mapper over the given registry, conversion context, and
// mapping declaration. fns may be nil if the declaration has no
// FunctionSource bindings.
func New(registry *codec.Registry, ctx *convert.Context, declaration *Declaration, fns map[string]Function) *Mapper {
	return &Mapper{registry: registry, ctx: ctx, declaration: declaration, functions: fns}
}

// Map is the Record Mapper's single public operation: it returns either a
// bound Statement ready for the batching engine, or an ErrorRecord when
// the record itself was already an error, violates the field-tolerance
// policy, or fails a per-field codec conversion.
func (m *Mapper) Map(rec *record.Record, tmpl *PreparedTemplate) (*statement.Statement, *record.Record) {
	if rec.IsError() {
		return nil, rec
	}

	policy := m.ctx.FieldPolicy()

	if extra := m.extraFields(rec); len(extra) > 0 && !policy.AllowExtraFields {
		cause := &bulkerrors.MappingError{
			Resource: rec.Resource(), Position: rec.Position(), Field: extra[0].String(),
			Err: fmt.Errorf("extra field %s not declared in mapping", extra[0]),
		}
		return nil, record.NewError(rec.Source(), rec.Resource(), rec.Position(), cause)
	}

	if missing := m.missingFields(rec); len(missing) > 0 && !policy.AllowMissingFields {
		cause := &bulkerrors.MappingError{
			Resource: rec.Resource(), Position: rec.Position(), Field: missing[0].String(),
			Err: fmt.Errorf("required field %s missing from record", missing[0]),
		}
		return nil, record.NewError(rec.Source(), rec.Resource(), rec.Position(), cause)
	}

	values := make(map[string]interface{}, len(m.declaration.Bindings))
	for _, b := range m.declaration.Bindings {
		v, unset, err := m.resolve(rec, b, tmpl)
		if err != nil {
			cause := &bulkerrors.MappingError{
				Resource: rec.Resource(), Position: rec.Position(), Field: b.Variable, Err: err,
			}
			return nil, record.NewError(rec.Source(), rec.Resource(), rec.Position(), cause)
		}
		if unset {
			continue
		}
		values[b.Variable] = v
	}

	s := &statement.Statement{
		Template:       tmpl.Template,
		Values:         values,
		VariableOrder:  m.declaration.BoundVariables(),
		OriginalRecord: rec,
	}
	s.RoutingKey, s.RoutingToken = deriveRoutingKey(tmpl, values)
	return s, nil
}

func (m *Mapper) resolve(rec *record.Record, b Binding, tmpl *PreparedTemplate) (value interface{}, unset bool, err error) {
	switch src := b.Source.(type) {
	case FieldSource:
		raw, present := rec.Get(src.Field)
		if !present {
			return nil, true, nil
		}
		return m.convertField(b.Variable, raw, tmpl)
	case LiteralSource:
		return m.convertField(b.Variable, src.Value, tmpl)
	case FunctionSource:
		fn, ok := m.functions[src.Name]
		if !ok {
			return nil, false, fmt.Errorf("no function registered for %q", src.Name)
		}
		v, err := fn()
		if err != nil {
			return nil, false, fmt.Errorf("function %q: %w", src.Name, err)
		}
		return v, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported mapping source %T", src)
	}
}

func (m *Mapper) convertField(variable string, raw interface{}, tmpl *PreparedTemplate) (interface{}, bool, error) {
	internalType, ok := tmpl.VariableTypes[variable]
	if !ok {
		return nil, false, fmt.Errorf("prepared template has no internal type for variable %q", variable)
	}

	externalType := codec.ExternalText
	if _, isString := raw.(string); !isString {
		externalType = codec.ExternalJSON
	}

	var c codec.Codec
	var err error
	if internalType == codec.InternalList || internalType == codec.InternalSet {
		elem, ok := tmpl.ElementTypes[variable]
		if !ok {
			return nil, false, fmt.Errorf("prepared template has no element type for collection variable %q", variable)
		}
		c, err = m.registry.LookupCollection(externalType, internalType, elem)
	} else {
		c, err = m.registry.Lookup(externalType, internalType)
	}
	if err != nil {
		return nil, false, err
	}

	v, err := c.ToInternal(m.ctx, raw)
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

// extraFields returns the record's fields that the declaration never
// references.
func (m *Mapper) extraFields(rec *record.Record) []record.Field {
	referenced := make(map[record.Field]struct{})
	for _, f := range m.declaration.referencedFields() {
		referenced[f] = struct{}{}
	}
	var extra []record.Field
	for _, f := range rec.Fields() {
		if _, ok := referenced[f]; !ok {
			extra = append(extra, f)
		}
	}
	return extra
}

// missingFields returns the declaration's referenced fields that the
// record does not carry.
func (m *Mapper) missingFields(rec *record.Record) []record.Field {
	var missing []record.Field
	for _, f := range m.declaration.referencedFields() {
		if _, present := rec.Get(f); !present {
			missing = append(missing, f)
		}
	}
	return missing
}

// deriveRoutingKey concatenates the bound values of the template's
// declared partition-key variables into an opaque routing key, or
// returns (nil, "") when the template declares none.
func deriveRoutingKey(tmpl *PreparedTemplate, values map[string]interface{}) ([]byte, string) {
	if len(tmpl.RoutingKeyVars) == 0 {
		return nil, ""
	}
	var key []byte
	for _, v := range tmpl.RoutingKeyVars {
		val, ok := values[v]
		if !ok {
			return nil, ""
		}
		key = append(key, []byte(fmt.Sprintf("%v\x00", val))...)
	}
	return key, string(key)
}
