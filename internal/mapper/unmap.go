package mapper

import (
	"fmt"

	"github.com/cqlio/dsbulk/internal/bulkerrors"
	"github.com/cqlio/dsbulk/internal/codec"
	"github.com/cqlio/dsbulk/internal/record"
	"github.com/cqlio/dsbulk/internal/statement"
)

// Unmap is the inverse of Map, used by UNLOAD: it converts one returned
// row back into a Record by running each FieldSource binding's codec in
// reverse (internalToExternal). LiteralSource and FunctionSource
// bindings have no row column to read and are skipped — they only ever
// produce bound values on the LOAD path.
func (m *Mapper) Unmap(row statement.Row, tmpl *PreparedTemplate, source interface{}, resource string, position int64) *record.Record {
	rec := record.New(source, resource, position)

	for _, b := range m.declaration.Bindings {
		fs, ok := b.Source.(FieldSource)
		if !ok {
			continue
		}
		raw, present := row[b.Variable]
		if !present {
			continue
		}

		external, err := m.unconvertField(b.Variable, raw, tmpl)
		if err != nil {
			cause := &bulkerrors.MappingError{Resource: resource, Position: position, Field: b.Variable, Err: err}
			return record.NewError(source, resource, position, cause)
		}
		if err := rec.Set(fs.Field, external); err != nil {
			cause := &bulkerrors.MappingError{Resource: resource, Position: position, Field: b.Variable, Err: err}
			return record.NewError(source, resource, position, cause)
		}
	}

	return rec
}

func (m *Mapper) unconvertField(variable string, raw interface{}, tmpl *PreparedTemplate) (interface{}, error) {
	internalType, ok := tmpl.VariableTypes[variable]
	if !ok {
		return nil, fmt.Errorf("prepared template has no internal type for variable %q", variable)
	}

	var c codec.Codec
	var err error
	if internalType == codec.InternalList || internalType == codec.InternalSet {
		elem, ok := tmpl.ElementTypes[variable]
		if !ok {
			return nil, fmt.Errorf("prepared template has no element type for collection variable %q", variable)
		}
		c, err = m.registry.LookupCollection(codec.ExternalText, internalType, elem)
	} else {
		c, err = m.registry.Lookup(codec.ExternalText, internalType)
	}
	if err != nil {
		return nil, err
	}

	return c.ToExternal(m.ctx, raw)
}
