// Package mapper implements the Record Mapper: binding a Record's fields
// to a prepared statement's bound variables through a declarative mapping
// and the codec registry.
package mapper

import "github.com/cqlio/dsbulk/internal/record"

// Source describes where a bound variable's value comes from.
type Source interface {
	isSource()
}

// FieldSource binds a variable to a record field (positional or named).
type FieldSource struct {
	Field record.Field
}

func (FieldSource) isSource() {}

// LiteralSource binds a variable to a constant value fixed at
// declaration time (e.g. a partition shard literal).
type LiteralSource struct {
	Value interface{}
}

func (LiteralSource) isSource() {}

// FunctionSource binds a variable to the result of a named, registered
// function (e.g. "now()", "uuid()") rather than record data.
type FunctionSource struct {
	Name string
}

func (FunctionSource) isSource() {}

// Binding is one (bound-variable name, source) entry.
type Binding struct {
	Variable string
	Source   Source
}

// Declaration is the ordered list of bindings for one prepared statement
// template. The field-tolerance policy is not part of it; the Mapper reads
// that from the Conversion Context.
type Declaration struct {
	Bindings []Binding
}

// NewIndexedDeclaration builds a Declaration binding bound variable i to
// record field index i, for the common 1:1 positional case.
func NewIndexedDeclaration(variables []string) *Declaration {
	bindings := make([]Binding, len(variables))
	for i, v := range variables {
		bindings[i] = Binding{Variable: v, Source: FieldSource{Field: record.IndexField(i)}}
	}
	return &Declaration{Bindings: bindings}
}

// BoundVariables returns the set of bound-variable names this
// declaration targets, in binding order.
func (d *Declaration) BoundVariables() []string {
	out := make([]string, len(d.Bindings))
	for i, b := range d.Bindings {
		out[i] = b.Variable
	}
	return out
}

// referencedFields returns every record.Field this declaration reads
// from, used to detect extra/missing fields against an incoming record.
func (d *Declaration) referencedFields() []record.Field {
	var fields []record.Field
	for _, b := range d.Bindings {
		if fs, ok := b.Source.(FieldSource); ok {
			fields = append(fields, fs.Field)
		}
	}
	return fields
}
