// Package record defines the positional row type that flows through the
// pipeline between connectors, the mapper, and the log manager.
package record

import (
	"fmt"
	"sort"
)

// Field identifies a column either by a non-negative ordinal position or
// by a non-empty name. Exactly one of the two is set.
type Field struct {
	index   int
	name    string
	indexed bool
}

// IndexField builds a positional field. idx must be >= 0.
func IndexField(idx int) Field {
	if idx < 0 {
		panic("record: negative field index")
	}
	return Field{index: idx, indexed: true}
}

// NameField builds a named field. name must be non-empty.
func NameField(name string) Field {
	if name == "" {
		panic("record: empty field name")
	}
	return Field{name: name}
}

// IsIndexed reports whether the field is positional.
func (f Field) IsIndexed() bool { return f.indexed }

// Index returns the positional index; valid only when IsIndexed is true.
func (f Field) Index() int { return f.index }

// Name returns the field name; valid only when IsIndexed is false.
func (f Field) Name() string { return f.name }

func (f Field) String() string {
	if f.indexed {
		return fmt.Sprintf("%d", f.index)
	}
	return f.name
}

// entry is one (Field, Value) pair, kept in insertion order for named
// fields and renumbered implicitly for indexed ones.
type entry struct {
	field Field
	value interface{}
}

// Record is an ordered sequence of (Field, Value) pairs plus origin
// metadata. Zero value is not valid; build with New or NewError.
type Record struct {
	entries  []entry
	source   interface{}
	resource string
	position int64
	cause    error
}

// New builds a normal (non-error) record. resource must be stable once
// observed by a given connector run; position must be >= 1.
func New(source interface{}, resource string, position int64) *Record {
	if position < 1 {
		panic("record: position must be >= 1")
	}
	return &Record{source: source, resource: resource, position: position}
}

// NewError builds an ErrorRecord: a record with no fields, carrying the
// cause that prevented normal construction (e.g. a connector parse error).
func NewError(source interface{}, resource string, position int64, cause error) *Record {
	if position < 1 {
		panic("record: position must be >= 1")
	}
	return &Record{source: source, resource: resource, position: position, cause: cause}
}

// IsError reports whether this is an ErrorRecord (fields are always empty
// on an ErrorRecord).
func (r *Record) IsError() bool { return r.cause != nil }

// Cause returns the underlying error for an ErrorRecord, or nil.
func (r *Record) Cause() error { return r.cause }

// Source returns the opaque original representation (e.g. the raw CSV
// line or JSON object) used for error attribution.
func (r *Record) Source() interface{} { return r.source }

// Resource returns the URI identifying the record's origin.
func (r *Record) Resource() string { return r.resource }

// Position returns the 1-based ordinal of this record within Resource.
func (r *Record) Position() int64 { return r.position }

// Set assigns value to field, appending it if not already present.
// No-op (returns an error) on an ErrorRecord.
func (r *Record) Set(field Field, value interface{}) error {
	if r.IsError() {
		return fmt.Errorf("record: cannot set field %s on an error record", field)
	}
	for i := range r.entries {
		if r.entries[i].field == field {
			r.entries[i].value = value
			return nil
		}
	}
	r.entries = append(r.entries, entry{field: field, value: value})
	return nil
}

// Get returns the value bound to field and whether it was present.
func (r *Record) Get(field Field) (interface{}, bool) {
	for _, e := range r.entries {
		if e.field == field {
			return e.value, true
		}
	}
	return nil, false
}

// Fields returns the record's fields in order: numeric order for indexed
// fields, insertion order for named fields.
func (r *Record) Fields() []Field {
	fields := make([]Field, len(r.entries))
	for i, e := range r.entries {
		fields[i] = e.field
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].indexed && fields[j].indexed && fields[i].index < fields[j].index
	})
	return fields
}

// Len returns the number of fields (always 0 for an ErrorRecord).
func (r *Record) Len() int { return len(r.entries) }
