package mapper

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqlio/dsbulk/internal/codec"
	"github.com/cqlio/dsbulk/internal/convert"
	"github.com/cqlio/dsbulk/internal/record"
	"github.com/cqlio/dsbulk/internal/statement"
)

func newFixture() (*Mapper, *PreparedTemplate) {
	registry := codec.BuildRegistry()
	ctx := convert.NewContext()
	decl := NewIndexedDeclaration([]string{"country", "ip_count"})
	tmpl := &PreparedTemplate{
		Template: "INSERT INTO ip_by_country (country, ip_count) VALUES (:country, :ip_count)",
		VariableTypes: map[string]codec.InternalType{
			"country":  codec.InternalText,
			"ip_count": codec.InternalInt,
		},
	}
	return New(registry, ctx, decl, nil), tmpl
}

func TestMapperBindsIndexedFields(t *testing.T) {
	m, tmpl := newFixture()
	rec := record.New("US,100", "file:///ips.csv", 1)
	require.NoError(t, rec.Set(record.IndexField(0), "US"))
	require.NoError(t, rec.Set(record.IndexField(1), "100"))

	s, errRec := m.Map(rec, tmpl)
	require.Nil(t, errRec)
	require.NotNil(t, s)
	assert.Equal(t, "US", s.Values["country"])
	assert.Equal(t, int32(100), s.Values["ip_count"])
	assert.Same(t, rec, s.OriginalRecord)
}

func TestMapperCapturesCodecFailureAsErrorRecord(t *testing.T) {
	m, tmpl := newFixture()
	rec := record.New("US,notanumber", "file:///ips.csv", 2)
	require.NoError(t, rec.Set(record.IndexField(0), "US"))
	require.NoError(t, rec.Set(record.IndexField(1), "notanumber"))

	s, errRec := m.Map(rec, tmpl)
	assert.Nil(t, s)
	require.NotNil(t, errRec)
	assert.True(t, errRec.IsError())
}

func TestMapperExtraFieldPolicy(t *testing.T) {
	registry := codec.BuildRegistry()
	ctx := convert.NewContext(convert.WithFieldPolicy(convert.FieldPolicy{AllowExtraFields: false, AllowMissingFields: true}))
	decl := NewIndexedDeclaration([]string{"country"})
	tmpl := &PreparedTemplate{
		Template:      "INSERT INTO ip_by_country (country) VALUES (:country)",
		VariableTypes: map[string]codec.InternalType{"country": codec.InternalText},
	}
	m := New(registry, ctx, decl, nil)

	rec := record.New("US,100", "file:///ips.csv", 1)
	require.NoError(t, rec.Set(record.IndexField(0), "US"))
	require.NoError(t, rec.Set(record.IndexField(1), "100"))

	s, errRec := m.Map(rec, tmpl)
	assert.Nil(t, s)
	require.NotNil(t, errRec)
	assert.True(t, errRec.IsError())
}

func TestMapperPropagatesExistingErrorRecord(t *testing.T) {
	m, tmpl := newFixture()
	rec := record.NewError("garbled", "file:///ips.csv", 3, assert.AnError)

	s, errRec := m.Map(rec, tmpl)
	assert.Nil(t, s)
	assert.Same(t, rec, errRec)
}

func TestMapperBindsFunctionSourceToGeneratedUUID(t *testing.T) {
	registry := codec.BuildRegistry()
	ctx := convert.NewContext(convert.WithUUIDStrategy(convert.UUIDFixed, [16]byte{0xaa}))
	decl := &Declaration{Bindings: []Binding{
		{Variable: "country", Source: FieldSource{Field: record.IndexField(0)}},
		{Variable: "id", Source: FunctionSource{Name: "uuid"}},
	}}
	tmpl := &PreparedTemplate{
		Template: "INSERT INTO ip_by_country (country, id) VALUES (:country, :id)",
		VariableTypes: map[string]codec.InternalType{
			"country": codec.InternalText,
			"id":      codec.InternalUUID,
		},
	}
	m := New(registry, ctx, decl, DefaultFunctions(ctx))

	rec := record.New("US", "file:///ips.csv", 1)
	require.NoError(t, rec.Set(record.IndexField(0), "US"))

	s, errRec := m.Map(rec, tmpl)
	require.Nil(t, errRec)
	require.NotNil(t, s)

	id, ok := s.Values["id"].(uuid.UUID)
	require.True(t, ok)
	assert.Equal(t, uuid.UUID{0xaa}, id)
}

func TestMapperReportsUnregisteredFunctionAsMappingError(t *testing.T) {
	registry := codec.BuildRegistry()
	ctx := convert.NewContext()
	decl := &Declaration{Bindings: []Binding{
		{Variable: "id", Source: FunctionSource{Name: "now"}},
	}}
	tmpl := &PreparedTemplate{
		Template:      "INSERT INTO t (id) VALUES (:id)",
		VariableTypes: map[string]codec.InternalType{"id": codec.InternalUUID},
	}
	m := New(registry, ctx, decl, nil)

	rec := record.New(nil, "file:///ips.csv", 1)
	s, errRec := m.Map(rec, tmpl)
	assert.Nil(t, s)
	require.NotNil(t, errRec)
	assert.True(t, errRec.IsError())
}

func TestUnmapRebuildsRecordFromRow(t *testing.T) {
	m, tmpl := newFixture()
	row := statement.Row{"country": "US", "ip_count": int32(100)}

	rec := m.Unmap(row, tmpl, "driver", "postgres://ip_by_country", 1)
	require.False(t, rec.IsError())

	v, ok := rec.Get(record.IndexField(0))
	require.True(t, ok)
	assert.Equal(t, "US", v)

	v, ok = rec.Get(record.IndexField(1))
	require.True(t, ok)
	assert.Equal(t, "100", v)
}
