package classreg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jdbcSink struct{ driver string }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("sink.jdbc", func() any { return &jdbcSink{driver: "mysql"} }))

	c, ok := r.Lookup("sink.jdbc")
	require.True(t, ok)
	assert.Equal(t, "sink.jdbc", c.Name)
	assert.Equal(t, "sink.jdbc", c.String())

	inst, err := c.Instantiate()
	require.NoError(t, err)
	sink, ok := inst.(*jdbcSink)
	require.True(t, ok)
	assert.Equal(t, "mysql", sink.driver)

	// Each instantiation yields a fresh value.
	other, err := c.Instantiate()
	require.NoError(t, err)
	assert.NotSame(t, inst, other)
}

func TestRegistry_Duplicate(t *testing.T) {
	r := New().MustRegister("a", func() any { return 1 })
	err := r.Register("a", func() any { return 2 })
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))
	assert.Panics(t, func() { r.MustRegister("a", func() any { return 3 }) })
}

func TestRegistry_RejectsEmptyNameAndNilFactory(t *testing.T) {
	r := New()
	assert.Error(t, r.Register("", func() any { return nil }))
	assert.Error(t, r.Register("x", nil))
}

func TestRegistry_LookupMissing(t *testing.T) {
	_, ok := New().Lookup("nope")
	assert.False(t, ok)

	var nilReg *Registry
	_, ok = nilReg.Lookup("nope")
	assert.False(t, ok)
	assert.Nil(t, nilReg.Names())
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := New().
		MustRegister("c", func() any { return nil }).
		MustRegister("a", func() any { return nil }).
		MustRegister("b", func() any { return nil })
	assert.Equal(t, []string{"a", "b", "c"}, r.Names())
}

func TestClass_InstantiateWithoutFactory(t *testing.T) {
	_, err := Class{Name: "ghost"}.Instantiate()
	assert.Error(t, err)
}
