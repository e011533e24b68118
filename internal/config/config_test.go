package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confdef/internal/classreg"
	"confdef/internal/coerce"
	"confdef/internal/configerr"
	"confdef/internal/resolver"
	"confdef/internal/schema"
	"confdef/internal/validator"
)

type sink interface {
	Write(string) error
}

type consoleSink struct{}

func (consoleSink) Write(string) error { return nil }

type notASink struct{}

func flinkRegistry() *schema.Registry {
	classes := classreg.New().
		MustRegister("sink.Console", func() any { return consoleSink{} }).
		MustRegister("sink.Broken", func() any { return notASink{} })

	return schema.New(schema.WithClasses(classes)).
		MustDefine("sink.db.url", coerce.String, schema.WithDefault("jdbc:mysql://localhost:3306/")).
		MustDefine("sink.password", coerce.String).
		MustDefine("checkpointing.interval", coerce.Int, schema.WithDefault(60000), schema.WithValidator(validator.AtLeast(1000))).
		MustDefine("watermark.lateness", coerce.Long, schema.WithDefault("5000L")).
		MustDefine("sample.ratio", coerce.Double, schema.WithDefault(0.25)).
		MustDefine("checkpointing.enabled", coerce.Boolean, schema.WithDefault(true)).
		MustDefine("sink.column.names", coerce.List, schema.WithDefault("id, user, name")).
		MustDefine("sink.class", coerce.Class, schema.WithDefault("sink.Console"))
}

func TestNew_TypedAccessors(t *testing.T) {
	raw := map[string]any{
		"sink.password":         "secret",
		"checkpointing.enabled": "FALSE",
		"watermark.lateness":    "12L",
	}
	cfg, err := New(flinkRegistry(), raw)
	require.NoError(t, err)

	s, err := cfg.String("sink.password")
	require.NoError(t, err)
	assert.Equal(t, "secret", s)

	i, err := cfg.Int("checkpointing.interval")
	require.NoError(t, err)
	assert.Equal(t, int32(60000), i)

	l, err := cfg.Long("watermark.lateness")
	require.NoError(t, err)
	assert.Equal(t, int64(12), l)

	d, err := cfg.Double("sample.ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.25, d)

	b, err := cfg.Bool("checkpointing.enabled")
	require.NoError(t, err)
	assert.False(t, b)

	list, err := cfg.List("sink.column.names")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "user", "name"}, list)

	cl, err := cfg.Class("sink.class")
	require.NoError(t, err)
	assert.Equal(t, "sink.Console", cl.Name)

	src, ok := cfg.Source("sink.password")
	assert.True(t, ok)
	assert.Equal(t, resolver.SourceInput, src)
	src, _ = cfg.Source("sink.db.url")
	assert.Equal(t, resolver.SourceDefault, src)
}

func TestAccessors_UnknownKey(t *testing.T) {
	cfg, err := New(flinkRegistry(), map[string]any{"sink.password": "x"})
	require.NoError(t, err)

	_, err = cfg.Get("nope")
	assert.ErrorIs(t, err, configerr.ErrUnknownKey)
	_, err = cfg.Int("nope")
	assert.ErrorIs(t, err, configerr.ErrUnknownKey)
	_, err = cfg.List("nope")
	assert.ErrorIs(t, err, configerr.ErrUnknownKey)
	_, err = cfg.Class("nope")
	assert.ErrorIs(t, err, configerr.ErrUnknownKey)
}

func TestAccessors_WrongTypePanics(t *testing.T) {
	cfg, err := New(flinkRegistry(), map[string]any{"sink.password": "x"})
	require.NoError(t, err)

	assert.Panics(t, func() { _, _ = cfg.Int("sink.password") })
	assert.Panics(t, func() { _, _ = cfg.Long("checkpointing.interval") })
	assert.Panics(t, func() { _, _ = cfg.String("checkpointing.enabled") })
}

func TestNew_FailsWithoutPartialConfig(t *testing.T) {
	cfg, err := New(flinkRegistry(), map[string]any{})
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, configerr.ErrMissingRequired)

	cfg, err = New(flinkRegistry(), map[string]any{"sink.password": "x", "checkpointing.interval": "10"})
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, configerr.ErrValidationFailure)
}

func TestNew_OverridesWin(t *testing.T) {
	cfg, err := New(flinkRegistry(),
		map[string]any{"sink.password": "from-file"},
		resolver.WithOverrides(resolver.PropertyOverrides{"sink.password": "from-cli"}),
	)
	require.NoError(t, err)

	s, _ := cfg.String("sink.password")
	assert.Equal(t, "from-cli", s)
	src, _ := cfg.Source("sink.password")
	assert.Equal(t, resolver.SourceOverride, src)

	assert.Equal(t, "from-file", cfg.Original()["sink.password"])
}

func TestCopies(t *testing.T) {
	raw := map[string]any{"sink.password": "x"}
	cfg, err := New(flinkRegistry(), raw)
	require.NoError(t, err)

	raw["sink.password"] = "changed"
	assert.Equal(t, "x", cfg.Original()["sink.password"])

	orig := cfg.Original()
	orig["injected"] = 1
	assert.NotContains(t, cfg.Original(), "injected")

	values := cfg.Values()
	values["sink.column.names"].([]string)[0] = "mutated"
	list, _ := cfg.List("sink.column.names")
	assert.Equal(t, "id", list[0])

	list[1] = "mutated"
	again, _ := cfg.List("sink.column.names")
	assert.Equal(t, "user", again[1])

	assert.Equal(t, flinkRegistry().Names(), cfg.Keys())
	assert.Len(t, values, len(cfg.Keys()))
}

func TestCopies_DefaultListIsNotShared(t *testing.T) {
	reg := flinkRegistry()
	first, err := New(reg, map[string]any{"sink.password": "x"})
	require.NoError(t, err)

	v, err := first.Get("sink.column.names")
	require.NoError(t, err)
	v.([]string)[0] = "mutated"

	list, _ := first.List("sink.column.names")
	assert.Equal(t, []string{"id", "user", "name"}, list)

	second, err := New(reg, map[string]any{"sink.password": "x"})
	require.NoError(t, err)
	list, _ = second.List("sink.column.names")
	assert.Equal(t, []string{"id", "user", "name"}, list)

	e, _ := reg.Lookup("sink.column.names")
	e.Default.([]string)[1] = "mutated"
	for _, entry := range reg.Entries() {
		if entry.Name == "sink.column.names" {
			entry.Default.([]string)[2] = "mutated"
		}
	}
	e, _ = reg.Lookup("sink.column.names")
	assert.Equal(t, []string{"id", "user", "name"}, e.Default)
}

func TestInstance(t *testing.T) {
	cfg, err := New(flinkRegistry(), map[string]any{"sink.password": "x"})
	require.NoError(t, err)

	obj, err := cfg.Instance("sink.class")
	require.NoError(t, err)
	assert.IsType(t, consoleSink{}, obj)

	s, err := InstanceOf[sink](cfg, "sink.class")
	require.NoError(t, err)
	assert.NoError(t, s.Write("row"))
}

func TestInstanceOf_WrongInterface(t *testing.T) {
	cfg, err := New(flinkRegistry(), map[string]any{"sink.password": "x", "sink.class": "sink.Broken"})
	require.NoError(t, err)

	_, err = InstanceOf[sink](cfg, "sink.class")
	assert.ErrorIs(t, err, configerr.ErrClassResolution)
	assert.Contains(t, err.Error(), "is not an instance of config.sink")
}

func TestNew_UnknownClass(t *testing.T) {
	_, err := New(flinkRegistry(), map[string]any{"sink.password": "x", "sink.class": "sink.Kafka"})
	assert.ErrorIs(t, err, configerr.ErrClassResolution)
}

func TestFromAnyMap(t *testing.T) {
	raw, err := FromAnyMap(map[any]any{"a": "1", "b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": 2}, raw)

	_, err = FromAnyMap(map[any]any{"a": "1", 7: "x"})
	assert.ErrorIs(t, err, configerr.ErrInvalidKey)
}

func TestCheckRules(t *testing.T) {
	reg := flinkRegistry()
	require.NoError(t, reg.AddRule("checkpointing-needs-interval", `checkpointing.enabled => checkpointing.interval != 60000`))
	require.NoError(t, reg.AddRule("prod-uses-console", `execution.env == "prod" => sink.class == "sink.Console"`))

	cfg, err := New(reg, map[string]any{"sink.password": "x"})
	require.NoError(t, err)

	results := cfg.CheckRules("prod")
	require.Len(t, results, 2)
	assert.Equal(t, "checkpointing-needs-interval", results[0].Name)
	assert.False(t, results[0].Passed)
	assert.Equal(t, "true", results[0].LeftValue)
	assert.True(t, results[1].Passed)

	cfg, err = New(flinkRegistry(), map[string]any{"sink.password": "x", "checkpointing.enabled": "false"})
	require.NoError(t, err)
	assert.Empty(t, cfg.CheckRules(""))
}
