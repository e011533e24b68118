// Package config holds the materialized configuration: the typed, validated
// values of every declared entry, resolved once from raw input.
//
// A Config is immutable after New returns and is safe for concurrent reads.
package config

import (
	"fmt"
	"reflect"
	"sort"

	"confdef/internal/classreg"
	"confdef/internal/coerce"
	"confdef/internal/configerr"
	"confdef/internal/resolver"
	"confdef/internal/rule"
	"confdef/internal/schema"
)

// Config is a resolved configuration.
type Config struct {
	reg      *schema.Registry
	original map[string]any
	values   map[string]any
	sources  map[string]resolver.Source
}

// New resolves raw against reg. It fails with the first resolution error;
// there is no partially resolved Config.
func New(reg *schema.Registry, raw map[string]any, opts ...resolver.Option) (*Config, error) {
	results, err := resolver.ResolveAll(reg, raw, opts...)
	if err != nil {
		return nil, err
	}

	c := &Config{
		reg:      reg,
		original: copyMap(raw),
		values:   make(map[string]any, len(results)),
		sources:  make(map[string]resolver.Source, len(results)),
	}
	for _, r := range results {
		c.values[r.Key] = r.Value
		c.sources[r.Key] = r.Source
	}
	return c, nil
}

// FromAnyMap converts a loosely keyed map, as produced by some decoders,
// into raw input. Any non-string key fails with InvalidKey.
func FromAnyMap(m map[any]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		s, ok := k.(string)
		if !ok {
			return nil, configerr.WithValue(configerr.KindInvalidKey, fmt.Sprint(k), k,
				fmt.Sprintf("configuration keys must be strings, got %T", k))
		}
		out[s] = v
	}
	return out, nil
}

// Get returns the typed value of name. List values are copies.
func (c *Config) Get(name string) (any, error) {
	v, ok := c.values[name]
	if !ok {
		return nil, unknown(name)
	}
	return coerce.Clone(v), nil
}

// Int returns an int-typed entry. It panics if name is not an int entry.
func (c *Config) Int(name string) (int32, error) {
	v, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	return v.(int32), nil
}

// Long returns a long-typed entry.
func (c *Config) Long(name string) (int64, error) {
	v, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Double returns a double-typed entry.
func (c *Config) Double(name string) (float64, error) {
	v, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Bool returns a boolean-typed entry.
func (c *Config) Bool(name string) (bool, error) {
	v, err := c.Get(name)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// String returns a string-typed entry.
func (c *Config) String(name string) (string, error) {
	v, err := c.Get(name)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// List returns a copy of a list-typed entry.
func (c *Config) List(name string) ([]string, error) {
	v, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Class returns a class-typed entry.
func (c *Config) Class(name string) (classreg.Class, error) {
	v, err := c.Get(name)
	if err != nil {
		return classreg.Class{}, err
	}
	return v.(classreg.Class), nil
}

// Instance creates a new instance of the class configured under name.
func (c *Config) Instance(name string) (any, error) {
	cl, err := c.Class(name)
	if err != nil {
		return nil, err
	}
	obj, err := cl.Instantiate()
	if err != nil {
		return nil, configerr.WithValue(configerr.KindClassResolution, name, cl.Name, err.Error())
	}
	return obj, nil
}

// InstanceOf creates a new instance of the class configured under name and
// checks that it is a T.
func InstanceOf[T any](c *Config, name string) (T, error) {
	var zero T
	obj, err := c.Instance(name)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, configerr.WithValue(configerr.KindClassResolution, name, c.values[name].(classreg.Class).Name,
			fmt.Sprintf("%T is not an instance of %s", obj, reflect.TypeOf((*T)(nil)).Elem()))
	}
	return t, nil
}

// Source reports where the value of name came from.
func (c *Config) Source(name string) (resolver.Source, bool) {
	s, ok := c.sources[name]
	return s, ok
}

// Original returns a copy of the raw input the Config was resolved from.
func (c *Config) Original() map[string]any {
	return copyMap(c.original)
}

// Values returns a copy of the resolved values.
func (c *Config) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = coerce.Clone(v)
	}
	return out
}

// Keys returns the declared names, sorted.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CheckRules evaluates the schema's rules against the rendered values,
// with env as execution.env. It returns one result per rule.
func (c *Config) CheckRules(env string) []rule.Result {
	rendered := make(map[string]string, len(c.values))
	for k, v := range c.values {
		rendered[k] = coerce.Render(v)
	}
	return rule.EvaluateAll(c.reg.Rules(), rule.Context{Values: rendered, Env: env})
}

// Schema returns the registry the Config was resolved against.
func (c *Config) Schema() *schema.Registry {
	return c.reg
}

func unknown(name string) error {
	return configerr.New(configerr.KindUnknownKey, name, "configuration is not defined")
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
