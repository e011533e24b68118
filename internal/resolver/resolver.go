// Package resolver turns raw input into typed values for every entry of a
// schema registry.
package resolver

import (
	"github.com/sirupsen/logrus"

	"confdef/internal/coerce"
	"confdef/internal/configerr"
	"confdef/internal/schema"
)

// Source records where a resolved value came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceInput    Source = "input"
	SourceDefault  Source = "default"
)

// Observer is notified as entries resolve and once when resolution ends.
// err is nil on success.
type Observer interface {
	EntryResolved(name string, src Source)
	ResolutionFinished(err error)
}

// Option configures a resolution.
type Option func(*options)

type options struct {
	overrides Overrides
	observer  Observer
	logger    *logrus.Logger
}

// WithOverrides sets the provider consulted ahead of the raw input.
func WithOverrides(o Overrides) Option {
	return func(opts *options) {
		if o != nil {
			opts.overrides = o
		}
	}
}

// WithObserver registers an observer.
func WithObserver(obs Observer) Option {
	return func(opts *options) {
		opts.observer = obs
	}
}

// WithLogger sets the logger used for per-entry debug output.
func WithLogger(l *logrus.Logger) Option {
	return func(opts *options) {
		if l != nil {
			opts.logger = l
		}
	}
}

// ResolvedValue is a single entry's outcome.
type ResolvedValue struct {
	Key    string
	Value  any
	Source Source
}

// Resolve determines the typed value of every entry in reg.
//
// For each entry, in name order, the value is taken from the overrides, then
// from raw, then from the entry's default; an entry with none of these fails
// with MissingRequired. The value is coerced to the entry type and run
// through its validator. The first failure aborts resolution.
//
// Resolve seals reg.
func Resolve(reg *schema.Registry, raw map[string]any, opts ...Option) (map[string]any, error) {
	results, err := ResolveAll(reg, raw, opts...)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(results))
	for _, r := range results {
		values[r.Key] = r.Value
	}
	return values, nil
}

// ResolveAll is like Resolve but also reports the source of each value.
// Results are sorted by key.
func ResolveAll(reg *schema.Registry, raw map[string]any, opts ...Option) ([]ResolvedValue, error) {
	o := options{overrides: noOverrides{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.New()
	}

	reg.Seal()
	c := reg.Coercer()

	entries := reg.Entries()
	results := make([]ResolvedValue, 0, len(entries))
	for _, e := range entries {
		rv, err := resolveEntry(c, e, raw, o.overrides)
		if err != nil {
			o.logger.WithField("key", e.Name).WithError(err).Debug("resolution failed")
			if o.observer != nil {
				o.observer.ResolutionFinished(err)
			}
			return nil, err
		}
		o.logger.WithFields(logrus.Fields{"key": e.Name, "source": rv.Source}).Debug("resolved")
		if o.observer != nil {
			o.observer.EntryResolved(e.Name, rv.Source)
		}
		results = append(results, rv)
	}

	if o.observer != nil {
		o.observer.ResolutionFinished(nil)
	}
	return results, nil
}

func resolveEntry(c coerce.Coercer, e schema.Entry, raw map[string]any, overrides Overrides) (ResolvedValue, error) {
	rv := ResolvedValue{Key: e.Name}

	if v, ok := overrides.Lookup(e.Name); ok {
		typed, err := c.Coerce(e.Name, v, e.Type)
		if err != nil {
			return rv, err
		}
		rv.Value, rv.Source = typed, SourceOverride
	} else if v, ok := raw[e.Name]; ok {
		typed, err := c.Coerce(e.Name, v, e.Type)
		if err != nil {
			return rv, err
		}
		rv.Value, rv.Source = typed, SourceInput
	} else if e.HasDefault {
		rv.Value, rv.Source = coerce.Clone(e.Default), SourceDefault
	} else {
		// Optional entries always carry a default, so this is a required entry.
		return rv, configerr.New(configerr.KindMissingRequired, e.Name, "required configuration has no value and no default")
	}

	if e.Validator != nil {
		if err := e.Validator.Validate(e.Name, rv.Value); err != nil {
			return rv, err
		}
	}
	return rv, nil
}
