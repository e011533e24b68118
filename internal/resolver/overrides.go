package resolver

import "strings"

// Overrides supplies values that take precedence over the raw input. It
// replaces a process-wide property store: the caller decides what, if
// anything, is consulted.
type Overrides interface {
	Lookup(name string) (any, bool)
}

// MapOverrides is a fixed set of overrides.
type MapOverrides map[string]any

func (m MapOverrides) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// PropertyOverrides holds -Dname=value style properties.
type PropertyOverrides map[string]string

func (p PropertyOverrides) Lookup(name string) (any, bool) {
	v, ok := p[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// ParseProperties extracts -Dname=value arguments. It returns the
// properties found and the remaining arguments in their original order.
// "-Dname" without a value sets name to the empty string.
func ParseProperties(args []string) (PropertyOverrides, []string) {
	props := PropertyOverrides{}
	var rest []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-D") || len(arg) == 2 {
			rest = append(rest, arg)
			continue
		}
		name, value, _ := strings.Cut(arg[2:], "=")
		props[name] = value
	}
	return props, rest
}

// Chain consults each provider in order; the first hit wins.
type Chain []Overrides

func (c Chain) Lookup(name string) (any, bool) {
	for _, o := range c {
		if o == nil {
			continue
		}
		if v, ok := o.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

type noOverrides struct{}

func (noOverrides) Lookup(string) (any, bool) { return nil, false }
