// Package schema holds the definition registry: the declared set of
// configuration keys with their types, defaults, validators and
// required flags.
//
// A registry is built once, normally during process start, and sealed
// when the first resolution begins. Definition mistakes (duplicate
// names, defaults that do not coerce) are reported by Define itself so
// they surface before any input is processed.
package schema

import (
	"sort"
	"sync"

	"confdef/internal/classreg"
	"confdef/internal/coerce"
	"confdef/internal/configerr"
	"confdef/internal/rule"
	"confdef/internal/validator"
)

// Registry is the schema: a mapping from name to Entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	classes *classreg.Registry
	rules   []rule.Rule
	sealed  bool
}

// RegistryOption configures a new Registry.
type RegistryOption func(*Registry)

// WithClasses sets the class registry used to resolve class-typed values,
// both for defaults at definition time and for input at resolution time.
func WithClasses(c *classreg.Registry) RegistryOption {
	return func(r *Registry) {
		r.classes = c
	}
}

// New creates an empty registry.
func New(opts ...RegistryOption) *Registry {
	r := &Registry{entries: make(map[string]*Entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define declares a configuration entry. Without WithDefault the entry is
// required; with a default it is optional.
//
// Define fails with DuplicateDefinition if name is already declared, with
// TypeMismatch or ClassResolutionFailure if the default does not coerce,
// and with InvalidSchema if the registry is sealed or the declaration is
// malformed.
func (r *Registry) Define(name string, typ coerce.Type, opts ...Option) error {
	if name == "" {
		return configerr.New(configerr.KindInvalidSchema, name, "configuration name must not be empty")
	}
	if !typ.Valid() {
		return configerr.New(configerr.KindInvalidSchema, name, "unknown type "+typ.String())
	}

	var d definition
	for _, opt := range opts {
		opt(&d)
	}
	if err := checkValidator(name, typ, d.validator); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return configerr.New(configerr.KindInvalidSchema, name, "schema is sealed; definitions must precede resolution")
	}
	if _, exists := r.entries[name]; exists {
		return configerr.New(configerr.KindDuplicateDefinition, name, "configuration "+name+" has been defined more than once")
	}

	e := &Entry{
		Name:      name,
		Type:      typ,
		Validator: d.validator,
		Required:  !d.hasDef,
		Doc:       d.doc,
	}
	if d.hasDef {
		v, err := coerce.Coercer{Classes: r.classes}.Coerce(name, d.def, typ)
		if err != nil {
			return err
		}
		e.Default = v
		e.HasDefault = true
	}

	r.entries[name] = e
	return nil
}

// checkValidator rejects validators that no value of typ can pass.
func checkValidator(name string, typ coerce.Type, v validator.Validator) error {
	switch v.(type) {
	case validator.Range, *validator.Range:
		if !typ.Numeric() {
			return configerr.New(configerr.KindInvalidSchema, name, "range validator requires an int, long or double entry, not "+typ.String())
		}
	case validator.ValidString, *validator.ValidString:
		if typ != coerce.String {
			return configerr.New(configerr.KindInvalidSchema, name, "pattern validator requires a string entry, not "+typ.String())
		}
	}
	return nil
}

// MustDefine is like Define but panics on error. It returns the registry
// so static schemas can be declared as a chain.
func (r *Registry) MustDefine(name string, typ coerce.Type, opts ...Option) *Registry {
	if err := r.Define(name, typ, opts...); err != nil {
		panic(err)
	}
	return r
}

// AddRule declares a rule over entries that are already defined. Rules are
// not applied by resolution; callers evaluate Rules against resolved values.
func (r *Registry) AddRule(name, expr string) error {
	if name == "" {
		return configerr.New(configerr.KindInvalidSchema, name, "rule name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return configerr.New(configerr.KindInvalidSchema, name, "schema is sealed; rules must precede resolution")
	}
	for _, existing := range r.rules {
		if existing.Name == name {
			return configerr.New(configerr.KindDuplicateDefinition, name, "rule "+name+" has been defined more than once")
		}
	}

	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	parsed, err := rule.Parse(name, expr, names)
	if err != nil {
		return configerr.WithValue(configerr.KindInvalidSchema, name, expr, err.Error())
	}

	r.rules = append(r.rules, parsed)
	return nil
}

// Rules returns the declared rules in declaration order.
func (r *Registry) Rules() []rule.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]rule.Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Seal freezes the registry. Further Define and AddRule calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns a copy of the entry declared under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Has reports whether name is declared.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Entries returns copies of all entries sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns all declared names, sorted.
func (r *Registry) Names() []string {
	entries := r.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of declared entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Classes returns the class registry, which may be nil.
func (r *Registry) Classes() *classreg.Registry {
	return r.classes
}

// Coercer returns a coercer bound to the registry's classes.
func (r *Registry) Coercer() coerce.Coercer {
	return coerce.Coercer{Classes: r.classes}
}
