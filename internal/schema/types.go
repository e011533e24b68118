package schema

import (
	"confdef/internal/coerce"
	"confdef/internal/validator"
)

// Entry is a single declared configuration key.
type Entry struct {
	Name       string
	Type       coerce.Type
	Default    any // already coerced to Type; meaningful only if HasDefault
	HasDefault bool
	Validator  validator.Validator // nil accepts any value of Type
	Required   bool                // true exactly when there is no default
	Doc        string
}

// clone copies e, including a list default.
func (e *Entry) clone() Entry {
	out := *e
	out.Default = coerce.Clone(e.Default)
	return out
}

// Option configures an entry at definition time.
type Option func(*definition)

type definition struct {
	def       any
	hasDef    bool
	validator validator.Validator
	doc       string
}

// WithDefault gives the entry a default value, making it optional.
// The value is coerced to the entry type when the entry is defined.
func WithDefault(v any) Option {
	return func(d *definition) {
		d.def = v
		d.hasDef = true
	}
}

// WithValidator attaches a validator run after coercion.
func WithValidator(v validator.Validator) Option {
	return func(d *definition) {
		d.validator = v
	}
}

// WithDoc attaches human-readable documentation.
func WithDoc(doc string) Option {
	return func(d *definition) {
		d.doc = doc
	}
}
