// Package validator provides the checks that can be attached to a
// configuration entry and run against its coerced value.
//
// The set of validators is closed: Range, ValidString, SetMembership and
// Tag. Every failure is a *configerr.Error of kind ValidationFailure.
package validator

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"regexp"

	playground "github.com/go-playground/validator/v10"

	"confdef/internal/coerce"
	"confdef/internal/configerr"
)

// Kind identifies a built-in validator.
type Kind string

const (
	KindRange         Kind = "range"
	KindValidString   Kind = "pattern"
	KindSetMembership Kind = "in"
	KindTag           Kind = "tag"
)

// Validator checks a typed configuration value.
type Validator interface {
	Validate(name string, value any) error
	Kind() Kind
}

// Number is any Go numeric type usable as a Range bound.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// bound holds a declared limit in both comparison domains. Unsigned limits
// above math.MaxInt64 set over and keep their exact value in u.
type bound struct {
	raw  any
	i    int64
	u    uint64
	over bool
	f    float64
}

func newBound[N Number](n N) *bound {
	b := &bound{raw: n, f: float64(n)}
	rv := reflect.ValueOf(n)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.u = rv.Uint()
		b.over = b.u > math.MaxInt64
		b.i = int64(b.u)
	default:
		b.i = int64(n)
	}
	return b
}

// compareInt orders an integer value against b. A value with over set lies
// above every signed bound.
func compareInt(i int64, u uint64, over bool, b *bound) int {
	switch {
	case over && b.over:
		return cmp.Compare(u, b.u)
	case over:
		return 1
	case b.over:
		return -1
	}
	return cmp.Compare(i, b.i)
}

func (b *bound) String() string {
	return fmt.Sprint(b.raw)
}

// Range checks that a numeric value lies within optional bounds.
// Doubles compare as floats; every other numeric value compares as an
// integer, exact across the full int64 and uint64 ranges.
type Range struct {
	min *bound
	max *bound
}

// AtLeast returns a Range with only a lower bound.
func AtLeast[N Number](min N) Range {
	return Range{min: newBound(min)}
}

// AtMost returns a Range with only an upper bound.
func AtMost[N Number](max N) Range {
	return Range{max: newBound(max)}
}

// Between returns a Range with both bounds, inclusive.
func Between[N Number](min, max N) Range {
	return Range{min: newBound(min), max: newBound(max)}
}

// Min returns the lower bound as it was declared.
func (r Range) Min() (any, bool) {
	if r.min == nil {
		return nil, false
	}
	return r.min.raw, true
}

// Max returns the upper bound as it was declared.
func (r Range) Max() (any, bool) {
	if r.max == nil {
		return nil, false
	}
	return r.max.raw, true
}

func (Range) Kind() Kind { return KindRange }

func (r Range) Validate(name string, value any) error {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if r.min != nil && f < r.min.f {
			return atLeastErr(name, value, r.min)
		}
		if r.max != nil && f > r.max.f {
			return atMostErr(name, value, r.max)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return r.checkInt(name, value, rv.Int(), 0, false)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		return r.checkInt(name, value, int64(u), u, u > math.MaxInt64)
	default:
		return configerr.WithValue(configerr.KindValidationFailure, name, value, "value must be a number")
	}
	return nil
}

func (r Range) checkInt(name string, value any, i int64, u uint64, over bool) error {
	if r.min != nil && compareInt(i, u, over, r.min) < 0 {
		return atLeastErr(name, value, r.min)
	}
	if r.max != nil && compareInt(i, u, over, r.max) > 0 {
		return atMostErr(name, value, r.max)
	}
	return nil
}

func atLeastErr(name string, value any, b *bound) error {
	return configerr.WithValue(configerr.KindValidationFailure, name, value, "value must be at least "+b.String())
}

func atMostErr(name string, value any, b *bound) error {
	return configerr.WithValue(configerr.KindValidationFailure, name, value, "value must not be more than "+b.String())
}

// ValidString requires a string value to fully match a regular expression.
type ValidString struct {
	pattern string
	re      *regexp.Regexp
}

// NewValidString compiles pattern. The match is anchored at both ends.
func NewValidString(pattern string) (ValidString, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return ValidString{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return ValidString{pattern: pattern, re: re}, nil
}

// Matching is like NewValidString but panics on an invalid pattern.
func Matching(pattern string) ValidString {
	v, err := NewValidString(pattern)
	if err != nil {
		panic(err)
	}
	return v
}

// Pattern returns the pattern as declared, without anchors.
func (v ValidString) Pattern() string { return v.pattern }

func (ValidString) Kind() Kind { return KindValidString }

func (v ValidString) Validate(name string, value any) error {
	s, ok := value.(string)
	if !ok {
		return configerr.WithValue(configerr.KindValidationFailure, name, value, "value must be a string")
	}
	if v.re == nil || !v.re.MatchString(s) {
		return configerr.WithValue(configerr.KindValidationFailure, name, value, fmt.Sprintf("value must match %s", v.pattern))
	}
	return nil
}

// SetMembership requires the value to equal one of a fixed set.
type SetMembership struct {
	allowed []any
}

// In returns a SetMembership over values.
func In[T any](values ...T) SetMembership {
	allowed := make([]any, len(values))
	for i, v := range values {
		allowed[i] = v
	}
	return SetMembership{allowed: allowed}
}

// Allowed returns a copy of the allowed values.
func (s SetMembership) Allowed() []any {
	out := make([]any, len(s.allowed))
	copy(out, s.allowed)
	return out
}

func (SetMembership) Kind() Kind { return KindSetMembership }

func (s SetMembership) Validate(name string, value any) error {
	for _, a := range s.allowed {
		if coerce.Equal(a, value) {
			return nil
		}
	}
	return configerr.WithValue(configerr.KindValidationFailure, name, value, fmt.Sprintf("valid values are only %v", s.allowed))
}

var tagValidate = playground.New()

// Tag validates the value with a go-playground/validator tag expression
// such as "url", "hostname_port" or "email".
type Tag struct {
	tag string
}

// NewTag checks that tag is a known validation expression.
func NewTag(tag string) (t Tag, err error) {
	if tag == "" {
		return Tag{}, fmt.Errorf("empty validation tag")
	}
	defer func() {
		if r := recover(); r != nil {
			t, err = Tag{}, fmt.Errorf("invalid validation tag %q: %v", tag, r)
		}
	}()
	// Unknown tags panic inside the validator; run once to surface that here.
	_ = tagValidate.Var("", tag)
	return Tag{tag: tag}, nil
}

// Tagged is like NewTag but panics on an unknown tag.
func Tagged(tag string) Tag {
	t, err := NewTag(tag)
	if err != nil {
		panic(err)
	}
	return t
}

// Expr returns the tag expression.
func (t Tag) Expr() string { return t.tag }

func (Tag) Kind() Kind { return KindTag }

func (t Tag) Validate(name string, value any) (err error) {
	// Some tags panic on field kinds they do not support (e.g. "url" on an int).
	defer func() {
		if r := recover(); r != nil {
			err = configerr.WithValue(configerr.KindValidationFailure, name, value,
				fmt.Sprintf("tag '%s' does not apply to %T", t.tag, value))
		}
	}()
	if err := tagValidate.Var(value, t.tag); err != nil {
		e := configerr.WithValue(configerr.KindValidationFailure, name, value, fmt.Sprintf("value must satisfy '%s'", t.tag))
		e.Err = err
		return e
	}
	return nil
}
