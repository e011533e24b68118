// Package coerce converts loosely-typed input values into the canonical
// in-memory representation of a declared Type.
//
// Textual input is trimmed and parsed with a fixed grammar that existing
// configuration files rely on: case-insensitive booleans, base-10 integers,
// long literals with an optional trailing L, and comma-separated lists that
// keep trailing empty elements. Non-text input is accepted when it already
// has (or widens losslessly to) the canonical representation.
package coerce

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"confdef/internal/classreg"
	"confdef/internal/configerr"
)

// listSeparator splits list literals on commas with optional surrounding whitespace.
var listSeparator = regexp.MustCompile(`\s*,\s*`)

// Coercer converts raw values to typed values. Classes resolves
// class-typed values; a nil registry rejects every class name.
type Coercer struct {
	Classes *classreg.Registry
}

// Coerce converts raw to typ without a class registry.
func Coerce(name string, raw any, typ Type) (any, error) {
	return Coercer{}.Coerce(name, raw, typ)
}

// Coerce converts raw to the canonical representation of typ.
// Failures are *configerr.Error values of kind TypeMismatch, or
// ClassResolution for unknown class names.
func (c Coercer) Coerce(name string, raw any, typ Type) (any, error) {
	if !typ.Valid() {
		return nil, configerr.WithValue(configerr.KindTypeMismatch, name, raw, fmt.Sprintf("unknown type %s", typ))
	}
	if s, ok := raw.(string); ok {
		return c.fromString(name, raw, strings.TrimSpace(s), typ)
	}
	if raw == nil {
		return nil, mismatch(name, raw, typ, nil)
	}

	switch typ {
	case Boolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case Int:
		if n, ok := integerValue(raw); ok {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, mismatch(name, raw, typ, nil)
			}
			return int32(n), nil
		}
	case Long:
		if n, ok := integerValue(raw); ok {
			return n, nil
		}
	case Double:
		if f, ok := floatValue(raw); ok {
			return f, nil
		}
	case String:
		if s, err := cast.ToStringE(raw); err == nil {
			return s, nil
		}
		return fmt.Sprint(raw), nil
	case List:
		switch v := raw.(type) {
		case []string:
			out := make([]string, len(v))
			copy(out, v)
			return out, nil
		case []any:
			out := make([]string, len(v))
			for i, e := range v {
				s, ok := e.(string)
				if !ok {
					return nil, configerr.WithValue(configerr.KindTypeMismatch, name, raw, "Expected a comma separated list")
				}
				out[i] = s
			}
			return out, nil
		}
		return nil, configerr.WithValue(configerr.KindTypeMismatch, name, raw, "Expected a comma separated list")
	case Class:
		if cl, ok := raw.(classreg.Class); ok {
			return cl, nil
		}
	}
	return nil, mismatch(name, raw, typ, nil)
}

func (c Coercer) fromString(name string, raw any, s string, typ Type) (any, error) {
	switch typ {
	case Boolean:
		if strings.EqualFold(s, "true") {
			return true, nil
		}
		if strings.EqualFold(s, "false") {
			return false, nil
		}
		return nil, mismatch(name, raw, typ, nil)

	case Int:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, mismatch(name, raw, typ, err)
		}
		return int32(n), nil

	case Long:
		if n := len(s); n > 0 && (s[n-1] == 'L' || s[n-1] == 'l') {
			s = s[:n-1]
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, mismatch(name, raw, typ, err)
		}
		return n, nil

	case Double:
		// Hex literals and digit separators are Go syntax, not base-10 literals.
		if strings.ContainsAny(s, "_xXpP") {
			return nil, mismatch(name, raw, typ, nil)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, mismatch(name, raw, typ, err)
		}
		return f, nil

	case String:
		return s, nil

	case List:
		if s == "" {
			return []string{}, nil
		}
		return listSeparator.Split(s, -1), nil

	case Class:
		cl, ok := c.Classes.Lookup(s)
		if !ok {
			return nil, configerr.WithValue(configerr.KindClassResolution, name, raw, fmt.Sprintf("Class %s not found", s))
		}
		return cl, nil
	}
	return nil, mismatch(name, raw, typ, nil)
}

func mismatch(name string, raw any, typ Type, cause error) error {
	e := configerr.WithValue(configerr.KindTypeMismatch, name, raw, fmt.Sprintf("value must be of type %s", typ))
	e.Err = cause
	return e
}

// integerValue widens any Go integer kind to int64. Unsigned values above
// math.MaxInt64 do not fit and are rejected.
func integerValue(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return 0, false
		}
	default:
		return 0, false
	}

	n, err := cast.ToInt64E(v)
	if err != nil {
		// named integer types
		if rv.CanInt() {
			return rv.Int(), true
		}
		return int64(rv.Uint()), true
	}
	return n, true
}

// floatValue widens any Go numeric kind to float64.
func floatValue(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
	default:
		return 0, false
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		switch {
		case rv.CanFloat():
			return rv.Float(), true
		case rv.CanInt():
			return float64(rv.Int()), true
		default:
			return float64(rv.Uint()), true
		}
	}
	return f, true
}
