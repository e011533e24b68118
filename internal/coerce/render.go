package coerce

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"confdef/internal/classreg"
)

// Render converts a typed value back to the textual form accepted by Coerce.
// For representable values Coerce(name, Render(v), t) yields v again.
func Render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case []string:
		return strings.Join(x, ",")
	case classreg.Class:
		return x.Name
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns v, with string lists copied so the result shares no
// storage with v.
func Clone(v any) any {
	l, ok := v.([]string)
	if !ok {
		return v
	}
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// Equal compares two typed values. Integers of different Go widths compare
// numerically, floats compare with integers by value, and string lists
// compare element-wise.
func Equal(a, b any) bool {
	if ai, ok := integerValue(a); ok {
		if bi, ok := integerValue(b); ok {
			return ai == bi
		}
	}
	if isNumber(a) && isNumber(b) {
		af, _ := floatValue(a)
		bf, _ := floatValue(b)
		return af == bf
	}
	switch x := a.(type) {
	case []string:
		y, ok := b.([]string)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case classreg.Class:
		y, ok := b.(classreg.Class)
		return ok && x.Name == y.Name
	}
	return reflect.DeepEqual(a, b)
}

func isNumber(v any) bool {
	_, ok := floatValue(v)
	return ok
}
