package coerce

import (
	"fmt"
	"strings"
)

// Type is the declared type of a configuration entry.
type Type int

const (
	Boolean Type = iota + 1 // bool
	Int                     // int32
	Long                    // int64
	Double                  // float64
	String                  // string
	List                    // []string
	Class                   // classreg.Class
)

var typeNames = map[Type]string{
	Boolean: "boolean",
	Int:     "int",
	Long:    "long",
	Double:  "double",
	String:  "string",
	List:    "list",
	Class:   "class",
}

// aliases accepted by ParseType in addition to the canonical names.
var typeAliases = map[string]Type{
	"bool":            Boolean,
	"integer":         Int,
	"int32":           Int,
	"int64":           Long,
	"float":           Double,
	"float64":         Double,
	"list_of_string":  List,
	"class_reference": Class,
}

// String returns the canonical schema-file name of the type.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Numeric reports whether values of t are numbers.
func (t Type) Numeric() bool {
	return t == Int || t == Long || t == Double
}

// ParseType maps a type name (case-insensitive) to a Type.
func ParseType(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, tn := range typeNames {
		if tn == n {
			return t, nil
		}
	}
	if t, ok := typeAliases[n]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown type '%s'", name)
}

// Types returns every declared type in enumeration order.
func Types() []Type {
	return []Type{Boolean, Int, Long, Double, String, List, Class}
}
