package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	playground "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"confdef/internal/classreg"
	"confdef/internal/coerce"
	"confdef/internal/configerr"
	"confdef/internal/validator"
)

// DefaultFileName is the schema file looked up by LoadSchema.
const DefaultFileName = "confdef.yaml"

// schemaFile represents the YAML file structure
type schemaFile struct {
	Classes []string             `yaml:"classes,omitempty" validate:"dive,required"`
	Config  map[string]entryFile `yaml:"config" validate:"required,dive,keys,required,endkeys"`
	Rules   map[string]string    `yaml:"rules,omitempty" validate:"dive,keys,required,endkeys,required"`
}

// entryFile represents a single config entry in YAML
type entryFile struct {
	Type     string        `yaml:"type" validate:"required"`
	Default  any           `yaml:"default,omitempty"`
	Required *bool         `yaml:"required,omitempty"`
	Doc      string        `yaml:"doc,omitempty"`
	Validate *validateFile `yaml:"validate,omitempty"`
}

// validateFile holds at most one validator: a range (min and/or max),
// a pattern, an allowed set or a validation tag.
type validateFile struct {
	Min     any    `yaml:"min,omitempty"`
	Max     any    `yaml:"max,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
	In      []any  `yaml:"in,omitempty"`
	Tag     string `yaml:"tag,omitempty"`
}

var fileValidate = playground.New()

// ParseSchema parses YAML content into a Registry.
func ParseSchema(content []byte, opts ...RegistryOption) (*Registry, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(content, &sf); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := fileValidate.Struct(sf); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	r := New(opts...)
	if err := declareClasses(r, sf.Classes); err != nil {
		return nil, err
	}

	// Sorted so the first reported error does not depend on map order.
	names := make([]string, 0, len(sf.Config))
	for name := range sf.Config {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := sf.Config[name]

		typ, err := coerce.ParseType(entry.Type)
		if err != nil {
			return nil, configerr.New(configerr.KindInvalidSchema, name, err.Error())
		}

		hasDefault := entry.Default != nil
		if entry.Required != nil {
			// The required flag is implied by the default; an explicit flag
			// must agree with it. Optional entries without a default are not
			// representable.
			switch {
			case *entry.Required && hasDefault:
				return nil, configerr.New(configerr.KindInvalidSchema, name, "required entries cannot declare a default")
			case !*entry.Required && !hasDefault:
				return nil, configerr.New(configerr.KindInvalidSchema, name, "optional entries must declare a default")
			}
		}

		var defOpts []Option
		if hasDefault {
			defOpts = append(defOpts, WithDefault(entry.Default))
		}
		if entry.Doc != "" {
			defOpts = append(defOpts, WithDoc(entry.Doc))
		}
		if entry.Validate != nil {
			v, err := buildValidator(name, typ, *entry.Validate, r.Coercer())
			if err != nil {
				return nil, err
			}
			defOpts = append(defOpts, WithValidator(v))
		}

		if err := r.Define(name, typ, defOpts...); err != nil {
			return nil, err
		}
	}

	ruleNames := make([]string, 0, len(sf.Rules))
	for name := range sf.Rules {
		ruleNames = append(ruleNames, name)
	}
	sort.Strings(ruleNames)

	for _, name := range ruleNames {
		if err := r.AddRule(name, sf.Rules[name]); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// declareClasses makes the class names listed in a schema file resolvable.
// A registry supplied through WithClasses must already provide each of
// them; without one, each name gets a factory that returns the name itself,
// which is enough to check and print configuration.
func declareClasses(r *Registry, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if r.classes != nil {
		for _, name := range names {
			if _, ok := r.classes.Lookup(name); !ok {
				return configerr.New(configerr.KindInvalidSchema, name, "class is declared but not registered")
			}
		}
		return nil
	}

	r.classes = classreg.New()
	for _, name := range names {
		name := name
		if err := r.classes.Register(name, func() any { return name }); err != nil {
			return configerr.New(configerr.KindInvalidSchema, name, err.Error())
		}
	}
	return nil
}

func buildValidator(name string, typ coerce.Type, vf validateFile, c coerce.Coercer) (validator.Validator, error) {
	set := 0
	if vf.Min != nil || vf.Max != nil {
		set++
	}
	if vf.Pattern != "" {
		set++
	}
	if len(vf.In) > 0 {
		set++
	}
	if vf.Tag != "" {
		set++
	}
	if set != 1 {
		return nil, configerr.New(configerr.KindInvalidSchema, name, "validate must declare exactly one of min/max, pattern, in, tag")
	}

	switch {
	case vf.Pattern != "":
		v, err := validator.NewValidString(vf.Pattern)
		if err != nil {
			return nil, configerr.New(configerr.KindInvalidSchema, name, err.Error())
		}
		return v, nil

	case vf.Tag != "":
		v, err := validator.NewTag(vf.Tag)
		if err != nil {
			return nil, configerr.New(configerr.KindInvalidSchema, name, err.Error())
		}
		return v, nil

	case len(vf.In) > 0:
		// Allowed values are coerced to the entry type so that "in: [1, 2]"
		// compares against the resolved int32 or int64 values.
		allowed := make([]any, len(vf.In))
		for i, raw := range vf.In {
			v, err := c.Coerce(name, raw, typ)
			if err != nil {
				return nil, configerr.New(configerr.KindInvalidSchema, name, fmt.Sprintf("allowed value %v: %v", raw, err))
			}
			allowed[i] = v
		}
		return validator.In(allowed...), nil
	}

	return buildRange(name, vf.Min, vf.Max)
}

func buildRange(name string, min, max any) (validator.Range, error) {
	isFloat := false
	for _, b := range []any{min, max} {
		switch b.(type) {
		case nil, int:
		case float64:
			isFloat = true
		default:
			return validator.Range{}, configerr.New(configerr.KindInvalidSchema, name, fmt.Sprintf("range bound %v is not a number", b))
		}
	}

	if isFloat {
		lo, hi := toFloat(min), toFloat(max)
		switch {
		case min != nil && max != nil:
			return validator.Between(lo, hi), nil
		case min != nil:
			return validator.AtLeast(lo), nil
		default:
			return validator.AtMost(hi), nil
		}
	}

	lo, _ := min.(int)
	hi, _ := max.(int)
	switch {
	case min != nil && max != nil:
		return validator.Between(int64(lo), int64(hi)), nil
	case min != nil:
		return validator.AtLeast(int64(lo)), nil
	default:
		return validator.AtMost(int64(hi)), nil
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// ToYAML serializes a Registry back to YAML bytes
func (r *Registry) ToYAML() ([]byte, error) {
	sf := schemaFile{
		Config: make(map[string]entryFile),
	}
	if r.classes != nil {
		sf.Classes = r.classes.Names()
	}

	for _, e := range r.Entries() {
		ef := entryFile{
			Type: e.Type.String(),
			Doc:  e.Doc,
		}
		if e.HasDefault {
			ef.Default = yamlValue(e.Default)
		} else {
			required := true
			ef.Required = &required
		}

		switch v := e.Validator.(type) {
		case nil:
		case validator.Range:
			vf := &validateFile{}
			vf.Min, _ = v.Min()
			vf.Max, _ = v.Max()
			ef.Validate = vf
		case validator.ValidString:
			ef.Validate = &validateFile{Pattern: v.Pattern()}
		case validator.SetMembership:
			allowed := v.Allowed()
			for i := range allowed {
				allowed[i] = yamlValue(allowed[i])
			}
			ef.Validate = &validateFile{In: allowed}
		case validator.Tag:
			ef.Validate = &validateFile{Tag: v.Expr()}
		default:
			return nil, fmt.Errorf("entry %s: validator %T cannot be serialized", e.Name, v)
		}

		sf.Config[e.Name] = ef
	}

	for _, rl := range r.Rules() {
		if sf.Rules == nil {
			sf.Rules = make(map[string]string)
		}
		sf.Rules[rl.Name] = rl.Source
	}

	return yaml.Marshal(&sf)
}

func yamlValue(v any) any {
	if c, ok := v.(classreg.Class); ok {
		return c.Name
	}
	return v
}

// LoadSchema reads and parses confdef.yaml from the given directory
func LoadSchema(dir string, opts ...RegistryOption) (*Registry, error) {
	path := filepath.Join(dir, DefaultFileName)
	return LoadSchemaFromPath(path, opts...)
}

// LoadSchemaFromPath reads and parses a schema from the given file path
func LoadSchemaFromPath(path string, opts ...RegistryOption) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	return ParseSchema(content, opts...)
}
