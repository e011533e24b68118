// Package loader reads raw configuration input from files. It produces the
// flat, string-keyed map that config.New resolves; it knows nothing about
// the schema.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magiconair/properties"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"confdef/internal/configerr"
)

// ErrUnsupportedFormat is returned for file extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported configuration format")

// Load reads the file at path.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// FromFS reads name from fsys, typically an embedded resource set.
func FromFS(fsys fs.FS, name string) (map[string]any, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Parse(name, data)
}

// Parse decodes data according to the extension of name:
// .properties and .conf as Java-style properties, .yaml and .yml as YAML,
// and .json, .toml and .env through viper.
func Parse(name string, data []byte) (map[string]any, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "properties", "props", "prop", "conf":
		return parseProperties(data)
	case "yaml", "yml":
		return parseYAML(data)
	case "json", "toml", "env", "dotenv":
		return parseViper(ext, data)
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
}

func parseProperties(data []byte) (map[string]any, error) {
	// ${...} is kept literally; values are passed through unchanged.
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid properties: %w", err)
	}

	out := make(map[string]any, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		out[k] = v
	}
	return out, nil
}

func parseYAML(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	out := make(map[string]any)
	switch m := doc.(type) {
	case nil:
		return out, nil
	case map[string]any:
		if err := flatten(out, "", m); err != nil {
			return nil, err
		}
	case map[any]any:
		if err := flattenAny(out, "", m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid YAML: top level must be a mapping, got %T", doc)
	}
	return out, nil
}

// flatten joins nested mapping keys with dots: {a: {b: 1}} becomes {"a.b": 1}.
func flatten(out map[string]any, prefix string, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := flattenValue(out, join(prefix, k), m[k]); err != nil {
			return err
		}
	}
	return nil
}

func flattenAny(out map[string]any, prefix string, m map[any]any) error {
	strs := make(map[string]any, len(m))
	for k, v := range m {
		s, ok := k.(string)
		if !ok {
			name := join(prefix, fmt.Sprint(k))
			return configerr.WithValue(configerr.KindInvalidKey, name, k,
				fmt.Sprintf("configuration keys must be strings, got %T", k))
		}
		strs[s] = v
	}
	return flatten(out, prefix, strs)
}

func flattenValue(out map[string]any, key string, v any) error {
	switch child := v.(type) {
	case map[string]any:
		return flatten(out, key, child)
	case map[any]any:
		return flattenAny(out, key, child)
	default:
		out[key] = v
		return nil
	}
}

func join(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "." + k
}

func parseViper(ext string, data []byte) (map[string]any, error) {
	v := viper.New()
	v.SetConfigType(ext)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ext, err)
	}

	out := make(map[string]any)
	for _, k := range v.AllKeys() {
		out[k] = normalize(v.Get(k))
	}
	return out, nil
}

// normalize turns integral float64 values, as produced by JSON decoding,
// into int64 so they coerce to int and long entries.
func normalize(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return v
	}
	return int64(f)
}

// Result is the outcome of Discover.
type Result struct {
	Values map[string]any
	// Source names where Values came from; empty when nothing was found.
	Source string
}

// Loader discovers configuration input, logging each step.
type Loader struct {
	logger *logrus.Logger
}

// New returns a Loader. A nil logger falls back to logrus.New().
func New(logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Loader{logger: logger}
}

// Discover loads configuration input, trying in order:
// the explicit path, if set; defaultFile in the working directory;
// defaultFile in fsys, if fsys is not nil. When none exists the result is
// empty. An explicit path that cannot be read is an error.
func (l *Loader) Discover(explicit, defaultFile string, fsys fs.FS) (Result, error) {
	l.logger.Info("Loading configuration file...")

	if explicit != "" {
		l.logger.WithField("path", explicit).Info("Loading configuration")
		values, err := Load(explicit)
		if err != nil {
			return Result{}, fmt.Errorf("failed to load configuration %s: %w", explicit, err)
		}
		return Result{Values: values, Source: explicit}, nil
	}

	l.logger.Warn("No configuration file defined. You can define one with --config")
	if defaultFile == "" {
		return Result{Values: map[string]any{}}, nil
	}

	l.logger.WithField("file", defaultFile).Info("Searching for configuration in current directory")
	values, err := Load(defaultFile)
	switch {
	case err == nil:
		return Result{Values: values, Source: defaultFile}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return Result{}, fmt.Errorf("failed to load configuration %s: %w", defaultFile, err)
	}

	if fsys != nil {
		l.logger.WithField("file", defaultFile).Warn("Not found in current directory, trying embedded resources")
		values, err := FromFS(fsys, defaultFile)
		switch {
		case err == nil:
			return Result{Values: values, Source: "embedded:" + defaultFile}, nil
		case !errors.Is(err, fs.ErrNotExist):
			return Result{}, fmt.Errorf("failed to load embedded configuration %s: %w", defaultFile, err)
		}
	}

	l.logger.WithField("file", defaultFile).Warn("Configuration not found, using empty configuration")
	return Result{Values: map[string]any{}}, nil
}
