package resolver

import "strings"

// PathToEnvVar converts a config name (dot-notation) to an environment variable name.
// e.g., "db.url" -> "DB_URL", "sink.column-names" -> "SINK_COLUMN_NAMES"
func PathToEnvVar(path string) string {
	if path == "" {
		return ""
	}
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(path))
}

// EnvOverrides looks declared names up in an environment snapshot. With a
// prefix "APP", the name "db.url" is read from APP_DB_URL.
type EnvOverrides struct {
	prefix string
	env    map[string]string
}

// NewEnvOverrides builds overrides from an environ slice (format: "KEY=VALUE").
// The slice is copied; later changes to the process environment are not seen.
func NewEnvOverrides(environ []string, prefix string) EnvOverrides {
	return EnvOverrides{
		prefix: strings.TrimSuffix(PathToEnvVar(prefix), "_"),
		env:    parseEnviron(environ),
	}
}

// EnvVar returns the variable consulted for name.
func (e EnvOverrides) EnvVar(name string) string {
	v := PathToEnvVar(name)
	if e.prefix == "" {
		return v
	}
	return e.prefix + "_" + v
}

// Exclude returns a copy that never reports the given variables, so tool
// settings sharing the prefix are not read as entry overrides.
func (e EnvOverrides) Exclude(vars ...string) EnvOverrides {
	env := make(map[string]string, len(e.env))
	for k, v := range e.env {
		env[k] = v
	}
	for _, k := range vars {
		delete(env, k)
	}
	return EnvOverrides{prefix: e.prefix, env: env}
}

func (e EnvOverrides) Lookup(name string) (any, bool) {
	v, ok := e.env[e.EnvVar(name)]
	if !ok {
		return nil, false
	}
	return v, true
}

// parseEnviron converts an environ slice (["KEY=VALUE", ...]) into a map.
// Handles edge cases like empty values ("KEY=") and values containing "=" ("KEY=a=b").
func parseEnviron(environ []string) map[string]string {
	result := make(map[string]string)
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			// No "=" found, skip malformed entry
			continue
		}
		result[key] = value
	}
	return result
}
