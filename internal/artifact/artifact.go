// Package artifact records a resolved configuration as a versioned snapshot
// that can be stored, compared and verified.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"confdef/internal/coerce"
	"confdef/internal/config"
)

// Snapshot is the rendered form of a resolved configuration.
type Snapshot struct {
	ConfigVersion string            `json:"configVersion"` // sha256:hex over Values
	Values        map[string]string `json:"values"`
	Sources       map[string]string `json:"sources,omitempty"`
}

// FromConfig renders every value of cfg with coerce.Render. The rendered
// text coerces back to the same typed value.
func FromConfig(cfg *config.Config) Snapshot {
	values := make(map[string]string)
	sources := make(map[string]string)
	for k, v := range cfg.Values() {
		values[k] = coerce.Render(v)
		if src, ok := cfg.Source(k); ok {
			sources[k] = string(src)
		}
	}
	return Snapshot{
		ConfigVersion: ComputeConfigVersion(values),
		Values:        values,
		Sources:       sources,
	}
}

// FromValues builds a snapshot from already rendered values.
func FromValues(values map[string]string) Snapshot {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Snapshot{ConfigVersion: ComputeConfigVersion(cp), Values: cp}
}

// ComputeConfigVersion hashes the canonical JSON of values.
// Returns the hash prefixed with "sha256:".
func ComputeConfigVersion(values map[string]string) string {
	hash := sha256.Sum256(canonicalValuesJSON(values))
	return "sha256:" + hex.EncodeToString(hash[:])
}

// Verify checks that ConfigVersion matches Values.
func (s Snapshot) Verify() error {
	if want := ComputeConfigVersion(s.Values); s.ConfigVersion != want {
		return fmt.Errorf("snapshot version %s does not match its values (%s)", s.ConfigVersion, want)
	}
	return nil
}

// ToJSON serializes the snapshot to pretty-printed JSON for human readability.
func (s Snapshot) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// canonicalValuesJSON is compact JSON with sorted keys; encoding/json
// already sorts map keys.
func canonicalValuesJSON(values map[string]string) []byte {
	if len(values) == 0 {
		return []byte("{}")
	}
	b, _ := json.Marshal(values)
	return b
}
