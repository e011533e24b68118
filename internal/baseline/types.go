package baseline

import (
	"time"

	"confdef/internal/artifact"
)

// Baseline is a named, known-good snapshot of a resolved configuration.
type Baseline struct {
	Name          string            `json:"name"`
	ConfigVersion string            `json:"configVersion"`
	Values        map[string]string `json:"values"`
	Sources       map[string]string `json:"sources,omitempty"`
	SchemaPath    string            `json:"schemaPath,omitempty"` // schema the values were resolved against
	Timestamp     time.Time         `json:"timestamp"`
}

// Summary is a lightweight view for listing baselines.
type Summary struct {
	Name          string    `json:"name"`
	ConfigVersion string    `json:"configVersion"`
	Entries       int       `json:"entries"`
	Timestamp     time.Time `json:"timestamp"`
}

// FromSnapshot names a snapshot.
func FromSnapshot(name string, snap artifact.Snapshot, schemaPath string, now time.Time) Baseline {
	return Baseline{
		Name:          name,
		ConfigVersion: snap.ConfigVersion,
		Values:        snap.Values,
		Sources:       snap.Sources,
		SchemaPath:    schemaPath,
		Timestamp:     now.UTC(),
	}
}

// Snapshot returns the stored values as a snapshot for drift detection.
func (b Baseline) Snapshot() artifact.Snapshot {
	values := b.Values
	if values == nil {
		values = map[string]string{}
	}
	return artifact.Snapshot{
		ConfigVersion: b.ConfigVersion,
		Values:        values,
		Sources:       b.Sources,
	}
}
