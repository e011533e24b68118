// Package drift compares a resolved configuration snapshot against a
// stored baseline snapshot.
package drift

import (
	"sort"

	"confdef/internal/artifact"
)

// DriftType represents the type of configuration change.
type DriftType string

const (
	DriftAdded   DriftType = "added"   // Key in current but not baseline
	DriftRemoved DriftType = "removed" // Key in baseline but not current
	DriftChanged DriftType = "changed" // Key in both with different values
)

// KeyDrift represents a single key's drift.
type KeyDrift struct {
	Key           string    `json:"key"`
	Type          DriftType `json:"type"`
	BaselineValue string    `json:"baselineValue,omitempty"`
	CurrentValue  string    `json:"currentValue,omitempty"`
	Source        string    `json:"source,omitempty"` // where the current value came from
}

// Report contains the full drift analysis.
type Report struct {
	HasDrift        bool       `json:"hasDrift"`
	BaselineVersion string     `json:"baselineVersion"`
	CurrentVersion  string     `json:"currentVersion"`
	Changes         []KeyDrift `json:"changes"`
}

// Detect compares current against baseline. Changes are sorted by key.
func Detect(baseline, current artifact.Snapshot) Report {
	report := Report{
		BaselineVersion: baseline.ConfigVersion,
		CurrentVersion:  current.ConfigVersion,
		Changes:         []KeyDrift{},
	}

	if baseline.ConfigVersion != "" && baseline.ConfigVersion == current.ConfigVersion {
		return report
	}

	allKeys := make(map[string]bool)
	for k := range baseline.Values {
		allKeys[k] = true
	}
	for k := range current.Values {
		allKeys[k] = true
	}

	keys := make([]string, 0, len(allKeys))
	for k := range allKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		baselineVal, inBaseline := baseline.Values[key]
		currentVal, inCurrent := current.Values[key]

		switch {
		case inBaseline && !inCurrent:
			report.Changes = append(report.Changes, KeyDrift{
				Key:           key,
				Type:          DriftRemoved,
				BaselineValue: baselineVal,
			})
		case !inBaseline && inCurrent:
			report.Changes = append(report.Changes, KeyDrift{
				Key:          key,
				Type:         DriftAdded,
				CurrentValue: currentVal,
				Source:       current.Sources[key],
			})
		case baselineVal != currentVal:
			report.Changes = append(report.Changes, KeyDrift{
				Key:           key,
				Type:          DriftChanged,
				BaselineValue: baselineVal,
				CurrentValue:  currentVal,
				Source:        current.Sources[key],
			})
		}
	}

	report.HasDrift = len(report.Changes) > 0
	return report
}
