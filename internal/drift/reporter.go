package drift

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatCLI formats drift report for terminal output.
func FormatCLI(report Report) string {
	if !report.HasDrift {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("⚠️  Configuration drift detected against baseline:\n")

	for _, change := range report.Changes {
		switch change.Type {
		case DriftAdded:
			sb.WriteString(fmt.Sprintf("  + %s: (new) → %s%s\n", change.Key, change.CurrentValue, from(change)))
		case DriftRemoved:
			sb.WriteString(fmt.Sprintf("  - %s: %s → (removed)\n", change.Key, change.BaselineValue))
		case DriftChanged:
			sb.WriteString(fmt.Sprintf("  ~ %s: %s → %s%s\n", change.Key, change.BaselineValue, change.CurrentValue, from(change)))
		}
	}

	return sb.String()
}

func from(change KeyDrift) string {
	if change.Source == "" {
		return ""
	}
	return " (" + change.Source + ")"
}

// FormatCI formats drift report as GitHub Actions warning annotations
// attached to file.
func FormatCI(report Report, file string) string {
	if !report.HasDrift {
		return ""
	}

	var sb strings.Builder

	for _, change := range report.Changes {
		var msg string
		switch change.Type {
		case DriftAdded:
			msg = fmt.Sprintf("Config drift: %s added (value: %s)", change.Key, change.CurrentValue)
		case DriftRemoved:
			msg = fmt.Sprintf("Config drift: %s removed (was: %s)", change.Key, change.BaselineValue)
		case DriftChanged:
			msg = fmt.Sprintf("Config drift: %s changed from '%s' to '%s'", change.Key, change.BaselineValue, change.CurrentValue)
		}
		sb.WriteString(fmt.Sprintf("::warning file=%s::%s\n", file, msg))
	}

	sb.WriteString(fmt.Sprintf("\n⚠️  Configuration drift detected: %d change(s) since %s\n", len(report.Changes), report.BaselineVersion))
	return sb.String()
}

// FormatJSON formats drift report as JSON.
func FormatJSON(report Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
