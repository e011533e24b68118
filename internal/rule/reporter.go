package rule

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Report is the JSON form of a set of results.
type Report struct {
	Rules       []Result `json:"rules"`
	AllPassed   bool     `json:"allPassed"`
	FailedCount int      `json:"failedCount"`
}

// FormatViolation formats a single violation for terminal output.
func FormatViolation(r Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("RULE VIOLATION: '%s'\n", r.Name))
	sb.WriteString(fmt.Sprintf("  Rule: %s\n", r.Rule))
	if r.LeftValue != "" || r.RightValue != "" {
		sb.WriteString(fmt.Sprintf("  Values: left='%s', right='%s'\n", r.LeftValue, r.RightValue))
	}
	if r.Message != "" {
		sb.WriteString(fmt.Sprintf("  Reason: %s\n", r.Message))
	}

	return sb.String()
}

// FormatViolations formats every failed result; it returns "" when all passed.
func FormatViolations(results []Result) string {
	violations := Violations(results)
	if len(violations) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rule check failed: %d violation(s)\n\n", len(violations)))
	for _, v := range violations {
		sb.WriteString(FormatViolation(v))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatCI formats every failed result as a GitHub Actions error
// annotation attached to file.
func FormatCI(results []Result, file string) string {
	var sb strings.Builder
	for _, v := range Violations(results) {
		msg := v.Rule
		if v.Message != "" {
			msg += ": " + v.Message
		}
		sb.WriteString(fmt.Sprintf("::error file=%s,title=Rule %s::%s\n", file, v.Name, msg))
	}
	return sb.String()
}

// NewReport summarizes results.
func NewReport(results []Result) Report {
	report := Report{Rules: make([]Result, 0, len(results)), AllPassed: true}
	for _, r := range results {
		report.Rules = append(report.Rules, r)
		if !r.Passed {
			report.AllPassed = false
			report.FailedCount++
		}
	}
	return report
}

// FormatJSON formats results as an indented Report.
func FormatJSON(results []Result) (string, error) {
	data, err := json.MarshalIndent(NewReport(results), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal rule results: %w", err)
	}
	return string(data), nil
}
