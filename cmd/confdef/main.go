package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"confdef/internal/artifact"
	"confdef/internal/baseline"
	"confdef/internal/cli"
	"confdef/internal/config"
	"confdef/internal/configerr"
	"confdef/internal/drift"
	"confdef/internal/loader"
	"confdef/internal/logging"
	"confdef/internal/metrics"
	"confdef/internal/resolver"
	"confdef/internal/rule"
	"confdef/internal/schema"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1 // resolution failed
	exitUsage   = 2
	exitLoad    = 3 // schema, input or baseline could not be loaded
	exitDrift   = 4
)

// DefaultConfigFile is the raw input looked up when neither --config nor
// CONFDEF_CONFIG is set.
const DefaultConfigFile = "confdef.properties"

// DefaultEnvPrefix prefixes environment overrides unless --env-prefix or
// CONFDEF_ENV_PREFIX says otherwise.
const DefaultEnvPrefix = "CONFDEF"

// reservedEnvVars configure the tool itself and are never read as entry
// overrides, even when an entry name maps onto one under the default prefix.
var reservedEnvVars = []string{
	"CONFDEF_ENV",
	"CONFDEF_SCHEMA",
	"CONFDEF_CONFIG",
	"CONFDEF_CI",
	"CONFDEF_LOG_LEVEL",
	"CONFDEF_ENV_PREFIX",
	baseline.EnvDir,
}

func main() {
	exitCode := run(os.Args[1:], os.Environ(), ".", os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// run orchestrates the full execution flow.
// It returns an exit code (0 for success, non-zero for failure).
// This function is separated from main() to enable testing.
func run(args []string, environ []string, dir string, stdout, stderr io.Writer) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitUsage
	}

	level := firstNonEmpty(cmd.LogLevel, getEnv(environ, "CONFDEF_LOG_LEVEL"), "warn")
	logger, err := logging.New(level, cmd.LogFormat, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitUsage
	}

	store := baseline.NewStore(baseline.ResolveDir(environ))
	if cmd.Subcommand == cli.SubcommandBaselines {
		return runBaselines(cmd, store, stdout, stderr)
	}

	ciMode := cmd.CIMode || getEnvBool(environ, "CONFDEF_CI") || getEnvBool(environ, "CI")

	schemaPath := resolvePath(cmd.SchemaPath, getEnv(environ, "CONFDEF_SCHEMA"), dir, schema.DefaultFileName)
	reg, err := schema.LoadSchemaFromPath(schemaPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(stderr, "schema file not found: %s\n", schemaPath)
			return exitLoad
		}
		fmt.Fprintf(stderr, "failed to parse schema: %s\n", configerr.Format(err))
		return exitLoad
	}
	logger.WithFields(logrus.Fields{"schema": schemaPath, "entries": reg.Len()}).Info("Schema loaded")

	if cmd.Subcommand == cli.SubcommandSchema {
		return runSchema(reg, stdout, stderr)
	}

	explicit := firstNonEmpty(cmd.ConfigPath, getEnv(environ, "CONFDEF_CONFIG"))
	if explicit != "" {
		explicit = resolvePath(explicit, "", dir, "")
	}
	input, err := loader.New(logger).Discover(explicit, filepath.Join(dir, DefaultConfigFile), nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", configerr.Format(err))
		return exitLoad
	}

	overrides := resolver.Chain{cmd.Properties}
	if !cmd.NoEnv {
		prefix := firstNonEmpty(cmd.EnvPrefix, getEnv(environ, "CONFDEF_ENV_PREFIX"), DefaultEnvPrefix)
		overrides = append(overrides, resolver.NewEnvOverrides(environ, prefix).Exclude(reservedEnvVars...))
	}

	promReg := prometheus.NewRegistry()
	observer := metrics.New(promReg)

	cfg, err := config.New(reg, input.Values,
		resolver.WithOverrides(overrides),
		resolver.WithObserver(observer),
		resolver.WithLogger(logger),
	)
	if cmd.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cmd.MetricsFile, promReg); werr != nil {
			logger.WithError(werr).Warn("cannot write metrics")
		}
	}
	if err != nil {
		reportFailure(cmd, err, schemaPath, ciMode, stdout, stderr)
		return exitInvalid
	}

	results := cfg.CheckRules(getEnv(environ, "CONFDEF_ENV"))
	if violations := rule.Violations(results); len(violations) > 0 {
		reportViolations(cmd, results, schemaPath, ciMode, stdout, stderr)
		return exitInvalid
	}

	snap := artifact.FromConfig(cfg)
	if cmd.ArtifactFile != "" {
		if err := snap.WriteToFile(cmd.ArtifactFile); err != nil {
			fmt.Fprintf(stderr, "Error: cannot write artifact: %s: %v\n", cmd.ArtifactFile, err)
			return exitInvalid
		}
	}
	if cmd.SaveBaseline != "" {
		if err := store.Save(baseline.FromSnapshot(cmd.SaveBaseline, snap, schemaPath, time.Now())); err != nil {
			fmt.Fprintf(stderr, "Error: cannot save baseline %s: %v\n", cmd.SaveBaseline, err)
			return exitInvalid
		}
		logger.WithFields(logrus.Fields{"baseline": cmd.SaveBaseline, "dir": store.Dir}).Info("Baseline saved")
	}

	switch cmd.Subcommand {
	case cli.SubcommandPrint:
		return runPrint(cmd, cfg, snap, stdout, stderr)
	case cli.SubcommandDiff:
		return runDiff(cmd, snap, dir, store, schemaPath, ciMode, stdout, stderr)
	}

	if cmd.JSONOutput {
		fmt.Fprintln(stdout, formatCheckJSON(checkResult{
			Valid:         true,
			SchemaPath:    schemaPath,
			ConfigSource:  input.Source,
			ConfigVersion: snap.ConfigVersion,
		}))
	} else {
		fmt.Fprintln(stdout, "✓ Config valid")
	}
	return exitOK
}

func runSchema(reg *schema.Registry, stdout, stderr io.Writer) int {
	out, err := reg.ToYAML()
	if err != nil {
		fmt.Fprintf(stderr, "Error: cannot serialize schema: %v\n", err)
		return exitInvalid
	}
	fmt.Fprint(stdout, string(out))
	return exitOK
}

func runPrint(cmd cli.Command, cfg *config.Config, snap artifact.Snapshot, stdout, stderr io.Writer) int {
	if cmd.JSONOutput {
		jsonBytes, err := snap.ToJSON()
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot serialize snapshot: %v\n", err)
			return exitInvalid
		}
		fmt.Fprintln(stdout, string(jsonBytes))
		return exitOK
	}

	for _, key := range cfg.Keys() {
		src, _ := cfg.Source(key)
		fmt.Fprintf(stdout, "%s = %s (%s)\n", key, snap.Values[key], src)
	}
	return exitOK
}

// loadBaseline reads the snapshot file at ref (relative to dir) when there
// is one, and otherwise the stored baseline named ref.
func loadBaseline(ref, dir string, store *baseline.Store) (artifact.Snapshot, error) {
	path := resolvePath(ref, "", dir, "")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return artifact.ReadFile(path)
	}
	b, err := store.Load(ref)
	if err != nil {
		return artifact.Snapshot{}, err
	}
	return b.Snapshot(), nil
}

func runDiff(cmd cli.Command, current artifact.Snapshot, dir string, store *baseline.Store, schemaPath string, ciMode bool, stdout, stderr io.Writer) int {
	base, err := loadBaseline(cmd.BaselinePath, dir, store)
	if err != nil {
		fmt.Fprintf(stderr, "Error: cannot read baseline: %v\n", err)
		return exitLoad
	}

	report := drift.Detect(base, current)

	switch {
	case cmd.JSONOutput:
		out, err := drift.FormatJSON(report)
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot format drift report: %v\n", err)
			return exitInvalid
		}
		fmt.Fprintln(stdout, out)
	case ciMode:
		fmt.Fprint(stderr, drift.FormatCI(report, filepath.Base(schemaPath)))
	case report.HasDrift:
		fmt.Fprint(stderr, drift.FormatCLI(report))
	default:
		fmt.Fprintln(stdout, "✓ No drift")
	}

	if report.HasDrift {
		return exitDrift
	}
	return exitOK
}

func runBaselines(cmd cli.Command, store *baseline.Store, stdout, stderr io.Writer) int {
	if cmd.DeleteName != "" {
		if err := store.Delete(cmd.DeleteName); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			if errors.Is(err, baseline.ErrBaselineNotFound) {
				return exitLoad
			}
			return exitInvalid
		}
		fmt.Fprintf(stdout, "✓ Baseline %s deleted\n", cmd.DeleteName)
		return exitOK
	}

	summaries, err := store.List()
	if err != nil {
		fmt.Fprintf(stderr, "Error: cannot list baselines: %v\n", err)
		return exitLoad
	}

	if cmd.JSONOutput {
		b, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot serialize baselines: %v\n", err)
			return exitInvalid
		}
		fmt.Fprintln(stdout, string(b))
		return exitOK
	}

	if len(summaries) == 0 {
		fmt.Fprintf(stdout, "No baselines in %s\n", store.Dir)
		return exitOK
	}
	for _, sum := range summaries {
		fmt.Fprintf(stdout, "%s\t%s\t%d entries\t%s\n", sum.Name, sum.ConfigVersion, sum.Entries, sum.Timestamp.Format(time.RFC3339))
	}
	return exitOK
}

func reportFailure(cmd cli.Command, err error, schemaPath string, ciMode bool, stdout, stderr io.Writer) {
	if cmd.JSONOutput {
		fmt.Fprintln(stdout, formatCheckJSON(checkResult{
			Valid:      false,
			SchemaPath: schemaPath,
			Error:      newErrorJSON(err),
		}))
		return
	}
	if ciMode {
		fmt.Fprintln(stderr, configerr.FormatCI(err, filepath.Base(schemaPath)))
		fmt.Fprintln(stderr, "\n❌ Configuration invalid")
		return
	}
	fmt.Fprintln(stderr, configerr.Format(err))
}

func reportViolations(cmd cli.Command, results []rule.Result, schemaPath string, ciMode bool, stdout, stderr io.Writer) {
	if cmd.JSONOutput {
		report := rule.NewReport(results)
		fmt.Fprintln(stdout, formatCheckJSON(checkResult{
			Valid:      false,
			SchemaPath: schemaPath,
			Rules:      &report,
		}))
		return
	}
	if ciMode {
		fmt.Fprint(stderr, rule.FormatCI(results, filepath.Base(schemaPath)))
		fmt.Fprintln(stderr, "\n❌ Configuration invalid")
		return
	}
	fmt.Fprint(stderr, rule.FormatViolations(results))
}

type checkResult struct {
	Valid         bool         `json:"valid"`
	SchemaPath    string       `json:"schemaPath"`
	ConfigSource  string       `json:"configSource,omitempty"`
	ConfigVersion string       `json:"configVersion,omitempty"`
	Error         *errorJSON   `json:"error,omitempty"`
	Rules         *rule.Report `json:"rules,omitempty"`
}

type errorJSON struct {
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

func newErrorJSON(err error) *errorJSON {
	e := &errorJSON{Kind: "Error", Message: err.Error()}
	var ce *configerr.Error
	if errors.As(err, &ce) {
		e.Kind = ce.Kind.String()
		e.Key = ce.Name
	}
	return e
}

func formatCheckJSON(r checkResult) string {
	b, _ := json.Marshal(r)
	return string(b)
}

// resolvePath picks the flag value, then the env value, then def, and
// makes relative paths relative to dir.
func resolvePath(flagValue, envValue, dir, def string) string {
	p := firstNonEmpty(flagValue, envValue, def)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// getEnv returns the value of name in environ, or "".
func getEnv(environ []string, name string) string {
	prefix := name + "="
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			return strings.TrimPrefix(env, prefix)
		}
	}
	return ""
}

func getEnvBool(environ []string, name string) bool {
	val := strings.ToLower(getEnv(environ, name))
	return val == "true" || val == "1" || val == "yes"
}
