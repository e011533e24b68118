package cli

import (
	"errors"
	"fmt"
	"strings"

	"confdef/internal/resolver"
)

// ErrNoSubcommand is returned when no known subcommand is provided
var ErrNoSubcommand = errors.New("missing subcommand: usage: confdef <check|print|diff|schema|baselines> [flags]")

// ErrMissingFlagValue is returned when a flag requires a value but none is provided
var ErrMissingFlagValue = errors.New("flag requires a value")

// ErrUnknownFlag is returned for flags the subcommand does not accept
var ErrUnknownFlag = errors.New("unknown flag")

// ErrUnexpectedArgument is returned for positional arguments
var ErrUnexpectedArgument = errors.New("unexpected argument")

// ErrNoBaseline is returned when diff is run without --baseline
var ErrNoBaseline = errors.New("diff requires --baseline <name|path>")

// Subcommand represents the CLI subcommand
type Subcommand string

const (
	SubcommandCheck  Subcommand = "check"
	SubcommandPrint  Subcommand = "print"
	SubcommandDiff   Subcommand = "diff"
	SubcommandSchema Subcommand = "schema"

	// SubcommandBaselines lists stored baselines, or deletes one with --delete.
	SubcommandBaselines Subcommand = "baselines"
)

// Command represents the parsed CLI input
type Command struct {
	Subcommand Subcommand

	// Inputs
	SchemaPath string                     // --schema <path>
	ConfigPath string                     // --config <path>
	Properties resolver.PropertyOverrides // -Dname=value, repeatable
	EnvPrefix  string                     // --env-prefix <prefix>
	NoEnv      bool                       // --no-env

	// Output
	JSONOutput   bool   // --json
	CIMode       bool   // --ci
	ArtifactFile string // --artifact-file <path>
	BaselinePath string // --baseline <name|path>
	SaveBaseline string // --save-baseline <name>
	DeleteName   string // --delete <name>
	MetricsFile  string // --metrics <path>

	// Logging
	LogLevel  string // --log-level <level>
	LogFormat string // --log-format <text|json>
}

// ParseArgs parses CLI arguments into a Command.
// It expects args to be os.Args[1:] (excluding the program name).
// Flags accept both "--flag value" and "--flag=value".
func ParseArgs(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrNoSubcommand
	}

	cmd := Command{Subcommand: Subcommand(args[0])}
	switch cmd.Subcommand {
	case SubcommandCheck, SubcommandPrint, SubcommandDiff, SubcommandSchema, SubcommandBaselines:
	default:
		return Command{}, ErrNoSubcommand
	}

	props, rest := resolver.ParseProperties(args[1:])
	cmd.Properties = props

	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if !strings.HasPrefix(arg, "--") {
			return Command{}, fmt.Errorf("%w: %s", ErrUnexpectedArgument, arg)
		}

		flagName, inline, hasInline := strings.Cut(strings.TrimPrefix(arg, "--"), "=")

		// value consumes the flag's argument, inline or the next one
		value := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			if i+1 >= len(rest) {
				return "", fmt.Errorf("%w: --%s", ErrMissingFlagValue, flagName)
			}
			i++
			return rest[i], nil
		}

		var err error
		switch flagName {
		case "schema":
			cmd.SchemaPath, err = value()
		case "config":
			cmd.ConfigPath, err = value()
		case "env-prefix":
			cmd.EnvPrefix, err = value()
		case "no-env":
			cmd.NoEnv = true
		case "json":
			cmd.JSONOutput = true
		case "ci":
			cmd.CIMode = true
		case "artifact-file":
			cmd.ArtifactFile, err = value()
		case "baseline":
			cmd.BaselinePath, err = value()
		case "save-baseline":
			cmd.SaveBaseline, err = value()
		case "delete":
			cmd.DeleteName, err = value()
		case "metrics":
			cmd.MetricsFile, err = value()
		case "log-level":
			cmd.LogLevel, err = value()
		case "log-format":
			cmd.LogFormat, err = value()
		default:
			return Command{}, fmt.Errorf("%w: --%s", ErrUnknownFlag, flagName)
		}
		if err != nil {
			return Command{}, err
		}
	}

	if cmd.Subcommand == SubcommandDiff && cmd.BaselinePath == "" {
		return Command{}, ErrNoBaseline
	}

	return cmd, nil
}
