package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ntdiff/internal/config"
	"ntdiff/internal/errors"
	"ntdiff/internal/policy"
	"ntdiff/internal/registry"
	"ntdiff/internal/slogutil"
	"ntdiff/internal/version"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configDir string
	verbose   int
	quiet     bool
	noColor   bool
}

// app is what a subcommand needs once flags and config are resolved.
type app struct {
	cfg       *config.Config
	configDir string
	logger    *slogutil.Logger
	stdout    io.Writer
}

// newRootCmd builds the command tree. The returned app holds resources the
// caller releases with close once the command has run.
func newRootCmd() (*cobra.Command, *app) {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   "ntdiff",
		Short: "Classify node type definition changes by severity",
		Long: `ntdiff compares versions of content repository node type definitions and
classifies each change as NONE, TRIVIAL, MINOR or MAJOR by its impact on
stored content and on assigned item definition ids.

It also keeps a registry of node types that only accepts changes within a
configured severity.`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, opts)
		},
	}
	cmd.SetVersionTemplate("ntdiff version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configDir, "config-dir", config.DefaultDir, "Directory holding config.json; a relative registry.path is resolved against it")
	flags.CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress log output")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		newCompareCmd(a),
		newRegisterCmd(a),
		newUnregisterCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
	)
	return cmd, a
}

// close releases the log file. It runs whether or not the command failed.
func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// init loads configuration and sets up logging and color.
func (a *app) init(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.LoadConfig(opts.configDir)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "cannot load configuration", err)
	}
	a.cfg = cfg
	a.configDir = opts.configDir
	a.stdout = cmd.OutOrStdout()

	if opts.noColor || !cfg.Output.Color || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	// -v and --quiet override the configured console level
	consoleLevel := slogutil.LevelFromString(cfg.Logging.Level)
	if opts.verbose > 0 || opts.quiet {
		consoleLevel = slogutil.LevelFromVerbosity(opts.verbose, opts.quiet)
	}
	a.logger = slogutil.FromConfig(cfg.Logging, cmd.ErrOrStderr(), consoleLevel)
	a.logger.Debug("Configuration loaded",
		"configDir", opts.configDir,
		"registry", cfg.RegistryPath(opts.configDir),
		"maxSeverity", cfg.Policy.MaxSeverity,
	)
	return nil
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return slogutil.NewDiscardLogger()
	}
	return a.logger.Logger
}

// openRegistry opens the configured registry database.
func (a *app) openRegistry() (*registry.Registry, error) {
	return registry.Open(a.cfg.RegistryPath(a.configDir), a.cfg.Registry.Compress, a.log())
}

func (a *app) policy() (policy.Policy, error) {
	p, err := policy.FromConfig(a.cfg.Policy)
	if err != nil {
		return p, errors.New(errors.ConfigInvalid, "invalid policy.maxSeverity", err)
	}
	return p, nil
}

// outputFormat resolves --format against the configured default.
func (a *app) outputFormat(flag string) (OutputFormat, error) {
	if flag == "" {
		flag = a.cfg.Output.Format
	}
	switch f := OutputFormat(flag); f {
	case FormatHuman, FormatJSON:
		return f, nil
	default:
		return "", errors.Newf(errors.InvalidInput, "unsupported output format %q (want human or json)", flag)
	}
}

func (a *app) print(s string) {
	_, _ = fmt.Fprint(a.stdout, s)
}

func newContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
