package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ethanolivertroy/license-audit/internal/models"
	"github.com/ethanolivertroy/license-audit/internal/reporter"
	"github.com/ethanolivertroy/license-audit/internal/scanner"
)

// errUnknownLicenses is returned after the report is written when
// --fail-on-unknown is set and some license could not be determined
var errUnknownLicenses = errors.New("dependencies with unknown license found")

type options struct {
	configFile    string
	outputFormat  string
	outputFile    string
	logLevel      string
	pip           string
	jobs          int
	timeout       time.Duration
	cache         bool
	cacheDir      string
	failOnUnknown bool
}

// Execute runs the root command and exits with its status
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the CLI with args and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := newLogger(stderr, log.InfoLevel)
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(withLogger(ctx, logger)); err != nil {
		logger.Error("license audit failed", "err", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	defaults := models.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "license-audit <project_path>",
		Short: "List the licenses of a project's installed Python dependencies",
		Long: `license-audit enumerates the packages installed in a project's Python
environment with "pip freeze", looks up each package's declared license and
homepage with "pip show", and prints a compliance report.

Examples:
  # Text report for the project in ./my_project
  license-audit my_project

  # JSON report
  license-audit my_project --output_format json

  # Use a specific interpreter's pip, 8 lookups in parallel
  license-audit . --pip "python3.12 -m pip" --jobs 8

  # Fail CI when any license is unknown
  license-audit . --fail-on-unknown

  # Reuse metadata from earlier runs, then drop it
  license-audit . --cache
  license-audit cache clear`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(opts.logLevel)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, args[0], opts, stdout)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log_level", defaults.LogLevel, "Log level: "+strings.Join(models.LogLevels, ", "))

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "Config file (default: <project_path>/"+models.ConfigFileName+" if present)")
	flags.StringVar(&opts.outputFormat, "output_format", defaults.OutputFormat, "Output format: text, json, markdown")
	flags.StringVarP(&opts.outputFile, "output", "o", "", "Output file path (default: stdout)")
	flags.StringVar(&opts.pip, "pip", strings.Join(defaults.PipCommand, " "), "pip command to run, e.g. \"python3 -m pip\"")
	flags.IntVar(&opts.jobs, "jobs", defaults.MaxConcurrent, "Number of parallel metadata lookups")
	flags.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Timeout per pip invocation (0 disables)")
	flags.BoolVar(&opts.cache, "cache", defaults.Cache, "Reuse package metadata from earlier runs")
	flags.StringVar(&opts.cacheDir, "cache-dir", defaults.CacheDir, "Metadata cache directory (default: $XDG_CACHE_HOME/license-audit)")
	flags.BoolVar(&opts.failOnUnknown, "fail-on-unknown", defaults.FailOnUnknown, "Exit with status 1 if any license is UNKNOWN")

	cmd.AddCommand(newCacheCmd())

	return cmd
}

func runAudit(cmd *cobra.Command, projectPath string, opts *options, stdout io.Writer) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	// Validate input before any other work
	if err := scanner.ValidateProject(projectPath); err != nil {
		return err
	}

	config, err := buildConfig(cmd, projectPath, opts)
	if err != nil {
		return err
	}

	level, err := parseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	s, err := scanner.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scanner: %w", err)
	}

	inv, err := s.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	rep := reporter.Get(config.OutputFormat)
	output, err := rep.Report(inv)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if config.OutputFile != "" {
		if err := os.WriteFile(config.OutputFile, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Info("report written", "path", config.OutputFile)
	} else {
		fmt.Fprint(stdout, string(output))
	}

	if config.FailOnUnknown && inv.UnknownCount() > 0 {
		return fmt.Errorf("%w: %d", errUnknownLicenses, inv.UnknownCount())
	}
	return nil
}

// buildConfig layers defaults, the config file and explicitly set flags
func buildConfig(cmd *cobra.Command, projectPath string, opts *options) (*models.Config, error) {
	logger := loggerFromContext(cmd.Context())
	config := models.DefaultConfig()
	config.ProjectPath = projectPath

	configFile := opts.configFile
	if configFile == "" {
		candidate := filepath.Join(projectPath, models.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}
	if configFile != "" {
		unknown, err := models.LoadConfigFile(configFile, config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", configFile, err)
		}
		for _, key := range unknown {
			logger.Warn("unknown config key", "key", key, "file", configFile)
		}
		logger.Debug("loaded config", "file", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("output_format") {
		config.OutputFormat = opts.outputFormat
	}
	if flags.Changed("output") {
		config.OutputFile = opts.outputFile
	}
	if flags.Changed("log_level") {
		config.LogLevel = opts.logLevel
	}
	if flags.Changed("pip") {
		config.PipCommand = strings.Fields(opts.pip)
	}
	if flags.Changed("jobs") {
		config.MaxConcurrent = opts.jobs
	}
	if flags.Changed("timeout") {
		config.Timeout = opts.timeout
	}
	if flags.Changed("cache") {
		config.Cache = opts.cache
	}
	if flags.Changed("cache-dir") {
		config.CacheDir = opts.cacheDir
	}
	if flags.Changed("fail-on-unknown") {
		config.FailOnUnknown = opts.failOnUnknown
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
