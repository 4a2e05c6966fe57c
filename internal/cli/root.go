package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugeolab/hubsync/internal/config"
	"github.com/hugeolab/hubsync/internal/logging"
	"github.com/hugeolab/hubsync/internal/types"
	"github.com/hugeolab/hubsync/internal/utils"
	"github.com/hugeolab/hubsync/pkg/version"
)

var (
	globalFlags types.GlobalFlags
	logger      logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hubsync",
	Short: "Dataset hub sync - keep a local image dataset in step with its remotes",
	Long: `hubsync uploads local image datasets to a dataset hub and mirrors the
surrounding files (annotations, scripts, docs) to a git remote.

Uploads are incremental: files already present on the hub are skipped, and
new files are committed in bounded, retried batches. All commands support
JSON output for automation and scripting.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateGlobalFlags(); err != nil {
			return err
		}

		// Initialize logging
		logConfig := logging.LogConfig{
			Level:           logging.INFO,
			OutputFile:      globalFlags.LogFile,
			EnableConsole:   !globalFlags.Quiet,
			EnableDebug:     globalFlags.Debug,
			RedactSensitive: true,
			EnableColor:     true,
			EnableTimestamp: true,
		}
		if globalFlags.Verbose {
			logConfig.Level = logging.DEBUG
		}
		if globalFlags.OutputFormat == types.OutputFormatJSON && !globalFlags.Verbose && !globalFlags.Debug {
			logConfig.EnableConsole = false
		}

		var err error
		logger, err = logging.NewLogger(logConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "Print the version number of hubsync",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringVar((*string)(&globalFlags.OutputFormat), "output", "json", "Output format (json, table)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.DryRun, "dry-run", false, "Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "Output in JSON format (alias for --output json)")

	rootCmd.AddCommand(versionCmd)
}

func validateGlobalFlags() error {
	// Handle --json flag as alias for --output json
	if globalFlags.JSON {
		globalFlags.OutputFormat = types.OutputFormatJSON
	}

	if globalFlags.OutputFormat != types.OutputFormatJSON && globalFlags.OutputFormat != types.OutputFormatTable {
		return fmt.Errorf("invalid output format: %s", globalFlags.OutputFormat)
	}
	return nil
}

// Execute runs the root command. Errors map to stable exit codes via their
// tool-owned error code; anything unrecognized exits with ExitUnknown.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(utils.GetExitCode(utils.CodeOf(err)))
	}
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() types.GlobalFlags {
	return globalFlags
}

// GetLogger returns the global logger
func GetLogger() logging.Logger {
	return logger
}

// loadConfig loads the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.Config)
}

// fail writes the error envelope and returns an error carrying the stable
// code, so Execute can derive the exit code.
func fail(out *OutputWriter, command string, cliErr types.CLIError) error {
	_ = out.WriteError(command, cliErr)
	return utils.NewAppError(cliErr)
}

// failErr is fail for errors that may already carry a CLI error.
func failErr(out *OutputWriter, command string, err error, fallbackCode string) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return fail(out, command, appErr.CLIError)
	}
	return fail(out, command, utils.NewCLIError(fallbackCode, err.Error()).Build())
}
