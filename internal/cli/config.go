package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugeolab/hubsync/internal/config"
	"github.com/hugeolab/hubsync/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  "Commands for managing hubsync configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Use 'config show' to see available keys",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	Long:  "Reset all configuration settings to their default values",
	RunE:  runConfigReset,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return fail(out, "config.show", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	return out.WriteSuccess("config.show", cfg)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	key := args[0]
	value := args[1]

	cfg, err := loadConfig()
	if err != nil {
		return fail(out, "config.set", utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	switch strings.ToLower(key) {
	case "datasetroot":
		cfg.DatasetRoot = value
	case "assetsdir":
		cfg.AssetsDir = value
	case "annotationsfile":
		cfg.AnnotationsFile = value
	case "hubendpoint":
		cfg.HubEndpoint = value
	case "hubrepo":
		cfg.HubRepo = value
	case "hubbranch":
		cfg.HubBranch = value
	case "mirrorrepo":
		cfg.MirrorRepo = value
	case "mirrorbranch":
		cfg.MirrorBranch = value
	case "committername":
		cfg.CommitterName = value
	case "committeremail":
		cfg.CommitterEmail = value
	case "commitmessage":
		cfg.CommitMessage = value
	case "batchsize":
		size, err := strconv.Atoi(value)
		if err != nil || size < 1 || size > utils.MaxBatchSize {
			return fail(out, "config.set", utils.NewCLIError(utils.ErrCodeInvalidArgument,
				fmt.Sprintf("Batch size must be between 1 and %d", utils.MaxBatchSize)).Build())
		}
		cfg.BatchSize = size
	case "maxretries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 1 || retries > 10 {
			return fail(out, "config.set", utils.NewCLIError(utils.ErrCodeInvalidArgument,
				"Max retries must be between 1 and 10").Build())
		}
		cfg.MaxRetries = retries
	case "retrydelaysecs":
		delay, err := strconv.Atoi(value)
		if err != nil || delay < 0 || delay > 300 {
			return fail(out, "config.set", utils.NewCLIError(utils.ErrCodeInvalidArgument,
				"Retry delay must be between 0 and 300 seconds").Build())
		}
		cfg.RetryDelaySecs = delay
	case "loglevel":
		validLevels := []string{"quiet", "normal", "verbose", "debug"}
		valid := false
		for _, level := range validLevels {
			if value == level {
				valid = true
				break
			}
		}
		if !valid {
			return fail(out, "config.set", utils.NewCLIError(utils.ErrCodeInvalidArgument,
				fmt.Sprintf("Invalid log level. Must be one of: %s", strings.Join(validLevels, ", "))).Build())
		}
		cfg.LogLevel = value
	case "coloroutput":
		cfg.ColorOutput = parseBool(value)
	default:
		return fail(out, "config.set", utils.NewCLIError(utils.ErrCodeInvalidArgument,
			fmt.Sprintf("Unknown configuration key: %s", key)).Build())
	}

	if err := cfg.Save(); err != nil {
		return fail(out, "config.set", utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to save configuration: %v", err)).Build())
	}

	out.Log("Configuration updated: %s = %s", key, value)
	return out.WriteSuccess("config.set", map[string]interface{}{
		"key":   key,
		"value": value,
	})
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg := config.DefaultConfig()
	if err := cfg.Save(); err != nil {
		return fail(out, "config.reset", utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to reset configuration: %v", err)).Build())
	}

	out.Log("Configuration reset to defaults")
	return out.WriteSuccess("config.reset", cfg)
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
