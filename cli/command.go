package cli

import (
	"github.com/grovetools/uptask/config"
	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/logging"
	"github.com/grovetools/uptask/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the persistent flags shared by every uptask command.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
	NoColor    bool
}

// NewStandardCommand creates a command carrying the standard uptask flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to uptask.yml config file")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		opts := GetOptions(cmd)
		tui.InitializeTUI()
		if opts.NoColor {
			tui.DisableColor()
		}
		if opts.Verbose {
			logging.SetLevel(logrus.DebugLevel)
		}
	}

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the cli component logger, honoring --verbose.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("cli")
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		entry.Logger.SetLevel(logrus.DebugLevel)
	}
	return entry
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
		NoColor:    noColor,
	}
}

// LoadConfig loads the file named by --config, or the hierarchical default.
// A missing --config file is an error; missing default files are not.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}
	cfg, err := config.LoadDefault()
	if errors.Is(err, errors.ErrCodeConfigNotFound) {
		return config.Default(), nil
	}
	return cfg, err
}
