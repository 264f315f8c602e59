// =============================================================================
// X12 Decoder - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (x12dec)
//   ├── decodeCmd  (x12dec decode)
//   ├── schemasCmd (x12dec schemas)
//   └── versionCmd (x12dec version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the main configuration (--config), falling back to the defaults
//      when the default config file does not exist
//   2. Opens the logger (stderr plus the configured log file)
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-decoder/internal/config"
	"github.com/ginjaninja78/x12-decoder/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and logger are set by the root PersistentPreRunE.
var (
	mainConfig *config.MainConfig
	logger     *slog.Logger
	closeLog   = func() error { return nil }
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "x12dec",
	Short: "X12 Decoder - Decode ANSI X12 EDI interchanges into XML",
	Long: `X12 Decoder reads ANSI X12 EDI files, validates their envelopes
(ISA/IEA, GS/GE, ST/SE) and writes one XML document per input file.

Key Features:
  - Delimiters discovered from the ISA header of every file
  - Schema-driven segment decoding with a fallback version
  - Segment definitions maintained in XLSX workbooks
  - Transaction loop maps and trading-partner settings in YAML
  - Concurrent processing with error and summary logs

Example Usage:
  x12dec decode                        # Decode all files in the input directory
  x12dec decode --file ./claims.x12    # Decode a single file
  x12dec schemas --export ./defs.xlsx  # Export the segment definitions`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		return initConfig(cmd)
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		closer := closeLog
		closeLog = func() error { return nil }
		return closer()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initConfig loads the configuration and opens the logger.
func initConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadMainConfig(cfgFile)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	l, closer, err := logging.Open(level, cfg.LogFile, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}

	closeLog()
	mainConfig = cfg
	logger = l
	closeLog = closer
	return nil
}
