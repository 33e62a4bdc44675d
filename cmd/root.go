package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/modkit/wsmerge/pkg/buildinfo"
	"github.com/modkit/wsmerge/pkg/exitcode"
	"github.com/modkit/wsmerge/pkg/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wsmerge",
	Short: "Witcher 3 script mod merger",
	Long: `Wsmerge consolidates Witcher 3 script mods into a single merged mod.

Run it from inside the game's mods/ directory. Every mod directory is folded
against the stock game scripts with a three-way merge; conflicting edits are
bracketed with diff3-style markers and can be fixed interactively.

Examples:
   wsmerge merge               # Merge all mods into mod0000_merged
   wsmerge merge --no-fix      # Merge without prompting, report conflicts
   wsmerge diff modSomeMod     # Show what a mod changes vs the base game`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		initializeLogger(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.Version = buildinfo.BinaryVersion
	rootCmd.SetVersionTemplate("wsmerge {{.Version}}\n")

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(versionCmd)
}

// exitError carries a specific exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fatal(code int, err error) error {
	return &exitError{code: code, err: err}
}

// Execute runs the root command and maps failures to exit codes.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitcode.GeneralError)
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "wsmerge",
	}

	if err := logger.Initialize(config); err != nil {
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
}
