package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:     "userscriptify [script.js...]",
	Short:   "Turn a script into a userscript",
	Version: Version,
	Long: `userscriptify prepends a ==UserScript== metadata header to a script and
splices CSS (plain, or compiled from SASS/SCSS) into a placeholder in its body.

Options are read from the "userscriptify" object in package.json and can be
overridden with flags.

Example:
  userscriptify
  userscriptify dist/script.user.js --style src/style.scss
  userscriptify watch src/main.js --out dist/main.user.js`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: userscriptify file.js → userscriptify build file.js
		return runBuild(args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show detailed output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only report errors")

	// Register build flags on root command too
	addBuildFlags(rootCmd)

	rootCmd.SetVersionTemplate(versionString() + "\n")
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger returns the diagnostic logger for the chosen verbosity
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.ErrorLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}
