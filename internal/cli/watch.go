package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edwardsmale/userscriptify/internal/watch"
)

var errWatchInPlace = errors.New("watch needs --out so the input is not rewritten on every change")

var watchCmd = &cobra.Command{
	Use:   "watch [script.js...]",
	Short: "Rebuild whenever an input changes",
	Long: `Build once, then rebuild whenever the script, metadata, style or project
descriptor changes. Output must go to a separate file or directory.

Example:
  userscriptify watch src/main.js --out dist/main.user.js`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outPath == "" {
			return errWatchInPlace
		}

		runner := newRunner()
		opts := buildOptions(args)

		inputs, err := runner.Inputs(opts)
		if err != nil {
			return err
		}
		if isInput(inputs, outPath) {
			return errWatchInPlace
		}

		if _, err := runner.Build(opts); err != nil {
			return fmt.Errorf("initial build failed: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := newLogger()
		logger.Info().Strs("inputs", inputs).Msg("watching for changes, press Ctrl+C to stop")

		return watch.Run(ctx, watch.Config{
			Paths:  inputs,
			Logger: &logger,
			OnChange: func(changed []string) error {
				logger.Info().Strs("changed", changed).Msg("rebuilding")
				n, err := runner.Build(opts)
				if err == nil {
					logger.Info().Int("files", n).Msg("rebuilt")
				}
				return err
			},
		})
	},
}

func init() {
	addBuildFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

// isInput reports whether out is one of the watched inputs
func isInput(inputs []string, out string) bool {
	outAbs, err := filepath.Abs(out)
	if err != nil {
		return false
	}
	for _, in := range inputs {
		if abs, err := filepath.Abs(in); err == nil && abs == outAbs {
			return true
		}
	}
	return false
}
