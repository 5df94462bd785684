package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edwardsmale/userscriptify"
	"github.com/edwardsmale/userscriptify/internal/build"
	"github.com/edwardsmale/userscriptify/internal/config"
)

var (
	metaPath    string
	replace     string
	indent      int
	stylePath   string
	styleRaw    string
	projectPath string
	outPath     string
	sassBinary  string
)

var buildCmd = &cobra.Command{
	Use:   "build [script.js...]",
	Short: "Prepend the metadata header and inject styles",
	Long: `Transform one or more scripts into userscripts. With no arguments the
"main" entry of the project descriptor is used. Files are rewritten in place
unless --out is given.

Example:
  userscriptify build
  userscriptify build dist/a.js dist/b.js --out release/
  userscriptify build src/main.js --meta meta.yaml --style-raw "body{margin:0}"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(args)
	},
}

func init() {
	addBuildFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

// addBuildFlags registers the flags shared by build, watch and the root command
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&metaPath, "meta", "", "metadata file (.json, .toml, .yaml)")
	cmd.Flags().StringVar(&replace, "replace", "", "placeholder replaced by styles (default \""+config.DefaultPlaceholder+"\")")
	cmd.Flags().IntVar(&indent, "indent", 0, "spaces before each injected style line (default 2)")
	cmd.Flags().StringVar(&stylePath, "style", "", "style file (.css, .sass, .scss)")
	cmd.Flags().StringVar(&styleRaw, "style-raw", "", "literal CSS, takes precedence over --style")
	cmd.Flags().StringVar(&projectPath, "project", config.ProjectFile, "project descriptor (package.json or .toml)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, or directory for several inputs")
	cmd.Flags().StringVar(&sassBinary, "sass", "", "Dart Sass executable (default \"sass\")")
}

// buildOptions collects the flag values. Unset flags stay zero so the
// project descriptor and defaults apply.
func buildOptions(files []string) build.Options {
	return build.Options{
		Files: files,
		Out:   outPath,
		Overrides: userscriptify.Options{
			Meta:     userscriptify.Meta{Path: metaPath},
			Replace:  replace,
			Indent:   indent,
			Style:    stylePath,
			StyleRaw: styleRaw,
		},
	}
}

func newRunner() *build.Runner {
	logger := newLogger()
	return build.NewRunner(build.RunnerConfig{
		ProjectPath: projectPath,
		SassBinary:  sassBinary,
		Logger:      &logger,
		Verbose:     verbose,
		Quiet:       quiet,
	})
}

// runBuild transforms the given scripts
func runBuild(files []string) error {
	n, err := newRunner().Build(buildOptions(files))
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("Built %d userscript(s)\n", n)
	}
	return nil
}
