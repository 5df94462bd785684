package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/edwardsmale/userscriptify/internal/metadata"
)

var errNoHeader = errors.New("no userscript header found")

var inspectCmd = &cobra.Command{
	Use:   "inspect <script.user.js>",
	Short: "Print the metadata header of a built userscript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("script not found: %s", args[0])
		}

		rec, err := metadata.Parse(content)
		if err != nil {
			return err
		}
		if rec.Len() == 0 {
			return errNoHeader
		}

		out, err := yaml.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
