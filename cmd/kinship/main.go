// Command kinship edits a family tree stored in SQLite and renders it as SVG.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// cli holds the global flags shared by every subcommand.
type cli struct {
	configPath string
	dataPath   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "kinship",
		Short: "Edit and render a family tree",
		Long: `kinship keeps a family tree in a SQLite database and edits it from the
command line: add relatives, link and unlink persons, lay couples out on one
row, focus on one person's direct relatives and render the result as SVG.

Settings come from an optional YAML file (--config) and KINSHIP_* environment
variables.

Examples:
  kinship import family.json
  kinship add Anna Petrova --gender female --child-of person_1
  kinship link spouse person_1 person_2
  kinship render tree.svg --focus person_3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "",
		"Path to a YAML config file")
	root.PersistentFlags().StringVar(&c.dataPath, "data", "",
		"SQLite database file (overrides data_path)")

	root.AddCommand(
		c.importCmd(),
		c.exportCmd(),
		c.listCmd(),
		c.addCmd(),
		c.addParentsCmd(),
		c.editCmd(),
		c.attachCmd(),
		c.detachCmd(),
		c.linkCmd(),
		c.unlinkCmd(),
		c.deleteCmd(),
		c.layoutCmd(),
		c.focusCmd(),
		c.findCmd(),
		c.renderCmd(),
		c.logsCmd(),
	)
	return root
}

// run opens the app for the duration of one command.
func (c *cli) run(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(c.configPath, c.dataPath)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
