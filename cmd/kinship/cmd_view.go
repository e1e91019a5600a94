package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/kinship/pkg/render/svg"
)

// =============================================================================
// FOCUS / FIND
// =============================================================================

func (c *cli) focusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus ID",
		Short: "List a person and their direct relatives",
		Long: `List ID with their ancestors, spouses, children and, when both parents
are recorded, the mother's children. This is the set the focus view draws.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.sess.Focus(args[0]); err != nil {
				return err
			}
			return printPersons(cmd, a.sess.Visible())
		}),
	}
}

func (c *cli) findCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "find QUERY",
		Short: "Find persons by approximate name",
		Long: `Find persons whose full name is closest to QUERY. Matching is by character
trigrams, so small typos still match.

Example:
  kinship find "ana petrva" -k 3`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			out := cmd.OutOrStdout()
			for _, id := range a.sess.Find(args[0], k) {
				p, err := a.person(id)
				if err != nil {
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", id, p.FullName())
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&k, "limit", "k", 5, "Maximum number of matches")
	return cmd
}

// =============================================================================
// RENDER
// =============================================================================

func (c *cli) renderCmd() *cobra.Command {
	var (
		focusID       string
		width, height int
	)
	cmd := &cobra.Command{
		Use:   "render [FILE]",
		Short: "Render the tree as SVG",
		Long: `Render the tree, or with --focus one person's direct relatives, as an SVG
document centred in a canvas of the configured size. Writes to stdout when
FILE is omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			if width <= 0 {
				width = a.cfg.Canvas.Width
			}
			if height <= 0 {
				height = a.cfg.Canvas.Height
			}
			a.sess.Resize(float64(width), float64(height))

			if focusID != "" {
				if err := a.sess.Focus(focusID); err != nil {
					return err
				}
			} else {
				a.sess.CenterView()
			}

			if len(args) == 0 {
				return svg.Write(cmd.OutOrStdout(), a.sess.Scene(), width, height)
			}
			return writeFile(args[0], func(w io.Writer) error {
				return svg.Write(w, a.sess.Scene(), width, height)
			})
		}),
	}
	cmd.Flags().StringVar(&focusID, "focus", "", "Only draw this person's direct relatives")
	cmd.Flags().IntVar(&width, "width", 0, "Canvas width (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "Canvas height (default from config)")
	return cmd
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// =============================================================================
// LOGS
// =============================================================================

func (c *cli) logsCmd() *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print or clear the persisted log journal",
		Long: `Print the journal of recent log entries as JSON. The journal keeps the
newest entries up to log.journal_size and survives restarts.`,
		Args: cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			if clearAll {
				return a.journal.Clear()
			}
			data, err := a.journal.Export()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}),
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every journal entry")
	return cmd
}
