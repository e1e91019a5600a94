package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/kittclouds/kinship/internal/session"
	"github.com/kittclouds/kinship/pkg/family"
)

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the tree with a JSON snapshot",
		Long: `Replace the stored tree with a JSON snapshot. The snapshot is validated
first; a malformed file leaves the stored tree untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			if err := a.sess.Import(data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d persons\n", a.sess.Tree().Len())
			return nil
		}),
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the tree as a JSON snapshot",
		Long:  `Write the tree as a JSON snapshot to FILE, or to stdout when FILE is omitted.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			data, err := a.sess.Export()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			return nil
		}),
	}
}

// =============================================================================
// LIST
// =============================================================================

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every person with their relationships",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			return printPersons(cmd, a.sess.Tree().Persons())
		}),
	}
}

func printPersons(cmd *cobra.Command, persons []*family.Person) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGENDER\tDATES\tMOTHER\tFATHER\tSPOUSES\tCHILDREN")
	for _, p := range persons {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID(), p.FullName(), p.Gender, dash(p.DateLabel()),
			dash(p.Mother()), dash(p.Father()),
			dash(strings.Join(p.Spouses(), ",")), dash(strings.Join(p.Children(), ",")))
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// ADD / EDIT
// =============================================================================

// personFlags are the edit-form fields shared by add and edit.
type personFlags struct {
	gender   string
	birthday string
	deathday string
	info     string
	link     string
	photo    string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.gender, "gender", "male", "male or female")
	cmd.Flags().StringVar(&f.birthday, "birthday", "", "Birth date, e.g. 1950-03-14")
	cmd.Flags().StringVar(&f.deathday, "deathday", "", "Death date")
	cmd.Flags().StringVar(&f.info, "info", "", "Free-form notes")
	cmd.Flags().StringVar(&f.link, "link", "", "External data link")
	cmd.Flags().StringVar(&f.photo, "photo", "", "Image file to use as the photo")
}

// apply copies every flag the user set onto in.
func (f *personFlags) apply(cmd *cobra.Command, in *session.PersonInput) error {
	flags := cmd.Flags()
	if flags.Changed("gender") {
		in.Gender = f.gender
	}
	if flags.Changed("birthday") {
		in.Birthday = f.birthday
	}
	if flags.Changed("deathday") {
		in.Deathday = f.deathday
	}
	if flags.Changed("info") {
		in.Info = f.info
	}
	if flags.Changed("link") {
		in.DataLink = f.link
	}
	if flags.Changed("photo") {
		photo := ""
		if f.photo != "" {
			att, err := readAttachment(f.photo)
			if err != nil {
				return err
			}
			photo = att.Data
		}
		in.Photo = &photo
	}
	return nil
}

func inputOf(p *family.Person) session.PersonInput {
	return session.PersonInput{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    string(p.Gender),
		Birthday:  p.Birthday,
		Deathday:  p.Deathday,
		Info:      p.Info,
		DataLink:  p.DataLink,
	}
}

func (c *cli) addCmd() *cobra.Command {
	var (
		pf        personFlags
		childOf   string
		siblingOf string
		spouseOf  string
	)
	cmd := &cobra.Command{
		Use:   "add FIRST LAST",
		Short: "Add a person, optionally as a relative of someone",
		Long: `Add a person. With --child-of, --sibling-of or --spouse-of the person is
created next to that relative and linked to them.

Examples:
  kinship add Ivan Petrov
  kinship add Anna Petrova --gender female --child-of person_1
  kinship add Olga Petrova --gender female --sibling-of person_3`,
		Args: cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			first, last := args[0], args[1]
			gender := family.ParseGender(pf.gender)

			var (
				p   *family.Person
				err error
			)
			switch {
			case childOf != "":
				if err := a.sess.Select(childOf); err != nil {
					return err
				}
				p, err = a.sess.AddChild(first, last, gender)
			case siblingOf != "":
				if err := a.sess.Select(siblingOf); err != nil {
					return err
				}
				p, err = a.sess.AddSibling(first, last, gender)
			case spouseOf != "":
				if err := a.sess.Select(spouseOf); err != nil {
					return err
				}
				p, err = a.sess.AddSpouse(first, last)
			default:
				p, err = a.sess.SavePerson("", session.PersonInput{FirstName: first, LastName: last, Gender: pf.gender})
			}
			if err != nil {
				return err
			}

			in := inputOf(p)
			if err := pf.apply(cmd, &in); err != nil {
				return err
			}
			if _, err := a.sess.SavePerson(p.ID(), in); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID())
			return nil
		}),
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&childOf, "child-of", "", "Create as a child of this person")
	cmd.Flags().StringVar(&siblingOf, "sibling-of", "", "Create as a sibling of this person")
	cmd.Flags().StringVar(&spouseOf, "spouse-of", "", "Create as a spouse of this person")
	cmd.MarkFlagsMutuallyExclusive("child-of", "sibling-of", "spouse-of")
	return cmd
}

func (c *cli) addParentsCmd() *cobra.Command {
	var father, mother string
	cmd := &cobra.Command{
		Use:   "add-parents ID",
		Short: "Create a married father and mother for a person",
		Long: `Create a father and a mother above ID, marry them and record them as
ID's parents. Refused when ID already has both parents.

Example:
  kinship add-parents person_3 --father "Ivan Petrov" --mother "Maria Petrova"`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.sess.Select(args[0]); err != nil {
				return err
			}
			ff, fl := splitName(father)
			mf, ml := splitName(mother)
			f, m, err := a.sess.AddParents(ff, fl, mf, ml)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.ID(), m.ID())
			return nil
		}),
	}
	cmd.Flags().StringVar(&father, "father", "", `Father's name, "First Last"`)
	cmd.Flags().StringVar(&mother, "mother", "", `Mother's name, "First Last"`)
	_ = cmd.MarkFlagRequired("father")
	_ = cmd.MarkFlagRequired("mother")
	return cmd
}

// splitName splits "First Last Name" into "First" and "Last Name".
func splitName(s string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(s), " ")
	return first, strings.TrimSpace(last)
}

func (c *cli) editCmd() *cobra.Command {
	var (
		pf          personFlags
		first, last string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a person's details",
		Long: `Change the fields given as flags and keep the rest. --photo "" removes the
photo.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			p, err := a.person(args[0])
			if err != nil {
				return err
			}
			in := inputOf(p)
			if cmd.Flags().Changed("first") {
				in.FirstName = first
			}
			if cmd.Flags().Changed("last") {
				in.LastName = last
			}
			if err := pf.apply(cmd, &in); err != nil {
				return err
			}
			_, err = a.sess.SavePerson(p.ID(), in)
			return err
		}),
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&first, "first", "", "First name")
	cmd.Flags().StringVar(&last, "last", "", "Last name")
	return cmd
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func (c *cli) attachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach ID FILE",
		Short: "Attach a file to a person",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			att, err := readAttachment(args[1])
			if err != nil {
				return err
			}
			return a.sess.AddFile(args[0], att)
		}),
	}
}

func (c *cli) detachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach ID INDEX",
		Short: "Remove the attachment at INDEX (0-based) from a person",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			return a.sess.RemoveFile(args[0], index)
		}),
	}
}

// readAttachment loads a file as a data-URL attachment, sniffing its type.
func readAttachment(path string) (family.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return family.Attachment{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return family.NewAttachment(filepath.Base(path), mediaType, data), nil
}

// =============================================================================
// RELATIONSHIPS
// =============================================================================

const linkHelp = `MODE is child (TARGET is SOURCE's child), parent (TARGET is SOURCE's
parent) or spouse.`

func (c *cli) linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link MODE SOURCE TARGET",
		Short: "Record a relationship between two persons",
		Long:  "Record a relationship between two persons.\n\n" + linkHelp,
		Args:  cobra.ExactArgs(3),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			mode, err := session.ParseRelation(args[0])
			if err != nil {
				return err
			}
			return a.sess.Link(mode, args[1], args[2])
		}),
	}
}

func (c *cli) unlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink MODE SOURCE TARGET",
		Short: "Remove a relationship between two persons",
		Long:  "Remove a relationship between two persons.\n\n" + linkHelp,
		Args:  cobra.ExactArgs(3),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			mode, err := session.ParseRelation(args[0])
			if err != nil {
				return err
			}
			return a.sess.Unlink(mode, args[1], args[2])
		}),
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a person and every relationship naming them",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			return a.sess.Delete(args[0])
		}),
	}
}

func (c *cli) layoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Put every couple on one row",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			a.sess.AutoLayout()
			return nil
		}),
	}
}
