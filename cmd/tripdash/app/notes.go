package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"

	"github.com/autopeer-io/tripdash/internal/dashboard"
	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

const noteDateLayout = "2006-01-02"

// noteFlags collects the fields of a note from the command line.
type noteFlags struct {
	date  string
	text  string
	price float64
}

func (f *noteFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "Date of the note, YYYY-MM-DD.")
	cmd.Flags().StringVar(&f.text, "text", "", "Text of the note.")
	cmd.Flags().Float64Var(&f.price, "price", 0, "Optional cost in EUR.")
}

// input merges the flags that were set over base.
func (f *noteFlags) input(cmd *cobra.Command, base v1.NoteInput) (v1.NoteInput, error) {
	in := base
	if cmd.Flags().Changed("date") {
		d, err := time.ParseInLocation(noteDateLayout, f.date, time.Local)
		if err != nil {
			return in, errdefs.Invalid("noteDate", fmt.Sprintf("%q is not a date like 2024-03-01", f.date))
		}
		in.Date = d
	}
	if cmd.Flags().Changed("text") {
		in.Text = f.text
	}
	if cmd.Flags().Changed("price") {
		in.Price = ptr.To(f.price)
	}
	return in, nil
}

func (r *runner) newNotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage maintenance notes of the active vehicle",
	}
	cmd.AddCommand(
		r.newNotesListCommand(),
		r.newNotesAddCommand(),
		r.newNotesEditCommand(),
		r.newNotesDeleteCommand(),
	)
	return cmd
}

func (r *runner) newNotesListCommand() *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes in the active time range, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				if _, err := requireVehicle(a); err != nil {
					return err
				}
				for i := 1; i < pages && a.NoteList().HasMore; i++ {
					if err := a.LoadMoreNotes(ctx); err != nil {
						return err
					}
				}

				s := a.NoteList()
				if s.Err != nil {
					return s.Err
				}
				printNotes(cmd.OutOrStdout(), s.Items)
				if s.HasMore {
					fmt.Fprintf(cmd.ErrOrStderr(), "Weitere Notizen mit --pages %d\n", pages+1)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load.")
	return cmd
}

func (r *runner) newNotesAddCommand() *cobra.Command {
	var f noteFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				deviceID, err := requireVehicle(a)
				if err != nil {
					return err
				}
				in, err := f.input(cmd, v1.NoteInput{})
				if err != nil {
					return err
				}
				n, err := a.Notes.Add(ctx, deviceID, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Notiz %s gespeichert\n", n.ID)
				return nil
			})
		},
	}
	f.addFlags(cmd)
	return cmd
}

// findNote looks id up among the loaded notes, loading further pages as needed.
func findNote(ctx context.Context, a *dashboard.App, id string) (v1.Note, error) {
	for {
		s := a.NoteList()
		for _, n := range s.Items {
			if n.ID == id {
				return n, nil
			}
		}
		if !s.HasMore || s.Err != nil {
			return v1.Note{}, errdefs.Invalid("note", fmt.Sprintf("%q not found in the active time range", id))
		}
		if err := a.LoadMoreNotes(ctx); err != nil {
			return v1.Note{}, err
		}
	}
}

func (r *runner) newNotesEditCommand() *cobra.Command {
	var f noteFlags
	cmd := &cobra.Command{
		Use:   "edit NOTE_ID",
		Short: "Change a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				deviceID, err := requireVehicle(a)
				if err != nil {
					return err
				}
				current, err := findNote(ctx, a, args[0])
				if err != nil {
					return err
				}
				in, err := f.input(cmd, v1.NoteInput{Date: current.Date, Text: current.Text, Price: current.Price})
				if err != nil {
					return err
				}
				_, err = a.Notes.Update(ctx, deviceID, current, in)
				return err
			})
		},
	}
	f.addFlags(cmd)
	return cmd
}

func (r *runner) newNotesDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete NOTE_ID",
		Short: "Delete a note after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				r.confirm = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			return r.withSession(cmd, func(ctx context.Context, a *dashboard.App) error {
				deviceID, err := requireVehicle(a)
				if err != nil {
					return err
				}
				deleted, err := a.Notes.Delete(ctx, deviceID, args[0])
				if err != nil {
					return err
				}
				if deleted {
					fmt.Fprintln(cmd.OutOrStdout(), "Notiz gelöscht")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation.")
	return cmd
}
