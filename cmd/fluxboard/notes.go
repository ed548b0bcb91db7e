package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/apps/kanban"
	"github.com/jpalmerr/fluxboard/persist"
	"github.com/jpalmerr/fluxboard/store"
)

// newNotesCmd edits the saved Kanban board without a running server.
func newNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List and edit the saved Kanban notes",
		Long: `List and edit the Kanban notes saved in the configured storage.

Each subcommand restores the board, applies one action and saves the
result, exactly as the dashboard does. Use a bolt, sqlite or remote storage
driver: the memory driver does not outlive the command.

Example:
  fluxboard notes add --storage-driver bolt --storage-path board.db "Write docs"
  fluxboard notes list --storage-driver bolt --storage-path board.db
  fluxboard notes list --storage-driver remote --storage-path http://localhost:8080/api/kv`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List notes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNotes(cmd, func(_ action.Emitter, s *store.Store[kanban.Notes]) error {
					return printNotes(cmd.OutOrStdout(), s.State().Notes)
				})
			},
		},
		&cobra.Command{
			Use:   "add [task...]",
			Short: "Add a note (default task \"" + kanban.DefaultTask + "\")",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNotes(cmd, func(d action.Emitter, s *store.Store[kanban.Notes]) error {
					d.Emit(kanban.CreateNote, kanban.Note{Task: strings.Join(args, " ")})
					notes := s.State().Notes
					if len(notes) == 0 {
						return errors.New("note was not created")
					}
					return printNotes(cmd.OutOrStdout(), notes[len(notes)-1:])
				})
			},
		},
		&cobra.Command{
			Use:   "edit <id> [task...]",
			Short: "Change a note's task; an empty task removes the note",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNotes(cmd, func(d action.Emitter, s *store.Store[kanban.Notes]) error {
					id := args[0]
					if s.State().Index(id) < 0 {
						return fmt.Errorf("note %q not found", id)
					}
					kanban.EditNote(d, id, strings.TrimSpace(strings.Join(args[1:], " ")))
					return printNotes(cmd.OutOrStdout(), s.State().Notes)
				})
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"remove"},
			Short:   "Remove a note",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNotes(cmd, func(d action.Emitter, s *store.Store[kanban.Notes]) error {
					if s.State().Index(args[0]) < 0 {
						return fmt.Errorf("note %q not found", args[0])
					}
					d.Emit(kanban.RemoveNote, args[0])
					return printNotes(cmd.OutOrStdout(), s.State().Notes)
				})
			},
		},
	)
	return cmd
}

// withNotes restores the notes store from storage on an inline dispatcher,
// runs fn, and saves any change fn makes.
func withNotes(cmd *cobra.Command, fn func(d action.Emitter, s *store.Store[kanban.Notes]) error) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	if cfg.Storage.Driver == persist.DriverMemory {
		logger.Warn("memory storage does not outlive this command")
	}

	backend, err := persist.OpenBackend(cfg.Storage.Driver, cfg.Storage.Path, logger,
		persist.WithTimeout(cfg.Comments.Timeout.Duration()))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()

	d := action.NewDispatcher(action.Inline{}, action.WithLogger(logger))
	notes := kanban.NewNotesStore(store.WithLogger(logger), store.WithContext(cmd.Context()))
	defer notes.Bind(d)()
	defer kanban.PersistNotes(cmd.Context(), notes, d, backend, logger)()

	return fn(d, notes)
}

func printNotes(w io.Writer, notes []kanban.Note) error {
	if len(notes) == 0 {
		_, err := fmt.Fprintln(w, "no notes")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTASK")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\n", n.ID, n.Task)
	}
	return tw.Flush()
}
