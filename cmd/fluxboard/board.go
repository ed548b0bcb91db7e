package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/apps/kanban"
	"github.com/jpalmerr/fluxboard/internal/loop"
	"github.com/jpalmerr/fluxboard/internal/tui"
	"github.com/jpalmerr/fluxboard/persist"
	"github.com/jpalmerr/fluxboard/store"
)

// newBoardCmd opens the saved Kanban board in the terminal.
func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Edit the Kanban board in the terminal",
		Long: `Open the Kanban notes saved in the configured storage as a terminal board.

Logs would garble the screen, so they are discarded unless --log-file is
given.

Example:
  fluxboard board --storage-driver bolt --storage-path board.db`,
		Args: cobra.NoArgs,
		RunE: runBoard,
	}
	cmd.Flags().String("log-file", "", "write JSON logs to this file")
	return cmd
}

func runBoard(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(cfg, logOut)

	backend, err := persist.OpenBackend(cfg.Storage.Driver, cfg.Storage.Path, logger,
		persist.WithTimeout(cfg.Comments.Timeout.Duration()))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()

	ctx := cmd.Context()
	lp := loop.New(logger)
	lp.Start(ctx)
	defer lp.Stop()

	d := action.NewDispatcher(lp, action.WithLogger(logger))
	notes := kanban.NewNotesStore(store.WithLogger(logger), store.WithContext(ctx))
	defer notes.Bind(d)()
	defer kanban.PersistNotes(ctx, notes, d, backend, logger)()

	// show the restored board, not the empty one
	_ = lp.Wait(ctx)

	err = tui.Run(ctx, d, notes, cfg.Title)
	_ = lp.Wait(ctx) // last edits are saved before storage closes
	return err
}
