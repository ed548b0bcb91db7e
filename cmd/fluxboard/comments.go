package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/apps/comments"
	"github.com/jpalmerr/fluxboard/persist"
	"github.com/jpalmerr/fluxboard/store"
)

// newCommentsCmd reads and posts comments through the comment list store.
func newCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and post comments",
		Long: `Read and post comments on a comment endpoint.

Relative comment URLs resolve against --server, which defaults to the
board on the configured port.

Example:
  fluxboard comments list
  fluxboard comments post --author ann --text "Looks good"`,
	}
	cmd.PersistentFlags().String("server", "", "base URL of the board (default http://127.0.0.1:<port>)")

	post := &cobra.Command{
		Use:   "post",
		Short: "Post a comment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			author, _ := cmd.Flags().GetString("author")
			text, _ := cmd.Flags().GetString("text")
			return withComments(cmd, func(d action.Emitter, s *store.Store[comments.Model]) error {
				d.Emit(comments.Submit, comments.Comment{Author: author, Text: text})
				data := s.State().CommentsData
				if data == nil {
					return errors.New("failed to post comment")
				}
				return printComments(cmd.OutOrStdout(), data)
			})
		},
	}
	post.Flags().String("author", "", "comment author (required)")
	post.Flags().String("text", "", "comment text (required)")
	_ = post.MarkFlagRequired("author")
	_ = post.MarkFlagRequired("text")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List comments",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withComments(cmd, func(d action.Emitter, s *store.Store[comments.Model]) error {
					d.Emit(comments.Load, nil)
					data := s.State().CommentsData
					if data == nil {
						return errors.New("failed to load comments")
					}
					return printComments(cmd.OutOrStdout(), data)
				})
			},
		},
		post,
	)
	return cmd
}

// withComments runs fn against a comment list store on an inline
// dispatcher, so every emitted action has completed when Emit returns.
func withComments(cmd *cobra.Command, fn func(d action.Emitter, s *store.Store[comments.Model]) error) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	}

	remote := persist.NewRemote(server, persist.WithTimeout(cfg.Comments.Timeout.Duration()))
	defer remote.Close()

	d := action.NewDispatcher(action.Inline{}, action.WithLogger(logger))
	list := comments.NewStore(remote,
		comments.WithURL(cfg.Comments.URL),
		comments.WithBaseURL(server),
		comments.WithStoreOptions(store.WithLogger(logger), store.WithContext(cmd.Context())),
	)
	defer list.Bind(d)()

	return fn(d, list)
}

func printComments(w io.Writer, cs []comments.Comment) error {
	if len(cs) == 0 {
		_, err := fmt.Fprintln(w, "no comments")
		return err
	}
	for _, c := range cs {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c.Author, c.Text); err != nil {
			return err
		}
	}
	return nil
}
