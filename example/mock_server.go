package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/jpalmerr/fluxboard/apps/comments"
)

var (
	mockAuthors = []string{"Pete Hunt", "Jordan Walke", "Ada", "Grace"}
	mockTexts   = []string{
		"This is one comment",
		"This is *another* comment",
		"Works on my machine",
		"Ship it",
		"Can we add a lane for review?",
	}
)

// StartMockCommentServer runs a comment endpoint at addr that gains a new
// comment every 20-60 seconds.
// Call this in a goroutine before starting the board.
func StartMockCommentServer(addr string) {
	backend := comments.NewBackend(slog.Default(),
		comments.Comment{Author: "Pete Hunt", Text: "This is one comment"},
	)

	go func() {
		for {
			time.Sleep(time.Duration(20+rand.Intn(41)) * time.Second)
			c := comments.Comment{
				Author: mockAuthors[rand.Intn(len(mockAuthors))],
				Text:   mockTexts[rand.Intn(len(mockTexts))],
			}
			backend.Add(c)
			slog.Info("mock comment added", "author", c.Author)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle(comments.DefaultURL, backend)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
