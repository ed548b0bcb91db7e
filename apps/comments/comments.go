// Package comments implements the comment list: a store that loads comments
// from an HTTP endpoint and submits new ones to it.
package comments

import (
	"context"
	"net/url"
	"strings"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/persist"
	"github.com/jpalmerr/fluxboard/store"
)

// StoreName is the name of the comment list store.
const StoreName = "comments"

// DefaultURL is the endpoint the comment list loads from and posts to.
const DefaultURL = "/comments.json"

// Action kinds handled by the comment list store.
const (
	Rebroadcast action.Kind = "probeAction"
	Load        action.Kind = "loadCommentsFromServer"
	Submit      action.Kind = "handleCommentSubmit"
)

// Kinds lists every kind the comment list handles.
var Kinds = []action.Kind{Rebroadcast, Load, Submit}

// Comment is one entry in the list.
type Comment struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Model is the comment list state. CommentsData is absent until the first
// successful load.
type Model struct {
	URL          string    `json:"url"`
	CommentsData []Comment `json:"commentsData,omitempty"`
}

// Clone returns a deep copy of m.
func (m Model) Clone() Model {
	if m.CommentsData != nil {
		m.CommentsData = append([]Comment(nil), m.CommentsData...)
	}
	return m
}

// Option configures the comment list store.
type Option func(*settings)

type settings struct {
	url       string
	baseURL   string
	storeOpts []store.Option
}

// WithURL overrides [DefaultURL].
func WithURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.url = u
		}
	}
}

// WithBaseURL sets the origin that relative model URLs are resolved against,
// e.g. "http://localhost:8080".
func WithBaseURL(base string) Option {
	return func(s *settings) {
		s.baseURL = base
	}
}

// WithStoreOptions passes options through to [store.New].
func WithStoreOptions(opts ...store.Option) Option {
	return func(s *settings) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

type list struct {
	remote  *persist.Remote
	baseURL string
}

// NewStore creates the comment list store. Requests go through remote.
func NewStore(remote *persist.Remote, opts ...Option) *store.Store[Model] {
	s := settings{url: DefaultURL}
	for _, opt := range opts {
		opt(&s)
	}

	l := &list{remote: remote, baseURL: s.baseURL}
	return store.New(StoreName, Model{URL: s.url}, store.Handlers[Model]{
		Rebroadcast: l.rebroadcast,
		Load:        l.load,
		Submit:      l.submit,
	}, s.storeOpts...)
}

func (l *list) rebroadcast(c *store.Context[Model], _ action.Action) {
	c.Notify()
}

func (l *list) load(c *store.Context[Model], _ action.Action) {
	target := l.resolve(c.Model().URL)
	logger := c.Logger()

	c.Go(func(ctx context.Context) store.Completion[Model] {
		var data []Comment
		if err := l.remote.Get(ctx, target, &data); err != nil {
			logger.Error("failed to load comments",
				"url", target,
				"status", persist.StatusCode(err),
				"error", err,
			)
			return nil
		}
		return func(c *store.Context[Model]) {
			c.Model().CommentsData = data
			c.Notify()
		}
	})
}

func (l *list) submit(c *store.Context[Model], a action.Action) {
	comment, err := action.Decode[Comment](a.Payload)
	if err != nil {
		c.Logger().Warn("ignoring comment submission", "error", err)
		return
	}

	target := l.resolve(c.Model().URL)
	logger := c.Logger()

	c.Go(func(ctx context.Context) store.Completion[Model] {
		var data []Comment
		if err := l.remote.Post(ctx, target, comment, &data); err != nil {
			logger.Error("failed to submit comment",
				"url", target,
				"status", persist.StatusCode(err),
				"error", err,
			)
			return nil
		}
		return func(c *store.Context[Model]) {
			c.Model().CommentsData = data
			c.Notify()
		}
	})
}

// resolve makes a relative model URL absolute against the base URL. Absolute
// URLs, and any URL when no base is set, are returned unchanged.
func (l *list) resolve(raw string) string {
	if l.baseURL == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	base, err := url.Parse(l.baseURL)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}
