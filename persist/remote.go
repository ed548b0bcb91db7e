package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

const defaultRequestTimeout = 10 * time.Second

// connection pooling limits, same as a long-lived polling client
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// RemoteState is the request state of a [Remote] adapter.
type RemoteState int32

const (
	// Idle means no request is in flight.
	Idle RemoteState = iota
	// Requesting means at least one request is in flight.
	Requesting
)

func (s RemoteState) String() string {
	if s == Requesting {
		return "requesting"
	}
	return "idle"
}

// Remote is an [Adapter] and JSON client for an HTTP endpoint.
//
// Remote uses per-request timeouts via context rather than a global client
// timeout. Response bodies are limited to 1MB. Any non-2xx status is a
// [*TransportError]; a body that is not valid JSON is a [*ParseError].
//
// Remote moves Idle → Requesting when a request starts and back to Idle when
// the last in-flight request finishes, whatever the outcome. Requests are
// independent; responses to interleaved calls may complete in any order.
type Remote struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	inflight   atomic.Int32
}

// RemoteOption configures a [Remote].
type RemoteOption func(*Remote)

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithLogger sets the logger used to report failed loads. A nil logger is
// ignored.
func WithLogger(logger *slog.Logger) RemoteOption {
	return func(r *Remote) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRemote creates a [Remote] adapter. baseURL is used by [Remote.Save] and
// [Remote.Load] to build key URLs; [Remote.Get] and [Remote.Post] take full
// URLs and ignore it.
func NewRemote(baseURL string, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultRequestTimeout,
		logger:  slog.Default(),
		httpClient: &http.Client{
			// no default timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports whether a request is in flight.
func (r *Remote) State() RemoteState {
	if r.inflight.Load() > 0 {
		return Requesting
	}
	return Idle
}

// Get fetches url and decodes its JSON body into out.
func (r *Remote) Get(ctx context.Context, url string, out any) error {
	return r.do(ctx, http.MethodGet, url, nil, out)
}

// Post sends body as JSON to url and decodes the JSON response into out.
// out may be nil to discard the response body.
func (r *Remote) Post(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &ParseError{Target: url, Err: err}
	}
	return r.do(ctx, http.MethodPost, url, data, out)
}

// Save POSTs v to the key's URL under the base URL.
func (r *Remote) Save(ctx context.Context, key string, v any) error {
	return r.Post(ctx, r.keyURL(key), v, nil)
}

// Load GETs the key's URL under the base URL into v. Failures of any kind
// report false. A 404 is a key that was never saved and is logged at debug;
// every other failure is logged as a warning.
func (r *Remote) Load(ctx context.Context, key string, v any) bool {
	u := r.keyURL(key)
	err := r.Get(ctx, u, v)
	if err == nil {
		return true
	}
	status := StatusCode(err)
	if status == http.StatusNotFound {
		r.logger.Debug("remote key not found", "key", key, "url", u)
		return false
	}
	r.logger.Warn("remote load failed", "key", key, "url", u, "status", status, "error", err)
	return false
}

func (r *Remote) keyURL(key string) string {
	return r.baseURL + "/" + strings.TrimLeft(key, "/")
}

// do performs one request. Every failure is a *TransportError or
// *ParseError.
func (r *Remote) do(ctx context.Context, method, url string, body []byte, out any) error {
	r.inflight.Add(1)
	defer r.inflight.Add(-1)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	op := strings.ToLower(method)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &TransportError{Op: op, Target: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Target: url, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return &TransportError{Op: op, Target: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, Target: url, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ParseError{Target: url, Err: err}
	}
	return nil
}

// Close closes idle connections in the client's pool. The adapter remains
// usable afterwards. Safe to call on a nil Remote. It always returns nil.
func (r *Remote) Close() error {
	if r == nil || r.httpClient == nil {
		return nil
	}
	r.httpClient.CloseIdleConnections()
	return nil
}
