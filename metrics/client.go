package metrics

//go:generate go tool mockgen -destination=../internal/testutil/httpmock/doer.go -package=httpmock . Doer

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sinkuri/auth"
	"github.com/ghettovoice/sinkuri/internal/errorutil"
	"github.com/ghettovoice/sinkuri/internal/log"
	"github.com/ghettovoice/sinkuri/internal/types"
	"github.com/ghettovoice/sinkuri/uri"
)

const (
	// ErrUnexpectedStatus is returned when the metrics endpoint responds with a non-success status.
	ErrUnexpectedStatus errorutil.Error = "unexpected response status"
	// ErrBodyTooLarge is returned when the response body exceeds the limit.
	ErrBodyTooLarge errorutil.Error = "response body too large"
	// ErrNotStarted is returned when the started gauge is missing.
	ErrNotStarted errorutil.Error = StartedName + " metric was not found"
)

// DefaultMaxBodySize is the default limit of the response body.
const DefaultMaxBodySize = 4 << 20

// Doer sends HTTP requests. [*http.Client] implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client loads the exposition text from metrics endpoints.
// The zero value is ready to use. It is safe for concurrent use if the Doer is.
type Client struct {
	// Doer sends requests, defaults to [http.DefaultClient].
	Doer Doer
	// Logger defaults to the noop logger.
	Logger *slog.Logger
	// MaxBodySize limits the response body, defaults to [DefaultMaxBodySize].
	MaxBodySize int64
}

func (c *Client) doer() Doer {
	if c == nil || c.Doer == nil {
		return http.DefaultClient
	}
	return c.Doer
}

func (c *Client) logger() *slog.Logger {
	if c == nil {
		return log.Noop
	}
	return log.OrNoop(c.Logger)
}

func (c *Client) maxBodySize() int64 {
	if c == nil || c.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

// Load issues a GET request to the endpoint and returns the response body.
// The credential of the endpoint is sent as basic authorization.
// Any status outside of 2xx and 3xx fails with [ErrUnexpectedStatus].
func (c *Client) Load(ctx context.Context, endpoint uri.URI) (string, error) {
	u, err := endpoint.URL()
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	req.Header.Set("Accept", "text/plain")
	auth.Apply(req, endpoint.Auth())

	logger := c.logger()
	logger.LogAttrs(ctx, slog.LevelDebug, "loading metrics", slog.Any("endpoint", endpoint))

	res, err := c.doer().Do(req)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	defer res.Body.Close()

	status := types.ResponseStatus(res.StatusCode)
	if !status.IsAccepted() {
		return "", errtrace.Wrap(errorutil.NewWrapperError(ErrUnexpectedStatus, "%s %s from %s", status.Class(), status, endpoint.Redacted()))
	}

	limit := c.maxBodySize()
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	if int64(len(body)) > limit {
		return "", errtrace.Wrap(errorutil.NewWrapperError(ErrBodyTooLarge, "more than %d bytes from %s", limit, endpoint.Redacted()))
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "metrics loaded",
		slog.Any("endpoint", endpoint),
		slog.Any("status", status),
		slog.Int("size", len(body)),
	)
	return string(body), nil
}

// EventsProcessed loads the endpoint and returns the sum of processed events counters.
func (c *Client) EventsProcessed(ctx context.Context, endpoint uri.URI) (uint64, error) {
	text, err := c.Load(ctx, endpoint)
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	return errtrace.Wrap2(EventsProcessedSum(text))
}

// AssertStarted loads the endpoint and fails with [ErrNotStarted] if the started gauge is missing.
// The error includes the loaded text.
func (c *Client) AssertStarted(ctx context.Context, endpoint uri.URI) error {
	text, err := c.Load(ctx, endpoint)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if !Started(text) {
		return errtrace.Wrap(errorutil.NewWrapperError(ErrNotStarted, "\n"+text))
	}
	return nil
}
