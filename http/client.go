package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/quantonganh/newsletter"
)

// The script host only accepts simple requests, so the JSON body goes out as text/plain.
const contentType = "text/plain;charset=UTF-8"

// Client posts subscribe and unsubscribe requests to the remote store.
type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*newsletter.Response]
	logger  zerolog.Logger
}

var _ newsletter.Store = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithTimeout bounds each request. Zero leaves the http.Client timeout as is.
// It applies to a copy, so a client passed with WithHTTPClient is not modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithBreaker trips after failures consecutive transport errors and stays
// open for timeout.
func WithBreaker(failures uint32, timeout time.Duration) ClientOption {
	return func(cl *Client) {
		cl.breaker = gobreaker.NewCircuitBreaker[*newsletter.Response](gobreaker.Settings{
			Name:    "subscriber-store",
			Timeout: timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				cl.logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		})
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient returns a client for the store at url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:    url,
		client: &http.Client{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// Subscribe posts a subscribe request.
func (c *Client) Subscribe(ctx context.Context, req *newsletter.SubscribeRequest) (*newsletter.Response, error) {
	return c.post(ctx, newsletter.ActionSubscribe, req)
}

// Unsubscribe posts an unsubscribe request.
func (c *Client) Unsubscribe(ctx context.Context, req *newsletter.UnsubscribeRequest) (*newsletter.Response, error) {
	return c.post(ctx, newsletter.ActionUnsubscribe, req)
}

func (c *Client) post(ctx context.Context, action string, body interface{}) (*newsletter.Response, error) {
	if c.breaker == nil {
		return c.do(ctx, action, body)
	}

	resp, err := c.breaker.Execute(func() (*newsletter.Response, error) {
		return c.do(ctx, action, body)
	})
	if err != nil {
		return nil, errors.Wrap(err, action)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, action string, body interface{}) (*newsletter.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "json.Marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "http.NewRequest")
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("action", action).Msg("store request failed")
		return nil, errors.Wrapf(err, "failed to post %s", action)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	resp := decodeResponse(raw)
	c.logger.Info().
		Str("action", action).
		Int("status_code", res.StatusCode).
		Str("status", resp.Status).
		Dur("duration", time.Since(start)).
		Msg("")

	return resp, nil
}

// decodeResponse never fails: a body that is not a JSON object yields the
// zero Response. Status and message are read independently, and a field
// that is not a string is left empty.
func decodeResponse(raw []byte) *newsletter.Response {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &newsletter.Response{}
	}

	var resp newsletter.Response
	_ = json.Unmarshal(fields["status"], &resp.Status)
	_ = json.Unmarshal(fields["message"], &resp.Message)
	return &resp
}
