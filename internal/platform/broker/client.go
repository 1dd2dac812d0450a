// Package broker provides the HTTP client for the pub/sub broker sidecar.
//
// The sidecar is optional, independently deployed infrastructure: when it is
// down or slow, the feature it powers degrades (events silently go
// undelivered, state reads come back empty) but the primary request never
// fails. Every method therefore absorbs every transport fault - connection
// refused, timeout, non-2xx status - and reports a plain boolean or nil
// result. No error ever escapes to a caller, and nothing is retried here:
// retry belongs to the broker's redelivery policy.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskline/taskline-api/internal/config"
)

// defaultTimeout bounds every sidecar call when the config carries none.
const defaultTimeout = 5 * time.Second

// JobSpec describes a scheduled job for the sidecar's jobs API. Schedule is
// an RFC 3339 instant for one-shot jobs.
type JobSpec struct {
	Data     any    `json:"data"`
	Schedule string `json:"schedule"`
}

// Client is the HTTP client wrapper around the broker sidecar's publish,
// state and jobs APIs.
type Client struct {
	baseURL    string
	pubsubName string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a broker sidecar client from configuration.
func NewClient(cfg config.BrokerConfig, logger *slog.Logger) *Client {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for broker Client")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		pubsubName: cfg.PubsubName,
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger.With(slog.String("component", "broker_client")),
	}
}

// PubsubName returns the configured pub/sub component name, needed by the
// subscription registry endpoint.
func (c *Client) PubsubName() string {
	return c.pubsubName
}

// Publish sends an event to a pub/sub topic. Returns false when the event
// could not be delivered for any reason.
func (c *Client) Publish(ctx context.Context, topic string, data any) bool {
	url := fmt.Sprintf("%s/v1.0/publish/%s/%s", c.baseURL, c.pubsubName, topic)
	status, _, ok := c.do(ctx, http.MethodPost, url, data)
	if !ok {
		return false
	}
	if !is2xx(status) {
		c.logger.Warn("broker publish rejected",
			slog.String("topic", topic),
			slog.Int("status", status))
		return false
	}
	return true
}

// GetState reads a value from a sidecar state store. Returns nil when the
// key does not exist or the store is unreachable.
func (c *Client) GetState(ctx context.Context, store, key string) json.RawMessage {
	url := fmt.Sprintf("%s/v1.0/state/%s/%s", c.baseURL, store, key)
	status, body, ok := c.do(ctx, http.MethodGet, url, nil)
	if !ok || status != http.StatusOK || len(body) == 0 {
		return nil
	}
	return body
}

// SaveState writes a key/value pair to a sidecar state store.
func (c *Client) SaveState(ctx context.Context, store, key string, value any) bool {
	url := fmt.Sprintf("%s/v1.0/state/%s", c.baseURL, store)
	entries := []map[string]any{{"key": key, "value": value}}
	status, _, ok := c.do(ctx, http.MethodPost, url, entries)
	return ok && is2xx(status)
}

// DeleteState removes a key from a sidecar state store.
func (c *Client) DeleteState(ctx context.Context, store, key string) bool {
	url := fmt.Sprintf("%s/v1.0/state/%s/%s", c.baseURL, store, key)
	status, _, ok := c.do(ctx, http.MethodDelete, url, nil)
	return ok && is2xx(status)
}

// ScheduleJob registers a named job with the sidecar's jobs API. Scheduling
// the same name again replaces the previous spec.
func (c *Client) ScheduleJob(ctx context.Context, name string, spec JobSpec) bool {
	url := fmt.Sprintf("%s/v1.0-alpha1/jobs/%s", c.baseURL, name)
	status, _, ok := c.do(ctx, http.MethodPost, url, spec)
	if !ok {
		return false
	}
	if !is2xx(status) {
		c.logger.Warn("broker job schedule rejected",
			slog.String("job", name),
			slog.Int("status", status))
		return false
	}
	return true
}

// CancelJob removes a named job from the sidecar's jobs API.
func (c *Client) CancelJob(ctx context.Context, name string) bool {
	url := fmt.Sprintf("%s/v1.0-alpha1/jobs/%s", c.baseURL, name)
	status, _, ok := c.do(ctx, http.MethodDelete, url, nil)
	return ok && is2xx(status)
}

// do performs one bounded HTTP exchange with the sidecar. The third return
// is false for any transport-level failure; callers still need to inspect
// the status code for application-level rejection. The timeout is the only
// bound on the call; requests are not retried and not cancellable beyond it.
func (c *Client) do(ctx context.Context, method, url string, body any) (int, []byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			c.logger.Error("failed to encode sidecar request body",
				slog.String("url", url),
				slog.String("error", err.Error()))
			return 0, nil, false
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		c.logger.Error("failed to build sidecar request",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return 0, nil, false
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Covers connection refused and timeouts: the sidecar not being
		// there is an expected condition, so this stays at warn.
		c.logger.Warn("broker sidecar unreachable",
			slog.String("method", method),
			slog.String("url", url),
			slog.String("error", err.Error()))
		return 0, nil, false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("failed to read sidecar response",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return resp.StatusCode, nil, true
	}

	return resp.StatusCode, respBody, true
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
