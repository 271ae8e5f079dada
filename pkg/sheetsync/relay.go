package sheetsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
)

// StatusError is a non-2xx response from the sync endpoint.
type StatusError struct {
	Status int
	Body   json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync endpoint returned %d", e.Status)
}

// RelayResult is the downstream response of a successful trigger.
type RelayResult struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"result"`
}

// RelayClient triggers the sync endpoint on behalf of the scheduler,
// forwarding the cron secret as its bearer token.
type RelayClient struct {
	http     *http.Client
	url      string
	secret   string
	attempts uint
	delay    time.Duration
	logger   logger.Logger
}

func NewRelayClient(httpClient *http.Client, url, secret string, attempts uint, lggr logger.Logger) *RelayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if attempts == 0 {
		attempts = 1
	}
	return &RelayClient{
		http:     httpClient,
		url:      url,
		secret:   secret,
		attempts: attempts,
		delay:    time.Second,
		logger:   lggr.Named("cron"),
	}
}

// WithDelay sets the initial backoff between attempts.
func (c *RelayClient) WithDelay(d time.Duration) *RelayClient {
	c.delay = d
	return c
}

// URL is the endpoint the client triggers.
func (c *RelayClient) URL() string {
	return c.url
}

// Trigger POSTs to the sync endpoint. Transport errors and 5xx responses are
// retried; any other non-2xx response is returned at once as *StatusError.
func (c *RelayClient) Trigger(ctx context.Context) (*RelayResult, error) {
	if c.url == "" {
		return nil, errors.New("sync endpoint URL is not configured")
	}
	return retry.DoWithData(
		func() (*RelayResult, error) {
			return c.post(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warnw("Sync trigger failed, retrying", "attempt", n+1, "url", c.url, "err", err)
		}),
	)
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *RelayClient) post(ctx context.Context) (*RelayResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	body := asJSON(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: body}
	}
	return &RelayResult{Status: resp.StatusCode, Body: body}, nil
}

// asJSON returns raw if it is valid JSON, otherwise raw as a JSON string.
func asJSON(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}
