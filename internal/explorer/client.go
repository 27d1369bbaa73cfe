// Package explorer queries an Etherscan-compatible block explorer API.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	// DefaultPageSize is how many holder rows one query requests. It only
	// needs to exceed the exclusion threshold, not the real holder count.
	DefaultPageSize = 200
)

// Client implements holder lookups against an Etherscan-style HTTP API.
type Client struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	pageSize    int
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithPageSize sets the holder page size requested per query.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = n
	}
}

// NewClient creates a new explorer API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		pageSize:    DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response wrapper of Etherscan-style APIs.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// HolderCount returns the number of holder rows the explorer reports for a
// token, capped at the configured page size. A token with no records counts
// as zero holders.
func (c *Client) HolderCount(ctx context.Context, token common.Address) (int, error) {
	query := url.Values{}
	query.Set("module", "token")
	query.Set("action", "tokenholderlist")
	query.Set("contractaddress", token.Hex())
	query.Set("page", "1")
	query.Set("offset", strconv.Itoa(c.pageSize))
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	env, err := c.get(ctx, query)
	if err != nil {
		return 0, err
	}

	if env.Status != "1" {
		if strings.Contains(strings.ToLower(env.Message), "no records") {
			return 0, nil
		}
		// API errors are not retried
		return 0, fmt.Errorf("explorer error: %s: %s", env.Message, strings.TrimSpace(string(env.Result)))
	}

	var holders []json.RawMessage
	if err := json.Unmarshal(env.Result, &holders); err != nil {
		return 0, fmt.Errorf("unmarshal holder list: %w", err)
	}

	return len(holders), nil
}

// get performs a GET request with retries and exponential backoff.
func (c *Client) get(ctx context.Context, query url.Values) (*envelope, error) {
	endpoint := c.baseURL + "?" + query.Encode()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		// Free tiers report rate limits inside an HTTP 200 envelope.
		if env.Status != "1" && rateLimited(&env) {
			lastErr = fmt.Errorf("rate limited: %s", strings.TrimSpace(string(env.Result)))
			continue
		}

		return &env, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func rateLimited(env *envelope) bool {
	text := strings.ToLower(env.Message + " " + string(env.Result))
	return strings.Contains(text, "rate limit")
}
