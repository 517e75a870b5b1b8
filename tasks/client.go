package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-nagbot/retry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxErrorBody = 1024

// Client talks to the upstream task API on behalf of a user's bearer token.
// Every request is retried with exponential backoff before an error surfaces.
type Client struct {
	baseURL    string
	tag        string
	httpClient *http.Client
	retry      retry.Policy
	logger     zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithTag sets the category that marks a task for reminders
func WithTag(tag string) ClientOption {
	return func(c *Client) {
		c.tag = tag
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tag:        "nag",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      retry.Policy{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// FetchTagged returns the user's tasks that carry the reminder tag
func (c *Client) FetchTagged(ctx context.Context, token string) ([]Item, error) {
	var page itemPage
	path := "/tasks?tag=" + url.QueryEscape(c.tag)
	if err := c.Get(ctx, token, path, &page); err != nil {
		return nil, fmt.Errorf("[Client FetchTagged] %w", err)
	}

	// The API filter is advisory; only tagged items are returned to callers
	items := make([]Item, 0, len(page.Value))
	for _, item := range page.Value {
		if item.HasTag(c.tag) {
			items = append(items, item)
		}
	}
	return items, nil
}

// Patch writes the reminder bookkeeping back to one task
func (c *Client) Patch(ctx context.Context, token, itemID string, fields Patch) error {
	if itemID == "" {
		return errors.New("[Client Patch] item id is required")
	}
	if err := c.do(ctx, http.MethodPatch, token, "/tasks/"+url.PathEscape(itemID), fields, nil); err != nil {
		return fmt.Errorf("[Client Patch] %w", err)
	}
	return nil
}

// Get decodes the JSON response of an authenticated GET into out
func (c *Client) Get(ctx context.Context, token, path string, out any) error {
	return c.do(ctx, http.MethodGet, token, path, nil, out)
}

// Post sends body as JSON and decodes the response into out when out is non-nil
func (c *Client) Post(ctx context.Context, token, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, token, path, body, out)
}

func (c *Client) do(ctx context.Context, method, token, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	_, err := retry.Do(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		err := c.once(ctx, method, token, c.baseURL+path, payload, out)
		if err != nil {
			c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("Task API request failed")
		}
		return struct{}{}, err
	})
	return err
}

func (c *Client) once(ctx context.Context, method, token, fullURL string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: method, URL: fullURL, StatusCode: resp.StatusCode, Body: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, fullURL, err)
	}
	return nil
}
