package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/salmonumbrella/braindump/internal/record"
)

const (
	// DefaultBaseURL is the base URL of the hosted document API
	DefaultBaseURL = "https://api.braindump.app"
	// DefaultCollection holds records unless configured otherwise
	DefaultCollection = "records"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
	// MaxRetries for rate limit errors
	MaxRetries = 3
	// InitialBackoff for rate limit retries
	InitialBackoff = 10 * time.Second
)

// initialBackoff is a variable so tests can shorten it.
var initialBackoff = InitialBackoff

// Error types for specific API errors
type (
	// AuthenticationError indicates an authentication failure
	AuthenticationError struct{ Message string }
	// RateLimitError indicates rate limit exceeded
	RateLimitError struct{ Message string }
	// NotFoundError indicates a resource was not found
	NotFoundError struct{ Message string }
	// ValidationError indicates invalid input
	ValidationError struct{ Message string }
)

func (e AuthenticationError) Error() string { return e.Message }
func (e RateLimitError) Error() string      { return e.Message }
func (e NotFoundError) Error() string       { return e.Message }
func (e ValidationError) Error() string     { return e.Message }

// Client talks to the hosted document API
type Client struct {
	baseURL    string
	apiToken   string
	collection string
	httpClient *http.Client
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the client
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for one collection
func NewClient(collection, apiToken string, opts ...ClientOption) *Client {
	if collection == "" {
		collection = DefaultCollection
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiToken:   apiToken,
		collection: collection,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collection returns the collection name
func (c *Client) Collection() string {
	return c.collection
}

func (c *Client) documentsPath() string {
	return "/v1/collections/" + url.PathEscape(c.collection) + "/documents"
}

// callCtx makes a single API call
func (c *Client) callCtx(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, AuthenticationError{Message: "invalid API token"}
	case http.StatusTooManyRequests:
		return nil, RateLimitError{Message: fmt.Sprintf("rate limit exceeded: %s", string(respBody))}
	case http.StatusNotFound:
		return nil, NotFoundError{Message: fmt.Sprintf("not found: %s", string(respBody))}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, ValidationError{Message: fmt.Sprintf("invalid request: %s", string(respBody))}
	case http.StatusInternalServerError:
		return nil, fmt.Errorf("server error: %s", string(respBody))
	default:
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}
}

// callWithRetry retries rate-limited calls with exponential backoff.
// Any other error is returned as is; a 429 means the write was not applied.
func (c *Client) callWithRetry(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	backoff := initialBackoff

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		resp, err := c.callCtx(ctx, method, path, body)
		if err == nil {
			return resp, nil
		}

		if _, ok := err.(RateLimitError); !ok {
			return nil, err
		}

		if attempt < MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, RateLimitError{Message: "rate limit exceeded after retries"}
}

// document is the wire shape of a stored document
type document struct {
	ID        string       `json:"id"`
	Fields    record.Input `json:"fields"`
	CreatedAt time.Time    `json:"created_at"`
}

func (d document) toRecord() record.Record {
	rec := record.Record{ID: d.ID, Input: d.Fields, CreatedAt: d.CreatedAt}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return rec
}

// CreateRecord stores one record and returns its document ID
func (c *Client) CreateRecord(ctx context.Context, in record.Input) (string, error) {
	resp, err := c.callWithRetry(ctx, http.MethodPost, c.documentsPath(), map[string]interface{}{
		"fields": in.ToMap(),
	})
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &created); err != nil {
		return "", fmt.Errorf("failed to parse create result: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create result has no id")
	}
	return created.ID, nil
}

// GetRecord fetches one record by ID
func (c *Client) GetRecord(ctx context.Context, id string) (*record.Record, error) {
	resp, err := c.callWithRetry(ctx, http.MethodGet, c.documentsPath()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(resp, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	rec := doc.toRecord()
	return &rec, nil
}

// ListRecords lists records, optionally under one parent. Limit 0 uses the server default.
func (c *Client) ListRecords(ctx context.Context, parent string, limit int) ([]record.Record, error) {
	q := url.Values{}
	if parent != "" {
		q.Set("parent", parent)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := c.documentsPath()
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := c.callWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Documents []document `json:"documents"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to parse document list: %w", err)
	}
	out := make([]record.Record, 0, len(result.Documents))
	for _, doc := range result.Documents {
		out = append(out, doc.toRecord())
	}
	return out, nil
}

// Ping checks that the token is accepted by listing at most one record
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListRecords(ctx, "", 1)
	return err
}
