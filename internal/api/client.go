// ABOUTME: HTTP client for the lexdesk backend REST API
// ABOUTME: Handles bearer auth, the data/error/pagination envelope, and error categorization

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer token attached to every request.
// It is called per request so a refreshed token takes effect immediately.
// An empty return means the request is sent unauthenticated.
type TokenSource func() string

// Client issues requests against the lexdesk backend REST API.
// It is the only component in the module that performs request/response I/O.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client // no timeout: streams stay open until cancelled
	token   TokenSource
	logger  *slog.Logger
}

// New creates a Client for the given base URL. Pass nil logger for default.
func New(baseURL string, timeout time.Duration, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		token:   token,
		logger:  logger.With("component", "api"),
	}
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// errorBody is the error half of the response envelope.
type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// envelope is the JSON wrapper every backend response uses.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Error      *errorBody      `json:"error"`
	Pagination *Pagination     `json:"pagination"`
}

// do executes a request and decodes the enveloped response into out.
// out may be nil for operations with no response body of interest.
// Returns pagination metadata when the envelope carries it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (*Pagination, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request transport failure", "method", method, "path", path, "error", err)
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	env, decodeErr := decodeEnvelope(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, categorize(resp.StatusCode, env)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parsing response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("parsing response data: %w", err)
		}
	}
	return env.Pagination, nil
}

// decodeEnvelope reads and parses a response body. A nil envelope is never
// returned; an unparsable body yields an empty envelope plus the error.
func decodeEnvelope(r io.Reader) (*envelope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return &envelope{}, err
	}
	if len(data) == 0 {
		return &envelope{}, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &envelope{}, err
	}
	return &env, nil
}

// categorize maps an HTTP error status and envelope to a typed Error.
func categorize(status int, env *envelope) *Error {
	apiErr := &Error{Status: status}

	if env != nil && env.Error != nil {
		apiErr.Message = env.Error.Message
		apiErr.Fields = env.Error.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		apiErr.Kind = KindAuth
	case status >= 500:
		apiErr.Kind = KindServer
	default:
		apiErr.Kind = KindValidation
	}
	return apiErr
}
