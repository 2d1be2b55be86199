// Package client talks to the external deck generation service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"sales-deck-generator/internal/model"
)

// ServerError is a non-2xx answer from the generation service.
type ServerError struct {
	StatusCode int
	Message    string
	// Detail is the text of a body that was not the service's JSON error,
	// such as a proxy or framework HTML error page. Logged, never shown.
	Detail string
}

func (e *ServerError) Error() string { return e.Message }

// NetworkError means no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: unable to reach the deck generation service"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client implements model.GenerationClient. It does not retry, cache, or set
// a timeout of its own; callers bound calls through their context if at all.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SubmitGeneration(ctx context.Context, req model.GenerationRequest) (*model.GenerationResult, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-deck", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Printf("Requesting deck generation for company: %s", req.CompanyName)

	var result model.GenerationResult
	if err := c.do(httpReq, "generation", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CheckLiveness(ctx context.Context) (*model.HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var status model.HealthStatus
	if err := c.do(httpReq, "health check", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DownloadURL composes the artifact location. It does no network access.
func (c *Client) DownloadURL(fileID string) string {
	return c.baseURL + "/download/" + url.PathEscape(fileID)
}

func (c *Client) do(req *http.Request, what string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("%s request failed: %v", what, err)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &ServerError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, what, resp.StatusCode),
		}
		if serr.Message == synthesized(what, resp.StatusCode) {
			serr.Detail = bodyText(body)
		}
		log.Printf("%s failed with status %d: %s %s", what, resp.StatusCode, serr.Message, serr.Detail)
		return serr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode %s response: %v", what, err),
		}
	}
	return nil
}

// errorMessage prefers the service's {"error": "..."} body.
func errorMessage(body []byte, what string, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return payload.Error
	}
	return synthesized(what, status)
}

func synthesized(what string, status int) string {
	return fmt.Sprintf("%s failed with status %d", what, status)
}

var pageText = bluemonday.StrictPolicy()

const maxDetail = 300

// bodyText reduces an error page to its visible text on one line.
func bodyText(body []byte) string {
	text := html.UnescapeString(pageText.Sanitize(string(body)))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxDetail {
		text = string([]rune(text)[:maxDetail]) + "..."
	}
	return text
}
