// Package scoreapi is a thin client for the external scoring REST API.
// It performs no retries and no caching; every call is one HTTP request.
package scoreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Fields is a partial entity body. PATCH requests carry only these keys.
type Fields map[string]any

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New returns a client rooted at baseURL, e.g. "https://host/api".
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Get issues GET <base><path> and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Patch sends only fields to /<resource>/<id>/ and decodes the updated entity.
func (c *Client) Patch(ctx context.Context, resource string, id int64, fields Fields, out any) error {
	return c.do(ctx, http.MethodPatch, entityPath(resource, id), fields, out)
}

// Post creates an entity under /<resource>/ and decodes the created entity.
func (c *Client) Post(ctx context.Context, resource string, fields Fields, out any) error {
	return c.do(ctx, http.MethodPost, collectionPath(resource), fields, out)
}

func (c *Client) Delete(ctx context.Context, resource string, id int64) error {
	return c.do(ctx, http.MethodDelete, entityPath(resource, id), nil, nil)
}

func collectionPath(resource string) string {
	return "/" + resource + "/"
}

func entityPath(resource string, id int64) string {
	return "/" + resource + "/" + strconv.FormatInt(id, 10) + "/"
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("score api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &HTTPError{Method: method, URL: url, Status: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Method: method, URL: url, Status: resp.StatusCode, Err: err}
	}
	return nil
}
