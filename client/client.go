// Package client is a small HTTP SDK for the memory server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tap-top/recall/core"
	"github.com/tap-top/recall/memory"
)

// Client talks to a memory server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddMemoriesRequest mirrors the add-memories endpoint body.
type AddMemoriesRequest struct {
	Messages []core.Message    `json:"messages"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	Infer    *bool             `json:"infer,omitempty"`
}

// AddMemories ingests a conversation and returns the executed operations.
func (c *Client) AddMemories(ctx context.Context, req AddMemoriesRequest) ([]core.OperationResult, error) {
	var resp struct {
		Results []core.OperationResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/memories", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchMemories returns the memories most similar to query.
func (c *Client) SearchMemories(ctx context.Context, query string, limit int, filters map[string]string) ([]memory.SearchResult, error) {
	body := map[string]interface{}{
		"query": query,
	}
	if limit > 0 {
		body["limit"] = limit
	}
	if len(filters) > 0 {
		body["filters"] = filters
	}
	var resp struct {
		Results []memory.SearchResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/memories/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetMemory fetches a single memory record.
func (c *Client) GetMemory(ctx context.Context, id string) (*memory.Record, error) {
	var rec memory.Record
	if err := c.do(ctx, http.MethodGet, "/v1/memories/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListMemories returns a page of memory records.
func (c *Client) ListMemories(ctx context.Context, filters map[string]string, page, size int) (core.PageResult[*memory.Record], error) {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	path := "/v1/memories"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var result core.PageResult[*memory.Record]
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return core.PageResult[*memory.Record]{}, err
	}
	return result, nil
}

// DeleteMemory removes a memory.
func (c *Client) DeleteMemory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/memories/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
