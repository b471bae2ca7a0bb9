// Package api is the HTTP client for the GoCar backend. Every endpoint the
// app calls lives here; screens and flows never touch net/http directly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// New creates a backend API client. Pass a nil httpClient to get a default
// one with a request timeout; tests inject their own transport.
func New(baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		log:     log,
	}
}

// statusResponse is the common `{success, message}` envelope every endpoint
// wraps its payload in.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// do sends one JSON request and decodes the response body into out (which may
// be nil). A non-2xx status or a decodable `success:false` envelope becomes
// an error.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s %s: read body: %w", method, path, err))
	}

	var status statusResponse
	if len(data) > 0 {
		// Tolerate endpoints without the envelope; the status code decides then.
		_ = json.Unmarshal(data, &status)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := status.Message
		if msg == "" {
			msg = resp.Status
		}
		return wrap.Error(ctx, fmt.Errorf("%s %s: %s", method, path, msg))
	}

	if len(data) > 0 && !status.Success && status.Message != "" {
		return wrap.Error(ctx, fmt.Errorf("%s %s: %s", method, path, status.Message))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s %s: decode response: %w", method, path, err))
		}
	}

	return nil
}
