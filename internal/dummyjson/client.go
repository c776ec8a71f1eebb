package dummyjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const DefaultBaseURL = "https://dummyjson.com"

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the demo commerce API. It never retries; the first failure
// is returned to the caller.
type Client struct {
	client  httpClient
	baseURL url.URL
}

func NewClient(client httpClient, baseURL url.URL) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		client:  client,
		baseURL: baseURL,
	}
}

func (c *Client) endpoint(segments ...string) *url.URL {
	return c.baseURL.JoinPath(segments...)
}

func (c *Client) get(ctx context.Context, op string, u *url.URL, out any) error {
	return c.do(ctx, op, http.MethodGet, u, nil, out)
}

func (c *Client) do(ctx context.Context, op, method string, u *url.URL, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &FetchError{Op: op, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return invalid(op, "decode body: %v", err)
	}
	return nil
}
