// Package introspection fetches introspection documents from remote GraphQL backends and keeps a throttled,
// atomically published schema model per backend.
package introspection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stellar/graphql-stitcher/internal/utils"
)

const defaultTimeout = 30 * time.Second

// Fetcher returns the raw body of an introspection response.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type GraphQLRequest struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName,omitempty"`
}

// Client posts the introspection query to a single GraphQL endpoint.
type Client struct {
	HTTPClient *http.Client
	URL        string
	Headers    map[string]string
}

var _ Fetcher = (*Client)(nil)

func NewClient(url string, timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		URL:        url,
		Headers:    headers,
	}
}

func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := c.request(ctx, GraphQLRequest{
		Query:         IntrospectionQuery,
		OperationName: "IntrospectionQuery",
	})
	if err != nil {
		return nil, fmt.Errorf("calling introspection request: %w", err)
	}
	defer utils.DeferredClose(ctx, resp.Body, "closing introspection response body")

	if isHTTPError(resp) {
		return nil, httpError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading introspection response body: %w", err)
	}

	return body, nil
}

func (c *Client) request(ctx context.Context, bodyObj any) (*http.Response, error) {
	reqBody, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshalling request body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, value := range c.Headers {
		request.Header.Set(key, value)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	return resp, nil
}

func isHTTPError(resp *http.Response) bool {
	return resp.StatusCode >= 400
}

func httpError(resp *http.Response) error {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body to log error when statusCode=%d: %w", resp.StatusCode, err)
	}
	return fmt.Errorf("unexpected statusCode=%d, body=%v", resp.StatusCode, string(respBody))
}
