package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spyglass-hq/spyglass/pkg/control"
	"spyglass-hq/spyglass/pkg/txstore"
)

// clientTimeout bounds every control API call. Replay admission can take
// up to five seconds on a congested pipeline, so this sits above that.
const clientTimeout = 10 * time.Second

// Client is the HTTP implementation of [Source], speaking to a running
// spyglass control API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the control API at baseURL, e.g.
// "http://127.0.0.1:9000". A trailing slash is tolerated.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// Stats implements Source.
func (c *Client) Stats(ctx context.Context) (control.StatsResponse, error) {
	var stats control.StatsResponse
	err := c.getJSON(ctx, "/api/stats", &stats)
	return stats, err
}

// Transactions implements Source.
func (c *Client) Transactions(ctx context.Context, limit int) ([]txstore.Transaction, error) {
	var body control.TransactionsResponse
	path := fmt.Sprintf("/api/transactions?limit=%d", limit)
	if err := c.getJSON(ctx, path, &body); err != nil {
		return nil, err
	}
	return body.Transactions, nil
}

// Replay implements Source.
func (c *Client) Replay(ctx context.Context, id uint64) (control.ReplayResponse, error) {
	var resp control.ReplayResponse

	url := fmt.Sprintf("%s/api/transactions/%d/replay", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return resp, fmt.Errorf("failed to build replay request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return resp, fmt.Errorf("control API unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusAccepted {
		return resp, apiError(httpResp)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return resp, fmt.Errorf("failed to decode replay response: %w", err)
	}
	return resp, nil
}

// getJSON issues a GET and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("control API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// apiError turns a non-success control API response into an error,
// preferring the {"error": ...} message when the body carries one.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("control API: %s (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("control API returned status %d", resp.StatusCode)
}
