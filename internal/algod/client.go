package algod

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Client is a minimal algod REST client covering what the subscription
// engine needs: node status, wait-for-block and raw msgpack blocks.
type Client struct {
	Config Config
	http   *http.Client
}

type Config struct {
	BaseURL string // e.g. http://localhost:4001
	Token   string
}

func NewClient(cfg Config) *Client {
	return &Client{
		Config: cfg,
		// StatusAfterBlock blocks server-side for up to a round interval, so
		// the timeout leaves generous headroom over block time.
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// NodeStatus is the subset of /v2/status the engine reads.
type NodeStatus struct {
	LastRound uint64 `json:"last-round"`
}

// Status returns the current node status.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	body, err := c.get(ctx, "/v2/status", nil, "application/json")
	if err != nil {
		return nil, err
	}

	var status NodeStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("status: unmarshal response: %w", err)
	}
	return &status, nil
}

// StatusAfterBlock blocks until the node has progressed past the given round
// and returns the node status at that point.
func (c *Client) StatusAfterBlock(ctx context.Context, round uint64) (*NodeStatus, error) {
	body, err := c.get(ctx, fmt.Sprintf("/v2/status/wait-for-block-after/%d", round), nil, "application/json")
	if err != nil {
		return nil, err
	}

	var status NodeStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("wait-for-block: unmarshal response: %w", err)
	}
	return &status, nil
}

// BlockRaw returns the raw msgpack encoding of a block, certificate included.
func (c *Client) BlockRaw(ctx context.Context, round uint64) ([]byte, error) {
	params := url.Values{"format": []string{"msgpack"}}
	body, err := c.get(ctx, fmt.Sprintf("/v2/blocks/%d", round), params, "application/msgpack")
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", round, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, accept string) ([]byte, error) {
	u := c.Config.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("algod: create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if c.Config.Token != "" {
		req.Header.Set("X-Algo-API-Token", c.Config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("algod: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("algod: %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[Algod] %s returned HTTP %d", path, resp.StatusCode)
		return nil, fmt.Errorf("algod: %s: HTTP %d: %s", path, resp.StatusCode, truncate(body))
	}

	return body, nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
