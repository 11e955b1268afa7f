package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client is a typed client of hostgate.v1.Gate.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Configure sets the policy of domain. Nil capacity or periodMs take the server
// defaults.
func (c *Client) Configure(ctx context.Context, domain string, capacity *float64, periodMs *int64) error {
	req := &ConfigureRequest{Domain: domain, Cap: capacity, PeriodMs: periodMs}
	return c.conn.Invoke(ctx, ConfigureMethod, req, new(ConfigureResponse))
}

// Check asks whether rawURL may be fetched now.
func (c *Client) Check(ctx context.Context, rawURL string) (*CheckResponse, error) {
	resp := new(CheckResponse)
	if err := c.conn.Invoke(ctx, CheckMethod, &CheckRequest{URL: rawURL}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Status returns the registry status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	resp := new(StatusResponse)
	if err := c.conn.Invoke(ctx, StatusMethod, &StatusRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
