// Package liveness tells the server the client is still in use.
package liveness

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shieldnet/session-client/pkg/errs"
	"github.com/shieldnet/session-client/pkg/httputil"
)

type Client struct {
	http   *http.Client
	origin httputil.Origin
	path   string
}

func New(hc *http.Client, origin httputil.Origin, path string) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if path == "" {
		path = "/ping"
	}
	return &Client{http: hc, origin: origin, path: path}
}

// Ping sends POST {path} with no body. The response body is discarded.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.origin.NewRequest(ctx, http.MethodPost, c.path, http.NoBody)
	if err != nil {
		return fmt.Errorf("liveness: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("liveness: post %s: %w", c.path, err)
	}
	defer httputil.Drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("liveness: post %s: %w: %d", c.path, errs.ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
