// Package navigator implements page navigation for the terminal host: the
// target is fetched like a browser would, then the host is told to leave.
package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/shieldnet/session-client/pkg/errs"
	"github.com/shieldnet/session-client/pkg/httputil"
	"github.com/shieldnet/session-client/pkg/logger"
)

type HTTP struct {
	http   *http.Client
	origin httputil.Origin
	log    *slog.Logger

	once sync.Once
	left chan string
}

func New(hc *http.Client, origin httputil.Origin) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP{
		http:   hc,
		origin: origin,
		log:    logger.L().With(slog.String("component", "navigator")),
		left:   make(chan string, 1),
	}
}

// Navigate fetches path and then signals Left. Only the first call does
// anything; the page is considered gone even if the fetch fails.
func (n *HTTP) Navigate(ctx context.Context, path string) error {
	err := errs.ErrNavigated
	n.once.Do(func() {
		err = n.fetch(ctx, path)
		n.left <- path
		close(n.left)
	})
	return err
}

func (n *HTTP) fetch(ctx context.Context, path string) error {
	req, err := n.origin.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", path, err)
	}
	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", path, err)
	}
	defer httputil.Drain(resp)

	n.log.Info("navigated",
		slog.String("path", path),
		slog.String("final_url", resp.Request.URL.String()),
		slog.Int("status", resp.StatusCode))
	return nil
}

// Left yields the navigated path once, then is closed.
func (n *HTTP) Left() <-chan string { return n.left }
