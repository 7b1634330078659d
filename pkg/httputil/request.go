// Package httputil builds the outbound requests shared by the ping and
// navigation clients.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderCookie    = "Cookie"

	// drainLimit caps how much of an ignored body is read before closing.
	drainLimit = 64 << 10
)

// Origin is the hosting origin every relative path is resolved against.
type Origin struct {
	Base   *url.URL
	Cookie string
}

func ParseOrigin(raw, cookie string) (Origin, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return Origin{}, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Origin{}, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Origin{}, fmt.Errorf("parse base url: missing host")
	}
	return Origin{Base: u, Cookie: cookie}, nil
}

// Resolve joins path onto the origin.
func (o Origin) Resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return o.Base.String() + path
	}
	return o.Base.ResolveReference(ref).String()
}

// WebsocketURL maps http(s) to ws(s) and appends path.
func (o Origin) WebsocketURL(path string) string {
	u := *o.Base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	ref, err := url.Parse(path)
	if err != nil {
		return u.String() + path
	}
	return u.ResolveReference(ref).String()
}

// Header carries the session cookie, if any.
func (o Origin) Header() http.Header {
	h := http.Header{}
	if o.Cookie != "" {
		h.Set(HeaderCookie, o.Cookie)
	}
	return h
}

// NewRequest builds a request to path with a fresh X-Request-ID and the
// session cookie.
func (o Origin) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, o.Resolve(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if o.Cookie != "" {
		req.Header.Set(HeaderCookie, o.Cookie)
	}
	return req, nil
}

// Drain discards up to drainLimit bytes of the body and closes it so the
// connection can be reused.
func Drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}
