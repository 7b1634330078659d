package navigator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldnet/session-client/pkg/errs"
	"github.com/shieldnet/session-client/pkg/httputil"
)

type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (h *hitCounter) inc(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[path]++
}

func (h *hitCounter) get(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func newSiteServer(t *testing.T) (*httptest.Server, *hitCounter) {
	t.Helper()
	hc := &hitCounter{hits: map[string]int{}}
	r := chi.NewRouter()
	r.Get("/logout", func(w http.ResponseWriter, r *http.Request) {
		hc.inc("/logout")
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		hc.inc("/login")
		_, _ = w.Write([]byte("<html>login</html>"))
	})
	r.Get("/online", func(w http.ResponseWriter, r *http.Request) {
		hc.inc("/online")
		_, _ = w.Write([]byte("<html>online</html>"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hc
}

func TestNavigate_FollowsRedirectAndLeaves(t *testing.T) {
	srv, hits := newSiteServer(t)
	origin, err := httputil.ParseOrigin(srv.URL, "")
	require.NoError(t, err)

	nav := New(srv.Client(), origin)
	require.NoError(t, nav.Navigate(context.Background(), "/logout"))

	assert.Equal(t, 1, hits.get("/logout"))
	assert.Equal(t, 1, hits.get("/login"))

	path, ok := <-nav.Left()
	require.True(t, ok)
	assert.Equal(t, "/logout", path)
	_, ok = <-nav.Left()
	assert.False(t, ok, "Left must be closed after the first navigation")
}

func TestNavigate_OnlyFirstCallCounts(t *testing.T) {
	srv, hits := newSiteServer(t)
	origin, err := httputil.ParseOrigin(srv.URL, "")
	require.NoError(t, err)

	nav := New(srv.Client(), origin)
	require.NoError(t, nav.Navigate(context.Background(), "/online"))
	err = nav.Navigate(context.Background(), "/logout")
	assert.ErrorIs(t, err, errs.ErrNavigated)

	assert.Equal(t, 1, hits.get("/online"))
	assert.Equal(t, 0, hits.get("/logout"))
	assert.Equal(t, "/online", <-nav.Left())
}

func TestNavigate_LeavesEvenIfFetchFails(t *testing.T) {
	srv, _ := newSiteServer(t)
	origin, err := httputil.ParseOrigin(srv.URL, "")
	require.NoError(t, err)
	srv.Close()

	nav := New(nil, origin)
	assert.Error(t, nav.Navigate(context.Background(), "/logout"))
	assert.Equal(t, "/logout", <-nav.Left())
}
