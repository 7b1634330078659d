package liveness

import (
	"context"
	"io"
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

type pingRecorder struct {
	mu      sync.Mutex
	bodies  []string
	cookies []string
	reqIDs  []string
}

func newPingServer(t *testing.T, status int) (*httptest.Server, *pingRecorder) {
	t.Helper()
	rec := &pingRecorder{}
	r := chi.NewRouter()
	r.Post("/ping", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.bodies = append(rec.bodies, string(b))
		rec.cookies = append(rec.cookies, r.Header.Get("Cookie"))
		rec.reqIDs = append(rec.reqIDs, r.Header.Get(httputil.HeaderRequestID))
		rec.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestPing_PostsEmptyBody(t *testing.T) {
	srv, rec := newPingServer(t, http.StatusOK)
	origin, err := httputil.ParseOrigin(srv.URL, "session=abc")
	require.NoError(t, err)

	c := New(srv.Client(), origin, "/ping")
	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Ping(context.Background()))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"", ""}, rec.bodies)
	assert.Equal(t, []string{"session=abc", "session=abc"}, rec.cookies)
	assert.NotEqual(t, rec.reqIDs[0], rec.reqIDs[1])
}

func TestPing_Errors(t *testing.T) {
	t.Run("server error status", func(t *testing.T) {
		srv, _ := newPingServer(t, http.StatusInternalServerError)
		origin, err := httputil.ParseOrigin(srv.URL, "")
		require.NoError(t, err)

		err = New(srv.Client(), origin, "").Ping(context.Background())
		assert.ErrorIs(t, err, errs.ErrUnexpectedStatus)
	})

	t.Run("unknown route", func(t *testing.T) {
		srv, _ := newPingServer(t, http.StatusOK)
		origin, err := httputil.ParseOrigin(srv.URL, "")
		require.NoError(t, err)

		err = New(srv.Client(), origin, "/missing").Ping(context.Background())
		assert.ErrorIs(t, err, errs.ErrUnexpectedStatus)
	})

	t.Run("server gone", func(t *testing.T) {
		srv, _ := newPingServer(t, http.StatusOK)
		origin, err := httputil.ParseOrigin(srv.URL, "")
		require.NoError(t, err)
		srv.Close()

		err = New(nil, origin, "/ping").Ping(context.Background())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrUnexpectedStatus)
	})
}
