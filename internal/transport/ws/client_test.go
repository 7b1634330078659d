package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldnet/session-client/pkg/errs"
)

// fakeRoom is a single-connection room endpoint.
type fakeRoom struct {
	upgrader websocket.Upgrader
	received chan Envelope
	outbound chan []byte
	kick     chan struct{}
	cookies  chan string
}

func newFakeRoom(t *testing.T) (*fakeRoom, string) {
	t.Helper()
	f := &fakeRoom{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		received: make(chan Envelope, 16),
		outbound: make(chan []byte, 16),
		kick:     make(chan struct{}),
		cookies:  make(chan string, 1),
	}
	r := chi.NewRouter()
	r.Get("/ws", f.handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func (f *fakeRoom) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	f.cookies <- r.Header.Get("Cookie")

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case data := <-f.outbound:
				_ = conn.WriteMessage(websocket.TextMessage, data)
			case <-f.kick:
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"), time.Now().Add(time.Second))
				_ = conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if json.Unmarshal(data, &env) == nil {
			f.received <- env
		}
	}
}

func (f *fakeRoom) next(t *testing.T) Envelope {
	t.Helper()
	select {
	case env := <-f.received:
		return env
	case <-time.After(3 * time.Second):
		t.Fatal("no frame received")
		return Envelope{}
	}
}

func quietLogger() Option { return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) }

func dialRoom(t *testing.T, url string, header http.Header) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, header, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func runClient(t *testing.T, c *Client) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return cancel, done
}

func TestEmit_DeliversEnvelope(t *testing.T) {
	room, url := newFakeRoom(t)
	c := dialRoom(t, url, http.Header{"Cookie": []string{"session=abc"}})
	runClient(t, c)

	require.NoError(t, c.Emit(TypeJoinRoom, JoinPayload{Token: "tok123"}))

	env := room.next(t)
	assert.Equal(t, TypeJoinRoom, env.Type)
	assert.JSONEq(t, `{"token":"tok123"}`, string(env.Payload))
	assert.Equal(t, "session=abc", <-room.cookies)
}

func TestRun_DispatchesInArrivalOrder(t *testing.T) {
	room, url := newFakeRoom(t)
	c := dialRoom(t, url, nil)

	var (
		mu  sync.Mutex
		got []string
	)
	c.On(TypeParticipantsUpdate, func(_ context.Context, payload json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(payload))
	})
	runClient(t, c)

	room.outbound <- []byte(`{"type":"participants_update","payload":{"participants":["alice"]}}`)
	room.outbound <- []byte(`not json`)
	room.outbound <- []byte(`{"type":"something_else","payload":{}}`)
	room.outbound <- []byte(`{"payload":{}}`)
	room.outbound <- []byte(`{"type":"participants_update","payload":{"participants":["carol"]}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 3*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t, `{"participants":["alice"]}`, got[0])
	assert.JSONEq(t, `{"participants":["carol"]}`, got[1])
}

func TestRun_ReturnsWhenServerCloses(t *testing.T) {
	room, url := newFakeRoom(t)
	c := dialRoom(t, url, nil)
	_, done := runClient(t, c)

	close(room.kick)

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}
	assert.ErrorIs(t, c.Emit(TypeLeaveRoom, JoinPayload{Token: "t"}), errs.ErrClosed)
}

func TestRun_CancelClosesConnection(t *testing.T) {
	_, url := newFakeRoom(t)
	c := dialRoom(t, url, nil)
	cancel, done := runClient(t, c)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	<-c.Done()
}

func TestShutdown_FlushesQueue(t *testing.T) {
	room, url := newFakeRoom(t)
	c := dialRoom(t, url, nil)
	runClient(t, c)

	require.NoError(t, c.Emit(TypeJoinRoom, JoinPayload{Token: "tok"}))
	require.NoError(t, c.Emit(TypeLeaveRoom, JoinPayload{Token: "tok"}))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))

	assert.Equal(t, TypeJoinRoom, room.next(t).Type)
	assert.Equal(t, TypeLeaveRoom, room.next(t).Type)
}

func TestShutdown_BeforeRunFlushesQueue(t *testing.T) {
	room, url := newFakeRoom(t)
	c := dialRoom(t, url, nil)

	require.NoError(t, c.Emit(TypeJoinRoom, JoinPayload{Token: "tok"}))
	require.NoError(t, c.Emit(TypeLeaveRoom, JoinPayload{Token: "tok"}))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))

	assert.Equal(t, TypeJoinRoom, room.next(t).Type)
	assert.Equal(t, TypeLeaveRoom, room.next(t).Type)
	assert.ErrorIs(t, c.Run(context.Background()), errs.ErrClosed)
}

func TestEmit_QueueFull(t *testing.T) {
	_, url := newFakeRoom(t)
	c := dialRoom(t, url, nil)

	for i := 0; i < sendQueueSize; i++ {
		require.NoError(t, c.Emit(TypeJoinRoom, JoinPayload{Token: "t"}))
	}
	assert.ErrorIs(t, c.Emit(TypeJoinRoom, JoinPayload{Token: "t"}), errs.ErrSendQueueFull)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Emit(TypeJoinRoom, JoinPayload{Token: "t"}), errs.ErrClosed)
}

func TestDial_Fails(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", nil, quietLogger())
	assert.Error(t, err)
}
