package stream

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/hardsphere/internal/dynamo"
	"github.com/san-kum/hardsphere/internal/trace"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func system() *dynamo.System {
	return dynamo.FromParticles([]dynamo.Particle{
		{Pos: dynamo.Vec3{0.5, 0.5, 0.5}, Vel: dynamo.Vec3{1, 0, 0}, Mass: 1, Radius: 0.1},
	})
}

func TestHubBroadcastsFrames(t *testing.T) {
	h := trace.Header{Model: dynamo.ModelFusion, Count: 1, MaxTime: 2, Walls: dynamo.UnitBox}
	hub := NewHub(h)
	srv := httptest.NewServer(NewMux(hub))
	defer srv.Close()

	conn := dial(t, srv)
	msg := read(t, conn)
	require.Equal(t, "header", msg.Type)
	assert.Equal(t, "fusion", msg.Header.Model)
	assert.Equal(t, 2.0, msg.Header.MaxTime)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	require.NoError(t, hub.WriteFrame(0.25, system()))
	msg = read(t, conn)
	require.Equal(t, "frame", msg.Type)
	assert.Equal(t, 0.25, msg.Frame.Time)
	assert.Equal(t, 1, msg.Frame.Count)
	assert.Equal(t, []float64{0.1}, msg.Frame.Radii)
	assert.Equal(t, dynamo.Vec3{0.5, 0.5, 0.5}, msg.Frame.Position[0])

	hub.Close(errors.New("stalled"))
	msg = read(t, conn)
	assert.Equal(t, "done", msg.Type)
	assert.Equal(t, "stalled", msg.Error)
	assert.Equal(t, 1, hub.Frames())
}

func TestHubLateJoinerGetsLastFrame(t *testing.T) {
	hub := NewHub(trace.Header{Model: dynamo.ModelInelastic, Count: 1, MaxTime: 1, Walls: dynamo.UnitBox})
	srv := httptest.NewServer(NewMux(hub))
	defer srv.Close()

	require.NoError(t, hub.WriteFrame(0.5, system()))
	conn := dial(t, srv)
	assert.Equal(t, "header", read(t, conn).Type)
	msg := read(t, conn)
	require.Equal(t, "frame", msg.Type)
	assert.Equal(t, 0.5, msg.Frame.Time)
	assert.Nil(t, msg.Frame.Radii, "fixed-count traces carry radii in the header")
}

func TestHubPauseControl(t *testing.T) {
	hub := NewHub(trace.Header{Count: 1, MaxTime: 1, Walls: dynamo.UnitBox})
	srv := httptest.NewServer(NewMux(hub))
	defer srv.Close()

	conn := dial(t, srv)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"pause": true, "delay_ms": 1}))
	waitFor(t, hub.Paused)

	written := make(chan struct{})
	go func() {
		hub.WriteFrame(0, system())
		close(written)
	}()
	select {
	case <-written:
		t.Fatal("WriteFrame should block while paused")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, conn.WriteJSON(map[string]bool{"pause": false}))
	select {
	case <-written:
	case <-time.After(5 * time.Second):
		t.Fatal("WriteFrame still blocked after resume")
	}
	assert.Equal(t, "frame", read(t, conn).Type)
}

func TestHubCloseReleasesPausedWriter(t *testing.T) {
	hub := NewHub(trace.Header{Count: 1, MaxTime: 1, Walls: dynamo.UnitBox})
	hub.SetPaused(true)

	written := make(chan error, 1)
	go func() { written <- hub.WriteFrame(0, system()) }()
	hub.Close(nil)

	select {
	case err := <-written:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not release the writer")
	}
}

func TestIndexPage(t *testing.T) {
	srv := httptest.NewServer(NewMux(NewHub(trace.Header{})))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = srv.Client().Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}
