package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Canvas/internal/app"
	"github.com/dkeye/Canvas/internal/app/orch"
	"github.com/dkeye/Canvas/internal/config"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Mode:         "test",
		Secret:       "test-secret",
		StaticPath:   t.TempDir(),
		DefaultRoom:  "default",
		ReadLimit:    1 << 20,
		WriteWait:    time.Second,
		PongWait:     time.Minute,
		PingPeriod:   50 * time.Second,
		SendBuffer:   64,
		RateLimit:    100,
		RateWindow:   time.Second,
		CanvasWidth:  400,
		CanvasHeight: 300,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	return newTestServerWith(t, testConfig(t))
}

func newTestServerWith(t *testing.T, cfg *config.Config) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	o := &orch.Orchestrator{
		Registry:    app.NewRegistry(),
		Rooms:       app.NewRoomManager(),
		Policy:      app.SimplePolicy{},
		DefaultRoom: domain.RoomName(cfg.DefaultRoom),
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupRouter(ctx, cfg, o))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, o
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ protocol.EventType, data any) {
	t.Helper()
	b, err := protocol.Encode(typ, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func expect(t *testing.T, conn *websocket.Conn, typ protocol.EventType) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := protocol.Decode(data)
	require.NoError(t, err)
	require.Equal(t, typ, env.Type, string(data))
	return env
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestBoardOverWebsocket(t *testing.T) {
	srv, _ := newTestServer(t)

	a := dial(t, srv)
	send(t, a, protocol.EventJoin, protocol.JoinRequest{UserID: "u1", Color: "#ff0000", RoomID: "r1"})
	expect(t, a, protocol.EventHistorySync)
	expect(t, a, protocol.EventUsersSync)

	b := dial(t, srv)
	send(t, b, protocol.EventJoin, protocol.JoinRequest{UserID: "u2", RoomID: "r1"})
	expect(t, b, protocol.EventHistorySync)
	users := expect(t, b, protocol.EventUsersSync)
	var snapshot []domain.User
	require.NoError(t, json.Unmarshal(users.Data, &snapshot))
	require.Len(t, snapshot, 2)
	assert.Equal(t, domain.UserID("u1"), snapshot[0].ID)

	joined := expect(t, a, protocol.EventUserJoined)
	var u domain.User
	require.NoError(t, json.Unmarshal(joined.Data, &u))
	assert.Equal(t, domain.UserID("u2"), u.ID)

	send(t, a, protocol.EventDrawStroke, protocol.DrawStrokeRequest{
		ID: "a",
		DrawStroke: domain.DrawStroke{
			Points: []domain.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
			Color:  "#000",
			Width:  4,
		},
	})
	opNew := expect(t, b, protocol.EventOpNew)
	var op domain.Operation
	require.NoError(t, json.Unmarshal(opNew.Data, &op))
	assert.Equal(t, "a", op.ID)
	assert.Equal(t, domain.UserID("u1"), op.UserID)
	assert.True(t, op.Active)

	send(t, b, protocol.EventUndo, nil)
	expect(t, a, protocol.EventOpUndo)
	expect(t, b, protocol.EventOpUndo)

	// a late joiner gets the undone op with its flag
	c := dial(t, srv)
	send(t, c, protocol.EventJoin, protocol.JoinRequest{UserID: "u3", RoomID: "r1"})
	hist := expect(t, c, protocol.EventHistorySync)
	var ops []domain.Operation
	require.NoError(t, json.Unmarshal(hist.Data, &ops))
	require.Len(t, ops, 1)
	assert.False(t, ops[0].Active)

	require.NoError(t, b.Close())
	third := expect(t, a, protocol.EventUserJoined)
	assert.Contains(t, string(third.Data), "u3")
	gone := expect(t, a, protocol.EventUserLeft)
	assert.JSONEq(t, `{"userId":"u2"}`, string(gone.Data))
}

func TestBadFrameGetsError(t *testing.T) {
	srv, _ := newTestServer(t)
	a := dial(t, srv)
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))
	env := expect(t, a, protocol.EventError)
	assert.JSONEq(t, `{"error":"bad_json"}`, string(env.Data))
}

func TestRoomsAPI(t *testing.T) {
	srv, o := newTestServer(t)
	room := o.Rooms.GetOrCreate("r1")
	room.Append("", domain.Operation{ID: "a", Payload: domain.DrawStroke{
		Points: []domain.Point{{X: 1, Y: 1}, {X: 20, Y: 20}}, Color: "#00ff00", Width: 2,
	}})

	resp := get(t, srv, "/api/rooms")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rooms []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "r1", rooms[0]["name"])
	assert.EqualValues(t, 1, rooms[0]["op_count"])

	resp = get(t, srv, "/api/rooms/r1/history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ops []domain.Operation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ops))
	require.Len(t, ops, 1)
	assert.Equal(t, domain.OpDrawStroke, ops[0].Type)

	resp = get(t, srv, "/api/rooms/r1/members")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv, "/api/rooms/r1/export.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	head := make([]byte, 4)
	_, err := io.ReadFull(resp.Body, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestUnknownRoomIsNotCreated(t *testing.T) {
	srv, o := newTestServer(t)

	for _, path := range []string{"/api/rooms/ghost", "/api/rooms/ghost/history", "/api/rooms/ghost/export.pdf"} {
		resp := get(t, srv, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	_, ok := o.Rooms.Get("ghost")
	assert.False(t, ok)
	assert.Empty(t, o.Rooms.List())
}

func TestHealthAndStats(t *testing.T) {
	srv, o := newTestServer(t)
	o.Rooms.GetOrCreate("r1")

	resp := get(t, srv, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv, "/api/stats")
	var stats statsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, statsResponse{Rooms: 1, Connections: 0}, stats)
}

func TestClientTokenCookieIsStable(t *testing.T) {
	srv, _ := newTestServer(t)

	first := get(t, srv, "/api/health")
	cookies := first.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionName, cookies[0].Name)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	require.NoError(t, err)
	req.AddCookie(cookies[0])
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Cookies(), "known browsers keep their token")
}

func TestStaticClientServedWhenPresent(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticPath, "index.html"), []byte("<html>board</html>"), 0o644))
	srv, _ := newTestServerWith(t, cfg)

	resp := get(t, srv, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "board")
}

func TestMissingStaticClientLeavesAPIUp(t *testing.T) {
	cfg := testConfig(t)
	cfg.StaticPath = filepath.Join(cfg.StaticPath, "absent")
	srv, _ := newTestServerWith(t, cfg)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/").StatusCode)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/health").StatusCode)
}
