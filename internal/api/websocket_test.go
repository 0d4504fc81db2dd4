package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"cell-arena/internal/game"
	"cell-arena/internal/input"
	"cell-arena/internal/leaderboard"
)

func newWSTestServer(t *testing.T, engine *MockEngine, opts ServerOptions) (*Server, *httptest.Server) {
	t.Helper()
	opts.DisableLogging = true
	if opts.RateLimit == nil {
		opts.RateLimit = &RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}
	}
	s := NewServer(engine, leaderboard.New(10), opts)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		s.Hub().Stop()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestWebSocketJSONStream verifies the initial frame and input forwarding
func TestWebSocketJSONStream(t *testing.T) {
	engine := NewMockEngine()
	engine.setSnapshot(testSnapshot(t))
	s, ts := newWSTestServer(t, engine, ServerOptions{})

	conn, _, err := dial(t, ts, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Errorf("message type = %d, want text", msgType)
	}

	var f struct {
		Event string             `json:"event"`
		Data  game.RoundSnapshot `json:"data"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Event != StateEvent || f.Data.RoundID != "round_test" {
		t.Errorf("unexpected frame event=%s round=%s", f.Event, f.Data.RoundID)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"target","x":10,"y":20}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"w"}`))

	waitFor(t, "two commands", func() bool { return len(engine.received()) == 2 })
	got := engine.received()
	if got[0] != (game.Command{Type: game.CommandSetTarget, X: 10, Y: 20}) || got[1].Type != game.CommandEject {
		t.Errorf("commands = %+v", got)
	}
	if s.Hub().ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", s.Hub().ClientCount())
	}

	conn.Close()
	waitFor(t, "disconnect", func() bool { return s.Hub().ClientCount() == 0 })
}

// TestWebSocketMsgpackStream verifies binary frames and msgpack input
func TestWebSocketMsgpackStream(t *testing.T) {
	engine := NewMockEngine()
	engine.setSnapshot(testSnapshot(t))
	_, ts := newWSTestServer(t, engine, ServerOptions{})

	conn, _, err := dial(t, ts, "?encoding=msgpack")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", msgType)
	}

	var f map[string]interface{}
	if err := msgpack.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	snap, ok := f["data"].(map[string]interface{})
	if f["event"] != StateEvent || !ok || snap["roundId"] != "round_test" {
		t.Errorf("unexpected msgpack frame %v", f["event"])
	}

	msg, err := msgpack.Marshal(map[string]interface{}{"type": "split"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "split command", func() bool {
		got := engine.received()
		return len(got) == 1 && got[0].Type == game.CommandSplit
	})
}

// TestWebSocketPerIPLimit verifies the per-IP connection cap and release
func TestWebSocketPerIPLimit(t *testing.T) {
	s, ts := newWSTestServer(t, NewMockEngine(), ServerOptions{MaxWSPerIP: 1, MaxWSConnections: 10})

	first, _, err := dial(t, ts, "")
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}

	_, resp, err := dial(t, ts, "")
	if err == nil {
		t.Fatal("second connection from the same IP should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("rejection response = %v, want 429", resp)
	}

	first.Close()
	waitFor(t, "slot released", func() bool { return s.Hub().ClientCount() == 0 })

	again, _, err := dial(t, ts, "")
	if err != nil {
		t.Fatalf("dial after release: %v", err)
	}
	again.Close()
}

// TestWebSocketInputRateLimit verifies per-connection input budgets
func TestWebSocketInputRateLimit(t *testing.T) {
	engine := NewMockEngine()
	_, ts := newWSTestServer(t, engine, ServerOptions{
		InputLimit: &input.RateLimitConfig{PerSecond: 0.001, Burst: 3, IdleExpiry: time.Hour},
	})

	conn, _, err := dial(t, ts, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 6; i++ {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"split"}`))
	}
	waitFor(t, "three commands", func() bool { return len(engine.received()) >= 3 })
	time.Sleep(50 * time.Millisecond)
	if n := len(engine.received()); n != 3 {
		t.Errorf("commands forwarded = %d, want 3", n)
	}
}

// TestBroadcastSkipsUnchangedSnapshots drives the broadcast step by hand
func TestBroadcastSkipsUnchangedSnapshots(t *testing.T) {
	engine := NewMockEngine()
	hub := NewWebSocketHub(engine, HubConfig{})
	defer hub.Stop()

	jsonClient := &wsClient{id: "a", encoding: input.EncodingJSON, send: make(chan []byte, 8)}
	packClient := &wsClient{id: "b", encoding: input.EncodingMsgpack, send: make(chan []byte, 8)}
	hub.clients[jsonClient] = struct{}{}
	hub.clients[packClient] = struct{}{}

	hub.broadcastLatest() // no snapshot yet
	snap := testSnapshot(t)
	engine.setSnapshot(snap)
	hub.broadcastLatest()
	hub.broadcastLatest() // same sequence

	if len(jsonClient.send) != 1 || len(packClient.send) != 1 {
		t.Fatalf("queued = %d/%d, want 1/1", len(jsonClient.send), len(packClient.send))
	}
	jsonFrame, packFrame := <-jsonClient.send, <-packClient.send
	if !json.Valid(jsonFrame) || json.Valid(packFrame) {
		t.Error("each client should receive its own encoding")
	}

	next := *snap
	next.Sequence++
	engine.setSnapshot(&next)
	hub.broadcastLatest()
	if len(jsonClient.send) != 1 {
		t.Errorf("new sequence not broadcast")
	}
}

// TestBroadcastDropsForSlowClients verifies a full client buffer never blocks
func TestBroadcastDropsForSlowClients(t *testing.T) {
	engine := NewMockEngine()
	hub := NewWebSocketHub(engine, HubConfig{})
	defer hub.Stop()

	slow := &wsClient{id: "slow", send: make(chan []byte, 1)}
	hub.clients[slow] = struct{}{}

	snap := testSnapshot(t)
	for i := 0; i < 3; i++ {
		next := *snap
		next.Sequence = uint64(i + 1)
		engine.setSnapshot(&next)
		hub.broadcastLatest()
	}

	if len(slow.send) != 1 || hub.DroppedFrames() != 2 {
		t.Errorf("queued=%d dropped=%d, want 1 and 2", len(slow.send), hub.DroppedFrames())
	}
}
