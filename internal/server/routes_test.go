package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"dindin/internal/auth"
	"dindin/internal/cache"
	"dindin/internal/config"
	"dindin/internal/database"
	"dindin/internal/game"
	"dindin/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

type fakeDB struct{}

func (fakeDB) Pool() *pgxpool.Pool       { return nil }
func (fakeDB) Health() map[string]string { return map[string]string{"status": "up"} }
func (fakeDB) Close()                    {}

type fakeCache struct {
	cache.Service
}

func (fakeCache) Health() map[string]string { return map[string]string{"status": "up"} }
func (fakeCache) Close() error              { return nil }

func (fakeCache) LoadRoundSnapshot(ctx context.Context, dest any) error {
	return errors.New("no snapshot")
}

// snapshotCache answers LoadRoundSnapshot with a canned snapshot, the way
// redis would after an engine restart.
type snapshotCache struct {
	fakeCache
	snap game.Snapshot
}

func (c snapshotCache) LoadRoundSnapshot(ctx context.Context, dest any) error {
	*(dest.(*game.Snapshot)) = c.snap
	return nil
}

// nopLedger satisfies the engine's store dependency for routes that reject
// before touching storage.
type nopLedger struct {
	game.Ledger
}

// recordingConn stands in for a websocket connection and captures hub writes.
type recordingConn struct {
	mu       sync.Mutex
	messages [][]byte
}

func (c *recordingConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, data)
	return nil
}

func (c *recordingConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *recordingConn) Close() error                       { return nil }

func (c *recordingConn) received(eventType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, data := range c.messages {
		var msg game.WSMessage
		if json.Unmarshal(data, &msg) == nil && msg.Type == eventType {
			return true
		}
	}
	return false
}

func newTestServer() (*FiberServer, *auth.TokenService) {
	return newTestServerWithCache(fakeCache{})
}

func newTestServerWithCache(cs cache.Service) (*FiberServer, *auth.TokenService) {
	log := zap.NewNop()
	tokens := auth.NewTokenService("test-secret", time.Hour)

	hub := game.NewHub(log)
	engine := game.NewEngine(hub, nopLedger{}, nil, log, game.DefaultConfig())

	var db database.Service = fakeDB{}
	srv := New(config.Config{ServiceName: "dindin-test", UploadDir: "."}, log, db, cs,
		(*store.Store)(nil), hub, engine, tokens)
	srv.RegisterFiberRoutes()
	return srv, tokens
}

func TestHealthRoute(t *testing.T) {
	srv, _ := newTestServer()

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["database"]; !ok {
		t.Error("health payload missing database section")
	}
	if _, ok := body["game"]; !ok {
		t.Error("health payload missing game section")
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer()

	for _, path := range []string{"/api/bets", "/api/user/balance", "/api/transactions", "/api/chat/messages"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		resp, err := srv.App.Test(req)
		if err != nil {
			t.Fatalf("app.Test(%s): %v", path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	srv, _ := newTestServer()

	req, _ := http.NewRequest(http.MethodGet, "/api/user/balance", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	srv, tokens := newTestServer()

	token, err := tokens.Generate("user-1", store.RoleUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, path := range []string{"/api/admin/stats", "/api/admin/users", "/api/admin/chat/conversations"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := srv.App.Test(req)
		if err != nil {
			t.Fatalf("app.Test(%s): %v", path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s with USER token: status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestPlaceBet_RejectionEnvelope(t *testing.T) {
	srv, tokens := newTestServer()

	token, err := tokens.Generate("user-1", store.RoleUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	payload := `{"amount": 10, "type": "SIDEWAYS"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/bets", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg, ok := body["message"].(string); !ok || msg == "" {
		t.Error("rejection envelope missing message")
	}
}

func TestSocketRoute_PlainGet(t *testing.T) {
	srv, _ := newTestServer()

	req, _ := http.NewRequest(http.MethodGet, "/api/socket", nil)
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a non-upgrade request", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "running" {
		t.Errorf("status field = %v, want running", body["status"])
	}
	if _, ok := body["clients"]; !ok {
		t.Error("payload missing clients count")
	}
}

func TestCurrentRound_ServedFromCacheWhenEngineIdle(t *testing.T) {
	snap := game.Snapshot{
		RoundID:    "round-9",
		Phase:      game.PhaseRunning,
		Commitment: "abc",
	}
	srv, tokens := newTestServerWithCache(snapshotCache{snap: snap})

	token, err := tokens.Generate("user-1", store.RoleUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/rounds/current", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 from the cached snapshot", resp.StatusCode)
	}

	var body struct {
		Round game.Snapshot `json:"round"`
		Bet   any           `json:"bet"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Round.RoundID != "round-9" {
		t.Errorf("roundId = %q, want round-9", body.Round.RoundID)
	}
	if body.Bet != nil {
		t.Errorf("bet = %v, want null on the cached path", body.Bet)
	}
}

func TestCurrentRound_NoRoundAnywhere(t *testing.T) {
	srv, tokens := newTestServer()

	token, err := tokens.Generate("user-1", store.RoleUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/rounds/current", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when engine and cache are both empty", resp.StatusCode)
	}
}

func TestChatPushReachesAllOwnerConnections(t *testing.T) {
	srv, _ := newTestServer()
	go srv.hub.Run()

	tabA := &recordingConn{}
	tabB := &recordingConn{}
	other := &recordingConn{}
	srv.hub.RegisterClient(tabA, "user-1")
	srv.hub.RegisterClient(tabB, "user-1")
	srv.hub.RegisterClient(other, "user-2")

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.GetClientCount() != 3 {
		if time.Now().After(deadline) {
			t.Fatal("clients never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.notifyChat("user-1", &store.ChatMessage{
		ID:         "msg-1",
		UserID:     "user-1",
		SenderRole: store.SenderUser,
		Body:       "oi",
	})

	deadline = time.Now().Add(2 * time.Second)
	for !(tabA.received(game.EventChatMessage) && tabB.received(game.EventChatMessage)) {
		if time.Now().After(deadline) {
			t.Fatal("chat message did not reach every owner connection")
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(50 * time.Millisecond)
	if other.received(game.EventChatMessage) {
		t.Error("chat message leaked to another user's connection")
	}
}
