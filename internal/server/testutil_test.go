package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"cardparty/internal/game"
	"cardparty/internal/game/cardsagainst"
	"cardparty/internal/room"
	"cardparty/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts  *httptest.Server
	mgr *room.Manager
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := game.NewRegistry()
	reg.Register(cardsagainst.CardsAgainst{})
	mgr := room.NewManager(reg, store)

	srv := New(reg, mgr)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr}
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

// createRoomViaAPI creates a room with a fixed shuffle seed and returns the
// room code and the creator's player id.
func createRoomViaAPI(t *testing.T, ts *httptest.Server, playerName string) (string, string) {
	t.Helper()
	body := fmt.Sprintf(`{"gameType":"cardsagainst","playerName":%q,"settings":{"seed":1}}`, playerName)
	resp, err := http.Post(ts.URL+"/api/rooms", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result joinRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code, result.PlayerID
}

// joinRoomViaAPI joins an existing room and returns the new player id.
func joinRoomViaAPI(t *testing.T, ts *httptest.Server, code, playerName string) string {
	t.Helper()
	body := fmt.Sprintf(`{"playerName":%q}`, playerName)
	resp, err := http.Post(ts.URL+"/api/rooms/"+code+"/join", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("join room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result joinRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.PlayerID
}

func getRoomInfo(t *testing.T, ts *httptest.Server, code string) room.Info {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/rooms/" + code)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var info room.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode room info: %v", err)
	}
	return info
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/rooms/" + code + "/ws"
}

// wsConnect dials the room's websocket and joins as an existing player. The
// caller closes the connection.
func wsConnect(t *testing.T, ctx context.Context, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	wsSend(ctx, t, conn, joinMsg(playerID))
	return conn
}

func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal ws message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v", err)
	}
	return msg
}

func joinMsg(playerID string) WSMessage {
	payload, _ := json.Marshal(joinPayload{PlayerID: playerID})
	return WSMessage{Type: "join", Payload: payload}
}

func actionMsg(t *testing.T, actionType string, payload any) WSMessage {
	t.Helper()
	p, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal action payload: %v", err)
	}
	ap, err := json.Marshal(actionPayload{Action: game.Action{Type: actionType, Payload: p}})
	if err != nil {
		t.Fatalf("marshal action: %v", err)
	}
	return WSMessage{Type: "action", Payload: ap}
}

// wsGameState is the slice of the per-player game state these tests inspect.
type wsGameState struct {
	Phase       string `json:"phase"`
	RoundNumber int    `json:"roundNumber"`
	JudgeID     string `json:"judgeId"`
	Prompt      *struct {
		ID   string `json:"id"`
		Pick int    `json:"pick"`
	} `json:"prompt"`
	Hand []struct {
		ID string `json:"id"`
	} `json:"hand"`
	Submissions []struct {
		PlayerID string `json:"playerId"`
	} `json:"submissions"`
	WinnerID string `json:"winnerId"`
}

type wsStatePayload struct {
	State        wsGameState         `json:"state"`
	ValidActions []game.Action       `json:"validActions"`
	RoomInfo     room.Info           `json:"roomInfo"`
	Results      []game.PlayerResult `json:"results"`
}

// readState reads one message and expects it to be a state broadcast.
func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) wsStatePayload {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var sp wsStatePayload
	if err := json.Unmarshal(msg.Payload, &sp); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	return sp
}

// readError reads one message and expects it to be an error.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}

// waitForPhase reads state broadcasts until the game reaches the given phase.
func waitForPhase(t *testing.T, ctx context.Context, conn *websocket.Conn, phase string) wsStatePayload {
	t.Helper()
	for {
		sp := readState(t, ctx, conn)
		if sp.State.Phase == phase {
			return sp
		}
	}
}
