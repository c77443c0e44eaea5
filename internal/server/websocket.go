package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"cardparty/internal/game"
	"cardparty/internal/room"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
}

type actionPayload struct {
	Action game.Action `json:"action"`
}

type statePayload struct {
	State        any                 `json:"state"`
	ValidActions []game.Action       `json:"validActions"`
	RoomInfo     room.Info           `json:"roomInfo"`
	Results      []game.PlayerResult `json:"results,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	rm, ok := s.manager.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || (join.PlayerID == "" && join.PlayerName == "") {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}

	playerID := join.PlayerID
	send := make(chan []byte, 64)

	// Reconnect an existing player by id, or add a new one by name while
	// the room is still gathering players.
	if playerID == "" || !rm.Connect(playerID, send) {
		if join.PlayerName == "" {
			sendWSError(ctx, conn, "unknown player; join with playerName to enter the room")
			return
		}
		if playerID == "" {
			playerID = newPlayerID()
		}
		if err := rm.AddMember(playerID, join.PlayerName); err != nil {
			sendWSError(ctx, conn, err.Error())
			return
		}
		rm.Connect(playerID, send)
	}

	// Notify all players about the roster change
	s.broadcastState(rm)

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid message"})
			continue
		}
		if s.handleMessage(rm, playerID, send, msg) {
			return
		}
	}

	// Player disconnected without leaving; keep the seat for a reconnect.
	log.Debug().Str("room", code).Str("player", playerID).Msg("player disconnected")
}

// handleMessage dispatches one message. It reports true when the connection
// should close (the player left the room).
func (s *Server) handleMessage(rm *room.Room, playerID string, send chan []byte, msg WSMessage) bool {
	switch msg.Type {
	case "action":
		var ap actionPayload
		if err := json.Unmarshal(msg.Payload, &ap); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid action payload"})
			return false
		}
		rm.Lock()
		if rm.Match == nil {
			rm.Unlock()
			sendWSMsg(send, "error", errorPayload{Message: "game not started"})
			return false
		}
		if err := rm.Match.ApplyAction(playerID, ap.Action); err != nil {
			rm.Unlock()
			statusFor(err) // logs invariant violations
			sendWSMsg(send, "error", errorPayload{Message: errorBody(err)["error"]})
			return false
		}
		if rm.Match.IsOver() {
			rm.Status = room.StatusFinished
		}
		rm.Unlock()
		s.afterMutation(rm)

	case "start":
		if rm.Info().HostID != playerID {
			sendWSMsg(send, "error", errorPayload{Message: "only the host can start"})
			return false
		}
		if err := rm.Start(); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: errorBody(err)["error"]})
			return false
		}
		s.afterMutation(rm)

	case "leave":
		err := rm.Leave(playerID)
		s.afterMutation(rm)
		if err != nil {
			log.Info().Str("room", rm.Code).Str("player", playerID).Err(err).Msg("player left")
		}
		return true

	default:
		sendWSMsg(send, "error", errorPayload{Message: "unknown message type: " + msg.Type})
	}
	return false
}

func (s *Server) broadcastState(rm *room.Room) {
	rm.RLock()
	info := rm.InfoLocked()
	match := rm.Match
	status := rm.Status
	rm.RUnlock()

	for _, seat := range info.Players {
		m := rm.GetMember(seat.ID)
		if m == nil {
			continue
		}
		sp := statePayload{RoomInfo: info}
		if match != nil && status != room.StatusWaiting {
			sp.State = match.State(seat.ID)
			sp.ValidActions = match.ValidActions(seat.ID)
			if match.IsOver() {
				sp.Results = match.Results()
			}
		}
		sendWSMsg(m.Send, "state", sp)
	}
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	select {
	case send <- msg:
	default:
	}
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	p, _ := json.Marshal(errorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: "error", Payload: p})
	conn.Write(ctx, websocket.MessageText, msg)
}
