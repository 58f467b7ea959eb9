package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/DoyleJ11/set-game-backend/internal/hub"
	"github.com/DoyleJ11/set-game-backend/internal/live"
	"github.com/DoyleJ11/set-game-backend/pkg/types"
)

// Handler upgrades observers: it streams game events to the client and
// accepts Toggle messages for human-controlled players.
func Handler(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *hub.Session, 1)
		h.Inbox() <- hub.GetGame{Code: code, Reply: reply}
		session := <-reply
		if session == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// Current board/scores first, then the event stream.
		snap := session.Game.Snapshot()
		wire := types.Snapshot{Slots: snap.Slots, Scores: snap.Scores}
		first, _ := json.Marshal(types.ServerMessage{Type: "Snapshot", Snapshot: &wire})
		if err := conn.Write(r.Context(), websocket.MessageText, first); err != nil {
			return
		}

		out := make(chan types.ServerMessage, 32)
		clientID := randID(6)

		session.Live.Inbox() <- live.Join{ClientID: clientID, Outbox: out}
		defer func() { session.Live.Inbox() <- live.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (live.Leave in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"bad json"}`))
				continue
			}

			if cm.Type != "Toggle" {
				_ = conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"Error","error":"unknown type"}`))
				continue
			}
			if err := session.Game.Toggle(cm.Player, cm.Slot); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"Error","error":"unknown player"}`))
			}
		}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
