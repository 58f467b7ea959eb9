package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/set-game-backend/internal/config"
	"github.com/DoyleJ11/set-game-backend/internal/hub"
	"github.com/DoyleJ11/set-game-backend/pkg/types"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// createRequest optionally overrides participant counts on the server's
// base game configuration.
type createRequest struct {
	Players      *int `json:"players,omitempty"`
	HumanPlayers *int `json:"human_players,omitempty"`
}

func CreateGame(h *hub.Hub, base config.Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := base
		if r.Body != nil {
			var req createRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				if req.Players != nil {
					cfg.Players = *req.Players
				}
				if req.HumanPlayers != nil {
					cfg.HumanPlayers = *req.HumanPlayers
				}
			}
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *hub.Session, 1)
			h.Inbox() <- hub.GetGame{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
		}

		reply := make(chan hub.CreateReply, 1)
		h.Inbox() <- hub.CreateGame{Code: code, Cfg: cfg, Reply: reply}
		select {
		case res := <-reply:
			if res.Err != nil {
				http.Error(w, res.Err.Error(), http.StatusBadRequest)
				return
			}
		case <-time.After(5 * time.Second):
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func GetSnapshot(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		reply := make(chan *hub.Session, 1)
		h.Inbox() <- hub.GetGame{Code: code, Reply: reply}
		session := <-reply
		if session == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		snap := session.Game.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.Snapshot{Slots: snap.Slots, Scores: snap.Scores})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
