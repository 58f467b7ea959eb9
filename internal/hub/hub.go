// Package hub tracks running game sessions by join code.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/set-game-backend/internal/config"
	"github.com/DoyleJ11/set-game-backend/internal/game"
	"github.com/DoyleJ11/set-game-backend/internal/live"
	"github.com/DoyleJ11/set-game-backend/internal/sink"
)

// Session is one running game plus its observer broadcaster.
type Session struct {
	Game *game.Game
	Live *live.Broadcaster
}

type HubMsg interface{ isHubMsg() }

type CreateGame struct {
	Code  string
	Cfg   config.Game
	Reply chan CreateReply
}

type CreateReply struct {
	Session *Session
	Err     error
}

type GetGame struct {
	Code  string
	Reply chan *Session
}

type RemoveGame struct {
	Code string
}

type ShutdownHub struct{}

func (CreateGame) isHubMsg()  {}
func (GetGame) isHubMsg()     {}
func (RemoveGame) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*Session
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*Session),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateGame:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- CreateReply{Session: s}
					break
				}
				s, err := h.create(msg.Code, msg.Cfg)
				if err != nil {
					msg.Reply <- CreateReply{Err: err}
					break
				}
				h.sessions[msg.Code] = s
				msg.Reply <- CreateReply{Session: s}

			case GetGame:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case RemoveGame:
				if s := h.sessions[msg.Code]; s != nil {
					h.stop(s)
					delete(h.sessions, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(code string, cfg config.Game) (*Session, error) {
	b := live.NewBroadcaster(h.ctx)
	log := h.log.With(zap.String("game", code))
	g, err := game.New(cfg, sink.Multi{sink.NewLogger(log), b}, log)
	if err != nil {
		b.Inbox() <- live.Shutdown{}
		return nil, err
	}
	g.Start(h.ctx)
	h.log.Info("game created", zap.String("code", code), zap.Int("players", cfg.Players))
	return &Session{Game: g, Live: b}, nil
}

func (h *Hub) stop(s *Session) {
	s.Game.Stop()
	<-s.Game.Done()
	s.Live.Inbox() <- live.Shutdown{}
}

func (h *Hub) shutdown() {
	for code, s := range h.sessions {
		h.stop(s)
		delete(h.sessions, code)
	}
	h.cancel()
}
