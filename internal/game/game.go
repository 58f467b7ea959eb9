// Package game assembles one playable session: board, players, claim
// queue and dealer, wired to a presentation sink.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/set-game-backend/internal/board"
	"github.com/DoyleJ11/set-game-backend/internal/cards"
	"github.com/DoyleJ11/set-game-backend/internal/claims"
	"github.com/DoyleJ11/set-game-backend/internal/config"
	"github.com/DoyleJ11/set-game-backend/internal/dealer"
	"github.com/DoyleJ11/set-game-backend/internal/player"
	"github.com/DoyleJ11/set-game-backend/internal/shutdown"
	"github.com/DoyleJ11/set-game-backend/internal/sink"
)

var ErrUnknownPlayer = errors.New("unknown player")

type Game struct {
	cfg     config.Game
	rules   cards.Rules
	board   *board.Board
	players []*player.Player
	dealer  *dealer.Dealer
	cancel  context.CancelFunc
	done    chan struct{}
}

// New validates the configuration and builds a session. The first
// HumanPlayers ids take external input; the rest run generators.
func New(cfg config.Game, s sink.Sink, log *zap.Logger) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game config: %w", err)
	}
	rules, err := cards.NewRules(cfg.FeatureCount, cfg.FeatureRange, cfg.SetSize)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := board.New(cfg.GridCapacity, rules.DeckSize(), cfg.TableDelay, rng, s)
	q := claims.NewQueue(cfg.Players)
	pcfg := player.Config{
		SetSize:          cfg.SetSize,
		PointFreeze:      cfg.PointFreeze,
		PenaltyFreeze:    cfg.PenaltyFreeze,
		GenerateInterval: cfg.GenerateInterval,
	}
	players := make([]*player.Player, cfg.Players)
	for id := range players {
		players[id] = player.New(id, id < cfg.HumanPlayers, pcfg, b, q, s, log)
	}
	dcfg := dealer.Config{
		RoundDuration:    cfg.RoundDuration,
		WarningThreshold: cfg.WarningThreshold,
	}
	d := dealer.New(dcfg, rules, b, players, q, shutdown.NewCoordinator(), s, log, rng)
	return &Game{
		cfg:     cfg,
		rules:   rules,
		board:   b,
		players: players,
		dealer:  d,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the dealer goroutine; the dealer starts the players.
func (g *Game) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	go func() {
		defer close(g.done)
		g.dealer.Run(ctx)
	}()
}

// Stop requests cooperative termination.
func (g *Game) Stop() { g.cancel() }

// Done closes once the dealer has unwound, players included.
func (g *Game) Done() <-chan struct{} { return g.done }

// Toggle is the human input boundary: flip a player's token on a slot.
func (g *Game) Toggle(playerID, slot int) error {
	if playerID < 0 || playerID >= len(g.players) {
		return ErrUnknownPlayer
	}
	if !g.players[playerID].Human() {
		return ErrUnknownPlayer
	}
	g.players[playerID].ToggleSlot(slot)
	return nil
}

// Snapshot is a point-in-time view for observers joining mid-game.
type Snapshot struct {
	Slots  []int `json:"slots"` // card per slot, -1 when empty
	Scores []int `json:"scores"`
}

func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{Slots: g.board.SnapshotSlots()}
	for _, p := range g.players {
		snap.Scores = append(snap.Scores, p.Score())
	}
	return snap
}

// Players returns the participant count.
func (g *Game) Players() int { return len(g.players) }
