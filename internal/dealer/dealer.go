// Package dealer runs the arbitrating goroutine: it owns the undealt
// deck, the round timer and the claim queue, drives the
// deal/wait/resolve/clear round cycle and decides the endgame.
package dealer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/set-game-backend/internal/board"
	"github.com/DoyleJ11/set-game-backend/internal/cards"
	"github.com/DoyleJ11/set-game-backend/internal/claims"
	"github.com/DoyleJ11/set-game-backend/internal/player"
	"github.com/DoyleJ11/set-game-backend/internal/shutdown"
	"github.com/DoyleJ11/set-game-backend/internal/sink"
)

// dealGrace compensates the deal phase's own cost: while the deck can
// still backfill the board, rounds get a little extra time.
const dealGrace = time.Second

// Poll intervals for the wait/resolve loop. The short interval keeps
// claim service and countdown updates prompt inside the warning window.
const (
	pollInterval     = 100 * time.Millisecond
	warnPollInterval = 10 * time.Millisecond
)

type Config struct {
	RoundDuration    time.Duration
	WarningThreshold time.Duration
}

type Dealer struct {
	cfg     Config
	rules   cards.Rules
	board   *board.Board
	players []*player.Player // indexed by player id
	queue   *claims.Queue
	coord   *shutdown.Coordinator
	snk     sink.Sink
	log     *zap.Logger
	rng     *rand.Rand

	deck     []int
	deadline time.Time
	warning  bool
}

func New(cfg Config, rules cards.Rules, b *board.Board, players []*player.Player,
	q *claims.Queue, coord *shutdown.Coordinator, s sink.Sink, log *zap.Logger, rng *rand.Rand) *Dealer {
	deck := make([]int, rules.DeckSize())
	for i := range deck {
		deck[i] = i
	}
	return &Dealer{
		cfg:     cfg,
		rules:   rules,
		board:   b,
		players: players,
		queue:   q,
		coord:   coord,
		snk:     s,
		log:     log,
		rng:     rng,
		deck:    deck,
	}
}

// DeckSize reports how many cards remain undealt.
func (d *Dealer) DeckSize() int { return len(d.deck) }

// Deadline returns the current round deadline.
func (d *Dealer) Deadline() time.Time { return d.deadline }

// Run is the dealer's goroutine body: deal, start the players, loop
// rounds until no legal set remains even in the undealt deck, then
// announce winners and drive the reverse-order shutdown.
func (d *Dealer) Run(ctx context.Context) {
	d.log.Info("dealer starting")
	d.placeCards()
	for _, p := range d.players {
		p.Start(ctx)
		d.coord.Register(fmt.Sprintf("player-%d", p.ID()), p.Stop, p.Done())
	}
	for !d.shouldFinish(ctx) {
		d.placeCards()
		d.timerLoop(ctx)
		d.removeAllCards()
	}
	d.announceWinners()
	d.coord.Shutdown()
	d.log.Info("dealer terminated")
}

// shouldFinish is the authoritative end condition: termination was
// requested, or the undealt deck holds no legal set even in principle.
// The dealt board is irrelevant; cards return to the deck at round end,
// before this check runs.
func (d *Dealer) shouldFinish(ctx context.Context) bool {
	return ctx.Err() != nil || len(d.rules.FindSets(d.deck, 1)) == 0
}

// placeCards fills every empty slot with a random undealt card, then
// reshuffles the whole board for as long as it shows no legal set while
// the deck could still provide one.
func (d *Dealer) placeCards() {
	d.board.SetDealing(true)
	defer d.board.SetDealing(false)
	d.deal()
	for len(d.deck) > 0 && len(d.rules.FindSets(d.board.SnapshotOccupiedCards(), 1)) == 0 {
		d.log.Info("no set on board, reshuffling")
		d.clearBoard()
		d.rng.Shuffle(len(d.deck), func(i, j int) {
			d.deck[i], d.deck[j] = d.deck[j], d.deck[i]
		})
		d.deal()
	}
	d.hints()
}

func (d *Dealer) deal() {
	for len(d.deck) > 0 {
		slot, ok := d.board.EmptySlot()
		if !ok {
			break
		}
		i := d.rng.Intn(len(d.deck))
		card := d.deck[i]
		d.deck = append(d.deck[:i], d.deck[i+1:]...)
		d.board.PlaceCard(card, slot)
	}
}

// hints logs the sets currently available on the board.
func (d *Dealer) hints() {
	if !d.log.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, set := range d.rules.FindSets(d.board.SnapshotOccupiedCards(), 0) {
		d.log.Debug("set available", zap.Ints("cards", set))
	}
}

// armTimer resets the round deadline and clears the warning flag.
func (d *Dealer) armTimer() {
	grace := time.Duration(0)
	if len(d.deck) > 0 {
		grace = dealGrace
	}
	d.deadline = time.Now().Add(d.cfg.RoundDuration + grace)
	d.warning = false
	d.updateCountdown()
}

// timerLoop blocks on the claim queue with a bounded wait until the round
// deadline passes, updating the countdown display, resolving at most one
// claim per wake-up and backfilling the board while the deck lasts.
func (d *Dealer) timerLoop(ctx context.Context) {
	d.armTimer()
	for ctx.Err() == nil && time.Now().Before(d.deadline) {
		c, ok := d.queue.Poll(ctx, d.waitInterval())
		d.updateCountdown()
		if ok {
			d.resolveClaim(c)
		}
		if len(d.deck) > 0 && d.board.CountCards() < d.board.Slots() {
			d.placeCards()
		}
	}
}

func (d *Dealer) waitInterval() time.Duration {
	interval := pollInterval
	if time.Until(d.deadline) < d.cfg.WarningThreshold {
		interval = warnPollInterval
	}
	if remaining := time.Until(d.deadline); remaining < interval {
		interval = remaining
	}
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return interval
}

func (d *Dealer) updateCountdown() {
	remaining := time.Until(d.deadline)
	if remaining < 0 {
		remaining = 0
	}
	if remaining < d.cfg.WarningThreshold {
		d.warning = true
	}
	d.snk.OnCountdownTick(remaining.Milliseconds(), d.warning)
}

// resolveClaim re-validates the oldest claim against the live selection
// and board, then applies the verdict. Stale claims are discarded
// silently: no point, no penalty.
func (d *Dealer) resolveClaim(c claims.Claim) {
	p := d.players[c.Player]
	slots, set, ok := p.ClaimedCards()
	if !ok {
		d.log.Info("stale claim discarded", zap.Int("player", p.ID()))
		p.Resolve(player.ResolutionStale)
		return
	}
	if !d.rules.IsLegalSet(set...) {
		d.log.Info("set rejected", zap.Int("player", p.ID()), zap.Ints("cards", set))
		p.Resolve(player.ResolutionPenalty)
		return
	}
	d.log.Info("set accepted", zap.Int("player", p.ID()), zap.Ints("cards", set))
	for _, other := range d.players {
		other.PurgeSlots(slots)
	}
	for _, slot := range slots {
		d.board.RemoveCard(slot)
	}
	p.Resolve(player.ResolutionPoint)
	// A successful claim refreshes the round clock.
	d.armTimer()
}

// removeAllCards forcibly clears the board back into the deck at round
// end and wipes every player's selection wholesale.
func (d *Dealer) removeAllCards() {
	d.board.SetDealing(true)
	defer d.board.SetDealing(false)
	d.clearBoard()
}

func (d *Dealer) clearBoard() {
	for _, p := range d.players {
		p.ClearSelection()
	}
	for {
		slot, ok := d.board.FullSlot()
		if !ok {
			return
		}
		card, _ := d.board.CardAt(slot)
		d.deck = append(d.deck, card)
		d.board.RemoveCard(slot)
	}
}

// announceWinners reports every player holding the maximum score.
func (d *Dealer) announceWinners() {
	max := 0
	for _, p := range d.players {
		if p.Score() > max {
			max = p.Score()
		}
	}
	var winners []int
	for _, p := range d.players {
		if p.Score() == max {
			winners = append(winners, p.ID())
		}
	}
	d.log.Info("game over", zap.Ints("winners", winners), zap.Int("score", max))
	d.snk.OnWinners(winners)
}
