// Package player models one participant: its selection buffer, its
// claim/lockout state machine and, for simulated participants, the
// generator goroutine producing synthetic toggles. Resolutions arrive
// from the dealer over a channel and are applied on the player's own
// goroutine, so a slow freeze never blocks the dealer or other players.
package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/set-game-backend/internal/board"
	"github.com/DoyleJ11/set-game-backend/internal/claims"
	"github.com/DoyleJ11/set-game-backend/internal/sink"
)

type State int

const (
	StateFree State = iota
	StatePendingClaim
	StatePointFreeze
	StatePenaltyFreeze
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StatePendingClaim:
		return "pending_claim"
	case StatePointFreeze:
		return "point_freeze"
	case StatePenaltyFreeze:
		return "penalty_freeze"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Resolution is the dealer's verdict on a claim.
type Resolution int

const (
	ResolutionPoint Resolution = iota
	ResolutionPenalty
	// ResolutionStale means the claim no longer matched the board when it
	// was checked. No score, no freeze; the player returns to free with an
	// empty buffer.
	ResolutionStale
)

type Config struct {
	SetSize          int
	PointFreeze      time.Duration
	PenaltyFreeze    time.Duration
	GenerateInterval time.Duration
}

type Player struct {
	id    int
	human bool
	cfg   Config
	board *board.Board
	queue *claims.Queue
	snk   sink.Sink
	log   *zap.Logger

	mu        sync.Mutex
	state     State
	selection []int
	score     int

	resolve chan Resolution
	cancel  context.CancelFunc
	done    chan struct{}
	genDone chan struct{}
}

func New(id int, human bool, cfg Config, b *board.Board, q *claims.Queue, s sink.Sink, log *zap.Logger) *Player {
	if cfg.GenerateInterval <= 0 {
		cfg.GenerateInterval = time.Millisecond
	}
	return &Player{
		id:      id,
		human:   human,
		cfg:     cfg,
		board:   b,
		queue:   q,
		snk:     s,
		log:     log.With(zap.Int("player", id)),
		state:   StateFree,
		resolve: make(chan Resolution, 1),
		done:    make(chan struct{}),
		genDone: make(chan struct{}),
	}
}

func (p *Player) ID() int     { return p.id }
func (p *Player) Human() bool { return p.human }

func (p *Player) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Selection returns a copy of the current selection buffer.
func (p *Player) Selection() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.selection...)
}

// Start launches the player's goroutine (and the generator goroutine for
// simulated players). Stop interrupts any wait; Done closes once fully
// unwound.
func (p *Player) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	go p.run(ctx)
}

func (p *Player) Stop()                 { p.cancel() }
func (p *Player) Done() <-chan struct{} { return p.done }

func (p *Player) run(ctx context.Context) {
	defer close(p.done)
	p.log.Info("player starting", zap.Bool("human", p.human))
	if !p.human {
		go p.generate(ctx)
	} else {
		close(p.genDone)
	}
	for {
		select {
		case <-ctx.Done():
			<-p.genDone
			p.mu.Lock()
			p.state = StateTerminated
			p.mu.Unlock()
			p.log.Info("player terminated")
			return
		case res := <-p.resolve:
			p.apply(ctx, res)
		}
	}
}

// generate produces synthetic toggles at a fixed interval, only while the
// player is free with spare buffer capacity. It never pushes the buffer
// past capacity.
func (p *Player) generate(ctx context.Context) {
	defer close(p.genDone)
	ticker := time.NewTicker(p.cfg.GenerateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !p.spareCapacity() {
			continue
		}
		p.ToggleSlot(rand.Intn(p.board.Slots()))
	}
}

func (p *Player) spareCapacity() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateFree && len(p.selection) < p.cfg.SetSize
}

// ToggleSlot flips this player's token on a slot. No-op unless the player
// is free, the slot holds a card and no deal/clear is in progress. A slot
// already in the selection is removed; otherwise it is added when the
// buffer has room. Reaching capacity enqueues a claim; the transition and
// the enqueue happen under the selection lock, so the dealer's re-read
// never observes a full buffer without the pending-claim state.
func (p *Player) ToggleSlot(slot int) {
	if slot < 0 || slot >= p.board.Slots() {
		return
	}
	if p.board.Dealing() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateFree {
		return
	}
	if _, ok := p.board.CardAt(slot); !ok {
		return
	}
	for i, s := range p.selection {
		if s == slot {
			p.selection = append(p.selection[:i], p.selection[i+1:]...)
			p.board.RemoveToken(p.id, slot)
			return
		}
	}
	if len(p.selection) >= p.cfg.SetSize {
		return
	}
	p.selection = append(p.selection, slot)
	p.board.PlaceToken(p.id, slot)
	if len(p.selection) == p.cfg.SetSize {
		p.state = StatePendingClaim
		p.queue.Put(claims.Claim{Player: p.id})
	}
}

// ClaimedCards re-reads the live selection under the selection lock and
// returns the selected slots and the cards they currently hold. ok is
// false when the claim is stale: the buffer is no longer full or some
// selected slot lost its card since the claim was enqueued.
func (p *Player) ClaimedCards() (slots, cards []int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePendingClaim || len(p.selection) != p.cfg.SetSize {
		return nil, nil, false
	}
	for _, slot := range p.selection {
		card, occupied := p.board.CardAt(slot)
		if !occupied {
			return nil, nil, false
		}
		cards = append(cards, card)
	}
	return append([]int(nil), p.selection...), cards, true
}

// PurgeSlots drops any selection entries referencing the given slots.
// Called by the dealer when a successful claim removes those cards; the
// tokens themselves are cleared by the board's card removal.
func (p *Player) PurgeSlots(slots []int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.selection[:0]
	for _, s := range p.selection {
		if !contains(slots, s) {
			kept = append(kept, s)
		}
	}
	p.selection = kept
}

// ClearSelection empties the buffer wholesale, used on forced board
// clears at round end.
func (p *Player) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selection = p.selection[:0]
}

// Resolve delivers the dealer's verdict. The buffered channel never
// blocks the dealer: a player has at most one claim in flight.
func (p *Player) Resolve(res Resolution) {
	p.resolve <- res
}

func (p *Player) apply(ctx context.Context, res Resolution) {
	switch res {
	case ResolutionPoint:
		p.mu.Lock()
		p.score++
		score := p.score
		p.clearLocked()
		p.state = StatePointFreeze
		p.mu.Unlock()
		p.snk.OnScoreChanged(p.id, score)
		p.freeze(ctx, p.cfg.PointFreeze)
	case ResolutionPenalty:
		p.mu.Lock()
		p.clearLocked()
		p.state = StatePenaltyFreeze
		p.mu.Unlock()
		p.freeze(ctx, p.cfg.PenaltyFreeze)
	case ResolutionStale:
		p.mu.Lock()
		p.clearLocked()
		p.mu.Unlock()
	}
	p.mu.Lock()
	if p.state != StateTerminated {
		p.state = StateFree
	}
	p.mu.Unlock()
}

// clearLocked drops the selection and any still-held tokens. Token
// removals on already-emptied slots are no-ops.
func (p *Player) clearLocked() {
	for _, slot := range p.selection {
		p.board.RemoveToken(p.id, slot)
	}
	p.selection = p.selection[:0]
}

// freeze runs the lockout countdown, reporting remaining time once per
// second. Interruptible by shutdown.
func (p *Player) freeze(ctx context.Context, d time.Duration) {
	for remaining := d; remaining > 0; {
		p.snk.OnFreezeTick(p.id, remaining.Milliseconds())
		step := time.Second
		if remaining < step {
			step = remaining
		}
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		remaining -= step
	}
	p.snk.OnFreezeTick(p.id, 0)
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
