package dealer

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/set-game-backend/internal/board"
	"github.com/DoyleJ11/set-game-backend/internal/cards"
	"github.com/DoyleJ11/set-game-backend/internal/claims"
	"github.com/DoyleJ11/set-game-backend/internal/player"
	"github.com/DoyleJ11/set-game-backend/internal/shutdown"
	"github.com/DoyleJ11/set-game-backend/internal/sink"
)

type rig struct {
	rules   cards.Rules
	board   *board.Board
	queue   *claims.Queue
	players []*player.Player
	dealer  *Dealer
	rec     *sink.Recorder
}

func newRig(t *testing.T, rules cards.Rules, slots, nPlayers int) *rig {
	t.Helper()
	rec := sink.NewRecorder()
	rng := rand.New(rand.NewSource(1))
	b := board.New(slots, rules.DeckSize(), 0, rng, rec)
	q := claims.NewQueue(nPlayers)
	pcfg := player.Config{
		SetSize:       rules.SetSize,
		PointFreeze:   5 * time.Millisecond,
		PenaltyFreeze: 5 * time.Millisecond,
	}
	var players []*player.Player
	for id := 0; id < nPlayers; id++ {
		players = append(players, player.New(id, true, pcfg, b, q, rec, zap.NewNop()))
	}
	cfg := Config{RoundDuration: 300 * time.Millisecond, WarningThreshold: 50 * time.Millisecond}
	d := New(cfg, rules, b, players, q, shutdown.NewCoordinator(), rec, zap.NewNop(), rng)
	return &rig{rules: rules, board: b, queue: q, players: players, dealer: d, rec: rec}
}

func waitFor(t *testing.T, within time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func (r *rig) startPlayers(t *testing.T) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	for _, p := range r.players {
		p.Start(ctx)
	}
	return func() {
		cancel()
		for _, p := range r.players {
			<-p.Done()
		}
	}
}

func mustRules(t *testing.T, count, rng, size int) cards.Rules {
	t.Helper()
	r, err := cards.NewRules(count, rng, size)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	return r
}

// place sets up a board position directly: cardsBySlot[i] goes to slot i.
func (r *rig) place(cardsBySlot ...int) {
	for slot, card := range cardsBySlot {
		r.board.PlaceCard(card, slot)
	}
}

func TestResolveClaim_LegalSetScoresAndClearsBoard(t *testing.T) {
	r := newRig(t, mustRules(t, 4, 3, 3), 3, 2)
	stop := r.startPlayers(t)
	defer stop()

	// 0,1,2 differ only in the last feature: a legal set.
	r.place(0, 1, 2)
	a, b := r.players[0], r.players[1]

	// Another player holds a token on one of the slots.
	b.ToggleSlot(1)

	a.ToggleSlot(0)
	a.ToggleSlot(1)
	a.ToggleSlot(2)
	c, ok := r.queue.TryPoll()
	if !ok || c.Player != a.ID() {
		t.Fatalf("claim = %+v ok=%v", c, ok)
	}

	before := time.Now().Add(50 * time.Millisecond)
	r.dealer.deadline = before
	r.dealer.resolveClaim(c)

	waitFor(t, time.Second, func() bool { return a.Score() == 1 }, "point")
	waitFor(t, time.Second, func() bool { return a.State() == player.StateFree }, "claimant free again")
	if r.board.CountCards() != 0 {
		t.Fatalf("cards left on board: %d", r.board.CountCards())
	}
	if got := b.Selection(); len(got) != 0 {
		t.Fatalf("other player's buffer should be purged, got %v", got)
	}
	if !r.dealer.Deadline().After(before) {
		t.Fatal("successful claim must push the round deadline forward")
	}
}

func TestResolveClaim_IllegalSetPenalizes(t *testing.T) {
	r := newRig(t, mustRules(t, 4, 3, 3), 3, 1)
	stop := r.startPlayers(t)
	defer stop()

	// 0,1,5 do not form a set (third feature is 0,0,1).
	r.place(0, 1, 5)
	p := r.players[0]
	p.ToggleSlot(0)
	p.ToggleSlot(1)
	p.ToggleSlot(2)
	c, _ := r.queue.TryPoll()

	before := r.dealer.deadline
	r.dealer.resolveClaim(c)

	waitFor(t, time.Second, func() bool { return p.State() == player.StateFree }, "penalty served")
	if p.Score() != 0 {
		t.Fatal("penalty must not score")
	}
	if r.board.CountCards() != 3 {
		t.Fatal("board must be unchanged after a rejected set")
	}
	if r.rec.Count("freeze_tick") == 0 {
		t.Fatal("penalty freeze should tick")
	}
	if r.dealer.deadline != before {
		t.Fatal("rejected claim must not reset the round timer")
	}
}

func TestResolveClaim_StaleAfterEarlierClaimTakesCard(t *testing.T) {
	r := newRig(t, mustRules(t, 4, 3, 3), 4, 2)
	stop := r.startPlayers(t)
	defer stop()

	// Slots 0..2 hold the legal set 0,1,2; slot 3 holds card 13.
	r.place(0, 1, 2, 13)
	a, b := r.players[0], r.players[1]

	// B claims first (the legal set), then A claims an overlapping triple.
	b.ToggleSlot(0)
	b.ToggleSlot(1)
	b.ToggleSlot(2)
	a.ToggleSlot(0)
	a.ToggleSlot(1)
	a.ToggleSlot(3)

	first, _ := r.queue.TryPoll()
	second, _ := r.queue.TryPoll()
	if first.Player != b.ID() || second.Player != a.ID() {
		t.Fatalf("claims out of order: %+v %+v", first, second)
	}

	r.dealer.resolveClaim(first)
	waitFor(t, time.Second, func() bool { return b.Score() == 1 }, "B's point")

	r.dealer.resolveClaim(second)
	waitFor(t, time.Second, func() bool { return a.State() == player.StateFree }, "A released")
	if a.Score() != 0 {
		t.Fatal("stale claim must not score")
	}
	for _, ev := range r.rec.Events() {
		if ev.Kind == "freeze_tick" && ev.Player == a.ID() {
			t.Fatal("stale claim must not freeze")
		}
	}
	if got := a.Selection(); len(got) != 0 {
		t.Fatalf("stale claimant's buffer should be empty, got %v", got)
	}
}

func TestResolveClaim_FIFOAcrossPlayers(t *testing.T) {
	r := newRig(t, mustRules(t, 2, 3, 3), 6, 2)
	stop := r.startPlayers(t)
	defer stop()

	// Two disjoint legal sets: 0,1,2 on slots 0..2 and 3,4,5 on slots 3..5.
	r.place(0, 1, 2, 3, 4, 5)
	a, b := r.players[0], r.players[1]

	a.ToggleSlot(0)
	a.ToggleSlot(1)
	a.ToggleSlot(2)
	b.ToggleSlot(3)
	b.ToggleSlot(4)
	b.ToggleSlot(5)

	// Points are applied on each player's own goroutine, so settle the
	// first verdict before resolving the next to observe queue order.
	first, ok := r.queue.TryPoll()
	if !ok {
		t.Fatal("expected two claims")
	}
	r.dealer.resolveClaim(first)
	waitFor(t, time.Second, func() bool { return a.Score() == 1 }, "first point")

	second, ok := r.queue.TryPoll()
	if !ok {
		t.Fatal("expected two claims")
	}
	r.dealer.resolveClaim(second)
	waitFor(t, time.Second, func() bool { return b.Score() == 1 }, "second point")
	var order []int
	for _, ev := range r.rec.Events() {
		if ev.Kind == "score_changed" {
			order = append(order, ev.Player)
		}
	}
	if len(order) != 2 || order[0] != a.ID() || order[1] != b.ID() {
		t.Fatalf("resolution order = %v, want [A B]", order)
	}
}

func TestRemoveAllCards_ReturnsDeckAndWipesSelections(t *testing.T) {
	r := newRig(t, mustRules(t, 4, 3, 3), 12, 1)
	stop := r.startPlayers(t)
	defer stop()

	r.dealer.placeCards()
	if r.board.CountCards() != 12 {
		t.Fatalf("dealt %d cards, want 12", r.board.CountCards())
	}
	if r.dealer.DeckSize() != 81-12 {
		t.Fatalf("deck = %d, want 69", r.dealer.DeckSize())
	}

	p := r.players[0]
	slot, _ := r.board.FullSlot()
	p.ToggleSlot(slot)

	r.dealer.removeAllCards()
	if r.board.CountCards() != 0 {
		t.Fatal("board should be empty after a forced clear")
	}
	if r.dealer.DeckSize() != 81 {
		t.Fatalf("deck = %d, want all 81 back", r.dealer.DeckSize())
	}
	if len(p.Selection()) != 0 {
		t.Fatal("forced clear wipes selections wholesale")
	}
}

func TestRun_EndsWhenDeckHasNoSet(t *testing.T) {
	// Deck of two cards can never contain a set: the game must end at the
	// first check, with every player tied at zero.
	r := newRig(t, mustRules(t, 4, 3, 3), 3, 2)
	r.dealer.deck = []int{0, 1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.dealer.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dealer did not terminate")
	}
	ev, ok := r.rec.Last("winners")
	if !ok {
		t.Fatal("winners never announced")
	}
	if len(ev.Winners) != 2 {
		t.Fatalf("winners = %v, want both players tied", ev.Winners)
	}
	for _, p := range r.players {
		select {
		case <-p.Done():
		default:
			t.Fatalf("player %d still running after shutdown", p.ID())
		}
	}
}

func TestRun_FullGameWithOneSet(t *testing.T) {
	// Five-card deck holding exactly two sets, both using card 0. Grid of
	// three: whenever the board is fully dealt and accepting input, the
	// three cards on it form a set. After one point the two leftovers
	// cannot form another, so the game ends 1:0.
	r := newRig(t, mustRules(t, 4, 3, 3), 3, 1)
	r.dealer.deck = []int{0, 1, 2, 13, 26}
	p := r.players[0]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.dealer.Run(ctx)
	}()

	driveDeadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(driveDeadline) {
		if _, ok := r.rec.Last("winners"); ok {
			break
		}
		if p.Score() == 0 && !r.board.Dealing() && r.board.CountCards() == 3 &&
			p.State() == player.StateFree {
			sel := p.Selection()
			for slot := 0; slot < 3; slot++ {
				if !selected(sel, slot) {
					p.ToggleSlot(slot)
				}
			}
		}
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dealer did not terminate")
	}
	if p.Score() != 1 {
		t.Fatalf("score = %d, want 1", p.Score())
	}
	ev, ok := r.rec.Last("winners")
	if !ok || len(ev.Winners) != 1 || ev.Winners[0] != p.ID() {
		t.Fatalf("winners = %+v ok=%v", ev, ok)
	}
	if r.rec.Count("countdown_tick") == 0 {
		t.Fatal("countdown should have ticked during the round")
	}
}

func selected(sel []int, slot int) bool {
	for _, s := range sel {
		if s == slot {
			return true
		}
	}
	return false
}
