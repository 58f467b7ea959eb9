// Package board owns the shared slot/card grid and the per-slot token
// ledger. It is the single source of truth for what card is where and
// which player holds a token where. Every operation takes the board lock
// for its full duration, so the slot/card inverse mapping and the token
// ledger never tear, and the presentation sink sees mutations in the
// order they were applied.
package board

import (
	"math/rand"
	"sync"
	"time"

	"github.com/DoyleJ11/set-game-backend/internal/sink"
)

const noCard = -1

type Board struct {
	mu         sync.Mutex
	slotToCard []int   // card id per slot, noCard if empty
	cardToSlot []int   // slot per card id, noCard if undealt
	tokens     [][]int // player ids per slot, append-ordered
	dealing    bool
	delay      time.Duration
	rng        *rand.Rand
	sink       sink.Sink
}

// New creates a board with the given grid capacity and card-id space.
// delay is the artificial per-placement/removal delay (may be zero).
func New(slots, deckSize int, delay time.Duration, rng *rand.Rand, s sink.Sink) *Board {
	b := &Board{
		slotToCard: make([]int, slots),
		cardToSlot: make([]int, deckSize),
		tokens:     make([][]int, slots),
		delay:      delay,
		rng:        rng,
		sink:       s,
	}
	for i := range b.slotToCard {
		b.slotToCard[i] = noCard
	}
	for i := range b.cardToSlot {
		b.cardToSlot[i] = noCard
	}
	return b
}

// PlaceCard puts a card into a slot and mirrors it to the sink.
func (b *Board) PlaceCard(card, slot int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sleep()
	b.slotToCard[slot] = card
	b.cardToSlot[card] = slot
	b.sink.OnCardPlaced(card, slot)
}

// RemoveCard empties a slot, clearing every token on it. Removing an
// already-empty slot is a no-op.
func (b *Board) RemoveCard(slot int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sleep()
	card := b.slotToCard[slot]
	if card == noCard {
		return
	}
	b.slotToCard[slot] = noCard
	b.cardToSlot[card] = noCard
	b.sink.OnCardRemoved(slot)
	for _, p := range b.tokens[slot] {
		b.sink.OnTokenRemoved(p, slot)
	}
	b.tokens[slot] = b.tokens[slot][:0]
}

// PlaceToken records a player's token on a slot. Placing on an empty slot
// or placing a duplicate is a no-op.
func (b *Board) PlaceToken(player, slot int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.slotToCard[slot] == noCard || b.hasToken(player, slot) {
		return
	}
	b.tokens[slot] = append(b.tokens[slot], player)
	b.sink.OnTokenPlaced(player, slot)
}

// RemoveToken removes a player's token from a slot. Returns false, without
// error, if the slot is empty or the player had no token there; callers
// rely on that to clean up speculative state.
func (b *Board) RemoveToken(player, slot int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.slotToCard[slot] == noCard || !b.hasToken(player, slot) {
		return false
	}
	for i, p := range b.tokens[slot] {
		if p == player {
			b.tokens[slot] = append(b.tokens[slot][:i], b.tokens[slot][i+1:]...)
			break
		}
	}
	b.sink.OnTokenRemoved(player, slot)
	return true
}

// CardAt returns the card in a slot, or ok=false when the slot is empty.
func (b *Board) CardAt(slot int) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.slotToCard[slot] == noCard {
		return 0, false
	}
	return b.slotToCard[slot], true
}

// SlotOf returns the slot holding a card, or ok=false when undealt.
func (b *Board) SlotOf(card int) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cardToSlot[card] == noCard {
		return 0, false
	}
	return b.cardToSlot[card], true
}

// EmptySlot picks uniformly at random among empty slots.
func (b *Board) EmptySlot() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pick(func(slot int) bool { return b.slotToCard[slot] == noCard })
}

// FullSlot picks uniformly at random among occupied slots.
func (b *Board) FullSlot() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pick(func(slot int) bool { return b.slotToCard[slot] != noCard })
}

// CountCards returns how many slots currently hold a card.
func (b *Board) CountCards() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.slotToCard {
		if c != noCard {
			n++
		}
	}
	return n
}

// SnapshotOccupiedCards returns the cards currently on the board.
func (b *Board) SnapshotOccupiedCards() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var cards []int
	for _, c := range b.slotToCard {
		if c != noCard {
			cards = append(cards, c)
		}
	}
	return cards
}

// SnapshotSlots returns card-per-slot, -1 for empty slots.
func (b *Board) SnapshotSlots() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.slotToCard...)
}

// Slots returns the grid capacity.
func (b *Board) Slots() int { return len(b.slotToCard) }

// SetDealing marks a deal or forced clear in progress. Player toggles are
// no-ops while set.
func (b *Board) SetDealing(dealing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dealing = dealing
}

func (b *Board) Dealing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dealing
}

func (b *Board) hasToken(player, slot int) bool {
	for _, p := range b.tokens[slot] {
		if p == player {
			return true
		}
	}
	return false
}

func (b *Board) pick(want func(int) bool) (int, bool) {
	var candidates []int
	for slot := range b.slotToCard {
		if want(slot) {
			candidates = append(candidates, slot)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[b.rng.Intn(len(candidates))], true
}

func (b *Board) sleep() {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
}
