// Package claims carries "my selection is full, check it" notifications
// from players to the dealer, strictly first-claimed first-served.
package claims

import (
	"context"
	"time"
)

// Claim identifies the player whose live selection should be checked. It
// deliberately carries no snapshot: the dealer re-reads the selection at
// resolution time.
type Claim struct {
	Player int
}

// Queue is a FIFO hand-off from players to the dealer. Capacity should be
// the player count: each player has at most one claim in flight, so Put
// never blocks.
type Queue struct {
	ch chan Claim
}

func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan Claim, capacity)}
}

// Put enqueues a claim.
func (q *Queue) Put(c Claim) {
	q.ch <- c
}

// Poll waits up to timeout for the oldest claim. ok is false when the
// wait timed out or ctx was canceled.
func (q *Queue) Poll(ctx context.Context, timeout time.Duration) (Claim, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c := <-q.ch:
		return c, true
	case <-timer.C:
		return Claim{}, false
	case <-ctx.Done():
		return Claim{}, false
	}
}

// TryPoll returns the oldest claim without waiting.
func (q *Queue) TryPoll() (Claim, bool) {
	select {
	case c := <-q.ch:
		return c, true
	default:
		return Claim{}, false
	}
}
