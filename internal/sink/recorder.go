package sink

import "sync"

// Recorder captures events for tests. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

type Event struct {
	Kind      string
	Player    int
	Card      int
	Slot      int
	Score     int
	Remaining int64
	Warning   bool
	Winners   []int
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of the given kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Last returns the most recent event of the given kind, if any.
func (r *Recorder) Last(kind string) (Event, bool) {
	evs := r.Events()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Kind == kind {
			return evs[i], true
		}
	}
	return Event{}, false
}

func (r *Recorder) OnCardPlaced(card, slot int) {
	r.add(Event{Kind: "card_placed", Card: card, Slot: slot})
}

func (r *Recorder) OnCardRemoved(slot int) {
	r.add(Event{Kind: "card_removed", Slot: slot})
}

func (r *Recorder) OnTokenPlaced(player, slot int) {
	r.add(Event{Kind: "token_placed", Player: player, Slot: slot})
}

func (r *Recorder) OnTokenRemoved(player, slot int) {
	r.add(Event{Kind: "token_removed", Player: player, Slot: slot})
}

func (r *Recorder) OnScoreChanged(player, score int) {
	r.add(Event{Kind: "score_changed", Player: player, Score: score})
}

func (r *Recorder) OnFreezeTick(player int, remainingMillis int64) {
	r.add(Event{Kind: "freeze_tick", Player: player, Remaining: remainingMillis})
}

func (r *Recorder) OnCountdownTick(remainingMillis int64, warning bool) {
	r.add(Event{Kind: "countdown_tick", Remaining: remainingMillis, Warning: warning})
}

func (r *Recorder) OnWinners(players []int) {
	r.add(Event{Kind: "winners", Winners: append([]int(nil), players...)})
}
