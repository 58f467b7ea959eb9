// Package live fans game events out to connected observers. The
// broadcaster is a sink.Sink: board, players and dealer report into it,
// and its loop forwards each event to every subscriber outbox, dropping
// subscribers that can't keep up.
package live

import (
	"context"

	"github.com/DoyleJ11/set-game-backend/pkg/types"
)

type Msg interface{ isLiveMsg() }

type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage // where this client receives events
}

func (Join) isLiveMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLiveMsg() {}

type Shutdown struct{}

func (Shutdown) isLiveMsg() {}

type publish struct{ event types.Event }

func (publish) isLiveMsg() {}

type Broadcaster struct {
	inbox   chan Msg
	clients map[string]chan types.ServerMessage
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroadcaster(parent context.Context) *Broadcaster {
	ctx, cancel := context.WithCancel(parent)
	b := &Broadcaster{
		inbox:   make(chan Msg, 256),
		clients: make(map[string]chan types.ServerMessage),
		ctx:     ctx,
		cancel:  cancel,
	}
	go b.loop()
	return b
}

func (b *Broadcaster) Inbox() chan<- Msg { return b.inbox }

func (b *Broadcaster) loop() {
	for {
		select {
		case <-b.ctx.Done():
			b.shutdown()
			return
		case m := <-b.inbox:
			switch msg := m.(type) {
			case Join:
				b.clients[msg.ClientID] = msg.Outbox
			case Leave:
				if ch, ok := b.clients[msg.ClientID]; ok {
					close(ch)
					delete(b.clients, msg.ClientID)
				}
			case publish:
				ev := msg.event
				b.broadcast(types.ServerMessage{Type: "Event", Event: &ev})
			case Shutdown:
				b.shutdown()
				return
			}
		}
	}
}

func (b *Broadcaster) shutdown() {
	for id, ch := range b.clients {
		close(ch)
		delete(b.clients, id)
	}
	b.cancel()
}

func (b *Broadcaster) broadcast(msg types.ServerMessage) {
	for id, ch := range b.clients {
		select {
		case ch <- msg:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(b.clients, id)
		}
	}
}

// publishEvent never blocks: sink calls run inside game locks, so a full
// inbox drops the event rather than stalling the game.
func (b *Broadcaster) publishEvent(ev types.Event) {
	select {
	case b.inbox <- publish{event: ev}:
	default:
	}
}

// sink.Sink implementation.

func (b *Broadcaster) OnCardPlaced(card, slot int) {
	b.publishEvent(types.Event{Type: "CardPlaced", Card: card, Slot: slot})
}

func (b *Broadcaster) OnCardRemoved(slot int) {
	b.publishEvent(types.Event{Type: "CardRemoved", Slot: slot})
}

func (b *Broadcaster) OnTokenPlaced(player, slot int) {
	b.publishEvent(types.Event{Type: "TokenPlaced", Player: player, Slot: slot})
}

func (b *Broadcaster) OnTokenRemoved(player, slot int) {
	b.publishEvent(types.Event{Type: "TokenRemoved", Player: player, Slot: slot})
}

func (b *Broadcaster) OnScoreChanged(player, score int) {
	b.publishEvent(types.Event{Type: "ScoreChanged", Player: player, Score: score})
}

func (b *Broadcaster) OnFreezeTick(player int, remainingMillis int64) {
	b.publishEvent(types.Event{Type: "FreezeTick", Player: player, Remaining: remainingMillis})
}

func (b *Broadcaster) OnCountdownTick(remainingMillis int64, warning bool) {
	b.publishEvent(types.Event{Type: "CountdownTick", Remaining: remainingMillis, Warning: warning})
}

func (b *Broadcaster) OnWinners(players []int) {
	b.publishEvent(types.Event{Type: "Winners", Winners: append([]int(nil), players...)})
}
