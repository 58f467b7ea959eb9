// Package sink defines the presentation boundary: everything the game
// reports outward (board mirroring, scores, freeze and countdown ticks,
// winners). Calls are fire-and-forget; implementations must not block.
package sink

import "go.uber.org/zap"

type Sink interface {
	OnCardPlaced(card, slot int)
	OnCardRemoved(slot int)
	OnTokenPlaced(player, slot int)
	OnTokenRemoved(player, slot int)
	OnScoreChanged(player, score int)
	OnFreezeTick(player int, remainingMillis int64)
	OnCountdownTick(remainingMillis int64, warning bool)
	OnWinners(players []int)
}

// Nop discards every event.
type Nop struct{}

func (Nop) OnCardPlaced(card, slot int)                         {}
func (Nop) OnCardRemoved(slot int)                              {}
func (Nop) OnTokenPlaced(player, slot int)                      {}
func (Nop) OnTokenRemoved(player, slot int)                     {}
func (Nop) OnScoreChanged(player, score int)                    {}
func (Nop) OnFreezeTick(player int, remainingMillis int64)      {}
func (Nop) OnCountdownTick(remainingMillis int64, warning bool) {}
func (Nop) OnWinners(players []int)                             {}

// Logger mirrors events to a zap logger. Countdown and freeze ticks are
// logged at debug level so a normal run isn't flooded once a second.
type Logger struct {
	Log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger { return &Logger{Log: log} }

func (l *Logger) OnCardPlaced(card, slot int) {
	l.Log.Debug("card placed", zap.Int("card", card), zap.Int("slot", slot))
}

func (l *Logger) OnCardRemoved(slot int) {
	l.Log.Debug("card removed", zap.Int("slot", slot))
}

func (l *Logger) OnTokenPlaced(player, slot int) {
	l.Log.Debug("token placed", zap.Int("player", player), zap.Int("slot", slot))
}

func (l *Logger) OnTokenRemoved(player, slot int) {
	l.Log.Debug("token removed", zap.Int("player", player), zap.Int("slot", slot))
}

func (l *Logger) OnScoreChanged(player, score int) {
	l.Log.Info("score changed", zap.Int("player", player), zap.Int("score", score))
}

func (l *Logger) OnFreezeTick(player int, remainingMillis int64) {
	l.Log.Debug("freeze tick", zap.Int("player", player), zap.Int64("remaining_ms", remainingMillis))
}

func (l *Logger) OnCountdownTick(remainingMillis int64, warning bool) {
	l.Log.Debug("countdown tick", zap.Int64("remaining_ms", remainingMillis), zap.Bool("warning", warning))
}

func (l *Logger) OnWinners(players []int) {
	l.Log.Info("winners", zap.Ints("players", players))
}

// Multi fans events out to several sinks in order.
type Multi []Sink

func (m Multi) OnCardPlaced(card, slot int) {
	for _, s := range m {
		s.OnCardPlaced(card, slot)
	}
}

func (m Multi) OnCardRemoved(slot int) {
	for _, s := range m {
		s.OnCardRemoved(slot)
	}
}

func (m Multi) OnTokenPlaced(player, slot int) {
	for _, s := range m {
		s.OnTokenPlaced(player, slot)
	}
}

func (m Multi) OnTokenRemoved(player, slot int) {
	for _, s := range m {
		s.OnTokenRemoved(player, slot)
	}
}

func (m Multi) OnScoreChanged(player, score int) {
	for _, s := range m {
		s.OnScoreChanged(player, score)
	}
}

func (m Multi) OnFreezeTick(player int, remainingMillis int64) {
	for _, s := range m {
		s.OnFreezeTick(player, remainingMillis)
	}
}

func (m Multi) OnCountdownTick(remainingMillis int64, warning bool) {
	for _, s := range m {
		s.OnCountdownTick(remainingMillis, warning)
	}
}

func (m Multi) OnWinners(players []int) {
	for _, s := range m {
		s.OnWinners(players)
	}
}
