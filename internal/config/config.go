// Package config carries the game configuration surface and its env
// loading. Validation happens once at startup, before any goroutine is
// created; nothing downstream re-checks these values.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrSetSize      = errors.New("set size must be positive")
	ErrGridSize     = errors.New("grid capacity must be at least the set size")
	ErrFeatureSpace = errors.New("feature count and range must be positive")
	ErrDeckSize     = errors.New("deck smaller than set size")
	ErrDuration     = errors.New("durations must not be negative")
	ErrPlayers      = errors.New("at least one player required")
)

type Game struct {
	// Board shape and card space.
	GridCapacity int `env:"GRID_CAPACITY" envDefault:"12"`
	FeatureCount int `env:"FEATURE_COUNT" envDefault:"4"`
	FeatureRange int `env:"FEATURE_RANGE" envDefault:"3"`
	SetSize      int `env:"SET_SIZE" envDefault:"3"`

	// Participants. HumanPlayers of the total are driven by external
	// input; the rest run an internal generator.
	Players      int `env:"PLAYERS" envDefault:"2"`
	HumanPlayers int `env:"HUMAN_PLAYERS" envDefault:"0"`

	// Timing.
	RoundDuration    time.Duration `env:"ROUND_DURATION" envDefault:"60s"`
	WarningThreshold time.Duration `env:"WARNING_THRESHOLD" envDefault:"5s"`
	PointFreeze      time.Duration `env:"POINT_FREEZE" envDefault:"1s"`
	PenaltyFreeze    time.Duration `env:"PENALTY_FREEZE" envDefault:"3s"`
	TableDelay       time.Duration `env:"TABLE_DELAY" envDefault:"0"`
	GenerateInterval time.Duration `env:"GENERATE_INTERVAL" envDefault:"5ms"`
}

type Server struct {
	Addr string `env:"ADDR" envDefault:":8080"`
	Game Game
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DeckSize derives the number of cards from the feature space.
func (g Game) DeckSize() int {
	size := 1
	for i := 0; i < g.FeatureCount; i++ {
		size *= g.FeatureRange
	}
	return size
}

// Validate rejects configurations the game cannot run under. This is the
// only fatal error path in the system.
func (g Game) Validate() error {
	if g.SetSize <= 0 {
		return ErrSetSize
	}
	if g.FeatureCount <= 0 || g.FeatureRange <= 0 {
		return ErrFeatureSpace
	}
	if g.GridCapacity < g.SetSize {
		return ErrGridSize
	}
	if g.DeckSize() < g.SetSize {
		return ErrDeckSize
	}
	if g.Players <= 0 || g.HumanPlayers < 0 || g.HumanPlayers > g.Players {
		return ErrPlayers
	}
	if g.RoundDuration < 0 || g.WarningThreshold < 0 || g.PointFreeze < 0 ||
		g.PenaltyFreeze < 0 || g.TableDelay < 0 || g.GenerateInterval < 0 {
		return ErrDuration
	}
	return nil
}
