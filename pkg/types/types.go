// Package types holds the wire messages of the observation surface.
package types

// ClientMessage is what a connected human player sends.
//
// Toggle:
//
//	player: id of a human-controlled player
//	slot:   grid slot to flip the token on
type ClientMessage struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
	Slot   int    `json:"slot"`
}

// Event mirrors one presentation-sink callback.
type Event struct {
	Type      string `json:"type"`
	Player    int    `json:"player"`
	Card      int    `json:"card"`
	Slot      int    `json:"slot"`
	Score     int    `json:"score"`
	Remaining int64  `json:"remaining_ms"`
	Warning   bool   `json:"warning"`
	Winners   []int  `json:"winners,omitempty"`
}

// Snapshot is the join-time view of a running game.
type Snapshot struct {
	Slots  []int `json:"slots"` // card per slot, -1 when empty
	Scores []int `json:"scores"`
}

// ServerMessage is the envelope written to observers.
// Type is "Snapshot", "Event" or "Error".
type ServerMessage struct {
	Type     string    `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Event    *Event    `json:"event,omitempty"`
	Error    string    `json:"error,omitempty"`
}
