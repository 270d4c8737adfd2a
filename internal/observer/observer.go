// Package observer defines the publish-only event channel the engine
// announces state changes through. Transport is out of scope; this
// package only defines the contract; the local and redisbus subpackages
// implement it.
// Grounded on the teacher's Hub.BroadcastToGame buffered-channel-with-
// drop-on-full pattern (ws/handler.go).
package observer

import "github.com/playrachel/engine/internal/gamestate"

// EventKind enumerates every event the core publishes.
type EventKind string

const (
	EventGameStarted   EventKind = "game_started"
	EventPlayerJoined  EventKind = "player_joined"
	EventCardsPlayed   EventKind = "cards_played"
	EventCardsDrawn    EventKind = "cards_drawn"
	EventAIPlayed      EventKind = "ai_played"
	EventPlayerStatus  EventKind = "player_status"
	EventGameOver      EventKind = "game_over"
	EventGameCorrupted EventKind = "game_corrupted"
)

// Event is delivered with the post-mutation snapshot of the game.
// Details carries event-specific payload (e.g. the cards played, the
// draw reason, or the new connection status) so this type stays stable
// across every event kind.
type Event struct {
	Kind     EventKind
	GameID   string
	State    gamestate.State
	PlayerID string // set for player_joined, cards_played, cards_drawn, player_status
	Details  map[string]any
}

// Channel is the publish-only boundary the engine writes events to.
// Topic is "game:<game_id>"; publication per topic is guaranteed in
// order, delivery across topics carries no ordering guarantee.
type Channel interface {
	Publish(event Event)
}
