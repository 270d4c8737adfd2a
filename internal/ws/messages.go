package ws

import (
	"encoding/json"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/rules"
)

// WSMessage is the envelope every inbound/outbound frame uses, grounded
// on the teacher's WSMessage (ws/handler.go).
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinData struct {
	DisplayName    string `json:"display_name"`
	Kind           string `json:"kind"` // "anonymous" (default), "user", or "ai"
	ExternalUserID string `json:"external_user_id,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
}

type playData struct {
	Cards         []cards.Card `json:"cards"`
	NominatedSuit *cards.Suit  `json:"nominated_suit,omitempty"`
}

type drawData struct {
	Reason string `json:"reason,omitempty"`
}

// playerView is one seat's projection of gamestate.Player: the viewer's
// own hand is included in full, every other seat only exposes its size.
type playerView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Kind       string       `json:"kind"`
	HandSize   int          `json:"hand_size"`
	Hand       []cards.Card `json:"hand,omitempty"`
	Status     string       `json:"status"`
	Connection string       `json:"connection"`
}

// stateView is the personalized wire projection of gamestate.State sent
// to one player.
type stateView struct {
	Type               string        `json:"type"`
	GameID             string        `json:"game_id"`
	Status             string        `json:"status"`
	Players            []playerView  `json:"players"`
	Top                *cards.Card   `json:"top,omitempty"`
	DiscardCount       int           `json:"discard_count"`
	DeckCount          int           `json:"deck_count"`
	CurrentPlayerIndex int           `json:"current_player_index"`
	Direction          int           `json:"direction"`
	PendingAttack      *rules.Attack `json:"pending_attack,omitempty"`
	PendingSkips       int           `json:"pending_skips"`
	NominatedSuit      *cards.Suit   `json:"nominated_suit,omitempty"`
	Winners            []string      `json:"winners,omitempty"`
	TurnCount          int           `json:"turn_count"`
}

func buildStateView(state gamestate.State, viewerID string) stateView {
	players := make([]playerView, len(state.Players))
	for i, p := range state.Players {
		pv := playerView{
			ID:         p.ID,
			Name:       p.Name,
			Kind:       string(p.Kind),
			HandSize:   len(p.Hand),
			Status:     string(p.Status),
			Connection: string(p.Connection),
		}
		if p.ID == viewerID {
			pv.Hand = p.Hand
		}
		players[i] = pv
	}

	var top *cards.Card
	if len(state.DiscardPile) > 0 {
		t := state.DiscardPile[0]
		top = &t
	}

	return stateView{
		Type:               "game_state",
		GameID:             state.ID,
		Status:             string(state.Status),
		Players:            players,
		Top:                top,
		DiscardCount:       len(state.DiscardPile),
		DeckCount:          len(state.Deck),
		CurrentPlayerIndex: state.CurrentPlayerIndex,
		Direction:          int(state.Direction),
		PendingAttack:      state.PendingAttack,
		PendingSkips:       state.PendingSkips,
		NominatedSuit:      state.NominatedSuit,
		Winners:            state.Winners,
		TurnCount:          state.TurnCount,
	}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"type":"error","message":"internal encoding error"}`)
	}
	return data
}
