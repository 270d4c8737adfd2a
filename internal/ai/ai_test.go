package ai

import (
	"testing"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseActionPlaysFirstLegalCardOnEasy(t *testing.T) {
	player := gamestate.Player{ID: "ai1", Hand: []cards.Card{
		{Suit: cards.Clubs, Rank: cards.Nine},
		{Suit: cards.Hearts, Rank: cards.King},
	}}
	state := gamestate.State{DiscardPile: []cards.Card{{Suit: cards.Hearts, Rank: cards.Five}}}

	action := ChooseAction(state, player, gamestate.DifficultyEasy)
	assert.Equal(t, ActionPlay, action.Kind)
	assert.Equal(t, cards.Hearts, action.Cards[0].Suit)
}

func TestChooseActionDrawsWhenNoLegalPlay(t *testing.T) {
	player := gamestate.Player{ID: "ai1", Hand: []cards.Card{{Suit: cards.Clubs, Rank: cards.Nine}}}
	state := gamestate.State{DiscardPile: []cards.Card{{Suit: cards.Hearts, Rank: cards.Five}}}

	action := ChooseAction(state, player, gamestate.DifficultyEasy)
	assert.Equal(t, ActionDraw, action.Kind)
	assert.Equal(t, gamestate.ReasonCannotPlay, action.DrawReason)
}

func TestChooseActionMustCounterSkipWithSeven(t *testing.T) {
	player := gamestate.Player{ID: "ai1", Hand: []cards.Card{
		{Suit: cards.Clubs, Rank: cards.Seven},
		{Suit: cards.Hearts, Rank: cards.King},
	}}
	state := gamestate.State{
		DiscardPile:  []cards.Card{{Suit: cards.Hearts, Rank: cards.Five}},
		PendingSkips: 1,
	}
	action := ChooseAction(state, player, gamestate.DifficultyEasy)
	assert.Equal(t, ActionPlay, action.Kind)
	assert.Equal(t, cards.Seven, action.Cards[0].Rank)
}

func TestChooseActionMustCounterAttackOrDraw(t *testing.T) {
	player := gamestate.Player{ID: "ai1", Hand: []cards.Card{{Suit: cards.Hearts, Rank: cards.King}}}
	state := gamestate.State{
		DiscardPile:   []cards.Card{{Suit: cards.Hearts, Rank: cards.Five}},
		PendingAttack: &rules.Attack{Kind: rules.Twos, N: 2},
	}
	action := ChooseAction(state, player, gamestate.DifficultyEasy)
	assert.Equal(t, ActionDraw, action.Kind)
	assert.Equal(t, gamestate.ReasonAttack, action.DrawReason)
}

func TestChooseActionAceRequiresNomination(t *testing.T) {
	player := gamestate.Player{ID: "ai1", Hand: []cards.Card{
		{Suit: cards.Hearts, Rank: cards.Ace},
		{Suit: cards.Hearts, Rank: cards.King},
	}}
	state := gamestate.State{DiscardPile: []cards.Card{{Suit: cards.Diamonds, Rank: cards.Ace}}}

	action := ChooseAction(state, player, gamestate.DifficultyHard)
	require.Equal(t, ActionPlay, action.Kind)
	if action.Cards[0].Rank == cards.Ace {
		assert.NotNil(t, action.NominatedSuit)
	}
}
