// Package effects applies the outcome of a calculated rules.Effects value
// onto a game's transient turn state (pending attack, pending skips,
// direction, suit nomination), generalized from the teacher's per-shot
// status update into the same shape for an arbitrary special-card stack.
package effects

import (
	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/rules"
)

// TurnState is the subset of game state that a played stack can mutate.
type TurnState struct {
	PendingAttack *rules.Attack
	PendingSkips  int
	Direction     rules.Direction
	NominatedSuit *cards.Suit
}

// Apply folds e onto state, returning the updated state. Red jacks
// cancel an active black-jack attack before any new attack is considered;
// a red jack played with no pending attack has no effect of its own.
func Apply(state TurnState, stack []cards.Card, e rules.Effects, chosenSuit *cards.Suit) TurnState {
	next := state
	next.NominatedSuit = nil

	redJacks := countRedJacks(stack)
	if redJacks > 0 && state.PendingAttack != nil && state.PendingAttack.Kind == rules.BlackJacks {
		next.PendingAttack = rules.ReduceAttack(state.PendingAttack, redJacks)
	}

	if e.Attack != nil {
		if next.PendingAttack != nil && next.PendingAttack.Kind == e.Attack.Kind {
			next.PendingAttack = &rules.Attack{Kind: e.Attack.Kind, N: next.PendingAttack.N + e.Attack.N}
		} else {
			next.PendingAttack = e.Attack
		}
	}

	if e.Skip > 0 {
		next.PendingSkips = state.PendingSkips + e.Skip
	}

	if e.Reverse {
		next.Direction = state.Direction.Flipped()
	}

	if e.NominateSuit {
		next.NominatedSuit = chosenSuit
	}

	return next
}

func countRedJacks(stack []cards.Card) int {
	n := 0
	for _, c := range stack {
		if c.IsRedJack() {
			n++
		}
	}
	return n
}
