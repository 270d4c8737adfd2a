// Package rules implements the pure predicates and effect calculations
// of Rachel: matching, stacking, counters, and the special-card effect
// table. Every function here is total and deterministic over its inputs.
package rules

import (
	"errors"

	"github.com/playrachel/engine/internal/cards"
)

// AttackKind distinguishes the two stackable attack penalties.
type AttackKind int

const (
	NoAttack AttackKind = iota
	Twos
	BlackJacks
)

// Attack is a pending penalty: the next non-countering player must draw N.
type Attack struct {
	Kind AttackKind
	N    int
}

// Direction is the turn order.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) Flipped() Direction {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

// Matches reports whether two cards share a suit or a rank.
func Matches(a, b cards.Card) bool {
	return a.Suit == b.Suit || a.Rank == b.Rank
}

// CanPlay reports whether card is legal on top, given any active suit
// nomination. An Ace may always be played on another Ace, even when a
// suit has been nominated.
func CanPlay(card, top cards.Card, nominatedSuit *cards.Suit) bool {
	if nominatedSuit != nil {
		if card.Rank == cards.Ace && top.Rank == cards.Ace {
			return true
		}
		return card.Suit == *nominatedSuit
	}
	return Matches(card, top)
}

// ValidStack reports whether cards is non-empty and every card shares a rank.
func ValidStack(hand []cards.Card) bool {
	if len(hand) == 0 {
		return false
	}
	r := hand[0].Rank
	for _, c := range hand[1:] {
		if c.Rank != r {
			return false
		}
	}
	return true
}

// CanCounterAttack reports whether card counters an attack of the given kind.
func CanCounterAttack(card cards.Card, kind AttackKind) bool {
	switch kind {
	case Twos:
		return card.Rank == cards.Two
	case BlackJacks:
		return card.IsBlackJack() || card.IsRedJack()
	default:
		return false
	}
}

// CanCounterSkip reports whether card counters a pending skip (a 7).
func CanCounterSkip(card cards.Card) bool {
	return card.Rank == cards.Seven
}

// Effects is the set of effects produced by a legal stack of same-rank cards.
type Effects struct {
	Attack         *Attack
	Skip           int
	Reverse        bool
	NominateSuit   bool
}

// CalculateEffects computes the effects of playing a stack of same-rank
// cards. Callers must have already validated ValidStack(stack).
func CalculateEffects(stack []cards.Card) Effects {
	n := len(stack)
	r := stack[0].Rank
	switch r {
	case cards.Two:
		return Effects{Attack: &Attack{Kind: Twos, N: 2 * n}}
	case cards.Seven:
		return Effects{Skip: n}
	case cards.Queen:
		return Effects{Reverse: n%2 == 1}
	case cards.Ace:
		return Effects{NominateSuit: true}
	case cards.Jack:
		allBlack := true
		for _, c := range stack {
			if !c.IsBlackJack() {
				allBlack = false
				break
			}
		}
		if allBlack {
			return Effects{Attack: &Attack{Kind: BlackJacks, N: 5 * n}}
		}
		return Effects{}
	default:
		return Effects{}
	}
}

// ReduceAttack reduces a pending black-jack attack by k red jacks, returning
// nil once the attack is cleared. Only valid for BlackJacks attacks.
func ReduceAttack(a *Attack, redJackCount int) *Attack {
	if a == nil || a.Kind != BlackJacks {
		return a
	}
	n := a.N - 5*redJackCount
	if n <= 0 {
		return nil
	}
	return &Attack{Kind: BlackJacks, N: n}
}

// HasValidPlay implements the mandatory-play rule: true iff hand contains a
// card that would satisfy the current obligation (counter a skip, counter
// an attack, or else match the discard pile top).
func HasValidPlay(hand []cards.Card, top cards.Card, nominatedSuit *cards.Suit, pendingAttack *Attack, pendingSkips int) bool {
	if pendingSkips > 0 {
		for _, c := range hand {
			if CanCounterSkip(c) {
				return true
			}
		}
		return false
	}
	if pendingAttack != nil {
		for _, c := range hand {
			if CanCounterAttack(c, pendingAttack.Kind) {
				return true
			}
		}
		return false
	}
	for _, c := range hand {
		if CanPlay(c, top, nominatedSuit) {
			return true
		}
	}
	return false
}

// NextIndex computes the next cursor position, stepping 1+skipCount slots
// in the given direction, handling negative modulo correctly.
func NextIndex(current, nPlayers int, dir Direction, skipCount int) int {
	step := 1 + skipCount
	if dir == CounterClockwise {
		step = -step
	}
	idx := (current+step)%nPlayers + nPlayers
	return idx % nPlayers
}

var ErrInvalidPlayerCount = errors.New("rules: player count must be between 2 and 8")

// CardsPerPlayer returns the initial deal size for a given player count.
func CardsPerPlayer(nPlayers int) (int, error) {
	switch {
	case nPlayers >= 2 && nPlayers <= 5:
		return 7, nil
	case nPlayers >= 6 && nPlayers <= 7:
		return 6, nil
	case nPlayers == 8:
		return 5, nil
	default:
		return 0, ErrInvalidPlayerCount
	}
}
