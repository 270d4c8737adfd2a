// Package deckops implements draw-pile and discard-pile operations as pure
// functions over slices of cards.Card, rather than a mutex-guarded Deck
// value. Every function returns new slices; callers thread the results
// through game state.
package deckops

import (
	"errors"
	"math/rand"

	"github.com/playrachel/engine/internal/cards"
)

// Draw removes and returns the top count cards of drawPile. If drawPile
// runs out, the discard pile (all but its top card) is reshuffled into a
// fresh draw pile and drawing continues from there. If neither pile can
// supply more cards, Draw returns whatever it managed to draw, which may
// be fewer than count, or even zero — it never fails.
func Draw(drawPile, discardPile []cards.Card, count int, r *rand.Rand) (drawn, newDraw, newDiscard []cards.Card) {
	newDraw = append([]cards.Card(nil), drawPile...)
	newDiscard = append([]cards.Card(nil), discardPile...)
	drawn = make([]cards.Card, 0, count)

	for i := 0; i < count; i++ {
		if len(newDraw) == 0 {
			newDraw, newDiscard = reshuffle(newDiscard, r)
			if len(newDraw) == 0 {
				return drawn, newDraw, newDiscard
			}
		}
		last := len(newDraw) - 1
		drawn = append(drawn, newDraw[last])
		newDraw = newDraw[:last]
	}
	return drawn, newDraw, newDiscard
}

// reshuffle takes every card in discardPile except the top (index 0) one,
// shuffles it, and returns it as the new draw pile alongside a discard
// pile containing only the former top card.
func reshuffle(discardPile []cards.Card, r *rand.Rand) (drawPile, newDiscard []cards.Card) {
	if len(discardPile) <= 1 {
		return nil, discardPile
	}
	top := discardPile[0]
	toShuffle := append([]cards.Card(nil), discardPile[1:]...)
	cards.Shuffle(toShuffle, r)
	return toShuffle, []cards.Card{top}
}

// AddToHand returns hand with extra appended.
func AddToHand(hand, extra []cards.Card) []cards.Card {
	out := make([]cards.Card, 0, len(hand)+len(extra))
	out = append(out, hand...)
	out = append(out, extra...)
	return out
}

// ErrCardNotInHand is returned by RemoveFromHand when a card is not present.
var ErrCardNotInHand = errors.New("deckops: card not in hand")

// RemoveFromHand returns a copy of hand with played removed, one instance
// per matching card. Order of the remaining cards is preserved.
func RemoveFromHand(hand, played []cards.Card) ([]cards.Card, error) {
	remaining := append([]cards.Card(nil), hand...)
	for _, p := range played {
		idx := -1
		for i, c := range remaining {
			if c == p {
				idx = i
				break
			}
		}
		if idx == -1 {
			return hand, ErrCardNotInHand
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return remaining, nil
}

// ValidateCardCount reports whether the total number of cards across every
// hand, the draw pile, and the discard pile equals the expected total for
// deckCount decks (52 * deckCount). This is the card-conservation check.
func ValidateCardCount(hands [][]cards.Card, drawPile, discardPile []cards.Card, deckCount int) bool {
	total := len(drawPile) + len(discardPile)
	for _, h := range hands {
		total += len(h)
	}
	return total == 52*deckCount
}
