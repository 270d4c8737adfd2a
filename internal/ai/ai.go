// Package ai chooses a move for a computer-controlled seat. ChooseAction
// is a pure function of visible state and a difficulty tag: it never
// mutates its inputs and never touches the network or a clock.
package ai

import (
	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/rules"
)

// ActionKind distinguishes a play from a draw.
type ActionKind string

const (
	ActionPlay ActionKind = "play"
	ActionDraw ActionKind = "draw"
)

// Action is the move an AI seat has chosen to make.
type Action struct {
	Kind          ActionKind
	Cards         []cards.Card         // set when Kind == ActionPlay
	NominatedSuit *cards.Suit          // set when the played stack's rank is Ace
	DrawReason    gamestate.DrawReason // set when Kind == ActionDraw
}

// ChooseAction picks a legal move for player given the current state.
// Easy plays the first legal option it finds; medium prefers getting rid
// of special cards; hard prefers the longest legal same-rank stack and
// holds Aces back for their nomination value unless no other play exists.
func ChooseAction(state gamestate.State, player gamestate.Player, difficulty gamestate.Difficulty) Action {
	top := state.DiscardPile[0]

	if state.PendingSkips > 0 {
		if stack := sameRankPlay(player.Hand, cards.Seven); stack != nil {
			return Action{Kind: ActionPlay, Cards: stack}
		}
		return Action{Kind: ActionDraw, DrawReason: gamestate.ReasonCannotPlay}
	}

	if state.PendingAttack != nil {
		if stack := counterAttackPlay(player.Hand, state.PendingAttack.Kind, difficulty); stack != nil {
			return Action{Kind: ActionPlay, Cards: stack}
		}
		return Action{Kind: ActionDraw, DrawReason: gamestate.ReasonAttack}
	}

	candidates := legalStacks(player.Hand, top, state.NominatedSuit, difficulty)
	if len(candidates) == 0 {
		return Action{Kind: ActionDraw, DrawReason: gamestate.ReasonCannotPlay}
	}

	chosen := pickStack(candidates, difficulty)
	action := Action{Kind: ActionPlay, Cards: chosen}
	if chosen[0].Rank == cards.Ace {
		action.NominatedSuit = pickNomination(player.Hand, chosen)
	}
	return action
}

// sameRankPlay returns every card of rank r in hand, or nil if there are none.
func sameRankPlay(hand []cards.Card, r cards.Rank) []cards.Card {
	var out []cards.Card
	for _, c := range hand {
		if c.Rank == r {
			out = append(out, c)
		}
	}
	return out
}

func counterAttackPlay(hand []cards.Card, kind rules.AttackKind, difficulty gamestate.Difficulty) []cards.Card {
	var matching []cards.Card
	for _, c := range hand {
		if rules.CanCounterAttack(c, kind) {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return nil
	}
	if difficulty == gamestate.DifficultyHard {
		return groupSameRank(matching)
	}
	return matching[:1]
}

// legalStacks enumerates, for every rank present in hand, the full set of
// hand cards of that rank that would legally play on top right now.
func legalStacks(hand []cards.Card, top cards.Card, nominatedSuit *cards.Suit, difficulty gamestate.Difficulty) [][]cards.Card {
	byRank := map[cards.Rank][]cards.Card{}
	var order []cards.Rank // ranks in order of first appearance in hand
	for _, c := range hand {
		if _, seen := byRank[c.Rank]; !seen {
			order = append(order, c.Rank)
		}
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}

	var out [][]cards.Card
	for _, r := range order {
		group := byRank[r]
		if rules.CanPlay(group[0], top, nominatedSuit) {
			out = append(out, group)
		}
	}
	return out
}

func groupSameRank(cs []cards.Card) []cards.Card {
	if len(cs) == 0 {
		return cs
	}
	r := cs[0].Rank
	var out []cards.Card
	for _, c := range cs {
		if c.Rank == r {
			out = append(out, c)
		}
	}
	return out
}

func pickStack(candidates [][]cards.Card, difficulty gamestate.Difficulty) []cards.Card {
	switch difficulty {
	case gamestate.DifficultyMedium:
		if s := preferSpecial(candidates); s != nil {
			return s
		}
		return candidates[0]
	case gamestate.DifficultyHard:
		var best []cards.Card
		for _, c := range candidates {
			if c[0].Rank == cards.Ace {
				continue
			}
			if best == nil || len(c) > len(best) {
				best = c
			}
		}
		if best == nil {
			return candidates[0]
		}
		return best
	default: // easy
		return candidates[0]
	}
}

func preferSpecial(candidates [][]cards.Card) []cards.Card {
	for _, c := range candidates {
		switch c[0].Rank {
		case cards.Two, cards.Seven, cards.Queen, cards.Jack:
			return c
		}
	}
	return nil
}

// pickNomination chooses the suit the AI has the most of remaining in
// hand after the Ace stack is removed, breaking ties toward Hearts.
func pickNomination(hand, played []cards.Card) *cards.Suit {
	remaining := make([]cards.Card, 0, len(hand))
	played = append([]cards.Card(nil), played...)
	for _, c := range hand {
		idx := -1
		for i, p := range played {
			if p == c {
				idx = i
				break
			}
		}
		if idx >= 0 {
			played = append(played[:idx], played[idx+1:]...)
			continue
		}
		remaining = append(remaining, c)
	}

	counts := map[cards.Suit]int{}
	for _, c := range remaining {
		counts[c.Suit]++
	}
	best := cards.Hearts
	bestCount := -1
	for _, s := range []cards.Suit{cards.Hearts, cards.Diamonds, cards.Clubs, cards.Spades} {
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return &best
}
