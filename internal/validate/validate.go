// Package validate runs the ordered legality checks for a play or draw
// move and reports failures as a typed, machine-readable error instead of
// an opaque string, so a driving adapter can map failures to wire codes
// without string-matching.
package validate

import (
	"fmt"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/rules"
)

// Kind enumerates the distinct ways a move can be rejected.
type Kind string

const (
	KindPlayerNotFound       Kind = "player_not_found"
	KindNotYourTurn          Kind = "not_your_turn"
	KindPlayerAlreadyWon     Kind = "player_already_won"
	KindCardsNotInHand       Kind = "cards_not_in_hand"
	KindInvalidStack         Kind = "invalid_stack"
	KindInvalidCounter       Kind = "invalid_counter"
	KindInvalidPlay          Kind = "invalid_play"
	KindMissingNomination    Kind = "missing_suit_nomination"
	KindUnexpectedNomination Kind = "unexpected_suit_nomination"

	// Rule-constraint kinds: the move is well-formed but violates the
	// mandatory-play rule or resubmits a card the hand can't cover.
	KindMustPlay             Kind = "must_play"
	KindMustDraw             Kind = "must_draw"
	KindDuplicateCardsInPlay Kind = "duplicate_cards_in_play"

	// Lifecycle kinds, returned by the engine rather than ValidatePlay/
	// ValidateDraw, but sharing the same (kind, details) taxonomy.
	KindGameNotFound  Kind = "game_not_found"
	KindCannotJoin    Kind = "cannot_join"
	KindInvalidStatus Kind = "invalid_status"
	KindCorrupted     Kind = "corrupted"

	// Integrity kind: the engine's safety wrapper refused to commit a
	// transition whose result failed the card-count check.
	KindOperationFailed Kind = "operation_failed"
)

// Error is a structured validation failure carrying machine-readable
// details alongside the human-readable message.
type Error struct {
	Kind    Kind
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate: %s %v", e.Kind, e.Details)
}

func newErr(k Kind, details map[string]any) *Error {
	if details == nil {
		details = map[string]any{}
	}
	return &Error{Kind: k, Details: details}
}

// PlayerView is the minimal player projection the validator needs: it
// never sees a full gamestate.Player to keep this package import-free of
// the gamestate package.
type PlayerView struct {
	ID     string
	Hand   []cards.Card
	Status string // "playing" | "won"
}

// PlayInput bundles everything ValidatePlay needs to check a move.
type PlayInput struct {
	Players            []PlayerView
	PlayerID           string
	CurrentPlayerIndex int
	Cards              []cards.Card
	Top                cards.Card
	NominatedSuit      *cards.Suit
	PendingAttack      *rules.Attack
	PendingSkips       int
	SuitOnPlay         *cards.Suit // caller-supplied nomination, required iff the stack's rank is Ace
}

// ValidatePlay runs every check in the order spec'd by the engine's move
// validator and returns the first failure, or nil if the play is legal.
func ValidatePlay(in PlayInput) error {
	idx, player := findPlayer(in.Players, in.PlayerID)
	if player == nil {
		return newErr(KindPlayerNotFound, map[string]any{"player_id": in.PlayerID})
	}
	if idx != in.CurrentPlayerIndex {
		return newErr(KindNotYourTurn, map[string]any{
			"current_player_id": in.Players[in.CurrentPlayerIndex].ID,
		})
	}
	if player.Status != "playing" {
		return newErr(KindPlayerAlreadyWon, map[string]any{"player_id": in.PlayerID})
	}
	if len(in.Cards) == 0 || !isSubmultiset(player.Hand, in.Cards) {
		return newErr(KindCardsNotInHand, map[string]any{"cards": in.Cards})
	}
	if !rules.ValidStack(in.Cards) {
		return newErr(KindInvalidStack, map[string]any{"cards": in.Cards})
	}

	head := in.Cards[0]
	switch {
	case in.PendingSkips > 0:
		if !rules.CanCounterSkip(head) {
			return newErr(KindInvalidCounter, map[string]any{"kind": "skips"})
		}
	case in.PendingAttack != nil:
		if !rules.CanCounterAttack(head, in.PendingAttack.Kind) {
			return newErr(KindInvalidCounter, map[string]any{
				"kind":     in.PendingAttack.Kind,
				"attack_n": in.PendingAttack.N,
			})
		}
	default:
		if !rules.CanPlay(head, in.Top, in.NominatedSuit) {
			return newErr(KindInvalidPlay, map[string]any{"top": in.Top})
		}
	}

	if head.Rank == cards.Ace {
		if in.SuitOnPlay == nil {
			return newErr(KindMissingNomination, nil)
		}
	} else if in.SuitOnPlay != nil {
		return newErr(KindUnexpectedNomination, nil)
	}

	return nil
}

// DrawInput bundles everything ValidateDraw needs to check a draw. It
// covers checks (1)-(4) of validate_play: player existence, turn order,
// and win status; the mandatory-play rule is enforced by the caller since
// it additionally depends on whether the draw is attack-forced.
type DrawInput struct {
	Players            []PlayerView
	PlayerID           string
	CurrentPlayerIndex int
}

// ValidateDraw checks that a draw request is legal.
func ValidateDraw(in DrawInput) error {
	idx, player := findPlayer(in.Players, in.PlayerID)
	if player == nil {
		return newErr(KindPlayerNotFound, map[string]any{"player_id": in.PlayerID})
	}
	if idx != in.CurrentPlayerIndex {
		return newErr(KindNotYourTurn, map[string]any{
			"current_player_id": in.Players[in.CurrentPlayerIndex].ID,
		})
	}
	if player.Status != "playing" {
		return newErr(KindPlayerAlreadyWon, map[string]any{"player_id": in.PlayerID})
	}
	return nil
}

func findPlayer(players []PlayerView, id string) (int, *PlayerView) {
	for i := range players {
		if players[i].ID == id {
			return i, &players[i]
		}
	}
	return -1, nil
}

// isSubmultiset reports whether want is a submultiset of have: every card
// in want, including repeats, is matched against a distinct card in have.
func isSubmultiset(have, want []cards.Card) bool {
	remaining := append([]cards.Card(nil), have...)
	for _, w := range want {
		idx := -1
		for i, c := range remaining {
			if c == w {
				idx = i
				break
			}
		}
		if idx == -1 {
			return false
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return true
}
