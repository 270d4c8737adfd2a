// Package gamestate holds the immutable GameState value and the pure
// transition functions (New, Start, Play, Draw) that produce the next
// value from the current one. A State is owned exclusively by its
// GameEngine actor; every other reader sees an immutable copy.
package gamestate

import (
	"math/rand"
	"time"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/deckops"
	"github.com/playrachel/engine/internal/effects"
	"github.com/playrachel/engine/internal/rules"
	"github.com/playrachel/engine/internal/turnmanager"
	"github.com/playrachel/engine/internal/validate"
)

// Status is the game's lifecycle phase.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
	StatusCorrupted Status = "corrupted"
)

// PlayerKind distinguishes a human-held seat from an AI seat.
type PlayerKind string

const (
	KindHuman PlayerKind = "human"
	KindAI    PlayerKind = "ai"
)

// PlayerStatus tracks whether a seat is still in the round.
type PlayerStatus string

const (
	PlayerPlaying PlayerStatus = "playing"
	PlayerWon     PlayerStatus = "won"
)

// ConnectionStatus is maintained by the connection monitor; it never
// affects rule legality.
type ConnectionStatus string

const (
	ConnConnected    ConnectionStatus = "connected"
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnTimedOut     ConnectionStatus = "timed_out"
)

// Difficulty tags an AI seat's decision style.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Player is one seat at the table.
type Player struct {
	ID         string
	UserID     *string
	Name       string
	Kind       PlayerKind
	Difficulty Difficulty // only meaningful when Kind == KindAI
	Hand       []cards.Card
	Status     PlayerStatus
	Connection ConnectionStatus
}

// State is the full immutable snapshot of one game.
type State struct {
	ID                 string
	Status             Status
	Players            []Player
	Deck               []cards.Card
	DiscardPile        []cards.Card // index 0 is the current top
	CurrentPlayerIndex int
	Direction          rules.Direction
	PendingAttack      *rules.Attack
	PendingSkips       int
	NominatedSuit      *cards.Suit
	Winners            []string
	TurnCount          int
	DeckCount          int
	ExpectedTotalCards int
	CreatedAt          time.Time
	LastActionAt       time.Time
	ErrorCount         int
}

// Options configures New.
type Options struct {
	DeckCount int // defaults to 1 when <= 0
}

// New constructs a waiting-status game with the given players and no
// cards dealt yet.
func New(id string, players []Player, opts Options, now time.Time) State {
	deckCount := opts.DeckCount
	if deckCount <= 0 {
		deckCount = 1
	}
	return State{
		ID:                 id,
		Status:             StatusWaiting,
		Players:            players,
		Direction:          rules.Clockwise,
		DeckCount:          deckCount,
		ExpectedTotalCards: 52 * deckCount,
		CreatedAt:          now,
		LastActionAt:       now,
	}
}

// DrawReason distinguishes why a draw was requested.
type DrawReason string

const (
	ReasonCannotPlay DrawReason = "cannot_play"
	ReasonAttack     DrawReason = "attack"
	ReasonVoluntary  DrawReason = "voluntary"
)

// Start deals the initial hands, seeds the discard pile, and moves the
// game to StatusPlaying. r drives both the deck shuffle and the random
// choice of starting player.
func Start(s State, r *rand.Rand, now time.Time) (State, error) {
	next := s
	deck := cards.NewDeck(next.DeckCount, r)

	perPlayer, err := rules.CardsPerPlayer(len(next.Players))
	if err != nil {
		return s, err
	}

	players := make([]Player, len(next.Players))
	copy(players, next.Players)
	for i := range players {
		hand := make([]cards.Card, perPlayer)
		copy(hand, deck[len(deck)-perPlayer:])
		deck = deck[:len(deck)-perPlayer]
		players[i].Hand = hand
		players[i].Status = PlayerPlaying
	}

	top := deck[len(deck)-1]
	deck = deck[:len(deck)-1]

	next.Players = players
	next.Deck = deck
	next.DiscardPile = []cards.Card{top}
	next.Status = StatusPlaying
	next.CurrentPlayerIndex = r.Intn(len(players))
	next.LastActionAt = now

	return next, nil
}

// Play validates and applies a stack of same-rank cards for player_id,
// returning the resulting state. nominatedSuit is required exactly when
// the played stack's rank is Ace.
func Play(s State, playerID string, stack []cards.Card, nominatedSuit *cards.Suit, now time.Time) (State, error) {
	if s.Status != StatusPlaying {
		return s, &validate.Error{Kind: validate.KindInvalidStatus, Details: map[string]any{"current": s.Status, "expected": StatusPlaying}}
	}
	if err := validate.ValidatePlay(validate.PlayInput{
		Players:            toPlayerViews(s.Players),
		PlayerID:           playerID,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		Cards:              stack,
		Top:                s.DiscardPile[0],
		NominatedSuit:      s.NominatedSuit,
		PendingAttack:      s.PendingAttack,
		PendingSkips:       s.PendingSkips,
		SuitOnPlay:         nominatedSuit,
	}); err != nil {
		return s, err
	}

	next := s
	next.NominatedSuit = nil

	playerIdx := s.CurrentPlayerIndex
	player := s.Players[playerIdx]
	hand, err := deckops.RemoveFromHand(player.Hand, stack)
	if err != nil {
		return s, err
	}
	player.Hand = hand

	// Cards go onto the discard pile in submitted order; the first of
	// them becomes the new top.
	discard := make([]cards.Card, 0, len(stack)+len(s.DiscardPile))
	discard = append(discard, stack...)
	discard = append(discard, s.DiscardPile...)

	calculated := rules.CalculateEffects(stack)
	turnState := effects.Apply(effects.TurnState{
		PendingAttack: s.PendingAttack,
		PendingSkips:  s.PendingSkips,
		Direction:     s.Direction,
	}, stack, calculated, nominatedSuit)

	players := make([]Player, len(s.Players))
	copy(players, s.Players)
	players[playerIdx] = player

	next.Players = players
	next.DiscardPile = discard
	next.PendingAttack = turnState.PendingAttack
	next.PendingSkips = turnState.PendingSkips
	next.Direction = turnState.Direction
	next.NominatedSuit = turnState.NominatedSuit

	tm := turnmanager.State{
		CurrentIndex: next.CurrentPlayerIndex,
		NPlayers:     len(next.Players),
		Direction:    next.Direction,
		Finished:     finishedMask(next.Players),
		Winners:      nil,
	}
	tm = turnmanager.CheckWinner(tm, playerIdx, len(hand))
	if tm.Finished[playerIdx] {
		players[playerIdx].Status = PlayerWon
		next.Winners = append(append([]string(nil), next.Winners...), players[playerIdx].ID)
	}

	// Skips from a played 7 stay pending for the next seat, which may
	// counter with its own 7; Draw consumes them when it advances.
	tm = turnmanager.AdvanceTurn(tm, 0)
	next.CurrentPlayerIndex = tm.CurrentIndex
	next.TurnCount = s.TurnCount + 1
	next.LastActionAt = now

	return next, nil
}

// Draw draws cards for playerID for the given reason. An attack-forced
// draw clears the pending attack and does not advance the turn.
func Draw(s State, playerID string, reason DrawReason, r *rand.Rand, now time.Time) (State, error) {
	if s.Status != StatusPlaying {
		return s, &validate.Error{Kind: validate.KindInvalidStatus, Details: map[string]any{"current": s.Status, "expected": StatusPlaying}}
	}
	if err := validate.ValidateDraw(validate.DrawInput{
		Players:            toPlayerViews(s.Players),
		PlayerID:           playerID,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
	}); err != nil {
		return s, err
	}
	if reason == ReasonCannotPlay {
		player := s.Players[s.CurrentPlayerIndex]
		if rules.HasValidPlay(player.Hand, s.DiscardPile[0], s.NominatedSuit, s.PendingAttack, s.PendingSkips) {
			return s, &validate.Error{Kind: validate.KindMustPlay, Details: map[string]any{"player_id": playerID}}
		}
	}

	count := 1
	if reason == ReasonAttack && s.PendingAttack != nil {
		count = s.PendingAttack.N
	}

	drawn, newDeck, newDiscard := deckops.Draw(s.Deck, s.DiscardPile, count, r)

	playerIdx := s.CurrentPlayerIndex
	players := make([]Player, len(s.Players))
	copy(players, s.Players)
	players[playerIdx].Hand = deckops.AddToHand(players[playerIdx].Hand, drawn)

	next := s
	next.Players = players
	next.Deck = newDeck
	next.DiscardPile = newDiscard
	next.LastActionAt = now

	if reason == ReasonAttack {
		next.PendingAttack = nil
		return next, nil
	}

	tm := turnmanager.State{
		CurrentIndex: next.CurrentPlayerIndex,
		NPlayers:     len(next.Players),
		Direction:    next.Direction,
		Finished:     finishedMask(next.Players),
	}
	tm = turnmanager.AdvanceTurn(tm, next.PendingSkips)
	next.PendingSkips = 0
	next.CurrentPlayerIndex = tm.CurrentIndex
	next.TurnCount = s.TurnCount + 1

	return next, nil
}

// ShouldEnd reports whether at most one player is still playing.
func ShouldEnd(s State) bool {
	tm := turnmanager.State{Finished: finishedMask(s.Players)}
	return turnmanager.ShouldEnd(tm)
}

func finishedMask(players []Player) []bool {
	mask := make([]bool, len(players))
	for i, p := range players {
		mask[i] = p.Status == PlayerWon
	}
	return mask
}

func toPlayerViews(players []Player) []validate.PlayerView {
	views := make([]validate.PlayerView, len(players))
	for i, p := range players {
		views[i] = validate.PlayerView{ID: p.ID, Hand: p.Hand, Status: string(p.Status)}
	}
	return views
}
