// Package engine runs one goroutine per game, fed by a buffered mailbox
// channel — the re-architecture the spec calls for in place of the
// teacher's sync.RWMutex-guarded PoolGameState methods. Every public
// method enqueues a closure onto the mailbox and blocks for its reply, so
// all mutations to a single game are strictly serialised through one
// goroutine while different games run fully in parallel.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	mrand "math/rand"
	"time"

	"github.com/playrachel/engine/internal/ai"
	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/deckops"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/identity"
	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/store"
	"github.com/playrachel/engine/internal/validate"
)

const (
	errorCountThreshold = 10
	mailboxBuffer       = 32
	finishedGraceDelay  = 5 * time.Minute
)

// aiDelayRange returns the [min, max) human-perceivable delay an AI seat
// waits before acting, faster for easy and slower for hard.
func aiDelayRange(d gamestate.Difficulty) (time.Duration, time.Duration) {
	switch d {
	case gamestate.DifficultyHard:
		return 1500 * time.Millisecond, 2500 * time.Millisecond
	case gamestate.DifficultyMedium:
		return 900 * time.Millisecond, 1700 * time.Millisecond
	default:
		return 500 * time.Millisecond, 1100 * time.Millisecond
	}
}

// GameEngine is the single-writer actor for one game.
type GameEngine struct {
	id      string
	mailbox chan func()
	stop    chan struct{}

	st      store.Store
	channel observer.Channel
	clk     clock.Clock
	rng     *mrand.Rand

	state      gamestate.State
	aiTimer    clock.Handle
	errorCount int
}

// New creates a GameEngine for a brand-new game and starts its loop.
func New(id string, players []gamestate.Player, st store.Store, channel observer.Channel, clk clock.Clock, seed int64, deckCount int) *GameEngine {
	e := &GameEngine{
		id:      id,
		mailbox: make(chan func(), mailboxBuffer),
		stop:    make(chan struct{}),
		st:      st,
		channel: channel,
		clk:     clk,
		rng:     mrand.New(mrand.NewSource(seed)),
		state:   gamestate.New(id, players, gamestate.Options{DeckCount: deckCount}, clk.WallNow()),
	}
	go e.run()
	return e
}

// FromState restores a GameEngine from a persisted snapshot, used by the
// Supervisor on boot for every non-finished game.
func FromState(state gamestate.State, st store.Store, channel observer.Channel, clk clock.Clock, seed int64) *GameEngine {
	e := &GameEngine{
		id:      state.ID,
		mailbox: make(chan func(), mailboxBuffer),
		stop:    make(chan struct{}),
		st:      st,
		channel: channel,
		clk:     clk,
		rng:     mrand.New(mrand.NewSource(seed)),
		state:   state,
	}
	go e.run()
	e.do(func() { e.scheduleAIIfNeeded() })
	return e
}

func (e *GameEngine) run() {
	for {
		select {
		case job := <-e.mailbox:
			job()
		case <-e.stop:
			return
		}
	}
}

// do enqueues fn and blocks until it has run on the engine's goroutine.
// Safe to call from any goroutine, including from within a scheduled
// timer callback.
func (e *GameEngine) do(fn func()) {
	done := make(chan struct{})
	e.mailbox <- func() {
		fn()
		close(done)
	}
	<-done
}

// Stop terminates the actor's goroutine without any further checkpoint.
func (e *GameEngine) Stop() {
	close(e.stop)
}

// GetState returns an immutable copy of the current state.
func (e *GameEngine) GetState() gamestate.State {
	var out gamestate.State
	e.do(func() { out = e.state })
	return out
}

// Join appends a new player while the game is waiting, returning the new
// player's id.
func (e *GameEngine) Join(spec identity.JoinSpec) (string, error) {
	var id string
	var err error
	e.do(func() {
		if e.state.Status != gamestate.StatusWaiting {
			err = &validate.Error{Kind: validate.KindInvalidStatus, Details: map[string]any{"current": e.state.Status}}
			return
		}
		if len(e.state.Players) >= 8 {
			err = &validate.Error{Kind: validate.KindCannotJoin, Details: map[string]any{"reason": "game_full"}}
			return
		}
		id = generateID()
		p := gamestate.Player{ID: id, Name: spec.DisplayName, Status: gamestate.PlayerPlaying, Connection: gamestate.ConnConnected}
		switch spec.Kind {
		case identity.JoinUser:
			uid := spec.ExternalUserID
			p.UserID = &uid
			p.Kind = gamestate.KindHuman
		case identity.JoinAI:
			p.Kind = gamestate.KindAI
			p.Difficulty = gamestate.Difficulty(spec.AIDifficulty)
		default:
			p.Kind = gamestate.KindHuman
		}
		e.state.Players = append(e.state.Players, p)
		e.checkpoint()
		e.publish(observer.EventPlayerJoined, id, nil)
	})
	return id, err
}

// Leave removes a waiting-room player outright, or marks a playing
// player's connection disconnected (rules continue to track them until
// PlayerTimeout is invoked by the ConnectionMonitor).
func (e *GameEngine) Leave(playerID string) error {
	var err error
	e.do(func() {
		idx := e.playerIndex(playerID)
		if idx < 0 {
			err = &validate.Error{Kind: validate.KindPlayerNotFound}
			return
		}
		if e.state.Status == gamestate.StatusWaiting {
			e.state.Players = append(e.state.Players[:idx], e.state.Players[idx+1:]...)
			e.checkpoint()
			return
		}
		e.state.Players[idx].Connection = gamestate.ConnDisconnected
		e.checkpoint()
		e.publish(observer.EventPlayerStatus, playerID, map[string]any{"connection": gamestate.ConnDisconnected})
	})
	return err
}

// Start transitions waiting -> playing.
func (e *GameEngine) Start() error {
	var err error
	e.do(func() {
		next, startErr := gamestate.Start(e.state, e.rng, e.clk.WallNow())
		if startErr != nil {
			err = startErr
			return
		}
		e.state = next
		e.checkpoint()
		e.publish(observer.EventGameStarted, "", nil)
		e.scheduleAIIfNeeded()
	})
	return err
}

// Play runs a play move through the safety wrapper.
func (e *GameEngine) Play(playerID string, stack []cards.Card, nominatedSuit *cards.Suit) error {
	var err error
	e.do(func() {
		e.cancelAITimer()
		err = e.mutate(func(now time.Time) (gamestate.State, error) {
			return gamestate.Play(e.state, playerID, stack, nominatedSuit, now)
		})
		if err == nil {
			e.publish(observer.EventCardsPlayed, playerID, map[string]any{"cards": stack})
			e.afterMutation()
		}
	})
	return err
}

// Draw runs a draw move through the safety wrapper.
func (e *GameEngine) Draw(playerID string, reason gamestate.DrawReason) error {
	var err error
	e.do(func() {
		e.cancelAITimer()
		err = e.mutate(func(now time.Time) (gamestate.State, error) {
			return gamestate.Draw(e.state, playerID, reason, e.rng, now)
		})
		if err == nil {
			e.publish(observer.EventCardsDrawn, playerID, map[string]any{"reason": reason})
			e.afterMutation()
		}
	})
	return err
}

// PlayerTimeout is invoked by the ConnectionMonitor after a reconnect
// grace period elapses with no reconnect. It marks the seat timed out and,
// if it is that seat's turn, draws one card on its behalf so the turn
// passes; when an attack is pending it first draws the penalty. Later
// turns of a timed-out seat are not acted on here.
func (e *GameEngine) PlayerTimeout(playerID string) {
	e.do(func() {
		idx := e.playerIndex(playerID)
		if idx < 0 {
			return
		}
		e.state.Players[idx].Connection = gamestate.ConnTimedOut
		e.publish(observer.EventPlayerStatus, playerID, map[string]any{"connection": gamestate.ConnTimedOut})

		if e.state.Status == gamestate.StatusPlaying && idx == e.state.CurrentPlayerIndex {
			e.cancelAITimer()
			reason := gamestate.ReasonVoluntary
			if e.state.PendingAttack != nil {
				reason = gamestate.ReasonAttack
			}
			if mutErr := e.mutate(func(now time.Time) (gamestate.State, error) {
				return gamestate.Draw(e.state, playerID, reason, e.rng, now)
			}); mutErr == nil {
				e.publish(observer.EventCardsDrawn, playerID, map[string]any{"reason": reason})
				if reason == gamestate.ReasonAttack {
					// The penalty draw keeps the turn; a plain draw passes it.
					if e.mutate(func(now time.Time) (gamestate.State, error) {
						return gamestate.Draw(e.state, playerID, gamestate.ReasonVoluntary, e.rng, now)
					}) == nil {
						e.publish(observer.EventCardsDrawn, playerID, map[string]any{"reason": gamestate.ReasonVoluntary})
					}
				}
				e.afterMutation()
				return
			}
		}
		e.checkpoint()
	})
}

// mutate runs transition against the current state under the safety
// wrapper: on success it re-validates card conservation before
// committing, bumping errorCount and refusing to commit on mismatch.
func (e *GameEngine) mutate(transition func(now time.Time) (gamestate.State, error)) error {
	if e.state.Status == gamestate.StatusCorrupted {
		return &validate.Error{Kind: validate.KindCorrupted}
	}

	next, err := transition(e.clk.WallNow())
	if err != nil {
		return err
	}

	hands := make([][]cards.Card, len(next.Players))
	for i, p := range next.Players {
		hands[i] = p.Hand
	}
	if !deckops.ValidateCardCount(hands, next.Deck, next.DiscardPile, next.DeckCount) {
		e.errorCount++
		log.Printf("[engine] game %s: card count invariant violated after transition, discarding", e.id)
		if e.errorCount > errorCountThreshold {
			e.state.Status = gamestate.StatusCorrupted
			e.cancelAITimer()
			e.publish(observer.EventGameCorrupted, "", nil)
			e.checkpoint()
		}
		return &validate.Error{Kind: validate.KindOperationFailed, Details: map[string]any{"reason": "card_count_mismatch"}}
	}

	e.state = next
	e.checkpoint()
	return nil
}

// afterMutation runs the post-mutation bookkeeping common to Play and
// Draw: winner/end-of-game checks, then AI rescheduling.
func (e *GameEngine) afterMutation() {
	if gamestate.ShouldEnd(e.state) && e.state.Status == gamestate.StatusPlaying {
		e.state.Status = gamestate.StatusFinished
		e.publish(observer.EventGameOver, "", map[string]any{"winners": e.state.Winners})
		e.checkpoint()
		if e.st != nil {
			_ = e.st.RecordUserParticipation(context.Background(), e.state)
		}
		e.clk.ScheduleAfter(finishedGraceDelay, func() { e.Stop() })
		return
	}
	e.scheduleAIIfNeeded()
}

// scheduleAIIfNeeded arms an AI timer when the current seat is an AI and
// the game is still playing.
func (e *GameEngine) scheduleAIIfNeeded() {
	if e.state.Status != gamestate.StatusPlaying || !e.currentPlayerIsAI() {
		return
	}
	e.scheduleAI()
}

func (e *GameEngine) scheduleAI() {
	player := e.state.Players[e.state.CurrentPlayerIndex]
	lo, hi := aiDelayRange(player.Difficulty)
	delay := lo + time.Duration(e.rng.Int63n(int64(hi-lo)))
	e.aiTimer = e.clk.ScheduleAfter(delay, func() {
		e.do(func() { e.runAITurn(player.ID) })
	})
}

func (e *GameEngine) cancelAITimer() {
	if e.aiTimer != nil {
		e.aiTimer.Cancel()
		e.aiTimer = nil
	}
}

// runAITurn asks the AI module for an action and executes it through the
// same safety wrapper. Any failure (most commonly a stale turn) falls
// back to drawing one card so the game never stalls.
func (e *GameEngine) runAITurn(playerID string) {
	if e.state.Status != gamestate.StatusPlaying {
		return
	}
	idx := e.playerIndex(playerID)
	if idx != e.state.CurrentPlayerIndex {
		return // stale timer fired after a human already moved
	}
	player := e.state.Players[idx]

	action := ai.ChooseAction(e.state, player, player.Difficulty)

	var err error
	switch action.Kind {
	case ai.ActionPlay:
		err = e.mutate(func(now time.Time) (gamestate.State, error) {
			return gamestate.Play(e.state, playerID, action.Cards, action.NominatedSuit, now)
		})
		if err == nil {
			e.publish(observer.EventAIPlayed, playerID, map[string]any{"cards": action.Cards})
		}
	default:
		err = e.mutate(func(now time.Time) (gamestate.State, error) {
			return gamestate.Draw(e.state, playerID, action.DrawReason, e.rng, now)
		})
		if err == nil {
			e.publish(observer.EventAIPlayed, playerID, map[string]any{"reason": action.DrawReason})
		}
	}

	if err != nil {
		log.Printf("[engine] game %s: ai action failed (%v), retrying with draw-one", e.id, err)
		_ = e.mutate(func(now time.Time) (gamestate.State, error) {
			return gamestate.Draw(e.state, playerID, gamestate.ReasonVoluntary, e.rng, now)
		})
	}

	e.afterMutation()
}

func (e *GameEngine) currentPlayerIsAI() bool {
	if e.state.Status != gamestate.StatusPlaying || len(e.state.Players) == 0 {
		return false
	}
	return e.state.Players[e.state.CurrentPlayerIndex].Kind == gamestate.KindAI
}

func (e *GameEngine) playerIndex(playerID string) int {
	for i, p := range e.state.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (e *GameEngine) publish(kind observer.EventKind, playerID string, details map[string]any) {
	if e.channel == nil {
		return
	}
	e.channel.Publish(observer.Event{
		Kind:     kind,
		GameID:   e.id,
		State:    e.state,
		PlayerID: playerID,
		Details:  details,
	})
}

func (e *GameEngine) checkpoint() {
	if e.st == nil {
		return
	}
	if err := e.st.Save(context.Background(), e.state); err != nil {
		log.Printf("[engine] game %s: checkpoint failed: %v", e.id, err)
	}
}

func generateID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
