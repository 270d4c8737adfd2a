// Package store defines the narrow persistence interface the engine
// checkpoints through, independent of backend. Concrete implementations
// live in subpackages (postgres, redis, memtest).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/playrachel/engine/internal/gamestate"
)

// ErrNotFound is returned by Load and Delete when no row matches the id.
var ErrNotFound = errors.New("store: game not found")

// ParticipationRow is one denormalised row recording a user's result in
// a finished game.
type ParticipationRow struct {
	UserID     string
	GameID     string
	FinalRank  int
	TurnsTaken int
}

// Store is the persistence boundary the engine's checkpoints flow
// through. Every method is safe to call concurrently across games; a
// single game's writes are always serialised by its own GameEngine.
type Store interface {
	Save(ctx context.Context, state gamestate.State) error
	Load(ctx context.Context, gameID string) (gamestate.State, error)
	Delete(ctx context.Context, gameID string) error
	ListByStatus(ctx context.Context, status gamestate.Status) ([]gamestate.State, error)
	ListStale(ctx context.Context, now time.Time, thresholds IdleThresholds) ([]string, error)
	RecordUserParticipation(ctx context.Context, finished gamestate.State) error
}

// IdleThresholds is the set of per-status idle durations the cleanup
// sweep uses to decide which games are abandoned.
type IdleThresholds struct {
	Finished time.Duration
	Waiting  time.Duration
	Playing  time.Duration
}

// DefaultIdleThresholds matches the values in the cleanup worker design.
func DefaultIdleThresholds() IdleThresholds {
	return IdleThresholds{
		Finished: time.Hour,
		Waiting:  30 * time.Minute,
		Playing:  2 * time.Hour,
	}
}

// ComputeFinalRanks computes each player's 1-based final rank: winners
// keep their position in the winners list, and the remaining players are
// ranked by ascending hand size starting at len(winners)+1.
func ComputeFinalRanks(state gamestate.State) map[string]int {
	ranks := make(map[string]int, len(state.Players))
	for i, id := range state.Winners {
		ranks[id] = i + 1
	}

	type remainder struct {
		id       string
		handSize int
	}
	var rest []remainder
	for _, p := range state.Players {
		if _, ok := ranks[p.ID]; ok {
			continue
		}
		rest = append(rest, remainder{id: p.ID, handSize: len(p.Hand)})
	}
	for i := 0; i < len(rest); i++ {
		for j := i + 1; j < len(rest); j++ {
			if rest[j].handSize < rest[i].handSize {
				rest[i], rest[j] = rest[j], rest[i]
			}
		}
	}
	base := len(state.Winners) + 1
	for i, r := range rest {
		ranks[r.id] = base + i
	}
	return ranks
}
