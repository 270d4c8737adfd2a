// Package memtest implements store.Store in a process-local map, grounded
// on the teacher's sync.RWMutex-guarded GameManager.games map. It exists
// for tests and for single-process deployments with no durable backend.
package memtest

import (
	"context"
	"sync"
	"time"

	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/store"
)

// Store is an in-memory store.Store.
type Store struct {
	mu    sync.RWMutex
	games map[string]gamestate.State

	participationMu sync.Mutex
	participation   []store.ParticipationRow
}

// New returns an empty Store.
func New() *Store {
	return &Store{games: make(map[string]gamestate.State)}
}

func (s *Store) Save(_ context.Context, state gamestate.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[state.ID] = state
	return nil
}

func (s *Store) Load(_ context.Context, gameID string) (gamestate.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.games[gameID]
	if !ok {
		return gamestate.State{}, store.ErrNotFound
	}
	return state, nil
}

func (s *Store) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return store.ErrNotFound
	}
	delete(s.games, gameID)
	return nil
}

func (s *Store) ListByStatus(_ context.Context, status gamestate.Status) ([]gamestate.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []gamestate.State
	for _, g := range s.games {
		if g.Status == status {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) ListStale(_ context.Context, now time.Time, thresholds store.IdleThresholds) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []string
	for id, g := range s.games {
		var limit time.Duration
		switch g.Status {
		case gamestate.StatusFinished:
			limit = thresholds.Finished
		case gamestate.StatusWaiting:
			limit = thresholds.Waiting
		case gamestate.StatusPlaying:
			limit = thresholds.Playing
		default:
			continue
		}
		if now.Sub(g.LastActionAt) > limit {
			stale = append(stale, id)
		}
	}
	return stale, nil
}

func (s *Store) RecordUserParticipation(_ context.Context, finished gamestate.State) error {
	ranks := store.ComputeFinalRanks(finished)
	s.participationMu.Lock()
	defer s.participationMu.Unlock()
	for _, p := range finished.Players {
		if p.UserID == nil {
			continue
		}
		s.participation = append(s.participation, store.ParticipationRow{
			UserID:     *p.UserID,
			GameID:     finished.ID,
			FinalRank:  ranks[p.ID],
			TurnsTaken: finished.TurnCount,
		})
	}
	return nil
}

// Participation returns a copy of every recorded participation row, for
// assertions in tests.
func (s *Store) Participation() []store.ParticipationRow {
	s.participationMu.Lock()
	defer s.participationMu.Unlock()
	return append([]store.ParticipationRow(nil), s.participation...)
}
