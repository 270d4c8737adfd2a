// Package registry tracks every live GameEngine and restores them from
// storage on boot, generalizing the teacher's sync.RWMutex-guarded
// GameManager.games map (manager.go) to a sync.Map keyed by game id.
package registry

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/engine"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/store"
)

// ErrGameNotFound is returned by Get when no engine is registered for id.
var ErrGameNotFound = errors.New("registry: game not found")

// Registry is the concurrent game_id -> *engine.GameEngine map.
type Registry struct {
	games sync.Map
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

func (r *Registry) put(id string, e *engine.GameEngine) {
	r.games.Store(id, e)
}

// Get returns the live engine for id, or ErrGameNotFound.
func (r *Registry) Get(id string) (*engine.GameEngine, error) {
	v, ok := r.games.Load(id)
	if !ok {
		return nil, ErrGameNotFound
	}
	return v.(*engine.GameEngine), nil
}

// Remove drops id from the registry without stopping its engine; callers
// stop the engine first.
func (r *Registry) Remove(id string) {
	r.games.Delete(id)
}

// Len reports the number of live engines.
func (r *Registry) Len() int {
	n := 0
	r.games.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Supervisor owns game creation and boot-time restoration, grounded on
// InitializeManager's background-job bootstrapping pattern (manager.go).
type Supervisor struct {
	registry  *Registry
	st        store.Store
	channel   observer.Channel
	clk       clock.Clock
	seedFunc  func() int64
	deckCount int
}

// NewSupervisor wires a Supervisor. seedFunc supplies a fresh RNG seed per
// game; callers typically pass a crypto/rand-backed source.
func NewSupervisor(st store.Store, channel observer.Channel, clk clock.Clock, seedFunc func() int64, deckCount int) *Supervisor {
	return &Supervisor{
		registry:  New(),
		st:        st,
		channel:   channel,
		clk:       clk,
		seedFunc:  seedFunc,
		deckCount: deckCount,
	}
}

// Registry exposes the underlying Registry for lookups.
func (s *Supervisor) Registry() *Registry { return s.registry }

// StartGame creates a brand-new engine for a waiting-room game and
// registers it.
func (s *Supervisor) StartGame(id string) *engine.GameEngine {
	e := engine.New(id, nil, s.st, s.channel, s.clk, s.seedFunc(), s.deckCount)
	s.registry.put(id, e)
	return e
}

// RestoreAll loads every non-finished game from the store and relaunches
// an engine for each, per spec's boot-time restore requirement. Finished
// games are left to the cleanup worker.
func (s *Supervisor) RestoreAll(ctx context.Context) error {
	for _, status := range []gamestate.Status{gamestate.StatusWaiting, gamestate.StatusPlaying} {
		states, err := s.st.ListByStatus(ctx, status)
		if err != nil {
			return err
		}
		for _, state := range states {
			e := engine.FromState(state, s.st, s.channel, s.clk, s.seedFunc())
			s.registry.put(state.ID, e)
			log.Printf("[REGISTRY] restored game %s (status=%s, players=%d)", state.ID, state.Status, len(state.Players))
		}
	}
	return nil
}

// StopGame stops and unregisters id's engine, if present.
func (s *Supervisor) StopGame(id string) {
	if e, err := s.registry.Get(id); err == nil {
		e.Stop()
		s.registry.Remove(id)
	}
}
