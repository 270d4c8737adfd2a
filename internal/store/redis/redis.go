// Package redis is a fast checkpoint cache in front of a durable
// store.Store, grounded on the teacher's saveGameToRedis/
// loadGameFromRedis (manager.go), generalized from an ad-hoc
// map[string]interface{} payload to a typed gamestate.State JSON codec.
// Every write and read-miss still flows through the backing store, so
// Redis unavailability degrades latency, not correctness.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/store"
)

const cacheTTL = time.Hour

func key(gameID string) string {
	return "game:" + gameID + ":state"
}

// Store wraps a durable store.Store with a Redis read/write-through cache.
type Store struct {
	rdb      *goredis.Client
	fallback store.Store
	ttl      time.Duration
}

// New builds a Store caching in front of fallback. fallback is still
// the source of truth for ListByStatus, ListStale, and
// RecordUserParticipation, none of which a TTL'd key-value cache can
// serve on its own.
func New(rdb *goredis.Client, fallback store.Store) *Store {
	return &Store{rdb: rdb, fallback: fallback, ttl: cacheTTL}
}

// Save writes through to the backing store, then refreshes the cache
// entry. A cache-write failure is logged, not returned: the backing
// store write already succeeded.
func (s *Store) Save(ctx context.Context, state gamestate.State) error {
	if err := s.fallback.Save(ctx, state); err != nil {
		return err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		log.Printf("[REDIS] failed to marshal game %s for cache: %v", state.ID, err)
		return nil
	}
	if err := s.rdb.SetEx(ctx, key(state.ID), payload, s.ttl).Err(); err != nil {
		log.Printf("[REDIS] failed to cache game %s: %v", state.ID, err)
	}
	return nil
}

// Load checks the cache first and falls back to the backing store on a
// miss, repopulating the cache for next time.
func (s *Store) Load(ctx context.Context, gameID string) (gamestate.State, error) {
	data, err := s.rdb.Get(ctx, key(gameID)).Result()
	if err == nil {
		var state gamestate.State
		if jsonErr := json.Unmarshal([]byte(data), &state); jsonErr == nil {
			return state, nil
		}
		log.Printf("[REDIS] discarding corrupt cache entry for game %s", gameID)
	} else if !errors.Is(err, goredis.Nil) {
		log.Printf("[REDIS] cache read failed for game %s: %v", gameID, err)
	}

	state, err := s.fallback.Load(ctx, gameID)
	if err != nil {
		return gamestate.State{}, err
	}
	if payload, mErr := json.Marshal(state); mErr == nil {
		if err := s.rdb.SetEx(ctx, key(gameID), payload, s.ttl).Err(); err != nil {
			log.Printf("[REDIS] failed to repopulate cache for game %s: %v", gameID, err)
		}
	}
	return state, nil
}

// Delete removes the row from the backing store and evicts the cache
// entry, in that order, so a concurrent Load can't repopulate the
// cache between the two.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	if err := s.fallback.Delete(ctx, gameID); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, key(gameID)).Err(); err != nil {
		log.Printf("[REDIS] failed to evict cache entry for game %s: %v", gameID, err)
	}
	return nil
}

// ListByStatus delegates to the backing store; a TTL'd key-value cache
// has no index to scan by status.
func (s *Store) ListByStatus(ctx context.Context, status gamestate.Status) ([]gamestate.State, error) {
	return s.fallback.ListByStatus(ctx, status)
}

// ListStale delegates to the backing store for the same reason as ListByStatus.
func (s *Store) ListStale(ctx context.Context, now time.Time, thresholds store.IdleThresholds) ([]string, error) {
	return s.fallback.ListStale(ctx, now, thresholds)
}

// RecordUserParticipation delegates to the backing store; participation
// rows are permanent records, not cacheable checkpoints.
func (s *Store) RecordUserParticipation(ctx context.Context, finished gamestate.State) error {
	return s.fallback.RecordUserParticipation(ctx, finished)
}

var _ store.Store = (*Store)(nil)
