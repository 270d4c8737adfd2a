// Package redisbus implements observer.Channel over Redis PUBLISH/
// SUBSCRIBE, so events survive across server processes rather than
// staying in one process's memory. Grounded on the teacher's
// idle_events/game_events subscriber in ws/redis.go, generalized from an
// untyped map[string]interface{} payload to observer.Event JSON.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/playrachel/engine/internal/observer"
)

const topicPrefix = "game:"

func topic(gameID string) string {
	return topicPrefix + gameID
}

// Bus is an observer.Channel backed by a Redis client.
type Bus struct {
	rdb *redis.Client
	ctx context.Context
}

// New builds a Bus publishing and subscribing through rdb. ctx bounds
// the lifetime of every publish call and of subscriptions opened
// through Subscribe.
func New(ctx context.Context, rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb, ctx: ctx}
}

// Publish serialises event and publishes it to "game:<game_id>". A
// publish failure is logged, not returned: observer.Channel is a
// best-effort notification path, not a delivery guarantee, matching the
// in-process local.Hub's drop-on-full semantics.
func (b *Bus) Publish(event observer.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[REDISBUS] failed to marshal event %s for game %s: %v", event.Kind, event.GameID, err)
		return
	}
	if err := b.rdb.Publish(b.ctx, topic(event.GameID), payload).Err(); err != nil {
		log.Printf("[REDISBUS] failed to publish %s for game %s: %v", event.Kind, event.GameID, err)
	}
}

// Subscription is returned by Subscribe; call Unsubscribe when the
// caller is done listening.
type Subscription struct {
	pubsub *redis.PubSub
	ch     chan observer.Event
}

// Events returns the channel decoded events arrive on. It is closed
// when Unsubscribe is called or the underlying connection drops.
func (s *Subscription) Events() <-chan observer.Event { return s.ch }

// Unsubscribe closes the Redis subscription and the decoded-event channel.
func (s *Subscription) Unsubscribe() {
	_ = s.pubsub.Close()
}

// Subscribe opens a Redis subscription to gameID's topic and decodes
// every message into an observer.Event, so the ws layer can fan events
// out to connected clients the same way it would from observer/local.
func (b *Bus) Subscribe(ctx context.Context, gameID string) (*Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, topic(gameID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redisbus: subscribe to %s: %w", topic(gameID), err)
	}

	sub := &Subscription{pubsub: pubsub, ch: make(chan observer.Event, 64)}
	go func() {
		defer close(sub.ch)
		for msg := range pubsub.Channel() {
			var event observer.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[REDISBUS] invalid event payload on %s: %v", msg.Channel, err)
				continue
			}
			sub.ch <- event
		}
	}()
	return sub, nil
}
