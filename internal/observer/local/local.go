// Package local implements observer.Channel as an in-process fan-out hub,
// grounded on the teacher's Hub.BroadcastToGame: each subscriber gets a
// buffered channel, and a full buffer means the message is dropped rather
// than blocking the publisher. Authoritative state is always re-fetchable
// through the engine's GetState, so dropped events are not a correctness
// problem, only a best-effort notification.
package local

import (
	"log"
	"sync"

	"github.com/playrachel/engine/internal/observer"
)

const subscriberBuffer = 64

// Hub is an in-process observer.Channel with per-game subscriber rooms.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan observer.Event // gameID -> subID -> channel
	next int
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan observer.Event)}
}

// Subscription is returned by Subscribe; call Unsubscribe when done.
type Subscription struct {
	gameID string
	id     int
	ch     chan observer.Event
	hub    *Hub
}

// Events returns the channel events for this subscription arrive on.
func (s *Subscription) Events() <-chan observer.Event { return s.ch }

// Unsubscribe removes this subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if room, ok := s.hub.subs[s.gameID]; ok {
		if ch, ok := room[s.id]; ok {
			delete(room, s.id)
			close(ch)
		}
		if len(room) == 0 {
			delete(s.hub.subs, s.gameID)
		}
	}
}

// Subscribe registers a new listener for events on gameID.
func (h *Hub) Subscribe(gameID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.subs[gameID]
	if !ok {
		room = make(map[int]chan observer.Event)
		h.subs[gameID] = room
	}
	h.next++
	id := h.next
	ch := make(chan observer.Event, subscriberBuffer)
	room[id] = ch
	return &Subscription{gameID: gameID, id: id, ch: ch, hub: h}
}

// Publish delivers event to every subscriber of event.GameID. A
// subscriber whose buffer is full has the event dropped for it, logged,
// rather than blocking every other subscriber.
func (h *Hub) Publish(event observer.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.subs[event.GameID]
	if !ok {
		return
	}
	for _, ch := range room {
		select {
		case ch <- event:
		default:
			log.Printf("[observer] dropping %s for game %s: subscriber buffer full", event.Kind, event.GameID)
		}
	}
}
