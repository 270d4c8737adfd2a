package local

import (
	"testing"

	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/observer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("g1")
	defer sub.Unsubscribe()

	h.Publish(observer.Event{Kind: observer.EventGameStarted, GameID: "g1", State: gamestate.State{ID: "g1"}})

	ev := <-sub.Events()
	assert.Equal(t, observer.EventGameStarted, ev.Kind)
}

func TestPublishToUnknownGameIsNoOp(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.Publish(observer.Event{Kind: observer.EventGameOver, GameID: "ghost"})
	})
}

func TestFullBufferDropsRatherThanBlocks(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("g1")
	defer sub.Unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(observer.Event{Kind: observer.EventCardsPlayed, GameID: "g1"})
	}
	assert.Len(t, sub.Events(), subscriberBuffer)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("g1")
	sub.Unsubscribe()

	require.NotPanics(t, func() {
		h.Publish(observer.Event{Kind: observer.EventGameOver, GameID: "g1"})
	})
}
