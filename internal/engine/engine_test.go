package engine

import (
	"context"
	"testing"
	"time"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/identity"
	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/store/memtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	events []observer.Event
}

func (r *recordingChannel) Publish(e observer.Event) { r.events = append(r.events, e) }

func newTestEngine(t *testing.T) (*GameEngine, *recordingChannel, *clock.Fake) {
	t.Helper()
	st := memtest.New()
	ch := &recordingChannel{}
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	e := New("g1", nil, st, ch, clk, 42, 1)
	return e, ch, clk
}

func TestJoinAddsPlayerWhileWaiting(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id, err := e.Join(identity.NewAnonymousJoin("alice"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	state := e.GetState()
	require.Len(t, state.Players, 1)
	assert.Equal(t, "alice", state.Players[0].Name)
}

func TestJoinRejectedAfterStart(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Join(identity.NewAnonymousJoin("alice"))
	require.NoError(t, err)
	_, err = e.Join(identity.NewAnonymousJoin("bob"))
	require.NoError(t, err)

	require.NoError(t, e.Start())

	_, err = e.Join(identity.NewAnonymousJoin("carol"))
	require.Error(t, err)
}

func TestStartDealsHandsAndPicksCurrentPlayer(t *testing.T) {
	e, ch, _ := newTestEngine(t)
	_, _ = e.Join(identity.NewAnonymousJoin("alice"))
	_, _ = e.Join(identity.NewAnonymousJoin("bob"))

	require.NoError(t, e.Start())

	state := e.GetState()
	assert.Equal(t, gamestate.StatusPlaying, state.Status)
	for _, p := range state.Players {
		assert.Len(t, p.Hand, 7)
	}
	assert.NotEmpty(t, ch.events)
	assert.Equal(t, observer.EventGameStarted, ch.events[len(ch.events)-1].Kind)
}

func TestLeaveDuringWaitingRemovesSeat(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id, _ := e.Join(identity.NewAnonymousJoin("alice"))
	_, _ = e.Join(identity.NewAnonymousJoin("bob"))

	require.NoError(t, e.Leave(id))
	assert.Len(t, e.GetState().Players, 1)
}

func TestLeaveDuringPlayMarksDisconnected(t *testing.T) {
	e, _, _ := newTestEngine(t)
	id, _ := e.Join(identity.NewAnonymousJoin("alice"))
	_, _ = e.Join(identity.NewAnonymousJoin("bob"))
	require.NoError(t, e.Start())

	require.NoError(t, e.Leave(id))

	state := e.GetState()
	require.Len(t, state.Players, 2)
	var found bool
	for _, p := range state.Players {
		if p.ID == id {
			found = true
			assert.Equal(t, gamestate.ConnDisconnected, p.Connection)
		}
	}
	assert.True(t, found)
}

func TestPlayRejectsOutOfTurn(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, _ = e.Join(identity.NewAnonymousJoin("alice"))
	_, _ = e.Join(identity.NewAnonymousJoin("bob"))
	require.NoError(t, e.Start())

	state := e.GetState()
	offIdx := (state.CurrentPlayerIndex + 1) % 2
	err := e.Play(state.Players[offIdx].ID, []cards.Card{state.Players[offIdx].Hand[0]}, nil)
	require.Error(t, err)
}

func TestDrawAdvancesTurnOnPlainDraw(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, _ = e.Join(identity.NewAnonymousJoin("alice"))
	_, _ = e.Join(identity.NewAnonymousJoin("bob"))
	require.NoError(t, e.Start())

	before := e.GetState()
	currentID := before.Players[before.CurrentPlayerIndex].ID

	require.NoError(t, e.Draw(currentID, gamestate.ReasonVoluntary))

	after := e.GetState()
	assert.NotEqual(t, before.CurrentPlayerIndex, after.CurrentPlayerIndex)
}

func TestAIMoveFiresAfterScheduledDelay(t *testing.T) {
	st := memtest.New()
	ch := &recordingChannel{}
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	e := New("g1", nil, st, ch, clk, 7, 1)

	humanID, _ := e.Join(identity.NewAnonymousJoin("alice"))
	_, _ = e.Join(identity.NewAIJoin("bot", identity.DifficultyEasy))
	require.NoError(t, e.Start())

	state := e.GetState()
	// Drive turns, each time advancing the fake clock well past the
	// slowest AI delay range, until the human seat is on the move or a
	// handful of rounds have passed.
	for i := 0; i < 20; i++ {
		if state.Players[state.CurrentPlayerIndex].ID == humanID {
			break
		}
		clk.Advance(3 * time.Second)
		state = e.GetState()
	}
	assert.Equal(t, gamestate.StatusPlaying, state.Status)
}

func TestPlayerTimeoutDrawsOnAbandonedTurn(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, _ = e.Join(identity.NewAnonymousJoin("alice"))
	_, _ = e.Join(identity.NewAnonymousJoin("bob"))
	require.NoError(t, e.Start())

	before := e.GetState()
	currentID := before.Players[before.CurrentPlayerIndex].ID

	e.PlayerTimeout(currentID)

	after := e.GetState()
	assert.NotEqual(t, before.CurrentPlayerIndex, after.CurrentPlayerIndex)

	var found bool
	for _, p := range after.Players {
		if p.ID == currentID {
			found = true
			assert.Equal(t, gamestate.ConnTimedOut, p.Connection)
		}
	}
	assert.True(t, found)
}

func TestCheckpointPersistsStateOnJoin(t *testing.T) {
	st := memtest.New()
	ch := &recordingChannel{}
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	e := New("g1", nil, st, ch, clk, 1, 1)

	_, err := e.Join(identity.NewAnonymousJoin("alice"))
	require.NoError(t, err)

	saved, err := st.Load(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, saved.Players, 1)
}

func TestFromStateRestoresAndReschedulesAI(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	state := gamestate.State{
		ID:     "g2",
		Status: gamestate.StatusPlaying,
		Players: []gamestate.Player{
			{ID: "p1", Kind: gamestate.KindAI, Difficulty: gamestate.DifficultyEasy, Hand: []cards.Card{{Suit: cards.Hearts, Rank: cards.Three}}},
			{ID: "p2", Kind: gamestate.KindHuman, Hand: []cards.Card{{Suit: cards.Spades, Rank: cards.Four}}},
		},
		DiscardPile:        []cards.Card{{Suit: cards.Hearts, Rank: cards.Two}},
		CurrentPlayerIndex: 0,
		DeckCount:          1,
	}
	e := FromState(state, memtest.New(), &recordingChannel{}, clk, 3)

	clk.Advance(3 * time.Second)
	got := e.GetState()
	assert.Equal(t, gamestate.StatusPlaying, got.Status)
}
