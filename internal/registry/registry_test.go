package registry

import (
	"context"
	"testing"
	"time"

	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/store/memtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopChannel struct{}

func (noopChannel) Publish(observer.Event) {}

func seedFunc() int64 { return 1 }

func TestStartGameRegistersEngine(t *testing.T) {
	st := memtest.New()
	clk := clock.NewFake(time.Now())
	sup := NewSupervisor(st, noopChannel{}, clk, seedFunc, 1)

	sup.StartGame("g1")

	e, err := sup.Registry().Get("g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", e.GetState().ID)
}

func TestGetMissingGameReturnsNotFound(t *testing.T) {
	r := New()
	_, err := r.Get("ghost")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRestoreAllRelaunchesNonFinishedGames(t *testing.T) {
	st := memtest.New()
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, gamestate.State{ID: "w1", Status: gamestate.StatusWaiting}))
	require.NoError(t, st.Save(ctx, gamestate.State{ID: "p1", Status: gamestate.StatusPlaying, DeckCount: 1}))
	require.NoError(t, st.Save(ctx, gamestate.State{ID: "f1", Status: gamestate.StatusFinished}))

	clk := clock.NewFake(time.Now())
	sup := NewSupervisor(st, noopChannel{}, clk, seedFunc, 1)

	require.NoError(t, sup.RestoreAll(ctx))

	_, err := sup.Registry().Get("w1")
	assert.NoError(t, err)
	_, err = sup.Registry().Get("p1")
	assert.NoError(t, err)
	_, err = sup.Registry().Get("f1")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestStopGameRemovesFromRegistry(t *testing.T) {
	st := memtest.New()
	clk := clock.NewFake(time.Now())
	sup := NewSupervisor(st, noopChannel{}, clk, seedFunc, 1)

	sup.StartGame("g1")
	sup.StopGame("g1")

	_, err := sup.Registry().Get("g1")
	assert.ErrorIs(t, err, ErrGameNotFound)
}
