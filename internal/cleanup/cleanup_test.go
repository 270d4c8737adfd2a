package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/registry"
	"github.com/playrachel/engine/internal/store"
	"github.com/playrachel/engine/internal/store/memtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopChannel struct{}

func (noopChannel) Publish(observer.Event) {}

func TestSweepRemovesStaleGames(t *testing.T) {
	st := memtest.New()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, st.Save(ctx, gamestate.State{
		ID: "old", Status: gamestate.StatusWaiting, LastActionAt: now.Add(-time.Hour),
	}))
	require.NoError(t, st.Save(ctx, gamestate.State{
		ID: "fresh", Status: gamestate.StatusWaiting, LastActionAt: now,
	}))

	clk := clock.NewFake(now)
	sup := registry.NewSupervisor(st, noopChannel{}, clk, func() int64 { return 1 }, 1)
	sup.StartGame("old")
	sup.StartGame("fresh")

	w := New(st, sup, clk)
	w.sweep()

	_, err := st.Load(ctx, "old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Load(ctx, "fresh")
	assert.NoError(t, err)

	_, err = sup.Registry().Get("old")
	assert.ErrorIs(t, err, registry.ErrGameNotFound)
}
