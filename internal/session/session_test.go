package session

import (
	"testing"
	"time"

	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/identity"
	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/registry"
	"github.com/playrachel/engine/internal/store/memtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopChannel struct{}

func (noopChannel) Publish(observer.Event) {}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	m := NewManager("test-secret")
	token, err := m.IssueToken("g1", "p1", "alice")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "g1", claims.GameID)
	assert.Equal(t, "p1", claims.PlayerID)
	assert.Equal(t, "alice", claims.DisplayName)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret")
	_, err := m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issued, _ := NewManager("secret-a").IssueToken("g1", "p1", "alice")
	_, err := NewManager("secret-b").Validate(issued)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConnectCancelsGraceTimer(t *testing.T) {
	st := memtest.New()
	clk := clock.NewFake(time.Now())
	sup := registry.NewSupervisor(st, noopChannel{}, clk, func() int64 { return 1 }, 1)
	e := sup.StartGame("g1")
	id, err := e.Join(identity.NewAnonymousJoin("alice"))
	require.NoError(t, err)

	mon := NewConnectionMonitor(sup.Registry(), clk)
	mon.Disconnect("g1", id)
	mon.Connect("g1", id)

	clk.Advance(time.Minute)

	state := e.GetState()
	require.Len(t, state.Players, 1)
	assert.Equal(t, "connected", string(state.Players[0].Connection))
}

func TestGraceExpiryTimesOutSeat(t *testing.T) {
	st := memtest.New()
	clk := clock.NewFake(time.Now())
	sup := registry.NewSupervisor(st, noopChannel{}, clk, func() int64 { return 1 }, 1)
	e := sup.StartGame("g1")
	id, err := e.Join(identity.NewAnonymousJoin("alice"))
	require.NoError(t, err)

	mon := NewConnectionMonitor(sup.Registry(), clk)
	mon.Disconnect("g1", id)

	clk.Advance(31 * time.Second)

	state := e.GetState()
	require.Len(t, state.Players, 1)
	assert.NotEqual(t, "connected", string(state.Players[0].Connection))
}
