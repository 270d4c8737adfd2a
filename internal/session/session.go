// Package session issues and tracks per-seat session tokens. It does not
// authenticate users — the spec's Non-goals exclude user accounts — it
// only binds a (game_id, player_id, display_name) triple to an opaque,
// signed token so a reconnecting client can resume its seat. Grounded on
// the teacher's JWT usage in its user-auth handler, repurposed here for
// seat tokens instead of account login.
package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/registry"
)

// ErrInvalidToken is returned by Validate for an expired, malformed, or
// badly-signed token.
var ErrInvalidToken = errors.New("session: invalid token")

// Claims is the payload carried by a seat token.
type Claims struct {
	GameID      string `json:"game_id"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

const tokenTTL = 24 * time.Hour

// Manager signs and validates seat tokens.
type Manager struct {
	secret []byte
}

// NewManager builds a Manager signing with the given HMAC secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// IssueToken signs a new seat token for (gameID, playerID, displayName).
func (m *Manager) IssueToken(gameID, playerID, displayName string) (string, error) {
	claims := Claims{
		GameID:      gameID,
		PlayerID:    playerID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and verifies a seat token, returning its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// seatKey identifies one seat's connection state.
type seatKey struct {
	gameID   string
	playerID string
}

type seatState struct {
	connected bool
	graceTmr  clock.Handle
}

// ConnectionMonitor tracks liveness per seat and drives AI takeover after
// a reconnect grace period, grounded on ws/pool_handler.go's
// register/unregister hub logic (old-monitor-ref release, disconnect
// grace window).
type ConnectionMonitor struct {
	mu       sync.Mutex
	registry *registry.Registry
	clk      clock.Clock
	grace    time.Duration
	seats    map[seatKey]*seatState
}

const defaultGrace = 30 * time.Second

// NewConnectionMonitor builds a ConnectionMonitor with the spec's 30s
// reconnect grace period.
func NewConnectionMonitor(reg *registry.Registry, clk clock.Clock) *ConnectionMonitor {
	return &ConnectionMonitor{
		registry: reg,
		clk:      clk,
		grace:    defaultGrace,
		seats:    make(map[seatKey]*seatState),
	}
}

// Connect marks a seat as connected, cancelling any pending grace timer
// from a prior disconnect.
func (c *ConnectionMonitor) Connect(gameID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := seatKey{gameID, playerID}
	st, ok := c.seats[key]
	if !ok {
		st = &seatState{}
		c.seats[key] = st
	}
	if st.graceTmr != nil {
		st.graceTmr.Cancel()
		st.graceTmr = nil
	}
	st.connected = true
}

// Disconnect marks a seat as disconnected and arms the reconnect-grace
// timer; if the seat has not reconnected by the time it fires, the
// seat's engine is told to time the player out.
func (c *ConnectionMonitor) Disconnect(gameID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := seatKey{gameID, playerID}
	st, ok := c.seats[key]
	if !ok {
		st = &seatState{}
		c.seats[key] = st
	}
	st.connected = false
	st.graceTmr = c.clk.ScheduleAfter(c.grace, func() {
		c.onGraceExpired(gameID, playerID)
	})
}

func (c *ConnectionMonitor) onGraceExpired(gameID, playerID string) {
	c.mu.Lock()
	key := seatKey{gameID, playerID}
	st, ok := c.seats[key]
	stillDisconnected := ok && !st.connected
	c.mu.Unlock()
	if !stillDisconnected {
		return
	}
	e, err := c.registry.Get(gameID)
	if err != nil {
		log.Printf("[SESSION] grace expired for %s/%s but game is gone: %v", gameID, playerID, err)
		return
	}
	log.Printf("[SESSION] reconnect grace expired for %s/%s, timing out seat", gameID, playerID)
	e.PlayerTimeout(playerID)
}
