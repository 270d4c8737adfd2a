// Package handlers implements the REST surface around the game core:
// creating a game, joining a seat, starting the round, and polling
// state for clients that aren't on the WebSocket. Grounded on the
// teacher's handlers/game.go closures-over-dependencies style, trimmed
// of payment/USSD/SMS concerns the spec's Non-goals exclude.
package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playrachel/engine/internal/identity"
	"github.com/playrachel/engine/internal/registry"
	"github.com/playrachel/engine/internal/session"
	"github.com/playrachel/engine/internal/validate"
)

func newGameID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// CreateGame starts a new waiting-room game and registers it with the
// Supervisor, returning its id.
func CreateGame(sup *registry.Supervisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := newGameID()
		sup.StartGame(id)
		c.JSON(http.StatusCreated, gin.H{"game_id": id})
	}
}

type joinRequest struct {
	DisplayName    string `json:"display_name" binding:"required"`
	Kind           string `json:"kind"` // "anonymous" (default), "user", or "ai"
	ExternalUserID string `json:"external_user_id,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
}

// JoinGame claims a seat in a waiting-room game and issues a reconnect
// session token for it.
func JoinGame(sup *registry.Supervisor, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID := c.Param("id")
		e, err := sup.Registry().Get(gameID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}

		var req joinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name is required"})
			return
		}

		var spec identity.JoinSpec
		switch req.Kind {
		case "user":
			spec = identity.NewUserJoin(req.ExternalUserID, req.DisplayName)
		case "ai":
			spec = identity.NewAIJoin(req.DisplayName, identity.Difficulty(req.Difficulty))
		default:
			spec = identity.NewAnonymousJoin(req.DisplayName)
		}

		playerID, err := e.Join(spec)
		if err != nil {
			writeEngineError(c, err)
			return
		}

		var token string
		if sessions != nil {
			token, _ = sessions.IssueToken(gameID, playerID, req.DisplayName)
		}

		c.JSON(http.StatusOK, gin.H{"player_id": playerID, "token": token})
	}
}

// StartGame transitions a waiting-room game to playing.
func StartGame(sup *registry.Supervisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := sup.Registry().Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		if err := e.Start(); err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "playing"})
	}
}

// GetGameState returns the current snapshot for poll-based clients; the
// WebSocket route is the live path, this exists for the API poller the
// spec names as a valid observer.
func GetGameState(sup *registry.Supervisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := sup.Registry().Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		c.JSON(http.StatusOK, e.GetState())
	}
}

// writeEngineError renders a *validate.Error with its stable kind tag,
// falling back to a generic message for anything else.
func writeEngineError(c *gin.Context, err error) {
	if verr, ok := err.(*validate.Error); ok {
		c.JSON(http.StatusBadRequest, gin.H{"kind": verr.Kind, "details": verr.Details})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// HealthCheck reports liveness for load balancers.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
