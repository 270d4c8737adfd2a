// Package api wires the REST routes around the game core, grounded on
// the teacher's api.SetupRoutes route-group layout.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/playrachel/engine/internal/api/handlers"
	"github.com/playrachel/engine/internal/config"
	"github.com/playrachel/engine/internal/middleware"
	"github.com/playrachel/engine/internal/registry"
	"github.com/playrachel/engine/internal/session"
	"github.com/playrachel/engine/internal/ws"
)

// SetupRoutes mounts the health, game, and WebSocket routes.
func SetupRoutes(router *gin.Engine, sup *registry.Supervisor, sessions *session.Manager, hub *ws.Hub, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		games := v1.Group("/games")
		{
			games.POST("", handlers.CreateGame(sup))
			games.POST("/:id/join", handlers.JoinGame(sup, sessions))
			games.POST("/:id/start", handlers.StartGame(sup))
			games.GET("/:id", handlers.GetGameState(sup))
			games.GET("/:id/ws", hub.HandleConnect)
		}
	}
}
