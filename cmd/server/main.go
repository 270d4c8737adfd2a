// Command server boots the Rachel game-core process: it wires storage,
// the event bus, the game registry/supervisor, the cleanup sweep, the
// session/reconnect layer, and the HTTP+WebSocket front door, grounded
// on the teacher's cmd/server/main.go wiring order (config -> database
// -> redis -> migrations -> managers -> router -> Run).
package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/playrachel/engine/internal/api"
	"github.com/playrachel/engine/internal/cleanup"
	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/config"
	"github.com/playrachel/engine/internal/database"
	"github.com/playrachel/engine/internal/migrations"
	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/observer/local"
	"github.com/playrachel/engine/internal/observer/redisbus"
	"github.com/playrachel/engine/internal/registry"
	redisconn "github.com/playrachel/engine/internal/redis"
	"github.com/playrachel/engine/internal/session"
	"github.com/playrachel/engine/internal/store"
	"github.com/playrachel/engine/internal/store/postgres"
	redisstore "github.com/playrachel/engine/internal/store/redis"
	"github.com/playrachel/engine/internal/ws"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		log.Println("[MAIN] running DB migrations on startup")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	var st store.Store = postgres.New(db)

	var channel observer.Channel = local.NewHub()
	var subscriber ws.Subscriber = localSubscriber{hub: channel.(*local.Hub)}

	if cfg.RedisURL != "" {
		rdb, err := redisconn.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()

		st = redisstore.New(rdb, st)

		ctx := context.Background()
		bus := redisbus.New(ctx, rdb)
		channel = bus
		subscriber = redisSubscriber{bus: bus}
	}

	clk := clock.Real{}

	sup := registry.NewSupervisor(st, channel, clk, randomSeed, cfg.DeckCount)
	if err := sup.RestoreAll(context.Background()); err != nil {
		log.Fatalf("failed to restore games on boot: %v", err)
	}

	worker := cleanup.New(st, sup, clk)
	worker.Start()
	defer worker.Stop()

	sessions := session.NewManager(cfg.SessionSecret)
	monitor := session.NewConnectionMonitor(sup.Registry(), clk)

	hub := ws.NewHub(sup.Registry(), monitor, sessions, subscriber)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, sup, sessions, hub, cfg)

	log.Printf("[MAIN] starting Rachel game server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// randomSeed draws a fresh int64 seed for a new game's deck shuffler
// from crypto/rand, so concurrent game creation never reuses a
// math/rand seed derived from wall-clock time.
func randomSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		log.Fatalf("failed to read random seed: %v", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// localSubscriber adapts observer/local.Hub's error-free Subscribe to
// the ws.Subscriber interface, which the redis-backed bus needs an
// error return from.
type localSubscriber struct {
	hub *local.Hub
}

func (s localSubscriber) Subscribe(gameID string) (ws.Subscription, error) {
	return s.hub.Subscribe(gameID), nil
}

// redisSubscriber adapts observer/redisbus.Bus's context-taking
// Subscribe to the ws.Subscriber interface, binding it to the
// process-lifetime background context.
type redisSubscriber struct {
	bus *redisbus.Bus
}

func (s redisSubscriber) Subscribe(gameID string) (ws.Subscription, error) {
	return s.bus.Subscribe(context.Background(), gameID)
}
