// Package ws is the WebSocket driving adapter: it upgrades connections,
// routes play/draw/join/get_state/leave messages to the live GameEngine
// for a seat's game, and fans observer events back out to every
// connected player. Grounded directly on the teacher's Hub/runGameHub
// (ws/handler.go, ws/pool_handler.go), generalized from the pool-shot
// message set to Rachel's move set and from a single in-process Hub to
// one that can sit behind either observer/local or observer/redisbus.
package ws

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playrachel/engine/internal/observer"
	"github.com/playrachel/engine/internal/registry"
	"github.com/playrachel/engine/internal/session"
)

const clientSendBuffer = 256

// Client is one connected WebSocket player.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	gameID   string
	playerID string
	send     chan []byte
}

// Subscription is the minimal event-stream contract both
// observer/local.Subscription and observer/redisbus.Subscription
// satisfy, letting Hub stay agnostic of which transport backs it.
type Subscription interface {
	Events() <-chan observer.Event
	Unsubscribe()
}

// Subscriber opens a Subscription for one game's event topic.
type Subscriber interface {
	Subscribe(gameID string) (Subscription, error)
}

type gameSub struct {
	sub      Subscription
	refCount int
}

// Hub fans observer events out to connected players and routes inbound
// messages to the live GameEngine for their game.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // playerID -> client
	rooms   map[string]map[string]*Client // gameID -> playerID -> client

	register   chan *Client
	unregister chan *Client

	registry *registry.Registry
	monitor  *session.ConnectionMonitor
	sessions *session.Manager
	events   Subscriber

	subMu sync.Mutex
	subs  map[string]*gameSub
}

// NewHub wires a Hub to the live game registry, the connection monitor
// driving reconnect-grace/AI-takeover, the session manager issuing
// post-join tokens, and an event Subscriber (observer/local or
// observer/redisbus). It starts its own dispatch goroutine.
func NewHub(reg *registry.Registry, monitor *session.ConnectionMonitor, sessions *session.Manager, events Subscriber) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		registry:   reg,
		monitor:    monitor,
		sessions:   sessions,
		events:     events,
		subs:       make(map[string]*gameSub),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.playerID]; ok && c.playerID != "" {
		_ = old.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
			time.Now().Add(5*time.Second))
		old.conn.Close()
		h.dropLocked(old)
	}
	h.storeLocked(c)
	h.mu.Unlock()

	h.ensureSubscription(c.gameID)
	if h.monitor != nil && c.playerID != "" {
		h.monitor.Connect(c.gameID, c.playerID)
	}
	log.Printf("[WS] player %s connected to game %s", c.playerID, c.gameID)

	if c.playerID == "" {
		return
	}
	if e, err := h.registry.Get(c.gameID); err == nil {
		h.SendToPlayer(c.playerID, buildStateView(e.GetState(), c.playerID))
	}
}

func (h *Hub) handleUnregister(c *Client) {
	h.mu.Lock()
	removed := h.dropLocked(c)
	h.mu.Unlock()
	if !removed {
		return
	}
	h.releaseSubscription(c.gameID)
	if h.monitor != nil && c.playerID != "" {
		h.monitor.Disconnect(c.gameID, c.playerID)
	}
	log.Printf("[WS] player %s disconnected from game %s", c.playerID, c.gameID)
}

func (h *Hub) storeLocked(c *Client) {
	h.clients[c.playerID] = c
	if _, ok := h.rooms[c.gameID]; !ok {
		h.rooms[c.gameID] = make(map[string]*Client)
	}
	h.rooms[c.gameID][c.playerID] = c
}

// dropLocked removes c if it is still the registered client for its
// player id. Caller holds h.mu.
func (h *Hub) dropLocked(c *Client) bool {
	cur, ok := h.clients[c.playerID]
	if !ok || cur != c {
		return false
	}
	delete(h.clients, c.playerID)
	if room, ok := h.rooms[c.gameID]; ok {
		delete(room, c.playerID)
		if len(room) == 0 {
			delete(h.rooms, c.gameID)
		}
	}
	select {
	case <-c.send:
	default:
		close(c.send)
	}
	return true
}

// bindPlayer rekeys an initially-unbound client (connected before
// claiming a seat) under its freshly-joined player id.
func (h *Hub) bindPlayer(c *Client, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.playerID)
	if room, ok := h.rooms[c.gameID]; ok {
		delete(room, c.playerID)
	}
	c.playerID = playerID
	h.storeLocked(c)
}

// BroadcastToGame sends message to every connected player in gameID's
// room, dropping it for any whose send buffer is full rather than
// blocking the rest, grounded on the teacher's Hub.BroadcastToGame.
func (h *Hub) BroadcastToGame(gameID string, message any) {
	data := mustMarshal(message)
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[gameID]
	if !ok {
		return
	}
	for _, c := range room {
		select {
		case c.send <- data:
		default:
			log.Printf("[WS] send buffer full for player %s in game %s, dropping message", c.playerID, gameID)
		}
	}
}

// SendToPlayer sends message to one player if they are connected.
func (h *Hub) SendToPlayer(playerID string, message any) {
	data := mustMarshal(message)
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] send buffer full for player %s, dropping message", playerID)
	}
}

func (h *Hub) sendState(playerID string, _ any) {}

// ensureSubscription opens (or reuses) the event subscription backing
// gameID's room, so the first client to join spins it up and the last
// to leave tears it down.
func (h *Hub) ensureSubscription(gameID string) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	if gs, ok := h.subs[gameID]; ok {
		gs.refCount++
		return
	}
	if h.events == nil {
		return
	}
	sub, err := h.events.Subscribe(gameID)
	if err != nil {
		log.Printf("[WS] failed to subscribe to events for game %s: %v", gameID, err)
		return
	}
	h.subs[gameID] = &gameSub{sub: sub, refCount: 1}
	go h.pump(gameID, sub)
}

func (h *Hub) releaseSubscription(gameID string) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	gs, ok := h.subs[gameID]
	if !ok {
		return
	}
	gs.refCount--
	if gs.refCount <= 0 {
		gs.sub.Unsubscribe()
		delete(h.subs, gameID)
	}
}

// pump forwards every event for one game's subscription to its
// connected players, as a personalized state snapshot plus, for
// terminal events, a lifecycle notice.
func (h *Hub) pump(gameID string, sub Subscription) {
	for event := range sub.Events() {
		h.broadcastEvent(event)
	}
}

func (h *Hub) broadcastEvent(event observer.Event) {
	h.mu.RLock()
	room, ok := h.rooms[event.GameID]
	ids := make([]string, 0, len(room))
	for id := range room {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	if !ok {
		return
	}
	for _, playerID := range ids {
		h.SendToPlayer(playerID, buildStateView(event.State, playerID))
	}
	switch event.Kind {
	case observer.EventGameOver, observer.EventGameCorrupted:
		h.BroadcastToGame(event.GameID, map[string]any{
			"type":    string(event.Kind),
			"details": event.Details,
		})
	}
}

func generateConnID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "~" + hex.EncodeToString(b)
}
