// connect.go wires inbound HTTP upgrades and the per-connection read/write
// pumps, grounded directly on the teacher's handler.go (upgrader,
// writePump, sendError) and pool_handler.go (HandleWebSocket,
// readPump, handleMessage dispatch table), generalized from the pool's
// take_shot/place_cue_ball/concede message set to Rachel's
// join/start/play/draw/leave/get_state moves.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/gamestate"
	"github.com/playrachel/engine/internal/identity"
	"github.com/playrachel/engine/internal/validate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
)

// HandleConnect upgrades an incoming request to a WebSocket and attaches
// it to gameID's room. A caller reconnecting an established seat passes
// its session token; a fresh spectator connects with none and joins a
// seat later by sending a "join" message.
func (h *Hub) HandleConnect(c *gin.Context) {
	gameID := c.Query("game_id")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game_id is required"})
		return
	}

	var playerID string
	if token := c.Query("token"); token != "" && h.sessions != nil {
		claims, err := h.sessions.Validate(token)
		if err != nil || claims.GameID != gameID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}
		playerID = claims.PlayerID
	}

	if _, err := h.registry.Get(gameID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		gameID:   gameID,
		playerID: playerID,
		send:     make(chan []byte, clientSendBuffer),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump relays queued outbound frames to the socket and keeps the
// connection alive with periodic pings, grounded on the teacher's
// Client.writePump.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for player %s: %v", c.playerID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound frames until the connection closes, dispatching
// each to handleMessage, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(32768)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close for player %s: %v", c.playerID, err)
			}
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}
		c.handleMessage(msg)
	}
}

// handleMessage dispatches one inbound frame to the live GameEngine for
// the client's game, generalizing the teacher's pool-specific
// handleMessage switch to Rachel's move set.
func (c *Client) handleMessage(msg WSMessage) {
	e, err := c.hub.registry.Get(c.gameID)
	if err != nil {
		c.sendError("game not found")
		return
	}

	switch msg.Type {
	case "join":
		var data joinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid join data")
			return
		}
		spec := joinSpecFromData(data)
		id, err := e.Join(spec)
		if err != nil {
			c.sendStructuredError(err)
			return
		}
		var token string
		if c.hub.sessions != nil {
			token, _ = c.hub.sessions.IssueToken(c.gameID, id, data.DisplayName)
		}
		c.hub.bindPlayer(c, id)
		c.send <- mustMarshal(map[string]any{"type": "joined", "player_id": id, "token": token})

	case "start":
		if err := e.Start(); err != nil {
			c.sendStructuredError(err)
		}

	case "play":
		if c.playerID == "" {
			c.sendError("join before playing")
			return
		}
		var data playData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid play data")
			return
		}
		if err := e.Play(c.playerID, data.Cards, data.NominatedSuit); err != nil {
			c.sendStructuredError(err)
		}

	case "draw":
		if c.playerID == "" {
			c.sendError("join before drawing")
			return
		}
		var data drawData
		_ = json.Unmarshal(msg.Data, &data)
		reason := gamestate.DrawReason(data.Reason)
		if reason == "" {
			// The client didn't say why; infer it from the obligation the
			// current player actually faces rather than assuming voluntary.
			reason = gamestate.ReasonCannotPlay
			if st := e.GetState(); st.PendingAttack != nil {
				reason = gamestate.ReasonAttack
			}
		}
		if err := e.Draw(c.playerID, reason); err != nil {
			c.sendStructuredError(err)
		}

	case "leave":
		if c.playerID == "" {
			return
		}
		if err := e.Leave(c.playerID); err != nil {
			c.sendStructuredError(err)
		}

	case "get_state":
		c.send <- mustMarshal(buildStateView(e.GetState(), c.playerID))

	default:
		c.sendError("unknown message type")
	}
}

func joinSpecFromData(data joinData) identity.JoinSpec {
	switch data.Kind {
	case "user":
		return identity.NewUserJoin(data.ExternalUserID, data.DisplayName)
	case "ai":
		return identity.NewAIJoin(data.DisplayName, identity.Difficulty(data.Difficulty))
	default:
		return identity.NewAnonymousJoin(data.DisplayName)
	}
}

// sendError sends a free-form error frame, used for malformed requests
// that never reach the engine's typed error taxonomy.
func (c *Client) sendError(message string) {
	c.send <- mustMarshal(map[string]any{"type": "error", "message": message})
}

// sendStructuredError renders an engine *validate.Error as a
// (kind, details) frame so a driving client can compose a message
// without string-matching, per the error-handling design; any other
// error falls back to its Error() string under kind "operation_failed".
func (c *Client) sendStructuredError(err error) {
	if verr, ok := err.(*validate.Error); ok {
		c.send <- mustMarshal(map[string]any{
			"type":    "error",
			"kind":    verr.Kind,
			"details": verr.Details,
		})
		return
	}
	c.send <- mustMarshal(map[string]any{
		"type":    "error",
		"kind":    validate.KindOperationFailed,
		"message": err.Error(),
	})
}
