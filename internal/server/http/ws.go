package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"ataxx/internal/server/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 本地服务，前端可能来自别的端口
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	hub    *Hub
	conn   *websocket.Conn
	gameID string
	send   chan []byte
}

type wsBroadcast struct {
	gameID string
	msg    []byte
}

// Hub fans game snapshots out to the websocket clients watching that game.
type Hub struct {
	games *game.Manager

	clients    map[string]map[*wsClient]struct{} // owned by Run
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan wsBroadcast
	done       chan struct{} // closed when Run returns
}

// NewHub subscribes to every change of games. Run must be running for anything to be delivered.
func NewHub(games *game.Manager) *Hub {
	h := &Hub{
		games:      games,
		clients:    make(map[string]map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan wsBroadcast, 64),
		done:       make(chan struct{}),
	}
	games.OnChange(h.publish)
	return h
}

func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[string]map[*wsClient]struct{}{}
			return nil

		case c := <-h.register:
			if h.clients[c.gameID] == nil {
				h.clients[c.gameID] = make(map[*wsClient]struct{})
			}
			h.clients[c.gameID][c] = struct{}{}
			log.Debug().Str("game", c.gameID).Msg("ws-client-registered")

		case c := <-h.unregister:
			if set, ok := h.clients[c.gameID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
					if len(set) == 0 {
						delete(h.clients, c.gameID)
					}
				}
			}

		case b := <-h.broadcast:
			for c := range h.clients[b.gameID] {
				select {
				case c.send <- b.msg:
				default:
					// 客户端太慢，直接断开
					delete(h.clients[b.gameID], c)
					close(c.send)
				}
			}
		}
	}
}

// publish is the game.Listener; it never blocks the mover.
func (h *Hub) publish(snap game.Snapshot) {
	msg, err := encodeState(snap)
	if err != nil {
		log.Error().Err(err).Str("game", snap.ID).Msg("ws-encode")
		return
	}
	select {
	case h.broadcast <- wsBroadcast{gameID: snap.ID, msg: msg}:
	default:
		log.Warn().Str("game", snap.ID).Msg("ws-broadcast-dropped")
	}
}

func encodeState(snap game.Snapshot) ([]byte, error) {
	return json.Marshal(WSMessage{Type: "state", Game: &snap})
}

// HandleWebSocket upgrades /ws/games/{id} and immediately sends the current state.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snap, err := h.games.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	first, err := encodeState(snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws-upgrade")
		return
	}
	c := &wsClient{hub: h, conn: conn, gameID: id, send: make(chan []byte, sendBuffer)}
	c.send <- first
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only drains control frames; clients never send game data over the socket.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("game", c.gameID).Msg("ws-read")
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
