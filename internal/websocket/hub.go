package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"soilsense/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Configurações WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 512
	BufferSize     = 1024
)

// Tipos de mensagem
const (
	TypeWelcome     = "welcome"
	TypeLiveReading = "live_reading"
	TypeFeedStatus  = "feed_status"
	TypeCropChanged = "crop_changed"
	TypePing        = "ping"
	TypePong        = "pong"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  BufferSize,
	WriteBufferSize: BufferSize,
	CheckOrigin: func(r *http.Request) bool {
		// CORS é tratado no roteador
		return true
	},
}

// Client representa um cliente WebSocket conectado
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub mantém o conjunto de clientes do painel e distribui as leituras ao vivo
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	snapshot   func() *models.LiveUpdate
	logger     zerolog.Logger
	mutex      sync.RWMutex
}

// NewHub cria um novo hub WebSocket. snapshot, se não nulo, fornece a
// leitura atual enviada junto com as boas-vindas.
func NewHub(logger zerolog.Logger, snapshot func() *models.LiveUpdate) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run processa registros e broadcasts até Stop
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()

			h.logger.Info().Str("client_id", client.id).Msg("client connected")

			welcome := map[string]interface{}{
				"client_id": client.id,
				"timestamp": time.Now().Unix(),
				"status":    "connected",
			}
			if h.snapshot != nil {
				if update := h.snapshot(); update != nil {
					welcome["live"] = update
				}
			}
			client.sendMessage(models.WebSocketMessage{Type: TypeWelcome, Data: welcome})

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Info().Str("client_id", client.id).Msg("client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Stop encerra o hub e fecha todas as conexões
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mutex.Lock()
		for client := range h.clients {
			close(client.send)
			client.conn.Close()
		}
		h.clients = make(map[*Client]bool)
		h.mutex.Unlock()
	})
}

// HandleWebSocket manipula upgrades de conexão WebSocket
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		id:   uuid.NewString(),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Inicia goroutines para leitura e escrita
	go client.writePump()
	go client.readPump()
}

// BroadcastLiveUpdate envia a leitura ao vivo e seus alertas
func (h *Hub) BroadcastLiveUpdate(update models.LiveUpdate) {
	h.broadcastMessage(models.WebSocketMessage{
		Type: TypeLiveReading,
		Data: update,
	})
}

// BroadcastFeedStatus envia o estado da alimentação ao vivo
func (h *Hub) BroadcastFeedStatus(status models.FeedStatus) {
	h.broadcastMessage(models.WebSocketMessage{
		Type: TypeFeedStatus,
		Data: status,
	})
}

// BroadcastCropChanged avisa os painéis da troca de cultura
func (h *Hub) BroadcastCropChanged(profile models.CropProfile) {
	h.broadcastMessage(models.WebSocketMessage{
		Type: TypeCropChanged,
		Data: profile,
	})
}

// GetConnectedClients retorna número de clientes conectados
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// broadcastMessage envia mensagem para todos os clientes
func (h *Hub) broadcastMessage(message models.WebSocketMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("type", message.Type).Msg("failed to encode message")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn().Str("type", message.Type).Msg("broadcast channel full, message dropped")
	}
}

// Métodos do Client

// readPump bombeia mensagens da conexão WebSocket para o hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("client_id", c.id).Msg("websocket read error")
			}
			break
		}

		c.handleClientMessage(message)
	}
}

// writePump bombeia mensagens do hub para a conexão WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Uma mensagem JSON por frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendMessage envia mensagem para este cliente específico
func (c *Client) sendMessage(message models.WebSocketMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		c.hub.logger.Error().Err(err).Msg("failed to encode message")
		return
	}

	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if !c.hub.clients[c] {
		return
	}

	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn().Str("client_id", c.id).Msg("client buffer full, message dropped")
	}
}

// handleClientMessage processa mensagens recebidas do cliente
func (c *Client) handleClientMessage(message []byte) {
	var msg models.WebSocketMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.logger.Debug().Err(err).Str("client_id", c.id).Msg("invalid client message")
		return
	}

	switch msg.Type {
	case TypePing:
		c.sendMessage(models.WebSocketMessage{
			Type: TypePong,
			Data: map[string]interface{}{
				"timestamp": time.Now().Unix(),
			},
		})

	default:
		c.hub.logger.Debug().Str("client_id", c.id).Str("type", msg.Type).Msg("unknown client message")
	}
}
