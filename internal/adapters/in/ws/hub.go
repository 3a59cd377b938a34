package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
)

const (
	// 心跳周期
	pingPeriod = 30 * time.Second
	// 读超时
	pongWait = 60 * time.Second
	// 写超时
	writeWait = 10 * time.Second
	// 最大消息大小
	maxMessageSize = 16 * 1024 // 16KB
)

// WSMessage WebSocket消息结构
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	ID   string          `json:"id,omitempty"`
}

// WebSocket消息类型
const (
	WSTypeSubscribe    = "subscribe"
	WSTypeUnsubscribe  = "unsubscribe"
	WSTypeSubscribed   = "subscribed"
	WSTypeUnsubscribed = "unsubscribed"
	WSTypeStatusUpdate = "faculty_status_update"
	WSTypePing         = "ping"
	WSTypePong         = "pong"
	WSTypeError        = "error"
)

// topicRequest subscribe/unsubscribe 的载荷
type topicRequest struct {
	Topic string `json:"topic"`
}

// Client 一条订阅端连接
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	connID string
	send   chan []byte
	closed bool
	mu     sync.Mutex
}

// Hub 管理所有订阅端连接并承担本地广播
// 实现 out.StatusBroadcaster
type Hub struct {
	registry   *SubscriptionRegistry
	clients    map[string]*Client // connID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub 创建Hub
func NewHub() *Hub {
	return &Hub{
		registry:   NewSubscriptionRegistry(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Registry 暴露订阅表，连接层协作方（和测试）会用到
func (h *Hub) Registry() *SubscriptionRegistry {
	return h.registry
}

// Run 启动Hub主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()
			zap.L().Info("ws client registered", zap.String("conn_id", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if c, ok := h.clients[client.connID]; ok && c == client {
				delete(h.clients, client.connID)
			}
			h.mu.Unlock()
			// 断开即清订阅
			h.registry.UnsubscribeAll(client.connID)
			zap.L().Info("ws client unregistered", zap.String("conn_id", client.connID))
		}
	}
}

// Broadcast 向主题订阅者和通配订阅者投递事件
// 每个连接只做一次非阻塞投递，慢连接直接丢弃并关闭，不拖累其他连接
func (h *Hub) Broadcast(ctx context.Context, event *entity.StatusEvent) {
	env := WSMessage{Type: WSTypeStatusUpdate}
	env.Data, _ = json.Marshal(event)
	data, err := json.Marshal(env)
	if err != nil {
		zap.L().Warn("marshal status event failed", zap.Error(err))
		return
	}

	// 先对订阅关系取快照：publish 之后才订阅的连接收不到本条
	targets := make(map[string]struct{})
	for _, id := range h.registry.SubscribersOf(event.FacultyID) {
		targets[id] = struct{}{}
	}
	for _, id := range h.registry.SubscribersOf(TopicAll) {
		targets[id] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range targets {
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		if err := client.trySend(data); err != nil {
			zap.L().Warn("drop slow ws client",
				zap.String("conn_id", connID),
				zap.String("faculty_id", event.FacultyID))
			go client.Close()
		}
	}
}

// OnlineCount 当前连接数
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 生产环境应该验证Origin
	},
}

// ServeWs 处理WebSocket连接请求
// query 参数 topics 可带逗号分隔的初始订阅（教师工号或 all）
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		connID: uuid.NewString(),
		send:   make(chan []byte, 256),
	}

	h.register <- client

	if topics := r.URL.Query().Get("topics"); topics != "" {
		for _, topic := range strings.Split(topics, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				h.registry.Subscribe(client.connID, topic)
			}
		}
	}

	go client.writePump()
	go client.readPump()
}

// trySend 非阻塞投递，缓冲满视为慢连接
func (c *Client) trySend(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.conn.Close()
}

// readPump 读取消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				zap.L().Warn("websocket read error", zap.String("conn_id", c.connID), zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump 写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(msg.ID, "invalid message format")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(msg)
	case WSTypePing:
		c.sendEnvelope(WSMessage{Type: WSTypePong, ID: msg.ID})
	default:
		c.sendError(msg.ID, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// handleSubscribe 订阅一个主题并回 ACK
func (c *Client) handleSubscribe(msg WSMessage) {
	var req topicRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Topic == "" {
		c.sendError(msg.ID, "invalid subscribe data")
		return
	}

	c.hub.registry.Subscribe(c.connID, req.Topic)

	ack := WSMessage{Type: WSTypeSubscribed, ID: msg.ID}
	ack.Data, _ = json.Marshal(topicRequest{Topic: req.Topic})
	c.sendEnvelope(ack)
}

// handleUnsubscribe 取消订阅并回 ACK
func (c *Client) handleUnsubscribe(msg WSMessage) {
	var req topicRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Topic == "" {
		c.sendError(msg.ID, "invalid unsubscribe data")
		return
	}

	c.hub.registry.Unsubscribe(c.connID, req.Topic)

	ack := WSMessage{Type: WSTypeUnsubscribed, ID: msg.ID}
	ack.Data, _ = json.Marshal(topicRequest{Topic: req.Topic})
	c.sendEnvelope(ack)
}

// sendEnvelope 序列化后尽力投递
func (c *Client) sendEnvelope(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = c.trySend(data)
}

// sendError 发送错误消息
func (c *Client) sendError(msgID, errMsg string) {
	msg := WSMessage{Type: WSTypeError, ID: msgID}
	msg.Data, _ = json.Marshal(map[string]string{"error": errMsg})
	c.sendEnvelope(msg)
}
