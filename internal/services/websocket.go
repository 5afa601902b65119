package services

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketMessage 推送给订阅方的事件信封
type WebSocketMessage struct {
	Type      string      `json:"type"` // ticket.created, ticket.updated, report.updated, guideline.updated, ...
	Topic     string      `json:"topic"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// WebSocketClient 一个已连接的订阅方
type WebSocketClient struct {
	ID    string
	Topic string // tickets, reports, guidelines；空表示全部
	Conn  *websocket.Conn
	Send  chan WebSocketMessage
	Hub   *WebSocketHub
}

// WebSocketHub 变更事件的实时广播中心。服务层每次成功写库后发布事件，
// 展示层通过订阅感知数据变化并重新派生下游计算。
type WebSocketHub struct {
	clients    map[string]*WebSocketClient
	broadcast  chan WebSocketMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	mutex      sync.RWMutex
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 生产环境需要验证源
	},
}

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]*WebSocketClient),
		broadcast:  make(chan WebSocketMessage),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
	}
}

func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			logrus.Infof("Subscriber %s connected (topic=%s)", client.ID, client.Topic)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				logrus.Infof("Subscriber %s disconnected", client.ID)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for _, client := range h.clients {
				if client.Topic == "" || client.Topic == message.Topic {
					select {
					case client.Send <- message:
					default:
						close(client.Send)
						delete(h.clients, client.ID)
					}
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish 实现 EventPublisher。事件类型形如 "ticket.updated"，
// 点号前的实体名决定订阅主题。
func (h *WebSocketHub) Publish(eventType string, data interface{}) {
	topic := ""
	if idx := strings.IndexByte(eventType, '.'); idx > 0 {
		topic = eventType[:idx] + "s"
	}

	h.broadcast <- WebSocketMessage{
		Type:      eventType,
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// HandleWebSocket 升级连接并注册订阅。?topic=tickets|reports|guidelines 过滤主题。
func (h *WebSocketHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Error("WebSocket upgrade failed:", err)
		return
	}

	client := &WebSocketClient{
		ID:    uuid.NewString(),
		Topic: c.Query("topic"),
		Conn:  conn,
		Send:  make(chan WebSocketMessage, 256),
		Hub:   h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error: %v", err)
			}
			break
		}

		// 订阅方只允许切换主题，其余输入忽略
		var message struct {
			Type  string `json:"type"`
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			logrus.Error("Invalid message format:", err)
			continue
		}

		if message.Type == "subscribe" {
			c.Hub.mutex.Lock()
			c.Topic = message.Topic
			c.Hub.mutex.Unlock()
			logrus.Debugf("Subscriber %s switched to topic %q", c.ID, message.Topic)
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				logrus.Error("WriteJSON error:", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
