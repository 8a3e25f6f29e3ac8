package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("user not connected")

const writeWait = 10 * time.Second

// Client is one dashboard connection. Writes are serialized because a
// gorilla connection supports only one concurrent writer.
type Client struct {
	UserID string
	conn   *websocket.Conn
	wmu    sync.Mutex
}

func (c *Client) Write(payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) WriteJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Write(b)
}

func (c *Client) Conn() *websocket.Conn { return c.conn }

// Manager keeps track of active dashboard connections per user. A user
// may hold several (one per open client).
type Manager struct {
	mu          sync.RWMutex
	connections map[string]map[*Client]struct{} // userID -> clients
	onChange    func(total int)
}

func NewManager() *Manager {
	return &Manager{connections: make(map[string]map[*Client]struct{})}
}

// OnChange registers a callback invoked with the connection total after
// every register or unregister.
func (m *Manager) OnChange(fn func(total int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Register adds conn for userID.
func (m *Manager) Register(userID string, conn *websocket.Conn) *Client {
	client := &Client{UserID: userID, conn: conn}

	m.mu.Lock()
	clients, ok := m.connections[userID]
	if !ok {
		clients = make(map[*Client]struct{})
		m.connections[userID] = clients
	}
	clients[client] = struct{}{}
	total, fn := m.totalLocked(), m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn(total)
	}
	return client
}

// Unregister closes and removes a single client.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	if clients, ok := m.connections[client.UserID]; ok {
		if _, ok := clients[client]; ok {
			_ = client.conn.Close()
			delete(clients, client)
		}
		if len(clients) == 0 {
			delete(m.connections, client.UserID)
		}
	}
	total, fn := m.totalLocked(), m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn(total)
	}
}

// SendToUser writes payload to every connection the user holds. It
// returns ErrNotConnected when there are none, otherwise the first
// write error.
func (m *Manager) SendToUser(userID string, payload []byte) error {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.connections[userID]))
	for c := range m.connections[userID] {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	if len(clients) == 0 {
		return ErrNotConnected
	}

	var firstErr error
	for _, c := range clients {
		if err := c.Write(payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Manager) SendJSON(userID string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.SendToUser(userID, b)
}

// IsConnected returns whether a user currently has a connection.
func (m *Manager) IsConnected(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections[userID]) > 0
}

// List returns a copy of the connected user IDs.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	return ids
}

// Count is the total number of open connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalLocked()
}

func (m *Manager) totalLocked() int {
	n := 0
	for _, clients := range m.connections {
		n += len(clients)
	}
	return n
}

// CloseAll closes every connection, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, clients := range m.connections {
		for c := range clients {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			_ = c.conn.Close()
		}
		delete(m.connections, userID)
	}
}
