package network

import (
	"sync"

	"github.com/cbodonnell/codeword/pkg/log"
	"github.com/cbodonnell/codeword/pkg/messages"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents one connected websocket. The connection ID is ephemeral
// and replaced on every reconnect; PlayerID is the client-generated stable
// identity and is only known after a join event.
type Client struct {
	ID          string
	SessionCode string
	PlayerID    string

	conn *websocket.Conn
	// gorilla/websocket allows one concurrent writer per connection
	writeLock sync.Mutex
}

// WriteEvent writes an event to the client's connection.
func (c *Client) WriteEvent(event *messages.Event) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return c.conn.WriteJSON(event)
}

// ReadEvent reads the next event from the client's connection.
func (c *Client) ReadEvent() (*messages.Event, error) {
	event := &messages.Event{}
	if err := c.conn.ReadJSON(event); err != nil {
		return nil, err
	}
	return event, nil
}

// ClientManager tracks connected clients and which session each one has
// joined. Disconnecting removes only this mapping; players stay in their
// match so they can reconnect with their team and role intact.
type ClientManager struct {
	clientsLock sync.RWMutex
	clients     map[string]*Client
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]*Client),
	}
}

// AddClient registers a new connection and returns its client.
func (cm *ClientManager) AddClient(conn *websocket.Conn) *Client {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	client := &Client{
		ID:   uuid.NewString(),
		conn: conn,
	}
	cm.clients[client.ID] = client
	return client
}

// RemoveClient removes a client from the manager.
func (cm *ClientManager) RemoveClient(clientID string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if _, exists := cm.clients[clientID]; exists {
		delete(cm.clients, clientID)
	}
}

// SetSession records which session and player a connection belongs to.
func (cm *ClientManager) SetSession(clientID, sessionCode, playerID string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	if client, ok := cm.clients[clientID]; ok {
		client.SessionCode = sessionCode
		client.PlayerID = playerID
	}
}

// SessionClients returns all clients joined to a session.
func (cm *ClientManager) SessionClients(sessionCode string) []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()

	clients := make([]*Client, 0)
	for _, client := range cm.clients {
		if client.SessionCode == sessionCode {
			clients = append(clients, client)
		}
	}
	return clients
}

// GetClientByID retrieves a client by its ID
func (cm *ClientManager) GetClientByID(clientID string) *Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return cm.clients[clientID]
}

// Broadcast sends an event to every client joined to a session. Write
// failures are logged and skipped; the failing connection will clean
// itself up on its own read loop.
func (cm *ClientManager) Broadcast(sessionCode string, event *messages.Event) {
	for _, client := range cm.SessionClients(sessionCode) {
		if err := client.WriteEvent(event); err != nil {
			log.Error("Failed to write %s event to client %s: %v", event.Type, client.ID, err)
			continue
		}
	}
}
