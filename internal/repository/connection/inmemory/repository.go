package inmemory

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/recue/server/internal/repository/connection"
)

type record struct {
	id            string
	role          connection.Role
	subscriptions map[string]struct{}
}

type repo struct {
	connList map[*websocket.Conn]*record
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]*record),
		idList:   make(map[string]*websocket.Conn),
	}
}

func (r *repo) Add(conn *websocket.Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != nil {
		return "", connection.ErrAlreadyExists
	}

	id := uuid.NewString()
	r.connList[conn] = &record{
		id:            id,
		role:          connection.RoleUnassigned,
		subscriptions: make(map[string]struct{}),
	}
	r.idList[id] = conn

	return id, nil
}

func (r *repo) SetRole(conn *websocket.Conn, role connection.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}
	rec.role = role

	return nil
}

func (r *repo) GetRole(conn *websocket.Conn) (connection.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.connList[conn]
	if !ok {
		return connection.RoleUnassigned, connection.ErrNotFound
	}

	return rec.role, nil
}

func (r *repo) GetID(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return rec.id, nil
}

// Subscribe is idempotent. Channel names are a freeform topic space and are
// stored without validation.
func (r *repo) Subscribe(conn *websocket.Conn, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}
	rec.subscriptions[channel] = struct{}{}

	return nil
}

func (r *repo) Unsubscribe(conn *websocket.Conn, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}
	delete(rec.subscriptions, channel)

	return nil
}

func (r *repo) GetSubscriptions(conn *websocket.Conn) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.connList[conn]
	if !ok {
		return nil, connection.ErrNotFound
	}

	channels := make([]string, 0, len(rec.subscriptions))
	for channel := range rec.subscriptions {
		channels = append(channels, channel)
	}

	return channels, nil
}

// Remove deletes the connection from every index and reports the role it had.
func (r *repo) Remove(conn *websocket.Conn) (connection.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.connList[conn]
	if !ok {
		return connection.RoleUnassigned, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, rec.id)

	return rec.role, nil
}

func (r *repo) GetByRole(role connection.Role) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0)
	for conn, rec := range r.connList {
		if rec.role == role {
			conns = append(conns, conn)
		}
	}

	return conns
}

func (r *repo) GetChannelSubscribers(channel string) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0)
	for conn, rec := range r.connList {
		if _, ok := rec.subscriptions[channel]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}

// GetPrefixSubscribers returns every connection subscribed to at least one
// channel starting with prefix.
func (r *repo) GetPrefixSubscribers(prefix string) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0)
	for conn, rec := range r.connList {
		for channel := range rec.subscriptions {
			if strings.HasPrefix(channel, prefix) {
				conns = append(conns, conn)
				break
			}
		}
	}

	return conns
}
