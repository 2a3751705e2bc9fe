package ws

import (
	"sync"

	"go.uber.org/zap"

	"group-chat-service/internal/chat"
	"group-chat-service/internal/observability"
)

// Hub tracks open connections and the group addresses they are subscribed to.
type Hub struct {
	clients map[string]*Client
	groups  map[string]map[string]*Client
	logger  *zap.SugaredLogger
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
		logger:  logger,
	}
}

// AddClient registers an open connection.
func (h *Hub) AddClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID()] = client
}

// RemoveClient drops the connection and all of its group subscriptions.
func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID())
	for group, members := range h.groups {
		delete(members, client.ID())
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// AddToGroup subscribes connID to the group address.
func (h *Hub) AddToGroup(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if _, ok := h.groups[group]; !ok {
		h.groups[group] = make(map[string]*Client)
	}
	h.groups[group][connID] = client
}

// RemoveFromGroup unsubscribes connID from the group address.
func (h *Hub) RemoveFromGroup(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// SendToClient queues payload for a single connection.
func (h *Hub) SendToClient(connID string, payload []byte) bool {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return h.deliver(client, payload)
}

// Broadcast queues payload for every connection and returns how many accepted it.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()
	return h.deliverAll(targets, payload)
}

// BroadcastGroup queues payload for every connection subscribed to group.
func (h *Hub) BroadcastGroup(group string, payload []byte) int {
	h.mu.RLock()
	members := h.groups[group]
	targets := make([]*Client, 0, len(members))
	for _, client := range members {
		targets = append(targets, client)
	}
	h.mu.RUnlock()
	return h.deliverAll(targets, payload)
}

// Apply carries out the effects of one invocation made by connID, in order.
func (h *Hub) Apply(connID string, effects []chat.Effect) {
	for _, effect := range effects {
		switch effect.Kind {
		case chat.EffectSubscribe:
			h.AddToGroup(connID, effect.Group)
		case chat.EffectUnsubscribe:
			h.RemoveFromGroup(connID, effect.Group)
		case chat.EffectBroadcast, chat.EffectGroupSend:
			payload, err := encodeEvent(effect.Event, effect.Payload)
			if err != nil {
				h.logger.Errorw("Failed to encode event", "event", effect.Event, "error", err)
				continue
			}
			var delivered int
			if effect.Kind == chat.EffectBroadcast {
				delivered = h.Broadcast(payload)
			} else {
				delivered = h.BroadcastGroup(effect.Group, payload)
			}
			observability.AddFanoutDeliveries(effect.Kind.String(), effect.Event, delivered)
		}
	}
}

// GroupMembers returns the number of connections subscribed to group.
func (h *Hub) GroupMembers(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Clients returns all registered connections.
func (h *Hub) Clients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) deliverAll(targets []*Client, payload []byte) int {
	delivered := 0
	for _, client := range targets {
		if h.deliver(client, payload) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) deliver(client *Client, payload []byte) bool {
	if client.enqueue(payload) {
		return true
	}
	if !client.Closed() {
		h.logger.Warnw("Send buffer full, closing slow connection", "conn_id", client.ID())
		client.Close()
		publishWSEvent(client.info, "ws_error", "send buffer full")
	}
	return false
}
