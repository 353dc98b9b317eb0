// Package local runs voice rooms in process. Participants join over a
// websocket: binary frames carry PCM audio and are relayed to the other
// participant, text frames carry `{type,payload}` messages and are relayed to
// every other connection in the room, observers included.
//
// The hub announces joins and leaves with participant-joined and
// participant-left messages, and ejects everyone with room-expired once the
// room's duration has passed.
package local

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
	"github.com/koscakluka/vocablive/core/events"
	"github.com/koscakluka/vocablive/core/rooms"
	"go.opentelemetry.io/otel/attribute"
)

const (
	RoleParticipant = "participant"
	RoleObserver    = "observer"
)

var _ rooms.Provider = (*Hub)(nil)

type Hub struct {
	baseURL  string
	upgrader websocket.Upgrader
	now      func() time.Time
	mux      *http.ServeMux

	mu    sync.Mutex
	rooms map[string]*room
}

type HubOption func(*Hub)

// WithCheckOrigin replaces the origin check used when upgrading room
// connections.
func WithCheckOrigin(check func(r *http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = check }
}

func withClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// NewHub creates a hub whose room URLs are rooted at baseURL, the public
// address the hub's handler is served on.
func NewHub(baseURL string, opts ...HubOption) *Hub {
	h := &Hub{
		baseURL: strings.TrimRight(baseURL, "/"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now:   time.Now,
		rooms: make(map[string]*room),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("GET /rooms/{name}", h.handleInfo)
	h.mux.HandleFunc("GET /rooms/{name}/ws", h.handleJoin)
	return h
}

type room struct {
	name            string
	url             string
	expiresAt       time.Time
	maxParticipants int
	tokens          map[string]rooms.TokenOptions
	clients         map[*client]bool
	timer           *time.Timer

	// clientReady is the last client-ready frame of a learner still in the
	// room, replayed to participants that join after it was sent.
	clientReady []byte
	readyFrom   *client
}

func (r *room) participants() int {
	n := 0
	for c := range r.clients {
		if c.role == RoleParticipant {
			n++
		}
	}
	return n
}

func (h *Hub) CreateRoom(ctx context.Context, opts rooms.RoomOptions) (*rooms.Room, error) {
	_, span := tracer.Start(ctx, "create local room")
	defer span.End()

	if opts.Duration <= 0 {
		opts.Duration = rooms.DefaultDuration
	}
	if opts.MaxParticipants <= 0 {
		opts.MaxParticipants = rooms.DefaultMaxParticipants
	}

	name := uuid.NewString()
	r := &room{
		name:            name,
		url:             h.baseURL + "/rooms/" + name,
		expiresAt:       h.now().Add(opts.Duration),
		maxParticipants: opts.MaxParticipants,
		tokens:          make(map[string]rooms.TokenOptions),
		clients:         make(map[*client]bool),
	}

	h.mu.Lock()
	h.rooms[name] = r
	r.timer = time.AfterFunc(opts.Duration, func() { h.expire(name) })
	h.mu.Unlock()

	span.SetAttributes(attribute.String("room.name", name))
	logger.InfoContext(ctx, "created local room", "room", name, "expires_at", r.expiresAt)
	return &rooms.Room{URL: r.url, Name: name, ExpiresAt: r.expiresAt}, nil
}

func (h *Hub) CreateToken(ctx context.Context, roomName string, opts rooms.TokenOptions) (string, error) {
	_, span := tracer.Start(ctx, "create local token")
	defer span.End()

	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomName]
	if !ok {
		return "", &rooms.ProviderError{Op: "create token", StatusCode: http.StatusNotFound, Message: "room not found"}
	}

	token := uuid.NewString()
	r.tokens[token] = opts
	return token, nil
}

// Close expires every open room.
func (h *Hub) Close() {
	h.mu.Lock()
	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	h.mu.Unlock()

	for _, name := range names {
		h.expire(name)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type roomInfo struct {
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	ExpiresAt       time.Time `json:"expires_at"`
	Participants    int       `json:"participants"`
	MaxParticipants int       `json:"max_participants"`
}

func (h *Hub) handleInfo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	rm, ok := h.rooms[r.PathValue("name")]
	var info roomInfo
	if ok {
		info = roomInfo{
			Name:            rm.name,
			URL:             rm.url,
			ExpiresAt:       rm.expiresAt,
			Participants:    rm.participants(),
			MaxParticipants: rm.maxParticipants,
		}
	}
	h.mu.Unlock()

	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (h *Hub) handleJoin(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	query := r.URL.Query()
	role := query.Get("role")
	if role == "" {
		role = RoleParticipant
	}
	if role != RoleParticipant && role != RoleObserver {
		http.Error(w, fmt.Sprintf("unknown role %q", role), http.StatusBadRequest)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		name: query.Get("name"),
		role: role,
		send: make(chan frame, 256),
	}

	h.mu.Lock()
	rm, status, reason := h.admit(name, query.Get("token"), c)
	h.mu.Unlock()
	if status != 0 {
		logger.WarnContext(r.Context(), "rejected room connection", "room", name, "reason", reason)
		http.Error(w, reason, status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "websocket upgrade failed", "room", name, "error", err)
		h.leave(rm, c)
		return
	}
	c.conn = conn

	logger.Info("participant joined", "room", name, "participant", c.id, "role", c.role, "owner", c.owner)
	go c.writePump(h, rm)

	h.mu.Lock()
	// Let the newcomer see who is already in the room.
	for other := range rm.clients {
		if other != c && other.role == RoleParticipant {
			c.enqueueText(participantMessage(events.MessageParticipantJoined, other))
		}
	}
	if c.pendingReady != nil {
		c.enqueueText(c.pendingReady)
		c.pendingReady = nil
	}
	h.mu.Unlock()
	if c.role == RoleParticipant {
		h.broadcast(rm, c, websocket.TextMessage, participantMessage(events.MessageParticipantJoined, c))
	}

	c.readPump(h, rm)
}

// admit registers c in the named room. Callers must hold h.mu. A non-zero
// status means c was rejected.
func (h *Hub) admit(name, token string, c *client) (*room, int, string) {
	rm, ok := h.rooms[name]
	if !ok {
		return nil, http.StatusNotFound, "room not found"
	}

	if token != "" {
		opts, ok := rm.tokens[token]
		if !ok {
			return nil, http.StatusUnauthorized, "invalid token"
		}
		c.owner = opts.IsOwner
		if opts.UserName != "" {
			c.name = opts.UserName
		}
	}

	if c.role == RoleParticipant && rm.participants() >= rm.maxParticipants {
		return nil, http.StatusConflict, "room is full"
	}

	rm.clients[c] = true
	if c.role == RoleParticipant && rm.clientReady != nil {
		c.pendingReady = rm.clientReady
	}
	return rm, 0, ""
}

// relayText relays a side-channel frame from sender. A learner's
// client-ready is kept so a bot joining later still sees it exactly once.
func (h *Hub) relayText(rm *room, sender *client, data []byte) {
	ready := false
	if sender.role == RoleParticipant && !sender.owner {
		msg, err := events.DecodeMessage(data)
		ready = err == nil && msg.Type == events.MessageClientReady
	}

	h.mu.Lock()
	if ready {
		rm.clientReady = data
		rm.readyFrom = sender
	}
	targets := rm.targets(sender, websocket.TextMessage)
	h.mu.Unlock()

	h.deliver(rm, targets, frame{messageType: websocket.TextMessage, data: data})
}

// broadcast relays a frame from sender. Audio only reaches the other
// participants, text reaches every other connection.
func (h *Hub) broadcast(rm *room, sender *client, messageType int, data []byte) {
	h.mu.Lock()
	targets := rm.targets(sender, messageType)
	h.mu.Unlock()

	h.deliver(rm, targets, frame{messageType: messageType, data: data})
}

// targets lists the connections a frame from sender reaches. Callers must
// hold h.mu.
func (r *room) targets(sender *client, messageType int) []*client {
	targets := make([]*client, 0, len(r.clients))
	for c := range r.clients {
		if c == sender {
			continue
		}
		if messageType == websocket.BinaryMessage && c.role != RoleParticipant {
			continue
		}
		targets = append(targets, c)
	}
	return targets
}

func (h *Hub) deliver(rm *room, targets []*client, f frame) {
	for _, c := range targets {
		if !c.enqueue(f) {
			logger.Warn("room connection too slow, disconnecting", "room", rm.name, "participant", c.id)
			h.leave(rm, c)
		}
	}
}

// leave removes c from rm and announces it. It is safe to call more than
// once.
func (h *Hub) leave(rm *room, c *client) {
	if rm == nil {
		return
	}

	h.mu.Lock()
	if !rm.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(rm.clients, c)
	c.close()
	if rm.readyFrom == c {
		rm.clientReady = nil
		rm.readyFrom = nil
	}
	h.mu.Unlock()

	logger.Info("participant left", "room", rm.name, "participant", c.id, "role", c.role)
	if c.role == RoleParticipant {
		h.broadcast(rm, c, websocket.TextMessage, participantMessage(events.MessageParticipantLeft, c))
	}
}

func (h *Hub) expire(name string) {
	h.mu.Lock()
	rm, ok := h.rooms[name]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, name)
	rm.timer.Stop()

	expired, _ := json.Marshal(events.ServerMessage{Type: events.MessageRoomExpired, Payload: map[string]string{"room": name}})
	for c := range rm.clients {
		c.enqueue(frame{messageType: websocket.TextMessage, data: expired})
		c.close()
		delete(rm.clients, c)
	}
	h.mu.Unlock()

	logger.Info("room expired", "room", name)
}

func participantMessage(kind string, c *client) []byte {
	data, _ := json.Marshal(events.ServerMessage{
		Type:    kind,
		Payload: events.ParticipantPayload{ID: c.id, Name: c.name, Owner: c.owner},
	})
	return data
}
