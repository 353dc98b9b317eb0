package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/vocablive/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

var ErrClosed = errors.New("room connection closed")

var _ Dialer = (*WebsocketDialer)(nil)

// WebsocketDialer joins rooms served by the local room hub, or any room
// reachable through a websocket bridge speaking the same framing.
type WebsocketDialer struct {
	dialer    *websocket.Dialer
	bridgeURL string
	name      string
	role      string
}

type DialerOption func(*WebsocketDialer)

// WithBridgeURL routes every room through a websocket bridge. The room URL
// and token are passed to the bridge as the room and token query
// parameters.
func WithBridgeURL(bridgeURL string) DialerOption {
	return func(d *WebsocketDialer) { d.bridgeURL = bridgeURL }
}

// WithName sets the display name the session joins with.
func WithName(name string) DialerOption {
	return func(d *WebsocketDialer) { d.name = name }
}

// WithRole joins with a room role other than participant, e.g. "observer".
func WithRole(role string) DialerOption {
	return func(d *WebsocketDialer) { d.role = role }
}

func NewDialer(opts ...DialerOption) *WebsocketDialer {
	d := &WebsocketDialer{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *WebsocketDialer) Dial(ctx context.Context, roomURL, token string) (Conn, error) {
	ctx, span := tracer.Start(ctx, "join room")
	defer span.End()

	endpoint, err := d.endpoint(roomURL, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("room.url", roomURL))

	conn, resp, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("failed to join room (status %d): %w", resp.StatusCode, err)
		} else {
			err = fmt.Errorf("failed to join room: %w", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.InfoContext(ctx, "joined room", "room", roomURL)
	return newWebsocketConn(conn), nil
}

// endpoint builds the websocket URL for a room. Room URLs served over http
// are joined on their /ws path.
func (d *WebsocketDialer) endpoint(roomURL, token string) (string, error) {
	if d.bridgeURL != "" {
		u, err := url.Parse(d.bridgeURL)
		if err != nil {
			return "", fmt.Errorf("invalid bridge url: %w", err)
		}
		query := u.Query()
		query.Set("room", roomURL)
		query.Set("token", token)
		if d.name != "" {
			query.Set("name", d.name)
		}
		u.RawQuery = query.Encode()
		return u.String(), nil
	}

	u, err := url.Parse(roomURL)
	if err != nil {
		return "", fmt.Errorf("invalid room url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported room url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	query := u.Query()
	if token != "" {
		query.Set("token", token)
	}
	if d.name != "" {
		query.Set("name", d.name)
	}
	if d.role != "" {
		query.Set("role", d.role)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

type websocketConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	audio   chan []byte
	events  chan Event

	done      chan struct{}
	closeOnce sync.Once
}

func newWebsocketConn(conn *websocket.Conn) *websocketConn {
	c := &websocketConn{
		conn:   conn,
		audio:  make(chan []byte, 64),
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	go c.pingLoop()
	return c
}

func (c *websocketConn) Audio() <-chan []byte { return c.audio }
func (c *websocketConn) Events() <-chan Event { return c.events }

func (c *websocketConn) SendAudio(ctx context.Context, pcm []byte) error {
	return c.write(websocket.BinaryMessage, pcm)
}

func (c *websocketConn) SendMessage(ctx context.Context, msg events.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %q message: %w", msg.Type, err)
	}
	return c.write(websocket.TextMessage, data)
}

func (c *websocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *websocketConn) write(messageType int, data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write to room: %w", err)
	}
	return nil
}

func (c *websocketConn) readLoop() {
	defer close(c.events)
	defer close(c.audio)
	defer c.Close()

	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				logger.Info("room connection closed", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))

		switch messageType {
		case websocket.BinaryMessage:
			select {
			case c.audio <- data:
			case <-c.done:
				return
			}
		case websocket.TextMessage:
			event, err := decodeEvent(data)
			if err != nil {
				logger.Debug("ignoring undecodable room message", "error", err)
				continue
			}
			select {
			case c.events <- event:
			case <-c.done:
				return
			}
		}
	}
}

func (c *websocketConn) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func decodeEvent(data []byte) (Event, error) {
	msg, err := events.DecodeMessage(data)
	if err != nil {
		return nil, err
	}

	switch msg.Type {
	case events.MessageClientReady:
		return ClientReady{}, nil
	case events.MessageRoomExpired:
		return RoomExpired{}, nil
	case events.MessageParticipantJoined, events.MessageParticipantLeft:
		var participant events.ParticipantPayload
		if err := msg.DecodePayload(&participant); err != nil {
			return nil, err
		}
		if msg.Type == events.MessageParticipantJoined {
			return ParticipantJoined{Participant: participant}, nil
		}
		return ParticipantLeft{Participant: participant}, nil
	}

	return Message{Message: msg}, nil
}
