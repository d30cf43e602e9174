package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"course-chat/domain"
	"course-chat/domain/event"
	"course-chat/projection"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 8 * 1024
)

// envelope is the wire frame pushed over a live session.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Session is one live websocket connection, attached to zero or one
// authenticated user. It implements contract.EventSink: events are queued
// on a buffered channel and dropped when the client cannot keep up, since
// a slow session must never stall the fanout.
type Session struct {
	conn *websocket.Conn
	user domain.UserID // empty for anonymous sessions
	send chan []byte

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func NewSession(conn *websocket.Conn, user domain.UserID, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Session{
		conn: conn,
		user: user,
		send: make(chan []byte, bufferSize),
	}
}

func (s *Session) User() domain.UserID { return s.user }

// Consume serializes the event for the wire and queues it without blocking.
func (s *Session) Consume(_ context.Context, e event.DomainEvent) error {
	frame, err := marshalEvent(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session closed, event %s dropped", e.Name())
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return fmt.Errorf("session buffer full, event %s dropped", e.Name())
	}
}

func marshalEvent(e event.DomainEvent) ([]byte, error) {
	var data any
	switch evt := e.(type) {
	case event.MessageCreated:
		data = map[string]any{
			// No viewer context on the live channel, so isMine is omitted.
			"message": projection.FromMessage(evt.Message, nil),
		}
	case event.PresenceChanged:
		data = map[string]any{
			"userId": string(evt.UserID),
			"online": evt.Online,
		}
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}
	return json.Marshal(envelope{Event: e.Name(), Data: data})
}

// ReadPump keeps the connection's read side alive and returns when the
// client goes away. Inbound frames carry no protocol meaning and are
// discarded; the live channel is push-only.
func (s *Session) ReadPump() {
	defer s.Close()
	s.conn.SetReadLimit(readLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump drains the send queue and pings on a ticker. Exits on the
// first write error or when Close drops the queue.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close tears the session down exactly once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.send)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}
