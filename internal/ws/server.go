package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
)

// Peer is the authenticated party behind a socket.
type Peer struct {
	Role          realtime.Role
	Subject       string
	SessionID     uint
	ParticipantID uint
	DisplayName   string
}

// PresenceTracker persists participant connection status.
type PresenceTracker interface {
	MarkActive(ctx context.Context, sessionID, participantID uint) error
	MarkDisconnected(ctx context.Context, sessionID, participantID uint) error
	Touch(ctx context.Context, sessionID, participantID uint) error
}

type Server struct {
	upgrader  websocket.Upgrader
	broker    *realtime.Broker
	presence  PresenceTracker
	pingEvery time.Duration

	mu    sync.Mutex
	conns map[uint]int
}

func NewServer(broker *realtime.Broker, presence PresenceTracker, pingEvery time.Duration) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	return &Server{
		broker:   broker,
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
		conns:     make(map[uint]int),
	}
}

// Serve upgrades the request and pumps frames until the socket closes.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, peer Peer) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	clientID := fmt.Sprintf("%s:%s:%s", peer.Role, peer.Subject, uuid.NewString()[:8])
	c := &wsConn{
		conn:      conn,
		peer:      peer,
		transport: s.broker.Connect(clientID),
		send:      make(chan Frame, 64),
		closed:    make(chan struct{}),
		subs:      make(map[string]realtime.Unsubscribe),
		log:       slog.With("session_id", peer.SessionID, "client_id", clientID),
	}
	c.log.Info("ws connected", "role", peer.Role)

	// Background context: handlers outlive the upgrade request's cancellation semantics.
	ctx := context.Background()
	c.enqueue(Frame{Op: OpWelcome, ClientID: clientID})

	go s.writeLoop(ctx, c)
	s.readLoop(ctx, c)

	c.close()
	for _, unsub := range c.subs {
		unsub()
	}
	_ = c.transport.Close()
	if c.entered {
		s.untrack(ctx, c)
	}
	c.log.Info("ws disconnected")
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		if c.entered && c.peer.ParticipantID != 0 && s.presence != nil {
			_ = s.presence.Touch(ctx, c.peer.SessionID, c.peer.ParticipantID)
		}
		return nil
	})

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				c.log.Debug("ws read ended", "err", err)
			}
			return
		}
		ack := Frame{Op: OpAck, ID: f.ID}
		members, err := s.handle(ctx, c, f)
		if err != nil {
			ack.Error = err.Error()
		}
		ack.Members = members
		if f.ID != "" {
			c.enqueue(ack)
		}
	}
}

func (s *Server) handle(ctx context.Context, c *wsConn, f Frame) ([]realtime.PresenceMember, error) {
	if !realtime.ChannelBelongsTo(f.Channel, c.peer.SessionID) {
		return nil, fmt.Errorf("channel %q is not part of session %d", f.Channel, c.peer.SessionID)
	}
	ch := c.transport.Channel(f.Channel)

	switch f.Op {
	case OpSubscribe:
		key := "m|" + f.Channel + "|" + f.Event
		if _, ok := c.subs[key]; ok {
			return nil, nil
		}
		channel, event := f.Channel, f.Event
		unsub, err := ch.Subscribe(event, func(m realtime.Message) {
			c.enqueue(Frame{Op: OpMessage, Channel: channel, Event: event, Message: &m})
		})
		if err != nil {
			return nil, err
		}
		c.subs[key] = unsub
		return nil, nil

	case OpPresenceSubscribe:
		key := "p|" + f.Channel
		if _, ok := c.subs[key]; ok {
			return nil, nil
		}
		unsub, err := ch.Presence().Subscribe(func(ev realtime.PresenceEvent) {
			c.enqueue(Frame{Op: OpPresence, Channel: ev.Channel, Presence: &ev})
		})
		if err != nil {
			return nil, err
		}
		c.subs[key] = unsub
		return nil, nil

	case OpUnsubscribe:
		key := "m|" + f.Channel + "|" + f.Event
		if unsub, ok := c.subs[key]; ok {
			unsub()
			delete(c.subs, key)
		}
		return nil, nil

	case OpPublish:
		if f.Channel != realtime.RoomChannel(c.peer.SessionID) {
			return nil, errors.New("clients may only publish on the room channel")
		}
		var data any
		if len(f.Data) > 0 {
			data = f.Data
		}
		return nil, ch.Publish(ctx, f.Event, data)

	case OpPresenceEnter, OpPresenceUpdate:
		data := s.presenceData(c, f.Data)
		var err error
		if f.Op == OpPresenceEnter {
			err = ch.Presence().Enter(ctx, data)
		} else {
			err = ch.Presence().Update(ctx, data)
		}
		if err != nil {
			return nil, err
		}
		if !c.entered {
			c.entered = true
			s.track(ctx, c)
		}
		return nil, nil

	case OpPresenceLeave:
		if err := ch.Presence().Leave(ctx); err != nil {
			return nil, err
		}
		if c.entered {
			c.entered = false
			s.untrack(ctx, c)
		}
		return nil, nil

	case OpPresenceGet:
		return ch.Presence().Get(ctx)
	}
	return nil, fmt.Errorf("unknown op %q", f.Op)
}

// presenceData takes the client's advertised data but pins identity fields to the token.
func (s *Server) presenceData(c *wsConn, raw json.RawMessage) realtime.PresenceData {
	var data realtime.PresenceData
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			c.log.Debug("ws bad presence payload", "err", err)
		}
	}
	data.Role = c.peer.Role
	data.ParticipantID = c.peer.ParticipantID
	if c.peer.DisplayName != "" {
		data.DisplayName = c.peer.DisplayName
	}
	if data.JoinedAt.IsZero() {
		data.JoinedAt = time.Now().UTC()
	}
	return data
}

func (s *Server) track(ctx context.Context, c *wsConn) {
	id := c.peer.ParticipantID
	if id == 0 || s.presence == nil {
		return
	}
	s.mu.Lock()
	s.conns[id]++
	s.mu.Unlock()
	if err := s.presence.MarkActive(ctx, c.peer.SessionID, id); err != nil {
		c.log.Warn("mark participant active failed", "participant_id", id, "err", err)
	}
}

func (s *Server) untrack(ctx context.Context, c *wsConn) {
	id := c.peer.ParticipantID
	if id == 0 || s.presence == nil {
		return
	}
	s.mu.Lock()
	s.conns[id]--
	last := s.conns[id] <= 0
	if last {
		delete(s.conns, id)
	}
	s.mu.Unlock()
	if !last {
		return
	}
	if err := s.presence.MarkDisconnected(ctx, c.peer.SessionID, id); err != nil {
		c.log.Warn("mark participant disconnected failed", "participant_id", id, "err", err)
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(f); err != nil {
				c.log.Debug("ws write failed", "err", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				c.close()
				return
			}
		case <-c.transport.Done():
			c.close()
			return
		case <-c.closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

type wsConn struct {
	conn      *websocket.Conn
	peer      Peer
	transport *realtime.LocalTransport
	send      chan Frame
	closed    chan struct{}
	once      sync.Once
	log       *slog.Logger

	// owned by the read loop
	subs    map[string]realtime.Unsubscribe
	entered bool
}

// enqueue never blocks; a peer that cannot keep up is disconnected.
func (c *wsConn) enqueue(f Frame) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- f:
	default:
		c.log.Warn("ws send queue full, closing")
		c.close()
	}
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}
