package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
)

const requestTimeout = 10 * time.Second

// Dialer opens Client transports against a session websocket endpoint.
type Dialer struct {
	// URL is the endpoint, e.g. ws://localhost:8080/ws/session/1.
	URL    string
	Token  string
	Dialer *websocket.Dialer
}

func (d Dialer) Dial(ctx context.Context) (realtime.Transport, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ws url: %w", err)
	}
	if d.Token != "" {
		q := u.Query()
		q.Set("token", d.Token)
		u.RawQuery = q.Encode()
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, apperr.New(apperr.CodeUnauthenticated, fmt.Sprintf("dial %s: unauthorized", d.URL))
		}
		return nil, apperr.Wrap(apperr.CodeTransportUnavailable, fmt.Sprintf("dial %s", d.URL), err)
	}

	var welcome Frame
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	}
	if err := conn.ReadJSON(&welcome); err != nil || welcome.Op != OpWelcome {
		_ = conn.Close()
		if err == nil {
			err = fmt.Errorf("unexpected first frame %q", welcome.Op)
		}
		return nil, apperr.Wrap(apperr.CodeTransportUnavailable, "handshake", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &Client{
		conn:         conn,
		clientID:     welcome.ClientID,
		pending:      make(map[string]chan Frame),
		handlers:     make(map[string]map[uint64]func(realtime.Message)),
		presenceSubs: make(map[string]map[uint64]func(realtime.PresenceEvent)),
		done:         make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Client is a realtime.Transport backed by a websocket.
type Client struct {
	conn     *websocket.Conn
	clientID string
	writeMu  sync.Mutex

	mu           sync.Mutex
	nextID       uint64
	pending      map[string]chan Frame
	handlers     map[string]map[uint64]func(realtime.Message)
	presenceSubs map[string]map[uint64]func(realtime.PresenceEvent)

	once sync.Once
	done chan struct{}
	err  error
}

var _ realtime.Transport = (*Client)(nil)

func (c *Client) ClientID() string { return c.clientID }

func (c *Client) Channel(name string) realtime.Channel { return &clientChannel{c: c, name: name} }

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.shutdown(realtime.ErrClosed)
	return nil
}

func (c *Client) shutdown(cause error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = cause
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readLoop() {
	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			c.shutdown(fmt.Errorf("%w: %v", realtime.ErrClosed, err))
			return
		}
		switch f.Op {
		case OpAck:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if ok {
				ch <- f
			}
		case OpMessage:
			if f.Message == nil {
				continue
			}
			for _, h := range c.messageHandlers(f.Channel, f.Event) {
				h(*f.Message)
			}
		case OpPresence:
			if f.Presence == nil {
				continue
			}
			for _, h := range c.presenceHandlers(f.Channel) {
				h(*f.Presence)
			}
		}
	}
}

func handlerKey(channel, event string) string { return channel + "|" + event }

func (c *Client) messageHandlers(channel, event string) []func(realtime.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []func(realtime.Message)
	for _, h := range c.handlers[handlerKey(channel, event)] {
		out = append(out, h)
	}
	return out
}

func (c *Client) presenceHandlers(channel string) []func(realtime.PresenceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []func(realtime.PresenceEvent)
	for _, h := range c.presenceSubs[channel] {
		out = append(out, h)
	}
	return out
}

// request sends f and waits for its ack.
func (c *Client) request(ctx context.Context, f Frame) (Frame, error) {
	c.mu.Lock()
	c.nextID++
	f.ID = strconv.FormatUint(c.nextID, 10)
	reply := make(chan Frame, 1)
	c.pending[f.ID] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, f.ID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err := c.conn.WriteJSON(f)
	c.writeMu.Unlock()
	if err != nil {
		c.shutdown(fmt.Errorf("%w: %v", realtime.ErrClosed, err))
		return Frame{}, unavailable(f, realtime.ErrClosed)
	}

	select {
	case ack := <-reply:
		if ack.Error != "" {
			return ack, fmt.Errorf("%s %s: %s", f.Op, f.Channel, ack.Error)
		}
		return ack, nil
	case <-c.done:
		return Frame{}, unavailable(f, realtime.ErrClosed)
	case <-ctx.Done():
		return Frame{}, unavailable(f, ctx.Err())
	}
}

func unavailable(f Frame, cause error) error {
	return apperr.Wrap(apperr.CodeTransportUnavailable, fmt.Sprintf("%s %s", f.Op, f.Channel), cause)
}

type clientChannel struct {
	c    *Client
	name string
}

func (ch *clientChannel) Name() string { return ch.name }

func (ch *clientChannel) Publish(ctx context.Context, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	_, err = ch.c.request(ctx, Frame{Op: OpPublish, Channel: ch.name, Event: event, Data: raw})
	return err
}

func (ch *clientChannel) Subscribe(event string, handler func(realtime.Message)) (realtime.Unsubscribe, error) {
	c := ch.c
	key := handlerKey(ch.name, event)

	c.mu.Lock()
	first := len(c.handlers[key]) == 0
	c.nextID++
	id := c.nextID
	if c.handlers[key] == nil {
		c.handlers[key] = make(map[uint64]func(realtime.Message))
	}
	c.handlers[key][id] = handler
	c.mu.Unlock()

	remove := func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[key], id)
		return len(c.handlers[key]) == 0
	}

	if first {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := c.request(ctx, Frame{Op: OpSubscribe, Channel: ch.name, Event: event}); err != nil {
			remove()
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if !remove() {
				return
			}
			select {
			case <-c.done:
				return
			default:
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
				defer cancel()
				_, _ = c.request(ctx, Frame{Op: OpUnsubscribe, Channel: ch.name, Event: event})
			}()
		})
	}, nil
}

func (ch *clientChannel) Presence() realtime.Presence { return &clientPresence{ch: ch} }

type clientPresence struct {
	ch *clientChannel
}

func (p *clientPresence) send(ctx context.Context, op string, data *realtime.PresenceData) (Frame, error) {
	f := Frame{Op: op, Channel: p.ch.name}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Frame{}, err
		}
		f.Data = raw
	}
	return p.ch.c.request(ctx, f)
}

func (p *clientPresence) Enter(ctx context.Context, data realtime.PresenceData) error {
	_, err := p.send(ctx, OpPresenceEnter, &data)
	return err
}

func (p *clientPresence) Update(ctx context.Context, data realtime.PresenceData) error {
	_, err := p.send(ctx, OpPresenceUpdate, &data)
	return err
}

func (p *clientPresence) Leave(ctx context.Context) error {
	_, err := p.send(ctx, OpPresenceLeave, nil)
	return err
}

func (p *clientPresence) Get(ctx context.Context) ([]realtime.PresenceMember, error) {
	ack, err := p.send(ctx, OpPresenceGet, nil)
	if err != nil {
		return nil, err
	}
	return ack.Members, nil
}

// Subscribe registers handler for presence changes. Presence subscriptions
// last for the lifetime of the socket on the server side.
func (p *clientPresence) Subscribe(handler func(realtime.PresenceEvent)) (realtime.Unsubscribe, error) {
	c, name := p.ch.c, p.ch.name

	c.mu.Lock()
	first := len(c.presenceSubs[name]) == 0
	c.nextID++
	id := c.nextID
	if c.presenceSubs[name] == nil {
		c.presenceSubs[name] = make(map[uint64]func(realtime.PresenceEvent))
	}
	c.presenceSubs[name][id] = handler
	c.mu.Unlock()

	unsub := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.presenceSubs[name], id)
	}

	if first {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := c.request(ctx, Frame{Op: OpPresenceSubscribe, Channel: name}); err != nil {
			unsub()
			return nil, err
		}
	}
	return unsub, nil
}
