package realtime

import (
	"context"
	"sync"
)

// LocalTransport is a client attached directly to a Broker.
type LocalTransport struct {
	broker   *Broker
	clientID string

	once sync.Once
	done chan struct{}
	mu   sync.Mutex
	err  error
}

var _ Transport = (*LocalTransport)(nil)

func (t *LocalTransport) ClientID() string { return t.clientID }

func (t *LocalTransport) Channel(name string) Channel {
	return &localChannel{t: t, name: name}
}

func (t *LocalTransport) Done() <-chan struct{} { return t.done }

func (t *LocalTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *LocalTransport) Close() error {
	t.broker.drop(t.clientID, t, ErrClosed)
	return nil
}

func (t *LocalTransport) close(cause error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.err = cause
		t.mu.Unlock()
		close(t.done)
	})
}

func (t *LocalTransport) closed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

type localChannel struct {
	t    *LocalTransport
	name string
}

func (c *localChannel) Name() string { return c.name }

func (c *localChannel) Publish(ctx context.Context, event string, data any) error {
	if c.t.closed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.t.broker.Publish(ctx, c.name, event, data)
}

func (c *localChannel) Subscribe(event string, handler func(Message)) (Unsubscribe, error) {
	return c.t.broker.subscribe(c.t.clientID, c.name, event, handler)
}

func (c *localChannel) Presence() Presence {
	return &localPresence{c: c}
}

type localPresence struct {
	c *localChannel
}

func (p *localPresence) Enter(ctx context.Context, data PresenceData) error {
	return p.c.t.broker.setPresence(p.c.t.clientID, p.c.name, PresenceEnter, data)
}

func (p *localPresence) Update(ctx context.Context, data PresenceData) error {
	return p.c.t.broker.setPresence(p.c.t.clientID, p.c.name, PresenceUpdate, data)
}

func (p *localPresence) Leave(ctx context.Context) error {
	return p.c.t.broker.setPresence(p.c.t.clientID, p.c.name, PresenceLeave, PresenceData{})
}

func (p *localPresence) Get(ctx context.Context) ([]PresenceMember, error) {
	if p.c.t.closed() {
		return nil, ErrClosed
	}
	return p.c.t.broker.Members(p.c.name), nil
}

func (p *localPresence) Subscribe(handler func(PresenceEvent)) (Unsubscribe, error) {
	return p.c.t.broker.subscribePresence(p.c.t.clientID, p.c.name, handler)
}
