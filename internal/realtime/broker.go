package realtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

type subscription struct {
	clientID string
	event    string
	handler  func(Message)
}

type presenceSubscription struct {
	clientID string
	handler  func(PresenceEvent)
}

type channelState struct {
	subs         map[uint64]subscription
	presenceSubs map[uint64]presenceSubscription
	members      map[string]PresenceMember
}

// Broker is the in-process pub/sub fabric. Every websocket connection and
// every in-process client holds a LocalTransport backed by the same broker.
type Broker struct {
	mu       sync.RWMutex
	channels map[string]*channelState
	clients  map[string]*LocalTransport
	nextID   uint64
}

func NewBroker() *Broker {
	return &Broker{
		channels: make(map[string]*channelState),
		clients:  make(map[string]*LocalTransport),
	}
}

func (b *Broker) channel(name string) *channelState {
	ch, ok := b.channels[name]
	if !ok {
		ch = &channelState{
			subs:         make(map[uint64]subscription),
			presenceSubs: make(map[uint64]presenceSubscription),
			members:      make(map[string]PresenceMember),
		}
		b.channels[name] = ch
	}
	return ch
}

// Publish fans a message out to every subscriber of channel. Handlers run
// on the caller's goroutine after the broker lock is released.
func (b *Broker) Publish(ctx context.Context, channel, event string, data any) error {
	msg, err := NewMessage(channel, event, data)
	if err != nil {
		return err
	}
	b.deliver(msg)
	return nil
}

func (b *Broker) deliver(msg Message) {
	b.mu.RLock()
	var handlers []func(Message)
	if ch, ok := b.channels[msg.Channel]; ok {
		for _, sub := range ch.subs {
			if sub.event == "" || sub.event == msg.Event {
				handlers = append(handlers, sub.handler)
			}
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (b *Broker) notifyPresence(ev PresenceEvent) {
	b.mu.RLock()
	var handlers []func(PresenceEvent)
	if ch, ok := b.channels[ev.Channel]; ok {
		for _, sub := range ch.presenceSubs {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Members returns the current presence set of channel, oldest first.
func (b *Broker) Members(channel string) []PresenceMember {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch, ok := b.channels[channel]
	if !ok {
		return nil
	}
	return sortedMembers(ch.members)
}

func sortedMembers(m map[string]PresenceMember) []PresenceMember {
	out := make([]PresenceMember, 0, len(m))
	for _, member := range m {
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Data.JoinedAt.Equal(out[j].Data.JoinedAt) {
			return out[i].Data.JoinedAt.Before(out[j].Data.JoinedAt)
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out
}

// Connect registers a client and returns its transport. An existing
// transport with the same client id is dropped first.
func (b *Broker) Connect(clientID string) *LocalTransport {
	b.Drop(clientID, ErrClosed)

	t := &LocalTransport{
		broker:   b,
		clientID: clientID,
		done:     make(chan struct{}),
	}
	b.mu.Lock()
	b.clients[clientID] = t
	b.mu.Unlock()
	slog.Debug("realtime: client connected", "client_id", clientID)
	return t
}

// Drop severs a client: its subscriptions are removed, it leaves every
// presence set it was in and its Done channel closes with cause.
func (b *Broker) Drop(clientID string, cause error) {
	b.drop(clientID, nil, cause)
}

// drop removes clientID; when only is set, it must still be the registered transport.
func (b *Broker) drop(clientID string, only *LocalTransport, cause error) {
	b.mu.Lock()
	t, ok := b.clients[clientID]
	if !ok || (only != nil && t != only) {
		b.mu.Unlock()
		if only != nil {
			only.close(cause)
		}
		return
	}
	delete(b.clients, clientID)

	var left []PresenceEvent
	for name, ch := range b.channels {
		for id, sub := range ch.subs {
			if sub.clientID == clientID {
				delete(ch.subs, id)
			}
		}
		for id, sub := range ch.presenceSubs {
			if sub.clientID == clientID {
				delete(ch.presenceSubs, id)
			}
		}
		if member, ok := ch.members[clientID]; ok {
			delete(ch.members, clientID)
			left = append(left, PresenceEvent{Channel: name, Action: PresenceLeave, Member: member})
		}
		if len(ch.subs) == 0 && len(ch.presenceSubs) == 0 && len(ch.members) == 0 {
			delete(b.channels, name)
		}
	}
	b.mu.Unlock()

	t.close(cause)
	for _, ev := range left {
		b.notifyPresence(ev)
	}
	slog.Debug("realtime: client disconnected", "client_id", clientID, "left_channels", len(left))
}

func (b *Broker) subscribe(clientID, channel, event string, handler func(Message)) (Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[clientID]; !ok {
		return nil, ErrClosed
	}
	b.nextID++
	id := b.nextID
	b.channel(channel).subs[id] = subscription{clientID: clientID, event: event, handler: handler}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.channels[channel]; ok {
			delete(ch.subs, id)
		}
	}, nil
}

func (b *Broker) subscribePresence(clientID, channel string, handler func(PresenceEvent)) (Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[clientID]; !ok {
		return nil, ErrClosed
	}
	b.nextID++
	id := b.nextID
	b.channel(channel).presenceSubs[id] = presenceSubscription{clientID: clientID, handler: handler}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.channels[channel]; ok {
			delete(ch.presenceSubs, id)
		}
	}, nil
}

func (b *Broker) setPresence(clientID, channel string, action PresenceAction, data PresenceData) error {
	b.mu.Lock()
	if _, ok := b.clients[clientID]; !ok {
		b.mu.Unlock()
		return ErrClosed
	}
	ch := b.channel(channel)
	member, present := ch.members[clientID]
	switch action {
	case PresenceEnter, PresenceUpdate:
		if action == PresenceUpdate && !present {
			action = PresenceEnter
		}
		if action == PresenceEnter && present {
			action = PresenceUpdate
		}
		member = PresenceMember{ClientID: clientID, Data: data}
		ch.members[clientID] = member
	case PresenceLeave:
		if !present {
			b.mu.Unlock()
			return nil
		}
		delete(ch.members, clientID)
	}
	b.mu.Unlock()

	b.notifyPresence(PresenceEvent{Channel: channel, Action: action, Member: member})
	return nil
}
