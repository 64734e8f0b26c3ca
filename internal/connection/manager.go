// Package connection keeps a participant's realtime link alive: it opens the
// session channels, tracks presence, and reconnects with exponential backoff.
//
// All state lives on a single goroutine that drains a mailbox; transport
// callbacks and public methods only post messages to it.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
)

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

type State struct {
	Status            Status
	ReconnectAttempts int
	LastConnected     time.Time
	Err               error
}

// Dialer opens a new transport.
type Dialer interface {
	Dial(ctx context.Context) (realtime.Transport, error)
}

type DialerFunc func(ctx context.Context) (realtime.Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (realtime.Transport, error) { return f(ctx) }

// Timer is the handle returned by Options.AfterFunc.
type Timer interface {
	Stop() bool
}

type Options struct {
	SessionID            uint
	Presence             realtime.PresenceData
	MaxReconnectAttempts int
	BaseDelay            time.Duration
	MaxDelay             time.Duration
	EventBuffer          int
	// AfterFunc schedules reconnect timers; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
	Logger    *slog.Logger
}

func (o *Options) defaults() {
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = 5
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 256
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

type EventKind string

const (
	EventState   EventKind = "state"
	EventRoster  EventKind = "roster"
	EventControl EventKind = "control"
	EventAnswers EventKind = "answers"
	EventRoom    EventKind = "room"
	EventFatal   EventKind = "fatal"
)

// Event is delivered on Manager.Events.
type Event struct {
	Kind    EventKind
	State   State
	Roster  []realtime.PresenceMember
	Message realtime.Message
	Err     error
}

// Manager owns one participant's connection to a session.
type Manager struct {
	opts    Options
	dialer  Dialer
	log     *slog.Logger
	mailbox chan any
	events  chan Event
	quit    chan struct{}
	stopped chan struct{}
	closing sync.Once

	snapMu sync.RWMutex
	snap   State
	roster []realtime.PresenceMember

	// loop-owned
	state       State
	transport   realtime.Transport
	gen         int
	unsubs      []realtime.Unsubscribe
	timer       Timer
	backoff     *backoff.ExponentialBackOff
	joined      bool
	joining     bool
	joinSeq     int
	joinWaiters []chan error
	rosterSeq   int
	rosterShown int
	fatal       bool

	// leaves waiting for a cancelled enter to settle
	leaveWaiters []chan error
}

// New starts the manager and begins connecting immediately.
func New(dialer Dialer, opts Options) *Manager {
	opts.defaults()
	m := &Manager{
		opts:    opts,
		dialer:  dialer,
		log:     opts.Logger.With("component", "connection", "session_id", opts.SessionID),
		mailbox: make(chan any, 256),
		events:  make(chan Event, opts.EventBuffer),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		backoff: &backoff.ExponentialBackOff{
			InitialInterval:     opts.BaseDelay,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         opts.MaxDelay,
		},
	}
	m.backoff.Reset()
	go m.loop()
	m.post(connectCmd{})
	return m
}

// Events streams state changes, roster updates and channel messages.
// It is closed after Close returns.
func (m *Manager) Events() <-chan Event { return m.events }

// State returns the latest connection state.
func (m *Manager) State() State {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.snap
}

// Roster returns the last presence set seen on the room channel.
func (m *Manager) Roster() []realtime.PresenceMember {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	out := make([]realtime.PresenceMember, len(m.roster))
	copy(out, m.roster)
	return out
}

// JoinRoom enters presence on the room channel. Concurrent and repeated
// calls share a single enter.
func (m *Manager) JoinRoom(ctx context.Context) error {
	reply := make(chan error, 1)
	if !m.post(joinCmd{reply: reply}) {
		return realtime.ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LeaveRoom leaves presence. It is a no-op when not joined.
func (m *Manager) LeaveRoom(ctx context.Context) error {
	reply := make(chan error, 1)
	if !m.post(leaveCmd{reply: reply}) {
		return nil
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reconnect resets the attempt counter and rebuilds the connection.
func (m *Manager) Reconnect() {
	m.post(reconnectCmd{})
}

// Close cancels any pending reconnect, releases the transport and stops the loop.
func (m *Manager) Close() error {
	m.closing.Do(func() { close(m.quit) })
	<-m.stopped
	return nil
}

func (m *Manager) post(msg any) bool {
	select {
	case <-m.quit:
		return false
	default:
	}
	select {
	case m.mailbox <- msg:
		return true
	case <-m.quit:
		return false
	}
}

// mailbox messages
type (
	connectCmd   struct{}
	reconnectCmd struct{}
	timerFired   struct{ gen int }
	joinCmd      struct{ reply chan error }
	leaveCmd     struct{ reply chan error }
	dialResult   struct {
		gen       int
		transport realtime.Transport
		unsubs    []realtime.Unsubscribe
		err       error
	}
	transportLost struct {
		gen int
		err error
	}
	joinResult struct {
		gen int
		seq int
		err error
	}
	presenceChanged struct{ gen int }
	rosterResult    struct {
		gen     int
		seq     int
		members []realtime.PresenceMember
		err     error
	}
	channelMessage struct {
		gen  int
		kind EventKind
		msg  realtime.Message
	}
)

func (m *Manager) loop() {
	defer close(m.stopped)
	defer m.shutdown()

	for {
		select {
		case <-m.quit:
			return
		case msg := <-m.mailbox:
			m.handle(msg)
		}
	}
}

func (m *Manager) handle(msg any) {
	switch msg := msg.(type) {
	case connectCmd:
		m.connect()
	case reconnectCmd:
		m.fatal = false
		m.state.ReconnectAttempts = 0
		m.backoff.Reset()
		m.stopTimer()
		m.teardown()
		m.connect()
	case timerFired:
		if msg.gen == m.gen && m.transport == nil && !m.fatal {
			m.connect()
		}
	case dialResult:
		m.onDial(msg)
	case transportLost:
		if msg.gen != m.gen || m.transport == nil {
			return
		}
		m.log.Warn("connection lost", "error", msg.err)
		m.teardown()
		m.setState(StatusDisconnected, apperr.Wrap(apperr.CodeTransportUnavailable, "connection lost", msg.err))
		m.scheduleReconnect()
	case joinCmd:
		m.onJoin(msg.reply)
	case joinResult:
		if msg.gen != m.gen {
			return
		}
		if msg.seq != m.joinSeq || !m.joining {
			m.settleCancelledJoin(msg.err)
			return
		}
		m.joining = false
		m.joined = msg.err == nil
		for _, w := range m.joinWaiters {
			w <- msg.err
		}
		m.joinWaiters = nil
	case leaveCmd:
		m.onLeave(msg.reply)
	case presenceChanged:
		if msg.gen == m.gen && m.transport != nil {
			m.refreshRoster()
		}
	case rosterResult:
		if msg.gen != m.gen || msg.seq < m.rosterShown {
			return
		}
		if msg.err != nil {
			m.log.Warn("presence get failed", "error", msg.err)
			return
		}
		m.rosterShown = msg.seq
		m.snapMu.Lock()
		m.roster = msg.members
		m.snapMu.Unlock()
		m.emit(Event{Kind: EventRoster, Roster: msg.members})
	case channelMessage:
		if msg.gen == m.gen {
			m.emit(Event{Kind: msg.kind, Message: msg.msg})
		}
	}
}

func (m *Manager) connect() {
	if m.transport != nil || m.state.Status == StatusConnecting {
		return
	}
	m.gen++
	gen := m.gen
	m.setState(StatusConnecting, nil)

	go func() {
		t, unsubs, err := m.dialAndSubscribe(gen)
		if !m.post(dialResult{gen: gen, transport: t, unsubs: unsubs, err: err}) && t != nil {
			_ = t.Close()
		}
	}()
}

// dialAndSubscribe runs off the loop goroutine.
func (m *Manager) dialAndSubscribe(gen int) (realtime.Transport, []realtime.Unsubscribe, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t, err := m.dialer.Dial(ctx)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeTransportUnavailable, "dial", err)
	}

	id := m.opts.SessionID
	var unsubs []realtime.Unsubscribe
	fail := func(err error) (realtime.Transport, []realtime.Unsubscribe, error) {
		for _, u := range unsubs {
			u()
		}
		_ = t.Close()
		return nil, nil, err
	}

	subs := []struct {
		channel string
		kind    EventKind
	}{
		{realtime.ControlChannel(id), EventControl},
		{realtime.RoomChannel(id), EventRoom},
		{realtime.AnswersChannel(id), EventAnswers},
	}
	for _, s := range subs {
		kind := s.kind
		u, err := t.Channel(s.channel).Subscribe("", func(msg realtime.Message) {
			m.post(channelMessage{gen: gen, kind: kind, msg: msg})
		})
		if err != nil {
			return fail(apperr.Wrap(apperr.CodeTransportUnavailable, fmt.Sprintf("subscribe %s", s.channel), err))
		}
		unsubs = append(unsubs, u)
	}

	u, err := t.Channel(realtime.RoomChannel(id)).Presence().Subscribe(func(realtime.PresenceEvent) {
		m.post(presenceChanged{gen: gen})
	})
	if err != nil {
		return fail(apperr.Wrap(apperr.CodeTransportUnavailable, "presence subscribe", err))
	}
	unsubs = append(unsubs, u)
	return t, unsubs, nil
}

func (m *Manager) onDial(res dialResult) {
	if res.gen != m.gen {
		if res.transport != nil {
			_ = res.transport.Close()
		}
		return
	}
	if res.err != nil {
		m.log.Warn("connect failed", "error", res.err, "attempt", m.state.ReconnectAttempts)
		m.setState(StatusDisconnected, res.err)
		m.scheduleReconnect()
		return
	}

	m.transport = res.transport
	m.unsubs = res.unsubs
	m.state.ReconnectAttempts = 0
	m.state.LastConnected = time.Now()
	m.backoff.Reset()
	m.setState(StatusConnected, nil)
	m.log.Info("connected", "client_id", res.transport.ClientID())

	gen := m.gen
	t := res.transport
	go func() {
		<-t.Done()
		err := t.Err()
		if err == nil {
			err = realtime.ErrClosed
		}
		m.post(transportLost{gen: gen, err: err})
	}()

	if m.joining {
		m.startJoin()
	}
	m.refreshRoster()
}

func (m *Manager) scheduleReconnect() {
	if m.state.ReconnectAttempts >= m.opts.MaxReconnectAttempts {
		m.fatal = true
		err := apperr.Wrap(apperr.CodeReconnectExhausted,
			fmt.Sprintf("gave up after %d reconnect attempts", m.state.ReconnectAttempts), m.state.Err)
		m.setState(StatusError, err)
		m.failJoinWaiters(err)
		m.log.Error("reconnect exhausted", "attempts", m.state.ReconnectAttempts)
		m.emit(Event{Kind: EventFatal, State: m.state, Err: err})
		return
	}

	delay := m.backoff.NextBackOff()
	m.state.ReconnectAttempts++
	m.publishSnapshot()
	gen := m.gen
	m.log.Info("reconnect scheduled", "delay", delay, "attempt", m.state.ReconnectAttempts)
	m.timer = m.opts.AfterFunc(delay, func() { m.post(timerFired{gen: gen}) })
}

func (m *Manager) onJoin(reply chan error) {
	if m.fatal {
		reply <- apperr.ErrReconnectExhausted
		return
	}
	if m.joined {
		reply <- nil
		return
	}
	m.joinWaiters = append(m.joinWaiters, reply)
	if m.joining {
		return
	}
	m.joining = true
	if m.transport != nil {
		m.startJoin()
	}
}

// startJoin enters presence on the current transport; onDial calls it again after a reconnect.
func (m *Manager) startJoin() {
	m.joining = true
	m.joinSeq++
	t, gen, seq := m.transport, m.gen, m.joinSeq
	data := m.opts.Presence
	if data.JoinedAt.IsZero() {
		data.JoinedAt = time.Now().UTC()
		m.opts.Presence.JoinedAt = data.JoinedAt
	}
	data.IsActive = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := t.Channel(realtime.RoomChannel(m.opts.SessionID)).Presence().Enter(ctx, data)
		if err != nil {
			err = apperr.Wrap(apperr.CodeTransportUnavailable, "enter presence", err)
		}
		m.post(joinResult{gen: gen, seq: seq, err: err})
	}()
}

func (m *Manager) onLeave(reply chan error) {
	wasJoined := m.joined
	m.joined = false
	if m.joining {
		m.joining = false
		m.failJoinWaiters(errors.New("left room before join completed"))
		// An enter is in flight on the current transport; the leave is
		// answered once it settles.
		if m.transport != nil {
			m.leaveWaiters = append(m.leaveWaiters, reply)
			return
		}
	}
	if !wasJoined || m.transport == nil {
		reply <- nil
		return
	}
	t := m.transport
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		reply <- t.Channel(realtime.RoomChannel(m.opts.SessionID)).Presence().Leave(ctx)
	}()
}

// settleCancelledJoin handles the result of an enter that LeaveRoom
// cancelled. A successful enter is undone unless a newer join owns presence.
func (m *Manager) settleCancelledJoin(enterErr error) {
	waiters := m.leaveWaiters
	m.leaveWaiters = nil
	if enterErr != nil || m.joining || m.joined || m.transport == nil {
		for _, w := range waiters {
			w <- nil
		}
		return
	}
	t := m.transport
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := t.Channel(realtime.RoomChannel(m.opts.SessionID)).Presence().Leave(ctx)
		if err != nil {
			m.log.Warn("leave after cancelled join failed", "error", err)
		}
		for _, w := range waiters {
			w <- err
		}
	}()
}

func (m *Manager) failJoinWaiters(err error) {
	for _, w := range m.joinWaiters {
		w <- err
	}
	m.joinWaiters = nil
}

func (m *Manager) refreshRoster() {
	m.rosterSeq++
	seq, gen, t := m.rosterSeq, m.gen, m.transport
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		members, err := t.Channel(realtime.RoomChannel(m.opts.SessionID)).Presence().Get(ctx)
		m.post(rosterResult{gen: gen, seq: seq, members: members, err: err})
	}()
}

func (m *Manager) teardown() {
	for _, u := range m.unsubs {
		u()
	}
	m.unsubs = nil
	if m.transport != nil {
		_ = m.transport.Close()
		m.transport = nil
	}
	// Presence on a closed transport is gone, so pending leaves are done.
	for _, w := range m.leaveWaiters {
		w <- nil
	}
	m.leaveWaiters = nil
	// A joined room is re-entered once the next transport is up.
	if m.joined {
		m.joined = false
		m.joining = true
	}
	// Results from the old transport carry a stale generation.
	m.gen++
	m.rosterShown = 0
	m.rosterSeq = 0
	if m.state.Status == StatusConnecting {
		m.state.Status = StatusDisconnected
	}
}

func (m *Manager) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) shutdown() {
	m.stopTimer()
	if m.joined && m.transport != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = m.transport.Channel(realtime.RoomChannel(m.opts.SessionID)).Presence().Leave(ctx)
		cancel()
	}
	m.failJoinWaiters(realtime.ErrClosed)
	m.teardown()
	m.setState(StatusDisconnected, nil)
	close(m.events)
}

func (m *Manager) setState(status Status, err error) {
	m.state.Status = status
	m.state.Err = err
	m.publishSnapshot()
	m.emit(Event{Kind: EventState, State: m.state})
}

func (m *Manager) publishSnapshot() {
	m.snapMu.Lock()
	m.snap = m.state
	m.snapMu.Unlock()
}

// emit delivers ev without blocking the loop, except for EventFatal which
// waits for the consumer or Close.
func (m *Manager) emit(ev Event) {
	if ev.Kind == EventFatal {
		select {
		case m.events <- ev:
		case <-m.quit:
			m.log.Warn("fatal event not delivered, manager closed")
		}
		return
	}
	select {
	case m.events <- ev:
	default:
		m.log.Warn("event dropped, consumer too slow", "kind", ev.Kind)
	}
}
