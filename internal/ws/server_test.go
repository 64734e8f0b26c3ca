package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/connection"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
)

type fakeTracker struct {
	mu     sync.Mutex
	status map[uint]string
}

func newFakeTracker() *fakeTracker { return &fakeTracker{status: make(map[uint]string)} }

func (f *fakeTracker) set(id uint, s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id] = s
	return nil
}

func (f *fakeTracker) get(id uint) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status[id]
}

func (f *fakeTracker) MarkActive(_ context.Context, _, id uint) error { return f.set(id, "active") }
func (f *fakeTracker) MarkDisconnected(_ context.Context, _, id uint) error {
	return f.set(id, "disconnected")
}
func (f *fakeTracker) Touch(context.Context, uint, uint) error { return nil }

type testEnv struct {
	broker  *realtime.Broker
	tracker *fakeTracker
	srv     *httptest.Server
}

func newTestEnv(t *testing.T, peer Peer) *testEnv {
	t.Helper()
	env := &testEnv{broker: realtime.NewBroker(), tracker: newFakeTracker()}
	s := NewServer(env.broker, env.tracker, time.Second)
	env.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Serve(w, r, peer)
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) dialer() Dialer {
	return Dialer{URL: "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/session/1"}
}

func (e *testEnv) dial(t *testing.T) realtime.Transport {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tr, err := e.dialer().Dial(ctx)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var alice = Peer{Role: realtime.RoleParticipant, Subject: "7", SessionID: 1, ParticipantID: 7, DisplayName: "Alice"}

func TestClientReceivesBroadcast(t *testing.T) {
	env := newTestEnv(t, alice)
	tr := env.dial(t)
	if tr.ClientID() == "" {
		t.Fatal("expected client id from welcome frame")
	}

	got := make(chan realtime.Message, 1)
	if _, err := tr.Channel(realtime.ControlChannel(1)).Subscribe(realtime.EventControl, func(m realtime.Message) { got <- m }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := env.broker.Publish(context.Background(), realtime.ControlChannel(1), realtime.EventControl, map[string]string{"type": "start"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case m := <-got:
		var payload map[string]string
		if err := m.Decode(&payload); err != nil || payload["type"] != "start" {
			t.Fatalf("payload = %v, err = %v", payload, err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
	}
}

func TestPresenceIsPinnedToToken(t *testing.T) {
	env := newTestEnv(t, alice)
	tr := env.dial(t)
	ctx := context.Background()
	room := tr.Channel(realtime.RoomChannel(1))

	err := room.Presence().Enter(ctx, realtime.PresenceData{Role: realtime.RoleController, DisplayName: "Mallory", ParticipantID: 99, IsActive: true})
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	members, err := room.Presence().Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("members = %+v", members)
	}
	d := members[0].Data
	if d.Role != realtime.RoleParticipant || d.DisplayName != "Alice" || d.ParticipantID != 7 {
		t.Fatalf("presence data not pinned to identity: %+v", d)
	}
	if env.tracker.get(7) != "active" {
		t.Fatalf("tracker status = %q", env.tracker.get(7))
	}

	_ = tr.Close()
	eventually(t, func() bool { return env.tracker.get(7) == "disconnected" }, "participant never marked disconnected")
	eventually(t, func() bool { return len(env.broker.Members(realtime.RoomChannel(1))) == 0 }, "presence not cleared on close")
}

func TestServerRejectsForeignChannelsAndControlPublish(t *testing.T) {
	env := newTestEnv(t, alice)
	tr := env.dial(t)
	ctx := context.Background()

	if _, err := tr.Channel(realtime.ControlChannel(2)).Subscribe("", func(realtime.Message) {}); err == nil {
		t.Fatal("expected subscribe to another session to fail")
	}
	if err := tr.Channel(realtime.ControlChannel(1)).Publish(ctx, realtime.EventControl, map[string]string{"type": "end"}); err == nil {
		t.Fatal("expected control publish to be rejected")
	}
	if err := tr.Channel(realtime.RoomChannel(1)).Publish(ctx, "wave", map[string]string{"from": "alice"}); err != nil {
		t.Fatalf("room publish: %v", err)
	}
}

func TestPresenceEventsReachSubscribers(t *testing.T) {
	env := newTestEnv(t, alice)
	tr := env.dial(t)

	events := make(chan realtime.PresenceEvent, 4)
	if _, err := tr.Channel(realtime.RoomChannel(1)).Presence().Subscribe(func(ev realtime.PresenceEvent) { events <- ev }); err != nil {
		t.Fatalf("presence subscribe: %v", err)
	}

	other := env.broker.Connect("other")
	if err := other.Channel(realtime.RoomChannel(1)).Presence().Enter(context.Background(), realtime.PresenceData{DisplayName: "Bob"}); err != nil {
		t.Fatalf("enter: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Action != realtime.PresenceEnter || ev.Member.ClientID != "other" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no presence event")
	}
}

func TestManagerOverWebsocketReconnects(t *testing.T) {
	env := newTestEnv(t, alice)
	m := connection.New(env.dialer(), connection.Options{
		SessionID: 1,
		Presence:  realtime.PresenceData{Role: realtime.RoleParticipant, DisplayName: "Alice"},
		BaseDelay: 10 * time.Millisecond,
	})
	defer m.Close()

	if err := m.JoinRoom(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}
	eventually(t, func() bool { return len(env.broker.Members(realtime.RoomChannel(1))) == 1 }, "member not present")
	first := env.broker.Members(realtime.RoomChannel(1))[0].ClientID

	env.broker.Drop(first, errors.New("server restart"))
	eventually(t, func() bool {
		members := env.broker.Members(realtime.RoomChannel(1))
		return len(members) == 1 && members[0].ClientID != first
	}, "member did not come back after reconnect")
	eventually(t, func() bool { return m.State().Status == connection.StatusConnected }, "manager not connected")
}

func TestClientErrorsCarryTransportCode(t *testing.T) {
	env := newTestEnv(t, alice)
	tr := env.dial(t)
	_ = tr.Close()

	err := tr.Channel(realtime.RoomChannel(1)).Publish(context.Background(), "wave", nil)
	if !apperr.HasCode(err, apperr.CodeTransportUnavailable) {
		t.Fatalf("publish after close = %v, want %s", err, apperr.CodeTransportUnavailable)
	}
	if !errors.Is(err, realtime.ErrClosed) {
		t.Fatalf("publish after close should wrap ErrClosed, got %v", err)
	}

	d := env.dialer()
	env.srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := d.Dial(ctx); !apperr.HasCode(err, apperr.CodeTransportUnavailable) {
		t.Fatalf("dial to stopped server = %v, want %s", err, apperr.CodeTransportUnavailable)
	}
}
