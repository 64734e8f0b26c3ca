// Command client joins a session and prints its realtime events. It speaks
// the same websocket transport and Connection Manager a browser client uses.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pinkknives/skolapp-v3-sub001/internal/connection"
	"github.com/pinkknives/skolapp-v3-sub001/internal/logger"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
	"github.com/pinkknives/skolapp-v3-sub001/internal/ws"
)

type options struct {
	server    string
	code      string
	name      string
	token     string
	sessionID uint
	attempts  int
}

func main() {
	var o options
	flag.StringVar(&o.server, "server", "http://localhost:8080", "API base URL")
	flag.StringVar(&o.code, "code", "", "join code (participant mode)")
	flag.StringVar(&o.name, "name", "", "display name (participant mode)")
	flag.StringVar(&o.token, "token", "", "controller token, or with -code a saved token to rejoin as the same participant")
	flag.UintVar(&o.sessionID, "session", 0, "session id (controller mode)")
	flag.IntVar(&o.attempts, "max-reconnects", 5, "reconnect attempts before giving up")
	flag.Parse()

	logger.Init(logger.Config{Service: "quiz-client", Env: logger.EnvDev})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	presence := realtime.PresenceData{Role: realtime.RoleController, DisplayName: "controller", IsActive: true}
	switch {
	case o.code != "" && o.name != "":
		joined, err := join(ctx, o)
		if err != nil {
			return err
		}
		o.token, o.sessionID = joined.Token, joined.Participant.SessionID
		presence = realtime.PresenceData{
			Role:          realtime.RoleParticipant,
			DisplayName:   joined.Participant.DisplayName,
			ParticipantID: joined.Participant.ID,
			IsActive:      true,
		}
		slog.Info("joined", "session_id", o.sessionID, "participant_id", joined.Participant.ID)
	case o.token != "" && o.sessionID != 0:
	default:
		return errors.New("pass -code and -name to join, or -token and -session to watch as controller")
	}
	presence.JoinedAt = time.Now().UTC()

	wsURL, err := socketURL(o.server, o.sessionID)
	if err != nil {
		return err
	}
	mgr := connection.New(ws.Dialer{URL: wsURL, Token: o.token}, connection.Options{
		SessionID:            o.sessionID,
		Presence:             presence,
		MaxReconnectAttempts: o.attempts,
	})
	defer mgr.Close()

	go func() {
		if err := mgr.JoinRoom(ctx); err != nil {
			slog.Warn("join room failed", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			leaveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = mgr.LeaveRoom(leaveCtx)
			cancel()
			return ctx.Err()
		case ev, ok := <-mgr.Events():
			if !ok {
				return nil
			}
			if err := printEvent(ev); err != nil {
				return err
			}
		}
	}
}

func printEvent(ev connection.Event) error {
	switch ev.Kind {
	case connection.EventState:
		slog.Info("connection", "status", ev.State.Status, "attempts", ev.State.ReconnectAttempts)
	case connection.EventRoster:
		names := make([]string, 0, len(ev.Roster))
		for _, m := range ev.Roster {
			names = append(names, m.Data.DisplayName)
		}
		slog.Info("roster", "members", strings.Join(names, ", "))
	case connection.EventFatal:
		return ev.Err
	default:
		slog.Info(string(ev.Kind), "event", ev.Message.Event, "data", string(ev.Message.Data))
	}
	return nil
}

type joinResponse struct {
	Participant struct {
		ID          uint   `json:"id"`
		SessionID   uint   `json:"session_id"`
		DisplayName string `json:"display_name"`
	} `json:"participant"`
	Token string `json:"token"`
}

func join(ctx context.Context, o options) (*joinResponse, error) {
	body, _ := json.Marshal(map[string]string{"code": o.code, "display_name": o.name})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.server, "/")+"/api/v1/sessions/join", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, fmt.Errorf("join: %s: %s", e.Error.Code, e.Error.Message)
	}
	var out joinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode join response: %w", err)
	}
	return &out, nil
}

func socketURL(server string, sessionID uint) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("%s/ws/session/%d", strings.TrimRight(u.Path, "/"), sessionID)
	return u.String(), nil
}
