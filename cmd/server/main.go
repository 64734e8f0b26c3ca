package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/pinkknives/skolapp-v3-sub001/docs"
	"github.com/pinkknives/skolapp-v3-sub001/internal/config"
	"github.com/pinkknives/skolapp-v3-sub001/internal/database"
	"github.com/pinkknives/skolapp-v3-sub001/internal/handlers"
	"github.com/pinkknives/skolapp-v3-sub001/internal/logger"
	"github.com/pinkknives/skolapp-v3-sub001/internal/realtime"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
	"github.com/pinkknives/skolapp-v3-sub001/internal/telemetry"
	"github.com/pinkknives/skolapp-v3-sub001/internal/ws"
)

// @title           Quiz Session API
// @version         1.0
// @description     Synchronized quiz sessions: control, answers, summaries and the realtime websocket transport
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{
		Service:     "quiz-sessions",
		Version:     cfg.Version,
		Env:         logger.ParseEnv(cfg.LogEnv),
		Backend:     logger.Backend(cfg.LogBackend),
		Level:       logger.ParseLevel(cfg.LogLevel),
		AddSource:   cfg.LogAddSource,
		SampleFirst: cfg.LogSampleFirst,
		SampleEvery: cfg.LogSampleEvery,
	})
	if logger.ParseEnv(cfg.LogEnv) != logger.EnvDev {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:     cfg.TraceEnabled,
		ServiceName: "quiz-sessions",
		Version:     cfg.Version,
		Endpoint:    cfg.TraceEndpoint,
		Stdout:      cfg.TraceStdout,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		slog.Error("tracing", "err", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database", "err", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		slog.Error("database", "err", err)
		os.Exit(1)
	}
	st := store.New(db)

	broker := realtime.NewBroker()
	authService := services.NewAuthService(cfg.JWTSecret, cfg.ParticipantTTL)
	sessionService := services.NewSessionService(st, broker, cfg.ControlRetries)
	participantService := services.NewParticipantService(st, broker, cfg.MaxParticipants)
	answerService := services.NewAnswerService(st, participantService, broker, cfg.EnforceQuestionWindow)
	summaryService := services.NewSummaryService(st)
	wsServer := ws.NewServer(broker, participantService, cfg.WSPingInterval)

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:    authService,
		Session: handlers.NewSessionHandler(sessionService, participantService, summaryService),
		Answer:  handlers.NewAnswerHandler(answerService, authService),
		Join:    handlers.NewParticipantHandler(participantService, authService),
		Quiz:    handlers.NewQuizHandler(st),
		WS:      handlers.NewWSHandler(wsServer, authService, sessionService),
		Health:  handlers.NewHealthHandler(db, cfg.Version),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepPresence(ctx, participantService, cfg.HeartbeatTimeout)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("flush traces", "err", err)
	}
	slog.Info("stopped")
}

// sweepPresence marks participants whose websocket went silent as disconnected.
func sweepPresence(ctx context.Context, participants *services.ParticipantService, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := participants.SweepStale(ctx, timeout)
			if err != nil {
				slog.Warn("presence sweep failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("presence sweep", "disconnected", n)
			}
		}
	}
}
