// Command seed loads a YAML quiz catalog into the database and prints a
// controller token for the owner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pinkknives/skolapp-v3-sub001/internal/catalog"
	"github.com/pinkknives/skolapp-v3-sub001/internal/config"
	"github.com/pinkknives/skolapp-v3-sub001/internal/database"
	"github.com/pinkknives/skolapp-v3-sub001/internal/logger"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

func main() {
	var (
		file  string
		owner string
	)
	flag.StringVar(&file, "file", "", "path to the quiz catalog (YAML)")
	flag.StringVar(&owner, "owner", "teacher-1", "controller id owning quizzes without an explicit owner")
	flag.Parse()

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -file quizzes.yaml [-owner id]")
		os.Exit(2)
	}
	if err := run(file, owner); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(file, owner string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Service: "quiz-seed", Version: cfg.Version, Env: logger.ParseEnv(cfg.LogEnv), Level: logger.ParseLevel(cfg.LogLevel)})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fh.Close()
	doc, err := catalog.Parse(fh)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	quizzes, err := catalog.Import(ctx, store.New(db), doc, owner)
	if err != nil {
		return err
	}

	auth := services.NewAuthService(cfg.JWTSecret, cfg.ParticipantTTL)
	tokens := map[string]string{}
	for _, q := range quizzes {
		slog.Info("quiz seeded", "quiz_id", q.ID, "title", q.Title, "owner", q.OwnerID, "questions", len(q.Questions))
		if _, ok := tokens[q.OwnerID]; ok {
			continue
		}
		token, err := auth.IssueControllerToken(q.OwnerID)
		if err != nil {
			return err
		}
		tokens[q.OwnerID] = token
		fmt.Printf("%s\t%s\n", q.OwnerID, token)
	}
	return nil
}
