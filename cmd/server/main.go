package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"intake-agent/internal/config"
	"intake-agent/internal/core"
	"intake-agent/internal/db"
	httpapi "intake-agent/internal/http"
	"intake-agent/internal/llm"
	"intake-agent/internal/store"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	if cfg.Environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sessions core.SessionStore
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("database connection failed")
		}
		defer conn.Close()
		if err := db.Migrate(ctx, conn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		sessions = db.NewRepo(conn)
		log.Info("using postgres session store")
	} else {
		sessions = store.NewMemory(cfg.SessionTTL)
		log.Warn("DATABASE_URL not set, using in-memory session store")
	}

	client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		log.WithError(err).Fatal("llm client setup failed")
	}
	gen := llm.WithRetry(client, cfg.LLMRetries, cfg.LLMBackoff, cfg.LLMTimeout)

	orch := core.NewOrchestrator(sessions, gen, log, core.Options{
		TurnCap:             cfg.TurnCap,
		CompletionThreshold: cfg.CompletionThreshold,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewServer(orch, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("intake agent listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown incomplete")
	}
}
