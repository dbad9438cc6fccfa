package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"sentix/config"
	"sentix/credential"
	"sentix/database"
	"sentix/gemini"
	"sentix/handlers"
	"sentix/logging"
	"sentix/store"
	"sentix/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sentix:", err)
		os.Exit(1)
	}
}

func run() error {
	path, optional := os.Getenv("SENTIX_CONFIG"), false
	if path == "" {
		path, optional = config.DefaultPath, true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	if err := logging.Init(os.Stderr, cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	// Scan journal
	db, err := database.Open(cfg.Journal.DSN)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	journal := database.NewJournal(db, cfg.Journal.Limit)

	resolver := credential.NewResolver(credential.DefaultProviders(cfg.Credentials, cfg.Gemini.APIKey)...)
	client := gemini.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.Timeout)
	st := store.New(resolver, client,
		store.WithJournal(journal),
		store.WithModel(client.Model()),
	)

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(ctx, st, journal, cfg.Dashboard.PollSeconds, cfg.Journal.Limit)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: handlers.Router(h, tmpl, web.Static()),
	}

	if cfg.Dashboard.RefreshOnStart {
		st.Refresh(ctx, "")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("SENTIX listening", "addr", httpServer.Addr, "model", client.Model())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	cancel()
	st.Wait()
	return err
}
