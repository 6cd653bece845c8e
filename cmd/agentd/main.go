package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/infrastructure/config"
	"github.com/agentpod/agentpod/internal/infrastructure/logger"
	"github.com/agentpod/agentpod/internal/interfaces/agenthttp"
	"github.com/agentpod/agentpod/pkg/safego"
)

func main() {
	cfg, err := config.LoadUnit()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load unit configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:      cfg.LogLevel,
		Format:     "json",
		OutputPath: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log = log.With(zap.String("agent_id", cfg.AgentID))

	server, err := agenthttp.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to build agent server", zap.Error(err))
	}

	safego.Go(log, "agent-listener", func() {
		if err := server.Start(); err != nil {
			log.Error("Agent server error", zap.Error(err))
			os.Exit(1)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Stop(shutdownCtx)
}
