package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/agentpod/agentpod/internal/domain/lifecycle"
	"github.com/agentpod/agentpod/internal/infrastructure/config"
	"github.com/agentpod/agentpod/internal/infrastructure/logger"
	"github.com/agentpod/agentpod/internal/infrastructure/runtime"
	httpiface "github.com/agentpod/agentpod/internal/interfaces/http"
	"github.com/agentpod/agentpod/pkg/safego"
)

const (
	appName    = "agentpod-manager"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting agent manager",
		zap.String("name", appName),
		zap.String("version", appVersion),
		zap.Bool("azure_configured", cfg.Azure.Configured()),
		zap.String("public_host", cfg.Manager.PublicHost),
		zap.String("agent_image", cfg.Agent.Image),
	)
	if !cfg.Azure.Configured() {
		log.Warn("Azure OpenAI not configured; agent creation will be rejected until AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY are set")
	}

	rt, err := runtime.NewDocker(log)
	if err != nil {
		log.Fatal("Failed to connect to Docker", zap.Error(err))
	}

	manager := lifecycle.NewManager(lifecycle.Config{
		Image:             cfg.Agent.Image,
		InternalPort:      cfg.Agent.InternalPort,
		MemoryLimit:       cfg.Agent.MemoryLimit,
		PublicHost:        cfg.Manager.PublicHost,
		ReadinessTimeout:  cfg.Agent.ReadinessTimeout,
		ReadinessInterval: cfg.Agent.ReadinessInterval,
		HealthTimeout:     cfg.Agent.HealthTimeout,
		ChatTimeout:       cfg.Agent.ChatTimeout,
		MaxTokens:         cfg.Agent.MaxTokens,
		Temperature:       cfg.Agent.Temperature,
		AzureEndpoint:     cfg.Azure.Endpoint,
		AzureAPIKey:       cfg.Azure.APIKey,
		AzureAPIVersion:   cfg.Azure.APIVersion,
		AzureDeployment:   cfg.Azure.Deployment,
		OpenAIAPIKey:      cfg.OpenAI.APIKey,
		OpenAIModel:       cfg.OpenAI.Model,
	}, rt, log)

	server := httpiface.NewServer(httpiface.Config{
		Host:        cfg.Manager.Host,
		Port:        cfg.Manager.Port,
		Mode:        cfg.Manager.Mode,
		CORSOrigins: cfg.CORS.Origins,
	}, manager, log)

	safego.Go(log, "http-listener", func() {
		if err := server.Start(); err != nil {
			log.Error("HTTP server error", zap.Error(err))
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Manager stopped")
}
