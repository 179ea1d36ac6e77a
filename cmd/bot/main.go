// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/bot"
	"github.com/rovshanmuradov/token-sniper/internal/config"
	"github.com/rovshanmuradov/token-sniper/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := "configs/config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.DebugLogging)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting sniper bot")

	runner, err := bot.NewRunner(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize bot", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		log.Fatal("Bot execution error", zap.Error(err))
	}
}
