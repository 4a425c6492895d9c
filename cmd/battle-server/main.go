package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pikapi/internal/modules/battle"
	"pikapi/internal/pkg/config"
	"pikapi/internal/pkg/log"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  Pikapi Battle Server")
	fmt.Println("  Version: 1.0.0")
	fmt.Println("==============================================")
	fmt.Println()

	cfg, err := config.LoadBattleConfig()
	if err != nil {
		fmt.Printf("[Main] Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.ParseLevel(cfg.LogLevel), cfg.Environment)
	logger := log.GetLogger()
	logger.Info("[Main] Configuration loaded", "config", cfg.LogFields())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	module := battle.NewModule(cfg, logger)
	if err := module.Init(ctx); err != nil {
		logger.Error("[Main] Failed to initialize battle module", err)
		_ = module.Shutdown(context.Background())
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- module.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("[Main] Shutting down...")
	case err := <-serveErr:
		if err != nil {
			logger.Error("[Main] HTTP server error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := module.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Main] Shutdown finished with errors", err)
		os.Exit(1)
	}
}
