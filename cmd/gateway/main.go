package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"

	"github.com/microshop/graphql-gateway/pkg/config"
	"github.com/microshop/graphql-gateway/pkg/server"
)

func logger() log.Logger {
	zapLogger, err := zap.NewProductionConfig().Build()
	if err != nil {
		panic(err)
	}
	return log.NewZapLogger(zapLogger, log.InfoLevel)
}

func main() {
	logger := logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", log.Error(err))
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("build server", log.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Gateway ready on http://localhost:%d/graphql\n", cfg.Port)
	fmt.Printf("Health check: http://localhost:%d/health\n", cfg.Port)

	if err := srv.Run(ctx); err != nil {
		logger.Error("gateway stopped", log.Error(err))
		os.Exit(1)
	}
}
