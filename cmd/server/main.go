package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tryon-studio/internal/app"
)

func main() {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "config.yaml", "path to the YAML config file")
	flag.StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")
	flag.IntVar(&opts.Port, "port", 0, "listen port (overrides config and PORT)")
	flag.Parse()

	components, err := app.Bootstrap(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start:", err)
		os.Exit(1)
	}
	logger := components.Logger
	defer logger.Sync()
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunServer(ctx, components); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
