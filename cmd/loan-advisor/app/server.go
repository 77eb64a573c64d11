// Package app provides the loan advisor server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"
	"github.com/spf13/viper"

	"github.com/kart-io/loan-advisor/cmd/loan-advisor/app/options"
	"github.com/kart-io/loan-advisor/internal/advisor"
	"github.com/kart-io/loan-advisor/pkg/infra/app"
	logopts "github.com/kart-io/loan-advisor/pkg/options/logger"
)

// commandDesc is the description of the command.
const commandDesc = `Loan Advisor Service

Serves a catalog of loan products and an AI assistant grounded on them.

This server provides:
  - Product listing with eligibility filters and feature badges
  - A featured listing and per-product detail
  - AI chat about a single product, backed by Gemini or OpenAI
  - Catalog storage on SQLite, PostgreSQL, MySQL or MongoDB with an optional Redis cache`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(advisor.Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
		app.WithConfigWatcher(reloadLogLevel),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}

// reloadLogLevel 配置文件变更后只热更新日志级别，其余配置需要重启生效。
func reloadLogLevel(v *viper.Viper) {
	level := v.GetString("log.level")
	if level == "" {
		return
	}
	if err := logopts.ApplyLevel(level); err != nil {
		logger.Warnw("ignoring invalid log level", "level", level, "error", err.Error())
		return
	}
	logger.Infow("Log level reloaded", "level", level)
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
