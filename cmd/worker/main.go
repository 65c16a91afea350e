// Package main runs the background email worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mataleao/backend/config"
	"github.com/mataleao/backend/internal/worker"
	"github.com/mataleao/backend/pkg/mailer"
	"github.com/mataleao/backend/pkg/queue"
	"github.com/mataleao/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var mail mailer.Mailer
	if cfg.Email.APIKey != "" {
		mail = mailer.NewSendGrid(cfg.Email.APIKey, cfg.Email.FromName, cfg.Email.FromAddress, logger)
	} else {
		logger.Warn("no email API key configured, using noop mailer")
		mail = mailer.NewNoop(logger)
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(mail, jobQueue, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker")
		cancel()
	}()

	logger.Info("worker started", zap.String("queue", queue.QueueEmails))
	processor.Run(ctx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
