package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/events"
	"budget/internal/kafka"
	"budget/internal/log"
	"budget/internal/worker"
)

type consumer interface {
	ConsumeLedgerSaved(ctx context.Context, handler func(context.Context, *events.LedgerSavedMessage) error) error
	Close() error
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting budget-worker")

	cfg := config.Load()
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	var c consumer
	switch cfg.NotifyBackend {
	case config.NotifyAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		c = client
	case config.NotifyKafka:
		c = kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	}
	defer c.Close()

	archiver := worker.NewArchiver(cfg.ArchiveDir)
	logger.Info("Archiving saved ledgers", "archive_dir", cfg.ArchiveDir, log.FieldBackend, cfg.NotifyBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.ConsumeLedgerSaved(gctx, archiver.HandleLedgerSaved)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
