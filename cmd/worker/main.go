package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/docstreamio/docstream/config"
	"github.com/docstreamio/docstream/internal/engines/comprehendentities"
	"github.com/docstreamio/docstream/internal/engines/textractocr"
	"github.com/docstreamio/docstream/internal/pipeline"
	"github.com/docstreamio/docstream/internal/store/redisstore"
	"github.com/docstreamio/docstream/internal/trigger"
	"github.com/docstreamio/docstream/pkg/events"
	"github.com/docstreamio/docstream/pkg/logger"
	"github.com/docstreamio/docstream/pkg/storage"
)

func main() {
	conf := config.Get()

	outputs := []string{"stdout"}
	if conf.Log.Path != "" {
		outputs = append(outputs, conf.Log.Path)
	}
	log, err := logger.NewLogger(
		logger.WithLevel(conf.Log.Level),
		logger.WithEncoding("json"),
		logger.WithOutputPaths(outputs),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	docStore := redisstore.New(&redisstore.Config{
		Addr: conf.Redis.Addr,
		DB:   conf.Redis.DB,
	})
	defer docStore.Close()

	bus := events.NewAsynqBus(&events.AsynqConfig{
		RedisAddr:   conf.Redis.Addr,
		RedisDB:     conf.Redis.DB,
		Concurrency: conf.Pipeline.Concurrency,
		MaxRetry:    conf.Pipeline.MaxRetry,
	}, log)
	defer bus.Close()

	ocr, err := textractocr.New(ctx, log)
	if err != nil {
		log.Error("Failed to create OCR engine", logger.Error(err))
		os.Exit(1)
	}
	entityEngine, err := comprehendentities.New(ctx, log)
	if err != nil {
		log.Error("Failed to create entity engine", logger.Error(err))
		os.Exit(1)
	}

	pipe := pipeline.New(docStore, bus, ocr, entityEngine, log, &pipeline.Config{
		ExtractionTimeout:     conf.Pipeline.ExtractionTimeout,
		ClassificationTimeout: conf.Pipeline.ClassificationTimeout,
		SummarizationTimeout:  conf.Pipeline.SummarizationTimeout,
	})
	pipe.Register(bus)

	blobs, err := storage.New(storage.Type(conf.Storage.Backend), log)
	if err != nil {
		log.Error("Failed to initialize blob storage", logger.Error(err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.Run(gctx)
	})

	if listener, ok := blobs.(trigger.Listener); ok {
		arrival := trigger.New(bus, log)
		g.Go(func() error {
			return arrival.Run(gctx, listener)
		})
	} else {
		log.Warn("Storage backend does not push notifications; arrival trigger disabled",
			logger.String("backend", conf.Storage.Backend))
	}

	log.Info("Worker started")
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("Worker stopped", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker stopped")
}
