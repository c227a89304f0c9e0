package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docstreamio/docstream/api/handlers"
	"github.com/docstreamio/docstream/api/routes"
	"github.com/docstreamio/docstream/config"
	"github.com/docstreamio/docstream/internal/ingest"
	"github.com/docstreamio/docstream/internal/store/redisstore"
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

	blobs, err := storage.New(storage.Type(conf.Storage.Backend), log)
	if err != nil {
		log.Fatal("Failed to initialize blob storage", logger.Error(err))
	}

	docStore := redisstore.New(&redisstore.Config{
		Addr: conf.Redis.Addr,
		DB:   conf.Redis.DB,
	})
	defer docStore.Close()

	ingestService := ingest.NewService(docStore, blobs, log, conf.Storage.UploadTTL)

	h := handlers.NewHandlers(ingestService, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    conf.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", conf.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
