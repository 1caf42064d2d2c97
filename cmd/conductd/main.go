// Package main runs the conductd server: the Conduct engine plus its HTTP
// API, backed by MongoDB when configured and the in-memory store otherwise.
//
// Configuration is read from the environment:
//
//	CONDUCT_ADDR           HTTP listen address (default ":5000")
//	CONDUCT_MONGO_URI      MongoDB connection string (empty: in-memory store)
//	CONDUCT_MONGO_DB       MongoDB database name (default "conduct")
//	CONDUCT_INFERENCE_URL  base URL of the inference service (empty: proxy off)
//	CONDUCT_STATIC_DIR     directory with the front-end assets (empty: off)
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/conduct"
	"github.com/xraph/conduct/api"
	"github.com/xraph/conduct/capability/echo"
	"github.com/xraph/conduct/capability/httpcall"
	"github.com/xraph/conduct/engine"
	"github.com/xraph/conduct/store"
	"github.com/xraph/conduct/store/memory"
	"github.com/xraph/conduct/store/mongo"
	"github.com/xraph/conduct/stream"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	addr := envOr("CONDUCT_ADDR", ":5000")
	inferenceURL := os.Getenv("CONDUCT_INFERENCE_URL")
	staticDir := os.Getenv("CONDUCT_STATIC_DIR")

	ctx := context.Background()

	s, err := openStore(ctx, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			logger.Error("store close error", slog.String("error", closeErr.Error()))
		}
	}()

	opts := []conduct.Option{
		conduct.WithStore(s),
		conduct.WithLogger(logger),
	}
	if inferenceURL != "" {
		opts = append(opts, conduct.WithInferenceURL(inferenceURL))
	}
	if staticDir != "" {
		opts = append(opts, conduct.WithStaticDir(staticDir))
	}

	c, err := conduct.New(opts...)
	if err != nil {
		logger.Error("failed to create conductor", slog.String("error", err.Error()))
		os.Exit(1)
	}

	broker := stream.NewBroker(logger)
	eng, err := engine.Build(c, engine.WithStreamBroker(broker))
	if err != nil {
		logger.Error("failed to build engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	eng.RegisterCapability("echo", "records its input and succeeds", echo.Factory)
	eng.RegisterCapability("httpcall", "performs GET or POST requests against a URL", httpcall.Factory)

	if err := c.Start(ctx); err != nil {
		logger.Error("failed to start conductor", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.New(eng, nil).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("conductd listening", slog.String("addr", addr))
		if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("http server error", slog.String("error", serveErr.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if err := c.Stop(shutdownCtx); err != nil {
		logger.Error("conductor shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("goodbye")
}

// openStore selects Mongo when CONDUCT_MONGO_URI is set, otherwise the
// in-memory backend, and migrates the chosen backend.
func openStore(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	uri := os.Getenv("CONDUCT_MONGO_URI")
	if uri == "" {
		logger.Info("using in-memory store")
		return memory.New(), nil
	}

	client, err := mongod.Connect(mongoopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	db := envOr("CONDUCT_MONGO_DB", "conduct")
	s := mongo.New(client, db, mongo.WithLogger(logger))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}

	logger.Info("using mongo store", slog.String("database", db))
	return s, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
