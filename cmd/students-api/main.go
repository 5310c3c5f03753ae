// main is the entry point of the Students API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the student store (memory or sqlite)
//  4. Load the OpenAPI document
//  5. Build the router and start the HTTP server in a goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/cantine-students-api/internal/config"
	"github.com/aanand-mishra/cantine-students-api/internal/http/handlers/docs"
	"github.com/aanand-mishra/cantine-students-api/internal/http/router"
	"github.com/aanand-mishra/cantine-students-api/internal/storage"
	"github.com/aanand-mishra/cantine-students-api/internal/storage/memory"
	"github.com/aanand-mishra/cantine-students-api/internal/storage/sqlite"
	"github.com/aanand-mishra/cantine-students-api/internal/types"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	store, err := openStorage(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("type", cfg.Storage.Type),
		slog.String("path", cfg.Storage.Path))

	spec, err := docs.Load(serverURL(cfg.HTTPServer.Addr))
	if err != nil {
		log.Error("failed to load api docs",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router.New(cfg, store, spec, log),

		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and main
	// waits for a signal below.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
	}

	if err := store.Close(); err != nil {
		log.Error("failed to close storage",
			slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
}

// openStorage picks the backend named in the config.
func openStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case config.StorageSQLite:
		s, err := sqlite.New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageMemory:
		var seed []types.Student
		if !cfg.Storage.SkipSeed {
			seed = storage.SeedStudents()
		}
		m, err := memory.New(seed)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// serverURL turns a listen address into the URL advertised in the API
// docs. Addresses without a host (":1227") advertise localhost.
func serverURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
