package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wlfogle/mediafetch/api"
	"github.com/wlfogle/mediafetch/internal/app"
	"github.com/wlfogle/mediafetch/internal/domain"
	"github.com/wlfogle/mediafetch/internal/infrastructure"
	"github.com/wlfogle/mediafetch/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

// The standalone server exposes the persisted acquisition history and
// health. Live run stats and metrics belong to the acquiring process
// and are served by the CLI's --listen flag, so those routes are left
// unregistered here.
func main() {
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var history domain.HistoryRepository
	if cfg.History.Enabled {
		repo, err := infrastructure.NewSQLiteHistoryRepository(cfg.History.DatabasePath)
		if err != nil {
			log.Fatal("Failed to open history database", zap.Error(err))
		}
		defer repo.Close()
		history = repo
	}

	router := api.NewRouter(nil, history, nil, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("Status server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}
