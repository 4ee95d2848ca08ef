package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmizzell/chores/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the remote store",
	Long:  `Serve GET/POST /api/tasks backed by a SQLite file, for other devices to sync against.`,
	Args:  cobra.NoArgs,
	Run:   serveStore,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database file (default from config, chores.db)")
}

func serveStore(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	if serveAddr != "" {
		cfg.ServerAddr = serveAddr
	}
	if serveDB != "" {
		cfg.ServerDB = serveDB
	}

	store, err := server.OpenSQLite(cfg.ServerDB)
	if err != nil {
		fatal("Failed to open store: %v", err)
	}
	defer store.Close()

	gin.SetMode(gin.ReleaseMode)
	logger := log.New(os.Stderr, "chores-server: ", log.LstdFlags)

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           server.New(store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	fmt.Printf("🗄  Serving %s on %s (db: %s)\n", server.TasksPath, cfg.ServerAddr, cfg.ServerDB)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("Server failed: %v", err)
	}
}
