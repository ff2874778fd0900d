package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brightlyhq/brightly/internal/adapters/driven/remote/local"
	"github.com/brightlyhq/brightly/internal/adapters/driving/httpapi"
	"github.com/brightlyhq/brightly/internal/logger"
)

var serveRefresh bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Starts the assistant HTTP server: the /ask endpoint, the
document management API and the dashboard static files.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveRefresh, "refresh", false, "force an index rebuild on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	refresh := serveRefresh || cfg.GetBool("server.refresh_on_startup")
	if err := assistant.Init(ctx, refresh); err != nil {
		logger.Warn("startup refresh failed: %v", err)
	}

	// A directory-backed store can watch for edits made outside the
	// API and fold them into the index.
	if watcher, ok := remote.(*local.Store); ok {
		err := watcher.Watch(func() {
			if err := index.Refresh(context.Background(), false); err != nil {
				logger.Warn("refresh after document change failed: %v", err)
			}
		})
		if err != nil {
			logger.Warn("document watcher unavailable: %v", err)
		}
	}

	origins := cfg.GetStringSlice("server.allowed_origins")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	server := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.GetString("server.addr"),
		AllowedOrigins: origins,
		StaticDirs:     []string{"img", "css", "dist"},
	}, assistant, index, remote, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-stop:
		cmd.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}
