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

	"github.com/aretw0/nala"
	"github.com/aretw0/nala/internal/presentation/tui"
	"github.com/aretw0/nala/pkg/adapters/file"
	httpAdapter "github.com/aretw0/nala/pkg/adapters/http"
	redisAdapter "github.com/aretw0/nala/pkg/adapters/redis"
	"github.com/aretw0/nala/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP API",
	Long: `Serves the lattice and its exports as a read-only JSON API.

Exported decks are cached in memory, in --cache-dir, or in Redis when
NALA_REDIS_ADDR is set. With Redis, replicas share the cache and never
render the same deck twice. The lattice is reloaded when its files change
and clients of /events are notified.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := latticePath(cmd, args)
		port, _ := cmd.Flags().GetString("port")
		watch, _ := cmd.Flags().GetBool("watch")
		logger := slog.Default()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics := observability.NewMetrics()
		opts := []nala.Option{nala.WithMetrics(metrics)}

		if addr := os.Getenv("NALA_REDIS_ADDR"); addr != "" {
			ttl, _ := cmd.Flags().GetDuration("deck-ttl")
			store := redisAdapter.New(addr, os.Getenv("NALA_REDIS_PASSWORD"), 0, redisAdapter.WithTTL(ttl))
			defer store.Close()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("redis %s unreachable: %w", addr, err)
			}
			opts = append(opts,
				nala.WithStore(store),
				nala.WithLocker(redisAdapter.NewLocker(store.Client(), redisAdapter.DefaultPrefix)),
			)
			logger.Info("caching decks in redis", "addr", addr, "ttl", ttl)
		} else if cacheDir := flagString(cmd, "cache-dir"); cacheDir != "" {
			opts = append(opts, nala.WithStore(file.NewStore(cacheDir)))
			logger.Info("caching decks on disk", "dir", cacheDir)
		}

		machine, err := openMachine(cmd, dir, opts...)
		if err != nil {
			return err
		}

		srv := httpAdapter.NewServer(machine,
			httpAdapter.WithMetrics(metrics.Handler()),
			httpAdapter.WithVersion(nala.Version),
			httpAdapter.WithLogger(logger),
		)

		if watch {
			revisions, err := machine.Watch(ctx)
			if err != nil {
				logger.Warn("hot reload disabled", "err", err)
			} else {
				go func() {
					for rev := range revisions {
						logger.Info("lattice reloaded", "revision", rev, "elements", machine.Model().Len())
						srv.NotifyReload(rev)
					}
				}()
			}
		}

		httpServer := &http.Server{
			Addr:              ":" + port,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if isTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr, nala.Version)
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Nala Server", "address", httpServer.Addr, "lattice", dir)
			serverErrors <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				if err := httpServer.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Nala Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("watch", true, "Reload the lattice when its files change")
	serveCmd.Flags().String("cache-dir", "", "Directory to cache exported decks in (memory if empty)")
	serveCmd.Flags().Duration("deck-ttl", 24*time.Hour, "Expiry of decks cached in Redis (0 keeps them)")
}
