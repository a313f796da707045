// Command kvstore runs a single-process, sharded key-value store: an HTTP
// server in front of one or more partitions, each with its own in-memory
// index, LRU cache, and write-ahead log.
//
// Configuration is layered CLI flags over environment variables (KVSTORE_
// prefix) over defaults; see internal/config.
//
//	kvstore serve --port 8080 --data-dir /var/lib/kvstore --cache-size 1000
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dreamware/kvstore/internal/config"
	"github.com/dreamware/kvstore/internal/engine"
	"github.com/dreamware/kvstore/internal/httpapi"
	"github.com/dreamware/kvstore/internal/logging"
	"github.com/dreamware/kvstore/internal/metrics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "kvstore",
		Short: "Sharded persistent key-value store",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(v)
		},
	}

	flags := serve.Flags()
	flags.Uint16("port", 8080, "HTTP server port")
	flags.String("bind-address", "127.0.0.1", "HTTP server bind address")
	flags.String("data-dir", "/tmp/kv_store", "Data directory for persistence")
	flags.Int("cache-size", 1000, "LRU cache size per partition")
	flags.Int("partitions", 8, "Number of partitions")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log format (json or text)")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(serve)
	return root
}

func runServe(v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting kvstore",
		"port", cfg.Port,
		"bind_address", cfg.BindAddress,
		"data_dir", cfg.DataDir,
		"cache_size", cfg.CacheSize,
		"partitions", cfg.Partitions,
	)

	eng, err := engine.New(engine.Config{
		DataDir:    cfg.DataDir,
		CacheSize:  cfg.CacheSize,
		Partitions: cfg.Partitions,
		QueueDepth: 256,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := eng.Start(startCtx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	collector := metrics.New(eng)
	srv := httpapi.New(eng, collector)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", "error", err)
	}
	eng.Stop(shutdownCtx)
	logger.Info("stopped")
	return nil
}
