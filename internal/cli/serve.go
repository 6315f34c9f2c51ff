package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/server"
	"github.com/tempandmajor/ottowrite-sub007/internal/snapshot"
	"github.com/tempandmajor/ottowrite-sub007/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP + WebSocket API: document saves with conflict
detection, snapshot management, and analytics job control. With
--with-worker an in-process analytics worker drains the job queue.`,
	RunE: runServe,
}

var (
	serveAddr  string
	withWorker bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&withWorker, "with-worker", false, "Run an analytics worker in-process")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	logger := logging.NewStdoutLoggerAt("Server", cfg.LogLevel)
	s, err := server.NewServer(server.Config{
		ListenAddr:     cfg.ListenAddr,
		DBPath:         cfg.DBPath,
		SnapshotConfig: &snapshot.Config{MaxSnapshots: cfg.MaxSnapshots},
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if withWorker {
		w := worker.NewWorker(worker.Config{BatchSize: cfg.WorkerBatchSize},
			s.Queue(), s.Archive(), logging.NewStdoutLoggerAt("Worker", cfg.LogLevel))
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("worker stopped", logging.Field{Key: "error", Value: err.Error()})
			}
		}()
	}

	httpServer := s.HTTPServer()
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
	if err := httpServer.ListenAndServe(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
