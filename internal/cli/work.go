package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tempandmajor/ottowrite-sub007/internal/archive"
	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/queue"
	"github.com/tempandmajor/ottowrite-sub007/internal/sqlitedb"
	"github.com/tempandmajor/ottowrite-sub007/internal/worker"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Run an analytics worker against the job queue",
	Long: `Claims queued analytics jobs and executes them until interrupted.
Multiple workers may run concurrently against the same database; claims
are atomic, so no job is processed twice.`,
	RunE: runWork,
}

var workBatchSize int

func init() {
	rootCmd.AddCommand(workCmd)
	workCmd.Flags().IntVar(&workBatchSize, "batch-size", 0, "Jobs per claim pass (default from config)")
}

func runWork(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batchSize := cfg.WorkerBatchSize
	if workBatchSize > 0 {
		batchSize = workBatchSize
	}

	logger := logging.NewStdoutLoggerAt("Worker", cfg.LogLevel)
	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	q, err := queue.NewQueue(db, queue.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	arch, err := archive.NewSQLiteArchive(db, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started", logging.Field{Key: "batch_size", Value: batchSize})
	w := worker.NewWorker(worker.Config{BatchSize: batchSize}, q, arch, logger)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
