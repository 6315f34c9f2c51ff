package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/queue"
	"github.com/tempandmajor/ottowrite-sub007/internal/sqlitedb"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <document-id> <job-type>",
	Short: "Enqueue an analytics job",
	Long: `Enqueues an analytics job for a document. Job types:
snapshot_analysis, snapshot_comparison, writing_velocity,
structure_analysis, session_summary, daily_summary, weekly_summary.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnqueue,
}

var (
	enqueuePriority int
	enqueueInput    string
	enqueueWait     time.Duration
)

func init() {
	rootCmd.AddCommand(enqueueCmd)
	enqueueCmd.Flags().IntVar(&enqueuePriority, "priority", 0, "Job priority (lower = more urgent)")
	enqueueCmd.Flags().StringVar(&enqueueInput, "input", "", "Job input as JSON")
	enqueueCmd.Flags().DurationVar(&enqueueWait, "wait", 0, "Wait for completion up to this duration")
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	q, err := queue.NewQueue(db, queue.DefaultConfig(), logging.NewStdoutLogger("Queue"))
	if err != nil {
		return err
	}

	job := &model.AnalyticsJob{
		DocumentID: args[0],
		Type:       model.JobType(args[1]),
		Priority:   enqueuePriority,
	}
	if enqueueInput != "" {
		if !json.Valid([]byte(enqueueInput)) {
			return fmt.Errorf("--input is not valid JSON")
		}
		job.Input = json.RawMessage(enqueueInput)
	}

	stored, err := q.Enqueue(cmd.Context(), job)
	if err != nil {
		return err
	}
	fmt.Println(stored.ID)

	if enqueueWait <= 0 {
		return nil
	}
	done, err := q.WaitForCompletion(cmd.Context(), stored.ID, enqueueWait)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(done, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
