package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tempandmajor/ottowrite-sub007/internal/autosave"
	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/server"
)

var autosaveCmd = &cobra.Command{
	Use:   "autosave <document-id> <content-file>",
	Short: "Watch a content file and autosave it to a server",
	Long: `Watches a DocumentContent JSON file and pushes changes to the API with
debounced, conflict-aware saves. The file is the source of truth: a save
conflict is resolved keep-local, so the next save overwrites the server
state on its current fingerprint.`,
	Args: cobra.ExactArgs(2),
	RunE: runAutosave,
}

var (
	autosaveServer string
	autosavePoll   time.Duration
)

func init() {
	rootCmd.AddCommand(autosaveCmd)
	autosaveCmd.Flags().StringVar(&autosaveServer, "server", "http://localhost:8080", "Base URL of the API server")
	autosaveCmd.Flags().DurationVar(&autosavePoll, "poll", time.Second, "How often to poll the file for changes")
}

func runAutosave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	docID, path := args[0], args[1]

	content, err := readContentFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	var mu sync.Mutex
	logger := logging.NewStdoutLoggerAt("Autosave", cfg.LogLevel)
	coord, err := autosave.NewCoordinator(
		&autosave.Config{DebounceDelay: time.Duration(cfg.AutosaveDebounceMS) * time.Millisecond},
		docID, "",
		server.NewSaveClient(autosaveServer),
		func() model.DocumentContent {
			mu.Lock()
			defer mu.Unlock()
			return content
		},
		logger)
	if err != nil {
		return err
	}
	defer coord.Stop()

	coord.OnStateChange(func(st autosave.State) {
		logger.Info("autosave state changed",
			logging.Field{Key: "document_id", Value: docID},
			logging.Field{Key: "state", Value: string(st)})
	})
	coord.ContentChanged()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(autosavePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return coord.Flush(flushCtx)
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				logger.Warn("content file unreadable",
					logging.Field{Key: "path", Value: path},
					logging.Field{Key: "error", Value: err.Error()})
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				next, err := readContentFile(path)
				if err != nil {
					logger.Warn("content file unparseable, keeping previous content",
						logging.Field{Key: "path", Value: path},
						logging.Field{Key: "error", Value: err.Error()})
					continue
				}
				mu.Lock()
				content = next
				mu.Unlock()
				coord.ContentChanged()
			}
			if coord.State() == autosave.StateConflict {
				if err := coord.ResolveConflict(false); err == nil {
					logger.Warn("save conflict resolved keep-local",
						logging.Field{Key: "document_id", Value: docID})
				}
			}
		}
	}
}

func readContentFile(path string) (model.DocumentContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DocumentContent{}, fmt.Errorf("failed to read content file: %w", err)
	}
	var c model.DocumentContent
	if err := json.Unmarshal(data, &c); err != nil {
		return model.DocumentContent{}, fmt.Errorf("failed to parse content file: %w", err)
	}
	return c, nil
}
