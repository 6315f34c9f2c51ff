package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tempandmajor/ottowrite-sub007/internal/archive"
	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/snapshot"
	"github.com/tempandmajor/ottowrite-sub007/internal/sqlitedb"
)

var exportCmd = &cobra.Command{
	Use:   "export <document-id>",
	Short: "Export a document's snapshots as a versioned JSON bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <document-id> <bundle-file>",
	Short: "Import a snapshot bundle into a document's archive",
	Args:  cobra.ExactArgs(2),
	RunE:  runImport,
}

var exportOut string

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write bundle to file instead of stdout")
}

func openBundleStore(documentID string) (*snapshot.Store, *archive.SQLiteArchive, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	arch, err := archive.NewSQLiteArchive(db, logging.NewStdoutLogger("Archive"))
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	st, err := snapshot.NewStore(&snapshot.Config{MaxSnapshots: cfg.MaxSnapshots},
		logging.NewStdoutLogger("Snapshots"))
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return st, arch, func() { db.Close() }, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	documentID := args[0]
	st, arch, cleanup, err := openBundleStore(documentID)
	if err != nil {
		return err
	}
	defer cleanup()

	snaps, err := arch.ListSnapshots(cmd.Context(), documentID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("document %s has no archived snapshots", documentID)
	}
	st.Load(snaps)

	data, err := st.Export()
	if err != nil {
		return err
	}
	if exportOut != "" {
		return os.WriteFile(exportOut, data, 0644)
	}
	fmt.Println(string(data))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	documentID := args[0]
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	st, arch, cleanup, err := openBundleStore(documentID)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := st.Import(data); err != nil {
		return err
	}
	for _, snap := range st.GetAllSnapshots() {
		if err := arch.PutSnapshot(cmd.Context(), documentID, snap); err != nil {
			return err
		}
	}
	fmt.Printf("imported %d snapshots into %s\n", st.Count(), documentID)
	return nil
}
