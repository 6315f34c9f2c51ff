package server

import (
	"github.com/tempandmajor/ottowrite-sub007/internal/interfaces"
	"github.com/tempandmajor/ottowrite-sub007/internal/snapshot"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// DBPath is the SQLite database file backing the archive and job queue.
	DBPath string

	// SnapshotConfig bounds the per-document snapshot stores.
	SnapshotConfig *snapshot.Config

	// Logger receives request and handler logs; a stdout logger is used
	// when nil.
	Logger interfaces.Logger
}
