// Package server is the HTTP + WebSocket API surface: document saves with
// conflict detection, snapshot management, and analytics job control.
package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/tempandmajor/ottowrite-sub007/docs/swagger"
	"github.com/tempandmajor/ottowrite-sub007/internal/archive"
	"github.com/tempandmajor/ottowrite-sub007/internal/logging"
	"github.com/tempandmajor/ottowrite-sub007/internal/model"
	"github.com/tempandmajor/ottowrite-sub007/internal/prose"
	"github.com/tempandmajor/ottowrite-sub007/internal/queue"
	"github.com/tempandmajor/ottowrite-sub007/internal/snapshot"
	"github.com/tempandmajor/ottowrite-sub007/internal/sqlitedb"
)

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg      Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger

	db       *sql.DB
	archive  *archive.SQLiteArchive
	queue    *queue.Queue
	snapshot *snapshot.Manager
}

// NewServer opens the backing database and wires the archive, job queue, and
// per-document snapshot stores.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	arch, err := archive.NewSQLiteArchive(db, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	q, err := queue.NewQueue(db, queue.DefaultConfig(), logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating job queue: %w", err)
	}
	mgr, err := snapshot.NewManager(cfg.SnapshotConfig, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot manager: %w", err)
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		router: r,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
		db:       db,
		archive:  arch,
		queue:    q,
		snapshot: mgr,
	}

	s.routes()
	return s, nil
}

// Queue returns the underlying job queue for advanced use (workers, tests).
func (s *Server) Queue() *queue.Queue {
	return s.queue
}

// Archive returns the underlying snapshot archive.
func (s *Server) Archive() *archive.SQLiteArchive {
	return s.archive
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/documents/{doc}", s.optionsHandler("GET, PUT"))
	r.Options("/documents/{doc}/snapshots", s.optionsHandler("GET, POST"))
	r.Options("/documents/{doc}/snapshots/{snapID}", s.optionsHandler("GET, DELETE"))
	r.Options("/documents/{doc}/snapshots/{snapID}/restore", s.optionsHandler("POST"))
	r.Options("/documents/{doc}/snapshots/compare", s.optionsHandler("GET"))
	r.Options("/documents/{doc}/snapshots/stats", s.optionsHandler("GET"))
	r.Options("/documents/{doc}/snapshots/significant", s.optionsHandler("GET"))
	r.Options("/documents/{doc}/export", s.optionsHandler("GET"))
	r.Options("/documents/{doc}/import", s.optionsHandler("POST"))
	r.Options("/documents/{doc}/jobs", s.optionsHandler("GET, POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	// Documents
	r.Get("/documents/{doc}", s.handleGetDocument)
	r.Put("/documents/{doc}", s.handleSaveDocument)

	// Snapshots
	r.Post("/documents/{doc}/snapshots", s.handleCreateSnapshot)
	r.Get("/documents/{doc}/snapshots", s.handleListSnapshots)
	r.Get("/documents/{doc}/snapshots/compare", s.handleCompareSnapshots)
	r.Get("/documents/{doc}/snapshots/stats", s.handleSnapshotStats)
	r.Get("/documents/{doc}/snapshots/significant", s.handleSignificantSnapshots)
	r.Get("/documents/{doc}/snapshots/{snapID}", s.handleGetSnapshot)
	r.Delete("/documents/{doc}/snapshots/{snapID}", s.handleDeleteSnapshot)
	r.Post("/documents/{doc}/snapshots/{snapID}/restore", s.handleRestoreSnapshot)

	// Export / import
	r.Get("/documents/{doc}/export", s.handleExport)
	r.Post("/documents/{doc}/import", s.handleImport)

	// Analytics jobs
	r.Post("/documents/{doc}/jobs", s.handleEnqueueJob)
	r.Get("/documents/{doc}/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSocket job progress
	r.Get("/ws/jobs/{jobID}", s.handleJobWS)

	// Interactive API docs
	r.Get("/swagger/*", httpSwagger.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body_bytes", Value: len(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the backing database.
func (s *Server) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- Documents ---

// handleGetDocument godoc
// @Summary Get a document
// @Produce json
// @Param doc path string true "Document ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} ErrorResponse
// @Router /documents/{doc} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")

	content, meta, err := s.archive.GetDocument(r.Context(), doc)
	if errors.Is(err, archive.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		s.logger.Warn("getting document", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          doc,
		"content":     content,
		"fingerprint": meta.Fingerprint,
		"updated_at":  meta.UpdatedAt,
	})
}

// handleSaveDocument godoc
// @Summary Save document content with optimistic conflict detection
// @Accept json
// @Produce json
// @Param doc path string true "Document ID"
// @Param request body SaveDocumentRequest true "New content and base fingerprint"
// @Success 200 {object} model.SaveResult
// @Failure 409 {object} SaveConflictResponse
// @Router /documents/{doc} [put]
func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")

	var body SaveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.archive.Save(r.Context(), &model.SaveRequest{
		DocumentID:      doc,
		Content:         body.Content,
		WordCount:       body.WordCount,
		BaseFingerprint: body.BaseFingerprint,
	})
	var conflictErr *model.ConflictError
	if errors.As(err, &conflictErr) {
		s.logger.Info("save conflict", logging.Field{Key: "document_id", Value: doc})
		writeJSON(w, http.StatusConflict, SaveConflictResponse{
			Error:    "save conflict",
			Conflict: conflictErr.Conflict,
		})
		return
	}
	if err != nil {
		s.logger.Warn("saving document", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Snapshots ---

// handleCreateSnapshot godoc
// @Summary Capture a snapshot of a document
// @Accept json
// @Produce json
// @Param doc path string true "Document ID"
// @Param request body CreateSnapshotRequest true "Snapshot content and provenance"
// @Success 201 {object} model.ContentSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /documents/{doc}/snapshots [post]
func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")

	var body CreateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	content := body.Content
	if content == nil {
		stored, _, err := s.archive.GetDocument(r.Context(), doc)
		if errors.Is(err, archive.ErrDocumentNotFound) {
			writeError(w, http.StatusBadRequest, "no content given and document not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		content = stored
	}

	// Discover structural markers when the client didn't supply them.
	if len(content.AnchorIDs) == 0 {
		ids, err := prose.ExtractAnchorIDs(content.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		content.AnchorIDs = ids
	}

	snap, err := s.snapshot.Get(doc).CreateSnapshot(*content, snapshot.CreateOptions{
		Source: model.Source(body.Source),
		Label:  body.Label,
	})
	if err != nil {
		if errors.Is(err, snapshot.ErrInvalidSource) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("creating snapshot", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Persist so analytics jobs can read history after restarts.
	if err := s.archive.PutSnapshot(r.Context(), doc, snap); err != nil {
		s.logger.Warn("archiving snapshot", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("created snapshot",
		logging.Field{Key: "document_id", Value: doc},
		logging.Field{Key: "snapshot_id", Value: snap.ID},
		logging.Field{Key: "source", Value: string(snap.Source)})
	writeJSON(w, http.StatusCreated, snap)
}

// handleListSnapshots godoc
// @Summary List a document's retained snapshots, newest first
// @Produce json
// @Param doc path string true "Document ID"
// @Param source query string false "Filter by provenance tag"
// @Success 200 {array} model.ContentSnapshot
// @Router /documents/{doc}/snapshots [get]
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot.Get(chi.URLParam(r, "doc"))

	var snaps []*model.ContentSnapshot
	if source := r.URL.Query().Get("source"); source != "" {
		snaps = st.GetSnapshotsBySource(model.Source(source))
	} else {
		snaps = st.GetAllSnapshots()
	}
	if snaps == nil {
		snaps = []*model.ContentSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleGetSnapshot godoc
// @Summary Get a snapshot by id
// @Produce json
// @Param doc path string true "Document ID"
// @Param snapID path string true "Snapshot ID"
// @Success 200 {object} model.ContentSnapshot
// @Failure 404 {object} ErrorResponse
// @Router /documents/{doc}/snapshots/{snapID} [get]
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot.Get(chi.URLParam(r, "doc"))
	snap := st.GetSnapshot(chi.URLParam(r, "snapID"))
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDeleteSnapshot godoc
// @Summary Delete a snapshot
// @Param doc path string true "Document ID"
// @Param snapID path string true "Snapshot ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /documents/{doc}/snapshots/{snapID} [delete]
func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot.Get(chi.URLParam(r, "doc"))
	if !st.DeleteSnapshot(chi.URLParam(r, "snapID")) {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleRestoreSnapshot godoc
// @Summary Move the current pointer to a snapshot
// @Produce json
// @Param doc path string true "Document ID"
// @Param snapID path string true "Snapshot ID"
// @Success 200 {object} model.ContentSnapshot
// @Failure 404 {object} ErrorResponse
// @Router /documents/{doc}/snapshots/{snapID}/restore [post]
func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")
	snapID := chi.URLParam(r, "snapID")

	snap := s.snapshot.Get(doc).RestoreSnapshot(snapID)
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	s.logger.Info("restored snapshot",
		logging.Field{Key: "document_id", Value: doc},
		logging.Field{Key: "snapshot_id", Value: snapID})
	writeJSON(w, http.StatusOK, snap)
}

// handleCompareSnapshots godoc
// @Summary Diff two snapshots
// @Produce json
// @Param doc path string true "Document ID"
// @Param from query string true "From snapshot ID"
// @Param to query string true "To snapshot ID"
// @Success 200 {object} model.SnapshotComparison
// @Failure 404 {object} ErrorResponse
// @Router /documents/{doc}/snapshots/compare [get]
func (s *Server) handleCompareSnapshots(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot.Get(chi.URLParam(r, "doc"))
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	cmp, err := st.CompareSnapshots(from, to)
	if err != nil {
		s.logger.Warn("comparing snapshots", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cmp == nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// handleSnapshotStats godoc
// @Summary Aggregate statistics over retained snapshots
// @Produce json
// @Param doc path string true "Document ID"
// @Success 200 {object} diff.AggregateStats
// @Router /documents/{doc}/snapshots/stats [get]
func (s *Server) handleSnapshotStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot.Get(chi.URLParam(r, "doc")).Aggregate())
}

// handleSignificantSnapshots godoc
// @Summary List snapshots with significant change from their predecessor
// @Produce json
// @Param doc path string true "Document ID"
// @Param threshold query number false "Change percent threshold"
// @Success 200 {array} model.ContentSnapshot
// @Router /documents/{doc}/snapshots/significant [get]
func (s *Server) handleSignificantSnapshots(w http.ResponseWriter, r *http.Request) {
	threshold := 0.0
	if ts := r.URL.Query().Get("threshold"); ts != "" {
		if v, err := strconv.ParseFloat(ts, 64); err == nil && v > 0 {
			threshold = v
		}
	}

	sig, err := s.snapshot.Get(chi.URLParam(r, "doc")).FindSignificant(threshold)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sig == nil {
		sig = []*model.ContentSnapshot{}
	}
	writeJSON(w, http.StatusOK, sig)
}

// handleExport godoc
// @Summary Export a document's snapshots as a versioned JSON bundle
// @Produce json
// @Param doc path string true "Document ID"
// @Success 200 {object} snapshot.ExportDocument
// @Router /documents/{doc}/export [get]
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.snapshot.Get(chi.URLParam(r, "doc")).Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport godoc
// @Summary Import a previously exported snapshot bundle
// @Accept json
// @Param doc path string true "Document ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /documents/{doc}/import [post]
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := s.snapshot.Get(doc).Import(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Mirror the imported bundle into the archive.
	for _, snap := range s.snapshot.Get(doc).GetAllSnapshots() {
		if err := s.archive.PutSnapshot(r.Context(), doc, snap); err != nil {
			s.logger.Warn("archiving imported snapshot", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.logger.Info("imported snapshots", logging.Field{Key: "document_id", Value: doc})
	writeJSON(w, http.StatusNoContent, nil)
}

// --- Analytics jobs ---

// handleEnqueueJob godoc
// @Summary Enqueue an analytics job for a document
// @Accept json
// @Produce json
// @Param doc path string true "Document ID"
// @Param request body EnqueueJobRequest true "Job type, priority, and input"
// @Success 202 {object} model.AnalyticsJob
// @Failure 400 {object} ErrorResponse
// @Router /documents/{doc}/jobs [post]
func (s *Server) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")

	var body EnqueueJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	job, err := s.queue.Enqueue(r.Context(), &model.AnalyticsJob{
		UserID:      body.UserID,
		DocumentID:  doc,
		Type:        model.JobType(body.Type),
		Priority:    body.Priority,
		MaxAttempts: body.MaxAttempts,
		Input:       body.Input,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// handleListJobs godoc
// @Summary List a document's analytics jobs, newest first
// @Produce json
// @Param doc path string true "Document ID"
// @Success 200 {array} model.AnalyticsJob
// @Router /documents/{doc}/jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.queue.ListByDocument(r.Context(), chi.URLParam(r, "doc"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []*model.AnalyticsJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleGetJob godoc
// @Summary Get an analytics job by id
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} model.AnalyticsJob
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.queue.Get(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, queue.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a queued or running analytics job
// @Param jobID path string true "Job ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	err := s.queue.Cancel(r.Context(), jobID)
	if errors.Is(err, queue.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if errors.Is(err, queue.ErrJobTerminal) {
		writeError(w, http.StatusConflict, "job already in a terminal state")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

// --- WebSockets ---

// handleJobWS streams job status transitions until the job terminates or the
// client disconnects.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx := r.Context()
	lastStatus := model.JobStatus("")
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := s.queue.Get(ctx, jobID)
		if err != nil {
			_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
			return
		}
		if job.Status != lastStatus {
			lastStatus = job.Status
			if err := conn.WriteJSON(job); err != nil {
				return
			}
		}
		if job.Status.Terminal() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
