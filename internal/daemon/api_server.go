package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"podium/internal/config"
	"podium/internal/logging"
	"podium/internal/store"
	"podium/internal/upload"
)

// apiServer exposes the upload and assessment HTTP API.
type apiServer struct {
	cfg     *config.Config
	store   *store.Store
	uploads *upload.Manager
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, st *store.Store, uploads *upload.Manager, logger *slog.Logger) *apiServer {
	return &apiServer{
		cfg:     cfg,
		store:   st,
		uploads: uploads,
		logger:  logging.NewComponentLogger(logger, "api"),
	}
}

func (s *apiServer) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("api server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Paths.APIBind, err)
	}

	server := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.listener = listener
	s.server = server

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server terminated", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("addr", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown", logging.Error(err))
	}
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload/init", s.handleUploadInit)
	mux.HandleFunc("POST /api/upload/chunk", s.handleUploadChunk)
	mux.HandleFunc("POST /api/upload/complete", s.handleUploadComplete)
	mux.HandleFunc("POST /api/upload/cancel", s.handleUploadCancel)
	mux.HandleFunc("GET /api/assessment/status/{id}", s.handleAssessmentStatus)
	mux.HandleFunc("GET /api/assessment/report/{id}", s.handleAssessmentReport)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

type uploadInitRequest struct {
	Filename string `json:"filename"`
	FileSize int64  `json:"file_size"`
	// The client declares its own chunk count; chunk sizes are up to it.
	TotalChunks int `json:"total_chunks"`
}

type uploadInitResponse struct {
	UploadID string `json:"upload_id"`
	// ChunkSize is the recommended chunk size, not a constraint.
	ChunkSize   int64 `json:"chunk_size"`
	TotalChunks int   `json:"total_chunks"`
}

func (s *apiServer) handleUploadInit(w http.ResponseWriter, r *http.Request) {
	var req uploadInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	session, err := s.uploads.InitSession(r.Context(), req.Filename, req.FileSize, req.TotalChunks)
	if err != nil {
		s.writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadInitResponse{
		UploadID:    session.ID,
		ChunkSize:   session.ChunkSize,
		TotalChunks: session.TotalChunks,
	})
}

type uploadChunkResponse struct {
	ReceivedChunks int `json:"received_chunks"`
	TotalChunks    int `json:"total_chunks"`
}

func (s *apiServer) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	uploadID := r.URL.Query().Get("upload_id")
	if uploadID == "" {
		writeError(w, http.StatusBadRequest, "upload_id is required")
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("chunk_index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "chunk_index must be an integer")
		return
	}

	received, total, err := s.uploads.PutChunk(r.Context(), uploadID, index, r.Body)
	if err != nil {
		s.writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadChunkResponse{ReceivedChunks: received, TotalChunks: total})
}

type uploadRefRequest struct {
	UploadID string `json:"upload_id"`
}

func (s *apiServer) handleUploadComplete(w http.ResponseWriter, r *http.Request) {
	var req uploadRefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UploadID == "" {
		writeError(w, http.StatusBadRequest, "upload_id is required")
		return
	}

	assessment, err := s.uploads.Complete(r.Context(), req.UploadID)
	if err != nil {
		s.writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"assessment_id": assessment.ID})
}

func (s *apiServer) handleUploadCancel(w http.ResponseWriter, r *http.Request) {
	var req uploadRefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UploadID == "" {
		writeError(w, http.StatusBadRequest, "upload_id is required")
		return
	}

	if err := s.uploads.Cancel(r.Context(), req.UploadID); err != nil {
		s.writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type assessmentStatusResponse struct {
	AssessmentID string `json:"assessment_id"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
}

func (s *apiServer) handleAssessmentStatus(w http.ResponseWriter, r *http.Request) {
	assessment, ok := s.lookupAssessment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, assessmentStatusResponse{
		AssessmentID: assessment.ID,
		Status:       string(assessment.Status),
		Progress:     assessment.Progress,
		Message:      statusMessage(assessment),
		Error:        assessment.ErrorMessage,
	})
}

func (s *apiServer) handleAssessmentReport(w http.ResponseWriter, r *http.Request) {
	assessment, ok := s.lookupAssessment(w, r)
	if !ok {
		return
	}

	switch assessment.Status {
	case store.AssessmentQueued, store.AssessmentProcessing:
		writeJSON(w, http.StatusAccepted, assessmentStatusResponse{
			AssessmentID: assessment.ID,
			Status:       string(assessment.Status),
			Progress:     assessment.Progress,
			Message:      statusMessage(assessment),
		})
	case store.AssessmentFailed:
		writeError(w, http.StatusInternalServerError, assessment.ErrorMessage)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(assessment.ResultJSON))
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *apiServer) lookupAssessment(w http.ResponseWriter, r *http.Request) (*store.Assessment, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "assessment id is required")
		return nil, false
	}
	assessment, err := s.store.GetAssessment(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("assessment %s not found", id))
		return nil, false
	}
	if err != nil {
		s.logger.Error("assessment lookup failed", logging.String("assessment_id", id), logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return assessment, true
}

func (s *apiServer) writeUploadError(w http.ResponseWriter, err error) {
	var (
		chunkErr      *upload.InvalidChunkIndexError
		incompleteErr *upload.IncompleteUploadError
	)
	switch {
	case errors.Is(err, upload.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, upload.ErrInsufficientSpace):
		writeError(w, http.StatusInsufficientStorage, err.Error())
	case errors.Is(err, upload.ErrSessionNotActive),
		errors.Is(err, upload.ErrInvalidFileType),
		errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrInvalidChunkCount),
		errors.As(err, &chunkErr),
		errors.As(err, &incompleteErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("upload request failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// statusMessage maps progress to a human-readable phase description.
func statusMessage(a *store.Assessment) string {
	switch a.Status {
	case store.AssessmentQueued:
		return "waiting for an available worker"
	case store.AssessmentFailed:
		return "assessment failed"
	case store.AssessmentCompleted:
		return "assessment complete"
	}
	switch {
	case a.Progress < 70:
		return "analyzing vocal and visual delivery"
	case a.Progress < 85:
		return "analyzing storytelling"
	case a.Progress < 95:
		return "computing scores"
	default:
		return "generating report"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
