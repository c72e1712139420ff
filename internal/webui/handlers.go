package webui

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/g1heapviz/internal/observability"
	"github.com/g1heapviz/internal/storage"
	"github.com/g1heapviz/internal/store"
	"github.com/g1heapviz/pkg/errors"
	"github.com/g1heapviz/pkg/model"
)

const defaultHistoryLimit = 50

// handleUpload parses an uploaded log and replaces the current snapshots.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.metrics.ObserveUpload(observability.UploadRejected)
		s.writeError(w, errors.Wrap(errors.CodeInvalidInput, "invalid multipart upload", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.metrics.ObserveUpload(observability.UploadRejected)
		s.writeError(w, errors.Wrap(errors.CodeInvalidInput, "missing form field \"file\"", err))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	s.logger.Info("Uploading: %s (%d bytes)", name, header.Size)

	n, err := s.Load(r.Context(), file)
	if err != nil {
		s.metrics.ObserveUpload(observability.UploadFailed)
		s.writeError(w, err)
		return
	}
	s.logger.Info("Parsed %d heap snapshots", n)

	record := &model.UploadRecord{
		FileName:      name,
		Description:   r.FormValue("description"),
		SizeBytes:     header.Size,
		SnapshotCount: n,
	}
	if s.storage != nil {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			record.ArchiveKey = s.archive(r, name, file)
		}
	}
	if s.uploads != nil {
		if err := s.uploads.Create(r.Context(), record); err != nil {
			s.logger.Error("Failed to record upload of %s: %v", name, err)
		}
	}

	s.metrics.ObserveUpload(observability.UploadOK)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Parsed %d heap snapshots from %s", n, name)
}

// archive stores the raw log and returns its key, or "" when archiving fails.
func (s *Server) archive(r *http.Request, name string, body io.Reader) string {
	key := storage.UploadKey(s.clock.Now(), name)
	if err := s.storage.Upload(r.Context(), key, body); err != nil {
		s.logger.Error("Failed to archive %s: %v", name, err)
		return ""
	}
	return key
}

func (s *Server) handleGetN(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotParam(r)
	if !ok {
		s.writeJSON(w, []model.LayoutCell{})
		return
	}
	s.writeJSON(w, snap.Layout())
}

func (s *Server) handleGridSize(w http.ResponseWriter, r *http.Request) {
	snap, ok := store.At(s.store, 0)
	if !ok {
		s.writeJSON(w, 0)
		return
	}
	s.writeJSON(w, snap.GridSize())
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, store.Len(s.store))
}

func (s *Server) handleSnapshotMetrics(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotParam(r)
	if !ok {
		s.writeJSON(w, model.Metrics{})
		return
	}
	s.writeJSON(w, snap.Metrics())
}

// snapshotParam resolves the "n" query parameter. Missing, non-numeric and
// out-of-range values all report false.
func (s *Server) snapshotParam(r *http.Request) (*model.HeapSnapshot, bool) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		return nil, false
	}
	return store.At(s.store, n)
}

// handleEvents streams one frame per tick as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	frames := s.projector.Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for frame := range frames {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame.Data); err != nil {
			s.logger.Debug("sse: client went away at tick %d: %v", frame.Tick, err)
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		s.writeError(w, errors.New(errors.CodeNotFound, "upload history is disabled"))
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, errors.New(errors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := s.uploads.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, records)
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	record, err := s.uploadParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, record)
}

func (s *Server) handleRawUpload(w http.ResponseWriter, r *http.Request) {
	body, err := s.openArchive(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Warn("Failed to send archived log: %v", err)
	}
}

// handleReloadUpload replaces the current snapshots with an archived log.
func (s *Server) handleReloadUpload(w http.ResponseWriter, r *http.Request) {
	body, err := s.openArchive(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	n, err := s.Load(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]int{"snapshots": n})
}

func (s *Server) uploadParam(r *http.Request) (*model.UploadRecord, error) {
	if s.uploads == nil {
		return nil, errors.New(errors.CodeNotFound, "upload history is disabled")
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "invalid upload id")
	}
	return s.uploads.Get(r.Context(), id)
}

func (s *Server) openArchive(r *http.Request) (io.ReadCloser, error) {
	record, err := s.uploadParam(r)
	if err != nil {
		return nil, err
	}
	if s.storage == nil || record.ArchiveKey == "" {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("upload %d has no archived log", record.ID))
	}

	body, err := s.storage.Download(r.Context(), record.ArchiveKey)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotFound) {
			return nil, errors.Wrap(errors.CodeNotFound, "archived log is gone", err)
		}
		return nil, errors.Wrap(errors.CodeStorageError, "failed to read archived log", err)
	}
	return body, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{
		Code:    errors.GetErrorCode(err),
		Message: errors.GetErrorMessage(err),
	})
}
