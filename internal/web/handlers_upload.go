package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JoeyNPP/Furniture-Site/internal/core"
	"github.com/JoeyNPP/Furniture-Site/internal/logging"
	"github.com/JoeyNPP/Furniture-Site/internal/web/templates"
)

// multipartOverhead leaves room for form boundaries around the file.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a form is kept in memory before spilling to disk.
const multipartMemory = 32 << 20

// readUpload returns the "file" part of a multipart request. The caller
// closes the file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	return file, header, nil
}

// handleUpload starts a background batch and returns its id.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	ctx := withRequester(r.Context(), r)
	uploadID, err := s.service.StartUpload(ctx, header.Filename, file, header.Size)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"upload_id": uploadID})
}

// handleIngest reconciles the uploaded file before responding.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	ctx := withRequester(r.Context(), r)
	out, err := s.service.IngestNow(ctx, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePreview reports what an upload would do without writing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	file, _, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.service.Preview(withRequester(r.Context(), r), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// lastEventID returns the progress percentage a reconnecting client has
// already seen: the Last-Event-ID header browsers send, or the lastEventId
// query parameter. -1 means none.
func lastEventID(r *http.Request) int {
	v := r.URL.Query().Get("lastEventId")
	if v == "" {
		v = r.Header.Get("Last-Event-ID")
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// handleUploadProgress streams upload progress via Server-Sent Events.
// The event id is the progress percentage; a reconnecting client skips
// events it has already seen.
func (s *Server) handleUploadProgress(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	seen := lastEventID(r)

	progressCh, err := s.service.SubscribeProgress(uploadID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := logging.WithFields(r.Context(), "upload_id", uploadID)
	var last core.UploadProgress
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}
			last = progress

			percent := progress.Percent()
			if percent <= seen && !progress.Phase.Done() {
				continue
			}
			data, err := json.Marshal(progress)
			if err != nil {
				log.Warn("encode progress", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleCancelUpload cancels an in-progress upload.
func (s *Server) handleCancelUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	if err := s.service.CancelUpload(uploadID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// UploadResultResponse is the JSON form of a finished upload.
type UploadResultResponse struct {
	UploadID string `json:"upload_id"`
	FileName string `json:"file_name"`
	Phase    string `json:"phase"`
	Rows     int    `json:"rows"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

func toResponse(result *core.UploadResult) UploadResultResponse {
	return UploadResultResponse{
		UploadID: result.UploadID,
		FileName: result.FileName,
		Phase:    string(result.Phase),
		Rows:     result.Outcome.Rows,
		Inserted: result.Outcome.Inserted,
		Updated:  result.Outcome.Updated,
		Skipped:  result.Outcome.Skipped,
		Duration: result.Duration.Round(time.Millisecond).String(),
		Error:    result.Error,
	}
}

// handleUploadResult waits for the upload to finish and returns its result.
// HTMX requests get the summary fragment.
func (s *Server) handleUploadResult(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	result, err := s.service.GetUploadResult(r.Context(), uploadID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := templates.UploadSummary(templates.SummaryParams{
			UploadID: result.UploadID,
			FileName: result.FileName,
			Phase:    string(result.Phase),
			Error:    result.Error,
			Outcome:  result.Outcome,
		}).Render(r.Context(), w)
		if err != nil {
			logging.FromContext(r.Context()).Warn("render upload summary", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toResponse(result))
}

// handleExportSkipped downloads the skipped rows of a finished upload as CSV.
func (s *Server) handleExportSkipped(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	result, err := s.service.GetUploadResult(r.Context(), uploadID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("skipped_rows_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"line", "reason"})
	for _, skip := range result.Outcome.Skips {
		_ = cw.Write([]string{strconv.Itoa(skip.Line), skip.Reason})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logging.FromContext(r.Context()).Warn("write skipped rows", "error", err)
	}
}
