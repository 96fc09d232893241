package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/clarus/internal/api/response"
	"github.com/kiranshivaraju/clarus/pkg/models"
)

// UploadField is the multipart field carrying the CSV.
const UploadField = "csv_file"

const maxUploadMemory = 32 << 20

// NewUploadHandler returns POST /api/v1/uploads.
func NewUploadHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form", nil)
			return
		}
		file, header, err := r.FormFile(UploadField)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", UploadField+" is required", nil)
			return
		}
		defer file.Close()

		job, err := c.Upload(r.Context(), header.Filename, file)
		if err != nil {
			writeError(w, c, err)
			return
		}
		response.Accepted(w, job)
	}
}

// NewListJobsHandler returns GET /api/v1/jobs: the history as last loaded.
func NewListJobsHandler(c Console, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJobs(w, c.Snapshot().Jobs, limit)
	}
}

// NewRefreshJobsHandler returns POST /api/v1/jobs/refresh.
func NewRefreshJobsHandler(c Console, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.RefreshHistory(r.Context()); err != nil {
			writeError(w, c, err)
			return
		}
		writeJobs(w, c.Snapshot().Jobs, limit)
	}
}

func writeJobs(w http.ResponseWriter, jobs []models.Job, limit int) {
	response.Collection(w, jobs, response.PageMeta{
		Limit:   limit,
		Offset:  0,
		Count:   len(jobs),
		HasNext: limit > 0 && len(jobs) >= limit,
	})
}

// NewOpenJobHandler returns POST /api/v1/jobs/{jobID}/open.
func NewOpenJobHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		if jobID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID is required", nil)
			return
		}
		c.OpenJob(jobID)
		response.Accepted(w, currentView(c))
	}
}

type currentResponse struct {
	Job      *models.Job `json:"job"`
	JobError string      `json:"job_error,omitempty"`
	Polling  bool        `json:"polling"`
}

func currentView(c Console) currentResponse {
	s := c.Snapshot()
	return currentResponse{Job: s.CurrentJob, JobError: s.JobError, Polling: s.Polling}
}

// NewCurrentJobHandler returns GET /api/v1/current.
func NewCurrentJobHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		cur := currentView(c)
		if cur.Job == nil {
			response.Error(w, http.StatusNotFound, "NO_CURRENT_JOB", "No job is open", nil)
			return
		}
		response.JSON(w, cur)
	}
}

// NewBackHandler returns DELETE /api/v1/current.
func NewBackHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		c.Back()
		response.JSON(w, c.Snapshot())
	}
}

// NewDownloadHandler returns GET /api/v1/current/download and streams the
// scored CSV of the current job.
func NewDownloadHandler(c Console) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := c.Download(r.Context())
		if err != nil {
			writeError(w, c, err)
			return
		}
		defer d.Close()

		contentType := d.ContentType
		if contentType == "" {
			contentType = "text/csv"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": d.SafeFilename()}))
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, d.Body); err != nil && !errors.Is(err, r.Context().Err()) {
			slog.Warn("streaming download", "error", err, "filename", d.Filename)
		}
	}
}
