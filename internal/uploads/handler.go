package uploads

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"audit-backend/internal/audit"
	"audit-backend/internal/extract"
	"audit-backend/internal/jobs"
	"audit-backend/internal/shared/server/middleware"
	"audit-backend/internal/shared/server/respond"
	"audit-backend/internal/shared/telemetry"
)

const (
	maxUploadBytes     = 10 << 20
	defaultMaxAgeHours = 24
)

// ChartCleaner purges aged chart artifacts.
type ChartCleaner interface {
	Cleanup(maxAge time.Duration) (int, error)
}

// Handler wires file-upload analysis routes to the pipeline.
type Handler struct {
	Pipeline *audit.Pipeline
	Jobs     jobs.Store
	Cleaner  ChartCleaner
}

// NewHandler constructs a Handler.
func NewHandler(pipeline *audit.Pipeline, store jobs.Store, cleaner ChartCleaner) *Handler {
	return &Handler{Pipeline: pipeline, Jobs: store, Cleaner: cleaner}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload/analyze", h.analyzeUpload)
	rg.GET("/upload/status/:job_id", h.jobStatus)
	rg.POST("/upload/cleanup", h.cleanup)
	rg.GET("/upload/", h.uploadInfo)
}

// analyzeUpload extracts text from the uploaded file and runs the pipeline,
// synchronously by default or as a background job when mode=async.
func (h *Handler) analyzeUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error",
			"File too large. Maximum upload size is 10 MB.", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read uploaded file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read uploaded file", nil)
		return
	}

	text, err := extract.FromBytes(c.Request.Context(), data, fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	if len(text) < audit.MinDocumentChars {
		respond.Error(c, http.StatusBadRequest, "validation_error",
			"Insufficient text extracted ("+strconv.Itoa(len(text))+" chars). Minimum "+strconv.Itoa(audit.MinDocumentChars)+" characters required.", nil)
		return
	}
	// Over-long extracted text is truncated with a marker rather than
	// rejected, unlike direct-text submission.
	text = audit.TruncateDocumentText(text)

	req := audit.AnalysisRequest{
		DocumentText:   text,
		DocumentName:   fileHeader.Filename,
		DocumentType:   "upload",
		RecipientEmail: strings.TrimSpace(c.PostForm("recipient_email")),
	}

	telemetry.Info("upload.request", map[string]any{
		"request_id":    middleware.RequestIDFromContext(c),
		"filename":      fileHeader.Filename,
		"size_bytes":    fileHeader.Size,
		"text_length":   len(text),
		"has_recipient": req.RecipientEmail != "",
	})

	if isAsyncMode(c) {
		jobID, err := h.Pipeline.Dispatch(c.Request.Context(), req, fileHeader.Filename)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis job", nil)
			return
		}
		c.Set("jobId", jobID)
		respond.JSON(c, http.StatusAccepted, gin.H{
			"job_id":   jobID,
			"status":   jobs.StatusQueued,
			"filename": fileHeader.Filename,
		})
		return
	}

	report, err := h.Pipeline.Run(c.Request.Context(), req)
	if err != nil {
		status, code := audit.ClassifyPipelineError(err)
		respond.Error(c, status, code, audit.UserFacingMessage(err), nil)
		return
	}

	respond.OK(c, gin.H{
		"filename":              fileHeader.Filename,
		"file_size_bytes":       fileHeader.Size,
		"extracted_text_length": len(text),
		"analysis":              report,
	})
}

func (h *Handler) jobStatus(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job id is required", nil)
		return
	}

	job, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job", nil)
		return
	}

	respond.OK(c, job)
}

func (h *Handler) cleanup(c *gin.Context) {
	if h.Cleaner == nil {
		respond.Error(c, http.StatusServiceUnavailable, "service_unavailable", "chart rendering is not configured", nil)
		return
	}

	maxAgeHours := defaultMaxAgeHours
	if raw := c.Query("max_age_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "max_age_hours must be a positive integer", nil)
			return
		}
		maxAgeHours = parsed
	}

	deleted, err := h.Cleaner.Cleanup(time.Duration(maxAgeHours) * time.Hour)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "cleanup failed", nil)
		return
	}

	respond.OK(c, gin.H{
		"deleted":       deleted,
		"max_age_hours": maxAgeHours,
	})
}

func (h *Handler) uploadInfo(c *gin.Context) {
	respond.OK(c, gin.H{
		"message":         "File Upload Fraud Analysis API",
		"version":         "1.0.0",
		"supported_types": []string{"PDF", "DOCX", "TXT"},
		"limits": gin.H{
			"max_file_size":      "10 MB",
			"min_extracted_text": "50 characters",
		},
		"modes": gin.H{
			"sync":  "POST /api/v1/upload/analyze (default) - full result in response",
			"async": "POST /api/v1/upload/analyze?mode=async - 202 with job_id, poll /upload/status/{job_id}",
		},
		"endpoints": gin.H{
			"POST /api/v1/upload/analyze":         "Upload and analyze a document",
			"GET /api/v1/upload/status/{job_id}":  "Poll a background analysis job",
			"POST /api/v1/upload/cleanup":         "Delete chart artifacts older than max_age_hours (default 24)",
			"GET /api/v1/upload/":                 "Get API information",
		},
	})
}

func isAsyncMode(c *gin.Context) bool {
	mode := c.Query("mode")
	if mode == "" {
		mode = c.PostForm("mode")
	}
	return strings.EqualFold(strings.TrimSpace(mode), "async")
}
