package audit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"audit-backend/internal/shared/server/middleware"
	"audit-backend/internal/shared/server/respond"
	"audit-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the pipeline.
type Handler struct {
	Pipeline *Pipeline
}

// NewHandler constructs a Handler.
func NewHandler(pipeline *Pipeline) *Handler {
	return &Handler{Pipeline: pipeline}
}

// RegisterRoutes attaches document analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/document/analyze", h.analyzeDocument)
	rg.POST("/document/batch", h.batchAnalyze)
	rg.GET("/document/", h.documentInfo)
}

func (h *Handler) analyzeDocument(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body: document_text is required", nil)
		return
	}

	telemetry.Info("analysis.request", map[string]any{
		"request_id":      middleware.RequestIDFromContext(c),
		"document_name":   req.DocumentName,
		"document_length": len(req.DocumentText),
		"has_recipient":   req.RecipientEmail != "",
	})

	report, err := h.Pipeline.Run(c.Request.Context(), req)
	if err != nil {
		status, code := ClassifyPipelineError(err)
		respond.Error(c, status, code, UserFacingMessage(err), nil)
		return
	}

	respond.OK(c, report)
}

func (h *Handler) batchAnalyze(c *gin.Context) {
	var requests []AnalysisRequest
	if err := c.ShouldBindJSON(&requests); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body: expected an array of document requests", nil)
		return
	}

	result, err := h.Pipeline.RunBatch(c.Request.Context(), requests)
	if err != nil {
		status, code := ClassifyPipelineError(err)
		respond.Error(c, status, code, UserFacingMessage(err), nil)
		return
	}

	respond.OK(c, result)
}

func (h *Handler) documentInfo(c *gin.Context) {
	respond.OK(c, gin.H{
		"message":     "Document-Based Fraud Analysis API",
		"version":     "1.0.0",
		"description": "AI-powered fraud detection for financial documents",
		"capabilities": gin.H{
			"fraud_detection": []string{
				"Duplicate payments",
				"Inflated costs",
				"Missing approvals",
				"Suspicious vendor behavior",
				"Policy violations",
				"Temporal anomalies",
			},
			"risk_levels": []string{RiskLow, RiskMedium, RiskHigh},
			"output_types": []string{
				"Structured JSON analysis",
				"Visualization charts",
				"Email reports (optional)",
			},
		},
		"limits": gin.H{
			"min_document_size": "50 characters",
			"max_document_size": "100,000 characters",
			"max_batch_size":    MaxBatchSize,
		},
		"endpoints": gin.H{
			"POST /api/v1/document/analyze": "Analyze a full financial document",
			"POST /api/v1/document/batch":   "Batch analyze multiple documents",
			"GET /api/v1/document/":         "Get API information",
		},
	})
}

// ClassifyPipelineError maps pipeline failures to HTTP status codes:
// validation failures are 400, a missing provider credential is 503, and
// everything else is an internal error.
func ClassifyPipelineError(err error) (int, string) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, "validation_error"
	}
	if errors.Is(err, ErrProviderNotConfigured) {
		return http.StatusServiceUnavailable, "service_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// UserFacingMessage summarizes a pipeline failure without internal detail;
// the full cause is logged server-side.
func UserFacingMessage(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	if errors.Is(err, ErrProviderNotConfigured) {
		return "AI fraud analysis is currently unavailable. The model provider API key is not configured. Please contact the administrator to enable this feature."
	}
	var aErr *AnalysisError
	if errors.As(err, &aErr) {
		telemetry.Error("analysis.failed", map[string]any{
			"attempts": aErr.Attempts,
			"error":    aErr.Err.Error(),
		})
		return "Error analyzing document: the analysis service did not return a usable result. Please try again."
	}
	return "Unexpected error during analysis."
}
