package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"audit-backend/internal/jobs"
	"audit-backend/internal/shared/metrics"
	"audit-backend/internal/shared/telemetry"
)

// MaxBatchSize bounds one batch submission.
const MaxBatchSize = 10

// Pipeline sequences validation, model invocation, enrichment, side-effect
// fan-out, and response assembly. One implementation serves both the
// synchronous path (Run) and the background path (Dispatch); only the
// execution mode differs.
type Pipeline struct {
	Adapter *Adapter
	Charts  ChartRenderer
	Mailer  Mailer
	Jobs    jobs.Store
}

// Run executes the full pipeline synchronously. Validation and analysis
// failures abort the run; side-effect failures never do.
func (p *Pipeline) Run(ctx context.Context, req AnalysisRequest) (Report, error) {
	startedAt := time.Now()

	if err := ValidateDocumentText(req.DocumentText); err != nil {
		return Report{}, err
	}

	metrics.IncAnalysisStarted()
	result, err := p.Adapter.Invoke(ctx, req.DocumentText)
	if err != nil {
		metrics.IncAnalysisFailed()
		return Report{}, err
	}

	result = Enrich(result, req.DocumentText, p.Adapter.Model)
	mergeCallerMetadata(&result, req)

	charts, emailOutcome := p.fanOut(ctx, req, result)

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDuration(time.Since(startedAt).Seconds())
	telemetry.Info("analysis.complete", map[string]any{
		"risk_level":     result.RiskLevel,
		"flags":          len(result.Flags),
		"flagged_amount": result.TotalFlaggedAmount,
		"duration_ms":    float64(time.Since(startedAt).Microseconds()) / 1000.0,
	})

	return Report{
		AnalysisResult: result,
		Visualizations: charts,
		EmailSent:      emailOutcome,
	}, nil
}

// RunBatch runs the pipeline sequentially for up to MaxBatchSize requests. A
// single item's failure is captured per-item and does not stop the rest.
func (p *Pipeline) RunBatch(ctx context.Context, requests []AnalysisRequest) (BatchResult, error) {
	if len(requests) > MaxBatchSize {
		return BatchResult{}, validationErrorf("Maximum %d documents per batch request (got %d).", MaxBatchSize, len(requests))
	}

	out := BatchResult{
		TotalDocuments: len(requests),
		Results:        make([]BatchItem, 0, len(requests)),
	}
	for i, req := range requests {
		name := req.DocumentName
		if name == "" {
			name = fmt.Sprintf("Document %d", i+1)
		}

		report, err := p.Run(ctx, req)
		if err != nil {
			out.Failed++
			out.Results = append(out.Results, BatchItem{
				DocumentIndex: i,
				DocumentName:  name,
				Success:       false,
				Error:         err.Error(),
			})
			continue
		}
		out.Successful++
		out.Results = append(out.Results, BatchItem{
			DocumentIndex: i,
			DocumentName:  name,
			Success:       true,
			Analysis:      &report,
		})
	}
	return out, nil
}

// Dispatch mints a Job, kicks off the pipeline as a detached task, and
// returns the job identifier immediately. The task mutates the job's stage
// label at each transition and writes the terminal report or error into it.
func (p *Pipeline) Dispatch(ctx context.Context, req AnalysisRequest, fileName string) (string, error) {
	if p.Jobs == nil {
		return "", fmt.Errorf("job store not configured")
	}

	job := jobs.Job{
		ID:        uuid.NewString(),
		Status:    jobs.StatusQueued,
		Stage:     "queued",
		FileName:  fileName,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.Jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	go p.completeAsync(context.WithoutCancel(ctx), job.ID, req)

	return job.ID, nil
}

func (p *Pipeline) completeAsync(ctx context.Context, jobID string, req AnalysisRequest) {
	defer func() {
		if r := recover(); r != nil {
			p.failJob(ctx, jobID, fmt.Errorf("panic: %v", r))
		}
	}()
	startedAt := time.Now()

	p.updateStage(ctx, jobID, jobs.StatusProcessing, "validating document")
	telemetry.Info("job.status", map[string]any{
		"job_id":            jobID,
		"status":            jobs.StatusProcessing,
		"status_transition": "queued->processing",
	})

	if err := ValidateDocumentText(req.DocumentText); err != nil {
		p.failJob(ctx, jobID, err)
		return
	}

	metrics.IncAnalysisStarted()
	p.updateStage(ctx, jobID, jobs.StatusProcessing, "analyzing document")
	result, err := p.Adapter.Invoke(ctx, req.DocumentText)
	if err != nil {
		metrics.IncAnalysisFailed()
		p.failJob(ctx, jobID, err)
		return
	}

	p.updateStage(ctx, jobID, jobs.StatusProcessing, "enriching result")
	result = Enrich(result, req.DocumentText, p.Adapter.Model)
	mergeCallerMetadata(&result, req)

	p.updateStage(ctx, jobID, jobs.StatusProcessing, "rendering charts and sending email")
	charts, emailOutcome := p.fanOut(ctx, req, result)

	report := Report{
		AnalysisResult: result,
		Visualizations: charts,
		EmailSent:      emailOutcome,
	}

	if err := p.Jobs.Update(ctx, jobID, jobs.Update{
		Status: jobs.StrPtr(jobs.StatusCompleted),
		Stage:  jobs.StrPtr("done"),
		Result: report,
	}); err != nil {
		telemetry.Error("job.update_failed", map[string]any{"job_id": jobID, "error": err.Error()})
		return
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDuration(time.Since(startedAt).Seconds())
	telemetry.Info("job.status", map[string]any{
		"job_id":            jobID,
		"status":            jobs.StatusCompleted,
		"status_transition": "processing->completed",
		"duration_ms":       float64(time.Since(startedAt).Microseconds()) / 1000.0,
	})
}

// failJob writes the failure into the job record; there is no caller
// connection left to raise to.
func (p *Pipeline) failJob(ctx context.Context, jobID string, cause error) {
	telemetry.Error("job.failed", map[string]any{"job_id": jobID, "error": cause.Error()})
	if err := p.Jobs.Update(ctx, jobID, jobs.Update{
		Status: jobs.StrPtr(jobs.StatusFailed),
		Stage:  jobs.StrPtr("failed"),
		Error:  jobs.StrPtr(UserFacingMessage(cause)),
	}); err != nil {
		telemetry.Error("job.update_failed", map[string]any{"job_id": jobID, "error": err.Error()})
	}
}

func (p *Pipeline) updateStage(ctx context.Context, jobID, status, stage string) {
	if err := p.Jobs.Update(ctx, jobID, jobs.Update{
		Status: jobs.StrPtr(status),
		Stage:  jobs.StrPtr(stage),
	}); err != nil {
		telemetry.Error("job.update_failed", map[string]any{"job_id": jobID, "error": err.Error()})
	}
}

// mergeCallerMetadata adds the caller-supplied document name/type after
// enrichment so repeated Enrich calls stay idempotent for model-derived
// fields.
func mergeCallerMetadata(result *AnalysisResult, req AnalysisRequest) {
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	if req.DocumentName != "" {
		result.Metadata["document_name"] = req.DocumentName
	}
	if req.DocumentType != "" {
		result.Metadata["document_type"] = req.DocumentType
	}
}
