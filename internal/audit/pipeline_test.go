package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"audit-backend/internal/jobs"
	"audit-backend/internal/llm"
)

const docText = "Invoice 42 was paid twice to Acme Corp in March, totaling $3,000 across both payments."

type stubRenderer struct {
	set   ChartSet
	err   error
	panic bool
}

func (s *stubRenderer) RenderReportCharts(ctx context.Context, result AnalysisResult) (ChartSet, error) {
	_ = ctx
	_ = result
	if s.panic {
		panic("renderer blew up")
	}
	return s.set, s.err
}

type stubMailer struct {
	err    error
	panic  bool
	sent   int
	lastTo string
}

func (s *stubMailer) SendReport(ctx context.Context, recipient, documentName string, result AnalysisResult, charts *ChartSet) error {
	_ = ctx
	_ = documentName
	_ = result
	_ = charts
	if s.panic {
		panic("mailer blew up")
	}
	s.sent++
	s.lastTo = recipient
	return s.err
}

// blockingClient waits for release, then fails if its context has been
// cancelled and answers otherwise.
type blockingClient struct {
	release  chan struct{}
	response string
}

func (b *blockingClient) AnalyzeDocument(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	_ = input
	<-b.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.RawMessage(b.response), nil
}

func newTestPipeline(client *scriptedClient) *Pipeline {
	return &Pipeline{
		Adapter: newTestAdapter(client),
		Jobs:    jobs.NewMemoryStore(),
	}
}

func TestPipelineRun_HappyPath(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})
	p.Charts = &stubRenderer{set: ChartSet{RiskSummary: "/tmp/risk.png"}}

	report, err := p.Run(context.Background(), AnalysisRequest{DocumentText: docText, DocumentName: "march-invoices.txt"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.RiskLevel != RiskHigh {
		t.Fatalf("risk_level = %q", report.RiskLevel)
	}
	if report.Visualizations == nil || report.Visualizations.RiskSummary == "" {
		t.Fatal("expected chart set on report")
	}
	if report.EmailSent != nil {
		t.Fatal("no recipient given, email outcome must be absent")
	}
	if report.Metadata["document_name"] != "march-invoices.txt" {
		t.Fatalf("document_name metadata = %v", report.Metadata["document_name"])
	}
}

func TestPipelineRun_ValidationRejectsShortText(t *testing.T) {
	client := &scriptedClient{responses: []string{validModelOutput}}
	p := newTestPipeline(client)

	_, err := p.Run(context.Background(), AnalysisRequest{DocumentText: "too short"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if client.calls != 0 {
		t.Fatal("validation failure must not reach the provider")
	}
}

func TestPipelineRun_ChartFailureDoesNotAbort(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})
	p.Charts = &stubRenderer{err: errors.New("disk full")}

	report, err := p.Run(context.Background(), AnalysisRequest{DocumentText: docText})
	if err != nil {
		t.Fatalf("chart failure must not fail the run: %v", err)
	}
	if report.Visualizations != nil {
		t.Fatal("failed chart render must yield no visualizations")
	}
	if report.RiskLevel != RiskHigh {
		t.Fatalf("analysis result must survive, got risk %q", report.RiskLevel)
	}
}

func TestPipelineRun_ChartPanicDoesNotAbort(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})
	p.Charts = &stubRenderer{panic: true}
	mailer := &stubMailer{}
	p.Mailer = mailer

	report, err := p.Run(context.Background(), AnalysisRequest{
		DocumentText:   docText,
		RecipientEmail: "auditor@example.com",
	})
	if err != nil {
		t.Fatalf("chart panic must not fail the run: %v", err)
	}
	if report.Visualizations != nil {
		t.Fatal("panicked render must yield no visualizations")
	}
	if mailer.sent != 1 {
		t.Fatal("email must still be attempted after chart failure")
	}
}

func TestPipelineRun_EmailFailureReportedNotFatal(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})
	p.Mailer = &stubMailer{err: errors.New("smtp timeout")}

	report, err := p.Run(context.Background(), AnalysisRequest{
		DocumentText:   docText,
		RecipientEmail: "auditor@example.com",
	})
	if err != nil {
		t.Fatalf("email failure must not fail the run: %v", err)
	}
	if report.EmailSent == nil {
		t.Fatal("expected email outcome")
	}
	if report.EmailSent.Success {
		t.Fatal("email outcome must report failure")
	}
	if !strings.Contains(report.EmailSent.Message, "smtp timeout") {
		t.Fatalf("outcome message = %q", report.EmailSent.Message)
	}
}

func TestPipelineRun_NilMailerReportsUnconfigured(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})

	report, err := p.Run(context.Background(), AnalysisRequest{
		DocumentText:   docText,
		RecipientEmail: "auditor@example.com",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.EmailSent == nil || report.EmailSent.Success {
		t.Fatal("unconfigured mail must yield an unsuccessful outcome")
	}
	if !strings.Contains(report.EmailSent.Message, "not configured") {
		t.Fatalf("outcome message = %q", report.EmailSent.Message)
	}
}

func TestPipelineRunBatch_RejectsOversizedBatch(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})

	requests := make([]AnalysisRequest, MaxBatchSize+1)
	for i := range requests {
		requests[i] = AnalysisRequest{DocumentText: docText}
	}

	_, err := p.RunBatch(context.Background(), requests)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
}

func TestPipelineRunBatch_IsolatesItemFailures(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})

	requests := []AnalysisRequest{
		{DocumentText: docText, DocumentName: "a.txt"},
		{DocumentText: "way too short"},
		{DocumentText: docText, DocumentName: "c.txt"},
	}

	batch, err := p.RunBatch(context.Background(), requests)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if batch.TotalDocuments != 3 || batch.Successful != 2 || batch.Failed != 1 {
		t.Fatalf("counts = %d/%d/%d", batch.TotalDocuments, batch.Successful, batch.Failed)
	}
	if batch.Results[1].Success || batch.Results[1].Error == "" {
		t.Fatalf("item 1 must carry its failure: %+v", batch.Results[1])
	}
	if batch.Results[1].DocumentName != "Document 2" {
		t.Fatalf("unnamed document fallback = %q", batch.Results[1].DocumentName)
	}
	if !batch.Results[2].Success {
		t.Fatal("item after a failure must still run")
	}
}

func waitForTerminalJob(t *testing.T, store jobs.Store, jobID string) jobs.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status == jobs.StatusCompleted || job.Status == jobs.StatusFailed {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal status")
	return jobs.Job{}
}

func TestPipelineDispatch_CompletesJob(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{validModelOutput}})

	jobID, err := p.Dispatch(context.Background(), AnalysisRequest{DocumentText: docText}, "invoices.pdf")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}

	job := waitForTerminalJob(t, p.Jobs, jobID)
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, error = %q", job.Status, job.Error)
	}
	if job.Stage != "done" {
		t.Fatalf("stage = %q", job.Stage)
	}
	if job.FileName != "invoices.pdf" {
		t.Fatalf("file name = %q", job.FileName)
	}
	report, ok := job.Result.(Report)
	if !ok {
		t.Fatalf("result type = %T", job.Result)
	}
	if report.RiskLevel != RiskHigh {
		t.Fatalf("report risk = %q", report.RiskLevel)
	}
}

func TestPipelineDispatch_FailureRecordedOnJob(t *testing.T) {
	p := newTestPipeline(&scriptedClient{responses: []string{`{"risk_level": "bogus"}`}})

	jobID, err := p.Dispatch(context.Background(), AnalysisRequest{DocumentText: docText}, "bad.txt")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	job := waitForTerminalJob(t, p.Jobs, jobID)
	if job.Status != jobs.StatusFailed {
		t.Fatalf("status = %q", job.Status)
	}
	if job.Error == "" {
		t.Fatal("failed job must carry an error message")
	}
	if job.Result != nil {
		t.Fatalf("failed job must not carry a result, got %v", job.Result)
	}
}

func TestPipelineDispatch_SurvivesCallerCancel(t *testing.T) {
	// A scripted client that waits until the caller context is dead before
	// responding, proving the background task is detached from it.
	release := make(chan struct{})
	client := &blockingClient{release: release, response: validModelOutput}
	p := &Pipeline{
		Adapter: newTestAdapter(client),
		Jobs:    jobs.NewMemoryStore(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	jobID, err := p.Dispatch(ctx, AnalysisRequest{DocumentText: docText}, "slow.txt")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	cancel()
	close(release)

	job := waitForTerminalJob(t, p.Jobs, jobID)
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("detached job must complete after caller cancel, got %q (%s)", job.Status, job.Error)
	}
}

func TestMergeCallerMetadata(t *testing.T) {
	result := AnalysisResult{Metadata: map[string]any{"flags_count": 0}}
	mergeCallerMetadata(&result, AnalysisRequest{DocumentName: "q1.pdf", DocumentType: "invoice"})

	if result.Metadata["document_name"] != "q1.pdf" {
		t.Fatalf("document_name = %v", result.Metadata["document_name"])
	}
	if result.Metadata["document_type"] != "invoice" {
		t.Fatalf("document_type = %v", result.Metadata["document_type"])
	}
	if result.Metadata["flags_count"] != 0 {
		t.Fatal("existing metadata must be preserved")
	}
}

func TestUserFacingMessage(t *testing.T) {
	vMsg := UserFacingMessage(&ValidationError{Message: "Document text too short (9 chars). Minimum 50 characters required."})
	if !strings.Contains(vMsg, "too short") {
		t.Fatalf("validation message passed through: %q", vMsg)
	}

	aMsg := UserFacingMessage(&AnalysisError{Attempts: 3, Err: errors.New("schema mismatch: raw llm payload xyz")})
	if strings.Contains(aMsg, "xyz") {
		t.Fatalf("analysis detail must not leak to callers: %q", aMsg)
	}

	pMsg := UserFacingMessage(fmt.Errorf("wrapped: %w", ErrProviderNotConfigured))
	if !strings.Contains(pMsg, "API key") {
		t.Fatalf("provider message = %q", pMsg)
	}
}
