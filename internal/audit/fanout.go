package audit

import (
	"context"
	"fmt"

	"audit-backend/internal/shared/metrics"
	"audit-backend/internal/shared/telemetry"
)

// ChartRenderer renders report charts to disk. Implementations live outside
// this package; a nil renderer disables the side effect.
type ChartRenderer interface {
	RenderReportCharts(ctx context.Context, result AnalysisResult) (ChartSet, error)
}

// Mailer delivers the analysis report. A nil mailer means no transport is
// configured; the email side effect then reports success=false.
type Mailer interface {
	SendReport(ctx context.Context, recipient, documentName string, result AnalysisResult, charts *ChartSet) error
}

// fanOut invokes chart rendering and email delivery such that neither can
// affect the primary result. Chart failure must not prevent email delivery
// from attempting; email uses whatever chart outcome exists, including none.
func (p *Pipeline) fanOut(ctx context.Context, req AnalysisRequest, result AnalysisResult) (*ChartSet, *SideEffectOutcome) {
	charts := p.renderCharts(ctx, result)

	var emailOutcome *SideEffectOutcome
	if req.RecipientEmail != "" {
		emailOutcome = p.sendEmail(ctx, req, result, charts)
	}
	return charts, emailOutcome
}

func (p *Pipeline) renderCharts(ctx context.Context, result AnalysisResult) (charts *ChartSet) {
	if p.Charts == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.IncSideEffectFailure("charts")
			telemetry.Warn("charts.panic", map[string]any{"error": fmt.Sprint(r)})
			charts = nil
		}
	}()

	set, err := p.Charts.RenderReportCharts(ctx, result)
	if err != nil {
		metrics.IncSideEffectFailure("charts")
		telemetry.Warn("charts.render_failed", map[string]any{"error": err.Error()})
		return nil
	}
	return &set
}

func (p *Pipeline) sendEmail(ctx context.Context, req AnalysisRequest, result AnalysisResult, charts *ChartSet) (outcome *SideEffectOutcome) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncSideEffectFailure("email")
			telemetry.Warn("email.panic", map[string]any{"error": fmt.Sprint(r)})
			outcome = &SideEffectOutcome{
				Success:   false,
				Recipient: req.RecipientEmail,
				Message:   fmt.Sprintf("Failed to send email: %v", r),
			}
		}
	}()

	if p.Mailer == nil {
		return &SideEffectOutcome{
			Success:   false,
			Recipient: req.RecipientEmail,
			Message:   "Mail transport not configured. Set RESEND_API_KEY or SMTP credentials to enable email reports.",
		}
	}

	documentName := req.DocumentName
	if documentName == "" {
		documentName = "Financial Document"
	}
	if err := p.Mailer.SendReport(ctx, req.RecipientEmail, documentName, result, charts); err != nil {
		metrics.IncSideEffectFailure("email")
		telemetry.Warn("email.send_failed", map[string]any{
			"recipient": req.RecipientEmail,
			"error":     err.Error(),
		})
		return &SideEffectOutcome{
			Success:   false,
			Recipient: req.RecipientEmail,
			Message:   fmt.Sprintf("Failed to send email: %v", err),
		}
	}

	telemetry.Info("email.sent", map[string]any{"recipient": req.RecipientEmail})
	return &SideEffectOutcome{
		Success:   true,
		Recipient: req.RecipientEmail,
		Message:   "Email sent successfully",
	}
}
