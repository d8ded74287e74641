package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"

	"audit-backend/internal/audit"
)

// ResendMailer delivers reports through the Resend HTTP API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer constructs a ResendMailer.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

// SendReport sends the HTML report with chart attachments.
func (m *ResendMailer) SendReport(ctx context.Context, recipient, documentName string, result audit.AnalysisResult, charts *audit.ChartSet) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{recipient},
		Subject: reportSubject(documentName, result),
		Html:    BuildHTMLReport(documentName, result),
	}

	for _, path := range chartPaths(charts) {
		content, err := os.ReadFile(path)
		if err != nil {
			// A missing chart file degrades to a report without that
			// attachment; the email itself still goes out.
			continue
		}
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename: filepath.Base(path),
			Content:  content,
		})
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

// SMTPMailer delivers reports over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendReport sends the HTML report with chart attachments.
func (m *SMTPMailer) SendReport(ctx context.Context, recipient, documentName string, result audit.AnalysisResult, charts *audit.ChartSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", reportSubject(documentName, result))
	msg.SetBody("text/html", BuildHTMLReport(documentName, result))

	for _, path := range chartPaths(charts) {
		if _, err := os.Stat(path); err == nil {
			msg.Attach(path)
		}
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func reportSubject(documentName string, result audit.AnalysisResult) string {
	return fmt.Sprintf("Fraud Analysis Report: %s - %s Risk", documentName, result.RiskLevel)
}

func chartPaths(charts *audit.ChartSet) []string {
	if charts == nil {
		return nil
	}
	var paths []string
	for _, p := range []string{charts.Dashboard, charts.FlagsByCategory, charts.SeverityDistribution, charts.RiskSummary} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

var (
	_ audit.Mailer = (*ResendMailer)(nil)
	_ audit.Mailer = (*SMTPMailer)(nil)
)
