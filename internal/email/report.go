package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"audit-backend/internal/audit"
)

var riskColors = map[string]string{
	audit.RiskLow:    "#2ecc71",
	audit.RiskMedium: "#f39c12",
	audit.RiskHigh:   "#e74c3c",
}

var severityColors = map[string]string{
	audit.SeverityLow:    "#3498db",
	audit.SeverityMedium: "#f39c12",
	audit.SeverityHigh:   "#e74c3c",
}

// BuildHTMLReport renders the analysis result as a self-contained HTML email
// body with inline styles.
func BuildHTMLReport(documentName string, result audit.AnalysisResult) string {
	riskColor, ok := riskColors[result.RiskLevel]
	if !ok {
		riskColor = "#95a5a6"
	}

	var flags strings.Builder
	for i, flag := range result.Flags {
		severityColor, ok := severityColors[flag.Severity]
		if !ok {
			severityColor = "#7f8c8d"
		}
		amount := ""
		if flag.AmountInvolved != nil {
			amount = fmt.Sprintf(` | <strong>Amount:</strong> $%.2f`, *flag.AmountInvolved)
		}
		fmt.Fprintf(&flags, `
      <div style="margin-bottom: 20px; padding: 15px; background-color: #f8f9fa; border-left: 4px solid %s; border-radius: 4px;">
        <h3 style="margin: 0 0 10px 0; color: %s;">%d. %s <span style="font-size: 0.8em;">(%s)</span></h3>
        <p style="margin: 5px 0;"><strong>Description:</strong> %s</p>
        <p style="margin: 5px 0;"><strong>Evidence:</strong> %s</p>
        <p style="margin: 5px 0;"><strong>Confidence:</strong> %.1f%%%s</p>
      </div>`,
			severityColor, severityColor, i+1,
			html.EscapeString(categoryTitle(flag.Category)),
			strings.ToUpper(flag.Severity),
			html.EscapeString(flag.Description),
			html.EscapeString(flag.Evidence),
			flag.Confidence*100, amount)
	}

	var recommendations strings.Builder
	for _, rec := range result.Recommendations {
		fmt.Fprintf(&recommendations, `<li style="margin-bottom: 10px; color: #2c3e50;">%s</li>`, html.EscapeString(rec))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); color: white; padding: 30px; border-radius: 10px; margin-bottom: 30px;">
    <h1 style="margin: 0; font-size: 28px;">Fraud Analysis Report</h1>
    <p style="margin: 10px 0 0 0; opacity: 0.9;">%s</p>
    <p style="margin: 5px 0 0 0; opacity: 0.8; font-size: 14px;">Generated: %s</p>
  </div>
  <div style="padding: 20px; border: 2px solid %s; border-radius: 10px; margin-bottom: 30px;">
    <h2 style="margin: 0 0 10px 0; color: %s;">Risk Level: %s</h2>
    <p style="margin: 0 0 10px 0;"><strong>Total Flagged Amount:</strong> $%.2f</p>
    <p style="margin: 0;">%s</p>
  </div>
  <h2 style="color: #2c3e50;">Detailed Findings (%d)</h2>
  %s
  <h2 style="color: #2c3e50;">Recommendations</h2>
  <ol>%s</ol>
</body>
</html>`,
		html.EscapeString(documentName),
		time.Now().UTC().Format("January 2, 2006 at 3:04 PM"),
		riskColor, riskColor, result.RiskLevel,
		result.TotalFlaggedAmount,
		html.EscapeString(result.Summary),
		len(result.Flags),
		flags.String(),
		recommendations.String())
}

func categoryTitle(category string) string {
	parts := strings.Split(category, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
