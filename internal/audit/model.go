package audit

// Risk levels for a document's overall findings.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Flag severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Flag categories.
const (
	CategoryDuplicatePayment = "duplicate_payment"
	CategoryInflatedCost     = "inflated_cost"
	CategoryMissingApproval  = "missing_approval"
	CategorySuspiciousVendor = "suspicious_vendor"
	CategoryPolicyViolation  = "policy_violation"
	CategoryOther            = "other"
)

// FraudFlag is one detected fraud/waste/abuse indicator. Flags are immutable
// once produced by the model adapter; they flow unchanged through enrichment
// and into the response.
type FraudFlag struct {
	Category       string   `json:"category"`
	Severity       string   `json:"severity"`
	Description    string   `json:"description"`
	Evidence       string   `json:"evidence"`
	Confidence     float64  `json:"confidence"`
	AmountInvolved *float64 `json:"amount_involved,omitempty"`
}

// AnalysisResult is the aggregate produced by one pipeline run. Flag and
// recommendation order is the model's output order.
type AnalysisResult struct {
	RiskLevel          string         `json:"risk_level"`
	Summary            string         `json:"summary"`
	Flags              []FraudFlag    `json:"list_of_flags"`
	Recommendations    []string       `json:"recommendations"`
	TotalFlaggedAmount float64        `json:"total_flagged_amount"`
	Metadata           map[string]any `json:"document_metadata,omitempty"`
}

// AnalysisRequest is one document submission.
type AnalysisRequest struct {
	DocumentText   string `json:"document_text" binding:"required"`
	DocumentName   string `json:"document_name,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	RecipientEmail string `json:"recipient_email,omitempty"`
}

// ChartSet holds the file paths of rendered report charts.
type ChartSet struct {
	Dashboard            string `json:"dashboard,omitempty"`
	FlagsByCategory      string `json:"flags_by_category,omitempty"`
	SeverityDistribution string `json:"severity_distribution,omitempty"`
	RiskSummary          string `json:"risk_summary,omitempty"`
}

// SideEffectOutcome reports one optional side effect. It never aborts the
// pipeline; it is attached to the final report as-is.
type SideEffectOutcome struct {
	Success   bool   `json:"success"`
	Recipient string `json:"recipient,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Report is the assembled response for one pipeline run.
type Report struct {
	AnalysisResult
	Visualizations *ChartSet          `json:"visualizations,omitempty"`
	EmailSent      *SideEffectOutcome `json:"email_sent,omitempty"`
}

// BatchItem is the per-document outcome of a batch run.
type BatchItem struct {
	DocumentIndex int     `json:"document_index"`
	DocumentName  string  `json:"document_name"`
	Success       bool    `json:"success"`
	Analysis      *Report `json:"analysis,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	TotalDocuments int         `json:"total_documents"`
	Successful     int         `json:"successful"`
	Failed         int         `json:"failed"`
	Results        []BatchItem `json:"results"`
}
