package audit

// neutralSummary replaces the model summary when the repair rule fires.
const neutralSummary = "Document reviewed - no significant issues detected."

// Enrich post-processes a raw model result for internal consistency and
// attaches deterministic provenance metadata. It never fails and is
// idempotent with respect to the model-derived fields; caller-supplied
// document name/type are merged in afterward by the pipeline.
func Enrich(result AnalysisResult, documentText, model string) AnalysisResult {
	// Repair: elevated risk asserted without supporting evidence.
	if result.RiskLevel != RiskLow && len(result.Flags) == 0 {
		result.RiskLevel = RiskLow
		result.Summary = neutralSummary
	}

	// Recompute the total from per-flag amounts when any flag carries one;
	// otherwise keep the model value, clamped to non-negative.
	if total, ok := sumFlagAmounts(result.Flags); ok {
		result.TotalFlaggedAmount = total
	} else if result.TotalFlaggedAmount < 0 {
		result.TotalFlaggedAmount = 0
	}

	highSeverity := 0
	for _, flag := range result.Flags {
		if flag.Severity == SeverityHigh {
			highSeverity++
		}
	}

	result.Metadata = map[string]any{
		"document_length":     len(documentText),
		"flags_count":         len(result.Flags),
		"high_severity_count": highSeverity,
		"analysis_model":      model,
	}
	return result
}

func sumFlagAmounts(flags []FraudFlag) (float64, bool) {
	var (
		total float64
		found bool
	)
	for _, flag := range flags {
		if flag.AmountInvolved != nil {
			total += *flag.AmountInvolved
			found = true
		}
	}
	if total < 0 {
		total = 0
	}
	return total, found
}
