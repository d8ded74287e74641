package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"audit-backend/internal/llm"
	"audit-backend/internal/shared/telemetry"
)

// Adapter wraps the model provider: it converts free document text into a
// schema-validated AnalysisResult or a typed failure. Malformed output and
// transport failures are retried up to MaxAttempts with exponential backoff;
// validation failures are never retried.
type Adapter struct {
	Client       llm.Client
	Model        string
	MaxAttempts  int
	RetryBackoff time.Duration

	breaker *gobreaker.CircuitBreaker
}

// NewAdapter constructs an Adapter with a circuit breaker around provider
// calls. maxAttempts <= 0 falls back to 3 total attempts.
func NewAdapter(client llm.Client, model string, maxAttempts int, retryBackoff time.Duration) *Adapter {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if retryBackoff <= 0 {
		retryBackoff = 300 * time.Millisecond
	}
	return &Adapter{
		Client:       client,
		Model:        model,
		MaxAttempts:  maxAttempts,
		RetryBackoff: retryBackoff,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "model-provider",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Invoke runs one schema-constrained analysis call with bounded retry.
func (a *Adapter) Invoke(ctx context.Context, documentText string) (AnalysisResult, error) {
	if a == nil || a.Client == nil {
		return AnalysisResult{}, ErrProviderNotConfigured
	}
	if strings.TrimSpace(documentText) == "" {
		return AnalysisResult{}, &ValidationError{Message: "Document text cannot be empty."}
	}

	var (
		attempts int
		lastErr  error
	)

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = a.RetryBackoff

	operation := func() (AnalysisResult, error) {
		attempts++
		raw, err := a.callProvider(ctx, documentText)
		if err != nil {
			lastErr = err
			if errors.Is(err, gobreaker.ErrOpenState) {
				return AnalysisResult{}, backoff.Permanent(err)
			}
			telemetry.Warn("analysis.retryable", map[string]any{
				"attempt": attempts,
				"error":   err.Error(),
			})
			return AnalysisResult{}, err
		}

		result, err := decodeResult(raw)
		if err != nil {
			lastErr = fmt.Errorf("model output invalid: %w", err)
			telemetry.Warn("analysis.retryable", map[string]any{
				"attempt": attempts,
				"error":   lastErr.Error(),
			})
			return AnalysisResult{}, lastErr
		}
		return result, nil
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(a.MaxAttempts)),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return AnalysisResult{}, &AnalysisError{Attempts: attempts, Err: lastErr}
	}
	return result, nil
}

func (a *Adapter) callProvider(ctx context.Context, documentText string) (json.RawMessage, error) {
	out, err := a.breaker.Execute(func() (interface{}, error) {
		return a.Client.AnalyzeDocument(ctx, llm.AnalyzeInput{DocumentText: documentText})
	})
	if err != nil {
		return nil, err
	}
	raw, ok := out.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected provider payload type %T", out)
	}
	return raw, nil
}

// decodeResult parses and validates raw model output against the
// AnalysisResult schema. Any deviation is an error so the caller can retry.
func decodeResult(raw json.RawMessage) (AnalysisResult, error) {
	var result AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return AnalysisResult{}, fmt.Errorf("parse: %w", err)
	}

	risk, err := normalizeRiskLevel(result.RiskLevel)
	if err != nil {
		return AnalysisResult{}, err
	}
	result.RiskLevel = risk

	for i := range result.Flags {
		flag := &result.Flags[i]
		flag.Category = strings.ToLower(strings.TrimSpace(flag.Category))
		flag.Severity = strings.ToLower(strings.TrimSpace(flag.Severity))
		if !validCategory(flag.Category) {
			return AnalysisResult{}, fmt.Errorf("flag %d: unknown category %q", i, flag.Category)
		}
		if !validSeverity(flag.Severity) {
			return AnalysisResult{}, fmt.Errorf("flag %d: unknown severity %q", i, flag.Severity)
		}
		if flag.Confidence < 0 || flag.Confidence > 1 {
			return AnalysisResult{}, fmt.Errorf("flag %d: confidence %v out of [0,1]", i, flag.Confidence)
		}
	}

	if result.TotalFlaggedAmount < 0 {
		return AnalysisResult{}, fmt.Errorf("total_flagged_amount %v is negative", result.TotalFlaggedAmount)
	}
	return result, nil
}

func normalizeRiskLevel(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("unknown risk_level %q", raw)
	}
}

func validCategory(category string) bool {
	switch category {
	case CategoryDuplicatePayment, CategoryInflatedCost, CategoryMissingApproval,
		CategorySuspiciousVendor, CategoryPolicyViolation, CategoryOther:
		return true
	}
	return false
}

func validSeverity(severity string) bool {
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}
