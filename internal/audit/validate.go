package audit

const (
	// MinDocumentChars and MaxDocumentChars bound direct-text submissions.
	MinDocumentChars = 50
	MaxDocumentChars = 100000

	// TruncationMarker is appended when upload-extracted text is cut at
	// MaxDocumentChars instead of rejected.
	TruncationMarker = "... [TRUNCATED]"
)

// ValidateDocumentText enforces the [MinDocumentChars, MaxDocumentChars]
// bound on direct submissions. Out-of-range text is a terminal validation
// failure naming the actual and allowed lengths; it is never retried.
func ValidateDocumentText(text string) error {
	length := len(text)
	if length < MinDocumentChars {
		return validationErrorf("Document text too short (%d chars). Minimum %d characters required.", length, MinDocumentChars)
	}
	if length > MaxDocumentChars {
		return validationErrorf("Document text too long (%d chars). Maximum %d characters allowed.", length, MaxDocumentChars)
	}
	return nil
}

// TruncateDocumentText cuts over-long extracted text at MaxDocumentChars and
// appends the truncation marker. Upload callers use this instead of rejecting.
func TruncateDocumentText(text string) string {
	if len(text) <= MaxDocumentChars {
		return text
	}
	return text[:MaxDocumentChars] + TruncationMarker
}
