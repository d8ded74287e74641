package audit

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDocumentText_Bounds(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"empty", "", true},
		{"one under minimum", strings.Repeat("a", MinDocumentChars-1), true},
		{"exactly minimum", strings.Repeat("a", MinDocumentChars), false},
		{"exactly maximum", strings.Repeat("a", MaxDocumentChars), false},
		{"one over maximum", strings.Repeat("a", MaxDocumentChars+1), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDocumentText(tc.text)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %d chars", len(tc.text))
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %d chars: %v", len(tc.text), err)
			}
		})
	}
}

func TestValidateDocumentText_ErrorNamesLengths(t *testing.T) {
	err := ValidateDocumentText("too short")
	if err == nil {
		t.Fatal("expected error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !strings.Contains(vErr.Message, "9 chars") {
		t.Fatalf("message should name the actual length: %q", vErr.Message)
	}
	if !strings.Contains(vErr.Message, "50") {
		t.Fatalf("message should name the minimum: %q", vErr.Message)
	}
}

func TestTruncateDocumentText(t *testing.T) {
	short := strings.Repeat("a", 100)
	if got := TruncateDocumentText(short); got != short {
		t.Fatal("text within bounds must pass through unchanged")
	}

	long := strings.Repeat("b", MaxDocumentChars+500)
	got := TruncateDocumentText(long)
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("truncated text must end with marker, got suffix %q", got[len(got)-30:])
	}
	if len(got) != MaxDocumentChars+len(TruncationMarker) {
		t.Fatalf("unexpected truncated length %d", len(got))
	}
}
