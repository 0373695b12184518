package models

import "testing"

func TestParseRail(t *testing.T) {
	for _, s := range []string{"ACH", "SWIFT", "FEDWIRE", "ZELLE", "CARD_PUSH"} {
		if _, err := ParseRail(s); err != nil {
			t.Errorf("ParseRail(%q) unexpected error: %v", s, err)
		}
	}
	for _, s := range []string{"ach", "zelle", "PAYPAL", ""} {
		if _, err := ParseRail(s); err == nil {
			t.Errorf("ParseRail(%q) expected error", s)
		}
	}
}

func TestRecordStatusFromProcessor(t *testing.T) {
	tests := []struct {
		in   ProcessorStatus
		want RecordStatus
	}{
		{ProcessorStatusPending, RecordStatusPending},
		{ProcessorStatusProcessing, RecordStatusPending},
		{ProcessorStatusCompleted, RecordStatusCompleted},
		{ProcessorStatusFailed, RecordStatusFailed},
	}
	for _, tt := range tests {
		if got := RecordStatusFromProcessor(tt.in); got != tt.want {
			t.Errorf("RecordStatusFromProcessor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidationError_NamesFields(t *testing.T) {
	verr := NewValidationError()
	verr.Add("routing_number", "routing number is required")
	verr.Add("account_number", "account number is required")

	got := verr.Error()
	want := "validation failed: account_number, routing_number"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
