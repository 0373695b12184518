package processor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

func TestPrometeoClient_TranslatesPayload(t *testing.T) {
	var received prometeoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payouts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "pm-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(prometeoResponse{ID: "pm-9", Status: "approved", Amount: "500.00"})
	}))
	defer srv.Close()

	payload := models.NormalizedPayload{
		SendMethod:                   "ACH",
		SendCurrencyISO3:             "USD",
		SendAmount:                   "500.00",
		RecipientFullName:            "John Doe",
		RecipientBankAccount:         "000123456789",
		RecipientBankRouting:         "021000021",
		RecipientBankName:            "Unknown Bank",
		PublicTransactionDescription: "Payment of 500.00 via ACH",
	}

	client := NewPrometeoClient(srv.URL, "pm-key", nil)
	res, err := client.Send(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.Method != "ACH" || received.BankAccount != "000123456789" || received.BankRouting != "021000021" {
		t.Errorf("payload not translated: %+v", received)
	}
	if res.ProviderTransactionID != "pm-9" {
		t.Errorf("expected provider id 'pm-9', got %q", res.ProviderTransactionID)
	}
	if res.Status != models.ProcessorStatusCompleted {
		t.Errorf("expected COMPLETED for 'approved', got %q", res.Status)
	}
}

func TestPrometeoClient_RejectionIsProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(prometeoResponse{Error: "invalid account"})
	}))
	defer srv.Close()

	client := NewPrometeoClient(srv.URL, "pm-key", nil)
	_, err := client.Send(context.Background(), models.NormalizedPayload{SendMethod: "ACH"})

	var perr *models.ProcessorError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProcessorError, got %v", err)
	}
	if perr.Message != "invalid account" {
		t.Errorf("expected provider message, got %q", perr.Message)
	}
}

func TestMapPrometeoStatus_UnknownIsFailed(t *testing.T) {
	if got := mapPrometeoStatus("mystery"); got != models.ProcessorStatusFailed {
		t.Errorf("expected FAILED for unknown status, got %q", got)
	}
}
