package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/region"
)

// PrometeoClient submits payouts to the Latin America processor. Its
// API takes lower-snake JSON, so the normalized payload is translated
// into its body shape before posting.
type PrometeoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewPrometeoClient(baseURL, apiKey string, httpClient *http.Client) *PrometeoClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &PrometeoClient{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

func (c *PrometeoClient) Name() string { return region.ProcessorPrometeo }

type prometeoRequest struct {
	Method        string `json:"method"`
	Currency      string `json:"currency"`
	Amount        string `json:"amount"`
	RecipientName string `json:"recipient_name"`
	Description   string `json:"description"`
	BankAccount   string `json:"bank_account,omitempty"`
	BankRouting   string `json:"bank_routing,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	ZelleAddress  string `json:"zelle_address,omitempty"`
	CardNumber    string `json:"card_number,omitempty"`
	CardExpMonth  string `json:"card_exp_month,omitempty"`
	CardExpYear   string `json:"card_exp_year,omitempty"`
	CardCVV       string `json:"card_cvv,omitempty"`
}

type prometeoResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount string `json:"amount"`
	Error  string `json:"error"`
}

func (c *PrometeoClient) Send(ctx context.Context, payload models.NormalizedPayload) (*models.ProcessorResult, error) {
	body, err := json.Marshal(prometeoRequest{
		Method:        payload.SendMethod,
		Currency:      payload.SendCurrencyISO3,
		Amount:        payload.SendAmount,
		RecipientName: payload.RecipientFullName,
		Description:   payload.PublicTransactionDescription,
		BankAccount:   payload.RecipientBankAccount,
		BankRouting:   payload.RecipientBankRouting,
		BankName:      payload.RecipientBankName,
		ZelleAddress:  payload.RecipientZelleAddress,
		CardNumber:    payload.RecipientCardNumber,
		CardExpMonth:  payload.RecipientCardExpirationMonth,
		CardExpYear:   payload.RecipientCardExpirationYear,
		CardCVV:       payload.RecipientCardCVV,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payouts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.ProcessorError{Processor: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ProcessorError{Processor: c.Name(), StatusCode: resp.StatusCode, Err: err}
	}

	var parsed prometeoResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &models.ProcessorError{Processor: c.Name(), StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &models.ProcessorError{
			Processor:  c.Name(),
			StatusCode: resp.StatusCode,
			Message:    parsed.Error,
		}
	}

	amount, err := decimal.NewFromString(parsed.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	return &models.ProcessorResult{
		ProviderTransactionID: parsed.ID,
		Status:                mapPrometeoStatus(parsed.Status),
		Amount:                amount,
	}, nil
}

func mapPrometeoStatus(s string) models.ProcessorStatus {
	switch s {
	case "pending", "created":
		return models.ProcessorStatusPending
	case "processing", "in_progress":
		return models.ProcessorStatusProcessing
	case "completed", "approved":
		return models.ProcessorStatusCompleted
	case "failed", "rejected":
		return models.ProcessorStatusFailed
	default:
		return models.ProcessorStatusFailed
	}
}
