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

// ItsPaidClient submits payouts to the North America processor. Its
// wire format is the upper-snake key layout the normalized payload
// already carries, so the payload is posted as-is.
type ItsPaidClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewItsPaidClient(baseURL, apiKey string, httpClient *http.Client) *ItsPaidClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &ItsPaidClient{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

func (c *ItsPaidClient) Name() string { return region.ProcessorItsPaid }

type itsPaidResponse struct {
	TransactionID     string `json:"TRANSACTION_ID"`
	TransactionStatus string `json:"TRANSACTION_STATUS"`
	SendAmount        string `json:"SEND_AMOUNT"`
	ErrorMessage      string `json:"ERROR_MESSAGE"`
}

func (c *ItsPaidClient) Send(ctx context.Context, payload models.NormalizedPayload) (*models.ProcessorResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transactions/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.ProcessorError{Processor: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.ProcessorError{Processor: c.Name(), StatusCode: resp.StatusCode, Err: err}
	}

	var parsed itsPaidResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &models.ProcessorError{Processor: c.Name(), StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &models.ProcessorError{
			Processor:  c.Name(),
			StatusCode: resp.StatusCode,
			Message:    parsed.ErrorMessage,
		}
	}

	amount, err := decimal.NewFromString(parsed.SendAmount)
	if err != nil {
		amount = decimal.Zero
	}

	return &models.ProcessorResult{
		ProviderTransactionID: parsed.TransactionID,
		Status:                mapItsPaidStatus(parsed.TransactionStatus),
		Amount:                amount,
	}, nil
}

// mapItsPaidStatus folds the provider's status vocabulary onto the
// closed normalized set. Anything unrecognized maps to FAILED rather
// than passing through: there are no webhooks to resolve an unknown
// state later.
func mapItsPaidStatus(s string) models.ProcessorStatus {
	switch s {
	case "NEW", "PENDING", "QUEUED":
		return models.ProcessorStatusPending
	case "PROCESSING", "SENT":
		return models.ProcessorStatusProcessing
	case "COMPLETED", "SETTLED":
		return models.ProcessorStatusCompleted
	case "FAILED", "REJECTED", "RETURNED":
		return models.ProcessorStatusFailed
	default:
		return models.ProcessorStatusFailed
	}
}
