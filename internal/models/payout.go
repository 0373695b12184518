package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Rail identifies a funds-movement method. The set is closed: every
// switch over Rail in this codebase handles all five values.
type Rail string

const (
	RailACH      Rail = "ACH"
	RailSWIFT    Rail = "SWIFT"
	RailFEDWIRE  Rail = "FEDWIRE"
	RailZelle    Rail = "ZELLE"
	RailCardPush Rail = "CARD_PUSH"
)

// ParseRail maps a raw form value onto the closed Rail set.
func ParseRail(s string) (Rail, error) {
	switch Rail(s) {
	case RailACH, RailSWIFT, RailFEDWIRE, RailZelle, RailCardPush:
		return Rail(s), nil
	}
	return "", fmt.Errorf("unknown rail %q", s)
}

// Region classifies the merchant's geography for processor selection.
type Region string

const (
	RegionNorthAmerica Region = "north_america"
	RegionLatinAmerica Region = "latin_america"
)

// PayoutRequest is the generic send-money intent gathered from the
// dashboard form. Identifier fields are raw strings; the rail adapters
// decide which of them are required and well-formed.
type PayoutRequest struct {
	MerchantID     string
	Region         Region
	Rail           Rail
	Amount         decimal.Decimal
	Currency       string
	RecipientName  string
	AccountNumber  string
	RoutingNumber  string
	BankName       string
	CardNumber     string
	CardExpMonth   string
	CardExpYear    string
	CardCVV        string
	Description    string
	IdempotencyKey string
}

// NormalizedPayload is the rail-agnostic shape submitted to a
// processor. The primary processor's wire format uses upper-snake
// keys; the secondary client translates these fields into its own
// body. Exactly one identifier group is populated per rail.
type NormalizedPayload struct {
	SendMethod                   string `json:"SEND_METHOD"`
	SendCurrencyISO3             string `json:"SEND_CURRENCY_ISO3"`
	SendAmount                   string `json:"SEND_AMOUNT"`
	RecipientFullName            string `json:"RECIPIENT_FULL_NAME"`
	RecipientBankAccount         string `json:"RECIPIENT_BANK_ACCOUNT,omitempty"`
	RecipientBankRouting         string `json:"RECIPIENT_BANK_ROUTING,omitempty"`
	RecipientBankName            string `json:"RECIPIENT_BANK_NAME,omitempty"`
	RecipientZelleAddress        string `json:"RECIPIENT_ZELLE_ADDRESS,omitempty"`
	RecipientCardNumber          string `json:"RECIPIENT_CARD_NUMBER,omitempty"`
	RecipientCardExpirationMonth string `json:"RECIPIENT_CARD_EXPIRATION_MONTH,omitempty"`
	RecipientCardExpirationYear  string `json:"RECIPIENT_CARD_EXPIRATION_YEAR,omitempty"`
	RecipientCardCVV             string `json:"RECIPIENT_CARD_CVV,omitempty"`
	PublicTransactionDescription string `json:"PUBLIC_TRANSACTION_DESCRIPTION"`
}

// ProcessorStatus is the normalized status set every processor
// response is mapped onto.
type ProcessorStatus string

const (
	ProcessorStatusPending    ProcessorStatus = "PENDING"
	ProcessorStatusProcessing ProcessorStatus = "PROCESSING"
	ProcessorStatusCompleted  ProcessorStatus = "COMPLETED"
	ProcessorStatusFailed     ProcessorStatus = "FAILED"
)

// ProcessorResult is a processor's normalized view of a submitted
// payout.
type ProcessorResult struct {
	ProviderTransactionID string
	Status                ProcessorStatus
	Amount                decimal.Decimal
}

// RecordStatus is the transaction record lifecycle. The only legal
// transitions are pending -> completed and pending -> failed.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusCompleted RecordStatus = "completed"
	RecordStatusFailed    RecordStatus = "failed"
)

// RecordStatusFromProcessor derives the ledger status for a definitive
// processor outcome. PROCESSING is still pending from the merchant's
// point of view.
func RecordStatusFromProcessor(s ProcessorStatus) RecordStatus {
	switch s {
	case ProcessorStatusCompleted:
		return RecordStatusCompleted
	case ProcessorStatusFailed:
		return RecordStatusFailed
	default:
		return RecordStatusPending
	}
}

// TransactionRecord is the ledger entity for one payout attempt.
// Records are append-only: rows are inserted once and only their
// status/updated_at may change afterwards.
type TransactionRecord struct {
	ID              string                 `json:"id"`
	MerchantID      string                 `json:"merchant_id"`
	Amount          decimal.Decimal        `json:"amount"`
	Currency        string                 `json:"currency"`
	PaymentMethod   Rail                   `json:"payment_method"`
	Description     string                 `json:"description"`
	Status          RecordStatus           `json:"status"`
	TransactionType string                 `json:"transaction_type"`
	IdempotencyKey  string                 `json:"idempotency_key"`
	Metadata        map[string]interface{} `json:"metadata"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// RecipientProfile is the best-effort cache entry for a previously
// paid recipient. Identifiers are stored masked.
type RecipientProfile struct {
	MerchantID       string `json:"merchant_id"`
	FullName         string `json:"full_name"`
	Rail             Rail   `json:"rail"`
	MaskedIdentifier string `json:"masked_identifier"`
}

// PayoutResult is what the orchestrator hands back to the HTTP layer.
type PayoutResult struct {
	OK          bool               `json:"ok"`
	FieldErrors map[string]string  `json:"field_errors,omitempty"`
	Record      *TransactionRecord `json:"payout,omitempty"`
}
