package rail

import (
	"strings"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// defaultBankName is used when the form omits the recipient's bank.
const defaultBankName = "Unknown Bank"

// bankAdapter covers the three bank-account rails (ACH, SWIFT,
// FEDWIRE). They share one field schema: recipient name, account
// number and routing number required, bank name optional.
type bankAdapter struct {
	rail models.Rail
}

func (a bankAdapter) Rail() models.Rail { return a.rail }

func (a bankAdapter) Build(req models.PayoutRequest) (models.NormalizedPayload, error) {
	verr := models.NewValidationError()
	if strings.TrimSpace(req.RecipientName) == "" {
		verr.Add("recipient_name", "recipient name is required")
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		verr.Add("account_number", "account number is required")
	}
	if strings.TrimSpace(req.RoutingNumber) == "" {
		verr.Add("routing_number", "routing number is required")
	}
	if !verr.Empty() {
		return models.NormalizedPayload{}, verr
	}

	bankName := strings.TrimSpace(req.BankName)
	if bankName == "" {
		bankName = defaultBankName
	}

	payload := basePayload(req)
	payload.RecipientBankAccount = strings.TrimSpace(req.AccountNumber)
	payload.RecipientBankRouting = strings.TrimSpace(req.RoutingNumber)
	payload.RecipientBankName = bankName
	return payload, nil
}
