package rail

import (
	"strings"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// ZelleAddressKind distinguishes the two identifier forms Zelle
// accepts in its single address field.
type ZelleAddressKind string

const (
	ZelleAddressEmail ZelleAddressKind = "email"
	ZelleAddressPhone ZelleAddressKind = "phone"
)

// ClassifyZelleAddress decides whether a Zelle address is an email or
// a phone number. Anything containing "@" is an email; everything
// else is a phone number. Never both.
func ClassifyZelleAddress(addr string) ZelleAddressKind {
	if strings.Contains(addr, "@") {
		return ZelleAddressEmail
	}
	return ZelleAddressPhone
}

// zelleAdapter requires only a recipient name and a single address
// field. Bank routing fields must not appear in the payload.
type zelleAdapter struct{}

func (zelleAdapter) Rail() models.Rail { return models.RailZelle }

func (zelleAdapter) Build(req models.PayoutRequest) (models.NormalizedPayload, error) {
	verr := models.NewValidationError()
	if strings.TrimSpace(req.RecipientName) == "" {
		verr.Add("recipient_name", "recipient name is required")
	}
	address := strings.TrimSpace(req.AccountNumber)
	if address == "" {
		verr.Add("account_number", "email or phone is required")
	}
	if !verr.Empty() {
		return models.NormalizedPayload{}, verr
	}

	payload := basePayload(req)
	payload.RecipientZelleAddress = address
	return payload, nil
}
