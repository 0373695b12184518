package rail

import (
	"strings"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

const (
	cardNumberMinLen = 15
	cardNumberMaxLen = 19
)

// cardAdapter covers card-push payouts. The card number is stripped of
// whitespace before the length check; CVV stays optional.
type cardAdapter struct{}

func (cardAdapter) Rail() models.Rail { return models.RailCardPush }

func (cardAdapter) Build(req models.PayoutRequest) (models.NormalizedPayload, error) {
	verr := models.NewValidationError()
	if strings.TrimSpace(req.RecipientName) == "" {
		verr.Add("recipient_name", "recipient name is required")
	}

	cardNumber := stripSpaces(req.CardNumber)
	if cardNumber == "" {
		verr.Add("card_number", "card number is required")
	} else if len(cardNumber) < cardNumberMinLen || len(cardNumber) > cardNumberMaxLen {
		verr.Add("card_number", "card number must be 15 to 19 digits")
	}

	if strings.TrimSpace(req.CardExpMonth) == "" {
		verr.Add("card_exp_month", "expiration month is required")
	}
	if strings.TrimSpace(req.CardExpYear) == "" {
		verr.Add("card_exp_year", "expiration year is required")
	}
	if !verr.Empty() {
		return models.NormalizedPayload{}, verr
	}

	payload := basePayload(req)
	payload.RecipientCardNumber = cardNumber
	payload.RecipientCardExpirationMonth = strings.TrimSpace(req.CardExpMonth)
	payload.RecipientCardExpirationYear = strings.TrimSpace(req.CardExpYear)
	payload.RecipientCardCVV = strings.TrimSpace(req.CardCVV)
	return payload, nil
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
