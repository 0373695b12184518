// Package rail shapes a generic payout request into the field layout
// each funds-movement rail requires. Adapters are pure: they validate
// and build payloads with no side effects.
package rail

import (
	"fmt"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// Adapter validates a payout request against one rail's field schema
// and builds the normalized payload for it.
type Adapter interface {
	Rail() models.Rail
	Build(req models.PayoutRequest) (models.NormalizedPayload, error)
}

// ForRail returns the adapter for the given rail. The switch is
// exhaustive over the closed rail set.
func ForRail(r models.Rail) (Adapter, error) {
	switch r {
	case models.RailACH, models.RailSWIFT, models.RailFEDWIRE:
		return bankAdapter{rail: r}, nil
	case models.RailZelle:
		return zelleAdapter{}, nil
	case models.RailCardPush:
		return cardAdapter{}, nil
	}
	return nil, fmt.Errorf("no adapter for rail %q", r)
}

func basePayload(req models.PayoutRequest) models.NormalizedPayload {
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Payment of %s via %s", req.Amount.StringFixed(2), req.Rail)
	}
	return models.NormalizedPayload{
		SendMethod:                   string(req.Rail),
		SendCurrencyISO3:             req.Currency,
		SendAmount:                   req.Amount.StringFixed(2),
		RecipientFullName:            req.RecipientName,
		PublicTransactionDescription: description,
	}
}
