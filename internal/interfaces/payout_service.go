package interfaces

import (
	"context"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// PayoutService defines the contract the HTTP layer drives payouts
// through.
type PayoutService interface {
	Submit(ctx context.Context, req models.PayoutRequest) (*models.PayoutResult, error)
}
