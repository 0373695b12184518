// Package ledger is the persistence boundary for payout transaction
// records. The store is append-only: rows are inserted once per
// idempotency key and only their status may change afterwards.
package ledger

import (
	"context"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// Ledger defines the contract for transaction record access.
type Ledger interface {
	Insert(ctx context.Context, record *models.TransactionRecord) error
	GetByID(ctx context.Context, merchantID, id string) (*models.TransactionRecord, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error)
	ListByMerchant(ctx context.Context, merchantID string, limit int) ([]models.TransactionRecord, error)
	UpdateStatus(ctx context.Context, merchantID, id string, from, to models.RecordStatus) error
}
