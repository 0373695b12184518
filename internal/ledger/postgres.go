package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) InitDB() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id VARCHAR(255) PRIMARY KEY,
			merchant_id VARCHAR(255) NOT NULL,
			amount DECIMAL(15,2) NOT NULL,
			currency VARCHAR(3) NOT NULL,
			payment_method VARCHAR(20) NOT NULL,
			description TEXT,
			status VARCHAR(20) NOT NULL,
			transaction_type VARCHAR(20) NOT NULL,
			idempotency_key VARCHAR(255) UNIQUE,
			metadata JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_merchant_id ON transactions(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_idempotency_key ON transactions(idempotency_key)`,
	}

	for _, query := range queries {
		if _, err := l.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

func (l *PostgresLedger) Insert(ctx context.Context, record *models.TransactionRecord) error {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	// ON CONFLICT DO NOTHING keeps a racing duplicate submission from
	// producing a second row for the same idempotency key.
	result, err := l.db.ExecContext(ctx, `
		INSERT INTO transactions (id, merchant_id, amount, currency, payment_method, description, status, transaction_type, idempotency_key, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, record.ID, record.MerchantID, record.Amount, record.Currency, record.PaymentMethod,
		record.Description, record.Status, record.TransactionType, record.IdempotencyKey, metadata)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("transaction with idempotency key %s already recorded", record.IdempotencyKey)
	}
	return nil
}

func (l *PostgresLedger) GetByID(ctx context.Context, merchantID, id string) (*models.TransactionRecord, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, merchant_id, amount, currency, payment_method, description, status, transaction_type, idempotency_key, metadata, created_at, updated_at
		FROM transactions WHERE merchant_id = $1 AND id = $2
	`, merchantID, id)
	return scanRecord(row)
}

func (l *PostgresLedger) GetByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, merchant_id, amount, currency, payment_method, description, status, transaction_type, idempotency_key, metadata, created_at, updated_at
		FROM transactions WHERE idempotency_key = $1
	`, key)
	return scanRecord(row)
}

func (l *PostgresLedger) ListByMerchant(ctx context.Context, merchantID string, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, merchant_id, amount, currency, payment_method, description, status, transaction_type, idempotency_key, metadata, created_at, updated_at
		FROM transactions
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, merchantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			continue
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// UpdateStatus applies a guarded transition: the row only changes if
// it is still in the expected source status, so a record can never
// move out of a terminal state.
func (l *PostgresLedger) UpdateStatus(ctx context.Context, merchantID, id string, from, to models.RecordStatus) error {
	result, err := l.db.ExecContext(ctx, `
		UPDATE transactions SET status = $1, updated_at = NOW()
		WHERE merchant_id = $2 AND id = $3 AND status = $4
	`, to, merchantID, id, from)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("invalid status transition from %s to %s for transaction %s", from, to, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.TransactionRecord, error) {
	var record models.TransactionRecord
	var metadata []byte
	var description, idempotencyKey sql.NullString
	var createdAt, updatedAt time.Time

	err := row.Scan(&record.ID, &record.MerchantID, &record.Amount, &record.Currency,
		&record.PaymentMethod, &description, &record.Status, &record.TransactionType,
		&idempotencyKey, &metadata, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.Description = description.String
	record.IdempotencyKey = idempotencyKey.String
	record.CreatedAt = createdAt
	record.UpdatedAt = updatedAt
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &record, nil
}
