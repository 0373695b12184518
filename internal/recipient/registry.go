// Package recipient caches previously paid recipients through the
// external recipient registry. Every call here is best-effort: a
// failure is logged by the caller and never affects a payout.
package recipient

import (
	"context"
	"strings"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// Registry is the collaborator contract the payout core consumes.
// Upsert is idempotent on (name, rail, masked identifier); duplicate
// inserts from parallel payouts are tolerated redundancy.
type Registry interface {
	Upsert(ctx context.Context, profile models.RecipientProfile) (string, error)
}

// MaskIdentifier keeps the last four characters of a recipient
// identifier and masks the rest. Short identifiers are fully masked.
func MaskIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
