package recipient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

const (
	upsertSubject  = "recipient.upsert"
	requestTimeout = 2 * time.Second
)

// NATSRegistry reaches the recipient registry service over NATS
// request/reply. The short timeout keeps the best-effort upsert from
// holding the orchestrator's background goroutine for long.
type NATSRegistry struct {
	nc *nats.Conn
}

func NewNATSRegistry(nc *nats.Conn) *NATSRegistry {
	return &NATSRegistry{nc: nc}
}

type upsertResponse struct {
	RecipientID string `json:"recipient_id"`
	Error       string `json:"error"`
}

func (r *NATSRegistry) Upsert(ctx context.Context, profile models.RecipientProfile) (string, error) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}

	timeout := requestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	msg, err := r.nc.Request(upsertSubject, payload, timeout)
	if err != nil {
		return "", fmt.Errorf("recipient registry request: %w", err)
	}

	var resp upsertResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return "", fmt.Errorf("decode registry response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("recipient registry: %s", resp.Error)
	}
	return resp.RecipientID, nil
}
