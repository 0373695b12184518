// Package processor holds the clients for the external payment
// processors. Each client submits a normalized payload to one
// processor and maps its response onto the shared result shape.
package processor

import (
	"context"
	"net/http"
	"time"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// Client is the contract every processor integration satisfies. Send
// is invoked at most once per user-initiated submission; clients never
// retry on their own and never mutate caller state.
type Client interface {
	Name() string
	Send(ctx context.Context, payload models.NormalizedPayload) (*models.ProcessorResult, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}
