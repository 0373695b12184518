package processor

import (
	"context"
	"sync"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// Fake is a deterministic in-memory processor used by tests and local
// wiring. Business logic never branches on an environment flag to
// decide between real and fake; the choice is made where clients are
// constructed.
type Fake struct {
	ClientName string
	Result     *models.ProcessorResult
	Err        error

	mu    sync.Mutex
	calls []models.NormalizedPayload
}

func (f *Fake) Name() string {
	if f.ClientName != "" {
		return f.ClientName
	}
	return "fake"
}

func (f *Fake) Send(ctx context.Context, payload models.NormalizedPayload) (*models.ProcessorResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, payload)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	res := *f.Result
	return &res, nil
}

// Calls returns a copy of every payload Send has received.
func (f *Fake) Calls() []models.NormalizedPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.NormalizedPayload, len(f.calls))
	copy(out, f.calls)
	return out
}
