package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/events"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/processor"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/region"
)

type fakeLedger struct {
	mu        sync.Mutex
	byKey     map[string]*models.TransactionRecord
	inserts   []*models.TransactionRecord
	insertErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{byKey: make(map[string]*models.TransactionRecord)}
}

func (l *fakeLedger) Insert(ctx context.Context, record *models.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.insertErr != nil {
		return l.insertErr
	}
	l.inserts = append(l.inserts, record)
	l.byKey[record.IdempotencyKey] = record
	return nil
}

func (l *fakeLedger) GetByID(ctx context.Context, merchantID, id string) (*models.TransactionRecord, error) {
	return nil, sql.ErrNoRows
}

func (l *fakeLedger) GetByIdempotencyKey(ctx context.Context, key string) (*models.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if record, ok := l.byKey[key]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (l *fakeLedger) ListByMerchant(ctx context.Context, merchantID string, limit int) ([]models.TransactionRecord, error) {
	return nil, nil
}

func (l *fakeLedger) UpdateStatus(ctx context.Context, merchantID, id string, from, to models.RecordStatus) error {
	return nil
}

func (l *fakeLedger) insertCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inserts)
}

type fakeRegistry struct {
	mu      sync.Mutex
	upserts []models.RecipientProfile
	err     error
}

func (r *fakeRegistry) Upsert(ctx context.Context, profile models.RecipientProfile) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, profile)
	if r.err != nil {
		return "", r.err
	}
	return "recipient-1", nil
}

func (r *fakeRegistry) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserts)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.PayoutEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event events.PayoutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func completedResult(id string) *models.ProcessorResult {
	return &models.ProcessorResult{
		ProviderTransactionID: id,
		Status:                models.ProcessorStatusCompleted,
		Amount:                decimal.NewFromFloat(500.00),
	}
}

func achRequest() models.PayoutRequest {
	return models.PayoutRequest{
		MerchantID:     "merchant-1",
		Region:         models.RegionNorthAmerica,
		Rail:           models.RailACH,
		Amount:         decimal.NewFromFloat(500.00),
		Currency:       "USD",
		RecipientName:  "John Doe",
		AccountNumber:  "000123456789",
		RoutingNumber:  "021000021",
		IdempotencyKey: "key-1",
	}
}

func newOrchestrator(primary, secondary processor.Client, l *fakeLedger, r *fakeRegistry, p *fakePublisher) *Orchestrator {
	processors := map[string]processor.Client{}
	if primary != nil {
		processors[region.ProcessorItsPaid] = primary
	}
	if secondary != nil {
		processors[region.ProcessorPrometeo] = secondary
	}
	return New(processors, l, r, p, nil)
}

func TestSubmit_SuccessRecordsOnceAndCachesRecipient(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-1")}
	ldg := newFakeLedger()
	reg := &fakeRegistry{}
	pub := &fakePublisher{}
	orch := newOrchestrator(fake, nil, ldg, reg, pub)

	result, err := orch.Submit(context.Background(), achRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orch.Close()

	if !result.OK {
		t.Fatalf("expected ok result, got %+v", result)
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("expected exactly one processor call, got %d", len(fake.Calls()))
	}
	if ldg.insertCount() != 1 {
		t.Errorf("expected exactly one ledger write, got %d", ldg.insertCount())
	}
	if reg.upsertCount() != 1 {
		t.Errorf("expected exactly one recipient upsert, got %d", reg.upsertCount())
	}
	if len(pub.events) != 1 {
		t.Errorf("expected one lifecycle event, got %d", len(pub.events))
	}

	record := result.Record
	if record.Status != models.RecordStatusCompleted {
		t.Errorf("expected completed status, got %q", record.Status)
	}
	if record.PaymentMethod != models.RailACH {
		t.Errorf("expected payment_method ACH, got %q", record.PaymentMethod)
	}
	if record.TransactionType != "payout" {
		t.Errorf("expected transaction_type payout, got %q", record.TransactionType)
	}
	if record.Metadata["provider_transaction_id"] != "tx-1" {
		t.Errorf("expected provider id in metadata, got %v", record.Metadata)
	}
	if reg.upserts[0].MaskedIdentifier != "********6789" {
		t.Errorf("expected masked identifier, got %q", reg.upserts[0].MaskedIdentifier)
	}
}

func TestSubmit_ValidationFailureMakesNoCalls(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-1")}
	ldg := newFakeLedger()
	orch := newOrchestrator(fake, nil, ldg, &fakeRegistry{}, &fakePublisher{})

	req := achRequest()
	req.RoutingNumber = ""

	result, err := orch.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orch.Close()

	if result.OK {
		t.Fatal("expected ok:false for validation failure")
	}
	if _, ok := result.FieldErrors["routing_number"]; !ok {
		t.Errorf("expected routing_number field error, got %v", result.FieldErrors)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("expected no processor call, got %d", len(fake.Calls()))
	}
	if ldg.insertCount() != 0 {
		t.Errorf("expected no ledger write, got %d", ldg.insertCount())
	}
}

func TestSubmit_ProcessorFailureWritesFailedRecord(t *testing.T) {
	perr := &models.ProcessorError{Processor: region.ProcessorItsPaid, StatusCode: 422, Message: "rejected"}
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Err: perr}
	ldg := newFakeLedger()
	reg := &fakeRegistry{}
	orch := newOrchestrator(fake, nil, ldg, reg, &fakePublisher{})

	_, err := orch.Submit(context.Background(), achRequest())
	orch.Close()

	var got *models.ProcessorError
	if !errors.As(err, &got) {
		t.Fatalf("expected ProcessorError, got %v", err)
	}
	if ldg.insertCount() != 1 {
		t.Fatalf("expected one failed ledger write, got %d", ldg.insertCount())
	}
	if ldg.inserts[0].Status != models.RecordStatusFailed {
		t.Errorf("expected failed record, got %q", ldg.inserts[0].Status)
	}
	if reg.upsertCount() != 0 {
		t.Errorf("expected no recipient upsert after failure, got %d", reg.upsertCount())
	}
}

func TestSubmit_ProcessorFailureSurvivesLedgerFailure(t *testing.T) {
	perr := &models.ProcessorError{Processor: region.ProcessorItsPaid, Message: "rejected"}
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Err: perr}
	ldg := newFakeLedger()
	ldg.insertErr = errors.New("db down")
	orch := newOrchestrator(fake, nil, ldg, &fakeRegistry{}, &fakePublisher{})

	_, err := orch.Submit(context.Background(), achRequest())
	orch.Close()

	// The audit write is best-effort; the processor error still wins.
	var got *models.ProcessorError
	if !errors.As(err, &got) {
		t.Fatalf("expected ProcessorError, got %v", err)
	}
}

func TestSubmit_LedgerFailureAfterSuccessIsDistinct(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-7")}
	ldg := newFakeLedger()
	ldg.insertErr = errors.New("db down")
	reg := &fakeRegistry{}
	orch := newOrchestrator(fake, nil, ldg, reg, &fakePublisher{})

	_, err := orch.Submit(context.Background(), achRequest())
	orch.Close()

	var lwe *models.LedgerWriteError
	if !errors.As(err, &lwe) {
		t.Fatalf("expected LedgerWriteError, got %v", err)
	}
	if lwe.ProviderTransactionID != "tx-7" {
		t.Errorf("expected provider id tx-7, got %q", lwe.ProviderTransactionID)
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("expected exactly one processor call, got %d", len(fake.Calls()))
	}
	if reg.upsertCount() != 0 {
		t.Errorf("expected no recipient upsert, got %d", reg.upsertCount())
	}
}

func TestSubmit_RegistryFailureDoesNotFailPayout(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-2")}
	reg := &fakeRegistry{err: errors.New("registry unavailable")}
	orch := newOrchestrator(fake, nil, newFakeLedger(), reg, &fakePublisher{})

	result, err := orch.Submit(context.Background(), achRequest())
	orch.Close()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Fatal("registry failure must not change terminal state")
	}
	if reg.upsertCount() != 1 {
		t.Errorf("expected the upsert to be attempted, got %d", reg.upsertCount())
	}
}

func TestSubmit_DuplicateKeyReturnsPriorResult(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-3")}
	ldg := newFakeLedger()
	orch := newOrchestrator(fake, nil, ldg, &fakeRegistry{}, &fakePublisher{})

	first, err := orch.Submit(context.Background(), achRequest())
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := orch.Submit(context.Background(), achRequest())
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	orch.Close()

	if second.Record.ID != first.Record.ID {
		t.Errorf("expected prior record returned, got %s and %s", first.Record.ID, second.Record.ID)
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("expected a single processor call across both submits, got %d", len(fake.Calls()))
	}
	if ldg.insertCount() != 1 {
		t.Errorf("expected a single ledger row, got %d", ldg.insertCount())
	}
}

func TestSubmit_LatinAmericaRoutesToSecondary(t *testing.T) {
	primary := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-4")}
	secondary := &processor.Fake{ClientName: region.ProcessorPrometeo, Result: completedResult("tx-5")}
	orch := newOrchestrator(primary, secondary, newFakeLedger(), &fakeRegistry{}, &fakePublisher{})

	req := achRequest()
	req.Region = models.RegionLatinAmerica

	result, err := orch.Submit(context.Background(), req)
	orch.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(secondary.Calls()) != 1 || len(primary.Calls()) != 0 {
		t.Errorf("expected secondary processor only: primary=%d secondary=%d",
			len(primary.Calls()), len(secondary.Calls()))
	}
	if result.Record.Metadata["provider"] != region.ProcessorPrometeo {
		t.Errorf("expected prometeo in metadata, got %v", result.Record.Metadata["provider"])
	}
}

func TestSubmit_GeneratesIdempotencyKey(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-6")}
	orch := newOrchestrator(fake, nil, newFakeLedger(), &fakeRegistry{}, &fakePublisher{})

	req := achRequest()
	req.IdempotencyKey = ""

	result, err := orch.Submit(context.Background(), req)
	orch.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Record.IdempotencyKey == "" {
		t.Error("expected a generated idempotency key on the record")
	}
}

func TestSubmit_PendingProcessorStatusYieldsPendingRecord(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: &models.ProcessorResult{
		ProviderTransactionID: "tx-8",
		Status:                models.ProcessorStatusPending,
		Amount:                decimal.NewFromFloat(500.00),
	}}
	orch := newOrchestrator(fake, nil, newFakeLedger(), &fakeRegistry{}, &fakePublisher{})

	result, err := orch.Submit(context.Background(), achRequest())
	orch.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Record.Status != models.RecordStatusPending {
		t.Errorf("expected pending record, got %q", result.Record.Status)
	}
}

func TestSubmit_ZelleMetadataCarriesAddressKind(t *testing.T) {
	fake := &processor.Fake{ClientName: region.ProcessorItsPaid, Result: completedResult("tx-9")}
	orch := newOrchestrator(fake, nil, newFakeLedger(), &fakeRegistry{}, &fakePublisher{})

	req := models.PayoutRequest{
		MerchantID:     "merchant-1",
		Rail:           models.RailZelle,
		Amount:         decimal.NewFromFloat(75.00),
		Currency:       "USD",
		RecipientName:  "Jane Roe",
		AccountNumber:  "jane@example.com",
		IdempotencyKey: "key-z",
	}

	result, err := orch.Submit(context.Background(), req)
	orch.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Record.Metadata["zelle_address_kind"] != "email" {
		t.Errorf("expected email kind in metadata, got %v", result.Record.Metadata)
	}

	calls := fake.Calls()
	if len(calls) != 1 || calls[0].RecipientZelleAddress != "jane@example.com" {
		t.Fatalf("expected zelle address on the wire, got %+v", calls)
	}
	if calls[0].RecipientBankAccount != "" {
		t.Error("zelle payload must not carry bank fields")
	}
}
