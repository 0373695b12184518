// Package orchestrator drives a payout submission end to end:
// validate, route, submit to the processor, record the outcome, then
// cache the recipient. One submission, one processor call.
package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/events"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/ledger"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/processor"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/rail"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/recipient"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/region"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/telemetry"
)

type submitState string

const (
	stateBuilding  submitState = "BUILDING"
	stateRouted    submitState = "ROUTED"
	stateSubmitted submitState = "SUBMITTED"
	stateRecorded  submitState = "RECORDED"
	stateFailed    submitState = "FAILED"
)

type Orchestrator struct {
	processors map[string]processor.Client
	ledger     ledger.Ledger
	registry   recipient.Registry
	publisher  events.Publisher
	logger     *zap.Logger

	wg sync.WaitGroup
}

func New(processors map[string]processor.Client, l ledger.Ledger, registry recipient.Registry, publisher events.Publisher, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		processors: processors,
		ledger:     l,
		registry:   registry,
		publisher:  publisher,
		logger:     logger,
	}
}

// Close waits for in-flight background work (recipient upserts) to
// drain. Called on shutdown.
func (o *Orchestrator) Close() {
	o.wg.Wait()
}

// Submit runs one payout through the state machine. A validation
// failure comes back as an ok:false result with field errors and no
// side effects; processor and ledger failures come back as errors for
// the transport layer to classify.
func (o *Orchestrator) Submit(ctx context.Context, req models.PayoutRequest) (*models.PayoutResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	// A resubmission with a known key returns the prior outcome; it is
	// the same logical payout, not a new one.
	prior, err := o.ledger.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err == nil {
		o.logger.Info("Duplicate submission, returning prior result",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("payout_id", prior.ID),
		)
		return &models.PayoutResult{OK: prior.Status != models.RecordStatusFailed, Record: prior}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		// Cannot prove this submission is new. Refusing is safer than
		// risking a second send of the same payout.
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	telemetry.PayoutsSubmitted.WithLabelValues(string(req.Rail)).Inc()
	o.logTransition(req.IdempotencyKey, "", stateBuilding)

	adapter, err := rail.ForRail(req.Rail)
	if err != nil {
		verr := models.NewValidationError()
		verr.Add("rail", "unsupported payment rail")
		telemetry.PayoutValidationFailures.WithLabelValues(string(req.Rail)).Inc()
		o.logTransition(req.IdempotencyKey, stateBuilding, stateFailed)
		return &models.PayoutResult{OK: false, FieldErrors: verr.Fields}, nil
	}

	payload, err := adapter.Build(req)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			telemetry.PayoutValidationFailures.WithLabelValues(string(req.Rail)).Inc()
			o.logTransition(req.IdempotencyKey, stateBuilding, stateFailed)
			return &models.PayoutResult{OK: false, FieldErrors: verr.Fields}, nil
		}
		return nil, err
	}

	token := region.SelectProcessor(req.Region)
	client, ok := o.processors[token]
	if !ok {
		return nil, fmt.Errorf("no client wired for processor %q", token)
	}
	o.logTransition(req.IdempotencyKey, stateBuilding, stateRouted)

	o.logger.Info("Submitting payout",
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.String("merchant_id", req.MerchantID),
		zap.String("rail", string(req.Rail)),
		zap.String("processor", token),
		zap.String("amount", req.Amount.StringFixed(2)),
	)
	o.logTransition(req.IdempotencyKey, stateRouted, stateSubmitted)

	result, err := client.Send(ctx, payload)
	if err != nil {
		telemetry.ProcessorFailures.WithLabelValues(token).Inc()
		o.logTransition(req.IdempotencyKey, stateSubmitted, stateFailed)
		o.recordFailure(ctx, req, payload, token, err)
		return nil, err
	}

	record := o.buildRecord(req, payload, token, result)
	if err := o.ledger.Insert(ctx, record); err != nil {
		o.logger.Error("Payout processed but ledger write failed",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("provider_transaction_id", result.ProviderTransactionID),
			zap.Error(err),
		)
		return nil, &models.LedgerWriteError{ProviderTransactionID: result.ProviderTransactionID, Err: err}
	}
	o.logTransition(req.IdempotencyKey, stateSubmitted, stateRecorded)
	telemetry.PayoutsRecorded.WithLabelValues(string(req.Rail), string(record.Status)).Inc()

	o.publish(ctx, record)
	o.upsertRecipientAsync(req)

	return &models.PayoutResult{OK: true, Record: record}, nil
}

func (o *Orchestrator) buildRecord(req models.PayoutRequest, payload models.NormalizedPayload, token string, result *models.ProcessorResult) *models.TransactionRecord {
	metadata := map[string]interface{}{
		"provider":                token,
		"provider_transaction_id": result.ProviderTransactionID,
		"provider_status":         string(result.Status),
		"provider_amount":         result.Amount.StringFixed(2),
		"recipient_name":          req.RecipientName,
	}
	if req.Rail == models.RailZelle {
		metadata["zelle_address_kind"] = string(rail.ClassifyZelleAddress(payload.RecipientZelleAddress))
	}

	now := time.Now()
	return &models.TransactionRecord{
		ID:              uuid.New().String(),
		MerchantID:      req.MerchantID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentMethod:   req.Rail,
		Description:     payload.PublicTransactionDescription,
		Status:          models.RecordStatusFromProcessor(result.Status),
		TransactionType: "payout",
		IdempotencyKey:  req.IdempotencyKey,
		Metadata:        metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// recordFailure writes a failed ledger entry for audit after a
// processor rejection. Best-effort: a write failure here is logged
// and swallowed, the processor error is what the caller sees.
func (o *Orchestrator) recordFailure(ctx context.Context, req models.PayoutRequest, payload models.NormalizedPayload, token string, cause error) {
	now := time.Now()
	record := &models.TransactionRecord{
		ID:              uuid.New().String(),
		MerchantID:      req.MerchantID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		PaymentMethod:   req.Rail,
		Description:     payload.PublicTransactionDescription,
		Status:          models.RecordStatusFailed,
		TransactionType: "payout",
		IdempotencyKey:  req.IdempotencyKey,
		Metadata: map[string]interface{}{
			"provider":       token,
			"recipient_name": req.RecipientName,
			"error":          cause.Error(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.ledger.Insert(ctx, record); err != nil {
		o.logger.Warn("Failed to record failed payout",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Error(err),
		)
		return
	}
	telemetry.PayoutsRecorded.WithLabelValues(string(req.Rail), string(models.RecordStatusFailed)).Inc()
	o.publish(ctx, record)
}

func (o *Orchestrator) publish(ctx context.Context, record *models.TransactionRecord) {
	if o.publisher == nil {
		return
	}
	event := events.PayoutEvent{
		PayoutID:       record.ID,
		MerchantID:     record.MerchantID,
		PaymentMethod:  string(record.PaymentMethod),
		Status:         string(record.Status),
		Amount:         record.Amount.StringFixed(2),
		Currency:       record.Currency,
		IdempotencyKey: record.IdempotencyKey,
		Timestamp:      time.Now(),
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Error("Failed to publish payout event",
			zap.String("payout_id", record.ID),
			zap.Error(err),
		)
	}
}

// upsertRecipientAsync caches the recipient off the request path. Any
// failure is logged and swallowed; payout success is independent of
// recipient-cache success.
func (o *Orchestrator) upsertRecipientAsync(req models.PayoutRequest) {
	if o.registry == nil {
		return
	}

	profile := models.RecipientProfile{
		MerchantID:       req.MerchantID,
		FullName:         req.RecipientName,
		Rail:             req.Rail,
		MaskedIdentifier: recipient.MaskIdentifier(identifierForRail(req)),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := o.registry.Upsert(ctx, profile); err != nil {
			o.logger.Warn("Recipient cache upsert failed",
				zap.String("merchant_id", profile.MerchantID),
				zap.String("rail", string(profile.Rail)),
				zap.Error(err),
			)
		}
	}()
}

func identifierForRail(req models.PayoutRequest) string {
	switch req.Rail {
	case models.RailCardPush:
		return req.CardNumber
	default:
		return req.AccountNumber
	}
}

func (o *Orchestrator) logTransition(key string, from, to submitState) {
	o.logger.Info("Payout state transition",
		zap.String("idempotency_key", key),
		zap.String("from_state", string(from)),
		zap.String("to_state", string(to)),
	)
}
