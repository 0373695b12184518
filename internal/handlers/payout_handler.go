package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/interfaces"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/ledger"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

type PayoutHandler struct {
	service     interfaces.PayoutService
	ledger      ledger.Ledger
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewPayoutHandler(service interfaces.PayoutService, l ledger.Ledger, redisClient *redis.Client, logger *zap.Logger) *PayoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutHandler{service: service, ledger: l, redisClient: redisClient, logger: logger}
}

type SubmitPayoutRequest struct {
	MerchantID    string  `json:"merchant_id" binding:"required"`
	Region        string  `json:"region"`
	Rail          string  `json:"rail" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,len=3"`
	RecipientName string  `json:"recipient_name"`
	AccountNumber string  `json:"account_number"`
	RoutingNumber string  `json:"routing_number"`
	BankName      string  `json:"bank_name"`
	CardNumber    string  `json:"card_number"`
	CardExpMonth  string  `json:"card_exp_month"`
	CardExpYear   string  `json:"card_exp_year"`
	CardCVV       string  `json:"card_cvv"`
	Description   string  `json:"description"`
}

func (h *PayoutHandler) SubmitPayout(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)

	var req SubmitPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid payout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	railValue, err := models.ParseRail(req.Rail)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.PayoutResult{
			OK:          false,
			FieldErrors: map[string]string{"rail": "unsupported payment rail"},
		})
		return
	}

	payout := models.PayoutRequest{
		MerchantID:     req.MerchantID,
		Region:         models.Region(req.Region),
		Rail:           railValue,
		Amount:         decimal.NewFromFloat(req.Amount),
		Currency:       req.Currency,
		RecipientName:  req.RecipientName,
		AccountNumber:  req.AccountNumber,
		RoutingNumber:  req.RoutingNumber,
		BankName:       req.BankName,
		CardNumber:     req.CardNumber,
		CardExpMonth:   req.CardExpMonth,
		CardExpYear:    req.CardExpYear,
		CardCVV:        req.CardCVV,
		Description:    req.Description,
		IdempotencyKey: c.GetString("idempotency_key"),
	}

	h.logger.Info("Submitting payout",
		zap.String("merchant_id", payout.MerchantID),
		zap.String("rail", string(payout.Rail)),
		zap.Float64("amount", req.Amount),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	result, err := h.service.Submit(ctx, payout)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !result.OK {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	h.cacheResult(c, result)
	c.JSON(http.StatusCreated, result)
}

func (h *PayoutHandler) respondError(c *gin.Context, err error) {
	var perr *models.ProcessorError
	if errors.As(err, &perr) {
		h.logger.Warn("Processor rejected payout", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "payment could not be processed"})
		return
	}

	var lwe *models.LedgerWriteError
	if errors.As(err, &lwe) {
		h.logger.Error("Payout not recorded", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "payment may have been processed but was not recorded; contact support",
		})
		return
	}

	h.logger.Error("Payout submission failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to submit payout"})
}

func (h *PayoutHandler) cacheResult(c *gin.Context, result *models.PayoutResult) {
	if h.redisClient == nil || result.Record == nil || result.Record.IdempotencyKey == "" {
		return
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := fmt.Sprintf("idempotency:%s", result.Record.IdempotencyKey)
	if err := h.redisClient.Set(c.Request.Context(), key, resultJSON, 24*time.Hour).Err(); err != nil {
		h.logger.Warn("Failed to cache payout result", zap.Error(err))
	}
}

func (h *PayoutHandler) GetPayout(c *gin.Context) {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchant_id is required"})
		return
	}

	record, err := h.ledger.GetByID(c.Request.Context(), merchantID, c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payout not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payout"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *PayoutHandler) ListPayouts(c *gin.Context) {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchant_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.ledger.ListByMerchant(c.Request.Context(), merchantID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payouts"})
		return
	}
	if records == nil {
		records = []models.TransactionRecord{}
	}

	c.JSON(http.StatusOK, records)
}

// ConfirmPayout moves a pending payout to completed. Pending is the
// only status this transition accepts; terminal records stay put.
func (h *PayoutHandler) ConfirmPayout(c *gin.Context) {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchant_id is required"})
		return
	}

	id := c.Param("id")
	err := h.ledger.UpdateStatus(c.Request.Context(), merchantID, id,
		models.RecordStatusPending, models.RecordStatusCompleted)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "payout is not pending"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed", "payout_id": id})
}
