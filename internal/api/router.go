package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/handlers"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/interfaces"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/ledger"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/middleware"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/telemetry"
)

func NewRouter(service interfaces.PayoutService, l ledger.Ledger, redisClient *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payout-service"})
	})

	payoutHandler := handlers.NewPayoutHandler(service, l, redisClient, logger)
	payouts := r.Group("/payouts")
	{
		payouts.POST("", middleware.IdempotencyMiddleware(redisClient, l), payoutHandler.SubmitPayout)
		payouts.GET("", payoutHandler.ListPayouts)
		payouts.GET("/:id", payoutHandler.GetPayout)
		payouts.POST("/:id/confirm", payoutHandler.ConfirmPayout)
	}

	return r
}
