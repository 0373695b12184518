package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/ledger"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/models"
)

// IdempotencyMiddleware short-circuits a resubmission with a known
// Idempotency-Key: first from the Redis result cache, then from the
// ledger. A missing header is allowed; the orchestrator generates a
// key in that case.
func IdempotencyMiddleware(redisClient *redis.Client, l ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		cached, err := redisClient.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
		if err == nil {
			var result models.PayoutResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				c.JSON(http.StatusOK, result)
				c.Abort()
				return
			}
		}

		record, err := l.GetByIdempotencyKey(ctx, key)
		if err == nil && record != nil {
			c.JSON(http.StatusOK, models.PayoutResult{
				OK:     record.Status != models.RecordStatusFailed,
				Record: record,
			})
			c.Abort()
			return
		}

		c.Set("idempotency_key", key)
		c.Next()
	}
}
