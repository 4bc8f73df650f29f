package handler

import (
	"context"
	"net/http"
	"time"

	"motorplus/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthTimeout = 3 * time.Second

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

type healthResponse struct {
	OK          bool             `json:"ok"`
	DB          dependencyStatus `json:"db"`
	Redis       dependencyStatus `json:"redis"`
	DeadLetters map[string]int64 `json:"deadLetters,omitempty"`
}

func probe(ctx context.Context, ping func(context.Context) error) dependencyStatus {
	start := time.Now()
	st := dependencyStatus{Status: "connected"}
	if err := ping(ctx); err != nil {
		st.Status = "error"
	}
	st.LatencyMs = time.Since(start).Milliseconds()
	return st
}

// Health pings the database and Redis and reports dead-letter depth per job
// queue. Redis being disabled is not a failure.
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	healthResponse
//	@Failure	503	{object}	healthResponse
//	@Router		/health [get]
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{
			DB: probe(ctx, func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}),
			Redis: dependencyStatus{Status: "disabled"},
		}
		if rdb != nil {
			resp.Redis = probe(ctx, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
			if resp.Redis.Status == "connected" {
				resp.DeadLetters = make(map[string]int64, 2)
				for _, q := range []string{worker.QueueNotifications, worker.QueueStock} {
					if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
						resp.DeadLetters[q] = n
					}
				}
			}
		}

		resp.OK = resp.DB.Status == "connected" && resp.Redis.Status != "error"
		status := http.StatusOK
		if !resp.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}
