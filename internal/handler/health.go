package handler

import (
	"context"
	"net/http"
	"time"

	"beewear/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports liveness of the service and its two dependencies, plus the
// dead-letter depth of the async queues — a stuck receipt or email worker
// shows up here before anyone goes digging through Redis.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "up"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "down"
		}

		redisStatus := "up"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "down"
		}

		var deadLetters int64
		if redisStatus == "up" {
			for _, q := range []string{worker.QueueReceipts, worker.QueueEmail} {
				if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
					deadLetters += n
				}
			}
		}

		status := http.StatusOK
		if dbStatus != "up" || redisStatus != "up" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":           status == http.StatusOK,
			"service":      "beewear",
			"db":           dbStatus,
			"redis":        redisStatus,
			"dead_letters": deadLetters,
		})
	}
}
