package middleware

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"notification-service/pkg/response"
)

// RateLimit applies a fixed-window per-client limit backed by Redis.
// A nil client or a Redis outage fails open: throttling is protection,
// not a correctness requirement.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			client := UserID(r.Context())
			if client == "" {
				host, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					host = r.RemoteAddr
				}
				client = host
			}

			key := fmt.Sprintf("ratelimit:%s:%s", scope, client)
			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				log.Printf("[RateLimit] redis unavailable, failing open: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rdb.Expire(r.Context(), key, window)
			}
			if count > int64(limit) {
				response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
