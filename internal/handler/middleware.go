package handler

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kikundi/sacco-engine/pkg/response"
)

const idempotencyHeader = "Idempotency-Key"

// IdempotencyMiddleware rejects a repeated mutating request carrying the same
// Idempotency-Key within the window. The ledger's unique refs remain the
// authoritative barrier; this only short-circuits obvious client retries
// before they reach the database. Requests without the header pass through.
func IdempotencyMiddleware(rdb *redis.Client, log zerolog.Logger, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := rdb.SetNX(r.Context(), "idem:"+key, "1", window).Result()
			if err != nil {
				// Redis being down must not block payments.
				log.Warn().Err(err).Msg("idempotency check unavailable, letting request through")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				response.Error(w, http.StatusConflict, "duplicate request", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
