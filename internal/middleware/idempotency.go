package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/logger"
	"storefront-be/internal/redis"
	"storefront-be/internal/result"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// idempotentRoutes are the payment and fulfilment actions a client may
// safely retry with the same key.
var idempotentRoutes = map[string]bool{
	"POST /api/orders/{id}/pay":           true,
	"POST /api/orders/{id}/capture":       true,
	"POST /api/admin/orders/{id}/cod":     true,
	"POST /api/admin/orders/{id}/deliver": true,
}

var errKeyReused = apperr.New(apperr.KindValidation, apperr.CodeInvalidInput, "Idempotency-Key reused with a different request")

type idempotencyRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the routes above. Requests without a key pass through. Server errors are
// not stored so the client can retry them. When the store is unreachable the
// request runs without replay protection.
func Idempotency(store redis.IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if store == nil || idempotencyKey == "" || !idempotentRoutes[r.Method+" "+routePattern(r)] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := logger.FromCtx(ctx).With(zap.String("idempotency_key", idempotencyKey))

			body, err := io.ReadAll(r.Body)
			if err != nil {
				result.WriteError(w, r, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(buildScope(r), idempotencyKey)

			pending, _ := json.Marshal(idempotencyRecord{Pending: true, RequestHash: requestHash})
			acquired, err := store.SetNX(ctx, key, string(pending), ttl)
			if err != nil {
				log.Warn("idempotency store unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				stored, err := store.Get(ctx, key)
				if err != nil {
					log.Warn("idempotency record unreadable", zap.Error(err))
					next.ServeHTTP(w, r)
					return
				}

				var record idempotencyRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					log.Warn("idempotency record undecodable", zap.Error(err))
					next.ServeHTTP(w, r)
					return
				}

				switch {
				case record.RequestHash != requestHash:
					result.WriteError(w, r, errKeyReused)
				case record.Pending:
					result.Write(w, http.StatusConflict, result.Fail[struct{}]("", "A request with this Idempotency-Key is in progress"))
				default:
					log.Info("replaying stored response")
					writeStoredResponse(w, &record)
				}
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := defaultStatus(rec.status)
			if status >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil {
					log.Warn("failed to release idempotency key", zap.Error(err))
				}
				return
			}

			payload, _ := json.Marshal(idempotencyRecord{
				Status:      status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				RequestHash: requestHash,
			})
			if err := store.Set(ctx, key, string(payload), ttl); err != nil {
				log.Warn("failed to persist idempotency record", zap.Error(err))
			}
		})
	}
}

func buildScope(r *http.Request) string {
	actor := ActorFrom(r)
	owner := actor.UserID
	if owner == "" {
		owner = actor.SessionCartID
	}
	return strings.Join([]string{owner, r.Method, r.URL.Path}, "|")
}

func writeStoredResponse(w http.ResponseWriter, record *idempotencyRecord) {
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func defaultStatus(value int) int {
	if value == 0 {
		return http.StatusOK
	}
	return value
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
