package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/cashflow-ledger/internal/auth"
	"github.com/josh-kwaku/cashflow-ledger/internal/handler"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/repository"
)

const IdempotencyHeader = "Idempotency-Key"

type idempotencyStore interface {
	Get(ctx context.Context, key, scope string) (*repository.IdempotencyEntry, error)
	Set(ctx context.Context, entry *repository.IdempotencyEntry) error
}

// Idempotency replays the stored response when a mutating request repeats
// its Idempotency-Key within the caller's scope. Requests without a key pass
// through. Only successful responses are stored, so a failed import can be
// retried under the same key. Bodies larger than maxBody are rejected before
// they are buffered.
func Idempotency(repo idempotencyStore, ttl time.Duration, maxBody int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope, ok := auth.ScopeFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}
			log := logging.FromContext(r.Context()).With("idempotency_key", key)

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					handler.RespondAppError(w, handler.ErrPayloadTooLarge, nil)
					return
				}
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, r.Header.Get("Content-Type"), body)

			cached, err := repo.Get(r.Context(), key, scope)
			if err != nil {
				log.Error("idempotency lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}

			if cached != nil {
				if cached.RequestHash != reqHash {
					handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replayed", "true")
				w.WriteHeader(cached.StatusCode)
				if _, err := w.Write(cached.ResponseBody); err != nil {
					log.Error("failed to write idempotent replay", "error", err)
				}
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 {
				return
			}
			now := time.Now().UTC()
			entry := &repository.IdempotencyEntry{
				Key:          key,
				Scope:        scope,
				RequestHash:  reqHash,
				StatusCode:   rec.statusCode,
				ResponseBody: rec.body.Bytes(),
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
			}
			if err := repo.Set(r.Context(), entry); err != nil {
				log.Error("idempotency store failed", "error", err)
			}
		})
	}
}

func computeHash(method, path, contentType string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write([]byte(contentType))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
