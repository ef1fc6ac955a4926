package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"

	processingMarker = "PROCESSING"

	// lockGrace keeps the marker alive past the handler deadline so the
	// result is written before a retry can take the key
	lockGrace = 5 * time.Second
)

// IdempotencyConfig controls how long keys are held
type IdempotencyConfig struct {
	// LockTTL is the deadline given to the wrapped handler. The marker
	// outlives it by lockGrace, so a live request never loses its key.
	LockTTL time.Duration
	// ResultTTL is how long a completed response is replayed
	ResultTTL time.Duration
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:   10 * time.Second,
		ResultTTL: 24 * time.Hour,
	}
}

type storedResponse struct {
	RequestHash string `json:"requestHash"`
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// fingerprint hashes the request body and puts it back for the handler
func fingerprint(r *http.Request) (string, error) {
	if r.Body == nil {
		return hex.EncodeToString(sha256.New().Sum(nil)), nil
	}
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg, Code: code})
}

func keyReused(w http.ResponseWriter) {
	writeError(w, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
		"this idempotency key was already used with a different request body")
}

// Idempotency replays the stored response for a repeated Idempotency-Key so
// a retried booking does not take a second seat. A key is bound to the hash
// of the body it was first sent with; reusing it for another body is
// rejected with 422. Requests without the header pass through untouched.
// If redis is unavailable the request is served without protection.
func Idempotency(client *redis.Client, cfg IdempotencyConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultIdempotencyConfig()
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = defaults.ResultTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			idemKey := fmt.Sprintf("idempotency:%s:%s:%s", r.Method, r.URL.Path, key)
			ctx := r.Context()

			hash, err := fingerprint(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to read request body")
				return
			}

			acquired, err := client.SetNX(ctx, idemKey, processingMarker+":"+hash, cfg.LockTTL+lockGrace).Result()
			if err != nil {
				logger.WarnContext(ctx, "idempotency store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				replay(w, r, client, idemKey, hash, logger)
				return
			}

			var buf bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)

			handlerCtx, cancel := context.WithTimeout(ctx, cfg.LockTTL)
			next.ServeHTTP(ww, r.WithContext(handlerCtx))
			cancel()

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			// server failures release the key so the client may retry
			if status >= http.StatusInternalServerError {
				if err := client.Del(ctx, idemKey).Err(); err != nil {
					logger.WarnContext(ctx, "failed to release idempotency key", "key", idemKey, "error", err)
				}
				return
			}

			payload, err := json.Marshal(storedResponse{
				RequestHash: hash,
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
			})
			if err != nil {
				logger.ErrorContext(ctx, "failed to encode idempotent response", "error", err)
				return
			}
			if err := client.Set(ctx, idemKey, payload, cfg.ResultTTL).Err(); err != nil {
				logger.WarnContext(ctx, "failed to store idempotent response", "key", idemKey, "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, client *redis.Client, idemKey, hash string, logger *slog.Logger) {
	val, err := client.Get(r.Context(), idemKey).Result()
	if errors.Is(err, redis.Nil) || strings.HasPrefix(val, processingMarker) {
		// a bare marker carries no hash and is only reported as busy
		if owner := strings.TrimPrefix(strings.TrimPrefix(val, processingMarker), ":"); owner != "" && owner != hash {
			keyReused(w)
			return
		}
		writeError(w, http.StatusConflict, "REQUEST_IN_PROGRESS", "a request with this idempotency key is still in progress")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to read idempotent response", "key", idemKey, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		logger.ErrorContext(r.Context(), "corrupt idempotent response", "key", idemKey, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if stored.RequestHash != hash {
		keyReused(w)
		return
	}

	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(IdempotencyHitHeader, "true")
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}
