package handler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/srgjo27/car_rental/internal/platform/auth"
)

const IdempotencyHeader = "Idempotency-Key"

type CachedResponse struct {
	RequestHash string      `json:"request_hash"`
	StatusCode  int         `json:"status_code"`
	Headers     http.Header `json:"headers"`
	Body        []byte      `json:"body"`
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, bool, error)
	Set(ctx context.Context, key string, resp *CachedResponse) error
}

type RedisIdempotencyStore struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client goredis.Cmdable, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get idempotency key")
	}

	var cached CachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, errors.Wrap(err, "decode cached response")
	}

	return &cached, true, nil
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, resp *CachedResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return errors.Wrap(err, "encode cached response")
	}

	return errors.Wrap(s.client.Set(ctx, key, raw, s.ttl).Err(), "redis set idempotency key")
}

// MemoryIdempotencyStore keeps replays in process for single-instance runs.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	resp      *CachedResponse
	expiresAt time.Time
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (s *MemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}

	return entry.resp, true, nil
}

func (s *MemoryIdempotencyStore) Set(_ context.Context, key string, resp *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{resp: resp, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// IdempotencyKey scopes a client key to its caller. Both parts are length
// prefixed before hashing so no subject/key pair collides with another.
func IdempotencyKey(subject, key string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%s%d:%s", len(subject), subject, len(key), key)
	return "idempotency:" + hex.EncodeToString(h.Sum(nil))
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key from
// the same caller. A key reused with a different body is refused. Only decided
// outcomes are stored; 5xx answers stay retryable. Must run after Authenticate.
func Idempotency(store IdempotencyStore, logger *log.Entry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			caller, ok := auth.FromContext(r.Context())
			if key == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes))
			if err != nil {
				writeBodyError(w, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			requestHash := hex.EncodeToString(sum[:])
			storeKey := IdempotencyKey(caller.UserID, key)

			cached, found, err := store.Get(r.Context(), storeKey)
			if err != nil {
				logger.WithError(err).Warn("idempotency lookup failed")
			}
			if found && cached.RequestHash != requestHash {
				writeError(w, http.StatusUnprocessableEntity, "idempotency key reused with a different request")
				return
			}
			if found {
				for k, values := range cached.Headers {
					if k == "X-Request-Id" {
						continue
					}
					for _, v := range values {
						w.Header().Add(k, v)
					}
				}
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(cached.StatusCode)
				_, _ = w.Write(cached.Body)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.statusCode >= http.StatusInternalServerError {
				return
			}

			resp := &CachedResponse{
				RequestHash: requestHash,
				StatusCode:  capture.statusCode,
				Headers:     w.Header().Clone(),
				Body:        capture.body.Bytes(),
			}
			if err := store.Set(context.WithoutCancel(r.Context()), storeKey, resp); err != nil {
				logger.WithError(err).Warn("idempotency store failed")
			}
		})
	}
}
