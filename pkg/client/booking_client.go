// Package client is the calling convention UI code uses for booking. It turns
// the book_car_atomic RPC into an Outcome and retries only what is safe to
// retry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/srgjo27/car_rental/internal/core/domain"
)

const (
	MessageUnavailable = "This car is no longer available."
	MessageTryAgain    = "Something went wrong, please try again."
)

var (
	// ErrOutcomeUnknown means the booking may or may not have happened, either
	// because the caller's context ended or an interrupted attempt could not be
	// settled. Re-read the car with GetCar.
	ErrOutcomeUnknown = errors.New("booking outcome unknown, re-query the car")

	// ErrRequestRejected is a 4xx answer that carries no booking reason, such as
	// a missing token or a malformed body. Retrying does not help.
	ErrRequestRejected = errors.New("booking request rejected")
)

type Outcome struct {
	Success  bool
	Reason   domain.FailureReason
	Attempts int
}

func (o Outcome) UserMessage() string {
	switch {
	case o.Success:
		return ""
	case o.Reason == domain.ReasonNotFound, o.Reason == domain.ReasonAlreadyBooked:
		return MessageUnavailable
	default:
		return MessageTryAgain
	}
}

// RetryPolicy bounds the exponential backoff between STORAGE_ERROR retries.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	var retries uint64
	if p.MaxAttempts > 1 {
		retries = uint64(p.MaxAttempts - 1)
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

type BookingClient struct {
	BaseURL string
	Token   string
	// UserID is the token subject. Without it an interrupted attempt cannot be
	// told apart from someone else's booking and Book reports ErrOutcomeUnknown.
	UserID     string
	HTTPClient *http.Client
	Retry      RetryPolicy
}

func NewBookingClient(baseURL, token string) *BookingClient {
	return &BookingClient{
		BaseURL: baseURL,
		Token:   token,
		UserID:  tokenSubject(token),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Retry: DefaultRetryPolicy,
	}
}

// tokenSubject reads sub without verifying the signature; the server does that.
func tokenSubject(token string) string {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

type bookRequest struct {
	ResourceID string `json:"resource_id"`
}

type bookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

var errRetryable = errors.New("retryable booking failure")

// Book reserves the car. NOT_FOUND and ALREADY_BOOKED come back as an Outcome
// without error; STORAGE_ERROR is retried with backoff and returned as an
// Outcome once attempts run out. An attempt whose answer never arrived may
// have committed, so after one the result is settled against the car's
// current holder or reported as ErrOutcomeUnknown.
func (c *BookingClient) Book(ctx context.Context, carID string) (Outcome, error) {
	var (
		outcome   Outcome
		attempts  int
		ambiguous bool
		rejected  error
	)

	_ = backoff.Retry(func() error {
		attempts++
		res := c.bookOnce(ctx, carID)
		outcome = res.outcome
		outcome.Attempts = attempts
		ambiguous = ambiguous || res.ambiguous

		switch {
		case res.err != nil:
			rejected = res.err
			return backoff.Permanent(res.err)
		case !outcome.Success && outcome.Reason.Retryable():
			return errRetryable
		}
		return nil
	}, c.Retry.backOff(ctx))

	switch {
	case rejected != nil:
		return outcome, rejected
	case outcome.Success:
		return outcome, nil
	case ctx.Err() != nil:
		return outcome, ErrOutcomeUnknown
	case ambiguous && outcome.Reason != domain.ReasonNotFound:
		return c.reconcile(ctx, carID, outcome)
	}

	return outcome, nil
}

// reconcile settles a booking after an interrupted attempt. The rejection seen
// afterwards may be the caller's own earlier write, so the holder decides.
func (c *BookingClient) reconcile(ctx context.Context, carID string, last Outcome) (Outcome, error) {
	if c.UserID == "" {
		return last, ErrOutcomeUnknown
	}

	car, err := c.GetCar(ctx, carID)
	if err != nil || car.BookedBy == nil {
		return last, ErrOutcomeUnknown
	}

	if *car.BookedBy == c.UserID {
		return Outcome{Success: true, Attempts: last.Attempts}, nil
	}

	return Outcome{Reason: domain.ReasonAlreadyBooked, Attempts: last.Attempts}, nil
}

type attemptResult struct {
	outcome   Outcome
	ambiguous bool
	err       error
}

func (c *BookingClient) bookOnce(ctx context.Context, carID string) attemptResult {
	unknown := attemptResult{outcome: Outcome{Reason: domain.ReasonStorageError}, ambiguous: true}

	body, _ := json.Marshal(bookRequest{ResourceID: carID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rpc/book_car_atomic", bytes.NewReader(body))
	if err != nil {
		return attemptResult{err: errors.Wrap(err, "failed to create request")}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	// The request may have reached the server before the transport failed.
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return unknown
	}
	defer resp.Body.Close()

	var decoded bookResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&decoded); err == nil {
		if decoded.Success {
			return attemptResult{outcome: Outcome{Success: true}}
		}
		if reason, ok := domain.LookupFailureReason(decoded.Error); ok {
			return attemptResult{outcome: Outcome{Reason: reason}}
		}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return unknown
	}

	return attemptResult{err: errors.Wrapf(ErrRequestRejected, "status %d: %s", resp.StatusCode, decoded.Error)}
}

func (c *BookingClient) GetCar(ctx context.Context, carID string) (*domain.Car, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/cars/"+carID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrCarNotFound
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var car domain.Car
	if err := json.NewDecoder(resp.Body).Decode(&car); err != nil {
		return nil, errors.Wrap(err, "failed to decode car")
	}

	return &car, nil
}
