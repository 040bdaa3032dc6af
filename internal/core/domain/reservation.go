package domain

import (
	"fmt"
	"strings"
	"time"
)

type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonNotFound      FailureReason = "NOT_FOUND"
	ReasonAlreadyBooked FailureReason = "ALREADY_BOOKED"
	ReasonStorageError  FailureReason = "STORAGE_ERROR"
)

// Callers match these messages by substring, keep them stable.
var reasonMessages = map[FailureReason]string{
	ReasonNotFound:      "Car not found",
	ReasonAlreadyBooked: "Car is already booked",
	ReasonStorageError:  "Storage unavailable, please retry",
}

func (r FailureReason) Retryable() bool {
	return r == ReasonStorageError
}

func (r FailureReason) Message() string {
	return reasonMessages[r]
}

type ReservationResult struct {
	Success bool
	Reason  FailureReason
}

func Reserved() ReservationResult {
	return ReservationResult{Success: true}
}

func Rejected(reason FailureReason) ReservationResult {
	return ReservationResult{Reason: reason}
}

// Error renders the wire string, e.g. "NOT_FOUND: Car not found". Empty on success.
func (r ReservationResult) Error() string {
	if r.Success {
		return ""
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Reason.Message())
}

// ParseFailureReason recovers the reason from a wire string produced by Error.
// Unrecognised strings are treated as STORAGE_ERROR.
func ParseFailureReason(s string) FailureReason {
	if reason, ok := LookupFailureReason(s); ok {
		return reason
	}
	return ReasonStorageError
}

// LookupFailureReason reports the reason prefixing s, if any.
func LookupFailureReason(s string) (FailureReason, bool) {
	for reason := range reasonMessages {
		if strings.HasPrefix(s, string(reason)) {
			return reason, true
		}
	}
	return ReasonNone, false
}

type CarBookedEvent struct {
	CarID    string    `json:"car_id"`
	BookedBy string    `json:"booked_by"`
	BookedAt time.Time `json:"booked_at"`
}
