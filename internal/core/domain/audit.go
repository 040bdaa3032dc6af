package domain

import (
	"time"

	"github.com/google/uuid"
)

const ActionBookCar = "book_car"

type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "success"
	OutcomeFailure AuditOutcome = "failure"
)

// AuditLogEntry is append-only. ResourceID is kept as the raw requested id so
// that attempts with malformed ids are recorded too.
type AuditLogEntry struct {
	ID         uuid.UUID
	Action     string
	Actor      string
	ResourceID string
	Outcome    AuditOutcome
	Reason     FailureReason
	Timestamp  time.Time
}

func NewBookingAudit(actor, resourceID string, result ReservationResult, at time.Time) AuditLogEntry {
	entry := AuditLogEntry{
		ID:         uuid.New(),
		Action:     ActionBookCar,
		Actor:      actor,
		ResourceID: resourceID,
		Outcome:    OutcomeSuccess,
		Timestamp:  at,
	}

	if !result.Success {
		entry.Outcome = OutcomeFailure
		entry.Reason = result.Reason
	}

	return entry
}
