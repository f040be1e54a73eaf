package models

import (
	"time"
)

type TicketStatus string

const (
	TicketValid     TicketStatus = "valid"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is one admission unit. Slot is the ticket's index within its
// registration's quantity; (RegistrationID, Slot) is unique in storage so
// concurrent issuance cannot mint more than quantity tickets.
type Ticket struct {
	ID             string       `json:"id"`
	Code           string       `json:"ticket_id"`
	RegistrationID string       `json:"registration_id"`
	Slot           int          `json:"slot"`
	UserID         string       `json:"user_id,omitempty"`
	EventID        string       `json:"event_id"`
	TicketType     string       `json:"ticket_type"`
	QRToken        string       `json:"qr_token,omitempty"`
	Status         TicketStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UsedAt         *time.Time   `json:"used_at,omitempty"`
	ValidatedBy    string       `json:"validated_by,omitempty"`
}

// ValidationOutcome classifies a redemption attempt so the scanning UI can
// render distinct messages instead of branching on a bare boolean.
type ValidationOutcome string

const (
	OutcomeValidated    ValidationOutcome = "validated"
	OutcomeInvalid      ValidationOutcome = "invalid"
	OutcomeUnauthorized ValidationOutcome = "unauthorized"
	OutcomeMismatch     ValidationOutcome = "mismatch"
	OutcomeAlreadyUsed  ValidationOutcome = "already_used"
	OutcomeCancelled    ValidationOutcome = "cancelled"
)

type ValidationResult struct {
	Outcome    ValidationOutcome `json:"outcome"`
	Valid      bool              `json:"valid"`
	Message    string            `json:"message"`
	Mismatch   bool              `json:"mismatch,omitempty"`
	TicketCode string            `json:"ticket_id,omitempty"`
	TicketType string            `json:"ticket_type,omitempty"`
	UsedAt     *time.Time        `json:"used_at,omitempty"`
}
