package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Purchaser is either an authenticated user (UserID set) or a guest
// identified by contact details. Resolved once when the registration is
// created; never re-derived from later requests.
type Purchaser struct {
	UserID     string `json:"user_id,omitempty"`
	GuestName  string `json:"guest_name,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`
}

func (p Purchaser) IsGuest() bool {
	return p.UserID == ""
}

// DisplayName returns the purchaser name shown on organizer listings.
func (p Purchaser) DisplayName() string {
	if p.IsGuest() {
		if p.GuestName == "" {
			return "Anonymous"
		}
		return p.GuestName
	}
	return p.UserID
}

type Registration struct {
	ID            string             `json:"id"`
	Purchaser     Purchaser          `json:"purchaser"`
	EventID       string             `json:"event_id"`
	TicketType    string             `json:"ticket_type"`
	Price         decimal.Decimal    `json:"price"`
	Quantity      int                `json:"quantity"`
	PaymentMethod string             `json:"payment_method"`
	Status        RegistrationStatus `json:"status"`
	PaymentStatus PaymentStatus      `json:"payment_status"`
	RegisteredAt  time.Time          `json:"registered_at"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	FormData      []map[string]any   `json:"form_data,omitempty"`
}

// IsFree reports whether the registration needs no payment before
// confirmation. Payment state for paid orders is decided server side from
// the price alone, never from client-sent status fields.
func (r *Registration) IsFree() bool {
	return r.Price.IsZero()
}
