package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"eventify-api/internal/status"
	"eventify-api/models"
	"eventify-api/monitoring"
)

// RegistrationService owns the registration state machine:
//
//	pending --confirm--> confirmed
//	pending --cancel--> cancelled (declared but not exercised by any flow)
//
// Free registrations are confirmed at creation and issue tickets
// immediately; paid ones wait for ConfirmPayment.
type RegistrationService struct {
	regs    RegistrationStore
	events  EventStore
	users   UserDirectory
	tickets *TicketService
}

func NewRegistrationService(regs RegistrationStore, events EventStore, users UserDirectory, tickets *TicketService) *RegistrationService {
	return &RegistrationService{
		regs:    regs,
		events:  events,
		users:   users,
		tickets: tickets,
	}
}

type CreateRegistrationParams struct {
	Purchaser     models.Purchaser
	EventID       string
	TicketType    string
	Price         decimal.Decimal
	Quantity      int
	PaymentMethod string
	FormData      []map[string]any
}

type CreateResult struct {
	ID            string                    `json:"id"`
	Status        models.RegistrationStatus `json:"status"`
	PaymentStatus models.PaymentStatus      `json:"payment_status"`
	Tickets       []string                  `json:"tickets"`
}

// Create persists a new registration. Status and payment status are decided
// here from the price alone; anything the client asserted about them has
// been discarded by the handler long before this point.
func (s *RegistrationService) Create(ctx context.Context, params CreateRegistrationParams) (*CreateResult, error) {
	if params.EventID == "" {
		return nil, fmt.Errorf("%w: event id required", status.ErrValidation)
	}
	if params.Purchaser.IsGuest() && (params.Purchaser.GuestName == "" || params.Purchaser.GuestEmail == "") {
		return nil, fmt.Errorf("%w: guest name and email required", status.ErrValidation)
	}
	if params.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", status.ErrValidation)
	}
	if params.Quantity == 0 {
		params.Quantity = 1
	}
	if params.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", status.ErrValidation)
	}
	if params.TicketType == "" {
		params.TicketType = "General"
	}
	if params.PaymentMethod == "" {
		params.PaymentMethod = "Card"
	}

	reg := &models.Registration{
		Purchaser:     params.Purchaser,
		EventID:       params.EventID,
		TicketType:    params.TicketType,
		Price:         params.Price,
		Quantity:      params.Quantity,
		PaymentMethod: params.PaymentMethod,
		FormData:      params.FormData,
	}

	// Only free registrations confirm automatically; paid ones stay
	// pending until the payment confirmation endpoint fires.
	kind := "paid"
	if reg.IsFree() {
		kind = "free"
		reg.Status = models.RegistrationConfirmed
		reg.PaymentStatus = models.PaymentPaid
	} else {
		reg.Status = models.RegistrationPending
		reg.PaymentStatus = models.PaymentPending
	}

	id, err := s.regs.Insert(ctx, reg)
	if err != nil {
		return nil, err
	}
	reg.ID = id

	monitoring.TrackRegistrationCreated(kind)

	ticketIDs := []string{}
	if reg.IsFree() {
		ticketIDs, err = s.tickets.Issue(ctx, reg)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("registration created",
		"registration", id,
		"event", reg.EventID,
		"kind", kind,
		"quantity", reg.Quantity,
		"guest", reg.Purchaser.IsGuest(),
	)

	return &CreateResult{
		ID:            id,
		Status:        reg.Status,
		PaymentStatus: reg.PaymentStatus,
		Tickets:       ticketIDs,
	}, nil
}

type ConfirmResult struct {
	Status         models.RegistrationStatus `json:"status"`
	Tickets        []string                  `json:"tickets"`
	AlreadyApplied bool                      `json:"-"`
}

// ConfirmPayment transitions a pending registration to confirmed and issues
// its tickets. Idempotent: confirming an already confirmed registration
// returns the existing ticket ids without re-issuing. Guest orders have no
// bound identity and may be confirmed by anyone holding the registration id;
// bound orders require the matching requester.
func (s *RegistrationService) ConfirmPayment(ctx context.Context, registrationID, requesterID string) (*ConfirmResult, error) {
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if !reg.Purchaser.IsGuest() && reg.Purchaser.UserID != requesterID {
		return nil, status.ErrUnauthorized
	}

	// cancelled is terminal: a late payment confirmation must never revive
	// the order or mint tickets
	if reg.Status == models.RegistrationCancelled {
		return nil, fmt.Errorf("%w: registration is cancelled", status.ErrConflict)
	}

	if reg.Status == models.RegistrationConfirmed {
		ids, err := s.tickets.Issue(ctx, reg)
		if err != nil {
			return nil, err
		}
		return &ConfirmResult{
			Status:         models.RegistrationConfirmed,
			Tickets:        ids,
			AlreadyApplied: true,
		}, nil
	}

	won, err := s.regs.MarkPaid(ctx, registrationID, time.Now())
	if err != nil {
		return nil, err
	}
	if won {
		monitoring.TrackPaymentConfirmed()
		slog.Info("payment confirmed", "registration", registrationID, "event", reg.EventID)
	}

	// Issue regardless of who won the mark-paid race: the issuer is
	// idempotent, and the loser still owes the caller the ticket ids.
	reg.Status = models.RegistrationConfirmed
	reg.PaymentStatus = models.PaymentPaid
	ids, err := s.tickets.Issue(ctx, reg)
	if err != nil {
		return nil, err
	}

	return &ConfirmResult{
		Status:         models.RegistrationConfirmed,
		Tickets:        ids,
		AlreadyApplied: !won,
	}, nil
}

// MyRegistration is one entry of the "my registrations" listing.
type MyRegistration struct {
	Registration *models.Registration `json:"registration"`
	Event        models.EventSnapshot `json:"event"`
}

// ListMine returns the caller's registrations with event snapshots, missing
// events degraded to placeholders.
func (s *RegistrationService) ListMine(ctx context.Context, userID string) ([]MyRegistration, error) {
	regs, err := s.regs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]MyRegistration, 0, len(regs))
	for _, reg := range regs {
		entry := MyRegistration{
			Registration: reg,
			Event:        models.PlaceholderSnapshot(reg.EventID),
		}

		event, err := s.events.FindByID(ctx, reg.EventID)
		if err == nil {
			entry.Event = event.Snapshot()
		} else if !errors.Is(err, status.ErrNotFound) {
			slog.Warn("registration listing: event lookup failed", "registration", reg.ID, "event", reg.EventID, "error", err)
		}

		results = append(results, entry)
	}

	return results, nil
}

// EventRegistration is one entry of the organizer's per-event listing,
// enriched with purchaser contact details.
type EventRegistration struct {
	Registration *models.Registration `json:"registration"`
	UserName     string               `json:"user_name"`
	UserEmail    string               `json:"user_email"`
}

// ListForEvent returns an event's registrations to its organizer. Only the
// event creator may call this.
func (s *RegistrationService) ListForEvent(ctx context.Context, eventID, requesterID string) ([]EventRegistration, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != requesterID {
		return nil, status.ErrUnauthorized
	}

	regs, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	results := make([]EventRegistration, 0, len(regs))
	for _, reg := range regs {
		entry := EventRegistration{
			Registration: reg,
			UserName:     reg.Purchaser.DisplayName(),
			UserEmail:    reg.Purchaser.GuestEmail,
		}

		if !reg.Purchaser.IsGuest() {
			if name, email, err := s.users.FindContact(ctx, reg.Purchaser.UserID); err == nil {
				if name != "" {
					entry.UserName = name
				}
				entry.UserEmail = email
			}
		}

		results = append(results, entry)
	}

	return results, nil
}
