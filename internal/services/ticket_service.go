package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventify-api/internal/status"
	"eventify-api/models"
	"eventify-api/monitoring"
	"eventify-api/utils"
)

// TicketService materializes ticket records for confirmed registrations and
// serves the ticket read paths.
type TicketService struct {
	tickets TicketStore
	events  EventStore
	regs    RegistrationStore
	users   UserDirectory
}

func NewTicketService(tickets TicketStore, events EventStore, regs RegistrationStore, users UserDirectory) *TicketService {
	return &TicketService{
		tickets: tickets,
		events:  events,
		regs:    regs,
		users:   users,
	}
}

// Issue converts a registration's quantity into exactly that many ticket
// records. Safe to call any number of times, concurrently or not: every
// ticket claims a (registration, slot) pair that is unique in storage, so a
// repeated or racing call either finds its slots taken or loses the insert
// race, and in both cases ends up returning the same ticket set.
func (s *TicketService) Issue(ctx context.Context, reg *models.Registration) ([]string, error) {
	existing, err := s.tickets.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, err
	}

	if len(existing) >= reg.Quantity {
		return ticketIDs(existing), nil
	}

	taken := make(map[int]bool, len(existing))
	for _, t := range existing {
		taken[t.Slot] = true
	}

	for slot := 0; slot < reg.Quantity; slot++ {
		if taken[slot] {
			continue
		}

		ticket, err := s.newTicket(reg, slot)
		if err != nil {
			return nil, err
		}

		if _, err := s.tickets.Insert(ctx, ticket); err != nil {
			if errors.Is(err, status.ErrConflict) {
				// another issuer won this slot
				continue
			}
			return nil, err
		}

		monitoring.TrackTicketIssued(reg.EventID)
	}

	all, err := s.tickets.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, err
	}

	if len(all) != reg.Quantity {
		return nil, fmt.Errorf("issuance for registration %q produced %d of %d tickets", reg.ID, len(all), reg.Quantity)
	}

	return ticketIDs(all), nil
}

func (s *TicketService) newTicket(reg *models.Registration, slot int) (*models.Ticket, error) {
	code, err := utils.GenerateTicketCode()
	if err != nil {
		return nil, fmt.Errorf("generate ticket code: %w", err)
	}

	token, err := utils.GenerateQRToken()
	if err != nil {
		return nil, fmt.Errorf("generate qr token: %w", err)
	}

	return &models.Ticket{
		Code:           code,
		RegistrationID: reg.ID,
		Slot:           slot,
		UserID:         reg.Purchaser.UserID,
		EventID:        reg.EventID,
		TicketType:     reg.TicketType,
		QRToken:        token,
		Status:         models.TicketValid,
	}, nil
}

// TicketSummary is one entry of the "my tickets" listing.
type TicketSummary struct {
	Ticket       *models.Ticket        `json:"ticket"`
	Event        models.EventSnapshot  `json:"event"`
	Registration *RegistrationSnapshot `json:"registration,omitempty"`
}

type RegistrationSnapshot struct {
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	RegisteredAt  string               `json:"registered_at,omitempty"`
}

// ListMine returns the caller's tickets with embedded event snapshots. A
// ticket whose event no longer resolves gets a placeholder entry; the rest
// of the list still returns.
func (s *TicketService) ListMine(ctx context.Context, userID string) ([]TicketSummary, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]TicketSummary, 0, len(tickets))
	for _, ticket := range tickets {
		summary := TicketSummary{
			Ticket: ticket,
			Event:  models.PlaceholderSnapshot(ticket.EventID),
		}

		event, err := s.events.FindByID(ctx, ticket.EventID)
		if err == nil {
			summary.Event = event.Snapshot()
		} else if !errors.Is(err, status.ErrNotFound) {
			slog.Warn("ticket listing: event lookup failed", "ticket", ticket.ID, "event", ticket.EventID, "error", err)
		}

		if reg, err := s.regs.FindByID(ctx, ticket.RegistrationID); err == nil {
			summary.Registration = &RegistrationSnapshot{
				PaymentStatus: reg.PaymentStatus,
				RegisteredAt:  reg.RegisteredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// TicketDetail is the single-ticket view returned to the ticket's owner,
// QR token included (the owner already holds the capability).
type TicketDetail struct {
	Ticket *models.Ticket        `json:"ticket"`
	Event  *models.EventSnapshot `json:"event,omitempty"`
	Holder *Holder               `json:"holder,omitempty"`
}

type Holder struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Get returns one ticket, owner-only.
func (s *TicketService) Get(ctx context.Context, ticketID, requesterID string) (*TicketDetail, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.UserID != requesterID {
		return nil, status.ErrUnauthorized
	}

	detail := &TicketDetail{Ticket: ticket}

	event, err := s.events.FindByID(ctx, ticket.EventID)
	if err == nil {
		snapshot := event.Snapshot()
		detail.Event = &snapshot
	} else if !errors.Is(err, status.ErrNotFound) {
		return nil, err
	}

	if name, email, err := s.users.FindContact(ctx, ticket.UserID); err == nil {
		detail.Holder = &Holder{Name: name, Email: email}
	}

	return detail, nil
}

func ticketIDs(tickets []*models.Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}
