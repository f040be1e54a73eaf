package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eventify-api/internal/status"
	"eventify-api/models"
	"eventify-api/monitoring"
)

// EntryNotifier delivers the "you're in" confirmation after a successful
// scan. Best effort: failures are logged, never surfaced to the gate.
type EntryNotifier interface {
	SendEntryConfirmation(ctx context.Context, email, eventTitle, ticketCode string) error
}

// CheckinPublisher pushes successful scans to the organizer's realtime
// dashboard feed. Best effort, same as the notifier.
type CheckinPublisher interface {
	PublishCheckin(eventID string, payload map[string]any)
}

// ValidationService redeems tickets at the door. Check order is a hard
// requirement: authorization comes before any status disclosure, so a
// non-organizer can never learn whether a token was already used.
type ValidationService struct {
	tickets   TicketStore
	events    EventStore
	regs      RegistrationStore
	users     UserDirectory
	notifier  EntryNotifier
	publisher CheckinPublisher
}

func NewValidationService(tickets TicketStore, events EventStore, regs RegistrationStore, users UserDirectory, notifier EntryNotifier, publisher CheckinPublisher) *ValidationService {
	return &ValidationService{
		tickets:   tickets,
		events:    events,
		regs:      regs,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Validate looks up the ticket behind a redemption token and, when every
// check passes, atomically marks it used. expectedEventID is the event the
// scanning device is configured for; empty skips the cross-event check.
func (s *ValidationService) Validate(ctx context.Context, token, requesterID, expectedEventID string) (*models.ValidationResult, error) {
	started := time.Now()
	result, err := s.validate(ctx, token, requesterID, expectedEventID)
	if err != nil {
		return nil, err
	}

	monitoring.TrackValidation(string(result.Outcome))
	monitoring.ObserveValidationDuration(time.Since(started).Seconds())
	return result, nil
}

func (s *ValidationService) validate(ctx context.Context, token, requesterID, expectedEventID string) (*models.ValidationResult, error) {
	ticket, err := s.tickets.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return &models.ValidationResult{
				Outcome: models.OutcomeInvalid,
				Message: "Invalid ticket",
			}, nil
		}
		return nil, err
	}

	// Authorization before any status disclosure. A ticket whose event no
	// longer resolves has no establishable organizer, so nobody is
	// authorized to probe it.
	event, err := s.events.FindByID(ctx, ticket.EventID)
	if err != nil && !errors.Is(err, status.ErrNotFound) {
		return nil, err
	}
	if event == nil || event.CreatedBy != requesterID {
		return &models.ValidationResult{
			Outcome: models.OutcomeUnauthorized,
			Message: "Unauthorized - not event organizer",
		}, nil
	}

	if expectedEventID != "" && ticket.EventID != expectedEventID {
		return &models.ValidationResult{
			Outcome:  models.OutcomeMismatch,
			Message:  "Ticket is for a different event",
			Mismatch: true,
		}, nil
	}

	if ticket.Status == models.TicketUsed {
		return &models.ValidationResult{
			Outcome: models.OutcomeAlreadyUsed,
			Message: "Ticket already used",
			UsedAt:  ticket.UsedAt,
		}, nil
	}

	if ticket.Status == models.TicketCancelled {
		return &models.ValidationResult{
			Outcome: models.OutcomeCancelled,
			Message: "Ticket cancelled",
		}, nil
	}

	now := time.Now()
	won, err := s.tickets.Redeem(ctx, token, requesterID, now)
	if err != nil {
		return nil, err
	}

	if !won {
		// Lost a concurrent scan race: report the terminal state with the
		// winner's timestamp.
		current, err := s.tickets.FindByToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if current.Status == models.TicketCancelled {
			return &models.ValidationResult{
				Outcome: models.OutcomeCancelled,
				Message: "Ticket cancelled",
			}, nil
		}
		return &models.ValidationResult{
			Outcome: models.OutcomeAlreadyUsed,
			Message: "Ticket already used",
			UsedAt:  current.UsedAt,
		}, nil
	}

	slog.Info("ticket validated", "ticket", ticket.ID, "event", ticket.EventID, "validated_by", requesterID)

	go s.afterRedemption(ticket, event)

	return &models.ValidationResult{
		Outcome:    models.OutcomeValidated,
		Valid:      true,
		Message:    "Ticket validated successfully",
		TicketCode: ticket.Code,
		TicketType: ticket.TicketType,
	}, nil
}

// afterRedemption fires the entry email and the organizer feed update.
// Both are fire and forget; the scan response never waits on them.
func (s *ValidationService) afterRedemption(ticket *models.Ticket, event *models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if s.publisher != nil {
		s.publisher.PublishCheckin(ticket.EventID, map[string]any{
			"type":        "checkin",
			"ticket_id":   ticket.Code,
			"ticket_type": ticket.TicketType,
		})
	}

	if s.notifier == nil {
		return
	}

	email := s.purchaserEmail(ctx, ticket)
	if email == "" {
		return
	}

	if err := s.notifier.SendEntryConfirmation(ctx, email, event.Title, ticket.Code); err != nil {
		slog.Error("entry confirmation failed", "ticket", ticket.ID, "error", err)
	}
}

func (s *ValidationService) purchaserEmail(ctx context.Context, ticket *models.Ticket) string {
	if ticket.UserID != "" {
		if _, email, err := s.users.FindContact(ctx, ticket.UserID); err == nil {
			return email
		}
		return ""
	}

	reg, err := s.regs.FindByID(ctx, ticket.RegistrationID)
	if err != nil {
		return ""
	}
	return reg.Purchaser.GuestEmail
}
