package services

import (
	"context"
	"time"

	"eventify-api/models"
)

// Store interfaces cover the document-store operations the workflow needs.
// The production implementations live in internal/store and are backed by
// the PocketBase database.

type RegistrationStore interface {
	Insert(ctx context.Context, reg *models.Registration) (string, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error)

	// MarkPaid transitions pending -> confirmed/paid. It must be a single
	// conditional update; the returned bool reports whether this call won
	// the transition (false when another call already confirmed).
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
}

type TicketStore interface {
	// Insert persists a ticket for its (registration, slot) pair and
	// returns status.ErrConflict when that slot is already taken.
	Insert(ctx context.Context, ticket *models.Ticket) (string, error)
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	FindByToken(ctx context.Context, token string) (*models.Ticket, error)
	ListByRegistration(ctx context.Context, registrationID string) ([]*models.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error)

	// Redeem atomically transitions valid -> used for the given token. The
	// returned bool reports whether this call performed the transition;
	// false means the ticket was no longer valid (or the token unknown).
	Redeem(ctx context.Context, token, validatedBy string, usedAt time.Time) (bool, error)
}

type EventStore interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// UserDirectory resolves contact details for authenticated purchasers;
// guest contact details live on the registration itself.
type UserDirectory interface {
	FindContact(ctx context.Context, userID string) (name, email string, err error)
}
