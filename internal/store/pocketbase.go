// Package store adapts the PocketBase database to the narrow document-store
// interfaces the services consume.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"

	"eventify-api/internal/status"
	"eventify-api/models"
)

type Registrations struct {
	app core.App
}

func NewRegistrations(app core.App) *Registrations {
	return &Registrations{app: app}
}

func (s *Registrations) Insert(ctx context.Context, reg *models.Registration) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId("registrations")
	if err != nil {
		return "", fmt.Errorf("find registrations collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("user_id", reg.Purchaser.UserID)
	record.Set("guest_name", reg.Purchaser.GuestName)
	record.Set("guest_email", reg.Purchaser.GuestEmail)
	record.Set("guest_phone", reg.Purchaser.GuestPhone)
	record.Set("event_id", reg.EventID)
	record.Set("ticket_type", reg.TicketType)
	record.Set("price", reg.Price.String())
	record.Set("quantity", reg.Quantity)
	record.Set("payment_method", reg.PaymentMethod)
	record.Set("status", string(reg.Status))
	record.Set("payment_status", string(reg.PaymentStatus))
	if reg.FormData != nil {
		record.Set("form_data", reg.FormData)
	}

	if err := s.app.Save(record); err != nil {
		return "", fmt.Errorf("insert registration: %w", err)
	}

	return record.Id, nil
}

func (s *Registrations) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	record, err := s.app.FindRecordById("registrations", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find registration %q: %w", id, err)
	}

	return registrationFromRecord(record), nil
}

func (s *Registrations) ListByUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	records, err := s.app.FindRecordsByFilter(
		"registrations",
		"user_id = {:userId}",
		"-registered_at",
		0,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations for user %q: %w", userID, err)
	}

	regs := make([]*models.Registration, 0, len(records))
	for _, record := range records {
		regs = append(regs, registrationFromRecord(record))
	}
	return regs, nil
}

func (s *Registrations) ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	records, err := s.app.FindRecordsByFilter(
		"registrations",
		"event_id = {:eventId}",
		"-registered_at",
		0,
		0,
		dbx.Params{"eventId": eventID},
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations for event %q: %w", eventID, err)
	}

	regs := make([]*models.Registration, 0, len(records))
	for _, record := range records {
		regs = append(regs, registrationFromRecord(record))
	}
	return regs, nil
}

// MarkPaid is a single conditional update so two concurrent confirmations
// cannot both win the pending -> confirmed transition.
func (s *Registrations) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	paidAtDT, err := types.ParseDateTime(paidAt.UTC())
	if err != nil {
		return false, fmt.Errorf("parse paid_at: %w", err)
	}

	result, err := s.app.NonconcurrentDB().
		NewQuery(`UPDATE registrations
			SET status = 'confirmed', payment_status = 'paid', paid_at = {:paidAt}
			WHERE id = {:id} AND status = 'pending'`).
		Bind(dbx.Params{"paidAt": paidAtDT, "id": id}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return false, fmt.Errorf("mark registration %q paid: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark registration %q paid: %w", id, err)
	}

	return affected == 1, nil
}

func registrationFromRecord(record *core.Record) *models.Registration {
	reg := &models.Registration{
		ID: record.Id,
		Purchaser: models.Purchaser{
			UserID:     record.GetString("user_id"),
			GuestName:  record.GetString("guest_name"),
			GuestEmail: record.GetString("guest_email"),
			GuestPhone: record.GetString("guest_phone"),
		},
		EventID:       record.GetString("event_id"),
		TicketType:    record.GetString("ticket_type"),
		Quantity:      record.GetInt("quantity"),
		PaymentMethod: record.GetString("payment_method"),
		Status:        models.RegistrationStatus(record.GetString("status")),
		PaymentStatus: models.PaymentStatus(record.GetString("payment_status")),
		RegisteredAt:  record.GetDateTime("registered_at").Time(),
	}

	// prices are stored as decimal strings; floats would silently lose
	// precision on the round trip
	if price, err := decimal.NewFromString(record.GetString("price")); err == nil {
		reg.Price = price
	}

	if paidAt := record.GetDateTime("paid_at"); !paidAt.IsZero() {
		t := paidAt.Time()
		reg.PaidAt = &t
	}

	var formData []map[string]any
	if err := record.UnmarshalJSONField("form_data", &formData); err == nil {
		reg.FormData = formData
	}

	return reg
}

type Tickets struct {
	app core.App
}

func NewTickets(app core.App) *Tickets {
	return &Tickets{app: app}
}

func (s *Tickets) Insert(ctx context.Context, ticket *models.Ticket) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId("tickets")
	if err != nil {
		return "", fmt.Errorf("find tickets collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("code", ticket.Code)
	record.Set("registration_id", ticket.RegistrationID)
	record.Set("slot", ticket.Slot)
	record.Set("user_id", ticket.UserID)
	record.Set("event_id", ticket.EventID)
	record.Set("ticket_type", ticket.TicketType)
	record.Set("qr_token", ticket.QRToken)
	record.Set("status", string(ticket.Status))

	if err := s.app.Save(record); err != nil {
		if isUniqueViolation(err) {
			return "", status.ErrConflict
		}
		return "", fmt.Errorf("insert ticket: %w", err)
	}

	return record.Id, nil
}

func (s *Tickets) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	record, err := s.app.FindRecordById("tickets", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find ticket %q: %w", id, err)
	}

	return ticketFromRecord(record), nil
}

func (s *Tickets) FindByToken(ctx context.Context, token string) (*models.Ticket, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"tickets",
		"qr_token = {:token}",
		dbx.Params{"token": token},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find ticket by token: %w", err)
	}

	return ticketFromRecord(record), nil
}

func (s *Tickets) ListByRegistration(ctx context.Context, registrationID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		"tickets",
		"registration_id = {:registrationId}",
		"slot",
		0,
		0,
		dbx.Params{"registrationId": registrationID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets for registration %q: %w", registrationID, err)
	}

	tickets := make([]*models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, ticketFromRecord(record))
	}
	return tickets, nil
}

func (s *Tickets) ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		"tickets",
		"user_id = {:userId}",
		"-created",
		0,
		0,
		dbx.Params{"userId": userID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets for user %q: %w", userID, err)
	}

	tickets := make([]*models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, ticketFromRecord(record))
	}
	return tickets, nil
}

// Redeem performs the valid -> used transition as one conditional update.
// The match count decides which of two concurrent scans won.
func (s *Tickets) Redeem(ctx context.Context, token, validatedBy string, usedAt time.Time) (bool, error) {
	usedAtDT, err := types.ParseDateTime(usedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("parse used_at: %w", err)
	}

	result, err := s.app.NonconcurrentDB().
		NewQuery(`UPDATE tickets
			SET status = 'used', used_at = {:usedAt}, validated_by = {:validatedBy}
			WHERE qr_token = {:token} AND status = 'valid'`).
		Bind(dbx.Params{"usedAt": usedAtDT, "validatedBy": validatedBy, "token": token}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return false, fmt.Errorf("redeem ticket: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("redeem ticket: %w", err)
	}

	return affected == 1, nil
}

func ticketFromRecord(record *core.Record) *models.Ticket {
	ticket := &models.Ticket{
		ID:             record.Id,
		Code:           record.GetString("code"),
		RegistrationID: record.GetString("registration_id"),
		Slot:           record.GetInt("slot"),
		UserID:         record.GetString("user_id"),
		EventID:        record.GetString("event_id"),
		TicketType:     record.GetString("ticket_type"),
		QRToken:        record.GetString("qr_token"),
		Status:         models.TicketStatus(record.GetString("status")),
		CreatedAt:      record.GetDateTime("created").Time(),
		ValidatedBy:    record.GetString("validated_by"),
	}

	if usedAt := record.GetDateTime("used_at"); !usedAt.IsZero() {
		t := usedAt.Time()
		ticket.UsedAt = &t
	}

	return ticket
}

type Events struct {
	app core.App
}

func NewEvents(app core.App) *Events {
	return &Events{app: app}
}

func (s *Events) FindByID(ctx context.Context, id string) (*models.Event, error) {
	record, err := s.app.FindRecordById("events", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find event %q: %w", id, err)
	}

	return &models.Event{
		ID:         record.Id,
		Title:      record.GetString("title"),
		Date:       record.GetString("date"),
		Time:       record.GetString("time"),
		Address:    record.GetString("address"),
		CoverImage: record.GetString("cover_image"),
		TargetDate: record.GetString("target_date"),
		CreatedBy:  record.GetString("created_by"),
	}, nil
}

type Users struct {
	app core.App
}

func NewUsers(app core.App) *Users {
	return &Users{app: app}
}

func (s *Users) FindContact(ctx context.Context, userID string) (string, string, error) {
	record, err := s.app.FindRecordById("users", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", status.ErrNotFound
		}
		return "", "", fmt.Errorf("find user %q: %w", userID, err)
	}

	return record.GetString("name"), record.GetString("email"), nil
}

// isUniqueViolation recognizes a unique index collision in both shapes it
// can reach us: app.Save normalizes index errors into validation.Errors with
// a validation_not_unique code, while raw queries surface SQLite's own
// message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		for _, fieldErr := range vErrs {
			if ve, ok := fieldErr.(validation.Error); ok && ve.Code() == "validation_not_unique" {
				return true
			}
		}
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
