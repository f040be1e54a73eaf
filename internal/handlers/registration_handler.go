package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"eventify-api/internal/services"
	"eventify-api/internal/status"
	"eventify-api/models"
)

type RegistrationHandler struct {
	app          *pocketbase.PocketBase
	registration *services.RegistrationService
}

func NewRegistrationHandler(app *pocketbase.PocketBase, registration *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		app:          app,
		registration: registration,
	}
}

// CreateRegistration - register for an event, authenticated or as a guest.
// Any status/payment_status the client sends is not even bound: payment
// state is recomputed server side from the price.
func (h *RegistrationHandler) CreateRegistration(e *core.RequestEvent) error {
	var req struct {
		EventID       string           `json:"event_id"`
		TicketType    string           `json:"ticket_type"`
		Price         decimal.Decimal  `json:"price"`
		Quantity      int              `json:"quantity"`
		PaymentMethod string           `json:"payment_method"`
		GuestName     string           `json:"guest_name"`
		GuestEmail    string           `json:"guest_email"`
		GuestPhone    string           `json:"guest_phone"`
		FormData      []map[string]any `json:"form_data"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	purchaser := models.Purchaser{
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
	}
	if e.Auth != nil {
		purchaser = models.Purchaser{UserID: e.Auth.Id}
	}

	result, err := h.registration.Create(e.Request.Context(), services.CreateRegistrationParams{
		Purchaser:     purchaser,
		EventID:       req.EventID,
		TicketType:    req.TicketType,
		Price:         req.Price,
		Quantity:      req.Quantity,
		PaymentMethod: req.PaymentMethod,
		FormData:      req.FormData,
	})
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"message":        "Registration created",
		"id":             result.ID,
		"status":         result.Status,
		"payment_status": result.PaymentStatus,
		"tickets":        result.Tickets,
	})
}

// ConfirmPayment - translate an external payment confirmation into ticket
// entitlement. Idempotent; guest orders need no auth.
func (h *RegistrationHandler) ConfirmPayment(e *core.RequestEvent) error {
	registrationID := e.Request.PathValue("id")

	requesterID := ""
	if e.Auth != nil {
		requesterID = e.Auth.Id
	}

	result, err := h.registration.ConfirmPayment(e.Request.Context(), registrationID, requesterID)
	if err != nil {
		return toAPIError(err)
	}

	message := "Payment confirmed and tickets generated"
	if result.AlreadyApplied {
		message = "Payment already confirmed"
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": message,
		"status":  result.Status,
		"tickets": result.Tickets,
	})
}

// GetMyRegistrations - the caller's registrations with event snapshots.
func (h *RegistrationHandler) GetMyRegistrations(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	entries, err := h.registration.ListMine(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return toAPIError(err)
	}

	result := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		reg := entry.Registration
		result = append(result, map[string]any{
			"id":             reg.ID,
			"event_id":       reg.EventID,
			"ticket_type":    reg.TicketType,
			"price":          reg.Price,
			"quantity":       reg.Quantity,
			"status":         reg.Status,
			"payment_status": reg.PaymentStatus,
			"registered_at":  reg.RegisteredAt,
			"event":          entry.Event,
		})
	}

	return e.JSON(http.StatusOK, result)
}

// GetEventRegistrations - organizer-only listing for one event.
func (h *RegistrationHandler) GetEventRegistrations(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	entries, err := h.registration.ListForEvent(e.Request.Context(), eventID, e.Auth.Id)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return apis.NewNotFoundError("Event not found", nil)
		}
		return toAPIError(err)
	}

	result := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		reg := entry.Registration
		result = append(result, map[string]any{
			"id":             reg.ID,
			"user_name":      entry.UserName,
			"user_email":     entry.UserEmail,
			"ticket_type":    reg.TicketType,
			"quantity":       reg.Quantity,
			"price":          reg.Price,
			"status":         reg.Status,
			"payment_status": reg.PaymentStatus,
			"registered_at":  reg.RegisteredAt,
		})
	}

	return e.JSON(http.StatusOK, result)
}

// toAPIError translates the service error taxonomy into API responses.
// Authorization and not-found failures stay distinct; anything else is a
// store failure the caller may retry.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, status.ErrValidation):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Not found", nil)
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewForbiddenError("Unauthorized", nil)
	case errors.Is(err, status.ErrConflict):
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", err)
	}
}
