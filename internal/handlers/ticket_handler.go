package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventify-api/internal/services"
	"eventify-api/models"
)

type TicketHandler struct {
	app        *pocketbase.PocketBase
	tickets    *services.TicketService
	validation *services.ValidationService
}

func NewTicketHandler(app *pocketbase.PocketBase, tickets *services.TicketService, validation *services.ValidationService) *TicketHandler {
	return &TicketHandler{
		app:        app,
		tickets:    tickets,
		validation: validation,
	}
}

// GetMyTickets - the caller's tickets with event snapshots. A missing event
// degrades that entry to a placeholder; the listing itself never fails over
// one broken reference.
func (h *TicketHandler) GetMyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	summaries, err := h.tickets.ListMine(e.Request.Context(), e.Auth.Id)
	if err != nil {
		return toAPIError(err)
	}

	result := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		ticket := summary.Ticket
		entry := map[string]any{
			"id":          ticket.ID,
			"ticket_id":   ticket.Code,
			"status":      ticket.Status,
			"ticket_type": ticket.TicketType,
			"created_at":  ticket.CreatedAt,
			"used_at":     ticket.UsedAt,
			"qr_token":    ticket.QRToken, // owner only
			"event":       summary.Event,
		}
		if summary.Registration != nil {
			entry["registration"] = summary.Registration
		}
		result = append(result, entry)
	}

	return e.JSON(http.StatusOK, result)
}

// GetTicketDetails - single ticket view, owner only.
func (h *TicketHandler) GetTicketDetails(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	detail, err := h.tickets.Get(e.Request.Context(), e.Request.PathValue("id"), e.Auth.Id)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, detail)
}

// ValidateTicket - scan-time redemption by the event organizer. Unknown
// tokens are 404 and non-organizers 403; every other refusal is a soft fail
// carried in the body so the scanner UI can show a distinct message.
func (h *TicketHandler) ValidateTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		QRToken string `json:"qr_token"`
		EventID string `json:"event_id"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if req.QRToken == "" {
		return e.JSON(http.StatusBadRequest, map[string]any{
			"valid":   false,
			"message": "QR token required",
		})
	}

	result, err := h.validation.Validate(e.Request.Context(), req.QRToken, e.Auth.Id, req.EventID)
	if err != nil {
		return toAPIError(err)
	}

	httpStatus := http.StatusOK
	switch result.Outcome {
	case models.OutcomeInvalid:
		httpStatus = http.StatusNotFound
	case models.OutcomeUnauthorized:
		httpStatus = http.StatusForbidden
	}

	return e.JSON(httpStatus, result)
}
