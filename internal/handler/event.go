package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/concert-ticket-reservation/internal/model"
	"github.com/iliyamo/concert-ticket-reservation/internal/repository"
	"github.com/iliyamo/concert-ticket-reservation/internal/sqlutil"
)

// EventHandler serves the public catalog and the organizer-facing event
// management endpoints.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(e *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: e}
}

// ListPublished handles GET /api/events: every published event, soonest
// first.
func (h *EventHandler) ListPublished(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListPublished(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// MyEvents handles GET /api/events/mine: all events of the calling
// organizer, drafts included.
func (h *EventHandler) MyEvents(c echo.Context) error {
	organizerID := getOrganizerID(c)
	if organizerID == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "organizer account required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Get handles GET /api/events/:id.  Unpublished events are only visible to
// their organizer and admins.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, organizerID, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !detail.IsPublished && !isAdmin(c) && getOrganizerID(c) != organizerID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, detail)
}

type ticketTypeReq struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	TotalQuantity uint32          `json:"total_quantity"`
}

type createEventReq struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Venue       string          `json:"venue"`
	EventDate   time.Time       `json:"event_date"`
	PosterURL   string          `json:"poster_url"`
	IsPublished bool            `json:"is_published"`
	TicketTypes []ticketTypeReq `json:"ticket_types"`
}

// Create handles POST /api/events: a new event with optional inline ticket
// tiers, owned by the calling organizer.
func (h *EventHandler) Create(c echo.Context) error {
	organizerID := getOrganizerID(c)
	if organizerID == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "organizer account required"})
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Venue = strings.TrimSpace(req.Venue)
	if req.Title == "" || req.Venue == "" || req.EventDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, venue and event_date required"})
	}
	tiers := make([]repository.TicketTypeInput, 0, len(req.TicketTypes))
	for _, t := range req.TicketTypes {
		if strings.TrimSpace(t.Name) == "" || t.TotalQuantity == 0 || t.Price.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each ticket type needs a name, a positive quantity and a non-negative price"})
		}
		tiers = append(tiers, repository.TicketTypeInput{
			Name:          strings.TrimSpace(t.Name),
			Price:         t.Price,
			TotalQuantity: t.TotalQuantity,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev := &model.Event{
		OrganizerID: organizerID,
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		EventDate:   req.EventDate,
		PosterURL:   strings.TrimSpace(req.PosterURL),
		IsPublished: req.IsPublished,
	}
	id, err := h.Events.Create(ctx, ev, tiers)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	detail, _, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, detail)
}

type updateEventReq struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Venue       *string    `json:"venue"`
	EventDate   *time.Time `json:"event_date"`
	PosterURL   *string    `json:"poster_url"`
	IsPublished *bool      `json:"is_published"`
}

// Update handles PUT /api/events/:id.  Only the owning organizer or an
// admin may modify an event; absent fields are untouched.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ownerID, err := h.Events.OrganizerID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isAdmin(c) && getOrganizerID(c) != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	}

	b := sqlutil.NewUpdate("events")
	b.SetString("title", req.Title)
	b.SetString("description", req.Description)
	b.SetString("venue", req.Venue)
	b.SetString("poster_url", req.PosterURL)
	if req.EventDate != nil {
		b.Set("event_date", *req.EventDate)
	}
	if req.IsPublished != nil {
		b.Set("is_published", *req.IsPublished)
	}
	if b.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if err := h.Events.Update(ctx, id, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	detail, _, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Delete handles DELETE /api/events/:id.  Refused while any of the event's
// tickets appear in an order.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ownerID, err := h.Events.OrganizerID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isAdmin(c) && getOrganizerID(c) != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	}

	if err := h.Events.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has orders"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
}
