package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/concert-ticket-reservation/internal/repository"
	"github.com/iliyamo/concert-ticket-reservation/internal/sqlutil"
)

// TicketTypeHandler serves ticket tier listing and management.
type TicketTypeHandler struct {
	Tickets *repository.TicketTypeRepo
	Events  *repository.EventRepo
}

func NewTicketTypeHandler(t *repository.TicketTypeRepo, e *repository.EventRepo) *TicketTypeHandler {
	return &TicketTypeHandler{Tickets: t, Events: e}
}

// List handles GET /api/ticket-types with pagination and optional event_id
// and search filters.
func (h *TicketTypeHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	eventID, _ := strconv.ParseUint(c.QueryParam("event_id"), 10, 64)
	search := c.QueryParam("search")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.Tickets.List(ctx, eventID, search, limit, (page-1)*limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	pages := (total + limit - 1) / limit
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_types": list,
		"pagination": echo.Map{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": pages,
		},
	})
}

// Get handles GET /api/ticket-types/:id.
func (h *TicketTypeHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, _, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, detail)
}

type createTicketTypeReq struct {
	EventID       uint64          `json:"event_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	TotalQuantity uint32          `json:"total_quantity"`
}

// Create handles POST /api/ticket-types for the owning organizer.
func (h *TicketTypeHandler) Create(c echo.Context) error {
	var req createTicketTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.EventID == 0 || req.Name == "" || req.TotalQuantity == 0 || req.Price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id, name, positive total_quantity and non-negative price required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ownerID, err := h.Events.OrganizerID(ctx, req.EventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isAdmin(c) && getOrganizerID(c) != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	}

	id, err := h.Tickets.Create(ctx, req.EventID, req.Name, req.Price, req.TotalQuantity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	detail, _, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusCreated, detail)
}

type updateTicketTypeReq struct {
	Name          *string          `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	TotalQuantity *uint32          `json:"total_quantity"`
}

// Update handles PUT /api/ticket-types/:id.  total_quantity may grow or
// shrink but never below what is already sold.
func (h *TicketTypeHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type id"})
	}
	var req updateTicketTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	b := sqlutil.NewUpdate("ticket_types")
	b.SetString("name", req.Name)
	if req.Price != nil {
		if req.Price.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
		}
		b.Set("price", *req.Price)
	}
	if b.Empty() && req.TotalQuantity == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The capacity bound must be checked against sold_quantity as seen
	// under the row lock; a concurrent purchase would otherwise reserve
	// stock between the check and the write.
	tx, err := h.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	current, err := h.Tickets.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrTicketTypeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ownerID, err := h.Events.OrganizerID(ctx, current.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isAdmin(c) && getOrganizerID(c) != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	}
	if req.TotalQuantity != nil {
		if !current.AcceptsTotal(*req.TotalQuantity) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":         "total_quantity below sold quantity",
				"sold_quantity": current.SoldQuantity,
			})
		}
		b.Set("total_quantity", *req.TotalQuantity)
	}
	if err := h.Tickets.UpdateTx(ctx, tx, id, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	committed = true

	updated, _, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/ticket-types/:id.  Refused for tiers already
// referenced by orders.
func (h *TicketTypeHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, ownerID, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isAdmin(c) && getOrganizerID(c) != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your event"})
	}

	if err := h.Tickets.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket type has orders"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ticket type deleted"})
}
