package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-ticket-reservation/internal/repository"
	"github.com/iliyamo/concert-ticket-reservation/internal/service"
)

// AdminHandler serves the ADMIN-only management endpoints.  Routes are
// guarded by RequireRole("ADMIN") in the router.
type AdminHandler struct {
	Users   *repository.UserRepo
	Orders  *repository.OrderRepo
	Sweeper *service.OrderSweeper
}

func NewAdminHandler(u *repository.UserRepo, o *repository.OrderRepo, s *service.OrderSweeper) *AdminHandler {
	return &AdminHandler{Users: u, Orders: o, Sweeper: s}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// DeleteUser handles DELETE /api/admin/users/:id.  Admins cannot delete
// themselves.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if self, err := getUserID(c); err == nil && self == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// AllOrders handles GET /api/admin/orders: every order in the system.
func (h *AdminHandler) AllOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	orders, err := h.Orders.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// CheckExpired handles POST /api/admin/orders/check-expired: runs one sweep
// immediately instead of waiting for the next tick.
func (h *AdminHandler) CheckExpired(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	res, err := h.Sweeper.SweepOnce(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":          "expired orders processed",
		"cancelled_orders": res.Cancelled,
		"errors":           res.Errors,
	})
}
