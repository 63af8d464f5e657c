package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/concert-ticket-reservation/internal/config"
	"github.com/iliyamo/concert-ticket-reservation/internal/model"
	"github.com/iliyamo/concert-ticket-reservation/internal/repository"
)

// OrderHandler serves purchase and order listing.  Purchase runs the whole
// reservation inside one transaction so either every requested ticket is
// reserved and the order exists, or nothing changed at all.
type OrderHandler struct {
	Cfg     config.Config
	Orders  *repository.OrderRepo
	Tickets *repository.TicketTypeRepo
}

func NewOrderHandler(cfg config.Config, o *repository.OrderRepo, t *repository.TicketTypeRepo) *OrderHandler {
	return &OrderHandler{Cfg: cfg, Orders: o, Tickets: t}
}

type purchaseItemReq struct {
	TicketTypeID uint64 `json:"ticket_type_id"`
	Quantity     uint32 `json:"quantity"`
}

type purchaseReq struct {
	Items []purchaseItemReq `json:"items"`
}

type orderItemResp struct {
	TicketTypeID uint64          `json:"ticket_type_id"`
	Name         string          `json:"name"`
	Quantity     uint32          `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

type orderResp struct {
	ID          uint64          `json:"id"`
	OrderCode   string          `json:"order_code"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []orderItemResp `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// Purchase handles POST /api/orders/purchase.  The flow, all under one
// transaction: lock the buyer's user row, reject if an unresolved PENDING
// order exists, reserve each requested ticket type under its row lock,
// compute the order code for today, then insert the order and its items.
// Quantities for a repeated ticket_type_id are merged; reservations are
// taken in ascending ticket_type_id order so concurrent multi-item
// purchases cannot deadlock.
func (h *OrderHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items required"})
	}
	merged := make(map[uint64]uint32, len(req.Items))
	for _, it := range req.Items {
		if it.TicketTypeID == 0 || it.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each item needs ticket_type_id and a positive quantity"})
		}
		merged[it.TicketTypeID] += it.Quantity
	}
	ids := make([]uint64, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Serialize purchases per user behind the user row lock, then check for
	// an unresolved order.
	if err := h.Orders.LockUserTx(ctx, tx, userID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pending, err := h.Orders.FindActivePendingTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if pending != nil {
		remaining := h.Cfg.OrderWindow - time.Now().UTC().Sub(pending.CreatedAt)
		if remaining < 0 {
			remaining = 0
		}
		// Rounded up so a minute with seconds left still reads as one.
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                  "you already have a pending order",
			"pending_order_id":       pending.ID,
			"order_code":             pending.OrderCode,
			"total_amount":           pending.TotalAmount,
			"time_remaining_minutes": int((remaining + time.Minute - 1) / time.Minute),
		})
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(ids))
	names := make(map[uint64]string, len(ids))
	for _, id := range ids {
		qty := merged[id]
		t, err := h.Tickets.ReserveTx(ctx, tx, id, qty)
		if err != nil {
			var insufficient *repository.InsufficientStockError
			switch {
			case errors.As(err, &insufficient):
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error":          "insufficient stock",
					"ticket_type_id": insufficient.TicketTypeID,
					"name":           insufficient.Name,
					"remaining":      insufficient.Remaining,
				})
			case err == repository.ErrTicketTypeNotFound:
				return c.JSON(http.StatusNotFound, echo.Map{
					"error":          "ticket type not found",
					"ticket_type_id": id,
				})
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
		}
		names[id] = t.Name
		total = total.Add(t.Price.Mul(decimal.NewFromInt(int64(qty))))
		items = append(items, model.OrderItem{
			TicketTypeID: id,
			Quantity:     qty,
			PricePerUnit: t.Price,
		})
	}

	code, err := h.Orders.NextCodeTx(ctx, tx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	order := &model.Order{
		OrderCode:   code,
		UserID:      userID,
		TotalAmount: total,
		Status:      model.OrderStatusPending,
	}
	if err := h.Orders.CreateTx(ctx, tx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := h.Orders.CreateItemsBulkTx(ctx, tx, items); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order items failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	resp := orderResp{
		ID:          order.ID,
		OrderCode:   order.OrderCode,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
		ExpiresAt:   order.CreatedAt.Add(h.Cfg.OrderWindow),
		Items:       make([]orderItemResp, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResp{
			TicketTypeID: it.TicketTypeID,
			Name:         names[it.TicketTypeID],
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit,
		})
	}
	return c.JSON(http.StatusCreated, resp)
}

// MyOrders handles GET /api/orders/my-orders: the caller's full order
// history, newest first.
func (h *OrderHandler) MyOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// user_id is implicit on this endpoint
	for i := range orders {
		orders[i].UserID = 0
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}
