package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concert-ticket-reservation/internal/config"
	"github.com/iliyamo/concert-ticket-reservation/internal/model"
	"github.com/iliyamo/concert-ticket-reservation/internal/promptpay"
	"github.com/iliyamo/concert-ticket-reservation/internal/queue"
	"github.com/iliyamo/concert-ticket-reservation/internal/repository"
	"github.com/iliyamo/concert-ticket-reservation/internal/service"
	"github.com/iliyamo/concert-ticket-reservation/internal/slipok"
	"github.com/iliyamo/concert-ticket-reservation/internal/storage"
)

// PaymentHandler serves QR generation and both payment confirmation paths.
// The PENDING check and the payment insert always happen under the order
// row lock, so between manual confirmation, slip verification and the
// expiry sweeper exactly one writer resolves each order.
type PaymentHandler struct {
	Cfg      config.Config
	Orders   *repository.OrderRepo
	Tickets  *repository.TicketTypeRepo
	Payments *repository.PaymentRepo
	Slips    *storage.SlipStore
	SlipOK   *slipok.Client
	Log      *logrus.Logger
}

func NewPaymentHandler(cfg config.Config, o *repository.OrderRepo, t *repository.TicketTypeRepo, p *repository.PaymentRepo, s *storage.SlipStore, v *slipok.Client, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Orders: o, Tickets: t, Payments: p, Slips: s, SlipOK: v, Log: log}
}

type qrReq struct {
	OrderID uint64          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// GenerateQR handles POST /api/payments/qr.  With an order_id the amount is
// taken from the caller's order; otherwise a positive amount is required.
// Returns the EMV payload and a PNG data URI.
func (h *PaymentHandler) GenerateQR(c echo.Context) error {
	var req qrReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if h.Cfg.PromptPayID == "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "PromptPay account not configured"})
	}

	amount := req.Amount
	if req.OrderID != 0 {
		userID, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		order, err := h.Orders.Get(ctx, req.OrderID)
		if err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !isAdmin(c) && order.UserID != userID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
		}
		amount = order.TotalAmount
	}
	if !amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a positive number"})
	}

	payload, err := promptpay.GeneratePayload(h.Cfg.PromptPayID, amount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	dataURI, err := promptpay.QRDataURI(payload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "QR generation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"payload":   payload,
		"qr_base64": dataURI,
		"format":    "data_uri",
		"mime_type": "image/png",
	})
}

type confirmReq struct {
	OrderID       uint64          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name"`
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	CompletedAt   *time.Time      `json:"completed_at"`
}

// Confirm handles POST /api/payments/confirm, the manual confirmation path.
// Exactly one confirmation can succeed per order; replays and races lose
// the row lock and get a conflict response.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.OrderID == 0 || !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id and amount are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	completedAt := time.Now().UTC()
	if req.CompletedAt != nil {
		completedAt = req.CompletedAt.UTC()
	}
	payment := &model.Payment{
		OrderID:     req.OrderID,
		PaymentCode: repository.GeneratePaymentCode(),
		Amount:      req.Amount,
		Status:      model.PaymentStatusPaid,
		CompletedAt: completedAt,
	}
	if s := strings.TrimSpace(req.BankName); s != "" {
		payment.BankName = &s
	}
	if s := strings.TrimSpace(req.AccountName); s != "" {
		payment.AccountName = &s
	}
	if s := strings.TrimSpace(req.AccountNumber); s != "" {
		payment.AccountNumber = &s
	}

	order, status, payErr := h.settle(ctx, c, userID, req.OrderID, payment)
	if payErr != nil {
		return c.JSON(status, echo.Map{"error": payErr.Error()})
	}

	h.publishPaid(order, payment, "manual")
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "payment confirmed",
		"payment_id":   payment.ID,
		"payment_code": payment.PaymentCode,
		"order_id":     order.ID,
		"order_code":   order.OrderCode,
		"completed_at": payment.CompletedAt,
	})
}

// VerifySlip handles POST /api/payments/verify-slip: multipart upload of a
// transfer slip which is checked against the SlipOK API before the order is
// settled.  A rejected slip is deleted and the upstream response is passed
// through.
func (h *PaymentHandler) VerifySlip(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !h.SlipOK.Configured() {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "slip verification service not configured"})
	}

	orderID, err := parseFormUint(c.FormValue("order_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id and amount are required"})
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("amount")))
	if err != nil || !amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id and amount are required"})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	// Cheap pre-checks before touching disk or the external API.  The
	// authoritative check repeats under the row lock in settle.
	if status, err := h.precheck(ctx, c, userID, orderID); err != nil {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
	}
	tempRel, err := h.Slips.SaveTemp(fileHeader.Filename, src)
	_ = src.Close()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
	}

	slipFile, err := h.Slips.Open(tempRel)
	if err != nil {
		_ = h.Slips.Discard(tempRel)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
	}
	result, err := h.SlipOK.VerifySlip(ctx, fileHeader.Filename, slipFile, amount)
	_ = slipFile.Close()
	if err != nil {
		_ = h.Slips.Discard(tempRel)
		h.Log.WithError(err).Warn("slipok request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "slip verification service unavailable"})
	}
	if !result.Success {
		_ = h.Slips.Discard(tempRel)
		status := result.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadRequest
		}
		return c.JSON(status, echo.Map{
			"error":   "slip verification failed",
			"details": result.Body,
		})
	}

	slipRel, err := h.Slips.Promote(tempRel, orderID)
	if err != nil {
		_ = h.Slips.Discard(tempRel)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store slip failed"})
	}

	payment := &model.Payment{
		OrderID:       orderID,
		PaymentCode:   repository.GeneratePaymentCode(),
		Amount:        amount,
		SlipImagePath: &slipRel,
		Status:        model.PaymentStatusPaid,
		CompletedAt:   time.Now().UTC(),
	}
	order, status, payErr := h.settle(ctx, c, userID, orderID, payment)
	if payErr != nil {
		_ = h.Slips.Discard(slipRel)
		return c.JSON(status, echo.Map{"error": payErr.Error()})
	}

	h.publishPaid(order, payment, "slip")
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "payment confirmed",
		"payment_id":   payment.ID,
		"payment_code": payment.PaymentCode,
		"order_id":     order.ID,
		"order_code":   order.OrderCode,
		"slip_path":    slipRel,
		"verification": result.Body,
	})
}

// GetSlip handles GET /api/payments/slip/:orderID and streams the stored
// slip image to the order's owner or an admin.
func (h *PaymentHandler) GetSlip(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := parseIDParam(c, "orderID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !isAdmin(c) && order.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}

	rel, err := h.Payments.SlipPathByOrder(ctx, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slip image not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !h.Slips.Exists(rel) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "image file not found"})
	}
	return c.File(h.Slips.FullPath(rel))
}

// precheck verifies existence, ownership and PENDING status without
// holding locks.  Returns the HTTP status to use on failure.
func (h *PaymentHandler) precheck(ctx context.Context, c echo.Context, userID, orderID uint64) (int, error) {
	order, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return http.StatusNotFound, errOrderNotFound
		}
		return http.StatusInternalServerError, errDatabase
	}
	if !isAdmin(c) && order.UserID != userID {
		return http.StatusForbidden, errNotYourOrder
	}
	if order.Status != model.OrderStatusPending {
		return http.StatusBadRequest, repository.ErrOrderNotPending
	}
	return 0, nil
}

// settle performs the exactly-once PENDING to PAID transition: lock the
// order row, re-verify ownership and status, guard against an existing
// payment, insert the payment and flip the status, all in one transaction.
func (h *PaymentHandler) settle(ctx context.Context, c echo.Context, userID, orderID uint64, payment *model.Payment) (model.Order, int, error) {
	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, http.StatusInternalServerError, errDatabase
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order, err := h.Orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Order{}, http.StatusNotFound, errOrderNotFound
		}
		return model.Order{}, http.StatusInternalServerError, errDatabase
	}
	if !isAdmin(c) && order.UserID != userID {
		return model.Order{}, http.StatusForbidden, errNotYourOrder
	}
	if order.Status != model.OrderStatusPending {
		return model.Order{}, http.StatusBadRequest, repository.ErrOrderNotPending
	}
	exists, err := h.Payments.PaidExistsTx(ctx, tx, orderID)
	if err != nil {
		return model.Order{}, http.StatusInternalServerError, errDatabase
	}
	if exists {
		return model.Order{}, http.StatusBadRequest, repository.ErrDuplicatePayment
	}

	if err := h.Payments.CreateTx(ctx, tx, payment); err != nil {
		return model.Order{}, http.StatusInternalServerError, errDatabase
	}
	if err := h.Orders.SetStatusTx(ctx, tx, orderID, model.OrderStatusPaid); err != nil {
		return model.Order{}, http.StatusInternalServerError, errDatabase
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, http.StatusInternalServerError, errDatabase
	}
	committed = true
	order.Status = model.OrderStatusPaid
	return order, 0, nil
}

// publishPaid emits the order.paid event in the background; a broker outage
// never fails the payment that triggered it.
func (h *PaymentHandler) publishPaid(order model.Order, payment *model.Payment, method string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ev := queue.OrderPaidEvent{
			OrderID:     order.ID,
			OrderCode:   order.OrderCode,
			UserID:      order.UserID,
			PaymentCode: payment.PaymentCode,
			Method:      method,
			TotalAmount: order.TotalAmount.StringFixed(2),
			PaidAt:      payment.CompletedAt.Format(time.RFC3339),
		}
		tx, err := h.Orders.DB().BeginTx(ctx, nil)
		if err == nil {
			if items, err := h.Orders.ItemsTx(ctx, tx, order.ID); err == nil {
				for _, it := range items {
					line := queue.OrderItemLine{Quantity: it.Quantity}
					if detail, _, err := h.Tickets.GetByID(ctx, it.TicketTypeID); err == nil {
						line.TicketType = detail.Name
					}
					ev.Items = append(ev.Items, line)
				}
			}
			_ = tx.Rollback()
		}
		_ = service.PublishOrderPaid(ctx, h.Log, ev)
	}()
}

func parseFormUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errInvalidID
	}
	var id uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errInvalidID
		}
		id = id*10 + uint64(r-'0')
	}
	if id == 0 {
		return 0, errInvalidID
	}
	return id, nil
}
