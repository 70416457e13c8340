package handler

import (
	"net/http"
	"strings"

	"marketplace/internal/domain/model"
	"marketplace/internal/middleware"
	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

type OrderHandler struct {
	checkout *usecase.CheckoutUsecase
	orders   *usecase.OrderUsecase
	status   *usecase.OrderStatusUsecase
}

func NewOrderHandler(checkout *usecase.CheckoutUsecase, orders *usecase.OrderUsecase, status *usecase.OrderStatusUsecase) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, status: status}
}

type CheckoutItemRequest struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

// itemsが空ならカートから注文する
type CheckoutRequest struct {
	AddressID     int64                 `json:"address_id"`
	Items         []CheckoutItemRequest `json:"items"`
	CouponCode    string                `json:"coupon_code"`
	PaymentMethod string                `json:"payment_method"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/orders")
	g.Use(auth)

	customer := middleware.RequireRoles(model.RoleCustomer)
	g.POST("", h.create, customer)
	g.GET("", h.list, customer)
	g.GET("/:id", h.detail, customer)
	g.POST("/:id/cancel", h.cancel, middleware.RequireRoles(model.RoleCustomer, model.RoleAdmin))
}

func (h *OrderHandler) create(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	lines := make([]usecase.CheckoutLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, usecase.CheckoutLine{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get(HeaderIdempotencyKey)

	out, err := h.checkout.Checkout(c.Request().Context(), actor.ID, usecase.CheckoutInput{
		AddressID:      req.AddressID,
		Items:          lines,
		CouponCode:     req.CouponCode,
		PaymentMethod:  model.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))),
		IdempotencyKey: idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusCreated, "order created", out)
}

func (h *OrderHandler) list(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	page, limit, err := parsePaging(c, 20)
	if err != nil {
		return badRequest(c, err.Error())
	}

	out, err := h.orders.ListMyOrders(c.Request().Context(), actor.ID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "ok", out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.orders.GetMyOrderDetail(c.Request().Context(), actor.ID, id)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "ok", out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.status.CancelOrder(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return writeOK(c, http.StatusOK, "order canceled", out)
}
